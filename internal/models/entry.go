package models

import "time"

// LedgerEntry is the database row shape for a ledger entry. Amounts are
// integer minor units (bigint columns).
type LedgerEntry struct {
	EntryID        string         `json:"entryID"`
	ClientID       string         `json:"clientID"`
	EntryDate      time.Time      `json:"entryDate"`
	AccountCode    string         `json:"accountCode"`
	Description    string         `json:"description"`
	Amount         int64          `json:"amount"`
	Direction      string         `json:"direction"`
	Category       string         `json:"category"`
	VATAmount      *int64         `json:"vatAmount,omitempty"`
	Status         string         `json:"status"`
	ApprovedBy     *string        `json:"approvedBy,omitempty"`
	Source         string         `json:"source"`
	ReviewRecordID *string        `json:"reviewRecordID,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	AuditFields
}
