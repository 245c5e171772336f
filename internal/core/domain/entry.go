package domain

import "time"

// EntryStatus indicates where a ledger entry sits in its approval lifecycle.
type EntryStatus string

const (
	EntryDraft    EntryStatus = "draft"
	EntryApproved EntryStatus = "approved"
	EntryPosted   EntryStatus = "posted"
)

// EntryDirection is the accounting direction of an entry.
type EntryDirection string

const (
	Debit  EntryDirection = "debit"
	Credit EntryDirection = "credit"
)

// LedgerEntry represents a single financial entry awaiting export.
// Amount and VATAmount are integer minor currency units (satang); floating
// point money never crosses this type.
type LedgerEntry struct {
	EntryID        string         `json:"entryID"`
	ClientID       string         `json:"clientID"`
	EntryDate      time.Time      `json:"entryDate"`
	AccountCode    string         `json:"accountCode"`
	Description    string         `json:"description"`
	Amount         int64          `json:"amount"` // minor units
	Direction      EntryDirection `json:"direction"`
	Category       string         `json:"category"`
	VATAmount      *int64         `json:"vatAmount,omitempty"` // minor units
	Status         EntryStatus    `json:"status"`
	ApprovedBy     *string        `json:"approvedBy,omitempty"`
	Source         string         `json:"source"`
	ReviewRecordID *string        `json:"reviewRecordID,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	AuditFields
}

// IsApproved reports whether the entry has passed the human approval gate.
func (e LedgerEntry) IsApproved() bool {
	return e.Status == EntryApproved
}
