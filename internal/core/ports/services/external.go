package services

import (
	"context"

	"github.com/kritsadas/ledger_export_app/internal/core/domain"
)

// ReviewClient talks to the external review tool's record API.
type ReviewClient interface {
	// ListPendingRecords returns records awaiting ingestion.
	ListPendingRecords(ctx context.Context) ([]domain.ReviewRecord, error)

	// UpdateRecordEntryID writes the created entry's ID back onto the record.
	UpdateRecordEntryID(ctx context.Context, recordID, entryID string) error
}

// AccountingClient posts a rendered export line to the downstream
// accounting system.
type AccountingClient interface {
	Post(ctx context.Context, entry domain.LedgerEntry, csvLine string) error
}

// FileUploader stores a generated export file and returns where it lives.
type FileUploader interface {
	Upload(ctx context.Context, filename string, content []byte) (*domain.UploadResult, error)
}

// ExternalClients bundles the outbound adapters the services depend on.
type ExternalClients struct {
	Review     ReviewClient
	Accounting AccountingClient
	Uploader   FileUploader
	Notifier   Notifier
}

// Notifier delivers operational notifications.
type Notifier interface {
	// Info sends a routine operational message. Delivery failures are
	// logged by implementations, never returned.
	Info(ctx context.Context, title, message string)

	// Critical sends an alert that needs human attention.
	Critical(ctx context.Context, title, message string)
}
