package services

import (
	"context"

	"github.com/kritsadas/ledger_export_app/internal/core/domain"
)

// WebhookResult describes how a review webhook delivery was handled.
type WebhookResult struct {
	QueueID   string
	Duplicate bool
	Ignored   bool
	Message   string
}

// IngestWebhookSvc handles push-based ingestion from the review tool.
type IngestWebhookSvc interface {
	// HandleReviewEvent processes one webhook delivery. Non-approved records
	// are acknowledged and ignored; duplicates resolve to the existing queue
	// record. Path defaults to immediate when the record carries none.
	HandleReviewEvent(ctx context.Context, recordID, status, exportPath, entryID string) (*WebhookResult, error)
}

// IngestPollerSvc handles pull-based ingestion from the review tool.
type IngestPollerSvc interface {
	// PollReviewRecords fetches pending review records, creates draft entries
	// for new ones, and approves and queues records marked approved. Failures
	// are isolated per record; the count of successfully ingested records is
	// returned.
	PollReviewRecords(ctx context.Context) (int, error)

	// IngestRecord processes a single review record end to end. Exposed so
	// record failures inside PollReviewRecords stay isolated.
	IngestRecord(ctx context.Context, record domain.ReviewRecord) error
}

// IngestSvcFacade combines both ingestion surfaces.
type IngestSvcFacade interface {
	IngestWebhookSvc
	IngestPollerSvc
}
