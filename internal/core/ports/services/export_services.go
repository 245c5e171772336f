package services

import (
	"context"
	"time"

	"github.com/kritsadas/ledger_export_app/internal/core/domain"
	"github.com/kritsadas/ledger_export_app/internal/dto"
)

// ExportReaderSvc defines read operations for export queue state.
type ExportReaderSvc interface {
	// GetExportStatus retrieves the queue record for an entry together with
	// its audit history.
	GetExportStatus(ctx context.Context, entryID string) (*dto.ExportStatusResponse, error)

	// GetExportMetrics aggregates queue counts per status for monitoring.
	GetExportMetrics(ctx context.Context) (*dto.ExportMetricsResponse, error)
}

// ExportWriterSvc defines state-changing operations on the export queue.
type ExportWriterSvc interface {
	// QueueForExport validates an approved entry and enqueues it on the given
	// path. Returns apperrors.ErrDuplicate when the entry is already queued,
	// apperrors.ErrValidation when it is not approved.
	QueueForExport(ctx context.Context, entryID string, path domain.ExportPath, requestedBy string) (*domain.ExportQueueRecord, error)

	// ProcessImmediate runs the single-entry export transaction for a queued
	// record: lock, re-validate, render, post, complete.
	ProcessImmediate(ctx context.Context, queueID string) error

	// RetryExport requeues a failed export if attempts remain. Returns
	// apperrors.ErrMaxRetries once the attempt budget is exhausted.
	RetryExport(ctx context.Context, queueID string, requestedBy string) (*domain.ExportQueueRecord, error)
}

// ExportRendererSvc defines on-demand CSV rendering outside the batch job.
type ExportRendererSvc interface {
	// RenderApprovedCSV renders all approved entries in [from, to] as a CSV
	// document and returns the file contents with a suggested filename.
	RenderApprovedCSV(ctx context.Context, from, to time.Time) ([]byte, string, error)
}

// ExportSvcFacade combines all export queue service interfaces.
type ExportSvcFacade interface {
	ExportReaderSvc
	ExportWriterSvc
	ExportRendererSvc
}

// BatchExportSvc runs the daily scheduled export as one transaction.
type BatchExportSvc interface {
	// RunDailyBatch selects due scheduled records, renders one CSV, uploads
	// it, and completes the records atomically. force includes scheduled
	// records that are not yet due. A batch already generated for the day
	// returns a result with AlreadyGenerated set and no error.
	RunDailyBatch(ctx context.Context, force bool) (*domain.BatchResult, error)
}

// ScheduleSvc exposes the dynamic daily export time.
type ScheduleSvc interface {
	// GetDailyExportTime returns the current HH:MM export time, falling back
	// to the default when none is stored.
	GetDailyExportTime(ctx context.Context) (string, error)

	// SetDailyExportTime validates and stores a new HH:MM export time, then
	// notifies subscribers.
	SetDailyExportTime(ctx context.Context, value, updatedBy string) error

	// Subscribe registers a callback invoked with the new value after every
	// successful SetDailyExportTime.
	Subscribe(fn func(newValue string))
}
