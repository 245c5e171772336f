package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/kritsadas/ledger_export_app/internal/apperrors"
	"github.com/kritsadas/ledger_export_app/internal/core/domain"
	portsrepo "github.com/kritsadas/ledger_export_app/internal/core/ports/repositories"
	portssvc "github.com/kritsadas/ledger_export_app/internal/core/ports/services"
	"github.com/kritsadas/ledger_export_app/internal/dto"
	"github.com/kritsadas/ledger_export_app/internal/middleware"
	"github.com/kritsadas/ledger_export_app/internal/utils/csvexport"
)

// exportService provides export queue operations: enqueueing approved
// entries, processing them against the accounting API, and reporting state.
type exportService struct {
	queueRepo  portsrepo.ExportQueueRepositoryWithTx
	entryRepo  portsrepo.EntryRepositoryFacade
	logRepo    portsrepo.ExportLogRepositoryFacade
	accounting portssvc.AccountingClient
	notifier   portssvc.Notifier
	schedule   portssvc.ScheduleSvc
	location   *time.Location
	maxAmount  int64 // minor units; zero disables the limit
	now        func() time.Time
}

// NewExportService creates a new export queue service.
func NewExportService(
	queueRepo portsrepo.ExportQueueRepositoryWithTx,
	entryRepo portsrepo.EntryRepositoryFacade,
	logRepo portsrepo.ExportLogRepositoryFacade,
	accounting portssvc.AccountingClient,
	notifier portssvc.Notifier,
	schedule portssvc.ScheduleSvc,
	location *time.Location,
	maxAmount int64,
) portssvc.ExportSvcFacade {
	return &exportService{
		queueRepo:  queueRepo,
		entryRepo:  entryRepo,
		logRepo:    logRepo,
		accounting: accounting,
		notifier:   notifier,
		schedule:   schedule,
		location:   location,
		maxAmount:  maxAmount,
		now:        time.Now,
	}
}

// Ensure exportService implements the portssvc.ExportSvcFacade interface
var _ portssvc.ExportSvcFacade = (*exportService)(nil)

// QueueForExport validates an approved entry and enqueues it for export.
// When the entry is already queued, the existing record is returned together
// with apperrors.ErrDuplicate so callers can decide whether that is an error
// (REST) or an idempotent success (webhook redelivery).
func (s *exportService) QueueForExport(ctx context.Context, entryID string, path domain.ExportPath, requestedBy string) (*domain.ExportQueueRecord, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !domain.ValidExportPath(string(path)) {
		return nil, fmt.Errorf("%w: unknown export path %q", apperrors.ErrValidation, path)
	}

	entry, err := s.entryRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: entry %s", apperrors.ErrNotFound, entryID)
		}
		logger.Error("Failed to fetch entry for queueing", slog.String("error", err.Error()), slog.String("entry_id", entryID))
		return nil, fmt.Errorf("failed to fetch entry %s: %w", entryID, err)
	}

	if err := validateExportable(entry, s.maxAmount); err != nil {
		return nil, err
	}

	now := s.now()
	rec := domain.ExportQueueRecord{
		QueueID:    uuid.NewString(),
		EntryID:    entryID,
		ExportPath: path,
		Status:     domain.StatusQueued,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if path == domain.PathScheduled {
		scheduledFor, err := s.nextScheduledRun(ctx, now)
		if err != nil {
			return nil, err
		}
		rec.ScheduledFor = &scheduledFor
	}

	log := domain.ExportLogEntry{
		LogID:       uuid.NewString(),
		QueueID:     &rec.QueueID,
		Action:      domain.ActionQueued,
		Message:     fmt.Sprintf("Entry %s queued for %s export", entryID, path),
		PerformedBy: requestedBy,
		CreatedAt:   now,
	}

	if err := s.queueRepo.CreateQueueRecord(ctx, rec, log); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			existing, findErr := s.queueRepo.FindQueueByEntryID(ctx, entryID)
			if findErr != nil {
				logger.Error("Duplicate queue insert but existing record not found", slog.String("entry_id", entryID), slog.String("error", findErr.Error()))
				return nil, fmt.Errorf("%w: entry %s already queued", apperrors.ErrDuplicate, entryID)
			}
			return existing, fmt.Errorf("%w: entry %s already queued as %s", apperrors.ErrDuplicate, entryID, existing.QueueID)
		}
		logger.Error("Failed to create queue record", slog.String("error", err.Error()), slog.String("entry_id", entryID))
		return nil, fmt.Errorf("failed to queue entry %s: %w", entryID, err)
	}

	logger.Info("Entry queued for export",
		slog.String("queue_id", rec.QueueID),
		slog.String("entry_id", entryID),
		slog.String("export_path", string(path)))
	return &rec, nil
}

// nextScheduledRun resolves the next daily batch time in the service's zone.
func (s *exportService) nextScheduledRun(ctx context.Context, now time.Time) (time.Time, error) {
	exportTime := domain.DefaultDailyExportTime
	if s.schedule != nil {
		v, err := s.schedule.GetDailyExportTime(ctx)
		if err == nil && v != "" {
			exportTime = v
		}
	}
	next, err := domain.NextDailyRun(now, exportTime, s.location)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to compute scheduled run: %w", err)
	}
	return next, nil
}

// ProcessImmediate runs the single-entry export transaction for one queue
// record: lock the row, re-validate the entry, render its CSV line, post it
// to the accounting API, and mark the record completed. Failures roll the
// transaction back and record a failed attempt outside it.
func (s *exportService) ProcessImmediate(ctx context.Context, queueID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)
	now := s.now()

	tx, err := s.queueRepo.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin export transaction: %w", err)
	}
	defer s.queueRepo.Rollback(ctx, tx) // No-op after a successful commit

	rec, err := s.queueRepo.FindQueueByIDForUpdate(ctx, tx, queueID)
	if err != nil {
		return fmt.Errorf("failed to lock queue record %s: %w", queueID, err)
	}

	processing, err := rec.MarkProcessing()
	if err != nil {
		return err
	}
	processing.UpdatedAt = now
	if err := s.queueRepo.UpdateQueueRecordInTx(ctx, tx, processing); err != nil {
		return fmt.Errorf("failed to mark queue record processing: %w", err)
	}
	if err := s.logRepo.AppendLogInTx(ctx, tx, domain.ExportLogEntry{
		LogID:       uuid.NewString(),
		QueueID:     &rec.QueueID,
		Action:      domain.ActionExportStarted,
		Message:     fmt.Sprintf("Export started for entry %s (attempt %d)", rec.EntryID, processing.Attempts+1),
		PerformedBy: domain.SystemActor,
		CreatedAt:   now,
	}); err != nil {
		return fmt.Errorf("failed to append export_started log: %w", err)
	}

	entry, err := s.entryRepo.FindEntryByIDInTx(ctx, tx, rec.EntryID)
	if err != nil {
		return s.failExport(ctx, tx, processing, fmt.Errorf("failed to load entry %s: %w", rec.EntryID, err))
	}
	if err := validateExportable(entry, s.maxAmount); err != nil {
		return s.failExport(ctx, tx, processing, err)
	}

	line := csvexport.EntryLine(*entry)
	if err := s.accounting.Post(ctx, *entry, line); err != nil {
		return s.failExport(ctx, tx, processing, fmt.Errorf("accounting API rejected entry %s: %w", entry.EntryID, err))
	}

	completed, err := processing.MarkCompleted(s.now(), map[string]any{"exportedVia": "accounting_api"})
	if err != nil {
		return s.failExport(ctx, tx, processing, err)
	}
	if err := s.queueRepo.UpdateQueueRecordInTx(ctx, tx, completed); err != nil {
		return s.failExport(ctx, tx, processing, fmt.Errorf("failed to mark queue record completed: %w", err))
	}
	if err := s.logRepo.AppendLogInTx(ctx, tx, domain.ExportLogEntry{
		LogID:       uuid.NewString(),
		QueueID:     &rec.QueueID,
		Action:      domain.ActionCompleted,
		Message:     fmt.Sprintf("Entry %s exported to accounting API", entry.EntryID),
		PerformedBy: domain.SystemActor,
		CreatedAt:   s.now(),
	}); err != nil {
		return s.failExport(ctx, tx, processing, fmt.Errorf("failed to append completed log: %w", err))
	}

	if err := s.queueRepo.Commit(ctx, tx); err != nil {
		return s.failExport(ctx, tx, processing, fmt.Errorf("failed to commit export transaction: %w", err))
	}

	logger.Info("Export completed",
		slog.String("queue_id", queueID),
		slog.String("entry_id", rec.EntryID))
	return nil
}

// failExport records a failed attempt outside the rolled-back transaction,
// alerts when the attempt budget is exhausted, and returns cause.
func (s *exportService) failExport(ctx context.Context, tx pgx.Tx, rec domain.ExportQueueRecord, cause error) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	// The open transaction still holds the FOR UPDATE lock on this queue row;
	// release it first or the pool-side failed-state write below blocks on it.
	if err := s.queueRepo.Rollback(ctx, tx); err != nil {
		logger.Error("Failed to roll back export transaction",
			slog.String("queue_id", rec.QueueID),
			slog.String("error", err.Error()))
	}

	failed := rec.MarkFailed(cause.Error())
	failed.UpdatedAt = s.now()
	if err := s.queueRepo.UpdateQueueRecord(ctx, failed); err != nil {
		logger.Error("Failed to persist failed export state",
			slog.String("queue_id", rec.QueueID),
			slog.String("error", err.Error()))
	}
	if err := s.logRepo.AppendLog(ctx, domain.ExportLogEntry{
		LogID:       uuid.NewString(),
		QueueID:     &rec.QueueID,
		Action:      domain.ActionFailed,
		Message:     fmt.Sprintf("Export failed for entry %s: %s", rec.EntryID, cause.Error()),
		PerformedBy: domain.SystemActor,
		CreatedAt:   s.now(),
	}); err != nil {
		logger.Error("Failed to append failed log",
			slog.String("queue_id", rec.QueueID),
			slog.String("error", err.Error()))
	}

	logger.Error("Export failed",
		slog.String("queue_id", rec.QueueID),
		slog.String("entry_id", rec.EntryID),
		slog.Int("attempts", failed.Attempts),
		slog.String("error", cause.Error()))

	if !failed.CanRetry() && s.notifier != nil {
		s.notifier.Critical(ctx, "Export attempts exhausted",
			fmt.Sprintf("Queue %s (entry %s) failed %d times: %s", rec.QueueID, rec.EntryID, failed.Attempts, cause.Error()))
	}
	return cause
}

// RetryExport validates that a failed export may run again and records the
// retry request. The actual processing is dispatched by the caller.
func (s *exportService) RetryExport(ctx context.Context, queueID string, requestedBy string) (*domain.ExportQueueRecord, error) {
	rec, err := s.queueRepo.FindQueueByID(ctx, queueID)
	if err != nil {
		return nil, err
	}
	if rec.Status != domain.StatusFailed {
		return nil, fmt.Errorf("%w: queue record %s is %s, only failed exports can be retried", apperrors.ErrValidation, queueID, rec.Status)
	}
	if !rec.CanRetry() {
		return nil, fmt.Errorf("%w: queue record %s used all %d attempts", apperrors.ErrMaxRetries, queueID, domain.MaxExportAttempts)
	}

	if err := s.logRepo.AppendLog(ctx, domain.ExportLogEntry{
		LogID:       uuid.NewString(),
		QueueID:     &rec.QueueID,
		Action:      domain.ActionRetry,
		Message:     fmt.Sprintf("Retry requested for entry %s (%d attempts left)", rec.EntryID, rec.RemainingAttempts()),
		PerformedBy: requestedBy,
		CreatedAt:   s.now(),
	}); err != nil {
		return nil, fmt.Errorf("failed to record retry request: %w", err)
	}
	return rec, nil
}

// GetExportStatus retrieves the queue record for an entry together with its
// audit history. Keyed on entry ID because that is the identifier callers
// hold before the queue record exists.
func (s *exportService) GetExportStatus(ctx context.Context, entryID string) (*dto.ExportStatusResponse, error) {
	rec, err := s.queueRepo.FindQueueByEntryID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	logs, err := s.logRepo.ListLogsByQueueID(ctx, rec.QueueID)
	if err != nil {
		return nil, fmt.Errorf("failed to list logs for queue %s: %w", rec.QueueID, err)
	}
	return &dto.ExportStatusResponse{
		Queue: dto.ToExportQueueResponse(rec),
		Logs:  dto.ToExportLogResponses(logs),
	}, nil
}

// GetExportMetrics aggregates queue counts per status for monitoring.
func (s *exportService) GetExportMetrics(ctx context.Context) (*dto.ExportMetricsResponse, error) {
	counts, err := s.queueRepo.CountQueueByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count queue records: %w", err)
	}
	retryable, err := s.queueRepo.CountRetryableQueues(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count retryable records: %w", err)
	}
	completed := counts[domain.StatusCompleted]
	failed := counts[domain.StatusFailed]
	var successRate float64
	if terminal := completed + failed; terminal > 0 {
		successRate = float64(completed) / float64(terminal)
	}
	return &dto.ExportMetricsResponse{
		Queued:      counts[domain.StatusQueued],
		Processing:  counts[domain.StatusProcessing],
		Completed:   completed,
		Failed:      failed,
		Retryable:   retryable,
		SuccessRate: successRate,
		Timestamp:   s.now(),
	}, nil
}

// RenderApprovedCSV renders all approved entries in [from, to] as a CSV
// document for manual download.
func (s *exportService) RenderApprovedCSV(ctx context.Context, from, to time.Time) ([]byte, string, error) {
	if to.Before(from) {
		return nil, "", fmt.Errorf("%w: date range end precedes start", apperrors.ErrValidation)
	}
	entries, err := s.entryRepo.ListApprovedEntriesByDateRange(ctx, from, to)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list approved entries: %w", err)
	}
	filename := fmt.Sprintf("ledger_export_%s_%s.csv", from.Format("20060102"), to.Format("20060102"))
	return csvexport.RenderBatch(entries), filename, nil
}
