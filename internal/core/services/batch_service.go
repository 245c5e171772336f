package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/kritsadas/ledger_export_app/internal/apperrors"
	"github.com/kritsadas/ledger_export_app/internal/core/domain"
	portsrepo "github.com/kritsadas/ledger_export_app/internal/core/ports/repositories"
	portssvc "github.com/kritsadas/ledger_export_app/internal/core/ports/services"
	"github.com/kritsadas/ledger_export_app/internal/middleware"
	"github.com/kritsadas/ledger_export_app/internal/utils/csvexport"
)

const defaultRenderTimeout = 30 * time.Second

// batchService runs the daily scheduled export as one database transaction:
// lock due records, render one CSV, upload it, write the per-day batch gate
// log, and complete the records. Any failure rolls everything back and the
// records stay queued for the next run.
type batchService struct {
	queueRepo     portsrepo.ExportQueueRepositoryWithTx
	entryRepo     portsrepo.EntryRepositoryFacade
	logRepo       portsrepo.ExportLogRepositoryFacade
	uploader      portssvc.FileUploader
	notifier      portssvc.Notifier
	location      *time.Location
	renderTimeout time.Duration
	running       atomic.Bool
	now           func() time.Time
}

// NewBatchExportService creates a new daily batch export service.
func NewBatchExportService(
	queueRepo portsrepo.ExportQueueRepositoryWithTx,
	entryRepo portsrepo.EntryRepositoryFacade,
	logRepo portsrepo.ExportLogRepositoryFacade,
	uploader portssvc.FileUploader,
	notifier portssvc.Notifier,
	location *time.Location,
) portssvc.BatchExportSvc {
	return &batchService{
		queueRepo:     queueRepo,
		entryRepo:     entryRepo,
		logRepo:       logRepo,
		uploader:      uploader,
		notifier:      notifier,
		location:      location,
		renderTimeout: defaultRenderTimeout,
		now:           time.Now,
	}
}

// Ensure batchService implements the portssvc.BatchExportSvc interface
var _ portssvc.BatchExportSvc = (*batchService)(nil)

// RunDailyBatch executes one daily batch. force includes scheduled records
// that are not yet due. A second run for the same day trips the unique
// (action, batch_date) gate and returns AlreadyGenerated without error.
func (s *batchService) RunDailyBatch(ctx context.Context, force bool) (*domain.BatchResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !s.running.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("%w: daily batch already running", apperrors.ErrAlreadyRunning)
	}
	defer s.running.Store(false)

	now := s.now().In(s.location)
	batchDate := now.Format("2006-01-02")

	tx, err := s.queueRepo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin batch transaction: %w", err)
	}
	defer s.queueRepo.Rollback(ctx, tx) // No-op after a successful commit

	records, err := s.queueRepo.SelectDueScheduledForUpdate(ctx, tx, now, force)
	if err != nil {
		return nil, fmt.Errorf("failed to select due records: %w", err)
	}
	if len(records) == 0 {
		logger.Info("Daily batch found no due records", slog.String("batch_date", batchDate))
		return &domain.BatchResult{}, nil
	}

	entryIDs := make([]string, len(records))
	queueIDs := make([]string, len(records))
	for i, rec := range records {
		entryIDs[i] = rec.EntryID
		queueIDs[i] = rec.QueueID
	}

	entriesByID, err := s.entryRepo.FindEntriesByIDsInTx(ctx, tx, entryIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load entries for batch: %w", err)
	}
	entries := make([]domain.LedgerEntry, 0, len(records))
	for _, rec := range records {
		entry, ok := entriesByID[rec.EntryID]
		if !ok {
			return nil, fmt.Errorf("%w: entry %s referenced by queue %s", apperrors.ErrNotFound, rec.EntryID, rec.QueueID)
		}
		entries = append(entries, entry)
	}

	csvData, err := s.renderWithTimeout(ctx, entries)
	if err != nil {
		return nil, err
	}

	filename := fmt.Sprintf("ledger_export_%s.csv", batchDate)
	upload, err := s.uploader.Upload(ctx, filename, csvData)
	if err != nil {
		return nil, fmt.Errorf("%w: upload of %s failed: %w", apperrors.ErrTransient, filename, err)
	}
	upload.Filename = filename

	// The unique (action, batch_date) index makes this insert the once-per-day
	// gate: a concurrent or repeated run aborts here before touching statuses.
	err = s.logRepo.AppendLogInTx(ctx, tx, domain.ExportLogEntry{
		LogID:       uuid.NewString(),
		Action:      domain.ActionCSVGenerated,
		Message:     fmt.Sprintf("Generated %s with %d entries", filename, len(records)),
		PerformedBy: domain.SystemActor,
		BatchDate:   &batchDate,
		Metadata: map[string]any{
			"fileId":      upload.FileID,
			"webViewLink": upload.WebViewLink,
			"processed":   len(records),
		},
		CreatedAt: now,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			logger.Warn("Daily batch already generated, aborting", slog.String("batch_date", batchDate))
			return &domain.BatchResult{AlreadyGenerated: true}, nil
		}
		return nil, fmt.Errorf("failed to record batch generation: %w", err)
	}

	if err := s.queueRepo.CompleteQueuesInTx(ctx, tx, queueIDs, now, map[string]any{
		"fileId":      upload.FileID,
		"webViewLink": upload.WebViewLink,
		"filename":    filename,
	}); err != nil {
		return nil, fmt.Errorf("failed to complete queue records: %w", err)
	}

	if err := s.queueRepo.Commit(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to commit batch transaction: %w", err)
	}

	logger.Info("Daily batch completed",
		slog.String("batch_date", batchDate),
		slog.Int("processed", len(records)),
		slog.String("file_id", upload.FileID))
	if s.notifier != nil {
		s.notifier.Info(ctx, "Daily export completed",
			fmt.Sprintf("%s: %d entries exported to %s", batchDate, len(records), upload.WebViewLink))
	}

	return &domain.BatchResult{Processed: len(records), Upload: upload}, nil
}

// renderWithTimeout renders the batch CSV, bounding render time so a huge
// batch cannot hold row locks indefinitely.
func (s *batchService) renderWithTimeout(ctx context.Context, entries []domain.LedgerEntry) ([]byte, error) {
	done := make(chan []byte, 1)
	go func() {
		done <- csvexport.RenderBatch(entries)
	}()

	select {
	case data := <-done:
		return data, nil
	case <-time.After(s.renderTimeout):
		return nil, fmt.Errorf("%w: CSV render exceeded %s", apperrors.ErrTimeout, s.renderTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
