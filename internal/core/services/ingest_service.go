package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kritsadas/ledger_export_app/internal/apperrors"
	"github.com/kritsadas/ledger_export_app/internal/core/domain"
	portsrepo "github.com/kritsadas/ledger_export_app/internal/core/ports/repositories"
	portssvc "github.com/kritsadas/ledger_export_app/internal/core/ports/services"
	"github.com/kritsadas/ledger_export_app/internal/middleware"
	"github.com/kritsadas/ledger_export_app/internal/utils/money"
)

// ingestSource is the actor recorded on entries created from review records.
const ingestSource = "review_ingest"

// ingestService brings review-tool records into the ledger: the webhook path
// reacts to pushed status changes, the poller path sweeps records the
// webhook missed. Both funnel into the same queueing call, so the entry_id
// uniqueness gate keeps them idempotent against each other.
type ingestService struct {
	entryRepo portsrepo.EntryRepositoryFacade
	exportSvc portssvc.ExportWriterSvc
	review    portssvc.ReviewClient
	dispatch  func(queueID string) // fire-and-forget immediate processing
	now       func() time.Time
}

// NewIngestService creates a new ingestion service. dispatch is invoked with
// the queue ID whenever an immediate-path record is queued; nil disables
// asynchronous processing.
func NewIngestService(
	entryRepo portsrepo.EntryRepositoryFacade,
	exportSvc portssvc.ExportWriterSvc,
	review portssvc.ReviewClient,
	dispatch func(queueID string),
) portssvc.IngestSvcFacade {
	return &ingestService{
		entryRepo: entryRepo,
		exportSvc: exportSvc,
		review:    review,
		dispatch:  dispatch,
		now:       time.Now,
	}
}

// Ensure ingestService implements the portssvc.IngestSvcFacade interface
var _ portssvc.IngestSvcFacade = (*ingestService)(nil)

// HandleReviewEvent processes one webhook delivery from the review tool.
func (s *ingestService) HandleReviewEvent(ctx context.Context, recordID, status, exportPath, entryID string) (*portssvc.WebhookResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if status != domain.ReviewRecordApproved {
		logger.Debug("Webhook record not approved, ignoring",
			slog.String("record_id", recordID),
			slog.String("status", status))
		return &portssvc.WebhookResult{
			Ignored: true,
			Message: fmt.Sprintf("Record status %q is not approved, ignored", status),
		}, nil
	}

	if entryID == "" {
		entry, err := s.entryRepo.FindEntryByReviewRecordID(ctx, recordID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, fmt.Errorf("%w: record %s carries no entry", apperrors.ErrValidation, recordID)
			}
			return nil, fmt.Errorf("failed to resolve entry for record %s: %w", recordID, err)
		}
		entryID = entry.EntryID
	}

	path := domain.PathImmediate
	if exportPath != "" {
		if !domain.ValidExportPath(exportPath) {
			return nil, fmt.Errorf("%w: unknown export path %q", apperrors.ErrValidation, exportPath)
		}
		path = domain.ExportPath(exportPath)
	}

	rec, err := s.exportSvc.QueueForExport(ctx, entryID, path, ingestSource)
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) && rec != nil {
			return &portssvc.WebhookResult{
				QueueID:   rec.QueueID,
				Duplicate: true,
				Message:   "Entry already queued for export (idempotent)",
			}, nil
		}
		return nil, err
	}

	if path == domain.PathImmediate && s.dispatch != nil {
		s.dispatch(rec.QueueID)
	}
	return &portssvc.WebhookResult{
		QueueID: rec.QueueID,
		Message: fmt.Sprintf("Entry queued for %s export", path),
	}, nil
}

// PollReviewRecords sweeps pending review records. Failures are isolated per
// record so one bad row cannot stall the rest of the sweep.
func (s *ingestService) PollReviewRecords(ctx context.Context) (int, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	records, err := s.review.ListPendingRecords(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list review records: %w", err)
	}

	ingested := 0
	for _, record := range records {
		if err := s.IngestRecord(ctx, record); err != nil {
			logger.Error("Failed to ingest review record",
				slog.String("record_id", record.ID),
				slog.String("error", err.Error()))
			continue
		}
		ingested++
	}
	return ingested, nil
}

// IngestRecord processes a single review record: create a draft entry when
// none exists, then approve and queue it if the record is marked approved.
func (s *ingestService) IngestRecord(ctx context.Context, record domain.ReviewRecord) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	entry, err := s.entryRepo.FindEntryByReviewRecordID(ctx, record.ID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("failed to look up record %s: %w", record.ID, err)
	}

	if entry == nil {
		entry, err = s.createDraftEntry(ctx, record)
		if err != nil || entry == nil {
			return err
		}
	}

	if !record.IsApproved() || entry.Status == domain.EntryApproved {
		return nil
	}

	if err := s.entryRepo.MarkEntryApproved(ctx, entry.EntryID, ingestSource, s.now()); err != nil {
		return fmt.Errorf("failed to approve entry %s: %w", entry.EntryID, err)
	}

	path := domain.PathImmediate
	if v := record.StringField(domain.ReviewFieldExportPath); domain.ValidExportPath(v) {
		path = domain.ExportPath(v)
	}
	rec, err := s.exportSvc.QueueForExport(ctx, entry.EntryID, path, ingestSource)
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			logger.Debug("Entry already queued during poll",
				slog.String("entry_id", entry.EntryID),
				slog.String("record_id", record.ID))
			return nil
		}
		return err
	}
	if path == domain.PathImmediate && s.dispatch != nil {
		s.dispatch(rec.QueueID)
	}
	return nil
}

// createDraftEntry builds a draft ledger entry from a review record. Records
// without a positive amount are skipped, not failed: the review tool holds
// half-filled rows while a human is still typing.
func (s *ingestService) createDraftEntry(ctx context.Context, record domain.ReviewRecord) (*domain.LedgerEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	amountMajor, ok := record.NumberField(domain.ReviewFieldAmount)
	if !ok {
		logger.Warn("Review record has no numeric amount, skipping", slog.String("record_id", record.ID))
		return nil, nil
	}
	amount, err := money.FromNumber(amountMajor)
	if err != nil {
		return nil, fmt.Errorf("failed to convert amount for record %s: %w", record.ID, err)
	}
	if amount <= 0 {
		logger.Warn("Review record amount not positive, skipping",
			slog.String("record_id", record.ID),
			slog.Int64("amount", amount))
		return nil, nil
	}

	now := s.now()
	entryDate := now
	if v := record.StringField(domain.ReviewFieldDate); v != "" {
		if parsed, err := time.Parse("2006-01-02", v); err == nil {
			entryDate = parsed
		} else {
			logger.Warn("Review record date unparseable, using today",
				slog.String("record_id", record.ID),
				slog.String("date", v))
		}
	}

	direction := domain.Debit
	if v := record.StringField(domain.ReviewFieldDirection); v == string(domain.Credit) {
		direction = domain.Credit
	}

	recordID := record.ID
	entry := domain.LedgerEntry{
		EntryID:        uuid.NewString(),
		ClientID:       record.StringField(domain.ReviewFieldClientID),
		EntryDate:      entryDate,
		AccountCode:    record.StringField(domain.ReviewFieldAccountCode),
		Description:    record.StringField(domain.ReviewFieldDescription),
		Amount:         amount,
		Direction:      direction,
		Category:       record.StringField(domain.ReviewFieldCategory),
		Status:         domain.EntryDraft,
		Source:         ingestSource,
		ReviewRecordID: &recordID,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     ingestSource,
			LastUpdatedAt: now,
			LastUpdatedBy: ingestSource,
		},
	}
	if err := s.entryRepo.SaveEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to save entry for record %s: %w", record.ID, err)
	}

	// Write the entry ID back so the review tool shows the link. The entry is
	// already saved, so a write-back failure only costs the back-reference.
	if err := s.review.UpdateRecordEntryID(ctx, record.ID, entry.EntryID); err != nil {
		logger.Warn("Failed to write entry ID back to review record",
			slog.String("record_id", record.ID),
			slog.String("entry_id", entry.EntryID),
			slog.String("error", err.Error()))
	}

	logger.Info("Draft entry created from review record",
		slog.String("record_id", record.ID),
		slog.String("entry_id", entry.EntryID))
	return &entry, nil
}
