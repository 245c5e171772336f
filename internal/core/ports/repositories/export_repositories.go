package repositories

import (
	"context"
	"time"

	"github.com/kritsadas/ledger_export_app/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// ExportQueueReader defines read operations for export queue data.
type ExportQueueReader interface {
	// FindQueueByID retrieves a queue record by its ID.
	FindQueueByID(ctx context.Context, queueID string) (*domain.ExportQueueRecord, error)

	// FindQueueByEntryID retrieves the (at most one) queue record for an entry.
	FindQueueByEntryID(ctx context.Context, entryID string) (*domain.ExportQueueRecord, error)

	// FindQueueByIDForUpdate retrieves a queue record inside an open
	// transaction with a row lock.
	FindQueueByIDForUpdate(ctx context.Context, tx pgx.Tx, queueID string) (*domain.ExportQueueRecord, error)

	// SelectDueScheduledForUpdate locks and returns all queued records on the
	// scheduled path whose scheduledFor is at or before cutoff, in
	// scheduled-for order. force bypasses the cutoff filter.
	SelectDueScheduledForUpdate(ctx context.Context, tx pgx.Tx, cutoff time.Time, force bool) ([]domain.ExportQueueRecord, error)

	// CountQueueByStatus aggregates queue record counts per status.
	CountQueueByStatus(ctx context.Context) (map[domain.ExportStatus]int64, error)

	// CountRetryableQueues counts failed records with attempts remaining.
	CountRetryableQueues(ctx context.Context) (int64, error)
}

// ExportQueueWriter defines write operations for export queue data.
type ExportQueueWriter interface {
	// CreateQueueRecord inserts a queue record and its initial audit log entry
	// in one transaction. A unique violation on entry_id returns
	// apperrors.ErrDuplicate.
	CreateQueueRecord(ctx context.Context, rec domain.ExportQueueRecord, log domain.ExportLogEntry) error

	// UpdateQueueRecord persists a state-transition snapshot.
	UpdateQueueRecord(ctx context.Context, rec domain.ExportQueueRecord) error

	// UpdateQueueRecordInTx persists a snapshot inside an open transaction.
	UpdateQueueRecordInTx(ctx context.Context, tx pgx.Tx, rec domain.ExportQueueRecord) error

	// CompleteQueuesInTx marks all given queue records completed with the
	// shared upload metadata, inside an open transaction.
	CompleteQueuesInTx(ctx context.Context, tx pgx.Tx, queueIDs []string, completedAt time.Time, meta map[string]any) error
}

// ExportQueueRepositoryFacade combines queue reader and writer.
type ExportQueueRepositoryFacade interface {
	ExportQueueReader
	ExportQueueWriter
}

// ExportQueueRepositoryWithTx extends the facade with transaction control.
type ExportQueueRepositoryWithTx interface {
	ExportQueueRepositoryFacade
	TransactionManager
}

// ExportLogRepositoryFacade is the append-only audit trail. There is no
// update or delete operation: immutability is enforced by omission here and
// by the absence of UPDATE statements in the implementation.
type ExportLogRepositoryFacade interface {
	// AppendLog inserts one audit log entry.
	AppendLog(ctx context.Context, log domain.ExportLogEntry) error

	// AppendLogInTx inserts one audit log entry inside an open transaction.
	// A unique violation on the (action, batch_date) daily-batch gate returns
	// apperrors.ErrDuplicate.
	AppendLogInTx(ctx context.Context, tx pgx.Tx, log domain.ExportLogEntry) error

	// ListLogsByQueueID returns the audit history of a queue record, newest
	// first.
	ListLogsByQueueID(ctx context.Context, queueID string) ([]domain.ExportLogEntry, error)
}

// SystemConfigRepositoryFacade stores dynamic configuration keys.
type SystemConfigRepositoryFacade interface {
	// GetConfigValue returns the stored value for key, or apperrors.ErrNotFound.
	GetConfigValue(ctx context.Context, key string) (string, error)

	// UpsertConfigValue stores key=value, overwriting any previous value.
	UpsertConfigValue(ctx context.Context, key, value, updatedBy string, at time.Time) error
}
