package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kritsadas/ledger_export_app/internal/apperrors"
	"github.com/kritsadas/ledger_export_app/internal/core/domain"
	portsrepo "github.com/kritsadas/ledger_export_app/internal/core/ports/repositories"
	"github.com/kritsadas/ledger_export_app/internal/models"
	"github.com/kritsadas/ledger_export_app/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const queueColumns = `queue_id, entry_id, export_path, status, scheduled_for, attempts, last_error, completed_at, metadata, created_at, updated_at`

type PgxExportQueueRepository struct {
	BaseRepository
}

// newPgxExportQueueRepository creates a new repository for export queue data.
func newPgxExportQueueRepository(pool *pgxpool.Pool) portsrepo.ExportQueueRepositoryWithTx {
	return &PgxExportQueueRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxExportQueueRepository implements portsrepo.ExportQueueRepositoryWithTx
var _ portsrepo.ExportQueueRepositoryWithTx = (*PgxExportQueueRepository)(nil)

// scanQueue scans one export_queue row in queueColumns order.
func scanQueue(row pgx.Row) (*models.ExportQueue, error) {
	var m models.ExportQueue
	err := row.Scan(
		&m.QueueID,
		&m.EntryID,
		&m.ExportPath,
		&m.Status,
		&m.ScheduledFor,
		&m.Attempts,
		&m.LastError,
		&m.CompletedAt,
		&m.Metadata,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateQueueRecord inserts a queue record and its initial audit log entry
// within a DB transaction. The unique constraint on entry_id is the
// idempotency gate: a second insert for the same entry returns ErrDuplicate.
func (r *PgxExportQueueRepository) CreateQueueRecord(ctx context.Context, rec domain.ExportQueueRecord, log domain.ExportLogEntry) error {
	m := mapping.ToModelQueue(rec)

	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx) // Will be ignored if transaction is committed successfully

	query := `
		INSERT INTO export_queue (` + queueColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err = tx.Exec(ctx, query,
		m.QueueID,
		m.EntryID,
		m.ExportPath,
		m.Status,
		m.ScheduledFor,
		m.Attempts,
		m.LastError,
		m.CompletedAt,
		m.Metadata,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" { // Unique violation
				return fmt.Errorf("%w: entry %s is already queued", apperrors.ErrDuplicate, m.EntryID)
			}
		}
		return fmt.Errorf("failed to insert queue record %s: %w", m.QueueID, err)
	}

	if err := insertExportLog(ctx, tx, mapping.ToModelLog(log)); err != nil {
		return err
	}

	return r.Commit(ctx, tx)
}

// FindQueueByID retrieves a queue record by its ID.
func (r *PgxExportQueueRepository) FindQueueByID(ctx context.Context, queueID string) (*domain.ExportQueueRecord, error) {
	query := `SELECT ` + queueColumns + ` FROM export_queue WHERE queue_id = $1;`
	m, err := scanQueue(r.Pool.QueryRow(ctx, query, queueID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find queue record %s: %w", queueID, err)
	}
	rec := mapping.ToDomainQueue(*m)
	return &rec, nil
}

// FindQueueByEntryID retrieves the queue record for an entry.
func (r *PgxExportQueueRepository) FindQueueByEntryID(ctx context.Context, entryID string) (*domain.ExportQueueRecord, error) {
	query := `SELECT ` + queueColumns + ` FROM export_queue WHERE entry_id = $1;`
	m, err := scanQueue(r.Pool.QueryRow(ctx, query, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find queue record for entry %s: %w", entryID, err)
	}
	rec := mapping.ToDomainQueue(*m)
	return &rec, nil
}

// FindQueueByIDForUpdate retrieves a queue record within a transaction and
// locks the row for update.
func (r *PgxExportQueueRepository) FindQueueByIDForUpdate(ctx context.Context, tx pgx.Tx, queueID string) (*domain.ExportQueueRecord, error) {
	query := `SELECT ` + queueColumns + ` FROM export_queue WHERE queue_id = $1 FOR UPDATE;`
	m, err := scanQueue(tx.QueryRow(ctx, query, queueID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock queue record %s: %w", queueID, err)
	}
	rec := mapping.ToDomainQueue(*m)
	return &rec, nil
}

// SelectDueScheduledForUpdate locks and returns queued scheduled-path records
// whose scheduled_for is at or before cutoff. force includes not-yet-due ones.
func (r *PgxExportQueueRepository) SelectDueScheduledForUpdate(ctx context.Context, tx pgx.Tx, cutoff time.Time, force bool) ([]domain.ExportQueueRecord, error) {
	query := `
		SELECT ` + queueColumns + `
		FROM export_queue
		WHERE status = $1 AND export_path = $2 AND ($3 OR scheduled_for <= $4)
		ORDER BY scheduled_for, queue_id
		FOR UPDATE;
	`
	rows, err := tx.Query(ctx, query, string(domain.StatusQueued), string(domain.PathScheduled), force, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query due scheduled records: %w", err)
	}
	defer rows.Close()

	var records []domain.ExportQueueRecord
	for rows.Next() {
		m, err := scanQueue(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan queue row: %w", err)
		}
		records = append(records, mapping.ToDomainQueue(*m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating queue rows: %w", err)
	}
	return records, nil
}

// CountQueueByStatus aggregates queue record counts per status.
func (r *PgxExportQueueRepository) CountQueueByStatus(ctx context.Context) (map[domain.ExportStatus]int64, error) {
	query := `SELECT status, COUNT(*) FROM export_queue GROUP BY status;`
	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count queue records: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.ExportStatus]int64)
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count row: %w", err)
		}
		counts[domain.ExportStatus(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating count rows: %w", err)
	}
	return counts, nil
}

// CountRetryableQueues counts failed records with attempts remaining.
func (r *PgxExportQueueRepository) CountRetryableQueues(ctx context.Context) (int64, error) {
	query := `SELECT COUNT(*) FROM export_queue WHERE status = $1 AND attempts < $2;`
	var count int64
	if err := r.Pool.QueryRow(ctx, query, string(domain.StatusFailed), domain.MaxExportAttempts).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count retryable records: %w", err)
	}
	return count, nil
}

const updateQueueQuery = `
	UPDATE export_queue
	SET status = $2, scheduled_for = $3, attempts = $4, last_error = $5, completed_at = $6, metadata = $7, updated_at = $8
	WHERE queue_id = $1;
`

// UpdateQueueRecord persists a state-transition snapshot.
func (r *PgxExportQueueRepository) UpdateQueueRecord(ctx context.Context, rec domain.ExportQueueRecord) error {
	m := mapping.ToModelQueue(rec)
	tag, err := r.Pool.Exec(ctx, updateQueueQuery,
		m.QueueID, m.Status, m.ScheduledFor, m.Attempts, m.LastError, m.CompletedAt, m.Metadata, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update queue record %s: %w", m.QueueID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: queue record %s", apperrors.ErrNotFound, m.QueueID)
	}
	return nil
}

// UpdateQueueRecordInTx persists a snapshot inside an open transaction.
func (r *PgxExportQueueRepository) UpdateQueueRecordInTx(ctx context.Context, tx pgx.Tx, rec domain.ExportQueueRecord) error {
	m := mapping.ToModelQueue(rec)
	tag, err := tx.Exec(ctx, updateQueueQuery,
		m.QueueID, m.Status, m.ScheduledFor, m.Attempts, m.LastError, m.CompletedAt, m.Metadata, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update queue record %s: %w", m.QueueID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: queue record %s", apperrors.ErrNotFound, m.QueueID)
	}
	return nil
}

// CompleteQueuesInTx marks all given queue records completed with the shared
// upload metadata, inside an open transaction.
func (r *PgxExportQueueRepository) CompleteQueuesInTx(ctx context.Context, tx pgx.Tx, queueIDs []string, completedAt time.Time, meta map[string]any) error {
	if len(queueIDs) == 0 {
		return nil
	}
	query := `
		UPDATE export_queue
		SET status = $2, completed_at = $3, metadata = COALESCE(metadata, '{}'::jsonb) || $4, updated_at = $3
		WHERE queue_id = ANY($1);
	`
	tag, err := tx.Exec(ctx, query, queueIDs, string(domain.StatusCompleted), completedAt, meta)
	if err != nil {
		return fmt.Errorf("failed to complete queue records: %w", err)
	}
	if int(tag.RowsAffected()) != len(queueIDs) {
		return fmt.Errorf("expected to complete %d queue records, completed %d", len(queueIDs), tag.RowsAffected())
	}
	return nil
}
