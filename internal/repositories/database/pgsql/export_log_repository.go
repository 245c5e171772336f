package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/kritsadas/ledger_export_app/internal/apperrors"
	"github.com/kritsadas/ledger_export_app/internal/core/domain"
	portsrepo "github.com/kritsadas/ledger_export_app/internal/core/ports/repositories"
	"github.com/kritsadas/ledger_export_app/internal/models"
	"github.com/kritsadas/ledger_export_app/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const logColumns = `log_id, queue_id, action, message, performed_by, batch_date, metadata, created_at`

// execer is satisfied by both pgxpool.Pool and pgx.Tx, so log inserts can
// participate in a caller's transaction or run standalone.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type PgxExportLogRepository struct {
	pool *pgxpool.Pool
}

// newPgxExportLogRepository creates a new repository for export audit logs.
func newPgxExportLogRepository(pool *pgxpool.Pool) portsrepo.ExportLogRepositoryFacade {
	return &PgxExportLogRepository{pool: pool}
}

// Ensure PgxExportLogRepository implements portsrepo.ExportLogRepositoryFacade
var _ portsrepo.ExportLogRepositoryFacade = (*PgxExportLogRepository)(nil)

// insertExportLog inserts one audit log row. The partial unique index on
// (action, batch_date) for csv_generated rows is the once-per-day batch
// gate; its violation surfaces as ErrDuplicate.
func insertExportLog(ctx context.Context, db execer, m models.ExportLog) error {
	query := `
		INSERT INTO export_logs (` + logColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	_, err := db.Exec(ctx, query,
		m.LogID,
		m.QueueID,
		m.Action,
		m.Message,
		m.PerformedBy,
		m.BatchDate,
		m.Metadata,
		m.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" { // Unique violation
				return fmt.Errorf("%w: batch already generated for %s", apperrors.ErrDuplicate, stringOrEmpty(m.BatchDate))
			}
		}
		return fmt.Errorf("failed to insert export log %s: %w", m.LogID, err)
	}
	return nil
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// AppendLog inserts one audit log entry.
func (r *PgxExportLogRepository) AppendLog(ctx context.Context, log domain.ExportLogEntry) error {
	return insertExportLog(ctx, r.pool, mapping.ToModelLog(log))
}

// AppendLogInTx inserts one audit log entry inside an open transaction.
func (r *PgxExportLogRepository) AppendLogInTx(ctx context.Context, tx pgx.Tx, log domain.ExportLogEntry) error {
	return insertExportLog(ctx, tx, mapping.ToModelLog(log))
}

// ListLogsByQueueID returns the audit history of a queue record, newest first.
func (r *PgxExportLogRepository) ListLogsByQueueID(ctx context.Context, queueID string) ([]domain.ExportLogEntry, error) {
	query := `
		SELECT ` + logColumns + `
		FROM export_logs
		WHERE queue_id = $1
		ORDER BY created_at DESC;
	`
	rows, err := r.pool.Query(ctx, query, queueID)
	if err != nil {
		return nil, fmt.Errorf("failed to query logs for queue %s: %w", queueID, err)
	}
	defer rows.Close()

	var logs []domain.ExportLogEntry
	for rows.Next() {
		var m models.ExportLog
		err := rows.Scan(
			&m.LogID,
			&m.QueueID,
			&m.Action,
			&m.Message,
			&m.PerformedBy,
			&m.BatchDate,
			&m.Metadata,
			&m.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan log row: %w", err)
		}
		logs = append(logs, mapping.ToDomainLog(m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating log rows: %w", err)
	}
	return logs, nil
}
