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

const entryColumns = `entry_id, client_id, entry_date, account_code, description, amount, direction, category, vat_amount, status, approved_by, source, review_record_id, metadata, created_at, created_by, last_updated_at, last_updated_by`

type PgxEntryRepository struct {
	pool *pgxpool.Pool
}

// newPgxEntryRepository creates a new repository for ledger entry data.
func newPgxEntryRepository(pool *pgxpool.Pool) portsrepo.EntryRepositoryFacade {
	return &PgxEntryRepository{pool: pool}
}

// Ensure PgxEntryRepository implements portsrepo.EntryRepositoryFacade
var _ portsrepo.EntryRepositoryFacade = (*PgxEntryRepository)(nil)

// scanEntry scans one ledger_entries row in entryColumns order.
func scanEntry(row pgx.Row) (*models.LedgerEntry, error) {
	var m models.LedgerEntry
	err := row.Scan(
		&m.EntryID,
		&m.ClientID,
		&m.EntryDate,
		&m.AccountCode,
		&m.Description,
		&m.Amount,
		&m.Direction,
		&m.Category,
		&m.VATAmount,
		&m.Status,
		&m.ApprovedBy,
		&m.Source,
		&m.ReviewRecordID,
		&m.Metadata,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// SaveEntry inserts a new ledger entry.
func (r *PgxEntryRepository) SaveEntry(ctx context.Context, entry domain.LedgerEntry) error {
	m := mapping.ToModelEntry(entry)

	query := `
		INSERT INTO ledger_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18);
	`
	_, err := r.pool.Exec(ctx, query,
		m.EntryID,
		m.ClientID,
		m.EntryDate,
		m.AccountCode,
		m.Description,
		m.Amount,
		m.Direction,
		m.Category,
		m.VATAmount,
		m.Status,
		m.ApprovedBy,
		m.Source,
		m.ReviewRecordID,
		m.Metadata,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" { // Unique violation
				return fmt.Errorf("%w: entry %s already exists", apperrors.ErrDuplicate, m.EntryID)
			}
		}
		return fmt.Errorf("failed to save entry %s: %w", m.EntryID, err)
	}
	return nil
}

// MarkEntryApproved transitions an entry to approved status.
func (r *PgxEntryRepository) MarkEntryApproved(ctx context.Context, entryID, approvedBy string, at time.Time) error {
	query := `
		UPDATE ledger_entries
		SET status = $2, approved_by = $3, last_updated_at = $4, last_updated_by = $3
		WHERE entry_id = $1;
	`
	tag, err := r.pool.Exec(ctx, query, entryID, string(domain.EntryApproved), approvedBy, at)
	if err != nil {
		return fmt.Errorf("failed to approve entry %s: %w", entryID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: entry %s", apperrors.ErrNotFound, entryID)
	}
	return nil
}

// FindEntryByID retrieves a specific entry by its unique identifier.
func (r *PgxEntryRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.LedgerEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE entry_id = $1;`
	m, err := scanEntry(r.pool.QueryRow(ctx, query, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find entry by ID %s: %w", entryID, err)
	}
	entry := mapping.ToDomainEntry(*m)
	return &entry, nil
}

// FindEntryByIDInTx retrieves an entry inside an open transaction with a row lock.
func (r *PgxEntryRepository) FindEntryByIDInTx(ctx context.Context, tx pgx.Tx, entryID string) (*domain.LedgerEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE entry_id = $1 FOR UPDATE;`
	m, err := scanEntry(tx.QueryRow(ctx, query, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock entry %s: %w", entryID, err)
	}
	entry := mapping.ToDomainEntry(*m)
	return &entry, nil
}

// FindEntryByReviewRecordID looks an entry up by its review-tool record ID.
func (r *PgxEntryRepository) FindEntryByReviewRecordID(ctx context.Context, recordID string) (*domain.LedgerEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE review_record_id = $1;`
	m, err := scanEntry(r.pool.QueryRow(ctx, query, recordID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find entry by review record %s: %w", recordID, err)
	}
	entry := mapping.ToDomainEntry(*m)
	return &entry, nil
}

// FindEntriesByIDsInTx retrieves entries for the given IDs inside an open
// transaction, keyed by entry ID.
func (r *PgxEntryRepository) FindEntriesByIDsInTx(ctx context.Context, tx pgx.Tx, entryIDs []string) (map[string]domain.LedgerEntry, error) {
	if len(entryIDs) == 0 {
		return map[string]domain.LedgerEntry{}, nil
	}

	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE entry_id = ANY($1);`
	rows, err := tx.Query(ctx, query, entryIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries by IDs: %w", err)
	}
	defer rows.Close()

	entries := make(map[string]domain.LedgerEntry, len(entryIDs))
	for rows.Next() {
		m, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry row: %w", err)
		}
		entries[m.EntryID] = mapping.ToDomainEntry(*m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entry rows: %w", err)
	}
	return entries, nil
}

// ListApprovedEntriesByDateRange retrieves approved entries whose entry date
// falls in [from, to], in entry-date order.
func (r *PgxEntryRepository) ListApprovedEntriesByDateRange(ctx context.Context, from, to time.Time) ([]domain.LedgerEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE status = $1 AND entry_date >= $2 AND entry_date <= $3
		ORDER BY entry_date, entry_id;
	`
	rows, err := r.pool.Query(ctx, query, string(domain.EntryApproved), from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query approved entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		m, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry row: %w", err)
		}
		entries = append(entries, mapping.ToDomainEntry(*m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entry rows: %w", err)
	}
	return entries, nil
}
