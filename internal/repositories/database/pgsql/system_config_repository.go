package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kritsadas/ledger_export_app/internal/apperrors"
	portsrepo "github.com/kritsadas/ledger_export_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxSystemConfigRepository struct {
	pool *pgxpool.Pool
}

// newPgxSystemConfigRepository creates a new repository for dynamic config.
func newPgxSystemConfigRepository(pool *pgxpool.Pool) portsrepo.SystemConfigRepositoryFacade {
	return &PgxSystemConfigRepository{pool: pool}
}

// Ensure PgxSystemConfigRepository implements portsrepo.SystemConfigRepositoryFacade
var _ portsrepo.SystemConfigRepositoryFacade = (*PgxSystemConfigRepository)(nil)

// GetConfigValue returns the stored value for key.
func (r *PgxSystemConfigRepository) GetConfigValue(ctx context.Context, key string) (string, error) {
	query := `SELECT value FROM system_config WHERE key = $1;`
	var value string
	err := r.pool.QueryRow(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperrors.ErrNotFound
		}
		return "", fmt.Errorf("failed to read config key %s: %w", key, err)
	}
	return value, nil
}

// UpsertConfigValue stores key=value, overwriting any previous value.
func (r *PgxSystemConfigRepository) UpsertConfigValue(ctx context.Context, key, value, updatedBy string, at time.Time) error {
	query := `
		INSERT INTO system_config (key, value, updated_by, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at;
	`
	if _, err := r.pool.Exec(ctx, query, key, value, updatedBy, at); err != nil {
		return fmt.Errorf("failed to upsert config key %s: %w", key, err)
	}
	return nil
}
