package repositories

import (
	"context"
	"time"

	"github.com/kritsadas/ledger_export_app/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// EntryReader defines read operations for ledger entry data.
type EntryReader interface {
	// FindEntryByID retrieves a specific entry by its unique identifier.
	FindEntryByID(ctx context.Context, entryID string) (*domain.LedgerEntry, error)

	// FindEntryByIDInTx retrieves an entry inside an open transaction with a
	// row lock, so the immediate processor re-validates a stable snapshot.
	FindEntryByIDInTx(ctx context.Context, tx pgx.Tx, entryID string) (*domain.LedgerEntry, error)

	// FindEntryByReviewRecordID looks an entry up by the external review
	// tool's record ID. This is the ingestion idempotency lookup.
	FindEntryByReviewRecordID(ctx context.Context, recordID string) (*domain.LedgerEntry, error)

	// FindEntriesByIDsInTx retrieves entries for the given IDs inside an open
	// transaction, keyed by entry ID.
	FindEntriesByIDsInTx(ctx context.Context, tx pgx.Tx, entryIDs []string) (map[string]domain.LedgerEntry, error)

	// ListApprovedEntriesByDateRange retrieves approved entries whose entry
	// date falls in [from, to], in entry-date order.
	ListApprovedEntriesByDateRange(ctx context.Context, from, to time.Time) ([]domain.LedgerEntry, error)
}

// EntryWriter defines write operations for ledger entry data.
type EntryWriter interface {
	// SaveEntry persists a new ledger entry.
	SaveEntry(ctx context.Context, entry domain.LedgerEntry) error

	// MarkEntryApproved transitions an entry to approved status.
	MarkEntryApproved(ctx context.Context, entryID, approvedBy string, at time.Time) error
}

// EntryRepositoryFacade combines all entry-related repository interfaces.
type EntryRepositoryFacade interface {
	EntryReader
	EntryWriter
}
