package pgsql

import (
	portsrepo "github.com/kritsadas/ledger_export_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	entryRepo := newPgxEntryRepository(dbPool)
	queueRepo := newPgxExportQueueRepository(dbPool)
	logRepo := newPgxExportLogRepository(dbPool)
	configRepo := newPgxSystemConfigRepository(dbPool)

	return portsrepo.RepositoryProvider{
		EntryRepo:  entryRepo,
		QueueRepo:  queueRepo,
		LogRepo:    logRepo,
		ConfigRepo: configRepo,
	}
}
