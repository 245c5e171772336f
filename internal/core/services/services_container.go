package services

import (
	"context"
	"log/slog"
	"time"

	portsrepo "github.com/kritsadas/ledger_export_app/internal/core/ports/repositories"
	portssvc "github.com/kritsadas/ledger_export_app/internal/core/ports/services"
	"github.com/kritsadas/ledger_export_app/internal/platform/config"
)

// immediateProcessTimeout bounds fire-and-forget processing of a single
// queued entry after the originating request has already been answered.
const immediateProcessTimeout = 2 * time.Minute

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, ext portssvc.ExternalClients) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// Schedule first since the export service reads the daily time from it
	container.Schedule = NewScheduleService(repos.ConfigRepo)

	container.Export = NewExportService(
		repos.QueueRepo,
		repos.EntryRepo,
		repos.LogRepo,
		ext.Accounting,
		ext.Notifier,
		container.Schedule,
		cfg.Location,
		cfg.MaxExportAmount,
	)

	container.Batch = NewBatchExportService(
		repos.QueueRepo,
		repos.EntryRepo,
		repos.LogRepo,
		ext.Uploader,
		ext.Notifier,
		cfg.Location,
	)

	// Immediate-path records are processed after the HTTP response, detached
	// from the request context so client disconnects cannot abort the export.
	dispatch := func(queueID string) {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), immediateProcessTimeout)
			defer cancel()
			if err := container.Export.ProcessImmediate(ctx, queueID); err != nil {
				slog.Default().Error("Asynchronous export processing failed",
					slog.String("queue_id", queueID),
					slog.String("error", err.Error()))
			}
		}()
	}

	container.Ingest = NewIngestService(repos.EntryRepo, container.Export, ext.Review, dispatch)

	return container
}
