package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kritsadas/ledger_export_app/internal/adapters/external/accounting"
	"github.com/kritsadas/ledger_export_app/internal/adapters/external/discord"
	"github.com/kritsadas/ledger_export_app/internal/adapters/external/gdrive"
	"github.com/kritsadas/ledger_export_app/internal/adapters/external/reviewapi"
	portssvc "github.com/kritsadas/ledger_export_app/internal/core/ports/services"
	"github.com/kritsadas/ledger_export_app/internal/core/services"
	"github.com/kritsadas/ledger_export_app/internal/handlers"
	"github.com/kritsadas/ledger_export_app/internal/jobs"
	"github.com/kritsadas/ledger_export_app/internal/middleware"
	"github.com/kritsadas/ledger_export_app/internal/platform/config"
	"github.com/kritsadas/ledger_export_app/internal/repositories/database/pgsql"
	"github.com/kritsadas/ledger_export_app/pkg/database"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize database connection pool (for application use)
	dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL, cfg.EnableDBCheck)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer dbPool.Close()
	logger.Info("Database connection pool established.")

	if err := runMigrations(cfg, logger); err != nil {
		os.Exit(1)
	}

	// External adapters
	ext, err := buildExternalClients(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize external clients", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Repositories and services
	repos := pgsql.NewRepositoryProvider(dbPool)
	container := services.NewServiceContainer(cfg, repos, ext)

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	r.Use(cors.Default())

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, container)

	// Background jobs
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dailyJob := jobs.NewDailyExportJob(container.Batch, container.Schedule, ext.Notifier, logger, cfg.Location, cfg.BatchMaxRetries)
	if err := dailyJob.Start(rootCtx); err != nil {
		logger.Error("Failed to start daily export job", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer dailyJob.Stop()

	if ext.Review != nil {
		pollingJob := jobs.NewPollingJob(container.Ingest, logger, cfg.ReviewPollInterval)
		if err := pollingJob.Start(rootCtx); err != nil {
			logger.Error("Failed to start polling job", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer pollingJob.Stop()
	} else {
		logger.Warn("Review API not configured, polling job disabled")
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed to run", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-rootCtx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", slog.String("error", err.Error()))
	}
	logger.Info("Server stopped.")
}

// buildExternalClients wires the outbound adapters. Unconfigured optional
// integrations become nil ports; the services treat nil as disabled.
func buildExternalClients(cfg *config.Config, logger *slog.Logger) (portssvc.ExternalClients, error) {
	ext := portssvc.ExternalClients{
		Notifier: discord.NewNotifier(cfg.DiscordInfoWebhookURL, cfg.DiscordCriticalWebhookURL, logger),
	}

	accountingClient, err := accounting.NewClient(accounting.Config{
		BaseURL: cfg.AccountingAPIURL,
		APIKey:  cfg.AccountingAPIKey,
		Timeout: cfg.AccountingTimeout,
	}, logger)
	if err != nil {
		return ext, err
	}
	ext.Accounting = accountingClient

	if cfg.ReviewAPIURL != "" {
		reviewClient, err := reviewapi.NewClient(reviewapi.Config{
			BaseURL:  cfg.ReviewAPIURL,
			APIToken: cfg.ReviewAPIToken,
			TableID:  cfg.ReviewTableID,
		}, logger)
		if err != nil {
			return ext, err
		}
		ext.Review = reviewClient
	}

	if cfg.DriveCredentialsFile != "" {
		uploader, err := gdrive.NewUploader(context.Background(), gdrive.Config{
			CredentialsFile: cfg.DriveCredentialsFile,
			FolderID:        cfg.DriveFolderID,
		}, logger)
		if err != nil {
			return ext, err
		}
		ext.Uploader = uploader
	} else {
		logger.Warn("Drive credentials not configured, batch uploads will fail")
	}

	return ext, nil
}

// runMigrations applies all pending "up" migrations from the migrations
// directory over a standard sql.DB connection.
func runMigrations(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("Running database migrations...")

	migrationDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to open database connection for migrations", slog.String("error", err.Error()))
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()
	if err := migrationDB.Ping(); err != nil {
		logger.Error("Failed to ping database for migrations", slog.String("error", err.Error()))
		return err
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		logger.Error("Could not create postgres driver instance for migrations", slog.String("error", err.Error()))
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		logger.Error("Could not create migrate instance", slog.String("error", err.Error()))
		return err
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
		return err
	}

	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		logger.Error("Migration source error", slog.String("error", sourceErr.Error()))
		return sourceErr
	}
	if dbErr != nil {
		logger.Error("Migration database error", slog.String("error", dbErr.Error()))
		return dbErr
	}

	if err == migrate.ErrNoChange {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}
