package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	EnableDBCheck bool

	// Timezone governs batch-date boundaries and the daily export timer.
	Timezone string
	Location *time.Location

	// MaxExportAmount is the largest single-entry amount, in minor units,
	// the pipeline will export. Zero disables the limit.
	MaxExportAmount int64

	// Accounting API (downstream export target)
	AccountingAPIURL  string
	AccountingAPIKey  string
	AccountingTimeout time.Duration

	// Review tool (upstream ingestion source)
	ReviewAPIURL       string
	ReviewAPIToken     string
	ReviewTableID      string
	ReviewPollInterval time.Duration
	WebhookSecret      string

	// Google Drive upload target for the daily batch CSV
	DriveCredentialsFile string
	DriveFolderID        string

	// Discord operational notifications
	DiscordInfoWebhookURL     string
	DiscordCriticalWebhookURL string

	// BatchMaxRetries caps automatic daily-batch retries before alerting.
	BatchMaxRetries int
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("TIMEZONE", "Asia/Bangkok")
	viper.SetDefault("MAX_EXPORT_AMOUNT", int64(0))
	viper.SetDefault("ACCOUNTING_API_URL", "")
	viper.SetDefault("ACCOUNTING_API_KEY", "")
	viper.SetDefault("ACCOUNTING_TIMEOUT", "30s")
	viper.SetDefault("REVIEW_API_URL", "")
	viper.SetDefault("REVIEW_API_TOKEN", "")
	viper.SetDefault("REVIEW_TABLE_ID", "")
	viper.SetDefault("REVIEW_POLL_INTERVAL", "60s")
	viper.SetDefault("WEBHOOK_SECRET", "")
	viper.SetDefault("DRIVE_CREDENTIALS_FILE", "")
	viper.SetDefault("DRIVE_FOLDER_ID", "")
	viper.SetDefault("DISCORD_INFO_WEBHOOK_URL", "")
	viper.SetDefault("DISCORD_CRITICAL_WEBHOOK_URL", "")
	viper.SetDefault("BATCH_MAX_RETRIES", 3)

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")

	cfg.Timezone = viper.GetString("TIMEZONE")
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	cfg.MaxExportAmount = viper.GetInt64("MAX_EXPORT_AMOUNT")
	if cfg.MaxExportAmount < 0 {
		return nil, fmt.Errorf("MAX_EXPORT_AMOUNT must not be negative, got %d", cfg.MaxExportAmount)
	}

	cfg.AccountingAPIURL = viper.GetString("ACCOUNTING_API_URL")
	cfg.AccountingAPIKey = viper.GetString("ACCOUNTING_API_KEY")
	cfg.AccountingTimeout, err = time.ParseDuration(viper.GetString("ACCOUNTING_TIMEOUT"))
	if err != nil {
		cfg.AccountingTimeout = 30 * time.Second
		log.Printf("Warning: Invalid value for ACCOUNTING_TIMEOUT. Defaulting to %s.\n", cfg.AccountingTimeout)
	}

	cfg.ReviewAPIURL = viper.GetString("REVIEW_API_URL")
	cfg.ReviewAPIToken = viper.GetString("REVIEW_API_TOKEN")
	cfg.ReviewTableID = viper.GetString("REVIEW_TABLE_ID")
	cfg.ReviewPollInterval, err = time.ParseDuration(viper.GetString("REVIEW_POLL_INTERVAL"))
	if err != nil || cfg.ReviewPollInterval <= 0 {
		cfg.ReviewPollInterval = 60 * time.Second
		log.Printf("Warning: Invalid value for REVIEW_POLL_INTERVAL. Defaulting to %s.\n", cfg.ReviewPollInterval)
	}

	cfg.WebhookSecret = viper.GetString("WEBHOOK_SECRET")
	if cfg.WebhookSecret == "" {
		log.Println("Warning: WEBHOOK_SECRET not set. Webhook signatures will not be verified.")
	}

	cfg.DriveCredentialsFile = viper.GetString("DRIVE_CREDENTIALS_FILE")
	cfg.DriveFolderID = viper.GetString("DRIVE_FOLDER_ID")

	cfg.DiscordInfoWebhookURL = viper.GetString("DISCORD_INFO_WEBHOOK_URL")
	cfg.DiscordCriticalWebhookURL = viper.GetString("DISCORD_CRITICAL_WEBHOOK_URL")

	cfg.BatchMaxRetries = viper.GetInt("BATCH_MAX_RETRIES")
	if cfg.BatchMaxRetries < 1 {
		cfg.BatchMaxRetries = 3
	}

	return cfg, nil
}
