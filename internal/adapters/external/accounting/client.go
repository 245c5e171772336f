// Package accounting posts exported entries to the downstream accounting API.
package accounting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/kritsadas/ledger_export_app/internal/apperrors"
	"github.com/kritsadas/ledger_export_app/internal/core/domain"
	portssvc "github.com/kritsadas/ledger_export_app/internal/core/ports/services"
	"github.com/kritsadas/ledger_export_app/internal/utils/money"
)

// Config holds the accounting API connection settings.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client implements the AccountingClient port over HTTP.
type Client struct {
	config Config
	client *http.Client
	logger *slog.Logger
}

// NewClient creates a new accounting API client.
func NewClient(config Config, logger *slog.Logger) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("accounting API base URL is required")
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	return &Client{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: logger,
	}, nil
}

// Ensure Client implements the portssvc.AccountingClient interface
var _ portssvc.AccountingClient = (*Client)(nil)

type postEntryRequest struct {
	EntryID     string `json:"entryId"`
	Date        string `json:"date"`
	AccountCode string `json:"accountCode"`
	Direction   string `json:"direction"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	CSVLine     string `json:"csvLine"`
}

// Post submits one rendered entry. Server-side (5xx) and transport errors
// are wrapped as transient so callers know a retry may succeed; 4xx
// responses are permanent rejections.
func (c *Client) Post(ctx context.Context, entry domain.LedgerEntry, csvLine string) error {
	payload := postEntryRequest{
		EntryID:     entry.EntryID,
		Date:        entry.EntryDate.Format("2006-01-02"),
		AccountCode: entry.AccountCode,
		Direction:   string(entry.Direction),
		Amount:      money.Format(entry.Amount),
		Description: entry.Description,
		CSVLine:     csvLine,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal entry %s: %w", entry.EntryID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/entries", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build post request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("X-API-Key", c.config.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to reach accounting API: %w", apperrors.ErrTransient, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode < 300:
		c.logger.Debug("Entry posted to accounting API", slog.String("entry_id", entry.EntryID))
		return nil
	case resp.StatusCode >= 500:
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: accounting API returned %d for entry %s: %s", apperrors.ErrTransient, resp.StatusCode, entry.EntryID, respBody)
	default:
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("accounting API rejected entry %s with %d: %s", entry.EntryID, resp.StatusCode, respBody)
	}
}
