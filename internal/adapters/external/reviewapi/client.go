// Package reviewapi talks to the external review tool's record API.
package reviewapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/kritsadas/ledger_export_app/internal/core/domain"
	portssvc "github.com/kritsadas/ledger_export_app/internal/core/ports/services"
)

// Config holds the review API connection settings.
type Config struct {
	BaseURL  string
	APIToken string
	TableID  string
}

// Client implements the ReviewClient port over the review tool's REST API.
type Client struct {
	config Config
	client *http.Client
	logger *slog.Logger
}

// NewClient creates a new review API client.
func NewClient(config Config, logger *slog.Logger) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("review API base URL is required")
	}
	if config.TableID == "" {
		return nil, fmt.Errorf("review API table ID is required")
	}
	return &Client{
		config: config,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}, nil
}

// Ensure Client implements the portssvc.ReviewClient interface
var _ portssvc.ReviewClient = (*Client)(nil)

type recordPayload struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

type listRecordsResponse struct {
	Records []recordPayload `json:"records"`
}

// ListPendingRecords returns records awaiting ingestion, field keys by name.
func (c *Client) ListPendingRecords(ctx context.Context) ([]domain.ReviewRecord, error) {
	endpoint := fmt.Sprintf("%s/api/table/%s/record?fieldKeyType=name",
		c.config.BaseURL, url.PathEscape(c.config.TableID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build list request: %w", err)
	}
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to list review records: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("review API returned %d listing records: %s", resp.StatusCode, body)
	}

	var payload listRecordsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode record list: %w", err)
	}

	records := make([]domain.ReviewRecord, len(payload.Records))
	for i, rec := range payload.Records {
		records[i] = domain.ReviewRecord{ID: rec.ID, Fields: rec.Fields}
	}
	c.logger.Debug("Listed review records", slog.Int("count", len(records)))
	return records, nil
}

// UpdateRecordEntryID writes the created entry's ID back onto the record.
func (c *Client) UpdateRecordEntryID(ctx context.Context, recordID, entryID string) error {
	endpoint := fmt.Sprintf("%s/api/table/%s/record/%s",
		c.config.BaseURL, url.PathEscape(c.config.TableID), url.PathEscape(recordID))

	body, err := json.Marshal(map[string]any{
		"record": map[string]any{
			"fields": map[string]any{
				domain.ReviewFieldEntryID: entryID,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal record update: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build update request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to update record %s: %w", recordID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("review API returned %d updating record %s: %s", resp.StatusCode, recordID, respBody)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.config.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIToken)
	}
}
