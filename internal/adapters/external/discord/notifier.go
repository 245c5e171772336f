// Package discord delivers operational notifications to Discord webhooks.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	portssvc "github.com/kritsadas/ledger_export_app/internal/core/ports/services"
)

const (
	colorInfo     = 0x2ECC71
	colorCritical = 0xE74C3C
)

// Notifier posts embeds to Discord webhook URLs. Delivery failures are
// logged, never returned: notifications must not fail the operation that
// triggered them.
type Notifier struct {
	infoURL     string
	criticalURL string
	client      *http.Client
	logger      *slog.Logger
}

// NewNotifier creates a new Discord notifier. Empty URLs disable the
// corresponding channel.
func NewNotifier(infoURL, criticalURL string, logger *slog.Logger) *Notifier {
	return &Notifier{
		infoURL:     infoURL,
		criticalURL: criticalURL,
		client:      &http.Client{Timeout: 10 * time.Second},
		logger:      logger,
	}
}

// Ensure Notifier implements the portssvc.Notifier interface
var _ portssvc.Notifier = (*Notifier)(nil)

type embed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
	Timestamp   string `json:"timestamp"`
}

type webhookPayload struct {
	Embeds []embed `json:"embeds"`
}

// Info sends a routine operational message.
func (n *Notifier) Info(ctx context.Context, title, message string) {
	n.send(ctx, n.infoURL, title, message, colorInfo)
}

// Critical sends an alert that needs human attention.
func (n *Notifier) Critical(ctx context.Context, title, message string) {
	n.send(ctx, n.criticalURL, title, message, colorCritical)
}

func (n *Notifier) send(ctx context.Context, url, title, message string, color int) {
	if url == "" {
		return
	}

	payload := webhookPayload{
		Embeds: []embed{{
			Title:       title,
			Description: message,
			Color:       color,
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
		}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		n.logger.Error("Failed to marshal Discord payload", slog.String("error", err.Error()))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		n.logger.Error("Failed to build Discord request", slog.String("error", err.Error()))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Error("Failed to send Discord notification", slog.String("error", err.Error()))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		n.logger.Error("Discord webhook rejected notification",
			slog.Int("status", resp.StatusCode),
			slog.String("title", title))
		return
	}
	n.logger.Debug("Discord notification sent", slog.String("title", title))
}

// String describes the notifier's configuration for startup logs.
func (n *Notifier) String() string {
	return fmt.Sprintf("discord notifier (info=%t, critical=%t)", n.infoURL != "", n.criticalURL != "")
}
