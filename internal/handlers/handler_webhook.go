package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/kritsadas/ledger_export_app/internal/apperrors"
	portssvc "github.com/kritsadas/ledger_export_app/internal/core/ports/services"
	"github.com/kritsadas/ledger_export_app/internal/dto"
	"github.com/kritsadas/ledger_export_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// webhookQueueTimeout bounds how long a webhook delivery may wait on
// queueing. The review tool retries on its own schedule, so slow deliveries
// are answered with 504 instead of holding the connection.
const webhookQueueTimeout = 3 * time.Second

// webhookHandler handles push deliveries from the review tool.
type webhookHandler struct {
	ingestSvc portssvc.IngestWebhookSvc
	timeout   time.Duration
}

// newWebhookHandler creates a new webhookHandler.
func newWebhookHandler(ingestSvc portssvc.IngestWebhookSvc) *webhookHandler {
	return &webhookHandler{
		ingestSvc: ingestSvc,
		timeout:   webhookQueueTimeout,
	}
}

// handleReviewEvent godoc
// @Summary Handle a review tool webhook delivery
// @Description Queues approved records for export. Ignored and duplicate deliveries return 200
// @Tags webhooks
// @Accept  json
// @Produce  json
// @Param   request body dto.ReviewWebhookRequest true "Webhook event"
// @Success 200 {object} dto.WebhookAckResponse
// @Failure 400 {object} map[string]string "Invalid payload"
// @Failure 504 {object} map[string]string "Queueing timed out"
// @Router /webhooks/review [post]
func (h *webhookHandler) handleReviewEvent(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	req := dto.ReviewWebhookRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid webhook payload", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook payload"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	result, err := h.ingestSvc.HandleReviewEvent(ctx,
		req.Data.RecordID,
		req.Data.Fields.Status,
		req.Data.Fields.ExportPath,
		req.Data.Fields.EntryID,
	)
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			logger.Error("Webhook queueing timed out", slog.String("record_id", req.Data.RecordID))
			c.JSON(http.StatusGatewayTimeout, gin.H{"error": "Queueing timed out"})
		case errors.Is(err, apperrors.ErrValidation):
			logger.Warn("Webhook validation error", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrNotFound):
			logger.Warn("Webhook references unknown entry", slog.String("record_id", req.Data.RecordID))
			c.JSON(http.StatusNotFound, gin.H{"error": "Entry not found"})
		default:
			logger.Error("Failed to handle webhook", slog.String("error", err.Error()), slog.String("record_id", req.Data.RecordID))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to handle webhook"})
		}
		return
	}

	ack := dto.WebhookAckResponse{
		Status:  "queued",
		QueueID: result.QueueID,
		Message: result.Message,
	}
	if result.Ignored {
		ack.Status = "ignored"
	}
	if result.Duplicate {
		ack.Status = "duplicate"
	}

	logger.Info("Webhook handled",
		slog.String("record_id", req.Data.RecordID),
		slog.String("status", ack.Status))
	c.JSON(http.StatusOK, ack)
}
