package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/kritsadas/ledger_export_app/internal/apperrors"
	"github.com/kritsadas/ledger_export_app/internal/core/domain"
	portssvc "github.com/kritsadas/ledger_export_app/internal/core/ports/services"
	"github.com/kritsadas/ledger_export_app/internal/dto"
	"github.com/kritsadas/ledger_export_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// asyncProcessTimeout bounds fire-and-forget processing dispatched from a
// handler after its response has been written.
const asyncProcessTimeout = 2 * time.Minute

// exportHandler handles HTTP requests related to the export queue.
type exportHandler struct {
	exportSvc portssvc.ExportSvcFacade
	batchSvc  portssvc.BatchExportSvc
}

// newExportHandler creates a new exportHandler.
func newExportHandler(exportSvc portssvc.ExportSvcFacade, batchSvc portssvc.BatchExportSvc) *exportHandler {
	return &exportHandler{
		exportSvc: exportSvc,
		batchSvc:  batchSvc,
	}
}

// registerExportRoutes registers the export queue routes under /export.
func registerExportRoutes(group *gin.RouterGroup, exportSvc portssvc.ExportSvcFacade, batchSvc portssvc.BatchExportSvc) {
	h := newExportHandler(exportSvc, batchSvc)
	export := group.Group("/export")
	export.POST("/queue", h.queueExport)
	export.POST("/retry/:queueID", h.retryExport)
	export.GET("/status/:entryID", h.getExportStatus)
	export.GET("/metrics", h.getExportMetrics)
	export.GET("/csv", h.downloadCSV)
	export.POST("/batch/trigger", h.triggerBatch)
}

// processAsync runs immediate export processing detached from the request,
// so the response is not held open while the accounting API is called.
func (h *exportHandler) processAsync(logger *slog.Logger, queueID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), asyncProcessTimeout)
		defer cancel()
		ctx = middleware.ContextWithLogger(ctx, logger)
		if err := h.exportSvc.ProcessImmediate(ctx, queueID); err != nil {
			logger.Error("Asynchronous export processing failed",
				slog.String("queue_id", queueID),
				slog.String("error", err.Error()))
		}
	}()
}

// queueExport godoc
// @Summary Queue an approved entry for export
// @Description Validates the entry and adds it to the export queue on the requested path
// @Tags export
// @Accept  json
// @Produce  json
// @Param   request body dto.QueueExportRequest true "Entry and export path"
// @Success 201 {object} dto.QueueExportResponse
// @Failure 400 {object} map[string]string "Invalid request, entry not exportable, or already queued"
// @Failure 404 {object} map[string]string "Entry not found"
// @Router /export/queue [post]
func (h *exportHandler) queueExport(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	req := dto.QueueExportRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for queueExport", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	path := domain.PathImmediate
	if req.ExportPath != "" {
		path = domain.ExportPath(req.ExportPath)
	}

	rec, err := h.exportSvc.QueueForExport(c.Request.Context(), req.EntryID, path, "api")
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrDuplicate):
			logger.Warn("Entry already queued", slog.String("entry_id", req.EntryID))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Entry already queued for export"})
		case errors.Is(err, apperrors.ErrNotFound):
			logger.Warn("Entry not found for queueing", slog.String("entry_id", req.EntryID))
			c.JSON(http.StatusNotFound, gin.H{"error": "Entry not found"})
		case errors.Is(err, apperrors.ErrValidation):
			logger.Warn("Validation error queueing entry", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to queue entry", slog.String("error", err.Error()), slog.String("entry_id", req.EntryID))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue entry for export"})
		}
		return
	}

	if path == domain.PathImmediate {
		h.processAsync(logger, rec.QueueID)
	}

	logger.Info("Entry queued via API",
		slog.String("queue_id", rec.QueueID),
		slog.String("entry_id", req.EntryID))
	c.JSON(http.StatusCreated, dto.QueueExportResponse{
		QueueID:      rec.QueueID,
		Status:       string(rec.Status),
		ScheduledFor: rec.ScheduledFor,
		Message:      fmt.Sprintf("Entry queued for %s export", path),
	})
}

// retryExport godoc
// @Summary Retry a failed export
// @Description Requeues a failed export if it has attempts remaining
// @Tags export
// @Produce  json
// @Param   queueID path string true "Queue record ID"
// @Success 200 {object} dto.RetryExportResponse
// @Failure 400 {object} map[string]string "Cannot retry"
// @Failure 404 {object} map[string]string "Queue record not found"
// @Router /export/retry/{queueID} [post]
func (h *exportHandler) retryExport(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	queueID := c.Param("queueID")

	rec, err := h.exportSvc.RetryExport(c.Request.Context(), queueID, "api")
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			logger.Warn("Queue record not found for retry", slog.String("queue_id", queueID))
			c.JSON(http.StatusNotFound, gin.H{"error": "Queue record not found"})
		case errors.Is(err, apperrors.ErrMaxRetries):
			logger.Warn("Retry attempts exhausted", slog.String("queue_id", queueID))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot retry: maximum attempts reached"})
		case errors.Is(err, apperrors.ErrValidation):
			logger.Warn("Invalid retry request", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to retry export", slog.String("error", err.Error()), slog.String("queue_id", queueID))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retry export"})
		}
		return
	}

	h.processAsync(logger, rec.QueueID)

	logger.Info("Export retry dispatched", slog.String("queue_id", queueID))
	c.JSON(http.StatusOK, dto.RetryExportResponse{
		QueueID:           rec.QueueID,
		Status:            string(domain.StatusProcessing),
		RemainingAttempts: rec.RemainingAttempts(),
		Message:           "Retry dispatched",
	})
}

// getExportStatus godoc
// @Summary Get export status for an entry
// @Description Retrieves the entry's queue record together with its audit history
// @Tags export
// @Produce  json
// @Param   entryID path string true "Ledger entry ID"
// @Success 200 {object} dto.ExportStatusResponse
// @Failure 404 {object} map[string]string "Entry not queued"
// @Router /export/status/{entryID} [get]
func (h *exportHandler) getExportStatus(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	entryID := c.Param("entryID")

	status, err := h.exportSvc.GetExportStatus(c.Request.Context(), entryID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("No queue record for entry", slog.String("entry_id", entryID))
			c.JSON(http.StatusNotFound, gin.H{"error": "Entry is not queued for export"})
			return
		}
		logger.Error("Failed to get export status", slog.String("error", err.Error()), slog.String("entry_id", entryID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve export status"})
		return
	}

	c.JSON(http.StatusOK, status)
}

// getExportMetrics godoc
// @Summary Get export queue metrics
// @Description Aggregates queue counts per status for monitoring
// @Tags export
// @Produce  json
// @Success 200 {object} dto.ExportMetricsResponse
// @Router /export/metrics [get]
func (h *exportHandler) getExportMetrics(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	metrics, err := h.exportSvc.GetExportMetrics(c.Request.Context())
	if err != nil {
		logger.Error("Failed to get export metrics", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve export metrics"})
		return
	}

	c.JSON(http.StatusOK, metrics)
}

// downloadCSV godoc
// @Summary Download approved entries as CSV
// @Description Renders approved entries in the given date range as a CSV file
// @Tags export
// @Produce  text/csv
// @Param   from query string true "Start date (YYYY-MM-DD)"
// @Param   to query string true "End date (YYYY-MM-DD)"
// @Success 200 {string} string "CSV file"
// @Failure 400 {object} map[string]string "Invalid date range"
// @Router /export/csv [get]
func (h *exportHandler) downloadCSV(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	from, err := time.Parse("2006-01-02", c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or missing 'from' date, expected YYYY-MM-DD"})
		return
	}
	to, err := time.Parse("2006-01-02", c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or missing 'to' date, expected YYYY-MM-DD"})
		return
	}

	data, filename, err := h.exportSvc.RenderApprovedCSV(c.Request.Context(), from, to)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Failed to render CSV", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render CSV"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

// triggerBatch godoc
// @Summary Trigger the daily export batch
// @Description Runs the daily batch now. force=true includes scheduled records not yet due
// @Tags export
// @Produce  json
// @Param   force query bool false "Include not-yet-due scheduled records"
// @Success 200 {object} dto.TriggerBatchResponse
// @Failure 409 {object} map[string]string "Batch already running"
// @Router /export/batch/trigger [post]
func (h *exportHandler) triggerBatch(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	force := c.Query("force") == "true"

	result, err := h.batchSvc.RunDailyBatch(c.Request.Context(), force)
	if err != nil {
		if errors.Is(err, apperrors.ErrAlreadyRunning) {
			c.JSON(http.StatusConflict, gin.H{"error": "Daily batch is already running"})
			return
		}
		logger.Error("Manual batch trigger failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Daily batch failed"})
		return
	}

	resp := dto.TriggerBatchResponse{
		Processed:        result.Processed,
		AlreadyGenerated: result.AlreadyGenerated,
	}
	switch {
	case result.AlreadyGenerated:
		resp.Message = "Batch already generated for today"
	case result.Processed == 0:
		resp.Message = "No due entries to export"
	default:
		resp.Message = fmt.Sprintf("Exported %d entries", result.Processed)
		resp.FileID = &result.Upload.FileID
		resp.WebViewLink = &result.Upload.WebViewLink
	}
	c.JSON(http.StatusOK, resp)
}
