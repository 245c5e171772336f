package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/kritsadas/ledger_export_app/internal/apperrors"
	"github.com/kritsadas/ledger_export_app/internal/core/domain"
	portssvc "github.com/kritsadas/ledger_export_app/internal/core/ports/services"
	"github.com/kritsadas/ledger_export_app/internal/dto"
	"github.com/kritsadas/ledger_export_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// configHandler exposes the dynamic configuration keys. Only the daily
// export time is runtime-tunable today.
type configHandler struct {
	scheduleSvc portssvc.ScheduleSvc
}

// newConfigHandler creates a new configHandler.
func newConfigHandler(scheduleSvc portssvc.ScheduleSvc) *configHandler {
	return &configHandler{scheduleSvc: scheduleSvc}
}

// registerConfigRoutes registers the dynamic config routes under /config.
func registerConfigRoutes(group *gin.RouterGroup, scheduleSvc portssvc.ScheduleSvc) {
	h := newConfigHandler(scheduleSvc)
	cfg := group.Group("/config")
	cfg.GET("/:key", h.getConfig)
	cfg.PUT("/:key", h.updateConfig)
}

// getConfig godoc
// @Summary Get a dynamic configuration value
// @Tags config
// @Produce  json
// @Param   key path string true "Configuration key"
// @Success 200 {object} dto.ConfigValueResponse
// @Failure 404 {object} map[string]string "Unsupported configuration key"
// @Router /config/{key} [get]
func (h *configHandler) getConfig(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	key := c.Param("key")

	if key != domain.DailyExportTimeKey {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unsupported configuration key"})
		return
	}

	value, err := h.scheduleSvc.GetDailyExportTime(c.Request.Context())
	if err != nil {
		logger.Error("Failed to read config", slog.String("key", key), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read configuration"})
		return
	}

	c.JSON(http.StatusOK, dto.ConfigValueResponse{Key: key, Value: value})
}

// updateConfig godoc
// @Summary Update a dynamic configuration value
// @Description Changes take effect without a restart: the batch job rearms its timer
// @Tags config
// @Accept  json
// @Produce  json
// @Param   key path string true "Configuration key"
// @Param   request body dto.UpdateConfigRequest true "New value"
// @Success 200 {object} dto.ConfigValueResponse
// @Failure 400 {object} map[string]string "Invalid value"
// @Failure 404 {object} map[string]string "Unsupported configuration key"
// @Router /config/{key} [put]
func (h *configHandler) updateConfig(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	key := c.Param("key")

	if key != domain.DailyExportTimeKey {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unsupported configuration key"})
		return
	}

	req := dto.UpdateConfigRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	if err := h.scheduleSvc.SetDailyExportTime(c.Request.Context(), req.Value, "api"); err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Failed to update config", slog.String("key", key), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update configuration"})
		return
	}

	logger.Info("Config updated", slog.String("key", key), slog.String("value", req.Value))
	c.JSON(http.StatusOK, dto.ConfigValueResponse{Key: key, Value: req.Value})
}
