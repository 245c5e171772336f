package handlers

import (
	portssvc "github.com/kritsadas/ledger_export_app/internal/core/ports/services"
	"github.com/kritsadas/ledger_export_app/internal/middleware"
	"github.com/kritsadas/ledger_export_app/internal/platform/config"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	// Add health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	api := r.Group("/api")

	registerExportRoutes(api, services.Export, services.Batch)
	registerWebhookRoutes(api, cfg, services.Ingest)
	registerConfigRoutes(api, services.Schedule)
}

// registerWebhookRoutes wires the review-tool webhook behind rate limiting
// and signature verification. The endpoint is unauthenticated apart from the
// signature, so a per-IP limit keeps redelivery storms off the queue.
func registerWebhookRoutes(group *gin.RouterGroup, cfg *config.Config, ingestSvc portssvc.IngestSvcFacade) {
	h := newWebhookHandler(ingestSvc)

	// Define rate limit: 120 deliveries per minute per IP
	rate, _ := limiter.NewRateFromFormatted("120-M")
	store := memory.NewStore()
	ipLimiter := limiter.New(store, rate)

	webhooks := group.Group("/webhooks",
		middleware.RateLimit(ipLimiter),
		middleware.VerifyWebhookSignature(cfg.WebhookSecret),
	)
	webhooks.POST("/review", h.handleReviewEvent)
}
