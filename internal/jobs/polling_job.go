// Package jobs runs the background workers: the review-record poller and
// the daily export batch.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	portssvc "github.com/kritsadas/ledger_export_app/internal/core/ports/services"
	"github.com/kritsadas/ledger_export_app/internal/middleware"
)

// PollingJob sweeps the review tool for records the webhook missed. It is
// the fallback ingestion path, so a sweep failure is logged and retried on
// the next tick rather than escalated.
type PollingJob struct {
	ingestSvc portssvc.IngestPollerSvc
	logger    *slog.Logger

	interval time.Duration

	mu        sync.RWMutex
	isRunning bool
	ctx       context.Context
	cancel    context.CancelFunc

	// sweeping guards against overlapping sweeps when one tick's work
	// outlasts the interval.
	sweeping sync.Mutex
}

// NewPollingJob creates a new review-record polling job.
func NewPollingJob(ingestSvc portssvc.IngestPollerSvc, logger *slog.Logger, interval time.Duration) *PollingJob {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &PollingJob{
		ingestSvc: ingestSvc,
		logger:    logger,
		interval:  interval,
	}
}

// Start starts the polling loop.
func (j *PollingJob) Start(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.isRunning {
		return fmt.Errorf("polling job is already running")
	}

	j.ctx, j.cancel = context.WithCancel(ctx)
	j.isRunning = true

	j.logger.Info("Review polling job started", slog.Duration("interval", j.interval))
	go j.pollLoop()
	return nil
}

// Stop stops the polling loop.
func (j *PollingJob) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.isRunning {
		return
	}

	j.isRunning = false
	if j.cancel != nil {
		j.cancel()
	}
	j.logger.Info("Review polling job stopped")
}

// pollLoop runs the main polling loop.
func (j *PollingJob) pollLoop() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	// Sweep immediately on start
	j.sweep()

	for {
		select {
		case <-j.ctx.Done():
			j.logger.Debug("Poll loop context cancelled")
			return
		case <-ticker.C:
			j.sweep()
		}
	}
}

// sweep runs one ingestion pass. Overlapping ticks are skipped.
func (j *PollingJob) sweep() {
	if !j.sweeping.TryLock() {
		j.logger.Warn("Previous sweep still running, skipping tick")
		return
	}
	defer j.sweeping.Unlock()

	ctx := middleware.ContextWithLogger(j.ctx, j.logger)
	ingested, err := j.ingestSvc.PollReviewRecords(ctx)
	if err != nil {
		j.logger.Error("Review sweep failed", slog.String("error", err.Error()))
		return
	}
	if ingested > 0 {
		j.logger.Info("Review sweep completed", slog.Int("ingested", ingested))
	}
}
