package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kritsadas/ledger_export_app/internal/core/domain"
	portssvc "github.com/kritsadas/ledger_export_app/internal/core/ports/services"
	"github.com/kritsadas/ledger_export_app/internal/middleware"
)

const (
	// baseRetryDelay is the delay before the first batch retry; each further
	// retry triples it (5m, 15m, 45m).
	baseRetryDelay = 5 * time.Minute

	// batchRunTimeout bounds a single batch run end to end.
	batchRunTimeout = 10 * time.Minute
)

// BackoffDelay returns the delay before retry number retry (zero-based):
// baseRetryDelay * 3^retry.
func BackoffDelay(retry int) time.Duration {
	d := baseRetryDelay
	for i := 0; i < retry; i++ {
		d *= 3
	}
	return d
}

// DailyExportJob arms a timer for the configured HH:MM export time, runs the
// daily batch when it fires, and retries failed runs with exponential
// backoff. Schedule changes rearm the timer without a restart.
type DailyExportJob struct {
	batchSvc    portssvc.BatchExportSvc
	scheduleSvc portssvc.ScheduleSvc
	notifier    portssvc.Notifier
	logger      *slog.Logger
	location    *time.Location
	maxRetries  int

	now       func() time.Time
	afterFunc func(d time.Duration, fn func()) *time.Timer

	mu         sync.Mutex
	isRunning  bool
	ctx        context.Context
	cancel     context.CancelFunc
	timer      *time.Timer
	retryCount int
}

// NewDailyExportJob creates a new daily export job.
func NewDailyExportJob(
	batchSvc portssvc.BatchExportSvc,
	scheduleSvc portssvc.ScheduleSvc,
	notifier portssvc.Notifier,
	logger *slog.Logger,
	location *time.Location,
	maxRetries int,
) *DailyExportJob {
	if maxRetries < 1 {
		maxRetries = 3
	}
	return &DailyExportJob{
		batchSvc:    batchSvc,
		scheduleSvc: scheduleSvc,
		notifier:    notifier,
		logger:      logger,
		location:    location,
		maxRetries:  maxRetries,
		now:         time.Now,
		afterFunc:   time.AfterFunc,
	}
}

// Start arms the daily timer and subscribes to schedule changes.
func (j *DailyExportJob) Start(ctx context.Context) error {
	j.mu.Lock()
	if j.isRunning {
		j.mu.Unlock()
		return fmt.Errorf("daily export job is already running")
	}
	j.ctx, j.cancel = context.WithCancel(ctx)
	j.isRunning = true
	j.mu.Unlock()

	j.scheduleSvc.Subscribe(func(newValue string) {
		j.logger.Info("Daily export time changed, rearming timer", slog.String("export_time", newValue))
		j.armDaily()
	})

	j.armDaily()
	return nil
}

// Stop cancels the pending timer.
func (j *DailyExportJob) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.isRunning {
		return
	}
	j.isRunning = false
	if j.timer != nil {
		j.timer.Stop()
		j.timer = nil
	}
	if j.cancel != nil {
		j.cancel()
	}
	j.logger.Info("Daily export job stopped")
}

// armDaily arms the timer for the next occurrence of the configured time.
func (j *DailyExportJob) armDaily() {
	exportTime := domain.DefaultDailyExportTime
	if v, err := j.scheduleSvc.GetDailyExportTime(j.ctx); err == nil {
		exportTime = v
	} else {
		j.logger.Error("Failed to read export time, using default", slog.String("error", err.Error()))
	}

	now := j.now().In(j.location)
	next, err := domain.NextDailyRun(now, exportTime, j.location)
	if err != nil {
		j.logger.Error("Stored export time invalid, using default",
			slog.String("export_time", exportTime),
			slog.String("error", err.Error()))
		next, _ = domain.NextDailyRun(now, domain.DefaultDailyExportTime, j.location)
	}

	delay := next.Sub(now)
	j.schedule(delay)
	j.logger.Info("Daily export armed",
		slog.Time("next_run", next),
		slog.Duration("in", delay))
}

// schedule replaces the pending timer with one firing after delay.
func (j *DailyExportJob) schedule(delay time.Duration) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.isRunning {
		return
	}
	if j.timer != nil {
		j.timer.Stop()
	}
	j.timer = j.afterFunc(delay, j.fire)
}

// fire runs one batch and decides what happens next: success and
// already-generated rearm for tomorrow, failure schedules a backoff retry
// until the retry budget runs out.
func (j *DailyExportJob) fire() {
	select {
	case <-j.ctx.Done():
		return
	default:
	}

	ctx, cancel := context.WithTimeout(j.ctx, batchRunTimeout)
	defer cancel()
	ctx = middleware.ContextWithLogger(ctx, j.logger)

	result, err := j.batchSvc.RunDailyBatch(ctx, false)
	if err != nil {
		j.handleFailure(ctx, err)
		return
	}

	j.mu.Lock()
	j.retryCount = 0
	j.mu.Unlock()

	if result.AlreadyGenerated {
		j.logger.Info("Daily batch already generated, skipping")
	} else {
		j.logger.Info("Daily batch run finished", slog.Int("processed", result.Processed))
	}
	j.armDaily()
}

// handleFailure schedules a backoff retry, or alerts and resets once the
// retry budget is exhausted. retryCount counts retries already spent, so the
// full ladder (5m, 15m, 45m with the default budget) runs before the alert.
func (j *DailyExportJob) handleFailure(ctx context.Context, cause error) {
	j.mu.Lock()
	retry := j.retryCount
	exhausted := retry >= j.maxRetries
	if exhausted {
		j.retryCount = 0
	} else {
		j.retryCount++
	}
	j.mu.Unlock()

	if exhausted {
		j.logger.Error("Daily batch failed, retry budget exhausted",
			slog.Int("max_retries", j.maxRetries),
			slog.String("error", cause.Error()))
		if j.notifier != nil {
			j.notifier.Critical(ctx, "Daily export failed",
				fmt.Sprintf("Batch failed %d times, giving up until tomorrow: %s", j.maxRetries, cause.Error()))
		}
		j.armDaily()
		return
	}

	delay := BackoffDelay(retry)
	j.logger.Warn("Daily batch failed, retrying",
		slog.Int("retry", retry+1),
		slog.Duration("in", delay),
		slog.String("error", cause.Error()))
	j.schedule(delay)
}
