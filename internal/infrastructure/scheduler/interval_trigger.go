package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// IntervalTriggerConfig holds per-sweep trigger intervals
type IntervalTriggerConfig struct {
	ExpirySweepEvery time.Duration
	LowStockEvery    time.Duration
	ReconcileEvery   time.Duration
}

// DefaultIntervalTriggerConfig returns default trigger intervals
func DefaultIntervalTriggerConfig() IntervalTriggerConfig {
	return IntervalTriggerConfig{
		ExpirySweepEvery: time.Hour,
		LowStockEvery:    15 * time.Minute,
		ReconcileEvery:   24 * time.Hour,
	}
}

// IntervalTrigger submits sweep jobs to the scheduler on fixed intervals
type IntervalTrigger struct {
	config    IntervalTriggerConfig
	scheduler *Scheduler
	logger    *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewIntervalTrigger creates a new interval trigger
func NewIntervalTrigger(config IntervalTriggerConfig, scheduler *Scheduler, logger *zap.Logger) *IntervalTrigger {
	return &IntervalTrigger{
		config:    config,
		scheduler: scheduler,
		logger:    logger,
	}
}

// Start starts the trigger loops. Each sweep runs once at startup and
// then on its configured interval.
func (t *IntervalTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = true
	t.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.startLoop(ctx, SweepExpiryAlerts, t.config.ExpirySweepEvery)
	t.startLoop(ctx, SweepLowStock, t.config.LowStockEvery)
	t.startLoop(ctx, SweepReconciliation, t.config.ReconcileEvery)

	t.logger.Info("sweep trigger started",
		zap.Duration("expiry_every", t.config.ExpirySweepEvery),
		zap.Duration("low_stock_every", t.config.LowStockEvery),
		zap.Duration("reconcile_every", t.config.ReconcileEvery),
	)

	return nil
}

// Stop stops the trigger loops
func (t *IntervalTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("sweep trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *IntervalTrigger) startLoop(ctx context.Context, sweepType SweepType, interval time.Duration) {
	if interval <= 0 {
		t.logger.Warn("sweep disabled by non-positive interval",
			zap.String("sweep_type", string(sweepType)),
		)
		return
	}

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()

		t.submit(sweepType)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				t.submit(sweepType)
			}
		}
	}()
}

func (t *IntervalTrigger) submit(sweepType SweepType) {
	if err := t.scheduler.ScheduleSweep(sweepType); err != nil {
		t.logger.Error("failed to schedule sweep",
			zap.String("sweep_type", string(sweepType)),
			zap.Error(err),
		)
	}
}
