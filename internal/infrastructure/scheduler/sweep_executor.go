package scheduler

import (
	"context"

	"go.uber.org/zap"
)

// AlertSweeper runs alert-producing scans over lots and stock levels
type AlertSweeper interface {
	CheckExpiryAlerts(ctx context.Context) (int, error)
	CheckLowStockLevels(ctx context.Context) (int, error)
}

// LevelReconciler rebuilds derived stock levels from lot truth
type LevelReconciler interface {
	ReconcileAll(ctx context.Context) (int, error)
}

// SweepExecutor executes sweep jobs against the application services
type SweepExecutor struct {
	alerts     AlertSweeper
	reconciler LevelReconciler
	logger     *zap.Logger
}

// NewSweepExecutor creates a new sweep executor
func NewSweepExecutor(alerts AlertSweeper, reconciler LevelReconciler, logger *zap.Logger) *SweepExecutor {
	return &SweepExecutor{
		alerts:     alerts,
		reconciler: reconciler,
		logger:     logger,
	}
}

// Execute runs the sweep named by the job
func (e *SweepExecutor) Execute(ctx context.Context, job *Job) error {
	switch job.SweepType {
	case SweepExpiryAlerts:
		raised, err := e.alerts.CheckExpiryAlerts(ctx)
		if err != nil {
			return err
		}
		e.logger.Info("expiry sweep finished", zap.Int("alerts_raised", raised))
		return nil

	case SweepLowStock:
		raised, err := e.alerts.CheckLowStockLevels(ctx)
		if err != nil {
			return err
		}
		e.logger.Info("low stock sweep finished", zap.Int("alerts_raised", raised))
		return nil

	case SweepReconciliation:
		processed, err := e.reconciler.ReconcileAll(ctx)
		if err != nil {
			return err
		}
		e.logger.Info("reconciliation sweep finished", zap.Int("levels_processed", processed))
		return nil

	default:
		return ErrInvalidSweepType
	}
}

// Ensure SweepExecutor implements JobExecutor
var _ JobExecutor = (*SweepExecutor)(nil)
