package scheduler

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/appdir/internal/logger"
	"github.com/MrSnakeDoc/appdir/internal/repository"
)

// Reconciler periodically compares the derived keys (indexes, stats) with
// the canonical app list and rebuilds them when they drifted, for example
// after a failed write or two concurrent writers.
type Reconciler struct {
	repo     *repository.Repository
	logger   logger.Logger
	interval time.Duration
	stopCh   chan struct{}
}

func NewReconciler(repo *repository.Repository, log logger.Logger, interval time.Duration) *Reconciler {
	return &Reconciler{
		repo:     repo,
		logger:   log,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start runs a first pass immediately, then one per interval.
func (rc *Reconciler) Start(ctx context.Context) error {
	if _, err := rc.Reconcile(ctx); err != nil {
		rc.logger.Warn("initial reconcile failed", logger.Error(err))
	}

	ticker := time.NewTicker(rc.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := rc.Reconcile(ctx); err != nil {
					rc.logger.Error("reconcile failed", logger.Error(err))
				}
			case <-rc.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the reconciler.
func (rc *Reconciler) Stop() {
	close(rc.stopCh)
}

// Reconcile rebuilds the derived keys only when Verify reports drift.
func (rc *Reconciler) Reconcile(ctx context.Context) (repository.Drift, error) {
	drift, err := rc.repo.Verify(ctx)
	if err == nil && drift.Clean() {
		rc.logger.Debug("derived keys consistent", logger.Int("apps", drift.Apps))
		return drift, nil
	}
	if err != nil {
		rc.logger.Warn("verify failed, rebuilding anyway", logger.Error(err))
	}
	return rc.repo.Rebuild(ctx)
}
