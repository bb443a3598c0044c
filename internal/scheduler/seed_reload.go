package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/MrSnakeDoc/appdir/internal/domain"
	"github.com/MrSnakeDoc/appdir/internal/logger"
	"github.com/MrSnakeDoc/appdir/internal/repository"
	"github.com/MrSnakeDoc/appdir/internal/sources/seed"
)

// SeedReloader imports the seed catalog file through the repository at
// startup, on every interval and on manual trigger. Apps already present
// (same directUrl) are left untouched, so edits made through the API win.
type SeedReloader struct {
	loader        *seed.Loader
	mapper        *seed.Mapper
	repo          *repository.Repository
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}
	lastReload    atomic.Int64
}

// NewSeedReloader creates a new seed reloader. interval 0 disables the
// periodic reload; manualTrigger may be nil.
func NewSeedReloader(
	seedFile string,
	repo *repository.Repository,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *SeedReloader {
	return &SeedReloader{
		loader:        seed.NewLoader(seedFile),
		mapper:        seed.NewMapper(),
		repo:          repo,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start loads once, then keeps reloading in the background.
func (sr *SeedReloader) Start(ctx context.Context) error {
	if _, err := sr.Reload(ctx); err != nil {
		return fmt.Errorf("initial seed import failed: %w", err)
	}

	go func() {
		var tick <-chan time.Time
		if sr.interval > 0 {
			ticker := time.NewTicker(sr.interval)
			defer ticker.Stop()
			tick = ticker.C
		}

		for {
			select {
			case <-tick:
				if _, err := sr.Reload(ctx); err != nil {
					sr.logger.Error("failed to reload seed catalog", logger.Error(err))
				}
			case <-sr.manualTrigger:
				sr.logger.Info("manual seed reload triggered")
				if _, err := sr.Reload(ctx); err != nil {
					sr.logger.Error("failed to reload seed catalog", logger.Error(err))
				}
			case <-sr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the reloader.
func (sr *SeedReloader) Stop() {
	close(sr.stopCh)
}

// LastReload returns the time of the last successful import, zero if none.
func (sr *SeedReloader) LastReload() time.Time {
	ms := sr.lastReload.Load()
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// Reload parses the seed file and imports the apps it lists.
func (sr *SeedReloader) Reload(ctx context.Context) (repository.BatchResult, error) {
	sr.logger.Info("reloading seed catalog")

	config, err := sr.loader.Load()
	if err != nil {
		return repository.BatchResult{}, fmt.Errorf("failed to load seed catalog: %w", err)
	}
	apps, err := sr.mapper.MapApps(config)
	if err != nil {
		return repository.BatchResult{}, fmt.Errorf("failed to map seed catalog: %w", err)
	}

	res, err := sr.repo.Import(ctx, apps)
	if err != nil {
		var de *domain.Error
		if errors.As(err, &de) && de.Kind == domain.KindValidation {
			sr.logger.Warn("seed catalog rejected", logger.Any("details", de.Details))
		}
		return res, fmt.Errorf("failed to import seed catalog: %w", err)
	}

	sr.lastReload.Store(time.Now().UnixMilli())
	sr.logger.Info("seed catalog imported",
		logger.Int("found", len(apps)),
		logger.Int("added", len(res.Added)),
		logger.Int("already_present", len(res.Skipped)))
	return res, nil
}
