package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrSnakeDoc/appdir/internal/config"
	"github.com/MrSnakeDoc/appdir/internal/httpserver"
	"github.com/MrSnakeDoc/appdir/internal/httpserver/deps"
	"github.com/MrSnakeDoc/appdir/internal/kv"
	"github.com/MrSnakeDoc/appdir/internal/logger"
	"github.com/MrSnakeDoc/appdir/internal/metrics"
	"github.com/MrSnakeDoc/appdir/internal/redis"
	"github.com/MrSnakeDoc/appdir/internal/repository"
	"github.com/MrSnakeDoc/appdir/internal/scheduler"
	redisstore "github.com/MrSnakeDoc/appdir/internal/store/redis"
	"github.com/MrSnakeDoc/appdir/internal/store/sqlite"
	"github.com/MrSnakeDoc/appdir/internal/utils"
	"github.com/MrSnakeDoc/appdir/internal/version"
)

type App struct {
	cfg        *config.Config
	logger     logger.Logger
	server     *httpserver.Server
	backend    io.Closer // nil for the memory backend
	reloader   *scheduler.SeedReloader
	reconciler *scheduler.Reconciler
}

func New() (*App, error) {
	cfg := config.Load()

	loggerClient := logger.New("appdir", cfg.LogLevel, cfg.PrettyLog)
	m := metrics.New()

	// Open the KV backend early - fail fast if unavailable
	store, closer, err := openStore(cfg, loggerClient)
	if err != nil {
		return nil, err
	}
	loggerClient.Info("kv backend ready", logger.String("backend", cfg.KVBackend))
	if len(cfg.AdminCIDRS) > 0 {
		loggerClient.Info("mutating routes restricted", logger.Strings("admin_cidrs", cfg.AdminCIDRS))
	}

	repo := repository.New(kv.Wrap(store, m.KVHooks()),
		repository.WithLogger(loggerClient),
		repository.WithRecorder(m),
		repository.WithPrefix(cfg.KVPrefix),
	)

	d := deps.Deps{
		Logger:       loggerClient,
		StartTime:    time.Now(),
		Version:      version.Version,
		Commit:       version.Commit,
		BuildDate:    version.BuildDate,
		GoVersion:    version.GoVersion,
		TimeNow:      time.Now,
		AllowedHosts: cfg.AllowedHosts,
		AdminCIDRS:   cfg.AdminCIDRS,
		TrustProxy:   cfg.TrustProxy,
		RateBurst:    cfg.RateBurst,
		RatePerMin:   cfg.RatePerMin,
		Backend:      cfg.KVBackend,
		Repo:         repo,
		Metrics:      m,
	}

	// Seed reloader (if a seed file is configured)
	var reloader *scheduler.SeedReloader
	if cfg.SeedFile != "" {
		loggerClient.Info("seed file configured, initializing seed reloader",
			logger.String("file", cfg.SeedFile))
		reloadTrigger := make(chan struct{}, 1)
		reloader = scheduler.NewSeedReloader(cfg.SeedFile, repo, loggerClient, cfg.ReloadInterval, reloadTrigger)
		d.SeedFile = cfg.SeedFile
		d.LastReload = reloader.LastReload
		d.ReloadTrigger = reloadTrigger
	} else {
		loggerClient.Info("seed file not configured, catalog is managed through the API only")
	}

	var reconciler *scheduler.Reconciler
	if cfg.ReindexInterval > 0 {
		reconciler = scheduler.NewReconciler(repo, loggerClient, cfg.ReindexInterval)
	}

	return &App{
		cfg:        cfg,
		logger:     loggerClient,
		server:     httpserver.New(cfg, loggerClient, d),
		backend:    closer,
		reloader:   reloader,
		reconciler: reconciler,
	}, nil
}

// openStore returns the configured KV store and the resource to close on
// shutdown.
func openStore(cfg *config.Config, log logger.Logger) (kv.Store, io.Closer, error) {
	switch cfg.KVBackend {
	case config.BackendRedis:
		client, err := redis.Connect(context.Background(), redis.OptionsFromConfig(cfg), log)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return redisstore.NewStore(client), client, nil
	case config.BackendSQLite:
		s, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return s, s, nil
	default:
		log.Warn("memory backend selected, the catalog is lost on restart")
		return kv.NewMemory(), nil, nil
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting appdir %s on %s", version.String(), a.cfg.ListenPort)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.reloader != nil {
		if err := a.reloader.Start(ctx); err != nil {
			return fmt.Errorf("failed to start seed reloader: %w", err)
		}
		a.logger.Info("seed reloader started",
			logger.Duration("interval", a.cfg.ReloadInterval))
	}

	if a.reconciler != nil {
		if err := a.reconciler.Start(ctx); err != nil {
			return fmt.Errorf("failed to start reconciler: %w", err)
		}
		a.logger.Info("index reconciler started",
			logger.Duration("interval", a.cfg.ReindexInterval))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	if a.reloader != nil {
		a.reloader.Stop()
	}
	if a.reconciler != nil {
		a.reconciler.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.backend != nil {
		utils.MustClose(a.backend, a.cfg.KVBackend, a.logger)
	}

	a.logger.Info("✅ appdir stopped cleanly")
	_ = a.logger.Sync()
	return nil
}
