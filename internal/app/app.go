package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"kbdedup/internal/cache/redis"
	"kbdedup/internal/config"
	"kbdedup/internal/dbs/postgres"
	"kbdedup/internal/metrics"
	cachedocsrepo "kbdedup/internal/repositories/cache/docs"
	documentrepo "kbdedup/internal/repositories/db/document"
	memorydocumentrepo "kbdedup/internal/repositories/memory/document"
	"kbdedup/internal/services/access"
	"kbdedup/internal/services/fingerprint"
	uploadservice "kbdedup/internal/services/upload"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type App struct {
	DocumentService *uploadservice.Service
	Registry        *prometheus.Registry

	closers []io.Closer
}

func NewApp(ctx context.Context, log *slog.Logger, cfg *config.Config) (*App, error) {
	app := &App{Registry: prometheus.NewRegistry()}

	app.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	store, err := app.newStore(ctx, log, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}

	cache, err := app.newCache(ctx, log, cfg.Cache)
	if err != nil {
		app.Close()
		return nil, err
	}

	hasher, err := fingerprint.New(cfg.Fingerprint.Algorithm)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to init fingerprint: %w", err)
	}

	m, err := metrics.New(app.Registry)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	app.DocumentService = uploadservice.New(
		log,
		store,
		hasher,
		access.NewQuotaEnforcer(cfg.Quota.MaxPrivateFilesPerUser),
		cache,
		m,
		uploadservice.Options{
			MaxAttempts: cfg.Upload.MaxAttempts,
			RetryDelay:  cfg.Upload.RetryDelay,
		},
	)

	return app, nil
}

func (a *App) newStore(ctx context.Context, log *slog.Logger, cfg *config.Config) (uploadservice.DocumentStore, error) {
	if cfg.Storage.Driver == config.StorageDriverMemory {
		log.Warn("using in-memory document store, state is lost on restart")
		return memorydocumentrepo.New(cfg.Upload.LockTimeout), nil
	}

	db, err := postgres.New(ctx, postgres.Config{
		Addr:            cfg.DB.Addr,
		Port:            cfg.DB.Port,
		User:            cfg.DB.User,
		Password:        cfg.DB.Password,
		DB:              cfg.DB.DB,
		SSLMode:         cfg.DB.SSLMode,
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	})
	if err != nil {
		log.Error("failed connect to db", "err", err)
		return nil, fmt.Errorf("failed connect to db: %w", err)
	}
	a.closers = append(a.closers, db)

	return documentrepo.NewRepository(db, cfg.Upload.LockTimeout), nil
}

// newCache returns a nil interface when caching is disabled.
func (a *App) newCache(ctx context.Context, log *slog.Logger, cfg config.Cache) (uploadservice.Cache, error) {
	if !cfg.Enabled {
		log.Info("document list cache disabled")
		return nil, nil
	}

	client, err := redis.New(ctx, redis.Config{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	if err != nil {
		log.Error("failed connect to cache", "err", err)
		return nil, fmt.Errorf("failed connect to cache: %w", err)
	}
	a.closers = append(a.closers, client)

	return cachedocsrepo.New(client, cfg.DocumentsTTL), nil
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i].Close()
	}
	a.closers = nil
}
