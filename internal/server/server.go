package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/adsapi"
	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/api"
	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/api/handlers"
	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/cache"
	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/config"
	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/logger"
	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/metrics"
	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/report"
	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/scheduler"
	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/secrets"
)

const statsScrapeInterval = 15 * time.Second

// Server wires the cache, the ads client, the report service and the
// HTTP surface together.
type Server struct {
	cfg       *config.Config
	store     *cache.Store
	hub       *handlers.Hub
	collector *metrics.Collector
	http      *http.Server
}

// newBackend picks the persistence medium. DATABASE_URL selects
// Postgres; otherwise the cache lives in memory only.
func newBackend(cfg *config.Config) (cache.Backend, error) {
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		backend, err := cache.NewPostgresBackend(dbURL, cfg.CacheBackendQuotaBytes)
		if err != nil {
			return nil, fmt.Errorf("postgres cache backend: %w", err)
		}
		logger.Info("Cache persistence enabled", "backend", "postgres", "dsn", secrets.MaskURL(dbURL))
		return backend, nil
	}
	if cfg.CacheBackendQuotaBytes > 0 {
		return cache.NewMemoryBackendWithQuota(cfg.CacheBackendQuotaBytes), nil
	}
	return cache.NewMemoryBackend(), nil
}

// New builds a fully wired server from the environment.
func New() (*Server, error) {
	cfg := config.Load()

	backend, err := newBackend(cfg)
	if err != nil {
		return nil, err
	}

	var sweepInterval time.Duration
	if cfg.CacheSweepSchedule != "" {
		sweepInterval, err = scheduler.Interval(cfg.CacheSweepSchedule)
		if err != nil {
			return nil, fmt.Errorf("invalid CACHE_SWEEP_SCHEDULE %q: %w", cfg.CacheSweepSchedule, err)
		}
	}

	store, err := cache.New(backend, cache.Options{
		HardCapacityBytes:          cfg.CacheHardCapacityBytes,
		MaxEntryBytes:              cfg.CacheMaxEntryBytes,
		DefaultTTL:                 cfg.CacheDefaultTTL,
		CleanupTargetFillRatio:     cfg.CacheFillRatio,
		AggressiveEvictionFraction: cfg.CacheAggressiveFraction,
		KeyPrefix:                  cfg.CacheKeyPrefix,
		SweepInterval:              sweepInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("cache init: %w", err)
	}

	hub := handlers.NewHub(store)
	reports := report.NewService(adsapi.NewClient(), store, cfg.CacheDefaultTTL)

	router := api.NewRouter(api.Deps{
		Cache:     store,
		Reports:   reports,
		Hub:       hub,
		StartTime: time.Now(),
	})

	return &Server{
		cfg:       cfg,
		store:     store,
		hub:       hub,
		collector: metrics.NewCollector(store, statsScrapeInterval),
		http: &http.Server{
			Addr:         ":" + cfg.Port,
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}, nil
}

// Start runs the background loops and serves HTTP until the listener
// fails or Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	go s.store.StartSweeper(ctx)
	go s.collector.Start(ctx)
	go s.hub.Run(ctx)

	logger.Info("Server listening", "addr", s.http.Addr, "accounts", len(s.cfg.Accounts))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the background loops.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.http.Shutdown(ctx)

	s.hub.Stop()
	s.collector.Stop()
	if cerr := s.store.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
