package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/adsapi"
	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/cache"
	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/config"
	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/logger"
	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/metrics"
	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/report"
)

// warmRanges are the windows dashboards open with; warming them keeps
// first paint off the ads API.
var warmRanges = []adsapi.DateRange{adsapi.RangeLast7Days, adsapi.RangeLast30Days}

func warm(ctx context.Context, svc *report.Service, accounts []config.Account) (ok, failed int) {
	if _, _, err := svc.Accounts(ctx); err != nil {
		logger.Warn("Warm accounts failed", "error", err)
		metrics.WarmFetches.WithLabelValues("failed").Inc()
		failed++
	} else {
		metrics.WarmFetches.WithLabelValues("success").Inc()
		ok++
	}

	for _, account := range accounts {
		for _, rng := range warmRanges {
			if _, _, err := svc.CampaignPerformance(ctx, account.CustomerID, rng); err != nil {
				logger.Warn("Warm campaigns failed",
					"customer_id", account.CustomerID, "range", string(rng), "error", err)
				metrics.WarmFetches.WithLabelValues("failed").Inc()
				failed++
				continue
			}
			metrics.WarmFetches.WithLabelValues("success").Inc()
			ok++

			// Summary derives from the same rows, so this is served
			// from the cache when the fetch above succeeded.
			if _, _, err := svc.Summary(ctx, account.CustomerID, rng); err != nil {
				logger.Warn("Warm summary failed",
					"customer_id", account.CustomerID, "range", string(rng), "error", err)
				metrics.WarmFetches.WithLabelValues("failed").Inc()
				failed++
				continue
			}
			metrics.WarmFetches.WithLabelValues("success").Inc()
			ok++
		}
	}
	return ok, failed
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found (falling back to system env)")
	}

	cfg := config.Load()
	logger.Init(cfg.LogLevel)

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable not set; warming an in-memory cache is pointless")
	}

	if err := adsapi.ValidateCredentials(); err != nil {
		log.Fatalf("Google Ads credentials incomplete: %v", err)
	}

	backend, err := cache.NewPostgresBackend(dbURL, cfg.CacheBackendQuotaBytes)
	if err != nil {
		log.Fatalf("Failed to open cache backend: %v", err)
	}

	store, err := cache.New(backend, cache.Options{
		HardCapacityBytes:          cfg.CacheHardCapacityBytes,
		MaxEntryBytes:              cfg.CacheMaxEntryBytes,
		DefaultTTL:                 cfg.CacheDefaultTTL,
		CleanupTargetFillRatio:     cfg.CacheFillRatio,
		AggressiveEvictionFraction: cfg.CacheAggressiveFraction,
		KeyPrefix:                  cfg.CacheKeyPrefix,
	})
	if err != nil {
		log.Fatalf("Failed to initialize cache: %v", err)
	}
	defer store.Close()

	svc := report.NewService(adsapi.NewClient(), store, cfg.CacheDefaultTTL)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	ok, failed := warm(ctx, svc, cfg.Accounts)
	if failed > 0 {
		log.Fatalf("Cache warm finished with failures: %d ok, %d failed", ok, failed)
	}
	log.Printf("Cache warmed successfully: %d entries prefetched", ok)
}
