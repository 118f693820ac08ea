package adsapi

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/config"
	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/metrics"
)

var (
	limiter     *rate.Limiter
	limiterOnce sync.Once
)

func initLimiter() {
	cfg := config.Load()
	limiter = rate.NewLimiter(rate.Limit(cfg.AdsRPS), cfg.AdsBurstSize)
}

func getLimiter() *rate.Limiter {
	limiterOnce.Do(initLimiter)
	return limiter
}

// waitForRateLimit blocks until the upstream pacing allows a request.
func waitForRateLimit(ctx context.Context) error {
	if err := getLimiter().Wait(ctx); err != nil {
		return err
	}
	metrics.UpstreamRateLimitWaits.Inc()
	return nil
}

// ResetLimiterForTest resets the limiter singleton; for tests only.
func ResetLimiterForTest() {
	limiterOnce = sync.Once{}
	limiter = nil
}
