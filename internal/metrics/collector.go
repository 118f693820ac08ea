package metrics

import (
	"context"
	"time"

	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/cache"
)

// Collector periodically publishes cache statistics to Prometheus gauges.
// The store keeps its own counters; this just exposes them on a timer so
// scrapes see fresh values without the cache knowing about Prometheus.
type Collector struct {
	cache    cache.Cache
	interval time.Duration
	stop     chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(c cache.Cache, interval time.Duration) *Collector {
	return &Collector{
		cache:    c,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	// Collect initial metrics
	c.collect()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop stops the metrics collector
func (c *Collector) Stop() {
	close(c.stop)
}

func (c *Collector) collect() {
	stats := c.cache.Stats()
	CacheSizeBytes.Set(float64(stats.SizeBytes))
	CacheItems.Set(float64(stats.Items))
	CacheEvictions.Set(float64(stats.Evictions))
	CacheExpirations.Set(float64(stats.Expirations))
	CacheRejections.Set(float64(stats.Rejections))
}
