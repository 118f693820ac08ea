package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/cache"
	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/config"
)

type statusResponse struct {
	Status        string      `json:"status"`
	UptimeSeconds int64       `json:"uptime_seconds"`
	Accounts      int         `json:"accounts"`
	Cache         cacheStatus `json:"cache"`
}

type cacheStatus struct {
	Items       int    `json:"items"`
	SizeBytes   int64  `json:"size_bytes"`
	Hits        uint64 `json:"hits"`
	Misses      uint64 `json:"misses"`
	Evictions   uint64 `json:"evictions"`
	Expirations uint64 `json:"expirations"`
	Rejections  uint64 `json:"rejections"`
}

// Status reports uptime and a cache stats snapshot.
// GET /api/status
func Status(c cache.Cache, start time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := c.Stats()
		resp := statusResponse{
			Status:        "ok",
			UptimeSeconds: int64(time.Since(start).Seconds()),
			Accounts:      len(config.Load().Accounts),
			Cache: cacheStatus{
				Items:       stats.Items,
				SizeBytes:   stats.SizeBytes,
				Hits:        stats.Hits,
				Misses:      stats.Misses,
				Evictions:   stats.Evictions,
				Expirations: stats.Expirations,
				Rejections:  stats.Rejections,
			},
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
