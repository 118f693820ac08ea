package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/apierr"
	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/cache"
	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/logger"
)

// CacheAdminHandler exposes cache administration endpoints. The hub is
// optional; when present, invalidations are pushed to dashboards.
type CacheAdminHandler struct {
	cache cache.Cache
	hub   *Hub
}

// NewCacheAdminHandler creates a new cache admin handler.
func NewCacheAdminHandler(c cache.Cache, hub *Hub) *CacheAdminHandler {
	return &CacheAdminHandler{cache: c, hub: hub}
}

// GetCacheStats returns current cache statistics.
// GET /api/admin/cache/stats
func (h *CacheAdminHandler) GetCacheStats(w http.ResponseWriter, r *http.Request) {
	stats := h.cache.Stats()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"items":             stats.Items,
		"size_bytes":        stats.SizeBytes,
		"oldest_created_at": stats.OldestCreatedAt,
		"newest_created_at": stats.NewestCreatedAt,
		"hits":              stats.Hits,
		"misses":            stats.Misses,
		"evictions":         stats.Evictions,
		"expirations":       stats.Expirations,
		"rejections":        stats.Rejections,
	})
}

// GetCacheKeys returns a snapshot of the current cache keys.
// GET /api/admin/cache/keys
func (h *CacheAdminHandler) GetCacheKeys(w http.ResponseWriter, r *http.Request) {
	keys := h.cache.Keys()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"count": len(keys),
		"keys":  keys,
	})
}

// InvalidateCache clears all entries from the cache.
// POST /api/admin/cache/invalidate
func (h *CacheAdminHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	removed := h.cache.Clear()
	logger.InfoContext(r.Context(), "Cache invalidated by admin", "removed", removed)

	if h.hub != nil {
		h.hub.BroadcastEvent("cache_invalidated", map[string]interface{}{"removed": removed})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"removed": removed,
	})
}

type invalidatePatternRequest struct {
	Pattern string `json:"pattern"`
}

// InvalidatePattern removes entries whose key matches a regular
// expression.
// POST /api/admin/cache/invalidate-pattern
func (h *CacheAdminHandler) InvalidatePattern(w http.ResponseWriter, r *http.Request) {
	var req invalidatePatternRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteErrorWithContext(w, r, apierr.ValidationInvalidJSON())
		return
	}
	if strings.TrimSpace(req.Pattern) == "" {
		apierr.WriteErrorWithContext(w, r, apierr.ValidationMissingField("pattern"))
		return
	}

	removed, err := h.cache.ClearPattern(req.Pattern)
	if err != nil {
		apierr.WriteErrorWithContext(w, r, apierr.CacheInvalidPattern(err.Error()))
		return
	}
	logger.InfoContext(r.Context(), "Cache pattern invalidated by admin",
		"pattern", req.Pattern, "removed", removed)

	if h.hub != nil {
		h.hub.BroadcastEvent("cache_invalidated", map[string]interface{}{
			"pattern": req.Pattern,
			"removed": removed,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"pattern": req.Pattern,
		"removed": removed,
	})
}
