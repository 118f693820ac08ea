package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/apierr"
	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/cache"
)

func seededCache(t *testing.T) *cache.MockCache {
	t.Helper()
	c := cache.NewMockCache()
	for _, key := range []string{
		"campaigns:5756290882:last_7_days",
		"campaigns:9876543210:last_7_days",
		"summary:5756290882:last_7_days",
		"accounts",
	} {
		if !c.Set(key, map[string]string{"k": key}, time.Minute) {
			t.Fatalf("seed %q failed", key)
		}
	}
	return c
}

func TestGetCacheStats(t *testing.T) {
	h := NewCacheAdminHandler(seededCache(t), nil)

	rr := httptest.NewRecorder()
	h.GetCacheStats(rr, httptest.NewRequest(http.MethodGet, "/api/admin/cache/stats", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := body["items"].(float64); got != 4 {
		t.Errorf("items = %v, want 4", got)
	}
	for _, field := range []string{"size_bytes", "hits", "misses", "evictions", "expirations", "rejections"} {
		if _, ok := body[field]; !ok {
			t.Errorf("stats payload missing %q", field)
		}
	}
}

func TestGetCacheKeys(t *testing.T) {
	h := NewCacheAdminHandler(seededCache(t), nil)

	rr := httptest.NewRecorder()
	h.GetCacheKeys(rr, httptest.NewRequest(http.MethodGet, "/api/admin/cache/keys", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var body struct {
		Count int      `json:"count"`
		Keys  []string `json:"keys"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 4 || len(body.Keys) != 4 {
		t.Errorf("count = %d, keys = %v", body.Count, body.Keys)
	}
}

func TestInvalidateCache(t *testing.T) {
	c := seededCache(t)
	h := NewCacheAdminHandler(c, nil)

	rr := httptest.NewRecorder()
	h.InvalidateCache(rr, httptest.NewRequest(http.MethodPost, "/api/admin/cache/invalidate", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var body struct {
		Status  string `json:"status"`
		Removed int    `json:"removed"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" || body.Removed != 4 {
		t.Errorf("body = %+v", body)
	}
	if got := len(c.Keys()); got != 0 {
		t.Errorf("%d keys survived the clear", got)
	}
}

func TestInvalidatePattern(t *testing.T) {
	t.Run("clears matching keys", func(t *testing.T) {
		c := seededCache(t)
		h := NewCacheAdminHandler(c, nil)

		payload := strings.NewReader(`{"pattern": "^(campaigns|summary):5756290882:"}`)
		rr := httptest.NewRecorder()
		h.InvalidatePattern(rr, httptest.NewRequest(http.MethodPost, "/api/admin/cache/invalidate-pattern", payload))

		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
		}
		var body struct {
			Removed int `json:"removed"`
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Removed != 2 {
			t.Errorf("removed = %d, want 2", body.Removed)
		}
		if !c.Has("campaigns:9876543210:last_7_days") || !c.Has("accounts") {
			t.Error("non-matching keys were removed")
		}
	})

	t.Run("invalid JSON body", func(t *testing.T) {
		h := NewCacheAdminHandler(cache.NewMockCache(), nil)

		rr := httptest.NewRecorder()
		h.InvalidatePattern(rr, httptest.NewRequest(http.MethodPost, "/api/admin/cache/invalidate-pattern", strings.NewReader("{not json")))

		if rr.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rr.Code)
		}
		if apiErr := decodeError(t, rr); apiErr.Code != apierr.ErrValidationInvalidJSON {
			t.Errorf("code = %s", apiErr.Code)
		}
	})

	t.Run("missing pattern", func(t *testing.T) {
		h := NewCacheAdminHandler(cache.NewMockCache(), nil)

		rr := httptest.NewRecorder()
		h.InvalidatePattern(rr, httptest.NewRequest(http.MethodPost, "/api/admin/cache/invalidate-pattern", strings.NewReader(`{"pattern": "  "}`)))

		if rr.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rr.Code)
		}
		if apiErr := decodeError(t, rr); apiErr.Code != apierr.ErrValidationMissingField {
			t.Errorf("code = %s", apiErr.Code)
		}
	})

	t.Run("invalid regex", func(t *testing.T) {
		h := NewCacheAdminHandler(cache.NewMockCache(), nil)

		rr := httptest.NewRecorder()
		h.InvalidatePattern(rr, httptest.NewRequest(http.MethodPost, "/api/admin/cache/invalidate-pattern", strings.NewReader(`{"pattern": "[unclosed"}`)))

		if rr.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rr.Code)
		}
		if apiErr := decodeError(t, rr); apiErr.Code != apierr.ErrCacheInvalidPattern {
			t.Errorf("code = %s", apiErr.Code)
		}
	})
}
