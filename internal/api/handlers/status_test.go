package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHealth(t *testing.T) {
	rr := httptest.NewRecorder()
	Health(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %q", body["status"])
	}
}

func TestStatus(t *testing.T) {
	setupHandlerTest(t)
	c := seededCache(t)

	rr := httptest.NewRecorder()
	Status(c, time.Now().Add(-90*time.Second))(rr, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var body statusResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" {
		t.Errorf("status = %q", body.Status)
	}
	if body.UptimeSeconds < 89 {
		t.Errorf("uptime_seconds = %d, want >= 89", body.UptimeSeconds)
	}
	if body.Accounts != 2 {
		t.Errorf("accounts = %d, want 2", body.Accounts)
	}
	if body.Cache.Items != 4 {
		t.Errorf("cache.items = %d, want 4", body.Cache.Items)
	}
}
