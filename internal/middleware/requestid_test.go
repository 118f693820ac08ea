package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/logger"
)

func TestRequestIDGeneratesWhenMissing(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := r.Context().Value(logger.RequestIDKey).(string); ok {
			seen = id
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen == "" {
		t.Fatal("expected a request ID in the context")
	}
	if got := rec.Header().Get(RequestIDHeader); got != seen {
		t.Errorf("response header = %q, want %q", got, seen)
	}
	if len(seen) != 32 {
		t.Errorf("generated ID length = %d, want 32 hex chars", len(seen))
	}
}

func TestRequestIDHonorsClientSupplied(t *testing.T) {
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	req.Header.Set(RequestIDHeader, "client-supplied-id")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get(RequestIDHeader); got != "client-supplied-id" {
		t.Errorf("response header = %q, want client-supplied-id", got)
	}
}

func TestRequestIDUnique(t *testing.T) {
	a := generateRequestID()
	b := generateRequestID()
	if a == b {
		t.Error("consecutive request IDs should differ")
	}
}
