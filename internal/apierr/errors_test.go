package apierr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/logger"
)

func TestErrorInterface(t *testing.T) {
	err := New(ErrSystemInternal, "something broke", http.StatusInternalServerError)

	if err.Error() != "SYSTEM_INTERNAL: something broke" {
		t.Errorf("Unexpected error string: %s", err.Error())
	}
	if err.Status() != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", err.Status())
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, AdsInvalidCustomer("1234567890"))

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected JSON content type, got %s", ct)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Response is not valid JSON: %v", err)
	}
	if resp.Error.Code != ErrAdsInvalidCustomer {
		t.Errorf("Expected ADS_INVALID_CUSTOMER, got %s", resp.Error.Code)
	}
	if resp.Error.Details["customer_id"] != "1234567890" {
		t.Errorf("Expected customer_id detail, got %v", resp.Error.Details)
	}
}

func TestWriteErrorWithContext(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/accounts", nil)
	ctx := context.WithValue(req.Context(), logger.RequestIDKey, "req-abc")
	req = req.WithContext(ctx)

	rec := httptest.NewRecorder()
	WriteErrorWithContext(rec, req, RateLimitIP())

	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Response is not valid JSON: %v", err)
	}
	if resp.Error.RequestID != "req-abc" {
		t.Errorf("Expected request id propagated, got %q", resp.Error.RequestID)
	}
}

func TestHelperStatuses(t *testing.T) {
	tests := []struct {
		name   string
		err    *Error
		status int
	}{
		{"auth missing", AuthMissing(""), http.StatusUnauthorized},
		{"auth forbidden", AuthForbidden(""), http.StatusForbidden},
		{"ads unavailable", AdsUnavailable(""), http.StatusBadGateway},
		{"ads rate limited", AdsRateLimited(), http.StatusServiceUnavailable},
		{"invalid pattern", CacheInvalidPattern(""), http.StatusBadRequest},
		{"validation value", ValidationInvalidValue("range", "bad range"), http.StatusBadRequest},
		{"not found", ResourceNotFound("account"), http.StatusNotFound},
		{"rate limit global", RateLimitGlobal(), http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Status() != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, tt.err.Status())
			}
		})
	}
}
