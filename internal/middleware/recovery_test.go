package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRecoverWithSentryPanic(t *testing.T) {
	handler := RecoverWithSentry(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("campaign fetch went sideways")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/accounts/1234567890/campaigns", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestRecoverWithSentryPanicWithError(t *testing.T) {
	handler := RecoverWithSentry(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler.Error())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestRecoverWithSentryNoPanic(t *testing.T) {
	handler := RecoverWithSentry(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("body = %q, want ok", rec.Body.String())
	}
}
