package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/andybalholm/brotli"
)

const testPayload = `{"campaigns":[{"id":"123","name":"NL - Brand","impressions":10430,"clicks":212}]}`

func compressedHandler() http.Handler {
	return Compress(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(testPayload))
	}))
}

func TestCompressBrotli(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	req.Header.Set("Accept-Encoding", "br, gzip")
	rec := httptest.NewRecorder()
	compressedHandler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Content-Encoding"); got != "br" {
		t.Fatalf("Content-Encoding = %q, want br", got)
	}

	body, err := io.ReadAll(brotli.NewReader(rec.Body))
	if err != nil {
		t.Fatalf("brotli decode: %v", err)
	}
	if string(body) != testPayload {
		t.Errorf("decoded body = %q, want original payload", body)
	}
}

func TestCompressGzip(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	compressedHandler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Content-Encoding"); got != "gzip" {
		t.Fatalf("Content-Encoding = %q, want gzip", got)
	}

	gz, err := gzip.NewReader(rec.Body)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	defer gz.Close()
	body, err := io.ReadAll(gz)
	if err != nil {
		t.Fatalf("gzip decode: %v", err)
	}
	if string(body) != testPayload {
		t.Errorf("decoded body = %q, want original payload", body)
	}
}

func TestCompressIdentity(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	rec := httptest.NewRecorder()
	compressedHandler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Content-Encoding"); got != "" {
		t.Errorf("Content-Encoding = %q, want empty", got)
	}
	if !bytes.Equal(rec.Body.Bytes(), []byte(testPayload)) {
		t.Errorf("body = %q, want uncompressed payload", rec.Body.String())
	}
}

func TestCompressVaryHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	req.Header.Set("Accept-Encoding", "br")
	rec := httptest.NewRecorder()
	compressedHandler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Vary"); got != "Accept-Encoding" {
		t.Errorf("Vary = %q, want Accept-Encoding", got)
	}
}
