package middleware

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"net/http"
	"time"
)

const (
	// Report payloads change at most once per cache TTL; let browsers
	// revalidate cheaply in between.
	etagCacheTTL             = 60 * time.Second
	etagStaleWhileRevalidate = 300 * time.Second
)

// etagResponseWriter buffers the response body to hash it.
type etagResponseWriter struct {
	http.ResponseWriter
	buf    *bytes.Buffer
	status int
}

func (w *etagResponseWriter) WriteHeader(status int) {
	w.status = status
}

func (w *etagResponseWriter) Write(b []byte) (int, error) {
	return w.buf.Write(b)
}

// ETag hashes the response body into an ETag and answers 304 when the
// client's If-None-Match matches.
func ETag(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := &bytes.Buffer{}
		etw := &etagResponseWriter{
			ResponseWriter: w,
			buf:            buf,
			status:         http.StatusOK,
		}

		next.ServeHTTP(etw, r)

		hash := sha256.Sum256(buf.Bytes())
		etag := fmt.Sprintf(`"%x"`, hash[:16])

		w.Header().Set("ETag", etag)
		w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d, stale-while-revalidate=%d",
			int(etagCacheTTL.Seconds()), int(etagStaleWhileRevalidate.Seconds())))

		if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		w.WriteHeader(etw.status)
		w.Write(buf.Bytes())
	})
}
