package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
)

// compressWriter wraps http.ResponseWriter so writes flow through the
// negotiated encoder.
type compressWriter struct {
	io.Writer
	http.ResponseWriter
	wroteHeader bool
}

func (w *compressWriter) WriteHeader(status int) {
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *compressWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.Writer.Write(b)
}

var (
	gzPool = sync.Pool{
		New: func() interface{} {
			return gzip.NewWriter(io.Discard)
		},
	}
	brPool = sync.Pool{
		New: func() interface{} {
			return brotli.NewWriterLevel(io.Discard, brotli.DefaultCompression)
		},
	}
)

// Compress negotiates response compression from Accept-Encoding,
// preferring brotli over gzip.
func Compress(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accept := r.Header.Get("Accept-Encoding")

		switch {
		case strings.Contains(accept, "br"):
			bw := brPool.Get().(*brotli.Writer)
			defer brPool.Put(bw)
			bw.Reset(w)
			defer bw.Close()

			w.Header().Set("Content-Encoding", "br")
			w.Header().Add("Vary", "Accept-Encoding")
			w.Header().Del("Content-Length")
			next.ServeHTTP(&compressWriter{Writer: bw, ResponseWriter: w}, r)

		case strings.Contains(accept, "gzip"):
			gz := gzPool.Get().(*gzip.Writer)
			defer gzPool.Put(gz)
			gz.Reset(w)
			defer gz.Close()

			w.Header().Set("Content-Encoding", "gzip")
			w.Header().Add("Vary", "Accept-Encoding")
			w.Header().Del("Content-Length")
			next.ServeHTTP(&compressWriter{Writer: gz, ResponseWriter: w}, r)

		default:
			next.ServeHTTP(w, r)
		}
	})
}
