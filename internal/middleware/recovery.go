package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/getsentry/sentry-go"

	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/errorreporting"
	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/logger"
)

// RecoverWithSentry recovers from handler panics, logs them, and
// reports them to Sentry when configured.
func RecoverWithSentry(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				stack := debug.Stack()

				logger.ErrorContext(r.Context(), "Panic recovered",
					"error", err,
					"stack", string(stack),
					"method", r.Method,
					"path", r.URL.Path,
				)

				if errorreporting.IsSentryEnabled() {
					hub := sentry.CurrentHub().Clone()
					hub.Scope().SetRequest(r)
					hub.Scope().SetLevel(sentry.LevelError)
					hub.Scope().SetTag("method", r.Method)
					hub.Scope().SetTag("path", r.URL.Path)

					if e, ok := err.(error); ok {
						hub.CaptureException(e)
					} else {
						hub.CaptureMessage(errorreporting.ScrubSensitive(string(stack)))
					}
				}

				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
