package errorreporting

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
)

// Patterns scrubbed from outgoing events. Ads credentials (developer
// tokens, OAuth refresh tokens) must never leave the process.
var sensitivePatterns = []*regexp.Regexp{
	// Email addresses
	regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`),
	// Bearer tokens
	regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9._-]{20,}`),
	// Google OAuth refresh/access tokens (1//... and ya29...)
	regexp.MustCompile(`1//[a-zA-Z0-9_-]{20,}`),
	regexp.MustCompile(`ya29\.[a-zA-Z0-9._-]{20,}`),
	// Developer tokens, client secrets and other key=value credentials
	regexp.MustCompile(`(?i)(developer[_-]?token|client[_-]?secret|refresh[_-]?token|api[_-]?key|token|secret)["\s:=]+[a-zA-Z0-9._/-]{16,}`),
	// IP addresses
	regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`),
}

// Init initializes Sentry when SENTRY_DSN is set; a missing DSN is not
// an error, reporting is simply disabled.
func Init(environment string) error {
	dsn := os.Getenv("SENTRY_DSN")
	if dsn == "" {
		return nil
	}

	sampleRate := 1.0
	if os.Getenv("ENV") == "production" {
		sampleRate = 0.1
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		Release:          release(),
		TracesSampleRate: sampleRate,
		BeforeSend:       beforeSend,
		AttachStacktrace: true,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize Sentry: %w", err)
	}
	return nil
}

func release() string {
	if r := os.Getenv("SENTRY_RELEASE"); r != "" {
		return r
	}
	if v := os.Getenv("SERVICE_VERSION"); v != "" {
		return v
	}
	return "dev"
}

func beforeSend(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
	if event.Exception != nil {
		for i := range event.Exception {
			event.Exception[i].Value = scrub(event.Exception[i].Value)
		}
	}
	if event.Message != "" {
		event.Message = scrub(event.Message)
	}
	if event.Extra != nil {
		for key, value := range event.Extra {
			if str, ok := value.(string); ok {
				event.Extra[key] = scrub(str)
			}
		}
	}
	if event.Request != nil {
		if event.Request.Headers != nil {
			delete(event.Request.Headers, "Authorization")
			delete(event.Request.Headers, "Cookie")
			delete(event.Request.Headers, "X-Api-Key")
		}
		// Query strings can carry customer IDs and tokens.
		event.Request.QueryString = ""
	}
	return event
}

func scrub(text string) string {
	result := text
	for _, pattern := range sensitivePatterns {
		result = pattern.ReplaceAllString(result, "[REDACTED]")
	}
	return result
}

// CaptureError sends an error to Sentry when configured.
func CaptureError(err error) {
	if err == nil {
		return
	}
	sentry.CaptureException(err)
}

// CaptureErrorWithContext attaches tags and extras before capture.
func CaptureErrorWithContext(err error, tags map[string]string, extras map[string]interface{}) {
	if err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		for k, v := range extras {
			scope.SetExtra(k, v)
		}
		sentry.CaptureException(err)
	})
}

// CaptureMessage captures a message without an error.
func CaptureMessage(message string, level sentry.Level) {
	sentry.CaptureMessage(message)
}

// Flush waits for buffered events to be delivered.
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}

// SetTag sets a tag for all subsequent events.
func SetTag(key, value string) {
	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag(key, value)
	})
}

// AddBreadcrumb records debugging context on the current scope.
func AddBreadcrumb(category, message string, level sentry.Level) {
	sentry.AddBreadcrumb(&sentry.Breadcrumb{
		Category:  category,
		Message:   message,
		Level:     level,
		Timestamp: time.Now(),
	})
}

// ScrubSensitive exposes credential scrubbing for log sanitizing.
func ScrubSensitive(text string) string {
	return scrub(text)
}

// IsSentryEnabled reports whether a DSN is configured.
func IsSentryEnabled() bool {
	return os.Getenv("SENTRY_DSN") != ""
}

// ValidateDSN checks the DSN shape before Init.
func ValidateDSN(dsn string) error {
	if !strings.HasPrefix(dsn, "https://") && !strings.HasPrefix(dsn, "http://") {
		return fmt.Errorf("invalid Sentry DSN format")
	}
	return nil
}
