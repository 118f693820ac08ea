package apierr

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/logger"
)

// ErrorCode represents a structured error code
type ErrorCode string

// Error code constants organized by category
const (
	// AUTH_ - Authentication and authorization errors
	ErrAuthMissing   ErrorCode = "AUTH_MISSING"
	ErrAuthInvalid   ErrorCode = "AUTH_INVALID"
	ErrAuthForbidden ErrorCode = "AUTH_FORBIDDEN"

	// ADS_ - Upstream Google Ads API errors
	ErrAdsUnavailable     ErrorCode = "ADS_UNAVAILABLE"
	ErrAdsRateLimited     ErrorCode = "ADS_RATE_LIMITED"
	ErrAdsAuthFailed      ErrorCode = "ADS_AUTH_FAILED"
	ErrAdsInvalidCustomer ErrorCode = "ADS_INVALID_CUSTOMER"
	ErrAdsQueryFailed     ErrorCode = "ADS_QUERY_FAILED"

	// CACHE_ - Cache administration errors
	ErrCacheInvalidPattern ErrorCode = "CACHE_INVALID_PATTERN"

	// SYSTEM_ - System and server errors
	ErrSystemInternal    ErrorCode = "SYSTEM_INTERNAL"
	ErrSystemUnavailable ErrorCode = "SYSTEM_UNAVAILABLE"
	ErrSystemTimeout     ErrorCode = "SYSTEM_TIMEOUT"

	// VALIDATION_ - Request validation errors
	ErrValidationInvalidJSON   ErrorCode = "VALIDATION_INVALID_JSON"
	ErrValidationMissingField  ErrorCode = "VALIDATION_MISSING_FIELD"
	ErrValidationInvalidValue  ErrorCode = "VALIDATION_INVALID_VALUE"
	ErrValidationInvalidFormat ErrorCode = "VALIDATION_INVALID_FORMAT"

	// RESOURCE_ - Resource errors
	ErrResourceNotFound ErrorCode = "RESOURCE_NOT_FOUND"

	// RATE_LIMIT_ - Rate limiting errors
	ErrRateLimitGlobal ErrorCode = "RATE_LIMIT_GLOBAL"
	ErrRateLimitIP     ErrorCode = "RATE_LIMIT_IP"
)

// Error represents a structured API error
type Error struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	status    int                    // HTTP status code (not serialized)
}

// ErrorResponse is the top-level error response wrapper
type ErrorResponse struct {
	Error *Error `json:"error"`
}

// New creates a new API error
func New(code ErrorCode, message string, status int) *Error {
	return &Error{
		Code:    code,
		Message: message,
		status:  status,
	}
}

// WithDetails adds details to the error
func (e *Error) WithDetails(details map[string]interface{}) *Error {
	e.Details = details
	return e
}

// WithRequestID adds a request ID to the error
func (e *Error) WithRequestID(requestID string) *Error {
	e.RequestID = requestID
	return e
}

// Error implements the error interface
func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

// Status returns the HTTP status code
func (e *Error) Status() int {
	return e.status
}

// WriteError writes a structured error response to the HTTP response writer
func WriteError(w http.ResponseWriter, err *Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Status())
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: err})
}

// WriteErrorWithContext writes a structured error response, attaching the
// request ID from the request context when present.
func WriteErrorWithContext(w http.ResponseWriter, r *http.Request, err *Error) {
	if reqID := requestIDFromContext(r.Context()); reqID != "" {
		err = err.WithRequestID(reqID)
	}
	WriteError(w, err)
}

func requestIDFromContext(ctx context.Context) string {
	if reqID, ok := ctx.Value(logger.RequestIDKey).(string); ok {
		return reqID
	}
	return ""
}

// Helper functions for common errors

// AuthMissing creates an authentication missing error
func AuthMissing(message string) *Error {
	if message == "" {
		message = "Authentication required"
	}
	return New(ErrAuthMissing, message, http.StatusUnauthorized)
}

// AuthInvalid creates an invalid authentication error
func AuthInvalid(message string) *Error {
	if message == "" {
		message = "Invalid authentication credentials"
	}
	return New(ErrAuthInvalid, message, http.StatusUnauthorized)
}

// AuthForbidden creates a forbidden error
func AuthForbidden(message string) *Error {
	if message == "" {
		message = "Access forbidden"
	}
	return New(ErrAuthForbidden, message, http.StatusForbidden)
}

// AdsUnavailable indicates the upstream ads API could not be reached
func AdsUnavailable(message string) *Error {
	if message == "" {
		message = "Advertising API is temporarily unavailable"
	}
	return New(ErrAdsUnavailable, message, http.StatusBadGateway)
}

// AdsRateLimited indicates the upstream ads API throttled us
func AdsRateLimited() *Error {
	return New(ErrAdsRateLimited, "Advertising API rate limit reached, try again shortly", http.StatusServiceUnavailable)
}

// AdsAuthFailed indicates upstream credentials were rejected
func AdsAuthFailed() *Error {
	return New(ErrAdsAuthFailed, "Advertising API rejected the configured credentials", http.StatusBadGateway)
}

// AdsInvalidCustomer indicates an unknown or inaccessible customer id
func AdsInvalidCustomer(customerID string) *Error {
	return New(ErrAdsInvalidCustomer, "Unknown or inaccessible customer account", http.StatusNotFound).
		WithDetails(map[string]interface{}{"customer_id": customerID})
}

// AdsQueryFailed indicates a report query that the upstream refused
func AdsQueryFailed(message string) *Error {
	if message == "" {
		message = "Report query failed"
	}
	return New(ErrAdsQueryFailed, message, http.StatusBadGateway)
}

// CacheInvalidPattern indicates an unparseable invalidation pattern
func CacheInvalidPattern(message string) *Error {
	if message == "" {
		message = "Invalid cache key pattern"
	}
	return New(ErrCacheInvalidPattern, message, http.StatusBadRequest)
}

// ValidationInvalidJSON creates an invalid JSON error
func ValidationInvalidJSON() *Error {
	return New(ErrValidationInvalidJSON, "Request body is not valid JSON", http.StatusBadRequest)
}

// ValidationMissingField creates a missing field error
func ValidationMissingField(field string) *Error {
	return New(ErrValidationMissingField, "Missing required field", http.StatusBadRequest).
		WithDetails(map[string]interface{}{"field": field})
}

// ValidationInvalidValue creates an invalid value error
func ValidationInvalidValue(field, message string) *Error {
	return New(ErrValidationInvalidValue, message, http.StatusBadRequest).
		WithDetails(map[string]interface{}{"field": field})
}

// ResourceNotFound creates a not found error
func ResourceNotFound(resource string) *Error {
	return New(ErrResourceNotFound, resource+" not found", http.StatusNotFound)
}

// SystemInternal creates an internal server error
func SystemInternal(message string) *Error {
	if message == "" {
		message = "Internal server error"
	}
	return New(ErrSystemInternal, message, http.StatusInternalServerError)
}

// SystemTimeout creates a timeout error
func SystemTimeout(message string) *Error {
	if message == "" {
		message = "Request timed out"
	}
	return New(ErrSystemTimeout, message, http.StatusGatewayTimeout)
}

// RateLimitGlobal creates a global rate limit error
func RateLimitGlobal() *Error {
	return New(ErrRateLimitGlobal, "Server is handling too many requests, try again shortly", http.StatusTooManyRequests)
}

// RateLimitIP creates a per-IP rate limit error
func RateLimitIP() *Error {
	return New(ErrRateLimitIP, "Too many requests from your address, slow down", http.StatusTooManyRequests)
}
