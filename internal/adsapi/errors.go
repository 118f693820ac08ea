package adsapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

// ErrorType classifies ads API failures.
type ErrorType int

const (
	ErrorUnknown ErrorType = iota
	ErrorRateLimited
	ErrorAuthExpired
	ErrorPermissionDenied
	ErrorInvalidCustomer
	ErrorInvalidQuery
	ErrorNotFound
	ErrorServerError
)

// APIError carries classification plus the upstream status and message.
type APIError struct {
	Type       ErrorType
	StatusCode int
	Status     string
	Message    string
	Retryable  bool
}

func (e *APIError) Error() string {
	return e.Message
}

// googleErrorResponse mirrors the standard Google API error envelope.
type googleErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// ClassifyError determines the error type from an HTTP response. The
// body is consumed; callers must not read it again.
func ClassifyError(resp *http.Response) *APIError {
	if resp == nil {
		return &APIError{
			Type:      ErrorUnknown,
			Message:   "nil response",
			Retryable: false,
		}
	}

	var bodyText string
	var gerr googleErrorResponse
	if resp.Body != nil {
		bodyBytes, err := io.ReadAll(resp.Body)
		if err == nil {
			bodyText = string(bodyBytes)
			_ = json.Unmarshal(bodyBytes, &gerr)
		}
	}

	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Status:     gerr.Error.Status,
		Type:       ErrorUnknown,
		Retryable:  false,
	}

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		apiErr.Type = ErrorRateLimited
		apiErr.Message = "rate limited by ads API"
		apiErr.Retryable = true

	case http.StatusUnauthorized:
		// Access token expired or revoked; a refresh may recover.
		apiErr.Type = ErrorAuthExpired
		apiErr.Message = "unauthorized (401), access token may be expired"
		apiErr.Retryable = true

	case http.StatusForbidden:
		apiErr.Type = ErrorPermissionDenied
		apiErr.Message = "permission denied (403)"
		apiErr.Retryable = false
		if strings.Contains(bodyText, "CUSTOMER_NOT_ENABLED") {
			apiErr.Type = ErrorInvalidCustomer
			apiErr.Message = "customer account is not enabled"
		}

	case http.StatusNotFound:
		apiErr.Type = ErrorNotFound
		apiErr.Message = "resource not found (404)"
		apiErr.Retryable = false
		if strings.Contains(bodyText, "CUSTOMER_NOT_FOUND") {
			apiErr.Type = ErrorInvalidCustomer
			apiErr.Message = "customer not found"
		}

	case http.StatusBadRequest:
		apiErr.Type = ErrorInvalidQuery
		apiErr.Message = "invalid request (400)"
		apiErr.Retryable = false
		switch {
		case strings.Contains(bodyText, "CUSTOMER_NOT_FOUND"),
			strings.Contains(bodyText, "INVALID_CUSTOMER_ID"):
			apiErr.Type = ErrorInvalidCustomer
			apiErr.Message = "invalid customer id"
		case strings.Contains(bodyText, "QueryError"):
			apiErr.Message = "invalid GAQL query"
		}

	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		apiErr.Type = ErrorServerError
		apiErr.Message = "ads API server error (5xx)"
		apiErr.Retryable = true

	default:
		if resp.StatusCode >= 500 {
			apiErr.Type = ErrorServerError
			apiErr.Message = "server error"
			apiErr.Retryable = true
		} else if resp.StatusCode >= 400 {
			apiErr.Type = ErrorInvalidQuery
			apiErr.Message = "client error"
			apiErr.Retryable = false
		}
	}

	// RESOURCE_EXHAUSTED can arrive on several status codes.
	if gerr.Error.Status == "RESOURCE_EXHAUSTED" {
		apiErr.Type = ErrorRateLimited
		apiErr.Message = "ads API quota exhausted"
		apiErr.Retryable = true
	}

	if gerr.Error.Message != "" {
		apiErr.Message += ": " + gerr.Error.Message
	}

	return apiErr
}

// IsRetryable checks if an error should be retried.
func IsRetryable(err *APIError) bool {
	return err != nil && err.Retryable
}

// IsPermanent checks if an error will not recover on retry.
func IsPermanent(err *APIError) bool {
	if err == nil {
		return false
	}
	return err.Type == ErrorNotFound ||
		err.Type == ErrorInvalidCustomer ||
		err.Type == ErrorInvalidQuery ||
		err.Type == ErrorPermissionDenied
}
