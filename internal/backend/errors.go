package backend

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	dErrors "regdesk/pkg/domain-errors"
)

// ErrorCategory is the normalized failure taxonomy for registry calls.
type ErrorCategory string

const (
	// ErrorTimeout means the registry did not answer in time.
	ErrorTimeout ErrorCategory = "timeout"
	// ErrorBadRequest means the registry rejected the payload.
	ErrorBadRequest ErrorCategory = "bad_request"
	// ErrorAuthentication means the bearer token was missing or refused.
	ErrorAuthentication ErrorCategory = "authentication"
	// ErrorNotFound means the record does not exist.
	ErrorNotFound ErrorCategory = "not_found"
	// ErrorUpstreamOutage means the registry is unreachable or failing.
	ErrorUpstreamOutage ErrorCategory = "upstream_outage"
	// ErrorBadData means the registry answered with something we cannot read.
	ErrorBadData ErrorCategory = "bad_data"
)

// APIError wraps a registry failure with its category.
type APIError struct {
	Category   ErrorCategory
	Operation  string
	StatusCode int
	Message    string
	Err        error
	Retryable  bool
}

func (e *APIError) Error() string {
	status := ""
	if e.StatusCode != 0 {
		status = fmt.Sprintf(" (http %d)", e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("backend %s [%s]%s: %s: %v", e.Operation, e.Category, status, e.Message, e.Err)
	}
	return fmt.Sprintf("backend %s [%s]%s: %s", e.Operation, e.Category, status, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

func newAPIError(category ErrorCategory, op string, status int, message string, err error) *APIError {
	return &APIError{
		Category:   category,
		Operation:  op,
		StatusCode: status,
		Message:    message,
		Err:        err,
		Retryable:  category == ErrorTimeout || category == ErrorUpstreamOutage,
	}
}

// classifyStatus maps a non-2xx status onto the taxonomy. Only 408, 429 and
// 5xx are retried.
func classifyStatus(op string, status int, message string) *APIError {
	switch {
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity ||
		status == http.StatusRequestEntityTooLarge || status == http.StatusUnsupportedMediaType ||
		status == http.StatusConflict:
		return newAPIError(ErrorBadRequest, op, status, message, nil)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return newAPIError(ErrorAuthentication, op, status, message, nil)
	case status == http.StatusNotFound:
		return newAPIError(ErrorNotFound, op, status, message, nil)
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return newAPIError(ErrorTimeout, op, status, message, nil)
	case status == http.StatusTooManyRequests || status >= 500:
		return newAPIError(ErrorUpstreamOutage, op, status, message, nil)
	default:
		return newAPIError(ErrorBadData, op, status, message, nil)
	}
}

func classifyTransport(op string, err error) *APIError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return newAPIError(ErrorTimeout, op, 0, "registry did not respond in time", err)
	}
	return newAPIError(ErrorUpstreamOutage, op, 0, "registry unreachable", err)
}

// IsRetryable reports whether err is worth another attempt.
func IsRetryable(err error) bool {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Retryable
	}
	return false
}

// CategoryOf extracts the taxonomy category, or "" for foreign errors.
func CategoryOf(err error) ErrorCategory {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Category
	}
	return ""
}

// ToDomainError converts a registry failure into a coded error for handlers.
// The registry's own message is kept so callers can rewrite known texts.
func ToDomainError(err error) error {
	var ae *APIError
	if !errors.As(err, &ae) {
		return err
	}
	var code dErrors.Code
	switch ae.Category {
	case ErrorTimeout:
		code = dErrors.CodeTimeout
	case ErrorBadRequest:
		code = dErrors.CodeBadRequest
	case ErrorNotFound:
		code = dErrors.CodeNotFound
	case ErrorUpstreamOutage:
		code = dErrors.CodeUnavailable
	default:
		code = dErrors.CodeBadGateway
	}
	return dErrors.Wrap(err, code, ae.Message)
}
