// Package httperr defines the error taxonomy shared by the transports,
// the retry policy, and the client facade. Errors are categorized by
// kind so callers can branch on the failure class without string
// matching, while errors.Is/errors.As keep working through wrapping.
package httperr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// ClientError represents different types of HTTP client errors
type ClientError interface {
	error
	Type() ErrorType
}

// ErrorType defines the category of client error
type ErrorType string

const (
	// NetworkError covers transport-level failures to complete the exchange.
	NetworkError ErrorType = "network"
	// TimeoutError covers cancellation fired by an armed deadline.
	TimeoutError ErrorType = "timeout"
	// AbortError covers caller-initiated cancellation observed in flight.
	AbortError ErrorType = "abort"
	// HTTPError covers status-code failures raised by callers or interceptors.
	// The client core never produces these on its own: a non-2xx response is
	// delivered as an ordinary response, not an error.
	HTTPError ErrorType = "http"
	// ValidationError covers malformed requests rejected before dispatch.
	ValidationError ErrorType = "validation"
	// InterceptorError covers failures escaping an interceptor chain.
	InterceptorError ErrorType = "interceptor"
)

// networkError represents network-related errors
type networkError struct {
	message string
	wrapped error
}

func (e *networkError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("network error: %s: %v", e.message, e.wrapped)
	}
	return fmt.Sprintf("network error: %s", e.message)
}

func (e *networkError) Type() ErrorType {
	return NetworkError
}

func (e *networkError) Unwrap() error {
	return e.wrapped
}

// timeoutError represents deadline-related errors
type timeoutError struct {
	message string
	timeout time.Duration
}

func (e *timeoutError) Error() string {
	return fmt.Sprintf("timeout error: %s (timeout: %v)", e.message, e.timeout)
}

func (e *timeoutError) Type() ErrorType {
	return TimeoutError
}

// abortError represents caller-initiated cancellation
type abortError struct {
	message string
	wrapped error
}

func (e *abortError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("abort error: %s: %v", e.message, e.wrapped)
	}
	return fmt.Sprintf("abort error: %s", e.message)
}

func (e *abortError) Type() ErrorType {
	return AbortError
}

func (e *abortError) Unwrap() error {
	return e.wrapped
}

// httpError represents HTTP status-related errors
type httpError struct {
	message    string
	statusCode int
	body       []byte
}

func (e *httpError) Error() string {
	return fmt.Sprintf("HTTP error: %s (status: %d)", e.message, e.statusCode)
}

func (e *httpError) Type() ErrorType {
	return HTTPError
}

func (e *httpError) StatusCode() int {
	return e.statusCode
}

func (e *httpError) Body() []byte {
	return e.body
}

// validationError represents request validation errors
type validationError struct {
	message string
	field   string
}

func (e *validationError) Error() string {
	if e.field != "" {
		return fmt.Sprintf("validation error: %s (field: %s)", e.message, e.field)
	}
	return fmt.Sprintf("validation error: %s", e.message)
}

func (e *validationError) Type() ErrorType {
	return ValidationError
}

// interceptorError represents interceptor-related errors
type interceptorError struct {
	message string
	wrapped error
	stage   string
}

func (e *interceptorError) Error() string {
	return fmt.Sprintf("interceptor error: %s (stage: %s): %v", e.message, e.stage, e.wrapped)
}

func (e *interceptorError) Type() ErrorType {
	return InterceptorError
}

func (e *interceptorError) Unwrap() error {
	return e.wrapped
}

// NewNetworkError creates a new network error
func NewNetworkError(message string, wrapped error) ClientError {
	return &networkError{
		message: message,
		wrapped: wrapped,
	}
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(message string, timeout time.Duration) ClientError {
	return &timeoutError{
		message: message,
		timeout: timeout,
	}
}

// NewAbortError creates a new abort error
func NewAbortError(message string, wrapped error) ClientError {
	return &abortError{
		message: message,
		wrapped: wrapped,
	}
}

// NewHTTPError creates a new HTTP error
func NewHTTPError(message string, statusCode int, body []byte) ClientError {
	return &httpError{
		message:    message,
		statusCode: statusCode,
		body:       body,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message, field string) ClientError {
	return &validationError{
		message: message,
		field:   field,
	}
}

// NewInterceptorError creates a new interceptor error
func NewInterceptorError(message, stage string, wrapped error) ClientError {
	return &interceptorError{
		message: message,
		wrapped: wrapped,
		stage:   stage,
	}
}

// Classify maps a low-level dispatch failure onto the taxonomy. Errors
// that already carry a kind pass through unchanged. Deadline expiry
// (context or net-level) becomes a timeout error, caller cancellation
// becomes an abort error, and everything else is a network error
// wrapping the cause. The timeout argument is recorded on timeout-kind
// errors for diagnostics.
func Classify(err error, timeout time.Duration) ClientError {
	if err == nil {
		return nil
	}
	var clientErr ClientError
	if errors.As(err, &clientErr) {
		return clientErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError("request deadline exceeded", timeout)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewTimeoutError("request timed out", timeout)
	}
	if errors.Is(err, context.Canceled) {
		return NewAbortError("request aborted", err)
	}
	return NewNetworkError("request execution failed", err)
}

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errorType ErrorType) bool {
	if err == nil {
		return false
	}
	var clientErr ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type() == errorType
	}
	return false
}

// IsHTTPStatusError checks if an error is an HTTP error with a specific status code
func IsHTTPStatusError(err error, statusCode int) bool {
	var httpErr *httpError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode() == statusCode
	}
	return false
}

// HTTPStatus extracts the status code from an HTTP-kind error anywhere
// in err's chain. The second return reports whether one was found.
func HTTPStatus(err error) (int, bool) {
	var httpErr *httpError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode(), true
	}
	return 0, false
}

// HTTPBody extracts the response body captured by an HTTP-kind error,
// or nil when err carries none.
func HTTPBody(err error) []byte {
	var httpErr *httpError
	if errors.As(err, &httpErr) {
		return httpErr.Body()
	}
	return nil
}

// IsSuccessStatus checks if a status code represents success (2xx)
func IsSuccessStatus(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}
