package errors

import "fmt"

// ErrorType classifies failures at the API boundary so the retry layer can
// decide between another attempt and giving up.
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeNotFound    ErrorType = "not_found"
	// ErrorTypeTerminal marks a failure that survived the full retry budget.
	// It is the only unconditionally fatal error in a harvesting run.
	ErrorTypeTerminal ErrorType = "terminal"
	ErrorTypeUnknown  ErrorType = "unknown"
)

// Error is a typed API error carrying the HTTP status code that produced it
// (0 for transport-level failures).
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Cause   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Terminal wraps an exhausted-retries failure. The cause is the last
// retryable error observed.
func Terminal(msg string, cause error) *Error {
	return &Error{
		Type:    ErrorTypeTerminal,
		Message: msg,
		Cause:   cause,
	}
}

// IsRetryable reports whether an error of the given type is worth another
// attempt.
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError:
		return true
	default:
		return false
	}
}

// IsRetryableStatusCode reports whether an HTTP status code indicates a
// transient failure.
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // transport error, no response
		return true
	case 429:
		return true
	default:
		return statusCode >= 500
	}
}

// TypeForStatusCode maps an HTTP status code to an ErrorType.
func TypeForStatusCode(statusCode int) ErrorType {
	switch {
	case statusCode == 0:
		return ErrorTypeNetwork
	case statusCode == 404:
		return ErrorTypeNotFound
	case statusCode == 429:
		return ErrorTypeRateLimit
	case statusCode >= 500:
		return ErrorTypeServerError
	default:
		return ErrorTypeUnknown
	}
}
