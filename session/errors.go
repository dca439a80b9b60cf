package session

import (
	"errors"
	"strings"

	"github.com/onnwee/chattail/innertube"
)

// ErrorClass represents whether a fetch error should be retried or not.
type ErrorClass int

const (
	// ErrorClassRetryable indicates the fetch should be retried (transient errors).
	ErrorClassRetryable ErrorClass = iota
	// ErrorClassFatal indicates the session should stop without retrying.
	ErrorClassFatal
)

// String returns a human-readable name for the error class.
func (ec ErrorClass) String() string {
	switch ec {
	case ErrorClassFatal:
		return "fatal"
	default:
		return "retryable"
	}
}

// ClassifyFetchError classifies continuation fetch errors.
//
// Fatal errors (non-retryable):
// - Access forbidden: the platform rejected the session (403). The
//   token will not become valid again, so retrying only burns quota.
//
// Retryable errors (transient):
// - Network errors (connection reset, timeout, DNS failures)
// - Server errors (500, 502, 503, 504)
// - Rate limiting (429, too many requests)
// - Payload decode failures (truncated or malformed responses)
//
// Errors that match no known pattern are treated as retryable to avoid
// giving up too early on an undocumented protocol.
func ClassifyFetchError(err error) ErrorClass {
	if err == nil {
		return ErrorClassRetryable
	}
	if errors.Is(err, innertube.ErrForbidden) {
		return ErrorClassFatal
	}

	lower := strings.ToLower(err.Error())

	// Server errors before the generic patterns so "503" is never
	// mistaken for anything else.
	if strings.Contains(lower, "500") ||
		strings.Contains(lower, "502") ||
		strings.Contains(lower, "503") ||
		strings.Contains(lower, "504") ||
		strings.Contains(lower, "internal server error") ||
		strings.Contains(lower, "bad gateway") ||
		strings.Contains(lower, "service unavailable") ||
		strings.Contains(lower, "gateway timeout") {
		return ErrorClassRetryable
	}

	if strings.Contains(lower, "403") ||
		strings.Contains(lower, "forbidden") ||
		strings.Contains(lower, "access denied") {
		return ErrorClassFatal
	}

	return ErrorClassRetryable
}

// IsRetryableError checks if a fetch error should trigger retry logic.
func IsRetryableError(err error) bool {
	return ClassifyFetchError(err) == ErrorClassRetryable
}

// IsFatalError checks if a fetch error should stop the session.
func IsFatalError(err error) bool {
	return ClassifyFetchError(err) == ErrorClassFatal
}
