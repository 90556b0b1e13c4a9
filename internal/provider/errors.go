package provider

import (
	"errors"
	"strings"
)

// Backend error taxonomy. Callers branch with errors.Is; the concrete cause is
// wrapped alongside the sentinel.
var (
	// ErrRateLimited signals a quota/rate-limit rejection. The caller should
	// pause rather than advance.
	ErrRateLimited = errors.New("rate limited")

	// ErrSynthesisFailed signals a non-quota synthesis failure. The caller
	// may skip the segment and continue.
	ErrSynthesisFailed = errors.New("synthesis failed")

	// ErrExtractionFailed signals a failed extraction batch. The caller
	// retries after a delay.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrUnsupportedFormat signals an upload of a type no extractor handles.
	// Fatal for that upload, no retry.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrNoContent signals that extraction produced no usable text.
	// Fatal for that upload.
	ErrNoContent = errors.New("no content extracted")
)

// IsRateLimited reports whether err is a quota/rate-limit failure.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// isRateLimitPayload recognizes rate-limit signals in backend responses.
func isRateLimitPayload(statusCode int, body string) bool {
	if statusCode == 429 {
		return true
	}
	return strings.Contains(body, "RESOURCE_EXHAUSTED")
}
