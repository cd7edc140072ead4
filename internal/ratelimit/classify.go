package ratelimit

import (
	"context"
	"errors"
	"strings"
)

// PermanentError is implemented by failures that must never be retried,
// whatever their message says. Model output parse errors are the usual case.
type PermanentError interface {
	Permanent() bool
}

// StatusCoder is implemented by provider errors that carry an HTTP status.
type StatusCoder interface {
	HTTPStatusCode() int
}

var rateLimitStatuses = map[int]bool{
	429: true, // too many requests
	402: true, // payment required (billing)
	403: true, // quota-disabled keys
	503: true, // overloaded
}

var rateLimitKeywords = []string{
	"quota",
	"rate limit",
	"rate-limit",
	"ratelimit",
	"rate_limit",
	"too many requests",
	"billing",
	"429",
	"resource_exhausted",
	"resource exhausted",
	"retry",
	"backoff",
}

// IsRateLimited reports whether err should be retried with backoff.
// Context cancellation never is.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var pe PermanentError
	if errors.As(err, &pe) && pe.Permanent() {
		return false
	}
	var sc StatusCoder
	if errors.As(err, &sc) && rateLimitStatuses[sc.HTTPStatusCode()] {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, kw := range rateLimitKeywords {
		if strings.Contains(msg, kw) {
			return true
		}
	}
	return false
}
