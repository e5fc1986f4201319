package ledger

import (
	"net/http"
	"strconv"
	"time"
)

// RetryPolicy bounds how transient ledger failures are retried. The zero
// value retries nothing; DefaultRetryPolicy matches the documented
// 1s/2s/4s schedule.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryPolicy allows 3 attempts with exponential backoff.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second}

// Backoff returns how long to wait before the given retry (attempt is
// zero-based). A server-supplied Retry-After wins over the exponential
// schedule.
func (p RetryPolicy) Backoff(attempt int, retryAfter time.Duration) time.Duration {
	if retryAfter > 0 {
		return retryAfter
	}
	return p.BaseDelay * time.Duration(1<<uint(attempt))
}

// Retryable reports whether a response status is worth another attempt.
func (p RetryPolicy) Retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// retryAfterHeader parses a Retry-After header value in seconds.
func retryAfterHeader(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
