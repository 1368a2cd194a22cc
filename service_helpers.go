package collabkit

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"time"
)

// RetryPolicy controls how transient database failures are retried.
type RetryPolicy struct {
	MaxAttempts int
	BaseBackoff time.Duration
}

// DefaultRetryPolicy retries three times with exponential backoff from 100ms.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseBackoff: 100 * time.Millisecond,
	}
}

// backoff returns the wait before the next attempt: exponential with 10% jitter.
func (p RetryPolicy) backoff(attempt int) time.Duration {
	backoff := time.Duration(1<<uint(attempt)) * p.BaseBackoff
	jitter := time.Duration(float64(backoff) * 0.1 * (0.5 + rand.Float64()))
	return backoff + jitter
}

// withRetry runs fn until it succeeds, fails with a non-transient error or
// the policy runs out of attempts.
func (s *Service) withRetry(ctx context.Context, op string, fn func() error) error {
	attempts := s.retry.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil || !isTransientError(lastErr) || attempt == attempts-1 {
			return lastErr
		}

		wait := s.retry.backoff(attempt)
		s.logger.Warn().
			Err(lastErr).
			Str("op", op).
			Int("attempt", attempt+1).
			Dur("backoff", wait).
			Msg("transient database error, retrying")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return lastErr
		case <-timer.C:
		}
	}
	return lastErr
}

var transientErrors = []string{
	"deadlock",
	"lock wait timeout",
	"could not serialize access",
	"connection refused",
	"connection reset",
	"broken pipe",
	"temporary failure",
	"try again",
	"resource temporarily unavailable",
}

// isTransientError checks if an error is transient and can be retried.
// Access decisions and cancelled contexts are never transient.
func isTransientError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var e *Error
	if errors.As(err, &e) {
		return false
	}

	msg := strings.ToLower(err.Error())
	for _, transient := range transientErrors {
		if strings.Contains(msg, transient) {
			return true
		}
	}
	return false
}

// GetTransactionMetrics returns the current transaction performance metrics.
func (s *Service) GetTransactionMetrics() TransactionMetrics {
	return s.txMonitor.getMetrics()
}

// ResetTransactionMetrics resets all transaction metrics.
func (s *Service) ResetTransactionMetrics() {
	s.txMonitor.reset()
}

// IsTransactionHealthy checks if transaction performance is within acceptable thresholds.
func (s *Service) IsTransactionHealthy() bool {
	return s.txMonitor.getMetrics().Healthy()
}
