package resilience

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// RetryConfig defines retry behavior.
type RetryConfig struct {
	MaxRetries      int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffMultiple float64
	Jitter          float64 // fraction of the delay, 0.2 = ±20%

	// Retryable overrides the default transience check.
	Retryable func(error) bool
}

// DefaultRetryConfig provides sensible defaults: 1s, 2s, 4s (max 30s), ±20%.
var DefaultRetryConfig = RetryConfig{
	MaxRetries:      3,
	InitialDelay:    1 * time.Second,
	MaxDelay:        30 * time.Second,
	BackoffMultiple: 2.0,
	Jitter:          0.2,
}

// WithRetry invokes fn up to MaxRetries+1 times, sleeping an exponentially
// growing, jittered delay between attempts. Only errors the policy classifies
// retryable are retried; the last error is returned as-is.
func WithRetry[T any](ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	retryable := cfg.Retryable
	if retryable == nil {
		retryable = IsTransient
	}

	var zero T
	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !retryable(err) || attempt == cfg.MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(backoffDelay(attempt, cfg)):
		}
	}
	return zero, lastErr
}

// backoffDelay computes InitialDelay * multiple^attempt ± jitter, capped.
func backoffDelay(attempt int, cfg RetryConfig) time.Duration {
	delay := float64(cfg.InitialDelay) * math.Pow(cfg.BackoffMultiple, float64(attempt))
	if cfg.Jitter > 0 {
		delay += delay * cfg.Jitter * (2*rand.Float64() - 1)
	}
	if max := float64(cfg.MaxDelay); cfg.MaxDelay > 0 && delay > max {
		delay = max
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}
