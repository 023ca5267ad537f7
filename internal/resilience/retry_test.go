package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastRetry(maxRetries int) RetryConfig {
	return RetryConfig{
		MaxRetries:      maxRetries,
		InitialDelay:    time.Millisecond,
		MaxDelay:        5 * time.Millisecond,
		BackoffMultiple: 2.0,
	}
}

func TestWithRetry_ExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := WithRetry(context.Background(), fastRetry(3), func(ctx context.Context) (int, error) {
		calls++
		return 0, transientErr()
	})
	if err == nil {
		t.Fatal("expected the last error")
	}
	if calls != 4 {
		t.Fatalf("fn called %d times, want maxRetries+1 = 4", calls)
	}
}

func TestWithRetry_SucceedsMidway(t *testing.T) {
	calls := 0
	got, err := WithRetry(context.Background(), fastRetry(3), func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", transientErr()
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("WithRetry failed: %v", err)
	}
	if got != "ok" || calls != 3 {
		t.Fatalf("got %q after %d calls, want ok after 3", got, calls)
	}
}

func TestWithRetry_NonTransientStopsImmediately(t *testing.T) {
	calls := 0
	_, err := WithRetry(context.Background(), fastRetry(5), func(ctx context.Context) (int, error) {
		calls++
		return 0, &DataParsingError{Op: "decode", Err: errors.New("bad json")}
	})
	var perr *DataParsingError
	if !errors.As(err, &perr) {
		t.Fatalf("expected the parse error back, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("fn called %d times, non-transient errors must not be retried", calls)
	}
}

func TestWithRetry_ContextCancelStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := WithRetry(ctx, fastRetry(10), func(ctx context.Context) (int, error) {
		calls++
		cancel()
		return 0, transientErr()
	})
	if err == nil {
		t.Fatal("expected an error")
	}
	if calls != 1 {
		t.Fatalf("fn called %d times after cancel, want 1", calls)
	}
}

func TestWithRetry_CustomRetryable(t *testing.T) {
	sentinel := errors.New("special")
	cfg := fastRetry(2)
	cfg.Retryable = func(err error) bool { return errors.Is(err, sentinel) }

	calls := 0
	_, err := WithRetry(context.Background(), cfg, func(ctx context.Context) (int, error) {
		calls++
		return 0, sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("fn called %d times, want 3", calls)
	}
}

func TestBackoffDelay_GrowthAndCap(t *testing.T) {
	cfg := RetryConfig{
		InitialDelay:    100 * time.Millisecond,
		MaxDelay:        time.Second,
		BackoffMultiple: 2.0,
	}
	if d := backoffDelay(0, cfg); d != 100*time.Millisecond {
		t.Errorf("attempt 0 delay = %v, want 100ms", d)
	}
	if d := backoffDelay(1, cfg); d != 200*time.Millisecond {
		t.Errorf("attempt 1 delay = %v, want 200ms", d)
	}
	if d := backoffDelay(10, cfg); d != time.Second {
		t.Errorf("attempt 10 delay = %v, want the 1s cap", d)
	}
}
