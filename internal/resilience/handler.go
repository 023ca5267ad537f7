package resilience

import (
	"context"
	"log/slog"
)

// Policy declares which protections wrap a call.
type Policy struct {
	Service    string // breaker key; empty disables the breaker
	Retry      bool
	DeadLetter bool // record to DLQ when the error is non-transient after handling
}

// Handler composes the circuit breaker registry, retry policy, dead letter
// queue and logging around external calls.
type Handler struct {
	breakers *BreakerRegistry
	retry    RetryConfig
	dlq      *DeadLetterQueue
	log      *slog.Logger
}

// NewHandler builds a Handler. Any nil collaborator gets a default.
func NewHandler(breakers *BreakerRegistry, retry RetryConfig, dlq *DeadLetterQueue, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	if breakers == nil {
		breakers = NewBreakerRegistry(DefaultBreakerConfig, log)
	}
	if dlq == nil {
		dlq = NewDeadLetterQueue(nil, log)
	}
	return &Handler{breakers: breakers, retry: retry, dlq: dlq, log: log}
}

// Breakers exposes the registry for observability surfaces.
func (h *Handler) Breakers() *BreakerRegistry { return h.breakers }

// DLQ exposes the dead letter queue.
func (h *Handler) DLQ() *DeadLetterQueue { return h.dlq }

// Execute runs fn under the declared policy. The operation name labels logs
// and DLQ entries; payload is what a replay would need.
func Execute[T any](ctx context.Context, h *Handler, policy Policy, operation string, payload any, fn func(ctx context.Context) (T, error)) (T, error) {
	var breaker *CircuitBreaker
	if policy.Service != "" {
		breaker = h.breakers.Get(policy.Service)
	}

	call := func(ctx context.Context) (T, error) {
		var zero T
		if breaker != nil {
			if err := breaker.Allow(); err != nil {
				return zero, err
			}
		}
		result, err := fn(ctx)
		if breaker != nil {
			if err != nil {
				breaker.RecordFailure(err)
			} else {
				breaker.RecordSuccess()
			}
		}
		return result, err
	}

	var result T
	var err error
	if policy.Retry {
		cfg := h.retry
		if cfg.Retryable == nil {
			// Breaker rejections are transient but retrying them immediately
			// only hammers an unhealthy dependency; the caller backs off.
			cfg.Retryable = func(err error) bool {
				return IsTransient(err) && !IsCircuitOpen(err)
			}
		}
		result, err = WithRetry(ctx, cfg, call)
	} else {
		result, err = call(ctx)
	}

	if err != nil {
		h.log.Debug("Operation failed", "operation", operation, "error", err)
		if policy.DeadLetter && !IsTransient(err) {
			if dlqErr := h.dlq.Record(ctx, operation, payload, err); dlqErr != nil {
				h.log.Error("Failed to dead-letter operation", "operation", operation, "error", dlqErr)
			}
		}
	}
	return result, err
}
