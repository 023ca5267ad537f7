package resilience

import (
	"log/slog"
	"sync"
	"time"
)

// BreakerStatus is the circuit state.
type BreakerStatus string

const (
	StatusClosed   BreakerStatus = "closed"
	StatusOpen     BreakerStatus = "open"
	StatusHalfOpen BreakerStatus = "half-open"
)

// BreakerConfig tunes a circuit breaker.
type BreakerConfig struct {
	FailureThreshold int
	ResetTimeout     time.Duration
}

// DefaultBreakerConfig trips after 5 consecutive failures and probes again
// after 30 seconds.
var DefaultBreakerConfig = BreakerConfig{
	FailureThreshold: 5,
	ResetTimeout:     30 * time.Second,
}

// CircuitBreaker guards one downstream service. While open, calls fail fast
// with CircuitOpenError; after ResetTimeout a single probe call is let
// through, and its outcome decides the next state.
type CircuitBreaker struct {
	service string
	cfg     BreakerConfig
	log     *slog.Logger

	mu          sync.Mutex
	status      BreakerStatus
	failures    int
	lastFailure time.Time
}

// NewCircuitBreaker creates a closed breaker for the named service.
func NewCircuitBreaker(service string, cfg BreakerConfig, log *slog.Logger) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = DefaultBreakerConfig.FailureThreshold
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = DefaultBreakerConfig.ResetTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &CircuitBreaker{
		service: service,
		cfg:     cfg,
		log:     log.With("component", "breaker", "service", service),
		status:  StatusClosed,
	}
}

// Allow reports whether a call may proceed, transitioning open to half-open
// once the reset timeout has elapsed.
func (b *CircuitBreaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.status == StatusOpen {
		if time.Since(b.lastFailure) < b.cfg.ResetTimeout {
			return &CircuitOpenError{Service: b.service}
		}
		b.status = StatusHalfOpen
		b.log.Info("Breaker half-open, probing")
	}
	return nil
}

// RecordSuccess resets the failure count. A half-open success fully closes
// the breaker.
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.status == StatusHalfOpen {
		b.log.Info("Breaker closed after successful probe")
	}
	b.status = StatusClosed
	b.failures = 0
}

// RecordFailure counts a countable failure. Errors flagged non-transient
// never count toward the threshold: they indicate bad data, not an unhealthy
// dependency.
func (b *CircuitBreaker) RecordFailure(err error) {
	if err == nil || !IsTransient(err) {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastFailure = time.Now()
	if b.status == StatusHalfOpen {
		b.status = StatusOpen
		b.log.Warn("Breaker re-opened, probe failed", "error", err)
		return
	}

	b.failures++
	if b.failures >= b.cfg.FailureThreshold && b.status == StatusClosed {
		b.status = StatusOpen
		b.log.Warn("Breaker opened", "failures", b.failures, "error", err)
	}
}

// Status returns the current state.
func (b *CircuitBreaker) Status() BreakerStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

// Reset manually closes the breaker and clears its counters.
func (b *CircuitBreaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status = StatusClosed
	b.failures = 0
}

// BreakerRegistry owns the process's breakers, keyed by service name and
// lazily created. Passed by reference to callers instead of living in
// module-level state.
type BreakerRegistry struct {
	cfg BreakerConfig
	log *slog.Logger

	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
}

// NewBreakerRegistry creates an empty registry with shared defaults.
func NewBreakerRegistry(cfg BreakerConfig, log *slog.Logger) *BreakerRegistry {
	return &BreakerRegistry{
		cfg:      cfg,
		log:      log,
		breakers: make(map[string]*CircuitBreaker),
	}
}

// Get returns the breaker for service, creating it on first use.
func (r *BreakerRegistry) Get(service string) *CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.breakers[service]
	if !ok {
		b = NewCircuitBreaker(service, r.cfg, r.log)
		r.breakers[service] = b
	}
	return b
}

// Snapshot returns the current status of every known breaker.
func (r *BreakerRegistry) Snapshot() map[string]BreakerStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]BreakerStatus, len(r.breakers))
	for name, b := range r.breakers {
		out[name] = b.Status()
	}
	return out
}
