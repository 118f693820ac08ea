package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/metrics"
)

// ErrCircuitOpen is returned when the breaker rejects a call without attempting it.
var ErrCircuitOpen = errors.New("circuit breaker is open")

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Breaker guards an upstream dependency. After FailureThreshold
// consecutive failures it opens; after Timeout it lets a probe through,
// and SuccessThreshold consecutive probe successes close it again.
type Breaker struct {
	mu          sync.Mutex
	state       State
	failures    int
	successes   int
	lastFailure time.Time

	name             string
	failureThreshold int
	successThreshold int
	timeout          time.Duration
}

type Config struct {
	Name             string
	FailureThreshold int
	SuccessThreshold int
	Timeout          time.Duration
}

func New(cfg Config) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	b := &Breaker{
		state:            StateClosed,
		name:             cfg.Name,
		failureThreshold: cfg.FailureThreshold,
		successThreshold: cfg.SuccessThreshold,
		timeout:          cfg.Timeout,
	}
	metrics.CircuitBreakerState.WithLabelValues(cfg.Name).Set(0)
	return b
}

// Call runs fn if the breaker allows it. Context cancellation does not
// count against the failure threshold; the caller gave up, the upstream
// did not misbehave.
func (b *Breaker) Call(fn func() error) error {
	if !b.allow() {
		return ErrCircuitOpen
	}
	err := fn()
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		b.onFailure()
		return err
	}
	b.onSuccess()
	return nil
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed, StateHalfOpen:
		return true
	case StateOpen:
		if time.Since(b.lastFailure) > b.timeout {
			b.state = StateHalfOpen
			b.successes = 0
			metrics.CircuitBreakerState.WithLabelValues(b.name).Set(2)
			return true
		}
		return false
	default:
		return false
	}
}

func (b *Breaker) onFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastFailure = time.Now()
	b.successes = 0

	switch b.state {
	case StateClosed:
		b.failures++
		if b.failures >= b.failureThreshold {
			b.trip()
		}
	case StateHalfOpen:
		b.failures = 0
		b.trip()
	}
}

// trip requires b.mu held.
func (b *Breaker) trip() {
	b.state = StateOpen
	metrics.CircuitBreakerTrips.WithLabelValues(b.name).Inc()
	metrics.CircuitBreakerState.WithLabelValues(b.name).Set(1)
}

func (b *Breaker) onSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		b.failures = 0
	case StateHalfOpen:
		b.successes++
		if b.successes >= b.successThreshold {
			b.state = StateClosed
			b.failures = 0
			b.successes = 0
			metrics.CircuitBreakerState.WithLabelValues(b.name).Set(0)
		}
	}
}

func (b *Breaker) GetState() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
