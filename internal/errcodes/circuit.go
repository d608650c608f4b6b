package errcodes

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when the circuit breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State represents the circuit breaker state.
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

// CircuitBreaker implements the closed/open/half-open state machine of
// §4.10: closed passes requests through and opens after
// failure_threshold consecutive failures; open rejects until
// reset_timeout elapses, then moves to half-open; half-open requires
// half_open_success_threshold consecutive successes before returning to
// closed, and any failure sends it back to open immediately.
type CircuitBreaker struct {
	name                 string
	failureThreshold     int
	resetTimeout         time.Duration
	halfOpenSuccessNeeded int

	mu                sync.Mutex
	state             State
	consecutiveFails  int
	consecutiveOK     int // successes while half-open
	lastFailure       time.Time
}

type CircuitBreakerOption func(*CircuitBreaker)

func WithMaxFailures(n int) CircuitBreakerOption {
	return func(cb *CircuitBreaker) { cb.failureThreshold = n }
}

func WithResetTimeout(d time.Duration) CircuitBreakerOption {
	return func(cb *CircuitBreaker) { cb.resetTimeout = d }
}

// WithHalfOpenSuccessThreshold sets how many consecutive successes in
// half-open are required before the circuit closes. Default 2.
func WithHalfOpenSuccessThreshold(n int) CircuitBreakerOption {
	return func(cb *CircuitBreaker) { cb.halfOpenSuccessNeeded = n }
}

// NewCircuitBreaker creates a circuit breaker. Defaults: 5 failures,
// 60s reset timeout, 2 consecutive half-open successes.
func NewCircuitBreaker(name string, opts ...CircuitBreakerOption) *CircuitBreaker {
	cb := &CircuitBreaker{
		name:                  name,
		failureThreshold:      5,
		resetTimeout:          60 * time.Second,
		halfOpenSuccessNeeded: 2,
		state:                 StateClosed,
	}
	for _, opt := range opts {
		opt(cb)
	}
	return cb
}

func (cb *CircuitBreaker) Name() string { return cb.name }

func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentStateLocked()
}

// currentStateLocked resolves an open circuit whose reset timeout has
// elapsed into half-open. Must be called with cb.mu held.
func (cb *CircuitBreaker) currentStateLocked() State {
	if cb.state == StateOpen && time.Since(cb.lastFailure) > cb.resetTimeout {
		cb.state = StateHalfOpen
		cb.consecutiveOK = 0
	}
	return cb.state
}

func (cb *CircuitBreaker) Failures() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.consecutiveFails
}

func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentStateLocked() != StateOpen
}

func (cb *CircuitBreaker) recordSuccessLocked() {
	switch cb.state {
	case StateHalfOpen:
		cb.consecutiveOK++
		if cb.consecutiveOK >= cb.halfOpenSuccessNeeded {
			cb.state = StateClosed
			cb.consecutiveFails = 0
			cb.consecutiveOK = 0
		}
	default:
		cb.state = StateClosed
		cb.consecutiveFails = 0
	}
}

func (cb *CircuitBreaker) recordFailureLocked() {
	cb.lastFailure = time.Now()
	cb.consecutiveOK = 0
	if cb.state == StateHalfOpen {
		cb.state = StateOpen
		return
	}
	cb.consecutiveFails++
	if cb.consecutiveFails >= cb.failureThreshold {
		cb.state = StateOpen
	}
}

// RecordSuccess records a successful call outside Execute.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.currentStateLocked()
	cb.recordSuccessLocked()
}

// RecordFailure records a failed call outside Execute.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.currentStateLocked()
	cb.recordFailureLocked()
}

// Execute runs fn through the circuit breaker. Returns ErrCircuitOpen
// without calling fn if the circuit is open.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	cb.mu.Lock()
	if cb.currentStateLocked() == StateOpen {
		cb.mu.Unlock()
		return ErrCircuitOpen
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		cb.recordFailureLocked()
		return err
	}
	cb.recordSuccessLocked()
	return nil
}

// ExecuteWithResult is Execute for functions returning a value, with
// fallback invoked when the circuit is open (fn is then not called) or
// when fn fails.
func ExecuteWithResult[T any](cb *CircuitBreaker, fn func() (T, error), fallback func() (T, error)) (T, error) {
	cb.mu.Lock()
	open := cb.currentStateLocked() == StateOpen
	cb.mu.Unlock()
	if open {
		return fallback()
	}

	result, err := fn()

	cb.mu.Lock()
	if err != nil {
		cb.recordFailureLocked()
		cb.mu.Unlock()
		return fallback()
	}
	cb.recordSuccessLocked()
	cb.mu.Unlock()
	return result, nil
}
