package errcodes

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitOpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker("t", WithMaxFailures(2))
	assert.True(t, cb.Allow())
	cb.RecordFailure()
	assert.Equal(t, StateClosed, cb.State())
	cb.RecordFailure()
	assert.Equal(t, StateOpen, cb.State())
	assert.False(t, cb.Allow())
}

func TestCircuitHalfOpenRequiresConsecutiveSuccesses(t *testing.T) {
	cb := NewCircuitBreaker("t", WithMaxFailures(1), WithResetTimeout(10*time.Millisecond), WithHalfOpenSuccessThreshold(2))
	cb.RecordFailure()
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(15 * time.Millisecond)
	require.Equal(t, StateHalfOpen, cb.State())

	cb.RecordSuccess()
	assert.Equal(t, StateHalfOpen, cb.State(), "one success should not close the circuit")

	cb.RecordSuccess()
	assert.Equal(t, StateClosed, cb.State(), "two consecutive successes should close it")
}

func TestCircuitHalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker("t", WithMaxFailures(1), WithResetTimeout(10*time.Millisecond))
	cb.RecordFailure()
	time.Sleep(15 * time.Millisecond)
	require.Equal(t, StateHalfOpen, cb.State())

	cb.RecordSuccess()
	cb.RecordFailure()
	assert.Equal(t, StateOpen, cb.State())
}

func TestExecuteRejectsWhenOpen(t *testing.T) {
	cb := NewCircuitBreaker("t", WithMaxFailures(1))
	cb.RecordFailure()
	err := cb.Execute(func() error { return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestExecuteWithResultFallback(t *testing.T) {
	cb := NewCircuitBreaker("t", WithMaxFailures(1))
	cb.RecordFailure()
	val, err := ExecuteWithResult(cb, func() (int, error) {
		return 1, nil
	}, func() (int, error) {
		return -1, errors.New("fallback")
	})
	require.Error(t, err)
	assert.Equal(t, -1, val)
}
