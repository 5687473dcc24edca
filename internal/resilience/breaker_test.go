package resilience

import (
	"sync"
	"testing"
	"time"

	"currency-rate-proxy/internal/domain/model"
	"currency-rate-proxy/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestBreaker(clock *fakeClock) *CircuitBreaker {
	cb := NewCircuitBreaker(DefaultBreakerConfig("test"), logger.Discard())
	cb.now = clock.Now
	cb.state.WindowStart = clock.Now()
	return cb
}

func TestCircuitBreaker_AllowInClosed(t *testing.T) {
	cb := newTestBreaker(newFakeClock())

	require.NoError(t, cb.Allow("op"))
	assert.Equal(t, model.CircuitClosed, cb.State().Phase)
}

func TestCircuitBreaker_NeedsMinimumThroughput(t *testing.T) {
	cb := newTestBreaker(newFakeClock())

	for i := 0; i < 4; i++ {
		cb.RecordFailure()
	}

	state := cb.State()
	assert.Equal(t, model.CircuitClosed, state.Phase, "4 requests are below the minimum throughput")
	assert.Equal(t, 4, state.WindowFailureCount)
	assert.Equal(t, 4, state.ConsecutiveFailures)
}

func TestCircuitBreaker_OpensOnFailureRatio(t *testing.T) {
	cb := newTestBreaker(newFakeClock())

	cb.RecordSuccess()
	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()
	assert.Equal(t, model.CircuitClosed, cb.State().Phase)

	cb.RecordFailure() // 3 of 5

	assert.Equal(t, model.CircuitOpen, cb.State().Phase)
	err := cb.Allow("op")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrCircuitOpen)
}

func TestCircuitBreaker_StaysClosedBelowRatio(t *testing.T) {
	cb := newTestBreaker(newFakeClock())

	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordSuccess()
	cb.RecordSuccess()
	cb.RecordSuccess()

	assert.Equal(t, model.CircuitClosed, cb.State().Phase)
}

func TestCircuitBreaker_WindowResets(t *testing.T) {
	clock := newFakeClock()
	cb := newTestBreaker(clock)

	for i := 0; i < 4; i++ {
		cb.RecordFailure()
	}
	clock.Advance(31 * time.Second)
	cb.RecordFailure()

	state := cb.State()
	assert.Equal(t, model.CircuitClosed, state.Phase)
	assert.Equal(t, 1, state.WindowRequestCount)
	assert.Equal(t, 1, state.WindowFailureCount)
}

func openBreaker(cb *CircuitBreaker) {
	for i := 0; i < 5; i++ {
		cb.RecordFailure()
	}
}

func TestCircuitBreaker_HalfOpenAfterBreakDuration(t *testing.T) {
	clock := newFakeClock()
	cb := newTestBreaker(clock)
	openBreaker(cb)

	clock.Advance(59 * time.Second)
	assert.ErrorIs(t, cb.Allow("op"), model.ErrCircuitOpen)

	clock.Advance(time.Second)
	require.NoError(t, cb.Allow("op"), "trial call should be allowed")
	assert.Equal(t, model.CircuitHalfOpen, cb.State().Phase)

	assert.ErrorIs(t, cb.Allow("op"), model.ErrCircuitOpen, "only one trial at a time")
}

func TestCircuitBreaker_HalfOpenSuccessCloses(t *testing.T) {
	clock := newFakeClock()
	cb := newTestBreaker(clock)
	openBreaker(cb)
	clock.Advance(time.Minute)
	require.NoError(t, cb.Allow("op"))

	cb.RecordSuccess()

	state := cb.State()
	assert.Equal(t, model.CircuitClosed, state.Phase)
	assert.Zero(t, state.WindowRequestCount)
	assert.Zero(t, state.WindowFailureCount)
	assert.Zero(t, state.ConsecutiveFailures)
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	clock := newFakeClock()
	cb := newTestBreaker(clock)
	openBreaker(cb)
	firstOpen := cb.State().OpenedAt

	clock.Advance(time.Minute)
	require.NoError(t, cb.Allow("op"))
	cb.RecordFailure()

	state := cb.State()
	assert.Equal(t, model.CircuitOpen, state.Phase)
	assert.True(t, state.OpenedAt.After(firstOpen))
	assert.Zero(t, state.WindowRequestCount)
	assert.ErrorIs(t, cb.Allow("op"), model.ErrCircuitOpen)
}

func TestCircuitBreaker_ReleaseFreesTrial(t *testing.T) {
	clock := newFakeClock()
	cb := newTestBreaker(clock)
	openBreaker(cb)
	clock.Advance(time.Minute)

	require.NoError(t, cb.Allow("op"))
	cb.Release()

	require.NoError(t, cb.Allow("op"))
	assert.Equal(t, model.CircuitHalfOpen, cb.State().Phase)
}

func TestCircuitBreaker_TransitionsObservedOnce(t *testing.T) {
	cb := newTestBreaker(newFakeClock())

	var mu sync.Mutex
	var transitions []model.CircuitPhase
	cb.OnStateChange(func(_ string, _, to model.CircuitPhase) {
		mu.Lock()
		transitions = append(transitions, to)
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cb.RecordFailure()
		}()
	}
	wg.Wait()

	assert.Equal(t, []model.CircuitPhase{model.CircuitOpen}, transitions)
}
