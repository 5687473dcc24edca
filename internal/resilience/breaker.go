package resilience

import (
	"sync"
	"time"

	"currency-rate-proxy/internal/domain/model"
	"currency-rate-proxy/pkg/logger"
)

type BreakerConfig struct {
	Name           string
	FailureRatio   float64       // failure share that trips the breaker
	MinThroughput  int           // requests needed in the window before tripping
	SamplingWindow time.Duration // counters reset once the window is older than this
	BreakDuration  time.Duration // time spent open before a half-open trial
}

func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:           name,
		FailureRatio:   0.5,
		MinThroughput:  5,
		SamplingWindow: 30 * time.Second,
		BreakDuration:  60 * time.Second,
	}
}

// CircuitBreaker guards one upstream dependency. A single instance is shared
// by every call to that dependency; it is safe for concurrent use.
type CircuitBreaker struct {
	cfg BreakerConfig
	log *logger.Logger
	now func() time.Time

	mu            sync.Mutex
	state         model.CircuitState
	trialInFlight bool

	onStateChange func(name string, from, to model.CircuitPhase)
}

func NewCircuitBreaker(cfg BreakerConfig, log *logger.Logger) *CircuitBreaker {
	cb := &CircuitBreaker{
		cfg: cfg,
		log: log,
		now: time.Now,
	}
	cb.state.WindowStart = cb.now()
	return cb
}

// OnStateChange registers a callback invoked (under the breaker lock) on
// every phase transition.
func (cb *CircuitBreaker) OnStateChange(fn func(name string, from, to model.CircuitPhase)) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.onStateChange = fn
}

func (cb *CircuitBreaker) Name() string {
	return cb.cfg.Name
}

// Allow reports whether a call may proceed. It returns a circuit-open error
// while the breaker is open, or while a half-open trial is already running.
func (cb *CircuitBreaker) Allow(op string) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := cb.now()
	switch cb.state.Phase {
	case model.CircuitClosed:
		return nil

	case model.CircuitOpen:
		elapsed := now.Sub(cb.state.OpenedAt)
		if elapsed < cb.cfg.BreakDuration {
			return model.NewCircuitOpenError(op, cb.cfg.BreakDuration-elapsed)
		}
		cb.transition(model.CircuitHalfOpen, now)
		cb.trialInFlight = true
		return nil

	case model.CircuitHalfOpen:
		if cb.trialInFlight {
			return model.NewCircuitOpenError(op, 0)
		}
		cb.trialInFlight = true
		return nil
	}
	return nil
}

func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := cb.now()
	switch cb.state.Phase {
	case model.CircuitHalfOpen:
		cb.trialInFlight = false
		cb.transition(model.CircuitClosed, now)
	case model.CircuitClosed:
		cb.rollWindow(now)
		cb.state.WindowRequestCount++
		cb.state.ConsecutiveFailures = 0
	}
}

func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := cb.now()
	switch cb.state.Phase {
	case model.CircuitHalfOpen:
		cb.trialInFlight = false
		cb.state.ConsecutiveFailures++
		cb.transition(model.CircuitOpen, now)
	case model.CircuitClosed:
		cb.rollWindow(now)
		cb.state.WindowRequestCount++
		cb.state.WindowFailureCount++
		cb.state.ConsecutiveFailures++
		if cb.shouldTrip() {
			cb.transition(model.CircuitOpen, now)
		}
	}
}

// Release gives back an allowed call that produced no verdict on the
// upstream's health, such as a caller cancellation.
func (cb *CircuitBreaker) Release() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state.Phase == model.CircuitHalfOpen {
		cb.trialInFlight = false
	}
}

// State returns a copy of the current bookkeeping. An open breaker whose
// break duration has elapsed still reports open until the next Allow.
func (cb *CircuitBreaker) State() model.CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) shouldTrip() bool {
	s := cb.state
	if s.WindowRequestCount < cb.cfg.MinThroughput {
		return false
	}
	return float64(s.WindowFailureCount)/float64(s.WindowRequestCount) >= cb.cfg.FailureRatio
}

func (cb *CircuitBreaker) rollWindow(now time.Time) {
	if now.Sub(cb.state.WindowStart) > cb.cfg.SamplingWindow {
		cb.resetWindow(now)
	}
}

func (cb *CircuitBreaker) resetWindow(now time.Time) {
	cb.state.WindowStart = now
	cb.state.WindowRequestCount = 0
	cb.state.WindowFailureCount = 0
}

func (cb *CircuitBreaker) transition(to model.CircuitPhase, now time.Time) {
	from := cb.state.Phase
	cb.state.Phase = to
	cb.resetWindow(now)

	switch to {
	case model.CircuitOpen:
		cb.state.OpenedAt = now
		cb.log.Warn("Circuit breaker opened",
			"name", cb.cfg.Name,
			"from", from.String(),
			"consecutive_failures", cb.state.ConsecutiveFailures,
			"break_duration", cb.cfg.BreakDuration,
		)
	case model.CircuitHalfOpen:
		cb.log.Info("Circuit breaker half-open, allowing trial call", "name", cb.cfg.Name)
	case model.CircuitClosed:
		cb.state.ConsecutiveFailures = 0
		cb.log.Info("Circuit breaker closed", "name", cb.cfg.Name)
	}

	if cb.onStateChange != nil {
		cb.onStateChange(cb.cfg.Name, from, to)
	}
}
