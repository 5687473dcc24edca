package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	"currency-rate-proxy/internal/domain/model"
	"currency-rate-proxy/pkg/logger"
)

type PipelineConfig struct {
	TotalTimeout   time.Duration
	AttemptTimeout time.Duration
	MaxAttempts    int
	Backoff        Backoff
}

func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		TotalTimeout:   60 * time.Second,
		AttemptTimeout: 10 * time.Second,
		MaxAttempts:    3,
		Backoff: Backoff{
			BaseDelay: time.Second,
			MaxDelay:  30 * time.Second,
		},
	}
}

// AttemptObserver is told about every attempt outcome and every retry.
// Implementations must be safe for concurrent use.
type AttemptObserver interface {
	ObserveAttempt(op string, outcome string)
	ObserveRetry(op string)
}

// Pipeline runs upstream calls through, outermost first: a total timeout,
// retries on transient errors, the shared circuit breaker, and a per-attempt
// timeout.
type Pipeline struct {
	cfg      PipelineConfig
	breaker  *CircuitBreaker
	log      *logger.Logger
	observer AttemptObserver
}

func NewPipeline(cfg PipelineConfig, breaker *CircuitBreaker, log *logger.Logger) *Pipeline {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &Pipeline{
		cfg:     cfg,
		breaker: breaker,
		log:     log,
	}
}

func (p *Pipeline) WithObserver(o AttemptObserver) *Pipeline {
	p.observer = o
	return p
}

func (p *Pipeline) Breaker() *CircuitBreaker {
	return p.breaker
}

// Execute runs fn and returns nil, a permanent error, a transient error
// after retries are exhausted, a circuit-open error, or the caller's
// context error when the caller cancelled.
func (p *Pipeline) Execute(ctx context.Context, op string, fn func(context.Context) error) error {
	callerCtx := ctx
	ctx, cancel := context.WithTimeout(ctx, p.cfg.TotalTimeout)
	defer cancel()

	var lastErr error
	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := p.cfg.Backoff.Delay(attempt)
			p.log.Debug("Retrying upstream call", "op", op, "attempt", attempt, "delay", delay, "error", lastErr)
			p.observeRetry(op)

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return p.abortError(callerCtx, op, lastErr)
			case <-timer.C:
			}
		}

		err := p.attempt(callerCtx, ctx, op, fn)
		if err == nil {
			return nil
		}
		lastErr = err

		if callerCtx.Err() != nil {
			return err
		}
		if !model.IsTransient(err) {
			return err
		}
		if ctx.Err() != nil {
			return p.abortError(callerCtx, op, lastErr)
		}
	}

	p.log.Warn("Upstream call failed after retries", "op", op, "attempts", p.cfg.MaxAttempts, "error", lastErr)
	return lastErr
}

func (p *Pipeline) attempt(callerCtx, ctx context.Context, op string, fn func(context.Context) error) error {
	if err := p.breaker.Allow(op); err != nil {
		p.observeAttempt(op, "short_circuited")
		return err
	}

	attemptCtx, cancel := context.WithTimeout(ctx, p.cfg.AttemptTimeout)
	defer cancel()

	err := fn(attemptCtx)
	if err == nil {
		p.breaker.RecordSuccess()
		p.observeAttempt(op, "success")
		return nil
	}

	if callerCtx.Err() != nil {
		p.breaker.Release()
		p.observeAttempt(op, "cancelled")
		return callerCtx.Err()
	}

	err = classify(op, err)
	switch model.KindOf(err) {
	case model.KindTransient:
		p.breaker.RecordFailure()
		p.observeAttempt(op, "transient_failure")
	default:
		// The upstream answered; the request itself was rejected.
		p.breaker.RecordSuccess()
		p.observeAttempt(op, "permanent_failure")
	}
	return err
}

// abortError reports why the retry loop stopped early: caller
// cancellation is passed through, the total timeout is transient.
func (p *Pipeline) abortError(callerCtx context.Context, op string, lastErr error) error {
	if err := callerCtx.Err(); err != nil {
		return err
	}
	return model.NewTransientError(op, 0, fmt.Errorf("total timeout of %s exceeded: %w", p.cfg.TotalTimeout, lastErr))
}

// classify turns unclassified errors into upstream errors. Timeouts are
// transient; anything else the fetcher did not classify is permanent.
func classify(op string, err error) error {
	if model.KindOf(err) != model.KindUnknown {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return model.NewTransientError(op, 0, err)
	}
	return model.NewPermanentError(op, 0, err)
}

func (p *Pipeline) observeAttempt(op, outcome string) {
	if p.observer != nil {
		p.observer.ObserveAttempt(op, outcome)
	}
}

func (p *Pipeline) observeRetry(op string) {
	if p.observer != nil {
		p.observer.ObserveRetry(op)
	}
}

// Run is Execute for calls that produce a value.
func Run[T any](ctx context.Context, p *Pipeline, op string, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := p.Execute(ctx, op, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
