package resilience

import (
	"math/rand"
	"time"
)

// Backoff computes exponential retry delays with additive jitter.
type Backoff struct {
	BaseDelay time.Duration
	MaxDelay  time.Duration

	// Jitter returns a random duration in [0, d). Defaults to a uniform draw.
	Jitter func(d time.Duration) time.Duration
}

// Delay returns the wait before the given attempt (1-based). The first
// attempt never waits; attempt n>=2 waits min(max, base*2^(n-2)) plus jitter
// in [0, that delay).
func (b Backoff) Delay(attempt int) time.Duration {
	d := b.baseDelay(attempt)
	if d <= 0 {
		return 0
	}
	jitter := b.Jitter
	if jitter == nil {
		jitter = uniformJitter
	}
	return d + jitter(d)
}

func (b Backoff) baseDelay(attempt int) time.Duration {
	if attempt < 2 || b.BaseDelay <= 0 {
		return 0
	}
	shift := attempt - 2
	// 2^30 seconds is far beyond any sane MaxDelay.
	if shift > 30 {
		return b.MaxDelay
	}
	d := b.BaseDelay * time.Duration(1<<shift)
	if b.MaxDelay > 0 && d > b.MaxDelay {
		return b.MaxDelay
	}
	return d
}

func uniformJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(d)))
}
