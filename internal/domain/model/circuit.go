package model

import "time"

type CircuitPhase int

const (
	CircuitClosed CircuitPhase = iota
	CircuitOpen
	CircuitHalfOpen
)

func (p CircuitPhase) String() string {
	switch p {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// CircuitState is a point-in-time copy of a breaker's bookkeeping.
type CircuitState struct {
	Phase               CircuitPhase
	ConsecutiveFailures int
	WindowFailureCount  int
	WindowRequestCount  int
	WindowStart         time.Time
	OpenedAt            time.Time
}
