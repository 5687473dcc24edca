package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind classifies failures so callers can branch without type switches.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindTransient
	KindPermanent
	KindCircuitOpen
	KindServiceUnavailable
	KindConfiguration
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindPermanent:
		return "permanent"
	case KindCircuitOpen:
		return "circuit_open"
	case KindServiceUnavailable:
		return "service_unavailable"
	case KindConfiguration:
		return "configuration"
	default:
		return "unknown"
	}
}

// Sentinels matched by errors.Is against any *UpstreamError of the same kind.
var (
	ErrTransientUpstream  = errors.New("transient upstream error")
	ErrPermanentUpstream  = errors.New("permanent upstream error")
	ErrCircuitOpen        = errors.New("circuit breaker is open")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrConfiguration      = errors.New("configuration error")
	ErrRateNotFound       = errors.New("exchange rate not found")
)

var kindSentinels = map[ErrorKind]error{
	KindTransient:          ErrTransientUpstream,
	KindPermanent:          ErrPermanentUpstream,
	KindCircuitOpen:        ErrCircuitOpen,
	KindServiceUnavailable: ErrServiceUnavailable,
	KindConfiguration:      ErrConfiguration,
}

// UpstreamError carries the error kind along with the failing operation.
type UpstreamError struct {
	Kind       ErrorKind
	Op         string
	StatusCode int
	RetryAfter time.Duration
	Err        error
}

func (e *UpstreamError) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func (e *UpstreamError) Is(target error) bool {
	sentinel, ok := kindSentinels[e.Kind]
	return ok && sentinel == target
}

func NewTransientError(op string, statusCode int, err error) error {
	return &UpstreamError{Kind: KindTransient, Op: op, StatusCode: statusCode, Err: err}
}

func NewPermanentError(op string, statusCode int, err error) error {
	return &UpstreamError{Kind: KindPermanent, Op: op, StatusCode: statusCode, Err: err}
}

func NewCircuitOpenError(op string, retryAfter time.Duration) error {
	return &UpstreamError{Kind: KindCircuitOpen, Op: op, RetryAfter: retryAfter}
}

func NewServiceUnavailableError(op string, err error) error {
	return &UpstreamError{Kind: KindServiceUnavailable, Op: op, Err: err}
}

func NewConfigurationError(op string, err error) error {
	return &UpstreamError{Kind: KindConfiguration, Op: op, Err: err}
}

// KindOf returns the kind of the outermost *UpstreamError in err's chain.
func KindOf(err error) ErrorKind {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Kind
	}
	return KindUnknown
}

func IsTransient(err error) bool {
	return KindOf(err) == KindTransient
}
