package kv

import (
	"fmt"
)

// Kind classifies why a write failed.
type Kind int

const (
	// KindInvalidConfiguration reports out of range durability or
	// retry parameters. It is only returned by constructors.
	KindInvalidConfiguration Kind = iota + 1

	// KindInvalidPayload reports a request that cannot be written.
	// The backend is never called.
	KindInvalidPayload

	// KindBackendFailure reports a non-timeout error from the backend.
	KindBackendFailure

	// KindRetryExhausted reports that every attempt timed out.
	KindRetryExhausted
)

// The sentinel errors match any *Failure of the same Kind through
// errors.Is.
var (
	ErrInvalidConfiguration error = KindInvalidConfiguration
	ErrInvalidPayload       error = KindInvalidPayload
	ErrBackendFailure       error = KindBackendFailure
	ErrRetryExhausted       error = KindRetryExhausted
)

func (k Kind) String() string {
	switch k {
	case KindInvalidConfiguration:
		return "invalid configuration"
	case KindInvalidPayload:
		return "invalid payload"
	case KindBackendFailure:
		return "backend failure"
	case KindRetryExhausted:
		return "retry exhausted"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error implements the error interface so that a Kind can be used as
// a sentinel.
func (k Kind) Error() string {
	return "kv: " + k.String()
}

// Failure is the error returned for every failed write.
type Failure struct {
	Kind Kind

	// Cause holds the underlying error. For KindRetryExhausted it is
	// the cause reported by the last attempt.
	Cause error

	// Attempts holds the number of backend calls that were made.
	Attempts int
}

func (f *Failure) Error() string {
	msg := "kv: " + f.Kind.String()
	if f.Kind == KindRetryExhausted || f.Kind == KindBackendFailure {
		msg += fmt.Sprintf(" after %d attempt(s)", f.Attempts)
	}
	if f.Cause != nil {
		msg += ": " + f.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (f *Failure) Unwrap() error {
	return f.Cause
}

// Is reports whether target is the sentinel for f's Kind.
func (f *Failure) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == f.Kind
}

// InvalidConfiguration returns a KindInvalidConfiguration failure.
func InvalidConfiguration(cause error) *Failure {
	return &Failure{Kind: KindInvalidConfiguration, Cause: cause}
}

// InvalidPayload returns a KindInvalidPayload failure. It is meant
// for callers that materialize the request value themselves.
func InvalidPayload(cause error) *Failure {
	return &Failure{Kind: KindInvalidPayload, Cause: cause}
}
