package kv

import (
	"context"
)

// Client issues asynchronous store operations against the backend.
// Implementations must be safe for concurrent use.
type Client interface {
	// AsyncSet starts storing value under key. expiry is in seconds,
	// zero meaning the key never expires. The write is acknowledged
	// once it is persisted to persistTo nodes and replicated to
	// replicateTo replicas.
	AsyncSet(ctx context.Context, key string, expiry int, value []byte, persistTo, replicateTo int) Handle
}

// Handle represents an in-flight store operation.
type Handle interface {
	// Wait blocks until the operation resolves or ctx is done, and
	// reports how it ended. It is called at most once per Handle.
	Wait(ctx context.Context) Result
}

// HandleFunc adapts an ordinary function to the Handle interface.
type HandleFunc func(context.Context) Result

// Wait calls f(ctx).
func (f HandleFunc) Wait(ctx context.Context) Result {
	return f(ctx)
}

// Status tells how a store operation ended.
type Status int

const (
	// ResultOK means the operation was acknowledged.
	ResultOK Status = iota

	// ResultTimeout means the outcome of the operation is not known
	// yet. The Writer retries the operation.
	ResultTimeout

	// ResultError means the backend rejected the operation.
	ResultError
)

func (s Status) String() string {
	switch s {
	case ResultOK:
		return "ok"
	case ResultTimeout:
		return "timeout"
	case ResultError:
		return "error"
	}
	return "unknown"
}

// Result holds the outcome of waiting on a Handle.
type Result struct {
	Status Status

	// Value holds the value the operation resolved to when Status
	// is ResultOK.
	Value []byte

	// Err holds the reason of a timeout or an error.
	Err error
}

// OK returns a successful Result resolving to v.
func OK(v []byte) Result {
	return Result{Status: ResultOK, Value: v}
}

// TimedOut returns a Result reporting a transient timeout.
func TimedOut(err error) Result {
	return Result{Status: ResultTimeout, Err: err}
}

// Failed returns a Result reporting a backend error.
func Failed(err error) Result {
	return Result{Status: ResultError, Err: err}
}

// Async runs fn in its own goroutine and returns a Handle waiting for
// its Result. Wait always returns after fn does. When the context
// given to Wait is done first, Wait still waits for fn and reports a
// timeout unless fn succeeded anyway.
func Async(ctx context.Context, fn func(context.Context) Result) Handle {
	done := make(chan Result, 1)
	go func() {
		done <- fn(ctx)
	}()
	return HandleFunc(func(wctx context.Context) Result {
		select {
		case r := <-done:
			return r
		case <-wctx.Done():
		}
		if r := <-done; r.Status == ResultOK {
			return r
		}
		return TimedOut(wctx.Err())
	})
}
