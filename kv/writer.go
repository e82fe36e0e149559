package kv

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/retry.v1"
)

// DefaultRetries is the number of times a timed out write is retried
// before giving up.
const DefaultRetries = 2

// RetryPolicy bounds how many times a write is attempted.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, the first one
	// included. It must be positive.
	MaxAttempts int

	// Delay is the minimum interval between the start of two
	// attempts. Zero retries immediately.
	Delay time.Duration
}

// DefaultRetryPolicy returns a policy attempting a write once plus
// DefaultRetries retries, without delay.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: DefaultRetries + 1}
}

func (p RetryPolicy) strategy() retry.Strategy {
	return retry.LimitCount(p.MaxAttempts, retry.Regular{
		Delay: p.Delay,
		Min:   p.MaxAttempts,
	})
}

// Request describes a single-key set.
type Request struct {
	Key string

	// Value is the payload to store. A nil Value cannot be written.
	Value []byte

	// Expiry is rounded down to whole seconds. Zero means the key
	// never expires.
	Expiry time.Duration
}

func (r Request) validate() error {
	if r.Key == "" {
		return errors.New("key must not be empty")
	}
	if r.Value == nil {
		return errors.New("value must not be nil")
	}
	if r.Expiry < 0 {
		return errors.Errorf("expiry must not be negative, got %v", r.Expiry)
	}
	return nil
}

// Outcome describes a successful write.
type Outcome struct {
	// Value is the value the operation resolved to.
	Value []byte

	// Attempts is the number of backend calls it took.
	Attempts int
}

// A WriterOption customizes a Writer.
type WriterOption func(*Writer)

// WithLogger sets the logger used to report retries and failures.
func WithLogger(l *zap.Logger) WriterOption {
	return func(w *Writer) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithAttemptTimeout cancels the context of each attempt after d.
// The wait still lasts until the backend operation has returned, so
// attempts never overlap. By default no deadline is set and only the
// backend's own timeouts apply.
func WithAttemptTimeout(d time.Duration) WriterOption {
	return func(w *Writer) {
		w.attemptTimeout = d
	}
}

// Writer stores values with a fixed Durability, retrying writes that
// time out. It holds no state between calls and is safe for
// concurrent use as long as its Client is.
type Writer struct {
	client         Client
	durability     Durability
	policy         RetryPolicy
	attemptTimeout time.Duration
	logger         *zap.Logger
}

// NewWriter returns a Writer using client. It fails with
// ErrInvalidConfiguration when d or policy is out of range.
func NewWriter(client Client, d Durability, policy RetryPolicy, opts ...WriterOption) (*Writer, error) {
	if client == nil {
		return nil, InvalidConfiguration(errors.New("client must not be nil"))
	}
	// Durability may have been built as a struct literal.
	if _, err := NewDurability(d.persistTo, d.replicateTo); err != nil {
		return nil, err
	}
	if policy.MaxAttempts < 1 {
		return nil, InvalidConfiguration(errors.Errorf("max attempts must be positive, got %d", policy.MaxAttempts))
	}
	if policy.Delay < 0 {
		return nil, InvalidConfiguration(errors.Errorf("retry delay must not be negative, got %v", policy.Delay))
	}

	w := &Writer{
		client:     client,
		durability: d,
		policy:     policy,
		logger:     zap.NewNop(),
	}
	for _, o := range opts {
		o(w)
	}
	return w, nil
}

// Durability returns the durability every write waits for.
func (w *Writer) Durability() Durability {
	return w.durability
}

// Policy returns the retry policy of w.
func (w *Writer) Policy() RetryPolicy {
	return w.policy
}

// Write stores req.Value under req.Key and waits for the durability
// acknowledgement. Timed out attempts are reissued as new operations
// until the retry policy is exhausted. Attempts never overlap.
//
// On failure the returned error is a *Failure.
func (w *Writer) Write(ctx context.Context, req Request) (Outcome, error) {
	if err := req.validate(); err != nil {
		return Outcome{}, InvalidPayload(err)
	}
	expiry := int(req.Expiry / time.Second)

	var (
		attempts int
		last     error
	)
	a := retry.StartWithCancel(w.policy.strategy(), nil, ctx.Done())
	for a.Next() {
		if err := ctx.Err(); err != nil {
			return Outcome{}, w.fail(req, &Failure{Kind: KindBackendFailure, Cause: err, Attempts: attempts})
		}
		attempts++

		res := w.attempt(ctx, req, expiry)
		switch res.Status {
		case ResultOK:
			return Outcome{Value: res.Value, Attempts: attempts}, nil
		case ResultTimeout:
			last = res.Err
			w.logger.Debug("write timed out",
				zap.String("key", req.Key),
				zap.Int("attempt", attempts),
				zap.Int("maxAttempts", w.policy.MaxAttempts),
				zap.Error(res.Err))
		default:
			return Outcome{}, w.fail(req, &Failure{Kind: KindBackendFailure, Cause: res.Err, Attempts: attempts})
		}
	}

	if a.Stopped() {
		return Outcome{}, w.fail(req, &Failure{Kind: KindBackendFailure, Cause: ctx.Err(), Attempts: attempts})
	}
	return Outcome{}, w.fail(req, &Failure{Kind: KindRetryExhausted, Cause: last, Attempts: attempts})
}

// attempt issues one operation and waits for it.
func (w *Writer) attempt(ctx context.Context, req Request, expiry int) Result {
	if w.attemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.attemptTimeout)
		defer cancel()
	}

	h := w.client.AsyncSet(ctx, req.Key, expiry, req.Value, w.durability.persistTo, w.durability.replicateTo)
	if h == nil {
		return Failed(errors.New("client returned no handle"))
	}
	res := h.Wait(ctx)
	if res.Status != ResultOK && res.Err == nil {
		res.Err = errors.Errorf("operation ended with status %s", res.Status)
	}
	return res
}

func (w *Writer) fail(req Request, f *Failure) *Failure {
	w.logger.Warn("write failed",
		zap.String("key", req.Key),
		zap.Stringer("kind", f.Kind),
		zap.Int("attempts", f.Attempts),
		zap.Error(f.Cause))
	return f
}
