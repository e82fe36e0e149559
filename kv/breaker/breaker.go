// Package breaker protects a kv.Client with a circuit breaker.
//
// Timed out and failed operations count as failures. Once the breaker
// opens, operations fail immediately with a ResultError wrapping
// gobreaker.ErrOpenState, which a kv.Writer reports as a backend
// failure without retrying it, and the backend is not called until
// the breaker lets a request through again.
package breaker

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/heetch/kvsink/kv"
)

// Settings configures the circuit breaker.
type Settings struct {
	// Name identifies the breaker in logs.
	Name string

	// ConsecutiveFailures is the number of failed operations in a
	// row that opens the breaker. Defaults to 5.
	ConsecutiveFailures uint32

	// OpenTimeout is how long the breaker stays open before letting
	// a request through. Defaults to 30 seconds.
	OpenTimeout time.Duration

	// HalfOpenRequests is the number of requests let through while
	// half-open. Defaults to 1.
	HalfOpenRequests uint32

	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

// Client is a kv.Client guarded by a circuit breaker.
type Client struct {
	next kv.Client
	cb   *gobreaker.CircuitBreaker
}

// Wrap returns a Client sending operations to next through a circuit
// breaker configured with s.
func Wrap(next kv.Client, s Settings) *Client {
	if s.ConsecutiveFailures == 0 {
		s.ConsecutiveFailures = 5
	}
	if s.OpenTimeout == 0 {
		s.OpenTimeout = 30 * time.Second
	}
	if s.HalfOpenRequests == 0 {
		s.HalfOpenRequests = 1
	}
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		next: next,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        s.Name,
			MaxRequests: s.HalfOpenRequests,
			Timeout:     s.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= s.ConsecutiveFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Info("circuit breaker state changed",
					zap.String("name", name),
					zap.Stringer("from", from),
					zap.Stringer("to", to))
			},
		}),
	}
}

// AsyncSet implements kv.Client. The operation is only issued once the
// returned Handle is waited on and the breaker lets it through.
func (c *Client) AsyncSet(ctx context.Context, key string, expiry int, value []byte, persistTo, replicateTo int) kv.Handle {
	return kv.HandleFunc(func(wctx context.Context) kv.Result {
		var res kv.Result
		_, err := c.cb.Execute(func() (interface{}, error) {
			res = c.next.AsyncSet(ctx, key, expiry, value, persistTo, replicateTo).Wait(wctx)
			if res.Status == kv.ResultOK {
				return nil, nil
			}
			if res.Err != nil {
				return nil, res.Err
			}
			return nil, errors.Errorf("operation ended with status %s", res.Status)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return kv.Failed(errors.Wrapf(err, "breaker %q rejected operation", c.cb.Name()))
		}
		return res
	})
}

// State returns the current state of the breaker.
func (c *Client) State() gobreaker.State {
	return c.cb.State()
}
