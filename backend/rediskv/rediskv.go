// Package rediskv implements kv.Client on top of Redis.
//
// A write is a SET with an optional EX expiry. The replicateTo
// requirement is enforced with WAIT and the persistTo requirement with
// WAITAOF, where the first persisted node is the primary itself and
// the others are replicas. When Redis acknowledges fewer nodes than
// required within the wait timeout, the operation is reported as timed
// out so that the writer retries it.
package rediskv

import (
	"context"
	"net"
	"time"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/heetch/kvsink/kv"
)

// DefaultWaitTimeout is how long Redis waits for replicas to
// acknowledge a write.
const DefaultWaitTimeout = time.Second

// An Option customizes a Client.
type Option func(*Client)

// WithWaitTimeout sets the timeout passed to WAIT and WAITAOF.
func WithWaitTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.waitTimeout = d
	}
}

// WithLogger sets the logger of the client.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// Client stores values in Redis.
type Client struct {
	rdb         goredis.UniversalClient
	waitTimeout time.Duration
	logger      *zap.Logger
}

// New returns a Client using rdb.
func New(rdb goredis.UniversalClient, opts ...Option) *Client {
	c := &Client{
		rdb:         rdb,
		waitTimeout: DefaultWaitTimeout,
		logger:      zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// AsyncSet implements kv.Client. On success the operation resolves to
// the stored value.
func (c *Client) AsyncSet(ctx context.Context, key string, expiry int, value []byte, persistTo, replicateTo int) kv.Handle {
	return kv.Async(ctx, func(ctx context.Context) kv.Result {
		if err := c.rdb.Set(ctx, key, value, time.Duration(expiry)*time.Second).Err(); err != nil {
			return classify(errors.Wrap(err, "failed to set value"))
		}
		if persistTo > 0 {
			if res := c.waitAOF(ctx, persistTo); res.Status != kv.ResultOK {
				return res
			}
		}
		if replicateTo > 0 {
			if res := c.wait(ctx, replicateTo); res.Status != kv.ResultOK {
				return res
			}
		}
		return kv.OK(value)
	})
}

func (c *Client) wait(ctx context.Context, replicateTo int) kv.Result {
	n, err := c.rdb.Do(ctx, "WAIT", replicateTo, c.waitTimeout.Milliseconds()).Int64()
	if err != nil {
		return classify(errors.Wrap(err, "failed to wait for replicas"))
	}
	if n < int64(replicateTo) {
		c.logger.Debug("replication not acknowledged",
			zap.Int64("acks", n),
			zap.Int("required", replicateTo))
		return kv.TimedOut(errors.Errorf("replicated to %d of %d replicas", n, replicateTo))
	}
	return kv.OK(nil)
}

func (c *Client) waitAOF(ctx context.Context, persistTo int) kv.Result {
	acks, err := c.rdb.Do(ctx, "WAITAOF", 1, persistTo-1, c.waitTimeout.Milliseconds()).Int64Slice()
	if err != nil {
		return classify(errors.Wrap(err, "failed to wait for persistence"))
	}
	if len(acks) != 2 {
		return kv.Failed(errors.Errorf("unexpected WAITAOF reply %v", acks))
	}
	if persisted := acks[0] + acks[1]; persisted < int64(persistTo) {
		c.logger.Debug("persistence not acknowledged",
			zap.Int64("acks", persisted),
			zap.Int("required", persistTo))
		return kv.TimedOut(errors.Errorf("persisted to %d of %d nodes", persisted, persistTo))
	}
	return kv.OK(nil)
}

// classify reports network timeouts and expired contexts as timeouts
// and everything else as a backend error.
func classify(err error) kv.Result {
	var nerr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &nerr) && nerr.Timeout()) {
		return kv.TimedOut(err)
	}
	return kv.Failed(err)
}
