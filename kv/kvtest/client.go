// Package kvtest provides a scripted kv.Client for tests that need
// deterministic control over how store operations resolve.
package kvtest

import (
	"context"
	"sync"

	"github.com/heetch/kvsink/kv"
)

// Call records the arguments of one AsyncSet call.
type Call struct {
	Key         string
	Expiry      int
	Value       []byte
	PersistTo   int
	ReplicateTo int
}

// Client is an in-memory kv.Client. Each Wait on a Handle it returned
// consumes the next scripted Result; once the script is exhausted the
// last Result is repeated. With no script at all every operation
// succeeds and resolves to the value that was set.
//
// Client is safe for concurrent use.
type Client struct {
	mu          sync.Mutex
	script      []kv.Result
	next        int
	calls       []Call
	waits       int
	inFlight    int
	maxInFlight int
	store       map[string][]byte
}

// New returns a Client resolving operations with the given results,
// in order.
func New(script ...kv.Result) *Client {
	return &Client{
		script: script,
		store:  make(map[string][]byte),
	}
}

// AsyncSet implements kv.Client.
func (c *Client) AsyncSet(ctx context.Context, key string, expiry int, value []byte, persistTo, replicateTo int) kv.Handle {
	c.mu.Lock()
	defer c.mu.Unlock()

	call := Call{
		Key:         key,
		Expiry:      expiry,
		Value:       append([]byte(nil), value...),
		PersistTo:   persistTo,
		ReplicateTo: replicateTo,
	}
	c.calls = append(c.calls, call)
	c.inFlight++
	if c.inFlight > c.maxInFlight {
		c.maxInFlight = c.inFlight
	}
	return &handle{c: c, call: call}
}

type handle struct {
	c    *Client
	call Call
	once sync.Once
	res  kv.Result
}

func (h *handle) Wait(ctx context.Context) kv.Result {
	h.once.Do(func() {
		h.res = h.c.resolve(h.call)
	})
	return h.res
}

func (c *Client) resolve(call Call) kv.Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.waits++
	c.inFlight--

	res := kv.OK(call.Value)
	switch {
	case c.next < len(c.script):
		res = c.script[c.next]
		c.next++
	case len(c.script) > 0:
		res = c.script[len(c.script)-1]
	}
	if res.Status == kv.ResultOK {
		c.store[call.Key] = call.Value
	}
	return res
}

// Calls returns the AsyncSet calls made so far.
func (c *Client) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Call(nil), c.calls...)
}

// SetCount returns the number of AsyncSet calls made so far.
func (c *Client) SetCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

// WaitCount returns the number of handles that have been waited on.
func (c *Client) WaitCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.waits
}

// MaxInFlight returns the largest number of operations that were
// issued but not yet waited on at the same time.
func (c *Client) MaxInFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.maxInFlight
}

// Get returns the value stored under key by a successful operation.
func (c *Client) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.store[key]
	return v, ok
}
