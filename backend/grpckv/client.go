// Package grpckv implements kv.Client on top of a unary gRPC Set
// method, and the server side of that method.
//
// Requests are sent as a google.protobuf.Struct and answered with a
// google.protobuf.BytesValue holding the value the store resolved the
// write to. DeadlineExceeded and Unavailable status codes are reported
// as timeouts; every other code is a backend error.
package grpckv

import (
	"context"

	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/heetch/kvsink/kv"
)

const (
	serviceName = "kvsink.Store"
	setMethod   = "/" + serviceName + "/Set"
)

// An Option customizes a Client.
type Option func(*Client)

// WithCallOptions sets the options passed to every call.
func WithCallOptions(opts ...grpc.CallOption) Option {
	return func(c *Client) {
		c.callOpts = append(c.callOpts, opts...)
	}
}

// Client stores values through a gRPC connection.
type Client struct {
	conn     grpc.ClientConnInterface
	callOpts []grpc.CallOption
}

// NewClient returns a Client using conn.
func NewClient(conn grpc.ClientConnInterface, opts ...Option) *Client {
	c := &Client{conn: conn}
	for _, o := range opts {
		o(c)
	}
	return c
}

// AsyncSet implements kv.Client.
func (c *Client) AsyncSet(ctx context.Context, key string, expiry int, value []byte, persistTo, replicateTo int) kv.Handle {
	return kv.Async(ctx, func(ctx context.Context) kv.Result {
		req, err := encodeSetRequest(SetRequest{
			Key:         key,
			Value:       value,
			Expiry:      expiry,
			PersistTo:   persistTo,
			ReplicateTo: replicateTo,
		})
		if err != nil {
			return kv.Failed(err)
		}

		resp := new(wrapperspb.BytesValue)
		if err := c.conn.Invoke(ctx, setMethod, req, resp, c.callOpts...); err != nil {
			return classify(err)
		}
		return kv.OK(resp.GetValue())
	})
}

func classify(err error) kv.Result {
	switch status.Code(err) {
	case codes.DeadlineExceeded, codes.Unavailable:
		return kv.TimedOut(err)
	}
	return kv.Failed(err)
}

func encodeSetRequest(r SetRequest) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(map[string]interface{}{
		"key":         r.Key,
		"value":       r.Value,
		"expiry":      r.Expiry,
		"persistTo":   r.PersistTo,
		"replicateTo": r.ReplicateTo,
	})
	return s, errors.Wrap(err, "failed to encode set request")
}
