package producer

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/heetch/kvsink/codec"
	"github.com/heetch/kvsink/kv"
)

// ErrUnsupportedOperation is returned when creating a producer with a
// Config whose Operation is not OperationPut.
var ErrUnsupportedOperation = errors.New("unsupported operation")

// Producer stores messages in a key-value store and waits for the
// configured durability.
type Producer struct {
	writer *kv.Writer
	config Config
}

// New creates a Producer storing messages through client.
// It fails with kv.ErrInvalidConfiguration when the operation,
// durability or retry settings of config are invalid.
func New(client kv.Client, config Config) (*Producer, error) {
	if err := config.validateOperation(); err != nil {
		return nil, err
	}
	d, err := kv.NewDurability(config.PersistTo, config.ReplicateTo)
	if err != nil {
		return nil, err
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.Codec == nil {
		config.Codec = codec.String()
	}

	w, err := kv.NewWriter(client, d, kv.RetryPolicy{
		MaxAttempts: config.Retries + 1,
		Delay:       config.RetryDelay,
	},
		kv.WithLogger(config.Logger),
		kv.WithAttemptTimeout(config.AttemptTimeout),
	)
	if err != nil {
		return nil, err
	}

	return NewFrom(w, config)
}

// NewFrom creates a producer using the given Writer. Useful when
// wanting to create multiple producers with different configurations
// but sharing the same writer. The durability and retry settings of
// config are ignored in favor of those of w.
func NewFrom(w *kv.Writer, config Config) (*Producer, error) {
	if w == nil {
		return nil, kv.InvalidConfiguration(errors.New("writer must not be nil"))
	}
	if err := config.validateOperation(); err != nil {
		return nil, err
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.Codec == nil {
		config.Codec = codec.String()
	}
	return &Producer{writer: w, config: config}, nil
}

// Send creates a message and stores it synchronously.
// It returns the stored message.
func (p *Producer) Send(ctx context.Context, body interface{}, opts ...Option) (*Message, error) {
	return p.SendMessage(ctx, NewMessage(body, opts...))
}

// SendMessage stores the given message synchronously. On success
// msg.Result and msg.Attempts are set and msg is returned.
//
// Failures to store the message can be inspected with errors.As and
// a *kv.Failure.
func (p *Producer) SendMessage(ctx context.Context, msg *Message) (*Message, error) {
	req, err := p.request(msg)
	if err != nil {
		return nil, err
	}

	out, err := p.writer.Write(ctx, req)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to send message %q", req.Key)
	}

	msg.Result = out.Value
	msg.Attempts = out.Attempts
	msg.codec = p.config.Codec
	return msg, nil
}

// request maps msg to a kv.Request. Every error it returns is a
// kv.ErrInvalidPayload failure.
func (p *Producer) request(msg *Message) (kv.Request, error) {
	if msg == nil {
		return kv.Request{}, kv.InvalidPayload(errors.New("no message"))
	}

	value, err := p.config.Codec.Encode(msg.Body)
	if err != nil {
		return kv.Request{}, kv.InvalidPayload(errors.Wrap(err, "failed to materialize message body"))
	}

	var expiry time.Duration
	if ttl, ok := msg.Headers[HeaderTTL]; ok {
		secs, err := strconv.ParseInt(ttl, 10, 64)
		if err != nil || secs < 0 || secs > math.MaxInt64/int64(time.Second) {
			return kv.Request{}, kv.InvalidPayload(errors.Errorf("invalid %s header %q", HeaderTTL, ttl))
		}
		expiry = time.Duration(secs) * time.Second
	}

	return kv.Request{
		Key:    p.key(msg),
		Value:  value,
		Expiry: expiry,
	}, nil
}

func (p *Producer) key(msg *Message) string {
	switch {
	case msg.Key != "":
		return msg.Key
	case msg.Headers[HeaderID] != "":
		return msg.Headers[HeaderID]
	case p.config.ID != "":
		return p.config.ID
	case p.config.AutoKey:
		return uuids.Hex128()
	}
	return ""
}
