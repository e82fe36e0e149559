package producer

import (
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/rogpeppe/fastuuid"

	"github.com/heetch/kvsink/codec"
)

var uuids = fastuuid.MustNewGenerator()

const (
	// HeaderTTL holds the expiry of the stored value, in seconds.
	HeaderTTL = "CCB_TTL"

	// HeaderID holds the key to store the message under, when the
	// message has no Key.
	HeaderID = "CCB_ID"
)

// Message represents a message to be stored.
// Before sending it, the producer materializes Body using the
// configured codec.
type Message struct {
	// Key under which Body is stored. If empty, the HeaderID header
	// is used, then the producer's configured ID.
	Key string

	// Body of the message.
	Body interface{}

	// Headers of the message.
	Headers map[string]string

	// Result holds the value the store acknowledged the write with.
	// It is set by the producer once the message is stored.
	Result []byte

	// Attempts holds the number of attempts it took to store the
	// message.
	Attempts int

	// codec materialized Body. It is set along with Result.
	codec codec.Codec
}

// Decode decodes Result into target with the codec the message was
// stored with. It fails if the message has not been stored yet.
func (m *Message) Decode(target interface{}) error {
	if m.codec == nil {
		return errors.New("message has not been stored")
	}
	return errors.Wrap(m.codec.Decode(m.Result, target), "failed to decode result")
}

// NewMessage creates a message with the given body.
func NewMessage(body interface{}, opts ...Option) *Message {
	m := &Message{
		Body:    body,
		Headers: make(map[string]string),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Option is a function type that receives a pointer to a Message and
// modifies it in place. Options are intended to customize a message
// before sending it. You can do this either by passing them as
// parameters to the NewMessage function, or by calling them directly
// against a Message.
type Option func(*Message)

// Header is an Option that adds a custom header to the message. If
// multiple Header's are defined for the same key, the value of the
// last one wins.
func Header(k, v string) Option {
	return func(m *Message) {
		if m.Headers == nil {
			m.Headers = make(map[string]string)
		}
		m.Headers[k] = v
	}
}

// Key is an Option that specifies the key of the message.
func Key(key string) Option {
	return func(m *Message) {
		m.Key = key
	}
}

// TTL is an Option that makes the stored value expire after d,
// rounded down to the second.
func TTL(d time.Duration) Option {
	return Header(HeaderTTL, strconv.Itoa(int(d/time.Second)))
}
