package producer

import (
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/heetch/kvsink/codec"
	"github.com/heetch/kvsink/kv"
)

// OperationPut stores the message body under the message key. It is
// the only supported operation.
const OperationPut = "CCB_PUT"

// Config is used to configure the Producer.
type Config struct {
	// ID is the key used for messages that carry neither a key nor
	// a HeaderID header.
	ID string

	// Operation must be OperationPut.
	Operation string

	// PersistTo is the number of nodes a write must be persisted to,
	// between 0 and kv.MaxPersistTo.
	PersistTo int

	// ReplicateTo is the number of replicas a write must reach,
	// between 0 and kv.MaxReplicateTo.
	ReplicateTo int

	// Retries is the number of times a timed out write is retried.
	// Zero means a single attempt. NewConfig sets it to
	// kv.DefaultRetries.
	Retries int

	// RetryDelay is the minimum interval between two attempts.
	// Zero retries timed out writes immediately.
	RetryDelay time.Duration

	// AttemptTimeout, when positive, cancels the context of every
	// attempt after that long. Zero leaves timeouts to the backend.
	AttemptTimeout time.Duration

	// Codec turns message bodies into stored values.
	// Defaults to codec.String.
	Codec codec.Codec

	// AutoKey generates a unique key for messages that have no key,
	// no HeaderID header, and when ID is empty.
	AutoKey bool

	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

// NewConfig creates a config with sane defaults.
func NewConfig(id string) Config {
	return Config{
		ID:        id,
		Operation: OperationPut,
		Retries:   kv.DefaultRetries,
		Codec:     codec.String(),
		Logger:    zap.NewNop(),
	}
}

func (c Config) validateOperation() error {
	if c.Operation != OperationPut {
		return kv.InvalidConfiguration(errors.Wrapf(ErrUnsupportedOperation, "operation %q", c.Operation))
	}
	return nil
}
