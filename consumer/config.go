package consumer

import (
	"context"

	"github.com/Shopify/sarama"
	"go.uber.org/zap"
)

// Config is used to configure the Consumer.
type Config struct {
	*sarama.Config

	// KafkaAddrs holds kafka brokers addresses. There must be at least
	// one entry in the slice.
	// Default to localhost:9092.
	KafkaAddrs []string

	// GroupID is the consumer group to join. Defaults to the client ID.
	GroupID string

	// Topics holds the topics whose records are stored.
	Topics []string

	// Discarded is called when a record could not be stored. When it
	// returns true the record is marked as consumed, otherwise it will
	// be consumed again after a rebalance or a restart.
	// Defaults to logging the error and returning true.
	Discarded func(ctx context.Context, m *sarama.ConsumerMessage, err error) bool

	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

// NewConfig creates a config with sane defaults.
func NewConfig(clientID string, addrs ...string) Config {
	var c Config

	c.Config = sarama.NewConfig()
	c.ClientID = clientID
	c.Consumer.Return.Errors = true
	// Specify that we are using at least Kafka v1.0
	c.Version = sarama.V1_0_0_0
	// Distribute load across instances using round robin strategy
	c.Consumer.Group.Rebalance.Strategy = sarama.BalanceStrategyRoundRobin

	c.KafkaAddrs = addrs
	if c.KafkaAddrs == nil {
		c.KafkaAddrs = []string{"localhost:9092"}
	}
	c.GroupID = clientID
	c.Logger = zap.NewNop()

	return c
}
