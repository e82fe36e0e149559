package consumer

import (
	"context"
	"sync"

	"github.com/Shopify/sarama"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Consumer reads records from Kafka and stores each of them through a
// Sender.
type Consumer struct {
	group   sarama.ConsumerGroup
	config  Config
	handler *groupHandler

	mu     sync.Mutex
	closed bool
	cancel context.CancelFunc
}

// New joins the consumer group described by config. Records are
// stored through sender.
func New(config Config, sender Sender) (*Consumer, error) {
	if err := config.validate(sender); err != nil {
		return nil, err
	}
	group, err := sarama.NewConsumerGroup(config.KafkaAddrs, config.GroupID, config.Config)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create a consumer group")
	}
	return NewFrom(group, config, sender), nil
}

// NewFrom creates a consumer using the given consumer group.
func NewFrom(group sarama.ConsumerGroup, config Config, sender Sender) *Consumer {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	discarded := config.Discarded
	if discarded == nil {
		discarded = logDiscarded(config.Logger)
	}
	return &Consumer{
		group:  group,
		config: config,
		handler: &groupHandler{
			sender:    sender,
			discarded: discarded,
		},
	}
}

func (c Config) validate(sender Sender) error {
	if sender == nil {
		return errors.New("consumer: sender must not be nil")
	}
	if len(c.Topics) == 0 {
		return errors.New("consumer: at least one topic is required")
	}
	if c.GroupID == "" {
		return errors.New("consumer: group id must not be empty")
	}
	if c.Config == nil {
		return errors.New("consumer: sarama config must not be nil")
	}
	return errors.Wrap(c.Config.Validate(), "consumer: invalid sarama config")
}

// Serve consumes records until Close is called or ctx is done, in
// which case it returns nil. Close must still be called to leave the
// consumer group once Serve has returned.
func (c *Consumer) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.New("consumer: serve called after close")
	}
	c.cancel = cancel
	c.mu.Unlock()

	if c.config.Consumer.Return.Errors {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.logErrors(ctx)
		}()
	}

	for {
		err := c.group.Consume(ctx, c.config.Topics, c.handler)
		if ctx.Err() != nil || errors.Is(err, sarama.ErrClosedConsumerGroup) {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "failed to consume")
		}
	}
}

// logErrors logs group errors until ctx is done or the group is closed.
func (c *Consumer) logErrors(ctx context.Context) {
	errs := c.group.Errors()
	for {
		select {
		case err, ok := <-errs:
			if !ok {
				return
			}
			c.config.Logger.Warn("consumer group error", zap.Error(err))
		case <-ctx.Done():
			return
		}
	}
}

// Close stops Serve and leaves the consumer group. It may be called
// more than once.
func (c *Consumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.cancel != nil {
		c.cancel()
	}
	return errors.Wrap(c.group.Close(), "failed to close consumer group")
}
