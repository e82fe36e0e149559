package consumer

import (
	"context"

	"github.com/Shopify/sarama"
	"go.uber.org/zap"

	"github.com/heetch/kvsink/producer"
)

// Sender stores messages. It is implemented by *producer.Producer.
type Sender interface {
	SendMessage(context.Context, *producer.Message) (*producer.Message, error)
}

// FromKafka converts a Kafka record into a message. The record key
// becomes the message key, the record value its body, and record
// headers its headers. A record without value yields a message
// without body, which the producer rejects.
func FromKafka(rec *sarama.ConsumerMessage) *producer.Message {
	m := &producer.Message{
		Key:     string(rec.Key),
		Headers: make(map[string]string, len(rec.Headers)),
	}
	if rec.Value != nil {
		m.Body = rec.Value
	}
	for _, h := range rec.Headers {
		if h == nil {
			continue
		}
		m.Headers[string(h.Key)] = string(h.Value)
	}
	return m
}

// groupHandler implements sarama.ConsumerGroupHandler.
type groupHandler struct {
	sender    Sender
	discarded func(ctx context.Context, m *sarama.ConsumerMessage, err error) bool
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim stores the records of claim one at a time, in order.
func (h *groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	ctx := sess.Context()
	for {
		select {
		case rec, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			h.handle(ctx, sess, rec)
		case <-ctx.Done():
			return nil
		}
	}
}

func (h *groupHandler) handle(ctx context.Context, sess sarama.ConsumerGroupSession, rec *sarama.ConsumerMessage) {
	if _, err := h.sender.SendMessage(ctx, FromKafka(rec)); err != nil {
		if !h.discarded(ctx, rec, err) {
			return
		}
	}
	sess.MarkMessage(rec, "")
}

func logDiscarded(logger *zap.Logger) func(context.Context, *sarama.ConsumerMessage, error) bool {
	return func(_ context.Context, m *sarama.ConsumerMessage, err error) bool {
		logger.Error("failed to store record",
			zap.String("topic", m.Topic),
			zap.Int32("partition", m.Partition),
			zap.Int64("offset", m.Offset),
			zap.Error(err))
		return true
	}
}
