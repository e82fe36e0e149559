package consumer

import (
	"context"
	"sync"

	"github.com/Shopify/sarama"

	"github.com/heetch/kvsink/producer"
)

// consumerGroupClaim implements sarama.ConsumerGroupClaim interface.
type consumerGroupClaim struct {
	ch    chan *sarama.ConsumerMessage
	topic string
}

func (c consumerGroupClaim) Topic() string {
	return c.topic
}

func (consumerGroupClaim) Partition() int32 {
	return int32(0)
}

func (consumerGroupClaim) InitialOffset() int64 {
	return int64(0)
}

func (consumerGroupClaim) HighWaterMarkOffset() int64 {
	return int64(1)
}

func (c consumerGroupClaim) Messages() <-chan *sarama.ConsumerMessage {
	return c.ch
}

// consumerGroupSession implements sarama.ConsumerGroupSession interface
// and records marked messages.
type consumerGroupSession struct {
	ctx    context.Context
	mu     sync.Mutex
	marked []int64
}

func (*consumerGroupSession) Claims() map[string][]int32 {
	return nil
}

func (*consumerGroupSession) MemberID() string {
	return ""
}

func (*consumerGroupSession) GenerationID() int32 {
	return int32(0)
}

func (*consumerGroupSession) MarkOffset(topic string, partition int32, offset int64, metadata string) {
}

func (*consumerGroupSession) Commit() {
}

func (*consumerGroupSession) ResetOffset(topic string, partition int32, offset int64, metadata string) {
}

func (s *consumerGroupSession) MarkMessage(msg *sarama.ConsumerMessage, metadata string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked = append(s.marked, msg.Offset)
}

func (s *consumerGroupSession) Context() context.Context {
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}

func (s *consumerGroupSession) markedOffsets() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.marked...)
}

// testSender implements the Sender interface for testing purposes.
// It fails messages whose body is in fail.
type testSender struct {
	mu   sync.Mutex
	fail map[string]error
	msgs []*producer.Message
}

func (s *testSender) SendMessage(ctx context.Context, m *producer.Message) (*producer.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, m)
	if body, ok := m.Body.([]byte); ok {
		if err := s.fail[string(body)]; err != nil {
			return nil, err
		}
	}
	return m, nil
}

// consumerGroup implements sarama.ConsumerGroup. Consume blocks until
// its context is done.
type consumerGroup struct {
	errs chan error
}

func (g *consumerGroup) Consume(ctx context.Context, topics []string, handler sarama.ConsumerGroupHandler) error {
	<-ctx.Done()
	return nil
}

func (g *consumerGroup) Errors() <-chan error {
	return g.errs
}

func (*consumerGroup) Close() error {
	return nil
}

func (*consumerGroup) Pause(partitions map[string][]int32) {}

func (*consumerGroup) Resume(partitions map[string][]int32) {}

func (*consumerGroup) PauseAll() {}

func (*consumerGroup) ResumeAll() {}
