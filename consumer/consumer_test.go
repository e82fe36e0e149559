package consumer_test

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Shopify/sarama"
	qt "github.com/frankban/quicktest"
	"github.com/heetch/kafkatest"

	"github.com/heetch/kvsink/consumer"
	"github.com/heetch/kvsink/kv/kvtest"
	"github.com/heetch/kvsink/producer"
)

type testKafka struct {
	producer sarama.SyncProducer
	kt       *kafkatest.Kafka
}

func newTestKafka(c *qt.C) *testKafka {
	kt, err := kafkatest.New()
	if errors.Is(err, kafkatest.ErrDisabled) {
		c.Skipf("skipping integration tests")
	}
	c.Assert(err, qt.IsNil)
	c.Cleanup(func() {
		c.Check(kt.Close(), qt.IsNil)
	})

	cfg := kt.Config()
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	p, err := sarama.NewSyncProducer(kt.Addrs(), cfg)
	c.Assert(err, qt.IsNil)
	c.Cleanup(func() { c.Check(p.Close(), qt.IsNil) })

	return &testKafka{kt: kt, producer: p}
}

func (k *testKafka) newConsumer(c *qt.C, topic string, sender consumer.Sender) *consumer.Consumer {
	// Note: if we use the same consumer group name
	// for all consumers, we see sporadic timeout issues.
	cfg := consumer.NewConfig(randomName("testclient"), k.kt.Addrs()...)
	k.kt.InitConfig(cfg.Config)
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	cfg.Topics = []string{topic}
	cs, err := consumer.New(cfg, sender)
	c.Assert(err, qt.IsNil)
	return cs
}

func randomName(prefix string) string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return fmt.Sprintf("%s-%x", prefix, buf)
}

func TestConsumerStoresRecords(t *testing.T) {
	c := qt.New(t)

	k := newTestKafka(c)
	topic := k.kt.NewTopic()

	_, _, err := k.producer.SendMessage(&sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder("a"),
		Value: sarama.StringEncoder(`{"x":1}`),
		Headers: []sarama.RecordHeader{{
			Key:   []byte(producer.HeaderTTL),
			Value: []byte("60"),
		}},
	})
	c.Assert(err, qt.IsNil)

	client := kvtest.New()
	p, err := producer.New(client, producer.NewConfig(""))
	c.Assert(err, qt.IsNil)

	cs := k.newConsumer(c, topic, p)
	serveDone := make(chan error)
	go func() {
		serveDone <- cs.Serve(context.Background())
	}()

	// For some reason, it's not uncommon for the first message
	// to be delivered 10 seconds after starting (the JoinGroup
	// call can be very slow), hence the long wait time.
	deadline := time.Now().Add(15 * time.Second)
	for client.WaitCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	c.Assert(client.Calls(), qt.DeepEquals, []kvtest.Call{{
		Key:    "a",
		Expiry: 60,
		Value:  []byte(`{"x":1}`),
	}})

	c.Check(cs.Close(), qt.IsNil)
	select {
	case err := <-serveDone:
		c.Assert(err, qt.IsNil)
	case <-time.After(5 * time.Second):
		c.Fatalf("timed out waiting for Serve to return")
	}
	// closing twice is fine.
	c.Check(cs.Close(), qt.IsNil)
}

func TestCloseBeforeServe(t *testing.T) {
	c := qt.New(t)

	k := newTestKafka(c)
	p, err := producer.New(kvtest.New(), producer.NewConfig("id"))
	c.Assert(err, qt.IsNil)

	cs := k.newConsumer(c, k.kt.NewTopic(), p)
	c.Assert(cs.Close(), qt.IsNil)
	c.Assert(cs.Serve(context.Background()), qt.ErrorMatches, "consumer: serve called after close")
}
