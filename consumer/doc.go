// Package consumer stores records consumed from Kafka.
//
// A Consumer joins a Kafka consumer group on the configured topics and
// hands every record, in partition order, to a Sender, usually a
// *producer.Producer. The record key, value and headers become the
// message key, body and headers, so a CCB_TTL or CCB_ID record header
// drives the expiry and key of the stored value.
//
// A record that cannot be stored is passed to Config.Discarded, which
// decides whether it is marked as consumed:
//
//    cfg := consumer.NewConfig("my-client", "localhost:9092")
//    cfg.Topics = []string{"events"}
//    cfg.Discarded = func(ctx context.Context, m *sarama.ConsumerMessage, err error) bool {
//        return !errors.Is(err, kv.ErrRetryExhausted)
//    }
//    c, err := consumer.New(cfg, p)
//
// Serve blocks until Close is called.
package consumer
