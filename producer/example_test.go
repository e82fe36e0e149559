package producer_test

import (
	"context"
	"fmt"
	"time"

	"github.com/heetch/kvsink/kv/kvtest"
	"github.com/heetch/kvsink/producer"
)

func Example() {
	config := producer.NewConfig("some-id")
	config.PersistTo = 1
	config.ReplicateTo = 1

	p, err := producer.New(kvtest.New(), config)
	if err != nil {
		panic(err)
	}

	msg, err := p.Send(context.Background(), "some body",
		producer.Key("some key"),
		producer.TTL(time.Hour),
	)
	if err != nil {
		panic(err)
	}
	fmt.Println(string(msg.Result), msg.Attempts)
	// Output: some body 1
}
