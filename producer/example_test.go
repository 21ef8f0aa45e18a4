package producer_test

import (
	"context"
	"fmt"

	"github.com/heetch/courier/broker/saramabroker"
	"github.com/heetch/courier/delivery"
	"github.com/heetch/courier/producer"
)

var endpoints []string

func Example() {
	config := producer.NewConfig("some-id", delivery.ExactlyOnce)

	sconfig := saramabroker.NewConfig(config.ClientID)
	err := saramabroker.Configure(sconfig, config.Policy(), config.TransactionalID())
	if err != nil {
		panic(err)
	}
	client, err := saramabroker.New(endpoints, sconfig)
	if err != nil {
		panic(err)
	}

	p, err := producer.New(config, client)
	if err != nil {
		panic(err)
	}
	defer p.Close()

	o, err := p.Send(context.Background(), "exactly-once-topic", "some body", producer.StrKey("some key")).
		Wait(context.Background())
	if err != nil {
		panic(err)
	}
	fmt.Println(o.Txn.State)
}

func ExampleFuture_OnComplete() {
	var p *producer.Producer

	f := p.Send(context.Background(), "at-least-once-topic", "some body")
	f.OnComplete(func(o producer.Outcome) {
		if !o.Succeeded() {
			fmt.Println("message lost:", o.Err)
		}
	})
}
