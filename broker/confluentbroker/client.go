// Package confluentbroker implements broker.TxnClient on top of
// confluent-kafka-go, the librdkafka binding.
package confluentbroker

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/pkg/errors"

	"github.com/heetch/courier/broker"
	"github.com/heetch/courier/delivery"
)

// FlushTimeout bounds the time Close waits for pending records.
var FlushTimeout = 10 * time.Second

var acks = map[delivery.Acks]string{
	delivery.AcksNone:   "0",
	delivery.AcksLeader: "1",
	delivery.AcksAll:    "all",
}

// ConfigMap returns the librdkafka configuration for p. txnID is only
// used by transactional policies. Keyed records are partitioned the way
// JVM clients partition them.
func ConfigMap(addrs []string, clientID string, p delivery.Policy, txnID string) (*kafka.ConfigMap, error) {
	a, ok := acks[p.Acks]
	if !ok {
		return nil, errors.Errorf("unsupported acks %v", p.Acks)
	}
	m := &kafka.ConfigMap{
		"bootstrap.servers":  strings.Join(addrs, ","),
		"client.id":          clientID,
		"partitioner":        "murmur2_random",
		"acks":               a,
		"enable.idempotence": p.Idempotent,
	}
	if !p.Idempotent {
		// Records are retried by the producer.
		(*m)["retries"] = 0
	}
	if p.Transactional {
		if txnID == "" {
			return nil, errors.New("transactional policies require a transactional id")
		}
		(*m)["transactional.id"] = txnID
	}
	return m, nil
}

// Client sends records with a librdkafka producer.
type Client struct {
	producer   *kafka.Producer
	txnID      string
	deliveries chan kafka.Event

	mu       sync.RWMutex
	closed   bool
	finished chan struct{}
}

var _ broker.TxnClient = (*Client)(nil)

// New creates a Client from conf. Transactional producers, those with
// a transactional.id, are registered with the transaction coordinator
// before New returns.
func New(ctx context.Context, conf *kafka.ConfigMap) (*Client, error) {
	p, err := kafka.NewProducer(conf)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create a producer")
	}
	c := &Client{
		producer:   p,
		deliveries: make(chan kafka.Event, 1024),
		finished:   make(chan struct{}),
	}
	if v, err := conf.Get("transactional.id", ""); err == nil {
		c.txnID, _ = v.(string)
	}
	go c.dispatch()

	if c.txnID != "" {
		if err := p.InitTransactions(ctx); err != nil {
			c.Close()
			return nil, errors.Wrap(Classify("init", err), "failed to initialize transactions")
		}
	}
	return c, nil
}

// Produce implements broker.Client.
func (c *Client) Produce(ctx context.Context, r *broker.Record, done func(broker.Result)) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		go done(failure(delivery.NewPermanent("produce", delivery.ErrClosed)))
		return
	}

	topic := r.Topic
	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            r.Key,
		Value:          r.Value,
		Opaque:         done,
	}
	for k, v := range r.Headers {
		msg.Headers = append(msg.Headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	if err := c.producer.Produce(msg, c.deliveries); err != nil {
		go done(failure(Classify("produce", err)))
	}
}

func (c *Client) dispatch() {
	defer close(c.finished)

	events := c.producer.Events()
	for {
		select {
		case ev, ok := <-c.deliveries:
			if !ok {
				return
			}
			msg, ok := ev.(*kafka.Message)
			if !ok {
				continue
			}
			done, ok := msg.Opaque.(func(broker.Result))
			if !ok {
				continue
			}
			if err := msg.TopicPartition.Error; err != nil {
				done(failure(Classify("produce", err)))
				continue
			}
			done(broker.Result{
				Partition: msg.TopicPartition.Partition,
				Offset:    int64(msg.TopicPartition.Offset),
			})
		case _, ok := <-events:
			// Client level events are reported again on the
			// records they affect.
			if !ok {
				events = nil
			}
		}
	}
}

func failure(err error) broker.Result {
	return broker.Result{Partition: -1, Offset: -1, Err: err}
}

// Close implements broker.Client. Records still pending after
// FlushTimeout are lost.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	remaining := c.producer.Flush(int(FlushTimeout.Milliseconds()))
	c.producer.Close()
	close(c.deliveries)
	<-c.finished
	if remaining > 0 {
		return errors.Errorf("%d records still pending after flush", remaining)
	}
	return nil
}

// TransactionalID implements broker.TxnClient.
func (c *Client) TransactionalID() string {
	return c.txnID
}

// BeginTxn implements broker.TxnClient.
func (c *Client) BeginTxn() error {
	if c.txnID == "" {
		return delivery.NewPermanent("begin", delivery.ErrNotTransactional)
	}
	return Classify("begin", c.producer.BeginTransaction())
}

// CommitTxn implements broker.TxnClient.
func (c *Client) CommitTxn() error {
	return Classify("commit", c.producer.CommitTransaction(context.Background()))
}

// AbortTxn implements broker.TxnClient.
func (c *Client) AbortTxn() error {
	return Classify("abort", c.producer.AbortTransaction(context.Background()))
}
