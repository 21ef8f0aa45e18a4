// Package saramabroker implements broker.Client on top of a sarama
// AsyncProducer.
package saramabroker

import (
	"context"
	"sync"

	"github.com/Shopify/sarama"
	"github.com/pkg/errors"

	"github.com/heetch/courier/broker"
	"github.com/heetch/courier/delivery"
)

// Client sends records through a sarama.AsyncProducer. Results are
// read from the producer's Successes and Errors channels, which must
// both be enabled, and passed to the callback given to Produce.
type Client struct {
	producer sarama.AsyncProducer
	txnID    string

	mu      sync.RWMutex
	closed  bool
	drained chan struct{}
}

var _ broker.TxnClient = (*Client)(nil)

// New creates a Client connected to addrs.
func New(addrs []string, config *sarama.Config) (*Client, error) {
	p, err := sarama.NewAsyncProducer(addrs, config)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create a producer")
	}

	return NewFrom(p, config), nil
}

// NewFrom creates a Client using the given AsyncProducer, created with
// config. Useful for tests, with the sarama mocks package.
func NewFrom(producer sarama.AsyncProducer, config *sarama.Config) *Client {
	c := &Client{
		producer: producer,
		txnID:    config.Producer.Transaction.ID,
		drained:  make(chan struct{}),
	}
	go c.dispatch()
	return c
}

// Produce implements broker.Client. It blocks only while sarama's
// input buffer is full, or until ctx is done.
func (c *Client) Produce(ctx context.Context, r *broker.Record, done func(broker.Result)) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		go done(failure(delivery.NewPermanent("produce", delivery.ErrClosed)))
		return
	}

	msg := &sarama.ProducerMessage{
		Topic:    r.Topic,
		Value:    sarama.ByteEncoder(r.Value),
		Metadata: done,
	}
	if r.Key != nil {
		msg.Key = sarama.ByteEncoder(r.Key)
	}
	for k, v := range r.Headers {
		msg.Headers = append(msg.Headers, sarama.RecordHeader{
			Key:   []byte(k),
			Value: []byte(v),
		})
	}

	select {
	case c.producer.Input() <- msg:
	case <-ctx.Done():
		go done(failure(delivery.NewTransient("produce", ctx.Err())))
	}
}

func (c *Client) dispatch() {
	defer close(c.drained)

	successes, errs := c.producer.Successes(), c.producer.Errors()
	for successes != nil || errs != nil {
		select {
		case msg, ok := <-successes:
			if !ok {
				successes = nil
				continue
			}
			notify(msg, broker.Result{Partition: msg.Partition, Offset: msg.Offset})
		case perr, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			notify(perr.Msg, failure(Classify("produce", perr.Err)))
		}
	}
}

func notify(msg *sarama.ProducerMessage, res broker.Result) {
	if msg == nil {
		return
	}
	if done, ok := msg.Metadata.(func(broker.Result)); ok {
		done(res)
	}
}

func failure(err error) broker.Result {
	return broker.Result{Partition: -1, Offset: -1, Err: err}
}

// Close implements broker.Client. It returns once every record given
// to Produce has been answered.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.producer.AsyncClose()
	<-c.drained
	return nil
}

// TransactionalID implements broker.TxnClient.
func (c *Client) TransactionalID() string {
	return c.txnID
}

// BeginTxn implements broker.TxnClient.
func (c *Client) BeginTxn() error {
	if !c.producer.IsTransactional() {
		return delivery.NewPermanent("begin", delivery.ErrNotTransactional)
	}
	return Classify("begin", c.producer.BeginTxn())
}

// CommitTxn implements broker.TxnClient.
func (c *Client) CommitTxn() error {
	return Classify("commit", c.producer.CommitTxn())
}

// AbortTxn implements broker.TxnClient.
func (c *Client) AbortTxn() error {
	return Classify("abort", c.producer.AbortTxn())
}
