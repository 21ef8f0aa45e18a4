// Package kafkagobroker implements broker.Client on top of a
// segmentio/kafka-go Writer. It does not support transactions.
package kafkagobroker

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"

	"github.com/heetch/courier/broker"
	"github.com/heetch/courier/delivery"
)

// Writer is the part of kafka.Writer used by Client.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

var requiredAcks = map[delivery.Acks]kafka.RequiredAcks{
	delivery.AcksNone:   kafka.RequireNone,
	delivery.AcksLeader: kafka.RequireOne,
	delivery.AcksAll:    kafka.RequireAll,
}

// NewWriter creates a kafka.Writer configured for p. The writer makes a
// single attempt per record and is not bound to a topic.
func NewWriter(addrs []string, p delivery.Policy) (*kafka.Writer, error) {
	if p.Transactional || p.Idempotent {
		return nil, delivery.ErrNotTransactional
	}
	acks, ok := requiredAcks[p.Acks]
	if !ok {
		return nil, errors.Errorf("unsupported acks %v", p.Acks)
	}
	return &kafka.Writer{
		Addr:         kafka.TCP(addrs...),
		Balancer:     &kafka.Murmur2Balancer{},
		RequiredAcks: acks,
		MaxAttempts:  1,
		BatchTimeout: 10 * time.Millisecond,
	}, nil
}

// Client sends records with a Writer. Every record is written on its
// own goroutine; the writer batches concurrent writes.
type Client struct {
	writer Writer

	mu      sync.RWMutex
	closed  bool
	pending sync.WaitGroup
}

var _ broker.Client = (*Client)(nil)

// New creates a Client for addrs following p.
func New(addrs []string, p delivery.Policy) (*Client, error) {
	w, err := NewWriter(addrs, p)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create a writer")
	}
	return NewFrom(w), nil
}

// NewFrom creates a Client using the given Writer.
func NewFrom(w Writer) *Client {
	return &Client{writer: w}
}

// Produce implements broker.Client. The partition and offset of
// written records are not reported.
func (c *Client) Produce(ctx context.Context, r *broker.Record, done func(broker.Result)) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		go done(failure(delivery.NewPermanent("produce", delivery.ErrClosed)))
		return
	}

	msg := kafka.Message{
		Topic: r.Topic,
		Key:   r.Key,
		Value: r.Value,
	}
	for k, v := range r.Headers {
		msg.Headers = append(msg.Headers, kafka.Header{Key: k, Value: []byte(v)})
	}

	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		if err := c.writer.WriteMessages(ctx, msg); err != nil {
			done(failure(Classify("produce", err)))
			return
		}
		done(broker.Result{Partition: -1, Offset: -1})
	}()
}

func failure(err error) broker.Result {
	return broker.Result{Partition: -1, Offset: -1, Err: err}
}

// Close implements broker.Client. It waits for pending writes.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.pending.Wait()
	return errors.Wrap(c.writer.Close(), "failed to close the writer")
}

var permanent = []error{
	kafka.MessageSizeTooLarge,
	kafka.InvalidMessage,
	kafka.InvalidMessageSize,
	kafka.TopicAuthorizationFailed,
	kafka.ClusterAuthorizationFailed,
}

// Classify wraps err, returned by kafka-go during op, into a delivery
// error of the matching kind. Unknown errors are transient.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var werrs kafka.WriteErrors
	if errors.As(err, &werrs) && len(werrs) == 1 && werrs[0] != nil {
		err = werrs[0]
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return delivery.NewTransient(op, err)
	}
	for _, target := range permanent {
		if errors.Is(err, target) {
			return delivery.NewPermanent(op, err)
		}
	}
	return delivery.NewTransient(op, err)
}
