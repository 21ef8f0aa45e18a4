package producer

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/heetch/courier/broker"
	"github.com/heetch/courier/delivery"
	"github.com/heetch/courier/resend"
)

// Producer sends messages to Kafka through a broker.Client, following
// the delivery policy of its mode. It is safe for concurrent use.
//
// An exactly-once producer keeps its transactional id for its whole
// life. Once a commit fails with a delivery.TransactionConflict the
// id is fenced by the brokers: later sends fail with delivery.ErrFenced
// without reaching the brokers. Close the producer and create a new
// one, with a new broker client.
type Producer struct {
	config Config
	policy delivery.Policy
	client broker.Client
	txn    broker.TxnClient
	pool   *resend.Pool
	engine *resend.Engine
	logger *zap.Logger
	send   sendFunc

	// held for the whole life of a transaction.
	txnMu  sync.Mutex
	fenced bool

	mu       sync.RWMutex
	closed   bool
	inflight sync.WaitGroup
}

// sendFunc sends rec and calls resolve once with its outcome.
type sendFunc func(p *Producer, ctx context.Context, msg *Message, rec *broker.Record, resolve func(Outcome))

var strategies = map[delivery.Mode]sendFunc{
	delivery.AtMostOnce:  (*Producer).sendAtMostOnce,
	delivery.AtLeastOnce: (*Producer).sendAtLeastOnce,
	delivery.ExactlyOnce: (*Producer).sendExactlyOnce,
}

// New creates a Producer sending through client. Exactly-once
// producers require a broker.TxnClient. The producer owns the client
// and closes it on Close.
func New(config Config, client broker.Client) (*Producer, error) {
	if err := config.validate(); err != nil {
		return nil, errors.Wrap(err, "invalid producer config")
	}
	if client == nil {
		return nil, errors.New("a broker client is required")
	}

	p := Producer{
		config: config,
		policy: config.Policy(),
		client: client,
		send:   strategies[config.Mode],
		logger: config.Logger.With(
			zap.String("client_id", config.ClientID),
			zap.Stringer("mode", config.Mode),
		),
	}

	if p.policy.Transactional {
		txn, ok := client.(broker.TxnClient)
		if !ok {
			return nil, errors.Wrapf(delivery.ErrNotTransactional, "%v producer", config.Mode)
		}
		p.txn = txn
		p.logger = p.logger.With(zap.String("transactional_id", txn.TransactionalID()))
	}

	pool, err := resend.NewPool(config.PoolSize)
	if err != nil {
		return nil, err
	}
	p.pool = pool
	p.engine = resend.New(p.policy.MaxRetries,
		resend.WithBackoff(config.Backoff),
		resend.WithScheduler(pool),
	)

	return &p, nil
}

// Mode returns the delivery mode of the producer.
func (p *Producer) Mode() delivery.Mode {
	return p.config.Mode
}

// Send creates and sends a message to Kafka asynchronously.
func (p *Producer) Send(ctx context.Context, topic string, body interface{}, opts ...Option) *Future {
	return p.SendMessage(ctx, NewMessage(topic, body, opts...))
}

// SendMessage sends msg to Kafka asynchronously. It does not wait for
// the brokers: the returned Future is resolved once the message
// reached a terminal state. Cancelling ctx does not cancel the send.
//
// Invalid messages, such as messages without a topic or larger than
// the configured maximum size, fail without reaching the broker
// client, whatever the mode.
func (p *Producer) SendMessage(ctx context.Context, msg *Message) *Future {
	msg.prepare()
	f := newFuture(msg)

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.reject(f, delivery.ErrClosed)
		return f
	}

	rec, err := p.toRecord(ctx, msg)
	if err != nil {
		p.reject(f, err)
		return f
	}

	// The broker client may block, on a full input buffer for
	// instance, so even the first attempt leaves the caller's
	// goroutine.
	ctx = context.WithoutCancel(ctx)
	resolve := func(o Outcome) {
		defer p.inflight.Done()
		p.complete(f, o)
	}
	p.inflight.Add(1)
	err = p.pool.Schedule(0, func() {
		p.send(p, ctx, msg, rec, resolve)
	})
	if err != nil {
		o := Outcome{Partition: -1, Offset: -1, Err: delivery.NewTransient("send", err)}
		if p.policy.Transactional {
			o.Txn = &Transaction{ID: p.txn.TransactionalID(), State: TxnAborted}
		}
		resolve(o)
	}
	return f
}

func (p *Producer) toRecord(ctx context.Context, msg *Message) (*broker.Record, error) {
	if msg.Topic == "" {
		return nil, delivery.ErrEmptyTopic
	}
	if msg.Body == nil {
		return nil, delivery.ErrNilBody
	}

	rec, err := p.config.Converter.ToRecord(ctx, msg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to convert message")
	}

	if size := rec.Size(); size > p.config.MaxMessageBytes {
		return nil, errors.Wrapf(delivery.ErrRecordTooLarge, "%d bytes, limit is %d", size, p.config.MaxMessageBytes)
	}
	return rec, nil
}

// reject resolves f with a permanent failure without sending anything.
func (p *Producer) reject(f *Future, err error) {
	err = delivery.NewPermanent("send", err)
	p.logger.Error("message rejected", p.fields(f.msg, zap.Error(err))...)
	o := Outcome{Partition: -1, Offset: -1, Err: err}
	if p.policy.Transactional {
		o.Txn = &Transaction{ID: p.txn.TransactionalID(), State: TxnAborted}
	}
	p.complete(f, o)
}

func (p *Producer) complete(f *Future, o Outcome) {
	p.config.Metrics.Report(f.msg, o)
	f.resolve(o)
}

func (p *Producer) fields(msg *Message, extra ...zap.Field) []zap.Field {
	return append([]zap.Field{
		zap.String("topic", msg.Topic),
		zap.String("message_id", msg.ID),
	}, extra...)
}

// Close waits for the messages in flight to reach a terminal state,
// then closes the broker client. Messages sent after Close fail.
func (p *Producer) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	p.inflight.Wait()
	p.pool.Release()

	return errors.Wrap(p.client.Close(), "failed to close the broker client")
}
