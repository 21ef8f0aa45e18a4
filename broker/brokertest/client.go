// Package brokertest provides a scripted in-memory broker client for
// testing code that sends records.
package brokertest

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/heetch/courier/broker"
	"github.com/heetch/courier/delivery"
)

// ErrUnavailable is the transient failure used by FailFirst and
// FailAlways when no error is given.
var ErrUnavailable = delivery.NewTransient("produce", errors.New("brokertest: broker unavailable"))

// Responder decides the result of the call-th produce request,
// counting from zero.
type Responder func(call int, r *broker.Record) broker.Result

// Option configures a Client.
type Option func(*Client)

// Respond sets the function answering produce requests. By default
// every request succeeds.
func Respond(f Responder) Option {
	return func(c *Client) {
		c.respond = f
	}
}

// FailFirst makes the first n produce requests fail with err.
func FailFirst(n int, err error) Option {
	if err == nil {
		err = ErrUnavailable
	}
	return Respond(func(call int, _ *broker.Record) broker.Result {
		if call < n {
			return broker.Result{Partition: -1, Offset: -1, Err: err}
		}
		return broker.Result{}
	})
}

// FailAlways makes every produce request fail with err.
func FailAlways(err error) Option {
	return FailFirst(int(^uint(0)>>1), err)
}

// Latency delays every answer by d.
func Latency(d time.Duration) Option {
	return func(c *Client) {
		c.latency = d
	}
}

// FailBegin makes BeginTxn return err.
func FailBegin(err error) Option {
	return func(c *Client) {
		c.beginErr = err
	}
}

// FailCommit makes CommitTxn return err.
func FailCommit(err error) Option {
	return func(c *Client) {
		c.commitErr = err
	}
}

// FailAbort makes AbortTxn return err.
func FailAbort(err error) Option {
	return func(c *Client) {
		c.abortErr = err
	}
}

// TransactionalID sets the id returned by Client.TransactionalID.
func TransactionalID(id string) Option {
	return func(c *Client) {
		c.txnID = id
	}
}

// Event names recorded by the client.
const (
	Begin   = "begin"
	Produce = "produce"
	Commit  = "commit"
	Abort   = "abort"
)

// Client is a broker.TxnClient that answers from a script and records
// every call it receives. It is safe for concurrent use.
type Client struct {
	respond   Responder
	latency   time.Duration
	beginErr  error
	commitErr error
	abortErr  error
	txnID     string

	mu       sync.Mutex
	calls    int
	offset   int64
	records  []*broker.Record
	events   []string
	open     bool
	overlaps int
	closed   bool
	pending  sync.WaitGroup
}

var _ broker.TxnClient = (*Client)(nil)

// New returns a client configured by opts.
func New(opts ...Option) *Client {
	c := &Client{
		respond: func(int, *broker.Record) broker.Result { return broker.Result{} },
		txnID:   delivery.DefaultTransactionIDPrefix + "brokertest",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Plain returns c without its transactional methods.
func (c *Client) Plain() broker.Client {
	return plain{c}
}

type plain struct {
	broker.Client
}

// Produce implements broker.Client. The answer is delivered on
// another goroutine. Successful records are given increasing offsets
// on partition 0.
func (c *Client) Produce(ctx context.Context, r *broker.Record, done func(broker.Result)) {
	c.mu.Lock()
	call := c.calls
	c.calls++
	c.records = append(c.records, r)
	c.events = append(c.events, Produce)
	res := c.respond(call, r)
	if res.Err == nil {
		res.Offset = c.offset
		c.offset++
	}
	c.pending.Add(1)
	c.mu.Unlock()

	answer := func() {
		defer c.pending.Done()
		done(res)
	}
	if c.latency > 0 {
		time.AfterFunc(c.latency, answer)
		return
	}
	go answer()
}

// Close implements broker.Client. It waits for pending answers.
func (c *Client) Close() error {
	c.pending.Wait()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// TransactionalID implements broker.TxnClient.
func (c *Client) TransactionalID() string {
	return c.txnID
}

// BeginTxn implements broker.TxnClient.
func (c *Client) BeginTxn() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, Begin)
	if c.beginErr != nil {
		return c.beginErr
	}
	if c.open {
		c.overlaps++
	}
	c.open = true
	return nil
}

// CommitTxn implements broker.TxnClient. A failed commit leaves the
// transaction open.
func (c *Client) CommitTxn() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, Commit)
	if c.commitErr != nil {
		return c.commitErr
	}
	c.open = false
	return nil
}

// AbortTxn implements broker.TxnClient.
func (c *Client) AbortTxn() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, Abort)
	c.open = false
	return c.abortErr
}

// Calls returns the number of produce requests received.
func (c *Client) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// Records returns the records received, in order.
func (c *Client) Records() []*broker.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*broker.Record(nil), c.records...)
}

// Events returns the calls received, in order.
func (c *Client) Events() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.events...)
}

// Overlaps returns the number of transactions begun while another one
// was still open.
func (c *Client) Overlaps() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.overlaps
}

// InTxn reports whether a transaction is open.
func (c *Client) InTxn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Closed reports whether Close was called.
func (c *Client) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
