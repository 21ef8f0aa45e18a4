package producer

import (
	"context"
	"sync"

	"github.com/heetch/courier/delivery"
)

// TxnState is the state of a broker transaction.
type TxnState int

const (
	TxnOpen TxnState = iota
	TxnCommitted
	TxnAborted
)

func (s TxnState) String() string {
	switch s {
	case TxnOpen:
		return "open"
	case TxnCommitted:
		return "committed"
	case TxnAborted:
		return "aborted"
	}
	return "unknown"
}

// Transaction is the broker transaction an exactly-once message was
// sent in.
type Transaction struct {
	// ID is the transactional id of the producer.
	ID    string
	State TxnState
}

// Outcome is the terminal result of a message.
type Outcome struct {
	// Partition and Offset where the message was stored, or -1 when
	// unknown.
	Partition int32
	Offset    int64

	// Attempts is the number of times the message was handed to the
	// broker client. It is zero for messages rejected before sending.
	Attempts int

	// Err is nil if the message was delivered.
	Err error

	// Txn is the transaction of exactly-once messages. Its state is
	// never TxnOpen.
	Txn *Transaction
}

// Succeeded reports whether the message was delivered.
func (o Outcome) Succeeded() bool {
	return o.Err == nil
}

// Kind returns the kind of failure, or zero on success.
func (o Outcome) Kind() delivery.Kind {
	return delivery.KindOf(o.Err)
}

// Retryable reports whether sending the message again may succeed.
func (o Outcome) Retryable() bool {
	return o.Err != nil && delivery.IsRetryable(o.Err)
}

// Future is the pending outcome of a message.
type Future struct {
	msg  *Message
	done chan struct{}

	mu        sync.Mutex
	outcome   Outcome
	resolved  bool
	callbacks []func(Outcome)
}

func newFuture(msg *Message) *Future {
	return &Future{
		msg:  msg,
		done: make(chan struct{}),
	}
}

// Message returns the message being sent.
func (f *Future) Message() *Message {
	return f.msg
}

// Done returns a channel closed once the outcome is known.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait waits for the outcome of the message. The returned error is
// the error of the outcome, or ctx.Err() if ctx is done first. The
// message is not affected by ctx.
func (f *Future) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-f.done:
		o, _ := f.Outcome()
		return o, o.Err
	case <-ctx.Done():
		return Outcome{Partition: -1, Offset: -1}, ctx.Err()
	}
}

// Outcome returns the outcome of the message and whether it is known.
func (f *Future) Outcome() (Outcome, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.outcome, f.resolved
}

// OnComplete calls fn with the outcome once it is known. If it already
// is, fn is called before OnComplete returns. Callbacks run on the
// goroutine resolving the future and must not block.
func (f *Future) OnComplete(fn func(Outcome)) {
	f.mu.Lock()
	if !f.resolved {
		f.callbacks = append(f.callbacks, fn)
		f.mu.Unlock()
		return
	}
	o := f.outcome
	f.mu.Unlock()
	fn(o)
}

// resolve sets the outcome. Only the first call has an effect.
func (f *Future) resolve(o Outcome) {
	f.mu.Lock()
	if f.resolved {
		f.mu.Unlock()
		return
	}
	f.outcome = o
	f.resolved = true
	callbacks := f.callbacks
	f.callbacks = nil
	f.mu.Unlock()

	close(f.done)
	for _, fn := range callbacks {
		fn(o)
	}
}
