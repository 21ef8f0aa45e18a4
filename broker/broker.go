// Package broker defines the client the producer sends records
// through. The sub-packages adapt real Kafka client libraries to it.
package broker

import "context"

// Record is an encoded record ready to be written to a topic.
type Record struct {
	Topic string
	// Key is nil for records without a key, which the broker spreads
	// across partitions.
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// Size returns an estimate of the record's size on the wire.
func (r *Record) Size() int {
	n := len(r.Key) + len(r.Value)
	for k, v := range r.Headers {
		n += len(k) + len(v)
	}
	return n
}

// Result is the broker's answer to one produce request.
// Partition and Offset are -1 when the client does not report them.
type Result struct {
	Partition int32
	Offset    int64
	Err       error
}

// Client sends records to Kafka.
type Client interface {
	// Produce sends r asynchronously and calls done exactly once with
	// the result. Errors passed to done are classified with the
	// delivery package kinds. Produce must not block for the duration
	// of the round trip.
	Produce(ctx context.Context, r *Record, done func(Result))

	// Close flushes pending records and releases the client.
	Close() error
}

// TxnClient is a Client able to group records in transactions.
// Transactions are not concurrent: the caller must not begin a
// transaction before the previous one was committed or aborted.
type TxnClient interface {
	Client

	// TransactionalID returns the id the client registered with the
	// transaction coordinator.
	TransactionalID() string

	BeginTxn() error
	CommitTxn() error
	AbortTxn() error
}
