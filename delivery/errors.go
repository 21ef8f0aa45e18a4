package delivery

import (
	"github.com/pkg/errors"
)

// Kind classifies a send failure.
type Kind int

const (
	// Transient failures, such as an unreachable broker, may succeed
	// if the record is sent again.
	Transient Kind = iota + 1

	// Permanent failures, such as an oversized record or a missing
	// authorization, fail the same way every time.
	Permanent

	// TransactionConflict failures happen when the broker fenced the
	// transactional id, usually because another producer took it over.
	// The transaction cannot be completed with the same id: the
	// producer must be recreated.
	TransactionConflict
)

func (k Kind) String() string {
	switch k {
	case Transient:
		return "transient"
	case Permanent:
		return "permanent"
	case TransactionConflict:
		return "transaction conflict"
	}
	return "unknown"
}

var (
	// ErrExhausted is matched by the error of a record that was given up
	// on, either because its retries ran out or because its failure was
	// not retryable.
	ErrExhausted = errors.New("delivery: retries exhausted")

	// ErrRecordTooLarge is returned when an encoded record exceeds the
	// producer's size limit.
	ErrRecordTooLarge = errors.New("delivery: record too large")

	// ErrEmptyTopic is returned for records without a topic.
	ErrEmptyTopic = errors.New("delivery: messages require a non-empty topic")

	// ErrNilBody is returned for records without a body.
	ErrNilBody = errors.New("delivery: messages require a body")

	// ErrClosed is returned when sending through a closed producer.
	ErrClosed = errors.New("delivery: producer closed")

	// ErrNotTransactional is returned when exactly-once delivery is asked
	// of a broker client that cannot run transactions.
	ErrNotTransactional = errors.New("delivery: broker client does not support transactions")

	// ErrFenced is returned by exactly-once producers whose
	// transactional id was fenced by a previous transaction conflict.
	ErrFenced = errors.New("delivery: transactional id fenced")
)

// Error is a classified send failure.
type Error struct {
	Kind Kind
	// Op names the operation that failed, such as "send" or "commit".
	Op  string
	Err error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure may be retried.
func (e *Error) Retryable() bool {
	return e.Kind == Transient
}

// NewTransient classifies err as a transient failure of op.
func NewTransient(op string, err error) error {
	return newError(Transient, op, err)
}

// NewPermanent classifies err as a permanent failure of op.
func NewPermanent(op string, err error) error {
	return newError(Permanent, op, err)
}

// NewConflict classifies err as a transaction conflict of op.
func NewConflict(op string, err error) error {
	return newError(TransactionConflict, op, err)
}

func newError(k Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: k, Op: op, Err: err}
}

// KindOf returns the kind of err. Errors that were never classified
// are considered transient; a nil error has no kind.
func KindOf(err error) Kind {
	if err == nil {
		return 0
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Transient
}

// IsRetryable reports whether err may succeed if the record is sent again.
func IsRetryable(err error) bool {
	return KindOf(err) == Transient
}
