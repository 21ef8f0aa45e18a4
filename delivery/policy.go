package delivery

// Acks is the number of replicas that must confirm a write.
type Acks int

const (
	// AcksNone does not wait for the broker at all.
	AcksNone Acks = iota
	// AcksLeader waits for the partition leader only.
	AcksLeader
	// AcksAll waits for every in-sync replica.
	AcksAll
)

func (a Acks) String() string {
	switch a {
	case AcksNone:
		return "none"
	case AcksLeader:
		return "leader"
	case AcksAll:
		return "all"
	}
	return "unknown"
}

// DefaultTransactionIDPrefix is prepended to the transactional id of
// exactly-once producers.
const DefaultTransactionIDPrefix = "exactly-once-"

// Policy describes how a producer sends records for one delivery mode.
type Policy struct {
	// Acks is the acknowledgment level requested from the broker.
	Acks Acks

	// MaxRetries bounds the number of times a failed record is sent
	// again. A record is sent at most MaxRetries+1 times.
	MaxRetries int

	// Idempotent asks the broker to deduplicate retried sends
	// from the same producer session.
	Idempotent bool

	// Transactional wraps each send in a broker transaction.
	Transactional bool

	// TransactionIDPrefix is the prefix of the transactional id.
	// It is empty when Transactional is false.
	TransactionIDPrefix string
}

// ExactlyOnce is not retried per record: a failed transaction is
// aborted and reported instead.
var policies = map[Mode]Policy{
	AtMostOnce: {
		Acks: AcksNone,
	},
	AtLeastOnce: {
		Acks:       AcksAll,
		MaxRetries: 3,
	},
	ExactlyOnce: {
		Acks:                AcksAll,
		Idempotent:          true,
		Transactional:       true,
		TransactionIDPrefix: DefaultTransactionIDPrefix,
	},
}

// Lookup returns the policy of m. It returns false if m is not
// a valid mode.
func Lookup(m Mode) (Policy, bool) {
	p, ok := policies[m]
	return p, ok
}

// PolicyFor returns the policy of m, or the zero Policy for an
// invalid mode.
func PolicyFor(m Mode) Policy {
	return policies[m]
}

// Attempts returns the maximum number of times a record is sent.
func (p Policy) Attempts() int {
	return p.MaxRetries + 1
}

// TransactionalID returns the transactional id for a producer
// identified by suffix. It returns an empty string when the policy
// is not transactional.
func (p Policy) TransactionalID(suffix string) string {
	if !p.Transactional {
		return ""
	}
	return p.TransactionIDPrefix + suffix
}
