// Package delivery holds the delivery guarantees a producer can offer and
// the policy each of them implies.
//
// A Mode is chosen once, when a producer is built, and PolicyFor turns it
// into the acknowledgment level, retry bound and idempotence/transaction
// flags the producer and its broker client must honour:
//
//	Mode          Acks   MaxRetries  Idempotent  Transactional
//	AtMostOnce    none   0           false       false
//	AtLeastOnce   all    3           false       false
//	ExactlyOnce   all    0           true        true
//
// The package also defines the error taxonomy shared by producers and
// broker clients. Every failure is one of three kinds: Transient failures
// may be retried, Permanent failures never are, and TransactionConflict
// failures mean the transactional id has been fenced and the transaction
// cannot be completed.
package delivery
