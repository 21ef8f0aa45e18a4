// Package producer sends messages to Kafka with an explicit delivery
// guarantee.
//
// A Producer is created for one delivery.Mode and keeps it for its
// whole life:
//
//   - delivery.AtMostOnce sends every message once and does not wait
//     for the brokers. Failures are logged and reported, never retried.
//   - delivery.AtLeastOnce waits for every in-sync replica and sends a
//     failed message again, up to three times, before giving up.
//   - delivery.ExactlyOnce sends every message in its own broker
//     transaction, committed when the message was written and aborted
//     otherwise. Transactions of a producer never overlap.
//
// Sending never blocks: Send and SendMessage return a Future that is
// resolved with the Outcome of the message once it reaches a terminal
// state.
//
// Messages are turned into broker records by a MessageConverter. The
// default one, MessageConverterV1, sends the message id and production
// time as headers and encodes the body with the codec package.
package producer
