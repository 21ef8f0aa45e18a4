// Package resend drives a record through bounded retries.
//
// Each record moves through the states
//
//	Pending -> Sent -> Succeeded
//	                -> Failed -> Pending (next attempt)
//	                          -> Exhausted
//
// A failed attempt goes back to Pending when it was retryable and the
// retry bound is not reached; otherwise the record is Exhausted and its
// error matches delivery.ErrExhausted.
//
// The engine never waits for an attempt. Attempts report their result
// through a callback and every retry is handed to a Scheduler as a new
// task, optionally after a delay computed by a retry.Strategy, so a long
// chain of retries grows neither the call stack nor the number of
// blocked goroutines.
package resend
