// Package kv implements durable writes against a replicated key-value
// store.
//
// A Writer issues a single-key set through a Client, waits on the
// returned Handle for the durability acknowledgement described by a
// Durability value, and transparently retries the write when the wait
// reports a transient timeout. The number of attempts is bounded by a
// RetryPolicy; by default a write is attempted three times (the first
// attempt plus DefaultRetries retries) with no delay in between.
//
// Every call to Write ends in exactly one of these states:
//
//   - success: the Outcome holds the value the backend resolved to;
//   - KindInvalidPayload: the request could not be written at all and
//     the backend was never called;
//   - KindBackendFailure: the backend reported an error other than a
//     timeout, which is never retried;
//   - KindRetryExhausted: every attempt timed out.
//
// KindInvalidConfiguration is only ever returned by the constructors.
//
// Backends report the outcome of a wait as a Result rather than as a
// bare error, so the Writer never has to guess whether an error is a
// timeout.
package kv
