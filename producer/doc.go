// Package producer provides types for storing messages in a
// replicated key-value store.
//
// A Message carries a body, an optional key and headers. The producer
// materializes the body with the configured codec, picks the key (the
// message Key, then the CCB_ID header, then the configured ID) and the
// expiry (the CCB_TTL header, in seconds), and hands the write to a
// kv.Writer which waits for the configured durability and retries
// writes that time out.
//
// Once stored, the value the store acknowledged the write with is set
// on the message Result field.
//
// Producers require a valid configuration to be able to run properly.
// NewConfig returns one with sane defaults: no durability requirement,
// two retries, and the String codec.
package producer
