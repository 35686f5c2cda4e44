// Package resilience wraps outbound embedding and vector-store calls
// with retry and circuit breaking.
//
// Every external invocation goes through an Executor keyed by
// endpoint (for example "embedding:openai" or "vectorstore:badger").
// Transient failures are retried with capped exponential backoff and
// jitter; repeated transient failures trip a per-endpoint circuit
// breaker that fails fast for a cooldown period before admitting a
// single probe call. Permanent failures (auth, malformed requests,
// dimension mismatches) are surfaced immediately and never retried.
package resilience
