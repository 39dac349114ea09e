// Package httpx holds the plumbing shared by the remote providers: the
// HTTP client, a minimum-interval throttle and a circuit breaker that turns
// a persistently failing provider into a fatal condition.
package httpx
