// Package limits holds the admission control used by docgate.
//
// The only limiter is ratelimit.Gate, a fixed-window gate that bounds how
// many submissions are sent per period across every goroutine sharing it.
// Limit state lives in memory and starts fresh with each process.
package limits
