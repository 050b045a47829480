// Package ratelimit provides the fixed-window admission gate used to throttle
// outbound document submissions.
//
// # Overview
//
// A Gate admits at most Limit callers per Period. The permit pool starts
// full and a background clock, started when the gate is created, snaps it
// back to Limit at every period boundary. Permits are never returned by
// callers: a permit is consumed by the call it admits.
//
//	gate, err := ratelimit.New(time.Second, 5) // 5 calls per second
//	if err != nil {
//	    return err
//	}
//	defer gate.Close()
//
//	if err := gate.AcquireContext(ctx); err != nil {
//	    return err // cancelled, or gate closed
//	}
//	// exactly one guarded call
//
// # Fairness
//
// Callers that find the pool empty are queued and served oldest-first when
// the next window opens. A new caller never overtakes a queued one, and
// TryAcquire fails while anyone is queued.
//
// # Burst Behaviour
//
// Windows are aligned to the gate's own clock, not to the first request, so
// up to 2*Limit calls can land within a span shorter than Period when they
// straddle a boundary. This is accepted behaviour of a fixed-window limiter.
//
// # Thread Safety
//
// All methods are safe for concurrent use.
package ratelimit
