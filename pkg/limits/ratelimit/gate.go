package ratelimit

import (
	"container/list"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Gate is a fixed-window admission gate.
//
// At most Limit acquisitions succeed per Period. The permit pool starts full
// and is snapped back to Limit on every tick of a periodic clock that runs
// from construction time, so window boundaries have a fixed phase and are not
// moved by callers. Callers that find the pool empty are queued and granted
// permits strictly in arrival order when the next tick arrives.
//
// # Algorithm
//
//  1. Acquire takes a permit if one is available and nobody is queued
//  2. Otherwise the caller is appended to the waiter queue and parks
//  3. On each tick: deficit = limit - available; if deficit > 0 the pool
//     is restored to limit and permits are handed to waiters oldest-first
//
// # Thread Safety
//
// Gate is safe for concurrent use. The permit count and the waiter queue are
// guarded by a single mutex shared by the acquire paths and the refill loop.
type Gate struct {
	limit  int
	period time.Duration

	mu        sync.Mutex
	available int
	waiters   list.List // of *waiter, oldest at the front
	closed    bool
	granted   uint64
	refills   uint64

	ticker  Ticker
	stop    chan struct{}
	stopped chan struct{}
	once    sync.Once
	logger  *slog.Logger
}

// waiter is a parked caller. ready is closed once the waiter is resolved,
// either with a permit (err == nil) or with ErrGateClosed. Both fields are
// only written while holding Gate.mu.
type waiter struct {
	ready chan struct{}
	err   error
	elem  *list.Element
}

// Stats is a point-in-time snapshot of the gate.
type Stats struct {
	Limit     int
	Period    time.Duration
	Available int
	Waiting   int
	Granted   uint64
	Refills   uint64
	Closed    bool
}

// Option configures a Gate.
type Option func(*Gate)

// WithTickerFunc replaces the clock that drives replenishment.
// It is mainly used by tests to control window boundaries.
func WithTickerFunc(fn TickerFunc) Option {
	return func(g *Gate) {
		if fn != nil {
			g.ticker = fn(g.period)
		}
	}
}

// WithLogger sets the logger used for lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// New creates a gate that admits at most limit callers per period.
//
// Non-positive values are configuration errors and are reported immediately.
// The returned gate owns a background goroutine; call Close to release it.
//
// Example:
//
//	gate, err := ratelimit.New(time.Second, 10) // 10 submissions per second
//	if err != nil {
//	    return err
//	}
//	defer gate.Close()
//
//	if err := gate.AcquireContext(ctx); err != nil {
//	    return err
//	}
//	// perform the guarded call
func New(period time.Duration, limit int, opts ...Option) (*Gate, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLimit, limit)
	}
	if period <= 0 {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidPeriod, period)
	}

	g := &Gate{
		limit:     limit,
		period:    period,
		available: limit,
		stop:      make(chan struct{}),
		stopped:   make(chan struct{}),
		logger:    slog.Default().With("component", "limits.gate"),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.ticker == nil {
		g.ticker = NewTimeTicker(period)
	}

	go g.run()

	g.logger.Debug("admission gate started",
		"limit", limit,
		"period", period,
	)

	return g, nil
}

// Acquire blocks until a permit is granted.
//
// It cannot be interrupted; the only error it returns is ErrGateClosed,
// when the gate is closed before or while the caller waits.
func (g *Gate) Acquire() error {
	return g.AcquireContext(context.Background())
}

// AcquireContext blocks until a permit is granted or ctx is done.
//
// When ctx ends first no permit is consumed and the returned error matches
// both ErrAcquireCancelled and ctx.Err() under errors.Is.
func (g *Gate) AcquireContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return cancelled(err)
	}

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return ErrGateClosed
	}
	if g.available > 0 && g.waiters.Len() == 0 {
		g.available--
		g.granted++
		g.mu.Unlock()
		return nil
	}

	w := &waiter{ready: make(chan struct{})}
	w.elem = g.waiters.PushBack(w)
	g.mu.Unlock()

	select {
	case <-w.ready:
		return w.err

	case <-ctx.Done():
		g.mu.Lock()
		defer g.mu.Unlock()

		select {
		case <-w.ready:
			// Resolved while we were cancelling. A granted permit is handed
			// on so it is not lost for the rest of the window.
			if w.err != nil {
				return w.err
			}
			g.granted--
			g.returnLocked()
		default:
			g.waiters.Remove(w.elem)
		}
		return cancelled(ctx.Err())
	}
}

// TryAcquire takes a permit only if one is available right now and no
// caller is queued ahead. It never blocks.
func (g *Gate) TryAcquire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed || g.available == 0 || g.waiters.Len() > 0 {
		return false
	}
	g.available--
	g.granted++
	return true
}

// Available returns the number of permits left in the current window.
func (g *Gate) Available() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.available
}

// Waiting returns the number of callers parked in the queue.
func (g *Gate) Waiting() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.waiters.Len()
}

// Limit returns the configured number of permits per period.
func (g *Gate) Limit() int {
	return g.limit
}

// Period returns the replenishment period.
func (g *Gate) Period() time.Duration {
	return g.period
}

// Stats returns a consistent snapshot of the gate state.
func (g *Gate) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()

	return Stats{
		Limit:     g.limit,
		Period:    g.period,
		Available: g.available,
		Waiting:   g.waiters.Len(),
		Granted:   g.granted,
		Refills:   g.refills,
		Closed:    g.closed,
	}
}

// Close stops the replenishment clock and fails every queued caller with
// ErrGateClosed. Subsequent acquisitions fail with ErrGateClosed as well.
// Close is idempotent and waits for the clock goroutine to exit.
func (g *Gate) Close() error {
	g.once.Do(func() {
		g.mu.Lock()
		pending := g.closeLocked()
		g.mu.Unlock()

		close(g.stop)
		<-g.stopped

		g.logger.Debug("admission gate closed",
			"pending_waiters_failed", pending,
		)
	})
	return nil
}

// closeLocked marks the gate closed and fails every queued caller. It
// returns the number of callers failed. Caller must hold g.mu.
func (g *Gate) closeLocked() int {
	g.closed = true
	pending := g.waiters.Len()
	for e := g.waiters.Front(); e != nil; e = g.waiters.Front() {
		w := g.waiters.Remove(e).(*waiter)
		w.err = ErrGateClosed
		close(w.ready)
	}
	return pending
}

// run is the replenishment loop. It owns the ticker.
func (g *Gate) run() {
	defer close(g.stopped)
	defer g.ticker.Stop()

	for {
		select {
		case <-g.stop:
			return
		case <-g.ticker.C():
			g.refill()
		}
	}
}

// refill restores the pool to limit and serves queued callers oldest-first.
// It returns the number of permits added to the window.
func (g *Gate) refill() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return 0
	}

	deficit := g.limit - g.available
	if deficit <= 0 {
		return 0
	}

	g.available = g.limit
	g.refills++
	for g.available > 0 && g.waiters.Len() > 0 {
		g.grantFrontLocked()
	}

	return deficit
}

// returnLocked puts back a permit that was granted but not used. It goes to
// the oldest waiter if there is one, otherwise back to the pool without
// exceeding limit. Caller must hold g.mu.
func (g *Gate) returnLocked() {
	if g.waiters.Len() > 0 {
		g.available++
		g.grantFrontLocked()
		return
	}
	if g.available < g.limit {
		g.available++
	}
}

// grantFrontLocked hands one permit from the pool to the oldest waiter.
// Caller must hold g.mu and ensure available > 0 and the queue is non-empty.
func (g *Gate) grantFrontLocked() {
	w := g.waiters.Remove(g.waiters.Front()).(*waiter)
	g.available--
	g.granted++
	close(w.ready)
}
