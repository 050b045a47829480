package ratelimit

import "time"

// Ticker delivers the periodic replenishment signal.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFunc builds a Ticker firing every period.
type TickerFunc func(period time.Duration) Ticker

// timeTicker adapts *time.Ticker to Ticker.
type timeTicker struct {
	t *time.Ticker
}

// NewTimeTicker returns a wall-clock Ticker.
func NewTimeTicker(period time.Duration) Ticker {
	return &timeTicker{t: time.NewTicker(period)}
}

func (tt *timeTicker) C() <-chan time.Time { return tt.t.C }

func (tt *timeTicker) Stop() { tt.t.Stop() }
