package sched

import (
	"context"
	"time"
)

// Ticker is a periodic timer source calling Raise on every tick.
type Ticker struct {
	TickerName string
	Interval   time.Duration
	Raise      func()
}

// Tickers returns the 2 ms and 1 s timer sources for flags.
func Tickers(f *Flags) []*Ticker {
	return []*Ticker{
		{TickerName: "timer:2ms", Interval: 2 * time.Millisecond, Raise: f.Raise2ms},
		{TickerName: "timer:1s", Interval: time.Second, Raise: f.Raise1s},
	}
}

// Name implements Named.
func (t *Ticker) Name() string {
	return t.TickerName
}

// Run implements Runnable.
func (t *Ticker) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			t.Raise()
		}
	}
}
