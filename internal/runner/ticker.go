package runner

import "time"

// Ticker delivers ticks until stopped.
type Ticker interface {
	Chan() <-chan time.Time
	Stop()
}

// TickerFactory creates a Ticker firing every d.
type TickerFactory func(d time.Duration) Ticker

type clockTicker struct {
	*time.Ticker
}

func (t clockTicker) Chan() <-chan time.Time {
	return t.C
}

// NewClockTicker is the default TickerFactory, backed by time.Ticker.
func NewClockTicker(d time.Duration) Ticker {
	return clockTicker{time.NewTicker(d)}
}
