package engine

import "time"

// Ticker is the repeating timer the engine schedules while running.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type TickerFactory func(interval time.Duration) Ticker

type systemTicker struct {
	t *time.Ticker
}

func NewSystemTicker(interval time.Duration) Ticker {
	return systemTicker{t: time.NewTicker(interval)}
}

func (s systemTicker) C() <-chan time.Time { return s.t.C }

func (s systemTicker) Stop() { s.t.Stop() }
