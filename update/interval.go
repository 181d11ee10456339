// Package update provides the polling interval and the ticker abstraction that drives it.
package update

import (
	"fmt"
	"time"
)

// DefaultInterval is the polling interval used when none is configured (60000 ms).
const DefaultInterval = 60 * time.Second

// Millis converts a millisecond count into a Duration.
func Millis(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// Validate rejects intervals a ticker cannot be armed with.
func Validate(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("invalid update interval %s (must be > 0)", d)
	}
	return nil
}

// Ticker delivers ticks until stopped.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Scheduler arms repeating tickers.
type Scheduler interface {
	NewTicker(d time.Duration) Ticker
}

// SystemScheduler arms real time.Tickers.
type SystemScheduler struct{}

// NewTicker implements Scheduler.
func (SystemScheduler) NewTicker(d time.Duration) Ticker {
	return systemTicker{t: time.NewTicker(d)}
}

type systemTicker struct {
	t *time.Ticker
}

func (s systemTicker) C() <-chan time.Time { return s.t.C }
func (s systemTicker) Stop()               { s.t.Stop() }
