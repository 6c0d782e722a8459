package session

import (
	"sync"
	"time"
)

// DefaultTickInterval is the position sampling period. Tunable via
// configuration; not a contract.
const DefaultTickInterval = 200 * time.Millisecond

// Ticker is a cancellable periodic task. It runs for the whole session
// lifetime, not just while playing, so sampling resumes without a gap
// when playback starts.
type Ticker struct {
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// StartTicker runs fn every interval until Stop is called.
func StartTicker(interval time.Duration, fn func()) *Ticker {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	t := &Ticker{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go func() {
		defer close(t.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fn()
			case <-t.stop:
				return
			}
		}
	}()
	return t
}

// Stop cancels the ticker and waits for the loop to exit. Idempotent.
func (t *Ticker) Stop() {
	t.once.Do(func() { close(t.stop) })
	<-t.done
}
