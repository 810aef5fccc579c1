package timer

import (
	"sync"
	"time"
)

// Timer calls fn every interval while running. fn runs under the timer's
// lock, so it must not call back into the Timer.
type Timer struct {
	mu       sync.Mutex
	running  bool
	interval time.Duration
	fn       func()
	stopChan chan struct{}
}

func New(interval time.Duration, fn func()) *Timer {
	if interval <= 0 {
		interval = time.Second
	}
	return &Timer{
		interval: interval,
		fn:       fn,
	}
}

// Start begins ticking. It reports false if the timer was already running.
func (t *Timer) Start() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return false
	}

	t.running = true
	stop := make(chan struct{})
	t.stopChan = stop

	go func() {
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				t.mu.Lock()
				if t.stopChan != stop {
					t.mu.Unlock()
					return
				}
				t.fn()
				t.mu.Unlock()
			}
		}
	}()
	return true
}

// Stop cancels ticking. It reports false if the timer was not running, so
// callers can tell the single effective cancellation apart from repeats.
// Once Stop returns, fn is not called again.
func (t *Timer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running {
		return false
	}

	t.running = false
	close(t.stopChan)
	t.stopChan = nil
	return true
}

func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}
