package session

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Ticker runs a callback on a fixed interval until stopped. Stop is a
// synchronous join: it returns only after the loop goroutine has exited, so a
// pending tick can never fire after teardown begins.
type Ticker struct {
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// StartTicker launches the tick loop. The callback runs on the loop goroutine;
// it must not block indefinitely.
func StartTicker(clock clockwork.Clock, interval time.Duration, tick func()) *Ticker {
	t := &Ticker{done: make(chan struct{})}
	t.wg.Add(1)

	go func() {
		defer t.wg.Done()
		ticker := clock.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.Chan():
				tick()
			case <-t.done:
				return
			}
		}
	}()

	return t
}

// Stop cancels the ticker and waits for the loop goroutine to exit.
// Safe to call more than once.
func (t *Ticker) Stop() {
	t.stopOnce.Do(func() {
		close(t.done)
	})
	t.wg.Wait()
}
