package session

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicker_FiresOnInterval(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var ticks atomic.Int64

	ticker := StartTicker(clock, time.Second, func() { ticks.Add(1) })
	defer ticker.Stop()

	clock.BlockUntil(1)
	clock.Advance(time.Second)

	require.Eventually(t, func() bool {
		return ticks.Load() == 1
	}, time.Second, 5*time.Millisecond)

	clock.Advance(time.Second)
	require.Eventually(t, func() bool {
		return ticks.Load() == 2
	}, time.Second, 5*time.Millisecond)
}

func TestTicker_StopWaitsForLoopExit(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var ticks atomic.Int64

	ticker := StartTicker(clock, time.Second, func() { ticks.Add(1) })
	clock.BlockUntil(1)

	ticker.Stop()

	// Once Stop returns the loop goroutine is gone; further time advances
	// cannot fire the callback.
	before := ticks.Load()
	clock.Advance(5 * time.Second)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, before, ticks.Load())
}

func TestTicker_StopIdempotent(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ticker := StartTicker(clock, time.Second, func() {})
	clock.BlockUntil(1)

	ticker.Stop()
	ticker.Stop()
}
