package session

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestTicker_FiresPeriodically(t *testing.T) {
	defer goleak.VerifyNone(t)

	var ticks atomic.Int64
	ticker := StartTicker(5*time.Millisecond, func() { ticks.Add(1) })

	require.Eventually(t, func() bool { return ticks.Load() >= 3 },
		time.Second, time.Millisecond)
	ticker.Stop()
}

func TestTicker_StopIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	ticker := StartTicker(5*time.Millisecond, func() {})
	ticker.Stop()
	ticker.Stop()
}

func TestTicker_NoTicksAfterStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	var ticks atomic.Int64
	ticker := StartTicker(time.Millisecond, func() { ticks.Add(1) })
	time.Sleep(10 * time.Millisecond)
	ticker.Stop()

	after := ticks.Load()
	time.Sleep(10 * time.Millisecond)
	require.Equal(t, after, ticks.Load())
}

func TestController_CloseStopsTicker(t *testing.T) {
	defer goleak.VerifyNone(t)

	c, _, _ := newTestController(t)
	c.Close()
}
