package session

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReadThrottle_BurstThenRefill(t *testing.T) {
	clk := newFakeClock()
	th := NewReadThrottle(clk.Now)

	for i := 0; i < readTokenBurst; i++ {
		assert.True(t, th.TryAcquire("home"), "acquire %d", i)
	}
	assert.False(t, th.TryAcquire("home"))

	clk.Advance(readTokenRefill - time.Millisecond)
	assert.False(t, th.TryAcquire("home"))

	clk.Advance(time.Millisecond)
	assert.True(t, th.TryAcquire("home"))
	assert.False(t, th.TryAcquire("home"))

	// a full minute of idleness refills to the burst, not beyond
	clk.Advance(10 * time.Minute)
	for i := 0; i < readTokenBurst; i++ {
		assert.True(t, th.TryAcquire("home"))
	}
	assert.False(t, th.TryAcquire("home"))
}

func TestReadThrottle_ResetAndForget(t *testing.T) {
	clk := newFakeClock()
	th := NewReadThrottle(clk.Now)

	for i := 0; i < readTokenBurst; i++ {
		th.TryAcquire("home")
	}
	th.Reset("home")
	assert.Equal(t, 1, th.Len())
	assert.True(t, th.TryAcquire("home"))

	th.Forget("home")
	th.Forget("never-seen")
	assert.Equal(t, 0, th.Len())
}

func TestReadThrottle_IDsAreIndependent(t *testing.T) {
	th := NewReadThrottle(newFakeClock().Now)

	for i := 0; i < readTokenBurst; i++ {
		th.TryAcquire("a")
	}
	assert.False(t, th.TryAcquire("a"))
	assert.True(t, th.TryAcquire("b"))
	assert.Equal(t, 2, th.Len())
}

func TestReadThrottle_ConcurrentAcquireNeverExceedsBurst(t *testing.T) {
	th := NewReadThrottle(newFakeClock().Now)

	var granted atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if th.TryAcquire("home") {
				granted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(readTokenBurst), granted.Load())
}
