package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClockCountsDownToExpiry(t *testing.T) {
	clock := NewClockInterval(3, 5*time.Millisecond)

	var mu sync.Mutex
	var ticks []int
	expired := make(chan struct{})

	clock.Start(func(remaining int) {
		mu.Lock()
		ticks = append(ticks, remaining)
		mu.Unlock()
	}, func() {
		close(expired)
	})

	select {
	case <-expired:
	case <-time.After(time.Second):
		t.Fatal("clock never expired")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{2, 1, 0}, ticks)
}

func TestClockStopPreventsFurtherEvents(t *testing.T) {
	clock := NewClockInterval(100, 5*time.Millisecond)

	var mu sync.Mutex
	ticks := 0
	expiries := 0

	clock.Start(func(int) {
		mu.Lock()
		ticks++
		mu.Unlock()
	}, func() {
		mu.Lock()
		expiries++
		mu.Unlock()
	})

	time.Sleep(20 * time.Millisecond)
	clock.Stop()

	mu.Lock()
	after := ticks
	mu.Unlock()

	time.Sleep(30 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, expiries)
	// At most one tick that had already begun dispatch when Stop ran.
	assert.LessOrEqual(t, ticks, after+1)
}

func TestClockStopIdempotent(t *testing.T) {
	clock := NewClockInterval(10, time.Millisecond)
	clock.Start(nil, nil)

	clock.Stop()
	assert.NotPanics(t, func() { clock.Stop() })
}

func TestClockExpiryFiresOnce(t *testing.T) {
	clock := NewClockInterval(1, 2*time.Millisecond)

	var mu sync.Mutex
	expiries := 0
	clock.Start(nil, func() {
		mu.Lock()
		expiries++
		mu.Unlock()
	})

	time.Sleep(30 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, expiries)
}

func TestClockNegativeBudgetClampedToZero(t *testing.T) {
	clock := NewClockInterval(-5, time.Millisecond)
	assert.Equal(t, 0, clock.Remaining())
}
