package session

import (
	"sync"
	"time"
)

// TickFunc receives the remaining whole seconds after each tick.
type TickFunc func(remaining int)

// ExpireFunc fires once when remaining time transitions from 1 to 0.
type ExpireFunc func()

// Clock is a cancellable countdown owned by exactly one controller.
// It emits one tick per elapsed interval, decrementing remaining by
// exactly 1, and a single expiry on the 1->0 transition. After Stop,
// or after expiry, no further events are emitted. The budget is
// initialized once; there is no pause or resume.
type Clock struct {
	interval time.Duration

	mu        sync.Mutex
	remaining int
	stopped   bool
	stopCh    chan struct{}
}

// NewClock creates a countdown over budgetSeconds with one-second ticks.
func NewClock(budgetSeconds int) *Clock {
	return NewClockInterval(budgetSeconds, time.Second)
}

// NewClockInterval allows a custom tick interval. Tests use short
// intervals; production always ticks at one second.
func NewClockInterval(budgetSeconds int, interval time.Duration) *Clock {
	if budgetSeconds < 0 {
		budgetSeconds = 0
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Clock{
		interval:  interval,
		remaining: budgetSeconds,
		stopCh:    make(chan struct{}),
	}
}

// Start launches the countdown goroutine. Callbacks are invoked from
// that goroutine, one at a time, in tick order.
func (c *Clock) Start(onTick TickFunc, onExpire ExpireFunc) {
	go c.run(onTick, onExpire)
}

func (c *Clock) run(onTick TickFunc, onExpire ExpireFunc) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.stopped {
				c.mu.Unlock()
				return
			}
			if c.remaining > 0 {
				c.remaining--
			}
			r := c.remaining
			expired := r == 0
			if expired {
				// mark before dispatch so Stop becomes a no-op
				c.stopped = true
			}
			c.mu.Unlock()

			if onTick != nil {
				onTick(r)
			}
			if expired {
				if onExpire != nil {
					onExpire()
				}
				return
			}
		}
	}
}

// Stop cancels the countdown. Once Stop returns, no tick that has not
// already begun dispatch will be observed, and expiry will never fire.
func (c *Clock) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	c.mu.Unlock()
	close(c.stopCh)
}

// Remaining returns the current remaining seconds.
func (c *Clock) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}
