// Package clock drives the engine's fixed-rate tick. It wraps
// k8s.io/utils/clock so production code runs against the wall clock while
// tests can drive ticks deterministically with a fake one, the same split
// the teacher uses in cuelist.InitializeMaster(clock.RealClock{}, ...).
package clock

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	k8sclock "k8s.io/utils/clock"
)

// Tick carries the elapsed time since the previous tick and the absolute
// monotonic timestamp of this one. All scheduling inside the engine is
// driven from this monotonic source - never wall-clock time.
type Tick struct {
	Elapsed time.Duration
	Now     time.Time
}

// Subscriber receives every tick. A panicking subscriber is recovered and
// logged; it never prevents other subscribers from running.
type Subscriber func(Tick)

// Clock emits ticks at a nominal fixed rate.
type Clock struct {
	mu          sync.Mutex
	src         k8sclock.Clock
	period      time.Duration
	subscribers map[int]Subscriber
	nextID      int
	running     bool
	stop        chan struct{}
	done        chan struct{}
	log         *logrus.Logger
}

// New returns a Clock ticking at hz (e.g. 60 for ~16.67ms ticks), using src
// as its time source.
func New(src k8sclock.Clock, hz int, log *logrus.Logger) *Clock {
	if hz <= 0 {
		hz = 60
	}
	return &Clock{
		src:         src,
		period:      time.Second / time.Duration(hz),
		subscribers: make(map[int]Subscriber),
		log:         log,
	}
}

// Period returns the nominal duration between ticks.
func (c *Clock) Period() time.Duration {
	return c.period
}

// Subscribe registers a callback invoked on every tick and returns a token
// usable with Unsubscribe.
func (c *Clock) Subscribe(sub Subscriber) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.subscribers[id] = sub
	return id
}

// Unsubscribe removes a previously registered subscriber.
func (c *Clock) Unsubscribe(token int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subscribers, token)
}

// Start begins ticking. It is idempotent - calling Start on a running clock
// is a no-op.
func (c *Clock) Start() {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	c.mu.Unlock()

	go c.run()
}

// Stop halts ticking. It is idempotent - calling Stop when not running is a
// no-op. It blocks until the tick goroutine has exited.
func (c *Clock) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	stop := c.stop
	done := c.done
	c.mu.Unlock()

	close(stop)
	<-done
}

func (c *Clock) run() {
	defer close(c.done)

	ticker := c.src.NewTicker(c.period)
	defer ticker.Stop()

	last := c.src.Now()
	for {
		select {
		case <-c.stop:
			return
		case now := <-ticker.C():
			tick := Tick{Elapsed: now.Sub(last), Now: now}
			last = now
			c.dispatch(tick)
		}
	}
}

func (c *Clock) dispatch(tick Tick) {
	c.mu.Lock()
	subs := make([]Subscriber, 0, len(c.subscribers))
	for _, s := range c.subscribers {
		subs = append(subs, s)
	}
	c.mu.Unlock()

	for _, sub := range subs {
		c.safeCall(sub, tick)
	}
}

func (c *Clock) safeCall(sub Subscriber, tick Tick) {
	defer func() {
		if r := recover(); r != nil {
			if c.log != nil {
				c.log.WithField("panic", r).Error("clock: subscriber panicked")
			}
		}
	}()
	sub(tick)
}
