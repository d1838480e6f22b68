package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"
)

func TestClockDispatchesTicks(t *testing.T) {
	t.Parallel()

	fake := clocktesting.NewFakeClock(time.Now())
	c := New(fake, 60, nil)

	ticks := make(chan Tick, 8)
	c.Subscribe(func(tk Tick) { ticks <- tk })
	c.Start()
	defer c.Stop()

	fake.Step(17 * time.Millisecond)

	select {
	case tk := <-ticks:
		require.Equal(t, 17*time.Millisecond, tk.Elapsed)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for tick")
	}
}

func TestStartStopIdempotent(t *testing.T) {
	t.Parallel()

	fake := clocktesting.NewFakeClock(time.Now())
	c := New(fake, 60, nil)
	c.Start()
	c.Start()
	c.Stop()
	c.Stop()
}

func TestPanickingSubscriberDoesNotBlockOthers(t *testing.T) {
	t.Parallel()

	fake := clocktesting.NewFakeClock(time.Now())
	c := New(fake, 60, nil)

	called := make(chan struct{}, 1)
	c.Subscribe(func(Tick) { panic("boom") })
	c.Subscribe(func(Tick) { called <- struct{}{} })
	c.Start()
	defer c.Stop()

	fake.Step(17 * time.Millisecond)

	select {
	case <-called:
	case <-time.After(time.Second):
		t.Fatal("second subscriber was never called")
	}
}
