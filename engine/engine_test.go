package engine

import (
	"context"
	"testing"
	"time"

	"github.com/NullCarrierNC/photonics-dmx-sub002/color"
	"github.com/NullCarrierNC/photonics-dmx-sub002/config"
	"github.com/NullCarrierNC/photonics-dmx-sub002/cue"
	"github.com/NullCarrierNC/photonics-dmx-sub002/dmx"
	"github.com/NullCarrierNC/photonics-dmx-sub002/metrics"
	"github.com/NullCarrierNC/photonics-dmx-sub002/sink"
	"github.com/NullCarrierNC/photonics-dmx-sub002/transition"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.TickHz = 100
	cfg.Fixtures = []config.FixtureSpec{
		{
			LightID: "par1",
			Kind:    dmx.KindRGB,
			Channels: map[dmx.ChannelName]int{
				dmx.ChannelRed:   1,
				dmx.ChannelGreen: 2,
				dmx.ChannelBlue:  3,
			},
		},
	}
	return cfg
}

type strikeCue struct{}

func (strikeCue) BuildEffect(map[string]any) (*transition.Effect, error) {
	return &transition.Effect{
		Name: "strike",
		Transitions: []transition.Transition{
			{
				Layer:  1,
				Lights: []string{"par1"},
				Transform: transition.Transform{
					Target:     color.Sample{Red: 255, Opacity: 1},
					DurationMs: 10,
					Easing:     "linear",
				},
			},
		},
	}, nil
}
func (strikeCue) Discipline() cue.Discipline { return cue.DisciplineAdd }
func (strikeCue) Persistent() bool           { return false }
func (strikeCue) IsStrobe() bool             { return false }
func (strikeCue) OnStop()                    {}
func (strikeCue) OnPause()                   {}
func (strikeCue) OnDestroy()                 {}

func newTestEngine(t *testing.T) (*Engine, *clocktesting.FakeClock) {
	t.Helper()
	fake := clocktesting.NewFakeClock(time.Now())
	registry := cue.NewRegistry(map[string]cue.Cue{"strike": strikeCue{}})
	e := New(testConfig(), registry, fake, testLogger())
	return e, fake
}

func TestDispatchedCueReachesSinkAsDMXFrame(t *testing.T) {
	t.Parallel()

	e, fake := newTestEngine(t)
	recorder := sink.NewInProcessSink()
	e.Sinks().Enable("test", recorder)

	e.Start()
	defer e.Stop()

	require.NoError(t, e.DispatchCue("strike", nil))

	for i := 0; i < 5; i++ {
		fake.Step(10 * time.Millisecond)
		time.Sleep(5 * time.Millisecond)
	}

	received := recorder.Received()
	require.NotEmpty(t, received)
	require.Equal(t, byte(255), received[len(received)-1][0])
}

func TestShutdownSendsFinalBlackoutPastLastFrame(t *testing.T) {
	t.Parallel()

	e, fake := newTestEngine(t)
	recorder := sink.NewInProcessSink()
	e.Sinks().Enable("test", recorder)

	e.Start()

	require.NoError(t, e.DispatchCue("strike", nil))
	fake.Step(10 * time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- e.Shutdown(ctx) }()

	fake.Step(20 * time.Millisecond)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown did not complete")
	}

	received := recorder.Received()
	require.NotEmpty(t, received)
	require.Equal(t, dmx.Blackout(), received[len(received)-1])
}

func TestUnknownCueKindDoesNotPanic(t *testing.T) {
	t.Parallel()

	e, fake := newTestEngine(t)
	e.Start()
	defer e.Stop()

	require.NoError(t, e.DispatchCue("never-registered", nil))
	fake.Step(10 * time.Millisecond)
}

func TestMetricsUpdatePerTick(t *testing.T) {
	t.Parallel()

	e, fake := newTestEngine(t)
	m := metrics.New()
	e.UseMetrics(m)

	e.Start()
	defer e.Stop()

	require.NoError(t, e.DispatchCue("strike", nil))
	fake.Step(10 * time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	require.Greater(t, testutil.CollectAndCount(m.TickDuration), 0)
	require.Equal(t, float64(1), testutil.ToFloat64(m.ActiveRecords))
}
