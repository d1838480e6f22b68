package sink

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/NullCarrierNC/photonics-dmx-sub002/dmx"
	"github.com/NullCarrierNC/photonics-dmx-sub002/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestSendDeliversToAllEnabledSinks(t *testing.T) {
	t.Parallel()

	f := NewFanout()
	a := NewInProcessSink()
	b := NewInProcessSink()
	f.Enable("a", a)
	f.Enable("b", b)

	u := dmx.Universe{}
	u[0] = 42
	f.Send(context.Background(), u)

	require.Len(t, a.Received(), 1)
	require.Len(t, b.Received(), 1)
	require.Equal(t, byte(42), a.Received()[0][0])
}

func TestOneSinkFailureDoesNotBlockOthers(t *testing.T) {
	t.Parallel()

	f := NewFanout()
	good := NewInProcessSink()
	bad := NewInProcessSink()
	bad.AlwaysFail(errors.New("boom"))
	f.Enable("good", good)
	f.Enable("bad", bad)

	var mu sync.Mutex
	var errs []SinkError
	f.OnError(func(e SinkError) {
		mu.Lock()
		defer mu.Unlock()
		errs = append(errs, e)
	})

	f.Send(context.Background(), dmx.Universe{})

	require.Len(t, good.Received(), 1)
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, errs, 1)
	require.Equal(t, "bad", errs[0].SinkID)
}

func TestUnchangedFrameIsCoalesced(t *testing.T) {
	t.Parallel()

	f := NewFanout()
	a := NewInProcessSink()
	f.Enable("a", a)

	u := dmx.Universe{}
	u[5] = 7
	f.Send(context.Background(), u)
	f.Send(context.Background(), u)

	require.Len(t, a.Received(), 1)
}

func TestDisableStopsDelivery(t *testing.T) {
	t.Parallel()

	f := NewFanout()
	a := NewInProcessSink()
	f.Enable("a", a)
	f.Disable("a")

	f.Send(context.Background(), dmx.Universe{})
	require.Empty(t, a.Received())
}

func TestShutdownForcesFinalBlackoutPastCoalescing(t *testing.T) {
	t.Parallel()

	f := NewFanout()
	a := NewInProcessSink()
	f.Enable("a", a)

	f.Send(context.Background(), dmx.Blackout())
	require.Len(t, a.Received(), 1)

	f.Shutdown(context.Background())
	require.Len(t, a.Received(), 2)
	require.Equal(t, dmx.Blackout(), a.Received()[1])
}

func TestMetricsCountFramesAndErrorsPerSink(t *testing.T) {
	t.Parallel()

	f := NewFanout()
	m := metrics.New()
	f.UseMetrics(m)

	good := NewInProcessSink()
	bad := NewInProcessSink()
	bad.AlwaysFail(errors.New("boom"))
	f.Enable("good", good)
	f.Enable("bad", bad)

	f.Send(context.Background(), dmx.Universe{})

	require.Equal(t, float64(1), testutil.ToFloat64(m.UniverseFrames.WithLabelValues("good")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.SinkErrors.WithLabelValues("bad")))
}
