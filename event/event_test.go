package event

import (
	"testing"
	"time"

	"github.com/NullCarrierNC/photonics-dmx-sub002/transition"
	"github.com/stretchr/testify/require"
)

type recordingInjector struct {
	kinds []transition.WaitKind
}

func (r *recordingInjector) DeliverEvent(_ time.Time, kind transition.WaitKind) {
	r.kinds = append(r.kinds, kind)
}

func TestHandlerDispatchesCorrectKind(t *testing.T) {
	t.Parallel()

	inj := &recordingInjector{}
	h := New(inj)

	now := time.Now()
	h.Beat(now)
	h.Measure(now)
	h.Keyframe(now)

	require.Equal(t, []transition.WaitKind{
		transition.WaitBeat,
		transition.WaitMeasure,
		transition.WaitKeyframe,
	}, inj.kinds)
}
