package rhythm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBeatIntervalMatchesTempo(t *testing.T) {
	t.Parallel()

	m := NewMetronomeWithTempo(time.Now(), 120, 4, 8)
	require.Equal(t, 500*time.Millisecond, m.BeatDuration())
	require.Equal(t, 2*time.Second, m.BarDuration())
}

func TestSnapshotBeatAndBarAdvanceWithTime(t *testing.T) {
	t.Parallel()

	t0 := time.Now()
	m := NewMetronomeWithTempo(t0, 120, 4, 8)

	snap := m.Snapshot(t0)
	require.Equal(t, int64(1), snap.GetBeat())
	require.Equal(t, int64(1), snap.GetBar())
	require.True(t, snap.IsDownBeat())

	snap2 := m.Snapshot(t0.Add(2500 * time.Millisecond))
	require.Equal(t, int64(6), snap2.GetBeat())
	require.Equal(t, int64(2), snap2.GetBar())
	require.Equal(t, 2, snap2.GetBeatWithinBar())
	require.False(t, snap2.IsDownBeat())
}

func TestSetTempoPreservesCurrentPhase(t *testing.T) {
	t.Parallel()

	t0 := time.Now()
	m := NewMetronomeWithTempo(t0, 120, 4, 8)

	mid := t0.Add(1750 * time.Millisecond)
	before := m.Snapshot(mid)
	beatBefore := before.GetBeat()

	m.SetTempo(mid, 140)
	after := m.Snapshot(mid)
	require.Equal(t, beatBefore, after.GetBeat(), "retempo must not jump the current beat")
}

func TestMarkerStringFormatsPhraseBarBeat(t *testing.T) {
	t.Parallel()

	t0 := time.Now()
	m := NewMetronomeWithTempo(t0, 120, 4, 8)
	snap := m.Snapshot(t0.Add(17 * time.Second))
	require.Regexp(t, `^\d+\.\d+\.\d+$`, snap.GetMarker())
}

func TestAbsoluteTimingForBeatsAlignsToMetronomeOrigin(t *testing.T) {
	t.Parallel()

	t0 := time.Now()
	m := NewMetronomeWithTempo(t0, 120, 4, 8)

	at := m.AbsoluteTimingForBeats(4, 0)
	require.Equal(t, t0, at.CycleStart)
	require.Equal(t, 2*time.Second, at.CycleDuration)
}
