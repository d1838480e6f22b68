package rhythm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recordingEmitter struct {
	beats    int
	measures int
}

func (r *recordingEmitter) Beat(time.Time)    { r.beats++ }
func (r *recordingEmitter) Measure(time.Time) { r.measures++ }

func TestDriverFiresBeatOnEveryCrossing(t *testing.T) {
	t.Parallel()

	t0 := time.Now()
	m := NewMetronomeWithTempo(t0, 120, 4, 8)
	emitter := &recordingEmitter{}
	d := NewDriver(m, emitter, t0)

	d.Advance(t0.Add(100 * time.Millisecond))
	require.Equal(t, 0, emitter.beats)

	d.Advance(t0.Add(500 * time.Millisecond))
	require.Equal(t, 1, emitter.beats)

	d.Advance(t0.Add(1999 * time.Millisecond))
	require.Equal(t, 3, emitter.beats)
	require.Equal(t, 0, emitter.measures)

	d.Advance(t0.Add(2000 * time.Millisecond))
	require.Equal(t, 4, emitter.beats)
	require.Equal(t, 1, emitter.measures)
}

func TestDriverDoesNotRefireWithinSameBeat(t *testing.T) {
	t.Parallel()

	t0 := time.Now()
	m := NewMetronomeWithTempo(t0, 120, 4, 8)
	emitter := &recordingEmitter{}
	d := NewDriver(m, emitter, t0)

	d.Advance(t0.Add(600 * time.Millisecond))
	d.Advance(t0.Add(650 * time.Millisecond))
	d.Advance(t0.Add(700 * time.Millisecond))
	require.Equal(t, 1, emitter.beats)
}
