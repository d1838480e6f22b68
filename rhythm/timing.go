package rhythm

import (
	"time"

	"github.com/NullCarrierNC/photonics-dmx-sub002/layer"
)

// AbsoluteTimingForBeats builds the layer.AbsoluteTiming a persistent
// cyclic cue needs to restart every `beats` beats, aligned to the
// metronome's timeline rather than to whenever its own previous cycle
// happened to finish.
func (m *Metronome) AbsoluteTimingForBeats(beats int, lightOffset time.Duration) *layer.AbsoluteTiming {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &layer.AbsoluteTiming{
		CycleStart:    m.startTime,
		CycleDuration: durationFromMillis(beatsToMilliseconds(beats, m.tempo)),
		LightOffset:   lightOffset,
	}
}

// AbsoluteTimingForBars builds the layer.AbsoluteTiming a persistent
// cyclic cue needs to restart every `bars` bars.
func (m *Metronome) AbsoluteTimingForBars(bars int, lightOffset time.Duration) *layer.AbsoluteTiming {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &layer.AbsoluteTiming{
		CycleStart:    m.startTime,
		CycleDuration: durationFromMillis(beatsToMilliseconds(bars*m.beatsPerBar, m.tempo)),
		LightOffset:   lightOffset,
	}
}
