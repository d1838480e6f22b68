// Package rhythm tracks the song tempo a cue builder aligns persistent
// cyclic effects to. A Metronome converts a tempo and a timeline origin
// into beat/bar/phrase boundaries; cue builders consult it to compute the
// layer.AbsoluteTiming a "pulse on every beat" or "sweep every bar" cue
// needs, instead of hardcoding a cycle duration.
package rhythm

import (
	"math"
	"sync"
	"time"
)

// Metronome tracks a tempo and timeline origin.
// Originally based on https://github.com/Deep-Symmetry/electro/blob/main/src/main/java/org/deepsymmetry/electro/Metronome.java
type Metronome struct {
	mu            sync.Mutex
	startTime     time.Time
	tempo         float64
	beatsPerBar   int
	barsPerPhrase int
}

// NewMetronome creates a Metronome starting at now, 120 BPM, 4/4, 8-bar
// phrases.
func NewMetronome(now time.Time) *Metronome {
	return NewMetronomeWithTempo(now, 120.0, 4, 8)
}

// NewMetronomeWithTempo creates a Metronome with an explicit tempo and
// time signature, its timeline originating at now.
func NewMetronomeWithTempo(now time.Time, bpm float64, beatsPerBar, barsPerPhrase int) *Metronome {
	return &Metronome{
		startTime:     now,
		tempo:         bpm,
		beatsPerBar:   beatsPerBar,
		barsPerPhrase: barsPerPhrase,
	}
}

// Snapshot captures the metronome's state at the given instant.
func (m *Metronome) Snapshot(instant time.Time) Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &metronomeSnapshot{
		startTime:     m.startTime,
		tempo:         m.tempo,
		beatsPerBar:   m.beatsPerBar,
		barsPerPhrase: m.barsPerPhrase,
		instant:       instant,
	}
}

// Tempo returns the current tempo in beats per minute.
func (m *Metronome) Tempo() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tempo
}

// SetTempo changes the tempo as of `now`. The timeline origin shifts so
// the beat and phase the metronome was on at `now` are unaffected by the
// tempo change.
func (m *Metronome) SetTempo(now time.Time, bpm float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	interval := beatsToMilliseconds(1, m.tempo)
	beat := markerNumber(now, m.startTime, interval)
	phase := markerPhase(now, m.startTime, interval)
	newInterval := beatsToMilliseconds(1, bpm)
	m.startTime = now.Add(-durationFromMillis(newInterval * (phase + float64(beat) - 1)))
	m.tempo = bpm
}

// BeatDuration returns how long one beat lasts.
func (m *Metronome) BeatDuration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return durationFromMillis(beatsToMilliseconds(1, m.tempo))
}

// BarDuration returns how long one bar lasts.
func (m *Metronome) BarDuration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return durationFromMillis(beatsToMilliseconds(m.beatsPerBar, m.tempo))
}

// StartTime returns the metronome's timeline origin.
func (m *Metronome) StartTime() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startTime
}

func beatsToMilliseconds(beats int, tempo float64) float64 {
	return (60000.0 / tempo) * float64(beats)
}

func durationFromMillis(ms float64) time.Duration {
	return time.Duration(math.Round(ms)) * time.Millisecond
}

func markerNumber(instant, start time.Time, intervalMs float64) int {
	return int(math.Floor(instant.Sub(start).Seconds()*1000/intervalMs)) + 1
}

func markerPhase(instant, start time.Time, intervalMs float64) float64 {
	ratio := instant.Sub(start).Seconds() * 1000 / intervalMs
	return ratio - math.Floor(ratio)
}
