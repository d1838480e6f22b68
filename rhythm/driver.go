package rhythm

import "time"

// beatEmitter is the subset of event.Handler a Driver needs. Kept local
// rather than importing the event package directly to avoid a dependency
// cycle if event ever needs rhythm.
type beatEmitter interface {
	Beat(now time.Time)
	Measure(now time.Time)
}

// Driver advances a Metronome's notion of "now" once per engine tick and
// fires Beat/Measure events on every boundary crossed since the previous
// tick. It exists for the common case where the host doesn't have its own
// external beat source and wants the engine driven by a free-running
// tempo instead; a game with its own beat tracker can call event.Handler
// directly and skip Driver entirely.
type Driver struct {
	metronome *Metronome
	emitter   beatEmitter
	lastBeat  int64
	lastBar   int64
	armed     bool
}

// NewDriver creates a Driver that fires events on emitter as boundaries
// are crossed, starting from the metronome's current position at `now`.
func NewDriver(m *Metronome, emitter beatEmitter, now time.Time) *Driver {
	snap := m.Snapshot(now)
	return &Driver{
		metronome: m,
		emitter:   emitter,
		lastBeat:  snap.GetBeat(),
		lastBar:   snap.GetBar(),
		armed:     true,
	}
}

// Advance checks whether `now` has crossed a beat or bar boundary since
// the last call and fires the corresponding events: one Beat per beat
// boundary and one Measure per bar boundary crossed.
func (d *Driver) Advance(now time.Time) {
	snap := d.metronome.Snapshot(now)
	beat := snap.GetBeat()
	bar := snap.GetBar()

	if beat != d.lastBeat {
		for i := int64(0); i < max(beat-d.lastBeat, 1); i++ {
			d.emitter.Beat(now)
		}
		d.lastBeat = beat
	}
	if bar != d.lastBar {
		for i := int64(0); i < max(bar-d.lastBar, 1); i++ {
			d.emitter.Measure(now)
		}
		d.lastBar = bar
	}
}
