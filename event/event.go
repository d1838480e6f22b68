// Package event is EventHandler: it turns beat, measure, and keyframe
// notifications from the game into resolutions of whichever active
// records are currently waiting on that kind of event, via the sequencer
// engine's DeliverEvent.
package event

import (
	"time"

	"github.com/NullCarrierNC/photonics-dmx-sub002/transition"
)

// Injector resolves active records waiting on a matching event-gated
// condition. *sequencer.Engine implements this.
type Injector interface {
	DeliverEvent(now time.Time, kind transition.WaitKind)
}

// Handler is the narrow surface the game-side driver calls into; it never
// parses the game's wire protocol itself; that is explicitly out of scope
// here; callers translate their own protocol messages into these calls.
type Handler struct {
	injector Injector
}

// New returns a Handler delivering events into injector.
func New(injector Injector) *Handler {
	return &Handler{injector: injector}
}

// Beat injects a beat event at now.
func (h *Handler) Beat(now time.Time) {
	h.injector.DeliverEvent(now, transition.WaitBeat)
}

// Measure injects a measure event at now.
func (h *Handler) Measure(now time.Time) {
	h.injector.DeliverEvent(now, transition.WaitMeasure)
}

// Keyframe injects a keyframe event at now.
func (h *Handler) Keyframe(now time.Time) {
	h.injector.DeliverEvent(now, transition.WaitKeyframe)
}
