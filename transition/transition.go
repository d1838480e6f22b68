// Package transition holds the declarative animation data model: a Wait
// condition, a Transform, and the Transitions and Effects built from them.
// Nothing in this package advances state - that's sequencer's job. Values
// here are immutable once built, in keeping with the "shared-across-layers
// effect handles" redesign flag: an *Effect is referenced read-only from
// every per-(layer,light) record that installs it.
package transition

import "github.com/NullCarrierNC/photonics-dmx-sub002/color"

// WaitKind names the shape of a pre- or post-wait condition.
type WaitKind int

const (
	WaitNone WaitKind = iota
	WaitDelay
	WaitBeat
	WaitMeasure
	WaitKeyframe
)

func (k WaitKind) IsEventGated() bool {
	return k == WaitBeat || k == WaitMeasure || k == WaitKeyframe
}

// Wait describes a pre-wait or post-wait condition attached to a Transform.
// DelayMs only applies to WaitDelay. Count only applies to event-gated
// kinds: a positive count decrements on each matching event and the wait
// resolves when it reaches zero; a zero count resolves on the first event.
type Wait struct {
	Kind    WaitKind
	DelayMs int64
	Count   int
}

// Transform is the fade itself: a target color, a duration, and an easing
// function name resolved by the interpolator's registry.
type Transform struct {
	Target     color.Sample
	DurationMs int64
	Easing     string
}

// Transition is one wait+transform+wait step, declared against a layer and
// one or more lights. TransitionEngine expands multi-light transitions into
// single-light records before installing them.
type Transition struct {
	Layer    int
	Lights   []string
	PreWait  Wait
	Transform Transform
	PostWait Wait
}

// Effect is a named, ordered sequence of transitions. Transitions of one
// effect may target different layers and different lights; TransitionEngine
// groups them by (layer, light) at install time.
type Effect struct {
	ID          string
	Name        string
	Description string
	Transitions []Transition
}

// TouchesLayer reports whether any transition in the effect targets layer l.
func (e *Effect) TouchesLayer(l int) bool {
	for _, t := range e.Transitions {
		if t.Layer == l {
			return true
		}
	}
	return false
}

// MinLayer returns the lowest layer index any transition of the effect
// targets, or 0 if the effect has no transitions.
func (e *Effect) MinLayer() int {
	min := 0
	first := true
	for _, t := range e.Transitions {
		if first || t.Layer < min {
			min = t.Layer
			first = false
		}
	}
	return min
}
