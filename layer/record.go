// Package layer is the exclusive owner of every active effect record and
// its pending continuations, keyed by (layer, light). TransitionEngine is
// the only caller; everything here runs on the engine's single executor, so
// the store itself holds no locks (see design notes on the "thread-safe via
// main loop" pattern).
package layer

import (
	"time"

	"github.com/NullCarrierNC/photonics-dmx-sub002/color"
	"github.com/NullCarrierNC/photonics-dmx-sub002/transition"
)

// State is where a record sits in the per-(layer,light) state machine.
type State int

const (
	StateWaitingFor State = iota
	StateTransitioning
	StateWaitingUntil
)

func (s State) String() string {
	switch s {
	case StateWaitingFor:
		return "waitingFor"
	case StateTransitioning:
		return "transitioning"
	case StateWaitingUntil:
		return "waitingUntil"
	default:
		return "unknown"
	}
}

// AbsoluteTiming re-aligns a persistent cyclic effect to a fixed cadence
// across re-enqueues: the effect restarts at T0 + lightOffset + k*cycleDuration
// rather than drifting by however long the previous cycle actually took.
type AbsoluteTiming struct {
	CycleStart    time.Time
	CycleDuration time.Duration
	LightOffset   time.Duration
}

// NextBoundary returns the most recent or first cycle-aligned start time
// for `now`, per spec §4.3's integer-cycle formula.
func (a AbsoluteTiming) NextBoundary(now time.Time) time.Time {
	first := a.CycleStart.Add(a.LightOffset)
	if now.Before(first) {
		return first
	}
	if a.CycleDuration <= 0 {
		return first
	}
	elapsed := now.Sub(first)
	cycles := elapsed / a.CycleDuration
	return first.Add(cycles * a.CycleDuration)
}

// Record is the single active effect installed for one (layer, light).
type Record struct {
	Name            string
	Effect          *transition.Effect
	Transitions     []transition.Transition
	Index           int
	State           State
	TransitionStart time.Time
	WaitEnd         time.Time
	Persistent      bool
	LastEndState    color.Sample
	HasLastEndState bool
	AbsoluteTiming  *AbsoluteTiming

	// EventCountRemaining tracks how many more matching events an
	// event-gated wait needs before it resolves. Meaningless for
	// timed waits.
	EventCountRemaining int
}

// Current returns the transition the record is presently waiting on or
// transforming through.
func (r *Record) Current() transition.Transition {
	return r.Transitions[r.Index]
}

// Done reports whether the record has advanced past its last transition.
func (r *Record) Done() bool {
	return r.Index >= len(r.Transitions)
}

// QueueEntry is a deferred record waiting for the active slot to empty.
type QueueEntry struct {
	Name           string
	Effect         *transition.Effect
	Transitions    []transition.Transition
	Persistent     bool
	AbsoluteTiming *AbsoluteTiming
}
