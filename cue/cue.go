// Package cue is CueDispatcher and its supporting Registry: the mapping
// from a game cue kind to the effect it installs. Concrete cue scripts are
// out of scope here, the way the teacher's Master singleton generated cue
// IDs and ran cue lists without ever defining a specific show.
package cue

import (
	"fmt"

	"github.com/NullCarrierNC/photonics-dmx-sub002/transition"
	"github.com/google/uuid"
)

// Discipline selects which of TransitionEngine's four submission
// disciplines a cue installs its effect with.
type Discipline int

const (
	DisciplineAdd Discipline = iota
	DisciplineSet
	DisciplineAddUnblockedByName
	DisciplineSetUnblockedByName
)

// Cue builds the effect a game cue kind installs and is notified of the
// lifecycle events that matter to stateful cues (strobes that need to
// stop cleanly, cues that pause with the game).
type Cue interface {
	BuildEffect(params map[string]any) (*transition.Effect, error)
	Discipline() Discipline
	Persistent() bool
	// IsStrobe reports whether this cue is a live strobe effect. Strobe
	// cues bypass the dispatcher's consistency window since their whole
	// purpose is rapid, repeated re-triggering.
	IsStrobe() bool
	OnStop()
	OnPause()
	OnDestroy()
}

// Registry resolves a cue kind name to a Cue implementation, consulting
// overlay groups before the default group the way the teacher layered
// cue lists by Priority.
type Registry struct {
	defaultGroup map[string]Cue
	overlays     []map[string]Cue
}

// NewRegistry returns a Registry with defaultGroup as its base lookup
// table. defaultGroup may be nil.
func NewRegistry(defaultGroup map[string]Cue) *Registry {
	if defaultGroup == nil {
		defaultGroup = make(map[string]Cue)
	}
	return &Registry{defaultGroup: defaultGroup}
}

// PushOverlay installs an overlay group consulted before every group
// beneath it and the default group. The most recently pushed overlay
// wins.
func (r *Registry) PushOverlay(group map[string]Cue) {
	r.overlays = append(r.overlays, group)
}

// PopOverlay removes the most recently pushed overlay, if any.
func (r *Registry) PopOverlay() {
	if len(r.overlays) == 0 {
		return
	}
	r.overlays = r.overlays[:len(r.overlays)-1]
}

// Resolve finds the Cue registered for kind, checking overlays from most
// to least recently pushed before falling back to the default group.
func (r *Registry) Resolve(kind string) (Cue, bool) {
	for i := len(r.overlays) - 1; i >= 0; i-- {
		if c, ok := r.overlays[i][kind]; ok {
			return c, true
		}
	}
	c, ok := r.defaultGroup[kind]
	return c, ok
}

// Build resolves kind and builds its effect, minting a stable uuid ID for
// the result if the cue didn't already set one.
func (r *Registry) Build(kind string, params map[string]any) (*transition.Effect, error) {
	c, ok := r.Resolve(kind)
	if !ok {
		return nil, fmt.Errorf("cue: unknown kind %q", kind)
	}
	eff, err := c.BuildEffect(params)
	if err != nil {
		return nil, fmt.Errorf("cue: building %q: %w", kind, err)
	}
	if eff.ID == "" {
		eff.ID = uuid.NewString()
	}
	return eff, nil
}
