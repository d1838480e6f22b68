package layer

import (
	"fmt"
	"time"

	"github.com/NullCarrierNC/photonics-dmx-sub002/color"
	"golang.org/x/exp/maps"
)

type key struct {
	Layer int
	Light string
}

// Store is the exclusive owner of active records, queues, cached per-layer
// light colors, and per-layer idle timestamps. All operations are expected
// to run on the engine's single executor; Store applies no locking of its
// own.
type Store struct {
	active      map[key]*Record
	queues      map[key][]*QueueEntry
	lightStates map[key]color.Sample
	lastTouch   map[int]time.Time
	layers      map[int]struct{}
}

// NewStore returns an empty Store with layer 0 already present, since layer
// 0 is the base layer and is never auto-cleaned.
func NewStore() *Store {
	s := &Store{
		active:      make(map[key]*Record),
		queues:      make(map[key][]*QueueEntry),
		lightStates: make(map[key]color.Sample),
		lastTouch:   make(map[int]time.Time),
		layers:      make(map[int]struct{}),
	}
	s.layers[0] = struct{}{}
	return s
}

// GetActive returns the active record for (layer, light), if any.
func (s *Store) GetActive(layer int, light string) (*Record, bool) {
	r, ok := s.active[key{layer, light}]
	return r, ok
}

// PutActive installs r as the active record for (layer, light). It fails if
// a record is already active there - the caller must remove or queue first.
func (s *Store) PutActive(layerID int, light string, r *Record) error {
	k := key{layerID, light}
	if _, ok := s.active[k]; ok {
		return fmt.Errorf("layer: active record already present for layer=%d light=%s", layerID, light)
	}
	s.active[k] = r
	s.layers[layerID] = struct{}{}
	return nil
}

// RemoveActive clears the active record for (layer, light), if any.
func (s *Store) RemoveActive(layer int, light string) {
	delete(s.active, key{layer, light})
}

// Enqueue appends e to the FIFO pending queue for (layer, light).
func (s *Store) Enqueue(layer int, light string, e *QueueEntry) {
	k := key{layer, light}
	s.queues[k] = append(s.queues[k], e)
	s.layers[layer] = struct{}{}
}

// Dequeue pops and returns the oldest queued entry for (layer, light).
func (s *Store) Dequeue(layer int, light string) (*QueueEntry, bool) {
	k := key{layer, light}
	q := s.queues[k]
	if len(q) == 0 {
		return nil, false
	}
	e := q[0]
	rest := q[1:]
	if len(rest) == 0 {
		delete(s.queues, k)
	} else {
		s.queues[k] = rest
	}
	return e, true
}

// QueueLen reports how many entries are pending for (layer, light).
func (s *Store) QueueLen(layer int, light string) int {
	return len(s.queues[key{layer, light}])
}

// ActiveEffectsForLight returns every layer's active record touching light.
func (s *Store) ActiveEffectsForLight(light string) map[int]*Record {
	out := make(map[int]*Record)
	for k, r := range s.active {
		if k.Light == light {
			out[k.Layer] = r
		}
	}
	return out
}

// ActiveRecordWithName reports whether any (layer, light) anywhere in the
// store currently has an active record with the given effect name.
func (s *Store) ActiveRecordWithName(name string) bool {
	for _, r := range s.active {
		if r.Name == name {
			return true
		}
	}
	return false
}

// SetLightState caches the most recently interpolated per-layer color so
// continuity is preserved across submissions.
func (s *Store) SetLightState(layer int, light string, c color.Sample) {
	s.lightStates[key{layer, light}] = c
}

// GetLightState returns the cached per-layer color, if any.
func (s *Store) GetLightState(layer int, light string) (color.Sample, bool) {
	c, ok := s.lightStates[key{layer, light}]
	return c, ok
}

// ClearLightState drops the cached per-layer color for (layer, light).
func (s *Store) ClearLightState(layer int, light string) {
	delete(s.lightStates, key{layer, light})
}

// ClearLayer removes every active record, queued entry, and cached light
// state for a layer.
func (s *Store) ClearLayer(layer int) {
	for k := range s.active {
		if k.Layer == layer {
			delete(s.active, k)
		}
	}
	for k := range s.queues {
		if k.Layer == layer {
			delete(s.queues, k)
		}
	}
	for k := range s.lightStates {
		if k.Layer == layer {
			delete(s.lightStates, k)
		}
	}
}

// ClearLayerExceptActive removes every queued entry and cached light state
// for layer, and every active record except those for lights named in
// keepLights - used to preempt everything on a layer while leaving an
// already-running effect on a specific light undisturbed.
func (s *Store) ClearLayerExceptActive(layer int, keepLights map[string]bool) {
	for k := range s.active {
		if k.Layer == layer && !keepLights[k.Light] {
			delete(s.active, k)
		}
	}
	for k := range s.queues {
		if k.Layer == layer {
			delete(s.queues, k)
		}
	}
	for k := range s.lightStates {
		if k.Layer == layer && !keepLights[k.Light] {
			delete(s.lightStates, k)
		}
	}
}

// ClearAll removes every active record, queued entry, and cached light
// state across all layers, and re-arms layer 0 as present.
func (s *Store) ClearAll() {
	maps.Clear(s.active)
	maps.Clear(s.queues)
	maps.Clear(s.lightStates)
	maps.Clear(s.layers)
	s.layers[0] = struct{}{}
}

// TouchLayer records activity on a layer so it isn't garbage-collected
// while still in use.
func (s *Store) TouchLayer(layer int, now time.Time) {
	s.lastTouch[layer] = now
	s.layers[layer] = struct{}{}
}

// CleanupIdleLayers removes layers above 0 that have no active records, no
// queued records, and whose last touch predates now-grace. It returns the
// layer numbers that were removed.
func (s *Store) CleanupIdleLayers(now time.Time, grace time.Duration) []int {
	var removed []int
	for layer := range s.layers {
		if layer == 0 {
			continue
		}
		if s.layerBusy(layer) {
			continue
		}
		last, ok := s.lastTouch[layer]
		if !ok {
			last = now
			s.lastTouch[layer] = last
		}
		if now.Sub(last) >= grace {
			s.ClearLayer(layer)
			delete(s.lastTouch, layer)
			delete(s.layers, layer)
			removed = append(removed, layer)
		}
	}
	return removed
}

func (s *Store) layerBusy(layer int) bool {
	for k := range s.active {
		if k.Layer == layer {
			return true
		}
	}
	for k, q := range s.queues {
		if k.Layer == layer && len(q) > 0 {
			return true
		}
	}
	return false
}

// Layers returns every layer number the store currently knows about.
func (s *Store) Layers() []int {
	return maps.Keys(s.layers)
}

// Key identifies one (layer, light) pair.
type Key struct {
	Layer int
	Light string
}

// ActiveKeys returns every (layer, light) pair with an active record, for
// iteration by callers that need a stable snapshot (e.g. the tick loop).
func (s *Store) ActiveKeys() []Key {
	out := make([]Key, 0, len(s.active))
	for k := range s.active {
		out = append(out, Key{k.Layer, k.Light})
	}
	return out
}
