// Package sequencer implements TransitionEngine: the per-(layer,light)
// state machine that advances active records through their transitions,
// the four submission disciplines cue dispatch uses to install new effects,
// and the periodic drift correction for persistent cyclic effects.
package sequencer

import (
	"fmt"
	"sort"
	"time"

	"github.com/NullCarrierNC/photonics-dmx-sub002/color"
	"github.com/NullCarrierNC/photonics-dmx-sub002/interpolate"
	"github.com/NullCarrierNC/photonics-dmx-sub002/layer"
	"github.com/NullCarrierNC/photonics-dmx-sub002/metrics"
	"github.com/NullCarrierNC/photonics-dmx-sub002/transition"
	"github.com/sirupsen/logrus"
)

// Config holds the tunables that affect TransitionEngine's behavior,
// mirroring the §6 configuration options.
type Config struct {
	ProtectedLayerMin    int
	LayerGraceMs         int64
	DriftThresholdMs     int64
	DriftCheckIntervalMs int64
}

// DefaultConfig returns the §6 defaults.
func DefaultConfig() Config {
	return Config{
		ProtectedLayerMin:    500,
		LayerGraceMs:         5000,
		DriftThresholdMs:     5,
		DriftCheckIntervalMs: 1000,
	}
}

// LightRegistry is consulted to reject transitions that target unknown
// lights, per the "unknown light" failure semantics.
type LightRegistry interface {
	KnownLight(id string) bool
}

// Engine is TransitionEngine: the state machine and submission API.
type Engine struct {
	store  *layer.Store
	interp *interpolate.Interpolator
	lights LightRegistry
	cfg    Config
	log    *logrus.Logger

	timingRegistry map[string]*layer.AbsoluteTiming
	lastDriftCheck time.Time

	metrics *metrics.Metrics
}

// New builds an Engine bound to a LayerStore and Interpolator.
func New(store *layer.Store, interp *interpolate.Interpolator, lights LightRegistry, cfg Config, log *logrus.Logger) *Engine {
	return &Engine{
		store:          store,
		interp:         interp,
		lights:         lights,
		cfg:            cfg,
		log:            log,
		timingRegistry: make(map[string]*layer.AbsoluteTiming),
	}
}

// UseMetrics wires m into the engine, so every applied drift correction
// observes photonics_drift_seconds. Optional: an Engine with no metrics
// wired simply skips instrumentation.
func (e *Engine) UseMetrics(m *metrics.Metrics) {
	e.metrics = m
}

// ErrSubmissionRejected is returned by AddUnblockedByName/SetUnblockedByName
// when a same-named effect is already active somewhere, and by
// AddUnblockedByName when blackout refuses a non-system submission.
var ErrSubmissionRejected = fmt.Errorf("sequencer: submission rejected")

// --- Submission disciplines ---------------------------------------------

// Add installs eff under name. If an active record with the same name
// exists for a (layer, light) target, the new one is enqueued; a
// different name preempts (remove+install); an empty slot installs fresh.
// now should be the caller's current tick time, so records it activates
// arm their waits against the same clock Tick advances them with.
func (e *Engine) Add(now time.Time, name string, eff *transition.Effect, persistent bool) error {
	if e.blackoutActive() {
		if eff.TouchesLayer(0) && eff.MinLayer() < e.cfg.ProtectedLayerMin {
			e.cancelBlackout()
		}
	}
	e.installAcrossTargets(now, name, eff, persistent)
	return nil
}

// Set clears every active and queued record on every layer before
// installing, except that an already-active layer-0 record with the same
// name is left running rather than torn down, so installOne's
// hasActive-same-name rule enqueues the new submission behind it instead
// of restarting it (S5).
func (e *Engine) Set(now time.Time, name string, eff *transition.Effect, persistent bool) error {
	e.removeAllRecordsExcept(name)
	e.installAcrossTargets(now, name, eff, persistent)
	return nil
}

// AddUnblockedByName refuses if any active record system-wide already has
// this name, and if blackout is active and the effect touches a
// non-system layer. Otherwise behaves like Add.
func (e *Engine) AddUnblockedByName(now time.Time, name string, eff *transition.Effect, persistent bool) error {
	if e.blackoutActive() && eff.MinLayer() < e.cfg.ProtectedLayerMin {
		return ErrSubmissionRejected
	}
	if e.store.ActiveRecordWithName(name) {
		return ErrSubmissionRejected
	}
	e.installAcrossTargets(now, name, eff, persistent)
	return nil
}

// SetUnblockedByName refuses if any active record system-wide already has
// this name; otherwise removes all records and installs like Set.
func (e *Engine) SetUnblockedByName(now time.Time, name string, eff *transition.Effect, persistent bool) error {
	if e.store.ActiveRecordWithName(name) {
		return ErrSubmissionRejected
	}
	e.removeAllRecords()
	e.installAcrossTargets(now, name, eff, persistent)
	return nil
}

func (e *Engine) blackoutActive() bool {
	for _, k := range e.store.ActiveKeys() {
		if k.Layer >= e.cfg.ProtectedLayerMin {
			return true
		}
	}
	return false
}

func (e *Engine) cancelBlackout() {
	for _, l := range e.store.Layers() {
		if l >= e.cfg.ProtectedLayerMin {
			e.store.ClearLayer(l)
		}
	}
}

func (e *Engine) removeAllRecords() {
	for _, l := range e.store.Layers() {
		e.store.ClearLayer(l)
		e.interp.RemoveAllForLayer(l)
	}
}

// removeAllRecordsExcept clears every active record, queue, and cached
// light state on every layer, except an already-active layer-0 record
// whose name matches name - preserved in place, interpolation and all, so
// a repeated Set of the same name never interrupts it.
func (e *Engine) removeAllRecordsExcept(name string) {
	keepLights := make(map[string]bool)
	layerZeroLights := make(map[string]bool)
	for _, k := range e.store.ActiveKeys() {
		if k.Layer != 0 {
			continue
		}
		layerZeroLights[k.Light] = true
		if rec, ok := e.store.GetActive(k.Layer, k.Light); ok && rec.Name == name {
			keepLights[k.Light] = true
		}
	}
	for light := range layerZeroLights {
		if !keepLights[light] {
			e.interp.RemoveLayer(light, 0)
		}
	}
	e.store.ClearLayerExceptActive(0, keepLights)

	for _, l := range e.store.Layers() {
		if l == 0 {
			continue
		}
		e.store.ClearLayer(l)
		e.interp.RemoveAllForLayer(l)
	}
}

// installAcrossTargets expands eff into per-(layer,light) transition lists
// and applies the install rule to each target.
func (e *Engine) installAcrossTargets(now time.Time, name string, eff *transition.Effect, persistent bool) {
	groups := transition.ExpandPerLightLayer(eff)
	for pk, trs := range groups {
		if e.lights != nil && !e.lights.KnownLight(pk.Light) {
			e.log.WithFields(logrus.Fields{"light": pk.Light, "effect": name}).
				Warn("sequencer: unknown light, skipping per-light install")
			continue
		}
		e.installOne(now, pk.Layer, pk.Light, name, eff, trs, persistent)
	}
}

func (e *Engine) installOne(now time.Time, layerID int, light, name string, eff *transition.Effect, trs []transition.Transition, persistent bool) {
	entry := &layer.QueueEntry{Name: name, Effect: eff, Transitions: trs, Persistent: persistent}

	active, hasActive := e.store.GetActive(layerID, light)
	switch {
	case hasActive && active.Name == name:
		// Set's S5 rule relies on this: removeAllRecordsExcept leaves a
		// same-named layer-0 active record running, so it lands here and
		// is enqueued behind, never restarted.
		e.store.Enqueue(layerID, light, entry)
	case hasActive:
		e.store.RemoveActive(layerID, light)
		e.interp.RemoveLayer(light, layerID)
		e.activate(now, layerID, light, entry)
	default:
		e.activate(now, layerID, light, entry)
	}
}

func (e *Engine) activate(now time.Time, layerID int, light string, entry *layer.QueueEntry) {
	rec := &layer.Record{
		Name:           entry.Name,
		Effect:         entry.Effect,
		Transitions:    entry.Transitions,
		Index:          0,
		Persistent:     entry.Persistent,
		AbsoluteTiming: entry.AbsoluteTiming,
	}
	if err := e.store.PutActive(layerID, light, rec); err != nil {
		e.log.WithError(err).Error("sequencer: install raced an occupied slot")
		return
	}
	e.armWaitingFor(rec, now)
}

// --- Tick -----------------------------------------------------------------

// Tick advances every active record by at most one state step, per spec.
// It must be called once per clock tick, before interpolation sampling.
func (e *Engine) Tick(now time.Time) {
	keys := e.store.ActiveKeys()
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Layer != keys[j].Layer {
			return keys[i].Layer < keys[j].Layer
		}
		return keys[i].Light < keys[j].Light
	})

	for _, k := range keys {
		rec, ok := e.store.GetActive(k.Layer, k.Light)
		if !ok {
			continue
		}
		e.tickRecord(k.Layer, k.Light, rec, now)
	}

	e.checkDrift(now)
}

func (e *Engine) tickRecord(layerID int, light string, rec *layer.Record, now time.Time) {
	cur := rec.Current()

	switch rec.State {
	case layer.StateWaitingFor:
		if !waitElapsed(cur.PreWait, now, rec.WaitEnd) {
			return
		}
		e.resolveWaitingFor(layerID, light, rec, now)

	case layer.StateTransitioning:
		if now.Before(rec.WaitEnd) {
			return
		}
		rec.LastEndState = cur.Transform.Target
		rec.HasLastEndState = true
		e.store.SetLightState(layerID, light, cur.Transform.Target)
		rec.State = layer.StateWaitingUntil
		e.armWaitingUntil(rec, now)

	case layer.StateWaitingUntil:
		if !waitElapsed(cur.PostWait, now, rec.WaitEnd) {
			return
		}
		e.resolveWaitingUntil(layerID, light, rec, now)
	}
}

// resolveWaitingFor begins the current transform. Called either because a
// timed PreWait elapsed (Tick) or because a matching event satisfied an
// event-gated one (DeliverEvent).
func (e *Engine) resolveWaitingFor(layerID int, light string, rec *layer.Record, now time.Time) {
	e.beginTransform(layerID, light, rec, now)
}

// resolveWaitingUntil advances to the next transition, or finishes the
// record if that was the last one. Called either because a timed PostWait
// elapsed (Tick) or because a matching event satisfied an event-gated one
// (DeliverEvent).
func (e *Engine) resolveWaitingUntil(layerID int, light string, rec *layer.Record, now time.Time) {
	rec.Index++
	if rec.Index < len(rec.Transitions) {
		rec.State = layer.StateWaitingFor
		e.armWaitingFor(rec, now)
		return
	}
	e.finish(layerID, light, rec, now)
}

// DeliverEvent resolves every active record currently waiting on an
// event-gated PreWait or PostWait matching kind, decrementing multi-count
// waits and advancing those that reach zero. Implements event.Injector.
func (e *Engine) DeliverEvent(now time.Time, kind transition.WaitKind) {
	for _, k := range e.store.ActiveKeys() {
		rec, ok := e.store.GetActive(k.Layer, k.Light)
		if !ok {
			continue
		}
		cur := rec.Current()

		switch rec.State {
		case layer.StateWaitingFor:
			if cur.PreWait.Kind != kind {
				continue
			}
			if !e.decrementEventCount(rec) {
				continue
			}
			e.resolveWaitingFor(k.Layer, k.Light, rec, now)

		case layer.StateWaitingUntil:
			if cur.PostWait.Kind != kind {
				continue
			}
			if !e.decrementEventCount(rec) {
				continue
			}
			e.resolveWaitingUntil(k.Layer, k.Light, rec, now)
		}
	}
}

// decrementEventCount reports whether this event satisfies the record's
// current wait condition. A Count of 0 resolves on the first matching
// event; a positive Count must see that many events before resolving.
func (e *Engine) decrementEventCount(rec *layer.Record) bool {
	if rec.EventCountRemaining <= 1 {
		rec.EventCountRemaining = 0
		return true
	}
	rec.EventCountRemaining--
	return false
}

func (e *Engine) beginTransform(layerID int, light string, rec *layer.Record, now time.Time) {
	cur := rec.Current()
	start := e.startColorFor(layerID, light, rec)
	dur := time.Duration(cur.Transform.DurationMs) * time.Millisecond

	e.interp.Begin(light, layerID, start, cur.Transform.Target, now, dur, cur.Transform.Easing)
	rec.TransitionStart = now
	rec.WaitEnd = now.Add(dur)
	rec.State = layer.StateTransitioning
}

func (e *Engine) startColorFor(layerID int, light string, rec *layer.Record) color.Sample {
	if rec.HasLastEndState {
		return rec.LastEndState
	}
	if c, ok := e.store.GetLightState(layerID, light); ok {
		return c
	}
	e.log.WithFields(logrus.Fields{"layer": layerID, "light": light}).
		Warn("sequencer: missing start state for interpolation, using default opaque black")
	return color.DefaultOpaqueBlack()
}

func (e *Engine) armWaitingFor(rec *layer.Record, now time.Time) {
	rec.State = layer.StateWaitingFor
	rec.WaitEnd = armTime(rec.Current().PreWait, now)
	rec.EventCountRemaining = armEventCount(rec.Current().PreWait)
}

func (e *Engine) armWaitingUntil(rec *layer.Record, now time.Time) {
	rec.WaitEnd = armTime(rec.Current().PostWait, now)
	rec.EventCountRemaining = armEventCount(rec.Current().PostWait)
}

// armEventCount returns the number of matching events an event-gated wait
// needs before it resolves: 1 if the declared count is zero (resolve on
// first event), otherwise the declared count.
func armEventCount(w transition.Wait) int {
	if !w.Kind.IsEventGated() {
		return 0
	}
	if w.Count <= 0 {
		return 1
	}
	return w.Count
}

func armTime(w transition.Wait, now time.Time) time.Time {
	if w.Kind.IsEventGated() {
		return time.Time{} // resolved by EventHandler, never by elapsed time
	}
	if w.Kind == transition.WaitDelay {
		return now.Add(time.Duration(w.DelayMs) * time.Millisecond)
	}
	return now // WaitNone: immediate
}

func waitElapsed(w transition.Wait, now, waitEnd time.Time) bool {
	if w.Kind.IsEventGated() {
		return false
	}
	return !now.Before(waitEnd)
}

func (e *Engine) finish(layerID int, light string, rec *layer.Record, now time.Time) {
	e.store.RemoveActive(layerID, light)
	e.interp.RemoveLayer(light, layerID)

	if rec.Persistent {
		e.requeuePersistent(layerID, light, rec, now)
		return
	}

	if next, ok := e.store.Dequeue(layerID, light); ok {
		e.activate(now, layerID, light, next)
		return
	}

	if layerID > 0 {
		e.store.ClearLightState(layerID, light)
		e.store.TouchLayer(layerID, now)
	}
}

func (e *Engine) requeuePersistent(layerID int, light string, rec *layer.Record, now time.Time) {
	at := rec.AbsoluteTiming
	entry := &layer.QueueEntry{
		Name:           rec.Name,
		Effect:         rec.Effect,
		Transitions:    rec.Transitions,
		Persistent:     true,
		AbsoluteTiming: at,
	}

	if at != nil {
		e.timingRegistry[rec.Name] = at
		boundary := at.NextBoundary(now)
		reactivated := &layer.Record{
			Name:           entry.Name,
			Effect:         entry.Effect,
			Transitions:    entry.Transitions,
			Persistent:     true,
			AbsoluteTiming: at,
		}
		if err := e.store.PutActive(layerID, light, reactivated); err != nil {
			e.log.WithError(err).Error("sequencer: persistent re-arm raced an occupied slot")
			return
		}
		reactivated.State = layer.StateWaitingFor
		reactivated.WaitEnd = boundary
		reactivated.EventCountRemaining = armEventCount(reactivated.Current().PreWait)
		return
	}

	e.store.Enqueue(layerID, light, entry)
	if next, ok := e.store.Dequeue(layerID, light); ok {
		e.activate(now, layerID, light, next)
	}
}

// --- Layer cleanup ----------------------------------------------------

// CleanupIdleLayers removes layers above 0 that have been idle past the
// configured grace period.
func (e *Engine) CleanupIdleLayers(now time.Time) []int {
	grace := time.Duration(e.cfg.LayerGraceMs) * time.Millisecond
	if grace < 5*time.Second {
		grace = 5 * time.Second
	}
	removed := e.store.CleanupIdleLayers(now, grace)
	for _, l := range removed {
		e.interp.RemoveAllForLayer(l)
	}
	return removed
}

// --- Drift correction ---------------------------------------------------

// checkDrift runs at most once per DriftCheckIntervalMs. Per §4.3, it picks
// one active record carrying absoluteTiming as a reference; if its armed
// wait has drifted from the ideal cycle boundary by more than
// DriftThresholdMs, every active record sharing that effect name is shifted
// by the same correction amount, and the name's timingRegistry entry is
// shifted with them - so same-named cyclic effects installed across
// multiple lights stay in phase with each other rather than each
// independently snapping to its own idea of the boundary.
func (e *Engine) checkDrift(now time.Time) {
	interval := time.Duration(e.cfg.DriftCheckIntervalMs) * time.Millisecond
	if interval <= 0 {
		interval = time.Second
	}
	if e.lastDriftCheck.IsZero() {
		e.lastDriftCheck = now
		return
	}
	if now.Sub(e.lastDriftCheck) < interval {
		return
	}
	e.lastDriftCheck = now

	threshold := time.Duration(e.cfg.DriftThresholdMs) * time.Millisecond

	keys := e.store.ActiveKeys()
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Layer != keys[j].Layer {
			return keys[i].Layer < keys[j].Layer
		}
		return keys[i].Light < keys[j].Light
	})

	corrected := make(map[string]bool)
	for _, k := range keys {
		rec, ok := e.store.GetActive(k.Layer, k.Light)
		if !ok || rec.AbsoluteTiming == nil || rec.State != layer.StateWaitingFor || corrected[rec.Name] {
			continue
		}
		corrected[rec.Name] = true

		ideal := rec.AbsoluteTiming.NextBoundary(now)
		drift := ideal.Sub(rec.WaitEnd)
		abs := drift
		if abs < 0 {
			abs = -abs
		}
		if abs <= threshold {
			continue
		}

		e.log.WithFields(logrus.Fields{
			"layer": k.Layer, "light": k.Light, "effect": rec.Name, "driftMs": abs.Milliseconds(),
		}).Debug("sequencer: correcting persistent effect drift")
		if e.metrics != nil {
			e.metrics.DriftSeconds.Observe(abs.Seconds())
		}
		e.shiftRecordsNamed(rec.Name, drift)
	}
}

// shiftRecordsNamed shifts every active, layer-0-or-above record named name
// by delta, and shifts the name's timingRegistry entry by the same amount,
// so a later re-enqueue (requeuePersistent) keeps computing boundaries
// against the corrected reference instead of the original, drifted one.
func (e *Engine) shiftRecordsNamed(name string, delta time.Duration) {
	for _, k := range e.store.ActiveKeys() {
		rec, ok := e.store.GetActive(k.Layer, k.Light)
		if !ok || rec.Name != name {
			continue
		}
		rec.WaitEnd = rec.WaitEnd.Add(delta)
	}
	if at, ok := e.timingRegistry[name]; ok {
		at.CycleStart = at.CycleStart.Add(delta)
	}
}
