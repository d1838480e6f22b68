// Package engine wires every subsystem into one running sequencer: the
// clock drives a tick, the tick advances the sequencer state machine,
// samples the interpolator, blends layers, commits the frame bus, and
// publishes the result to every enabled sink. External callers (cue
// dispatch, beat/measure/keyframe events) enqueue onto a command channel
// drained at the top of each tick, so every mutation of engine state runs
// on the clock's single goroutine - the same "thread-safe via main loop"
// pattern layer.Store's doc comment describes, extended to the whole
// engine rather than just the active-record store.
package engine

import (
	"context"
	"sort"
	"time"

	"github.com/NullCarrierNC/photonics-dmx-sub002/blend"
	"github.com/NullCarrierNC/photonics-dmx-sub002/bus"
	"github.com/NullCarrierNC/photonics-dmx-sub002/clock"
	"github.com/NullCarrierNC/photonics-dmx-sub002/config"
	"github.com/NullCarrierNC/photonics-dmx-sub002/cue"
	"github.com/NullCarrierNC/photonics-dmx-sub002/dmx"
	"github.com/NullCarrierNC/photonics-dmx-sub002/event"
	"github.com/NullCarrierNC/photonics-dmx-sub002/interpolate"
	"github.com/NullCarrierNC/photonics-dmx-sub002/layer"
	"github.com/NullCarrierNC/photonics-dmx-sub002/metrics"
	"github.com/NullCarrierNC/photonics-dmx-sub002/rhythm"
	"github.com/NullCarrierNC/photonics-dmx-sub002/sequencer"
	"github.com/NullCarrierNC/photonics-dmx-sub002/sink"
	"github.com/sirupsen/logrus"
	k8sclock "k8s.io/utils/clock"
)

// lightTable adapts dmx.Table to sequencer.LightRegistry.
type lightTable struct {
	table *dmx.Table
}

func (l lightTable) KnownLight(id string) bool {
	_, ok := l.table.Lookup(id)
	return ok
}

type command struct {
	run  func(now time.Time)
	done chan struct{}
}

// Engine is the top-level orchestrator. Construct one with New, register
// sinks and an optional metronome driver, then Start it.
type Engine struct {
	cfg config.Config
	log *logrus.Logger

	clock     *clock.Clock
	store     *layer.Store
	interp    *interpolate.Interpolator
	table     *dmx.Table
	publisher *dmx.Publisher
	seq       *sequencer.Engine
	dispatch  *cue.Dispatcher
	events    *event.Handler
	sinks     *sink.Fanout
	bus       *bus.Bus

	driver *rhythm.Driver

	metrics *metrics.Metrics

	commands   chan command
	clockToken int
}

// New builds an Engine from cfg and registry. registry holds the concrete
// cue implementations a specific show or game integration supplies; engine
// itself is agnostic to what cues do.
func New(cfg config.Config, registry *cue.Registry, src k8sclock.Clock, log *logrus.Logger) *Engine {
	table := cfg.FixtureTable()
	store := layer.NewStore()
	interp := interpolate.New()
	publisher := dmx.NewPublisher(table, log)
	publisher.SetBrightness(cfg.Brightness.Factor(cfg.BrightnessLevel))

	seqCfg := sequencer.Config{
		ProtectedLayerMin:    cfg.ProtectedLayerMin,
		LayerGraceMs:         cfg.LayerGraceMs,
		DriftThresholdMs:     cfg.DriftThresholdMs,
		DriftCheckIntervalMs: cfg.DriftCheckIntervalMs,
	}
	seq := sequencer.New(store, interp, lightTable{table}, seqCfg, log)

	dispatcher := cue.NewDispatcher(registry, seq, cue.Config{
		ConsistencyWindowMs: cfg.ConsistencyWindowMs,
		InactivityTimeoutMs: cfg.InactivityMs,
	}, log)

	e := &Engine{
		cfg:       cfg,
		log:       log,
		clock:     clock.New(src, cfg.TickHz, log),
		store:     store,
		interp:    interp,
		table:     table,
		publisher: publisher,
		seq:       seq,
		dispatch:  dispatcher,
		sinks:     sink.NewFanout(),
		bus:       bus.New(),
		commands:  make(chan command, 256),
	}
	e.events = event.New(seq)
	return e
}

// Sinks returns the fanout every output sink is registered against.
// Enabling/disabling sinks is safe from any goroutine; Fanout has its own
// locking and doesn't participate in the command-channel serialization
// the rest of the engine uses.
func (e *Engine) Sinks() *sink.Fanout { return e.sinks }

// Events returns the handler external beat/measure/keyframe sources
// (a game's own rhythm engine, or an OSC bridge) call into.
func (e *Engine) Events() *event.Handler { return e.events }

// UseMetronome wires a free-running metronome as the engine's beat/measure
// source, for hosts with no external beat tracker of their own.
func (e *Engine) UseMetronome(m *rhythm.Metronome, now time.Time) {
	e.driver = rhythm.NewDriver(m, e.events, now)
}

// UseMetrics wires m into the engine and every subsystem that reports a
// collector: tick duration and active-record count here, drift correction
// in sequencer.Engine, cue dispatch counts in cue.Dispatcher, and sink
// frame/error counts in sink.Fanout.
func (e *Engine) UseMetrics(m *metrics.Metrics) {
	e.metrics = m
	e.seq.UseMetrics(m)
	e.dispatch.UseMetrics(m)
	e.sinks.UseMetrics(m)
}

// Start begins ticking the engine.
func (e *Engine) Start() {
	e.clockToken = e.clock.Subscribe(e.onTick)
	e.clock.Start()
}

// Stop halts ticking without running the graceful-shutdown sequence.
func (e *Engine) Stop() {
	e.clock.Stop()
	e.clock.Unsubscribe(e.clockToken)
}

// Shutdown runs the graceful shutdown sequence: submit a final blackout,
// wait one tick period so the next tick publishes it, drain every sink with
// a forced final frame, then stop the clock. ctx bounds the whole sequence.
// Shutdown does not reject DispatchCue calls made while it runs.
func (e *Engine) Shutdown(ctx context.Context) error {
	blackoutDone := make(chan struct{})
	e.exec(func(now time.Time) {
		_ = e.dispatch.Dispatch(now, cue.BlackoutSlowKind, nil)
		close(blackoutDone)
	})
	select {
	case <-blackoutDone:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-time.After(e.clock.Period()):
	case <-ctx.Done():
		return ctx.Err()
	}

	e.sinks.Shutdown(ctx)
	e.Stop()
	return nil
}

// DispatchCue enqueues a cue kind for installation on the tick goroutine
// and returns without waiting for it; the dispatch runs at the start of the
// next tick. A dispatch error is logged there, so the returned error is
// always nil.
func (e *Engine) DispatchCue(kind string, params map[string]any) error {
	e.commands <- command{
		run: func(now time.Time) {
			if err := e.dispatch.Dispatch(now, kind, params); err != nil {
				e.log.WithError(err).WithField("kind", kind).Warn("engine: cue dispatch failed")
			}
		},
		done: make(chan struct{}),
	}
	return nil
}

// exec enqueues fn to run on the tick goroutine and blocks until it has.
func (e *Engine) exec(fn func(now time.Time)) {
	done := make(chan struct{})
	e.commands <- command{run: fn, done: done}
	<-done
}

func (e *Engine) onTick(tick clock.Tick) {
	start := time.Now()

	e.drainCommands(tick.Now)

	if e.driver != nil {
		e.driver.Advance(tick.Now)
	}

	e.seq.Tick(tick.Now)
	e.dispatch.CheckInactivity(tick.Now)
	e.seq.CleanupIdleLayers(tick.Now)

	e.composeFrame(tick.Now)

	u := e.publisher.Publish(e.bus.Published())
	ctx, cancel := context.WithTimeout(context.Background(), e.clock.Period())
	e.sinks.Send(ctx, u)
	cancel()

	if e.metrics != nil {
		e.metrics.TickDuration.Observe(time.Since(start).Seconds())
		e.metrics.ActiveRecords.Set(float64(len(e.store.ActiveKeys())))
	}
}

func (e *Engine) drainCommands(now time.Time) {
	for {
		select {
		case cmd := <-e.commands:
			cmd.run(now)
			close(cmd.done)
		default:
			return
		}
	}
}

func (e *Engine) composeFrame(now time.Time) {
	byLight := make(map[string][]int)
	for _, k := range e.store.ActiveKeys() {
		byLight[k.Light] = append(byLight[k.Light], k.Layer)
	}

	for light, layers := range byLight {
		sort.Ints(layers)
		blendLayers := make([]blend.Layer, 0, len(layers))
		for _, l := range layers {
			blendLayers = append(blendLayers, blend.Layer{
				Index: l,
				Color: e.interp.Sample(light, l, now),
			})
		}
		e.bus.Stage(light, blend.Merge(blendLayers))
	}
	e.bus.CommitFrame()
}

// Store exposes the active-record store, for diagnostics and tests.
func (e *Engine) Store() *layer.Store { return e.store }
