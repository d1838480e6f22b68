// Package sink is SinkFanout: it owns every registered DMX output and
// dispatches each committed universe to all of them in parallel, isolating
// one sink's failure from the others, the way fixture.SendDMXWorker drove a
// single OLA client in the teacher but generalized to N concurrent
// destinations.
package sink

import (
	"context"
	"sync"

	"github.com/NullCarrierNC/photonics-dmx-sub002/dmx"
	"github.com/NullCarrierNC/photonics-dmx-sub002/metrics"
	"golang.org/x/sync/errgroup"
)

// Sink is one DMX output destination - an OLA universe, a browser preview
// socket, or a test double. Send must be safe to call repeatedly with the
// same universe; sinks that care about bandwidth should diff internally.
type Sink interface {
	Send(ctx context.Context, u dmx.Universe) error
}

// SinkError pairs a failed send with the sink that produced it, delivered
// to every registered error listener without interrupting the other
// sinks' sends.
type SinkError struct {
	SinkID string
	Cause  error
}

// ErrorListener is notified of every per-sink send failure.
type ErrorListener func(SinkError)

// Fanout dispatches one published universe to every enabled sink
// concurrently, collecting errors rather than letting one sink's failure
// stop delivery to the rest.
type Fanout struct {
	mu        sync.Mutex
	sinks     map[string]Sink
	lastSent  map[string]dmx.Universe
	hasSent   map[string]bool
	listeners []ErrorListener

	metrics *metrics.Metrics
}

// NewFanout returns an empty Fanout.
func NewFanout() *Fanout {
	return &Fanout{
		sinks:    make(map[string]Sink),
		lastSent: make(map[string]dmx.Universe),
		hasSent:  make(map[string]bool),
	}
}

// Enable registers or replaces the sink under id. Idempotent: registering
// the same id again simply swaps the implementation.
func (f *Fanout) Enable(id string, s Sink) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sinks[id] = s
}

// Disable removes a sink. Disabling an id that was never enabled is a
// no-op.
func (f *Fanout) Disable(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sinks, id)
	delete(f.lastSent, id)
	delete(f.hasSent, id)
}

// OnError registers a callback invoked once per failed per-sink send.
func (f *Fanout) OnError(l ErrorListener) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, l)
}

// UseMetrics wires m into the fanout, so every successful send increments
// photonics_universe_frames_total and every failure increments
// photonics_sink_errors_total, both labeled by sink id. Optional: a
// Fanout with no metrics wired simply skips instrumentation.
func (f *Fanout) UseMetrics(m *metrics.Metrics) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.metrics = m
}

// Send delivers u to every enabled sink in parallel. A sink whose last
// delivered universe was byte-identical to u is skipped - coalescing
// avoids needless wire traffic for unchanged frames. Every sink always
// runs to completion regardless of another sink's error, so this never
// returns early; per-sink failures are reported to error listeners.
func (f *Fanout) Send(ctx context.Context, u dmx.Universe) {
	f.mu.Lock()
	type target struct {
		id string
		s  Sink
	}
	targets := make([]target, 0, len(f.sinks))
	for id, s := range f.sinks {
		if f.hasSent[id] && f.lastSent[id] == u {
			continue
		}
		targets = append(targets, target{id, s})
	}
	m := f.metrics
	f.mu.Unlock()

	if len(targets) == 0 {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, tgt := range targets {
		tgt := tgt
		g.Go(func() error {
			err := tgt.s.Send(gctx, u)
			if err != nil {
				f.notify(SinkError{SinkID: tgt.id, Cause: err})
				return nil // isolate: never cancel siblings via errgroup's ctx
			}
			if m != nil {
				m.UniverseFrames.WithLabelValues(tgt.id).Inc()
			}
			f.mu.Lock()
			f.lastSent[tgt.id] = u
			f.hasSent[tgt.id] = true
			f.mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
}

// Shutdown forces a final all-zero (blackout) frame to every enabled sink,
// bypassing the coalescing check so a sink that happened to already be
// showing blackout still receives the explicit shutdown frame.
func (f *Fanout) Shutdown(ctx context.Context) {
	f.mu.Lock()
	for id := range f.hasSent {
		delete(f.hasSent, id)
	}
	f.mu.Unlock()
	f.Send(ctx, dmx.Blackout())
}

func (f *Fanout) notify(e SinkError) {
	f.mu.Lock()
	listeners := append([]ErrorListener(nil), f.listeners...)
	m := f.metrics
	f.mu.Unlock()
	if m != nil {
		m.SinkErrors.WithLabelValues(e.SinkID).Inc()
	}
	for _, l := range listeners {
		l(e)
	}
}
