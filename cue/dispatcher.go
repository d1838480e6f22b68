package cue

import (
	"time"

	"github.com/NullCarrierNC/photonics-dmx-sub002/metrics"
	"github.com/NullCarrierNC/photonics-dmx-sub002/transition"
	"github.com/sirupsen/logrus"
)

// NoCueKind is the registry entry consulted when a dispatched kind is
// unknown. Leaving it unregistered makes unknown kinds a logged no-op.
const NoCueKind = "no-cue"

// BlackoutSlowKind is the registry entry dispatched automatically once the
// game has gone quiet for longer than the configured inactivity timeout.
const BlackoutSlowKind = "blackout-slow"

const (
	defaultConsistencyWindowMs = 2000
	maxConsistencyWindowMs     = 10000
	defaultInactivityTimeoutMs = 15000
)

// Installer is the subset of TransitionEngine's submission API the
// dispatcher drives. *sequencer.Engine satisfies this.
type Installer interface {
	Add(now time.Time, name string, eff *transition.Effect, persistent bool) error
	Set(now time.Time, name string, eff *transition.Effect, persistent bool) error
	AddUnblockedByName(now time.Time, name string, eff *transition.Effect, persistent bool) error
	SetUnblockedByName(now time.Time, name string, eff *transition.Effect, persistent bool) error
}

// Config tunes the dispatcher's dedup window and idle detection.
type Config struct {
	// ConsistencyWindowMs suppresses repeat dispatches of the same cue
	// kind arriving within this many milliseconds of the last one,
	// clamped to [0, 10000]. Zero disables suppression entirely.
	ConsistencyWindowMs int64
	// InactivityTimeoutMs is how long without any dispatch before
	// CheckInactivity installs BlackoutSlowKind.
	InactivityTimeoutMs int64
}

// DefaultConfig returns the §6 defaults.
func DefaultConfig() Config {
	return Config{
		ConsistencyWindowMs: defaultConsistencyWindowMs,
		InactivityTimeoutMs: defaultInactivityTimeoutMs,
	}
}

func (c Config) window() time.Duration {
	ms := c.ConsistencyWindowMs
	if ms < 0 {
		ms = 0
	}
	if ms > maxConsistencyWindowMs {
		ms = maxConsistencyWindowMs
	}
	return time.Duration(ms) * time.Millisecond
}

// Dispatcher is CueDispatcher: it turns {kind, params, timestamp}
// submissions from the game into TransitionEngine installs, deduplicating
// rapid repeats and detecting prolonged silence.
type Dispatcher struct {
	registry  *Registry
	installer Installer
	cfg       Config
	log       *logrus.Logger

	lastDispatch map[string]time.Time
	lastActivity time.Time
	haveActivity bool

	metrics *metrics.Metrics
}

// NewDispatcher builds a Dispatcher routing through registry into
// installer.
func NewDispatcher(registry *Registry, installer Installer, cfg Config, log *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		registry:     registry,
		installer:    installer,
		cfg:          cfg,
		log:          log,
		lastDispatch: make(map[string]time.Time),
	}
}

// UseMetrics wires m into the dispatcher, so every resolved install
// increments photonics_cue_dispatches_total. Optional: a Dispatcher with
// no metrics wired simply skips instrumentation.
func (d *Dispatcher) UseMetrics(m *metrics.Metrics) {
	d.metrics = m
}

// Dispatch submits a {kind, params} cue at now. Duplicate non-strobe
// submissions of the same kind within the consistency window are silently
// dropped. An unknown kind is routed to NoCueKind.
func (d *Dispatcher) Dispatch(now time.Time, kind string, params map[string]any) error {
	d.lastActivity = now
	d.haveActivity = true

	c, ok := d.registry.Resolve(kind)
	if !ok {
		d.log.WithField("kind", kind).Warn("cue: unknown kind, routing to no-cue")
		return d.dispatchResolved(now, NoCueKind, params)
	}

	if !c.IsStrobe() {
		if last, seen := d.lastDispatch[kind]; seen && now.Sub(last) < d.cfg.window() {
			return nil
		}
	}
	d.lastDispatch[kind] = now

	return d.installFrom(now, kind, c, params)
}

func (d *Dispatcher) dispatchResolved(now time.Time, kind string, params map[string]any) error {
	c, ok := d.registry.Resolve(kind)
	if !ok {
		d.log.WithField("kind", kind).Warn("cue: no handler registered, dropping")
		return nil
	}
	return d.installFrom(now, kind, c, params)
}

func (d *Dispatcher) installFrom(now time.Time, kind string, c Cue, params map[string]any) error {
	if d.metrics != nil {
		d.metrics.CueDispatches.WithLabelValues(kind).Inc()
	}

	eff, err := d.registry.Build(kind, params)
	if err != nil {
		d.log.WithError(err).WithField("kind", kind).Error("cue: build failed")
		return err
	}

	switch c.Discipline() {
	case DisciplineSet:
		return d.installer.Set(now, kind, eff, c.Persistent())
	case DisciplineAddUnblockedByName:
		return d.installer.AddUnblockedByName(now, kind, eff, c.Persistent())
	case DisciplineSetUnblockedByName:
		return d.installer.SetUnblockedByName(now, kind, eff, c.Persistent())
	default:
		return d.installer.Add(now, kind, eff, c.Persistent())
	}
}

// CheckInactivity should be called once per tick. If more than
// InactivityTimeoutMs has elapsed since the last dispatch, it installs
// BlackoutSlowKind and resets the inactivity clock so it doesn't refire
// every tick thereafter.
func (d *Dispatcher) CheckInactivity(now time.Time) {
	if !d.haveActivity {
		d.lastActivity = now
		d.haveActivity = true
		return
	}
	timeout := time.Duration(d.cfg.InactivityTimeoutMs) * time.Millisecond
	if timeout <= 0 {
		return
	}
	if now.Sub(d.lastActivity) < timeout {
		return
	}
	d.lastActivity = now
	if err := d.dispatchResolved(now, BlackoutSlowKind, nil); err != nil {
		d.log.WithError(err).Warn("cue: blackout-slow dispatch failed")
	}
}
