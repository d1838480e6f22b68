// Package interpolate owns the single active per-(light, layer) color
// interpolation and produces the eased per-layer sample on every tick.
package interpolate

import (
	"math"
	"time"

	"github.com/NullCarrierNC/photonics-dmx-sub002/color"
)

type key struct {
	Light string
	Layer int
}

type entry struct {
	start, end color.Sample
	startTime  time.Time
	duration   time.Duration
	easing     string
}

// Interpolator holds, for each (light, layer), the currently active color
// interpolation. Before any transition has been begun for a slot, it is
// treated as transparent.
type Interpolator struct {
	entries map[key]*entry
}

// New returns an empty Interpolator.
func New() *Interpolator {
	return &Interpolator{entries: make(map[key]*entry)}
}

// Begin installs a new interpolation for (light, layer), replacing whatever
// was there (TransitionEngine only ever calls this at a transition start,
// and there is at most one active record per slot).
func (p *Interpolator) Begin(light string, layerID int, start, end color.Sample, now time.Time, duration time.Duration, easing string) {
	p.entries[key{light, layerID}] = &entry{
		start:     start,
		end:       end,
		startTime: now,
		duration:  duration,
		easing:    easing,
	}
}

// Sample produces the eased per-layer color for (light, layer) at `now`.
// A slot with no active interpolation is transparent.
func (p *Interpolator) Sample(light string, layerID int, now time.Time) color.Sample {
	e, ok := p.entries[key{light, layerID}]
	if !ok {
		return color.Transparent()
	}

	var t float64
	if e.duration > 0 {
		t = float64(now.Sub(e.startTime)) / float64(e.duration)
		if t < 0 {
			t = 0
		}
		if t > 1 {
			t = 1
		}
	} else {
		t = 1
	}

	fn, _ := Lookup(e.easing)
	tau := fn(t)

	out := color.Sample{
		Red:       lerpByte(e.start.Red, e.end.Red, tau),
		Green:     lerpByte(e.start.Green, e.end.Green, tau),
		Blue:      lerpByte(e.start.Blue, e.end.Blue, tau),
		Intensity: lerpByte(e.start.Intensity, e.end.Intensity, tau),
		Opacity:   color.ClampOpacity(e.start.Opacity + (e.end.Opacity-e.start.Opacity)*tau),
		Mode:      e.end.Mode,
	}

	if e.start.HasPan() || e.end.HasPan() {
		v := lerpByte(panOrZero(e.start), panOrZero(e.end), tau)
		out.Pan = &v
	}
	if e.start.HasTilt() || e.end.HasTilt() {
		v := lerpByte(tiltOrZero(e.start), tiltOrZero(e.end), tau)
		out.Tilt = &v
	}

	if t >= 1 {
		// Subsequent transitions installed in this slot start from the
		// latest reached color.
		e.start = e.end
	}

	return out
}

// RemoveLayer drops the interpolation for (light, layer).
func (p *Interpolator) RemoveLayer(light string, layerID int) {
	delete(p.entries, key{light, layerID})
}

// RemoveAllForLayer drops every interpolation belonging to layerID.
func (p *Interpolator) RemoveAllForLayer(layerID int) {
	for k := range p.entries {
		if k.Layer == layerID {
			delete(p.entries, k)
		}
	}
}

func lerpByte(a, b uint8, tau float64) uint8 {
	v := float64(a) + (float64(b)-float64(a))*tau
	return color.ClampByte(int(math.Round(v)))
}

func panOrZero(s color.Sample) uint8 {
	if s.Pan != nil {
		return *s.Pan
	}
	return 0
}

func tiltOrZero(s color.Sample) uint8 {
	if s.Tilt != nil {
		return *s.Tilt
	}
	return 0
}
