package cue

import "github.com/NullCarrierNC/photonics-dmx-sub002/engine/scale"

// FloatParam reads a float64-valued entry from params, returning ok=false
// if the key is absent or holds a different numeric type than expected
// (int and float64 are both accepted, since JSON-decoded params commonly
// arrive as float64 while hand-built test params use int literals).
func FloatParam(params map[string]any, key string) (float64, bool) {
	v, ok := params[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// ScaledParam reads a numeric param and linearly maps it from
// [fromMin, fromMax] into [0,1], clamped at the edges. Cue implementations
// use this to turn a game's raw intensity/velocity value into the opacity
// a transition.Transform expects, instead of each cue hand-rolling the
// same clamp-and-divide.
func ScaledParam(params map[string]any, key string, fromMin, fromMax float64) (float64, bool) {
	raw, ok := FloatParam(params, key)
	if !ok {
		return 0, false
	}
	return scale.ToUnitClamp(fromMin, fromMax)(raw), true
}
