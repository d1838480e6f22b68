// Package scale builds reusable linear-range mapping functions, used to
// turn an arbitrary numeric cue parameter (a game's 0-127 intensity knob,
// a controller's -1..1 axis) into the [0,1] opacity/brightness range the
// rest of the engine works in.
package scale

import "math"

// Clamp returns a function mapping m from [fromMin, fromMax] linearly onto
// [toMin, toMax], clamping the result to stay within the target range even
// if m falls outside the source range.
func Clamp(fromMin, fromMax, toMin, toMax float64) func(m float64) float64 {
	return func(m float64) float64 {
		if fromMax == fromMin {
			return toMin
		}
		t := (m - fromMin) / (fromMax - fromMin)
		v := toMin + t*(toMax-toMin)
		return clampRange(v, toMin, toMax)
	}
}

func clampRange(t, min, max float64) float64 {
	min, max = math.Min(min, max), math.Max(min, max)
	return math.Max(math.Min(t, max), min)
}

// ToUnitClamp returns a function that scales a number from the interval [rMin,rMax]
// to the unit interval ([0,1]), if the result falls outside [0,1], it is clamped
// to 0 or 1.
func ToUnitClamp(rMin, rMax float64) func(m float64) float64 {
	return Clamp(rMin, rMax, 0, 1)
}
