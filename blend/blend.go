// Package blend merges the per-layer colors the interpolator produces into
// one final color per light, ascending layer order, per-channel.
package blend

import (
	"math"

	"github.com/NullCarrierNC/photonics-dmx-sub002/color"
	"github.com/lucasb-eyer/go-colorful"
)

// Layer pairs a layer index with the color sample to merge at that layer.
// Callers must present layers in ascending order.
type Layer struct {
	Index int
	Color color.Sample
}

// Merge folds layers (ascending layer order) into one final color. The
// result always has opacity 1 and blend mode replace, per spec - opacity
// and blend mode are inputs to the merge, not outputs of it.
func Merge(layers []Layer) color.Sample {
	out := color.Sample{Opacity: 1, Mode: color.BlendReplace}
	for _, l := range layers {
		out = mergeOne(out, l.Color)
	}
	return out
}

func mergeOne(lower, upper color.Sample) color.Sample {
	alpha := color.ClampOpacity(upper.Opacity)

	// Fast paths required for determinism, not just performance.
	if alpha == 1 && upper.Mode == color.BlendReplace {
		out := upper
		out.Opacity = 1
		out.Mode = color.BlendReplace
		// Pan/tilt pass through with replace semantics; if the upper layer
		// doesn't define them, inherit from the layer below.
		if out.Pan == nil {
			out.Pan = lower.Pan
		}
		if out.Tilt == nil {
			out.Tilt = lower.Tilt
		}
		return out
	}
	if alpha == 0 {
		return lower
	}

	out := color.Sample{Opacity: 1, Mode: color.BlendReplace}
	out.Red = blendChannel(lower.Red, upper.Red, alpha, upper.Mode)
	out.Green = blendChannel(lower.Green, upper.Green, alpha, upper.Mode)
	out.Blue = blendChannel(lower.Blue, upper.Blue, alpha, upper.Mode)
	out.Intensity = blendChannel(lower.Intensity, upper.Intensity, alpha, upper.Mode)

	// Pan/tilt are never additively blended: the upper value, if present,
	// passes through with replace semantics regardless of mode.
	if upper.Pan != nil {
		out.Pan = upper.Pan
	} else {
		out.Pan = lower.Pan
	}
	if upper.Tilt != nil {
		out.Tilt = upper.Tilt
	} else {
		out.Tilt = lower.Tilt
	}

	return out
}

func blendChannel(l, u uint8, alpha float64, mode color.BlendMode) uint8 {
	lf, uf := float64(l), float64(u)

	switch mode {
	case color.BlendAdd:
		return color.ClampByte(int(math.Round(lf + uf*alpha)))
	case color.BlendMultiply:
		return color.ClampByte(int(math.Round(lf * (1 - alpha + alpha*uf/255))))
	case color.BlendOverlay:
		return color.ClampByte(int(math.Round(overlayBlend(lf, uf, alpha))))
	case color.BlendReplace:
		fallthrough
	default:
		if alpha == 1 {
			return u
		}
		return color.ClampByte(int(math.Round(lf*(1-alpha) + uf*alpha)))
	}
}

// overlayBlend applies the standard photographic overlay formula per
// channel on values normalized to [0,1] by dividing by 255 (the result is
// clamped through go-colorful's Color.Clamped), then linearly blends the
// overlaid result toward the lower value by (1-alpha).
func overlayBlend(l, u, alpha float64) float64 {
	ln, un := l/255, u/255

	var overlaid float64
	if ln < 0.5 {
		overlaid = 2 * ln * un
	} else {
		overlaid = 1 - 2*(1-ln)*(1-un)
	}
	overlaid = colorful.Color{R: overlaid, G: overlaid, B: overlaid}.Clamped().R

	result := overlaid*255*alpha + l*(1-alpha)
	return result
}
