package interpolate

import "github.com/fogleman/ease"

// registry maps the easing-function names carried on a Transform to the
// fogleman/ease implementation, mirroring the teacher's
// `effect.Effect.EasingFunc ease.Function` field generalized from a single
// hardcoded choice to a name-addressable table.
var registry = map[string]ease.Function{
	"linear":        ease.Linear,
	"inQuad":        ease.InQuad,
	"outQuad":       ease.OutQuad,
	"inOutQuad":     ease.InOutQuad,
	"inCubic":       ease.InCubic,
	"outCubic":      ease.OutCubic,
	"inOutCubic":    ease.InOutCubic,
	"inQuart":       ease.InQuart,
	"outQuart":      ease.OutQuart,
	"inOutQuart":    ease.InOutQuart,
	"inQuint":       ease.InQuint,
	"outQuint":      ease.OutQuint,
	"inOutQuint":    ease.InOutQuint,
	"inSine":        ease.InSine,
	"outSine":       ease.OutSine,
	"inOutSine":     ease.InOutSine,
	"inExpo":        ease.InExpo,
	"outExpo":       ease.OutExpo,
	"inOutExpo":     ease.InOutExpo,
	"inCirc":        ease.InCirc,
	"outCirc":       ease.OutCirc,
	"inOutCirc":     ease.InOutCirc,
	"inElastic":     ease.InElastic,
	"outElastic":    ease.OutElastic,
	"inOutElastic":  ease.InOutElastic,
	"inBack":        ease.InBack,
	"outBack":       ease.OutBack,
	"inOutBack":     ease.InOutBack,
	"inBounce":      ease.InBounce,
	"outBounce":     ease.OutBounce,
	"inOutBounce":   ease.InOutBounce,
}

// Lookup resolves an easing name to its function. An unrecognized name
// falls back to linear and reports known=false; Interpolator.Sample ignores
// that flag, so an unknown name is not logged.
func Lookup(name string) (fn ease.Function, known bool) {
	fn, known = registry[name]
	if !known {
		return ease.Linear, false
	}
	return fn, true
}
