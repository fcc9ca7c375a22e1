package dmxcore

// CurveKind selects a Fade implementation. This is the Go rendition of
// the tagged union called for in spec §9: a closed set of unexported
// types behind one interface, picked by a string-like enum the way the
// teacher's fade.EasingType switches on a string constant.
type CurveKind string

const (
	// CurveLinear advances by a constant per-step delta.
	CurveLinear CurveKind = "LINEAR"
	// CurveQuadratic advances along a squared ramp.
	CurveQuadratic CurveKind = "QUADRATIC"
	// CurveCubic advances along a cubed ramp.
	CurveCubic CurveKind = "CUBIC"
	// CurveQuadruple advances along a fourth-power ramp.
	CurveQuadruple CurveKind = "QUADRUPLE"
)

// Fade produces the next sample of a single channel value as it
// approaches a target over a fixed number of steps (spec §4.1).
type Fade interface {
	// Initialize computes internal parameters so that exactly steps
	// calls to CalcNextValue approach target starting from start.
	Initialize(start, target float64, steps int)
	// CalcNextValue returns the next sample and updates IsDone.
	CalcNextValue() float64
	// IsDone reports whether the rounded output has reached (or
	// crossed, in the direction of travel) the target.
	IsDone() bool
}

// NewFade constructs the Fade implementation for kind. An empty or
// unrecognized kind defaults to CurveLinear.
func NewFade(kind CurveKind) Fade {
	switch kind {
	case CurveQuadratic:
		return &powerFade{exponent: 2}
	case CurveCubic:
		return &powerFade{exponent: 3}
	case CurveQuadruple:
		return &powerFade{exponent: 4}
	default:
		return &linearFade{}
	}
}

func roundToInt(v float64) int {
	if v >= 0 {
		return int(v + 0.5)
	}
	return -int(-v + 0.5)
}
