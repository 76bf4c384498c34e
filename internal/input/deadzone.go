package input

import "math"

// ApplyDeadzone zeroes x when |x| is within threshold and rescales the rest
// of the range onto [0,1], so the output is continuous at the boundary.
func ApplyDeadzone(x, threshold float64) float64 {
	threshold = clampUnit(threshold)
	a := math.Abs(x)
	if a <= threshold || threshold >= 1 {
		return 0
	}
	v := math.Min((a-threshold)/(1-threshold), 1)
	return math.Copysign(v, x)
}

// ApplyStickDeadzone applies the deadzone to the magnitude of a stick,
// keeping its direction.
func ApplyStickDeadzone(x, y, threshold float64) (float64, float64) {
	m := math.Hypot(x, y)
	if m == 0 {
		return 0, 0
	}
	scaled := ApplyDeadzone(m, threshold)
	return x / m * scaled, y / m * scaled
}

func clampUnit(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
