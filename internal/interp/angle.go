package interp

import "math"

// NormalizeAngle wraps an angle in radians into (-π, π].
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a <= 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}

// LerpAngle interpolates from a to b along the shorter arc.
func LerpAngle(a, b, t float64) float64 {
	return NormalizeAngle(a + NormalizeAngle(b-a)*t)
}

// Lerp is plain linear interpolation.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func clamp01(t float64) float64 {
	return math.Max(0, math.Min(1, t))
}
