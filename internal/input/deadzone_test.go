package input

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyDeadzone_ZeroInside(t *testing.T) {
	for _, x := range []float64{0, 0.05, -0.1, 0.15, -0.15} {
		assert.Equal(t, 0.0, ApplyDeadzone(x, 0.15), "x=%v", x)
	}
}

func TestApplyDeadzone_ContinuousAtBoundary(t *testing.T) {
	const th = 0.15
	for _, eps := range []float64{1e-3, 1e-6, 1e-9} {
		assert.InDelta(t, 0, ApplyDeadzone(th+eps, th), 2*eps)
		assert.InDelta(t, 0, ApplyDeadzone(-th-eps, th), 2*eps)
	}
}

func TestApplyDeadzone_Rescales(t *testing.T) {
	assert.InDelta(t, 1, ApplyDeadzone(1, 0.15), 1e-12)
	assert.InDelta(t, -1, ApplyDeadzone(-1, 0.15), 1e-12)
	assert.InDelta(t, 0.5, ApplyDeadzone(0.575, 0.15), 1e-12)
	assert.Equal(t, 1.0, ApplyDeadzone(1.4, 0.15))
}

func TestApplyDeadzone_Monotonic(t *testing.T) {
	prev := ApplyDeadzone(-1, 0.2)
	for x := -1.0; x <= 1.0; x += 0.001 {
		v := ApplyDeadzone(x, 0.2)
		assert.GreaterOrEqual(t, v, prev-1e-12)
		prev = v
	}
}

func TestApplyStickDeadzone(t *testing.T) {
	x, y := ApplyStickDeadzone(0.1, 0.1, 0.15)
	assert.Equal(t, 0.0, x)
	assert.Equal(t, 0.0, y)

	x, y = ApplyStickDeadzone(0, -1, 0.15)
	assert.InDelta(t, 0, x, 1e-12)
	assert.InDelta(t, -1, y, 1e-12)

	// direction is kept
	x, y = ApplyStickDeadzone(0.6, 0.6, 0.15)
	assert.InDelta(t, math.Pi/4, math.Atan2(y, x), 1e-12)
}
