package interp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAngle(t *testing.T) {
	cases := map[float64]float64{
		0:               0,
		math.Pi:         math.Pi,
		-math.Pi:        math.Pi,
		3 * math.Pi / 2: -math.Pi / 2,
		-3 * math.Pi:    math.Pi,
		7:               7 - 2*math.Pi,
	}
	for in, want := range cases {
		assert.InDelta(t, want, NormalizeAngle(in), 1e-9, "NormalizeAngle(%f)", in)
	}
}

func TestLerpAngle(t *testing.T) {
	assert.InDelta(t, 0.5, LerpAngle(0, 1, 0.5), 1e-9)
	assert.InDelta(t, 0, LerpAngle(-0.2, 0.2, 0.5), 1e-9)
	// 350° -> 10° passes through 0, not 180
	a, b := 350*math.Pi/180, 10*math.Pi/180
	assert.InDelta(t, 0, LerpAngle(a, b, 0.5), 1e-9)
	assert.InDelta(t, b, LerpAngle(a, b, 1), 1e-9)
}
