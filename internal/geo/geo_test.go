package geo

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"

	"github.com/carnagereport/theater/pkg/core"
)

func TestToRender(t *testing.T) {
	assert.Equal(t, mgl64.Vec3{1, 3, -2}, ToRender(core.Position3D{X: 1, Y: 2, Z: 3}))
}

func TestToRender_UpIsUp(t *testing.T) {
	up := ToRender(core.Position3D{Z: 1})
	assert.Equal(t, mgl64.Vec3{0, 1, 0}, up)
}

func TestFromRender_RoundTrip(t *testing.T) {
	for _, p := range []core.Position3D{
		{},
		{X: 1, Y: 2, Z: 3},
		{X: -120.5, Y: 8000.25, Z: -4},
	} {
		assert.Equal(t, p, FromRender(ToRender(p)))
	}
}

func TestToRender_PreservesHandedness(t *testing.T) {
	x := ToRender(core.Position3D{X: 1})
	y := ToRender(core.Position3D{Y: 1})
	z := ToRender(core.Position3D{Z: 1})

	assert.True(t, x.Cross(y).ApproxEqual(z), "x cross y must stay z after conversion")
}

func TestHeading(t *testing.T) {
	near := func(want, got mgl64.Vec3) {
		t.Helper()
		for i := range want {
			assert.InDelta(t, want[i], got[i], 1e-9, "want %v, got %v", want, got)
		}
	}
	// east
	near(mgl64.Vec3{1, 0, 0}, Heading(0, 0))
	// north is -Z in render space
	near(mgl64.Vec3{0, 0, -1}, Heading(math.Pi/2, 0))
	// straight up
	near(mgl64.Vec3{0, 1, 0}, Heading(1.2, math.Pi/2))
	assert.InDelta(t, 1, Heading(0.7, -0.3).Len(), 1e-9)
}

func TestExtent(t *testing.T) {
	var e Extent
	assert.True(t, e.Empty())
	assert.Equal(t, core.Position3D{}, e.Center())

	e.Include(core.Position3D{X: -10, Y: 0, Z: 2})
	e.Include(core.Position3D{X: 30, Y: 40, Z: 6})
	e.Include(core.Position3D{X: 0, Y: 10, Z: 4})

	assert.False(t, e.Empty())
	assert.Equal(t, core.Position3D{X: -10, Y: 0, Z: 2}, e.Min)
	assert.Equal(t, core.Position3D{X: 30, Y: 40, Z: 6}, e.Max)

	c := e.Center()
	assert.InDelta(t, 10, c.X, 1e-9)
	assert.InDelta(t, 20, c.Y, 1e-9)
	assert.InDelta(t, 4, c.Z, 1e-9)
}

func TestOverheadAnchor_Centroid(t *testing.T) {
	anchor := OverheadAnchor([]core.Position3D{
		{X: 0, Y: 0, Z: 0},
		{X: 10, Y: 0, Z: 3},
		{X: 10, Y: 10, Z: 3},
		{X: 0, Y: 10, Z: 6},
	}, Extent{})

	assert.InDelta(t, 5, anchor.X, 1e-9)
	assert.InDelta(t, 5, anchor.Y, 1e-9)
	assert.InDelta(t, 3, anchor.Z, 1e-9)
}

func TestOverheadAnchor_FallsBackToExtent(t *testing.T) {
	var e Extent
	e.Include(core.Position3D{X: 100, Y: 100})
	e.Include(core.Position3D{X: 300, Y: 500})

	anchor := OverheadAnchor(nil, e)
	assert.InDelta(t, 200, anchor.X, 1e-9)
	assert.InDelta(t, 300, anchor.Y, 1e-9)
}
