// Package geo owns the conversion between telemetry space and render space.
//
// Telemetry is right-handed with Z up: X east, Y north. The renderer is
// right-handed with Y up and -Z forward. Every position, trail point and
// camera offset crosses that boundary through ToRender; nothing else in the
// module swaps axes.
package geo

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/carnagereport/theater/pkg/core"
)

// ToRender maps a telemetry position to render space: (x, y, z) -> (x, z, -y).
func ToRender(p core.Position3D) mgl64.Vec3 {
	return mgl64.Vec3{p.X, p.Z, -p.Y}
}

// FromRender is the inverse of ToRender.
func FromRender(v mgl64.Vec3) core.Position3D {
	return core.Position3D{X: v[0], Y: -v[2], Z: v[1]}
}

// Heading returns the render-space unit vector for a telemetry facing.
// Yaw is measured counter-clockwise around +Z from +X, pitch up from the
// horizontal plane.
func Heading(yaw, pitch float64) mgl64.Vec3 {
	cp := math.Cos(pitch)
	return ToRender(core.Position3D{
		X: cp * math.Cos(yaw),
		Y: cp * math.Sin(yaw),
		Z: math.Sin(pitch),
	})
}

// Extent is an axis-aligned bounding box in telemetry space.
type Extent struct {
	Min, Max core.Position3D
	valid    bool
}

// Include grows the extent to cover p.
func (e *Extent) Include(p core.Position3D) {
	if !e.valid {
		e.Min, e.Max, e.valid = p, p, true
		return
	}
	e.Min = core.Position3D{X: min(e.Min.X, p.X), Y: min(e.Min.Y, p.Y), Z: min(e.Min.Z, p.Z)}
	e.Max = core.Position3D{X: max(e.Max.X, p.X), Y: max(e.Max.Y, p.Y), Z: max(e.Max.Z, p.Z)}
}

// Empty reports whether nothing has been included yet.
func (e Extent) Empty() bool {
	return !e.valid
}

// Center returns the middle of the box, or the origin when empty.
func (e Extent) Center() core.Position3D {
	if !e.valid {
		return core.Position3D{}
	}
	c := centroid([]core.Position3D{e.Min, e.Max})
	c.Z = (e.Min.Z + e.Max.Z) / 2
	return c
}

// OverheadAnchor picks the point a top-down camera looks at: the centroid of
// the subjects' first live positions, or the centre of the map extent when
// there are none.
func OverheadAnchor(initial []core.Position3D, extent Extent) core.Position3D {
	if len(initial) == 0 {
		return extent.Center()
	}
	c := centroid(initial)
	var z float64
	for _, p := range initial {
		z += p.Z
	}
	c.Z = z / float64(len(initial))
	return c
}

// centroid returns the XY centroid of a set of positions.
func centroid(ps []core.Position3D) core.Position3D {
	pts := make([]geom.Point, len(ps))
	for i, p := range ps {
		pts[i] = geom.NewPoint(geom.Coordinates{
			XY:   geom.XY{X: p.X, Y: p.Y},
			Type: geom.DimXY,
		})
	}
	xy, ok := geom.NewMultiPoint(pts).Centroid().XY()
	if !ok {
		return core.Position3D{}
	}
	return core.Position3D{X: xy.X, Y: xy.Y}
}
