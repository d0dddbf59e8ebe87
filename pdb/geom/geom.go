// Package geom has bounding boxes, centres and sizes of models and
// whole scenes.
package geom

import (
	"math"

	"github.com/andrew-torda/cifasm/pdb/assembly"
	"github.com/andrew-torda/cifasm/pdb/cmmn"
)

// Box is an axis aligned bounding box. An empty box has Min above Max.
type Box struct {
	Min, Max cmmn.Xyz
}

// EmptyBox contains nothing. Adding a point to it gives a box around
// just that point.
var EmptyBox = Box{
	Min: cmmn.Xyz{X: math.MaxFloat32, Y: math.MaxFloat32, Z: math.MaxFloat32},
	Max: cmmn.Xyz{X: -math.MaxFloat32, Y: -math.MaxFloat32, Z: -math.MaxFloat32},
}

// Empty is true if nothing was ever added.
func (b Box) Empty() bool { return b.Min.X > b.Max.X }

// Add grows the box to hold x. Broken coordinates are ignored.
func (b *Box) Add(x cmmn.Xyz) {
	if !x.Ok() {
		return
	}
	b.Min.X = min(b.Min.X, x.X)
	b.Min.Y = min(b.Min.Y, x.Y)
	b.Min.Z = min(b.Min.Z, x.Z)
	b.Max.X = max(b.Max.X, x.X)
	b.Max.Y = max(b.Max.Y, x.Y)
	b.Max.Z = max(b.Max.Z, x.Z)
}

// Size is the length of the box along each axis.
func (b Box) Size() cmmn.Xyz {
	if b.Empty() {
		return cmmn.Xyz{}
	}
	return xyzDiff(b.Min, b.Max)
}

// xyzDiff gets the difference of two vectors
func xyzDiff(start, end cmmn.Xyz) (diff cmmn.Xyz) {
	diff.X = end.X - start.X
	diff.Y = end.Y - start.Y
	diff.Z = end.Z - start.Z
	return diff
}

// xyzLen returns the vector length
func xyzLen(v cmmn.Xyz) float32 {
	return float32(math.Sqrt(float64(v.X*v.X + v.Y*v.Y + v.Z*v.Z)))
}

// XyzDist is the distance between two points.
func XyzDist(x1, x2 cmmn.Xyz) float32 { return xyzLen(xyzDiff(x1, x2)) }

// modelXyz calls fn for each atom of a model, moved by t.
func modelXyz(m *assembly.Model, t assembly.Transform, fn func(cmmn.Xyz)) {
	if m.Coords == nil {
		return
	}
	for _, r := range m.Coords.Mat {
		fn(t.Apply(cmmn.Xyz{X: r[0], Y: r[1], Z: r[2]}))
	}
}

// ModelBounds is the box around a model where it was in the file.
func ModelBounds(m *assembly.Model) Box {
	b := EmptyBox
	modelXyz(m, assembly.Transform{}, b.Add)
	return b
}

// SceneBounds is the box around every instance of every model.
func SceneBounds(sc *assembly.Scene) Box {
	b := EmptyBox
	for _, in := range sc.Instances {
		modelXyz(&sc.Models[in.Model], in.Transform, b.Add)
	}
	return b
}

// Centroid is the mean position of every atom drawn, and the number
// of atoms that went into it. Sums are in float64.
func Centroid(sc *assembly.Scene) (cmmn.Xyz, int) {
	var sx, sy, sz float64
	var n int
	for _, in := range sc.Instances {
		modelXyz(&sc.Models[in.Model], in.Transform, func(x cmmn.Xyz) {
			if !x.Ok() {
				return
			}
			sx += float64(x.X)
			sy += float64(x.Y)
			sz += float64(x.Z)
			n++
		})
	}
	if n == 0 {
		return cmmn.Xyz{}, 0
	}
	fn := float64(n)
	return cmmn.Xyz{X: float32(sx / fn), Y: float32(sy / fn), Z: float32(sz / fn)}, n
}

// Radius is the largest distance of any atom drawn from the centroid.
// A viewer can use it to place the camera.
func Radius(sc *assembly.Scene) float32 {
	c, n := Centroid(sc)
	if n == 0 {
		return 0
	}
	var r float32
	for _, in := range sc.Instances {
		modelXyz(&sc.Models[in.Model], in.Transform, func(x cmmn.Xyz) {
			if x.Ok() {
				r = max(r, XyzDist(c, x))
			}
		})
	}
	return r
}
