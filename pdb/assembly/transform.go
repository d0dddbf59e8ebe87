package assembly

import (
	"gonum.org/v1/gonum/mat"

	"github.com/andrew-torda/cifasm/pdb/cmmn"
)

// Transform is a named rigid transformation, a 4x4 homogeneous matrix.
// The zero value, or a nil matrix, is the identity.
type Transform struct {
	ID string
	m  *mat.Dense
}

// Identity returns the identity transform with a name.
func Identity(id string) Transform { return Transform{ID: id} }

// NewTransform builds the 4x4 matrix from a rotation and a translation.
// Row 3 is always 0 0 0 1.
func NewTransform(id string, rot [3][3]float64, vec [3]float64) Transform {
	m := mat.NewDense(4, 4, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m.Set(i, j, rot[i][j])
		}
		m.Set(i, 3, vec[i])
	}
	m.Set(3, 3, 1)
	return Transform{ID: id, m: m}
}

// At returns element i, j, counting from zero.
func (t Transform) At(i, j int) float64 {
	if t.m == nil {
		if i == j {
			return 1
		}
		return 0
	}
	return t.m.At(i, j)
}

// IsIdentity is true if every element is that of the identity matrix.
func (t Transform) IsIdentity() bool {
	if t.m == nil {
		return true
	}
	return mat.Equal(t.m, identity4)
}

var identity4 = mat.NewDiagDense(4, []float64{1, 1, 1, 1})

// Mul returns t times u, so u is applied first. The result has no name.
func (t Transform) Mul(u Transform) Transform {
	switch {
	case t.m == nil && u.m == nil:
		return Transform{}
	case t.m == nil:
		return Transform{m: mat.DenseCopyOf(u.m)}
	case u.m == nil:
		return Transform{m: mat.DenseCopyOf(t.m)}
	}
	var p mat.Dense
	p.Mul(t.m, u.m)
	return Transform{m: &p}
}

// Apply moves one point. The arithmetic is in float64.
func (t Transform) Apply(xyz cmmn.Xyz) cmmn.Xyz {
	if t.m == nil {
		return xyz
	}
	x, y, z := float64(xyz.X), float64(xyz.Y), float64(xyz.Z)
	r := func(i int) float32 {
		return float32(t.m.At(i, 0)*x + t.m.At(i, 1)*y + t.m.At(i, 2)*z + t.m.At(i, 3))
	}
	return cmmn.Xyz{X: r(0), Y: r(1), Z: r(2)}
}

// Elements returns the matrix in row-major order, as a renderer wants it.
func (t Transform) Elements() [16]float64 {
	var e [16]float64
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			e[i*4+j] = t.At(i, j)
		}
	}
	return e
}

// Registry holds transforms by ID and remembers the order they came in.
type Registry struct {
	byID  map[string]Transform
	order []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]Transform)}
}

// Add stores a transform. A later transform with the same ID replaces
// the earlier one but keeps its place.
func (r *Registry) Add(t Transform) {
	if _, ok := r.byID[t.ID]; !ok {
		r.order = append(r.order, t.ID)
	}
	r.byID[t.ID] = t
}

// Lookup finds a transform by ID.
func (r *Registry) Lookup(id string) (Transform, bool) {
	t, ok := r.byID[id]
	return t, ok
}

func (r *Registry) Len() int { return len(r.order) }

// IDs in the order they were first added.
func (r *Registry) IDs() []string { return r.order }
