package geom_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrew-torda/cifasm/pdb"
	"github.com/andrew-torda/cifasm/pdb/assembly"
	. "github.com/andrew-torda/cifasm/pdb/cmmn"
	. "github.com/andrew-torda/cifasm/pdb/geom"
)

const eps = 1e-4

// permuteXyz rotates x, y and z for tests whose answers should not change
// when we move the axes around.
func permuteXyz(x Xyz) Xyz {
	x.X, x.Y, x.Z = x.Y, x.Z, x.X
	return x
}

func TestXyzDist(t *testing.T) {
	var disttests = []struct {
		x1, x2 Xyz
		res    float32
	}{
		{Xyz{X: 3.8, Y: 0, Z: 0}, Xyz{X: 0, Y: 0, Z: 0}, 3.8},
		{Xyz{X: 0, Y: 0, Z: 0}, Xyz{X: 1, Y: 0, Z: 0}, 1},
		{Xyz{X: 3, Y: 4, Z: 0}, Xyz{X: 0, Y: 0, Z: 0}, 5},
		{Xyz{X: 1, Y: 1, Z: 1}, Xyz{X: 1, Y: 1, Z: 1}, 0},
	}
	for _, test := range disttests {
		x1, x2 := test.x1, test.x2
		for i := 0; i < 3; i++ {
			assert.InDelta(t, test.res, XyzDist(x1, x2), eps)
			assert.InDelta(t, test.res, XyzDist(x2, x1), eps)
			x1, x2 = permuteXyz(x1), permuteXyz(x2)
		}
	}
}

func TestBox(t *testing.T) {
	b := EmptyBox
	assert.True(t, b.Empty())
	assert.Equal(t, Xyz{}, b.Size())
	b.Add(BrokenXyz)
	assert.True(t, b.Empty())
	b.Add(Xyz{X: 1, Y: 2, Z: 3})
	assert.False(t, b.Empty())
	assert.Equal(t, Xyz{}, b.Size())
	b.Add(Xyz{X: -1, Y: 5, Z: 3})
	assert.Equal(t, Box{Min: Xyz{X: -1, Y: 2, Z: 3}, Max: Xyz{X: 1, Y: 5, Z: 3}}, b)
	assert.Equal(t, Xyz{X: 2, Y: 3, Z: 0}, b.Size())
}

const twoAtoms = `loop_
_atom_site.type_symbol
_atom_site.label_atom_id
_atom_site.label_comp_id
_atom_site.label_asym_id
_atom_site.label_seq_id
_atom_site.Cartn_x
_atom_site.Cartn_y
_atom_site.Cartn_z
C CA ALA A 1 1 0 0
C CA ALA A 2 3 0 0
loop_
_pdbx_struct_oper_list.id
_pdbx_struct_oper_list.matrix[1][1]
_pdbx_struct_oper_list.matrix[1][2]
_pdbx_struct_oper_list.matrix[1][3]
_pdbx_struct_oper_list.vector[1]
_pdbx_struct_oper_list.matrix[2][1]
_pdbx_struct_oper_list.matrix[2][2]
_pdbx_struct_oper_list.matrix[2][3]
_pdbx_struct_oper_list.vector[2]
_pdbx_struct_oper_list.matrix[3][1]
_pdbx_struct_oper_list.matrix[3][2]
_pdbx_struct_oper_list.matrix[3][3]
_pdbx_struct_oper_list.vector[3]
1 1 0 0 0  0 1 0 0  0 0 1 0
2 1 0 0 0  0 1 0 10 0 0 1 0
loop_
_pdbx_struct_assembly_gen.assembly_id
_pdbx_struct_assembly_gen.oper_expression
_pdbx_struct_assembly_gen.asym_id_list
1 1,2 A
`

func TestScene(t *testing.T) {
	sc, err := pdb.LoadReader(context.Background(), strings.NewReader(twoAtoms), "g", pdb.Options{})
	require.NoError(t, err)
	require.Len(t, sc.Models, 1)
	require.Len(t, sc.Instances, 2)

	mb := ModelBounds(&sc.Models[0])
	assert.Equal(t, Box{Min: Xyz{X: 1, Y: 0, Z: 0}, Max: Xyz{X: 3, Y: 0, Z: 0}}, mb)

	sb := SceneBounds(sc)
	assert.InDelta(t, 10, sb.Max.Y, eps)
	assert.InDelta(t, 0, sb.Min.Y, eps)
	assert.InDelta(t, 3, sb.Max.X, eps)

	c, n := Centroid(sc)
	assert.Equal(t, 4, n)
	assert.InDelta(t, 2, c.X, eps)
	assert.InDelta(t, 5, c.Y, eps)
	assert.InDelta(t, XyzDist(c, Xyz{X: 1, Y: 0, Z: 0}), Radius(sc), eps)

	empty := &assembly.Scene{}
	assert.True(t, SceneBounds(empty).Empty())
	_, n = Centroid(empty)
	assert.Zero(t, n)
	assert.Zero(t, Radius(empty))
}
