package assembly

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrew-torda/cifasm/pdb/cmmn"
	"github.com/andrew-torda/cifasm/pdb/mmcif"
)

const atomSite = `loop_
_atom_site.group_PDB
_atom_site.id
_atom_site.type_symbol
_atom_site.label_atom_id
_atom_site.label_comp_id
_atom_site.label_asym_id
_atom_site.label_entity_id
_atom_site.label_seq_id
_atom_site.Cartn_x
_atom_site.Cartn_y
_atom_site.Cartn_z
ATOM   1 N N  ALA A 1 1 1.0 2.0 3.0
ATOM   2 C CA ALA A 1 1 2.0 2.0 3.0
ATOM   3 N N  GLY B 1 1 0.0 0.0 0.0
ATOM   4 C CA GLY B 1 1 1.0 0.0 0.0
HETATM 5 O O  HOH C 2 . 5.0 5.0 5.0
#
`

const operList = `loop_
_pdbx_struct_oper_list.id
_pdbx_struct_oper_list.type
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
1  'identity operation' 1 0 0 0  0 1 0 0  0 0 1 0
2  'translation'        1 0 0 10 0 1 0 0  0 0 1 0
X0 'rotation'           0 -1 0 0 1 0 0 0  0 0 1 0
#
`

const assemblyGen = `loop_
_pdbx_struct_assembly_gen.assembly_id
_pdbx_struct_assembly_gen.oper_expression
_pdbx_struct_assembly_gen.asym_id_list
1 '(1-2)'     A,B
2 '(X0)(1-2)' A
3 '(1,9)'     A,Z
4 '(1'        A
#
`

func parseString(t *testing.T, s string, opts Options) (*Session, error) {
	t.Helper()
	sess := NewSession("test.cif", opts)
	return sess, sess.Parse(context.Background(), strings.NewReader(s))
}

func mustScene(t *testing.T, s string, sOpts SceneOptions) *Scene {
	t.Helper()
	sess, err := parseString(t, s, Options{})
	require.NoError(t, err)
	sc, err := sess.Scene(sOpts)
	require.NoError(t, err)
	return sc
}

func TestSessionParse(t *testing.T) {
	sess, err := parseString(t, "data_TEST\n"+atomSite+operList+assemblyGen, Options{})
	require.NoError(t, err)
	atoms := sess.Atoms()
	require.Len(t, atoms, 5)
	assert.Equal(t, Atom{Element: "N", Name: "N", ResName: "ALA", Chain: "A", Entity: "1",
		ResNum: 1, Xyz: cmmn.Xyz{X: 1, Y: 2, Z: 3}}, atoms[0])
	assert.Equal(t, cmmn.BrokenResNum, atoms[4].ResNum)
	assert.Equal(t, 3, sess.Registry().Len())
	assert.Equal(t, []string{"1", "2", "3", "4"}, sess.Assemblies().IDs())
	a, ok := sess.Assemblies().Get("4")
	require.True(t, ok)
	assert.Empty(t, a.Bindings)
	assert.Len(t, a.Bad, 1)
	assert.Equal(t, Stats{AtomRows: 5, OperRows: 3, AssemblyRows: 4}, sess.Stats())
}

func TestGroupingIdempotent(t *testing.T) {
	sess, err := parseString(t, atomSite, Options{})
	require.NoError(t, err)
	c := sess.Chains()
	assert.Equal(t, []cmmn.Ident{"A", "B", "C"}, c.Keys)
	assert.Equal(t, []int{0, 1}, c.Members["A"])
	assert.Equal(t, []int{2, 3}, c.Members["B"])
	assert.Equal(t, []int{4}, c.Members["C"])
	e := sess.Entities()
	assert.Equal(t, []cmmn.Ident{"1", "2"}, e.Keys)
	assert.Equal(t, []int{0, 1, 2, 3}, e.Members["1"])

	assert.Equal(t, c, BuildGrouping(sess.Atoms(), ByChainID))
	assert.Equal(t, BuildGrouping(sess.Atoms(), ByEntityID), BuildGrouping(sess.Atoms(), ByEntityID))
	assert.True(t, c.Has("A"))
	assert.False(t, c.Has("Z"))
	assert.Equal(t, 3, c.Len())
}

func TestSceneFirstAssembly(t *testing.T) {
	sc := mustScene(t, atomSite+operList+assemblyGen, SceneOptions{})
	assert.Equal(t, "1", sc.AssemblyID)
	require.Len(t, sc.Models, 3)
	assert.Equal(t, "test.cif :: A", sc.Models[0].Name)
	assert.Equal(t, ChainModel, sc.Models[0].Kind)
	assert.Equal(t, []float32{1, 2, 3}, sc.Models[0].Coords.Mat[0])
	assert.Equal(t, []float32{2, 2, 3}, sc.Models[0].Coords.Mat[1])

	var got []string
	for _, in := range sc.Instances {
		got = append(got, string(sc.Models[in.Model].ID)+"/"+in.Operator)
	}
	assert.Equal(t, []string{"A/1", "A/2", "B/1", "B/2"}, got)
	assert.True(t, sc.Instances[0].Transform.IsIdentity())
	assert.Equal(t, 10.0, sc.Instances[1].Transform.At(0, 3))
	assert.Zero(t, sc.Skipped)
	assert.Equal(t, 5, sc.Stats.Atoms)
}

// (X0)(1-2) is X0 after 1 and X0 after 2.
func TestSceneComposed(t *testing.T) {
	sc := mustScene(t, atomSite+operList+assemblyGen, SceneOptions{AssemblyID: "2"})
	require.Len(t, sc.Instances, 2)
	assert.Equal(t, "X0x1", sc.Instances[0].Operator)
	assert.Equal(t, "X0x2", sc.Instances[1].Operator)
	p := sc.Instances[1].Transform.Apply(cmmn.Xyz{X: 1})
	assert.InDelta(t, 0, p.X, eps)
	assert.InDelta(t, 11, p.Y, eps)
	p = sc.Instances[0].Transform.Apply(cmmn.Xyz{X: 1})
	assert.InDelta(t, 1, p.Y, eps)
}

// An expression may come as a text field over several lines. Ranges
// whose bounds do not fit in 32 bits spoil only their own row.
const assemblyGenAwkward = `loop_
_pdbx_struct_assembly_gen.assembly_id
_pdbx_struct_assembly_gen.oper_expression
_pdbx_struct_assembly_gen.asym_id_list
1
;(1)
(2)
;
A
2 '(9223372036854775806-9223372036854775807)' A
3 '(-9223372036854775807-9223372036854775807)' A
#
`

func TestAssemblyGenAwkward(t *testing.T) {
	sess, err := parseString(t, atomSite+operList+assemblyGenAwkward, Options{})
	require.NoError(t, err)
	a, ok := sess.Assemblies().Get("1")
	require.True(t, ok)
	require.Len(t, a.Bindings, 1)
	assert.Equal(t, OperExpr{{"1"}, {"2"}}, a.Bindings[0].Groups)
	for _, id := range []string{"2", "3"} {
		a, ok := sess.Assemblies().Get(id)
		require.True(t, ok, id)
		assert.Empty(t, a.Bindings, id)
		require.Len(t, a.Bad, 1, id)
		assert.True(t, errors.Is(a.Bad[0], ErrOperatorSyntax), id)
	}
	sc, err := sess.Scene(SceneOptions{AssemblyID: "1"})
	require.NoError(t, err)
	require.Len(t, sc.Instances, 1)
	assert.Equal(t, "1x2", sc.Instances[0].Operator)
}

func TestScenePartial(t *testing.T) {
	sc := mustScene(t, atomSite+operList+assemblyGen, SceneOptions{AssemblyID: "3"})
	require.Len(t, sc.Instances, 1)
	assert.Equal(t, "1", sc.Instances[0].Operator)
	assert.Equal(t, cmmn.Ident("A"), sc.Models[sc.Instances[0].Model].ID)
	assert.Equal(t, 3, sc.Skipped) // Z with 1 and 9, A with 9
	require.Len(t, sc.Problems, 2)
	for _, p := range sc.Problems {
		assert.True(t, errors.Is(p, ErrUnresolved), p)
	}

	sc = mustScene(t, atomSite+operList+assemblyGen, SceneOptions{AssemblyID: "4"})
	assert.Empty(t, sc.Instances)
	assert.Equal(t, 1, sc.Skipped)
	require.Len(t, sc.Problems, 1)
	assert.True(t, errors.Is(sc.Problems[0], ErrOperatorSyntax))
}

func TestSceneUnknownAssembly(t *testing.T) {
	for _, s := range []string{atomSite + operList + assemblyGen, atomSite} {
		sess, err := parseString(t, s, Options{})
		require.NoError(t, err)
		sc, err := sess.Scene(SceneOptions{AssemblyID: "99"})
		assert.Nil(t, sc)
		assert.True(t, errors.Is(err, ErrUnknownAssembly))
	}
}

func TestSceneNoAssembly(t *testing.T) {
	for _, s := range []string{atomSite, atomSite + operList} {
		sc := mustScene(t, s, SceneOptions{})
		assert.Empty(t, sc.AssemblyID)
		require.Len(t, sc.Models, 3)
		require.Len(t, sc.Instances, 3)
		for i, in := range sc.Instances {
			assert.Equal(t, i, in.Model)
			assert.True(t, in.Transform.IsIdentity())
		}
	}
	sc := mustScene(t, atomSite+operList+assemblyGen, SceneOptions{NoAssembly: true})
	assert.Len(t, sc.Instances, 3)
}

func TestSceneByEntity(t *testing.T) {
	sc := mustScene(t, atomSite, SceneOptions{Group: ByEntity})
	require.Len(t, sc.Models, 2)
	assert.Equal(t, EntityModel, sc.Models[0].Kind)
	assert.Equal(t, []int{0, 1, 2, 3}, sc.Models[0].Atoms)
	assert.Equal(t, "test.cif :: 2", sc.Models[1].Name)
	assert.Len(t, sc.Instances, 2)
}

const noIDs = `loop_
_atom_site.type_symbol
_atom_site.label_atom_id
_atom_site.label_comp_id
_atom_site.label_seq_id
_atom_site.Cartn_x
_atom_site.Cartn_y
_atom_site.Cartn_z
C CA ALA 1 1 1 1
C CA GLY 2 2 2 2
O O  HOH . 3 3 3
`

func TestScenePointCloud(t *testing.T) {
	sc := mustScene(t, noIDs, SceneOptions{})
	require.Len(t, sc.Models, 1)
	assert.Equal(t, PointCloud, sc.Models[0].Kind)
	assert.Equal(t, "test.cif", sc.Models[0].Name)
	assert.Equal(t, []int{0, 1, 2}, sc.Models[0].Atoms)
	require.Len(t, sc.Instances, 1)
	assert.True(t, sc.Instances[0].Transform.IsIdentity())
}

func TestSceneEmpty(t *testing.T) {
	for _, s := range []string{"", "data_x\n", operList + assemblyGen} {
		sc := mustScene(t, s, SceneOptions{})
		assert.Empty(t, sc.Models)
		assert.Empty(t, sc.Instances)
	}
}

// The order of categories in the file does not matter.
func TestCategoryOrder(t *testing.T) {
	a := mustScene(t, atomSite+operList+assemblyGen, SceneOptions{AssemblyID: "2"})
	b := mustScene(t, assemblyGen+operList+atomSite, SceneOptions{AssemblyID: "2"})
	c := mustScene(t, operList+atomSite+assemblyGen, SceneOptions{AssemblyID: "2"})
	for _, x := range []*Scene{b, c} {
		require.Len(t, x.Instances, len(a.Instances))
		for i := range a.Instances {
			assert.Equal(t, a.Instances[i].Operator, x.Instances[i].Operator)
			assert.Equal(t, a.Instances[i].Transform.Elements(), x.Instances[i].Transform.Elements())
		}
	}
}

// One operator written as data items is the same as a loop with one row.
const operItems = `_pdbx_struct_oper_list.id 1
_pdbx_struct_oper_list.type 'identity operation'
_pdbx_struct_oper_list.name 1_555
_pdbx_struct_oper_list.matrix[1][1] 1.0
_pdbx_struct_oper_list.matrix[1][2] 0.0
_pdbx_struct_oper_list.matrix[1][3] 0.0
_pdbx_struct_oper_list.vector[1] 5.0
_pdbx_struct_oper_list.matrix[2][1] 0.0
_pdbx_struct_oper_list.matrix[2][2] 1.0
_pdbx_struct_oper_list.matrix[2][3] 0.0
_pdbx_struct_oper_list.vector[2] 0.0
_pdbx_struct_oper_list.matrix[3][1] 0.0
_pdbx_struct_oper_list.matrix[3][2] 0.0
_pdbx_struct_oper_list.matrix[3][3] 1.0
_pdbx_struct_oper_list.vector[3] 0.0
#
_pdbx_struct_assembly_gen.assembly_id 1
_pdbx_struct_assembly_gen.oper_expression 1
_pdbx_struct_assembly_gen.asym_id_list A,B,C
#
`

func TestSingleItems(t *testing.T) {
	sc := mustScene(t, operItems+atomSite, SceneOptions{})
	assert.Equal(t, "1", sc.AssemblyID)
	require.Len(t, sc.Instances, 3)
	for _, in := range sc.Instances {
		assert.Equal(t, "1", in.Operator)
		assert.Equal(t, 5.0, in.Transform.At(0, 3))
	}
	assert.Equal(t, 1, sc.Stats.OperRows)
}

const longIDs = `loop_
_atom_site.type_symbol
_atom_site.label_atom_id
_atom_site.label_comp_id
_atom_site.label_asym_id
_atom_site.label_entity_id
_atom_site.label_seq_id
_atom_site.Cartn_x
_atom_site.Cartn_y
_atom_site.Cartn_z
C CA ALA LONGCHAIN 1 1 1 1 1
C CA ALA LONGCHAIN 1 2 2 2 2
`

func TestTruncate(t *testing.T) {
	sess, err := parseString(t, longIDs, Options{Limit: cmmn.Limit{Max: 4}})
	require.NoError(t, err)
	require.Len(t, sess.Atoms(), 2)
	assert.Equal(t, cmmn.Ident("LONG"), sess.Atoms()[0].Chain)
	assert.Equal(t, 2, sess.Stats().Truncated)

	sess, err = parseString(t, longIDs, Options{})
	require.NoError(t, err)
	assert.Equal(t, cmmn.Ident("LONGCHAI"), sess.Atoms()[0].Chain)

	sess, err = parseString(t, longIDs, Options{Limit: cmmn.Limit{Max: 4, Overflow: cmmn.Fail}})
	assert.True(t, errors.Is(err, cmmn.ErrIdentTooLong), err)
	assert.False(t, errors.Is(err, ErrFile))
	assert.Empty(t, sess.Atoms())
}

// A broken category leaves no atoms behind.
func TestAtomSiteBroken(t *testing.T) {
	noX := strings.Replace(atomSite, "_atom_site.Cartn_x\n", "", 1)
	noX = strings.Replace(noX, " 1.0 2.0 3.0", " 2.0 3.0", 1)
	var tdata = []struct {
		in   string
		want error
	}{
		{atomSite + strings.Replace(atomSite, "5.0 5.0 5.0", "5.0 x 5.0", 1), ErrBadValue},
		{strings.Replace(atomSite, "HOH C 2 .", "HOH C 2 q", 1), ErrBadValue},
		{noIDs + strings.Replace(noIDs, "_atom_site.Cartn_z\n", "", 1), mmcif.ErrRequiredColumn},
	}
	for i, tt := range tdata {
		sess, err := parseString(t, tt.in, Options{})
		assert.True(t, errors.Is(err, tt.want), "%d: %v", i, err)
		assert.False(t, errors.Is(err, ErrFile), i)
		// the first good table is kept, the broken one is rolled back
		assert.Less(t, len(sess.Atoms()), 6, i)
	}
	sess, err := parseString(t, noX, Options{})
	assert.True(t, errors.Is(err, mmcif.ErrRequiredColumn))
	assert.Empty(t, sess.Atoms())
}

func TestOperListBroken(t *testing.T) {
	for _, s := range []string{
		strings.Replace(operList, "_pdbx_struct_oper_list.vector[3]\n", "", 1),
		strings.Replace(operList, "0 -1 0 0", "0 -1 z 0", 1),
	} {
		sess, err := parseString(t, s, Options{})
		assert.Error(t, err)
		assert.Equal(t, 0, sess.Registry().Len())
	}
}

func TestFileError(t *testing.T) {
	for _, s := range []string{
		atomSite + "ATOM 6 C CA ALA A 1 1 1.0 'open\n",
		"_atom_site.id\n",
		strings.Replace(noIDs, "3 3 3", "3 3 3 4", 1),
	} {
		_, err := parseString(t, s, Options{})
		assert.True(t, errors.Is(err, ErrFile), "%q gave %v", s, err)
		assert.True(t, errors.Is(err, mmcif.ErrSyntax), err)
	}
}

func TestCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sess := NewSession("x", Options{})
	err := sess.Parse(ctx, strings.NewReader(atomSite))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestReadXyz(t *testing.T) {
	var xyz []cmmn.Xyz
	mr := mmcif.NewReader(strings.NewReader(noIDs))
	mr.Register("atom_site", ReadXyz(&xyz))
	require.NoError(t, mr.Parse(context.Background()))
	assert.Equal(t, []cmmn.Xyz{{X: 1, Y: 1, Z: 1}, {X: 2, Y: 2, Z: 2}, {X: 3, Y: 3, Z: 3}}, xyz)

	xyz = nil
	mr = mmcif.NewReader(strings.NewReader(strings.Replace(noIDs, "3 3 3", "3 3 z", 1)))
	mr.Register("atom_site", ReadXyz(&xyz))
	assert.True(t, errors.Is(mr.Parse(context.Background()), ErrBadValue))
	assert.Empty(t, xyz)
}
