package batch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrew-torda/cifasm/pdb/assembly"
	"github.com/andrew-torda/cifasm/pkg/common"
)

const oneChain = `data_x
loop_
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
`

func TestDfltWorkers(t *testing.T) {
	n := DfltWorkers()
	assert.GreaterOrEqual(t, n, 1)
	assert.LessOrEqual(t, n, 6)
}

func TestEach(t *testing.T) {
	const n = 50
	var running, most, calls atomic.Int32
	seen := make([]bool, n)
	err := Each(context.Background(), n, 3, func(ctx context.Context, i int) {
		now := running.Add(1)
		for {
			old := most.Load()
			if now <= old || most.CompareAndSwap(old, now) {
				break
			}
		}
		seen[i] = true
		calls.Add(1)
		running.Add(-1)
	})
	require.NoError(t, err)
	assert.Equal(t, int32(n), calls.Load())
	assert.LessOrEqual(t, most.Load(), int32(3))
	for i, s := range seen {
		assert.True(t, s, i)
	}
}

func TestEachCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var calls atomic.Int32
	err := Each(ctx, 10, 2, func(context.Context, int) { calls.Add(1) })
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Zero(t, calls.Load())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i := 0; i < 8; i++ {
		name, err := common.WrtTemp(dir, fmt.Sprintf("good%d_*.cif", i), oneChain)
		require.NoError(t, err)
		paths = append(paths, name)
	}
	gz, err := common.WrtTempGz(dir, "*.cif.gz", oneChain)
	require.NoError(t, err)
	bad, err := common.WrtTemp(dir, "*.cif", "data_x\n_foo.bar\n")
	require.NoError(t, err)
	missing := filepath.Join(dir, "missing.cif")
	paths = append(paths, gz, bad, missing)

	for _, flat := range []bool{false, true} {
		res, err := Load(context.Background(), paths, Options{Workers: 3, Flat: flat})
		require.NoError(t, err)
		require.Len(t, res, len(paths))
		for _, p := range paths[:9] {
			r := res[p]
			require.NoError(t, r.Err, p)
			if flat {
				assert.Len(t, r.Xyz, 2)
			} else {
				assert.Len(t, r.Scene.Instances, 1)
			}
		}
		for _, p := range []string{bad, missing} {
			assert.True(t, errors.Is(res[p].Err, assembly.ErrFile), "%s: %v", p, res[p].Err)
		}
		tot, sorted := Sum(res)
		assert.Equal(t, len(paths), tot.NFile)
		assert.Equal(t, 2, tot.NFail)
		assert.Equal(t, 18, tot.NAtom)
		assert.Positive(t, tot.NByte)
		assert.IsIncreasing(t, sorted)
	}
}

func TestLoadCancel(t *testing.T) {
	name, err := common.WrtTemp(t.TempDir(), "*.cif", oneChain)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := Load(ctx, []string{name}, Options{})
	assert.True(t, errors.Is(err, context.Canceled))
	require.Len(t, res, 1)
	assert.True(t, errors.Is(res[name].Err, context.Canceled))
}
