// Package batch reads many structure files at once. Each file gets its
// own session in its own goroutine, and the number running at once is
// bounded. One bad file does not stop the others.
package batch

import (
	"context"
	"os"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/andrew-torda/cifasm/pdb"
	"github.com/andrew-torda/cifasm/pdb/assembly"
	"github.com/andrew-torda/cifasm/pdb/cmmn"
)

// DfltWorkers leaves a couple of CPUs for everything else, but never
// uses more than six or fewer than one.
func DfltWorkers() int {
	return max(1, min(6, runtime.NumCPU()-2))
}

// Options for Load.
type Options struct {
	Workers int  // zero or less means DfltWorkers
	Flat    bool // only coordinates, as pdb.LoadFlat
	Load    pdb.Options
}

// Result is what happened to one file. Exactly one of Scene, Xyz or
// Err is set, unless Flat found no atoms.
type Result struct {
	Path  string
	Scene *assembly.Scene
	Xyz   []cmmn.Xyz
	NByte int64
	Err   error
}

// Each calls fn(ctx, i) for i from 0 to n-1, running at most workers
// at once. fn has to look after its own errors. When ctx is cancelled,
// no more calls are started and Each returns the context's error.
func Each(ctx context.Context, n, workers int, fn func(ctx context.Context, i int)) error {
	if workers <= 0 {
		workers = DfltWorkers()
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			fn(gctx, i)
			return nil
		})
	}
	g.Wait()
	return ctx.Err()
}

// Load reads every file in paths. The map has an entry for every
// path, with Err set for files that could not be read, including
// those never started because ctx was cancelled.
func Load(ctx context.Context, paths []string, opts Options) (map[string]*Result, error) {
	var mu sync.Mutex
	results := make(map[string]*Result, len(paths))
	err := Each(ctx, len(paths), opts.Workers, func(ctx context.Context, i int) {
		r := loadOne(ctx, paths[i], opts)
		mu.Lock()
		results[r.Path] = r
		mu.Unlock()
	})
	for _, p := range paths {
		if _, ok := results[p]; !ok {
			results[p] = &Result{Path: p, Err: err}
		}
	}
	return results, err
}

func loadOne(ctx context.Context, path string, opts Options) *Result {
	r := &Result{Path: path}
	if err := ctx.Err(); err != nil {
		r.Err = err
		return r
	}
	if fi, err := os.Stat(path); err == nil {
		r.NByte = fi.Size()
	}
	if opts.Flat {
		r.Xyz, r.Err = pdb.LoadFlat(ctx, path)
	} else {
		r.Scene, r.Err = pdb.Load(ctx, path, opts.Load)
	}
	return r
}

// Totals sums up a batch.
type Totals struct {
	NFile, NFail int
	NByte        int64
	NAtom        int
}

// Sum adds up the results and returns the paths in sorted order, so
// output does not depend on which worker finished first.
func Sum(results map[string]*Result) (Totals, []string) {
	var tot Totals
	paths := make([]string, 0, len(results))
	for p, r := range results {
		paths = append(paths, p)
		tot.NFile++
		tot.NByte += r.NByte
		switch {
		case r.Err != nil:
			tot.NFail++
		case r.Scene != nil:
			tot.NAtom += r.Scene.Stats.Atoms
		default:
			tot.NAtom += len(r.Xyz)
		}
	}
	sort.Strings(paths)
	return tot, paths
}
