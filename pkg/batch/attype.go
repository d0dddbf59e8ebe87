package batch

import (
	"fmt"
	"io"
	"sort"

	"github.com/andrew-torda/cifasm/pdb/cmmn"
)

// TypeCount is how often one element was seen.
type TypeCount struct {
	Name cmmn.Ident
	N    int
}

// AtomTypes counts the atoms with good coordinates by element
// (type_symbol) over every scene in a batch. Most common first, ties by name.
func AtomTypes(results map[string]*Result) []TypeCount {
	nummap := make(map[cmmn.Ident]int)
	for _, r := range results {
		if r.Scene == nil {
			continue
		}
		for _, a := range r.Scene.Atoms {
			if a.Xyz.Ok() {
				nummap[a.Element]++
			}
		}
	}
	pairs := make([]TypeCount, 0, len(nummap))
	for k, v := range nummap {
		pairs = append(pairs, TypeCount{k, v})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].N != pairs[j].N {
			return pairs[i].N > pairs[j].N
		}
		return pairs[i].Name < pairs[j].Name
	})
	return pairs
}

// WriteTypes prints counts as csv.
func WriteTypes(w io.Writer, pairs []TypeCount) error {
	if _, err := fmt.Fprintln(w, `"name","n"`); err != nil {
		return err
	}
	for _, p := range pairs {
		if _, err := fmt.Fprintf(w, "%q,%d\n", p.Name, p.N); err != nil {
			return err
		}
	}
	return nil
}
