package assembly

import "github.com/andrew-torda/cifasm/pdb/cmmn"

// Grouping partitions atoms by a key such as chain or entity ID.
// Keys are in the order they first appear and each member list holds
// atom indices in ascending order.
type Grouping struct {
	Keys    []cmmn.Ident
	Members map[cmmn.Ident][]int
}

// ByChainID and ByEntityID are the keys the session groups on.
func ByChainID(a *Atom) cmmn.Ident  { return a.Chain }
func ByEntityID(a *Atom) cmmn.Ident { return a.Entity }

// BuildGrouping makes one pass over the atoms. Building it twice from
// the same atoms gives the same result.
func BuildGrouping(atoms []Atom, key func(*Atom) cmmn.Ident) Grouping {
	g := Grouping{Members: make(map[cmmn.Ident][]int)}
	for i := range atoms {
		k := key(&atoms[i])
		m, seen := g.Members[k]
		if !seen {
			g.Keys = append(g.Keys, k)
		}
		g.Members[k] = append(m, i)
	}
	return g
}

// Len is the number of distinct keys.
func (g Grouping) Len() int { return len(g.Keys) }

// Has says if any atom has the key.
func (g Grouping) Has(k cmmn.Ident) bool {
	_, ok := g.Members[k]
	return ok
}
