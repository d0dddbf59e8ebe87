package assembly

import (
	"strings"

	"github.com/andrew-torda/cifasm/pdb/cmmn"
	"github.com/pkg/errors"
)

// Binding is one pdbx_struct_assembly_gen row: these chains, moved by
// these operators.
type Binding struct {
	ChainIDs []cmmn.Ident
	Groups   OperExpr
	Row      int // line in the file, for messages
}

// Assembly is every row that shares an assembly_id, in file order.
// Rows whose oper_expression could not be read are kept in Bad.
type Assembly struct {
	ID       string
	Bindings []Binding
	Bad      []error
}

// Assemblies holds assemblies in the order their IDs first appear.
type Assemblies struct {
	lim   cmmn.Limit
	byID  map[string]*Assembly
	order []string
}

// NewAssemblies uses lim for the chain IDs in asym_id_list, so they
// match the chain IDs of the atoms.
func NewAssemblies(lim cmmn.Limit) *Assemblies {
	return &Assemblies{lim: lim, byID: make(map[string]*Assembly)}
}

func (as *Assemblies) get(id string) *Assembly {
	a, ok := as.byID[id]
	if !ok {
		a = &Assembly{ID: id}
		as.byID[id] = a
		as.order = append(as.order, id)
	}
	return a
}

// AddRow parses one row and adds it to its assembly. A bad operator
// expression is remembered in the assembly and also returned, so the
// caller can say something and carry on.
func (as *Assemblies) AddRow(id, operExpr, asymIDList string, row int) error {
	a := as.get(id)
	groups, err := ParseOperExpr(operExpr)
	if err != nil {
		err = errors.Wrapf(err, "assembly %s, line %d", id, row)
		a.Bad = append(a.Bad, err)
		return err
	}
	var chains []cmmn.Ident
	for _, c := range strings.Split(asymIDList, ",") {
		if c = strings.TrimSpace(c); c == "" {
			continue
		}
		ci, _, err := as.lim.Ident(c)
		if err != nil {
			return errors.Wrapf(err, "assembly %s, line %d, asym_id_list", id, row)
		}
		chains = append(chains, ci)
	}
	a.Bindings = append(a.Bindings, Binding{ChainIDs: chains, Groups: groups, Row: row})
	return nil
}

// IDs returns assembly IDs in the order they first appeared.
func (as *Assemblies) IDs() []string { return as.order }

func (as *Assemblies) Len() int { return len(as.order) }

// Get finds an assembly by ID.
func (as *Assemblies) Get(id string) (*Assembly, bool) {
	a, ok := as.byID[id]
	return a, ok
}

// Pair is one chain to be drawn with one operator.
type Pair struct {
	ChainID   cmmn.Ident
	Operator  string
	Transform Transform
}

// Expansion is what an assembly turned into. Skipped counts pairs that
// could not be made, and bad rows. Problems says why, once for each
// distinct cause in a binding.
type Expansion struct {
	AssemblyID string
	Pairs      []Pair
	Skipped    int
	Problems   []error
}

// resolved is an operator with its matrix, or the ID that was missing.
type resolved struct {
	name    string
	t       Transform
	missing string
}

func resolve(op Operator, reg *Registry) resolved {
	r := resolved{name: op.Name()}
	for _, id := range op {
		t, ok := reg.Lookup(id)
		if !ok {
			r.missing = id
			return r
		}
		r.t = r.t.Mul(t)
	}
	r.t.ID = r.name
	return r
}

// Expand turns an assembly into (chain, operator) pairs. Chains are
// taken in list order, and for each chain every operator in the order
// of OperExpr.Combinations. A multi-group operator is the product of
// its matrices, left to right.
// A chain with no atoms, or an operator ID with no transform, loses only
// the pairs it is in. Only an unknown assembly ID is an error.
func (as *Assemblies) Expand(id string, chains Grouping, reg *Registry) (Expansion, error) {
	a, ok := as.byID[id]
	if !ok {
		return Expansion{}, errors.Wrapf(ErrUnknownAssembly, "%q", id)
	}
	x := Expansion{AssemblyID: id}
	x.Skipped = len(a.Bad)
	x.Problems = append(x.Problems, a.Bad...)

	for _, b := range a.Bindings {
		ops := b.Groups.Combinations()
		res := make([]resolved, len(ops))
		said := make(map[string]bool)
		for i, op := range ops {
			res[i] = resolve(op, reg)
			if m := res[i].missing; m != "" && !said["op "+m] {
				said["op "+m] = true
				x.Problems = append(x.Problems, errors.Wrapf(ErrUnresolved,
					"assembly %s, line %d: no operator %s", id, b.Row, m))
			}
		}
		for _, c := range b.ChainIDs {
			if !chains.Has(c) {
				x.Skipped += len(ops)
				if !said["chain "+string(c)] {
					said["chain "+string(c)] = true
					x.Problems = append(x.Problems, errors.Wrapf(ErrUnresolved,
						"assembly %s, line %d: no atoms in chain %s", id, b.Row, c))
				}
				continue
			}
			for _, r := range res {
				if r.missing != "" {
					x.Skipped++
					continue
				}
				x.Pairs = append(x.Pairs, Pair{ChainID: c, Operator: r.name, Transform: r.t})
			}
		}
	}
	return x, nil
}
