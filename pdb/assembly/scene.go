package assembly

import (
	"github.com/andrew-torda/matrix"
	"github.com/pkg/errors"

	"github.com/andrew-torda/cifasm/pdb/cmmn"
)

// ModelKind says how a model's atoms were chosen.
type ModelKind byte

const (
	ChainModel  ModelKind = iota // atoms of one label_asym_id
	EntityModel                  // atoms of one label_entity_id
	PointCloud                   // every atom, the file had no chains or entities
)

func (k ModelKind) String() string {
	switch k {
	case ChainModel:
		return "chain"
	case EntityModel:
		return "entity"
	}
	return "points"
}

// Model is a set of atoms drawn as one thing. Coords holds their
// positions, one row of x, y, z per atom, in the order of Atoms.
type Model struct {
	Kind   ModelKind
	Name   string
	ID     cmmn.Ident
	Atoms  []int
	Coords *matrix.FMatrix2d
}

// Instance is a model placed somewhere by a transform.
type Instance struct {
	Model     int // index in Scene.Models
	Operator  string
	Transform Transform
}

// Stats are counts from reading a file.
type Stats struct {
	Atoms        int // atoms in the scene
	Truncated    int // identifiers that were cut short
	AtomRows     int
	OperRows     int
	AssemblyRows int
}

// Scene is everything a viewer needs to draw a file.
type Scene struct {
	Name       string
	Atoms      []Atom
	Models     []Model
	Instances  []Instance
	AssemblyID string // empty if no assembly was used
	Skipped    int
	Problems   []error
	Stats      Stats
}

// GroupBy is the grouping used when there is no assembly.
type GroupBy byte

const (
	ByChain GroupBy = iota
	ByEntity
)

// ParseGroupBy accepts "chain" or "entity".
func ParseGroupBy(s string) (GroupBy, error) {
	switch s {
	case "", "chain":
		return ByChain, nil
	case "entity":
		return ByEntity, nil
	}
	return ByChain, errors.Errorf("unknown grouping %q, want chain or entity", s)
}

func (g GroupBy) String() string {
	if g == ByEntity {
		return "entity"
	}
	return "chain"
}

// SceneOptions choose what Scene builds.
type SceneOptions struct {
	AssemblyID string // empty means the first assembly in the file
	Group      GroupBy
	NoAssembly bool // ignore assemblies even if the file has them
}

// newModel packs the coordinates of a set of atoms.
func newModel(kind ModelKind, name string, id cmmn.Ident, ndx []int, atoms []Atom) Model {
	m := Model{Kind: kind, Name: name, ID: id, Atoms: ndx}
	m.Coords = matrix.NewFMatrix2d(len(ndx), 3)
	for i, a := range ndx {
		xyz := atoms[a].Xyz
		row := m.Coords.Mat[i]
		row[0], row[1], row[2] = xyz.X, xyz.Y, xyz.Z
	}
	return m
}

// modelName is file :: id, or just the file name for a point cloud.
func modelName(file string, id cmmn.Ident) string {
	if id == "" {
		return file
	}
	return file + " :: " + string(id)
}

// Scene builds the models and instances. With an assembly there is one
// model per chain and one instance per (chain, operator) pair. Without,
// each chain or entity is one model drawn once where it is. If no atom
// has a chain or entity, all atoms are one point cloud. No atoms at all
// is an empty scene.
func (s *Session) Scene(opts SceneOptions) (*Scene, error) {
	sc := &Scene{Name: s.name, Atoms: s.atoms, Stats: s.stats}
	sc.Stats.Atoms = len(s.atoms)
	if len(s.atoms) == 0 {
		return sc, nil
	}
	chains := s.Chains()
	entities := s.Entities()

	if s.asm.Len() > 0 && !opts.NoAssembly {
		id := opts.AssemblyID
		if id == "" {
			id = s.asm.IDs()[0]
		}
		x, err := s.asm.Expand(id, chains, s.reg)
		if err != nil {
			return nil, err
		}
		sc.AssemblyID = id
		sc.Skipped = x.Skipped
		sc.Problems = x.Problems
		for _, p := range x.Problems {
			s.log.Warn("skipped part of assembly", "assembly", id, "err", p)
		}
		mNdx := make(map[cmmn.Ident]int, chains.Len())
		for _, c := range chains.Keys {
			mNdx[c] = len(sc.Models)
			sc.Models = append(sc.Models,
				newModel(ChainModel, modelName(s.name, c), c, chains.Members[c], s.atoms))
		}
		for _, p := range x.Pairs {
			sc.Instances = append(sc.Instances,
				Instance{Model: mNdx[p.ChainID], Operator: p.Operator, Transform: p.Transform})
		}
		return sc, nil
	}
	if opts.AssemblyID != "" && !opts.NoAssembly {
		return nil, errors.Wrapf(ErrUnknownAssembly, "%q, file has no assemblies", opts.AssemblyID)
	}

	noIDs := chains.Len() == 1 && chains.Keys[0] == "" &&
		entities.Len() == 1 && entities.Keys[0] == ""
	var g Grouping
	kind := ChainModel
	switch {
	case noIDs:
		g, kind = chains, PointCloud
	case opts.Group == ByEntity:
		g, kind = entities, EntityModel
	default:
		g = chains
	}
	for _, k := range g.Keys {
		sc.Instances = append(sc.Instances, Instance{Model: len(sc.Models), Transform: Identity("")})
		sc.Models = append(sc.Models, newModel(kind, modelName(s.name, k), k, g.Members[k], s.atoms))
	}
	return sc, nil
}
