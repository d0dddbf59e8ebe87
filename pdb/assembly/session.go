package assembly

import (
	"context"
	"io"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/andrew-torda/cifasm/pdb/cmmn"
	"github.com/andrew-torda/cifasm/pdb/mmcif"
)

// Options control how a file is read.
type Options struct {
	Limit  cmmn.Limit   // bounds on identifiers, zero value means cmmn.DfltLimit
	Logger *slog.Logger // nil means say nothing
}

// Session collects what one file says about atoms, operators and
// assemblies. It is not safe for use by more than one goroutine.
type Session struct {
	name  string
	opts  Options
	log   *slog.Logger
	atoms []Atom
	reg   *Registry
	asm   *Assemblies
	stats Stats

	chains, entities *Grouping // built on demand from atoms
}

// NewSession starts a session. name is used for model names, usually
// the file name.
func NewSession(name string, opts Options) *Session {
	if opts.Limit == (cmmn.Limit{}) {
		opts.Limit = cmmn.DfltLimit
	}
	lg := opts.Logger
	if lg == nil {
		lg = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Session{
		name: name,
		opts: opts,
		log:  lg,
		reg:  NewRegistry(),
		asm:  NewAssemblies(opts.Limit),
	}
}

// Register attaches the session's handlers to a reader.
func (s *Session) Register(mr *mmcif.Reader) {
	mr.Register("atom_site", s.readAtomSite)
	mr.Register("pdbx_struct_oper_list", s.readOperList)
	mr.Register("pdbx_struct_assembly_gen", s.readAssemblyGen)
}

// Parse reads everything from r. Problems with the file itself, as
// opposed to what is in it, are reported as ErrFile.
func (s *Session) Parse(ctx context.Context, r io.Reader) error {
	mr := mmcif.NewReader(r)
	s.Register(mr)
	err := mr.Parse(ctx)
	s.chains, s.entities = nil, nil
	switch {
	case err == nil:
		s.log.Debug("read file", "name", s.name, "atoms", len(s.atoms),
			"operators", s.reg.Len(), "assemblies", s.asm.Len())
		return nil
	case errors.Is(err, mmcif.ErrSyntax), errors.Is(err, mmcif.ErrRead):
		return fileError{errors.Wrap(err, s.name)}
	}
	return errors.Wrap(err, s.name)
}

// Atoms returns the atoms read so far. The slice belongs to the session.
func (s *Session) Atoms() []Atom { return s.atoms }

// Chains groups the atoms by label_asym_id.
func (s *Session) Chains() Grouping {
	if s.chains == nil {
		g := BuildGrouping(s.atoms, ByChainID)
		s.chains = &g
	}
	return *s.chains
}

// Entities groups the atoms by label_entity_id.
func (s *Session) Entities() Grouping {
	if s.entities == nil {
		g := BuildGrouping(s.atoms, ByEntityID)
		s.entities = &g
	}
	return *s.entities
}

func (s *Session) Registry() *Registry     { return s.reg }
func (s *Session) Assemblies() *Assemblies { return s.asm }
func (s *Session) Stats() Stats            { return s.stats }
