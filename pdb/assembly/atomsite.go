package assembly

import (
	"strconv"

	"github.com/andrew-torda/cifasm/pdb/cmmn"
	"github.com/andrew-torda/cifasm/pdb/mmcif"
	"github.com/pkg/errors"
)

// Atom is one row of atom_site. Identifiers are bounded by the session's
// Limit.
type Atom struct {
	Element cmmn.Ident // type_symbol
	Name    cmmn.Ident // label_atom_id
	ResName cmmn.Ident // label_comp_id
	Chain   cmmn.Ident // label_asym_id, empty if the file has none
	Entity  cmmn.Ident // label_entity_id, empty if the file has none
	ResNum  int        // label_seq_id, cmmn.BrokenResNum for . or ?
	Xyz     cmmn.Xyz
}

// asCols holds the positions of the atom_site columns we use.
// -1 means an optional column is not there.
type asCols struct {
	typeSymbol,
	labelAtomId,
	labelCompId,
	labelSeqId,
	cartnX,
	cartnY,
	cartnZ,
	labelAsymId,
	labelEntityId int
}

// findAsCols looks up every column once per table. The first missing
// required column is returned as an error.
func findAsCols(t *mmcif.Table) (asCols, error) {
	var c asCols
	var err error
	req := func(name string) int {
		if err != nil {
			return -1
		}
		var i int
		i, err = t.Required(name)
		return i
	}
	c.typeSymbol = req("type_symbol")
	c.labelAtomId = req("label_atom_id")
	c.labelCompId = req("label_comp_id")
	c.labelSeqId = req("label_seq_id")
	c.cartnX = req("Cartn_x")
	c.cartnY = req("Cartn_y")
	c.cartnZ = req("Cartn_z")
	c.labelAsymId = t.Column("label_asym_id")
	c.labelEntityId = t.Column("label_entity_id")
	return c, err
}

// getxyz gets the x, y and z coordinates from a row.
// The first error is kept, later calls do nothing.
func getxyz(t *mmcif.Table, c *asCols) (cmmn.Xyz, error) {
	var err error
	ff := func(col int) float32 {
		if err != nil {
			return 0
		}
		var xx float64
		if xx, err = strconv.ParseFloat(t.Value(col), 32); err != nil {
			err = errors.Wrapf(ErrBadValue, "line %d, %s: %q is not a coordinate",
				t.Line(), t.Columns()[col], t.Value(col))
		}
		return float32(xx)
	}
	var xyz cmmn.Xyz
	xyz.X = ff(c.cartnX)
	xyz.Y = ff(c.cartnY)
	xyz.Z = ff(c.cartnZ)
	return xyz, err
}

// getResnum returns label_seq_id. HETATM records have a dot here, so that
// is not an error.
func getResnum(t *mmcif.Table, c *asCols) (int, error) {
	if t.IsNull(c.labelSeqId) {
		return cmmn.BrokenResNum, nil
	}
	n, err := strconv.Atoi(t.Value(c.labelSeqId))
	if err != nil {
		return 0, errors.Wrapf(ErrBadValue, "line %d, label_seq_id: %q is not an integer",
			t.Line(), t.Value(c.labelSeqId))
	}
	return n, nil
}

// ident applies the session's limit to one column. An absent optional
// column or a null value gives an empty identifier.
func (s *Session) ident(t *mmcif.Table, col int, warned *bool) (cmmn.Ident, error) {
	if col < 0 || t.IsNull(col) {
		return "", nil
	}
	id, trunc, err := s.opts.Limit.Ident(t.Value(col))
	if err != nil {
		return "", errors.Wrapf(err, "line %d, %s", t.Line(), t.Columns()[col])
	}
	if trunc {
		s.stats.Truncated++
		if !*warned {
			*warned = true
			s.log.Warn("truncating identifiers", "category", t.Name(),
				"column", t.Columns()[col], "value", t.Value(col), "kept", id.String())
		}
	}
	return id, nil
}

// readAtomSite is the handler for atom_site. If anything goes wrong, atoms
// from this table are thrown away, so a failed category leaves nothing
// half read.
func (s *Session) readAtomSite(t *mmcif.Table) (err error) {
	c, err := findAsCols(t)
	if err != nil {
		return err
	}
	start := len(s.atoms)
	defer func() {
		if err != nil {
			s.atoms = s.atoms[:start]
		}
	}()

	var warned bool
	for t.Next() {
		var a Atom
		cols := [...]struct {
			dst *cmmn.Ident
			col int
		}{
			{&a.Element, c.typeSymbol},
			{&a.Name, c.labelAtomId},
			{&a.ResName, c.labelCompId},
			{&a.Chain, c.labelAsymId},
			{&a.Entity, c.labelEntityId},
		}
		for _, x := range cols {
			if *x.dst, err = s.ident(t, x.col, &warned); err != nil {
				return err
			}
		}
		if a.ResNum, err = getResnum(t, &c); err != nil {
			return err
		}
		if a.Xyz, err = getxyz(t, &c); err != nil {
			return err
		}
		s.atoms = append(s.atoms, a)
		s.stats.AtomRows++
	}
	return t.Err()
}

// ReadXyz is an atom_site handler that only wants coordinates. It
// appends one point per row to *dst.
func ReadXyz(dst *[]cmmn.Xyz) mmcif.Handler {
	return func(t *mmcif.Table) error {
		var c asCols
		var err error
		if c.cartnX, err = t.Required("Cartn_x"); err != nil {
			return err
		}
		if c.cartnY, err = t.Required("Cartn_y"); err != nil {
			return err
		}
		if c.cartnZ, err = t.Required("Cartn_z"); err != nil {
			return err
		}
		start := len(*dst)
		for t.Next() {
			xyz, err := getxyz(t, &c)
			if err != nil {
				*dst = (*dst)[:start]
				return err
			}
			*dst = append(*dst, xyz)
		}
		if err := t.Err(); err != nil {
			*dst = (*dst)[:start]
			return err
		}
		return nil
	}
}
