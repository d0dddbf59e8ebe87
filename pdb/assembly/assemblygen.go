package assembly

import (
	"github.com/andrew-torda/cifasm/pdb/mmcif"
	"github.com/pkg/errors"
)

// readAssemblyGen is the handler for pdbx_struct_assembly_gen. A row
// with a broken oper_expression is logged and skipped. Anything else
// wrong stops the parse.
func (s *Session) readAssemblyGen(t *mmcif.Table) error {
	var cID, cExpr, cAsym int
	var err error
	if cID, err = t.Required("assembly_id"); err != nil {
		return err
	}
	if cExpr, err = t.Required("oper_expression"); err != nil {
		return err
	}
	if cAsym, err = t.Required("asym_id_list"); err != nil {
		return err
	}
	for t.Next() {
		s.stats.AssemblyRows++
		err := s.asm.AddRow(t.Value(cID), t.Value(cExpr), t.Value(cAsym), t.Line())
		switch {
		case err == nil:
		case errors.Is(err, ErrOperatorSyntax):
			s.log.Warn("skipping assembly row", "assembly", t.Value(cID),
				"line", t.Line(), "err", err)
		default:
			return err
		}
	}
	return t.Err()
}
