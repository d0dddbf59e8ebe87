package assembly

import (
	"strconv"

	"github.com/andrew-torda/cifasm/pdb/mmcif"
	"github.com/pkg/errors"
)

// olCols are the column positions of pdbx_struct_oper_list.
type olCols struct {
	id  int
	rot [3][3]int
	vec [3]int
}

func findOlCols(t *mmcif.Table) (olCols, error) {
	var c olCols
	var err error
	if c.id, err = t.Required("id"); err != nil {
		return c, err
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			name := "matrix[" + strconv.Itoa(i+1) + "][" + strconv.Itoa(j+1) + "]"
			if c.rot[i][j], err = t.Required(name); err != nil {
				return c, err
			}
		}
		if c.vec[i], err = t.Required("vector[" + strconv.Itoa(i+1) + "]"); err != nil {
			return c, err
		}
	}
	return c, nil
}

// readOperList is the handler for pdbx_struct_oper_list. It works the same
// for a loop and for a single operator written as data items.
func (s *Session) readOperList(t *mmcif.Table) error {
	c, err := findOlCols(t)
	if err != nil {
		return err
	}
	num := func(col int) (float64, error) {
		x, err := t.Float(col)
		if err != nil {
			return 0, errors.Wrapf(ErrBadValue, "%v", err)
		}
		return x, nil
	}
	var got []Transform
	for t.Next() {
		var rot [3][3]float64
		var vec [3]float64
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				if rot[i][j], err = num(c.rot[i][j]); err != nil {
					return err
				}
			}
			if vec[i], err = num(c.vec[i]); err != nil {
				return err
			}
		}
		got = append(got, NewTransform(t.Value(c.id), rot, vec))
	}
	if err := t.Err(); err != nil {
		return err
	}
	s.stats.OperRows += t.NRow()
	for _, tr := range got {
		s.reg.Add(tr)
	}
	return nil
}
