package mmcif

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ctxEvery is how many rows we read between looks at the context.
const ctxEvery = 512

// Table is one category, either a loop or a set of data items.
// Column positions are found once with Column or Required, then
// values are picked out of each row by position.
type Table struct {
	name   string
	cols   []string
	colNdx map[string]int // lower case column name to position
	row    []string
	mr     *Reader // nil for a table made from data items
	nrow   int
	line   int // line where the current row started
	done   bool
	err    error
}

func (t *Table) addCol(col string) {
	t.colNdx[strings.ToLower(col)] = len(t.cols)
	t.cols = append(t.cols, col)
}

// addItem is for tables made from data items. A repeated item
// overwrites the earlier value.
func (t *Table) addItem(col, value string) {
	if i, ok := t.colNdx[strings.ToLower(col)]; ok {
		t.row[i] = value
		return
	}
	t.addCol(col)
	t.row = append(t.row, value)
}

// Name is the category name in lower case, without the underscore.
func (t *Table) Name() string { return t.name }

// Columns returns the column names as they were written in the file.
func (t *Table) Columns() []string { return t.cols }

// Column returns the position of a column, or -1 if the table does
// not have it.
func (t *Table) Column(name string) int {
	if i, ok := t.colNdx[strings.ToLower(name)]; ok {
		return i
	}
	return -1
}

// Required is like Column, but a missing column is an error wrapping
// ErrRequiredColumn.
func (t *Table) Required(name string) (int, error) {
	i := t.Column(name)
	if i < 0 {
		return -1, errors.Wrapf(ErrRequiredColumn, "_%s.%s", t.name, name)
	}
	return i, nil
}

// Next moves to the next row. It returns false when there are no more
// rows or something broke, in which case Err says what.
func (t *Table) Next() bool {
	if t.done {
		return false
	}
	mr := t.mr
	if mr == nil { // data items, exactly one row
		if t.nrow > 0 || len(t.cols) == 0 {
			t.done = true
			return false
		}
		t.nrow++
		return true
	}
	if t.nrow%ctxEvery == 0 && mr.ctx != nil {
		if err := mr.ctx.Err(); err != nil {
			t.err, t.done = err, true
			return false
		}
	}
	t.line = mr.n
	row, ok := mr.nxtValues(len(t.cols), t.row)
	if !ok {
		t.done = true
		switch {
		case !mr.Ok:
			t.err = mr.l_err
		case len(mr.pend) > 0:
			n := len(mr.pend)
			mr.pend = mr.pend[:0]
			mr.fill("_"+t.name+" loop: "+strconv.Itoa(n)+
				" values left over, not a multiple of "+strconv.Itoa(len(t.cols))+" columns", true)
			t.err = mr.l_err
		}
		return false
	}
	t.row = row
	t.nrow++
	return true
}

// drain jumps over any rows the handler did not read.
func (t *Table) drain() {
	for t.Next() {
	}
}

// Err returns the error which stopped Next, if there was one.
func (t *Table) Err() error { return t.err }

// Value returns the string in column col of the current row.
func (t *Table) Value(col int) string { return t.row[col] }

// IsNull says if the value in a column is a dot or question mark.
func (t *Table) IsNull(col int) bool {
	s := t.row[col]
	return len(s) == 1 && (s[0] == '.' || s[0] == '?')
}

// NRow is the number of rows read so far.
func (t *Table) NRow() int { return t.nrow }

// Line is the line in the file where the current row starts. It is
// for error messages.
func (t *Table) Line() int { return t.line }

// Float returns a column as a number. Failures say where they were.
func (t *Table) Float(col int) (float64, error) {
	x, err := strconv.ParseFloat(t.row[col], 64)
	if err != nil {
		return 0, errors.Wrapf(err, "line %d, _%s.%s", t.line, t.name, t.cols[col])
	}
	return x, nil
}

// Int returns a column as an integer.
func (t *Table) Int(col int) (int, error) {
	x, err := strconv.Atoi(t.row[col])
	if err != nil {
		return 0, errors.Wrapf(err, "line %d, _%s.%s", t.line, t.name, t.cols[col])
	}
	return x, nil
}
