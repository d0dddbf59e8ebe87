package assembly

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// maxRange is the most IDs one range like 1-60 may expand to.
const maxRange = 100000

// OperExpr is a parsed oper_expression, one slice of operator IDs per
// parenthesised group. "(X0)(1-3)" is [[X0] [1 2 3]].
type OperExpr [][]string

// Operator is one choice of ID from each group of an OperExpr.
type Operator []string

// Name joins the IDs with x, so (X0)(1) gives X0x1.
func (o Operator) Name() string { return strings.Join(o, "x") }

// Count is the number of operators the expression gives.
func (e OperExpr) Count() int {
	if len(e) == 0 {
		return 0
	}
	n := 1
	for _, g := range e {
		n *= len(g)
	}
	return n
}

// Combinations lists every Operator. The first group changes slowest.
func (e OperExpr) Combinations() []Operator {
	n := e.Count()
	if n == 0 {
		return nil
	}
	ret := make([]Operator, 0, n)
	ndx := make([]int, len(e))
	for {
		op := make(Operator, len(e))
		for i, g := range e {
			op[i] = g[ndx[i]]
		}
		ret = append(ret, op)
		i := len(e) - 1
		for ; i >= 0; i-- {
			if ndx[i]++; ndx[i] < len(e[i]) {
				break
			}
			ndx[i] = 0
		}
		if i < 0 {
			return ret
		}
	}
}

func operErr(s string, pos int, msg string) error {
	return errors.Wrapf(ErrOperatorSyntax, "%q at position %d: %s", s, pos, msg)
}

// ParseOperExpr reads an oper_expression. Without parentheses the whole
// thing is one group. Items are separated by commas and A-B is the
// inclusive range of integers from A to B.
func ParseOperExpr(s string) (OperExpr, error) {
	if strings.TrimSpace(s) == "" {
		return nil, operErr(s, 0, "empty")
	}
	if strings.IndexAny(s, "()") < 0 {
		g, err := parseList(s, s, 0)
		if err != nil {
			return nil, err
		}
		return OperExpr{g}, nil
	}

	var e OperExpr
	for i := 0; i < len(s); {
		switch c := s[i]; {
		case iswhite(c):
			i++
			continue
		case c == ')':
			return nil, operErr(s, i, "unbalanced )")
		case c != '(':
			return nil, operErr(s, i, "text outside parentheses")
		}
		end := strings.IndexAny(s[i+1:], "()")
		if end < 0 || s[i+1+end] != ')' {
			if end < 0 {
				return nil, operErr(s, i, "unbalanced (")
			}
			return nil, operErr(s, i+1+end, "nested (")
		}
		end += i + 1
		g, err := parseList(s, s[i+1:end], i+1)
		if err != nil {
			return nil, err
		}
		e = append(e, g)
		i = end + 1
	}
	return e, nil
}

// parseList reads the items of one group. whole and off are only
// for error messages.
func parseList(whole, list string, off int) ([]string, error) {
	if strings.TrimSpace(list) == "" {
		return nil, operErr(whole, off, "empty group")
	}
	var ret []string
	pos := off
	for _, item := range strings.Split(list, ",") {
		it := strings.TrimSpace(item)
		if it == "" {
			return nil, operErr(whole, pos, "empty item")
		}
		if dash := strings.IndexByte(it[1:], '-'); dash >= 0 {
			ids, err := expandRange(whole, it, dash+1, pos)
			if err != nil {
				return nil, err
			}
			ret = append(ret, ids...)
		} else {
			ret = append(ret, it)
		}
		pos += len(item) + 1
	}
	return ret, nil
}

// iswhite is true for the blanks allowed between groups. Text fields
// bring newlines with them.
func iswhite(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

// expandRange turns "1-4" into 1 2 3 4. A leading minus on the first
// bound is allowed, so "-1-1" is -1 0 1. Bounds must fit in 32 bits,
// so b-a cannot overflow.
func expandRange(whole, it string, dash, pos int) ([]string, error) {
	a, errA := strconv.ParseInt(strings.TrimSpace(it[:dash]), 10, 32)
	b, errB := strconv.ParseInt(strings.TrimSpace(it[dash+1:]), 10, 32)
	switch {
	case errA != nil || errB != nil:
		return nil, operErr(whole, pos, "range "+it+" needs 32 bit integer bounds")
	case a > b:
		return nil, operErr(whole, pos, "range "+it+" runs backwards")
	case b-a >= maxRange:
		return nil, operErr(whole, pos, "range "+it+" is too long")
	}
	n := int(b - a)
	ids := make([]string, 0, n+1)
	for k := 0; k <= n; k++ {
		ids = append(ids, strconv.FormatInt(a+int64(k), 10))
	}
	return ids, nil
}
