// Package mmcif reads an mmcif formatted file. It is a subpackage of pdb.
// The first thing to do is build a Reader, register the categories
// you want, then call Parse.
package mmcif

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/pkg/errors"
)

const (
	squote byte = '\''
	dquote byte = '"'
)

const maxLine = 1024 * 1024 // some files have very long lines in text fields

type bSlice []byte // byte slice

// Handler is given a table for a category it was registered for. It
// should call Next until it returns false, but it may stop early. The
// reader jumps over any rows left.
// Returning an error stops the whole parse.
type Handler func(*Table) error

// Reader is the object which will do the reading of mmcif data.
// We do not return information here. Here is where we store instructions
// to the reader, and the state while we go through the file.
type Reader struct {
	cmmtScanner
	handlers map[string]Handler
	headers  []bSlice
	scrtch   []string // values of one data item line
	pend     []string // values read from the file, not yet used by a table
	items    *Table   // data items for a registered category, not yet handed over
	blocks   []string // names of data blocks seen
	ctx      context.Context
	hErr     error // error from a handler
}

// NewReader returns an object to read mmcif files.
// It is given a reader, so the caller must have decided if it is
// a file, compressed file, whatever.
func NewReader(r io.Reader) *Reader {
	if r == nil {
		return nil
	}
	return &Reader{
		cmmtScanner: newCmmtScanner(r, '#'),
		handlers:    make(map[string]Handler),
		scrtch:      make([]string, 0, 4),
	}
}

// Register says that fn should be called for category, which is given
// without the leading underscore, like "atom_site". A second call for
// the same category replaces the first.
func (mr *Reader) Register(category string, fn Handler) {
	mr.handlers[strings.ToLower(strings.TrimPrefix(category, "_"))] = fn
}

// Blocks returns the names of the data blocks, in the order they were seen.
func (mr *Reader) Blocks() []string { return mr.blocks }

// CmmtScanner is a wrapper around bufio.Scanner that will ignore comment
// lines and remove leading and trailing white space.
// It also counts newlines in scanner.n, so we can print out the line
// number in error messages.
type cmmtScanner struct {
	*bufio.Scanner           // standard library scanner
	l_err          readError // fill this out as soon as an error happens
	ctoken         []byte    // Store the bytes that will be returned by cbytes()
	n              int       // line number in the mmcif file
	cmmt           byte      // Comment character
	Ok             bool      // Are we OK or have we had an error ?
}

// NewCmmtScanner is a wrapper around scanner, but
//   - jumps over blank lines
//   - removes leading and trailing space
//   - jumps over lines whose first character is the comment character
//
// A Reader contains a newCmmtScanner.
func newCmmtScanner(r io.Reader, cmmt byte) cmmtScanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxLine)
	return cmmtScanner{
		Scanner: s,
		cmmt:    cmmt,
		Ok:      true,
	}
}

// cscan is a wrapper around the library Scan(). It adds a newline counter
// for error messages. It jumps over blank lines and lines starting
// with a comment character. Comment characters are only recognised as the
// first character, since they are legitimate elsewhere in the text.
// On EOF, it returns true, but cbytes() will then return nil. False
// means an error.
func (s *cmmtScanner) cscan() bool {
	if !s.Ok { // We have already had an error
		s.ctoken = nil
		return false
	}
	for {
		if !s.Scan() {
			s.ctoken = nil
			if err := s.Err(); err != nil {
				s.fillKind(err.Error(), true, ErrRead)
				return false
			}
			return true // No error, just EOF
		}
		s.n++
		b := bytes.TrimSpace(s.Bytes())
		if len(b) == 0 || b[0] == s.cmmt {
			continue
		}
		s.ctoken = b
		return true
	}
}

// rawLine reads the next line untouched, apart from a trailing carriage
// return. It is for the inside of text fields. more is false at the end
// of input or after an error.
func (s *cmmtScanner) rawLine() (b []byte, more bool) {
	if !s.Ok {
		return nil, false
	}
	if !s.Scan() {
		if err := s.Err(); err != nil {
			s.fillKind(err.Error(), true, ErrRead)
		}
		s.ctoken = nil
		return nil, false
	}
	s.n++
	s.ctoken = bytes.TrimSuffix(s.Bytes(), []byte("\r"))
	return s.ctoken, true
}

// atText says if the current line opens a text field. The semicolon
// must be in the first column, not just the first after white space.
func (s *cmmtScanner) atText() bool {
	raw := s.Bytes()
	return s.ctoken != nil && len(raw) > 0 && raw[0] == ';'
}

// cbytes is like Bytes from the library, but returns the processed characters.
func (s *cmmtScanner) cbytes() []byte {
	return s.ctoken
}

// hasPrefixFold is bytes.HasPrefix, but case insensitive
func hasPrefixFold(b []byte, prefix string) bool {
	if len(b) < len(prefix) {
		return false
	}
	return bytes.EqualFold(b[:len(prefix)], []byte(prefix))
}

// splitTag takes a name like _atom_site.Cartn_x and returns atom_site
// and Cartn_x. The category comes back in lower case.
func splitTag(b []byte) (cat, col string, ok bool) {
	b = bytes.TrimPrefix(b, []byte("_"))
	i := bytes.IndexByte(b, '.')
	if i < 1 || i == len(b)-1 {
		return "", "", false
	}
	return strings.ToLower(string(b[:i])), string(b[i+1:]), true
}

// stateFn is the type of state function. It returns the next
// state function that should act on its input.
type stateFn func(*Reader) stateFn

// stateData reads lines that start with data_
func stateData(mr *Reader) stateFn {
	mr.flushItems()
	mr.blocks = append(mr.blocks, string(mr.cbytes()[len("data_"):]))
	if !mr.cscan() {
		return nil
	}
	return stateTop
}

// stateSave jumps over save frame headers and terminators. What is
// inside is read like anything else.
func stateSave(mr *Reader) stateFn {
	mr.flushItems()
	if !mr.cscan() {
		return nil
	}
	return stateTop
}

// stateUnknown should be reached if we are confused and do not know
// what to do. It is an error and we should stop
func stateUnknown(mr *Reader) stateFn {
	mr.fill("In Unknown state", true)
	return nil
}

// stateLoop is where you are if you have a loop directive.
// You just have to jump over the line and go to reading the
// headers.
func stateLoop(mr *Reader) stateFn {
	mr.flushItems()
	if !mr.cscan() {
		return nil
	}
	return stateLoopHdr
}

// stateLoopHdr gets the headers from a loop directive
// It also gets to make a decision about what to do next.
// If the headers are for a registered category, it calls stateLoopTable.
// Otherwise we go to stateSkipLoopTable.
func stateLoopHdr(mr *Reader) stateFn {
	mr.headers = mr.headers[:0]
	for b := mr.cbytes(); b != nil && b[0] == '_'; b = mr.cbytes() {
		s := make([]byte, len(b))
		copy(s, b)
		mr.headers = append(mr.headers, s)
		if !mr.cscan() {
			return nil
		}
	}
	if len(mr.headers) < 1 {
		mr.fill("no contents found while reading loop headers", true)
		return nil
	}
	cat, _, ok := splitTag(mr.headers[0])
	if !ok {
		mr.fill("Could not split string at dot: "+string(mr.headers[0]), true)
		return nil
	}
	if _, ok := mr.handlers[cat]; ok {
		return stateLoopTable
	}
	return stateSkipLoopTable
}

// stateLoopTable builds a table from the headers and gives it to the
// handler. Rows are read when the handler asks for them.
func stateLoopTable(mr *Reader) stateFn {
	t := &Table{mr: mr, colNdx: make(map[string]int, len(mr.headers))}
	for i, h := range mr.headers {
		cat, col, ok := splitTag(h)
		if !ok {
			mr.fill("Could not split string at dot: "+string(h), true)
			return nil
		}
		if i == 0 {
			t.name = cat
		} else if cat != t.name {
			mr.fill("loop mixes categories "+t.name+" and "+cat, true)
			return nil
		}
		t.addCol(col)
	}
	mr.headers = mr.headers[:0] // do not need this copy of the headers any more
	if !mr.dispatch(t) {
		return nil
	}
	return stateTop
}

// isSpecial returns true if the input in inline is not simply
// more of a table. Usually this means there is a new directive
// coming.
// If we have end of input, we also return true, so a caller knows
// it has to do something special.
func isSpecial(inline []byte) bool {
	switch {
	case inline == nil:
		return true
	case inline[0] == '_':
		return true
	case hasPrefixFold(inline, "loop_"):
		return true
	case hasPrefixFold(inline, "data_"):
		return true
	case hasPrefixFold(inline, "save_"):
		return true
	default:
		return false
	}
}

// stateSkipLoopTable reads lines from a table, but does not
// save them anywhere. Most of the tables we encounter are not
// to be saved. Text fields have to be read properly, since
// their lines can look like anything.
func stateSkipLoopTable(mr *Reader) stateFn {
	mr.headers = mr.headers[:0]
	for b := mr.cbytes(); !isSpecial(b); b = mr.cbytes() {
		if mr.atText() {
			if _, ok := mr.textField(); !ok {
				return nil
			}
			continue
		}
		if !mr.cscan() {
			return nil
		}
	}
	return stateTop
}

// textField reads a value which starts with a semicolon at the start of a
// line and runs to the next line which starts with a semicolon.
// Lines inside are taken as they are, blank, indented or starting with
// '#', and joined with newlines. On return, the scanner is on the line
// after the closing semicolon.
func (mr *Reader) textField() (string, bool) {
	var sb strings.Builder
	start := mr.n
	sb.Write(mr.cbytes()[1:])
	for {
		b, more := mr.rawLine()
		if !more {
			if mr.Ok {
				mr.l_err.n = start
				mr.fill("text field starting on this line is not terminated", false)
			}
			return "", false
		}
		if len(b) > 0 && b[0] == ';' {
			break
		}
		sb.WriteByte('\n')
		sb.Write(b)
	}
	if !mr.cscan() { // jump over closing semicolon
		return "", false
	}
	return sb.String(), true
}

// nxtValues asks the scanner for lines until it has n values
// and returns them. It returns false at the end of a table or on error.
// A line may hold more than one row, or a row may be spread over lines,
// so values we do not need yet wait in mr.pend.
func (mr *Reader) nxtValues(n int, dst []string) ([]string, bool) {
	for len(mr.pend) < n {
		b := mr.cbytes()
		if isSpecial(b) {
			return nil, false
		}
		if mr.atText() {
			s, ok := mr.textField()
			if !ok {
				return nil, false
			}
			mr.pend = append(mr.pend, s)
			continue
		}
		var ok bool
		if mr.pend, ok = mr.values(mr.pend, b); !ok {
			return nil, false
		}
		if !mr.cscan() {
			return nil, false
		}
	}
	dst = append(dst[:0], mr.pend[:n]...)
	mr.pend = append(mr.pend[:0], mr.pend[n:]...)
	return dst, true
}

// stateDItem gets a data item. This is often on one line, but
// if there is only a name, the value is on subsequent lines
func stateDItem(mr *Reader) stateFn {
	var value string
	t, ok := mr.values(mr.scrtch[:0], mr.cbytes())
	mr.scrtch = t
	if !ok {
		return nil
	}
	line := mr.n
	itemName := t[0]
	cat, col, isTag := splitTag([]byte(itemName))
	switch len(t) {
	case 2: // Simplest. We just have a value on the line
		value = t[1]
		if !mr.cscan() {
			return nil
		}
	case 1:
		const msg string = "data item with no value"
		if !mr.cscan() {
			return nil
		}
		b := mr.cbytes()
		if isSpecial(b) {
			mr.fill(msg+": "+itemName, true)
			return nil
		}
		if mr.atText() {
			if value, ok = mr.textField(); !ok {
				return nil
			}
		} else {
			u, err := appendValues(mr.scrtch[:0], b)
			if err != nil || len(u) != 1 {
				mr.fill("want one value for "+itemName, true)
				return nil
			}
			value = u[0]
			if !mr.cscan() {
				return nil
			}
		}
	default:
		mr.fill("too many values for data item "+itemName, true)
		return nil
	}

	if !isTag { // not _category.column. Nobody can ask for it
		return stateTop
	}
	if mr.items != nil && mr.items.name != cat {
		if !mr.flushItems() {
			return nil
		}
	}
	if _, wanted := mr.handlers[cat]; wanted {
		if mr.items == nil {
			mr.items = &Table{name: cat, colNdx: make(map[string]int), line: line}
		}
		mr.items.addItem(col, value)
	}
	return stateTop
}

// stateTop is the general state that looks at the current line and
// decides what state to jump to next.
func stateTop(mr *Reader) stateFn {
	b := mr.cbytes() // Does not advance scanner
	if !mr.Ok {
		return nil
	}
	switch {
	case b == nil:
		return nil
	case hasPrefixFold(b, "loop_"):
		return stateLoop
	case hasPrefixFold(b, "data_"):
		return stateData
	case hasPrefixFold(b, "save_"):
		return stateSave
	case b[0] == '_':
		return stateDItem
	default:
		return stateUnknown
	}
}

// dispatch hands a table to its handler, then throws away whatever
// rows the handler did not want. It returns false if we should stop.
func (mr *Reader) dispatch(t *Table) bool {
	fn := mr.handlers[t.name]
	if err := fn(t); err != nil {
		mr.hErr = errors.Wrapf(err, "category %s", t.name)
		return false
	}
	t.drain()
	if t.err != nil {
		mr.hErr = errors.Wrapf(t.err, "category %s", t.name)
		return false
	}
	return mr.Ok
}

// flushItems hands over data items collected for one category.
func (mr *Reader) flushItems() bool {
	if mr.items == nil {
		return true
	}
	t := mr.items
	mr.items = nil
	return mr.dispatch(t)
}

// Parse reads the whole input, calling the registered handlers as
// their categories turn up. An empty input is not an error.
// The context is looked at between states and every so often
// between rows of a table.
func (mr *Reader) Parse(ctx context.Context) error {
	if mr == nil {
		return errors.New("Start of file, nil mmcif Reader")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	mr.ctx = ctx
	if !mr.cscan() {
		return mr.l_err
	}
	for state := stateTop; state != nil && mr.Ok && mr.hErr == nil; {
		if err := ctx.Err(); err != nil {
			return err
		}
		state = state(mr)
	}
	if mr.Ok && mr.hErr == nil {
		mr.flushItems()
	}
	if mr.hErr != nil {
		return mr.hErr
	}
	if !mr.Ok {
		return mr.l_err
	}
	return ctx.Err()
}
