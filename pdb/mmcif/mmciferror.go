// An error implementation that saves the line number and the
// line we were trying to read.
// The key is to call xxxx.fill() where xxxx is the name of the comment
// scanner/mmcif reader.
package mmcif

import (
	"strconv"

	"github.com/pkg/errors"
)

const maxMsgLen = 70

// ErrSyntax is underneath every complaint about the layout of a file.
var ErrSyntax = errors.New("mmcif syntax")

// ErrRead is underneath errors from the underlying reader.
var ErrRead = errors.New("mmcif read")

// ErrRequiredColumn comes from Table.Required.
var ErrRequiredColumn = errors.New("required column missing")

type readError struct {
	n      int    // line number
	inline string // The line that provoked the error
	desc   string // Description of error
	kind   error  // ErrSyntax or ErrRead
}

// fill stores the problem we have seen for printing
// out when it is convenient. It is in the scanner, but
// can be seen (by inclusion) in the Reader.
// If there was already an error, we neglected it. Add this to the message.
func (m *cmmtScanner) fill(desc string, saveLine bool) {
	m.fillKind(desc, saveLine, ErrSyntax)
}

func (m *cmmtScanner) fillKind(desc string, saveLine bool, kind error) {
	const multErrStr string = "\nNew error, but there was already an error from line "
	if !m.Ok {
		ln := strconv.FormatInt(int64(m.l_err.n), 10) // line num
		desc = m.l_err.desc + multErrStr + ln + ":\n" + desc
	}
	m.Ok = false
	if saveLine {
		m.l_err.n = m.n
	}
	m.l_err.inline = string(m.cbytes()) // Saves current line in scanner m
	m.l_err.desc = desc
	m.l_err.kind = kind
}

func firstPart(s string) string {
	l := len(s)
	if l > maxMsgLen {
		l = maxMsgLen
	}
	return s[:l]
}

// Error takes what is known about the state and causes and returns a
// single string. This should include the number of the last line read
// and any description of the error we have.
func (e readError) Error() string {
	var errmsg string
	if e.n != 0 {
		errmsg = "Line: " + strconv.FormatInt(int64(e.n), 10) + " "
	}
	errmsg += e.desc
	if e.n != 0 && e.inline != "" {
		errmsg += "\nLine starting with\n" + firstPart(e.inline)
	}
	return errmsg
}

// Unwrap lets errors.Is find ErrSyntax or ErrRead.
func (e readError) Unwrap() error {
	if e.kind == nil {
		return ErrSyntax
	}
	return e.kind
}

// Line is the line number where things went wrong.
func (e readError) Line() int { return e.n }
