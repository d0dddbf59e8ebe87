package mmcif

import (
	"github.com/pkg/errors"
)

// Values on a line are separated by white space. A value may sit in
// single or double quotes. A quote only closes the value when white
// space or the end of the line comes after it, so 'it's' is one value.

var errUntermQuote = errors.New("unterminated quote")

var asciiSpace = [256]bool{
	'\t': true, '\n': true, '\v': true, '\f': true, '\r': true, ' ': true,
}

func iswhite(b byte) bool {
	return asciiSpace[b]
}

// closeQuote gives the position of the quote q which ends a value
// starting before i, or -1.
func closeQuote(b []byte, i int, q byte) int {
	for ; i < len(b); i++ {
		if b[i] == q && (i+1 == len(b) || iswhite(b[i+1])) {
			return i
		}
	}
	return -1
}

// appendValues splits one line into values, appends them to dst as
// strings and returns the longer slice. On an unterminated quote, dst
// comes back holding the values before the quote.
func appendValues(dst []string, b []byte) ([]string, error) {
	for i := 0; ; {
		for i < len(b) && iswhite(b[i]) {
			i++
		}
		if i == len(b) {
			return dst, nil
		}
		if q := b[i]; q == squote || q == dquote {
			j := closeQuote(b, i+1, q)
			if j < 0 {
				return dst, errUntermQuote
			}
			dst = append(dst, string(b[i+1:j]))
			i = j + 1
			continue
		}
		j := i
		for j < len(b) && !iswhite(b[j]) {
			j++
		}
		dst = append(dst, string(b[i:j]))
		i = j
	}
}

// values splits the current line. A bad line is recorded as a syntax
// error with its line number.
func (mr *Reader) values(dst []string, b []byte) ([]string, bool) {
	dst, err := appendValues(dst, b)
	if err != nil {
		mr.fill(err.Error(), true)
		return dst, false
	}
	return dst, true
}
