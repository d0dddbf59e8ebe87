// Package pdb/cmmn has common definitions for coordinates and
// the short identifiers that come out of mmcif files.
package cmmn

import (
	"math"
	"unicode/utf8"

	"github.com/pkg/errors"
)

type Xyz struct{ X, Y, Z float32 }

var BrokenXyz = Xyz{math.MaxFloat32, 0, -math.MaxFloat32}

// BrokenResNum is the residue number we store when the file has a
// dot or question mark, as it does for most HETATM records.
var BrokenResNum int = -9999

func (xyz *Xyz) Ok() bool {
	if *xyz != BrokenXyz {
		return true
	}
	return false
}

// Ident is a short identifier like a chain, entity, atom or residue
// name. It is an ordinary string, but it is only ever made by a Limit,
// so its length is bounded.
type Ident string

func (i Ident) String() string { return string(i) }

// Overflow says what happens to an identifier longer than the limit.
type Overflow byte

const (
	Truncate Overflow = iota // keep the first Max bytes
	Fail                     // refuse the identifier
)

// String gives the name used in config files.
func (o Overflow) String() string {
	if o == Fail {
		return "fail"
	}
	return "truncate"
}

// ParseOverflow is the inverse of String.
func ParseOverflow(s string) (Overflow, error) {
	switch s {
	case "", "truncate":
		return Truncate, nil
	case "fail":
		return Fail, nil
	}
	return Truncate, errors.Errorf("unknown overflow policy %q, want truncate or fail", s)
}

// DfltIdentMax is enough for every chain and entity ID in the PDB
// archive we have looked at. Four, as in old PDB files, is not.
const DfltIdentMax = 8

// ErrIdentTooLong is returned under the Fail policy.
var ErrIdentTooLong = errors.New("identifier too long")

// Limit bounds the identifiers read from a file.
type Limit struct {
	Max      int
	Overflow Overflow
}

// DfltLimit truncates at DfltIdentMax bytes.
var DfltLimit = Limit{Max: DfltIdentMax, Overflow: Truncate}

// Ident converts s. The bool is true if s had to be truncated.
// Truncation never splits a multi-byte character, so the result can
// be a byte or three shorter than Max.
// A Max of zero or less means no limit.
func (l Limit) Ident(s string) (Ident, bool, error) {
	if l.Max <= 0 || len(s) <= l.Max {
		return Ident(s), false, nil
	}
	if l.Overflow == Fail {
		return "", false, errors.Wrapf(ErrIdentTooLong, "%q has %d bytes, limit %d", s, len(s), l.Max)
	}
	n := l.Max
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return Ident(s[:n]), true, nil
}
