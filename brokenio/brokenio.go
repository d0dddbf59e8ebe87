// Package brokenio wraps an io.ReadCloser so that reads go wrong.
// It is for tests of code that has to cope with truncated downloads,
// damaged compressed files and zero length files.
// Typical use: you have a file pointer or a reader from a compressed
// source. You write
//
//	rdr = brokenio.NewReader(rdr)
//
// and set what should break. Everything then works as before, but
// with artificial errors.
// When we wipe out data or fail outright, Read returns an error wrapping
// ErrInjected. A zero length file is just io.EOF on the first read.
package brokenio

import (
	"fmt"
	"io"
	"math/rand"

	"github.com/pkg/errors"
)

// ErrInjected is underneath every error this package makes up.
var ErrInjected = errors.New("brokenio: injected failure")

// Reader is modelled on the Readers in the standard library, but with
// settings for how often and how it breaks. Probabilities are the
// fraction of reads that go wrong, so 0.05 means 5 % of them.
type Reader struct {
	orig         io.ReadCloser // Wrapped reader
	probZeroFile float32       // Probability of returning a zero length file
	probFail     float32
	fracFail     float32
	failAfter    int // fail for certain once this many bytes went through, -1 for never
	nCalled      int
	nByte        int
	verbose      bool
	rnd          *rand.Rand
}

// NewReader returns a wrapper around rIn which, until told otherwise,
// does not break anything.
func NewReader(rIn io.ReadCloser) *Reader {
	return &Reader{
		orig:      rIn,
		fracFail:  0.5,
		failAfter: -1,
		rnd:       rand.New(rand.NewSource(1)),
	}
}

// SetVerbose says whether Close should print how much was read.
func (r *Reader) SetVerbose(newV bool) { r.verbose = newV }

// SetFracFail sets how much of a buffer is wiped out on a failed read.
func (r *Reader) SetFracFail(frac float32) { r.fracFail = frac }

// SetProbZeroFile sets the rate at which we return 0 bytes on the
// first read. It must be from 0 to 1. We do not check.
func (r *Reader) SetProbZeroFile(prob float32) { r.probZeroFile = prob }

// SetProbFail sets the probability of a read failing.
// It must be between zero and 1.
func (r *Reader) SetProbFail(prob float32) { r.probFail = prob }

// SetFailAfter makes every read fail once n bytes have been passed on.
// Unlike the probabilities, this is the same every time.
func (r *Reader) SetFailAfter(n int) { r.failAfter = n }

// SetSeed makes the random failures repeatable with a different sequence.
func (r *Reader) SetSeed(seed int64) { r.rnd = rand.New(rand.NewSource(seed)) }

// trashSlice wipes out the second part of a slice.
// The amount to wipe out is given by a fraction, so 0.3
// will zero the last 30 % of a slice
func trashSlice(p []byte, frac float32) (int, error) {
	nkeep := int(float32(len(p)) * (1. - frac))
	if nkeep == len(p) {
		return nkeep, nil
	}
	q := p[nkeep:]
	clear(q)
	return nkeep, errors.Wrapf(ErrInjected, "wiped out last %d of %d bytes", len(q), len(p))
}

// Read passes on reads and counts the data that has gone through.
// On the first call, we might return no data to look like a zero
// length file, which is a common thing to meet.
func (r *Reader) Read(p []byte) (n int, err error) {
	if len(p) == 0 {
		return 0, nil
	}
	if r.nCalled == 0 && r.probZeroFile > 0 && r.rnd.Float32() < r.probZeroFile {
		return 0, io.EOF
	}
	if r.failAfter >= 0 {
		left := r.failAfter - r.nByte
		if left <= 0 {
			return 0, errors.Wrapf(ErrInjected, "failing after %d bytes", r.failAfter)
		}
		if len(p) > left {
			p = p[:left]
		}
	}
	n, err = r.orig.Read(p)
	r.nCalled++
	r.nByte += n
	if r.probFail > 0 && r.fracFail > 0 && r.rnd.Float32() < r.probFail {
		return trashSlice(p[:n], r.fracFail)
	}
	return n, err
}

// NByte is the number of bytes read so far.
func (r *Reader) NByte() int { return r.nByte }

// Close closes the wrapped reader.
func (r *Reader) Close() error {
	if r.verbose {
		fmt.Println("Closing", r.nCalled, "calls and", r.nByte, "bytes")
	}
	return r.orig.Close()
}
