// Package common has exit codes for the commands and helpers for
// writing test files.
package common

import (
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

const (
	ExitSuccess = iota
	ExitFailure
	ExitUsageError
)

// WrtTemp writes a string to a temporary file in dir and returns the
// file name. pattern is as for os.CreateTemp, so "*.cif" keeps the
// suffix. It is used all over the place in testing.
func WrtTemp(dir, pattern, s string) (string, error) {
	return wrtTemp(dir, pattern, s, false)
}

// WrtTempGz is WrtTemp, but the file is gzipped.
func WrtTempGz(dir, pattern, s string) (string, error) {
	return wrtTemp(dir, pattern, s, true)
}

func wrtTemp(dir, pattern, s string, gz bool) (string, error) {
	fTmp, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", errors.Wrap(err, "tempfile fail")
	}
	name := fTmp.Name()
	var w io.WriteCloser = fTmp
	if gz {
		w = gzip.NewWriter(fTmp)
	}
	if _, err := io.WriteString(w, s); err != nil {
		fTmp.Close()
		return "", errors.Wrapf(err, "writing string to temp file %v", name)
	}
	if gz {
		if err := w.Close(); err != nil {
			fTmp.Close()
			return "", errors.Wrapf(err, "compressing %v", name)
		}
	}
	if err := fTmp.Close(); err != nil {
		return "", errors.Wrapf(err, "closing %v", name)
	}
	return name, nil
}
