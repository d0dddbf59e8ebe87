package assembly

import (
	"github.com/pkg/errors"
)

var (
	// ErrFile means the file could not be read or tokenised.
	ErrFile = errors.New("unreadable structure file")
	// ErrBadValue is a number column holding something that is not a number.
	ErrBadValue = errors.New("bad value")
	// ErrOperatorSyntax is a malformed oper_expression.
	ErrOperatorSyntax = errors.New("operator expression syntax")
	// ErrUnresolved is an operator or chain ID that nothing matches.
	ErrUnresolved = errors.New("unresolved reference")
	// ErrUnknownAssembly is asking for an assembly the file does not have.
	ErrUnknownAssembly = errors.New("unknown assembly")
)

// fileError marks a tokenizer or I/O failure, but keeps the original
// so the line number and ErrSyntax or ErrRead can still be found.
type fileError struct {
	err error
}

func (e fileError) Error() string        { return e.err.Error() }
func (e fileError) Unwrap() error        { return e.err }
func (e fileError) Is(target error) bool { return target == ErrFile }

// FileError marks err as a problem reading the file, so errors.Is(err,
// ErrFile) is true, but errors.Is still finds whatever err wraps.
func FileError(err error) error {
	if err == nil {
		return nil
	}
	return fileError{err}
}
