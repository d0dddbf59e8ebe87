// Package pdb is the upper level for reading structure files.
// Decide what format a file is in and whether it is compressed, map it
// into memory and hand it to the mmcif reader with the assembly
// handlers registered.
package pdb

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"

	"github.com/andrew-torda/cifasm/pdb/assembly"
	"github.com/andrew-torda/cifasm/pdb/cmmn"
	"github.com/andrew-torda/cifasm/pdb/mmcif"
	"github.com/andrew-torda/cifasm/pdb/zwrap"
)

type format byte

const (
	oldFmt format = iota
	mmcifFmt
	unkFmt
)

// ErrUnsupportedFormat is for files we recognise but cannot read, like
// old style PDB files. It always comes wrapped as an assembly.ErrFile.
var ErrUnsupportedFormat = errors.New("unsupported format")

// Options for Load. The zero value is fine.
type Options struct {
	Ident  cmmn.Limit   // zero value means cmmn.DfltLimit
	Logger *slog.Logger // nil means quiet
	Scene  assembly.SceneOptions
}

// lookInFile guesses if a file is in old PDB format or in mmcif by
// looking at the start of lines. A file with nothing in it is taken
// as mmcif, since it will read as an empty structure.
func lookInFile(fname string) (format, error) {
	pdbWords := []string{"COMPND", "SOURCE", "REMARK", "SEQRES", "HETATM", "ATOM", "HEADER"}
	mmcifWords := []string{"data_", "_entry.id", "loop_", "#"}
	m, err := openMapped(fname)
	if err != nil {
		return unkFmt, err
	}
	rdr, err := zwrap.WrapMaybe(m)
	if err != nil {
		m.Close()
		return unkFmt, errors.Wrapf(err, "reading %s", fname)
	}
	defer rdr.Close()

	const maxTestLines = 5000
	scnnr := bufio.NewScanner(rdr)
	scnnr.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var nonBlank bool
	for i := 0; scnnr.Scan() && i < maxTestLines; i++ {
		s := strings.TrimSpace(scnnr.Text())
		if s == "" {
			continue
		}
		nonBlank = true
		for _, w := range mmcifWords {
			if strings.HasPrefix(s, w) {
				return mmcifFmt, nil
			}
		}
		for _, w := range pdbWords {
			if strings.HasPrefix(s, w) {
				return oldFmt, nil
			}
		}
	}
	if err := scnnr.Err(); err != nil {
		return unkFmt, errors.Wrap(err, fname)
	}
	if !nonBlank {
		return mmcifFmt, nil
	}
	return unkFmt, errors.Wrapf(ErrUnsupportedFormat, "%s: cannot recognise format", fname)
}

// oldOrMmcif decides what format we will use.
// First it looks at the file name, then it peeks inside.
// We cannot use the function from filepath to get the file type,
// since it will return .gz if we feed it a.pdb.gz.
func oldOrMmcif(fname string) (format, error) {
	s := filepath.Base(fname)
	if i := strings.IndexByte(s, '.'); i != -1 {
		s = strings.ToLower(s[i+1:]) // change .ent to ent
		switch {
		case strings.Contains(s, "cif"):
			return mmcifFmt, nil
		case strings.Contains(s, "pdb") || strings.Contains(s, "ent"):
			return oldFmt, nil
		}
	}
	return lookInFile(fname)
}

// mapped is a file mapped into memory and read through a bytes.Reader.
// Close unmaps it and closes the file.
type mapped struct {
	*bytes.Reader
	fp *os.File
	mm mmap.MMap
}

func (m *mapped) Close() error {
	var err error
	if m.mm != nil {
		err = m.mm.Unmap()
	}
	if e := m.fp.Close(); err == nil {
		err = e
	}
	return err
}

// openMapped maps a regular file. An empty file cannot be mapped, so
// it gets an empty reader.
func openMapped(fname string) (*mapped, error) {
	fp, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	fi, err := fp.Stat()
	if err != nil {
		fp.Close()
		return nil, err
	}
	if !fi.Mode().IsRegular() {
		fp.Close()
		return nil, errors.Errorf("%s is not a regular file", fname)
	}
	m := &mapped{fp: fp}
	if fi.Size() == 0 {
		m.Reader = bytes.NewReader(nil)
		return m, nil
	}
	if m.mm, err = mmap.Map(fp, mmap.RDONLY, 0); err != nil {
		fp.Close()
		return nil, errors.Wrapf(err, "mapping %s", fname)
	}
	m.Reader = bytes.NewReader(m.mm)
	return m, nil
}

// open checks the format and returns the contents, decompressed if
// need be. Every error is an assembly.ErrFile.
func open(fname string) (*zwrap.FpGzip, error) {
	typ, err := oldOrMmcif(fname)
	switch {
	case err != nil:
		return nil, assembly.FileError(err)
	case typ == oldFmt:
		return nil, assembly.FileError(errors.Wrapf(ErrUnsupportedFormat, "%s: old PDB format", fname))
	}
	m, err := openMapped(fname)
	if err != nil {
		return nil, assembly.FileError(err)
	}
	rdr, err := zwrap.WrapMaybe(m)
	if err != nil {
		m.Close()
		return nil, assembly.FileError(errors.Wrapf(err, "reading %s", fname))
	}
	return rdr, nil
}

// Load reads a structure file and returns its models and instances.
// A failed load gives a nil scene and an error saying why.
func Load(ctx context.Context, fname string, opts Options) (*assembly.Scene, error) {
	rdr, err := open(fname)
	if err != nil {
		return nil, err
	}
	defer rdr.Close()
	return LoadReader(ctx, rdr, filepath.Base(fname), opts)
}

// LoadReader is Load for something already open. The input must be
// plain text. name is used in model names.
func LoadReader(ctx context.Context, r io.Reader, name string, opts Options) (*assembly.Scene, error) {
	sess := assembly.NewSession(name, assembly.Options{Limit: opts.Ident, Logger: opts.Logger})
	if err := sess.Parse(ctx, r); err != nil {
		return nil, err
	}
	return sess.Scene(opts.Scene)
}

// LoadFlat reads only the coordinates of every atom in a file, with no
// grouping and no assemblies.
func LoadFlat(ctx context.Context, fname string) ([]cmmn.Xyz, error) {
	rdr, err := open(fname)
	if err != nil {
		return nil, err
	}
	defer rdr.Close()
	xyz, err := LoadFlatReader(ctx, rdr)
	return xyz, errors.Wrap(err, fname) // Wrap of nil is nil
}

// LoadFlatReader is LoadFlat for something already open.
func LoadFlatReader(ctx context.Context, r io.Reader) ([]cmmn.Xyz, error) {
	var xyz []cmmn.Xyz
	mr := mmcif.NewReader(r)
	mr.Register("atom_site", assembly.ReadXyz(&xyz))
	if err := mr.Parse(ctx); err != nil {
		if errors.Is(err, mmcif.ErrSyntax) || errors.Is(err, mmcif.ErrRead) {
			err = assembly.FileError(err)
		}
		return nil, err
	}
	return xyz, nil
}

// LogWhere decides where to send logged output. "" throws it away,
// "stdout" and "stderr" are what they say and anything else is a file
// which we append to.
func LogWhere(outinfo string, level slog.Level) (*slog.Logger, error) {
	var iowriter io.Writer
	switch outinfo {
	case "":
		iowriter = io.Discard
	case "stdout":
		iowriter = os.Stdout
	case "stderr":
		iowriter = os.Stderr
	default:
		var err error
		iowriter, err = os.OpenFile(outinfo, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, errors.Wrap(err, "creating log file")
		}
	}
	return slog.New(slog.NewTextHandler(iowriter, &slog.HandlerOptions{Level: level})), nil
}

// NAtomsDrawn is the number of atoms a viewer will draw, counting each
// instance of a model, and the number of those with broken coordinates.
func NAtomsDrawn(sc *assembly.Scene) (valid, invalid int) {
	for _, in := range sc.Instances {
		for _, a := range sc.Models[in.Model].Atoms {
			if sc.Atoms[a].Xyz.Ok() {
				valid++
			} else {
				invalid++
			}
		}
	}
	return valid, invalid
}
