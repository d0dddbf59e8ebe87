// Package agents builds a model for each agent type of a simulation.
// An agent is drawn as a sphere, a mesh or a structure read from an
// mmcif file. Anything that cannot be built is drawn as a sphere.
package agents

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/andrew-torda/cifasm/pdb"
	"github.com/andrew-torda/cifasm/pdb/cmmn"
	"github.com/andrew-torda/cifasm/pkg/batch"
)

var (
	// ErrMesh is the reason a mesh agent became a sphere.
	ErrMesh = errors.New("meshes are not loaded")
	// ErrRemote is the reason an agent with a URL became a sphere.
	ErrRemote = errors.New("remote structures are not fetched")
)

// Geometry is one of Sphere, Mesh or Structure.
type Geometry interface {
	Kind() string
	isGeometry()
}

// Sphere is a ball around the origin.
type Sphere struct {
	Radius float32
}

// Mesh is a surface model in a file we do not read.
type Mesh struct {
	URL string
}

// Structure is an mmcif file. Points is empty until it is built.
type Structure struct {
	Path   string
	Points []cmmn.Xyz
}

func (Sphere) Kind() string    { return "SPHERE" }
func (Mesh) Kind() string      { return "OBJ" }
func (Structure) Kind() string { return "PDB" }

func (Sphere) isGeometry()    {}
func (Mesh) isGeometry()      {}
func (Structure) isGeometry() {}

// RGB has components from 0 to 1.
type RGB [3]float32

// ParseColor reads #rrggbb. An empty string is white.
func ParseColor(s string) (RGB, error) {
	if s == "" {
		return RGB{1, 1, 1}, nil
	}
	h := strings.TrimPrefix(s, "#")
	if len(h) != 6 {
		return RGB{}, errors.Errorf("colour %q is not #rrggbb", s)
	}
	var c RGB
	for i := range c {
		v, err := strconv.ParseUint(h[2*i:2*i+2], 16, 8)
		if err != nil {
			return RGB{}, errors.Errorf("colour %q is not #rrggbb", s)
		}
		c[i] = float32(v) / 255
	}
	return c, nil
}

// Type is one agent type.
type Type struct {
	ID       int
	Name     string
	Color    RGB
	Geometry Geometry
}

// yamlGeometry and yamlType are the layout of the file.
type yamlGeometry struct {
	DisplayType string  `yaml:"displayType"`
	Color       string  `yaml:"color"`
	URL         string  `yaml:"url"`
	Radius      float32 `yaml:"radius"`
}

type yamlType struct {
	Name     string       `yaml:"name"`
	Geometry yamlGeometry `yaml:"geometry"`
}

type yamlFile struct {
	TypeMapping map[int]yamlType `yaml:"typeMapping"`
}

// toGeometry picks the variant. Unknown display types are spheres.
func (g yamlGeometry) toGeometry(baseDir string) Geometry {
	switch strings.ToUpper(g.DisplayType) {
	case "OBJ":
		return Mesh{URL: g.URL}
	case "PDB":
		p := g.URL
		if p != "" && !filepath.IsAbs(p) && !isRemote(p) {
			p = filepath.Join(baseDir, p)
		}
		return Structure{Path: p}
	}
	r := g.Radius
	if r <= 0 {
		r = 1
	}
	return Sphere{Radius: r}
}

func isRemote(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Parse reads agent types from YAML. Relative paths of structures are
// taken from baseDir. Types come back sorted by ID.
func Parse(b []byte, baseDir string) ([]Type, error) {
	var yf yamlFile
	if err := yaml.Unmarshal(b, &yf); err != nil {
		return nil, errors.Wrap(err, "agent types")
	}
	types := make([]Type, 0, len(yf.TypeMapping))
	for id, yt := range yf.TypeMapping {
		c, err := ParseColor(yt.Geometry.Color)
		if err != nil {
			return nil, errors.Wrapf(err, "agent type %d", id)
		}
		types = append(types, Type{
			ID:       id,
			Name:     yt.Name,
			Color:    c,
			Geometry: yt.Geometry.toGeometry(baseDir),
		})
	}
	sort.Slice(types, func(i, j int) bool { return types[i].ID < types[j].ID })
	return types, nil
}

// ReadFile is Parse for a file, with paths relative to the file.
func ReadFile(fname string) ([]Type, error) {
	b, err := os.ReadFile(fname)
	if err != nil {
		return nil, errors.Wrap(err, "agent types")
	}
	return Parse(b, filepath.Dir(fname))
}

// Built is the model for one agent type. If the wanted geometry could
// not be made, Geometry is a sphere and Fallback says why.
type Built struct {
	Type
	Fallback error
}

// Options for Build.
type Options struct {
	Workers int // as for batch.Options
}

// Build makes every agent model, several at once. Failures are not
// errors, they are spheres. Only a cancelled context is an error.
func Build(ctx context.Context, types []Type, opts Options) (map[int]*Built, error) {
	var mu sync.Mutex
	built := make(map[int]*Built, len(types))
	err := batch.Each(ctx, len(types), opts.Workers, func(ctx context.Context, i int) {
		b := buildOne(ctx, types[i])
		mu.Lock()
		built[b.ID] = b
		mu.Unlock()
	})
	if err != nil {
		return nil, err
	}
	return built, nil
}

func buildOne(ctx context.Context, t Type) *Built {
	b := &Built{Type: t}
	var why error
	switch g := t.Geometry.(type) {
	case Sphere:
		return b
	case Mesh:
		why = errors.Wrapf(ErrMesh, "agent %d %s", t.ID, g.URL)
	case Structure:
		if isRemote(g.Path) {
			why = errors.Wrapf(ErrRemote, "agent %d %s", t.ID, g.Path)
			break
		}
		xyz, err := pdb.LoadFlat(ctx, g.Path)
		if err == nil && len(xyz) > 0 {
			b.Geometry = Structure{Path: g.Path, Points: xyz}
			return b
		}
		if err == nil {
			err = errors.Errorf("%s has no atoms", g.Path)
		}
		why = errors.Wrapf(err, "agent %d", t.ID)
	default:
		why = errors.Errorf("agent %d: unknown geometry %T", t.ID, g)
	}
	b.Geometry = Sphere{Radius: 1}
	b.Fallback = why
	return b
}
