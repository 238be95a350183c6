// Package config loads run configurations from YAML, validated against an
// embedded CUE schema that also supplies defaults.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/notargets/qdata/element"
	"github.com/notargets/qdata/mesh"
	"github.com/notargets/qdata/mesh/gocfdmesh"
)

//go:embed schema.cue
var schemaCUE string

var ErrInvalidConfig = errors.New("config: invalid run configuration")

// Mesh selects either a mesh file or a synthetic uniform mesh
type Mesh struct {
	File     string `json:"file,omitempty" yaml:"file,omitempty"`
	Geometry string `json:"geometry,omitempty" yaml:"geometry,omitempty"`
	Elements int    `json:"elements,omitempty" yaml:"elements,omitempty"`
}

// Run is one decoded run configuration
type Run struct {
	Mesh       Mesh   `json:"mesh" yaml:"mesh"`
	Order      int    `json:"order" yaml:"order"`
	Partitions int    `json:"partitions" yaml:"partitions"`
	Strategy   string `json:"strategy" yaml:"strategy"`
	Checkpoint string `json:"checkpoint,omitempty" yaml:"checkpoint,omitempty"`
}

// Load reads the configuration at path. Relative mesh and checkpoint paths
// are resolved against the directory holding the file.
func Load(path string) (*Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	run, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	dir := filepath.Dir(path)
	if run.Mesh.File != "" && !filepath.IsAbs(run.Mesh.File) {
		run.Mesh.File = filepath.Join(dir, run.Mesh.File)
	}
	if run.Checkpoint != "" && !filepath.IsAbs(run.Checkpoint) {
		run.Checkpoint = filepath.Join(dir, run.Checkpoint)
	}
	return run, nil
}

// Parse decodes and validates a YAML configuration document
func Parse(data []byte) (*Run, error) {
	var raw any
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	if err := decoder.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: failed to parse YAML: %v", ErrInvalidConfig, err)
	}
	if raw == nil {
		raw = map[string]any{}
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	v := schema.LookupPath(cue.ParsePath("#Run")).Unify(ctx.Encode(raw))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	var run Run
	if err := v.Decode(&run); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := run.validate(); err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *Run) validate() error {
	m := r.Mesh
	switch {
	case m.File != "" && (m.Geometry != "" || m.Elements != 0):
		return fmt.Errorf("%w: mesh.file excludes mesh.geometry and mesh.elements", ErrInvalidConfig)
	case m.File == "" && (m.Geometry == "" || m.Elements == 0):
		return fmt.Errorf("%w: mesh needs a file or a geometry with an element count", ErrInvalidConfig)
	}
	if m.Geometry != "" {
		if _, err := element.ParseGeometry(m.Geometry); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}

// Partition builds the global mesh the configuration describes
func (r *Run) Partition() (*mesh.Simple, error) {
	if r.Mesh.File != "" {
		return gocfdmesh.ReadFile(r.Mesh.File)
	}
	g, err := element.ParseGeometry(r.Mesh.Geometry)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return mesh.Uniform(g, r.Mesh.Elements), nil
}

// Builder returns the partition builder for the configured decomposition
func (r *Run) Builder() (mesh.Builder, error) {
	s, err := mesh.ParseStrategy(r.Strategy)
	if err != nil {
		return mesh.Builder{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return mesh.Builder{NumPartitions: r.Partitions, Strategy: s}, nil
}

// Decompose builds the global mesh and splits it into the configured number
// of partitions
func (r *Run) Decompose() (*mesh.Decomposition, error) {
	m, err := r.Partition()
	if err != nil {
		return nil, err
	}
	b, err := r.Builder()
	if err != nil {
		return nil, err
	}
	return b.Build(m)
}
