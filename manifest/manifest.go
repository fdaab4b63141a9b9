// Package manifest handles mutable.toml project configuration.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/chazu/mutable/compiler"
	"github.com/chazu/mutable/node"
)

// FileName is the name of the manifest file in a project directory.
const FileName = "mutable.toml"

// Manifest represents a mutable.toml project configuration.
type Manifest struct {
	Project  Project        `toml:"project"`
	Compiler CompilerConfig `toml:"compiler"`
	Output   Output         `toml:"output"`
	States   []State        `toml:"state"`

	// Dir is the directory containing the mutable.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
	// Graph is the node graph compiled by default, relative to Dir.
	Graph string `toml:"graph"`
}

// CompilerConfig mirrors compiler.Options. Unset fields keep the compiler
// defaults.
type CompilerConfig struct {
	IgnoreStates                     *bool   `toml:"ignore-states"`
	ImageTiling                      *uint16 `toml:"image-tiling"`
	EmbeddedDataBytesLimit           *uint64 `toml:"embedded-data-bytes-limit"`
	MaxRuntimeParameters             *int    `toml:"max-runtime-parameters"`
	ClampUVIslands                   *bool   `toml:"clamp-uv-islands"`
	NormalizeUVs                     *bool   `toml:"normalize-uvs"`
	EnsureAllVerticesHaveLayoutBlock *bool   `toml:"ensure-all-vertices-have-layout-block"`
	Workers                          *int    `toml:"workers"`
	VacuousTags                      string  `toml:"vacuous-tags"`
	MaxPerSpamBin                    *int    `toml:"max-per-spam-bin"`
}

// Output configures where compiled programs go.
type Output struct {
	Archive string `toml:"archive"`
	// Name is the key of the program in the archive. Defaults to the
	// project name.
	Name string `toml:"name"`
}

// State replaces the states declared by the root object of the graph.
type State struct {
	Name          string   `toml:"name"`
	RuntimeParams []string `toml:"runtime-params"`
}

// Load parses a mutable.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	// Defaults
	if m.Output.Archive == "" {
		m.Output.Archive = "programs.db"
	}
	if m.Output.Name == "" {
		m.Output.Name = m.Project.Name
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}
	return &m, nil
}

// FindAndLoad walks up from startDir to find a mutable.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

// Save writes the manifest to the mutable.toml file of m.Dir.
func (m *Manifest) Save() error {
	path := filepath.Join(m.Dir, FileName)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create %s: %w", path, err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(m); err != nil {
		return fmt.Errorf("cannot write %s: %w", path, err)
	}
	return f.Close()
}

// Validate reports every inconsistency of the manifest.
func (m *Manifest) Validate() error {
	var errs []error
	switch m.Compiler.VacuousTags {
	case "", "false", "true":
	default:
		errs = append(errs, fmt.Errorf("compiler.vacuous-tags must be \"true\" or \"false\", got %q", m.Compiler.VacuousTags))
	}
	if w := m.Compiler.Workers; w != nil && *w < 0 {
		errs = append(errs, fmt.Errorf("compiler.workers must not be negative"))
	}
	if n := m.Compiler.MaxRuntimeParameters; n != nil && (*n < 0 || *n > compiler.MaxStateRuntimeParams) {
		errs = append(errs, fmt.Errorf("compiler.max-runtime-parameters must be between 0 and %d", compiler.MaxStateRuntimeParams))
	}

	seen := make(map[string]bool)
	for i, s := range m.States {
		if s.Name == "" {
			errs = append(errs, fmt.Errorf("state %d has no name", i))
			continue
		}
		if seen[s.Name] {
			errs = append(errs, fmt.Errorf("state %q declared twice", s.Name))
		}
		seen[s.Name] = true
	}
	return errors.Join(errs...)
}

// CompilerOptions returns the compiler defaults overridden by the
// [compiler] table.
func (m *Manifest) CompilerOptions() compiler.Options {
	opts := compiler.DefaultOptions()
	c := &m.Compiler
	set(&opts.IgnoreStates, c.IgnoreStates)
	set(&opts.ImageTiling, c.ImageTiling)
	set(&opts.EmbeddedDataBytesLimit, c.EmbeddedDataBytesLimit)
	set(&opts.MaxRuntimeParameters, c.MaxRuntimeParameters)
	set(&opts.ClampUVIslands, c.ClampUVIslands)
	set(&opts.NormalizeUVs, c.NormalizeUVs)
	set(&opts.EnsureAllVerticesHaveLayoutBlock, c.EnsureAllVerticesHaveLayoutBlock)
	set(&opts.Workers, c.Workers)
	set(&opts.MaxPerSpamBin, c.MaxPerSpamBin)
	if c.VacuousTags == "true" {
		opts.VacuousTagPolicy = compiler.AbsentTagTrue
	}
	return opts
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// ApplyStates replaces the states of root with the [[state]] entries. It
// does nothing when the manifest declares no state.
func (m *Manifest) ApplyStates(root *node.ObjectNew) {
	if len(m.States) == 0 || root == nil {
		return
	}
	root.States = nil
	for _, s := range m.States {
		root.States = append(root.States, node.State{Name: s.Name, RuntimeParams: s.RuntimeParams})
	}
}

// GraphPath returns the absolute path of the project graph, or "" when
// none is configured.
func (m *Manifest) GraphPath() string {
	if m.Project.Graph == "" {
		return ""
	}
	return m.resolve(m.Project.Graph)
}

// ArchivePath returns the absolute path of the output archive.
func (m *Manifest) ArchivePath() string {
	return m.resolve(m.Output.Archive)
}

func (m *Manifest) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Dir, p)
}
