package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/mutable/compiler"
	"github.com/chazu/mutable/node"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[project]
name = "avatar"
version = "0.1.0"
graph = "graphs/avatar.cue"

[compiler]
image-tiling = 128
embedded-data-bytes-limit = 4096
normalize-uvs = true
vacuous-tags = "true"

[output]
archive = "out/avatar.db"

[[state]]
name = "Editor"
runtime-params = ["Hat", "Skin"]

[[state]]
name = "Game"
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Project.Name != "avatar" || m.Project.Version != "0.1.0" {
		t.Errorf("project = %+v", m.Project)
	}
	if m.Output.Name != "avatar" {
		t.Errorf("output name = %q, want the project name", m.Output.Name)
	}
	if got, want := m.GraphPath(), filepath.Join(m.Dir, "graphs", "avatar.cue"); got != want {
		t.Errorf("graph path = %q, want %q", got, want)
	}
	if got, want := m.ArchivePath(), filepath.Join(m.Dir, "out", "avatar.db"); got != want {
		t.Errorf("archive path = %q, want %q", got, want)
	}
	if len(m.States) != 2 || m.States[0].Name != "Editor" || len(m.States[0].RuntimeParams) != 2 {
		t.Errorf("states = %+v", m.States)
	}

	opts := m.CompilerOptions()
	def := compiler.DefaultOptions()
	if opts.ImageTiling != 128 || opts.EmbeddedDataBytesLimit != 4096 || !opts.NormalizeUVs {
		t.Errorf("overrides not applied: %+v", opts)
	}
	if opts.VacuousTagPolicy != compiler.AbsentTagTrue {
		t.Error("vacuous-tags = true should select AbsentTagTrue")
	}
	if opts.MaxRuntimeParameters != def.MaxRuntimeParameters || opts.EnsureAllVerticesHaveLayoutBlock != def.EnsureAllVerticesHaveLayoutBlock {
		t.Error("unset fields should keep the compiler defaults")
	}
}

func TestLoadManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[project]
name = "minimal"
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.Output.Archive != "programs.db" {
		t.Errorf("default archive = %q, want programs.db", m.Output.Archive)
	}
	if m.GraphPath() != "" {
		t.Errorf("graph path = %q, want empty", m.GraphPath())
	}
	if opts := m.CompilerOptions(); opts.VacuousTagPolicy != compiler.AbsentTagFalse {
		t.Error("default policy should be AbsentTagFalse")
	}
}

func TestLoadManifestInvalid(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[compiler]
vacuous-tags = "maybe"
workers = -1
max-runtime-parameters = 65

[[state]]
name = "A"

[[state]]
name = "A"
`)

	_, err := Load(dir)
	if err == nil {
		t.Fatal("expected a validation error")
	}
	for _, want := range []string{"vacuous-tags", "workers", "max-runtime-parameters", `state "A" declared twice`} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestLoadManifestParseError(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[project\n")
	if _, err := Load(dir); err == nil || !strings.Contains(err.Error(), "parse error") {
		t.Errorf("err = %v, want a parse error", err)
	}
}

func TestFindAndLoad(t *testing.T) {
	dir := t.TempDir()
	subDir := filepath.Join(dir, "a", "b", "c")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatal(err)
	}
	writeManifest(t, dir, `[project]
name = "found-project"
`)

	m, err := FindAndLoad(subDir)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m == nil {
		t.Fatal("FindAndLoad returned nil")
	}
	if m.Project.Name != "found-project" {
		t.Errorf("project name = %q, want found-project", m.Project.Name)
	}
}

func TestFindAndLoadNotFound(t *testing.T) {
	m, err := FindAndLoad(t.TempDir())
	if err != nil {
		t.Fatalf("FindAndLoad error: %v", err)
	}
	if m != nil {
		t.Error("expected nil manifest when no mutable.toml exists")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	limit := uint64(2048)
	m := &Manifest{
		Dir:      dir,
		Project:  Project{Name: "saved"},
		Compiler: CompilerConfig{EmbeddedDataBytesLimit: &limit},
		States:   []State{{Name: "Editor", RuntimeParams: []string{"Hat"}}},
	}
	if err := m.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Project.Name != "saved" || loaded.CompilerOptions().EmbeddedDataBytesLimit != 2048 {
		t.Errorf("loaded = %+v", loaded)
	}
	if len(loaded.States) != 1 || loaded.States[0].RuntimeParams[0] != "Hat" {
		t.Errorf("states = %+v", loaded.States)
	}
}

func TestApplyStates(t *testing.T) {
	root := &node.ObjectNew{States: []node.State{{Name: "Old"}}}

	(&Manifest{}).ApplyStates(root)
	if len(root.States) != 1 || root.States[0].Name != "Old" {
		t.Error("an empty manifest should keep the graph states")
	}

	m := &Manifest{States: []State{{Name: "Editor", RuntimeParams: []string{"Hat"}}}}
	m.ApplyStates(root)
	if len(root.States) != 1 || root.States[0].Name != "Editor" || root.States[0].RuntimeParams[0] != "Hat" {
		t.Errorf("states = %+v", root.States)
	}
}
