package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testGraph = `
#Tri: {kind: "mesh", positions: [[0, 0, 0], [1, 0, 0], [0, 1, 0]], indices: [0, 1, 2]}

kind: "object"
name: "Avatar"
components: [{
	kind: "component"
	name: "Body"
	id:   1
	lods: [[
		{kind: "surface", name: "Skin", mesh: #Tri},
		{kind: "surfaceSwitch", parameter: {kind: "scalarParameter", name: "Hat"}, options: [
			{kind: "surface", name: "Cap", mesh: #Tri},
		]},
	]]
}]
`

// brokenGraph toggles a group, which is reported as a compilation error.
const brokenGraph = `
kind: "group"
name: "Outer"
type: "toggle"
children: [{kind: "group", name: "Inner", type: "all", children: [{kind: "object", name: "A"}]}]
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCmd(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestCompileAndInspect(t *testing.T) {
	dir := t.TempDir()
	graph := writeFile(t, dir, "avatar.cue", testGraph)
	writeFile(t, dir, "mutable.toml", `
[project]
name = "demo"

[compiler]
embedded-data-bytes-limit = 16

[[state]]
name = "Editor"
runtime-params = ["Hat"]
`)
	db := filepath.Join(dir, "out.db")

	code, out, errOut := runCmd(t, "compile", "-manifest", dir, "-o", db, graph)
	if code != 0 {
		t.Fatalf("compile exit %d: %s", code, errOut)
	}
	if !strings.HasPrefix(out, "demo: ") || !strings.Contains(out, "1 states, 1 params") {
		t.Errorf("compile output = %q", out)
	}

	code, out, errOut = runCmd(t, "list", db)
	if code != 0 {
		t.Fatalf("list exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, "demo") {
		t.Errorf("list output = %q", out)
	}

	code, out, _ = runCmd(t, "roms", db, "demo")
	if code != 0 {
		t.Fatalf("roms exit %d", code)
	}
	if !strings.Contains(out, "mesh") {
		t.Errorf("roms output = %q, want streamed meshes", out)
	}

	code, out, _ = runCmd(t, "disasm", db, "demo")
	if code != 0 {
		t.Fatalf("disasm exit %d", code)
	}
	if !strings.Contains(out, `state "Editor"`) {
		t.Errorf("disasm output lacks the state line:\n%s", out)
	}
}

func TestCompileStrict(t *testing.T) {
	dir := t.TempDir()
	graph := writeFile(t, dir, "broken.cue", brokenGraph)
	writeFile(t, dir, "mutable.toml", "[project]\nname = \"broken\"\n")
	db := filepath.Join(dir, "out.db")

	if code, _, errOut := runCmd(t, "compile", "-manifest", dir, "-o", db, graph); code != 0 {
		t.Fatalf("non-strict compile exit %d: %s", code, errOut)
	}
	if code, _, _ := runCmd(t, "compile", "-manifest", dir, "-o", db, "-strict", graph); code != 1 {
		t.Errorf("strict compile exit %d, want 1", code)
	}
}

func TestCommandErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"no command", nil, 2},
		{"unknown command", []string{"frobnicate"}, 2},
		{"missing archive", []string{"list", filepath.Join(dir, "none.db")}, 1},
		{"wrong arity", []string{"roms", "x.db"}, 1},
		{"missing graph", []string{"compile", "-manifest", "", filepath.Join(dir, "none.cue")}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code, _, _ := runCmd(t, tt.args...); code != tt.code {
				t.Errorf("exit %d, want %d", code, tt.code)
			}
		})
	}
}
