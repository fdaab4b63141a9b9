package compiler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/chazu/mutable/errlog"
	"github.com/chazu/mutable/node"
	"github.com/chazu/mutable/op"
	"github.com/chazu/mutable/program"
)

// hatGraph has surface A always present, surface B requiring tag Hat and
// surface C, the only activator of Hat, disabled by a constant switch.
func hatGraph() *node.ObjectNew {
	return testObject(
		testSurface("A"),
		requiresTag("Hat", testSurface("B")),
		switchOf(&node.ScalarConstant{Value: 1}, testSurface("C", "Hat")),
	)
}

func TestCompile_HatScenario(t *testing.T) {
	g, log := newTestGenerator(DefaultOptions())
	roots := g.generateRoot(hatGraph())

	if len(roots) != 1 {
		t.Fatalf("got %d roots, want 1", len(roots))
	}
	if !op.IsTrue(surfaceNamed(t, g, "A").FinalCondition) {
		t.Error("A should be unconditional")
	}
	if !op.IsFalse(surfaceNamed(t, g, "B").FinalCondition) {
		t.Errorf("B condition = %v, want false", surfaceNamed(t, g, "B").FinalCondition)
	}

	names := surfaceNames(roots[0])
	if !names["A"] || names["B"] || names["C"] {
		t.Errorf("generated surfaces = %v, want only A", names)
	}

	// A is merged without any condition.
	op.Walk(roots, func(o op.Op) bool {
		if c, ok := o.(*op.Conditional); ok {
			if add, ok := op.Deref(c.Yes).(*op.InstanceAdd); ok && add.Name == "A" {
				t.Error("A should not be wrapped in a conditional")
			}
		}
		return true
	})

	if n := log.Count(errlog.Error); n != 0 {
		t.Errorf("got %d errors: %v", n, log.Messages())
	}
	if !hasMessage(log, errlog.Info, "Tag [Hat] can never be activated.") {
		t.Error("missing info about tag Hat")
	}
}

func TestCompile_Program(t *testing.T) {
	prog, log, err := Compile(context.Background(), hatGraph(), DefaultOptions())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if log.Count(errlog.Error) != 0 {
		t.Errorf("unexpected errors: %v", log.Messages())
	}
	if len(prog.States) != 1 || prog.States[0].Name != "Default" {
		t.Fatalf("states = %+v", prog.States)
	}
	code, _ := prog.Instruction(prog.States[0].Root)
	if code != op.InstanceAddComponent {
		t.Errorf("root instruction = %v, want %v", code, op.InstanceAddComponent)
	}
	if len(prog.Meshes) != 1 {
		t.Errorf("got %d meshes, want 1", len(prog.Meshes))
	}
}

func TestCompile_InvalidRoot(t *testing.T) {
	tests := []struct {
		name string
		root node.Node
	}{
		{"nil", nil},
		{"nil object", (*node.ObjectNew)(nil)},
		{"not an object", &node.ScalarConstant{Value: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Compile(context.Background(), tt.root, DefaultOptions())
			var ce *CompileError
			if !errors.As(err, &ce) {
				t.Fatalf("err = %v, want *CompileError", err)
			}
		})
	}
}

func TestCompile_Optimizer(t *testing.T) {
	opts := DefaultOptions()
	calls := 0
	opts.Optimizer = func(roots []op.Op) []op.Op {
		calls++
		return roots
	}
	if _, _, err := Compile(context.Background(), hatGraph(), opts); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if calls != 1 {
		t.Errorf("optimizer called %d times, want 1", calls)
	}

	opts.Optimizer = func([]op.Op) []op.Op { return nil }
	if _, _, err := Compile(context.Background(), hatGraph(), opts); err == nil {
		t.Error("expected an error when the optimizer drops roots")
	}
}

func TestCompile_StateAnalysis(t *testing.T) {
	root := testObject(
		testSurface("Body"),
		switchOf(&node.ScalarParameter{Name: "Hat"}, testSurface("Cap"), testSurface("Helmet")),
	)
	root.States = []node.State{{Name: "Edit", RuntimeParams: []string{"Hat", "Ghost"}}}

	prog, log, err := Compile(context.Background(), root, DefaultOptions())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	want := "The state [Edit] refers to a parameter [Ghost] that has not been found in the model. " +
		"This warning can be safely dismissed in case of partial compilation."
	if !hasMessage(log, errlog.Warning, want) {
		t.Error("missing unknown runtime parameter warning")
	}

	st := prog.States[0]
	if len(st.RuntimeParams) != 1 || prog.Params[st.RuntimeParams[0]].Name != "Hat" {
		t.Fatalf("runtime params = %v", st.RuntimeParams)
	}
	if len(st.DynamicResources) == 0 {
		t.Fatal("expected dynamic resources depending on Hat")
	}
	for i, d := range st.DynamicResources {
		if d.Mask != 1 {
			t.Errorf("resource %d mask = %b, want 1", d.Address, d.Mask)
		}
		if i > 0 && st.DynamicResources[i-1].Address >= d.Address {
			t.Error("dynamic resources are not sorted by address")
		}
	}
	if len(st.UpdateCache) == 0 {
		t.Error("expected cached constant resources below dynamic ones")
	}
	for _, a := range st.UpdateCache {
		for _, d := range st.DynamicResources {
			if a == d.Address {
				t.Errorf("address %d both cached and dynamic", a)
			}
		}
	}
}

func TestCompile_ParamsSorted(t *testing.T) {
	root := testObject(
		switchOf(&node.ScalarParameter{Name: "Zeta", UID: "1"}, testSurface("Z")),
		switchOf(&node.ScalarParameter{Name: "Alpha", UID: "2"}, testSurface("A1")),
		switchOf(&node.ScalarParameter{Name: "Alpha", UID: "1"}, testSurface("A2")),
	)
	prog, _, err := Compile(context.Background(), root, DefaultOptions())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	var got []string
	for _, p := range prog.Params {
		got = append(got, p.Name+"/"+p.UID)
	}
	want := []string{"Alpha/1", "Alpha/2", "Zeta/1"}
	if !equalStrings(got, want) {
		t.Errorf("params = %v, want %v", got, want)
	}
}

func TestCompile_Roms(t *testing.T) {
	opts := DefaultOptions()
	opts.EmbeddedDataBytesLimit = 16
	prog, _, err := Compile(context.Background(), hatGraph(), opts)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(prog.Roms) != 1 || prog.Roms[0].Type != program.RomMesh {
		t.Fatalf("roms = %+v, want one mesh rom", prog.Roms)
	}
	if prog.Meshes[prog.Roms[0].Index] != nil {
		t.Error("streamed mesh should be removed from the program")
	}
}

func TestCompile_InvalidOptions(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Options)
		want   string
	}{
		{"too many runtime parameters", func(o *Options) { o.MaxRuntimeParameters = MaxStateRuntimeParams + 1 }, "MaxRuntimeParameters"},
		{"negative runtime parameters", func(o *Options) { o.MaxRuntimeParameters = -1 }, "MaxRuntimeParameters"},
		{"negative workers", func(o *Options) { o.Workers = -2 }, "Workers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.modify(&opts)
			_, _, err := Compile(context.Background(), hatGraph(), opts)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want it to mention %s", err, tt.want)
			}
		})
	}
}

func TestRuntimeParams_Limit(t *testing.T) {
	var params []*op.ParamDesc
	st := &stateEntry{Name: "Edit"}
	for i := range MaxStateRuntimeParams + 2 {
		name := fmt.Sprintf("P%02d", i)
		params = append(params, &op.ParamDesc{Name: name})
		st.RuntimeParams = append(st.RuntimeParams, name)
	}

	log := errlog.New()
	got := runtimeParams(log, st, params)
	if len(got) != MaxStateRuntimeParams {
		t.Fatalf("got %d runtime params, want %d", len(got), MaxStateRuntimeParams)
	}
	for _, name := range []string{"P64", "P65"} {
		want := fmt.Sprintf("The state [Edit] tracks at most %d runtime parameters. Parameter [%s] is ignored.",
			MaxStateRuntimeParams, name)
		if !hasMessage(log, errlog.Warning, want) {
			t.Errorf("missing warning for %s", name)
		}
	}
	if n := log.Count(errlog.Warning); n != 2 {
		t.Errorf("got %d warnings, want 2", n)
	}
}
