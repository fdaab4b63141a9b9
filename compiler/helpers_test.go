package compiler

import (
	"testing"

	"github.com/chazu/mutable/errlog"
	"github.com/chazu/mutable/node"
	"github.com/chazu/mutable/op"
	"github.com/chazu/mutable/resource"
)

func triangleMesh() *resource.Mesh {
	return &resource.Mesh{
		Positions: []resource.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Normals:   []resource.Vec3{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
		UVs:       [][]resource.Vec2{{{0.1, 0.1}, {0.4, 0.1}, {0.1, 0.4}}},
		Indices:   []uint32{0, 1, 2},
	}
}

func testSurface(name string, tags ...string) *node.SurfaceNew {
	return &node.SurfaceNew{
		Name:            name,
		SharedSurfaceID: node.NoSharedSurface,
		Mesh:            &node.MeshConstant{Value: triangleMesh()},
		Tags:            tags,
	}
}

// testObject returns an object with one component holding one LOD made of
// surfaces.
func testObject(surfaces ...node.Surface) *node.ObjectNew {
	return &node.ObjectNew{
		Name: "Root",
		Components: []node.Component{&node.ComponentNew{
			Name: "Body",
			ID:   1,
			LODs: []*node.LOD{{Surfaces: surfaces}},
		}},
	}
}

func requiresTag(tag string, surfaces ...node.Surface) *node.SurfaceVariation {
	return &node.SurfaceVariation{
		Type:       node.VariationTag,
		Variations: []node.SurfaceVariationOption{{Tag: tag, Surfaces: surfaces}},
	}
}

func switchOf(param node.Scalar, options ...node.Surface) *node.SurfaceSwitch {
	return &node.SurfaceSwitch{Parameter: param, Options: options}
}

// runPasses runs the first and second pass over root.
func runPasses(t *testing.T, root node.Object, opts Options) (*codeGenerator, *errlog.Log) {
	t.Helper()
	log := errlog.New()
	g := newCodeGenerator(&opts, log)
	g.fp.run(root)
	newSecondPass(g.fp, log, opts.VacuousTagPolicy).run()
	return g, log
}

func surfaceNamed(t *testing.T, g *codeGenerator, name string) *surfaceEntry {
	t.Helper()
	for i := range g.fp.surfaces {
		if g.fp.surfaces[i].Node.Name == name {
			return &g.fp.surfaces[i]
		}
	}
	t.Fatalf("surface %q not found by the first pass", name)
	return nil
}

// hasMessage reports whether log holds a message with the given text.
func hasMessage(log *errlog.Log, sev errlog.Severity, text string) bool {
	for _, m := range log.Messages() {
		if m.Severity == sev && m.Text == text {
			return true
		}
	}
	return false
}

// surfaceNames returns the names of the surfaces added by the operations
// reachable from root.
func surfaceNames(root op.Op) map[string]bool {
	names := make(map[string]bool)
	op.Walk([]op.Op{root}, func(o op.Op) bool {
		if a, ok := o.(*op.InstanceAdd); ok && a.Code == op.InstanceAddSurface {
			names[a.Name] = true
		}
		return true
	})
	return names
}
