package compiler

import (
	"math"
	"testing"

	"github.com/chazu/mutable/errlog"
	"github.com/chazu/mutable/node"
	"github.com/chazu/mutable/op"
	"github.com/chazu/mutable/resource"
)

func newTestGenerator(opts Options) (*codeGenerator, *errlog.Log) {
	log := errlog.New()
	return newCodeGenerator(&opts, log), log
}

func TestGenerate_Memoization(t *testing.T) {
	g, _ := newTestGenerator(DefaultOptions())

	shared := &node.ScalarParameter{Name: "Weight"}
	left := &node.ScalarArithmetic{Operation: node.ArithmeticAdd, A: shared, B: &node.ScalarConstant{Value: 1}}
	right := &node.ScalarArithmetic{Operation: node.ArithmeticMultiply, A: shared, B: &node.ScalarConstant{Value: 2}}

	o := genOptions{State: 0}
	l := g.generateScalar(o, left).(*op.Arithmetic)
	r := g.generateScalar(o, right).(*op.Arithmetic)
	if l.A != r.A {
		t.Error("a node reached from two parents should generate a single operation")
	}
	if g.generateScalar(o, left) != l {
		t.Error("generating the same node twice should return the cached operation")
	}

	mesh := &node.MeshConstant{Value: triangleMesh()}
	mo := meshOptions{ComponentID: 1, Layouts: true}
	if g.generateMesh(mo, mesh).MeshOp != g.generateMesh(mo, mesh).MeshOp {
		t.Error("mesh generation should be cached")
	}
}

func TestGenerate_SimilarConstantMeshes(t *testing.T) {
	g, _ := newTestGenerator(DefaultOptions())
	mo := meshOptions{ComponentID: 1, Layouts: true}

	a := g.generateMesh(mo, &node.MeshConstant{Value: triangleMesh()})
	b := g.generateMesh(mo, &node.MeshConstant{Value: triangleMesh()})
	if a.BaseMeshOp != b.BaseMeshOp {
		t.Error("similar constant meshes should share one constant")
	}

	other := triangleMesh()
	other.Positions[2] = resource.Vec3{0, 2, 0}
	c := g.generateMesh(mo, &node.MeshConstant{Value: other})
	if c.BaseMeshOp == a.BaseMeshOp {
		t.Fatal("different meshes must not share a constant")
	}
	pa := a.BaseMeshOp.(*op.ConstantMesh).Value.MeshIDPrefix
	pc := c.BaseMeshOp.(*op.ConstantMesh).Value.MeshIDPrefix
	if pa == 0 || pc == 0 || pa == pc {
		t.Errorf("mesh id prefixes %d and %d should be distinct and nonzero", pa, pc)
	}
}

func testLayout() *node.Layout {
	return &node.Layout{
		Size:    [2]uint16{2, 2},
		MaxSize: [2]uint16{4, 4},
		Blocks: []node.LayoutBlock{
			{Min: [2]uint16{0, 0}, Size: [2]uint16{1, 1}},
			{Min: [2]uint16{1, 0}, Size: [2]uint16{1, 2}},
		},
		FirstLODToIgnoreWarnings: -1,
	}
}

func TestGenerate_LayoutDeterminism(t *testing.T) {
	g, _ := newTestGenerator(DefaultOptions())
	src := testLayout()

	l1 := g.generateLayout(src, 5)
	l2 := g.generateLayout(src, 5)
	if l1 != l2 {
		t.Fatal("the same layout and prefix should give the same layout")
	}
	for i, b := range l1.Blocks {
		if want := uint64(5)<<32 | uint64(i); b.ID != want {
			t.Errorf("block %d id = %#x, want %#x", i, b.ID, want)
		}
	}

	l3 := g.generateLayout(src, 6)
	ids := make(map[uint64]bool)
	for _, b := range l1.Blocks {
		ids[b.ID] = true
	}
	for _, b := range l3.Blocks {
		if ids[b.ID] {
			t.Errorf("block id %#x used by two mesh prefixes", b.ID)
		}
	}
}

func TestGenerate_PrepareMeshForLayout(t *testing.T) {
	g, log := newTestGenerator(DefaultOptions())

	mesh := triangleMesh()
	mesh.UVs[0] = append(mesh.UVs[0], resource.Vec2{0.75, 0.75}, resource.Vec2{1.5, 0.25})
	mesh.Positions = append(mesh.Positions, resource.Vec3{}, resource.Vec3{})
	src := testLayout()
	l := g.generateLayout(src, 3)

	g.prepareMeshForLayout(src, mesh, l, src, 0, false)

	ids := mesh.LayoutBlocks[0]
	want := []uint64{l.Blocks[0].ID, l.Blocks[0].ID, l.Blocks[0].ID, l.Blocks[1].ID, l.Blocks[1].ID}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("vertex %d in block %#x, want %#x", i, ids[i], want[i])
		}
	}
	if mesh.Layouts[0] != l {
		t.Error("layout not attached to the mesh")
	}
	if !hasMessage(log, errlog.Warning, "Source mesh has non-normalized UVs in LOD 0") {
		t.Error("missing non-normalized UV warning")
	}
}

func TestGenerate_UnassignedVertices(t *testing.T) {
	opts := DefaultOptions()
	opts.EnsureAllVerticesHaveLayoutBlock = false
	g, log := newTestGenerator(opts)

	src := &node.Layout{
		Size:                     [2]uint16{2, 2},
		Blocks:                   []node.LayoutBlock{{Min: [2]uint16{1, 1}, Size: [2]uint16{1, 1}}},
		FirstLODToIgnoreWarnings: -1,
	}
	mesh := triangleMesh()
	g.prepareMeshForLayout(src, mesh, g.generateLayout(src, 1), src, 0, true)

	for v, id := range mesh.LayoutBlocks[0] {
		if id != resource.InvalidBlockID {
			t.Errorf("vertex %d assigned to %d, want none", v, id)
		}
	}
	var found *errlog.Message
	for _, m := range log.Messages() {
		if m.Text == "Source mesh has 3 vertices not assigned to any layout block in LOD 0" {
			found = &m
		}
	}
	if found == nil || found.Data == nil || len(found.Data.UnassignedUVs) != 6 {
		t.Fatalf("missing unassigned vertex warning with data: %+v", found)
	}
}

func TestGenerate_ClampIslands(t *testing.T) {
	assigned := []int{0, 0, 1, 1, 1, -1, 2}
	// Two islands: 0-1-2 and 3-4-5; vertex 6 is alone.
	clampIslands([]uint32{0, 1, 2, 3, 4, 5}, assigned)
	want := []int{0, 0, 0, 1, 1, 1, 2}
	for i := range want {
		if assigned[i] != want[i] {
			t.Fatalf("assigned = %v, want %v", assigned, want)
		}
	}
}

func TestGenerate_TableErrors(t *testing.T) {
	table := &node.Table{
		Name:    "Skins",
		Columns: []node.Column{{Name: "Tint", Type: node.ColumnColor}, {Name: "Gloss", Type: node.ColumnScalar}},
		Rows: []node.Row{
			{ID: 1, Values: []node.Cell{{Color: resource.Vec4{1, 0, 0, 1}}, {Scalar: 0.2}}},
			{ID: 2, Values: []node.Cell{{Color: resource.Vec4{0, 1, 0, 1}}, {Scalar: 0.8}}},
		},
	}

	tests := []struct {
		name  string
		src   node.TableSource
		error string
	}{
		{"empty", node.TableSource{Table: &node.Table{Name: "Empty"}, ColumnName: "Gloss"}, "The table has no rows."},
		{"missing column", node.TableSource{Table: table, ColumnName: "Rough"}, "Table column not found."},
		{"wrong type", node.TableSource{Table: table, ColumnName: "Tint"}, "Table column type is not the right type."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, log := newTestGenerator(DefaultOptions())
			v := g.generateScalar(genOptions{}, &node.ScalarTable{TableSource: tt.src})
			c, ok := v.(*op.ConstantScalar)
			if !ok || c.Value != -math.MaxFloat32 {
				t.Errorf("fallback = %#v, want the default table scalar", v)
			}
			if !hasMessage(log, errlog.Error, tt.error) {
				t.Errorf("missing error %q", tt.error)
			}
		})
	}

	t.Run("valid", func(t *testing.T) {
		g, log := newTestGenerator(DefaultOptions())
		v := g.generateScalar(genOptions{}, &node.ScalarTable{TableSource: node.TableSource{Table: table, ColumnName: "Gloss"}})
		sw, ok := v.(*op.Switch)
		if !ok {
			t.Fatalf("table scalar is %T, want *op.Switch", v)
		}
		if len(sw.Cases) != 2 {
			t.Errorf("got %d cases, want 2", len(sw.Cases))
		}
		if log.Count(errlog.Error) != 0 {
			t.Errorf("unexpected errors: %v", log.Messages())
		}
	})
}

func TestGenerate_Tiling(t *testing.T) {
	tests := []struct {
		name    string
		tile    uint16
		size    resource.ImageSize
		patches int
	}{
		{"disabled", 0, resource.ImageSize{64, 64}, 0},
		{"two tiles", 32, resource.ImageSize{64, 32}, 0},
		{"six tiles", 16, resource.ImageSize{48, 32}, 6},
		{"partial tiles", 32, resource.ImageSize{80, 40}, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.ImageTiling = tt.tile
			g, _ := newTestGenerator(opts)

			src := &op.ConstantImage{Value: resource.NewPlainImage(tt.size[0], tt.size[1], resource.FormatRGBAUByte, resource.Vec4{1, 1, 1, 1})}
			out := g.applyTiling(src, tt.size, resource.FormatRGBAUByte)

			patches := 0
			op.Walk([]op.Op{out}, func(o op.Op) bool {
				if _, ok := o.(*op.ImagePatchOp); ok {
					patches++
				}
				return true
			})
			if patches != tt.patches {
				t.Errorf("got %d patches, want %d", patches, tt.patches)
			}
			if tt.patches == 0 && out != op.Op(src) {
				t.Error("untiled image should be returned unchanged")
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Modifiers
// ---------------------------------------------------------------------------

func modBase(tags ...string) node.ModifierBase {
	return node.ModifierBase{RequiredTags: tags, RequiredComponentID: node.NoComponent}
}

// shiftedMesh is a triangle that is never similar to triangleMesh.
func shiftedMesh(y float32) *node.MeshConstant {
	m := triangleMesh()
	m.Positions[2] = resource.Vec3{0, y, 0}
	return &node.MeshConstant{Value: m}
}

func plainImage(c resource.Vec4) *node.ImageConstant {
	return &node.ImageConstant{Value: resource.NewPlainImage(64, 64, resource.FormatRGBAUByte, c)}
}

// generateModified generates surface s of a single component object that
// carries mods.
func generateModified(t *testing.T, opts Options, s *node.SurfaceNew, mods ...node.Modifier) (surfaceResult, *errlog.Log) {
	t.Helper()
	root := testObject(s)
	root.Modifiers = mods
	g, log := runPasses(t, root, opts)
	return g.generateSurface(0, 1), log
}

func collect[T op.Op](root op.Op) []T {
	var found []T
	op.Walk([]op.Op{root}, func(o op.Op) bool {
		if v, ok := o.(T); ok {
			found = append(found, v)
		}
		return true
	})
	return found
}

func TestGenerate_MeshModifiers(t *testing.T) {
	morphed := triangleMesh()
	morphed.Morphs = []resource.Morph{{Name: "Smile", Target: shiftedMesh(0.5).Value}}

	addTo := func(enable ...string) *node.ModifierSurfaceEdit {
		m := &node.ModifierSurfaceEdit{ModifierBase: modBase("T"), LODs: []node.SurfaceEditLOD{{MeshAdd: shiftedMesh(2)}}}
		m.EnableTags = enable
		return m
	}
	removeFrom := func(y float32) *node.ModifierSurfaceEdit {
		return &node.ModifierSurfaceEdit{ModifierBase: modBase("T"), LODs: []node.SurfaceEditLOD{{MeshRemove: shiftedMesh(y)}}}
	}

	tests := []struct {
		name    string
		surface *node.SurfaceNew
		mods    []node.Modifier
		check   func(t *testing.T, mesh op.Op, log *errlog.Log)
	}{
		{
			name: "add merges the fragment",
			mods: []node.Modifier{addTo("E")},
			check: func(t *testing.T, mesh op.Op, _ *errlog.Log) {
				merge, ok := mesh.(*op.MeshMergeOp)
				if !ok {
					t.Fatalf("mesh is %T, want *op.MeshMergeOp", mesh)
				}
				if _, ok := merge.Base.(*op.ConstantMesh); !ok {
					t.Errorf("merge base is %T, want the surface mesh", merge.Base)
				}
			},
		},
		{
			name: "self enabling add is applied once",
			mods: []node.Modifier{addTo("T")},
			check: func(t *testing.T, mesh op.Op, _ *errlog.Log) {
				if n := len(collect[*op.MeshMergeOp](mesh)); n != 1 {
					t.Errorf("got %d merges, want 1", n)
				}
			},
		},
		{
			name: "added fragment gets the modifiers of its tags",
			mods: []node.Modifier{
				addTo("E"),
				&node.ModifierSurfaceEdit{ModifierBase: modBase("E"), LODs: []node.SurfaceEditLOD{{MeshAdd: shiftedMesh(3)}}},
			},
			check: func(t *testing.T, mesh op.Op, _ *errlog.Log) {
				merge := mesh.(*op.MeshMergeOp)
				if _, ok := merge.Added.(*op.MeshMergeOp); !ok {
					t.Errorf("added fragment is %T, want a nested merge", merge.Added)
				}
				if n := len(collect[*op.MeshMergeOp](mesh)); n != 2 {
					t.Errorf("got %d merges, want 2", n)
				}
			},
		},
		{
			name: "removals share one operation",
			mods: []node.Modifier{removeFrom(2), removeFrom(3)},
			check: func(t *testing.T, mesh op.Op, _ *errlog.Log) {
				removes := collect[*op.MeshRemoveMaskOp](mesh)
				if len(removes) != 1 || len(removes[0].Removes) != 2 {
					t.Fatalf("removes = %+v, want one operation with two entries", removes)
				}
				for _, r := range removes[0].Removes {
					if f, ok := r.Mask.(*op.Fixed); !ok || f.Code != op.MeshMaskDiff {
						t.Errorf("remove mask = %#v, want a mask difference", r.Mask)
					}
					if !op.IsTrue(r.Condition) {
						t.Errorf("remove condition = %v, want true", r.Condition)
					}
				}
			},
		},
		{
			name:    "morph towards a named target",
			surface: &node.SurfaceNew{Name: "S", SharedSurfaceID: node.NoSharedSurface, Mesh: &node.MeshConstant{Value: morphed}, Tags: []string{"T"}},
			mods: []node.Modifier{&node.ModifierSurfaceEdit{
				ModifierBase: modBase("T"),
				MeshMorph:    "Smile",
				MorphFactor:  &node.ScalarConstant{Value: 0.5},
			}},
			check: func(t *testing.T, mesh op.Op, _ *errlog.Log) {
				morph, ok := mesh.(*op.MeshMorphOp)
				if !ok {
					t.Fatalf("mesh is %T, want *op.MeshMorphOp", mesh)
				}
				diff, ok := morph.Target.(*op.MeshDifferenceOp)
				if !ok || !diff.IgnoreTexCoords || diff.Base != morph.Base {
					t.Errorf("morph target = %#v, want a difference from the base mesh", morph.Target)
				}
				if c, ok := morph.Factor.(*op.ConstantScalar); !ok || c.Value != 0.5 {
					t.Errorf("morph factor = %#v", morph.Factor)
				}
			},
		},
		{
			name: "missing morph target",
			mods: []node.Modifier{&node.ModifierSurfaceEdit{ModifierBase: modBase("T"), MeshMorph: "Frown"}},
			check: func(t *testing.T, mesh op.Op, log *errlog.Log) {
				if len(collect[*op.MeshMorphOp](mesh)) != 0 {
					t.Error("unexpected morph")
				}
				if !hasMessage(log, errlog.Warning, "Mesh morph [Frown] not found in the base mesh.") {
					t.Error("missing morph warning")
				}
			},
		},
		{
			name: "clip with mesh",
			mods: []node.Modifier{&node.ModifierMeshClipWithMesh{ModifierBase: modBase("T"), ClipMesh: shiftedMesh(4)}},
			check: func(t *testing.T, mesh op.Op, _ *errlog.Log) {
				rm, ok := mesh.(*op.MeshRemoveMaskOp)
				if !ok || len(rm.Removes) != 1 {
					t.Fatalf("mesh = %#v, want one clip removal", mesh)
				}
				if f, ok := rm.Removes[0].Mask.(*op.Fixed); !ok || f.Code != op.MeshMaskClipMesh {
					t.Errorf("clip mask = %#v", rm.Removes[0].Mask)
				}
			},
		},
		{
			name: "clip without mesh",
			mods: []node.Modifier{&node.ModifierMeshClipWithMesh{ModifierBase: modBase("T")}},
			check: func(t *testing.T, mesh op.Op, log *errlog.Log) {
				if _, ok := mesh.(*op.ConstantMesh); !ok {
					t.Errorf("mesh is %T, want the unmodified constant", mesh)
				}
				if !hasMessage(log, errlog.Error, "Required connection not found: Clip mesh") {
					t.Error("missing connection error")
				}
			},
		},
		{
			name: "clip morph plane",
			mods: []node.Modifier{&node.ModifierMeshClipMorphPlane{
				ModifierBase:         modBase("T"),
				ClipMorphPlaneParams: node.ClipMorphPlaneParams{Normal: resource.Vec3{0, 0, 1}, Radius1: 1, Radius2: 1, Factor: 1},
			}},
			check: func(t *testing.T, mesh op.Op, _ *errlog.Log) {
				clip, ok := mesh.(*op.MeshClipMorphPlaneOp)
				if !ok {
					t.Fatalf("mesh is %T, want *op.MeshClipMorphPlaneOp", mesh)
				}
				if clip.MorphShape.Up != (resource.Vec3{0, 0, 1}) {
					t.Errorf("plane normal = %v", clip.MorphShape.Up)
				}
			},
		},
		{
			name: "clip deform",
			mods: []node.Modifier{&node.ModifierMeshClipDeform{ModifierBase: modBase("T"), ClipMesh: shiftedMesh(5)}},
			check: func(t *testing.T, mesh op.Op, _ *errlog.Log) {
				clip, ok := mesh.(*op.MeshClipDeformOp)
				if !ok {
					t.Fatalf("mesh is %T, want *op.MeshClipDeformOp", mesh)
				}
				if bind, ok := clip.Mesh.(*op.MeshBindShapeOp); !ok || bind.Shape != clip.ClipShape {
					t.Errorf("clip deform source = %#v, want the mesh bound to the clip shape", clip.Mesh)
				}
			},
		},
		{
			name: "transform in mesh",
			mods: []node.Modifier{&node.ModifierMeshTransformInMesh{ModifierBase: modBase("T"), BoundingMesh: shiftedMesh(6)}},
			check: func(t *testing.T, mesh op.Op, _ *errlog.Log) {
				tr, ok := mesh.(*op.MeshTransformWithBoundingMeshOp)
				if !ok {
					t.Fatalf("mesh is %T, want *op.MeshTransformWithBoundingMeshOp", mesh)
				}
				if m, ok := tr.Matrix.(*op.ConstantMatrix); !ok || m.Value != resource.Identity() {
					t.Errorf("matrix = %#v, want identity", tr.Matrix)
				}
				if tr.BoundingMesh == nil {
					t.Error("missing bounding mesh")
				}
			},
		},
		{
			name: "stages run in order",
			mods: []node.Modifier{
				&node.ModifierMeshClipWithMesh{ModifierBase: modBase("T"), ClipMesh: shiftedMesh(4)},
				removeFrom(3),
				addTo("E"),
			},
			check: func(t *testing.T, mesh op.Op, _ *errlog.Log) {
				clip, ok := mesh.(*op.MeshRemoveMaskOp)
				if !ok {
					t.Fatalf("mesh is %T, want the clip removal", mesh)
				}
				edit, ok := clip.Source.(*op.MeshRemoveMaskOp)
				if !ok {
					t.Fatalf("clip source is %T, want the edit removal", clip.Source)
				}
				if _, ok := edit.Source.(*op.MeshMergeOp); !ok {
					t.Errorf("removal source is %T, want the merge", edit.Source)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.surface
			if s == nil {
				s = testSurface("S", "T")
			}
			r, log := generateModified(t, DefaultOptions(), s, tt.mods...)
			tt.check(t, r.MeshOp, log)
		})
	}
}

func TestGenerate_ModifierCondition(t *testing.T) {
	root := testObject(testSurface("S", "T"))
	root.Children = []node.Object{&node.ObjectGroup{
		Name: "Options",
		Type: node.GroupToggleEach,
		Children: []node.Object{&node.ObjectNew{
			Name:      "Clipper",
			Modifiers: []node.Modifier{&node.ModifierMeshClipWithMesh{ModifierBase: modBase("T"), ClipMesh: shiftedMesh(4)}},
		}},
	}}
	g, _ := runPasses(t, root, DefaultOptions())
	mesh := g.generateSurface(0, 1).MeshOp

	c, ok := mesh.(*op.Conditional)
	if !ok {
		t.Fatalf("mesh is %T, want a conditional on the toggle", mesh)
	}
	if _, ok := c.Yes.(*op.MeshRemoveMaskOp); !ok {
		t.Errorf("yes branch is %T, want the clip", c.Yes)
	}
	if _, ok := c.No.(*op.ConstantMesh); !ok {
		t.Errorf("no branch is %T, want the unclipped mesh", c.No)
	}
	params := collect[*op.Parameter](c.Condition)
	if len(params) != 1 || params[0].Desc.Name != "Clipper" {
		t.Errorf("condition parameters = %v, want the Clipper toggle", params)
	}
}

func TestGenerate_ModifierSelection(t *testing.T) {
	clip := func(base node.ModifierBase) node.Modifier {
		return &node.ModifierMeshClipWithMesh{ModifierBase: base, ClipMesh: shiftedMesh(4)}
	}
	withPolicy := func(p node.TagsPolicy, tags ...string) node.ModifierBase {
		b := modBase(tags...)
		b.Policy = p
		return b
	}
	withComponent := func(id int32) node.ModifierBase {
		b := modBase("T")
		b.RequiredComponentID = id
		return b
	}

	tests := []struct {
		name    string
		tags    []string
		base    node.ModifierBase
		applied bool
	}{
		{"all required missing one", []string{"T"}, withPolicy(node.AllRequired, "T", "U"), false},
		{"all required present", []string{"T", "U"}, withPolicy(node.AllRequired, "T", "U"), true},
		{"only one required", []string{"T"}, withPolicy(node.OnlyOneRequired, "T", "U"), true},
		{"only one required none present", []string{"V"}, withPolicy(node.OnlyOneRequired, "T", "U"), false},
		{"no required tags", []string{"T"}, modBase(), false},
		{"any component", []string{"T"}, withComponent(node.NoComponent), true},
		{"same component", []string{"T"}, withComponent(1), true},
		{"other component", []string{"T"}, withComponent(2), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := generateModified(t, DefaultOptions(), testSurface("S", tt.tags...), clip(tt.base))
			_, clipped := r.MeshOp.(*op.MeshRemoveMaskOp)
			if clipped != tt.applied {
				t.Errorf("modifier applied = %v, want %v", clipped, tt.applied)
			}
		})
	}
}

// texturedSurface has an Albedo texture packed in testLayout.
func texturedSurface() *node.SurfaceNew {
	return &node.SurfaceNew{
		Name:            "S",
		SharedSurfaceID: node.NoSharedSurface,
		Mesh:            &node.MeshConstant{Value: triangleMesh(), Layouts: []*node.Layout{testLayout()}},
		Tags:            []string{"T"},
		Images: []node.SurfaceImage{{
			Name:                  "Albedo",
			Image:                 plainImage(resource.Vec4{1, 1, 1, 1}),
			MaterialParameterName: "Albedo",
		}},
	}
}

func TestGenerate_ImageModifiers(t *testing.T) {
	patch := func(parameter string, rects ...resource.Box2) node.Modifier {
		return &node.ModifierSurfaceEdit{
			ModifierBase: modBase("T"),
			LODs: []node.SurfaceEditLOD{{Textures: []node.SurfaceEditTexture{{
				MaterialParameterName: parameter,
				PatchImage:            plainImage(resource.Vec4{1, 0, 0, 1}),
				PatchRects:            rects,
			}}}},
		}
	}
	extend := func(img node.Image) node.Modifier {
		added := shiftedMesh(2)
		added.Layouts = []*node.Layout{testLayout()}
		return &node.ModifierSurfaceEdit{
			ModifierBase: modBase("T"),
			LODs: []node.SurfaceEditLOD{{
				MeshAdd:  added,
				Textures: []node.SurfaceEditTexture{{MaterialParameterName: "Albedo", Extend: img}},
			}},
		}
	}
	whole := resource.Box2{Max: resource.Vec2{1, 1}}
	right := resource.Box2{Min: resource.Vec2{0.6, 0}, Max: resource.Vec2{1, 1}}

	tests := []struct {
		name     string
		mod      node.Modifier
		layers   int
		composes int
		warning  string
		error    string
	}{
		{name: "patch every block", mod: patch("Albedo", whole), layers: 2, composes: 2},
		{name: "patch one block", mod: patch("Albedo", right), layers: 1, composes: 2},
		{name: "patch other texture", mod: patch("Normal", whole), composes: 2,
			warning: "A mesh section modifier applies to a section but no texture matches."},
		{name: "extend added blocks", mod: extend(plainImage(resource.Vec4{0, 0, 1, 1})), composes: 4},
		{name: "extend without texture", mod: extend(nil), composes: 2,
			error: "Required texture [Albedo] is missing when trying to extend a mesh section."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, log := generateModified(t, DefaultOptions(), texturedSurface(), tt.mod)
			if n := len(collect[*op.ImageLayerOp](r.SurfaceOp)); n != tt.layers {
				t.Errorf("got %d patch layers, want %d", n, tt.layers)
			}
			if n := len(collect[*op.ImageComposeOp](r.SurfaceOp)); n != tt.composes {
				t.Errorf("got %d block composes, want %d", n, tt.composes)
			}
			if tt.warning != "" && !hasMessage(log, errlog.Warning, tt.warning) {
				t.Errorf("missing warning %q", tt.warning)
			}
			if tt.error != "" && !hasMessage(log, errlog.Error, tt.error) {
				t.Errorf("missing error %q", tt.error)
			}
		})
	}
}

func TestGenerate_DeferredFinish(t *testing.T) {
	white := plainImage(resource.Vec4{1, 1, 1, 1})
	black := plainImage(resource.Vec4{0, 0, 0, 1})
	bgr := []uint8{2, 1, 0}

	t.Run("single source swizzle", func(t *testing.T) {
		s := texturedSurface()
		s.Images[0].Image = &node.ImageFormat{
			Format: resource.FormatRGBUByte,
			Source: &node.ImageMipmap{Source: &node.ImageSwizzle{
				Sources:  []node.Image{white, white, white},
				Channels: bgr,
				Format:   resource.FormatRGBUByte,
			}},
		}
		r, _ := generateModified(t, DefaultOptions(), s)

		add := r.SurfaceOp.(*op.InstanceAdd)
		format, ok := add.Value.(*op.ImageFormatOp)
		if !ok {
			t.Fatalf("texture is %T, want the format conversion on top", add.Value)
		}
		mip, ok := format.Source.(*op.ImageMipmapOp)
		if !ok {
			t.Fatalf("format source is %T, want mipmaps", format.Source)
		}
		sw, ok := mip.Source.(*op.ImageSwizzleOp)
		if !ok {
			t.Fatalf("mipmap source is %T, want the swizzle", mip.Source)
		}
		if len(sw.Sources) != 3 {
			t.Fatalf("swizzle has %d sources, want 3", len(sw.Sources))
		}
		for _, src := range sw.Sources {
			if _, ok := src.(*op.ImageComposeOp); !ok {
				t.Errorf("swizzle source is %T, want the composed image", src)
			}
		}
		if n := len(collect[*op.ImageSwizzleOp](r.SurfaceOp)); n != 1 {
			t.Errorf("got %d swizzles, want 1", n)
		}
	})

	t.Run("mixed source swizzle", func(t *testing.T) {
		s := texturedSurface()
		s.Images[0].Image = &node.ImageSwizzle{
			Sources:  []node.Image{white, black, white},
			Channels: bgr,
			Format:   resource.FormatRGBUByte,
		}
		r, _ := generateModified(t, DefaultOptions(), s)
		if n := len(collect[*op.ImageSwizzleOp](r.SurfaceOp)); n != 2 {
			t.Errorf("got %d swizzles, want one per block", n)
		}
	})
}

func TestInferFinish(t *testing.T) {
	src := plainImage(resource.Vec4{1, 1, 1, 1})
	single := &node.ImageSwizzle{Sources: []node.Image{src, src}, Format: resource.FormatRGBUByte}
	mixed := &node.ImageSwizzle{Sources: []node.Image{src, plainImage(resource.Vec4{})}}

	tests := []struct {
		name    string
		image   node.Image
		source  node.Image
		swizzle bool
		mipmaps bool
	}{
		{"plain", src, src, false, false},
		{"mipmapped swizzle", &node.ImageMipmap{Source: single}, src, true, true},
		{"mixed swizzle", &node.ImageMipmap{Source: mixed}, mixed, false, true},
		{"nested swizzles", &node.ImageSwizzle{Sources: []node.Image{single}}, single, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := inferFinish(tt.image)
			if f.Source != tt.source {
				t.Errorf("source = %#v, want %#v", f.Source, tt.source)
			}
			if (f.Swizzle != nil) != tt.swizzle || f.Mipmaps != tt.mipmaps {
				t.Errorf("finish = %+v", f)
			}
		})
	}
}
