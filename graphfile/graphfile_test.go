package graphfile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/mutable/compiler"
	"github.com/chazu/mutable/errlog"
	"github.com/chazu/mutable/node"
	"github.com/chazu/mutable/resource"
)

const avatarCUE = `
#Triangle: {
	kind: "mesh"
	positions: [[0, 0, 0], [1, 0, 0], [0, 1, 0]]
	uvs: [[[0.1, 0.1], [0.4, 0.1], [0.1, 0.4]]]
	indices: [0, 1, 2]
}

#Hat: {kind: "scalarParameter", name: "Hat", default: 0}

kind: "object"
name: "Avatar"
states: [{name: "Editor", runtimeParams: ["Hat"]}]
components: [{
	kind: "component"
	name: "Body"
	id:   1
	lods: [[
		{kind: "surface", name: "Skin", mesh: #Triangle, vectors: [{name: "Tint", value: [1, 0.5, 0.5, 1]}]},
		{
			kind:      "surfaceSwitch"
			parameter: #Hat
			options: [
				{kind: "surface", name: "Cap", mesh: #Triangle, tags: ["Covered"]},
				{kind: "surface", name: "Helmet", mesh: #Triangle, tags: ["Covered"], scalars: [{name: "Gloss", value: {kind: "arithmetic", op: "mul", a: #Hat, b: 0.5}}]},
			]
		},
		{
			kind: "surfaceVariation"
			defaults: [{kind: "surface", name: "Hair", mesh: #Triangle}]
			variations: [{tag: "Covered", surfaces: []}]
		},
	]]
}]
`

func TestDecode_CUE(t *testing.T) {
	root, err := Decode([]byte(avatarCUE), "avatar.cue", Options{Project: "test"})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	obj, ok := root.(*node.ObjectNew)
	if !ok || obj.Name != "Avatar" {
		t.Fatalf("root = %#v", root)
	}
	if len(obj.States) != 1 || obj.States[0].RuntimeParams[0] != "Hat" {
		t.Errorf("states = %+v", obj.States)
	}

	comp := obj.Components[0].(*node.ComponentNew)
	if comp.ID != 1 || len(comp.LODs) != 1 || len(comp.LODs[0].Surfaces) != 3 {
		t.Fatalf("component = %+v", comp)
	}

	skin := comp.LODs[0].Surfaces[0].(*node.SurfaceNew)
	if skin.SharedSurfaceID != node.NoSharedSurface {
		t.Errorf("shared surface id = %d, want none", skin.SharedSurfaceID)
	}
	mesh := skin.Mesh.(*node.MeshConstant).Value
	if len(mesh.Positions) != 3 || len(mesh.UVs) != 1 || mesh.UVs[0][1][0] != 0.4 {
		t.Errorf("mesh = %+v", mesh)
	}
	if c := skin.Vectors[0].Value.(*node.ColorConstant); c.Value[1] != 0.5 {
		t.Errorf("tint = %v", c.Value)
	}

	sw := comp.LODs[0].Surfaces[1].(*node.SurfaceSwitch)
	helmet := sw.Options[1].(*node.SurfaceNew)
	arith := helmet.Scalars[0].Value.(*node.ScalarArithmetic)
	if arith.A != sw.Parameter {
		t.Error("parameters with the same name should be one node")
	}
	if b := arith.B.(*node.ScalarConstant); b.Value != 0.5 {
		t.Errorf("constant = %v, want 0.5", b.Value)
	}

	v := comp.LODs[0].Surfaces[2].(*node.SurfaceVariation)
	if v.Type != node.VariationTag || v.Variations[0].Tag != "Covered" {
		t.Errorf("variation = %+v", v)
	}
}

const modifiedCUE = `
#Triangle: {
	kind: "mesh"
	positions: [[0, 0, 0], [1, 0, 0], [0, 1, 0]]
	uvs: [[[0.1, 0.1], [0.4, 0.1], [0.1, 0.4]]]
	indices: [0, 1, 2]
}

kind: "object"
name: "Avatar"
components: [{
	kind: "component"
	name: "Body"
	id:   1
	lods: [[{
		kind: "surface"
		name: "Skin"
		tags: ["Covered"]
		mesh: {
			kind: "mesh"
			positions: [[0, 0, 0], [1, 0, 0], [0, 1, 0]]
			uvs: [[[0.1, 0.1], [0.4, 0.1], [0.1, 0.4]]]
			indices: [0, 1, 2]
			layouts: [{size: [2, 2], maxSize: [4, 4], blocks: [{min: [0, 0], size: [1, 1]}, {min: [1, 0], size: [1, 2], priority: 1}]}]
		}
		images: [{
			name: "Albedo"
			image: {
				kind:   "format"
				format: "bc1"
				source: {kind: "mipmap", filter: "sharpen", source: {kind: "image", width: 64, height: 64, colour: [1, 1, 1, 1]}}
			}
		}]
	}]]
}]
modifiers: [
	{kind: "clipWithMesh", name: "Sleeve", requiredTags: ["Covered"], faceCull: "one", clipMesh: #Triangle},
	{
		kind:         "surfaceEdit"
		requiredTags: ["Covered"]
		component:    1
		lods: [{textures: [{
			parameter:  "Albedo"
			patch:      {kind: "image", width: 64, height: 64, colour: [1, 0, 0, 1]}
			patchRects: [[0, 0, 1, 1]]
			patchBlend: "multiply"
		}]}]
	},
	{kind: "transformInMesh", requiredTags: ["Covered"], boundingMesh: #Triangle, matrix: [1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1]},
]
`

func TestDecode_ImagesAndModifiers(t *testing.T) {
	root, err := Decode([]byte(modifiedCUE), "modified.cue", Options{})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	obj := root.(*node.ObjectNew)
	skin := obj.Components[0].(*node.ComponentNew).LODs[0].Surfaces[0].(*node.SurfaceNew)

	layouts := skin.Mesh.(*node.MeshConstant).Layouts
	if len(layouts) != 1 || len(layouts[0].Blocks) != 2 || layouts[0].Blocks[1].Priority != 1 {
		t.Errorf("layouts = %+v", layouts)
	}
	if len(skin.Images) != 1 || skin.Images[0].MaterialParameterName != "Albedo" {
		t.Fatalf("images = %+v", skin.Images)
	}
	format, ok := skin.Images[0].Image.(*node.ImageFormat)
	if !ok || format.Format != resource.FormatBC1 {
		t.Fatalf("image = %#v, want a BC1 format node", skin.Images[0].Image)
	}
	mip, ok := format.Source.(*node.ImageMipmap)
	if !ok || mip.Filter != node.MipmapFilterSharpen {
		t.Fatalf("format source = %#v, want a sharpened mipmap", format.Source)
	}
	if c, ok := mip.Source.(*node.ImageConstant); !ok || c.Value.Width != 64 {
		t.Errorf("mipmap source = %#v, want a 64 pixel constant", mip.Source)
	}

	if len(obj.Modifiers) != 3 {
		t.Fatalf("got %d modifiers, want 3", len(obj.Modifiers))
	}
	clip := obj.Modifiers[0].(*node.ModifierMeshClipWithMesh)
	if clip.Name != "Sleeve" || clip.FaceCullStrategy != node.CullOneVertexCulled ||
		clip.RequiredComponentID != node.NoComponent || clip.ClipMesh == nil {
		t.Errorf("clip = %+v", clip)
	}
	edit := obj.Modifiers[1].(*node.ModifierSurfaceEdit)
	tex := edit.LODs[0].Textures[0]
	if edit.RequiredComponentID != 1 || tex.PatchBlendType != node.BlendMultiply ||
		len(tex.PatchRects) != 1 || tex.PatchRects[0].Max != (resource.Vec2{1, 1}) {
		t.Errorf("edit = %+v, texture = %+v", edit, tex)
	}
	tr := obj.Modifiers[2].(*node.ModifierMeshTransformInMesh)
	if m, ok := tr.Matrix.(*node.MatrixConstant); !ok || m.Value != resource.Identity() {
		t.Errorf("matrix = %#v, want identity", tr.Matrix)
	}

	prog, log, err := compiler.Compile(context.Background(), root, compiler.DefaultOptions())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if n := log.Count(errlog.Error); n != 0 {
		t.Errorf("got %d errors: %v", n, log.Messages())
	}
	if prog.OpCount() == 0 {
		t.Error("compiled program is empty")
	}
}

func TestDecode_ImageKinds(t *testing.T) {
	tests := []struct {
		name  string
		image string
		check func(node.Image) bool
	}{
		{"reference", `{kind: "imageReference", id: 7}`, func(i node.Image) bool {
			return i.(*node.ImageReference).ID == 7
		}},
		{"parameter", `{kind: "imageParameter", name: "Logo"}`, func(i node.Image) bool {
			p := i.(*node.ImageParameter)
			return p.Name == "Logo" && p.UID != ""
		}},
		{"plain colour", `{kind: "plainColour", colour: [0, 0, 1, 1], size: [8, 4]}`, func(i node.Image) bool {
			p := i.(*node.ImagePlainColour)
			return p.SizeX == 8 && p.SizeY == 4
		}},
		{"switch", `{kind: "imageSwitch", parameter: {kind: "scalarParameter", name: "Pick"},
			options: [{kind: "imageReference", id: 1}, {kind: "imageReference", id: 2}]}`, func(i node.Image) bool {
			return len(i.(*node.ImageSwitch).Options) == 2
		}},
		{"layer", `{kind: "layer", base: {kind: "imageReference", id: 1}, blended: {kind: "imageReference", id: 2}, blend: "screen"}`,
			func(i node.Image) bool {
				l := i.(*node.ImageLayer)
				return l.Type == node.BlendScreen && l.Mask == nil && l.Blended != nil
			}},
		{"swizzle", `{kind: "swizzle", format: "rgb", sources: [{kind: "imageReference", id: 1}, {kind: "imageReference", id: 1}, {kind: "imageReference", id: 2}], channels: [2, 1, 0]}`,
			func(i node.Image) bool {
				s := i.(*node.ImageSwizzle)
				return s.Format == resource.FormatRGBUByte && len(s.Sources) == 3 && s.Channels[0] == 2
			}},
		{"resize", `{kind: "resize", source: {kind: "imageReference", id: 1}, x: 0.5, y: 0.5, relative: true}`, func(i node.Image) bool {
			r := i.(*node.ImageResize)
			return r.Relative && r.SizeX == 0.5
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := `{kind: "object", components: [{kind: "component", lods: [[{kind: "surface", images: [{name: "T", image: ` + tt.image + `}]}]]}]}`
			root, err := Decode([]byte(doc), "image.cue", Options{})
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			s := root.(*node.ObjectNew).Components[0].(*node.ComponentNew).LODs[0].Surfaces[0].(*node.SurfaceNew)
			if !tt.check(s.Images[0].Image) {
				t.Errorf("unexpected image %#v", s.Images[0].Image)
			}
		})
	}
}

func TestDecode_VariationModifiers(t *testing.T) {
	doc := `{kind: "object", components: [{kind: "component", lods: [[{
		kind: "surfaceVariation"
		defaultModifiers: [{kind: "clipMorphPlane", origin: [0, 1, 0], normal: [0, 0, 1], radius1: 2, factor: 1}]
		variations: [{tag: "Short", surfaces: [], modifiers: [{kind: "clipDeform", binding: "normalProject", clipMesh: {kind: "meshReference", id: 4}}]}]
	}]]}]}`
	root, err := Decode([]byte(doc), "variation.cue", Options{})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	v := root.(*node.ObjectNew).Components[0].(*node.ComponentNew).LODs[0].Surfaces[0].(*node.SurfaceVariation)
	plane := v.DefaultModifiers[0].(*node.ModifierMeshClipMorphPlane)
	if plane.Origin != (resource.Vec3{0, 1, 0}) || plane.Radius1 != 2 || plane.Factor != 1 {
		t.Errorf("plane = %+v", plane.ClipMorphPlaneParams)
	}
	deform := v.Variations[0].Modifiers[0].(*node.ModifierMeshClipDeform)
	if deform.BindingMethod != node.BindNormalProject || deform.ClipMesh.(*node.MeshReference).ID != 4 {
		t.Errorf("deform = %+v", deform)
	}
}

func TestDecode_UIDs(t *testing.T) {
	doc := `{
		"kind": "object",
		"name": "A",
		"components": [{"kind": "componentSwitch", "parameter": {"kind": "enumParameter", "name": "Style",
			"options": [{"value": 0, "name": "Plain"}, {"value": 1, "name": "Fancy"}]}, "options": []},
			{"kind": "componentSwitch", "parameter": {"kind": "scalarParameter", "name": "Fixed", "uid": "given"}, "options": []}]
	}`
	uidOf := func(project string, i int) string {
		root, err := Decode([]byte(doc), "a.json", Options{Project: project})
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		sw := root.(*node.ObjectNew).Components[i].(*node.ComponentSwitch)
		switch p := sw.Parameter.(type) {
		case *node.ScalarEnumParameter:
			if len(p.Options) != 2 || p.Options[1].Name != "Fancy" {
				t.Errorf("options = %+v", p.Options)
			}
			return p.UID
		case *node.ScalarParameter:
			return p.UID
		}
		t.Fatalf("parameter is %T", sw.Parameter)
		return ""
	}

	a, b := uidOf("one", 0), uidOf("one", 0)
	if a == "" || a != b {
		t.Errorf("generated uids %q and %q should be equal and non-empty", a, b)
	}
	if c := uidOf("two", 0); c == a {
		t.Error("uids should depend on the project")
	}
	if u := uidOf("one", 1); u != "given" {
		t.Errorf("explicit uid = %q, want given", u)
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"syntax", `kind: "object`, "parse error"},
		{"incomplete", `kind: string`, "invalid graph"},
		{"no kind", `name: "A"`, "node has no kind"},
		{"unknown object", `kind: "blob"`, `unknown object kind "blob"`},
		{"unknown group", `{kind: "group", type: "many"}`, `unknown group type "many"`},
		{"bad index", `{kind: "object", components: [{kind: "component", lods: [[{kind: "surface",
			mesh: {kind: "mesh", positions: [[0, 0, 0]], indices: [3]}}]]}]}`, "index 3 out of range"},
		{"bad vector", `{kind: "object", components: [{kind: "component", lods: [[{kind: "surface",
			mesh: {kind: "mesh", positions: [[0, 0]]}}]]}]}`, "want 3"},
		{"bad colour", `{kind: "object", components: [{kind: "component", lods: [[{kind: "surface",
			vectors: [{name: "C", value: [1, 2]}]}]]}]}`, "4 components"},
		{"unknown image", `{kind: "object", components: [{kind: "component", lods: [[{kind: "surface",
			images: [{name: "T", image: {kind: "photo"}}]}]]}]}`, `unknown image kind "photo"`},
		{"no image", `{kind: "object", components: [{kind: "component", lods: [[{kind: "surface",
			images: [{name: "T"}]}]]}]}`, "surface image has no image"},
		{"bad blend", `{kind: "object", components: [{kind: "component", lods: [[{kind: "surface",
			images: [{name: "T", image: {kind: "layer", blend: "smudge"}}]}]]}]}`, `unknown blend "smudge"`},
		{"bad swizzle", `{kind: "object", components: [{kind: "component", lods: [[{kind: "surface",
			images: [{name: "T", image: {kind: "swizzle", sources: [{kind: "imageReference"}], channels: []}}]}]]}]}`, "1 sources and 0 channels"},
		{"unknown modifier", `{kind: "object", modifiers: [{kind: "shrink"}]}`, `unknown modifier kind "shrink"`},
		{"bad policy", `{kind: "object", modifiers: [{kind: "clipWithMesh", policy: "most"}]}`, `unknown policy "most"`},
		{"bad matrix", `{kind: "object", modifiers: [{kind: "transformInMesh", matrix: [1, 0]}]}`, "16 components"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.doc), "bad.cue", Options{})
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestLoad_Compiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "avatar.cue")
	if err := os.WriteFile(path, []byte(avatarCUE), 0644); err != nil {
		t.Fatal(err)
	}
	root, err := Load(path, Options{Project: "test"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	prog, log, err := compiler.Compile(context.Background(), root, compiler.DefaultOptions())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if n := log.Count(errlog.Error); n != 0 {
		t.Errorf("got %d errors: %v", n, log.Messages())
	}
	if len(prog.Params) != 1 || prog.Params[0].Name != "Hat" {
		t.Errorf("params = %v", prog.Params)
	}
	if len(prog.States) != 1 || len(prog.States[0].DynamicResources) == 0 {
		t.Errorf("state = %+v, want resources depending on Hat", prog.States)
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "none.cue"), Options{}); err == nil {
		t.Error("expected an error for a missing file")
	}
}
