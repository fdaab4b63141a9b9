// Package graphfile loads customization node graphs written as CUE or JSON
// documents.
//
// Every node is a struct with a "kind" field. Plain numbers stand for
// constant scalars and lists of four numbers for constant colours:
//
//	kind: "object"
//	name: "Avatar"
//	states: [{name: "Editor", runtimeParams: ["Hat"]}]
//	components: [{
//		kind: "component"
//		name: "Body"
//		id:   1
//		lods: [[{kind: "surface", name: "Skin", mesh: {kind: "mesh", ...}}]]
//	}]
//
// Surfaces carry textures in an "images" list and objects carry modifiers
// in a "modifiers" list:
//
//	images: [{name: "Albedo", image: {kind: "mipmap", source: {kind: "image", width: 64, height: 64}}}]
//	modifiers: [{kind: "clipWithMesh", requiredTags: ["Covered"], clipMesh: {kind: "mesh", ...}}]
//
// Image kinds are image, imageReference, imageParameter, plainColour,
// imageSwitch, layer, mipmap, format, swizzle and resize. Modifier kinds are
// surfaceEdit, clipWithMesh, clipMorphPlane, clipDeform and transformInMesh.
// Image constants are plain colour fills; textures loaded from files come
// in through imageReference.
//
// Parameters are shared by name: every occurrence of a parameter with the
// same kind and name yields the same node. Parameters without a uid get a
// deterministic one derived from the project namespace.
package graphfile

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/google/uuid"

	"github.com/chazu/mutable/node"
	"github.com/chazu/mutable/resource"
)

// Options control loading.
type Options struct {
	// Project names the namespace of generated parameter uids.
	Project string
}

// Load reads and decodes the graph document at path.
func Load(path string, opts Options) (node.Object, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	return Decode(data, filepath.Base(path), opts)
}

// Decode evaluates a CUE or JSON document and builds its object graph.
func Decode(data []byte, filename string, opts Options) (node.Object, error) {
	v := cuecontext.New().CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", filename, err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("invalid graph %s: %w", filename, err)
	}

	d := &decoder{
		ns:     uuid.NewSHA1(uuid.NameSpaceURL, []byte("mutable:"+opts.Project)),
		params: make(map[string]node.Node),
	}
	root, err := d.object(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return root, nil
}

type decoder struct {
	ns     uuid.UUID
	params map[string]node.Node
}

// ---------------------------------------------------------------------------
// Field access
// ---------------------------------------------------------------------------

func pathError(v cue.Value, format string, args ...any) error {
	return fmt.Errorf("%s: %s", v.Path(), fmt.Sprintf(format, args...))
}

func field(v cue.Value, name string) (cue.Value, bool) {
	f := v.LookupPath(cue.MakePath(cue.Str(name)))
	return f, f.Exists()
}

func kindOf(v cue.Value) (string, error) {
	if v.Kind() != cue.StructKind {
		return "", pathError(v, "expected a node, got %v", v.Kind())
	}
	k, ok := field(v, "kind")
	if !ok {
		return "", pathError(v, "node has no kind")
	}
	return k.String()
}

func stringField(v cue.Value, name string) (string, error) {
	f, ok := field(v, name)
	if !ok {
		return "", nil
	}
	return f.String()
}

func intField(v cue.Value, name string, def int64) (int64, error) {
	f, ok := field(v, name)
	if !ok {
		return def, nil
	}
	return f.Int64()
}

func floatField(v cue.Value, name string) (float32, error) {
	f, ok := field(v, name)
	if !ok {
		return 0, nil
	}
	x, err := f.Float64()
	return float32(x), err
}

func stringsField(v cue.Value, name string) ([]string, error) {
	f, ok := field(v, name)
	if !ok {
		return nil, nil
	}
	var out []string
	if err := f.Decode(&out); err != nil {
		return nil, pathError(f, "%v", err)
	}
	return out, nil
}

// each calls fn for every element of the list field name.
func each(v cue.Value, name string, fn func(cue.Value) error) error {
	f, ok := field(v, name)
	if !ok {
		return nil
	}
	it, err := f.List()
	if err != nil {
		return pathError(f, "expected a list")
	}
	for it.Next() {
		if err := fn(it.Value()); err != nil {
			return err
		}
	}
	return nil
}

// vectors decodes a list of n-component number lists.
func vectors(v cue.Value, name string, n int) ([][]float32, error) {
	f, ok := field(v, name)
	if !ok {
		return nil, nil
	}
	var raw [][]float64
	if err := f.Decode(&raw); err != nil {
		return nil, pathError(f, "%v", err)
	}
	out := make([][]float32, len(raw))
	for i, r := range raw {
		if len(r) != n {
			return nil, pathError(f, "element %d has %d components, want %d", i, len(r), n)
		}
		out[i] = make([]float32, n)
		for j, x := range r {
			out[i][j] = float32(x)
		}
	}
	return out, nil
}

// lookup maps the string field name of v through table. def is used when
// the field is absent.
func lookup[T any](v cue.Value, name, def string, table map[string]T) (T, error) {
	var zero T
	s, err := stringField(v, name)
	if err != nil {
		return zero, err
	}
	if s == "" {
		s = def
	}
	x, ok := table[s]
	if !ok {
		return zero, pathError(v, "unknown %s %q", name, s)
	}
	return x, nil
}

func boolField(v cue.Value, name string) (bool, error) {
	f, ok := field(v, name)
	if !ok {
		return false, nil
	}
	return f.Bool()
}

// pair decodes a list of two non-negative integers.
func pair(v cue.Value, name string) ([2]uint16, error) {
	f, ok := field(v, name)
	if !ok {
		return [2]uint16{}, nil
	}
	var raw []uint16
	if err := f.Decode(&raw); err != nil {
		return [2]uint16{}, pathError(f, "%v", err)
	}
	if len(raw) != 2 {
		return [2]uint16{}, pathError(f, "expected 2 components, got %d", len(raw))
	}
	return [2]uint16{raw[0], raw[1]}, nil
}

func vec3Field(v cue.Value, name string) (resource.Vec3, error) {
	f, ok := field(v, name)
	if !ok {
		return resource.Vec3{}, nil
	}
	var raw []float64
	if err := f.Decode(&raw); err != nil {
		return resource.Vec3{}, pathError(f, "%v", err)
	}
	if len(raw) != 3 {
		return resource.Vec3{}, pathError(f, "expected 3 components, got %d", len(raw))
	}
	return resource.Vec3{float32(raw[0]), float32(raw[1]), float32(raw[2])}, nil
}

// uid returns the uid of a parameter declaration.
func (d *decoder) uid(v cue.Value, kind, name string) (string, error) {
	u, err := stringField(v, "uid")
	if err != nil || u != "" {
		return u, err
	}
	return uuid.NewSHA1(d.ns, []byte(kind+"/"+name)).String(), nil
}

// intern returns the node already declared for the parameter kind/name, or
// n after recording it.
func (d *decoder) intern(kind, name string, n node.Node) node.Node {
	key := kind + "/" + name
	if prev, ok := d.params[key]; ok {
		return prev
	}
	d.params[key] = n
	return n
}

// ---------------------------------------------------------------------------
// Objects and components
// ---------------------------------------------------------------------------

var groupTypes = map[string]node.GroupType{
	"toggle":    node.GroupToggleEach,
	"all":       node.GroupAlwaysAll,
	"oneOrNone": node.GroupOneOrNone,
	"one":       node.GroupAlwaysOne,
}

func (d *decoder) object(v cue.Value) (node.Object, error) {
	kind, err := kindOf(v)
	if err != nil {
		return nil, err
	}
	name, err := stringField(v, "name")
	if err != nil {
		return nil, err
	}
	uid, err := stringField(v, "uid")
	if err != nil {
		return nil, err
	}

	switch kind {
	case "object":
		n := &node.ObjectNew{Name: name, UID: uid}
		err := each(v, "components", func(c cue.Value) error {
			comp, err := d.component(c)
			n.Components = append(n.Components, comp)
			return err
		})
		if err == nil {
			err = each(v, "children", func(c cue.Value) error {
				child, err := d.object(c)
				n.Children = append(n.Children, child)
				return err
			})
		}
		if err == nil {
			err = each(v, "states", func(s cue.Value) error {
				var st struct {
					Name          string   `json:"name"`
					RuntimeParams []string `json:"runtimeParams"`
				}
				if err := s.Decode(&st); err != nil {
					return pathError(s, "%v", err)
				}
				n.States = append(n.States, node.State{Name: st.Name, RuntimeParams: st.RuntimeParams})
				return nil
			})
		}
		if err == nil {
			n.Modifiers, err = d.modifiers(v, "modifiers")
		}
		return n, err

	case "group":
		t, _ := stringField(v, "type")
		if t == "" {
			t = "toggle"
		}
		gt, ok := groupTypes[t]
		if !ok {
			return nil, pathError(v, "unknown group type %q", t)
		}
		def, err := intField(v, "default", -1)
		if err != nil {
			return nil, err
		}
		n := &node.ObjectGroup{Name: name, UID: uid, Type: gt, DefaultValue: int32(def)}
		err = each(v, "children", func(c cue.Value) error {
			child, err := d.object(c)
			n.Children = append(n.Children, child)
			return err
		})
		return n, err
	}
	return nil, pathError(v, "unknown object kind %q", kind)
}

func (d *decoder) component(v cue.Value) (node.Component, error) {
	kind, err := kindOf(v)
	if err != nil {
		return nil, err
	}

	switch kind {
	case "component":
		name, err := stringField(v, "name")
		if err != nil {
			return nil, err
		}
		id, err := intField(v, "id", 0)
		if err != nil {
			return nil, err
		}
		n := &node.ComponentNew{Name: name, ID: uint16(id)}
		err = each(v, "lods", func(l cue.Value) error {
			lod := &node.LOD{}
			it, err := l.List()
			if err != nil {
				return pathError(l, "a lod is a list of surfaces")
			}
			for it.Next() {
				s, err := d.surface(it.Value())
				if err != nil {
					return err
				}
				lod.Surfaces = append(lod.Surfaces, s)
			}
			n.LODs = append(n.LODs, lod)
			return nil
		})
		return n, err

	case "componentSwitch":
		p, err := d.scalarField(v, "parameter")
		if err != nil {
			return nil, err
		}
		n := &node.ComponentSwitch{Parameter: p}
		err = each(v, "options", func(o cue.Value) error {
			c, err := d.component(o)
			n.Options = append(n.Options, c)
			return err
		})
		return n, err

	case "componentVariation":
		n := &node.ComponentVariation{}
		if def, ok := field(v, "default"); ok {
			if n.Default, err = d.component(def); err != nil {
				return nil, err
			}
		}
		err = each(v, "variations", func(b cue.Value) error {
			tag, err := stringField(b, "tag")
			if err != nil {
				return err
			}
			f, ok := field(b, "node")
			if !ok {
				return pathError(b, "variation has no node")
			}
			c, err := d.component(f)
			n.Variations = append(n.Variations, node.TagBranch[node.Component]{Tag: tag, Node: c})
			return err
		})
		return n, err
	}
	return nil, pathError(v, "unknown component kind %q", kind)
}

// ---------------------------------------------------------------------------
// Surfaces and meshes
// ---------------------------------------------------------------------------

func (d *decoder) surfaces(v cue.Value, name string) ([]node.Surface, error) {
	var out []node.Surface
	err := each(v, name, func(s cue.Value) error {
		n, err := d.surface(s)
		out = append(out, n)
		return err
	})
	return out, err
}

func (d *decoder) surface(v cue.Value) (node.Surface, error) {
	kind, err := kindOf(v)
	if err != nil {
		return nil, err
	}

	switch kind {
	case "surface":
		name, err := stringField(v, "name")
		if err != nil {
			return nil, err
		}
		ext, err := intField(v, "externalId", 0)
		if err != nil {
			return nil, err
		}
		shared, err := intField(v, "sharedSurfaceId", node.NoSharedSurface)
		if err != nil {
			return nil, err
		}
		n := &node.SurfaceNew{Name: name, ExternalID: uint32(ext), SharedSurfaceID: int32(shared)}
		if n.Tags, err = stringsField(v, "tags"); err != nil {
			return nil, err
		}
		if n.Mesh, err = d.meshField(v, "mesh"); err != nil {
			return nil, err
		}
		if n.Images, err = d.surfaceImages(v); err != nil {
			return nil, err
		}
		err = each(v, "scalars", func(s cue.Value) error {
			name, err := stringField(s, "name")
			if err != nil {
				return err
			}
			val, err := d.scalarField(s, "value")
			n.Scalars = append(n.Scalars, node.SurfaceScalar{Name: name, Value: val})
			return err
		})
		if err == nil {
			err = each(v, "vectors", func(s cue.Value) error {
				name, err := stringField(s, "name")
				if err != nil {
					return err
				}
				f, ok := field(s, "value")
				if !ok {
					return pathError(s, "vector has no value")
				}
				val, err := d.color(f)
				n.Vectors = append(n.Vectors, node.SurfaceVector{Name: name, Value: val})
				return err
			})
		}
		return n, err

	case "surfaceSwitch":
		p, err := d.scalarField(v, "parameter")
		if err != nil {
			return nil, err
		}
		opts, err := d.surfaces(v, "options")
		return &node.SurfaceSwitch{Parameter: p, Options: opts}, err

	case "surfaceVariation":
		t, err := stringField(v, "type")
		if err != nil {
			return nil, err
		}
		n := &node.SurfaceVariation{}
		switch t {
		case "", "tag":
			n.Type = node.VariationTag
		case "state":
			n.Type = node.VariationState
		default:
			return nil, pathError(v, "unknown variation type %q", t)
		}
		if n.Defaults, err = d.surfaces(v, "defaults"); err != nil {
			return nil, err
		}
		if n.DefaultModifiers, err = d.modifiers(v, "defaultModifiers"); err != nil {
			return nil, err
		}
		err = each(v, "variations", func(b cue.Value) error {
			tag, err := stringField(b, "tag")
			if err != nil {
				return err
			}
			ss, err := d.surfaces(b, "surfaces")
			if err != nil {
				return err
			}
			mods, err := d.modifiers(b, "modifiers")
			n.Variations = append(n.Variations, node.SurfaceVariationOption{Tag: tag, Surfaces: ss, Modifiers: mods})
			return err
		})
		return n, err
	}
	return nil, pathError(v, "unknown surface kind %q", kind)
}

func (d *decoder) mesh(v cue.Value) (node.Mesh, error) {
	kind, err := kindOf(v)
	if err != nil {
		return nil, err
	}

	switch kind {
	case "mesh":
		m := &resource.Mesh{Source: resource.SourceData{SourceID: resource.NoSourceID}}
		pos, err := vectors(v, "positions", 3)
		if err != nil {
			return nil, err
		}
		for _, p := range pos {
			m.Positions = append(m.Positions, resource.Vec3(p))
		}
		nor, err := vectors(v, "normals", 3)
		if err != nil {
			return nil, err
		}
		for _, p := range nor {
			m.Normals = append(m.Normals, resource.Vec3(p))
		}
		err = each(v, "uvs", func(ch cue.Value) error {
			var raw [][]float64
			if err := ch.Decode(&raw); err != nil {
				return pathError(ch, "%v", err)
			}
			uvs := make([]resource.Vec2, len(raw))
			for i, uv := range raw {
				if len(uv) != 2 {
					return pathError(ch, "uv %d has %d components, want 2", i, len(uv))
				}
				uvs[i] = resource.Vec2{float32(uv[0]), float32(uv[1])}
			}
			m.UVs = append(m.UVs, uvs)
			return nil
		})
		if err != nil {
			return nil, err
		}
		if f, ok := field(v, "indices"); ok {
			if err := f.Decode(&m.Indices); err != nil {
				return nil, pathError(f, "%v", err)
			}
		}
		if m.Tags, err = stringsField(v, "tags"); err != nil {
			return nil, err
		}
		for _, i := range m.Indices {
			if int(i) >= len(m.Positions) {
				return nil, pathError(v, "index %d out of range for %d vertices", i, len(m.Positions))
			}
		}
		n := &node.MeshConstant{Value: m}
		err = each(v, "layouts", func(l cue.Value) error {
			layout, err := d.layout(l)
			n.Layouts = append(n.Layouts, layout)
			return err
		})
		return n, err

	case "meshReference":
		id, err := intField(v, "id", 0)
		if err != nil {
			return nil, err
		}
		force, _ := field(v, "forceLoad")
		b, _ := force.Bool()
		return &node.MeshReference{ID: uint32(id), ForceLoad: b}, nil

	case "meshSwitch":
		p, err := d.scalarField(v, "parameter")
		if err != nil {
			return nil, err
		}
		n := &node.MeshSwitch{Parameter: p}
		err = each(v, "options", func(o cue.Value) error {
			m, err := d.mesh(o)
			n.Options = append(n.Options, m)
			return err
		})
		return n, err
	}
	return nil, pathError(v, "unknown mesh kind %q", kind)
}

// ---------------------------------------------------------------------------
// Values
// ---------------------------------------------------------------------------

var arithmeticOps = map[string]node.ArithmeticOp{
	"add": node.ArithmeticAdd,
	"sub": node.ArithmeticSubtract,
	"mul": node.ArithmeticMultiply,
	"div": node.ArithmeticDivide,
}

func (d *decoder) scalarField(v cue.Value, name string) (node.Scalar, error) {
	f, ok := field(v, name)
	if !ok {
		return nil, nil
	}
	return d.scalar(f)
}

func (d *decoder) scalar(v cue.Value) (node.Scalar, error) {
	if k := v.Kind(); k == cue.IntKind || k == cue.FloatKind {
		x, err := v.Float64()
		return &node.ScalarConstant{Value: float32(x)}, err
	}
	kind, err := kindOf(v)
	if err != nil {
		return nil, err
	}
	name, err := stringField(v, "name")
	if err != nil {
		return nil, err
	}

	switch kind {
	case "scalarParameter":
		uid, err := d.uid(v, kind, name)
		if err != nil {
			return nil, err
		}
		def, err := floatField(v, "default")
		if err != nil {
			return nil, err
		}
		return d.intern(kind, name, &node.ScalarParameter{Name: name, UID: uid, Default: def}).(node.Scalar), nil

	case "enumParameter":
		uid, err := d.uid(v, kind, name)
		if err != nil {
			return nil, err
		}
		def, err := intField(v, "default", 0)
		if err != nil {
			return nil, err
		}
		n := &node.ScalarEnumParameter{Name: name, UID: uid, Default: int32(def)}
		err = each(v, "options", func(o cue.Value) error {
			var opt struct {
				Value int32  `json:"value"`
				Name  string `json:"name"`
			}
			if err := o.Decode(&opt); err != nil {
				return pathError(o, "%v", err)
			}
			n.Options = append(n.Options, node.EnumOption{Value: opt.Value, Name: opt.Name})
			return nil
		})
		if err != nil {
			return nil, err
		}
		return d.intern(kind, name, n).(node.Scalar), nil

	case "arithmetic":
		opName, err := stringField(v, "op")
		if err != nil {
			return nil, err
		}
		aop, ok := arithmeticOps[opName]
		if !ok {
			return nil, pathError(v, "unknown arithmetic operation %q", opName)
		}
		a, err := d.scalarField(v, "a")
		if err != nil {
			return nil, err
		}
		b, err := d.scalarField(v, "b")
		if err != nil {
			return nil, err
		}
		return &node.ScalarArithmetic{Operation: aop, A: a, B: b}, nil

	case "scalarSwitch":
		p, err := d.scalarField(v, "parameter")
		if err != nil {
			return nil, err
		}
		n := &node.ScalarSwitch{Parameter: p}
		err = each(v, "options", func(o cue.Value) error {
			s, err := d.scalar(o)
			n.Options = append(n.Options, s)
			return err
		})
		return n, err
	}
	return nil, pathError(v, "unknown scalar kind %q", kind)
}

func (d *decoder) color(v cue.Value) (node.Color, error) {
	if v.Kind() == cue.ListKind {
		var rgba []float64
		if err := v.Decode(&rgba); err != nil {
			return nil, pathError(v, "%v", err)
		}
		if len(rgba) != 4 {
			return nil, pathError(v, "a colour has 4 components, got %d", len(rgba))
		}
		return &node.ColorConstant{Value: resource.Vec4{float32(rgba[0]), float32(rgba[1]), float32(rgba[2]), float32(rgba[3])}}, nil
	}
	kind, err := kindOf(v)
	if err != nil {
		return nil, err
	}
	if kind != "colorParameter" {
		return nil, pathError(v, "unknown color kind %q", kind)
	}
	name, err := stringField(v, "name")
	if err != nil {
		return nil, err
	}
	uid, err := d.uid(v, kind, name)
	if err != nil {
		return nil, err
	}
	n := &node.ColorParameter{Name: name, UID: uid}
	if def, ok := field(v, "default"); ok {
		c, err := d.color(def)
		if err != nil {
			return nil, err
		}
		cc, ok := c.(*node.ColorConstant)
		if !ok {
			return nil, pathError(def, "default must be a constant colour")
		}
		n.Default = cc.Value
	}
	return d.intern(kind, name, n).(node.Color), nil
}
