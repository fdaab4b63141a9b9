package graphfile

import (
	"cuelang.org/go/cue"

	"github.com/chazu/mutable/node"
	"github.com/chazu/mutable/resource"
)

var tagPolicies = map[string]node.TagsPolicy{
	"":    node.OnlyOneRequired,
	"any": node.OnlyOneRequired,
	"all": node.AllRequired,
}

var faceCullStrategies = map[string]node.FaceCullStrategy{
	"":    node.CullAllVerticesCulled,
	"all": node.CullAllVerticesCulled,
	"one": node.CullOneVertexCulled,
}

var bindingMethods = map[string]node.BindingMethod{
	"":               node.BindClosestProject,
	"closestProject": node.BindClosestProject,
	"closestSurface": node.BindClosestToSurface,
	"normalProject":  node.BindNormalProject,
}

func (d *decoder) modifiers(v cue.Value, name string) ([]node.Modifier, error) {
	var out []node.Modifier
	err := each(v, name, func(m cue.Value) error {
		n, err := d.modifier(m)
		out = append(out, n)
		return err
	})
	return out, err
}

func (d *decoder) modifierBase(v cue.Value) (node.ModifierBase, error) {
	var b node.ModifierBase
	var err error
	if b.Name, err = stringField(v, "name"); err != nil {
		return b, err
	}
	if b.RequiredTags, err = stringsField(v, "requiredTags"); err != nil {
		return b, err
	}
	if b.EnableTags, err = stringsField(v, "enableTags"); err != nil {
		return b, err
	}
	if b.Policy, err = lookup(v, "policy", "", tagPolicies); err != nil {
		return b, err
	}
	comp, err := intField(v, "component", node.NoComponent)
	if err != nil {
		return b, err
	}
	b.RequiredComponentID = int32(comp)
	b.ApplyBeforeNormalOperations, err = boolField(v, "beforeNormalOperations")
	return b, err
}

func (d *decoder) meshField(v cue.Value, name string) (node.Mesh, error) {
	f, ok := field(v, name)
	if !ok {
		return nil, nil
	}
	return d.mesh(f)
}

func (d *decoder) modifier(v cue.Value) (node.Modifier, error) {
	kind, err := kindOf(v)
	if err != nil {
		return nil, err
	}
	base, err := d.modifierBase(v)
	if err != nil {
		return nil, err
	}
	cull, err := lookup(v, "faceCull", "", faceCullStrategies)
	if err != nil {
		return nil, err
	}

	switch kind {
	case "surfaceEdit":
		n := &node.ModifierSurfaceEdit{ModifierBase: base, FaceCullStrategy: cull}
		if n.MeshMorph, err = stringField(v, "morph"); err != nil {
			return nil, err
		}
		if n.MorphFactor, err = d.scalarField(v, "morphFactor"); err != nil {
			return nil, err
		}
		err = each(v, "lods", func(l cue.Value) error {
			lod, err := d.surfaceEditLOD(l)
			n.LODs = append(n.LODs, lod)
			return err
		})
		return n, err

	case "clipWithMesh":
		n := &node.ModifierMeshClipWithMesh{ModifierBase: base, FaceCullStrategy: cull}
		n.ClipMesh, err = d.meshField(v, "clipMesh")
		return n, err

	case "clipMorphPlane":
		n := &node.ModifierMeshClipMorphPlane{ModifierBase: base, FaceCullStrategy: cull}
		p := &n.ClipMorphPlaneParams
		if p.Origin, err = vec3Field(v, "origin"); err != nil {
			return nil, err
		}
		if p.Normal, err = vec3Field(v, "normal"); err != nil {
			return nil, err
		}
		for name, dst := range map[string]*float32{
			"radius1":  &p.Radius1,
			"radius2":  &p.Radius2,
			"rotation": &p.Rotation,
			"dist":     &p.Dist,
			"factor":   &p.Factor,
		} {
			if *dst, err = floatField(v, name); err != nil {
				return nil, err
			}
		}
		return n, nil

	case "clipDeform":
		n := &node.ModifierMeshClipDeform{ModifierBase: base, FaceCullStrategy: cull}
		if n.ClipMesh, err = d.meshField(v, "clipMesh"); err != nil {
			return nil, err
		}
		n.BindingMethod, err = lookup(v, "binding", "", bindingMethods)
		return n, err

	case "transformInMesh":
		n := &node.ModifierMeshTransformInMesh{ModifierBase: base}
		if n.BoundingMesh, err = d.meshField(v, "boundingMesh"); err != nil {
			return nil, err
		}
		if f, ok := field(v, "matrix"); ok {
			var raw []float64
			if err := f.Decode(&raw); err != nil {
				return nil, pathError(f, "%v", err)
			}
			if len(raw) != 16 {
				return nil, pathError(f, "a matrix has 16 components, got %d", len(raw))
			}
			var m resource.Mat4
			for i, x := range raw {
				m[i] = float32(x)
			}
			n.Matrix = &node.MatrixConstant{Value: m}
		}
		return n, nil
	}
	return nil, pathError(v, "unknown modifier kind %q", kind)
}

func (d *decoder) surfaceEditLOD(v cue.Value) (node.SurfaceEditLOD, error) {
	var lod node.SurfaceEditLOD
	var err error
	if lod.MeshAdd, err = d.meshField(v, "meshAdd"); err != nil {
		return lod, err
	}
	if lod.MeshRemove, err = d.meshField(v, "meshRemove"); err != nil {
		return lod, err
	}
	err = each(v, "textures", func(t cue.Value) error {
		var tex node.SurfaceEditTexture
		var err error
		if tex.MaterialParameterName, err = stringField(t, "parameter"); err != nil {
			return err
		}
		if tex.Extend, err = d.imageField(t, "extend"); err != nil {
			return err
		}
		if tex.PatchImage, err = d.imageField(t, "patch"); err != nil {
			return err
		}
		if tex.PatchMask, err = d.imageField(t, "patchMask"); err != nil {
			return err
		}
		if tex.PatchBlendType, err = lookup(t, "patchBlend", "blend", blendTypes); err != nil {
			return err
		}
		if tex.PatchAlpha, err = boolField(t, "patchAlpha"); err != nil {
			return err
		}
		rects, err := vectors(t, "patchRects", 4)
		if err != nil {
			return err
		}
		for _, r := range rects {
			tex.PatchRects = append(tex.PatchRects, resource.Box2{
				Min: resource.Vec2{r[0], r[1]},
				Max: resource.Vec2{r[2], r[3]},
			})
		}
		lod.Textures = append(lod.Textures, tex)
		return nil
	})
	return lod, err
}
