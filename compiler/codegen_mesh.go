package compiler

import (
	"fmt"
	"math"
	"strings"

	"github.com/chazu/mutable/node"
	"github.com/chazu/mutable/op"
	"github.com/chazu/mutable/resource"
)

// ---------------------------------------------------------------------------
// Meshes
// ---------------------------------------------------------------------------

// meshOptions is the context of a mesh generation.
type meshOptions struct {
	State       int
	ComponentID int32
	ActiveTags  []string
	// Layouts requests layout preparation of constant meshes.
	Layouts bool
	// OverrideLayouts replaces the authored layouts of constant meshes.
	OverrideLayouts []generatedLayout
}

type meshKey struct {
	n         node.Mesh
	state     int
	component int32
	tags      string
	layouts   bool
	override  string
}

func overrideKey(layouts []generatedLayout) string {
	if len(layouts) == 0 {
		return ""
	}
	var b strings.Builder
	for _, l := range layouts {
		fmt.Fprintf(&b, "%p;", l.Layout)
	}
	return b.String()
}

func (o meshOptions) key(n node.Mesh) meshKey {
	return meshKey{
		n:         n,
		state:     o.State,
		component: o.ComponentID,
		tags:      tagsKey(o.ActiveTags),
		layouts:   o.Layouts,
		override:  overrideKey(o.OverrideLayouts),
	}
}

// plain returns options for meshes used as operands, which carry no layouts
// and activate no modifiers.
func (o meshOptions) plain() meshOptions {
	return meshOptions{State: o.State, ComponentID: o.ComponentID}
}

// extraLayouts are the layouts of a mesh fragment added by a modifier.
type extraLayouts struct {
	Layouts      []generatedLayout
	Condition    op.Op
	MeshFragment op.Op
	Modifier     int
}

type meshResult struct {
	MeshOp     op.Op
	BaseMeshOp op.Op

	GeneratedLayouts []generatedLayout
	ExtraMeshLayouts []extraLayouts
}

type constantMeshEntry struct {
	Source      *resource.Mesh
	Override    string
	Layouts     bool
	LayoutNodes []*node.Layout
	Result      meshResult
}

func (g *codeGenerator) generateMesh(o meshOptions, n node.Mesh) meshResult {
	if n == nil {
		return meshResult{}
	}
	key := o.key(n)
	if r, ok := g.meshes[key]; ok {
		return r
	}

	var r meshResult
	switch v := n.(type) {
	case *node.MeshConstant:
		r = g.generateConstantMesh(o, v)

	case *node.MeshReference:
		r.MeshOp = &op.MeshReferenceOp{ID: v.ID, ForceLoad: v.ForceLoad}

	case *node.MeshTable:
		r = g.generateMeshTable(o, v)

	case *node.MeshFormat:
		src := g.generateMesh(o, v.Source)
		if src.MeshOp == nil {
			g.log.Errorf(v, "Mesh format source is not set.")
			break
		}
		r = src
		r.MeshOp = &op.MeshFormatOp{
			Source:          src.MeshOp,
			Format:          &op.ConstantMesh{Value: v.Format},
			Vertices:        v.Vertices,
			Indices:         v.Indices,
			OptimizeBuffers: v.OptimizeBuffers,
		}

	case *node.MeshMorph:
		r = g.generateMeshMorph(o, v)

	case *node.MeshMakeMorph:
		base := g.generateMesh(o.plain(), v.Base)
		target := g.generateMesh(o.plain(), v.Target)
		if base.MeshOp == nil || target.MeshOp == nil {
			g.missingConnection(v, "Make morph base or target")
			break
		}
		diff := &op.MeshDifferenceOp{Base: base.MeshOp, Target: target.MeshOp, IgnoreTexCoords: true}
		if v.OnlyPositionAndNormal {
			diff.Channels = []uint8{uint8(node.ChannelPosition), uint8(node.ChannelNormal)}
		}
		r.MeshOp = diff

	case *node.MeshFragment:
		r = g.generateMeshFragment(o, v)

	case *node.MeshInterpolate:
		if len(v.Targets) == 0 {
			g.missingConnection(v, "Interpolate target")
			break
		}
		first := g.generateMesh(o, v.Targets[0])
		interp := &op.MeshInterpolateOp{Factor: g.generateScalar(genOptions{State: o.State}, v.Factor)}
		if interp.Factor == nil {
			interp.Factor = g.missingScalar(v, "Interpolate factor", 0.5)
		}
		interp.Targets = append(interp.Targets, first.MeshOp)
		for _, t := range v.Targets[1:] {
			interp.Targets = append(interp.Targets, g.generateMesh(o.plain(), t).MeshOp)
		}
		for _, c := range v.Channels {
			interp.Channels = append(interp.Channels, uint8(c))
		}
		r = first
		r.MeshOp = interp

	case *node.MeshSwitch:
		if len(v.Options) == 0 {
			g.missingConnection(v, "Switch option")
			break
		}
		sw := op.NewSwitch(op.CatMesh, g.switchVariable(v, v.Parameter))
		for i, opt := range v.Options {
			branch := g.generateMesh(o, opt)
			if branch.MeshOp == nil {
				continue
			}
			if r.GeneratedLayouts == nil {
				r.GeneratedLayouts = branch.GeneratedLayouts
			}
			sw.Cases = append(sw.Cases, op.Case{Value: int32(i), Branch: branch.MeshOp})
		}
		r.MeshOp = sw

	case *node.MeshVariation:
		def := g.generateMesh(o, v.Default)
		r = def
		current := def.MeshOp
		for i := len(v.Variations) - 1; i >= 0; i-- {
			b := v.Variations[i]
			tag := g.fp.findTag(b.Tag)
			if tag == nil {
				g.unknownTag(v, "mesh", b.Tag)
				continue
			}
			yes := g.generateMesh(o, b.Node)
			if r.GeneratedLayouts == nil {
				r.GeneratedLayouts = yes.GeneratedLayouts
			}
			current = op.NewConditional(op.CatMesh, tag.GenericCondition, yes.MeshOp, current)
		}
		r.MeshOp = current

	case *node.MeshTransform:
		src := g.generateMesh(o, v.Source)
		if src.MeshOp == nil {
			g.log.Errorf(v, "Mesh transform base node is not set.")
			break
		}
		r = src
		r.MeshOp = &op.MeshTransformOp{Source: src.MeshOp, Matrix: &op.ConstantMatrix{Value: v.Matrix}}

	case *node.MeshClipWithMesh:
		src := g.generateMesh(o, v.Source)
		if src.MeshOp == nil {
			g.log.Errorf(v, "Mesh clip-with-mesh source node is not set.")
			break
		}
		clip := g.generateMesh(o.plain(), v.ClipMesh)
		if clip.MeshOp == nil {
			g.log.Errorf(v, "Mesh clip-with-mesh clipping mesh node is not set.")
			r = src
			break
		}
		r = src
		r.MeshOp = op.NewFixed(op.MeshClipWithMesh, src.MeshOp, clip.MeshOp)

	case *node.MeshClipMorphPlane:
		src := g.generateMesh(o, v.Source)
		if src.MeshOp == nil {
			g.log.Errorf(v, "Mesh clip-morph-plane source node is not set.")
			break
		}
		r = src
		r.MeshOp = clipMorphPlane(src.MeshOp, &v.ClipMorphPlaneParams, node.CullAllVerticesCulled)

	case *node.MeshClipDeform:
		base := g.generateMesh(o, v.Base)
		if base.MeshOp == nil {
			g.log.Errorf(v, "Mesh Clip Deform base mesh node is not set.")
			break
		}
		r = base
		clip := g.generateMesh(o.plain(), v.ClipShape)
		if clip.MeshOp == nil {
			break
		}
		r.MeshOp = clipDeform(base.MeshOp, clip.MeshOp, v.BindingMethod, node.CullAllVerticesCulled)

	case *node.MeshApplyPose:
		base := g.generateMesh(o, v.Base)
		if base.MeshOp == nil {
			g.log.Errorf(v, "Mesh apply-pose base node is not set.")
			break
		}
		r = base
		pose := g.generateMesh(o.plain(), v.Pose)
		if pose.MeshOp == nil {
			g.log.Errorf(v, "Mesh apply-pose pose node is not set.")
			break
		}
		r.MeshOp = op.NewFixed(op.MeshApplyPose, base.MeshOp, pose.MeshOp)

	case *node.MeshGeometryOperation:
		a := g.generateMesh(o, v.A)
		if a.MeshOp == nil {
			g.log.Errorf(v, "Mesh geometric op mesh-a node is not set.")
			break
		}
		r = a
		so := genOptions{State: o.State}
		r.MeshOp = &op.MeshGeometryOp{
			Operation: uint8(v.Type),
			MeshA:     a.MeshOp,
			MeshB:     g.generateMesh(o.plain(), v.B).MeshOp,
			ScalarA:   g.generateScalar(so, v.ScalarA),
			ScalarB:   g.generateScalar(so, v.ScalarB),
		}

	case *node.MeshReshape:
		base := g.generateMesh(o, v.Base)
		if base.MeshOp == nil {
			g.log.Errorf(v, "Mesh reshape base node is not set.")
			break
		}
		r = base
		baseShape := g.generateMesh(o.plain(), v.BaseShape)
		targetShape := g.generateMesh(o.plain(), v.TargetShape)
		if baseShape.MeshOp == nil || targetShape.MeshOp == nil {
			break
		}
		bind := &op.MeshBindShapeOp{
			Mesh:            base.MeshOp,
			Shape:           baseShape.MeshOp,
			BindingMethod:   uint8(node.BindClosestProject),
			ReshapeVertices: v.ReshapeVertices,
			ReshapeSkeleton: v.ReshapeSkeleton,
			ReshapePhysics:  v.ReshapePhysics,
			BonesToDeform:   v.BonesToDeform,
		}
		r.MeshOp = &op.MeshApplyShapeOp{
			Mesh:            bind,
			Shape:           targetShape.MeshOp,
			ReshapeVertices: v.ReshapeVertices,
			ReshapeSkeleton: v.ReshapeSkeleton,
			ReshapePhysics:  v.ReshapePhysics,
		}

	default:
		panic("compiler: unexpected mesh node " + n.Kind().String())
	}

	if r.BaseMeshOp == nil {
		r.BaseMeshOp = r.MeshOp
	}
	g.meshes[key] = r
	return r
}

func (g *codeGenerator) generateMeshMorph(o meshOptions, v *node.MeshMorph) meshResult {
	base := g.generateMesh(o, v.Base)
	if base.MeshOp == nil {
		g.log.Errorf(v, "Mesh morph base node is not set.")
		return meshResult{}
	}
	r := base
	target := g.generateMesh(o.plain(), v.Morph)
	if target.MeshOp == nil {
		return r
	}
	factor := g.generateScalar(genOptions{State: o.State}, v.Factor)
	if factor == nil {
		factor = g.missingScalar(v, "Morph factor", 1)
	}
	morphed := &op.MeshMorphOp{Factor: factor, Base: base.MeshOp, Target: target.MeshOp}
	if !v.Reshape {
		r.MeshOp = morphed
		return r
	}

	// The skeleton and physics follow the morphed shape.
	bind := &op.MeshBindShapeOp{
		Mesh:            base.MeshOp,
		Shape:           base.MeshOp,
		BindingMethod:   uint8(node.BindClosestProject),
		ReshapeVertices: false,
		ReshapeSkeleton: v.ReshapeSkeleton,
		ReshapePhysics:  v.ReshapePhysics,
		BonesToDeform:   v.BonesToDeform,
	}
	r.MeshOp = &op.MeshApplyShapeOp{
		Mesh:            &op.MeshMorphOp{Factor: factor, Base: bind, Target: target.MeshOp},
		Shape:           morphed,
		ReshapeSkeleton: v.ReshapeSkeleton,
		ReshapePhysics:  v.ReshapePhysics,
	}
	return r
}

func (g *codeGenerator) generateMeshFragment(o meshOptions, v *node.MeshFragment) meshResult {
	src := g.generateMesh(o, v.Source)
	if src.MeshOp == nil {
		g.missingConnection(v, "Fragment source")
		return meshResult{}
	}
	idx := int(v.LayoutIndex)
	if idx < 0 || idx >= len(src.GeneratedLayouts) || src.GeneratedLayouts[idx].Layout == nil {
		g.log.Errorf(v, "Missing layout in object, or its parent.")
		return src
	}
	layout := src.GeneratedLayouts[idx].Layout
	extract := &op.MeshExtractLayoutBlocksOp{Source: src.MeshOp, LayoutIndex: uint16(idx)}
	for _, b := range v.Blocks {
		if b < 0 || int(b) >= len(layout.Blocks) {
			g.log.Warnf(v, "Mesh fragment refers to a missing layout block %d.", b)
			continue
		}
		extract.Blocks = append(extract.Blocks, layout.Blocks[b].ID)
	}
	r := src
	r.MeshOp = extract
	return r
}

func (g *codeGenerator) generateMeshTable(o meshOptions, v *node.MeshTable) meshResult {
	var r meshResult
	r.MeshOp = g.generateTableSwitch(v, &v.TableSource, node.ColumnMesh, op.CatMesh,
		func(row int, cell node.Cell) op.Op {
			if cell.Mesh == nil {
				return nil
			}
			c := g.generateConstantMesh(o, &node.MeshConstant{Value: cell.Mesh, Layouts: v.Layouts})
			if r.GeneratedLayouts == nil {
				r.GeneratedLayouts = c.GeneratedLayouts
			}
			return c.MeshOp
		})
	return r
}

// ---------------------------------------------------------------------------
// Constant meshes
// ---------------------------------------------------------------------------

// matches reports whether a cached constant was prepared for the
// same layouts as requested now.
func (e *constantMeshEntry) matches(o meshOptions, n *node.MeshConstant) bool {
	if e.Layouts != o.Layouts || e.Override != overrideKey(o.OverrideLayouts) {
		return false
	}
	if !o.Layouts || len(o.OverrideLayouts) > 0 {
		return true
	}
	if len(e.LayoutNodes) != len(n.Layouts) {
		return false
	}
	for i := range n.Layouts {
		if e.LayoutNodes[i] != n.Layouts[i] {
			return false
		}
	}
	return true
}

// meshPrefix returns a nonzero id prefix for a mesh, unique in this
// compilation.
func (g *codeGenerator) meshPrefix(m *resource.Mesh) uint32 {
	id := resource.FoldHash(resource.Hash64(resource.MustEncode(m)))
	for id == 0 || g.meshPrefixes[id] {
		id++
	}
	g.meshPrefixes[id] = true
	return id
}

func (g *codeGenerator) generateConstantMesh(o meshOptions, n *node.MeshConstant) meshResult {
	if n.Value == nil {
		g.log.Warnf(n, "Constant mesh not set.")
		return meshResult{MeshOp: &op.ConstantMesh{Value: &resource.Mesh{}}}
	}
	if n.Value.IsReference {
		ref := &op.MeshReferenceOp{ID: n.Value.ReferenceID, ForceLoad: n.Value.ForceLoad}
		return meshResult{MeshOp: ref, BaseMeshOp: ref}
	}

	sizeKey := [2]int{n.Value.VertexCount(), n.Value.IndexCount()}
	for _, e := range g.constantMeshes[sizeKey] {
		if e.Source.IsSimilar(n.Value) && e.matches(o, n) {
			return g.finishConstantMesh(o, n, e.Result)
		}
	}

	mesh := n.Value.Clone()
	mesh.Tags = nil
	mesh.MeshIDPrefix = g.meshPrefix(mesh)

	var r meshResult
	if o.Layouts {
		if len(o.OverrideLayouts) > 0 {
			for i, l := range o.OverrideLayouts {
				if l.Layout == nil || l.Source == nil {
					continue
				}
				g.prepareMeshForLayout(n, mesh, l.Layout, l.Source, i, false)
			}
			r.GeneratedLayouts = o.OverrideLayouts
		} else {
			for i, src := range n.Layouts {
				if src == nil {
					r.GeneratedLayouts = append(r.GeneratedLayouts, generatedLayout{})
					continue
				}
				l := g.generateLayout(src, mesh.MeshIDPrefix)
				g.prepareMeshForLayout(n, mesh, l, src, i, true)
				r.GeneratedLayouts = append(r.GeneratedLayouts, generatedLayout{Layout: l, Source: src})
			}
		}
	}
	r.MeshOp = &op.ConstantMesh{Value: mesh}
	r.BaseMeshOp = r.MeshOp

	g.constantMeshes[sizeKey] = append(g.constantMeshes[sizeKey], &constantMeshEntry{
		Source:      n.Value,
		Override:    overrideKey(o.OverrideLayouts),
		Layouts:     o.Layouts,
		LayoutNodes: n.Layouts,
		Result:      r,
	})
	return g.finishConstantMesh(o, n, r)
}

// finishConstantMesh applies the early modifiers and restores the tags of a
// constant mesh.
func (g *codeGenerator) finishConstantMesh(o meshOptions, n *node.MeshConstant, r meshResult) meshResult {
	if mods := g.modifiersFor(o.ComponentID, o.ActiveTags, true); len(mods) > 0 {
		r = g.applyMeshModifiers(o, mods, r, n)
	}
	if len(n.Value.Tags) > 0 {
		r.MeshOp = &op.MeshAddTagsOp{Source: r.MeshOp, Tags: n.Value.Tags}
	}
	return r
}

// ---------------------------------------------------------------------------
// Shape helpers shared by nodes and modifiers
// ---------------------------------------------------------------------------

func clipMorphPlane(source op.Op, p *node.ClipMorphPlaneParams, cull node.FaceCullStrategy) op.Op {
	normal := p.Normal.Normalized()
	aux := resource.Vec3{0, 1, 0}
	if float32(math.Abs(float64(normal.Dot(aux)))) > 0.95 {
		aux = resource.Vec3{0, 0, 1}
	}
	side := normal.Cross(aux).Normalized()

	clip := &op.MeshClipMorphPlaneOp{
		Source: source,
		MorphShape: resource.Shape{
			Type:     resource.ShapeEllipse,
			Position: p.Origin,
			Up:       normal,
			Side:     side,
			Size:     resource.Vec3{p.Radius1, p.Radius2, p.Rotation},
		},
		Selection:        uint8(p.Selection),
		Dist:             p.Dist,
		Factor:           p.Factor,
		FaceCullStrategy: uint8(cull),
	}
	switch p.Selection {
	case node.SelectionShape:
		clip.SelectionShape = resource.Shape{
			Type:     resource.ShapeAABox,
			Position: p.SelectionOrigin,
			Size:     p.SelectionRadius,
		}
	case node.SelectionBoneHierarchy:
		clip.Bone = p.Bone
		clip.MaxBoneRadius = p.MaxEffectRadius
	}
	return clip
}

func clipDeform(mesh, shape op.Op, method node.BindingMethod, cull node.FaceCullStrategy) op.Op {
	bind := &op.MeshBindShapeOp{
		Mesh:            mesh,
		Shape:           shape,
		BindingMethod:   uint8(method),
		ReshapeVertices: true,
	}
	return &op.MeshClipDeformOp{Mesh: bind, ClipShape: shape, FaceCullStrategy: uint8(cull)}
}
