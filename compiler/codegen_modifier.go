package compiler

import (
	"slices"

	"github.com/chazu/mutable/node"
	"github.com/chazu/mutable/op"
	"github.com/chazu/mutable/resource"
)

// ---------------------------------------------------------------------------
// Mesh modifiers
// ---------------------------------------------------------------------------

func (g *codeGenerator) inProgress(m node.Modifier) bool {
	return slices.Contains(g.modifiersInProgress, m)
}

// editLOD returns the editing of a surface edit modifier for the current
// LOD, or nil.
func (g *codeGenerator) editLOD(m *node.ModifierSurfaceEdit) *node.SurfaceEditLOD {
	if g.lod < 0 || g.lod >= len(m.LODs) {
		return nil
	}
	return &m.LODs[g.lod]
}

// applyMeshModifiers runs the modifiers with the given first-pass indices on
// r. Stages run in a fixed order: mesh additions, removals, morphs, clips and
// transforms.
func (g *codeGenerator) applyMeshModifiers(o meshOptions, mods []int, r meshResult, ctx node.Node) meshResult {
	if r.MeshOp == nil || len(mods) == 0 {
		return r
	}
	last := r.MeshOp

	// Mesh additions, with the modifiers of the added fragment applied
	// first.
	for _, i := range mods {
		e := &g.fp.modifiers[i]
		edit, ok := e.Node.(*node.ModifierSurfaceEdit)
		if !ok || g.inProgress(edit) {
			continue
		}
		lod := g.editLOD(edit)
		if lod == nil || lod.MeshAdd == nil {
			continue
		}

		g.modifiersInProgress = append(g.modifiersInProgress, edit)
		addOpts := meshOptions{
			State:       o.State,
			ComponentID: o.ComponentID,
			ActiveTags:  edit.EnableTags,
			Layouts:     o.Layouts,
		}
		added := g.generateMesh(addOpts, lod.MeshAdd)
		if added.MeshOp != nil {
			var nested []int
			for _, k := range g.modifiersFor(o.ComponentID, edit.EnableTags, false) {
				if !g.inProgress(g.fp.modifiers[k].Node) {
					nested = append(nested, k)
				}
			}
			added = g.applyMeshModifiers(addOpts, nested, added, edit)
		}
		g.modifiersInProgress = g.modifiersInProgress[:len(g.modifiersInProgress)-1]

		if added.MeshOp == nil {
			continue
		}
		merge := &op.MeshMergeOp{Base: last, Added: added.MeshOp}
		last = op.NewConditional(op.CatMesh, e.FinalCondition, merge, last)
		r.ExtraMeshLayouts = append(r.ExtraMeshLayouts, extraLayouts{
			Layouts:      added.GeneratedLayouts,
			Condition:    e.FinalCondition,
			MeshFragment: added.MeshOp,
			Modifier:     i,
		})
	}

	// Mesh removals share one operation.
	var remove *op.MeshRemoveMaskOp
	for _, i := range mods {
		e := &g.fp.modifiers[i]
		edit, ok := e.Node.(*node.ModifierSurfaceEdit)
		if !ok {
			continue
		}
		lod := g.editLOD(edit)
		if lod == nil || lod.MeshRemove == nil {
			continue
		}
		removed := g.generateMesh(o.plain(), lod.MeshRemove)
		if removed.MeshOp == nil {
			continue
		}
		if remove == nil {
			remove = &op.MeshRemoveMaskOp{Source: last, FaceCullStrategy: uint8(edit.FaceCullStrategy)}
		}
		remove.AddRemove(e.FinalCondition, op.NewFixed(op.MeshMaskDiff, last, removed.MeshOp))
	}
	if remove != nil {
		last = remove
	}

	// Morphs towards a named target of the base mesh.
	for _, i := range mods {
		e := &g.fp.modifiers[i]
		edit, ok := e.Node.(*node.ModifierSurfaceEdit)
		if !ok || edit.MeshMorph == "" {
			continue
		}
		target := g.morphTarget(r.BaseMeshOp, edit.MeshMorph)
		if target == nil {
			g.log.Warnf(edit, "Mesh morph [%s] not found in the base mesh.", edit.MeshMorph)
			continue
		}
		factor := g.generateScalar(genOptions{State: o.State}, edit.MorphFactor)
		if factor == nil {
			factor = &op.ConstantScalar{Value: 1}
		}
		diff := &op.MeshDifferenceOp{Base: r.BaseMeshOp, Target: &op.ConstantMesh{Value: target}, IgnoreTexCoords: true}
		morph := &op.MeshMorphOp{Factor: factor, Base: last, Target: diff}
		last = op.NewConditional(op.CatMesh, e.FinalCondition, morph, last)
	}

	// Clips
	for _, i := range mods {
		e := &g.fp.modifiers[i]
		var clipped op.Op
		switch m := e.Node.(type) {
		case *node.ModifierMeshClipWithMesh:
			clip := g.generateMesh(o.plain(), m.ClipMesh)
			if clip.MeshOp == nil {
				g.missingConnection(m, "Clip mesh")
				continue
			}
			rm := &op.MeshRemoveMaskOp{Source: last, FaceCullStrategy: uint8(m.FaceCullStrategy)}
			rm.AddRemove(op.True(), op.NewFixed(op.MeshMaskClipMesh, last, clip.MeshOp))
			clipped = rm

		case *node.ModifierMeshClipWithUVMask:
			mask := &op.MeshMaskClipUVMaskOp{Source: last, UVSource: last, LayoutIndex: m.LayoutIndex}
			if m.ClipMask != nil {
				mask.MaskImage = g.generateImage(imageOptions{State: o.State}, m.ClipMask)
			}
			if m.ClipLayout != nil {
				mask.MaskLayout = &op.ConstantLayout{Value: g.generateLayout(m.ClipLayout, 0)}
			}
			if mask.MaskImage == nil && mask.MaskLayout == nil {
				g.missingConnection(m, "Clip mask or layout")
				continue
			}
			rm := &op.MeshRemoveMaskOp{Source: last, FaceCullStrategy: uint8(m.FaceCullStrategy)}
			rm.AddRemove(op.True(), mask)
			clipped = rm

		case *node.ModifierMeshClipMorphPlane:
			clipped = clipMorphPlane(last, &m.ClipMorphPlaneParams, m.FaceCullStrategy)

		case *node.ModifierMeshClipDeform:
			shape := g.generateMesh(o.plain(), m.ClipMesh)
			if shape.MeshOp == nil {
				g.missingConnection(m, "Clip deform shape")
				continue
			}
			clipped = clipDeform(last, shape.MeshOp, m.BindingMethod, m.FaceCullStrategy)

		default:
			continue
		}
		last = op.NewConditional(op.CatMesh, e.FinalCondition, clipped, last)
	}

	// Rigid transforms of the vertices inside a bounding mesh.
	for _, i := range mods {
		e := &g.fp.modifiers[i]
		m, ok := e.Node.(*node.ModifierMeshTransformInMesh)
		if !ok {
			continue
		}
		bounds := g.generateMesh(o.plain(), m.BoundingMesh)
		matrix := g.generateMatrix(genOptions{State: o.State}, m.Matrix)
		if matrix == nil {
			matrix = &op.ConstantMatrix{Value: resource.Identity()}
		}
		transform := &op.MeshTransformWithBoundingMeshOp{Source: last, Matrix: matrix, BoundingMesh: bounds.MeshOp}
		last = op.NewConditional(op.CatMesh, e.FinalCondition, transform, last)
	}

	r.MeshOp = last
	return r
}

// morphTarget returns the morph called name of a constant base mesh.
func (g *codeGenerator) morphTarget(base op.Op, name string) *resource.Mesh {
	for {
		switch v := op.Deref(base).(type) {
		case *op.ConstantMesh:
			if v.Value == nil {
				return nil
			}
			return v.Value.FindMorph(name)
		case *op.MeshAddTagsOp:
			base = v.Source
		default:
			return nil
		}
	}
}

// ---------------------------------------------------------------------------
// Image modifiers
// ---------------------------------------------------------------------------

// editTexture returns the texture editing of a modifier for a material
// parameter in the current LOD.
func (g *codeGenerator) editTexture(m *node.ModifierSurfaceEdit, parameter string) *node.SurfaceEditTexture {
	lod := g.editLOD(m)
	if lod == nil {
		return nil
	}
	for i := range lod.Textures {
		if lod.Textures[i].MaterialParameterName == parameter {
			return &lod.Textures[i]
		}
	}
	return nil
}

// maxPatchMaskSize caps the side of the generated patch masks.
const maxPatchMaskSize = 64

// patchMask rasterizes the part of rects covering block into a luminance
// image. The second result is false when no rect touches the block.
func patchMask(rects []resource.Box2, block resource.Box2) (*resource.Image, bool) {
	bs := block.Size()
	if bs[0] <= 0 || bs[1] <= 0 {
		return nil, false
	}
	w, h := maxPatchMaskSize, maxPatchMaskSize
	if bs[0] > bs[1] {
		h = max(1, int(float32(maxPatchMaskSize)*bs[1]/bs[0]))
	} else if bs[1] > bs[0] {
		w = max(1, int(float32(maxPatchMaskSize)*bs[0]/bs[1]))
	}
	pixels := make([]byte, w*h)
	touched := false
	for _, r := range rects {
		lo := resource.Vec2{max(r.Min[0], block.Min[0]), max(r.Min[1], block.Min[1])}
		hi := resource.Vec2{min(r.Max[0], block.Max[0]), min(r.Max[1], block.Max[1])}
		if lo[0] >= hi[0] || lo[1] >= hi[1] {
			continue
		}
		touched = true
		x0 := int((lo[0] - block.Min[0]) / bs[0] * float32(w))
		x1 := int((hi[0]-block.Min[0])/bs[0]*float32(w) + 0.5)
		y0 := int((lo[1] - block.Min[1]) / bs[1] * float32(h))
		y1 := int((hi[1]-block.Min[1])/bs[1]*float32(h) + 0.5)
		for y := y0; y < min(y1, h); y++ {
			for x := x0; x < min(x1, w); x++ {
				pixels[y*w+x] = 255
			}
		}
	}
	if !touched {
		return nil, false
	}
	return &resource.Image{
		Width:  uint16(w),
		Height: uint16(h),
		Format: resource.FormatLUByte,
		Data:   [][]byte{pixels},
		Source: resource.SourceData{SourceID: resource.NoSourceID},
	}, true
}

// applyImageBlockModifiers patches the image of one layout block with the
// patch textures of the matching modifiers.
func (g *codeGenerator) applyImageBlockModifiers(o imageOptions, mods []int, parameter string, blockImage op.Op) op.Op {
	if o.Layout == nil || parameter == "" {
		return blockImage
	}
	idx := o.Layout.FindBlock(o.LayoutBlockID)
	if idx < 0 {
		return blockImage
	}
	b := o.Layout.Blocks[idx]
	rect := blockRect(o.Layout.Size, b.Min, b.Size)

	for _, i := range mods {
		e := &g.fp.modifiers[i]
		edit, ok := e.Node.(*node.ModifierSurfaceEdit)
		if !ok {
			continue
		}
		tex := g.editTexture(edit, parameter)
		if tex == nil || tex.PatchImage == nil {
			continue
		}
		maskImg, ok := patchMask(tex.PatchRects, rect)
		if !ok {
			continue
		}
		plain := imageOptions{State: o.State, ActiveTags: o.ActiveTags, ComponentID: o.ComponentID}
		var mask op.Op = &op.ImageResizeOp{Source: &op.ConstantImage{Value: maskImg}, Size: o.RectSize}
		if tex.PatchMask != nil {
			userMask := &op.ImageResizeOp{Source: g.generateImage(plain, tex.PatchMask), Size: o.RectSize}
			mask = &op.ImageLayerOp{Base: mask, Blend: userMask, BlendType: uint8(node.BlendMultiply)}
		}
		patch := &op.ImageResizeOp{Source: g.generateImage(plain, tex.PatchImage), Size: o.RectSize}
		layer := &op.ImageLayerOp{
			Base:         blockImage,
			Mask:         mask,
			Blend:        patch,
			BlendType:    uint8(tex.PatchBlendType),
			ApplyToAlpha: tex.PatchAlpha,
		}
		blockImage = op.NewConditional(op.CatImage, e.FinalCondition, layer, blockImage)
	}
	return blockImage
}

// checkModifiersForSurface warns about modifiers that edit textures the
// surface does not have.
func (g *codeGenerator) checkModifiersForSurface(s *node.SurfaceNew, mods []int) {
	for _, i := range mods {
		edit, ok := g.fp.modifiers[i].Node.(*node.ModifierSurfaceEdit)
		if !ok {
			continue
		}
		lod := g.editLOD(edit)
		if lod == nil || len(lod.Textures) == 0 {
			continue
		}
		matched := false
		for _, tex := range lod.Textures {
			for _, img := range s.Images {
				if img.MaterialParameterName == tex.MaterialParameterName {
					matched = true
				}
			}
		}
		if !matched {
			g.log.Warnf(edit, "A mesh section modifier applies to a section but no texture matches.")
		}
	}
}
