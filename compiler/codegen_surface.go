package compiler

import (
	"slices"

	"github.com/chazu/mutable/node"
	"github.com/chazu/mutable/op"
	"github.com/chazu/mutable/resource"
)

// ---------------------------------------------------------------------------
// Surfaces
// ---------------------------------------------------------------------------

type surfaceKey struct {
	index int
	state int
}

type surfaceResult struct {
	SurfaceOp op.Op
	MeshOp    op.Op
}

// sharedKey identifies the surfaces of a component that share their layouts
// across LODs.
type sharedKey struct {
	component *node.ComponentNew
	id        int32
	state     int
}

type sharedSurface struct {
	LOD     int
	Layouts []generatedLayout
}

// defaultBlockPixels is the block size used when the size of a surface image
// cannot be inferred.
const defaultBlockPixels = 32

// surfaceTags returns the sorted tags active on the data of surface s.
func surfaceTags(s *surfaceEntry) []string {
	tags := slices.Concat(s.Node.Tags, s.PositiveTags)
	slices.Sort(tags)
	return slices.Compact(tags)
}

// generateSurface builds the surface operation and the mesh of first-pass
// surface i in the current state.
func (g *codeGenerator) generateSurface(i int, compID int32) surfaceResult {
	key := surfaceKey{index: i, state: g.state}
	if r, ok := g.surfaces[key]; ok {
		return r
	}

	s := &g.fp.surfaces[i]
	tags := surfaceTags(s)
	mods := g.modifiersFor(compID, tags, false)

	mo := meshOptions{State: g.state, ComponentID: compID, ActiveTags: tags, Layouts: true}
	sharing := s.Node.SharedSurfaceID != node.NoSharedSurface
	sk := sharedKey{component: s.Component, id: s.Node.SharedSurfaceID, state: g.state}
	shared := g.shared[sk]
	if sharing && shared != nil && shared.LOD != g.lod {
		mo.OverrideLayouts = shared.Layouts
	}

	mr := g.generateMesh(mo, s.Node.Mesh)
	mr = g.applyMeshModifiers(mo, mods, mr, s.Node)
	if sharing && shared == nil {
		g.shared[sk] = &sharedSurface{LOD: g.lod, Layouts: mr.GeneratedLayouts}
	}

	// Layout operations per texture coordinates channel.
	layouts := make([]op.Op, len(mr.GeneratedLayouts))
	for ch, gl := range mr.GeneratedLayouts {
		if gl.Layout == nil || mr.MeshOp == nil {
			continue
		}
		var layout op.Op = &op.ConstantLayout{Value: gl.Layout}
		for _, extra := range mr.ExtraMeshLayouts {
			if ch >= len(extra.Layouts) || extra.Layouts[ch].Layout == nil {
				continue
			}
			merged := &op.LayoutMergeOp{Base: layout, Added: &op.ConstantLayout{Value: extra.Layouts[ch].Layout}}
			layout = op.NewConditional(op.CatLayout, extra.Condition, merged, layout)
		}
		if gl.Layout.Strategy != resource.PackOverlay {
			fromMesh := &op.LayoutFromMeshOp{Mesh: mr.MeshOp, LayoutIndex: uint8(ch)}
			removed := &op.LayoutRemoveBlocksOp{Source: layout, ReferenceLayout: fromMesh}
			packed := op.NewFixed(op.LayoutPack, removed)
			mr.MeshOp = &op.MeshApplyLayoutOp{Mesh: mr.MeshOp, Layout: packed, Channel: uint16(ch)}
			layout = packed
		}
		layouts[ch] = layout
	}

	g.checkModifiersForSurface(s.Node, mods)

	vo := genOptions{State: g.state, ActiveTags: tags}
	var surface op.Op
	for _, img := range s.Node.Images {
		value := g.generateSurfaceImage(s, img, compID, tags, mods, mr, layouts)
		if value == nil {
			continue
		}
		surface = &op.InstanceAdd{Code: op.InstanceAddImage, Instance: surface, Value: value, Name: img.Name}
	}
	for _, v := range s.Node.Vectors {
		if value := g.generateColor(vo, v.Value); value != nil {
			surface = &op.InstanceAdd{Code: op.InstanceAddVector, Instance: surface, Value: value, Name: v.Name}
		}
	}
	for _, v := range s.Node.Scalars {
		if value := g.generateScalar(vo, v.Value); value != nil {
			surface = &op.InstanceAdd{Code: op.InstanceAddScalar, Instance: surface, Value: value, Name: v.Name}
		}
	}
	for _, v := range s.Node.Strings {
		if value := g.generateString(vo, v.Value); value != nil {
			surface = &op.InstanceAdd{Code: op.InstanceAddString, Instance: surface, Value: value, Name: v.Name}
		}
	}

	r := surfaceResult{SurfaceOp: surface, MeshOp: mr.MeshOp}
	g.surfaces[key] = r
	return r
}

// generateSurfaceImage builds one texture of a surface. Textures packed in a
// layout are composed block by block over a blank image of the packed
// layout.
func (g *codeGenerator) generateSurfaceImage(s *surfaceEntry, img node.SurfaceImage, compID int32,
	tags []string, mods []int, mr meshResult, layouts []op.Op) op.Op {

	plain := imageOptions{State: g.state, ActiveTags: tags, ComponentID: compID}
	if img.Image == nil {
		return nil
	}
	if img.LayoutIndex < 0 {
		full := g.generateImage(plain, img.Image)
		d := op.ImageDescOf(full)
		return g.applyTiling(full, d.Size, d.Format)
	}

	idx := int(img.LayoutIndex)
	if idx >= len(layouts) || layouts[idx] == nil {
		g.log.Errorf(s.Node, "Missing layout in object, or its parent.")
		return g.generateImage(plain, img.Image)
	}
	layoutOp := layouts[idx]
	layout := mr.GeneratedLayouts[idx].Layout

	finish := inferFinish(img.Image)
	if finish.Source == nil {
		finish = imageFinish{Source: img.Image}
	}
	full := op.ImageDescOf(g.generateImage(plain, img.Image))
	blockSize := [2]uint16{defaultBlockPixels, defaultBlockPixels}
	if full.Size[0] > 0 && full.Size[1] > 0 && layout.Size[0] > 0 && layout.Size[1] > 0 {
		blockSize = [2]uint16{max(full.Size[0]/layout.Size[0], 4), max(full.Size[1]/layout.Size[1], 4)}
	}

	var result op.Op = &op.ImageBlankLayoutOp{
		Layout:    layoutOp,
		BlockSize: blockSize,
		Format:    resource.FormatRGBAUByte,
	}
	for _, b := range layout.Blocks {
		bo := plain
		bo.Layout = layout
		bo.LayoutBlockID = b.ID
		bo.RectSize = resource.ImageSize{blockSize[0] * b.Size[0], blockSize[1] * b.Size[1]}
		blockImage := g.generateImage(bo, finish.Source)
		blockImage = g.applyImageBlockModifiers(bo, mods, img.MaterialParameterName, blockImage)
		result = &op.ImageComposeOp{Layout: layoutOp, Base: result, BlockImage: blockImage, BlockID: b.ID}
	}

	// Blocks added by mesh modifiers are filled with their extend textures.
	for _, extra := range mr.ExtraMeshLayouts {
		edit, ok := g.fp.modifiers[extra.Modifier].Node.(*node.ModifierSurfaceEdit)
		if !ok {
			continue
		}
		tex := g.editTexture(edit, img.MaterialParameterName)
		if tex == nil || tex.Extend == nil {
			g.log.Errorf(edit, "Required texture [%s] is missing when trying to extend a mesh section.",
				img.MaterialParameterName)
			continue
		}
		if idx >= len(extra.Layouts) || extra.Layouts[idx].Layout == nil {
			g.log.Errorf(edit, "Trying to extend a layout that doesn't exist.")
			continue
		}
		extended := result
		for _, b := range extra.Layouts[idx].Layout.Blocks {
			bo := plain
			bo.Layout = extra.Layouts[idx].Layout
			bo.LayoutBlockID = b.ID
			bo.RectSize = resource.ImageSize{blockSize[0] * b.Size[0], blockSize[1] * b.Size[1]}
			blockImage := g.generateImage(bo, tex.Extend)
			extended = &op.ImageComposeOp{Layout: layoutOp, Base: extended, BlockImage: blockImage, BlockID: b.ID}
		}
		result = op.NewConditional(op.CatImage, extra.Condition, extended, result)
	}

	size := resource.ImageSize{}
	if layout.Size[0] > 0 && layout.Size[1] > 0 {
		size = resource.ImageSize{blockSize[0] * layout.Size[0], blockSize[1] * layout.Size[1]}
	}
	result = g.applyTiling(result, size, resource.FormatRGBAUByte)

	return finish.apply(result)
}
