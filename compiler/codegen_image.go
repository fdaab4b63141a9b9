package compiler

import (
	"github.com/chazu/mutable/node"
	"github.com/chazu/mutable/op"
	"github.com/chazu/mutable/resource"
)

// ---------------------------------------------------------------------------
// Images
// ---------------------------------------------------------------------------

// imageOptions is the context of an image generation. When Layout is set the
// image of a single block is generated, sized RectSize.
type imageOptions struct {
	State       int
	ActiveTags  []string
	ComponentID int32

	Layout        *resource.Layout
	LayoutBlockID uint64
	RectSize      resource.ImageSize
}

type imageKey struct {
	n         node.Image
	state     int
	tags      string
	component int32
	layout    *resource.Layout
	block     uint64
	rect      resource.ImageSize
}

func (o imageOptions) key(n node.Image) imageKey {
	return imageKey{
		n:         n,
		state:     o.State,
		tags:      tagsKey(o.ActiveTags),
		component: o.ComponentID,
		layout:    o.Layout,
		block:     o.LayoutBlockID,
		rect:      o.RectSize,
	}
}

func (o imageOptions) values() genOptions {
	return genOptions{State: o.State, ActiveTags: o.ActiveTags}
}

// whole returns the options generating the full image instead of one block.
func (o imageOptions) whole() imageOptions {
	return imageOptions{State: o.State, ActiveTags: o.ActiveTags, ComponentID: o.ComponentID}
}

var missingImageColor = resource.Vec4{1, 1, 0, 1}

func (g *codeGenerator) missingImage(ctx node.Node, what string) op.Op {
	g.missingConnection(ctx, what)
	return &op.ImagePlainColourOp{
		Colour: &op.ConstantColor{Value: missingImageColor},
		Size:   resource.ImageSize{16, 16},
		Format: resource.FormatRGBAUByte,
		LODs:   1,
	}
}

// fitToBlock crops a full image to the area of the current block and resizes
// it to the block size. Images of unknown size are only resized.
func (g *codeGenerator) fitToBlock(o imageOptions, img op.Op, full resource.ImageSize) op.Op {
	if o.Layout == nil || img == nil {
		return img
	}
	idx := o.Layout.FindBlock(o.LayoutBlockID)
	if idx >= 0 && full[0] > 0 && full[1] > 0 {
		b := o.Layout.Blocks[idx]
		gx, gy := uint32(max(o.Layout.Size[0], 1)), uint32(max(o.Layout.Size[1], 1))
		minX := uint32(b.Min[0]) * uint32(full[0]) / gx
		minY := uint32(b.Min[1]) * uint32(full[1]) / gy
		sizeX := uint32(b.Size[0]) * uint32(full[0]) / gx
		sizeY := uint32(b.Size[1]) * uint32(full[1]) / gy
		if sizeX > 0 && sizeY > 0 && (sizeX != uint32(full[0]) || sizeY != uint32(full[1])) {
			img = &op.ImageCropOp{
				Source: img,
				Min:    [2]uint16{uint16(minX), uint16(minY)},
				Size:   [2]uint16{uint16(sizeX), uint16(sizeY)},
			}
			full = resource.ImageSize{uint16(sizeX), uint16(sizeY)}
		}
	}
	if o.RectSize != full && o.RectSize[0] > 0 && o.RectSize[1] > 0 {
		img = &op.ImageResizeOp{Source: img, Size: o.RectSize}
	}
	return img
}

func (g *codeGenerator) generateImage(o imageOptions, n node.Image) op.Op {
	if n == nil {
		return nil
	}
	key := o.key(n)
	if v, ok := g.images[key]; ok {
		return v
	}

	vo := o.values()
	scalar := func(ctx node.Node, s node.Scalar, what string, def float32) op.Op {
		if s == nil {
			return g.missingScalar(ctx, what, def)
		}
		return g.generateScalar(vo, s)
	}

	var result op.Op
	switch v := n.(type) {
	case *node.ImageConstant:
		if v.Value == nil {
			g.log.Warnf(v, "Constant image not set.")
			result = g.missingImage(v, "Constant image")
			break
		}
		result = g.fitToBlock(o, &op.ConstantImage{Value: v.Value}, resource.ImageSize{v.Value.Width, v.Value.Height})

	case *node.ImageParameter:
		p := g.parameter(vo, v, &op.ParamDesc{Name: v.Name, UID: v.UID, Type: op.ParamImage}, v.Ranges)
		result = g.fitToBlock(o, p, resource.ImageSize{})

	case *node.ImageReference:
		result = g.fitToBlock(o, &op.ImageReferenceOp{ID: v.ID}, resource.ImageSize{})

	case *node.ImageTable:
		result = g.generateTableSwitch(v, &v.TableSource, node.ColumnImage, op.CatImage,
			func(row int, cell node.Cell) op.Op {
				if cell.Image == nil {
					return nil
				}
				return g.fitToBlock(o, &op.ConstantImage{Value: cell.Image},
					resource.ImageSize{cell.Image.Width, cell.Image.Height})
			})

	case *node.ImageSwitch:
		if len(v.Options) == 0 {
			result = g.missingImage(v, "Switch option")
			break
		}
		sw := op.NewSwitch(op.CatImage, g.switchVariable(v, v.Parameter))
		for i, opt := range v.Options {
			branch := g.generateImage(o, opt)
			if branch == nil {
				branch = g.missingImage(v, "Switch option")
			}
			sw.Cases = append(sw.Cases, op.Case{Value: int32(i), Branch: branch})
		}
		result = sw

	case *node.ImageVariation:
		current := g.generateImage(o, v.Default)
		if current == nil {
			current = g.missingImage(v, "Variation default")
		}
		for i := len(v.Variations) - 1; i >= 0; i-- {
			b := v.Variations[i]
			tag := g.fp.findTag(b.Tag)
			if tag == nil {
				g.unknownTag(v, "image", b.Tag)
				continue
			}
			yes := g.generateImage(o, b.Node)
			if yes == nil {
				yes = g.missingImage(v, "Variation option")
			}
			current = op.NewConditional(op.CatImage, tag.GenericCondition, yes, current)
		}
		result = current

	case *node.ImageLayer:
		base := g.generateImage(o, v.Base)
		if base == nil {
			base = g.missingImage(v, "Image layer base")
		}
		blended := g.generateImage(o, v.Blended)
		if blended == nil {
			blended = g.missingImage(v, "Image layer blended")
		}
		result = &op.ImageLayerOp{
			Base:         base,
			Mask:         g.generateImage(o, v.Mask),
			Blend:        blended,
			BlendType:    uint8(v.Type),
			ApplyToAlpha: v.ApplyAlpha,
		}

	case *node.ImageLayerColour:
		base := g.generateImage(o, v.Base)
		if base == nil {
			base = g.missingImage(v, "Image layer colour base")
		}
		colour := g.generateColor(vo, v.Colour)
		if colour == nil {
			colour = g.missingColor(v, "Image layer colour")
		}
		result = &op.ImageLayerColourOp{
			Base:      base,
			Mask:      g.generateImage(o, v.Mask),
			Colour:    colour,
			BlendType: uint8(v.Type),
		}

	case *node.ImageMipmap:
		src := g.generateImage(o, v.Source)
		if src == nil {
			src = g.missingImage(v, "Mipmap source")
		}
		if o.Layout != nil {
			// Mips of composed images are built once on the final image.
			result = src
			break
		}
		result = &op.ImageMipmapOp{Source: src, Filter: uint8(v.Filter)}

	case *node.ImageFormat:
		src := g.generateImage(o, v.Source)
		if src == nil {
			src = g.missingImage(v, "Format source")
		}
		if o.Layout != nil {
			result = src
			break
		}
		result = &op.ImageFormatOp{Source: src, Format: v.Format, FormatIfAlpha: v.FormatIfAlpha}

	case *node.ImageSwizzle:
		sw := &op.ImageSwizzleOp{Channels: v.Channels, Format: v.Format}
		for _, s := range v.Sources {
			sw.Sources = append(sw.Sources, g.generateImage(o, s))
		}
		result = sw

	case *node.ImageResize:
		src := g.generateImage(o, v.Source)
		if src == nil {
			src = g.missingImage(v, "Resize source")
		}
		switch {
		case o.Layout != nil:
			result = src
		case v.Relative:
			result = &op.ImageResizeRelOp{Source: src, Factor: [2]float32{v.SizeX, v.SizeY}}
		default:
			result = &op.ImageResizeOp{Source: src, Size: resource.ImageSize{uint16(v.SizeX), uint16(v.SizeY)}}
		}

	case *node.ImagePlainColour:
		colour := g.generateColor(vo, v.Colour)
		if colour == nil {
			colour = g.missingColor(v, "Plain colour")
		}
		size := resource.ImageSize{v.SizeX, v.SizeY}
		if o.Layout != nil {
			size = o.RectSize
		}
		result = &op.ImagePlainColourOp{Colour: colour, Size: size, Format: resource.FormatRGBAUByte, LODs: 1}

	case *node.ImageProject:
		projector := g.generateProjector(vo, v.Projector)
		if projector == nil {
			g.missingConnection(v, "Projector")
			projector = &op.ConstantProjector{}
		}
		mesh := g.generateMesh(meshOptions{State: o.State, ComponentID: o.ComponentID, ActiveTags: o.ActiveTags}, v.Mesh)
		if mesh.MeshOp == nil {
			result = g.missingImage(v, "Projected mesh")
			break
		}
		img := g.generateImage(o.whole(), v.Image)
		if img == nil {
			img = g.missingImage(v, "Projected image")
		}
		project := &op.ImageProjectOp{
			Projector: projector,
			Mesh:      mesh.MeshOp,
			Image:     img,
			Mask:      g.generateImage(o.whole(), v.Mask),
			FadeStart: scalar(v, v.AngleFadeStart, "Fade start angle", 180),
			FadeEnd:   scalar(v, v.AngleFadeEnd, "Fade end angle", 180),
			Size:      v.ImageSize,
			Layout:    v.Layout,
		}
		result = g.fitToBlock(o, project, v.ImageSize)

	case *node.ImageInterpolate:
		args := []op.Op{scalar(v, v.Factor, "Interpolate factor", 0.5)}
		for _, t := range v.Targets {
			args = append(args, g.generateImage(o, t))
		}
		result = op.NewFixed(op.ImageInterpolate, args...)

	case *node.ImageInvert:
		base := g.generateImage(o, v.Base)
		if base == nil {
			base = g.missingImage(v, "Invert base")
		}
		result = op.NewFixed(op.ImageInvert, base)

	case *node.ImageSaturate:
		src := g.generateImage(o, v.Source)
		if src == nil {
			src = g.missingImage(v, "Saturate source")
		}
		result = op.NewFixed(op.ImageSaturate, src, scalar(v, v.Factor, "Saturate factor", 0.5))

	case *node.ImageLuminance:
		src := g.generateImage(o, v.Source)
		if src == nil {
			src = g.missingImage(v, "Luminance source")
		}
		result = op.NewFixed(op.ImageLuminance, src)

	case *node.ImageColourMap:
		base := g.generateImage(o, v.Base)
		if base == nil {
			base = g.missingImage(v, "Colour map base")
		}
		colourMap := g.generateImage(o.whole(), v.Map)
		if colourMap == nil {
			colourMap = g.missingImage(v, "Colour map")
		}
		result = op.NewFixed(op.ImageColourMap, base, g.generateImage(o, v.Mask), colourMap)

	case *node.ImageBinarise:
		base := g.generateImage(o, v.Base)
		if base == nil {
			base = g.missingImage(v, "Binarise base")
		}
		result = op.NewFixed(op.ImageBinarise, base, scalar(v, v.Threshold, "Binarise threshold", 0.5))

	case *node.ImageTransform:
		base := g.generateImage(o, v.Base)
		if base == nil {
			base = g.missingImage(v, "Transform base")
		}
		result = op.NewFixed(op.ImageTransform, base,
			scalar(v, v.OffsetX, "Offset X", 0),
			scalar(v, v.OffsetY, "Offset Y", 0),
			scalar(v, v.ScaleX, "Scale X", 1),
			scalar(v, v.ScaleY, "Scale Y", 1),
			scalar(v, v.Rotation, "Rotation", 0))

	default:
		panic("compiler: unexpected image node " + n.Kind().String())
	}

	g.images[key] = result
	return result
}

// ---------------------------------------------------------------------------
// Block descriptors and tiling
// ---------------------------------------------------------------------------

// imageFinish describes the conversions deferred to the top of a composed
// image. Source is the expression left once they are stripped.
type imageFinish struct {
	Source        node.Image
	Mipmaps       bool
	Filter        node.MipmapFilter
	Format        resource.ImageFormat
	FormatIfAlpha resource.ImageFormat
	Swizzle       *node.ImageSwizzle
}

// inferFinish collects the mipmap, format and swizzle nodes at the top of an
// image expression. Only a swizzle reading every channel from the same
// source can be deferred.
func inferFinish(n node.Image) imageFinish {
	var f imageFinish
	for n != nil {
		switch v := n.(type) {
		case *node.ImageMipmap:
			if !f.Mipmaps {
				f.Mipmaps = true
				f.Filter = v.Filter
			}
			n = v.Source
			continue
		case *node.ImageFormat:
			if f.Format == resource.FormatNone {
				f.Format = v.Format
				f.FormatIfAlpha = v.FormatIfAlpha
			}
			n = v.Source
			continue
		case *node.ImageSwizzle:
			if f.Swizzle == nil && singleSource(v) {
				f.Swizzle = v
				n = v.Sources[0]
				continue
			}
		}
		break
	}
	f.Source = n
	return f
}

func singleSource(s *node.ImageSwizzle) bool {
	if len(s.Sources) == 0 || s.Sources[0] == nil {
		return false
	}
	for _, src := range s.Sources[1:] {
		if src != s.Sources[0] {
			return false
		}
	}
	return true
}

// apply wraps a composed image in the deferred conversions.
func (f imageFinish) apply(img op.Op) op.Op {
	if f.Swizzle != nil {
		sw := &op.ImageSwizzleOp{Channels: f.Swizzle.Channels, Format: f.Swizzle.Format}
		for range f.Swizzle.Sources {
			sw.Sources = append(sw.Sources, img)
		}
		img = sw
	}
	if f.Mipmaps {
		img = &op.ImageMipmapOp{Source: img, Filter: uint8(f.Filter)}
	}
	if f.Format != resource.FormatNone && f.Format != resource.FormatRGBAUByte {
		img = &op.ImageFormatOp{Source: img, Format: f.Format, FormatIfAlpha: f.FormatIfAlpha}
	}
	return img
}

// applyTiling splits a large image into crops patched onto a blank base so
// no instruction works on more than one tile at a time.
func (g *codeGenerator) applyTiling(img op.Op, size resource.ImageSize, format resource.ImageFormat) op.Op {
	tile := uint32(g.opts.ImageTiling)
	if tile == 0 || size[0] == 0 || size[1] == 0 {
		return img
	}
	tilesX := (uint32(size[0]) + tile - 1) / tile
	tilesY := (uint32(size[1]) + tile - 1) / tile
	if tilesX*tilesY <= 2 {
		return img
	}

	var base op.Op = &op.ImagePlainColourOp{
		Colour: &op.ConstantColor{},
		Size:   size,
		Format: format,
		LODs:   1,
	}
	for y := uint32(0); y < tilesY; y++ {
		for x := uint32(0); x < tilesX; x++ {
			minX, minY := x*tile, y*tile
			w := min(tile, uint32(size[0])-minX)
			h := min(tile, uint32(size[1])-minY)
			crop := &op.ImageCropOp{
				Source: img,
				Min:    [2]uint16{uint16(minX), uint16(minY)},
				Size:   [2]uint16{uint16(w), uint16(h)},
			}
			base = &op.ImagePatchOp{Base: base, Patch: crop, Min: [2]uint16{uint16(minX), uint16(minY)}}
		}
	}
	return base
}
