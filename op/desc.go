package op

import "github.com/chazu/mutable/resource"

// ImageDescOf infers the descriptor of the image produced by o without
// evaluating it. Unknown sizes are reported as zero.
func ImageDescOf(o Op) resource.ImageDesc {
	switch v := Deref(o).(type) {
	case nil:
		return resource.ImageDesc{}
	case *ConstantImage:
		if v.Value == nil {
			return resource.ImageDesc{}
		}
		return v.Value.Desc()
	case *ImageFormatOp:
		d := ImageDescOf(v.Source)
		d.Format = v.Format
		return d
	case *ImageResizeOp:
		d := ImageDescOf(v.Source)
		d.Size = v.Size
		return d
	case *ImageResizeRelOp:
		d := ImageDescOf(v.Source)
		d.Size = resource.ImageSize{
			uint16(float32(d.Size[0])*v.Factor[0] + 0.5),
			uint16(float32(d.Size[1])*v.Factor[1] + 0.5),
		}
		return d
	case *ImagePlainColourOp:
		return resource.ImageDesc{Size: v.Size, Format: v.Format, LODs: v.LODs}
	case *ImageMipmapOp:
		d := ImageDescOf(v.Source)
		d.LODs = resource.FullLODCount(d.Size)
		if v.Levels > 0 && v.Levels < d.LODs {
			d.LODs = v.Levels
		}
		return d
	case *ImageSwizzleOp:
		var d resource.ImageDesc
		for _, s := range v.Sources {
			if s != nil {
				d = ImageDescOf(s)
				break
			}
		}
		d.Format = v.Format
		return d
	case *ImageBlankLayoutOp:
		d := resource.ImageDesc{Format: v.Format, LODs: 1}
		if l, ok := Deref(v.Layout).(*ConstantLayout); ok && l.Value != nil {
			d.Size = resource.ImageSize{v.BlockSize[0] * l.Value.Size[0], v.BlockSize[1] * l.Value.Size[1]}
		}
		if v.GenerateMipmaps {
			d.LODs = resource.FullLODCount(d.Size)
		}
		return d
	case *ImageCropOp:
		d := ImageDescOf(v.Source)
		d.Size = resource.ImageSize(v.Size)
		return d
	case *ImageProjectOp:
		return resource.ImageDesc{Size: v.Size, Format: resource.FormatRGBAUByte, LODs: 1}
	case *Conditional:
		if d := ImageDescOf(v.Yes); d.Size != (resource.ImageSize{}) {
			return d
		}
		return ImageDescOf(v.No)
	case *Switch:
		if v.Default != nil {
			return ImageDescOf(v.Default)
		}
		for _, c := range v.Cases {
			if c.Branch != nil {
				return ImageDescOf(c.Branch)
			}
		}
		return resource.ImageDesc{}
	case *ImageLayerOp:
		return ImageDescOf(v.Base)
	case *ImageLayerColourOp:
		return ImageDescOf(v.Base)
	case *ImageComposeOp:
		return ImageDescOf(v.Base)
	case *ImagePatchOp:
		return ImageDescOf(v.Base)
	}

	// Generic image operations keep the shape of their first image operand.
	for _, c := range Deref(o).Children() {
		if c != nil && Deref(c) != nil && Deref(c).Type().Category() == CatImage {
			return ImageDescOf(c)
		}
	}
	return resource.ImageDesc{}
}
