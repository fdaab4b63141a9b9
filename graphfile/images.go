package graphfile

import (
	"cuelang.org/go/cue"

	"github.com/chazu/mutable/node"
	"github.com/chazu/mutable/resource"
)

var imageFormats = map[string]resource.ImageFormat{
	"rgb":  resource.FormatRGBUByte,
	"rgba": resource.FormatRGBAUByte,
	"l":    resource.FormatLUByte,
	"bc1":  resource.FormatBC1,
	"bc3":  resource.FormatBC3,
	"bc4":  resource.FormatBC4,
	"bc5":  resource.FormatBC5,
	"astc": resource.FormatASTC4x4RGBALDR,
}

var blendTypes = map[string]node.BlendType{
	"none":          node.BlendNone,
	"softLight":     node.BlendSoftLight,
	"hardLight":     node.BlendHardLight,
	"burn":          node.BlendBurn,
	"dodge":         node.BlendDodge,
	"screen":        node.BlendScreen,
	"overlay":       node.BlendOverlay,
	"alphaOverlay":  node.BlendAlphaOverlay,
	"multiply":      node.BlendMultiply,
	"blend":         node.BlendBlend,
	"lighten":       node.BlendLighten,
	"normalCombine": node.BlendNormalCombine,
}

var mipmapFilters = map[string]node.MipmapFilter{
	"":        node.MipmapFilterSimpleAverage,
	"average": node.MipmapFilterSimpleAverage,
	"sharpen": node.MipmapFilterSharpen,
	"none":    node.MipmapFilterNone,
}

var packStrategies = map[string]resource.PackStrategy{
	"":          resource.PackResizable,
	"resizable": resource.PackResizable,
	"fixed":     resource.PackFixed,
	"overlay":   resource.PackOverlay,
}

// ---------------------------------------------------------------------------
// Layouts
// ---------------------------------------------------------------------------

func (d *decoder) layout(v cue.Value) (*node.Layout, error) {
	var err error
	l := &node.Layout{FirstLODToIgnoreWarnings: -1}
	if l.Size, err = pair(v, "size"); err != nil {
		return nil, err
	}
	if l.MaxSize, err = pair(v, "maxSize"); err != nil {
		return nil, err
	}
	if l.Strategy, err = lookup(v, "strategy", "", packStrategies); err != nil {
		return nil, err
	}
	err = each(v, "blocks", func(b cue.Value) error {
		var blk node.LayoutBlock
		var err error
		if blk.Min, err = pair(b, "min"); err != nil {
			return err
		}
		if blk.Size, err = pair(b, "size"); err != nil {
			return err
		}
		if blk.Size[0] == 0 || blk.Size[1] == 0 {
			return pathError(b, "block has an empty size")
		}
		prio, err := intField(b, "priority", 0)
		if err != nil {
			return err
		}
		blk.Priority = int32(prio)
		l.Blocks = append(l.Blocks, blk)
		return nil
	})
	return l, err
}

// ---------------------------------------------------------------------------
// Images
// ---------------------------------------------------------------------------

func (d *decoder) imageField(v cue.Value, name string) (node.Image, error) {
	f, ok := field(v, name)
	if !ok {
		return nil, nil
	}
	return d.image(f)
}

func (d *decoder) image(v cue.Value) (node.Image, error) {
	kind, err := kindOf(v)
	if err != nil {
		return nil, err
	}

	switch kind {
	case "image":
		w, err := intField(v, "width", 16)
		if err != nil {
			return nil, err
		}
		h, err := intField(v, "height", 16)
		if err != nil {
			return nil, err
		}
		format, err := lookup(v, "format", "rgba", imageFormats)
		if err != nil {
			return nil, err
		}
		colour := resource.Vec4{1, 1, 1, 1}
		if f, ok := field(v, "colour"); ok {
			c, err := d.color(f)
			if err != nil {
				return nil, err
			}
			cc, ok := c.(*node.ColorConstant)
			if !ok {
				return nil, pathError(f, "an image colour must be constant")
			}
			colour = cc.Value
		}
		img := resource.NewPlainImage(uint16(w), uint16(h), format, colour)
		img.Source = resource.SourceData{SourceID: resource.NoSourceID}
		return &node.ImageConstant{Value: img}, nil

	case "imageReference":
		id, err := intField(v, "id", 0)
		return &node.ImageReference{ID: uint32(id)}, err

	case "imageParameter":
		name, err := stringField(v, "name")
		if err != nil {
			return nil, err
		}
		uid, err := d.uid(v, kind, name)
		if err != nil {
			return nil, err
		}
		return d.intern(kind, name, &node.ImageParameter{Name: name, UID: uid}).(node.Image), nil

	case "plainColour":
		size, err := pair(v, "size")
		if err != nil {
			return nil, err
		}
		f, ok := field(v, "colour")
		if !ok {
			return nil, pathError(v, "plain colour has no colour")
		}
		c, err := d.color(f)
		return &node.ImagePlainColour{Colour: c, SizeX: size[0], SizeY: size[1]}, err

	case "imageSwitch":
		p, err := d.scalarField(v, "parameter")
		if err != nil {
			return nil, err
		}
		n := &node.ImageSwitch{Parameter: p}
		err = each(v, "options", func(o cue.Value) error {
			img, err := d.image(o)
			n.Options = append(n.Options, img)
			return err
		})
		return n, err

	case "layer":
		n := &node.ImageLayer{}
		if n.Base, err = d.imageField(v, "base"); err != nil {
			return nil, err
		}
		if n.Blended, err = d.imageField(v, "blended"); err != nil {
			return nil, err
		}
		if n.Mask, err = d.imageField(v, "mask"); err != nil {
			return nil, err
		}
		if n.Type, err = lookup(v, "blend", "blend", blendTypes); err != nil {
			return nil, err
		}
		n.ApplyAlpha, err = boolField(v, "applyAlpha")
		return n, err

	case "mipmap":
		src, err := d.imageField(v, "source")
		if err != nil {
			return nil, err
		}
		filter, err := lookup(v, "filter", "", mipmapFilters)
		return &node.ImageMipmap{Source: src, Filter: filter}, err

	case "format":
		src, err := d.imageField(v, "source")
		if err != nil {
			return nil, err
		}
		n := &node.ImageFormat{Source: src}
		if n.Format, err = lookup(v, "format", "", imageFormats); err != nil {
			return nil, err
		}
		if _, ok := field(v, "formatIfAlpha"); ok {
			if n.FormatIfAlpha, err = lookup(v, "formatIfAlpha", "", imageFormats); err != nil {
				return nil, err
			}
		}
		return n, nil

	case "swizzle":
		n := &node.ImageSwizzle{}
		if n.Format, err = lookup(v, "format", "rgba", imageFormats); err != nil {
			return nil, err
		}
		err = each(v, "sources", func(s cue.Value) error {
			img, err := d.image(s)
			n.Sources = append(n.Sources, img)
			return err
		})
		if err != nil {
			return nil, err
		}
		if f, ok := field(v, "channels"); ok {
			if err := f.Decode(&n.Channels); err != nil {
				return nil, pathError(f, "%v", err)
			}
		}
		if len(n.Channels) != len(n.Sources) {
			return nil, pathError(v, "swizzle has %d sources and %d channels", len(n.Sources), len(n.Channels))
		}
		return n, nil

	case "resize":
		src, err := d.imageField(v, "source")
		if err != nil {
			return nil, err
		}
		n := &node.ImageResize{Source: src}
		if n.SizeX, err = floatField(v, "x"); err != nil {
			return nil, err
		}
		if n.SizeY, err = floatField(v, "y"); err != nil {
			return nil, err
		}
		n.Relative, err = boolField(v, "relative")
		return n, err
	}
	return nil, pathError(v, "unknown image kind %q", kind)
}

// surfaceImages decodes the textures of a surface.
func (d *decoder) surfaceImages(v cue.Value) ([]node.SurfaceImage, error) {
	var out []node.SurfaceImage
	err := each(v, "images", func(i cue.Value) error {
		name, err := stringField(i, "name")
		if err != nil {
			return err
		}
		param, err := stringField(i, "parameter")
		if err != nil {
			return err
		}
		if param == "" {
			param = name
		}
		layout, err := intField(i, "layoutIndex", 0)
		if err != nil {
			return err
		}
		img, err := d.imageField(i, "image")
		if err != nil {
			return err
		}
		if img == nil {
			return pathError(i, "surface image has no image")
		}
		out = append(out, node.SurfaceImage{
			Name:                  name,
			Image:                 img,
			LayoutIndex:           int32(layout),
			MaterialParameterName: param,
		})
		return nil
	})
	return out, err
}
