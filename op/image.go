package op

import "github.com/chazu/mutable/resource"

type ImageReferenceOp struct {
	ID uint32
}

func (i *ImageReferenceOp) Type() Type              { return ImageReference }
func (i *ImageReferenceOp) Children() []Op          { return nil }
func (i *ImageReferenceOp) EncodeArgs(w *ArgWriter) { w.Uint32(i.ID) }

type ImageLayerOp struct {
	Base         Op
	Mask         Op
	Blend        Op
	BlendType    uint8
	ApplyToAlpha bool
}

func (i *ImageLayerOp) Type() Type     { return ImageLayer }
func (i *ImageLayerOp) Children() []Op { return []Op{i.Base, i.Mask, i.Blend} }
func (i *ImageLayerOp) EncodeArgs(w *ArgWriter) {
	w.Child(i.Base)
	w.Child(i.Mask)
	w.Child(i.Blend)
	w.Uint8(i.BlendType)
	w.Bool(i.ApplyToAlpha)
}

type ImageLayerColourOp struct {
	Base      Op
	Mask      Op
	Colour    Op
	BlendType uint8
}

func (i *ImageLayerColourOp) Type() Type     { return ImageLayerColour }
func (i *ImageLayerColourOp) Children() []Op { return []Op{i.Base, i.Mask, i.Colour} }
func (i *ImageLayerColourOp) EncodeArgs(w *ArgWriter) {
	w.Child(i.Base)
	w.Child(i.Mask)
	w.Child(i.Colour)
	w.Uint8(i.BlendType)
}

// ImageMipmapOp generates mips for Source. BlockLevels is the number of mips
// that can be built per layout block before composing; OnlyTail builds only
// the mips below that.
type ImageMipmapOp struct {
	Source      Op
	Levels      uint8
	BlockLevels uint8
	OnlyTail    bool
	Filter      uint8
}

func (i *ImageMipmapOp) Type() Type     { return ImageMipmap }
func (i *ImageMipmapOp) Children() []Op { return []Op{i.Source} }
func (i *ImageMipmapOp) EncodeArgs(w *ArgWriter) {
	w.Child(i.Source)
	w.Uint8(i.Levels)
	w.Uint8(i.BlockLevels)
	w.Bool(i.OnlyTail)
	w.Uint8(i.Filter)
}

type ImageFormatOp struct {
	Source        Op
	Format        resource.ImageFormat
	FormatIfAlpha resource.ImageFormat
}

func (i *ImageFormatOp) Type() Type     { return ImageFormat }
func (i *ImageFormatOp) Children() []Op { return []Op{i.Source} }
func (i *ImageFormatOp) EncodeArgs(w *ArgWriter) {
	w.Child(i.Source)
	w.Uint8(uint8(i.Format))
	w.Uint8(uint8(i.FormatIfAlpha))
}

type ImageSwizzleOp struct {
	Sources  []Op
	Channels []uint8
	Format   resource.ImageFormat
}

func (i *ImageSwizzleOp) Type() Type     { return ImageSwizzle }
func (i *ImageSwizzleOp) Children() []Op { return i.Sources }
func (i *ImageSwizzleOp) EncodeArgs(w *ArgWriter) {
	w.Uint8(uint8(i.Format))
	w.Uint8(uint8(len(i.Sources)))
	for k, s := range i.Sources {
		w.Child(s)
		var ch uint8
		if k < len(i.Channels) {
			ch = i.Channels[k]
		}
		w.Uint8(ch)
	}
}

type ImageResizeOp struct {
	Source Op
	Size   resource.ImageSize
}

func (i *ImageResizeOp) Type() Type     { return ImageResize }
func (i *ImageResizeOp) Children() []Op { return []Op{i.Source} }
func (i *ImageResizeOp) EncodeArgs(w *ArgWriter) {
	w.Child(i.Source)
	w.Uint16(i.Size[0])
	w.Uint16(i.Size[1])
}

type ImageResizeRelOp struct {
	Source Op
	Factor [2]float32
}

func (i *ImageResizeRelOp) Type() Type     { return ImageResizeRel }
func (i *ImageResizeRelOp) Children() []Op { return []Op{i.Source} }
func (i *ImageResizeRelOp) EncodeArgs(w *ArgWriter) {
	w.Child(i.Source)
	w.Float32(i.Factor[0])
	w.Float32(i.Factor[1])
}

type ImagePlainColourOp struct {
	Colour Op
	Size   resource.ImageSize
	Format resource.ImageFormat
	LODs   uint8
}

func (i *ImagePlainColourOp) Type() Type     { return ImagePlainColour }
func (i *ImagePlainColourOp) Children() []Op { return []Op{i.Colour} }
func (i *ImagePlainColourOp) EncodeArgs(w *ArgWriter) {
	w.Child(i.Colour)
	w.Uint16(i.Size[0])
	w.Uint16(i.Size[1])
	w.Uint8(uint8(i.Format))
	w.Uint8(i.LODs)
}

// ImageProjectOp rasterizes Image projected onto Mesh.
type ImageProjectOp struct {
	Projector Op
	Mesh      Op
	Image     Op
	Mask      Op
	FadeStart Op
	FadeEnd   Op
	Size      resource.ImageSize
	Layout    uint8
}

func (i *ImageProjectOp) Type() Type { return ImageProject }
func (i *ImageProjectOp) Children() []Op {
	return []Op{i.Projector, i.Mesh, i.Image, i.Mask, i.FadeStart, i.FadeEnd}
}
func (i *ImageProjectOp) EncodeArgs(w *ArgWriter) {
	for _, c := range i.Children() {
		w.Child(c)
	}
	w.Uint16(i.Size[0])
	w.Uint16(i.Size[1])
	w.Uint8(i.Layout)
}

// ImageComposeOp pastes BlockImage into the rectangle of block BlockID of
// Layout over Base.
type ImageComposeOp struct {
	Layout     Op
	Base       Op
	BlockImage Op
	Mask       Op
	BlockID    uint64
}

func (i *ImageComposeOp) Type() Type     { return ImageCompose }
func (i *ImageComposeOp) Children() []Op { return []Op{i.Layout, i.Base, i.BlockImage, i.Mask} }
func (i *ImageComposeOp) EncodeArgs(w *ArgWriter) {
	w.Child(i.Layout)
	w.Child(i.Base)
	w.Child(i.BlockImage)
	w.Child(i.Mask)
	w.Uint64(i.BlockID)
}

// ImageBlankLayoutOp creates an empty image sized for a packed layout.
type ImageBlankLayoutOp struct {
	Layout          Op
	BlockSize       [2]uint16
	Format          resource.ImageFormat
	GenerateMipmaps bool
	MipmapCount     uint8
}

func (i *ImageBlankLayoutOp) Type() Type     { return ImageBlankLayout }
func (i *ImageBlankLayoutOp) Children() []Op { return []Op{i.Layout} }
func (i *ImageBlankLayoutOp) EncodeArgs(w *ArgWriter) {
	w.Child(i.Layout)
	w.Uint16(i.BlockSize[0])
	w.Uint16(i.BlockSize[1])
	w.Uint8(uint8(i.Format))
	w.Bool(i.GenerateMipmaps)
	w.Uint8(i.MipmapCount)
}

type ImageCropOp struct {
	Source Op
	Min    [2]uint16
	Size   [2]uint16
}

func (i *ImageCropOp) Type() Type     { return ImageCrop }
func (i *ImageCropOp) Children() []Op { return []Op{i.Source} }
func (i *ImageCropOp) EncodeArgs(w *ArgWriter) {
	w.Child(i.Source)
	w.Uint16(i.Min[0])
	w.Uint16(i.Min[1])
	w.Uint16(i.Size[0])
	w.Uint16(i.Size[1])
}

type ImagePatchOp struct {
	Base  Op
	Patch Op
	Min   [2]uint16
}

func (i *ImagePatchOp) Type() Type     { return ImagePatch }
func (i *ImagePatchOp) Children() []Op { return []Op{i.Base, i.Patch} }
func (i *ImagePatchOp) EncodeArgs(w *ArgWriter) {
	w.Child(i.Base)
	w.Child(i.Patch)
	w.Uint16(i.Min[0])
	w.Uint16(i.Min[1])
}
