package node

import "github.com/chazu/mutable/resource"

// BlendType is an image layering mode.
type BlendType uint8

const (
	BlendNone BlendType = iota
	BlendSoftLight
	BlendHardLight
	BlendBurn
	BlendDodge
	BlendScreen
	BlendOverlay
	BlendAlphaOverlay
	BlendMultiply
	BlendBlend
	BlendLighten
	BlendNormalCombine
)

type ImageConstant struct {
	Value *resource.Image
}

type ImageParameter struct {
	Name   string
	UID    string
	Ranges []Range
}

// ImageReference is an image resolved by the runtime from an external id.
type ImageReference struct {
	ID uint32
}

type ImageTable struct {
	TableSource
}

type ImageSwitch struct {
	Parameter Scalar
	Options   []Image
}

type ImageVariation struct {
	Default    Image
	Variations []TagBranch[Image]
}

type ImageLayer struct {
	Base       Image
	Mask       Image
	Blended    Image
	Type       BlendType
	ApplyAlpha bool
}

type ImageLayerColour struct {
	Base   Image
	Mask   Image
	Colour Color
	Type   BlendType
}

// MipmapFilter selects the downsampling filter of a mipmap node.
type MipmapFilter uint8

const (
	MipmapFilterSimpleAverage MipmapFilter = iota
	MipmapFilterSharpen
	MipmapFilterNone
)

type ImageMipmap struct {
	Source Image
	Filter MipmapFilter
}

type ImageFormat struct {
	Source        Image
	Format        resource.ImageFormat
	FormatIfAlpha resource.ImageFormat
}

// ImageSwizzle builds an image taking one channel from each source.
type ImageSwizzle struct {
	Sources  []Image
	Channels []uint8
	Format   resource.ImageFormat
}

type ImageResize struct {
	Source   Image
	SizeX    float32
	SizeY    float32
	Relative bool
}

type ImagePlainColour struct {
	Colour Color
	SizeX  uint16
	SizeY  uint16
}

type ImageProject struct {
	Projector      Projector
	Mesh           Mesh
	Image          Image
	Mask           Image
	AngleFadeStart Scalar
	AngleFadeEnd   Scalar
	ImageSize      resource.ImageSize
	Layout         uint8
}

type ImageInterpolate struct {
	Factor  Scalar
	Targets []Image
}

type ImageInvert struct {
	Base Image
}

type ImageSaturate struct {
	Source Image
	Factor Scalar
}

type ImageLuminance struct {
	Source Image
}

type ImageColourMap struct {
	Base Image
	Mask Image
	Map  Image
}

type ImageBinarise struct {
	Base      Image
	Threshold Scalar
}

type ImageTransform struct {
	Base     Image
	OffsetX  Scalar
	OffsetY  Scalar
	ScaleX   Scalar
	ScaleY   Scalar
	Rotation Scalar
}

func (*ImageConstant) Kind() Kind    { return KindImageConstant }
func (*ImageParameter) Kind() Kind   { return KindImageParameter }
func (*ImageReference) Kind() Kind   { return KindImageReference }
func (*ImageTable) Kind() Kind       { return KindImageTable }
func (*ImageSwitch) Kind() Kind      { return KindImageSwitch }
func (*ImageVariation) Kind() Kind   { return KindImageVariation }
func (*ImageLayer) Kind() Kind       { return KindImageLayer }
func (*ImageLayerColour) Kind() Kind { return KindImageLayerColour }
func (*ImageMipmap) Kind() Kind      { return KindImageMipmap }
func (*ImageFormat) Kind() Kind      { return KindImageFormat }
func (*ImageSwizzle) Kind() Kind     { return KindImageSwizzle }
func (*ImageResize) Kind() Kind      { return KindImageResize }
func (*ImagePlainColour) Kind() Kind { return KindImagePlainColour }
func (*ImageProject) Kind() Kind     { return KindImageProject }
func (*ImageInterpolate) Kind() Kind { return KindImageInterpolate }
func (*ImageInvert) Kind() Kind      { return KindImageInvert }
func (*ImageSaturate) Kind() Kind    { return KindImageSaturate }
func (*ImageLuminance) Kind() Kind   { return KindImageLuminance }
func (*ImageColourMap) Kind() Kind   { return KindImageColourMap }
func (*ImageBinarise) Kind() Kind    { return KindImageBinarise }
func (*ImageTransform) Kind() Kind   { return KindImageTransform }

func (*ImageConstant) imageNode()    {}
func (*ImageParameter) imageNode()   {}
func (*ImageReference) imageNode()   {}
func (*ImageTable) imageNode()       {}
func (*ImageSwitch) imageNode()      {}
func (*ImageVariation) imageNode()   {}
func (*ImageLayer) imageNode()       {}
func (*ImageLayerColour) imageNode() {}
func (*ImageMipmap) imageNode()      {}
func (*ImageFormat) imageNode()      {}
func (*ImageSwizzle) imageNode()     {}
func (*ImageResize) imageNode()      {}
func (*ImagePlainColour) imageNode() {}
func (*ImageProject) imageNode()     {}
func (*ImageInterpolate) imageNode() {}
func (*ImageInvert) imageNode()      {}
func (*ImageSaturate) imageNode()    {}
func (*ImageLuminance) imageNode()   {}
func (*ImageColourMap) imageNode()   {}
func (*ImageBinarise) imageNode()    {}
func (*ImageTransform) imageNode()   {}

func (n *ImageParameter) DisplayName() string { return n.Name }
