package resource

import "fmt"

// ImageFormat is the pixel format of an image.
type ImageFormat uint8

const (
	FormatNone ImageFormat = iota
	FormatRGBUByte
	FormatRGBAUByte
	FormatLUByte
	FormatBC1
	FormatBC3
	FormatBC4
	FormatBC5
	FormatASTC4x4RGBALDR
)

// BytesPerPixel returns the storage size of one pixel for uncompressed
// formats, and an average for block-compressed ones.
func (f ImageFormat) BytesPerPixel() float32 {
	switch f {
	case FormatRGBUByte:
		return 3
	case FormatRGBAUByte:
		return 4
	case FormatLUByte, FormatBC3, FormatBC5, FormatASTC4x4RGBALDR:
		return 1
	case FormatBC1, FormatBC4:
		return 0.5
	}
	return 0
}

func (f ImageFormat) String() string {
	switch f {
	case FormatNone:
		return "none"
	case FormatRGBUByte:
		return "rgb_ubyte"
	case FormatRGBAUByte:
		return "rgba_ubyte"
	case FormatLUByte:
		return "l_ubyte"
	case FormatBC1:
		return "bc1"
	case FormatBC3:
		return "bc3"
	case FormatBC4:
		return "bc4"
	case FormatBC5:
		return "bc5"
	case FormatASTC4x4RGBALDR:
		return "astc_4x4_rgba_ldr"
	}
	return fmt.Sprintf("format(%d)", uint8(f))
}

// ImageSize is a width/height pair in pixels.
type ImageSize [2]uint16

// ImageDesc describes an image without its pixel data.
type ImageDesc struct {
	Size   ImageSize
	Format ImageFormat
	LODs   uint8
}

// FullLODCount returns the number of mips in a complete chain for size.
func FullLODCount(size ImageSize) uint8 {
	m := size[0]
	if size[1] > m {
		m = size[1]
	}
	if m == 0 {
		return 0
	}
	return uint8(CeilLog2(uint32(m))) + 1
}

// Image is a constant texture with optional mipmaps. Data holds one byte
// slice per LOD, largest first.
type Image struct {
	Width  uint16
	Height uint16
	Format ImageFormat
	Data   [][]byte

	Source SourceData
}

// NewPlainImage returns an image of the given size filled with one colour.
func NewPlainImage(w, h uint16, format ImageFormat, colour Vec4) *Image {
	img := &Image{Width: w, Height: h, Format: format}
	bpp := int(format.BytesPerPixel())
	if bpp == 0 {
		bpp = 4
	}
	px := make([]byte, bpp)
	for i := range px {
		c := colour[i%4]
		if format == FormatLUByte {
			c = colour[0]
		}
		px[i] = toByte(c)
	}
	buf := make([]byte, 0, int(w)*int(h)*bpp)
	for i := 0; i < int(w)*int(h); i++ {
		buf = append(buf, px...)
	}
	img.Data = [][]byte{buf}
	return img
}

// Desc returns the image descriptor.
func (img *Image) Desc() ImageDesc {
	return ImageDesc{Size: ImageSize{img.Width, img.Height}, Format: img.Format, LODs: uint8(len(img.Data))}
}

// LODCount returns the number of stored mips.
func (img *Image) LODCount() int {
	return len(img.Data)
}

// ExtractLOD returns a single-mip image holding mip lod of img.
func (img *Image) ExtractLOD(lod int) *Image {
	w, h := img.Width, img.Height
	for i := 0; i < lod; i++ {
		w = max(1, w/2)
		h = max(1, h/2)
	}
	return &Image{Width: w, Height: h, Format: img.Format, Data: [][]byte{img.Data[lod]}, Source: img.Source}
}

// DataSize returns the total number of pixel bytes.
func (img *Image) DataSize() int {
	n := 0
	for _, d := range img.Data {
		n += len(d)
	}
	return n
}

// Sample returns the colour at normalized coordinates uv using point
// sampling of the first mip. Only uncompressed formats can be sampled; other
// formats read as transparent black.
func (img *Image) Sample(uv Vec2) Vec4 {
	if img == nil || len(img.Data) == 0 || img.Width == 0 || img.Height == 0 {
		return Vec4{}
	}
	x := clampIndex(uv[0], img.Width)
	y := clampIndex(uv[1], img.Height)
	var bpp int
	switch img.Format {
	case FormatLUByte:
		bpp = 1
	case FormatRGBUByte:
		bpp = 3
	case FormatRGBAUByte:
		bpp = 4
	default:
		return Vec4{}
	}
	off := (y*int(img.Width) + x) * bpp
	d := img.Data[0]
	if off+bpp > len(d) {
		return Vec4{}
	}
	switch bpp {
	case 1:
		l := float32(d[off]) / 255
		return Vec4{l, l, l, 1}
	case 3:
		return Vec4{float32(d[off]) / 255, float32(d[off+1]) / 255, float32(d[off+2]) / 255, 1}
	}
	return Vec4{float32(d[off]) / 255, float32(d[off+1]) / 255, float32(d[off+2]) / 255, float32(d[off+3]) / 255}
}

func clampIndex(f float32, n uint16) int {
	i := int(f * float32(n))
	if i < 0 {
		return 0
	}
	if i >= int(n) {
		return int(n) - 1
	}
	return i
}

func toByte(f float32) byte {
	if f <= 0 {
		return 0
	}
	if f >= 1 {
		return 255
	}
	return byte(f*255 + 0.5)
}
