package op

import (
	"encoding/binary"
	"math"

	"github.com/chazu/mutable/resource"
)

// Pool receives the constants referenced by instructions and returns their
// index in the program constant tables.
type Pool interface {
	MeshIndex(*resource.Mesh) uint32
	ImageIndex(*resource.Image) uint32
	LayoutIndex(*resource.Layout) uint32
	ExtensionDataIndex(*resource.ExtensionData) uint32
	StringIndex(string) uint32
	MatrixIndex(resource.Mat4) uint32
	ProjectorIndex(resource.Projector) uint32
	CurveIndex(resource.Curve) uint32
	ShapeIndex(resource.Shape) uint32
	ParameterIndex(*ParamDesc) uint32
}

// ArgWriter serializes instruction operands. Multi-byte values are little
// endian.
type ArgWriter struct {
	buf  []byte
	pool Pool
	addr func(Op) uint32
}

// NewArgWriter creates a writer that stores constants in pool and resolves
// child operations with addr.
func NewArgWriter(pool Pool, addr func(Op) uint32) *ArgWriter {
	return &ArgWriter{pool: pool, addr: addr}
}

// Reset clears the buffer for the next instruction.
func (w *ArgWriter) Reset() { w.buf = w.buf[:0] }

// Bytes returns the encoded operands.
func (w *ArgWriter) Bytes() []byte { return w.buf }

func (w *ArgWriter) Uint8(v uint8) { w.buf = append(w.buf, v) }

func (w *ArgWriter) Uint16(v uint16) { w.buf = binary.LittleEndian.AppendUint16(w.buf, v) }

func (w *ArgWriter) Uint32(v uint32) { w.buf = binary.LittleEndian.AppendUint32(w.buf, v) }

func (w *ArgWriter) Uint64(v uint64) { w.buf = binary.LittleEndian.AppendUint64(w.buf, v) }

func (w *ArgWriter) Int32(v int32) { w.Uint32(uint32(v)) }

func (w *ArgWriter) Float32(v float32) { w.Uint32(math.Float32bits(v)) }

func (w *ArgWriter) Bool(v bool) {
	if v {
		w.Uint8(1)
	} else {
		w.Uint8(0)
	}
}

func (w *ArgWriter) Vec3(v resource.Vec3) {
	for _, f := range v {
		w.Float32(f)
	}
}

func (w *ArgWriter) Vec4(v resource.Vec4) {
	for _, f := range v {
		w.Float32(f)
	}
}

// Child writes the address of a child operation. Nil children encode as
// address zero.
func (w *ArgWriter) Child(o Op) {
	if o == nil {
		w.Uint32(0)
		return
	}
	w.Uint32(w.addr(o))
}

// Strings writes a length-prefixed list of string constant indices.
func (w *ArgWriter) Strings(s []string) {
	w.Uint16(uint16(len(s)))
	for _, v := range s {
		w.String(v)
	}
}

func (w *ArgWriter) String(s string) { w.Uint32(w.pool.StringIndex(s)) }

func (w *ArgWriter) Mesh(m *resource.Mesh) { w.Uint32(w.pool.MeshIndex(m)) }

func (w *ArgWriter) Image(img *resource.Image) { w.Uint32(w.pool.ImageIndex(img)) }

func (w *ArgWriter) Layout(l *resource.Layout) { w.Uint32(w.pool.LayoutIndex(l)) }

func (w *ArgWriter) ExtensionData(e *resource.ExtensionData) {
	w.Uint32(w.pool.ExtensionDataIndex(e))
}

func (w *ArgWriter) Matrix(m resource.Mat4) { w.Uint32(w.pool.MatrixIndex(m)) }

func (w *ArgWriter) Projector(p resource.Projector) { w.Uint32(w.pool.ProjectorIndex(p)) }

func (w *ArgWriter) Curve(c resource.Curve) { w.Uint32(w.pool.CurveIndex(c)) }

func (w *ArgWriter) Shape(s resource.Shape) { w.Uint32(w.pool.ShapeIndex(s)) }

func (w *ArgWriter) Parameter(p *ParamDesc) { w.Uint32(w.pool.ParameterIndex(p)) }
