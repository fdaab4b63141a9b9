package program

import (
	"bytes"
	"encoding/binary"

	"github.com/chazu/mutable/op"
	"github.com/chazu/mutable/resource"
)

// ---------------------------------------------------------------------------
// Linker: operation DAG -> instruction stream
// ---------------------------------------------------------------------------

// constPool stores values once, keyed by their canonical encoding.
type constPool[T any] struct {
	values  []T
	byHash  map[uint64][]uint32
	encoded [][]byte
}

func newConstPool[T any]() *constPool[T] {
	return &constPool[T]{byHash: make(map[uint64][]uint32)}
}

func (p *constPool[T]) index(v T) uint32 {
	data := resource.MustEncode(v)
	h := resource.Hash64(data)
	for _, i := range p.byHash[h] {
		if bytes.Equal(p.encoded[i], data) {
			return i
		}
	}
	i := uint32(len(p.values))
	p.values = append(p.values, v)
	p.encoded = append(p.encoded, data)
	p.byHash[h] = append(p.byHash[h], i)
	return i
}

// Linker assigns addresses to operations and serializes them. A Linker is
// used for a single program and is not safe for concurrent use.
type Linker struct {
	addrs map[op.Op]uint32
	order []op.Op

	meshPtr  map[*resource.Mesh]uint32
	imagePtr map[*resource.Image]uint32
	params   map[*op.ParamDesc]uint32

	prog *Program

	meshes     *constPool[*resource.Mesh]
	images     *constPool[*resource.Image]
	layouts    *constPool[*resource.Layout]
	extensions *constPool[*resource.ExtensionData]
	strings    map[string]uint32
	matrices   *constPool[resource.Mat4]
	projectors *constPool[resource.Projector]
	curves     *constPool[resource.Curve]
	shapes     *constPool[resource.Shape]
}

// NewLinker creates a linker for a program exposing params. Parameters
// referenced by operations but missing from params are appended.
func NewLinker(params []*op.ParamDesc) *Linker {
	l := &Linker{
		addrs:      make(map[op.Op]uint32),
		meshPtr:    make(map[*resource.Mesh]uint32),
		imagePtr:   make(map[*resource.Image]uint32),
		params:     make(map[*op.ParamDesc]uint32),
		prog:       &Program{},
		meshes:     newConstPool[*resource.Mesh](),
		images:     newConstPool[*resource.Image](),
		layouts:    newConstPool[*resource.Layout](),
		extensions: newConstPool[*resource.ExtensionData](),
		strings:    make(map[string]uint32),
		matrices:   newConstPool[resource.Mat4](),
		projectors: newConstPool[resource.Projector](),
		curves:     newConstPool[resource.Curve](),
		shapes:     newConstPool[resource.Shape](),
	}
	for _, p := range params {
		l.ParameterIndex(p)
	}
	return l
}

// Address returns the address of a linked operation. Nil and unresolved
// placeholders have address zero.
func (l *Linker) Address(o op.Op) uint32 {
	o = op.Deref(o)
	if o == nil {
		return 0
	}
	a, ok := l.addrs[o]
	if !ok {
		panic("program: operation " + o.Type().String() + " was not linked")
	}
	return a
}

// Link serializes every operation reachable from roots and returns the
// program. Children always get lower addresses than their parents, so the
// result only depends on the shape of the DAG.
func (l *Linker) Link(roots []op.Op) *Program {
	for _, r := range roots {
		l.assign(r)
	}

	p := l.prog
	p.Offsets = make([]uint32, len(l.order)+1)
	w := op.NewArgWriter(l, l.Address)
	for i, o := range l.order {
		p.Offsets[i+1] = uint32(len(p.Code))
		w.Reset()
		o.EncodeArgs(w)
		p.Code = binary.LittleEndian.AppendUint16(p.Code, uint16(o.Type()))
		p.Code = append(p.Code, w.Bytes()...)
	}

	p.Meshes = l.meshes.values
	p.Images = l.images.values
	p.Layouts = l.layouts.values
	p.ExtensionData = l.extensions.values
	p.Matrices = l.matrices.values
	p.Projectors = l.projectors.values
	p.Curves = l.curves.values
	p.Shapes = l.shapes.values
	return p
}

// assign gives addresses in post order, iteratively.
func (l *Linker) assign(root op.Op) {
	type frame struct {
		o    op.Op
		next int
	}
	root = op.Deref(root)
	if root == nil {
		return
	}
	if _, ok := l.addrs[root]; ok {
		return
	}
	// Zero marks operations on the stack.
	l.addrs[root] = 0
	stack := []frame{{o: root}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		kids := top.o.Children()
		if top.next < len(kids) {
			c := op.Deref(kids[top.next])
			top.next++
			if c == nil {
				continue
			}
			if _, ok := l.addrs[c]; ok {
				continue
			}
			l.addrs[c] = 0
			stack = append(stack, frame{o: c})
			continue
		}
		l.order = append(l.order, top.o)
		l.addrs[top.o] = uint32(len(l.order))
		stack = stack[:len(stack)-1]
	}
}

// ---------------------------------------------------------------------------
// op.Pool
// ---------------------------------------------------------------------------

func (l *Linker) MeshIndex(m *resource.Mesh) uint32 {
	if i, ok := l.meshPtr[m]; ok {
		return i
	}
	i := l.meshes.index(m)
	l.meshPtr[m] = i
	return i
}

func (l *Linker) ImageIndex(img *resource.Image) uint32 {
	if i, ok := l.imagePtr[img]; ok {
		return i
	}
	i := l.images.index(img)
	l.imagePtr[img] = i
	return i
}

func (l *Linker) LayoutIndex(v *resource.Layout) uint32 { return l.layouts.index(v) }

func (l *Linker) ExtensionDataIndex(v *resource.ExtensionData) uint32 {
	return l.extensions.index(v)
}

func (l *Linker) StringIndex(s string) uint32 {
	if i, ok := l.strings[s]; ok {
		return i
	}
	i := uint32(len(l.prog.Strings))
	l.prog.Strings = append(l.prog.Strings, s)
	l.strings[s] = i
	return i
}

func (l *Linker) MatrixIndex(v resource.Mat4) uint32 { return l.matrices.index(v) }

func (l *Linker) ProjectorIndex(v resource.Projector) uint32 { return l.projectors.index(v) }

func (l *Linker) CurveIndex(v resource.Curve) uint32 { return l.curves.index(v) }

func (l *Linker) ShapeIndex(v resource.Shape) uint32 { return l.shapes.index(v) }

func (l *Linker) ParameterIndex(p *op.ParamDesc) uint32 {
	if i, ok := l.params[p]; ok {
		return i
	}
	i := uint32(len(l.prog.Params))
	l.prog.Params = append(l.prog.Params, p)
	l.params[p] = i
	return i
}
