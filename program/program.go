// Package program holds the linked form of a compiled customization graph:
// a flat instruction stream, constant pools, per-state entry points and the
// table of streamed constants (roms).
package program

import (
	"fmt"

	"github.com/chazu/mutable/op"
	"github.com/chazu/mutable/resource"
)

// ---------------------------------------------------------------------------
// Program model
// ---------------------------------------------------------------------------

// DynamicResource is an operation whose value changes when some runtime
// parameters of a state change. Bit i of Mask is set when the value depends
// on the i-th runtime parameter of the state.
type DynamicResource struct {
	Address uint32
	Mask    uint64
}

// State is a named entry point of the program.
type State struct {
	Name string
	Root uint32
	// RuntimeParams indexes Program.Params.
	RuntimeParams []int
	// UpdateCache lists the addresses whose values are worth keeping
	// between updates of the runtime parameters.
	UpdateCache      []uint32
	DynamicResources []DynamicResource
}

// RomType is the kind of resource stored in a rom.
type RomType uint8

const (
	RomMesh RomType = iota
	RomImage
)

func (t RomType) String() string {
	switch t {
	case RomMesh:
		return "mesh"
	case RomImage:
		return "image"
	}
	return fmt.Sprintf("romtype(%d)", uint8(t))
}

// RomFlags qualify a rom.
type RomFlags uint8

const (
	// RomHighRes marks image mips only needed at high quality settings.
	RomHighRes RomFlags = 1 << iota
)

// Rom describes a constant packaged outside the program.
type Rom struct {
	ID       uint32
	Type     RomType
	Size     uint32
	SourceID uint32
	Flags    RomFlags
	// Index is the position of the resource in its constant pool. LOD is
	// the mip of an image rom and zero for meshes.
	Index uint32
	LOD   int
	// Shared lists the other image mips with the same content.
	Shared []RomRef `cbor:",omitempty"`

	// Data is the serialized resource. It is not part of the encoded
	// program and is stored next to it.
	Data []byte `cbor:"-"`
}

// RomRef names one mip of a pool image.
type RomRef struct {
	Index uint32
	LOD   int
}

// Program is the output of the compiler.
type Program struct {
	// Code holds the instructions. Offsets[a] is the position in Code of the
	// instruction at address a. Address zero is reserved for "no operation".
	Code    []byte
	Offsets []uint32

	Params []*op.ParamDesc
	States []State
	Roms   []Rom

	Meshes        []*resource.Mesh
	Images        []*resource.Image
	Layouts       []*resource.Layout
	ExtensionData []*resource.ExtensionData
	Strings       []string
	Matrices      []resource.Mat4
	Projectors    []resource.Projector
	Curves        []resource.Curve
	Shapes        []resource.Shape
}

// OpCount returns the number of linked operations, excluding address zero.
func (p *Program) OpCount() int {
	if len(p.Offsets) == 0 {
		return 0
	}
	return len(p.Offsets) - 1
}

// Instruction returns the type and the operand bytes of the instruction at
// address a.
func (p *Program) Instruction(a uint32) (op.Type, []byte) {
	if a == 0 || int(a) >= len(p.Offsets) {
		return op.None, nil
	}
	start := p.Offsets[a]
	end := uint32(len(p.Code))
	if int(a)+1 < len(p.Offsets) {
		end = p.Offsets[a+1]
	}
	code := op.Type(uint16(p.Code[start]) | uint16(p.Code[start+1])<<8)
	return code, p.Code[start+2 : end]
}

// FindState returns the index of the state called name, or -1.
func (p *Program) FindState(name string) int {
	for i := range p.States {
		if p.States[i].Name == name {
			return i
		}
	}
	return -1
}

// FindParam returns the index of the first parameter called name, or -1.
func (p *Program) FindParam(name string) int {
	for i, d := range p.Params {
		if d.Name == name {
			return i
		}
	}
	return -1
}

// FindRom returns the rom with the given id.
func (p *Program) FindRom(id uint32) (*Rom, bool) {
	for i := range p.Roms {
		if p.Roms[i].ID == id {
			return &p.Roms[i], true
		}
	}
	return nil, false
}

// ImageRom returns the rom holding mip lod of image index.
func (p *Program) ImageRom(index uint32, lod int) (*Rom, bool) {
	for i := range p.Roms {
		r := &p.Roms[i]
		if r.Type != RomImage {
			continue
		}
		if r.Index == index && r.LOD == lod {
			return r, true
		}
		for _, ref := range r.Shared {
			if ref.Index == index && ref.LOD == lod {
				return r, true
			}
		}
	}
	return nil, false
}
