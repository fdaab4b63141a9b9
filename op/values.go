package op

import (
	"fmt"

	"github.com/chazu/mutable/resource"
)

// ---------------------------------------------------------------------------
// Constants
// ---------------------------------------------------------------------------

type ConstantInt struct{ Value int32 }

func (c *ConstantInt) Type() Type              { return NumConstant }
func (c *ConstantInt) Children() []Op          { return nil }
func (c *ConstantInt) EncodeArgs(w *ArgWriter) { w.Int32(c.Value) }

type ConstantScalar struct{ Value float32 }

func (c *ConstantScalar) Type() Type              { return ScalarConstant }
func (c *ConstantScalar) Children() []Op          { return nil }
func (c *ConstantScalar) EncodeArgs(w *ArgWriter) { w.Float32(c.Value) }

type ConstantColor struct{ Value resource.Vec4 }

func (c *ConstantColor) Type() Type              { return ColorConstant }
func (c *ConstantColor) Children() []Op          { return nil }
func (c *ConstantColor) EncodeArgs(w *ArgWriter) { w.Vec4(c.Value) }

type ConstantString struct{ Value string }

func (c *ConstantString) Type() Type              { return StringConstant }
func (c *ConstantString) Children() []Op          { return nil }
func (c *ConstantString) EncodeArgs(w *ArgWriter) { w.String(c.Value) }

type ConstantMatrix struct{ Value resource.Mat4 }

func (c *ConstantMatrix) Type() Type              { return MatrixConstant }
func (c *ConstantMatrix) Children() []Op          { return nil }
func (c *ConstantMatrix) EncodeArgs(w *ArgWriter) { w.Matrix(c.Value) }

type ConstantProjector struct{ Value resource.Projector }

func (c *ConstantProjector) Type() Type              { return ProjectorConstant }
func (c *ConstantProjector) Children() []Op          { return nil }
func (c *ConstantProjector) EncodeArgs(w *ArgWriter) { w.Projector(c.Value) }

// ConstantMesh is a mesh stored in the program constant tables.
type ConstantMesh struct{ Value *resource.Mesh }

func (c *ConstantMesh) Type() Type              { return MeshConstant }
func (c *ConstantMesh) Children() []Op          { return nil }
func (c *ConstantMesh) EncodeArgs(w *ArgWriter) { w.Mesh(c.Value) }

// ConstantImage is an image stored in the program constant tables.
type ConstantImage struct{ Value *resource.Image }

func (c *ConstantImage) Type() Type              { return ImageConstant }
func (c *ConstantImage) Children() []Op          { return nil }
func (c *ConstantImage) EncodeArgs(w *ArgWriter) { w.Image(c.Value) }

type ConstantLayout struct{ Value *resource.Layout }

func (c *ConstantLayout) Type() Type              { return LayoutConstant }
func (c *ConstantLayout) Children() []Op          { return nil }
func (c *ConstantLayout) EncodeArgs(w *ArgWriter) { w.Layout(c.Value) }

type ConstantExtensionData struct{ Value *resource.ExtensionData }

func (c *ConstantExtensionData) Type() Type              { return ExtensionDataConstant }
func (c *ConstantExtensionData) Children() []Op          { return nil }
func (c *ConstantExtensionData) EncodeArgs(w *ArgWriter) { w.ExtensionData(c.Value) }

// ---------------------------------------------------------------------------
// Parameters
// ---------------------------------------------------------------------------

// ParamType is the value type of a parameter.
type ParamType uint8

const (
	ParamBool ParamType = iota
	ParamInt
	ParamFloat
	ParamColor
	ParamProjector
	ParamImage
	ParamString
	ParamMatrix
)

// IntOption is a named value of an integer parameter.
type IntOption struct {
	Value int32
	Name  string
}

// ParamDesc describes a user-visible parameter of the compiled program.
type ParamDesc struct {
	Name string
	UID  string
	Type ParamType

	DefaultBool      bool
	DefaultInt       int32
	DefaultFloat     float32
	DefaultColor     resource.Vec4
	DefaultString    string
	DefaultMatrix    resource.Mat4
	DefaultProjector resource.Projector

	Options []IntOption
	// Ranges names the dimensions of multi-valued parameters.
	Ranges []string
}

// Parameter reads a parameter value at runtime.
type Parameter struct {
	Code   Type
	Desc   *ParamDesc
	Ranges []Op
}

func (p *Parameter) Type() Type     { return p.Code }
func (p *Parameter) Children() []Op { return p.Ranges }
func (p *Parameter) EncodeArgs(w *ArgWriter) {
	w.Parameter(p.Desc)
	w.Uint8(uint8(len(p.Ranges)))
	for _, r := range p.Ranges {
		w.Child(r)
	}
}

// ParameterType returns the op type reading a parameter of type t.
func ParameterType(t ParamType) Type {
	switch t {
	case ParamBool:
		return BoolParameter
	case ParamInt:
		return NumParameter
	case ParamFloat:
		return ScalarParameter
	case ParamColor:
		return ColorParameter
	case ParamProjector:
		return ProjectorParameter
	case ParamImage:
		return ImageParameter
	case ParamString:
		return StringParameter
	case ParamMatrix:
		return MatrixParameter
	}
	panic(fmt.Sprintf("op: unknown parameter type %d", t))
}

// NewParameter creates a parameter op for desc.
func NewParameter(desc *ParamDesc, ranges ...Op) *Parameter {
	return &Parameter{Code: ParameterType(desc.Type), Desc: desc, Ranges: ranges}
}

// ---------------------------------------------------------------------------
// Control flow
// ---------------------------------------------------------------------------

// Conditional selects Yes or No depending on Condition.
type Conditional struct {
	Code      Type
	Condition Op
	Yes       Op
	No        Op
}

// NewConditional builds a conditional of the given category. Constant
// conditions are folded.
func NewConditional(c Category, cond, yes, no Op) Op {
	mustCondition(cond)
	if v, ok := BoolValue(cond); ok {
		if v {
			return yes
		}
		return no
	}
	return &Conditional{Code: ConditionalType(c), Condition: cond, Yes: yes, No: no}
}

func (c *Conditional) Type() Type     { return c.Code }
func (c *Conditional) Children() []Op { return []Op{c.Condition, c.Yes, c.No} }
func (c *Conditional) EncodeArgs(w *ArgWriter) {
	w.Child(c.Condition)
	w.Child(c.Yes)
	w.Child(c.No)
}

// Case is one branch of a switch.
type Case struct {
	Value  int32
	Branch Op
}

// Switch selects a branch by the value of an integer operation.
type Switch struct {
	Code     Type
	Variable Op
	Default  Op
	Cases    []Case
}

// NewSwitch creates an empty switch of the given category.
func NewSwitch(c Category, variable Op) *Switch {
	return &Switch{Code: SwitchType(c), Variable: variable}
}

func (s *Switch) Type() Type { return s.Code }

func (s *Switch) Children() []Op {
	kids := make([]Op, 0, 2+len(s.Cases))
	kids = append(kids, s.Variable, s.Default)
	for _, c := range s.Cases {
		kids = append(kids, c.Branch)
	}
	return kids
}

func (s *Switch) EncodeArgs(w *ArgWriter) {
	w.Child(s.Variable)
	w.Child(s.Default)
	w.Uint32(uint32(len(s.Cases)))
	for _, c := range s.Cases {
		w.Int32(c.Value)
		w.Child(c.Branch)
	}
}

// ---------------------------------------------------------------------------
// Scalars and colours
// ---------------------------------------------------------------------------

type Curve struct {
	Input Op
	Curve resource.Curve
}

func (c *Curve) Type() Type     { return ScalarCurve }
func (c *Curve) Children() []Op { return []Op{c.Input} }
func (c *Curve) EncodeArgs(w *ArgWriter) {
	w.Child(c.Input)
	w.Curve(c.Curve)
}

// ArithmeticOperation mirrors the arithmetic nodes.
type ArithmeticOperation uint8

const (
	Add ArithmeticOperation = iota
	Subtract
	Multiply
	Divide
)

type Arithmetic struct {
	Code      Type
	Operation ArithmeticOperation
	A, B      Op
}

func (a *Arithmetic) Type() Type     { return a.Code }
func (a *Arithmetic) Children() []Op { return []Op{a.A, a.B} }
func (a *Arithmetic) EncodeArgs(w *ArgWriter) {
	w.Uint8(uint8(a.Operation))
	w.Child(a.A)
	w.Child(a.B)
}

// ---------------------------------------------------------------------------
// Instances
// ---------------------------------------------------------------------------

// InstanceAdd adds a value to an instance. Which fields are meaningful
// depends on Code.
type InstanceAdd struct {
	Code            Type
	Instance        Op
	Value           Op
	ID              uint32
	ExternalID      uint32
	SharedSurfaceID int32
	Name            string
}

func (a *InstanceAdd) Type() Type     { return a.Code }
func (a *InstanceAdd) Children() []Op { return []Op{a.Instance, a.Value} }
func (a *InstanceAdd) EncodeArgs(w *ArgWriter) {
	w.Child(a.Instance)
	w.Child(a.Value)
	w.Uint32(a.ID)
	w.Uint32(a.ExternalID)
	w.Int32(a.SharedSurfaceID)
	w.String(a.Name)
}

// AddLOD builds the LOD list of a component.
type AddLOD struct {
	LODs []Op
}

func (a *AddLOD) Type() Type     { return InstanceAddLOD }
func (a *AddLOD) Children() []Op { return a.LODs }
func (a *AddLOD) EncodeArgs(w *ArgWriter) {
	w.Uint8(uint8(len(a.LODs)))
	for _, l := range a.LODs {
		w.Child(l)
	}
}

// ---------------------------------------------------------------------------
// Layouts
// ---------------------------------------------------------------------------

type LayoutFromMeshOp struct {
	Mesh        Op
	LayoutIndex uint8
}

func (l *LayoutFromMeshOp) Type() Type     { return LayoutFromMesh }
func (l *LayoutFromMeshOp) Children() []Op { return []Op{l.Mesh} }
func (l *LayoutFromMeshOp) EncodeArgs(w *ArgWriter) {
	w.Child(l.Mesh)
	w.Uint8(l.LayoutIndex)
}

type LayoutRemoveBlocksOp struct {
	Source          Op
	ReferenceLayout Op
}

func (l *LayoutRemoveBlocksOp) Type() Type     { return LayoutRemoveBlocks }
func (l *LayoutRemoveBlocksOp) Children() []Op { return []Op{l.Source, l.ReferenceLayout} }
func (l *LayoutRemoveBlocksOp) EncodeArgs(w *ArgWriter) {
	w.Child(l.Source)
	w.Child(l.ReferenceLayout)
}

type LayoutMergeOp struct {
	Base  Op
	Added Op
}

func (l *LayoutMergeOp) Type() Type     { return LayoutMerge }
func (l *LayoutMergeOp) Children() []Op { return []Op{l.Base, l.Added} }
func (l *LayoutMergeOp) EncodeArgs(w *ArgWriter) {
	w.Child(l.Base)
	w.Child(l.Added)
}
