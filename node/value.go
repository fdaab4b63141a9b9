package node

import "github.com/chazu/mutable/resource"

// ---------------------------------------------------------------------------
// Scalars
// ---------------------------------------------------------------------------

type ScalarConstant struct {
	Value float32
}

type ScalarParameter struct {
	Name    string
	UID     string
	Default float32
	Ranges  []Range
}

// EnumOption is one named value of an enumeration parameter.
type EnumOption struct {
	Value int32
	Name  string
}

type ScalarEnumParameter struct {
	Name    string
	UID     string
	Default int32
	Options []EnumOption
	Ranges  []Range
}

type ScalarSwitch struct {
	Parameter Scalar
	Options   []Scalar
}

type ScalarVariation struct {
	Default    Scalar
	Variations []TagBranch[Scalar]
}

type ScalarCurve struct {
	Input Scalar
	Curve resource.Curve
}

type ScalarArithmetic struct {
	Operation ArithmeticOp
	A, B      Scalar
}

type ScalarTable struct {
	TableSource
}

func (*ScalarConstant) Kind() Kind      { return KindScalarConstant }
func (*ScalarParameter) Kind() Kind     { return KindScalarParameter }
func (*ScalarEnumParameter) Kind() Kind { return KindScalarEnumParameter }
func (*ScalarSwitch) Kind() Kind        { return KindScalarSwitch }
func (*ScalarVariation) Kind() Kind     { return KindScalarVariation }
func (*ScalarCurve) Kind() Kind         { return KindScalarCurve }
func (*ScalarArithmetic) Kind() Kind    { return KindScalarArithmetic }
func (*ScalarTable) Kind() Kind         { return KindScalarTable }

func (*ScalarConstant) scalarNode()      {}
func (*ScalarParameter) scalarNode()     {}
func (*ScalarEnumParameter) scalarNode() {}
func (*ScalarSwitch) scalarNode()        {}
func (*ScalarVariation) scalarNode()     {}
func (*ScalarCurve) scalarNode()         {}
func (*ScalarArithmetic) scalarNode()    {}
func (*ScalarTable) scalarNode()         {}

func (n *ScalarParameter) DisplayName() string     { return n.Name }
func (n *ScalarEnumParameter) DisplayName() string { return n.Name }

// ---------------------------------------------------------------------------
// Colours
// ---------------------------------------------------------------------------

type ColorConstant struct {
	Value resource.Vec4
}

type ColorParameter struct {
	Name    string
	UID     string
	Default resource.Vec4
	Ranges  []Range
}

type ColorSwitch struct {
	Parameter Scalar
	Options   []Color
}

type ColorVariation struct {
	Default    Color
	Variations []TagBranch[Color]
}

type ColorSampleImage struct {
	Image Image
	X, Y  Scalar
}

type ColorFromScalars struct {
	R, G, B, A Scalar
}

type ColorArithmetic struct {
	Operation ArithmeticOp
	A, B      Color
}

type ColorTable struct {
	TableSource
}

func (*ColorConstant) Kind() Kind    { return KindColorConstant }
func (*ColorParameter) Kind() Kind   { return KindColorParameter }
func (*ColorSwitch) Kind() Kind      { return KindColorSwitch }
func (*ColorVariation) Kind() Kind   { return KindColorVariation }
func (*ColorSampleImage) Kind() Kind { return KindColorSampleImage }
func (*ColorFromScalars) Kind() Kind { return KindColorFromScalars }
func (*ColorArithmetic) Kind() Kind  { return KindColorArithmetic }
func (*ColorTable) Kind() Kind       { return KindColorTable }

func (*ColorConstant) colorNode()    {}
func (*ColorParameter) colorNode()   {}
func (*ColorSwitch) colorNode()      {}
func (*ColorVariation) colorNode()   {}
func (*ColorSampleImage) colorNode() {}
func (*ColorFromScalars) colorNode() {}
func (*ColorArithmetic) colorNode()  {}
func (*ColorTable) colorNode()       {}

func (n *ColorParameter) DisplayName() string { return n.Name }

// ---------------------------------------------------------------------------
// Bools
// ---------------------------------------------------------------------------

type BoolConstant struct {
	Value bool
}

type BoolParameter struct {
	Name    string
	UID     string
	Default bool
	Ranges  []Range
}

type BoolNot struct {
	Source Bool
}

type BoolAnd struct {
	A, B Bool
}

func (*BoolConstant) Kind() Kind  { return KindBoolConstant }
func (*BoolParameter) Kind() Kind { return KindBoolParameter }
func (*BoolNot) Kind() Kind       { return KindBoolNot }
func (*BoolAnd) Kind() Kind       { return KindBoolAnd }

func (*BoolConstant) boolNode()  {}
func (*BoolParameter) boolNode() {}
func (*BoolNot) boolNode()       {}
func (*BoolAnd) boolNode()       {}

func (n *BoolParameter) DisplayName() string { return n.Name }

// ---------------------------------------------------------------------------
// Strings, matrices, projectors and ranges
// ---------------------------------------------------------------------------

type StringConstant struct {
	Value string
}

type StringParameter struct {
	Name    string
	UID     string
	Default string
	Ranges  []Range
}

type MatrixConstant struct {
	Value resource.Mat4
}

type MatrixParameter struct {
	Name    string
	UID     string
	Default resource.Mat4
	Ranges  []Range
}

type ProjectorConstant struct {
	Value resource.Projector
}

type ProjectorParameter struct {
	Name    string
	UID     string
	Default resource.Projector
	Ranges  []Range
}

// RangeFromScalar declares a parameter dimension whose size is given by a
// scalar.
type RangeFromScalar struct {
	Name string
	UID  string
	Size Scalar
}

func (*StringConstant) Kind() Kind     { return KindStringConstant }
func (*StringParameter) Kind() Kind    { return KindStringParameter }
func (*MatrixConstant) Kind() Kind     { return KindMatrixConstant }
func (*MatrixParameter) Kind() Kind    { return KindMatrixParameter }
func (*ProjectorConstant) Kind() Kind  { return KindProjectorConstant }
func (*ProjectorParameter) Kind() Kind { return KindProjectorParameter }
func (*RangeFromScalar) Kind() Kind    { return KindRangeFromScalar }

func (*StringConstant) stringNode()        {}
func (*StringParameter) stringNode()       {}
func (*MatrixConstant) matrixNode()        {}
func (*MatrixParameter) matrixNode()       {}
func (*ProjectorConstant) projectorNode()  {}
func (*ProjectorParameter) projectorNode() {}
func (*RangeFromScalar) rangeNode()        {}

func (n *StringParameter) DisplayName() string    { return n.Name }
func (n *MatrixParameter) DisplayName() string    { return n.Name }
func (n *ProjectorParameter) DisplayName() string { return n.Name }
