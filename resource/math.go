package resource

import "math"

// Vec2 is a 2D float vector.
type Vec2 [2]float32

// Vec3 is a 3D float vector.
type Vec3 [3]float32

// Vec4 is a 4D float vector, also used for RGBA colours.
type Vec4 [4]float32

// Mat4 is a column-major 4x4 matrix.
type Mat4 [16]float32

// Identity returns the identity matrix.
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

func (a Vec3) Dot(b Vec3) float32 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func (a Vec3) Cross(b Vec3) Vec3 {
	return Vec3{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func (a Vec3) Length() float32 {
	return float32(math.Sqrt(float64(a.Dot(a))))
}

// Normalized returns a unit vector, or the zero vector if a is zero.
func (a Vec3) Normalized() Vec3 {
	l := a.Length()
	if l == 0 {
		return Vec3{}
	}
	return Vec3{a[0] / l, a[1] / l, a[2] / l}
}

// ShapeType selects the geometric primitive of a Shape.
type ShapeType uint8

const (
	ShapeNone ShapeType = iota
	ShapeEllipse
	ShapeAABox
)

// Shape is a simple analytic volume used by clipping and selection.
type Shape struct {
	Type     ShapeType
	Position Vec3
	Up       Vec3
	Side     Vec3
	Size     Vec3
}

// ProjectorType selects a projection model.
type ProjectorType uint8

const (
	ProjectorPlanar ProjectorType = iota
	ProjectorCylindrical
	ProjectorWrapping
)

// Projector describes an image projection onto a mesh.
type Projector struct {
	Type      ProjectorType
	Position  Vec3
	Direction Vec3
	Up        Vec3
	Scale     Vec3
	Angle     float32
}

// CurveKey is a single keyframe of a Curve.
type CurveKey struct {
	Time       float32
	Value      float32
	InTangent  float32
	OutTangent float32
}

// Curve maps a scalar input to a scalar output.
type Curve struct {
	Keys []CurveKey
}

// CeilLog2 returns the smallest n such that 1<<n >= v. CeilLog2(0) is 0.
func CeilLog2(v uint32) int {
	n := 0
	for (uint32(1) << n) < v {
		n++
	}
	return n
}

// Box2 is an axis aligned rectangle.
type Box2 struct {
	Min Vec2
	Max Vec2
}

// Size returns the extent of the box.
func (b Box2) Size() Vec2 {
	return Vec2{b.Max[0] - b.Min[0], b.Max[1] - b.Min[1]}
}
