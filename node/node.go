// Package node defines the input graph consumed by the compiler.
//
// Nodes are plain immutable values. A node may be referenced by any number
// of parents, so a graph is a DAG rather than a tree. Every concrete node
// type reports a Kind from a closed set, and belongs to exactly one value
// family, expressed by the family interfaces below.
package node

import "fmt"

// Kind identifies the concrete type of a node.
type Kind uint8

const (
	KindNone Kind = iota

	// Scalar family
	KindScalarConstant
	KindScalarParameter
	KindScalarEnumParameter
	KindScalarSwitch
	KindScalarVariation
	KindScalarCurve
	KindScalarArithmetic
	KindScalarTable

	// Colour family
	KindColorConstant
	KindColorParameter
	KindColorSwitch
	KindColorVariation
	KindColorSampleImage
	KindColorFromScalars
	KindColorArithmetic
	KindColorTable

	// Bool family
	KindBoolConstant
	KindBoolParameter
	KindBoolNot
	KindBoolAnd

	// String, matrix, projector and range families
	KindStringConstant
	KindStringParameter
	KindMatrixConstant
	KindMatrixParameter
	KindProjectorConstant
	KindProjectorParameter
	KindRangeFromScalar

	// Mesh family
	KindMeshConstant
	KindMeshReference
	KindMeshTable
	KindMeshFormat
	KindMeshMorph
	KindMeshMakeMorph
	KindMeshFragment
	KindMeshInterpolate
	KindMeshSwitch
	KindMeshVariation
	KindMeshTransform
	KindMeshClipWithMesh
	KindMeshClipMorphPlane
	KindMeshClipDeform
	KindMeshApplyPose
	KindMeshGeometryOperation
	KindMeshReshape

	// Image family
	KindImageConstant
	KindImageParameter
	KindImageReference
	KindImageTable
	KindImageSwitch
	KindImageVariation
	KindImageLayer
	KindImageLayerColour
	KindImageMipmap
	KindImageFormat
	KindImageSwizzle
	KindImageResize
	KindImagePlainColour
	KindImageProject
	KindImageInterpolate
	KindImageInvert
	KindImageSaturate
	KindImageLuminance
	KindImageColourMap
	KindImageBinarise
	KindImageTransform

	KindLayout

	// Structural nodes
	KindSurfaceNew
	KindSurfaceVariation
	KindSurfaceSwitch
	KindLOD
	KindComponentNew
	KindComponentEdit
	KindComponentSwitch
	KindComponentVariation
	KindObjectNew
	KindObjectGroup

	// Modifiers
	KindModifierSurfaceEdit
	KindModifierMeshClipWithMesh
	KindModifierMeshClipWithUVMask
	KindModifierMeshClipMorphPlane
	KindModifierMeshClipDeform
	KindModifierMeshTransformInMesh

	// Extension data
	KindExtensionDataConstant
	KindExtensionDataSwitch
	KindExtensionDataVariation

	kindCount
)

var kindNames = [...]string{
	KindNone:                        "None",
	KindScalarConstant:              "ScalarConstant",
	KindScalarParameter:             "ScalarParameter",
	KindScalarEnumParameter:         "ScalarEnumParameter",
	KindScalarSwitch:                "ScalarSwitch",
	KindScalarVariation:             "ScalarVariation",
	KindScalarCurve:                 "ScalarCurve",
	KindScalarArithmetic:            "ScalarArithmetic",
	KindScalarTable:                 "ScalarTable",
	KindColorConstant:               "ColorConstant",
	KindColorParameter:              "ColorParameter",
	KindColorSwitch:                 "ColorSwitch",
	KindColorVariation:              "ColorVariation",
	KindColorSampleImage:            "ColorSampleImage",
	KindColorFromScalars:            "ColorFromScalars",
	KindColorArithmetic:             "ColorArithmetic",
	KindColorTable:                  "ColorTable",
	KindBoolConstant:                "BoolConstant",
	KindBoolParameter:               "BoolParameter",
	KindBoolNot:                     "BoolNot",
	KindBoolAnd:                     "BoolAnd",
	KindStringConstant:              "StringConstant",
	KindStringParameter:             "StringParameter",
	KindMatrixConstant:              "MatrixConstant",
	KindMatrixParameter:             "MatrixParameter",
	KindProjectorConstant:           "ProjectorConstant",
	KindProjectorParameter:          "ProjectorParameter",
	KindRangeFromScalar:             "RangeFromScalar",
	KindMeshConstant:                "MeshConstant",
	KindMeshReference:               "MeshReference",
	KindMeshTable:                   "MeshTable",
	KindMeshFormat:                  "MeshFormat",
	KindMeshMorph:                   "MeshMorph",
	KindMeshMakeMorph:               "MeshMakeMorph",
	KindMeshFragment:                "MeshFragment",
	KindMeshInterpolate:             "MeshInterpolate",
	KindMeshSwitch:                  "MeshSwitch",
	KindMeshVariation:               "MeshVariation",
	KindMeshTransform:               "MeshTransform",
	KindMeshClipWithMesh:            "MeshClipWithMesh",
	KindMeshClipMorphPlane:          "MeshClipMorphPlane",
	KindMeshClipDeform:              "MeshClipDeform",
	KindMeshApplyPose:               "MeshApplyPose",
	KindMeshGeometryOperation:       "MeshGeometryOperation",
	KindMeshReshape:                 "MeshReshape",
	KindImageConstant:               "ImageConstant",
	KindImageParameter:              "ImageParameter",
	KindImageReference:              "ImageReference",
	KindImageTable:                  "ImageTable",
	KindImageSwitch:                 "ImageSwitch",
	KindImageVariation:              "ImageVariation",
	KindImageLayer:                  "ImageLayer",
	KindImageLayerColour:            "ImageLayerColour",
	KindImageMipmap:                 "ImageMipmap",
	KindImageFormat:                 "ImageFormat",
	KindImageSwizzle:                "ImageSwizzle",
	KindImageResize:                 "ImageResize",
	KindImagePlainColour:            "ImagePlainColour",
	KindImageProject:                "ImageProject",
	KindImageInterpolate:            "ImageInterpolate",
	KindImageInvert:                 "ImageInvert",
	KindImageSaturate:               "ImageSaturate",
	KindImageLuminance:              "ImageLuminance",
	KindImageColourMap:              "ImageColourMap",
	KindImageBinarise:               "ImageBinarise",
	KindImageTransform:              "ImageTransform",
	KindLayout:                      "Layout",
	KindSurfaceNew:                  "SurfaceNew",
	KindSurfaceVariation:            "SurfaceVariation",
	KindSurfaceSwitch:               "SurfaceSwitch",
	KindLOD:                         "LOD",
	KindComponentNew:                "ComponentNew",
	KindComponentEdit:               "ComponentEdit",
	KindComponentSwitch:             "ComponentSwitch",
	KindComponentVariation:          "ComponentVariation",
	KindObjectNew:                   "ObjectNew",
	KindObjectGroup:                 "ObjectGroup",
	KindModifierSurfaceEdit:         "ModifierSurfaceEdit",
	KindModifierMeshClipWithMesh:    "ModifierMeshClipWithMesh",
	KindModifierMeshClipWithUVMask:  "ModifierMeshClipWithUVMask",
	KindModifierMeshClipMorphPlane:  "ModifierMeshClipMorphPlane",
	KindModifierMeshClipDeform:      "ModifierMeshClipDeform",
	KindModifierMeshTransformInMesh: "ModifierMeshTransformInMesh",
	KindExtensionDataConstant:       "ExtensionDataConstant",
	KindExtensionDataSwitch:         "ExtensionDataSwitch",
	KindExtensionDataVariation:      "ExtensionDataVariation",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ---------------------------------------------------------------------------
// Node families
// ---------------------------------------------------------------------------

// Node is any vertex of the input graph.
type Node interface {
	Kind() Kind
}

type Scalar interface {
	Node
	scalarNode()
}

type Color interface {
	Node
	colorNode()
}

type Bool interface {
	Node
	boolNode()
}

type String interface {
	Node
	stringNode()
}

type Matrix interface {
	Node
	matrixNode()
}

type Projector interface {
	Node
	projectorNode()
}

type Range interface {
	Node
	rangeNode()
}

type Mesh interface {
	Node
	meshNode()
}

type Image interface {
	Node
	imageNode()
}

type Surface interface {
	Node
	surfaceNode()
}

type Component interface {
	Node
	componentNode()
}

type Object interface {
	Node
	objectNode()
}

// Modifier is implemented by every modifier node. Base exposes the fields
// that decide which surfaces a modifier applies to.
type Modifier interface {
	Node
	Base() *ModifierBase
}

type ExtensionData interface {
	Node
	extensionDataNode()
}

// TagBranch is one tagged alternative of a variation node.
type TagBranch[T Node] struct {
	Tag  string
	Node T
}

// VariationType selects what a surface variation is keyed on.
type VariationType uint8

const (
	VariationTag VariationType = iota
	VariationState
)

// ArithmeticOp is a binary arithmetic operation.
type ArithmeticOp uint8

const (
	ArithmeticAdd ArithmeticOp = iota
	ArithmeticSubtract
	ArithmeticMultiply
	ArithmeticDivide
)

// IsParameter reports whether n declares a user-visible parameter.
func IsParameter(n Node) bool {
	switch n.(type) {
	case *ScalarParameter, *ScalarEnumParameter, *ColorParameter, *BoolParameter,
		*StringParameter, *MatrixParameter, *ProjectorParameter, *ImageParameter:
		return true
	}
	return false
}
