package op

import "fmt"

// ---------------------------------------------------------------------------
// Operation types
// ---------------------------------------------------------------------------

// Type identifies the instruction an operation compiles to. Values are part
// of the program format and must not be renumbered.
type Type uint16

// Control and booleans
const (
	None              Type = 0x000
	BoolConstant      Type = 0x001
	BoolParameter     Type = 0x002
	BoolAnd           Type = 0x003
	BoolOr            Type = 0x004
	BoolNot           Type = 0x005
	BoolEqualIntConst Type = 0x006
)

// Integers
const (
	NumConstant    Type = 0x010
	NumParameter   Type = 0x011
	NumSwitch      Type = 0x012
	NumConditional Type = 0x013
)

// Scalars
const (
	ScalarConstant    Type = 0x020
	ScalarParameter   Type = 0x021
	ScalarSwitch      Type = 0x022
	ScalarConditional Type = 0x023
	ScalarCurve       Type = 0x024
	ScalarArithmetic  Type = 0x025
)

// Colours
const (
	ColorConstant    Type = 0x030
	ColorParameter   Type = 0x031
	ColorSwitch      Type = 0x032
	ColorConditional Type = 0x033
	ColorSampleImage Type = 0x034
	ColorFromScalars Type = 0x035
	ColorArithmetic  Type = 0x036
)

// Strings, matrices and projectors
const (
	StringConstant       Type = 0x040
	StringParameter      Type = 0x041
	StringSwitch         Type = 0x042
	StringConditional    Type = 0x043
	MatrixConstant       Type = 0x048
	MatrixParameter      Type = 0x049
	ProjectorConstant    Type = 0x04C
	ProjectorParameter   Type = 0x04D
	ProjectorConditional Type = 0x04E
)

// Meshes
const (
	MeshConstant                  Type = 0x060
	MeshReference                 Type = 0x061
	MeshSwitch                    Type = 0x062
	MeshConditional               Type = 0x063
	MeshMerge                     Type = 0x064
	MeshAddTags                   Type = 0x065
	MeshMorph                     Type = 0x066
	MeshDifference                Type = 0x067
	MeshFormat                    Type = 0x068
	MeshTransform                 Type = 0x069
	MeshTransformWithBoundingMesh Type = 0x06A
	MeshClipWithMesh              Type = 0x06B
	MeshMaskClipMesh              Type = 0x06C
	MeshMaskClipUVMask            Type = 0x06D
	MeshMaskDiff                  Type = 0x06E
	MeshRemoveMask                Type = 0x06F
	MeshClipMorphPlane            Type = 0x070
	MeshClipDeform                Type = 0x071
	MeshBindShape                 Type = 0x072
	MeshApplyShape                Type = 0x073
	MeshMorphReshape              Type = 0x074
	MeshApplyPose                 Type = 0x075
	MeshGeometryOperation         Type = 0x076
	MeshExtractLayoutBlocks       Type = 0x077
	MeshApplyLayout               Type = 0x078
	MeshOptimizeSkinning          Type = 0x079
	MeshInterpolate               Type = 0x07A
)

// Images
const (
	ImageConstant    Type = 0x090
	ImageParameter   Type = 0x091
	ImageReference   Type = 0x092
	ImageSwitch      Type = 0x093
	ImageConditional Type = 0x094
	ImageLayer       Type = 0x095
	ImageLayerColour Type = 0x096
	ImageMipmap      Type = 0x097
	ImageFormat      Type = 0x098
	ImageSwizzle     Type = 0x099
	ImageResize      Type = 0x09A
	ImageResizeRel   Type = 0x09B
	ImagePlainColour Type = 0x09C
	ImageProject     Type = 0x09D
	ImageInterpolate Type = 0x09E
	ImageInvert      Type = 0x09F
	ImageSaturate    Type = 0x0A0
	ImageLuminance   Type = 0x0A1
	ImageColourMap   Type = 0x0A2
	ImageBinarise    Type = 0x0A3
	ImageTransform   Type = 0x0A4
	ImageCompose     Type = 0x0A5
	ImageBlankLayout Type = 0x0A6
	ImageCrop        Type = 0x0A7
	ImagePatch       Type = 0x0A8
)

// Layouts
const (
	LayoutConstant     Type = 0x0C0
	LayoutFromMesh     Type = 0x0C1
	LayoutRemoveBlocks Type = 0x0C2
	LayoutPack         Type = 0x0C3
	LayoutMerge        Type = 0x0C4
	LayoutConditional  Type = 0x0C5
)

// Instances
const (
	InstanceAddComponent     Type = 0x0D0
	InstanceAddSurface       Type = 0x0D1
	InstanceAddLOD           Type = 0x0D2
	InstanceAddMesh          Type = 0x0D3
	InstanceAddImage         Type = 0x0D4
	InstanceAddVector        Type = 0x0D5
	InstanceAddScalar        Type = 0x0D6
	InstanceAddString        Type = 0x0D7
	InstanceAddExtensionData Type = 0x0D8
	InstanceConditional      Type = 0x0D9
	InstanceSwitch           Type = 0x0DA
)

// Extension data
const (
	ExtensionDataConstant    Type = 0x0E0
	ExtensionDataSwitch      Type = 0x0E1
	ExtensionDataConditional Type = 0x0E2
)

// Category is the kind of value an operation produces.
type Category uint8

const (
	CatNone Category = iota
	CatBool
	CatInt
	CatScalar
	CatColor
	CatString
	CatMatrix
	CatProjector
	CatMesh
	CatImage
	CatLayout
	CatInstance
	CatExtensionData
)

// TypeInfo contains metadata about an operation type.
type TypeInfo struct {
	Name     string
	Category Category
}

// typeTable maps operation types to their metadata.
var typeTable = map[Type]TypeInfo{
	None:              {"NONE", CatNone},
	BoolConstant:      {"BO_CONSTANT", CatBool},
	BoolParameter:     {"BO_PARAMETER", CatBool},
	BoolAnd:           {"BO_AND", CatBool},
	BoolOr:            {"BO_OR", CatBool},
	BoolNot:           {"BO_NOT", CatBool},
	BoolEqualIntConst: {"BO_EQUAL_INT_CONST", CatBool},

	NumConstant:    {"NU_CONSTANT", CatInt},
	NumParameter:   {"NU_PARAMETER", CatInt},
	NumSwitch:      {"NU_SWITCH", CatInt},
	NumConditional: {"NU_CONDITIONAL", CatInt},

	ScalarConstant:    {"SC_CONSTANT", CatScalar},
	ScalarParameter:   {"SC_PARAMETER", CatScalar},
	ScalarSwitch:      {"SC_SWITCH", CatScalar},
	ScalarConditional: {"SC_CONDITIONAL", CatScalar},
	ScalarCurve:       {"SC_CURVE", CatScalar},
	ScalarArithmetic:  {"SC_ARITHMETIC", CatScalar},

	ColorConstant:    {"CO_CONSTANT", CatColor},
	ColorParameter:   {"CO_PARAMETER", CatColor},
	ColorSwitch:      {"CO_SWITCH", CatColor},
	ColorConditional: {"CO_CONDITIONAL", CatColor},
	ColorSampleImage: {"CO_SAMPLEIMAGE", CatColor},
	ColorFromScalars: {"CO_FROMSCALARS", CatColor},
	ColorArithmetic:  {"CO_ARITHMETIC", CatColor},

	StringConstant:       {"ST_CONSTANT", CatString},
	StringParameter:      {"ST_PARAMETER", CatString},
	StringSwitch:         {"ST_SWITCH", CatString},
	StringConditional:    {"ST_CONDITIONAL", CatString},
	MatrixConstant:       {"MA_CONSTANT", CatMatrix},
	MatrixParameter:      {"MA_PARAMETER", CatMatrix},
	ProjectorConstant:    {"PR_CONSTANT", CatProjector},
	ProjectorParameter:   {"PR_PARAMETER", CatProjector},
	ProjectorConditional: {"PR_CONDITIONAL", CatProjector},

	MeshConstant:                  {"ME_CONSTANT", CatMesh},
	MeshReference:                 {"ME_REFERENCE", CatMesh},
	MeshSwitch:                    {"ME_SWITCH", CatMesh},
	MeshConditional:               {"ME_CONDITIONAL", CatMesh},
	MeshMerge:                     {"ME_MERGE", CatMesh},
	MeshAddTags:                   {"ME_ADDTAGS", CatMesh},
	MeshMorph:                     {"ME_MORPH", CatMesh},
	MeshDifference:                {"ME_DIFFERENCE", CatMesh},
	MeshFormat:                    {"ME_FORMAT", CatMesh},
	MeshTransform:                 {"ME_TRANSFORM", CatMesh},
	MeshTransformWithBoundingMesh: {"ME_TRANSFORMWITHMESH", CatMesh},
	MeshClipWithMesh:              {"ME_CLIPWITHMESH", CatMesh},
	MeshMaskClipMesh:              {"ME_MASKCLIPMESH", CatMesh},
	MeshMaskClipUVMask:            {"ME_MASKCLIPUVMASK", CatMesh},
	MeshMaskDiff:                  {"ME_MASKDIFF", CatMesh},
	MeshRemoveMask:                {"ME_REMOVEMASK", CatMesh},
	MeshClipMorphPlane:            {"ME_CLIPMORPHPLANE", CatMesh},
	MeshClipDeform:                {"ME_CLIPDEFORM", CatMesh},
	MeshBindShape:                 {"ME_BINDSHAPE", CatMesh},
	MeshApplyShape:                {"ME_APPLYSHAPE", CatMesh},
	MeshMorphReshape:              {"ME_MORPHRESHAPE", CatMesh},
	MeshApplyPose:                 {"ME_APPLYPOSE", CatMesh},
	MeshGeometryOperation:         {"ME_GEOMETRYOPERATION", CatMesh},
	MeshExtractLayoutBlocks:       {"ME_EXTRACTLAYOUTBLOCK", CatMesh},
	MeshApplyLayout:               {"ME_APPLYLAYOUT", CatMesh},
	MeshOptimizeSkinning:          {"ME_OPTIMIZESKINNING", CatMesh},
	MeshInterpolate:               {"ME_INTERPOLATE", CatMesh},

	ImageConstant:    {"IM_CONSTANT", CatImage},
	ImageParameter:   {"IM_PARAMETER", CatImage},
	ImageReference:   {"IM_REFERENCE", CatImage},
	ImageSwitch:      {"IM_SWITCH", CatImage},
	ImageConditional: {"IM_CONDITIONAL", CatImage},
	ImageLayer:       {"IM_LAYER", CatImage},
	ImageLayerColour: {"IM_LAYERCOLOUR", CatImage},
	ImageMipmap:      {"IM_MIPMAP", CatImage},
	ImageFormat:      {"IM_PIXELFORMAT", CatImage},
	ImageSwizzle:     {"IM_SWIZZLE", CatImage},
	ImageResize:      {"IM_RESIZE", CatImage},
	ImageResizeRel:   {"IM_RESIZEREL", CatImage},
	ImagePlainColour: {"IM_PLAINCOLOUR", CatImage},
	ImageProject:     {"IM_RASTERMESH", CatImage},
	ImageInterpolate: {"IM_INTERPOLATE", CatImage},
	ImageInvert:      {"IM_INVERT", CatImage},
	ImageSaturate:    {"IM_SATURATE", CatImage},
	ImageLuminance:   {"IM_LUMINANCE", CatImage},
	ImageColourMap:   {"IM_COLOURMAP", CatImage},
	ImageBinarise:    {"IM_BINARISE", CatImage},
	ImageTransform:   {"IM_TRANSFORM", CatImage},
	ImageCompose:     {"IM_COMPOSE", CatImage},
	ImageBlankLayout: {"IM_BLANKLAYOUT", CatImage},
	ImageCrop:        {"IM_CROP", CatImage},
	ImagePatch:       {"IM_PATCH", CatImage},

	LayoutConstant:     {"LA_CONSTANT", CatLayout},
	LayoutFromMesh:     {"LA_FROMMESH", CatLayout},
	LayoutRemoveBlocks: {"LA_REMOVEBLOCKS", CatLayout},
	LayoutPack:         {"LA_PACK", CatLayout},
	LayoutMerge:        {"LA_MERGE", CatLayout},
	LayoutConditional:  {"LA_CONDITIONAL", CatLayout},

	InstanceAddComponent:     {"IN_ADDCOMPONENT", CatInstance},
	InstanceAddSurface:       {"IN_ADDSURFACE", CatInstance},
	InstanceAddLOD:           {"IN_ADDLOD", CatInstance},
	InstanceAddMesh:          {"IN_ADDMESH", CatInstance},
	InstanceAddImage:         {"IN_ADDIMAGE", CatInstance},
	InstanceAddVector:        {"IN_ADDVECTOR", CatInstance},
	InstanceAddScalar:        {"IN_ADDSCALAR", CatInstance},
	InstanceAddString:        {"IN_ADDSTRING", CatInstance},
	InstanceAddExtensionData: {"IN_ADDEXTENSIONDATA", CatInstance},
	InstanceConditional:      {"IN_CONDITIONAL", CatInstance},
	InstanceSwitch:           {"IN_SWITCH", CatInstance},

	ExtensionDataConstant:    {"ED_CONSTANT", CatExtensionData},
	ExtensionDataSwitch:      {"ED_SWITCH", CatExtensionData},
	ExtensionDataConditional: {"ED_CONDITIONAL", CatExtensionData},
}

// Info returns metadata for an operation type.
func Info(t Type) TypeInfo {
	if info, ok := typeTable[t]; ok {
		return info
	}
	return TypeInfo{Name: fmt.Sprintf("UNKNOWN_%03X", uint16(t))}
}

func (t Type) String() string {
	return Info(t).Name
}

// Category returns the value category produced by t.
func (t Type) Category() Category {
	return Info(t).Category
}

// ConditionalType returns the conditional operation of a category.
func ConditionalType(c Category) Type {
	switch c {
	case CatInt:
		return NumConditional
	case CatScalar:
		return ScalarConditional
	case CatColor:
		return ColorConditional
	case CatString:
		return StringConditional
	case CatProjector:
		return ProjectorConditional
	case CatMesh:
		return MeshConditional
	case CatImage:
		return ImageConditional
	case CatLayout:
		return LayoutConditional
	case CatInstance:
		return InstanceConditional
	case CatExtensionData:
		return ExtensionDataConditional
	}
	panic(fmt.Sprintf("op: no conditional for category %d", c))
}

// SwitchType returns the switch operation of a category.
func SwitchType(c Category) Type {
	switch c {
	case CatInt:
		return NumSwitch
	case CatScalar:
		return ScalarSwitch
	case CatColor:
		return ColorSwitch
	case CatString:
		return StringSwitch
	case CatMesh:
		return MeshSwitch
	case CatImage:
		return ImageSwitch
	case CatInstance:
		return InstanceSwitch
	case CatExtensionData:
		return ExtensionDataSwitch
	}
	panic(fmt.Sprintf("op: no switch for category %d", c))
}
