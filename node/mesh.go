package node

import "github.com/chazu/mutable/resource"

// MeshChannel names a vertex attribute.
type MeshChannel uint8

const (
	ChannelPosition MeshChannel = iota
	ChannelNormal
	ChannelTangent
	ChannelTexCoords
	ChannelBoneWeights
)

// LayoutBlock is a source layout block. Blocks with a mask claim vertices by
// sampling the mask instead of by grid cell.
type LayoutBlock struct {
	Min            [2]uint16
	Size           [2]uint16
	Priority       int32
	ReduceBothAxes bool
	ReduceByTwo    bool
	Mask           *resource.Image
}

// Layout is the authored layout of one texture coordinates channel.
type Layout struct {
	Size      [2]uint16
	MaxSize   [2]uint16
	Blocks    []LayoutBlock
	Strategy  resource.PackStrategy
	Reduction resource.ReductionMethod
	// FirstLODToIgnoreWarnings silences unassigned vertex warnings from this
	// LOD on. -1 never silences them.
	FirstLODToIgnoreWarnings int32
}

func (*Layout) Kind() Kind { return KindLayout }

// MeshConstant holds a fixed mesh and the layouts of its UV channels.
type MeshConstant struct {
	Value   *resource.Mesh
	Layouts []*Layout
}

// MeshReference is a mesh resolved by the runtime from an external id.
type MeshReference struct {
	ID        uint32
	ForceLoad bool
}

type MeshTable struct {
	TableSource
	Layouts []*Layout
}

// MeshFormat converts the buffers of Source to the channel layout of
// Format.
type MeshFormat struct {
	Source          Mesh
	Format          *resource.Mesh
	Vertices        bool
	Indices         bool
	OptimizeBuffers bool
}

type MeshMorph struct {
	Base   Mesh
	Morph  Mesh
	Factor Scalar

	Reshape         bool
	ReshapeSkeleton bool
	ReshapePhysics  bool
	BonesToDeform   []string
}

type MeshMakeMorph struct {
	Base                  Mesh
	Target                Mesh
	OnlyPositionAndNormal bool
}

// MeshFragment extracts the faces of some layout blocks of Source.
type MeshFragment struct {
	Source      Mesh
	LayoutIndex int32
	// Blocks are indices into the layout blocks of the channel.
	Blocks []int32
	Layout *Layout
}

type MeshInterpolate struct {
	Factor   Scalar
	Targets  []Mesh
	Channels []MeshChannel
}

type MeshSwitch struct {
	Parameter Scalar
	Options   []Mesh
}

type MeshVariation struct {
	Default    Mesh
	Variations []TagBranch[Mesh]
}

type MeshTransform struct {
	Source Mesh
	Matrix resource.Mat4
}

type MeshClipWithMesh struct {
	Source   Mesh
	ClipMesh Mesh
}

// MorphPlaneSelection restricts which vertices a clip morph plane affects.
type MorphPlaneSelection uint8

const (
	SelectionNone MorphPlaneSelection = iota
	SelectionShape
	SelectionBoneHierarchy
)

// ClipMorphPlaneParams are the shared parameters of the clip morph plane
// node and modifier.
type ClipMorphPlaneParams struct {
	Origin   resource.Vec3
	Normal   resource.Vec3
	Radius1  float32
	Radius2  float32
	Rotation float32

	Selection       MorphPlaneSelection
	SelectionOrigin resource.Vec3
	SelectionRadius resource.Vec3
	Bone            string
	MaxEffectRadius float32

	Dist   float32
	Factor float32
}

type MeshClipMorphPlane struct {
	Source Mesh
	ClipMorphPlaneParams
}

// BindingMethod selects how a mesh is bound to a shape for deformation.
type BindingMethod uint8

const (
	BindClosestProject BindingMethod = iota
	BindClosestToSurface
	BindNormalProject
)

type MeshClipDeform struct {
	Base          Mesh
	ClipShape     Mesh
	BindingMethod BindingMethod
}

type MeshApplyPose struct {
	Base Mesh
	Pose Mesh
}

// GeometryOperationType selects a geometry operation.
type GeometryOperationType uint8

const (
	GeometryMeshMorph GeometryOperationType = iota
	GeometryMeshClip
)

type MeshGeometryOperation struct {
	Type    GeometryOperationType
	A, B    Mesh
	ScalarA Scalar
	ScalarB Scalar
}

type MeshReshape struct {
	Base        Mesh
	BaseShape   Mesh
	TargetShape Mesh

	ReshapeVertices bool
	ReshapeSkeleton bool
	ReshapePhysics  bool
	BonesToDeform   []string
}

func (*MeshConstant) Kind() Kind          { return KindMeshConstant }
func (*MeshReference) Kind() Kind         { return KindMeshReference }
func (*MeshTable) Kind() Kind             { return KindMeshTable }
func (*MeshFormat) Kind() Kind            { return KindMeshFormat }
func (*MeshMorph) Kind() Kind             { return KindMeshMorph }
func (*MeshMakeMorph) Kind() Kind         { return KindMeshMakeMorph }
func (*MeshFragment) Kind() Kind          { return KindMeshFragment }
func (*MeshInterpolate) Kind() Kind       { return KindMeshInterpolate }
func (*MeshSwitch) Kind() Kind            { return KindMeshSwitch }
func (*MeshVariation) Kind() Kind         { return KindMeshVariation }
func (*MeshTransform) Kind() Kind         { return KindMeshTransform }
func (*MeshClipWithMesh) Kind() Kind      { return KindMeshClipWithMesh }
func (*MeshClipMorphPlane) Kind() Kind    { return KindMeshClipMorphPlane }
func (*MeshClipDeform) Kind() Kind        { return KindMeshClipDeform }
func (*MeshApplyPose) Kind() Kind         { return KindMeshApplyPose }
func (*MeshGeometryOperation) Kind() Kind { return KindMeshGeometryOperation }
func (*MeshReshape) Kind() Kind           { return KindMeshReshape }

func (*MeshConstant) meshNode()          {}
func (*MeshReference) meshNode()         {}
func (*MeshTable) meshNode()             {}
func (*MeshFormat) meshNode()            {}
func (*MeshMorph) meshNode()             {}
func (*MeshMakeMorph) meshNode()         {}
func (*MeshFragment) meshNode()          {}
func (*MeshInterpolate) meshNode()       {}
func (*MeshSwitch) meshNode()            {}
func (*MeshVariation) meshNode()         {}
func (*MeshTransform) meshNode()         {}
func (*MeshClipWithMesh) meshNode()      {}
func (*MeshClipMorphPlane) meshNode()    {}
func (*MeshClipDeform) meshNode()        {}
func (*MeshApplyPose) meshNode()         {}
func (*MeshGeometryOperation) meshNode() {}
func (*MeshReshape) meshNode()           {}
