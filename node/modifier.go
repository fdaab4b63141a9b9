package node

import "github.com/chazu/mutable/resource"

// TagsPolicy decides how the required tags of a modifier are matched.
type TagsPolicy uint8

const (
	OnlyOneRequired TagsPolicy = iota
	AllRequired
)

// FaceCullStrategy decides which faces a removal or clip discards.
type FaceCullStrategy uint8

const (
	CullAllVerticesCulled FaceCullStrategy = iota
	CullOneVertexCulled
)

// NoComponent is the RequiredComponentID of modifiers that apply to any
// component.
const NoComponent = -1

// ModifierBase holds the matching rules shared by all modifiers.
type ModifierBase struct {
	Name         string
	RequiredTags []string
	Policy       TagsPolicy
	// EnableTags are activated on the data a modifier adds.
	EnableTags          []string
	RequiredComponentID int32
	// ApplyBeforeNormalOperations runs the modifier on the source meshes
	// before any other mesh operation.
	ApplyBeforeNormalOperations bool
}

func (b *ModifierBase) Base() *ModifierBase { return b }

func (b *ModifierBase) DisplayName() string { return b.Name }

// SurfaceEditLOD is the editing done by a surface edit modifier for one LOD.
type SurfaceEditLOD struct {
	MeshAdd    Mesh
	MeshRemove Mesh
	Textures   []SurfaceEditTexture
}

// SurfaceEditTexture edits the texture bound to MaterialParameterName.
type SurfaceEditTexture struct {
	MaterialParameterName string
	Extend                Image
	PatchImage            Image
	PatchMask             Image
	// PatchRects are the normalized layout areas the patch applies to.
	PatchRects     []resource.Box2
	PatchBlendType BlendType
	PatchAlpha     bool
}

type ModifierSurfaceEdit struct {
	ModifierBase
	LODs             []SurfaceEditLOD
	MeshMorph        string
	MorphFactor      Scalar
	FaceCullStrategy FaceCullStrategy
}

type ModifierMeshClipWithMesh struct {
	ModifierBase
	ClipMesh         Mesh
	FaceCullStrategy FaceCullStrategy
}

type ModifierMeshClipWithUVMask struct {
	ModifierBase
	ClipMask         Image
	ClipLayout       *Layout
	LayoutIndex      uint8
	FaceCullStrategy FaceCullStrategy
}

type ModifierMeshClipMorphPlane struct {
	ModifierBase
	ClipMorphPlaneParams
	FaceCullStrategy FaceCullStrategy
}

type ModifierMeshClipDeform struct {
	ModifierBase
	ClipMesh         Mesh
	BindingMethod    BindingMethod
	FaceCullStrategy FaceCullStrategy
}

type ModifierMeshTransformInMesh struct {
	ModifierBase
	BoundingMesh Mesh
	Matrix       Matrix
}

func (*ModifierSurfaceEdit) Kind() Kind         { return KindModifierSurfaceEdit }
func (*ModifierMeshClipWithMesh) Kind() Kind    { return KindModifierMeshClipWithMesh }
func (*ModifierMeshClipWithUVMask) Kind() Kind  { return KindModifierMeshClipWithUVMask }
func (*ModifierMeshClipMorphPlane) Kind() Kind  { return KindModifierMeshClipMorphPlane }
func (*ModifierMeshClipDeform) Kind() Kind      { return KindModifierMeshClipDeform }
func (*ModifierMeshTransformInMesh) Kind() Kind { return KindModifierMeshTransformInMesh }
