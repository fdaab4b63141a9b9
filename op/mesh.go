package op

import "github.com/chazu/mutable/resource"

type MeshReferenceOp struct {
	ID        uint32
	ForceLoad bool
}

func (m *MeshReferenceOp) Type() Type     { return MeshReference }
func (m *MeshReferenceOp) Children() []Op { return nil }
func (m *MeshReferenceOp) EncodeArgs(w *ArgWriter) {
	w.Uint32(m.ID)
	w.Bool(m.ForceLoad)
}

// MeshMergeOp appends Added to Base. A nonzero NewSurfaceID relabels the
// surface of the added mesh.
type MeshMergeOp struct {
	Base         Op
	Added        Op
	NewSurfaceID uint32
}

func (m *MeshMergeOp) Type() Type     { return MeshMerge }
func (m *MeshMergeOp) Children() []Op { return []Op{m.Base, m.Added} }
func (m *MeshMergeOp) EncodeArgs(w *ArgWriter) {
	w.Child(m.Base)
	w.Child(m.Added)
	w.Uint32(m.NewSurfaceID)
}

type MeshAddTagsOp struct {
	Source Op
	Tags   []string
}

func (m *MeshAddTagsOp) Type() Type     { return MeshAddTags }
func (m *MeshAddTagsOp) Children() []Op { return []Op{m.Source} }
func (m *MeshAddTagsOp) EncodeArgs(w *ArgWriter) {
	w.Child(m.Source)
	w.Strings(m.Tags)
}

type MeshMorphOp struct {
	Factor Op
	Base   Op
	Target Op
}

func (m *MeshMorphOp) Type() Type     { return MeshMorph }
func (m *MeshMorphOp) Children() []Op { return []Op{m.Factor, m.Base, m.Target} }
func (m *MeshMorphOp) EncodeArgs(w *ArgWriter) {
	w.Child(m.Factor)
	w.Child(m.Base)
	w.Child(m.Target)
}

// MeshDifferenceOp computes the vertex delta from Base to Target. An empty
// Channels list compares every channel.
type MeshDifferenceOp struct {
	Base            Op
	Target          Op
	IgnoreTexCoords bool
	Channels        []uint8
}

func (m *MeshDifferenceOp) Type() Type     { return MeshDifference }
func (m *MeshDifferenceOp) Children() []Op { return []Op{m.Base, m.Target} }
func (m *MeshDifferenceOp) EncodeArgs(w *ArgWriter) {
	w.Child(m.Base)
	w.Child(m.Target)
	w.Bool(m.IgnoreTexCoords)
	w.Uint8(uint8(len(m.Channels)))
	for _, c := range m.Channels {
		w.Uint8(c)
	}
}

type MeshFormatOp struct {
	Source          Op
	Format          Op
	Vertices        bool
	Indices         bool
	OptimizeBuffers bool
}

func (m *MeshFormatOp) Type() Type     { return MeshFormat }
func (m *MeshFormatOp) Children() []Op { return []Op{m.Source, m.Format} }
func (m *MeshFormatOp) EncodeArgs(w *ArgWriter) {
	w.Child(m.Source)
	w.Child(m.Format)
	w.Bool(m.Vertices)
	w.Bool(m.Indices)
	w.Bool(m.OptimizeBuffers)
}

type MeshTransformOp struct {
	Source Op
	Matrix Op
}

func (m *MeshTransformOp) Type() Type     { return MeshTransform }
func (m *MeshTransformOp) Children() []Op { return []Op{m.Source, m.Matrix} }
func (m *MeshTransformOp) EncodeArgs(w *ArgWriter) {
	w.Child(m.Source)
	w.Child(m.Matrix)
}

// MeshTransformWithBoundingMeshOp transforms the vertices of Source that lie
// inside BoundingMesh.
type MeshTransformWithBoundingMeshOp struct {
	Source       Op
	Matrix       Op
	BoundingMesh Op
}

func (m *MeshTransformWithBoundingMeshOp) Type() Type { return MeshTransformWithBoundingMesh }
func (m *MeshTransformWithBoundingMeshOp) Children() []Op {
	return []Op{m.Source, m.Matrix, m.BoundingMesh}
}
func (m *MeshTransformWithBoundingMeshOp) EncodeArgs(w *ArgWriter) {
	w.Child(m.Source)
	w.Child(m.Matrix)
	w.Child(m.BoundingMesh)
}

// MeshMaskClipUVMaskOp builds a vertex mask of Source from the faces whose
// UVs, read from UVSource, fall in a mask image or in the blocks of a
// layout.
type MeshMaskClipUVMaskOp struct {
	Source      Op
	UVSource    Op
	MaskImage   Op
	MaskLayout  Op
	LayoutIndex uint8
}

func (m *MeshMaskClipUVMaskOp) Type() Type { return MeshMaskClipUVMask }
func (m *MeshMaskClipUVMaskOp) Children() []Op {
	return []Op{m.Source, m.UVSource, m.MaskImage, m.MaskLayout}
}
func (m *MeshMaskClipUVMaskOp) EncodeArgs(w *ArgWriter) {
	w.Child(m.Source)
	w.Child(m.UVSource)
	w.Child(m.MaskImage)
	w.Child(m.MaskLayout)
	w.Uint8(m.LayoutIndex)
}

// RemoveEntry is one conditional removal of a MeshRemoveMaskOp.
type RemoveEntry struct {
	Condition Op
	Mask      Op
}

// MeshRemoveMaskOp removes from Source the vertices selected by every entry
// whose condition holds.
type MeshRemoveMaskOp struct {
	Source           Op
	FaceCullStrategy uint8
	Removes          []RemoveEntry
}

// AddRemove appends a conditional removal.
func (m *MeshRemoveMaskOp) AddRemove(cond, mask Op) {
	m.Removes = append(m.Removes, RemoveEntry{Condition: cond, Mask: mask})
}

func (m *MeshRemoveMaskOp) Type() Type { return MeshRemoveMask }
func (m *MeshRemoveMaskOp) Children() []Op {
	kids := []Op{m.Source}
	for _, r := range m.Removes {
		kids = append(kids, r.Condition, r.Mask)
	}
	return kids
}
func (m *MeshRemoveMaskOp) EncodeArgs(w *ArgWriter) {
	w.Child(m.Source)
	w.Uint8(m.FaceCullStrategy)
	w.Uint16(uint16(len(m.Removes)))
	for _, r := range m.Removes {
		w.Child(r.Condition)
		w.Child(r.Mask)
	}
}

// MeshClipMorphPlaneOp clips and morphs the vertices beyond a plane.
type MeshClipMorphPlaneOp struct {
	Source           Op
	MorphShape       resource.Shape
	SelectionShape   resource.Shape
	Selection        uint8
	Bone             string
	MaxBoneRadius    float32
	Dist             float32
	Factor           float32
	FaceCullStrategy uint8
}

func (m *MeshClipMorphPlaneOp) Type() Type     { return MeshClipMorphPlane }
func (m *MeshClipMorphPlaneOp) Children() []Op { return []Op{m.Source} }
func (m *MeshClipMorphPlaneOp) EncodeArgs(w *ArgWriter) {
	w.Child(m.Source)
	w.Shape(m.MorphShape)
	w.Shape(m.SelectionShape)
	w.Uint8(m.Selection)
	w.String(m.Bone)
	w.Float32(m.MaxBoneRadius)
	w.Float32(m.Dist)
	w.Float32(m.Factor)
	w.Uint8(m.FaceCullStrategy)
}

type MeshClipDeformOp struct {
	Mesh             Op
	ClipShape        Op
	FaceCullStrategy uint8
}

func (m *MeshClipDeformOp) Type() Type     { return MeshClipDeform }
func (m *MeshClipDeformOp) Children() []Op { return []Op{m.Mesh, m.ClipShape} }
func (m *MeshClipDeformOp) EncodeArgs(w *ArgWriter) {
	w.Child(m.Mesh)
	w.Child(m.ClipShape)
	w.Uint8(m.FaceCullStrategy)
}

// MeshBindShapeOp binds the vertices of Mesh to the surface of Shape.
type MeshBindShapeOp struct {
	Mesh            Op
	Shape           Op
	BindingMethod   uint8
	ReshapeVertices bool
	ReshapeSkeleton bool
	ReshapePhysics  bool
	BonesToDeform   []string
}

func (m *MeshBindShapeOp) Type() Type     { return MeshBindShape }
func (m *MeshBindShapeOp) Children() []Op { return []Op{m.Mesh, m.Shape} }
func (m *MeshBindShapeOp) EncodeArgs(w *ArgWriter) {
	w.Child(m.Mesh)
	w.Child(m.Shape)
	w.Uint8(m.BindingMethod)
	w.Bool(m.ReshapeVertices)
	w.Bool(m.ReshapeSkeleton)
	w.Bool(m.ReshapePhysics)
	w.Strings(m.BonesToDeform)
}

// MeshApplyShapeOp deforms a bound mesh to follow a new shape.
type MeshApplyShapeOp struct {
	Mesh            Op
	Shape           Op
	ReshapeVertices bool
	ReshapeSkeleton bool
	ReshapePhysics  bool
}

func (m *MeshApplyShapeOp) Type() Type     { return MeshApplyShape }
func (m *MeshApplyShapeOp) Children() []Op { return []Op{m.Mesh, m.Shape} }
func (m *MeshApplyShapeOp) EncodeArgs(w *ArgWriter) {
	w.Child(m.Mesh)
	w.Child(m.Shape)
	w.Bool(m.ReshapeVertices)
	w.Bool(m.ReshapeSkeleton)
	w.Bool(m.ReshapePhysics)
}

type MeshGeometryOp struct {
	Operation uint8
	MeshA     Op
	MeshB     Op
	ScalarA   Op
	ScalarB   Op
}

func (m *MeshGeometryOp) Type() Type     { return MeshGeometryOperation }
func (m *MeshGeometryOp) Children() []Op { return []Op{m.MeshA, m.MeshB, m.ScalarA, m.ScalarB} }
func (m *MeshGeometryOp) EncodeArgs(w *ArgWriter) {
	w.Uint8(m.Operation)
	w.Child(m.MeshA)
	w.Child(m.MeshB)
	w.Child(m.ScalarA)
	w.Child(m.ScalarB)
}

// MeshExtractLayoutBlocksOp keeps the faces of Source assigned to Blocks in
// one layout channel.
type MeshExtractLayoutBlocksOp struct {
	Source      Op
	LayoutIndex uint16
	Blocks      []uint64
}

func (m *MeshExtractLayoutBlocksOp) Type() Type     { return MeshExtractLayoutBlocks }
func (m *MeshExtractLayoutBlocksOp) Children() []Op { return []Op{m.Source} }
func (m *MeshExtractLayoutBlocksOp) EncodeArgs(w *ArgWriter) {
	w.Child(m.Source)
	w.Uint16(m.LayoutIndex)
	w.Uint16(uint16(len(m.Blocks)))
	for _, b := range m.Blocks {
		w.Uint64(b)
	}
}

type MeshApplyLayoutOp struct {
	Mesh    Op
	Layout  Op
	Channel uint16
}

func (m *MeshApplyLayoutOp) Type() Type     { return MeshApplyLayout }
func (m *MeshApplyLayoutOp) Children() []Op { return []Op{m.Mesh, m.Layout} }
func (m *MeshApplyLayoutOp) EncodeArgs(w *ArgWriter) {
	w.Child(m.Mesh)
	w.Child(m.Layout)
	w.Uint16(m.Channel)
}

// MeshInterpolateOp blends between Targets by Factor. Only the listed
// channels are interpolated; an empty list interpolates positions and
// normals.
type MeshInterpolateOp struct {
	Factor   Op
	Targets  []Op
	Channels []uint8
}

func (m *MeshInterpolateOp) Type() Type { return MeshInterpolate }
func (m *MeshInterpolateOp) Children() []Op {
	return append([]Op{m.Factor}, m.Targets...)
}
func (m *MeshInterpolateOp) EncodeArgs(w *ArgWriter) {
	w.Child(m.Factor)
	w.Uint8(uint8(len(m.Targets)))
	for _, t := range m.Targets {
		w.Child(t)
	}
	w.Uint8(uint8(len(m.Channels)))
	for _, c := range m.Channels {
		w.Uint8(c)
	}
}
