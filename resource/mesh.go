package resource

import "slices"

// SourceData links a constant resource back to the asset it came from.
type SourceData struct {
	SourceID          uint32
	SourceHighResMips int
}

// NoSourceID is used for resources without a known origin.
const NoSourceID = ^uint32(0)

// Morph is a named target shape stored with a mesh.
type Morph struct {
	Name   string
	Target *Mesh
}

// Mesh is a constant triangle mesh.
type Mesh struct {
	Positions []Vec3
	Normals   []Vec3
	// UVs holds one texture coordinate slice per channel.
	UVs [][]Vec2
	// LayoutBlocks holds one per-vertex block id slice per prepared layout
	// channel. Ids are relative (16 bit) or absolute depending on the
	// preparation.
	LayoutBlocks [][]uint64
	Layouts      []*Layout
	Indices      []uint32
	Tags         []string
	Bones        []string
	Morphs       []Morph

	MeshIDPrefix uint32

	// Reference meshes carry no data and are resolved by the runtime.
	IsReference bool
	ReferenceID uint32
	ForceLoad   bool

	Source SourceData
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Positions)
}

// IndexCount returns the number of indices.
func (m *Mesh) IndexCount() int {
	return len(m.Indices)
}

// FaceCount returns the number of triangles.
func (m *Mesh) FaceCount() int {
	return len(m.Indices) / 3
}

// FindMorph returns the morph target with the given name, or nil.
func (m *Mesh) FindMorph(name string) *Mesh {
	for _, mo := range m.Morphs {
		if mo.Name == name {
			return mo.Target
		}
	}
	return nil
}

// Clone returns a deep copy of m. Layouts are shared since they are not
// modified after construction.
func (m *Mesh) Clone() *Mesh {
	c := *m
	c.Positions = slices.Clone(m.Positions)
	c.Normals = slices.Clone(m.Normals)
	c.UVs = make([][]Vec2, len(m.UVs))
	for i, ch := range m.UVs {
		c.UVs[i] = slices.Clone(ch)
	}
	c.LayoutBlocks = make([][]uint64, len(m.LayoutBlocks))
	for i, ch := range m.LayoutBlocks {
		c.LayoutBlocks[i] = slices.Clone(ch)
	}
	c.Layouts = slices.Clone(m.Layouts)
	c.Indices = slices.Clone(m.Indices)
	c.Tags = slices.Clone(m.Tags)
	c.Bones = slices.Clone(m.Bones)
	c.Morphs = slices.Clone(m.Morphs)
	return &c
}

// IsSimilar reports whether two meshes hold the same geometry, ignoring
// their id prefix, tags and source data.
func (m *Mesh) IsSimilar(o *Mesh) bool {
	if m == o {
		return true
	}
	if m == nil || o == nil {
		return false
	}
	if m.IsReference != o.IsReference || m.ReferenceID != o.ReferenceID {
		return false
	}
	if m.VertexCount() != o.VertexCount() || m.IndexCount() != o.IndexCount() {
		return false
	}
	if !slices.Equal(m.Positions, o.Positions) || !slices.Equal(m.Normals, o.Normals) {
		return false
	}
	if !slices.Equal(m.Indices, o.Indices) || !slices.Equal(m.Bones, o.Bones) {
		return false
	}
	if len(m.UVs) != len(o.UVs) || len(m.LayoutBlocks) != len(o.LayoutBlocks) {
		return false
	}
	for i := range m.UVs {
		if !slices.Equal(m.UVs[i], o.UVs[i]) {
			return false
		}
	}
	for i := range m.LayoutBlocks {
		if !slices.Equal(m.LayoutBlocks[i], o.LayoutBlocks[i]) {
			return false
		}
	}
	if len(m.Layouts) != len(o.Layouts) {
		return false
	}
	for i := range m.Layouts {
		if !m.Layouts[i].Equal(o.Layouts[i]) {
			return false
		}
	}
	return true
}

// DataSize approximates the memory used by the mesh buffers.
func (m *Mesh) DataSize() int {
	n := len(m.Positions)*12 + len(m.Normals)*12 + len(m.Indices)*4
	for _, ch := range m.UVs {
		n += len(ch) * 8
	}
	for _, ch := range m.LayoutBlocks {
		n += len(ch) * 8
	}
	return n
}

// AddLayout appends a layout and returns its channel index.
func (m *Mesh) AddLayout(l *Layout) int {
	m.Layouts = append(m.Layouts, l)
	return len(m.Layouts) - 1
}
