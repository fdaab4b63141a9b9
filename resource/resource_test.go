package resource

import (
	"bytes"
	"testing"
)

func quad() *Mesh {
	return &Mesh{
		Positions: []Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
		UVs:       [][]Vec2{{{0, 0}, {1, 0}, {1, 1}, {0, 1}}},
		Indices:   []uint32{0, 1, 2, 0, 2, 3},
	}
}

func TestMeshCloneIsDeep(t *testing.T) {
	m := quad()
	c := m.Clone()
	c.Positions[0][0] = 5
	c.UVs[0][0][0] = 0.5
	if m.Positions[0][0] != 0 || m.UVs[0][0][0] != 0 {
		t.Fatalf("clone shares buffers with the original")
	}
}

func TestMeshIsSimilar(t *testing.T) {
	a, b := quad(), quad()
	b.MeshIDPrefix = 7
	b.Tags = []string{"ignored"}
	if !a.IsSimilar(b) {
		t.Errorf("meshes differing only in prefix and tags should be similar")
	}
	b.Indices[5] = 1
	if a.IsSimilar(b) {
		t.Errorf("meshes with different indices should not be similar")
	}
	if a.IsSimilar(nil) {
		t.Errorf("nil mesh should not be similar")
	}
}

func TestFindMorph(t *testing.T) {
	m := quad()
	target := quad()
	m.Morphs = []Morph{{Name: "smile", Target: target}}
	if m.FindMorph("smile") != target {
		t.Errorf("FindMorph did not return the target")
	}
	if m.FindMorph("frown") != nil {
		t.Errorf("FindMorph returned a target for an unknown name")
	}
}

func TestEncodeDeterministic(t *testing.T) {
	a, err := Encode(quad())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	b, err := Encode(quad())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("encoding is not deterministic")
	}
	if Hash64(a) != Hash64(b) {
		t.Fatalf("hash is not deterministic")
	}

	back, err := DecodeMesh(a)
	if err != nil {
		t.Fatalf("DecodeMesh: %v", err)
	}
	if !back.IsSimilar(quad()) {
		t.Errorf("decoded mesh differs")
	}
}

func TestFoldHash(t *testing.T) {
	if got := FoldHash(0x0000000200000003); got != 3+2*23 {
		t.Errorf("FoldHash = %d, want %d", got, 3+2*23)
	}
}

func TestImageSampleAndLODs(t *testing.T) {
	img := NewPlainImage(4, 4, FormatLUByte, Vec4{1, 1, 1, 1})
	if got := img.Sample(Vec2{0.5, 0.5}); got[0] != 1 {
		t.Errorf("Sample = %v, want white", got)
	}
	if got := FullLODCount(ImageSize{256, 64}); got != 9 {
		t.Errorf("FullLODCount(256x64) = %d, want 9", got)
	}
	if got := FullLODCount(ImageSize{0, 0}); got != 0 {
		t.Errorf("FullLODCount(0x0) = %d, want 0", got)
	}
}

func TestCeilLog2(t *testing.T) {
	cases := []struct {
		in   uint32
		want int
	}{{0, 0}, {1, 0}, {2, 1}, {3, 2}, {4, 2}, {1000, 10}}
	for _, c := range cases {
		if got := CeilLog2(c.in); got != c.want {
			t.Errorf("CeilLog2(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}
