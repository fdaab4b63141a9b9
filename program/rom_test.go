package program

import (
	"bytes"
	"context"
	"testing"

	"github.com/chazu/mutable/resource"
)

func TestAssignRomIDs_Stable(t *testing.T) {
	data := resource.MustEncode(triangle())
	h1 := resource.Hash64(data)
	h2 := resource.Hash64(resource.MustEncode(triangle()))
	if h1 != h2 {
		t.Fatal("hashing the same constant twice gave different hashes")
	}

	a := assignRomIDs([]uint64{h1}, map[uint32]bool{})
	b := assignRomIDs([]uint64{h2}, map[uint32]bool{})
	if a[0] != b[0] {
		t.Errorf("candidate ids differ: %d vs %d", a[0], b[0])
	}
	if a[0] != resource.FoldHash(h1) {
		t.Errorf("id = %d, want folded hash %d", a[0], resource.FoldHash(h1))
	}
}

func TestAssignRomIDs_Collision(t *testing.T) {
	// Both hashes fold to 23.
	hashes := []uint64{1 << 32, 23}
	if resource.FoldHash(hashes[0]) != resource.FoldHash(hashes[1]) {
		t.Fatal("test hashes do not collide")
	}

	for run := 0; run < 2; run++ {
		ids := assignRomIDs(hashes, map[uint32]bool{})
		if ids[0] != 23 || ids[1] != 24 {
			t.Fatalf("run %d: ids = %v, want [23 24]", run, ids)
		}
	}

	used := map[uint32]bool{23: true, 24: true}
	ids := assignRomIDs(hashes, used)
	if ids[0] != 25 || ids[1] != 26 {
		t.Errorf("ids with taken slots = %v, want [25 26]", ids)
	}
}

func TestAssignRomIDs_Unique(t *testing.T) {
	var hashes []uint64
	for i := 0; i < 64; i++ {
		hashes = append(hashes, uint64(i%4)<<32)
	}
	seen := make(map[uint32]bool)
	for _, id := range assignRomIDs(hashes, map[uint32]bool{}) {
		if seen[id] {
			t.Fatalf("id %d assigned twice", id)
		}
		seen[id] = true
	}
}

func TestHighResMips(t *testing.T) {
	tests := []struct {
		name    string
		lods    int
		highRes int
		want    []bool
	}{
		{"no usage data", 4, 0, []bool{true, true, true, false}},
		{"two high res", 4, 2, []bool{true, true, false, false}},
		{"single mip", 1, 0, []bool{false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := &resource.Image{Data: make([][]byte, tt.lods)}
			img.Source.SourceHighResMips = tt.highRes
			got := highResMips(img)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestPackageRoms(t *testing.T) {
	big := resource.NewPlainImage(64, 64, resource.FormatRGBAUByte, resource.Vec4{1, 0, 0, 1})
	big.Data = append(big.Data, make([]byte, 32*32*4), make([]byte, 4))
	big.Source = resource.SourceData{SourceID: 7}
	small := triangle()

	p := &Program{
		Meshes: []*resource.Mesh{small},
		Images: []*resource.Image{big},
	}
	if err := PackageRoms(context.Background(), p, RomOptions{EmbeddedLimit: 1024, Workers: 2}); err != nil {
		t.Fatalf("PackageRoms: %v", err)
	}

	if p.Meshes[0] != small {
		t.Error("small mesh should stay embedded")
	}
	if len(p.Roms) != 2 {
		t.Fatalf("len(Roms) = %d, want 2 (the two largest mips)", len(p.Roms))
	}
	for i, r := range p.Roms {
		if r.Type != RomImage || r.Index != 0 || r.LOD != i {
			t.Errorf("rom %d = %+v, want image 0 lod %d", i, r, i)
		}
		if r.SourceID != 7 {
			t.Errorf("rom %d source = %d, want 7", i, r.SourceID)
		}
		if r.Flags&RomHighRes == 0 {
			t.Errorf("rom %d should be high res", i)
		}
		if int(r.Size) != len(r.Data) {
			t.Errorf("rom %d size %d, data %d bytes", i, r.Size, len(r.Data))
		}
		if got, ok := p.FindRom(r.ID); !ok || got.LOD != r.LOD {
			t.Errorf("FindRom(%d) failed", r.ID)
		}
	}

	if p.Images[0] == big {
		t.Fatal("streamed mips must be removed from a copy of the image")
	}
	if p.Images[0].Data[0] != nil || p.Images[0].Data[1] != nil || p.Images[0].Data[2] == nil {
		t.Error("only the streamed mips should be removed")
	}
	if big.Data[0] == nil {
		t.Error("source image was modified")
	}
}

func TestPackageRoms_SharedMips(t *testing.T) {
	mip := func(n int, b byte) []byte { return bytes.Repeat([]byte{b}, n) }

	// The second mip of a is the first mip of b. a only needs its first
	// mip at high quality, b needs every mip but the last.
	a := &resource.Image{Width: 64, Height: 64, Format: resource.FormatRGBAUByte,
		Data:   [][]byte{mip(64*64*4, 1), mip(32*32*4, 2), mip(4, 3)},
		Source: resource.SourceData{SourceID: 1, SourceHighResMips: 1}}
	b := &resource.Image{Width: 32, Height: 32, Format: resource.FormatRGBAUByte,
		Data:   [][]byte{mip(32*32*4, 2), mip(4, 4)},
		Source: resource.SourceData{SourceID: 2}}
	// c is a single mip image with the same content as the first mip of a.
	c := &resource.Image{Width: 64, Height: 64, Format: resource.FormatRGBAUByte,
		Data: [][]byte{mip(64*64*4, 1)}}

	p := &Program{Images: []*resource.Image{a, b, c}}
	if err := PackageRoms(context.Background(), p, RomOptions{EmbeddedLimit: 1024}); err != nil {
		t.Fatalf("PackageRoms: %v", err)
	}
	if len(p.Roms) != 2 {
		t.Fatalf("got %d roms, want 2: %+v", len(p.Roms), p.Roms)
	}

	first, ok := p.ImageRom(0, 0)
	if !ok || first.Flags&RomHighRes != 0 {
		t.Errorf("first mip of a = %+v, want a low res rom shared with the single mip of c", first)
	}
	if r, ok := p.ImageRom(2, 0); !ok || r != first {
		t.Error("the mip of c should use the rom of the first mip of a")
	}

	shared, ok := p.ImageRom(0, 1)
	if !ok {
		t.Fatal("second mip of a is not streamed")
	}
	if r, ok := p.ImageRom(1, 0); !ok || r != shared {
		t.Error("first mip of b should use the rom of the second mip of a")
	}
	if shared.SourceID != 1 || len(shared.Shared) != 1 || shared.Shared[0] != (RomRef{Index: 1, LOD: 0}) {
		t.Errorf("shared rom = %+v", shared)
	}
	if shared.Flags&RomHighRes == 0 {
		t.Error("a mip is high res when any referencing image needs it")
	}

	if p.Images[0].Data[0] != nil || p.Images[0].Data[1] != nil || p.Images[1].Data[0] != nil || p.Images[2].Data[0] != nil {
		t.Error("every referencing mip should be stripped")
	}
	if p.Images[0].Data[2] == nil || p.Images[1].Data[1] == nil {
		t.Error("embedded mips should stay")
	}
}
