package program

import (
	"bytes"
	"context"
	"slices"

	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"

	"github.com/chazu/mutable/resource"
)

var log = commonlog.GetLogger("mutable.program")

// ---------------------------------------------------------------------------
// Rom packaging
// ---------------------------------------------------------------------------

// RomOptions control which constants leave the program.
type RomOptions struct {
	// EmbeddedLimit is the largest serialized constant kept in the program.
	EmbeddedLimit uint64
	// Workers bounds the number of constants serialized in parallel. Zero
	// means no limit.
	Workers int
}

// romCandidate is one constant that may become a rom. Each candidate is
// written by exactly one packaging task.
type romCandidate struct {
	typ      RomType
	index    int
	lod      int
	value    any
	source   resource.SourceData
	highRes  bool
	smallest bool

	data []byte
	hash uint64

	// shared are the later candidates with the same content.
	shared []*romCandidate
}

func (c *romCandidate) sameContent(o *romCandidate) bool {
	return c.typ == o.typ && c.hash == o.hash && bytes.Equal(c.data, o.data)
}

// highResRom reports whether the rom of c and its shared candidates is high
// resolution: some referencing mip must be, and none may be the smallest mip
// of its image.
func (c *romCandidate) highResRom() bool {
	high := false
	for _, r := range append([]*romCandidate{c}, c.shared...) {
		if r.smallest {
			return false
		}
		high = high || r.highRes
	}
	return high
}

// PackageRoms moves the constants bigger than the embedding limit out of the
// program pools and into roms. Images are split into one candidate per mip,
// and mips with the same content share one rom.
func PackageRoms(ctx context.Context, p *Program, opts RomOptions) error {
	var cands []romCandidate
	for i, m := range p.Meshes {
		if m == nil || m.IsReference {
			continue
		}
		cands = append(cands, romCandidate{typ: RomMesh, index: i, value: m, source: m.Source})
	}
	for i, img := range p.Images {
		if img == nil {
			continue
		}
		flags := highResMips(img)
		for lod := range img.Data {
			// The source is kept in the rom descriptor, not in the payload.
			mip := img.ExtractLOD(lod)
			mip.Source = resource.SourceData{}
			cands = append(cands, romCandidate{
				typ:      RomImage,
				index:    i,
				lod:      lod,
				value:    mip,
				source:   img.Source,
				highRes:  flags[lod],
				smallest: lod == len(img.Data)-1,
			})
		}
	}

	eg, ctx := errgroup.WithContext(ctx)
	if opts.Workers > 0 {
		eg.SetLimit(opts.Workers)
	}
	for i := range cands {
		c := &cands[i]
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := resource.Encode(c.value)
			if err != nil {
				return err
			}
			c.data = data
			c.hash = resource.Hash64(data)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	var streamed []*romCandidate
	var embeddedBytes, streamedBytes uint64
	byHash := make(map[uint64][]*romCandidate)
	for i := range cands {
		c := &cands[i]
		if uint64(len(c.data)) <= opts.EmbeddedLimit {
			embeddedBytes += uint64(len(c.data))
			continue
		}
		if j := slices.IndexFunc(byHash[c.hash], c.sameContent); j >= 0 {
			first := byHash[c.hash][j]
			first.shared = append(first.shared, c)
			continue
		}
		byHash[c.hash] = append(byHash[c.hash], c)
		streamedBytes += uint64(len(c.data))
		streamed = append(streamed, c)
	}

	hashes := make([]uint64, len(streamed))
	for i, c := range streamed {
		hashes[i] = c.hash
	}
	used := make(map[uint32]bool, len(p.Roms))
	for _, r := range p.Roms {
		used[r.ID] = true
	}
	ids := assignRomIDs(hashes, used)

	stripped := make(map[int]*resource.Image)
	strip := func(c *romCandidate) {
		switch c.typ {
		case RomMesh:
			p.Meshes[c.index] = nil
		case RomImage:
			// Pool images may be shared with the input graph, so the
			// streamed mips are removed from a copy.
			img, ok := stripped[c.index]
			if !ok {
				cp := *p.Images[c.index]
				cp.Data = slices.Clone(cp.Data)
				img = &cp
				stripped[c.index] = img
				p.Images[c.index] = img
			}
			img.Data[c.lod] = nil
		}
	}

	for i, c := range streamed {
		rom := Rom{
			ID:       ids[i],
			Type:     c.typ,
			Size:     uint32(len(c.data)),
			SourceID: c.source.SourceID,
			Index:    uint32(c.index),
			LOD:      c.lod,
			Data:     c.data,
		}
		if c.highResRom() {
			rom.Flags |= RomHighRes
		}
		strip(c)
		for _, o := range c.shared {
			rom.Shared = append(rom.Shared, RomRef{Index: uint32(o.index), LOD: o.lod})
			strip(o)
		}
		p.Roms = append(p.Roms, rom)
	}

	log.Infof("packaged %d roms: %d bytes embedded, %d bytes streamed",
		len(streamed), embeddedBytes, streamedBytes)
	return nil
}

// assignRomIDs derives a rom id from each content hash. An id already taken
// is incremented until it is free, so the result only depends on the order
// of hashes and on used, which is updated.
func assignRomIDs(hashes []uint64, used map[uint32]bool) []uint32 {
	ids := make([]uint32, len(hashes))
	for i, h := range hashes {
		id := resource.FoldHash(h)
		for used[id] {
			id++
		}
		used[id] = true
		ids[i] = id
	}
	return ids
}

// highResMips reports which mips of img are only needed at high quality.
// Mips from SourceHighResMips on are low resolution when the source says so,
// and the smallest mip never is high resolution.
func highResMips(img *resource.Image) []bool {
	flags := make([]bool, len(img.Data))
	for lod := range flags {
		flags[lod] = true
		if img.Source.SourceHighResMips > 0 && lod >= img.Source.SourceHighResMips {
			flags[lod] = false
		}
	}
	if n := len(flags); n > 0 {
		flags[n-1] = false
	}
	return flags
}
