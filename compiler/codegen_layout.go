package compiler

import (
	"fmt"
	"math"

	"github.com/chazu/mutable/errlog"
	"github.com/chazu/mutable/node"
	"github.com/chazu/mutable/resource"
)

// ---------------------------------------------------------------------------
// Layouts
// ---------------------------------------------------------------------------

type layoutKey struct {
	src    *node.Layout
	prefix uint32
}

// generatedLayout pairs a layout with the authored layout it came from.
type generatedLayout struct {
	Layout *resource.Layout
	Source *node.Layout
}

// layoutBlockID returns the id of block index of a layout created for a mesh
// with the given id prefix.
func layoutBlockID(prefix uint32, index int) uint64 {
	return uint64(prefix)<<32 | uint64(uint32(index))
}

// generateLayout converts an authored layout into a layout with block ids
// unique to meshPrefix. The same pair always yields the same layout.
func (g *codeGenerator) generateLayout(src *node.Layout, meshPrefix uint32) *resource.Layout {
	key := layoutKey{src: src, prefix: meshPrefix}
	if l, ok := g.layouts[key]; ok {
		return l
	}

	l := &resource.Layout{
		Size:      src.Size,
		MaxSize:   src.MaxSize,
		Strategy:  src.Strategy,
		Reduction: src.Reduction,
	}
	for i, b := range src.Blocks {
		l.Blocks = append(l.Blocks, resource.LayoutBlock{
			Min:            b.Min,
			Size:           b.Size,
			ID:             layoutBlockID(meshPrefix, i),
			Priority:       b.Priority,
			ReduceBothAxes: b.ReduceBothAxes,
			ReduceByTwo:    b.ReduceByTwo,
		})
	}
	g.layouts[key] = l
	return l
}

// blockRect returns the normalized rectangle of a block in a layout grid.
func blockRect(grid [2]uint16, lo, size [2]uint16) resource.Box2 {
	gx, gy := float32(max(grid[0], 1)), float32(max(grid[1], 1))
	return resource.Box2{
		Min: resource.Vec2{float32(lo[0]) / gx, float32(lo[1]) / gy},
		Max: resource.Vec2{float32(lo[0]+size[0]) / gx, float32(lo[1]+size[1]) / gy},
	}
}

// blockCells is the grid cell range [x0,x1)x[y0,y1) of a block.
type blockCells struct {
	x0, y0, x1, y1 int
}

func (b blockCells) contains(x, y int) bool {
	return x >= b.x0 && x < b.x1 && y >= b.y0 && y < b.y1
}

func cellsOf(b node.LayoutBlock) blockCells {
	return blockCells{
		x0: int(b.Min[0]),
		y0: int(b.Min[1]),
		x1: int(b.Min[0]) + int(b.Size[0]),
		y1: int(b.Min[1]) + int(b.Size[1]),
	}
}

func (b blockCells) overlaps(o blockCells) bool {
	return b.x0 < o.x1 && o.x0 < b.x1 && b.y0 < o.y1 && o.y0 < b.y1
}

// prepareMeshForLayout assigns every vertex of channel of mesh to a block of
// layout, the generated form of src. Ids are block indices when relative is
// set, and layout block ids otherwise.
func (g *codeGenerator) prepareMeshForLayout(ctx node.Node, mesh *resource.Mesh, layout *resource.Layout,
	src *node.Layout, channel int, relative bool) {

	nv := mesh.VertexCount()
	assigned := make([]int, nv)
	for i := range assigned {
		assigned[i] = -1
	}

	var uvs []resource.Vec2
	if channel < len(mesh.UVs) {
		uvs = mesh.UVs[channel]
	}

	// Texture coordinates outside [0,1] are wrapped or clamped.
	nonNormalized := false
	for i := range uvs {
		for c := 0; c < 2; c++ {
			f := uvs[i][c]
			if f >= 0 && f <= 1 {
				continue
			}
			nonNormalized = true
			if g.opts.NormalizeUVs {
				f -= float32(math.Floor(float64(f)))
			} else {
				f = min(max(f, 0), 1)
			}
			uvs[i][c] = f
		}
	}
	if nonNormalized {
		g.log.Warnf(ctx, "Source mesh has non-normalized UVs in LOD %d", g.lod)
	}

	grid := src.Size
	gx, gy := int(max(grid[0], 1)), int(max(grid[1], 1))

	// Masked blocks claim vertices first.
	for b, blk := range src.Blocks {
		if blk.Mask == nil {
			continue
		}
		r := blockRect(grid, blk.Min, blk.Size)
		size := r.Size()
		for v := range uvs {
			if assigned[v] >= 0 {
				continue
			}
			uv := uvs[v]
			if uv[0] < r.Min[0] || uv[0] > r.Max[0] || uv[1] < r.Min[1] || uv[1] > r.Max[1] {
				continue
			}
			local := resource.Vec2{(uv[0] - r.Min[0]) / size[0], (uv[1] - r.Min[1]) / size[1]}
			if blk.Mask.Sample(local)[0] > 0.5 {
				assigned[v] = b
			}
		}
	}

	overlapping := 0
	for a := range src.Blocks {
		if src.Blocks[a].Mask != nil {
			continue
		}
		for b := a + 1; b < len(src.Blocks); b++ {
			if src.Blocks[b].Mask == nil && cellsOf(src.Blocks[a]).overlaps(cellsOf(src.Blocks[b])) {
				overlapping++
			}
		}
	}
	if overlapping > 0 {
		g.log.Warnf(ctx, "Source mesh has %d layout block overlapping in LOD %d", overlapping, g.lod)
	}

	for v := range uvs {
		if assigned[v] >= 0 {
			continue
		}
		x := min(int(uvs[v][0]*float32(gx)), gx-1)
		y := min(int(uvs[v][1]*float32(gy)), gy-1)
		for b, blk := range src.Blocks {
			if blk.Mask != nil {
				continue
			}
			if cellsOf(blk).contains(x, y) {
				assigned[v] = b
				break
			}
		}
	}

	if g.opts.ClampUVIslands {
		clampIslands(mesh.Indices, assigned)
	}

	var unassigned []float32
	count := 0
	for v := range assigned {
		if assigned[v] >= 0 {
			continue
		}
		count++
		if v < len(uvs) {
			unassigned = append(unassigned, uvs[v][0], uvs[v][1])
		}
		if g.opts.EnsureAllVerticesHaveLayoutBlock && len(src.Blocks) > 0 {
			assigned[v] = 0
		}
	}
	silenced := src.FirstLODToIgnoreWarnings >= 0 && int32(g.lod) >= src.FirstLODToIgnoreWarnings
	if count > 0 && !silenced {
		g.log.Add(errlog.Message{
			Severity: errlog.Warning,
			Text:     fmt.Sprintf("Source mesh has %d vertices not assigned to any layout block in LOD %d", count, g.lod),
			Context:  ctx,
			Data:     &errlog.AttachedData{UnassignedUVs: unassigned},
		})
	}

	ids := make([]uint64, nv)
	for v, b := range assigned {
		switch {
		case b < 0:
			ids[v] = resource.InvalidBlockID
		case relative:
			ids[v] = uint64(b)
		default:
			ids[v] = layout.Blocks[b].ID
		}
	}

	for len(mesh.LayoutBlocks) <= channel {
		mesh.LayoutBlocks = append(mesh.LayoutBlocks, nil)
	}
	mesh.LayoutBlocks[channel] = ids
	for len(mesh.Layouts) <= channel {
		mesh.Layouts = append(mesh.Layouts, nil)
	}
	mesh.Layouts[channel] = layout
}

// clampIslands moves every vertex of a connected group of triangles to the
// block most of the group was assigned to.
func clampIslands(indices []uint32, assigned []int) {
	parent := make([]int, len(assigned))
	for i := range parent {
		parent[i] = i
	}
	find := func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[rb] = ra
		}
	}
	for f := 0; f+2 < len(indices); f += 3 {
		a, b, c := int(indices[f]), int(indices[f+1]), int(indices[f+2])
		if a >= len(assigned) || b >= len(assigned) || c >= len(assigned) {
			continue
		}
		union(a, b)
		union(a, c)
	}

	votes := make(map[int]map[int]int)
	for v, b := range assigned {
		if b < 0 {
			continue
		}
		r := find(v)
		if votes[r] == nil {
			votes[r] = make(map[int]int)
		}
		votes[r][b]++
	}
	majority := make(map[int]int, len(votes))
	for r, counts := range votes {
		best, bestCount := -1, 0
		for b, n := range counts {
			if n > bestCount || (n == bestCount && b < best) {
				best, bestCount = b, n
			}
		}
		majority[r] = best
	}
	for v := range assigned {
		if b, ok := majority[find(v)]; ok {
			assigned[v] = b
		}
	}
}
