package resource

// PackStrategy controls how layout blocks are arranged in an atlas.
type PackStrategy uint8

const (
	PackResizable PackStrategy = iota
	PackFixed
	PackOverlay
)

// ReductionMethod controls how blocks shrink when the atlas overflows.
type ReductionMethod uint8

const (
	ReduceHalve ReductionMethod = iota
	ReduceUnitary
)

// InvalidBlockID marks a block that has not been assigned an id yet.
const InvalidBlockID = ^uint64(0)

// LayoutBlock is a rectangle of grid cells.
type LayoutBlock struct {
	Min            [2]uint16
	Size           [2]uint16
	ID             uint64
	Priority       int32
	ReduceBothAxes bool
	ReduceByTwo    bool
}

// Layout is a 2D packing description attached to a mesh texture
// coordinates channel.
type Layout struct {
	Size      [2]uint16
	MaxSize   [2]uint16
	Blocks    []LayoutBlock
	Strategy  PackStrategy
	Reduction ReductionMethod
}

// Clone returns a deep copy of l.
func (l *Layout) Clone() *Layout {
	c := *l
	c.Blocks = append([]LayoutBlock(nil), l.Blocks...)
	return &c
}

// GridSize returns the layout grid size.
func (l *Layout) GridSize() [2]uint16 {
	return l.Size
}

// FindBlock returns the index of the block with the given id, or -1.
func (l *Layout) FindBlock(id uint64) int {
	for i, b := range l.Blocks {
		if b.ID == id {
			return i
		}
	}
	return -1
}

// Equal reports whether two layouts describe the same blocks.
func (l *Layout) Equal(o *Layout) bool {
	if l == o {
		return true
	}
	if l == nil || o == nil {
		return false
	}
	if l.Size != o.Size || l.MaxSize != o.MaxSize || l.Strategy != o.Strategy || l.Reduction != o.Reduction {
		return false
	}
	if len(l.Blocks) != len(o.Blocks) {
		return false
	}
	for i := range l.Blocks {
		if l.Blocks[i] != o.Blocks[i] {
			return false
		}
	}
	return true
}
