package buffer

import (
	"sync"
	"sync/atomic"
)

// Block is the backing storage of one materialized row: the cell bytes laid
// out back to back and the offset of every cell boundary, in the style of a
// byte record. Cell i spans data[offsets[i]:offsets[i+1]].
//
// A Block is reference counted. Every view over it holds one reference, and
// the block goes back to its arena when the last reference is released. Views
// therefore live as long as the longest holder, independent of each other.
type Block struct {
	arena   *Arena
	data    []byte
	offsets []int
	refs    atomic.Int32
	gen     atomic.Uint64
}

// AppendCell copies cell into the block as its next cell.
func (b *Block) AppendCell(cell []byte) {
	if len(b.offsets) == 0 {
		b.offsets = append(b.offsets, 0)
	}
	need := len(b.data) + len(cell)
	if need > cap(b.data) {
		size := 2 * cap(b.data)
		if size < need {
			size = need
		}
		nb := Get(size)
		nb = append(nb, b.data...)
		Put(b.data)
		b.data = nb
	}
	b.data = append(b.data, cell...)
	b.offsets = append(b.offsets, len(b.data))
}

// Cells returns the number of cells in the block.
func (b *Block) Cells() int {
	if len(b.offsets) == 0 {
		return 0
	}
	return len(b.offsets) - 1
}

// Cell returns the bytes of cell i. The slice aliases the block and must not
// be modified or retained past the release of the caller's reference.
func (b *Block) Cell(i int) []byte {
	return b.data[b.offsets[i]:b.offsets[i+1]:b.offsets[i+1]]
}

// Generation identifies the current use of the block. It changes every time
// the block is recycled, so a view can tell its block was reused.
func (b *Block) Generation() uint64 {
	return b.gen.Load()
}

// Refs returns the number of live references.
func (b *Block) Refs() int32 {
	return b.refs.Load()
}

// Retain adds a reference and returns b.
func (b *Block) Retain() *Block {
	if b.refs.Add(1) <= 1 {
		panic("buffer: retain of released block")
	}
	return b
}

// Release drops a reference. The last release returns the block to its arena.
func (b *Block) Release() {
	n := b.refs.Add(-1)
	switch {
	case n == 0:
		b.arena.recycle(b)
	case n < 0:
		panic("buffer: block released too often")
	}
}

// Arena hands out row blocks and takes them back once unreferenced.
type Arena struct {
	blocks sync.Pool
	live   atomic.Int64
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	a := &Arena{}
	a.blocks.New = func() interface{} {
		return &Block{arena: a}
	}
	return a
}

// Default is the arena shared by all readers of a process.
var Default = NewArena()

// NewBlock returns an empty block holding a single reference, sized for
// roughly sizeHint bytes of cell data.
func (a *Arena) NewBlock(sizeHint int) *Block {
	b := a.blocks.Get().(*Block)
	if b.data == nil {
		b.data = Get(sizeHint)
	}
	if b.offsets == nil {
		b.offsets = getOffsets()
	}
	b.refs.Store(1)
	a.live.Add(1)
	return b
}

// Live returns the number of blocks currently referenced by some view.
func (a *Arena) Live() int64 {
	return a.live.Load()
}

func (a *Arena) recycle(b *Block) {
	b.gen.Add(1)
	Put(b.data)
	putOffsets(b.offsets)
	b.data = nil
	b.offsets = nil
	a.live.Add(-1)
	a.blocks.Put(b)
}
