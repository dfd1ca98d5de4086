// Package buffer provides the pooled memory behind the tokenizer: the partial
// value accumulator and the reference-counted blocks that back materialized rows.
//
// All pools in this package are safe for concurrent use. They are the only state
// shared between otherwise independent readers.
package buffer

import (
	"math/bits"
	"sync"
)

// Slab sizes are powers of two between minSlab and maxSlab. Requests above
// maxSlab are served by plain allocation and never returned to a pool.
const (
	minSlabShift = 6  // 64 bytes
	maxSlabShift = 16 // 64 KiB
	numClasses   = maxSlabShift - minSlabShift + 1
)

// slabPools holds one sync.Pool per size class. Class i hands out slices with
// capacity 1<<(minSlabShift+i).
var slabPools [numClasses]sync.Pool

// offsetPool recycles the []int cell-offset slices used by row blocks.
var offsetPool = sync.Pool{
	New: func() interface{} {
		// Typical records have fewer than 16 fields
		s := make([]int, 0, 17)
		return &s
	},
}

func init() {
	for i := range slabPools {
		size := 1 << (minSlabShift + i)
		slabPools[i].New = func() interface{} {
			b := make([]byte, 0, size)
			return &b
		}
	}
}

// classFor returns the size class able to hold n bytes, or -1 if n is larger
// than the biggest pooled slab.
func classFor(n int) int {
	if n <= 1<<minSlabShift {
		return 0
	}
	shift := bits.Len(uint(n - 1))
	if shift > maxSlabShift {
		return -1
	}
	return shift - minSlabShift
}

// Get returns a zero-length slice with capacity of at least n bytes.
func Get(n int) []byte {
	c := classFor(n)
	if c < 0 {
		return make([]byte, 0, n)
	}
	p := slabPools[c].Get().(*[]byte)
	return (*p)[:0]
}

// Put returns b to the pool matching its capacity. Slices that were not
// handed out by Get (odd capacities, oversized slices) are dropped.
func Put(b []byte) {
	c := cap(b)
	if c < 1<<minSlabShift || c > 1<<maxSlabShift || c&(c-1) != 0 {
		return
	}
	b = b[:0]
	slabPools[classFor(c)].Put(&b)
}

// getOffsets gets an []int slice from the pool with length 0.
func getOffsets() []int {
	p := offsetPool.Get().(*[]int)
	return (*p)[:0]
}

// putOffsets returns an []int slice to the pool.
func putOffsets(offsets []int) {
	// Avoid keeping huge slices alive
	const maxCapacity = 1024
	if cap(offsets) > maxCapacity {
		return
	}
	offsets = offsets[:0]
	offsetPool.Put(&offsets)
}
