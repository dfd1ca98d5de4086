package buffer

import (
	"sync"
	"testing"
)

// TestClassFor tests the mapping from requested sizes to slab classes
func TestClassFor(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{0, 0},
		{1, 0},
		{64, 0},
		{65, 1},
		{128, 1},
		{129, 2},
		{1 << 16, numClasses - 1},
		{1<<16 + 1, -1},
	}

	for _, tt := range tests {
		if got := classFor(tt.n); got != tt.want {
			t.Errorf("classFor(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

// TestGetCapacity tests that Get always satisfies the requested size
func TestGetCapacity(t *testing.T) {
	for _, n := range []int{0, 1, 63, 64, 100, 4096, 70000} {
		b := Get(n)
		if len(b) != 0 {
			t.Errorf("Get(%d) returned length %d, want 0", n, len(b))
		}
		if cap(b) < n {
			t.Errorf("Get(%d) returned capacity %d", n, cap(b))
		}
		Put(b)
	}
}

// TestPutIgnoresForeignSlices tests that slices not shaped like slabs are dropped
func TestPutIgnoresForeignSlices(t *testing.T) {
	// None of these may panic or poison a size class
	Put(nil)
	Put(make([]byte, 0, 100))
	Put(make([]byte, 0, 1<<20))

	b := Get(100)
	if cap(b) != 128 {
		t.Errorf("Get(100) capacity = %d, want 128", cap(b))
	}
	Put(b)
}

// TestPoolConcurrent tests concurrent slab access from many goroutines
func TestPoolConcurrent(t *testing.T) {
	const workers = 10
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				b := Get(j * 10)
				b = append(b, byte(id))
				if len(b) != 1 || b[0] != byte(id) {
					t.Errorf("worker %d: slab contents corrupted", id)
				}
				Put(b)
			}
		}(i)
	}
	wg.Wait()
}

// TestOffsetPool tests the offset slice pool
func TestOffsetPool(t *testing.T) {
	offsets := getOffsets()
	if len(offsets) != 0 {
		t.Fatalf("expected length 0, got %d", len(offsets))
	}
	offsets = append(offsets, 0, 3, 5)
	putOffsets(offsets)

	again := getOffsets()
	if len(again) != 0 {
		t.Errorf("expected reused slice to be cleared, got length %d", len(again))
	}
	putOffsets(again)

	// Oversized slices are not retained
	putOffsets(make([]int, 0, 4096))
}
