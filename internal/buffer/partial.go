package buffer

// Partial accumulates the text of a value or comment that does not fit into a
// single input chunk. The zero value is ready to use; the first Append acquires
// a slab from the pool.
//
// A Partial is owned by exactly one engine and must not be aliased while it
// accumulates. Slices returned by Finalize are valid until the next call to
// Append, Reset or Release.
type Partial struct {
	buf []byte
}

// Len returns the number of accumulated bytes.
func (p *Partial) Len() int {
	return len(p.buf)
}

// Append copies span to the end of the accumulated text, growing the backing
// slab if needed. The slab never shrinks while accumulating.
func (p *Partial) Append(span []byte) {
	if len(span) == 0 {
		return
	}
	need := len(p.buf) + len(span)
	if need > cap(p.buf) {
		p.grow(need)
	}
	p.buf = append(p.buf, span...)
}

// AppendByte appends a single byte.
func (p *Partial) AppendByte(c byte) {
	if len(p.buf) == cap(p.buf) {
		p.grow(len(p.buf) + 1)
	}
	p.buf = append(p.buf, c)
}

// grow replaces the slab with one able to hold need bytes, copying the
// accumulated text and returning the old slab to the pool.
func (p *Partial) grow(need int) {
	size := 2 * cap(p.buf)
	if size < need {
		size = need
	}
	nb := Get(size)
	nb = append(nb, p.buf...)
	if p.buf != nil {
		Put(p.buf)
	}
	p.buf = nb
}

// Finalize returns the accumulated text followed by trailing as one contiguous
// slice. When nothing was accumulated, trailing itself is returned without
// copying; a nil trailing span then yields an empty, non-nil slice.
func (p *Partial) Finalize(trailing []byte) []byte {
	if len(p.buf) == 0 {
		if trailing == nil {
			return []byte{}
		}
		return trailing
	}
	p.Append(trailing)
	return p.buf
}

// Reset discards the accumulated text but keeps the slab for the next value.
func (p *Partial) Reset() {
	p.buf = p.buf[:0]
}

// Release returns the slab to the pool. The Partial may be reused afterwards.
func (p *Partial) Release() {
	if p.buf != nil {
		Put(p.buf)
		p.buf = nil
	}
}
