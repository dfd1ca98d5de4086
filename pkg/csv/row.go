package csv

import (
	"fmt"

	"github.com/shapestone/csvkit/internal/buffer"
)

// scope is shared by the rows of a reader in DisposeWithReader mode.
type scope struct {
	closed bool
}

// Row is a view over the cells of one record, or over a contiguous range of
// them. Every view owns a reference to the row storage and is disposed on
// its own: disposing a view never affects another view, and a sub-range
// stays valid after the view it was taken from is disposed.
//
// A Row is not safe for concurrent use, but a disposed-or-not view may be
// handed to another goroutine. A Row must not be copied; use Range or Slice
// for a second view. Copies share one reference, so disposing any of them
// disposes all.
type Row struct {
	_        noCopy
	ref      *blockRef
	first    int
	count    int
	disposed bool
	scope    *scope
	header   *Header
	number   int64
}

// blockRef is the reference a view holds on its row storage.
type blockRef struct {
	block *buffer.Block
}

func newRef(b *buffer.Block) *blockRef {
	return &blockRef{block: b}
}

// noCopy lets go vet's copylocks check flag copies of a Row.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

func (r *Row) storage() *buffer.Block {
	if r.ref == nil {
		return nil
	}
	return r.ref.block
}

func (r *Row) check() error {
	if r.disposed || r.storage() == nil || (r.scope != nil && r.scope.closed) {
		return ErrDisposed
	}
	return nil
}

// Disposed reports whether accessors of r fail with ErrDisposed.
func (r *Row) Disposed() bool {
	return r.check() != nil
}

// Dispose releases the view. It is safe to call more than once.
func (r *Row) Dispose() {
	if r.disposed {
		return
	}
	r.disposed = true
	r.release()
}

// release drops the block reference without marking the view disposed.
func (r *Row) release() {
	if b := r.storage(); b != nil {
		r.ref.block = nil
		b.Release()
	}
	r.ref = nil
}

// moveTo hands the storage of r over to dst and leaves r disposed.
func (r *Row) moveTo(dst *Row) {
	*dst = Row{
		ref:    r.ref,
		first:  r.first,
		count:  r.count,
		scope:  r.scope,
		header: r.header,
		number: r.number,
	}
	r.ref, r.disposed = nil, true
}

// Number returns the 1-based position of the row among the data rows of its
// reader. The header is not counted.
func (r *Row) Number() int64 {
	return r.number
}

// Header returns the header of the reader, or nil.
func (r *Row) Header() *Header {
	return r.header
}

// Len returns the number of cells in the view.
func (r *Row) Len() (int, error) {
	if err := r.check(); err != nil {
		return 0, err
	}
	return r.count, nil
}

func (r *Row) cell(i int) ([]byte, error) {
	if err := r.check(); err != nil {
		return nil, err
	}
	if i < 0 || i >= r.count {
		return nil, fmt.Errorf("%w: cell %d of %d", ErrIndexOutOfRange, i, r.count)
	}
	return r.ref.block.Cell(r.first + i), nil
}

// Field returns cell i as a string.
func (r *Row) Field(i int) (string, error) {
	b, err := r.cell(i)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// FieldBytes returns cell i. The slice aliases the row storage: it must not
// be modified and is only valid until the view is disposed.
func (r *Row) FieldBytes(i int) ([]byte, error) {
	return r.cell(i)
}

// Fields returns all cells of the view as strings.
func (r *Row) Fields() ([]string, error) {
	if err := r.check(); err != nil {
		return nil, err
	}
	out := make([]string, r.count)
	for i := range out {
		out[i] = string(r.ref.block.Cell(r.first + i))
	}
	return out, nil
}

// column maps a header name to a position in the view.
func (r *Row) column(name string) (int, error) {
	if r.header == nil {
		return 0, fmt.Errorf("%w %q: no header", ErrUnknownColumn, name)
	}
	idx, ok := r.header.Index(name)
	if !ok {
		return 0, fmt.Errorf("%w %q", ErrUnknownColumn, name)
	}
	return idx - r.first, nil
}

// ByName returns the cell under the header column name.
func (r *Row) ByName(name string) (string, error) {
	if err := r.check(); err != nil {
		return "", err
	}
	i, err := r.column(name)
	if err != nil {
		return "", err
	}
	return r.Field(i)
}

// Range returns a new view over cells from through to-1 of r. The new view
// must be disposed separately.
func (r *Row) Range(from, to int) (*Row, error) {
	if err := r.check(); err != nil {
		return nil, err
	}
	if from < 0 || to < from || to > r.count {
		return nil, fmt.Errorf("%w: range [%d:%d] of %d", ErrIndexOutOfRange, from, to, r.count)
	}
	return &Row{
		ref:    newRef(r.ref.block.Retain()),
		first:  r.first + from,
		count:  to - from,
		scope:  r.scope,
		header: r.header,
		number: r.number,
	}, nil
}

// Slice returns a new view over the cells from position from to the end.
func (r *Row) Slice(from int) (*Row, error) {
	if err := r.check(); err != nil {
		return nil, err
	}
	return r.Range(from, r.count)
}

// Resolve returns the cells addressed by a. Index and name accessors yield
// exactly one cell. The slices alias the row storage.
func (r *Row) Resolve(a Accessor) ([][]byte, error) {
	if err := r.check(); err != nil {
		return nil, err
	}
	switch a.Kind {
	case AccessByIndex:
		c, err := r.cell(a.Index)
		if err != nil {
			return nil, err
		}
		return [][]byte{c}, nil
	case AccessByName:
		i, err := r.column(a.Name)
		if err != nil {
			return nil, err
		}
		c, err := r.cell(i)
		if err != nil {
			return nil, err
		}
		return [][]byte{c}, nil
	case AccessByRange:
		if a.From < 0 || a.To < a.From || a.To > r.count {
			return nil, fmt.Errorf("%w: range [%d:%d] of %d", ErrIndexOutOfRange, a.From, a.To, r.count)
		}
		cells := make([][]byte, 0, a.To-a.From)
		for i := a.From; i < a.To; i++ {
			cells = append(cells, r.ref.block.Cell(r.first+i))
		}
		return cells, nil
	}
	return nil, fmt.Errorf("csv: unknown accessor kind %d", a.Kind)
}

// String formats the cells of the view like a []string, or returns
// "<disposed>".
func (r *Row) String() string {
	fields, err := r.Fields()
	if err != nil {
		return "<disposed>"
	}
	return fmt.Sprint(fields)
}
