package csv

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/npillmayer/schuko/tracing"
	"github.com/shapestone/csvkit/internal/buffer"
	"github.com/shapestone/csvkit/internal/poison"
	"github.com/shapestone/csvkit/internal/tokenizer"
)

// tracer writes to trace with key 'csvkit.csv'
func tracer() tracing.Trace {
	return tracing.Select("csvkit.csv")
}

// Position locates a reader in its input. Record is the 1-based number of
// the record being scanned, header included. Line is 1-based; a CR LF pair
// counts as one line break. Column counts bytes on the current line.
type Position = tokenizer.Position

// rowSizeHint is the initial storage, in bytes, of a row block.
const rowSizeHint = 128

// what pull found
const (
	pullNone = iota
	pullRecord
	pullComment
)

// Reader reads records from a ChunkSource.
//
// A Reader is not safe for concurrent use. Once a call fails with anything
// but a cancellation, the reader is unusable: every later call returns an
// *UnusableError that carries the first failure.
type Reader struct {
	opts    ReaderOptions
	src     ChunkSource
	engine  *tokenizer.Engine
	handler tokenizer.Handler
	guard   poison.Guard
	arena   *buffer.Arena
	scope   *scope

	chunk []byte // unconsumed rest of the last chunk
	eof   bool   // the source is exhausted
	done  bool   // the engine has seen the end of input

	block        *buffer.Block // record under assembly
	recordReady  bool
	wantComments bool
	commentReady bool
	comment      []byte

	headerPending bool
	header        *Header
	required      []int
	held          *Row // first data row, read ahead by Header

	rows   int64
	closed bool
}

// NewReader returns a reader that pulls its input from r.
func NewReader(r io.Reader, opts ReaderOptions) (*Reader, error) {
	return NewChunkReader(NewReaderSource(r, opts.ChunkSize), opts)
}

// NewStringReader returns a reader over s.
func NewStringReader(s string, opts ReaderOptions) (*Reader, error) {
	return NewReader(strings.NewReader(s), opts)
}

// NewChunkReader returns a reader over src.
func NewChunkReader(src ChunkSource, opts ReaderOptions) (*Reader, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	prog, err := tokenizer.Compile(opts.Dialect.config())
	if err != nil {
		return nil, err
	}
	r := &Reader{
		opts:          opts,
		src:           src,
		engine:        tokenizer.New(prog),
		arena:         buffer.Default,
		headerPending: opts.Header != HeaderNever,
	}
	if opts.Disposal == DisposeWithReader {
		r.scope = &scope{}
	}
	r.handler = r.onEvent
	return r, nil
}

// Options returns the options the reader was created with.
func (r *Reader) Options() ReaderOptions {
	return r.opts
}

// RowEnding returns the row ending in force. With RowEndingDetect it stays
// RowEndingDetect until the first row ending has been read.
func (r *Reader) RowEnding() RowEnding {
	return r.engine.RowEnding()
}

// Position returns the current position. It may be called at any time,
// including on a closed or unusable reader.
func (r *Reader) Position() Position {
	return r.engine.Position()
}

// Header returns the header, reading the first record if needed. It
// returns nil if the reader has no header: HeaderNever, detection said the
// first record is data, or the input is empty. Reading stops at the first
// record: a data record read here is returned by the next read, and comments
// after it are still reported. Comments before the header are skipped.
func (r *Reader) Header() (*Header, error) {
	return r.HeaderContext(context.Background())
}

// HeaderContext is Header with a context.
func (r *Reader) HeaderContext(ctx context.Context) (*Header, error) {
	var h *Header
	err := r.call(func() error {
		if !r.headerPending {
			h = r.header
			return nil
		}
		r.wantComments = false
		k, err := r.pull(ctx)
		if err != nil {
			return err
		}
		if k == pullNone {
			r.headerPending = false
			return nil
		}
		block, err := r.admit(r.takeBlock())
		if err != nil {
			return err
		}
		if block != nil {
			held := &Row{}
			if err := r.fill(held, block); err != nil {
				return err
			}
			r.held = held
		}
		h = r.header
		return nil
	})
	return h, err
}

// TryRead returns the next data row. ok is false at the end of input.
func (r *Reader) TryRead() (row *Row, ok bool, err error) {
	return r.TryReadContext(context.Background())
}

// TryReadContext is TryRead with a context. Cancellation is reported as
// ctx.Err() and leaves the reader usable.
func (r *Reader) TryReadContext(ctx context.Context) (*Row, bool, error) {
	var row *Row
	err := r.call(func() error {
		dst := &Row{}
		k, err := r.next(ctx, dst, false)
		if k == HasValue {
			row = dst
		}
		return err
	})
	return row, row != nil, err
}

// TryReadWithComment returns the next data row or comment.
func (r *Reader) TryReadWithComment() (ReadResult, error) {
	return r.TryReadWithCommentContext(context.Background())
}

// TryReadWithCommentContext is TryReadWithComment with a context.
func (r *Reader) TryReadWithCommentContext(ctx context.Context) (ReadResult, error) {
	var res ReadResult
	err := r.call(func() error {
		dst := &Row{}
		k, err := r.next(ctx, dst, true)
		switch k {
		case HasValue:
			res = ReadResult{kind: HasValue, row: dst}
		case HasComment:
			res = ReadResult{kind: HasComment, comment: string(r.comment)}
		}
		return err
	})
	return res, err
}

// TryReadInto reads the next data row into row, releasing whatever row held
// before. Views taken from the old contents stay valid. At the end of input
// row is left disposed and ok is false.
func (r *Reader) TryReadInto(row *Row) (ok bool, err error) {
	return r.TryReadIntoContext(context.Background(), row)
}

// TryReadIntoContext is TryReadInto with a context.
func (r *Reader) TryReadIntoContext(ctx context.Context, row *Row) (bool, error) {
	if row == nil {
		return false, errors.New("csv: TryReadInto with nil row")
	}
	ok := false
	err := r.call(func() error {
		row.release()
		*row = Row{disposed: true}
		k, err := r.next(ctx, row, false)
		ok = k == HasValue
		return err
	})
	return ok, err
}

// ReadAll reads all remaining data rows as strings.
func (r *Reader) ReadAll() ([][]string, error) {
	return r.ReadAllContext(context.Background())
}

// ReadAllContext is ReadAll with a context.
func (r *Reader) ReadAllContext(ctx context.Context) ([][]string, error) {
	var out [][]string
	var row Row
	defer row.Dispose()
	for {
		ok, err := r.TryReadIntoContext(ctx, &row)
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		fields, err := row.Fields()
		if err != nil {
			return out, err
		}
		out = append(out, fields)
	}
}

// Close releases the reader. With DisposeWithReader every row it returned
// is disposed. Close does not close the source. It is safe to call more
// than once.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if r.scope != nil {
		r.scope.closed = true
	}
	r.discard()
	if r.held != nil {
		r.held.Dispose()
		r.held = nil
	}
	r.engine.Release()
	r.chunk = nil
	return nil
}

func (r *Reader) call(fn func() error) error {
	if r.closed {
		return ErrReaderClosed
	}
	return r.guard.Do(fn)
}

// next reads the next data row into dst, or the next comment into
// r.comment if wantComments is set.
func (r *Reader) next(ctx context.Context, dst *Row, wantComments bool) (ResultKind, error) {
	if r.held != nil {
		r.held.moveTo(dst)
		r.held = nil
		return HasValue, nil
	}
	k, block, err := r.scan(ctx, wantComments)
	if err != nil {
		return NoValue, err
	}
	switch k {
	case pullComment:
		return HasComment, nil
	case pullRecord:
		if err := r.fill(dst, block); err != nil {
			return NoValue, err
		}
		return HasValue, nil
	}
	return NoValue, nil
}

// scan returns the next comment or data record, consuming the header on
// the way.
func (r *Reader) scan(ctx context.Context, wantComments bool) (int, *buffer.Block, error) {
	r.wantComments = wantComments
	for {
		k, err := r.pull(ctx)
		if err != nil || k != pullRecord {
			return k, nil, err
		}
		block := r.takeBlock()
		if !r.headerPending {
			return pullRecord, block, nil
		}
		block, err = r.admit(block)
		if err != nil {
			return pullNone, nil, err
		}
		if block != nil {
			return pullRecord, block, nil
		}
	}
}

func (r *Reader) takeBlock() *buffer.Block {
	block := r.block
	r.block = nil
	return block
}

// admit passes the first record through takeHeader. It returns block if the
// record is data, or nil once the header has been taken from it.
func (r *Reader) admit(block *buffer.Block) (*buffer.Block, error) {
	isHeader, err := r.takeHeader(block)
	if err != nil || isHeader {
		block.Release()
		return nil, err
	}
	return block, nil
}

// pull drives the engine until a record or a wanted comment is complete, or
// the input ends.
func (r *Reader) pull(ctx context.Context) (int, error) {
	for {
		if len(r.chunk) > 0 {
			n, err := r.engine.Feed(r.chunk, r.handler)
			r.chunk = r.chunk[n:]
			if err != nil {
				r.discard()
				return pullNone, err
			}
			if k := r.ready(); k != pullNone {
				return k, nil
			}
			continue
		}
		if r.done {
			return pullNone, nil
		}
		if r.eof {
			r.done = true
			if err := r.engine.Finish(r.handler); err != nil {
				r.discard()
				return pullNone, err
			}
			return r.ready(), nil
		}
		if err := ctx.Err(); err != nil {
			return pullNone, err
		}
		chunk, err := r.src.Next(ctx)
		if errors.Is(err, io.EOF) {
			r.eof = true
		} else if err != nil {
			return pullNone, err
		}
		r.chunk = chunk
	}
}

func (r *Reader) ready() int {
	switch {
	case r.recordReady:
		r.recordReady = false
		return pullRecord
	case r.commentReady:
		r.commentReady = false
		return pullComment
	}
	return pullNone
}

// discard drops a partially assembled record.
func (r *Reader) discard() {
	if r.block != nil {
		r.block.Release()
		r.block = nil
	}
	r.recordReady, r.commentReady = false, false
}

func (r *Reader) onEvent(ev tokenizer.Event) bool {
	switch ev.Kind {
	case tokenizer.EventStartRecord:
		r.block = r.arena.NewBlock(rowSizeHint)
	case tokenizer.EventEndValue:
		r.block.AppendCell(ev.Text)
	case tokenizer.EventEndRecord:
		r.recordReady = true
		return false
	case tokenizer.EventEndComment:
		if r.wantComments {
			r.comment = append(r.comment[:0], ev.Text...)
			r.commentReady = true
			return false
		}
	case tokenizer.EventDetectResolved:
		tracer().Debugf("reader detected row ending %s", ev.RowEnding)
	}
	return true
}

// takeHeader decides whether the first record, in block, is the header.
func (r *Reader) takeHeader(block *buffer.Block) (bool, error) {
	r.headerPending = false
	fields := make([]string, block.Cells())
	for i := range fields {
		fields[i] = string(block.Cell(i))
	}
	isHeader := r.opts.Header == HeaderAlways
	if r.opts.Header == HeaderDetect {
		detect := r.opts.HeaderDetector
		if detect == nil {
			detect = SniffHeader
		}
		isHeader = detect(fields)
		tracer().Debugf("first record %v detected as header: %t", fields, isHeader)
	}
	if isHeader {
		r.header = NewHeader(fields)
	}
	for _, name := range r.opts.RequiredColumns {
		if r.header == nil {
			return false, &MissingColumnError{Column: name}
		}
		idx, ok := r.header.Index(name)
		if !ok {
			return false, &MissingColumnError{Column: name}
		}
		r.required = append(r.required, idx)
	}
	return isHeader, nil
}

// fill makes dst the view of the data row in block and runs the row checks.
// A failed check poisons the reader even if it wraps a cancellation, since
// the row has been consumed.
func (r *Reader) fill(dst *Row, block *buffer.Block) error {
	r.rows++
	*dst = Row{
		ref:    newRef(block),
		count:  block.Cells(),
		scope:  r.scope,
		header: r.header,
		number: r.rows,
	}
	for i, idx := range r.required {
		if idx >= dst.count {
			dst.Dispose()
			return r.guard.Poison(&MissingColumnError{Column: r.opts.RequiredColumns[i], Row: r.rows})
		}
	}
	if r.opts.RowHook != nil {
		if err := r.opts.RowHook(dst); err != nil {
			dst.Dispose()
			return r.guard.Poison(&RowError{Row: r.rows, Err: err})
		}
	}
	return nil
}
