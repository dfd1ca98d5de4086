package tokenizer

import (
	"github.com/shapestone/csvkit/internal/buffer"
)

// EventKind identifies a boundary reported by the engine.
type EventKind uint8

const (
	EventStartRecord EventKind = iota
	EventEndValue
	EventEndRecord
	EventStartComment
	EventEndComment
	EventDetectResolved
)

func (k EventKind) String() string {
	switch k {
	case EventStartRecord:
		return "StartRecord"
	case EventEndValue:
		return "EndValue"
	case EventEndRecord:
		return "EndRecord"
	case EventStartComment:
		return "StartComment"
	case EventEndComment:
		return "EndComment"
	case EventDetectResolved:
		return "DetectResolved"
	}
	return "Event(?)"
}

// Event is one boundary. Text is set for EndValue and EndComment and is only
// valid until the handler returns. RowEnding is set for DetectResolved.
type Event struct {
	Kind      EventKind
	Text      []byte
	RowEnding RowEnding
}

// Handler receives events in input order. Its result is consulted after
// EndRecord and EndComment only: false pauses the engine right after the
// record or comment.
type Handler func(ev Event) bool

// Position locates the engine in its input.
type Position struct {
	Record int   // 1-based number of the record being scanned
	Line   int   // 1-based line number
	Column int   // bytes consumed on the current line
	Offset int64 // bytes consumed in total
}

var emptyText = []byte{}

// Engine drives a transition table over input chunks. An Engine is owned
// by a single reader and is not safe for concurrent use.
type Engine struct {
	prog    *Program
	table   *Table
	state   State
	partial buffer.Partial
	err     error

	// Segment bookkeeping for the chunk being fed. segStart is where the
	// current value or comment text starts. segEnd is the pending marker
	// when pending is set; -1 means the marker lies in an earlier chunk.
	chunk    []byte
	pos      int
	segStart int
	segEnd   int
	pending  bool
	inRecord bool

	records int
	line    int
	col     int
	offset  int64
	prevCR  bool
}

// New returns an engine at the start of input.
func New(p *Program) *Engine {
	e := &Engine{prog: p}
	e.Reset()
	return e
}

// Reset rewinds the engine to the start of a new input. Buffers are kept.
func (e *Engine) Reset() {
	e.table = TableFor(e.prog.key)
	e.state = HeaderStart
	e.partial.Reset()
	e.err = nil
	e.chunk = nil
	e.pos, e.segStart, e.segEnd = 0, 0, -1
	e.pending, e.inRecord = false, false
	e.records, e.line, e.col, e.offset, e.prevCR = 0, 1, 0, 0, false
}

// Release returns pooled memory. The engine must not be used afterwards.
func (e *Engine) Release() {
	e.partial.Release()
}

// State returns the current state.
func (e *Engine) State() State { return e.state }

// Phase tells whether the first record is still being scanned.
func (e *Engine) Phase() Phase { return e.table.Info[e.state].Phase }

// RowEnding returns the row ending in force. It is RowEndingDetect until
// the first row ending has been seen.
func (e *Engine) RowEnding() RowEnding { return e.table.Key.RowEnding }

// Err returns the error that stopped the engine, if any.
func (e *Engine) Err() error { return e.err }

// Position returns the current position.
func (e *Engine) Position() Position {
	return Position{Record: e.records + 1, Line: e.line, Column: e.col, Offset: e.offset}
}

// Feed processes chunk and returns the number of bytes consumed. Fewer than
// len(chunk) bytes are consumed only if the handler paused the engine or an
// error occurred; the caller feeds the rest later. Value text that reaches
// the end of chunk is copied, so chunk may be reused once Feed returns.
func (e *Engine) Feed(chunk []byte, h Handler) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	if len(chunk) == 0 {
		return 0, nil
	}
	if e.state == DataEnded {
		return 0, e.fail(FaultDataAfterEnd)
	}
	e.chunk = chunk
	e.segStart, e.segEnd = 0, -1
	tbl := e.table
	for e.pos = 0; e.pos < len(chunk); {
		c := chunk[e.pos]
		var cls Class
		if tbl.Info[e.state].InEscapedValue {
			cls = e.prog.inside[c]
		} else {
			cls = e.prog.outside[c]
		}
		r := tbl.Rules[e.state][cls]
		if r.Action == ActNone {
			e.state = r.Next
			e.advance(c)
			e.pos++
			continue
		}
		if r.Action == ActInvalid {
			n := e.pos
			e.chunk = nil
			return n, e.fail(r.Fault)
		}
		consumed, pause := e.step(r, h)
		if consumed {
			e.advance(c)
			e.pos++
		}
		if pause {
			n := e.pos
			e.chunk = nil
			return n, nil
		}
		tbl = e.table
	}
	if tbl.Info[e.state].Accumulating {
		e.partial.Append(chunk[e.segStart:e.textEnd(len(chunk))])
	}
	e.segStart, e.segEnd = 0, -1
	e.chunk = nil
	return len(chunk), nil
}

// Finish signals end of input and flushes the last value, record or
// comment. A pause requested by the handler is ignored.
func (e *Engine) Finish(h Handler) error {
	if e.err != nil {
		return e.err
	}
	e.chunk = nil
	e.pos, e.segStart, e.segEnd = 0, 0, -1
	for e.state != DataEnded {
		r := e.table.EOF[e.state]
		if r.Action == ActInvalid {
			return e.fail(r.Fault)
		}
		e.step(r, h)
	}
	return nil
}

func (e *Engine) advance(c byte) {
	e.offset++
	switch c {
	case '\n':
		if !e.prevCR {
			e.line++
		}
		e.col = 0
		e.prevCR = false
	case '\r':
		e.line++
		e.col = 0
		e.prevCR = true
	default:
		e.col++
		e.prevCR = false
	}
}

func (e *Engine) fail(f Fault) error {
	e.err = &ParseError{
		Record: e.records + 1,
		Line:   e.line,
		Column: e.col + 1,
		Offset: e.offset,
		Err:    f.Err(),
	}
	tracer().Errorf("tokenizer failed in state %s: %v", e.state, e.err)
	e.state = Invalid
	return e.err
}

// step executes the action of r and moves to its next state. It reports
// whether the current byte was consumed and whether the handler asked to
// pause.
func (e *Engine) step(r Rule, h Handler) (consumed, pause bool) {
	switch r.Action {
	case ActNone:
	case ActSkipLine:
		e.segEnd, e.pending = -1, false
	case ActBeginValue:
		e.startRecord(h)
		e.segStart = e.pos
	case ActBeginEscaped:
		e.startRecord(h)
		e.segStart = e.pos + 1
	case ActEmptyValue:
		e.startRecord(h)
		e.emptyValue(h)
	case ActEmptyValueAndRecord:
		e.startRecord(h)
		e.emptyValue(h)
		pause = e.endRecord(h)
	case ActEndValue:
		e.endValue(h)
	case ActEndValueAndRecord:
		e.endValue(h)
		pause = e.endRecord(h)
	case ActMarkPending:
		e.segEnd, e.pending = e.pos, true
	case ActMarkPendingEmpty:
		e.segStart, e.segEnd, e.pending = e.pos, e.pos, true
	case ActLiteralPending:
		if e.segEnd >= 0 {
			e.partial.Append(e.chunk[e.segStart : e.segEnd+1])
		} else {
			e.partial.AppendByte(e.prog.config.EscapeEnd)
		}
		e.segStart, e.segEnd, e.pending = e.pos+1, -1, false
	case ActEscapeLiteral:
		if e.segEnd >= 0 {
			e.partial.Append(e.chunk[e.segStart:e.segEnd])
		}
		e.segStart, e.segEnd, e.pending = e.pos, -1, false
	case ActRestoreCR:
		e.restoreCR(h)
	case ActRestoreCRAndEndValue:
		e.restoreCR(h)
		e.endValue(h)
	case ActRestoreCRAndMarkPending:
		e.restoreCR(h)
		e.segEnd, e.pending = e.pos, true
	case ActRestoreCRAndEndValueAndRecord:
		e.restoreCR(h)
		e.endValue(h)
		pause = e.endRecord(h)
	case ActRestoreCRAndEndComment:
		e.restoreCR(h)
		pause = e.endComment(h)
	case ActBeginComment:
		e.segStart = e.pos + 1
		h(Event{Kind: EventStartComment})
	case ActEndComment:
		pause = e.endComment(h)
	case ActResolveLF:
		e.resolve(RowEndingLF, h)
		return false, false
	case ActResolveCRLF:
		e.resolve(RowEndingCRLF, h)
		return false, false
	case ActResolveCR:
		// The pending CR ended a row on its own. Replay it from the state
		// it was read in, then process the current byte again.
		origin := e.table.CROrigin[e.state]
		e.resolve(RowEndingCR, h)
		e.state = origin
		_, pause = e.step(e.table.Rules[origin][ClassCarriageReturn], h)
		return false, pause
	}
	e.state = r.Next
	return true, pause
}

func (e *Engine) resolve(re RowEnding, h Handler) {
	e.table = TableFor(TableKey{
		RowEnding:    re,
		Comments:     e.prog.key.Comments,
		CustomEscape: e.prog.key.CustomEscape,
	})
	tracer().Debugf("row ending resolved to %s at offset %d", re, e.offset)
	h(Event{Kind: EventDetectResolved, RowEnding: re})
}

func (e *Engine) startRecord(h Handler) {
	if !e.inRecord {
		e.inRecord = true
		h(Event{Kind: EventStartRecord})
	}
}

// textEnd returns the end of the current text in the chunk, given that a
// non-pending text would end at end.
func (e *Engine) textEnd(end int) int {
	if e.pending {
		if e.segEnd >= 0 {
			return e.segEnd
		}
		return e.segStart
	}
	return end
}

func (e *Engine) text() []byte {
	if e.chunk == nil {
		return e.partial.Finalize(nil)
	}
	return e.partial.Finalize(e.chunk[e.segStart:e.textEnd(e.pos)])
}

func (e *Engine) endValue(h Handler) {
	h(Event{Kind: EventEndValue, Text: e.text()})
	e.partial.Reset()
	e.segStart, e.segEnd, e.pending = e.pos+1, -1, false
}

// emptyValue reports an empty value. A CR replayed as a row ending may
// have left a pending marker, which no longer applies.
func (e *Engine) emptyValue(h Handler) {
	h(Event{Kind: EventEndValue, Text: emptyText})
	e.segEnd, e.pending = -1, false
}

func (e *Engine) endRecord(h Handler) bool {
	e.inRecord = false
	e.records++
	return !h(Event{Kind: EventEndRecord})
}

func (e *Engine) endComment(h Handler) bool {
	pause := !h(Event{Kind: EventEndComment, Text: e.text()})
	e.partial.Reset()
	e.segStart, e.segEnd, e.pending = e.pos+1, -1, false
	return pause
}

// restoreCR turns the pending CR into data. If the CR is in this chunk it
// is already part of the text span; otherwise it was left out when the
// previous chunk was flushed and is appended here.
func (e *Engine) restoreCR(h Handler) {
	if !e.table.Info[e.state].InComment {
		e.startRecord(h)
	}
	if e.segEnd < 0 {
		e.partial.AppendByte('\r')
		e.segStart = e.pos
	}
	e.segEnd, e.pending = -1, false
}
