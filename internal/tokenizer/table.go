package tokenizer

import (
	"fmt"
	"sync"
)

// Action is the work the engine performs on a transition.
type Action uint8

const (
	ActNone Action = iota
	// ActSkipLine drops a blank line.
	ActSkipLine
	ActBeginValue
	ActBeginEscaped
	// ActEmptyValue emits an empty value without looking at the input.
	ActEmptyValue
	ActEmptyValueAndRecord
	ActEndValue
	ActEndValueAndRecord
	// ActMarkPending remembers the current byte as the possible end of the
	// value: a CR that may start CR LF, or a closing escape byte.
	ActMarkPending
	// ActMarkPendingEmpty is ActMarkPending at a position where no value
	// text has been seen yet.
	ActMarkPendingEmpty
	// ActLiteralPending turns a doubled escape-end byte into one literal.
	ActLiteralPending
	// ActEscapeLiteral keeps the byte following the escape character.
	ActEscapeLiteral
	// ActRestoreCR turns a pending CR back into data.
	ActRestoreCR
	ActRestoreCRAndEndValue
	ActRestoreCRAndMarkPending
	ActRestoreCRAndEndValueAndRecord
	ActRestoreCRAndEndComment
	ActBeginComment
	ActEndComment
	// ActResolveCR, ActResolveLF and ActResolveCRLF fix the row ending in
	// detect mode. The current byte is processed again under the new table.
	ActResolveCR
	ActResolveLF
	ActResolveCRLF
	ActInvalid
)

// Rule is one cell of a transition table.
type Rule struct {
	Next   State
	Action Action
	Fault  Fault
}

// TableKey selects one of the compiled tables.
type TableKey struct {
	RowEnding    RowEnding
	Comments     bool
	CustomEscape bool
}

// NumTables is the number of distinct transition tables.
const NumTables = numRowEndings * 4

func (k TableKey) index() int {
	i := int(k.RowEnding) * 4
	if k.Comments {
		i += 2
	}
	if k.CustomEscape {
		i++
	}
	return i
}

func (k TableKey) String() string {
	return fmt.Sprintf("%s/comments=%t/custom-escape=%t", k.RowEnding, k.Comments, k.CustomEscape)
}

// Table is a dense transition table. Tables are immutable once built and
// shared by all engines.
type Table struct {
	Key   TableKey
	Rules [numStates][numClasses]Rule
	// EOF holds the rule applied at end of input.
	EOF [numStates]Rule
	// CROrigin maps a state that waits for the LF of CR LF to the state the
	// CR was read in. Detect mode uses it to replay a CR that turned out to
	// be a row ending on its own.
	CROrigin [numStates]State
	Info     [numStates]StateInfo
}

var (
	tablesOnce sync.Once
	tables     [NumTables]*Table
)

func buildTables() {
	for re := 0; re < numRowEndings; re++ {
		for _, comments := range []bool{false, true} {
			for _, custom := range []bool{false, true} {
				k := TableKey{RowEnding: RowEnding(re), Comments: comments, CustomEscape: custom}
				tables[k.index()] = compile(k)
			}
		}
	}
	tracer().Debugf("compiled %d transition tables of %dx%d rules", NumTables, numStates, numClasses)
}

// Tables returns every compiled table, in key order.
func Tables() []*Table {
	tablesOnce.Do(buildTables)
	out := make([]*Table, NumTables)
	copy(out, tables[:])
	return out
}

// TableFor returns the shared table for k.
func TableFor(k TableKey) *Table {
	tablesOnce.Do(buildTables)
	return tables[k.index()]
}

// Program is a compiled dialect: its byte classifiers and table key.
type Program struct {
	config  Config
	key     TableKey
	outside classMap
	inside  classMap
}

// Config returns the normalized dialect the program was compiled from.
func (p *Program) Config() Config { return p.config }

// Key returns the key of the program's initial table.
func (p *Program) Key() TableKey { return p.key }

// Table returns the program's initial table.
func (p *Program) Table() *Table { return TableFor(p.key) }

// Classify returns the class of b outside (escaped false) or inside an
// escaped value.
func (p *Program) Classify(b byte, escaped bool) Class {
	if escaped {
		return p.inside[b]
	}
	return p.outside[b]
}

// programs caches compiled dialects, keyed by normalized Config.
var programs sync.Map

// Compile validates c and returns its program. Programs are cached, so
// equal dialects share one Program.
func Compile(c Config) (*Program, error) {
	c = c.Normalize()
	if p, ok := programs.Load(c); ok {
		return p.(*Program), nil
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	p := &Program{config: c, key: c.key()}
	p.outside, p.inside = classify(c)
	actual, loaded := programs.LoadOrStore(c, p)
	if !loaded {
		tracer().Debugf("compiled dialect %+v using table %s", c, p.key)
	}
	return actual.(*Program), nil
}

// --- Table construction ------------------------------------------------------

// compile builds the table for k. It is deterministic: equal keys give
// value-equal tables.
func compile(k TableKey) *Table {
	t := &Table{Key: k}
	unreachable := Rule{Next: Invalid, Action: ActInvalid, Fault: FaultUnreachable}
	for s := 0; s < numStates; s++ {
		for c := 0; c < numClasses; c++ {
			t.Rules[s][c] = unreachable
		}
		t.EOF[s] = unreachable
		t.CROrigin[s] = State(s)
		t.Info[s] = infoFor(State(s))
	}
	for c := 0; c < numClasses; c++ {
		t.Rules[DataEnded][c] = Rule{Next: DataEnded, Action: ActInvalid, Fault: FaultDataAfterEnd}
	}
	t.EOF[DataEnded] = Rule{Next: DataEnded, Action: ActNone}

	for _, p := range []Phase{PhaseHeader, PhaseRecord} {
		b := builder{t: t, k: k, p: p}
		b.build()
		for l := lStart; l <= lCommentCR; l++ {
			t.CROrigin[stateOf(p, l)] = stateOf(p, crOrigin[l])
		}
	}
	return t
}

type builder struct {
	t *Table
	k TableKey
	p Phase
}

func (b *builder) to(l local, a Action) Rule {
	return Rule{Next: stateOf(b.p, l), Action: a}
}

// toRecord leaves the phase: every completed record continues in the record
// phase.
func (b *builder) toRecord(a Action) Rule {
	return Rule{Next: RecordStart, Action: a}
}

func fault(f Fault) Rule {
	return Rule{Next: Invalid, Action: ActInvalid, Fault: f}
}

func (b *builder) row(l local) *[numClasses]Rule {
	return &b.t.Rules[stateOf(b.p, l)]
}

func (b *builder) fill(l local, r Rule) {
	row := b.row(l)
	for c := range row {
		row[c] = r
	}
}

func (b *builder) set(l local, c Class, r Rule) {
	b.row(l)[c] = r
}

func (b *builder) eof(l local, r Rule) {
	b.t.EOF[stateOf(b.p, l)] = r
}

// terminator wires the row ending columns of state l. end completes the
// record (or comment) at once; pend enters the state that waits for the LF
// of CR LF.
func (b *builder) terminator(l local, end, pend Rule) {
	switch b.k.RowEnding {
	case RowEndingCR:
		b.set(l, ClassCarriageReturn, end)
	case RowEndingLF:
		b.set(l, ClassLineFeed, end)
	case RowEndingCRLF:
		b.set(l, ClassCarriageReturn, pend)
	case RowEndingDetect:
		b.set(l, ClassCarriageReturn, pend)
		b.set(l, ClassLineFeed, b.to(l, ActResolveLF))
	}
}

// pendingCR wires a state entered on a CR in CR LF or detect mode. complete
// is the rule for the LF that finishes the pair; data gives the rule for
// every other class, used when the CR turns out to be data (CR LF mode);
// atEOF is the matching end of input rule.
func (b *builder) pendingCR(l local, complete Rule, data func(Class) Rule, atEOF Rule) {
	switch b.k.RowEnding {
	case RowEndingCRLF:
		for c := Class(0); c <= MaxClass; c++ {
			b.set(l, c, data(c))
		}
		b.set(l, ClassLineFeed, complete)
		b.eof(l, atEOF)
	case RowEndingDetect:
		b.fill(l, b.to(l, ActResolveCR))
		b.set(l, ClassLineFeed, b.to(l, ActResolveCRLF))
		b.eof(l, b.to(l, ActResolveCR))
	}
}

// restoredData is the data rule set of a pending CR in an unescaped value:
// the CR becomes the first (or next) byte of the value.
func (b *builder) restoredData(c Class) Rule {
	switch c {
	case ClassValueSeparator:
		return b.to(lNoValue, ActRestoreCRAndEndValue)
	case ClassCarriageReturn:
		return b.to(lWithValueCR, ActRestoreCRAndMarkPending)
	case ClassEscapeStart:
		return fault(FaultBareEscape)
	}
	return b.to(lWithValue, ActRestoreCR)
}

func (b *builder) build() {
	custom := b.k.CustomEscape

	// Start of a record
	b.fill(lStart, b.to(lWithValue, ActBeginValue))
	b.set(lStart, ClassValueSeparator, b.to(lNoValue, ActEmptyValue))
	b.set(lStart, ClassEscapeStart, b.to(lEscaped, ActBeginEscaped))
	if b.k.Comments {
		b.set(lStart, ClassCommentStart, b.to(lComment, ActBeginComment))
	}
	b.terminator(lStart, b.to(lStart, ActSkipLine), b.to(lStartCR, ActMarkPendingEmpty))
	b.eof(lStart, Rule{Next: DataEnded, Action: ActNone})

	b.pendingCR(lStartCR, b.to(lStart, ActSkipLine), b.restoredData,
		b.toRecord(ActRestoreCRAndEndValueAndRecord))

	// Start of a value after a separator
	b.fill(lNoValue, b.to(lWithValue, ActBeginValue))
	b.set(lNoValue, ClassValueSeparator, b.to(lNoValue, ActEmptyValue))
	b.set(lNoValue, ClassEscapeStart, b.to(lEscaped, ActBeginEscaped))
	b.terminator(lNoValue, b.toRecord(ActEmptyValueAndRecord), b.to(lNoValueCR, ActMarkPendingEmpty))
	b.eof(lNoValue, b.toRecord(ActEmptyValueAndRecord))

	b.pendingCR(lNoValueCR, b.toRecord(ActEmptyValueAndRecord), b.restoredData,
		b.toRecord(ActRestoreCRAndEndValueAndRecord))

	// Unescaped value
	b.fill(lWithValue, b.to(lWithValue, ActNone))
	b.set(lWithValue, ClassValueSeparator, b.to(lNoValue, ActEndValue))
	b.set(lWithValue, ClassEscapeStart, fault(FaultBareEscape))
	b.terminator(lWithValue, b.toRecord(ActEndValueAndRecord), b.to(lWithValueCR, ActMarkPending))
	b.eof(lWithValue, b.toRecord(ActEndValueAndRecord))

	b.pendingCR(lWithValueCR, b.toRecord(ActEndValueAndRecord), b.restoredData,
		b.toRecord(ActRestoreCRAndEndValueAndRecord))

	// Escaped value; every byte but the escape bytes is data
	b.fill(lEscaped, b.to(lEscaped, ActNone))
	if custom {
		b.set(lEscaped, ClassEscapeEnd, b.to(lExpectEndValueOrRecord, ActMarkPending))
		b.set(lEscaped, ClassEscapeChar, b.to(lPendingEscape, ActMarkPending))
	} else {
		b.set(lEscaped, ClassEscapeEnd, b.to(lPendingEnd, ActMarkPending))
	}
	b.eof(lEscaped, fault(FaultUnterminatedEscape))

	// After the escape character
	b.fill(lPendingEscape, fault(FaultInvalidEscape))
	b.set(lPendingEscape, ClassEscapeEnd, b.to(lEscaped, ActEscapeLiteral))
	b.set(lPendingEscape, ClassEscapeChar, b.to(lEscaped, ActEscapeLiteral))
	b.eof(lPendingEscape, fault(FaultUnterminatedEscape))

	// After an escape end that doubles as escape character
	b.fill(lPendingEnd, fault(FaultExpectedEndOfValue))
	if !custom {
		b.set(lPendingEnd, ClassEscapeEnd, b.to(lEscaped, ActLiteralPending))
	}
	b.set(lPendingEnd, ClassValueSeparator, b.to(lNoValue, ActEndValue))
	b.terminator(lPendingEnd, b.toRecord(ActEndValueAndRecord), b.to(lExpectEndRecord, ActNone))
	b.eof(lPendingEnd, b.toRecord(ActEndValueAndRecord))

	// After a closed escaped value
	b.fill(lExpectEndValueOrRecord, fault(FaultExpectedEndOfValue))
	b.set(lExpectEndValueOrRecord, ClassValueSeparator, b.to(lNoValue, ActEndValue))
	b.terminator(lExpectEndValueOrRecord, b.toRecord(ActEndValueAndRecord), b.to(lExpectEndRecord, ActNone))
	b.eof(lExpectEndValueOrRecord, b.toRecord(ActEndValueAndRecord))

	b.pendingCR(lExpectEndRecord, b.toRecord(ActEndValueAndRecord),
		func(Class) Rule { return fault(FaultExpectedEndOfValue) },
		b.toRecord(ActEndValueAndRecord))

	// Comment text runs to the row ending of the active convention
	b.fill(lComment, b.to(lComment, ActNone))
	b.terminator(lComment, b.to(lStart, ActEndComment), b.to(lCommentCR, ActMarkPending))
	b.eof(lComment, b.to(lStart, ActEndComment))

	b.pendingCR(lCommentCR, b.to(lStart, ActEndComment),
		func(c Class) Rule {
			if c == ClassCarriageReturn {
				return b.to(lCommentCR, ActRestoreCRAndMarkPending)
			}
			return b.to(lComment, ActRestoreCR)
		},
		b.to(lStart, ActRestoreCRAndEndComment))
}
