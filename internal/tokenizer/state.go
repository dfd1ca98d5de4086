package tokenizer

import "fmt"

// Phase tells whether the engine is scanning the first record of the input
// (which may be a header) or any later record.
type Phase uint8

const (
	PhaseHeader Phase = iota
	PhaseRecord
	PhaseTerminal
)

func (p Phase) String() string {
	switch p {
	case PhaseHeader:
		return "Header"
	case PhaseRecord:
		return "Record"
	}
	return "Terminal"
}

// local enumerates the states that exist once per scanning phase.
type local uint8

const (
	lStart local = iota
	lStartCR
	lNoValue
	lNoValueCR
	lWithValue
	lWithValueCR
	lEscaped
	lPendingEscape
	lPendingEnd
	lExpectEndValueOrRecord
	lExpectEndRecord
	lComment
	lCommentCR

	numLocal = int(lCommentCR) + 1
)

var localNames = [numLocal]string{
	"Start",
	"StartCR",
	"UnescapedNoValue",
	"UnescapedNoValueCR",
	"UnescapedWithValue",
	"UnescapedWithValueCR",
	"InEscapedValue",
	"InEscapedValuePendingEscape",
	"EscapedValuePendingEnd",
	"ExpectingEndOfValueOrRecord",
	"ExpectingEndOfRecord",
	"Comment",
	"CommentCR",
}

// crOrigin maps a state waiting for the LF of a CR LF pair to the state it
// was in before the CR arrived.
var crOrigin = [numLocal]local{
	lStartCR:         lStart,
	lNoValueCR:       lNoValue,
	lWithValueCR:     lWithValue,
	lExpectEndRecord: lExpectEndValueOrRecord,
	lCommentCR:       lComment,
}

func init() {
	for l := lStart; l <= lCommentCR; l++ {
		switch l {
		case lStartCR, lNoValueCR, lWithValueCR, lExpectEndRecord, lCommentCR:
		default:
			crOrigin[l] = l
		}
	}
}

// State is the engine state. It indexes the rows of a Table.
type State uint8

// The phase-local states of the header phase occupy [0, numLocal), those of
// the record phase [numLocal, 2*numLocal). Invalid and DataEnded follow.
const (
	HeaderStart State = State(int(PhaseHeader)*numLocal) + State(lStart)
	RecordStart State = State(int(PhaseRecord)*numLocal) + State(lStart)
	Invalid     State = State(2 * numLocal)
	DataEnded   State = Invalid + 1

	MaxState = DataEnded
)

const numStates = int(MaxState) + 1

func stateOf(p Phase, l local) State {
	return State(int(p)*numLocal + int(l))
}

// split returns phase and local part of a phase-local state.
func (s State) split() (Phase, local) {
	if s >= Invalid {
		return PhaseTerminal, 0
	}
	return Phase(int(s) / numLocal), local(int(s) % numLocal)
}

func (s State) String() string {
	switch s {
	case Invalid:
		return "Invalid"
	case DataEnded:
		return "DataEnded"
	}
	if int(s) >= numStates {
		return fmt.Sprintf("State(%d)", s)
	}
	p, l := s.split()
	return p.String() + localNames[l]
}

// StateInfo describes a state. It is computed once per table so the engine
// never branches on the state value itself.
type StateInfo struct {
	Phase Phase
	// InComment is set while comment text is being collected.
	InComment bool
	// InEscapedValue selects the inside classifier.
	InEscapedValue bool
	// PendingEscape is set after an escape or escape-end byte whose meaning
	// depends on the next byte.
	PendingEscape bool
	// CanEndRecord is set where a row ending or end of input completes a
	// record without error.
	CanEndRecord bool
	// Accumulating is set where a value or comment is in progress, so text
	// must be carried over when a chunk ends.
	Accumulating bool
}

func infoFor(s State) StateInfo {
	p, l := s.split()
	info := StateInfo{Phase: p}
	if p == PhaseTerminal {
		return info
	}
	switch l {
	case lComment, lCommentCR:
		info.InComment = true
	case lEscaped, lPendingEscape, lPendingEnd:
		info.InEscapedValue = true
	}
	switch l {
	case lPendingEscape, lPendingEnd:
		info.PendingEscape = true
	}
	switch l {
	case lStartCR, lNoValue, lNoValueCR, lWithValue, lWithValueCR,
		lPendingEnd, lExpectEndValueOrRecord, lExpectEndRecord:
		info.CanEndRecord = true
	}
	switch l {
	case lStart, lNoValue:
	default:
		info.Accumulating = true
	}
	return info
}
