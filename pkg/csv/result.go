package csv

// ResultKind discriminates a ReadResult.
type ResultKind uint8

const (
	// NoValue means the input is exhausted.
	NoValue ResultKind = iota
	// HasValue means the result holds a data row.
	HasValue
	// HasComment means the result holds the text of a comment.
	HasComment
)

func (k ResultKind) String() string {
	switch k {
	case NoValue:
		return "NoValue"
	case HasValue:
		return "HasValue"
	case HasComment:
		return "HasComment"
	}
	return "ResultKind(?)"
}

// ReadResult is the outcome of Reader.TryReadWithComment.
type ReadResult struct {
	kind    ResultKind
	row     *Row
	comment string
}

// Kind returns the discriminant.
func (r ReadResult) Kind() ResultKind {
	return r.kind
}

// Row returns the data row. It fails with ErrWrongResultKind unless Kind is
// HasValue.
func (r ReadResult) Row() (*Row, error) {
	if r.kind != HasValue {
		return nil, ErrWrongResultKind
	}
	return r.row, nil
}

// Comment returns the comment text without its comment character and row
// ending. It fails with ErrWrongResultKind unless Kind is HasComment.
func (r ReadResult) Comment() (string, error) {
	if r.kind != HasComment {
		return "", ErrWrongResultKind
	}
	return r.comment, nil
}
