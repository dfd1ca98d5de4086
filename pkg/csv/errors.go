package csv

import (
	"errors"
	"fmt"

	"github.com/shapestone/csvkit/internal/poison"
	"github.com/shapestone/csvkit/internal/tokenizer"
)

// ParseError is a malformed character sequence together with its position.
// errors.Is(err, ErrInvalidSequence) holds for every ParseError, as does
// errors.Is with its detail error (ErrBareEscape and friends).
type ParseError = tokenizer.ParseError

// Tokenizing errors
var (
	ErrInvalidSequence    = tokenizer.ErrInvalidSequence
	ErrBareEscape         = tokenizer.ErrBareEscape
	ErrInvalidEscape      = tokenizer.ErrInvalidEscape
	ErrExpectedEndOfValue = tokenizer.ErrExpectedEndOfValue
	ErrUnterminatedEscape = tokenizer.ErrUnterminatedEscape
)

// UnusableError is returned by every call on a reader that failed before.
// Its Cause is the original failure.
type UnusableError = poison.UnusableError

// ErrUnusable matches every UnusableError.
var ErrUnusable = poison.ErrUnusable

// Usage errors
var (
	// ErrDisposed is returned by every accessor of a disposed row view.
	ErrDisposed = errors.New("csv: row has been disposed")

	// ErrReaderClosed is returned by calls on a closed reader.
	ErrReaderClosed = errors.New("csv: reader is closed")

	// ErrWrongResultKind is returned by ReadResult accessors that do not
	// match the result kind.
	ErrWrongResultKind = errors.New("csv: result does not hold the requested kind")

	// ErrIndexOutOfRange is returned for a cell index outside the view.
	ErrIndexOutOfRange = errors.New("csv: index out of range")

	// ErrUnknownColumn is returned for a column name not in the header.
	ErrUnknownColumn = errors.New("csv: unknown column")
)

// MissingColumnError reports a required column that is absent. Row is 0
// when the header lacks the column, else the data row that is too short.
type MissingColumnError struct {
	Column string
	Row    int64
}

func (e *MissingColumnError) Error() string {
	if e.Row == 0 {
		return fmt.Sprintf("csv: required column %q missing from header", e.Column)
	}
	return fmt.Sprintf("csv: required column %q missing from row %d", e.Column, e.Row)
}

// RowError wraps a failure reported by a RowHook.
type RowError struct {
	Row int64
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("csv: row %d: %v", e.Row, e.Err)
}

// Unwrap returns the underlying error.
func (e *RowError) Unwrap() error {
	return e.Err
}
