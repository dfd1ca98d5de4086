package tokenizer

import (
	"errors"
	"fmt"
)

// ErrInvalidSequence is matched by every tokenizing failure.
var ErrInvalidSequence = errors.New("invalid character sequence")

// Detail errors. A *ParseError wraps exactly one of them.
var (
	ErrBareEscape         = errors.New("escape start inside an unescaped value")
	ErrInvalidEscape      = errors.New("escape character not followed by escape end or escape character")
	ErrExpectedEndOfValue = errors.New("expected separator or end of record after escaped value")
	ErrUnterminatedEscape = errors.New("end of input inside an escaped value")
	ErrDataAfterEnd       = errors.New("data fed after end of input")
	ErrUnreachable        = errors.New("unreachable tokenizer state")
)

// Fault is the failure attached to a rule whose action is ActInvalid.
type Fault uint8

const (
	FaultNone Fault = iota
	FaultBareEscape
	FaultInvalidEscape
	FaultExpectedEndOfValue
	FaultUnterminatedEscape
	FaultDataAfterEnd
	FaultUnreachable
)

var faultErrors = [...]error{
	FaultNone:               nil,
	FaultBareEscape:         ErrBareEscape,
	FaultInvalidEscape:      ErrInvalidEscape,
	FaultExpectedEndOfValue: ErrExpectedEndOfValue,
	FaultUnterminatedEscape: ErrUnterminatedEscape,
	FaultDataAfterEnd:       ErrDataAfterEnd,
	FaultUnreachable:        ErrUnreachable,
}

// Err returns the detail error of a fault.
func (f Fault) Err() error {
	if int(f) < len(faultErrors) {
		return faultErrors[f]
	}
	return ErrUnreachable
}

// ParseError is a tokenizing failure with the position of the offending byte.
type ParseError struct {
	Record int   // 1-based record number
	Line   int   // 1-based line number
	Column int   // 1-based byte column
	Offset int64 // byte offset from the start of input
	Err    error // detail error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error on record %d, line %d, column %d: %v", e.Record, e.Line, e.Column, e.Err)
}

// Unwrap makes both the detail error and ErrInvalidSequence visible to
// errors.Is.
func (e *ParseError) Unwrap() []error {
	return []error{e.Err, ErrInvalidSequence}
}
