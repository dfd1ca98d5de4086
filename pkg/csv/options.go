package csv

import (
	"errors"
	"fmt"

	"github.com/shapestone/csvkit/internal/tokenizer"
)

// RowEnding selects the byte sequence that terminates a record.
type RowEnding = tokenizer.RowEnding

const (
	// RowEndingDetect uses the first CR, LF or CR LF found outside an
	// escaped value for the rest of the input.
	RowEndingDetect = tokenizer.RowEndingDetect
	RowEndingCR     = tokenizer.RowEndingCR
	RowEndingLF     = tokenizer.RowEndingLF
	RowEndingCRLF   = tokenizer.RowEndingCRLF
)

// Dialect describes the textual conventions of the input. All special
// characters are single ASCII bytes; a zero byte disables the role.
type Dialect struct {
	// Separator separates values within a record.
	// Default: ','
	Separator byte

	// EscapeStart opens an escaped value. 0 disables escaping.
	// Default: '"'
	EscapeStart byte

	// EscapeEnd closes an escaped value. 0 means EscapeStart.
	// Default: '"'
	EscapeEnd byte

	// EscapeChar makes the following EscapeEnd or EscapeChar literal inside
	// an escaped value. 0 means EscapeEnd, which gives the doubled quote
	// convention ("a""b").
	// Default: '"'
	EscapeChar byte

	// Comment, if not 0, starts a comment when it is the first byte of a
	// record. The comment runs to the end of the row.
	// Default: 0 (disabled)
	Comment byte

	// RowEnding selects the record terminator.
	// Default: RowEndingDetect
	RowEnding RowEnding
}

// DefaultDialect returns the comma separated, double-quoted dialect with
// row ending detection.
func DefaultDialect() Dialect {
	c := tokenizer.DefaultConfig()
	return Dialect{
		Separator:   c.Separator,
		EscapeStart: c.EscapeStart,
		EscapeEnd:   c.EscapeEnd,
		EscapeChar:  c.EscapeChar,
		Comment:     c.Comment,
		RowEnding:   c.RowEnding,
	}
}

// TSVDialect returns a tab separated dialect without escaping.
func TSVDialect() Dialect {
	return Dialect{Separator: '\t', RowEnding: RowEndingDetect}
}

func (d Dialect) config() tokenizer.Config {
	return tokenizer.Config{
		Separator:   d.Separator,
		EscapeStart: d.EscapeStart,
		EscapeEnd:   d.EscapeEnd,
		EscapeChar:  d.EscapeChar,
		Comment:     d.Comment,
		RowEnding:   d.RowEnding,
	}
}

// Validate checks that the special characters are ASCII, are not line
// breaks and are pairwise distinct. EscapeStart may equal EscapeEnd, and
// EscapeChar may equal EscapeEnd.
func (d Dialect) Validate() error {
	err := d.config().Validate()
	var ce *tokenizer.ConfigError
	if errors.As(err, &ce) {
		return &OptionsError{Field: ce.Field, Message: ce.Reason}
	}
	return err
}

// HeaderMode selects how the first record is treated.
type HeaderMode int

const (
	// HeaderNever treats every record as data.
	HeaderNever HeaderMode = iota
	// HeaderAlways treats the first record as the header.
	HeaderAlways
	// HeaderDetect asks ReaderOptions.HeaderDetector about the first record.
	HeaderDetect
)

func (m HeaderMode) String() string {
	switch m {
	case HeaderNever:
		return "never"
	case HeaderAlways:
		return "always"
	case HeaderDetect:
		return "detect"
	default:
		return fmt.Sprintf("HeaderMode(%d)", m)
	}
}

// DisposalMode selects how long rows stay usable.
type DisposalMode int

const (
	// DisposeWithReader invalidates every row when its reader is closed.
	DisposeWithReader DisposalMode = iota
	// DisposeExplicit keeps rows usable, even after the reader is closed,
	// until Row.Dispose is called.
	DisposeExplicit
)

func (m DisposalMode) String() string {
	switch m {
	case DisposeWithReader:
		return "with-reader"
	case DisposeExplicit:
		return "explicit"
	default:
		return fmt.Sprintf("DisposalMode(%d)", m)
	}
}

// HeaderDetector decides whether the first record of the input is a header.
// It must not retain fields.
type HeaderDetector func(fields []string) bool

// RowHook is called for every data row before it is returned. An error is
// fatal for the reader.
type RowHook func(row *Row) error

// DefaultChunkSize is the number of bytes pulled from an io.Reader at once.
const DefaultChunkSize = 64 * 1024

// ReaderOptions configures a Reader.
type ReaderOptions struct {
	// Dialect is the textual convention of the input.
	Dialect Dialect

	// Header selects how the first record is treated.
	// Default: HeaderNever
	Header HeaderMode

	// HeaderDetector decides HeaderDetect. nil means SniffHeader.
	HeaderDetector HeaderDetector

	// RequiredColumns names header columns that must be present. Every data
	// row must be long enough to hold them.
	RequiredColumns []string

	// Disposal selects the row lifetime.
	// Default: DisposeWithReader
	Disposal DisposalMode

	// RowHook, if not nil, sees every data row.
	RowHook RowHook

	// ChunkSize is the read size used for io.Reader input.
	// Default: DefaultChunkSize
	ChunkSize int
}

// DefaultReaderOptions returns the default reader configuration.
func DefaultReaderOptions() ReaderOptions {
	return ReaderOptions{
		Dialect:   DefaultDialect(),
		Header:    HeaderNever,
		Disposal:  DisposeWithReader,
		ChunkSize: DefaultChunkSize,
	}
}

// Validate checks if the options are valid.
func (o ReaderOptions) Validate() error {
	if err := o.Dialect.Validate(); err != nil {
		return err
	}
	switch o.Header {
	case HeaderNever, HeaderAlways, HeaderDetect:
	default:
		return &OptionsError{Field: "Header", Message: fmt.Sprintf("unknown header mode %d", o.Header)}
	}
	switch o.Disposal {
	case DisposeWithReader, DisposeExplicit:
	default:
		return &OptionsError{Field: "Disposal", Message: fmt.Sprintf("unknown disposal mode %d", o.Disposal)}
	}
	if o.Header == HeaderNever && len(o.RequiredColumns) > 0 {
		return &OptionsError{Field: "RequiredColumns", Message: "required columns need a header"}
	}
	for _, name := range o.RequiredColumns {
		if name == "" {
			return &OptionsError{Field: "RequiredColumns", Message: "empty column name"}
		}
	}
	if o.ChunkSize < 0 {
		return &OptionsError{Field: "ChunkSize", Message: "must not be negative"}
	}
	return nil
}

// OptionsError represents an invalid option configuration.
type OptionsError struct {
	Field   string
	Message string
}

func (e *OptionsError) Error() string {
	return "csv: invalid " + e.Field + ": " + e.Message
}
