// Package csv reads delimiter separated text under a configurable dialect.
//
// A Dialect names the separator, the escape (quote) characters, an optional
// comment character and the row ending. Each distinct dialect compiles once
// into a dense transition table that the reader drives byte by byte, so
// custom quoting, comments before the header and row ending detection cost
// nothing extra in the inner loop.
//
// # Reading
//
// A Reader pulls chunks from a ChunkSource and hands out one Row per data
// record:
//
//	r, err := csv.NewReader(file, csv.DefaultReaderOptions())
//	if err != nil {
//	    // handle error
//	}
//	defer r.Close()
//	for {
//	    row, ok, err := r.TryRead()
//	    if err != nil {
//	        // handle error
//	    }
//	    if !ok {
//	        break
//	    }
//	    name, _ := row.Field(0)
//	    fmt.Println(name)
//	}
//
// TryReadWithComment also reports comments, and TryReadInto reuses a
// caller-owned Row. Every read has a Context variant; cancellation leaves
// the reader usable.
//
// # Row lifetime
//
// Rows own their storage. By default (DisposeWithReader) all rows become
// unusable when their reader is closed. With DisposeExplicit a row stays
// valid until Row.Dispose, even after Close. Row.Range and Row.Slice return
// views with a lifetime of their own.
//
// # Errors
//
// Malformed input yields a *ParseError that matches ErrInvalidSequence.
// A reader that failed is unusable from then on: every call returns an
// *UnusableError carrying the first failure.
//
// # Thread Safety
//
// A Reader, a Row and a Scanner must not be used by more than one goroutine
// at a time. Separate readers share nothing mutable, so any number of them
// may run concurrently or be interleaved on one goroutine.
package csv

import (
	"context"
	"io"
	"strings"
)

// ReadAll reads every data row of r with opts.
func ReadAll(r io.Reader, opts ReaderOptions) ([][]string, error) {
	rd, err := NewReader(r, opts)
	if err != nil {
		return nil, err
	}
	defer rd.Close()
	return rd.ReadAll()
}

// ReadString reads every data row of s with the default options.
//
// Example:
//
//	rows, err := csv.ReadString("name,age\nAlice,30\nBob,25")
//	// rows[0] is []string{"name", "age"}
func ReadString(s string) ([][]string, error) {
	return ReadAll(strings.NewReader(s), DefaultReaderOptions())
}

// ReadFile reads every data row of the file at path with opts. The file is
// memory mapped where the platform allows it.
func ReadFile(path string, opts ReaderOptions) ([][]string, error) {
	src, err := OpenFile(path, opts.ChunkSize)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	rd, err := NewChunkReader(src, opts)
	if err != nil {
		return nil, err
	}
	defer rd.Close()
	return rd.ReadAll()
}

// Validate checks if input is well formed under the default dialect.
//
//	if err := csv.Validate(input); err != nil {
//	    fmt.Println("Invalid CSV:", err)
//	}
func Validate(input string) error {
	return ValidateReader(context.Background(), strings.NewReader(input), DefaultReaderOptions())
}

// ValidateReader checks if the input from reader is well formed under opts.
// Rows are read into a single reused Row, so memory use does not grow with
// the input.
func ValidateReader(ctx context.Context, reader io.Reader, opts ReaderOptions) error {
	rd, err := NewReader(reader, opts)
	if err != nil {
		return err
	}
	defer rd.Close()
	var row Row
	defer row.Dispose()
	for {
		ok, err := rd.TryReadIntoContext(ctx, &row)
		if err != nil || !ok {
			return err
		}
	}
}
