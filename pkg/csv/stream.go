package csv

import (
	"context"
	"io"
)

// Scanner provides a streaming interface for reading CSV records one at a time.
// It wraps a Reader and hides the TryRead protocol behind a bufio.Scanner
// style loop.
//
// Example usage:
//
//	file, _ := os.Open("data.csv")
//	defer file.Close()
//
//	scanner := csv.NewScanner(file).SetHasHeaders(true)
//	defer scanner.Close()
//	for scanner.Scan() {
//	    name, _ := scanner.Row().ByName("name")
//	    fmt.Println(name)
//	}
//	if err := scanner.Err(); err != nil {
//	    // handle error
//	}
type Scanner struct {
	src         ChunkSource
	opts        ReaderOptions
	reuseRecord bool
	ctx         context.Context

	reader *Reader
	row    *Row
	err    error
	done   bool
}

// NewScanner creates a new Scanner that reads CSV from the given io.Reader
// with the default dialect. By default, the scanner assumes no headers.
func NewScanner(reader io.Reader) *Scanner {
	opts := DefaultReaderOptions()
	return &Scanner{
		src:  NewReaderSource(reader, opts.ChunkSize),
		opts: opts,
		ctx:  context.Background(),
	}
}

// NewChunkScanner creates a Scanner over src with opts.
func NewChunkScanner(src ChunkSource, opts ReaderOptions) *Scanner {
	return &Scanner{src: src, opts: opts, ctx: context.Background()}
}

// SetHasHeaders sets whether the first row should be treated as headers.
// It has no effect once scanning started. Returns the Scanner for method
// chaining.
func (s *Scanner) SetHasHeaders(hasHeaders bool) *Scanner {
	if hasHeaders {
		s.opts.Header = HeaderAlways
	} else {
		s.opts.Header = HeaderNever
	}
	return s
}

// SetDialect sets the dialect. It has no effect once scanning started.
func (s *Scanner) SetDialect(d Dialect) *Scanner {
	s.opts.Dialect = d
	return s
}

// SetReuseRecord sets whether the scanner should reuse one Row. When true,
// the row returned by Row is only valid until the next call to Scan.
// Otherwise rows stay valid until the scanner is closed.
func (s *Scanner) SetReuseRecord(reuse bool) *Scanner {
	s.reuseRecord = reuse
	return s
}

// SetContext sets the context for reads. Cancellation ends the scan with
// ctx.Err().
func (s *Scanner) SetContext(ctx context.Context) *Scanner {
	s.ctx = ctx
	return s
}

// Scan advances the scanner to the next record.
// It returns false when there are no more records or an error occurs.
// After Scan returns false, the Err method will return any error that occurred.
func (s *Scanner) Scan() bool {
	if s.done {
		return false
	}
	if s.reader == nil {
		r, err := NewChunkReader(s.src, s.opts)
		if err != nil {
			return s.stop(err)
		}
		s.reader = r
	}
	if s.reuseRecord {
		if s.row == nil {
			s.row = &Row{}
		}
		ok, err := s.reader.TryReadIntoContext(s.ctx, s.row)
		if err != nil || !ok {
			return s.stop(err)
		}
		return true
	}
	row, ok, err := s.reader.TryReadContext(s.ctx)
	if err != nil || !ok {
		return s.stop(err)
	}
	s.row = row
	return true
}

func (s *Scanner) stop(err error) bool {
	s.err = err
	s.done = true
	return false
}

// Row returns the current row. It should only be called after Scan
// returned true.
func (s *Scanner) Row() *Row {
	return s.row
}

// Err returns the error, if any, that was encountered during scanning.
// It returns nil at the end of input.
func (s *Scanner) Err() error {
	return s.err
}

// Headers returns the column names, or nil if there is no header. It is
// available after the first call to Scan.
func (s *Scanner) Headers() []string {
	if s.reader == nil || s.reader.header == nil {
		return nil
	}
	return s.reader.header.Names()
}

// Close closes the underlying reader.
func (s *Scanner) Close() error {
	s.done = true
	if s.reader == nil {
		return nil
	}
	return s.reader.Close()
}
