package csv

import (
	"context"
	"io"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ChunkSource produces the input of a Reader as a sequence of byte chunks.
//
// Next returns the next chunk. The chunk only needs to stay valid until the
// following call to Next; the reader copies whatever it keeps. At the end of
// input Next returns io.EOF, possibly together with a final chunk. Next
// should return ctx.Err() promptly once ctx is done.
type ChunkSource interface {
	Next(ctx context.Context) ([]byte, error)
}

// NewReaderSource returns a source that reads r in chunks of size bytes.
// A size <= 0 means DefaultChunkSize.
func NewReaderSource(r io.Reader, size int) ChunkSource {
	if size <= 0 {
		size = DefaultChunkSize
	}
	return &readerSource{r: r, buf: make([]byte, size)}
}

type readerSource struct {
	r   io.Reader
	buf []byte
}

func (s *readerSource) Next(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n, err := s.r.Read(s.buf)
	return s.buf[:n], err
}

// NewBytesSource returns a source over data that hands out chunks of at most
// size bytes. A size <= 0 hands out data in one chunk. data is not copied.
func NewBytesSource(data []byte, size int) ChunkSource {
	if size <= 0 {
		size = len(data)
	}
	return &bytesSource{data: data, size: size}
}

type bytesSource struct {
	data []byte
	size int
}

func (s *bytesSource) Next(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(s.data) <= s.size {
		chunk := s.data
		s.data = nil
		return chunk, io.EOF
	}
	chunk := s.data[:s.size:s.size]
	s.data = s.data[s.size:]
	return chunk, nil
}

// NewDecodingSource returns a source that converts r from enc to UTF-8.
// A leading byte order mark selects UTF-8 or UTF-16 regardless of enc and
// is removed. A nil enc means UTF-8.
func NewDecodingSource(r io.Reader, enc encoding.Encoding, size int) ChunkSource {
	if enc == nil {
		enc = unicode.UTF8
	}
	t := unicode.BOMOverride(enc.NewDecoder())
	return NewReaderSource(transform.NewReader(r, t), size)
}

// LookupEncoding returns the encoding registered under name in the WHATWG
// encoding index, for example "utf-8", "windows-1252" or "latin1".
func LookupEncoding(name string) (encoding.Encoding, error) {
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, &OptionsError{Field: "Encoding", Message: err.Error()}
	}
	return enc, nil
}
