//go:build unix

package csv

import (
	"fmt"
	"os"
	"syscall"
)

// FileSource is a ChunkSource over a memory-mapped file.
// Close unmaps the file; rows read from it stay valid.
type FileSource struct {
	ChunkSource
	close func() error
}

// OpenFile maps the file at path into memory and returns a source handing it
// out in chunks of size bytes. The caller must Close the source.
func OpenFile(path string, size int) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	n := stat.Size()
	if n == 0 {
		return &FileSource{ChunkSource: NewBytesSource(nil, size), close: f.Close}, nil
	}

	data, err := syscall.Mmap(int(f.Fd()), 0, int(n), syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to mmap file: %w", err)
	}

	closer := func() error {
		err := syscall.Munmap(data)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		return err
	}
	return &FileSource{ChunkSource: NewBytesSource(data, size), close: closer}, nil
}

// Close releases the mapping. It is safe to call more than once.
func (s *FileSource) Close() error {
	if s.close == nil {
		return nil
	}
	err := s.close()
	s.close = nil
	return err
}
