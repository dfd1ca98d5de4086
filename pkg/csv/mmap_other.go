//go:build !unix

package csv

import (
	"fmt"
	"os"
)

// FileSource is a ChunkSource over the contents of a file.
type FileSource struct {
	ChunkSource
}

// OpenFile reads the file at path into memory and returns a source handing
// it out in chunks of size bytes. Platforms without mmap read the whole file.
func OpenFile(path string, size int) (*FileSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return &FileSource{ChunkSource: NewBytesSource(data, size)}, nil
}

// Close is a no-op kept for parity with the mmap version.
func (s *FileSource) Close() error {
	return nil
}
