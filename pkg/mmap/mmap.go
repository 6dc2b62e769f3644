// pkg/mmap/mmap.go

// Package mmap gives read-only access to the bytes of an input file.
package mmap

import (
	"errors"
	"fmt"
	"os"
)

// ErrTooLarge is returned for files above the configured size limit.
var ErrTooLarge = errors.New("file exceeds maximum size")

// File is the mapped content of a file. Data must not be used after Close.
type File struct {
	Data    []byte
	release func() error
}

// Open maps path read-only. maxSize <= 0 means no limit.
func Open(path string, maxSize int64) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	size := fi.Size()
	if maxSize > 0 && size > maxSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrTooLarge, path, size, maxSize)
	}
	if size == 0 {
		return &File{Data: []byte{}}, nil
	}
	return mapFile(f, size)
}

// Close releases the mapping.
func (m *File) Close() error {
	if m == nil || m.release == nil {
		return nil
	}
	release := m.release
	m.release = nil
	m.Data = nil
	return release()
}
