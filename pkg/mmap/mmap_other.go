//go:build !unix

package mmap

import (
	"io"
	"os"
)

// mapFile reads the whole file where memory mapping is not wired up.
func mapFile(f *os.File, size int64) (*File, error) {
	data := make([]byte, size)
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, err
	}
	return &File{Data: data}, nil
}
