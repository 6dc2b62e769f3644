// pkg/inno/compression.go

package inno

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/windowsadmins/setupinfo/pkg/rawlzma"
)

// Compression describes how a block is stored. Its concrete type is one of
// Stored, Zlib or LZMA1; Size is the declared size of the encoded payload.
type Compression interface {
	DeclaredSize() uint32
	isCompression()
}

type Stored struct{ Size uint32 }
type Zlib struct{ Size uint32 }
type LZMA1 struct{ Size uint32 }

func (c Stored) DeclaredSize() uint32 { return c.Size }
func (c Zlib) DeclaredSize() uint32   { return c.Size }
func (c LZMA1) DeclaredSize() uint32  { return c.Size }

func (Stored) isCompression() {}
func (Zlib) isCompression()   {}
func (LZMA1) isCompression()  {}

const storedSentinel = ^uint32(0)

// resolveCompression reads the block size and compression fields that
// follow the block checksum.
func resolveCompression(r io.Reader, v Version) (Compression, error) {
	if v.AtLeast(4, 0, 9) {
		var head struct {
			Size       uint32
			Compressed uint8
		}
		if err := binary.Read(r, binary.LittleEndian, &head); err != nil {
			return nil, ErrTruncated
		}
		switch {
		case head.Compressed == 0:
			return Stored{Size: head.Size}, nil
		case v.AtLeast(4, 1, 6):
			return LZMA1{Size: head.Size}, nil
		default:
			return Zlib{Size: head.Size}, nil
		}
	}

	var head struct {
		CompressedSize   uint32
		UncompressedSize uint32
	}
	if err := binary.Read(r, binary.LittleEndian, &head); err != nil {
		return nil, ErrTruncated
	}
	if head.CompressedSize == storedSentinel {
		return Stored{Size: head.UncompressedSize}, nil
	}
	return Zlib{Size: head.CompressedSize}, nil
}

// physicalSize is the number of bytes the block occupies on disk. Older
// layouts do not count the chunk checksums in the declared size.
func physicalSize(c Compression, v Version) uint64 {
	size := uint64(c.DeclaredSize())
	if v.Before(4, 0, 9) {
		size += (size + chunkSize - 1) / chunkSize * 4
	}
	return size
}

// openBlock validates the block header at the start of data and returns a
// reader over the decoded block contents and the number of bytes the block
// occupies in data.
func openBlock(data []byte, v Version) (io.Reader, Compression, int, error) {
	src := bytes.NewReader(data)

	var expected uint32
	if err := binary.Read(src, binary.LittleEndian, &expected); err != nil {
		return nil, nil, 0, ErrTruncated
	}

	crc := newCRCReader(src)
	comp, err := resolveCompression(crc, v)
	if err != nil {
		return nil, nil, 0, err
	}
	if err := crc.verify("block header", expected); err != nil {
		return nil, nil, 0, err
	}

	start := len(data) - src.Len()
	size := physicalSize(comp, v)
	if uint64(start)+size > uint64(len(data)) {
		return nil, nil, 0, fmt.Errorf("%w: block of %d bytes exceeds file", ErrMalformedHeader, size)
	}
	end := start + int(size)

	chunks := newChunkReader(bytes.NewReader(data[start:end]))
	r, err := decompress(chunks, comp)
	if err != nil {
		return nil, nil, 0, err
	}
	return r, comp, end, nil
}

func decompress(r io.Reader, comp Compression) (io.Reader, error) {
	switch c := comp.(type) {
	case Stored:
		return r, nil
	case Zlib:
		zr, err := zlib.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("%w: zlib: %v", ErrDecode, err)
		}
		return zr, nil
	case LZMA1:
		lr, err := rawlzma.NewReader(r)
		if errors.Is(err, rawlzma.ErrTruncated) {
			return nil, ErrTruncated
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		return lr, nil
	default:
		return nil, fmt.Errorf("%w: unknown compression %T", ErrDecode, c)
	}
}
