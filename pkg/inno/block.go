// pkg/inno/block.go

package inno

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
	"io"
)

// chunkSize is the payload size of one CRC guarded chunk inside a block.
const chunkSize = 4096

// chunkReader strips the CRC32 that precedes every 4 KiB chunk of a
// compressed block and verifies it before releasing the chunk's bytes.
type chunkReader struct {
	r      io.Reader
	buf    [chunkSize]byte
	pos    int
	end    int
	failed error
}

func newChunkReader(r io.Reader) *chunkReader {
	return &chunkReader{r: r}
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if c.failed != nil {
		return 0, c.failed
	}
	if c.pos == c.end {
		if err := c.next(); err != nil {
			c.failed = err
			return 0, err
		}
	}
	n := copy(p, c.buf[c.pos:c.end])
	c.pos += n
	return n, nil
}

func (c *chunkReader) next() error {
	var head [4]byte
	if _, err := io.ReadFull(c.r, head[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		return ErrTruncated
	}
	expected := binary.LittleEndian.Uint32(head[:])

	n, err := io.ReadFull(c.r, c.buf[:])
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		// a checksum with no payload after it
		return ErrTruncated
	}
	if actual := crc32.ChecksumIEEE(c.buf[:n]); actual != expected {
		return &ChecksumError{Region: "block chunk", Expected: expected, Actual: actual}
	}
	c.pos, c.end = 0, n
	return nil
}
