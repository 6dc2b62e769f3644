// pkg/inno/checksum.go

package inno

import (
	"hash"
	"hash/crc32"
	"io"
)

// crcReader passes bytes through from its source while accumulating a CRC32
// over everything read.
type crcReader struct {
	r io.Reader
	h hash.Hash32
}

func newCRCReader(r io.Reader) *crcReader {
	return &crcReader{r: r, h: crc32.NewIEEE()}
}

func (c *crcReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.h.Write(p[:n])
	return n, err
}

// Sum32 is the checksum of the bytes read so far.
func (c *crcReader) Sum32() uint32 { return c.h.Sum32() }

// verify compares the accumulated checksum with the expected value.
func (c *crcReader) verify(region string, expected uint32) error {
	if actual := c.Sum32(); actual != expected {
		return &ChecksumError{Region: region, Expected: expected, Actual: actual}
	}
	return nil
}
