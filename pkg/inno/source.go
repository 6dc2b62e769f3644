// pkg/inno/source.go

package inno

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// maxStringLen bounds a single length prefixed string. Setup headers are
// small; anything larger means the stream is out of step.
const maxStringLen = 64 << 20

// source reads little-endian primitives from a decoded block stream.
type source struct {
	r   io.Reader
	buf [8]byte
}

func newSource(r io.Reader) *source {
	return &source{r: r}
}

func (s *source) full(p []byte) error {
	if _, err := io.ReadFull(s.r, p); err != nil {
		var ce *ChecksumError
		if errors.As(err, &ce) {
			return err
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, ErrTruncated) {
			return ErrTruncated
		}
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}

func (s *source) bytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if err := s.full(b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *source) u8() (uint8, error) {
	if err := s.full(s.buf[:1]); err != nil {
		return 0, err
	}
	return s.buf[0], nil
}

func (s *source) u16() (uint16, error) {
	if err := s.full(s.buf[:2]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(s.buf[:2]), nil
}

func (s *source) u32() (uint32, error) {
	if err := s.full(s.buf[:4]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(s.buf[:4]), nil
}

func (s *source) u64() (uint64, error) {
	if err := s.full(s.buf[:8]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(s.buf[:8]), nil
}

// lengthPrefixed reads a 32-bit byte count followed by that many bytes.
func (s *source) lengthPrefixed() ([]byte, error) {
	n, err := s.u32()
	if err != nil {
		return nil, err
	}
	if n > maxStringLen {
		return nil, fmt.Errorf("%w: string length %d", ErrDecode, n)
	}
	return s.bytes(int(n))
}
