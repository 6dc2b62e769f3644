// pkg/rawlzma/rawlzma.go

// Package rawlzma decodes LZMA1 streams that carry the five property bytes
// but no uncompressed size, the layout installer builders embed.
package rawlzma

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/ulikunitz/xz/lzma"
)

// PropsLen is the number of property bytes that open a stream.
const PropsLen = 5

// ErrTruncated is returned when the stream ends inside the property bytes.
var ErrTruncated = errors.New("lzma stream shorter than its properties")

// NewReader reads the property bytes from r and returns a reader over the
// decoded data. The size field of the classic header is filled with the
// "unknown" marker, so streams with and without an end marker both work.
func NewReader(r io.Reader) (io.Reader, error) {
	var header [lzma.HeaderLen]byte
	if _, err := io.ReadFull(r, header[:PropsLen]); err != nil {
		return nil, ErrTruncated
	}
	for i := PropsLen; i < len(header); i++ {
		header[i] = 0xff
	}
	lr, err := lzma.NewReader(io.MultiReader(bytes.NewReader(header[:]), r))
	if err != nil {
		return nil, fmt.Errorf("lzma: %w", err)
	}
	return &tail{r: lr}, nil
}

// tail hides the unexpected EOF the decoder reports when a stream ends
// without an end marker. Bytes decoded before that point are still
// delivered, and the following read reports io.EOF.
type tail struct {
	r      io.Reader
	atTail bool
}

func (t *tail) Read(p []byte) (int, error) {
	if t.atTail {
		return 0, io.EOF
	}
	n, err := t.r.Read(p)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		t.atTail = true
		err = nil
		if n == 0 {
			err = io.EOF
		}
	}
	return n, err
}
