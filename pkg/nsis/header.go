// pkg/nsis/header.go

package nsis

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/windowsadmins/setupinfo/pkg/rawlzma"
)

const (
	firstHeaderSize = 28
	firstHeaderSig  = 0xDEADBEEF
	searchStep      = 512

	// maxHeaderSize bounds the declared size of the decompressed header.
	maxHeaderSize = 64 << 20

	nonSolidFlag = 0x80000000

	blockCount      = 8
	blockStrings    = 3
	blockLangTables = 4

	offLangTableSize = 100
	offInstallDir    = 280

	langTableHeaderSize = 10
)

var firstHeaderMagic = []byte("NullsoftInst")

// Compression is the method the header was stored with.
type Compression string

const (
	CompressionStored  Compression = "stored"
	CompressionDeflate Compression = "deflate"
	CompressionLZMA    Compression = "lzma"
	CompressionBZip2   Compression = "bzip2"
)

// FirstHeader is the fixed record that precedes the compressed header.
type FirstHeader struct {
	Offset      int64
	Flags       uint32
	HeaderSize  uint32
	ArchiveSize uint32
}

// Block locates one table inside the decompressed header.
type Block struct {
	Offset uint32
	Num    uint32
}

// Header is the decompressed installer header.
type Header struct {
	Flags         uint32
	Blocks        [blockCount]Block
	LangTableSize uint32
	InstallDirPtr uint32
	Raw           []byte
}

// findFirstHeader scans data in 512 byte steps starting at the block
// containing start.
func findFirstHeader(data []byte, start int64) (FirstHeader, bool) {
	if start < 0 || start > int64(len(data)) {
		start = 0
	}
	for pos := start / searchStep * searchStep; pos+firstHeaderSize <= int64(len(data)); pos += searchStep {
		p := data[pos:]
		if binary.LittleEndian.Uint32(p[4:]) != firstHeaderSig || !bytes.Equal(p[8:20], firstHeaderMagic) {
			continue
		}
		return FirstHeader{
			Offset:      pos,
			Flags:       binary.LittleEndian.Uint32(p),
			HeaderSize:  binary.LittleEndian.Uint32(p[20:]),
			ArchiveSize: binary.LittleEndian.Uint32(p[24:]),
		}, true
	}
	return FirstHeader{}, false
}

// lzmaStart reports whether p starts an LZMA stream, possibly preceded by
// the filter flag byte, and returns the number of bytes before the
// properties. A set filter flag means the stream is BCJ filtered.
func lzmaStart(p []byte) (skip int, ok bool, filtered bool) {
	props := func(q []byte) bool {
		return len(q) >= 6 && q[0] == 0x5D && q[1] == 0 && q[2] == 0 && q[5] == 0
	}
	switch {
	case props(p):
		return 0, true, false
	case len(p) > 0 && p[0] <= 1 && props(p[1:]):
		return 1, true, p[0] == 1
	}
	return 0, false, false
}

func bzip2Start(p []byte) bool {
	return len(p) >= 2 && p[0] == '1' && p[1] < 14
}

// readHeader returns the decompressed header that follows the first header.
func readHeader(data []byte, fh FirstHeader) ([]byte, Compression, bool, error) {
	if fh.HeaderSize == 0 || fh.HeaderSize > maxHeaderSize {
		return nil, "", false, fmt.Errorf("%w: header size %d", ErrMalformedHeader, fh.HeaderSize)
	}
	p := data[fh.Offset+firstHeaderSize:]
	if len(p) < 4 {
		return nil, "", false, ErrTruncated
	}
	size := binary.LittleEndian.Uint32(p)

	if size == fh.HeaderSize {
		if uint64(len(p)) < 4+uint64(size) {
			return nil, "", false, ErrTruncated
		}
		return p[4 : 4+size], CompressionStored, false, nil
	}

	// a solid lzma stream with a large dictionary also has the top bit set
	if _, solidLZMA, _ := lzmaStart(p); !solidLZMA && size&nonSolidFlag != 0 {
		n := size &^ nonSolidFlag
		if uint64(len(p)) < 4+uint64(n) {
			return nil, "", false, ErrTruncated
		}
		q := p[4 : 4+n]
		r, method, err := decompressor(q)
		if err != nil {
			return nil, method, false, err
		}
		hdr, err := readFull(r, fh.HeaderSize)
		return hdr, method, false, err
	}

	r, method, err := decompressor(p)
	if err != nil {
		return nil, method, true, err
	}
	var declared uint32
	if err := binary.Read(r, binary.LittleEndian, &declared); err != nil {
		return nil, method, true, fmt.Errorf("%w: solid header size", ErrTruncated)
	}
	if declared > maxHeaderSize {
		return nil, method, true, fmt.Errorf("%w: header size %d", ErrMalformedHeader, declared)
	}
	hdr, err := readFull(r, declared)
	return hdr, method, true, err
}

func decompressor(p []byte) (io.Reader, Compression, error) {
	if skip, ok, filtered := lzmaStart(p); ok {
		if filtered {
			return nil, CompressionLZMA, fmt.Errorf("%w: BCJ filtered lzma", ErrUnsupportedCompression)
		}
		r, err := rawlzma.NewReader(bytes.NewReader(p[skip:]))
		if err != nil {
			return nil, CompressionLZMA, fmt.Errorf("%w: %v", ErrMalformedHeader, err)
		}
		return r, CompressionLZMA, nil
	}
	if bzip2Start(p) {
		return nil, CompressionBZip2, fmt.Errorf("%w: bzip2", ErrUnsupportedCompression)
	}
	return flate.NewReader(bytes.NewReader(p)), CompressionDeflate, nil
}

func readFull(r io.Reader, n uint32) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrTruncated, err)
	}
	return buf, nil
}

func parseHeader(b []byte) (*Header, error) {
	if len(b) < offInstallDir+4 {
		return nil, fmt.Errorf("%w: header of %d bytes", ErrMalformedHeader, len(b))
	}
	h := &Header{
		Flags:         binary.LittleEndian.Uint32(b),
		LangTableSize: binary.LittleEndian.Uint32(b[offLangTableSize:]),
		InstallDirPtr: binary.LittleEndian.Uint32(b[offInstallDir:]),
		Raw:           b,
	}
	for i := range h.Blocks {
		p := b[4+i*8:]
		h.Blocks[i] = Block{
			Offset: binary.LittleEndian.Uint32(p),
			Num:    binary.LittleEndian.Uint32(p[4:]),
		}
	}
	return h, nil
}

// Strings returns the string table. It runs up to the language tables.
func (h *Header) Strings() ([]byte, error) {
	start := h.Blocks[blockStrings].Offset
	end := h.Blocks[blockLangTables].Offset
	if end < start || end > uint32(len(h.Raw)) {
		end = uint32(len(h.Raw))
	}
	if start >= end {
		return nil, fmt.Errorf("%w: string table at %d", ErrMalformedHeader, start)
	}
	return h.Raw[start:end], nil
}

// LanguageTable is one entry of the language table block.
type LanguageTable struct {
	ID          uint16
	RightToLeft bool
	// Strings holds the string table offset of each language string.
	Strings []int32
}

// LanguageTables decodes the language table block.
func (h *Header) LanguageTables() ([]LanguageTable, error) {
	blk := h.Blocks[blockLangTables]
	size := h.LangTableSize
	if blk.Num == 0 {
		return nil, nil
	}
	if size < langTableHeaderSize {
		return nil, fmt.Errorf("%w: language table size %d", ErrMalformedHeader, size)
	}
	if uint64(blk.Offset)+uint64(blk.Num)*uint64(size) > uint64(len(h.Raw)) {
		return nil, fmt.Errorf("%w: %d language tables exceed header", ErrMalformedHeader, blk.Num)
	}

	tables := make([]LanguageTable, 0, blk.Num)
	for i := uint32(0); i < blk.Num; i++ {
		p := h.Raw[blk.Offset+i*size : blk.Offset+(i+1)*size]
		t := LanguageTable{
			ID:          binary.LittleEndian.Uint16(p),
			RightToLeft: binary.LittleEndian.Uint32(p[6:]) != 0,
		}
		for off := langTableHeaderSize; off+4 <= len(p); off += 4 {
			t.Strings = append(t.Strings, int32(binary.LittleEndian.Uint32(p[off:])))
		}
		tables = append(tables, t)
	}
	return tables, nil
}
