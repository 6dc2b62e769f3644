// pkg/msi/streams.go

package msi

import (
	"encoding/binary"
	"fmt"

	"github.com/windowsadmins/setupinfo/pkg/codepage"
)

// Stream names inside the database are packed two characters per UTF-16
// unit over this alphabet.
const nameAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz._"

const (
	packedPairStart = 0x3800
	packedOneStart  = 0x4800
	tablePrefix     = 0x4840
)

// decodeStreamName unpacks a stream name. Table streams come out with a
// leading '!'.
func decodeStreamName(name string) string {
	out := make([]byte, 0, len(name)*2)
	for _, r := range name {
		switch {
		case r >= packedPairStart && r < packedOneStart:
			v := r - packedPairStart
			out = append(out, nameAlphabet[v&0x3F], nameAlphabet[(v>>6)&0x3F])
		case r >= packedOneStart && r < tablePrefix:
			out = append(out, nameAlphabet[r-packedOneStart])
		case r == tablePrefix:
			out = append(out, '!')
		default:
			out = append(out, string(r)...)
		}
	}
	return string(out)
}

// stringPool is the interned string table shared by every table.
type stringPool struct {
	codepage uint32
	// refSize is the width in bytes of a string reference in table data.
	refSize int
	// strings[0] is the null string.
	strings []string
}

const longRefFlag = 0x80000000

// parseStringPool decodes the _StringPool and _StringData streams. Each
// pool entry is a length and a reference count; a zero length with a non-zero
// count means the real length follows as a 32-bit value.
func parseStringPool(pool, data []byte) (*stringPool, error) {
	if len(pool) < 4 {
		return nil, fmt.Errorf("%w: string pool of %d bytes", ErrMalformed, len(pool))
	}
	head := binary.LittleEndian.Uint32(pool)
	sp := &stringPool{
		codepage: head &^ longRefFlag,
		refSize:  2,
		strings:  []string{""},
	}
	if head&longRefFlag != 0 {
		sp.refSize = 3
	}
	if sp.codepage == 0 {
		sp.codepage = codepage.Western
	}

	var offset uint64
	for p := pool[4:]; len(p) >= 4; p = p[4:] {
		length := uint64(binary.LittleEndian.Uint16(p))
		refs := binary.LittleEndian.Uint16(p[2:])
		if length == 0 && refs != 0 {
			if len(p) < 8 {
				return nil, fmt.Errorf("%w: truncated long string entry", ErrMalformed)
			}
			p = p[4:]
			length = uint64(binary.LittleEndian.Uint32(p))
		}
		if offset+length > uint64(len(data)) {
			return nil, fmt.Errorf("%w: string %d exceeds string data", ErrMalformed, len(sp.strings))
		}
		sp.strings = append(sp.strings, codepage.Decode(sp.codepage, data[offset:offset+length]))
		offset += length
	}
	return sp, nil
}

// get returns the string for a reference; out of range references are empty.
func (sp *stringPool) get(ref uint32) string {
	if int(ref) >= len(sp.strings) {
		return ""
	}
	return sp.strings[ref]
}
