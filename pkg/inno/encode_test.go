package inno

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz/lzma"
)

// utf16le encodes s the way unicode setups store their strings.
func utf16le(s string) []byte {
	units := utf16.Encode([]rune(s))
	b := make([]byte, 0, len(units)*2)
	for _, u := range units {
		b = append(b, byte(u), byte(u>>8))
	}
	return b
}

// encodeRecord writes values in the layout of schema. Fields missing from
// values are written as zero, the empty string or the first enum value.
// A []byte given for a string field is written without re-encoding.
func encodeRecord(t *testing.T, schema Schema, v Version, values map[string]any) []byte {
	t.Helper()
	var buf bytes.Buffer
	le := binary.LittleEndian
	putU32 := func(n uint32) { _ = binary.Write(&buf, le, n) }
	putString := func(b []byte) {
		putU32(uint32(len(b)))
		buf.Write(b)
	}

	for _, f := range schema.Fields {
		val := values[f.Name]
		switch f.Kind {
		case KindString:
			if b, ok := val.([]byte); ok {
				putString(b)
				continue
			}
			s, _ := val.(string)
			if v.IsUnicode() {
				putString(utf16le(s))
			} else {
				putString([]byte(s))
			}
		case KindAnsi:
			s, _ := val.(string)
			putString([]byte(s))
		case KindWide:
			s, _ := val.(string)
			putString(utf16le(s))
		case KindBinary:
			b, _ := val.([]byte)
			putString(b)
		case KindBytes:
			b := make([]byte, f.Size)
			if src, ok := val.([]byte); ok {
				copy(b, src)
			}
			buf.Write(b)
		case KindUint8:
			buf.WriteByte(uint8(number(val)))
		case KindUint16, KindInt16:
			_ = binary.Write(&buf, le, uint16(number(val)))
		case KindUint32, KindInt32:
			putU32(uint32(number(val)))
		case KindUint64, KindInt64:
			_ = binary.Write(&buf, le, uint64(number(val)))
		case KindCount:
			if v.Bits() == 16 {
				_ = binary.Write(&buf, le, uint16(number(val)))
			} else {
				putU32(uint32(number(val)))
			}
		case KindEnum:
			idx := 0
			if s, ok := val.(string); ok {
				idx = -1
				for i, name := range f.Values {
					if name == s {
						idx = i
					}
				}
				require.GreaterOrEqual(t, idx, 0, "enum %s has no value %q", f.Name, s)
			}
			buf.WriteByte(uint8(idx))
		case KindFlags:
			set, _ := val.(FlagSet)
			nbytes := (len(f.Values) + 7) / 8
			bits := make([]byte, nbytes)
			for i, name := range f.Values {
				if set.Has(name) {
					bits[i/8] |= 1 << (i % 8)
				}
			}
			buf.Write(bits)
			if nbytes == 3 && v.Bits() == 32 {
				buf.WriteByte(0)
			}
		default:
			t.Fatalf("cannot encode field kind %d", f.Kind)
		}
	}
	return buf.Bytes()
}

func number(v any) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	case uint32:
		return int64(n)
	case uint64:
		return int64(n)
	}
	return 0
}

// chunked splits payload into CRC guarded 4 KiB chunks.
func chunked(payload []byte) []byte {
	var out bytes.Buffer
	for len(payload) > 0 {
		n := chunkSize
		if n > len(payload) {
			n = len(payload)
		}
		_ = binary.Write(&out, binary.LittleEndian, crc32.ChecksumIEEE(payload[:n]))
		out.Write(payload[:n])
		payload = payload[n:]
	}
	return out.Bytes()
}

// encodeBlock frames a header stream as a block of a 4.0.9+ setup.
func encodeBlock(t *testing.T, stream []byte, compress bool) []byte {
	t.Helper()
	payload := stream
	var flag uint8
	if compress {
		payload = rawLZMA(t, stream)
		flag = 1
	}
	body := chunked(payload)

	var head bytes.Buffer
	_ = binary.Write(&head, binary.LittleEndian, uint32(len(body)))
	head.WriteByte(flag)

	var out bytes.Buffer
	_ = binary.Write(&out, binary.LittleEndian, crc32.ChecksumIEEE(head.Bytes()))
	out.Write(head.Bytes())
	out.Write(body)
	return out.Bytes()
}

// rawLZMA compresses data and drops the eight byte size field of the
// classic header, leaving properties and dictionary size.
func rawLZMA(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := lzma.NewWriter(&buf)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	out := buf.Bytes()
	return append(append([]byte(nil), out[:5]...), out[lzma.HeaderLen:]...)
}

var modernLoaderMagic = [12]byte{'r', 'D', 'l', 'P', 't', 'S', 0xcd, 0xe6, 0xd7, 0x7b, 0x0b, 0x2a}

// encodeLoader writes a 5.1.5 style offset table.
func encodeLoader(headerOffset, dataOffset uint32) []byte {
	var buf bytes.Buffer
	buf.Write(modernLoaderMagic[:])
	for _, v := range []uint32{1, 0x10000, 0x200, 0x8000, 0xdeadbeef, headerOffset, dataOffset} {
		_ = binary.Write(&buf, binary.LittleEndian, v)
	}
	_ = binary.Write(&buf, binary.LittleEndian, crc32.ChecksumIEEE(buf.Bytes()))
	return buf.Bytes()
}

// container lays out a file holding the legacy offset record, the offset
// table and the setup header: version string followed by block.
func container(t *testing.T, versionName string, block []byte) []byte {
	t.Helper()
	const tableOffset = 0x100
	const headerOffset = 0x200

	data := make([]byte, headerOffset)
	copy(data, "MZ")
	binary.LittleEndian.PutUint32(data[legacyOffsetPos:], 0x6f6e6e49)
	binary.LittleEndian.PutUint32(data[legacyOffsetPos+4:], tableOffset)
	binary.LittleEndian.PutUint32(data[legacyOffsetPos+8:], ^uint32(tableOffset))
	table := encodeLoader(headerOffset, 0)
	copy(data[tableOffset:], table)

	var version [VersionLen]byte
	copy(version[:], versionName)
	data = append(data, version[:]...)
	return append(data, block...)
}
