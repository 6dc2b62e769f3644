// pkg/inno/loader.go

package inno

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/windowsadmins/setupinfo/pkg/pe"
)

const (
	// legacyOffsetPos is where older setup loaders store the location of
	// the offset table, right after the DOS header fields.
	legacyOffsetPos = 0x30

	// offsetTableResource is the RT_RCDATA resource id of the offset table.
	offsetTableResource = 11111

	loaderMagicLen = 12
)

type loaderSignature struct {
	magic   [loaderMagicLen]byte
	version Version
}

var loaderSignatures = []loaderSignature{
	{[12]byte{'r', 'D', 'l', 'P', 't', 'S', '0', '2', 0x87, 'e', 'V', 'x'}, ver(1, 2, 10)},
	{[12]byte{'r', 'D', 'l', 'P', 't', 'S', '0', '4', 0x87, 'e', 'V', 'x'}, ver(4, 0, 0)},
	{[12]byte{'r', 'D', 'l', 'P', 't', 'S', '0', '5', 0x87, 'e', 'V', 'x'}, ver(4, 0, 3)},
	{[12]byte{'r', 'D', 'l', 'P', 't', 'S', '0', '6', 0x87, 'e', 'V', 'x'}, ver(4, 0, 10)},
	{[12]byte{'r', 'D', 'l', 'P', 't', 'S', '0', '7', 0x87, 'e', 'V', 'x'}, ver(4, 1, 6)},
	{[12]byte{'r', 'D', 'l', 'P', 't', 'S', 0xcd, 0xe6, 0xd7, 0x7b, 0x0b, 0x2a}, ver(5, 1, 5)},
	{[12]byte{'n', 'S', '5', 'W', '7', 'd', 'T', 0x83, 0xaa, 0x1b, 0x0f, 0x6a}, ver(5, 1, 5)},
}

// ChecksumKind identifies the algorithm of the embedded setup executable checksum.
type ChecksumKind string

const (
	ChecksumAdler32 ChecksumKind = "adler32"
	ChecksumCRC32   ChecksumKind = "crc32"
)

// Loader is the setup loader offset table.
type Loader struct {
	LoaderVersion       Version
	Revision            uint32
	TotalSize           uint32
	ExeOffset           uint32
	ExeCompressedSize   uint32
	ExeUncompressedSize uint32
	ExeChecksumKind     ChecksumKind
	ExeChecksum         uint32
	MessageOffset       uint32
	HeaderOffset        uint32
	DataOffset          uint32
}

// legacyOffsetRecord sits at legacyOffsetPos in setups that predate the
// resource based table.
type legacyOffsetRecord struct {
	ID             uint32
	TableOffset    uint32
	NotTableOffset uint32
}

// Locate finds and decodes the offset table. img may be nil when the file
// has not been parsed as a PE image. ErrNotInno is returned when neither the
// legacy record nor the resource is present.
func Locate(data []byte, img *pe.Image) (*Loader, error) {
	if table, ok := legacyTable(data); ok {
		return parseLoader(table)
	}
	if table, ok := img.Resource(data, pe.RTRCData, offsetTableResource); ok {
		return parseLoader(table)
	}
	return nil, ErrNotInno
}

func legacyTable(data []byte) ([]byte, bool) {
	if len(data) < legacyOffsetPos+12 {
		return nil, false
	}
	var rec legacyOffsetRecord
	if err := binary.Read(bytes.NewReader(data[legacyOffsetPos:]), binary.LittleEndian, &rec); err != nil {
		return nil, false
	}
	if rec.TableOffset != ^rec.NotTableOffset {
		return nil, false
	}
	if uint64(rec.TableOffset) >= uint64(len(data)) {
		return nil, false
	}
	return data[rec.TableOffset:], true
}

func parseLoader(table []byte) (*Loader, error) {
	if len(table) < loaderMagicLen {
		return nil, fmt.Errorf("%w: offset table too short", ErrMalformedHeader)
	}
	var l Loader
	found := false
	for _, sig := range loaderSignatures {
		if bytes.Equal(table[:loaderMagicLen], sig.magic[:]) {
			l.LoaderVersion = sig.version
			found = true
			break
		}
	}
	if !found {
		return nil, ErrUnknownLoaderSignature
	}

	src := bytes.NewReader(table)
	crc := newCRCReader(src)
	var magic [loaderMagicLen]byte
	if _, err := io.ReadFull(crc, magic[:]); err != nil {
		return nil, ErrTruncated
	}

	v := l.LoaderVersion
	read := func(dst *uint32) error {
		if err := binary.Read(crc, binary.LittleEndian, dst); err != nil {
			return fmt.Errorf("%w: offset table", ErrTruncated)
		}
		return nil
	}

	var fields []*uint32
	if v.AtLeast(5, 1, 5) {
		fields = append(fields, &l.Revision)
	}
	fields = append(fields, &l.TotalSize, &l.ExeOffset)
	if v.Before(4, 1, 6) {
		fields = append(fields, &l.ExeCompressedSize)
	}
	fields = append(fields, &l.ExeUncompressedSize, &l.ExeChecksum)
	for _, f := range fields {
		if err := read(f); err != nil {
			return nil, err
		}
	}
	l.ExeChecksumKind = ChecksumAdler32
	if v.AtLeast(4, 0, 3) {
		l.ExeChecksumKind = ChecksumCRC32
	}

	if v.Before(4, 0, 0) {
		// not covered by the table checksum
		if err := binary.Read(src, binary.LittleEndian, &l.MessageOffset); err != nil {
			return nil, fmt.Errorf("%w: offset table", ErrTruncated)
		}
	}
	if err := read(&l.HeaderOffset); err != nil {
		return nil, err
	}
	if err := read(&l.DataOffset); err != nil {
		return nil, err
	}

	if v.AtLeast(4, 0, 10) {
		var expected uint32
		if err := binary.Read(src, binary.LittleEndian, &expected); err != nil {
			return nil, fmt.Errorf("%w: offset table", ErrTruncated)
		}
		if err := crc.verify("offset table", expected); err != nil {
			return nil, err
		}
	}
	return &l, nil
}
