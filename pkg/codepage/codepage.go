// pkg/codepage/codepage.go

// Package codepage maps Windows code page identifiers to text decoders.
package codepage

import (
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
)

const (
	Western uint32 = 1252
	UTF16LE uint32 = 1200
	UTF16BE uint32 = 1201
	UTF8    uint32 = 65001
	USASCII uint32 = 20127
)

var encodings = map[uint32]encoding.Encoding{
	437:   charmap.CodePage437,
	850:   charmap.CodePage850,
	852:   charmap.CodePage852,
	855:   charmap.CodePage855,
	858:   charmap.CodePage858,
	860:   charmap.CodePage860,
	862:   charmap.CodePage862,
	863:   charmap.CodePage863,
	865:   charmap.CodePage865,
	866:   charmap.CodePage866,
	874:   charmap.Windows874,
	932:   japanese.ShiftJIS,
	936:   simplifiedchinese.GBK,
	949:   korean.EUCKR,
	950:   traditionalchinese.Big5,
	1250:  charmap.Windows1250,
	1251:  charmap.Windows1251,
	1252:  charmap.Windows1252,
	1253:  charmap.Windows1253,
	1254:  charmap.Windows1254,
	1255:  charmap.Windows1255,
	1256:  charmap.Windows1256,
	1257:  charmap.Windows1257,
	1258:  charmap.Windows1258,
	1200:  unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM),
	1201:  unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM),
	10000: charmap.Macintosh,
	20866: charmap.KOI8R,
	21866: charmap.KOI8U,
	28591: charmap.ISO8859_1,
	28592: charmap.ISO8859_2,
	28593: charmap.ISO8859_3,
	28594: charmap.ISO8859_4,
	28595: charmap.ISO8859_5,
	28596: charmap.ISO8859_6,
	28597: charmap.ISO8859_7,
	28598: charmap.ISO8859_8,
	28599: charmap.ISO8859_9,
	28603: charmap.ISO8859_13,
	28605: charmap.ISO8859_15,
	54936: simplifiedchinese.GB18030,
	65001: unicode.UTF8,
}

// Lookup returns the encoding registered for a code page.
func Lookup(cp uint32) (encoding.Encoding, error) {
	if cp == USASCII {
		return charmap.Windows1252, nil
	}
	if enc, ok := encodings[cp]; ok {
		return enc, nil
	}
	return nil, fmt.Errorf("unsupported code page %d", cp)
}

// Decode converts b from the given code page to UTF-8. Unknown code pages
// fall back to Windows-1252, which maps every byte.
func Decode(cp uint32, b []byte) string {
	enc, err := Lookup(cp)
	if err != nil {
		enc = charmap.Windows1252
	}
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}

// DecodeUTF16LE decodes little-endian UTF-16 without a byte order mark.
func DecodeUTF16LE(b []byte) string {
	return Decode(UTF16LE, b)
}

// primary language id -> default ANSI code page
var ansiByLanguage = map[uint16]uint32{
	0x01: 1256, // Arabic
	0x02: 1251, // Bulgarian
	0x04: 936,  // Chinese (overridden for traditional sublanguages)
	0x05: 1250, // Czech
	0x08: 1253, // Greek
	0x0d: 1255, // Hebrew
	0x0e: 1250, // Hungarian
	0x11: 932,  // Japanese
	0x12: 949,  // Korean
	0x15: 1250, // Polish
	0x18: 1250, // Romanian
	0x19: 1251, // Russian
	0x1a: 1250, // Croatian / Serbian
	0x1b: 1250, // Slovak
	0x1c: 1250, // Albanian
	0x1e: 874,  // Thai
	0x1f: 1254, // Turkish
	0x22: 1251, // Ukrainian
	0x23: 1251, // Belarusian
	0x24: 1250, // Slovenian
	0x25: 1257, // Estonian
	0x26: 1257, // Latvian
	0x27: 1257, // Lithuanian
	0x29: 1256, // Farsi
	0x2a: 1258, // Vietnamese
	0x2c: 1254, // Azeri
	0x2f: 1251, // Macedonian
	0x3f: 1251, // Kazakh
}

// ForLanguage returns the default ANSI code page for a Windows language id.
func ForLanguage(lcid uint32) uint32 {
	switch lcid {
	case 0x0404, 0x0c04, 0x1404: // Chinese traditional
		return 950
	case 0x081a, 0x181a: // Serbian latin
		return 1250
	case 0x0c1a, 0x1c1a: // Serbian cyrillic
		return 1251
	}
	if cp, ok := ansiByLanguage[uint16(lcid&0x3ff)]; ok {
		return cp
	}
	return Western
}
