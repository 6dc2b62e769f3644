package nsis

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz/lzma"

	"github.com/windowsadmins/setupinfo/pkg/manifest"
)

const stringsStart = 300

// installerHeader builds a decompressed header with one language table.
func installerHeader(table []byte, installDir uint32, langID uint16, langStrings ...int32) []byte {
	le := binary.LittleEndian
	langSize := langTableHeaderSize + 4*len(langStrings)
	raw := make([]byte, stringsStart+len(table)+langSize)

	le.PutUint32(raw[4+blockStrings*8:], stringsStart)
	le.PutUint32(raw[4+blockLangTables*8:], uint32(stringsStart+len(table)))
	le.PutUint32(raw[4+blockLangTables*8+4:], 1)
	le.PutUint32(raw[offLangTableSize:], uint32(langSize))
	le.PutUint32(raw[offInstallDir:], installDir)
	copy(raw[stringsStart:], table)

	lang := raw[stringsStart+len(table):]
	le.PutUint16(lang, langID)
	for i, s := range langStrings {
		le.PutUint32(lang[langTableHeaderSize+4*i:], uint32(s))
	}
	return raw
}

// installer places a first header at the second 512 byte block, followed
// by payload.
func installer(headerSize int, payload []byte) []byte {
	data := make([]byte, searchStep)
	copy(data, "MZ")
	fh := make([]byte, firstHeaderSize)
	binary.LittleEndian.PutUint32(fh[4:], firstHeaderSig)
	copy(fh[8:], firstHeaderMagic)
	binary.LittleEndian.PutUint32(fh[20:], uint32(headerSize))
	binary.LittleEndian.PutUint32(fh[24:], uint32(firstHeaderSize+len(payload)))
	data = append(data, fh...)
	return append(data, payload...)
}

func sizePrefixed(size uint32, b []byte) []byte {
	return append(binary.LittleEndian.AppendUint32(nil, size), b...)
}

func deflated(t *testing.T, b []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestCompression)
	require.NoError(t, err)
	_, err = w.Write(b)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

// rawLZMA compresses b into the properties, dictionary size and stream
// layout NSIS stores, without the size field of an .lzma file.
func rawLZMA(t *testing.T, b []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := lzma.NewWriter(&buf)
	require.NoError(t, err)
	_, err = w.Write(b)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	out := buf.Bytes()
	return append(append([]byte(nil), out[:5]...), out[lzma.HeaderLen:]...)
}

// sampleHeader carries enough incompressible text that every compressed
// form is longer than 255 bytes.
func sampleHeader() []byte {
	license := make([]byte, 800)
	x := uint32(1)
	for i := range license {
		x = x*1103515245 + 12345
		license[i] = 'a' + byte((x>>16)%26)
	}
	table, off := stringTable("ProgramFilesDir", "\x02\xc1\x00\\Example App", string(license))
	return installerHeader(table, off[1], 0x0409)
}

func TestParse(t *testing.T) {
	hdr := sampleHeader()
	size := uint32(len(hdr))

	tests := []struct {
		name    string
		payload []byte
		method  Compression
		solid   bool
	}{
		{"stored", sizePrefixed(size, hdr), CompressionStored, false},
		{"deflate", func() []byte {
			d := deflated(t, hdr)
			return sizePrefixed(uint32(len(d))|nonSolidFlag, d)
		}(), CompressionDeflate, false},
		{"non-solid lzma", func() []byte {
			l := rawLZMA(t, hdr)
			return sizePrefixed(uint32(len(l))|nonSolidFlag, l)
		}(), CompressionLZMA, false},
		{"solid lzma", rawLZMA(t, sizePrefixed(size, hdr)), CompressionLZMA, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse(installer(len(hdr), tt.payload), nil)
			require.NoError(t, err)
			assert.Equal(t, int64(searchStep), s.FirstHeader.Offset)
			assert.Equal(t, tt.method, s.Compression)
			assert.Equal(t, tt.solid, s.Solid)
			assert.Equal(t, NSIS3, s.Version)
			assert.Equal(t, `$PROGRAMFILES64\Example App`, s.InstallDir)
			require.Len(t, s.Languages, 1)
			assert.Equal(t, uint16(0x0409), s.Languages[0].ID)

			installers := s.Installers()
			require.Len(t, installers, 1)
			inst := installers[0]
			assert.Equal(t, manifest.TypeNullsoft, inst.Type)
			assert.Equal(t, manifest.ArchX64, inst.Architecture)
			assert.Equal(t, "en-US", inst.Locale)
			assert.Equal(t, manifest.ScopeUnspecified, inst.Scope)
			require.NotNil(t, inst.InstallationMetadata)
			assert.Equal(t, `%ProgramFiles%\Example App`, inst.InstallationMetadata.DefaultInstallLocation)
		})
	}
}

func TestParseUnicodeStrings(t *testing.T) {
	table := wideTable(
		'P', 'r', 'o', 'g', 'r', 'a', 'm', 'F', 'i', 'l', 'e', 's', 'D', 'i', 'r', 0,
		2, 0x1c1c, '\\', 'T', 'o', 'o', 'l', 0,
	)
	hdr := installerHeader(table, 17, 0x0407)
	s, err := Parse(installer(len(hdr), sizePrefixed(uint32(len(hdr)), hdr)), nil)
	require.NoError(t, err)
	assert.Equal(t, `$LOCALAPPDATA\Tool`, s.InstallDir)

	inst := s.Installers()[0]
	assert.Equal(t, manifest.ArchX86, inst.Architecture)
	assert.Equal(t, "de-DE", inst.Locale)
	assert.Equal(t, manifest.ScopeUser, inst.Scope)
	assert.Equal(t, `%LocalAppData%\Tool`, inst.InstallationMetadata.DefaultInstallLocation)
}

func TestParseErrors(t *testing.T) {
	hdr := sampleHeader()

	_, err := Parse(make([]byte, 4096), nil)
	assert.ErrorIs(t, err, ErrNotNsis)

	_, err = Parse(installer(len(hdr), sizePrefixed(uint32(len(hdr)), hdr[:100])), nil)
	assert.ErrorIs(t, err, ErrTruncated)

	_, err = Parse(installer(0, nil), nil)
	assert.ErrorIs(t, err, ErrMalformedHeader)

	bz := []byte("1\x05BZh91AY&SY")
	_, err = Parse(installer(len(hdr), sizePrefixed(uint32(len(bz))|nonSolidFlag, bz)), nil)
	assert.ErrorIs(t, err, ErrUnsupportedCompression)

	filtered := append([]byte{1}, rawLZMA(t, hdr)...)
	_, err = Parse(installer(len(hdr), sizePrefixed(uint32(len(filtered))|nonSolidFlag, filtered)), nil)
	assert.ErrorIs(t, err, ErrUnsupportedCompression)

	short := make([]byte, 64)
	_, err = Parse(installer(len(short), sizePrefixed(uint32(len(short)), short)), nil)
	assert.ErrorIs(t, err, ErrMalformedHeader)
}

func TestRelativeInstallDir(t *testing.T) {
	tests := []struct {
		dir  string
		want string
	}{
		{`$PROGRAMFILES\App`, `%ProgramFiles(x86)%\App`},
		{`$PROGRAMFILES64\App`, `%ProgramFiles%\App`},
		{`$PROGRAMFILES_COMMON\App`, `%CommonProgramFiles%\App`},
		{`$LOCALAPPDATA\Programs\App`, `%LocalAppData%\Programs\App`},
		{`$SYSDIR\drivers`, `%SystemRoot%\System32\drivers`},
		{`C:\App`, `C:\App`},
	}
	for _, tt := range tests {
		t.Run(tt.dir, func(t *testing.T) {
			assert.Equal(t, tt.want, RelativeInstallDir(tt.dir))
		})
	}
}
