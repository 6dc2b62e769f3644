package msi

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windowsadmins/setupinfo/pkg/manifest"
)

func encodeStreamName(name string) string {
	var out []rune
	if strings.HasPrefix(name, "!") {
		out = append(out, tablePrefix)
		name = name[1:]
	}
	for i := 0; i < len(name); i += 2 {
		a := rune(strings.IndexByte(nameAlphabet, name[i]))
		if i+1 == len(name) {
			out = append(out, packedOneStart+a)
			break
		}
		b := rune(strings.IndexByte(nameAlphabet, name[i+1]))
		out = append(out, packedPairStart+a+b<<6)
	}
	return string(out)
}

// pool interns strings the way the database does, references start at 1.
type pool struct {
	strs []string
	refs map[string]uint16
}

func (p *pool) ref(s string) uint16 {
	if s == "" {
		return 0
	}
	if p.refs == nil {
		p.refs = map[string]uint16{}
	}
	if r, ok := p.refs[s]; ok {
		return r
	}
	p.strs = append(p.strs, s)
	p.refs[s] = uint16(len(p.strs))
	return p.refs[s]
}

func (p *pool) streams() (poolBytes, data []byte) {
	poolBytes = binary.LittleEndian.AppendUint32(nil, 1252)
	for _, s := range p.strs {
		poolBytes = binary.LittleEndian.AppendUint16(poolBytes, uint16(len(s)))
		poolBytes = binary.LittleEndian.AppendUint16(poolBytes, 1)
		data = append(data, s...)
	}
	return poolBytes, data
}

// columnMajor lays out two byte cells column by column.
func columnMajor(rows [][]uint16) []byte {
	var out []byte
	if len(rows) == 0 {
		return out
	}
	for j := range rows[0] {
		for _, row := range rows {
			out = binary.LittleEndian.AppendUint16(out, row[j])
		}
	}
	return out
}

func i2(v uint16) uint16 { return v ^ intNullBiasI2 }

const (
	colKeyString  = typeValid | typeString | typeKey | 72
	colString     = typeValid | typeString | typeNullable | 72
	colLocalized  = typeValid | typeString | typeLocalized | typeNullable | 255
	colShortInt   = typeValid | typeNullable | 2
	colTempString = typeValid | typeString | typeTemporary | 72
)

func TestDecodeStreamName(t *testing.T) {
	tests := []string{"!_StringPool", "!_StringData", "!Property", "!_Columns", "Binary.bmp"}
	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, name, decodeStreamName(encodeStreamName(name)))
		})
	}
	assert.Equal(t, "SummaryInformation", decodeStreamName("SummaryInformation"))
}

func TestParseStringPool(t *testing.T) {
	long := strings.Repeat("x", 70000)
	poolBytes := binary.LittleEndian.AppendUint32(nil, 1252|longRefFlag)
	poolBytes = binary.LittleEndian.AppendUint16(poolBytes, 5)
	poolBytes = binary.LittleEndian.AppendUint16(poolBytes, 2)
	// unreferenced slot
	poolBytes = binary.LittleEndian.AppendUint16(poolBytes, 0)
	poolBytes = binary.LittleEndian.AppendUint16(poolBytes, 0)
	// long string marker followed by the 32-bit length
	poolBytes = binary.LittleEndian.AppendUint16(poolBytes, 0)
	poolBytes = binary.LittleEndian.AppendUint16(poolBytes, 1)
	poolBytes = binary.LittleEndian.AppendUint32(poolBytes, uint32(len(long)))
	poolBytes = binary.LittleEndian.AppendUint16(poolBytes, 2)
	poolBytes = binary.LittleEndian.AppendUint16(poolBytes, 1)
	data := []byte("Hello" + long + "\xe9t")

	sp, err := parseStringPool(poolBytes, data)
	require.NoError(t, err)
	assert.Equal(t, uint32(1252), sp.codepage)
	assert.Equal(t, 3, sp.refSize)
	require.Len(t, sp.strings, 5)
	assert.Equal(t, "Hello", sp.get(1))
	assert.Equal(t, "", sp.get(2))
	assert.Equal(t, long, sp.get(3))
	assert.Equal(t, "ét", sp.get(4))
	assert.Equal(t, "", sp.get(99))

	_, err = parseStringPool(poolBytes, data[:10])
	assert.ErrorIs(t, err, ErrMalformed)
	_, err = parseStringPool(nil, nil)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDecodeTable(t *testing.T) {
	var p pool
	cols := []Column{
		{"Dialog_", colKeyString},
		{"Scratch", colTempString},
		{"X", colShortInt},
		{"Property", colString},
	}
	data := columnMajor([][]uint16{
		{p.ref("WelcomeDlg"), i2(10), p.ref("ALLUSERS")},
		{p.ref("ExitDlg"), 0, 0},
	})
	poolBytes, strData := p.streams()
	sp, err := parseStringPool(poolBytes, strData)
	require.NoError(t, err)

	tbl, err := decodeTable("Control", cols, data, sp)
	require.NoError(t, err)
	require.Len(t, tbl.Columns, 3, "temporary columns are not stored")
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "WelcomeDlg", tbl.Rows[0][0].Str)
	assert.Equal(t, int32(10), tbl.Rows[0][1].Int)
	assert.Equal(t, "ALLUSERS", tbl.Rows[0][2].String())
	assert.True(t, tbl.Rows[1][1].Null)
	assert.True(t, tbl.Rows[1][2].Null)
	assert.Equal(t, 2, tbl.Index("Property"))
	assert.Equal(t, -1, tbl.Index("Missing"))

	_, err = decodeTable("Control", cols, data[:len(data)-1], sp)
	assert.ErrorIs(t, err, ErrMalformed)
}

// testStreams builds the table streams of a small per-machine database.
func testStreams(t *testing.T) (map[string][]byte, *stringPool) {
	t.Helper()
	var p pool
	column := func(table string, n uint16, name string, typ uint16) []uint16 {
		return []uint16{p.ref(table), i2(n), p.ref(name), i2(typ)}
	}
	columns := columnMajor([][]uint16{
		column("Property", 1, "Property", colKeyString),
		column("Property", 2, "Value", colLocalized),
		column("Directory", 1, "Directory", colKeyString),
		column("Directory", 2, "Directory_Parent", colString),
		column("Directory", 3, "DefaultDir", colLocalized),
	})
	props := columnMajor([][]uint16{
		{p.ref("ProductName"), p.ref("Example App")},
		{p.ref("ProductVersion"), p.ref("2.4.1")},
		{p.ref("Manufacturer"), p.ref("Example Corp")},
		{p.ref("ProductCode"), p.ref("{11111111-2222-3333-4444-555555555555}")},
		{p.ref("UpgradeCode"), p.ref("{66666666-7777-8888-9999-000000000000}")},
		{p.ref("ProductLanguage"), p.ref("1033")},
		{p.ref("ALLUSERS"), p.ref("1")},
	})
	dirs := columnMajor([][]uint16{
		{p.ref("TARGETDIR"), 0, p.ref("SourceDir")},
		{p.ref("ProgramFiles64Folder"), p.ref("TARGETDIR"), p.ref(".")},
		{p.ref("VendorDir"), p.ref("ProgramFiles64Folder"), p.ref("VENDOR|Example Corp")},
		{p.ref("INSTALLDIR"), p.ref("VendorDir"), p.ref("EXAMPL~1|Example App")},
		{p.ref("DesktopFolder"), p.ref("TARGETDIR"), p.ref("Desktop")},
	})
	poolBytes, data := p.streams()
	sp, err := parseStringPool(poolBytes, data)
	require.NoError(t, err)
	return map[string][]byte{
		"_Columns":  columns,
		"Property":  props,
		"Directory": dirs,
	}, sp
}

func TestNewPackage(t *testing.T) {
	streams, sp := testStreams(t)
	pkg, err := newPackage(streams, sp)
	require.NoError(t, err)

	assert.Equal(t, "Example App", pkg.Properties["ProductName"])
	assert.Equal(t, "1", pkg.Properties["ALLUSERS"])
	assert.Equal(t, Directory{Parent: "VendorDir", DefaultDir: "Example App"}, pkg.Directories["INSTALLDIR"])
	assert.Equal(t, `%ProgramFiles%\Example Corp\Example App`, pkg.InstallDirectory())
	assert.Empty(t, pkg.ControlProperties)

	pkg.Summary = Summary{Template: "x64;1033", CreatingApplication: "Windows Installer XML Toolset (3.11.2.4516)"}
	installers, err := pkg.Installers()
	require.NoError(t, err)
	require.Len(t, installers, 1)
	inst := installers[0]
	assert.Equal(t, manifest.ArchX64, inst.Architecture)
	assert.Equal(t, manifest.TypeWix, inst.Type)
	assert.Equal(t, manifest.ScopeMachine, inst.Scope)
	assert.Equal(t, "en-US", inst.Locale)
	assert.Equal(t, "{11111111-2222-3333-4444-555555555555}", inst.ProductCode)
	require.Len(t, inst.AppsAndFeaturesEntries, 1)
	assert.Equal(t, manifest.AppsAndFeaturesEntry{
		DisplayName:    "Example App",
		Publisher:      "Example Corp",
		DisplayVersion: "2.4.1",
		ProductCode:    "{11111111-2222-3333-4444-555555555555}",
		UpgradeCode:    "{66666666-7777-8888-9999-000000000000}",
	}, inst.AppsAndFeaturesEntries[0])
	require.NotNil(t, inst.InstallationMetadata)
	assert.Equal(t, `%ProgramFiles%\Example Corp\Example App`, inst.InstallationMetadata.DefaultInstallLocation)
}

func TestNewPackageWithoutPropertyTable(t *testing.T) {
	streams, sp := testStreams(t)
	cols, err := decodeTable(columnsTable, columnsSchema, streams[columnsTable], sp)
	require.NoError(t, err)
	require.Contains(t, schemas(cols), "Property")

	_, err = newPackage(map[string][]byte{}, sp)
	assert.ErrorIs(t, err, ErrMissingTable)
}

func TestArchitecture(t *testing.T) {
	tests := []struct {
		template string
		want     manifest.Architecture
		wantErr  bool
	}{
		{"x64;1033", manifest.ArchX64, false},
		{"Intel64;1033", manifest.ArchX64, false},
		{"AMD64", manifest.ArchX64, false},
		{"Intel;1033,1031", manifest.ArchX86, false},
		{";1033", manifest.ArchX86, false},
		{"", manifest.ArchX86, false},
		{"Arm64;0", manifest.ArchArm64, false},
		{"Arm;0", manifest.ArchArm, false},
		{"Alpha;1033", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.template, func(t *testing.T) {
			p := &Package{Summary: Summary{Template: tt.template}}
			got, err := p.Architecture()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrArchitecture)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScope(t *testing.T) {
	tests := []struct {
		name     string
		props    map[string]string
		controls map[string]bool
		want     manifest.Scope
	}{
		{"per machine", map[string]string{"ALLUSERS": "1"}, nil, manifest.ScopeMachine},
		{"depends on user", map[string]string{"ALLUSERS": "2"}, nil, manifest.ScopeUnspecified},
		{"empty is per user", map[string]string{"ALLUSERS": ""}, nil, manifest.ScopeUser},
		{"absent is per user", map[string]string{}, nil, manifest.ScopeUser},
		{"absent but set by a dialog", map[string]string{}, map[string]bool{"ALLUSERS": true}, manifest.ScopeUnspecified},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Package{Properties: tt.props, ControlProperties: tt.controls}
			assert.Equal(t, tt.want, p.Scope())
		})
	}
}

func TestIsWix(t *testing.T) {
	assert.True(t, (&Package{Summary: Summary{CreatingApplication: "WiX Toolset v4"}}).IsWix())
	assert.True(t, (&Package{Properties: map[string]string{"WixUIRMOption": "UseRM"}}).IsWix())
	assert.False(t, (&Package{
		Summary:    Summary{CreatingApplication: "Advanced Installer 20.0"},
		Properties: map[string]string{"ProductName": "Example"},
	}).IsWix())
}

func TestDisplayVersion(t *testing.T) {
	p := &Package{
		Properties: map[string]string{"ProductName": "Google Chrome", "ProductVersion": "77.36.123"},
		Summary:    Summary{Comments: "131.0.6778.86 Copyright 2024 Google LLC"},
	}
	assert.Equal(t, "131.0.6778.86", p.DisplayVersion())

	p.Summary.Comments = "Chrome installer"
	assert.Equal(t, "77.36.123", p.DisplayVersion())

	p.Properties["ProductName"] = "Other"
	p.Summary.Comments = "1.2.3"
	assert.Equal(t, "77.36.123", p.DisplayVersion())
}

func TestInstallDirectoryFallbacks(t *testing.T) {
	tests := []struct {
		name  string
		dirs  map[string]Directory
		props map[string]string
		want  string
	}{
		{
			name: "wixui property",
			dirs: map[string]Directory{
				"TARGETDIR":          {DefaultDir: "SourceDir"},
				"ProgramFilesFolder": {Parent: "TARGETDIR", DefaultDir: "."},
				"APPLICATIONFOLDER":  {Parent: "ProgramFilesFolder", DefaultDir: "Tool"},
			},
			props: map[string]string{"WIXUI_INSTALLDIR": "APPLICATIONFOLDER"},
			want:  `%ProgramFiles(x86)%\Tool`,
		},
		{
			name: "appdir",
			dirs: map[string]Directory{
				"TARGETDIR":          {DefaultDir: "SourceDir"},
				"LocalAppDataFolder": {Parent: "TARGETDIR", DefaultDir: "."},
				"APPDIR":             {Parent: "LocalAppDataFolder", DefaultDir: "Tool"},
			},
			want: `%LocalAppData%\Tool`,
		},
		{
			name: "key containing installdir",
			dirs: map[string]Directory{
				"TARGETDIR":            {DefaultDir: "SourceDir"},
				"ProgramFiles64Folder": {Parent: "TARGETDIR", DefaultDir: "."},
				"MyInstallDir":         {Parent: "ProgramFiles64Folder", DefaultDir: "Tool"},
			},
			want: `%ProgramFiles%\Tool`,
		},
		{
			name: "only children below targetdir",
			dirs: map[string]Directory{
				"TARGETDIR":            {DefaultDir: "SourceDir"},
				"DesktopFolder":        {Parent: "TARGETDIR", DefaultDir: "Desktop"},
				"ProgramFiles64Folder": {Parent: "TARGETDIR", DefaultDir: "."},
				"Vendor":               {Parent: "ProgramFiles64Folder", DefaultDir: "Vendor"},
				"Product":              {Parent: "Vendor", DefaultDir: "Product"},
				"bin":                  {Parent: "Product", DefaultDir: "bin"},
				"lib":                  {Parent: "Product", DefaultDir: "lib"},
			},
			want: `%ProgramFiles%\Vendor\Product`,
		},
		{
			name: "no directories",
			dirs: map[string]Directory{},
			want: "",
		},
		{
			name: "detached installdir",
			dirs: map[string]Directory{
				"TARGETDIR":  {DefaultDir: "SourceDir"},
				"INSTALLDIR": {Parent: "Nowhere", DefaultDir: "Tool"},
			},
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Package{Directories: tt.dirs, Properties: tt.props}
			assert.Equal(t, tt.want, p.InstallDirectory())
		})
	}
}

func TestLongName(t *testing.T) {
	assert.Equal(t, "Example App", longName("EXAMPL~1|Example App"))
	assert.Equal(t, "Tool", longName("Tool"))
	assert.Equal(t, "Target Dir", longName("TARGET~1|Target Dir:SOURCE~1|Source Dir"))
}

// buildSummary writes a SummaryInformation property set with the given
// ANSI string properties and a code page.
func buildSummary(cp uint16, props map[uint32]string) []byte {
	fmtid := []byte{0xE0, 0x85, 0x9F, 0xF2, 0xF9, 0x4F, 0x68, 0x10, 0xAB, 0x91, 0x08, 0x00, 0x2B, 0x27, 0xB3, 0xD9}

	type entry struct {
		id    uint32
		value []byte
	}
	entries := []entry{{1, []byte{0x02, 0, 0, 0, byte(cp), byte(cp >> 8), 0, 0}}}
	for _, id := range []uint32{2, 6, 7, 0x12} {
		s, ok := props[id]
		if !ok {
			continue
		}
		v := []byte{0x1E, 0, 0, 0}
		v = binary.LittleEndian.AppendUint32(v, uint32(len(s)+1))
		v = append(v, s...)
		v = append(v, 0)
		for len(v)%4 != 0 {
			v = append(v, 0)
		}
		entries = append(entries, entry{id, v})
	}

	var values []byte
	var index []byte
	offset := uint32(8 + 8*len(entries))
	for _, e := range entries {
		index = binary.LittleEndian.AppendUint32(index, e.id)
		index = binary.LittleEndian.AppendUint32(index, offset+uint32(len(values)))
		values = append(values, e.value...)
	}
	section := binary.LittleEndian.AppendUint32(nil, uint32(8+len(index)+len(values)))
	section = binary.LittleEndian.AppendUint32(section, uint32(len(entries)))
	section = append(section, index...)
	section = append(section, values...)

	var out bytes.Buffer
	out.Write([]byte{0xFE, 0xFF, 0, 0})
	out.Write(make([]byte, 4+16))
	_ = binary.Write(&out, binary.LittleEndian, uint32(1))
	out.Write(fmtid)
	_ = binary.Write(&out, binary.LittleEndian, uint32(48))
	out.Write(section)
	return out.Bytes()
}

func TestParseSummary(t *testing.T) {
	stream := buildSummary(1252, map[uint32]string{
		2:    "Installation Database",
		6:    "131.0.6778.86 Copyright",
		7:    "x64;1033",
		0x12: "Windows Installer XML Toolset (3.11.2.4516)",
	})
	sum, err := parseSummary(bytes.NewReader(stream))
	require.NoError(t, err)
	assert.Equal(t, uint32(1252), sum.CodePage)
	assert.Equal(t, "x64;1033", sum.Template)
	assert.Equal(t, "x64", sum.Platform())
	assert.Equal(t, "Windows Installer XML Toolset (3.11.2.4516)", sum.CreatingApplication)
	assert.Equal(t, "131.0.6778.86 Copyright", sum.Comments)
	assert.Equal(t, "Installation Database", sum.Title)
	assert.Empty(t, sum.Author)
}

func TestParseSummaryMalformed(t *testing.T) {
	_, err := parseSummary(bytes.NewReader([]byte{0xFE, 0xFF}))
	assert.ErrorIs(t, err, ErrMalformed)

	stream := buildSummary(1252, map[uint32]string{7: "Intel;1033"})
	_, err = parseSummary(bytes.NewReader(stream[:60]))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestOpenRejectsNonCompoundFile(t *testing.T) {
	_, err := Open(bytes.NewReader([]byte("MZ not a database at all, just some bytes that are long enough")))
	assert.ErrorIs(t, err, ErrNotMsi)
}
