package inno

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windowsadmins/setupinfo/pkg/codepage"
	"github.com/windowsadmins/setupinfo/pkg/manifest"
)

const unicode640 = "Inno Setup Setup Data (6.4.0) (u)"

func sampleStream(t *testing.T, v Version) []byte {
	t.Helper()
	header := encodeRecord(t, SchemaFor(SectionHeader, v), v, map[string]any{
		"AppName":                            "Example App",
		"AppVerName":                         "Example App 1.2.3",
		"AppId":                              "{{8C5E1A2B-1111-2222-3333-444455556666}",
		"AppCopyright":                       "(c) Example Corp",
		"AppPublisher":                       "Example Corp",
		"AppVersion":                         "1.2.3",
		"DefaultDirName":                     `{autopf}\Example App`,
		"ArchitecturesAllowedExpr":           "x64compatible and not arm64",
		"NumLanguageEntries":                 1,
		"NumCustomMessageEntries":            1,
		"NumRegistryEntries":                 1,
		"PrivilegesRequired":                 "Admin",
		"PrivilegesRequiredOverridesAllowed": FlagSet{"CommandLine": true, "Dialog": true},
		"CompressMethod":                     "LZMA2",
		"Options":                            FlagSet{"CreateAppDir": true, "WizardResizable": true},
	})
	lang := encodeRecord(t, SchemaFor(SectionLanguage, v), v, map[string]any{
		"Name":           "english",
		"LanguageName":   "English",
		"DialogFontName": "Segoe UI",
		"LanguageID":     0x0409,
	})
	msg := encodeRecord(t, SchemaFor(SectionMessage, v), v, map[string]any{
		"Name":     "Greeting",
		"Value":    utf16le("Hello"),
		"Language": -1,
	})
	reg := encodeRecord(t, SchemaFor(SectionRegistry, v), v, map[string]any{
		"Subkey":    `Software\Example`,
		"ValueName": "InstallPath",
		"ValueData": utf16le(`{app}`),
		"RootKey":   uint32(0x80000002),
		"Typ":       "String",
		"Options":   FlagSet{"UninsDeleteValue": true},
	})
	return bytes.Join([][]byte{header, lang, msg, reg}, nil)
}

func TestParseEndToEnd(t *testing.T) {
	v, err := ParseVersion([]byte(unicode640))
	require.NoError(t, err)

	for _, compress := range []bool{false, true} {
		name := "stored"
		if compress {
			name = "lzma"
		}
		t.Run(name, func(t *testing.T) {
			data := container(t, unicode640, encodeBlock(t, sampleStream(t, v), compress))

			s, err := Parse(data, nil)
			require.NoError(t, err)
			assert.Equal(t, v, s.Version)
			assert.Equal(t, codepage.UTF16LE, s.CodePage)
			assert.Equal(t, ChecksumCRC32, s.Loader.ExeChecksumKind)
			assert.Equal(t, uint32(0x200), s.Loader.HeaderOffset)
			if compress {
				assert.IsType(t, LZMA1{}, s.Compression)
			} else {
				assert.IsType(t, Stored{}, s.Compression)
			}

			h := s.Header
			assert.Equal(t, "Example App", h.AppName)
			assert.Equal(t, "Example Corp", h.AppPublisher)
			assert.Equal(t, "(c) Example Corp", h.AppCopyright)
			assert.Equal(t, PrivilegesAdmin, h.PrivilegesRequired)
			assert.Equal(t, "LZMA2", h.CompressMethod)
			assert.True(t, h.Options.Has("WizardResizable"))
			assert.Equal(t, "Example App 1.2.3", h.UninstallDisplayName)

			require.Len(t, s.Languages, 1)
			assert.Equal(t, "English", s.Languages[0].LanguageName)
			assert.Equal(t, uint32(0x0409), s.Languages[0].ID)
			require.Len(t, s.Messages, 1)
			assert.Equal(t, Message{Name: "Greeting", Value: "Hello", Language: -1}, s.Messages[0])
			require.Len(t, s.RegistryEntries, 1)
			reg := s.RegistryEntries[0]
			assert.Equal(t, HiveLocalMachine, reg.Hive)
			assert.Equal(t, "HKLM", reg.Hive.String())
			assert.Equal(t, "{app}", reg.Text)
			assert.True(t, reg.Options.Has("UninsDeleteValue"))

			installers := s.Installers()
			require.Len(t, installers, 2)
			machine, user := installers[0], installers[1]
			for _, inst := range installers {
				assert.Equal(t, manifest.TypeInno, inst.Type)
				assert.Equal(t, manifest.ArchX64, inst.Architecture)
				assert.Equal(t, []manifest.Architecture{manifest.ArchArm64}, inst.UnsupportedOSArchitectures)
				assert.Equal(t, "{8C5E1A2B-1111-2222-3333-444455556666}_is1", inst.ProductCode)
				assert.Equal(t, "en-US", inst.Locale)
				assert.Equal(t, manifest.ElevatesSelf, inst.ElevationRequirement)
			}
			assert.Equal(t, manifest.ScopeMachine, machine.Scope)
			assert.Equal(t, "/ALLUSERS", machine.Switches.Custom)
			require.NotNil(t, machine.InstallationMetadata)
			assert.Equal(t, `%ProgramFiles%\Example App`, machine.InstallationMetadata.DefaultInstallLocation)
			assert.Equal(t, manifest.ScopeUser, user.Scope)
			assert.Equal(t, "/CURRENTUSER", user.Switches.Custom)
			assert.Nil(t, user.InstallationMetadata)

			require.Len(t, machine.AppsAndFeaturesEntries, 1)
			assert.Equal(t, manifest.AppsAndFeaturesEntry{
				DisplayName:    "Example App 1.2.3",
				Publisher:      "Example Corp",
				DisplayVersion: "1.2.3",
				ProductCode:    "{8C5E1A2B-1111-2222-3333-444455556666}_is1",
			}, machine.AppsAndFeaturesEntries[0])
		})
	}
}

func TestParseAnsiSetup(t *testing.T) {
	const name = "Inno Setup Setup Data (5.5.0)"
	v, err := ParseVersion([]byte(name))
	require.NoError(t, err)
	require.False(t, v.IsUnicode())

	header := encodeRecord(t, SchemaFor(SectionHeader, v), v, map[string]any{
		"AppName":              []byte("Caf\xe9"),
		"AppVersion":           "2.0",
		"DefaultDirName":       `{localappdata}\Cafe`,
		"ArchitecturesAllowed": FlagSet{"X86": true, "Amd64": true},
		"NumLanguageEntries":   1,
		"PrivilegesRequired":   "Lowest",
	})
	lang := encodeRecord(t, SchemaFor(SectionLanguage, v), v, map[string]any{
		"Name":             "german",
		"LanguageName":     "Deutsch",
		"LanguageID":       0x0407,
		"LanguageCodePage": 1252,
	})
	stream := append(header, lang...)

	s, err := Parse(container(t, name, encodeBlock(t, stream, false)), nil)
	require.NoError(t, err)
	assert.Equal(t, "Café", s.Header.AppName)
	assert.Equal(t, codepage.Western, s.CodePage)

	installers := s.Installers()
	require.Len(t, installers, 1)
	inst := installers[0]
	assert.Equal(t, manifest.ArchX64, inst.Architecture)
	assert.Equal(t, manifest.ScopeUser, inst.Scope)
	assert.Equal(t, "de-DE", inst.Locale)
	assert.Equal(t, "Café_is1", inst.ProductCode)
	assert.Equal(t, `%LocalAppData%\Cafe`, inst.InstallationMetadata.DefaultInstallLocation)
}

func TestParseNotInno(t *testing.T) {
	_, err := Parse(make([]byte, 1024), nil)
	assert.ErrorIs(t, err, ErrNotInno)

	_, err = Parse([]byte("MZ"), nil)
	assert.ErrorIs(t, err, ErrNotInno)
}

func TestParseChecksumMismatch(t *testing.T) {
	v, err := ParseVersion([]byte(unicode640))
	require.NoError(t, err)
	block := encodeBlock(t, sampleStream(t, v), false)

	t.Run("block header", func(t *testing.T) {
		bad := append([]byte(nil), block...)
		bad[0] ^= 0xff
		s, err := Parse(container(t, unicode640, bad), nil)
		assert.Nil(t, s)
		assert.ErrorIs(t, err, ErrChecksumMismatch)
		var ce *ChecksumError
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, "block header", ce.Region)
	})

	t.Run("chunk", func(t *testing.T) {
		bad := append([]byte(nil), block...)
		bad[len(bad)-1] ^= 0xff
		s, err := Parse(container(t, unicode640, bad), nil)
		assert.Nil(t, s)
		assert.ErrorIs(t, err, ErrChecksumMismatch)
	})

	t.Run("offset table", func(t *testing.T) {
		data := container(t, unicode640, block)
		data[0x100+12] ^= 0xff
		_, err := Parse(data, nil)
		assert.ErrorIs(t, err, ErrChecksumMismatch)
	})
}

func TestParseVersionErrors(t *testing.T) {
	data := container(t, "Inno Setup Setup Data (9.9.9) (u)", nil)
	_, err := Parse(data, nil)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)

	data = container(t, "Something else entirely", nil)
	_, err = Parse(data, nil)
	assert.ErrorIs(t, err, ErrUnknownVersion)
}

func TestParseTruncated(t *testing.T) {
	v, err := ParseVersion([]byte(unicode640))
	require.NoError(t, err)
	stream := sampleStream(t, v)
	block := encodeBlock(t, stream[:len(stream)/2], false)

	_, err = Parse(container(t, unicode640, block), nil)
	assert.ErrorIs(t, err, ErrTruncated)

	full := encodeBlock(t, stream, false)
	_, err = Parse(container(t, unicode640, full[:len(full)-10]), nil)
	assert.ErrorIs(t, err, ErrMalformedHeader)
}
