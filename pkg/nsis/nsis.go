// pkg/nsis/nsis.go

// Package nsis reads the header of Nullsoft installers: it locates the first
// header, decompresses the installer header and renders its encoded strings.
package nsis

import (
	"strings"

	"github.com/windowsadmins/setupinfo/pkg/codepage"
	"github.com/windowsadmins/setupinfo/pkg/locale"
	"github.com/windowsadmins/setupinfo/pkg/logging"
	"github.com/windowsadmins/setupinfo/pkg/manifest"
	"github.com/windowsadmins/setupinfo/pkg/pe"
)

// Setup is a decoded NSIS installer header.
type Setup struct {
	FirstHeader FirstHeader
	Compression Compression
	Solid       bool
	Version     Version
	Header      *Header
	Strings     []byte
	Languages   []LanguageTable
	// InstallDir is the rendered default install directory.
	InstallDir string

	resolver *Resolver
}

// Parse decodes the installer header in data. img is the parsed PE image of
// data, or nil; the search starts at its overlay. ErrNotNsis means no first
// header was found.
func Parse(data []byte, img *pe.Image) (*Setup, error) {
	var start int64
	if img != nil {
		start = img.OverlayOffset
	}
	fh, ok := findFirstHeader(data, start)
	if !ok && start != 0 {
		fh, ok = findFirstHeader(data, 0)
	}
	if !ok {
		return nil, ErrNotNsis
	}

	raw, method, solid, err := readHeader(data, fh)
	if err != nil {
		return nil, err
	}
	hdr, err := parseHeader(raw)
	if err != nil {
		return nil, err
	}
	table, err := hdr.Strings()
	if err != nil {
		return nil, err
	}
	langs, err := hdr.LanguageTables()
	if err != nil {
		return nil, err
	}

	s := &Setup{
		FirstHeader: fh,
		Compression: method,
		Solid:       solid,
		Version:     DetectVersion(table),
		Header:      hdr,
		Strings:     table,
		Languages:   langs,
	}
	s.resolver = NewResolver(table, s.Version)
	if len(langs) > 0 {
		s.resolver.SetLanguage(langs[0].Strings, codepage.ForLanguage(uint32(langs[0].ID)))
	}
	s.InstallDir = s.resolver.Resolve(hdr.InstallDirPtr)

	logging.Debug("NSIS header decoded",
		"offset", fh.Offset,
		"compression", string(method),
		"solid", solid,
		"version", s.Version.String(),
		"unicode", s.resolver.Unicode(),
		"install_dir", s.InstallDir)
	return s, nil
}

// Resolve renders the string at a relative offset of the string table.
func (s *Setup) Resolve(offset uint32) string {
	return s.resolver.Resolve(offset)
}

// dirVariables is searched in order; only the first match is rewritten.
var dirVariables = []struct {
	variable string
	relative string
}{
	{"$PROGRAMFILES64", manifest.DirProgramFiles},
	{"$PROGRAMFILES_COMMONX86", manifest.DirCommonProgramFilesX86},
	{"$PROGRAMFILES_COMMON", manifest.DirCommonProgramFiles},
	{"$PROGRAMFILESX86", manifest.DirProgramFilesX86},
	{"$PROGRAMFILES", manifest.DirProgramFilesX86},
	{"$COMMONFILES64", manifest.DirCommonProgramFiles},
	{"$COMMONFILES", manifest.DirCommonProgramFilesX86},
	{"$LOCALAPPDATA", manifest.DirLocalAppData},
	{"$APPDATA", manifest.DirAppData},
	{"$WINDIR", manifest.DirWinDir},
	{"$SYSDIR", manifest.DirSystemRoot + `\System32`},
	{"$TEMP", manifest.DirTemp},
	{"$PROFILE", manifest.DirUserProfile},
}

// RelativeInstallDir rewrites the first folder variable in dir to its
// environment placeholder.
func RelativeInstallDir(dir string) string {
	for _, d := range dirVariables {
		if strings.Contains(dir, d.variable) {
			return strings.Replace(dir, d.variable, d.relative, 1)
		}
	}
	return dir
}

// Installers synthesizes the normalized installer record.
func (s *Setup) Installers() []manifest.Installer {
	inst := manifest.Installer{
		Architecture: manifest.ArchX86,
		Type:         manifest.TypeNullsoft,
	}
	if strings.Contains(s.InstallDir, "$PROGRAMFILES64") || strings.Contains(s.InstallDir, "$COMMONFILES64") {
		inst.Architecture = manifest.ArchX64
	}
	if len(s.Languages) > 0 {
		inst.Locale = locale.FromLCID(uint32(s.Languages[0].ID))
	}
	if s.InstallDir != "" {
		dir := RelativeInstallDir(s.InstallDir)
		inst.InstallationMetadata = &manifest.InstallationMetadata{DefaultInstallLocation: dir}
		if manifest.IsPerUserDir(dir) {
			inst.Scope = manifest.ScopeUser
		}
	}
	return []manifest.Installer{inst}
}
