// pkg/inno/inno.go

// Package inno decodes the setup header of Inno Setup installers and turns
// it into normalized installer metadata. Only the header stream is read;
// file payloads are never decompressed.
package inno

import (
	"fmt"

	"github.com/windowsadmins/setupinfo/pkg/codepage"
	"github.com/windowsadmins/setupinfo/pkg/logging"
	"github.com/windowsadmins/setupinfo/pkg/pe"
)

// Setup is the decoded setup header stream.
type Setup struct {
	Loader      *Loader
	Version     Version
	Compression Compression
	// CodePage decodes non-unicode strings after the language entries.
	CodePage uint32

	Header          Header
	Languages       []Language
	Messages        []Message
	Permissions     [][]byte
	Types           []SetupType
	Components      []Component
	Tasks           []Task
	Directories     []Directory
	Files           []File
	Icons           []Icon
	IniEntries      []IniEntry
	RegistryEntries []RegistryEntry
}

// Parse decodes the setup embedded in data. img is the parsed PE image of
// data, or nil. ErrNotInno means data is not an Inno Setup installer; every
// other error means it is one that cannot be decoded.
func Parse(data []byte, img *pe.Image) (*Setup, error) {
	loader, err := Locate(data, img)
	if err != nil {
		return nil, err
	}

	off := uint64(loader.HeaderOffset)
	if off+VersionLen > uint64(len(data)) {
		return nil, fmt.Errorf("%w: header offset %d beyond end of file", ErrMalformedHeader, off)
	}
	v, err := ParseVersion(data[off : off+VersionLen])
	if err != nil {
		return nil, err
	}
	logging.Debug("Inno Setup header found", "version", v.String(), "offset", off, "loader", loader.LoaderVersion.String())

	r, comp, _, err := openBlock(data[off+VersionLen:], v)
	if err != nil {
		return nil, fmt.Errorf("setup header block: %w", err)
	}

	d := &decoder{src: newSource(r), version: v, codepage: codepage.Western}
	if v.IsUnicode() {
		d.codepage = codepage.UTF16LE
	}

	s := &Setup{Loader: loader, Version: v, Compression: comp, CodePage: d.codepage}
	if err := s.decode(d); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Setup) decode(d *decoder) error {
	v := d.version

	rec, err := d.record(SchemaFor(SectionHeader, v))
	if err != nil {
		return fmt.Errorf("header: %w", err)
	}
	s.Header = newHeader(rec, v)
	c := s.Header.Counts

	recs, err := d.records(SchemaFor(SectionLanguage, v), c.Languages)
	if err != nil {
		return err
	}
	for _, r := range recs {
		s.Languages = append(s.Languages, newLanguage(r, v))
	}
	if !v.IsUnicode() {
		d.codepage = selectCodePage(s.Languages)
		s.CodePage = d.codepage
	}

	if v.Before(4, 0, 0) {
		if err := s.skipWizard(d); err != nil {
			return err
		}
	}

	if recs, err = d.records(SchemaFor(SectionMessage, v), c.Messages); err != nil {
		return err
	}
	for _, r := range recs {
		s.Messages = append(s.Messages, s.newMessage(r))
	}

	if recs, err = d.records(SchemaFor(SectionPermission, v), c.Permissions); err != nil {
		return err
	}
	for _, r := range recs {
		s.Permissions = append(s.Permissions, r.Bytes("Permissions"))
	}

	if recs, err = d.records(SchemaFor(SectionType, v), c.Types); err != nil {
		return err
	}
	for _, r := range recs {
		s.Types = append(s.Types, newSetupType(r))
	}

	if recs, err = d.records(SchemaFor(SectionComponent, v), c.Components); err != nil {
		return err
	}
	for _, r := range recs {
		s.Components = append(s.Components, newComponent(r))
	}

	if recs, err = d.records(SchemaFor(SectionTask, v), c.Tasks); err != nil {
		return err
	}
	for _, r := range recs {
		s.Tasks = append(s.Tasks, newTask(r))
	}

	if recs, err = d.records(SchemaFor(SectionDirectory, v), c.Directories); err != nil {
		return err
	}
	for _, r := range recs {
		s.Directories = append(s.Directories, newDirectory(r))
	}

	if recs, err = d.records(SchemaFor(SectionFile, v), c.Files); err != nil {
		return err
	}
	for _, r := range recs {
		s.Files = append(s.Files, newFile(r))
	}

	if recs, err = d.records(SchemaFor(SectionIcon, v), c.Icons); err != nil {
		return err
	}
	for _, r := range recs {
		s.Icons = append(s.Icons, newIcon(r))
	}

	if recs, err = d.records(SchemaFor(SectionIni, v), c.IniEntries); err != nil {
		return err
	}
	for _, r := range recs {
		s.IniEntries = append(s.IniEntries, newIniEntry(r))
	}

	if recs, err = d.records(SchemaFor(SectionRegistry, v), c.RegistryEntries); err != nil {
		return err
	}
	for _, r := range recs {
		s.RegistryEntries = append(s.RegistryEntries, d.newRegistryEntry(r))
	}

	logging.Debug("Inno Setup header decoded",
		"app", s.Header.AppName,
		"languages", len(s.Languages),
		"files", len(s.Files),
		"registry", len(s.RegistryEntries))
	return nil
}

// skipWizard consumes the wizard images and, for bzip2 setups, the
// decompressor DLL that older setups store between languages and messages.
func (s *Setup) skipWizard(d *decoder) error {
	if _, err := d.record(SchemaFor(SectionWizard, d.version)); err != nil {
		return fmt.Errorf("wizard: %w", err)
	}
	if s.Header.Options.Has("BzipUsed") || s.Header.CompressMethod == "BZip2" {
		if _, err := d.src.lengthPrefixed(); err != nil {
			return fmt.Errorf("decompressor dll: %w", err)
		}
	}
	return nil
}

// selectCodePage prefers Windows-1252 when any language uses it and falls
// back to the first language's code page.
func selectCodePage(langs []Language) uint32 {
	for _, l := range langs {
		if l.CodePage == codepage.Western {
			return codepage.Western
		}
	}
	if len(langs) > 0 && langs[0].CodePage != 0 {
		return langs[0].CodePage
	}
	return codepage.Western
}

func (s *Setup) newMessage(r Record) Message {
	m := Message{Name: r.Text("Name"), Language: int32(r.Int("Language"))}
	raw := r.Bytes("Value")
	switch {
	case s.Version.IsUnicode():
		m.Value = codepage.DecodeUTF16LE(raw)
	case m.Language >= 0 && int(m.Language) < len(s.Languages):
		m.Value = codepage.Decode(s.Languages[m.Language].CodePage, raw)
	default:
		m.Value = codepage.Decode(s.CodePage, raw)
	}
	return m
}
