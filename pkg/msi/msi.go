// pkg/msi/msi.go

// Package msi reads Windows Installer databases without the Windows
// Installer service: it walks the compound file, decodes the string pool and
// the tables it needs, and turns them into installer metadata.
package msi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/richardlehane/mscfb"

	"github.com/windowsadmins/setupinfo/pkg/locale"
	"github.com/windowsadmins/setupinfo/pkg/logging"
	"github.com/windowsadmins/setupinfo/pkg/manifest"
)

var (
	ErrNotMsi       = errors.New("not a Windows Installer database")
	ErrMalformed    = errors.New("malformed Windows Installer database")
	ErrMissingTable = errors.New("missing Windows Installer table")
	ErrArchitecture = errors.New("unknown Windows Installer architecture")
)

// Package is the decoded subset of an MSI database.
type Package struct {
	Summary    Summary
	Properties map[string]string
	// Directories maps a directory key to its parent and long default name.
	Directories map[string]Directory
	// ControlProperties lists the properties bound to dialog controls.
	ControlProperties map[string]bool
}

// Directory is one row of the Directory table.
type Directory struct {
	Parent     string
	DefaultDir string
}

// Open reads the database in r.
func Open(r io.ReaderAt) (*Package, error) {
	doc, err := mscfb.New(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotMsi, err)
	}

	streams := map[string][]byte{}
	var summary []byte
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		if len(entry.Path) > 0 || entry.Size == 0 {
			continue
		}
		if entry.Name == summaryStream {
			if summary, err = io.ReadAll(entry); err != nil {
				return nil, fmt.Errorf("%w: reading %s: %v", ErrMalformed, summaryStream, err)
			}
			continue
		}
		name := decodeStreamName(entry.Name)
		if !strings.HasPrefix(name, "!") {
			continue
		}
		b, err := io.ReadAll(entry)
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", ErrMalformed, name, err)
		}
		streams[strings.TrimPrefix(name, "!")] = b
	}

	sp, err := parseStringPool(streams["_StringPool"], streams["_StringData"])
	if err != nil {
		return nil, err
	}
	pkg, err := newPackage(streams, sp)
	if err != nil {
		return nil, err
	}
	if summary != nil {
		sum, err := parseSummary(bytes.NewReader(summary))
		if err != nil {
			logging.Debug("Ignoring unreadable summary information", "error", err)
		} else {
			pkg.Summary = sum
		}
	}

	logging.Debug("MSI database decoded",
		"codepage", sp.codepage,
		"strings", len(sp.strings),
		"properties", len(pkg.Properties),
		"directories", len(pkg.Directories),
		"template", pkg.Summary.Template)
	return pkg, nil
}

func newPackage(streams map[string][]byte, sp *stringPool) (*Package, error) {
	cols, err := decodeTable(columnsTable, columnsSchema, streams[columnsTable], sp)
	if err != nil {
		return nil, err
	}
	schema := schemas(cols)
	table := func(name string) (*Table, error) {
		c, ok := schema[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingTable, name)
		}
		return decodeTable(name, c, streams[name], sp)
	}

	pkg := &Package{
		Properties:        map[string]string{},
		Directories:       map[string]Directory{},
		ControlProperties: map[string]bool{},
	}

	props, err := table(propertyTable)
	if err != nil {
		return nil, err
	}
	if k, v := props.Index("Property"), props.Index("Value"); k >= 0 && v >= 0 {
		for _, row := range props.Rows {
			if !row[k].Null {
				pkg.Properties[row[k].Str] = row[v].Str
			}
		}
	}

	if dirs, err := table(directoryTable); err == nil {
		k, p, d := dirs.Index("Directory"), dirs.Index("Directory_Parent"), dirs.Index("DefaultDir")
		if k >= 0 && p >= 0 && d >= 0 {
			for _, row := range dirs.Rows {
				pkg.Directories[row[k].Str] = Directory{Parent: row[p].Str, DefaultDir: longName(row[d].Str)}
			}
		}
	} else if !errors.Is(err, ErrMissingTable) {
		return nil, err
	}

	if ctrl, err := table(controlTable); err == nil {
		if p := ctrl.Index("Property"); p >= 0 {
			for _, row := range ctrl.Rows {
				if !row[p].Null {
					pkg.ControlProperties[row[p].Str] = true
				}
			}
		}
	} else if !errors.Is(err, ErrMissingTable) {
		return nil, err
	}
	return pkg, nil
}

// longName picks the long target name of a "target:source" default dir
// whose parts may be "short|long" pairs.
func longName(s string) string {
	s, _, _ = strings.Cut(s, ":")
	if _, long, ok := strings.Cut(s, "|"); ok {
		return long
	}
	return s
}

// Property names read from the Property table.
const (
	propProductCode     = "ProductCode"
	propProductLanguage = "ProductLanguage"
	propProductName     = "ProductName"
	propProductVersion  = "ProductVersion"
	propManufacturer    = "Manufacturer"
	propUpgradeCode     = "UpgradeCode"
	propAllUsers        = "ALLUSERS"
	propWixUIInstallDir = "WIXUI_INSTALLDIR"
)

// Architecture maps the summary template platform.
func (p *Package) Architecture() (manifest.Architecture, error) {
	switch platform := p.Summary.Platform(); platform {
	case "x64", "Intel64", "AMD64":
		return manifest.ArchX64, nil
	case "Intel", "":
		return manifest.ArchX86, nil
	case "Arm64":
		return manifest.ArchArm64, nil
	case "Arm":
		return manifest.ArchArm, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrArchitecture, platform)
	}
}

// Scope follows the ALLUSERS property: "1" is per machine, "2" depends on
// the installing user, and an empty value is per user. When it is absent
// the install is per user unless a dialog lets the user set it.
func (p *Package) Scope() manifest.Scope {
	v, ok := p.Properties[propAllUsers]
	switch {
	case ok && v == "1":
		return manifest.ScopeMachine
	case ok && v == "2":
		return manifest.ScopeUnspecified
	case ok && v == "":
		return manifest.ScopeUser
	case p.ControlProperties[propAllUsers]:
		return manifest.ScopeUnspecified
	}
	return manifest.ScopeUser
}

// IsWix reports whether the database was built by the WiX toolset.
func (p *Package) IsWix() bool {
	app := strings.ToLower(p.Summary.CreatingApplication)
	if strings.Contains(app, "wix") || strings.Contains(app, "windows installer xml") {
		return true
	}
	for k, v := range p.Properties {
		if strings.Contains(strings.ToLower(k), "wix") || strings.Contains(strings.ToLower(v), "wix") {
			return true
		}
	}
	return false
}

const googleChrome = "Google Chrome"

// DisplayVersion is ProductVersion, except for Google Chrome whose real
// version is the first word of the summary comments.
func (p *Package) DisplayVersion() string {
	if p.Properties[propProductName] == googleChrome {
		if fields := strings.Fields(p.Summary.Comments); len(fields) > 0 && dottedNumbers(fields[0]) {
			return fields[0]
		}
	}
	return p.Properties[propProductVersion]
}

func dottedNumbers(s string) bool {
	for _, part := range strings.Split(s, ".") {
		if _, err := strconv.ParseUint(part, 10, 16); err != nil {
			return false
		}
	}
	return true
}

// Installers synthesizes the normalized installer record.
func (p *Package) Installers() ([]manifest.Installer, error) {
	arch, err := p.Architecture()
	if err != nil {
		return nil, err
	}
	inst := manifest.Installer{
		Architecture: arch,
		Type:         manifest.TypeMsi,
		Scope:        p.Scope(),
		ProductCode:  p.Properties[propProductCode],
	}
	if p.IsWix() {
		inst.Type = manifest.TypeWix
	}
	if lang, err := strconv.ParseUint(p.Properties[propProductLanguage], 10, 16); err == nil {
		inst.Locale = locale.FromLCID(uint32(lang))
	}

	name := p.Properties[propProductName]
	publisher := p.Properties[propManufacturer]
	version := p.DisplayVersion()
	upgrade := p.Properties[propUpgradeCode]
	if name != "" || publisher != "" || version != "" || upgrade != "" {
		inst.AppsAndFeaturesEntries = []manifest.AppsAndFeaturesEntry{{
			DisplayName:    name,
			Publisher:      publisher,
			DisplayVersion: manifest.NormalizeVersion(version),
			ProductCode:    inst.ProductCode,
			UpgradeCode:    upgrade,
		}}
	}
	if dir := p.InstallDirectory(); dir != "" {
		inst.InstallationMetadata = &manifest.InstallationMetadata{DefaultInstallLocation: dir}
	}
	return []manifest.Installer{inst}, nil
}
