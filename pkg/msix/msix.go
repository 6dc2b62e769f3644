// pkg/msix/msix.go

// Package msix reads MSIX and APPX packages and bundles. Both are ZIP
// archives carrying an XML manifest and a signature.
package msix

import (
	"archive/zip"
	"bytes"
	"crypto/sha256"
	"encoding/base32"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf16"

	"github.com/windowsadmins/setupinfo/pkg/logging"
	"github.com/windowsadmins/setupinfo/pkg/manifest"
	"github.com/windowsadmins/setupinfo/pkg/utils"
)

const (
	manifestPath       = "AppxManifest.xml"
	bundleManifestPath = "AppxMetadata/AppxBundleManifest.xml"
	signaturePath      = "AppxSignature.p7x"
)

var (
	ErrNotMsix   = errors.New("not an MSIX or APPX package")
	ErrMalformed = errors.New("malformed MSIX package")
)

// publisherIDEncoding is Crockford's base32 alphabet in lower case.
var publisherIDEncoding = base32.NewEncoding("0123456789abcdefghjkmnpqrstvwxyz").WithPadding(base32.NoPadding)

// Package is a decoded package or bundle.
type Package struct {
	Manifest *AppxManifest
	Bundle   *BundleManifest
	// Members holds the manifests of the application packages of a bundle,
	// keyed by file name.
	Members map[string]*AppxManifest
	// SignatureSha256 is the hash of AppxSignature.p7x, empty if unsigned.
	SignatureSha256 string
}

// Read decodes the package in data.
func Read(data []byte) (*Package, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotMsix, err)
	}

	p := &Package{}
	if f := find(zr, signaturePath); f != nil {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, signaturePath, err)
		}
		p.SignatureSha256, err = utils.ReaderSHA256(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, signaturePath, err)
		}
	}

	if f := find(zr, bundleManifestPath); f != nil {
		p.Bundle = &BundleManifest{}
		if err := decodeXML(f, p.Bundle); err != nil {
			return nil, err
		}
		p.Members = map[string]*AppxManifest{}
		for _, bp := range p.Bundle.Packages {
			if bp.Type != PackageApplication {
				continue
			}
			m, err := memberManifest(zr, bp.FileName)
			if err != nil {
				logging.Debug("Skipping unreadable bundle member", "file", bp.FileName, "error", err)
				continue
			}
			p.Members[bp.FileName] = m
		}
		logging.Debug("MSIX bundle decoded", "name", p.Bundle.Identity.Name, "packages", len(p.Bundle.Packages))
		return p, nil
	}

	f := find(zr, manifestPath)
	if f == nil {
		return nil, ErrNotMsix
	}
	p.Manifest = &AppxManifest{}
	if err := decodeXML(f, p.Manifest); err != nil {
		return nil, err
	}
	logging.Debug("MSIX package decoded", "name", p.Manifest.Identity.Name, "version", p.Manifest.Identity.Version)
	return p, nil
}

// find looks a member up by name, ignoring case and the slash style.
func find(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if strings.EqualFold(strings.ReplaceAll(f.Name, `\`, "/"), name) {
			return f
		}
	}
	return nil
}

func decodeXML(f *zip.File, v interface{}) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformed, f.Name, err)
	}
	defer rc.Close()
	if err := xml.NewDecoder(rc).Decode(v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformed, f.Name, err)
	}
	return nil
}

// memberManifest reads the manifest of a package stored inside a bundle.
func memberManifest(zr *zip.Reader, name string) (*AppxManifest, error) {
	f := find(zr, name)
	if f == nil {
		return nil, fmt.Errorf("%w: missing bundle member %s", ErrMalformed, name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return nil, err
	}
	inner, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	mf := find(inner, manifestPath)
	if mf == nil {
		return nil, fmt.Errorf("%w: %s has no manifest", ErrMalformed, name)
	}
	m := &AppxManifest{}
	if err := decodeXML(mf, m); err != nil {
		return nil, err
	}
	return m, nil
}

// PackageFamilyName is the identity name joined to the publisher id: the
// first 8 bytes of the SHA-256 of the UTF-16LE publisher, in base32.
func PackageFamilyName(name, publisher string) string {
	units := utf16.Encode([]rune(publisher))
	buf := make([]byte, 0, len(units)*2)
	for _, u := range units {
		buf = append(buf, byte(u), byte(u>>8))
	}
	sum := sha256.Sum256(buf)
	return name + "_" + publisherIDEncoding.EncodeToString(sum[:8])
}

func architecture(s string) manifest.Architecture {
	if s == "" {
		return manifest.ArchNeutral
	}
	a, err := manifest.ParseArchitecture(s)
	if err != nil {
		return manifest.ArchNeutral
	}
	return a
}

// identity returns the name, publisher and version the package is known by.
func (p *Package) identity() (name, publisher, version string) {
	if p.Bundle != nil {
		return p.Bundle.Identity.Name, p.Bundle.Identity.Publisher, p.Bundle.Identity.Version
	}
	id := p.Manifest.Identity
	return id.Name, id.Publisher, id.Version
}

// Describe fills the package level fields of an analysis.
func (p *Package) Describe(a *manifest.Analysis) {
	m := p.Manifest
	if p.Bundle != nil {
		for _, bp := range p.Bundle.Packages {
			if member := p.Members[bp.FileName]; member != nil {
				m = member
				break
			}
		}
	}
	_, _, version := p.identity()
	a.Version = version
	if m != nil {
		a.PackageName = m.Properties.DisplayName
		a.Publisher = m.Properties.PublisherDisplayName
	}
}

// Installers returns one installer for a package, or one per application
// package of a bundle. kind is msix or appx.
func (p *Package) Installers(kind manifest.InstallerType) []manifest.Installer {
	name, publisher, _ := p.identity()
	base := manifest.Installer{
		Type:              kind,
		SignatureSha256:   p.SignatureSha256,
		PackageFamilyName: PackageFamilyName(name, publisher),
	}

	if p.Bundle == nil {
		inst := base.Clone()
		inst.Architecture = architecture(p.Manifest.Identity.ProcessorArchitecture)
		applyManifest(&inst, p.Manifest)
		return []manifest.Installer{inst}
	}

	var out []manifest.Installer
	for _, bp := range p.Bundle.Packages {
		if bp.Type != PackageApplication {
			continue
		}
		inst := base.Clone()
		inst.Architecture = architecture(bp.Architecture)
		if m := p.Members[bp.FileName]; m != nil {
			applyManifest(&inst, m)
		}
		out = append(out, inst)
	}
	return out
}

// applyManifest sets platform, minimum OS version and locale.
func applyManifest(inst *manifest.Installer, m *AppxManifest) {
	for _, fam := range m.TargetDeviceFamilies {
		inst.Platform = append(inst.Platform, fam.Name)
		if inst.MinimumOSVersion == "" || manifest.CompareVersions(fam.MinVersion, inst.MinimumOSVersion) < 0 {
			inst.MinimumOSVersion = fam.MinVersion
		}
	}
	for _, r := range m.Resources {
		if r.Language != "" && !strings.HasPrefix(strings.ToLower(r.Language), "x-generate") {
			inst.Locale = r.Language
			break
		}
	}
}
