// pkg/extract/exe.go

package extract

import (
	"fmt"
	"strings"

	"github.com/windowsadmins/setupinfo/pkg/inno"
	"github.com/windowsadmins/setupinfo/pkg/logging"
	"github.com/windowsadmins/setupinfo/pkg/manifest"
	"github.com/windowsadmins/setupinfo/pkg/nsis"
	"github.com/windowsadmins/setupinfo/pkg/pe"
)

const burnSection = ".wixburn"

// Version-info text that marks a generic installer rather than a portable app.
var installerKeywords = []string{"installer", "setup", "7zs.sfx", "7zsd.sfx"}

// exeFormat is one installer technology embedded in an executable. parse
// returns an error satisfying IsNotThisFormat when data is not of its kind.
type exeFormat struct {
	name  string
	parse func(data []byte, img *pe.Image, a *manifest.Analysis) error
}

// Tried in order; the first that recognises the file wins.
var exeFormats = []exeFormat{
	{"nsis", nsisMetadata},
	{"inno", innoMetadata},
}

// exeMetadata parses the PE image and analyses it.
func exeMetadata(data []byte) (*manifest.Analysis, error) {
	img, err := pe.Parse(data)
	if err != nil {
		return nil, err
	}
	return analyseImage(data, img)
}

// analyseImage reports a Burn bundle straight away, then tries each
// embedded format before falling back to the version-info keyword heuristic.
func analyseImage(data []byte, img *pe.Image) (*manifest.Analysis, error) {
	a := &manifest.Analysis{
		PackageName: img.Info("ProductName"),
		Publisher:   img.Info("CompanyName"),
		Copyright:   img.Info("LegalCopyright"),
		Version:     img.Info("ProductVersion"),
	}
	arch := machineArchitecture(img.Machine)

	if img.HasSection(burnSection) {
		logging.Debug("Executable is a Burn bundle")
		a.Installers = []manifest.Installer{{Architecture: arch, Type: manifest.TypeBurn}}
		return a, nil
	}

	for _, f := range exeFormats {
		err := f.parse(data, img, a)
		if IsNotThisFormat(err) {
			logging.Debug("Executable is not of this format", "format", f.name)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s installer: %w", f.name, err)
		}
		return a, nil
	}

	inst := manifest.Installer{
		Architecture: arch,
		Type:         fallbackType(img),
	}
	logging.Debug("No embedded installer format recognised", "type", string(inst.Type))
	a.Installers = []manifest.Installer{inst}
	return a, nil
}

func nsisMetadata(data []byte, img *pe.Image, a *manifest.Analysis) error {
	s, err := nsis.Parse(data, img)
	if err != nil {
		return err
	}
	a.Installers = s.Installers()
	return nil
}

func innoMetadata(data []byte, img *pe.Image, a *manifest.Analysis) error {
	s, err := inno.Parse(data, img)
	if err != nil {
		return err
	}
	h := s.Header
	a.PackageName = firstNonEmpty(h.AppName, a.PackageName)
	a.Publisher = firstNonEmpty(h.AppPublisher, a.Publisher)
	a.Copyright = firstNonEmpty(h.AppCopyright, a.Copyright)
	a.Version = firstNonEmpty(h.AppVersion, a.Version)
	a.Installers = s.Installers()
	return nil
}

// fallbackType classifies an executable no parser recognised.
func fallbackType(img *pe.Image) manifest.InstallerType {
	text := strings.ToLower(img.Info("FileDescription") + " " + img.Info("OriginalFilename"))
	for _, k := range installerKeywords {
		if strings.Contains(text, k) {
			return manifest.TypeExe
		}
	}
	return manifest.TypePortable
}

func machineArchitecture(machine uint16) manifest.Architecture {
	switch machine {
	case pe.MachineAMD64:
		return manifest.ArchX64
	case pe.MachineARM64:
		return manifest.ArchArm64
	case pe.MachineARMNT:
		return manifest.ArchArm
	}
	return manifest.ArchX86
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
