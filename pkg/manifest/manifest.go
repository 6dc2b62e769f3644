// pkg/manifest/manifest.go

package manifest

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-version"
)

// Architecture is the processor architecture an installer targets.
type Architecture string

const (
	ArchX86     Architecture = "x86"
	ArchX64     Architecture = "x64"
	ArchArm     Architecture = "arm"
	ArchArm64   Architecture = "arm64"
	ArchNeutral Architecture = "neutral"
)

// ParseArchitecture accepts the spellings used by MSI templates, MSIX
// manifests and Inno Setup architecture identifiers.
func ParseArchitecture(s string) (Architecture, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "x86", "intel", "i386", "win32":
		return ArchX86, nil
	case "x64", "amd64", "x86_64", "intel64", "x64compatible", "x64os":
		return ArchX64, nil
	case "arm":
		return ArchArm, nil
	case "arm64", "aarch64":
		return ArchArm64, nil
	case "neutral":
		return ArchNeutral, nil
	}
	return "", fmt.Errorf("unknown architecture %q", s)
}

// Scope is whether an installed application is registered per machine or per user.
// The zero value means the scope is not known.
type Scope string

const (
	ScopeUnspecified Scope = ""
	ScopeMachine     Scope = "machine"
	ScopeUser        Scope = "user"
)

// InstallerType identifies the technology an installer is built with.
type InstallerType string

const (
	TypeInno     InstallerType = "inno"
	TypeNullsoft InstallerType = "nullsoft"
	TypeMsi      InstallerType = "msi"
	TypeWix      InstallerType = "wix"
	TypeMsix     InstallerType = "msix"
	TypeAppx     InstallerType = "appx"
	TypeZip      InstallerType = "zip"
	TypeBurn     InstallerType = "burn"
	TypeExe      InstallerType = "exe"
	TypePortable InstallerType = "portable"
)

// Valid reports whether t is one of the known installer types.
func (t InstallerType) Valid() bool {
	switch t {
	case TypeInno, TypeNullsoft, TypeMsi, TypeWix, TypeMsix, TypeAppx,
		TypeZip, TypeBurn, TypeExe, TypePortable:
		return true
	}
	return false
}

// ElevationRequirement describes whether an installer needs administrative rights.
type ElevationRequirement string

const (
	ElevationUnspecified ElevationRequirement = ""
	ElevationRequired    ElevationRequirement = "elevationRequired"
	ElevationProhibited  ElevationRequirement = "elevationProhibited"
	ElevatesSelf         ElevationRequirement = "elevatesSelf"
)

// InstallerSwitches holds extra command line switches for the installer.
type InstallerSwitches struct {
	Custom string `yaml:"custom,omitempty"`
}

// AppsAndFeaturesEntry is what the installed application registers in the
// OS list of installed programs.
type AppsAndFeaturesEntry struct {
	DisplayName    string        `yaml:"display_name,omitempty"`
	Publisher      string        `yaml:"publisher,omitempty"`
	DisplayVersion string        `yaml:"display_version,omitempty"`
	ProductCode    string        `yaml:"product_code,omitempty"`
	UpgradeCode    string        `yaml:"upgrade_code,omitempty"`
	InstallerType  InstallerType `yaml:"installer_type,omitempty"`
}

// InstallationMetadata carries the default install location.
type InstallationMetadata struct {
	DefaultInstallLocation string `yaml:"default_install_location,omitempty"`
}

// Installer is the normalized metadata extracted from one installer file.
type Installer struct {
	Locale                     string                 `yaml:"installer_locale,omitempty"`
	Platform                   []string               `yaml:"platform,omitempty"`
	MinimumOSVersion           string                 `yaml:"minimum_os_version,omitempty"`
	Architecture               Architecture           `yaml:"architecture"`
	Type                       InstallerType          `yaml:"installer_type"`
	NestedInstallerType        InstallerType          `yaml:"nested_installer_type,omitempty"`
	NestedInstallerFiles       []string               `yaml:"nested_installer_files,omitempty"`
	Scope                      Scope                  `yaml:"scope,omitempty"`
	SignatureSha256            string                 `yaml:"signature_sha256,omitempty"`
	PackageFamilyName          string                 `yaml:"package_family_name,omitempty"`
	ProductCode                string                 `yaml:"product_code,omitempty"`
	UnsupportedOSArchitectures []Architecture         `yaml:"unsupported_os_architectures,omitempty"`
	ElevationRequirement       ElevationRequirement   `yaml:"elevation_requirement,omitempty"`
	Switches                   *InstallerSwitches     `yaml:"installer_switches,omitempty"`
	AppsAndFeaturesEntries     []AppsAndFeaturesEntry `yaml:"apps_and_features_entries,omitempty"`
	InstallationMetadata       *InstallationMetadata  `yaml:"installation_metadata,omitempty"`
}

// Clone returns a deep copy of the installer.
func (i Installer) Clone() Installer {
	c := i
	c.Platform = append([]string(nil), i.Platform...)
	c.NestedInstallerFiles = append([]string(nil), i.NestedInstallerFiles...)
	c.UnsupportedOSArchitectures = append([]Architecture(nil), i.UnsupportedOSArchitectures...)
	c.AppsAndFeaturesEntries = append([]AppsAndFeaturesEntry(nil), i.AppsAndFeaturesEntries...)
	if i.Switches != nil {
		s := *i.Switches
		c.Switches = &s
	}
	if i.InstallationMetadata != nil {
		m := *i.InstallationMetadata
		c.InstallationMetadata = &m
	}
	return c
}

// Analysis is the result of inspecting one file.
type Analysis struct {
	FileName    string      `yaml:"file_name"`
	PackageName string      `yaml:"package_name,omitempty"`
	Publisher   string      `yaml:"publisher,omitempty"`
	Copyright   string      `yaml:"copyright,omitempty"`
	Version     string      `yaml:"version,omitempty"`
	Installers  []Installer `yaml:"installers"`
}

// NormalizeVersion trims whitespace and, when the value parses as a version,
// drops a leading "v". Anything else is returned trimmed but otherwise untouched.
func NormalizeVersion(raw string) string {
	s := strings.TrimSpace(raw)
	v, err := version.NewVersion(s)
	if err != nil {
		return s
	}
	return strings.TrimLeft(v.Original(), "vV")
}

// CompareVersions orders two version strings, falling back to string
// comparison when either is not a valid version.
func CompareVersions(a, b string) int {
	va, errA := version.NewVersion(a)
	vb, errB := version.NewVersion(b)
	if errA != nil || errB != nil {
		return strings.Compare(a, b)
	}
	return va.Compare(vb)
}

// Install location placeholders. Installer-specific directory constants are
// rewritten to these environment-style tokens so locations compare across
// installer technologies.
const (
	DirProgramFiles          = "%ProgramFiles%"
	DirProgramFilesX86       = "%ProgramFiles(x86)%"
	DirCommonProgramFiles    = "%CommonProgramFiles%"
	DirCommonProgramFilesX86 = "%CommonProgramFiles(x86)%"
	DirAppData               = "%AppData%"
	DirLocalAppData          = "%LocalAppData%"
	DirProgramData           = "%ProgramData%"
	DirWinDir                = "%WinDir%"
	DirSystemRoot            = "%SystemRoot%"
	DirTemp                  = "%Temp%"
	DirUserProfile           = "%UserProfile%"
)

// IsPerUserDir reports whether an install location resolves inside the
// user's profile.
func IsPerUserDir(dir string) bool {
	for _, p := range []string{DirAppData, DirLocalAppData, DirUserProfile} {
		if strings.HasPrefix(dir, p) {
			return true
		}
	}
	return false
}
