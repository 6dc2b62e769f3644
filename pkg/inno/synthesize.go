// pkg/inno/synthesize.go

package inno

import (
	"strings"

	"github.com/windowsadmins/setupinfo/pkg/locale"
	"github.com/windowsadmins/setupinfo/pkg/manifest"
)

// uninstallKeySuffix is appended to AppId to form the Uninstall registry key.
const uninstallKeySuffix = "_is1"

const (
	switchAllUsers    = "/ALLUSERS"
	switchCurrentUser = "/CURRENTUSER"
)

const userProgramFiles = manifest.DirLocalAppData + `\Programs`

// dirConstants is searched in order; only the first match is rewritten.
var dirConstants = []struct {
	constant string
	relative string
}{
	{"{win}", manifest.DirWinDir},
	{"{sys}", manifest.DirSystemRoot},
	{"{sysnative}", manifest.DirSystemRoot},
	{"{commonpf}", manifest.DirProgramFiles},
	{"{commonpf32}", manifest.DirProgramFilesX86},
	{"{commonpf64}", manifest.DirProgramFiles},
	{"{commoncf}", manifest.DirCommonProgramFiles},
	{"{commoncf32}", manifest.DirCommonProgramFilesX86},
	{"{commoncf64}", manifest.DirCommonProgramFiles},
	{"{pf}", manifest.DirProgramFiles},
	{"{pf32}", manifest.DirProgramFilesX86},
	{"{pf64}", manifest.DirProgramFiles},
	{"{cf}", manifest.DirCommonProgramFiles},
	{"{cf32}", manifest.DirCommonProgramFilesX86},
	{"{cf64}", manifest.DirCommonProgramFiles},
	{"{autopf}", manifest.DirProgramFiles},
	{"{autopf32}", manifest.DirProgramFilesX86},
	{"{autopf64}", manifest.DirProgramFiles},
	{"{autocf}", manifest.DirCommonProgramFiles},
	{"{autocf32}", manifest.DirCommonProgramFilesX86},
	{"{autocf64}", manifest.DirCommonProgramFiles},
	{"{autoappdata}", manifest.DirAppData},
	{"{localappdata}", manifest.DirLocalAppData},
	{"{userappdata}", manifest.DirAppData},
	{"{commonappdata}", manifest.DirProgramData},
	{"{userpf}", userProgramFiles},
	{"{usercf}", userProgramFiles + `\Common`},
}

// ProductCode derives the Uninstall key name from an AppId. A leading "{{"
// is the script's escape for a literal brace and loses one character.
func ProductCode(appID string) string {
	if strings.HasPrefix(appID, "{{") {
		appID = appID[1:]
	}
	return appID + uninstallKeySuffix
}

// RelativeInstallDir rewrites the first directory constant found in dir to
// its environment placeholder.
func RelativeInstallDir(dir string) string {
	for _, d := range dirConstants {
		if strings.Contains(dir, d.constant) {
			return strings.Replace(dir, d.constant, d.relative, 1)
		}
	}
	return dir
}

// Elevation maps PrivilegesRequired and the allowed overrides to an
// elevation requirement.
func (h Header) Elevation() manifest.ElevationRequirement {
	switch {
	case h.PrivilegesRequired == PrivilegesAdmin, h.PrivilegesRequired == PrivilegesPowerUser:
		return manifest.ElevatesSelf
	case len(h.PrivilegesRequiredOverridesAllowed.Names()) > 0:
		return manifest.ElevatesSelf
	}
	return manifest.ElevationUnspecified
}

// Installers synthesizes the normalized installer records for the setup.
// Setups whose privilege level may be overridden produce a machine record
// and a user record; otherwise scope is only known for per-user default
// directories.
func (s *Setup) Installers() []manifest.Installer {
	h := s.Header
	arch, unsupported := h.Architectures()

	inst := manifest.Installer{
		Architecture:               arch,
		Type:                       manifest.TypeInno,
		UnsupportedOSArchitectures: unsupported,
		ElevationRequirement:       h.Elevation(),
	}
	if len(s.Languages) > 0 {
		inst.Locale = locale.FromLCID(s.Languages[0].ID)
	}

	appID := h.AppID
	if appID == "" {
		appID = h.AppName
	}
	if appID != "" {
		inst.ProductCode = ProductCode(appID)
	}

	dir := RelativeInstallDir(h.DefaultDirName)
	if hasInstallDir(dir) {
		inst.InstallationMetadata = &manifest.InstallationMetadata{DefaultInstallLocation: dir}
	}

	displayName := h.UninstallDisplayName
	if displayName == "" {
		displayName = h.AppName
	}
	if displayName != "" || h.AppPublisher != "" || h.AppVersion != "" {
		inst.AppsAndFeaturesEntries = []manifest.AppsAndFeaturesEntry{{
			DisplayName:    displayName,
			Publisher:      h.AppPublisher,
			DisplayVersion: manifest.NormalizeVersion(h.AppVersion),
			ProductCode:    inst.ProductCode,
		}}
	}

	overrides := h.PrivilegesRequiredOverridesAllowed
	if len(overrides.Names()) > 0 {
		return dualScope(inst, overrides.Has("CommandLine"))
	}
	if manifest.IsPerUserDir(dir) {
		inst.Scope = manifest.ScopeUser
	}
	return []manifest.Installer{inst}
}

// dualScope splits inst into a machine and a user record. The scope
// switches are only attached when they may be given on the command line.
func dualScope(inst manifest.Installer, commandLine bool) []manifest.Installer {
	machine := inst.Clone()
	machine.Scope = manifest.ScopeMachine

	user := inst.Clone()
	user.Scope = manifest.ScopeUser
	user.InstallationMetadata = nil

	if commandLine {
		machine.Switches = &manifest.InstallerSwitches{Custom: switchAllUsers}
		user.Switches = &manifest.InstallerSwitches{Custom: switchCurrentUser}
	}

	return []manifest.Installer{machine, user}
}

// hasInstallDir reports whether dir names a location rather than being
// empty or a single unresolved constant such as "{code:GetDir}".
func hasInstallDir(dir string) bool {
	if dir == "" {
		return false
	}
	if strings.HasPrefix(dir, "{") && strings.HasSuffix(dir, "}") && strings.Count(dir, "{") == 1 {
		return false
	}
	return true
}
