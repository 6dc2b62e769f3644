// pkg/msi/directory.go

package msi

import (
	"sort"
	"strings"

	"github.com/windowsadmins/setupinfo/pkg/manifest"
)

const (
	dirTarget  = "TARGETDIR"
	dirInstall = "INSTALLDIR"
	dirApp     = "APPDIR"
)

// Standard directory properties rewritten to placeholders.
var standardDirs = map[string]string{
	"ProgramFiles64Folder": manifest.DirProgramFiles,
	"ProgramFilesFolder":   manifest.DirProgramFilesX86,
	"CommonFiles64Folder":  manifest.DirCommonProgramFiles,
	"CommonFilesFolder":    manifest.DirCommonProgramFilesX86,
	"AppDataFolder":        manifest.DirAppData,
	"LocalAppDataFolder":   manifest.DirLocalAppData,
	"TempFolder":           manifest.DirTemp,
	"WindowsFolder":        manifest.DirWinDir,
	"CommonAppDataFolder":  manifest.DirProgramData,
	"SystemFolder":         manifest.DirSystemRoot + `\System32`,
}

// Skipped when descending from TARGETDIR to the only child.
var shortcutDirs = map[string]bool{
	"DesktopFolder":     true,
	"ProgramMenuFolder": true,
}

// InstallDirectory returns the default install location. It tries
// INSTALLDIR, the WIXUI_INSTALLDIR property, APPDIR, any directory whose key
// contains INSTALLDIR, and finally the chain of only-children below
// TARGETDIR.
func (p *Package) InstallDirectory() string {
	if dir, ok := p.buildDir(dirInstall, 0); ok {
		return dir
	}
	if key := p.Properties[propWixUIInstallDir]; key != "" {
		if dir, ok := p.buildDir(key, 0); ok {
			return dir
		}
	}
	if dir, ok := p.buildDir(dirApp, 0); ok {
		return dir
	}

	keys := make([]string, 0, len(p.Directories))
	for k := range p.Directories {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.Contains(strings.ToUpper(k), dirInstall) {
			if dir, ok := p.buildDir(k, 0); ok {
				return dir
			}
		}
	}
	return p.onlyChildPath()
}

// buildDir joins the names from TARGETDIR down to key. It fails when key
// does not descend from TARGETDIR.
func (p *Package) buildDir(key string, depth int) (string, bool) {
	if key == dirTarget {
		return "", true
	}
	d, ok := p.Directories[key]
	if !ok || d.Parent == "" || d.Parent == key || depth > len(p.Directories) {
		return "", false
	}
	parent, ok := p.buildDir(d.Parent, depth+1)
	if !ok {
		return "", false
	}
	return joinDir(parent, dirName(key, d)), true
}

func (p *Package) onlyChildPath() string {
	var path string
	current := dirTarget
	for i := 0; i <= len(p.Directories); i++ {
		var only string
		n := 0
		for k, d := range p.Directories {
			if d.Parent == current && k != current && !shortcutDirs[k] {
				only = k
				n++
			}
		}
		if n != 1 {
			break
		}
		current = only
		path = joinDir(path, dirName(only, p.Directories[only]))
	}
	return path
}

func dirName(key string, d Directory) string {
	if rel, ok := standardDirs[key]; ok {
		return rel
	}
	return d.DefaultDir
}

func joinDir(parent, name string) string {
	switch {
	case parent == "":
		return name
	case name == "" || name == ".":
		return parent
	}
	return parent + `\` + name
}
