// pkg/version/version.go

// Package version reports build information stamped in with -ldflags, e.g.
//
//	go build -ldflags "-X github.com/windowsadmins/setupinfo/pkg/version.version=1.2.0"
package version

import (
	"fmt"
	"io"
	"runtime"
)

var (
	version   = "dev"
	revision  = "unknown"
	buildDate = "unknown"
	goVersion = runtime.Version()
)

// Info is the build information of the running binary.
type Info struct {
	Version   string `yaml:"version"`
	Revision  string `yaml:"revision"`
	BuildDate string `yaml:"build_date"`
	GoVersion string `yaml:"go_version"`
}

// Version returns the current build information.
func Version() Info {
	return Info{
		Version:   version,
		Revision:  revision,
		BuildDate: buildDate,
		GoVersion: goVersion,
	}
}

// Print writes the application name and version to w.
func Print(w io.Writer, appName string) {
	v := Version()
	fmt.Fprintf(w, "%s version %s (%s, built %s, %s)\n", appName, v.Version, v.Revision, v.BuildDate, v.GoVersion)
}
