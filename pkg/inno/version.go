// pkg/inno/version.go

package inno

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
)

// VersionLen is the size of the NUL padded version string that starts the setup header.
const VersionLen = 64

// Variant distinguishes builds that share a version number.
type Variant uint8

const (
	Unicode Variant = 1 << iota
	ISX
	Bits16
)

// Version identifies the setup data layout of an installer.
type Version struct {
	Major    uint8
	Minor    uint8
	Patch    uint8
	Revision uint8
	Variant  Variant
}

// MaxSupported is the newest layout this package decodes.
var MaxSupported = Version{Major: 6, Minor: 4, Patch: 255}

func ver(major, minor, patch uint8) Version {
	return Version{Major: major, Minor: minor, Patch: patch}
}

func (v Version) key() uint32 {
	return uint32(v.Major)<<24 | uint32(v.Minor)<<16 | uint32(v.Patch)<<8 | uint32(v.Revision)
}

// Compare orders versions by number. The variant does not take part.
func (v Version) Compare(o Version) int {
	a, b := v.key(), o.key()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// AtLeast reports whether v >= major.minor.patch.
func (v Version) AtLeast(major, minor, patch uint8) bool {
	return v.Compare(ver(major, minor, patch)) >= 0
}

// Before reports whether v < major.minor.patch.
func (v Version) Before(major, minor, patch uint8) bool {
	return !v.AtLeast(major, minor, patch)
}

func (v Version) IsUnicode() bool { return v.Variant&Unicode != 0 }
func (v Version) IsISX() bool     { return v.Variant&ISX != 0 }

// Bits is the word size of the setup build, 16 or 32.
func (v Version) Bits() int {
	if v.Variant&Bits16 != 0 {
		return 16
	}
	return 32
}

func (v Version) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Revision != 0 {
		s += fmt.Sprintf(".%d", v.Revision)
	}
	if v.IsUnicode() {
		s += " (unicode)"
	}
	if v.IsISX() {
		s += " (isx)"
	}
	if v.Bits() == 16 {
		s += " (16-bit)"
	}
	return s
}

type knownVersion struct {
	name    string
	version Version
}

func std(name string, major, minor, patch uint8) knownVersion {
	return knownVersion{"Inno Setup Setup Data (" + name + ")", ver(major, minor, patch)}
}

func uni(name string, major, minor, patch uint8) knownVersion {
	k := std(name, major, minor, patch)
	k.name += " (u)"
	k.version.Variant = Unicode
	return k
}

func isx(name string, major, minor, patch, rev uint8) knownVersion {
	return knownVersion{
		"My Inno Setup Extensions Setup Data (" + name + ")",
		Version{Major: major, Minor: minor, Patch: patch, Revision: rev, Variant: ISX},
	}
}

var knownVersions = []knownVersion{
	{"i1.2.10--16\x1a", Version{Major: 1, Minor: 2, Patch: 10, Variant: Bits16}},
	{"i1.2.10--32\x1a", ver(1, 2, 10)},
	std("1.3.3", 1, 3, 3),
	std("1.3.9", 1, 3, 9),
	std("1.3.10", 1, 3, 10),
	isx("1.3.10", 1, 3, 10, 0),
	std("1.3.12", 1, 3, 12),
	std("1.3.21", 1, 3, 21),
	std("1.3.25", 1, 3, 25),
	isx("1.3.24", 1, 3, 24, 0),
	std("2.0.0", 2, 0, 0),
	std("2.0.1", 2, 0, 1),
	std("2.0.2", 2, 0, 2),
	std("2.0.5", 2, 0, 5),
	std("2.0.6a", 2, 0, 6),
	std("2.0.7", 2, 0, 7),
	std("2.0.8", 2, 0, 8),
	std("2.0.11", 2, 0, 11),
	std("2.0.17", 2, 0, 17),
	std("2.0.18", 2, 0, 18),
	std("3.0.0a", 3, 0, 0),
	isx("3.0.0", 3, 0, 0, 0),
	std("3.0.1", 3, 0, 1),
	std("3.0.3", 3, 0, 3),
	isx("3.0.3", 3, 0, 3, 0),
	std("3.0.4", 3, 0, 4),
	isx("3.0.4", 3, 0, 4, 0),
	std("3.0.5", 3, 0, 5),
	isx("3.0.6.1", 3, 0, 6, 1),
	std("4.0.0a", 4, 0, 0),
	std("4.0.1", 4, 0, 1),
	std("4.0.3", 4, 0, 3),
	std("4.0.5", 4, 0, 5),
	std("4.0.9", 4, 0, 9),
	std("4.0.10", 4, 0, 10),
	std("4.0.11", 4, 0, 11),
	std("4.1.0", 4, 1, 0),
	std("4.1.2", 4, 1, 2),
	std("4.1.3", 4, 1, 3),
	std("4.1.4", 4, 1, 4),
	std("4.1.5", 4, 1, 5),
	std("4.1.6", 4, 1, 6),
	std("4.1.8", 4, 1, 8),
	std("4.2.0", 4, 2, 0),
	std("4.2.1", 4, 2, 1),
	std("4.2.2", 4, 2, 2),
	std("4.2.3", 4, 2, 3),
	std("4.2.4", 4, 2, 4),
	std("4.2.5", 4, 2, 5),
	std("4.2.6", 4, 2, 6),
	std("5.0.0", 5, 0, 0),
	std("5.0.1", 5, 0, 1),
	std("5.0.3", 5, 0, 3),
	std("5.0.4", 5, 0, 4),
	std("5.1.0", 5, 1, 0),
	std("5.1.2", 5, 1, 2),
	std("5.1.7", 5, 1, 7),
	std("5.1.10", 5, 1, 10),
	std("5.1.13", 5, 1, 13),
	std("5.2.0", 5, 2, 0),
	std("5.2.1", 5, 2, 1),
	std("5.2.3", 5, 2, 3),
	std("5.2.5", 5, 2, 5),
	uni("5.2.5", 5, 2, 5),
	std("5.3.0", 5, 3, 0),
	uni("5.3.0", 5, 3, 0),
	std("5.3.3", 5, 3, 3),
	uni("5.3.3", 5, 3, 3),
	std("5.3.5", 5, 3, 5),
	uni("5.3.5", 5, 3, 5),
	std("5.3.6", 5, 3, 6),
	uni("5.3.6", 5, 3, 6),
	std("5.3.7", 5, 3, 7),
	uni("5.3.7", 5, 3, 7),
	std("5.3.8", 5, 3, 8),
	uni("5.3.8", 5, 3, 8),
	std("5.3.9", 5, 3, 9),
	uni("5.3.9", 5, 3, 9),
	std("5.3.10", 5, 3, 10),
	uni("5.3.10", 5, 3, 10),
	std("5.4.2", 5, 4, 2),
	uni("5.4.2", 5, 4, 2),
	std("5.5.0", 5, 5, 0),
	uni("5.5.0", 5, 5, 0),
	std("5.5.6", 5, 5, 6),
	uni("5.5.6", 5, 5, 6),
	std("5.5.7", 5, 5, 7),
	uni("5.5.7", 5, 5, 7),
	{"Inno Setup Setup Data (5.5.7) (U)", Version{Major: 5, Minor: 5, Patch: 7, Variant: Unicode}},
	std("5.6.0", 5, 6, 0),
	uni("5.6.0", 5, 6, 0),
	std("5.6.2", 5, 6, 2),
	uni("5.6.2", 5, 6, 2),
	uni("6.0.0", 6, 0, 0),
	uni("6.1.0", 6, 1, 0),
	uni("6.2.0", 6, 2, 0),
	uni("6.3.0", 6, 3, 0),
	uni("6.4.0", 6, 4, 0),
	uni("6.4.2", 6, 4, 2),
	uni("6.4.3", 6, 4, 3),
	uni("6.5.0", 6, 5, 0),
}

var versionsByName = func() map[string]Version {
	m := make(map[string]Version, len(knownVersions))
	for _, k := range knownVersions {
		m[k.name] = k.version
	}
	return m
}()

var versionPattern = regexp.MustCompile(`^(?:My )?Inno Setup (?:Extensions )?Setup Data \((\d+)\.(\d+)\.(\d+)`)

// ParseVersion resolves the version string at the start of the setup header.
// The input is cut at the first NUL. Strings outside the known table are
// rejected with ErrUnknownVersion unless they are recognisably newer than
// MaxSupported, which yields ErrUnsupportedVersion.
func ParseVersion(raw []byte) (Version, error) {
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}
	name := string(raw)

	v, ok := versionsByName[name]
	if !ok {
		if m := versionPattern.FindStringSubmatch(name); m != nil {
			guess := ver(atou8(m[1]), atou8(m[2]), atou8(m[3]))
			if guess.Compare(MaxSupported) > 0 {
				return Version{}, &VersionError{Raw: name, Err: ErrUnsupportedVersion}
			}
		}
		return Version{}, &VersionError{Raw: name, Err: ErrUnknownVersion}
	}
	if v.Compare(MaxSupported) > 0 {
		return Version{}, &VersionError{Raw: name, Err: ErrUnsupportedVersion}
	}
	return v, nil
}

func atou8(s string) uint8 {
	n, err := strconv.Atoi(s)
	if err != nil || n > 255 {
		return 255
	}
	return uint8(n)
}
