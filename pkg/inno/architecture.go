// pkg/inno/architecture.go

package inno

import (
	"strings"
	"unicode"

	"github.com/windowsadmins/setupinfo/pkg/manifest"
)

// archPriority decides which architecture represents a setup that allows
// several.
var archPriority = []manifest.Architecture{
	manifest.ArchX64,
	manifest.ArchArm64,
	manifest.ArchX86,
	manifest.ArchArm,
}

var archFlags = map[string]manifest.Architecture{
	"X86":   manifest.ArchX86,
	"Amd64": manifest.ArchX64,
	"Arm64": manifest.ArchArm64,
}

var archIdentifiers = map[string]manifest.Architecture{
	"arm32compatible": manifest.ArchArm,
	"arm64":           manifest.ArchArm64,
	"win64":           manifest.ArchX64,
	"x64":             manifest.ArchX64,
	"x64compatible":   manifest.ArchX64,
	"x64os":           manifest.ArchX64,
	"x86":             manifest.ArchX86,
	"x86compatible":   manifest.ArchX86,
	"x86os":           manifest.ArchX86,
}

// Architectures maps the header's allowed architectures to one target
// architecture plus the architectures it explicitly excludes. A setup that
// names nothing runs everywhere in 32-bit mode and is reported as x86.
func (h Header) Architectures() (manifest.Architecture, []manifest.Architecture) {
	var allowed, denied map[manifest.Architecture]bool
	if h.ArchitecturesAllowedExpr != "" {
		allowed, denied = parseArchExpr(h.ArchitecturesAllowedExpr)
	} else {
		allowed = map[manifest.Architecture]bool{}
		for name := range h.ArchitecturesAllowed {
			if a, ok := archFlags[name]; ok {
				allowed[a] = true
			}
		}
	}

	arch := manifest.ArchX86
	for _, a := range archPriority {
		if allowed[a] {
			arch = a
			break
		}
	}

	var unsupported []manifest.Architecture
	for _, a := range archPriority {
		if denied[a] && !allowed[a] {
			unsupported = append(unsupported, a)
		}
	}
	return arch, unsupported
}

// parseArchExpr collects the identifiers of a boolean architecture
// expression such as "x64compatible and not arm64". Identifiers preceded by
// "not" are denied, all others allowed.
func parseArchExpr(expr string) (allowed, denied map[manifest.Architecture]bool) {
	allowed = map[manifest.Architecture]bool{}
	denied = map[manifest.Architecture]bool{}

	tokens := strings.FieldsFunc(strings.ToLower(expr), func(r rune) bool {
		return unicode.IsSpace(r) || r == '(' || r == ')'
	})
	negate := false
	for _, tok := range tokens {
		switch tok {
		case "not":
			negate = !negate
			continue
		case "and", "or":
			negate = false
			continue
		}
		if a, ok := archIdentifiers[tok]; ok {
			if negate {
				denied[a] = true
			} else {
				allowed[a] = true
			}
		}
		negate = false
	}
	return allowed, denied
}
