// pkg/nsis/strings.go

package nsis

import (
	"encoding/binary"
	"fmt"
	"strings"
	"unicode/utf16"

	"github.com/windowsadmins/setupinfo/pkg/codepage"
)

// maxLangDepth bounds language strings that refer to other language strings.
const maxLangDepth = 8

// builtin variables following $0-$9 and $R0-$R9.
var (
	nsis3Vars = []string{
		"CMDLINE", "INSTDIR", "OUTDIR", "EXEDIR", "LANGUAGE", "TEMP",
		"PLUGINSDIR", "EXEPATH", "EXEFILE", "HWNDPARENT", "_CLICK", "_OUTDIR",
	}
	nsis2Vars = []string{
		"CMDLINE", "INSTDIR", "OUTDIR", "EXEDIR", "LANGUAGE", "TEMP",
		"PLUGINSDIR", "HWNDPARENT", "_CLICK", "_OUTDIR",
	}
)

// Resolver renders strings from one string table. It never fails: an
// unresolvable reference renders as nothing.
type Resolver struct {
	table    []byte
	unicode  bool
	version  Version
	codepage uint32
	lang     []int32
}

// NewResolver returns a resolver over a string table. The table is unicode
// when it starts with a zero UTF-16 unit.
func NewResolver(table []byte, v Version) *Resolver {
	return &Resolver{
		table:    table,
		unicode:  isUnicode(table),
		version:  v,
		codepage: codepage.Western,
	}
}

// Resolve is NewResolver(table, v).Resolve(offset).
func Resolve(table []byte, offset uint32, v Version) string {
	return NewResolver(table, v).Resolve(offset)
}

// SetLanguage supplies the string offsets of a language table, used for
// language references, and the code page for ANSI text.
func (r *Resolver) SetLanguage(offsets []int32, cp uint32) {
	r.lang = offsets
	if cp != 0 {
		r.codepage = cp
	}
}

func (r *Resolver) Unicode() bool { return r.unicode }

func isUnicode(table []byte) bool {
	return len(table) >= 2 && table[0] == 0 && table[1] == 0
}

// Resolve renders the string at a relative offset. Offsets count
// characters, so they are doubled for unicode tables.
func (r *Resolver) Resolve(offset uint32) string {
	return r.resolve(offset, 0)
}

func (r *Resolver) width() int {
	if r.unicode {
		return 2
	}
	return 1
}

func (r *Resolver) resolve(offset uint32, depth int) string {
	pos := int(offset) * r.width()
	if pos < 0 || pos >= len(r.table) {
		return ""
	}

	c := r.version.codes()
	out := &textBuilder{unicode: r.unicode, codepage: r.codepage}
	read := func() (uint16, bool) {
		if r.unicode {
			if pos+2 > len(r.table) {
				return 0, false
			}
			ch := binary.LittleEndian.Uint16(r.table[pos:])
			pos += 2
			return ch, true
		}
		if pos >= len(r.table) {
			return 0, false
		}
		ch := uint16(r.table[pos])
		pos++
		return ch, true
	}

	for {
		ch, ok := read()
		if !ok || ch == 0 {
			break
		}
		if !c.is(ch) {
			out.literal(ch)
			continue
		}

		next, ok := read()
		if !ok || next == 0 {
			break
		}
		if ch == c.skip {
			out.literal(next)
			continue
		}

		raw := next
		if !r.unicode {
			hi, ok := read()
			if !ok {
				break
			}
			raw = next | hi<<8
		}
		switch ch {
		case c.shell:
			out.text(r.shell(raw))
		case c.variable:
			out.text(r.variable(decodeNumber(raw)))
		case c.lang:
			if depth < maxLangDepth {
				out.text(r.language(decodeNumber(raw), depth))
			}
		}
	}
	return out.String()
}

// decodeNumber combines the low seven bits of both bytes of ch.
func decodeNumber(ch uint16) uint16 {
	ch &= 0x7F7F
	return ch&0xFF | (ch>>8)<<7
}

func (r *Resolver) variable(index uint16) string {
	switch {
	case index < 10:
		return fmt.Sprintf("$%d", index)
	case index < 20:
		return fmt.Sprintf("$R%d", index-10)
	}
	builtins := nsis3Vars
	if r.version == NSIS2 {
		builtins = nsis2Vars
	}
	i := int(index) - 20
	if i < len(builtins) {
		return "$" + builtins[i]
	}
	return fmt.Sprintf("$_%d_", i-len(builtins))
}

func (r *Resolver) language(index uint16, depth int) string {
	if int(index) >= len(r.lang) || r.lang[index] < 0 {
		return ""
	}
	return r.resolve(uint32(r.lang[index]), depth+1)
}

// shell renders a shell folder reference. The low byte is the folder for
// the current user, the high byte the all-users fallback. A low byte with
// the top bit set names a registry value under CurrentVersion instead.
func (r *Resolver) shell(raw uint16) string {
	index1, index2 := byte(raw), byte(raw>>8)
	if index1&0x80 != 0 {
		var name string
		switch r.plain(uint32(index1 & 0x3F)) {
		case "ProgramFilesDir":
			name = "$PROGRAMFILES"
		case "CommonFilesDir":
			name = "$COMMONFILES"
		default:
			return ""
		}
		if index1&0x40 != 0 {
			name += "64"
		}
		return name
	}
	if name := shellFolder(index1); name != "" {
		return "$" + name
	}
	if name := shellFolder(index2); name != "" {
		return "$" + name
	}
	return ""
}

// plain reads a NUL terminated string without interpreting special codes.
func (r *Resolver) plain(offset uint32) string {
	pos := int(offset) * r.width()
	if pos >= len(r.table) {
		return ""
	}
	if !r.unicode {
		end := pos
		for end < len(r.table) && r.table[end] != 0 {
			end++
		}
		return string(r.table[pos:end])
	}
	var units []uint16
	for ; pos+2 <= len(r.table); pos += 2 {
		ch := binary.LittleEndian.Uint16(r.table[pos:])
		if ch == 0 {
			break
		}
		units = append(units, ch)
	}
	return string(utf16.Decode(units))
}

// textBuilder collects literal characters and substitutions. ANSI literals
// are decoded with the table's code page when flushed.
type textBuilder struct {
	unicode  bool
	codepage uint32
	sb       strings.Builder
	units    []uint16
	bytes    []byte
}

func (t *textBuilder) literal(ch uint16) {
	if t.unicode {
		t.units = append(t.units, ch)
		return
	}
	t.bytes = append(t.bytes, byte(ch))
}

func (t *textBuilder) text(s string) {
	t.flush()
	t.sb.WriteString(s)
}

func (t *textBuilder) flush() {
	if len(t.units) > 0 {
		t.sb.WriteString(string(utf16.Decode(t.units)))
		t.units = t.units[:0]
	}
	if len(t.bytes) > 0 {
		t.sb.WriteString(codepage.Decode(t.codepage, t.bytes))
		t.bytes = t.bytes[:0]
	}
}

func (t *textBuilder) String() string {
	t.flush()
	return t.sb.String()
}
