// pkg/inno/schema.go

package inno

// Kind is the wire encoding of a record field.
type Kind uint8

const (
	KindString Kind = iota // u32 length, bytes in the active code page
	KindAnsi               // u32 length, single byte text
	KindWide               // u32 length, UTF-16LE text
	KindBinary             // u32 length, raw bytes
	KindUint8
	KindUint16
	KindInt16
	KindUint32
	KindInt32
	KindUint64
	KindInt64
	KindCount // u16 on 16-bit builds, u32 otherwise
	KindBytes // Size raw bytes
	KindEnum  // one byte indexing Values
	KindFlags // one bit per entry of Values, packed into bytes
)

// Field is one entry of a record layout.
type Field struct {
	Name    string
	Kind    Kind
	Size    int
	Values  []string
	Default any
}

// Section names the record types of the setup header stream, in stream order.
type Section int

const (
	SectionHeader Section = iota
	SectionLanguage
	SectionWizard
	SectionMessage
	SectionPermission
	SectionType
	SectionComponent
	SectionTask
	SectionDirectory
	SectionFile
	SectionIcon
	SectionIni
	SectionRegistry
)

var sectionNames = [...]string{
	"header", "language", "wizard", "message", "permission", "type",
	"component", "task", "directory", "file", "icon", "ini", "registry",
}

func (s Section) String() string {
	if int(s) < len(sectionNames) {
		return sectionNames[s]
	}
	return "unknown"
}

// Schema is the ordered field list of one record type for one version.
// Defaults holds values for fields the version does not store.
type Schema struct {
	Section  Section
	Fields   []Field
	Defaults map[string]any
}

// SchemaFor returns the record layout of a section for a setup version.
// It performs no I/O.
func SchemaFor(section Section, v Version) Schema {
	return build(section, sectionTables[section], v)
}

type predicate func(Version) bool

type flagSpec struct {
	name string
	when predicate
}

type fieldSpec struct {
	Field
	when  predicate
	flags []flagSpec
}

func build(section Section, specs []fieldSpec, v Version) Schema {
	s := Schema{Section: section, Defaults: map[string]any{}}
	present := map[string]bool{}
	for _, spec := range specs {
		if !spec.when(v) {
			continue
		}
		f := spec.Field
		if f.Kind == KindFlags {
			f.Values = nil
			for _, fl := range spec.flags {
				if fl.when(v) {
					f.Values = append(f.Values, fl.name)
				}
			}
		}
		present[f.Name] = true
		s.Fields = append(s.Fields, f)
	}
	for _, spec := range specs {
		if !present[spec.Name] && spec.Default != nil {
			s.Defaults[spec.Name] = spec.Default
		}
	}
	return s
}

func always(Version) bool { return true }

func since(major, minor, patch uint8) predicate {
	return func(v Version) bool { return v.AtLeast(major, minor, patch) }
}

func before(major, minor, patch uint8) predicate {
	return func(v Version) bool { return v.Before(major, minor, patch) }
}

func sinceRevision(major, minor, patch, rev uint8) predicate {
	want := Version{Major: major, Minor: minor, Patch: patch, Revision: rev}
	return func(v Version) bool { return v.Compare(want) >= 0 }
}

func isxSince(major, minor, patch uint8) predicate {
	return func(v Version) bool { return v.IsISX() && v.AtLeast(major, minor, patch) }
}

func isxBuild(v Version) bool  { return v.IsISX() }
func ansiBuild(v Version) bool { return !v.IsUnicode() }
func bits32(v Version) bool    { return v.Bits() != 16 }
func bits16(v Version) bool    { return v.Bits() == 16 }

func and(ps ...predicate) predicate {
	return func(v Version) bool {
		for _, p := range ps {
			if !p(v) {
				return false
			}
		}
		return true
	}
}

func or(ps ...predicate) predicate {
	return func(v Version) bool {
		for _, p := range ps {
			if p(v) {
				return true
			}
		}
		return false
	}
}

func is(major, minor, patch uint8) predicate {
	return func(v Version) bool { return v.Compare(ver(major, minor, patch)) == 0 }
}

func field(name string, kind Kind, when predicate) fieldSpec {
	return fieldSpec{Field: Field{Name: name, Kind: kind}, when: when}
}

func str(name string, when predicate) fieldSpec  { return field(name, KindString, when) }
func ansi(name string, when predicate) fieldSpec { return field(name, KindAnsi, when) }
func wide(name string, when predicate) fieldSpec { return field(name, KindWide, when) }
func bin(name string, when predicate) fieldSpec  { return field(name, KindBinary, when) }
func u8(name string, when predicate) fieldSpec   { return field(name, KindUint8, when) }
func u16(name string, when predicate) fieldSpec  { return field(name, KindUint16, when) }
func i16(name string, when predicate) fieldSpec  { return field(name, KindInt16, when) }
func u32(name string, when predicate) fieldSpec  { return field(name, KindUint32, when) }
func i32(name string, when predicate) fieldSpec  { return field(name, KindInt32, when) }
func u64(name string, when predicate) fieldSpec  { return field(name, KindUint64, when) }
func i64(name string, when predicate) fieldSpec  { return field(name, KindInt64, when) }
func count(name string, when predicate) fieldSpec {
	return field(name, KindCount, when)
}

func raw(name string, size int, when predicate) fieldSpec {
	f := field(name, KindBytes, when)
	f.Size = size
	return f
}

func enum(name string, when predicate, values ...string) fieldSpec {
	f := field(name, KindEnum, when)
	f.Values = values
	return f
}

func flags(name string, when predicate, fs ...flagSpec) fieldSpec {
	f := field(name, KindFlags, when)
	f.flags = fs
	return f
}

func flag(name string, when ...predicate) flagSpec {
	if len(when) == 0 {
		return flagSpec{name: name, when: always}
	}
	return flagSpec{name: name, when: and(when...)}
}

func (f fieldSpec) def(value any) fieldSpec {
	f.Default = value
	return f
}

func join(groups ...[]fieldSpec) []fieldSpec {
	var out []fieldSpec
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func specs(fs ...fieldSpec) []fieldSpec { return fs }
