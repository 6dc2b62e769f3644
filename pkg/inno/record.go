// pkg/inno/record.go

package inno

import (
	"fmt"
	"sort"

	"github.com/windowsadmins/setupinfo/pkg/codepage"
)

// FlagSet holds the names of the flags that are set.
type FlagSet map[string]bool

// Has reports whether the named flag is set.
func (f FlagSet) Has(name string) bool { return f[name] }

// Names returns the set flags in sorted order.
func (f FlagSet) Names() []string {
	var out []string
	for k, ok := range f {
		if ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Record is one decoded entry. Values are string, []byte, uint64, int64 or
// FlagSet depending on the field kind.
type Record struct {
	Section Section
	values  map[string]any
}

func (r Record) Has(name string) bool {
	_, ok := r.values[name]
	return ok
}

func (r Record) Text(name string) string {
	s, _ := r.values[name].(string)
	return s
}

func (r Record) Bytes(name string) []byte {
	b, _ := r.values[name].([]byte)
	return b
}

func (r Record) Uint(name string) uint64 {
	switch v := r.values[name].(type) {
	case uint64:
		return v
	case int64:
		return uint64(v)
	}
	return 0
}

func (r Record) Int(name string) int64 {
	switch v := r.values[name].(type) {
	case int64:
		return v
	case uint64:
		return int64(v)
	}
	return 0
}

func (r Record) Flags(name string) FlagSet {
	f, _ := r.values[name].(FlagSet)
	if f == nil {
		return FlagSet{}
	}
	return f
}

// decoder reads records from a decoded block stream.
type decoder struct {
	src      *source
	version  Version
	codepage uint32
}

func (d *decoder) records(schema Schema, n uint64) ([]Record, error) {
	if n > 1<<20 {
		return nil, fmt.Errorf("%w: %d %s entries", ErrMalformedHeader, n, schema.Section)
	}
	out := make([]Record, 0, n)
	for i := uint64(0); i < n; i++ {
		rec, err := d.record(schema)
		if err != nil {
			return nil, fmt.Errorf("%s entry %d: %w", schema.Section, i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (d *decoder) record(schema Schema) (Record, error) {
	rec := Record{Section: schema.Section, values: make(map[string]any, len(schema.Fields)+len(schema.Defaults))}
	for k, v := range schema.Defaults {
		rec.values[k] = v
	}
	for _, f := range schema.Fields {
		v, err := d.field(f)
		if err != nil {
			return Record{}, fmt.Errorf("%s: %w", f.Name, err)
		}
		rec.values[f.Name] = v
	}
	return rec, nil
}

func (d *decoder) field(f Field) (any, error) {
	s := d.src
	switch f.Kind {
	case KindString, KindAnsi, KindWide:
		b, err := s.lengthPrefixed()
		if err != nil {
			return nil, err
		}
		return d.text(f.Kind, b), nil
	case KindBinary:
		return s.lengthPrefixed()
	case KindBytes:
		return s.bytes(f.Size)
	case KindUint8:
		v, err := s.u8()
		return uint64(v), err
	case KindUint16:
		v, err := s.u16()
		return uint64(v), err
	case KindInt16:
		v, err := s.u16()
		return int64(int16(v)), err
	case KindUint32:
		v, err := s.u32()
		return uint64(v), err
	case KindInt32:
		v, err := s.u32()
		return int64(int32(v)), err
	case KindUint64:
		return s.u64()
	case KindInt64:
		v, err := s.u64()
		return int64(v), err
	case KindCount:
		if d.version.Bits() == 16 {
			v, err := s.u16()
			return uint64(v), err
		}
		v, err := s.u32()
		return uint64(v), err
	case KindEnum:
		v, err := s.u8()
		if err != nil {
			return nil, err
		}
		if int(v) < len(f.Values) {
			return f.Values[v], nil
		}
		if def, ok := f.Default.(string); ok {
			return def, nil
		}
		return f.Values[0], nil
	case KindFlags:
		return d.flags(f.Values)
	}
	return nil, fmt.Errorf("%w: unknown field kind %d", ErrDecode, f.Kind)
}

// flags reads one bit per name, least significant bit first. A 32-bit build
// pads a three byte set to four bytes.
func (d *decoder) flags(names []string) (FlagSet, error) {
	set := FlagSet{}
	var b uint8
	nbytes := 0
	for i, name := range names {
		if i%8 == 0 {
			v, err := d.src.u8()
			if err != nil {
				return nil, err
			}
			b = v
			nbytes++
		}
		if b&(1<<(i%8)) != 0 {
			set[name] = true
		}
	}
	if nbytes == 3 && d.version.Bits() == 32 {
		if _, err := d.src.u8(); err != nil {
			return nil, err
		}
	}
	return set, nil
}

func (d *decoder) text(kind Kind, b []byte) string {
	switch kind {
	case KindWide:
		return codepage.DecodeUTF16LE(b)
	case KindAnsi:
		if d.codepage == codepage.UTF16LE {
			return codepage.Decode(codepage.Western, b)
		}
		return codepage.Decode(d.codepage, b)
	}
	return codepage.Decode(d.codepage, b)
}
