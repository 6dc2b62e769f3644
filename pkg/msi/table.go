// pkg/msi/table.go

package msi

import (
	"encoding/binary"
	"fmt"
	"sort"
)

// Column type bits as stored in the _Columns table.
const (
	typeWidthMask = 0x00FF
	typeValid     = 0x0100
	typeLocalized = 0x0200
	typeString    = 0x0800
	typeNullable  = 0x1000
	typeKey       = 0x2000
	typeTemporary = 0x4000
	intNullBiasI2 = 0x8000
	intNullBiasI4 = 0x80000000
)

const (
	columnsTable   = "_Columns"
	propertyTable  = "Property"
	directoryTable = "Directory"
	controlTable   = "Control"
)

// Column describes one column of a table.
type Column struct {
	Name string
	Type uint16
}

func (c Column) isString() bool { return c.Type&typeString != 0 }

func (c Column) isBinary() bool {
	return c.Type&^typeNullable == typeString|typeValid
}

func (c Column) temporary() bool { return c.Type&typeTemporary != 0 }

// size is the width of one stored cell.
func (c Column) size(refSize int) int {
	switch {
	case c.isBinary():
		return 2
	case c.isString():
		return refSize
	case c.Type&typeWidthMask <= 2:
		return 2
	}
	return 4
}

// Value is one decoded cell.
type Value struct {
	Str   string
	Int   int32
	IsStr bool
	Null  bool
}

// String renders the cell; integers are formatted in decimal.
func (v Value) String() string {
	switch {
	case v.Null:
		return ""
	case v.IsStr:
		return v.Str
	}
	return fmt.Sprint(v.Int)
}

// Table is a decoded table.
type Table struct {
	Name    string
	Columns []Column
	Rows    [][]Value
}

// Index returns the position of a column, or -1.
func (t *Table) Index(name string) int {
	if t == nil {
		return -1
	}
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// columnsSchema is the fixed layout of the _Columns table itself.
var columnsSchema = []Column{
	{"Table", typeValid | typeString | typeKey | 64},
	{"Number", typeValid | typeKey | 2},
	{"Name", typeValid | typeString | 64},
	{"Type", typeValid | 2},
}

// decodeTable reads column-major table data. Temporary columns are not
// stored.
func decodeTable(name string, cols []Column, data []byte, sp *stringPool) (*Table, error) {
	var stored []Column
	rowSize := 0
	for _, c := range cols {
		if c.temporary() {
			continue
		}
		stored = append(stored, c)
		rowSize += c.size(sp.refSize)
	}
	t := &Table{Name: name, Columns: stored}
	if rowSize == 0 || len(data) == 0 {
		return t, nil
	}
	if len(data)%rowSize != 0 {
		return nil, fmt.Errorf("%w: table %s has %d bytes for rows of %d", ErrMalformed, name, len(data), rowSize)
	}

	n := len(data) / rowSize
	t.Rows = make([][]Value, n)
	for i := range t.Rows {
		t.Rows[i] = make([]Value, len(stored))
	}
	base := 0
	for j, c := range stored {
		w := c.size(sp.refSize)
		for i := 0; i < n; i++ {
			t.Rows[i][j] = cell(c, data[base+i*w:base+(i+1)*w], sp)
		}
		base += n * w
	}
	return t, nil
}

func cell(c Column, b []byte, sp *stringPool) Value {
	var raw uint32
	switch len(b) {
	case 2:
		raw = uint32(binary.LittleEndian.Uint16(b))
	case 3:
		raw = uint32(binary.LittleEndian.Uint16(b)) | uint32(b[2])<<16
	default:
		raw = binary.LittleEndian.Uint32(b)
	}
	if raw == 0 {
		return Value{Null: true, IsStr: c.isString()}
	}
	switch {
	case c.isBinary():
		return Value{Int: int32(raw)}
	case c.isString():
		return Value{Str: sp.get(raw), IsStr: true}
	case len(b) == 2:
		return Value{Int: int32(int16(raw ^ intNullBiasI2))}
	}
	return Value{Int: int32(raw ^ intNullBiasI4)}
}

// schemas groups the _Columns rows by table, ordered by column number.
func schemas(columns *Table) map[string][]Column {
	type numbered struct {
		n int32
		c Column
	}
	byTable := map[string][]numbered{}
	for _, row := range columns.Rows {
		if len(row) < 4 {
			continue
		}
		byTable[row[0].Str] = append(byTable[row[0].Str], numbered{
			n: row[1].Int,
			c: Column{Name: row[2].Str, Type: uint16(row[3].Int)},
		})
	}
	out := make(map[string][]Column, len(byTable))
	for name, cols := range byTable {
		sort.Slice(cols, func(i, j int) bool { return cols[i].n < cols[j].n })
		for _, c := range cols {
			out[name] = append(out[name], c.c)
		}
	}
	return out
}
