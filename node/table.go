package node

import "github.com/chazu/mutable/resource"

// ColumnType is the value type stored in a table column.
type ColumnType uint8

const (
	ColumnNone ColumnType = iota
	ColumnScalar
	ColumnColor
	ColumnMesh
	ColumnImage
	ColumnString
)

func (t ColumnType) String() string {
	switch t {
	case ColumnScalar:
		return "scalar"
	case ColumnColor:
		return "color"
	case ColumnMesh:
		return "mesh"
	case ColumnImage:
		return "image"
	case ColumnString:
		return "string"
	}
	return "none"
}

type Column struct {
	Name string
	Type ColumnType
}

// Cell holds one table value. Only the field matching the column type is
// meaningful.
type Cell struct {
	Scalar float32
	Color  resource.Vec4
	Mesh   *resource.Mesh
	Image  *resource.Image
	String string
}

type Row struct {
	ID     uint32
	Values []Cell
}

// Table is a typed row/column data source.
type Table struct {
	Name    string
	Columns []Column
	Rows    []Row
}

// FindColumn returns the index of the named column, or -1.
func (t *Table) FindColumn(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// RowName returns the name of row r, taken from the first string column.
// The second result is false when the table has no string column.
func (t *Table) RowName(r int) (string, bool) {
	for i, c := range t.Columns {
		if c.Type == ColumnString {
			return t.Rows[r].Values[i].String, true
		}
	}
	return "", false
}

// TableSource is embedded by every table-driven node.
type TableSource struct {
	Table      *Table
	ColumnName string
	// ParameterName names the generated parameter. The table name is used
	// when empty.
	ParameterName  string
	NoneOption     bool
	DefaultRowName string
}
