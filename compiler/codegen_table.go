package compiler

import (
	"math"

	"github.com/chazu/mutable/node"
	"github.com/chazu/mutable/op"
	"github.com/chazu/mutable/resource"
)

// ---------------------------------------------------------------------------
// Table driven switches
// ---------------------------------------------------------------------------

type tableVarKey struct {
	table *node.Table
	param string
}

// tableVariable returns the integer parameter selecting a row of the table of
// src. Nodes naming the same parameter of the same table share it.
func (g *codeGenerator) tableVariable(src *node.TableSource) op.Op {
	key := tableVarKey{table: src.Table, param: src.ParameterName}
	if v, ok := g.tableVars[key]; ok {
		return v
	}

	name := src.ParameterName
	if name == "" {
		name = src.Table.Name
	}
	desc := &op.ParamDesc{Name: name, Type: op.ParamInt}
	if src.NoneOption {
		desc.Options = append(desc.Options, op.IntOption{Value: -1, Name: "None"})
		desc.DefaultInt = -1
	}
	for r := range src.Table.Rows {
		rowName, _ := src.Table.RowName(r)
		desc.Options = append(desc.Options, op.IntOption{Value: int32(r), Name: rowName})
		if src.DefaultRowName != "" && rowName == src.DefaultRowName {
			desc.DefaultInt = int32(r)
		}
	}

	p := op.NewParameter(desc)
	g.tableVars[key] = p
	return p
}

// checkTable validates the table of src and returns the column holding the
// values of the node. Problems are logged against ctx.
func (g *codeGenerator) checkTable(ctx node.Node, src *node.TableSource, want node.ColumnType) (int, bool) {
	if src.Table == nil || len(src.Table.Rows) == 0 {
		g.log.Errorf(ctx, "The table has no rows.")
		return -1, false
	}
	col := src.Table.FindColumn(src.ColumnName)
	if col < 0 {
		g.log.Errorf(ctx, "Table column not found.")
		return -1, false
	}
	if src.Table.Columns[col].Type != want {
		g.log.Errorf(ctx, "Table column type is not the right type.")
		return -1, false
	}
	return col, true
}

// defaultTableColor marks a colour cell without a value.
var defaultTableColor = resource.Vec4{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32}

// defaultTableImageID is the reference id of an image cell without a value.
const defaultTableImageID = math.MaxUint32

// defaultTableValue returns the value used when no table row applies.
func defaultTableValue(t node.ColumnType) op.Op {
	switch t {
	case node.ColumnScalar:
		return &op.ConstantScalar{Value: -math.MaxFloat32}
	case node.ColumnColor:
		return &op.ConstantColor{Value: defaultTableColor}
	case node.ColumnImage:
		return &op.ImageReferenceOp{ID: defaultTableImageID}
	case node.ColumnString:
		return &op.ConstantString{}
	}
	return nil
}

// generateTableSwitch builds a switch over the rows of a table, one case per
// row, with the typed default value as fallback.
func (g *codeGenerator) generateTableSwitch(ctx node.Node, src *node.TableSource,
	t node.ColumnType, cat op.Category, cell func(row int, c node.Cell) op.Op) op.Op {

	col, ok := g.checkTable(ctx, src, t)
	if !ok {
		return defaultTableValue(t)
	}

	sw := op.NewSwitch(cat, g.tableVariable(src))
	sw.Default = defaultTableValue(t)
	for r, row := range src.Table.Rows {
		if col >= len(row.Values) {
			continue
		}
		branch := cell(r, row.Values[col])
		if branch == nil {
			continue
		}
		sw.Cases = append(sw.Cases, op.Case{Value: int32(r), Branch: branch})
	}
	return sw
}
