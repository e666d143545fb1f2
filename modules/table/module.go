// Package table provides the built-in tabular runners: loading CSV files
// and simple projections over the resulting row sets. Tables travel between
// nodes as cty lists of string-attribute objects.
package table

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/vk/flowgridgo/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the tabular runners with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("csv_load", CSVLoad)
	r.RegisterRunner("select_columns", SelectColumns)
	r.RegisterRunner("row_limit", RowLimit)
}

// CSVLoad reads a CSV file named by the 'path' config attribute. The first
// record is the header; every cell is kept as a string.
func CSVLoad(ctx context.Context, call *registry.Call) (cty.Value, error) {
	pathVal, ok := call.Config["path"]
	if !ok || pathVal.Type() != cty.String {
		return cty.NilVal, fmt.Errorf("csv_load requires a string 'path' attribute")
	}
	path := pathVal.AsString()

	f, err := os.Open(path)
	if err != nil {
		return cty.NilVal, fmt.Errorf("opening csv file: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return cty.NilVal, fmt.Errorf("reading csv file %q: %w", path, err)
	}
	if len(records) == 0 {
		return cty.NilVal, fmt.Errorf("csv file %q is empty: a header row is required", path)
	}

	header := records[0]
	rows := make([]cty.Value, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) != len(header) {
			return cty.NilVal, fmt.Errorf("csv file %q: row has %d cells, header has %d", path, len(record), len(header))
		}
		attrs := make(map[string]cty.Value, len(header))
		for i, col := range header {
			attrs[col] = cty.StringVal(record[i])
		}
		rows = append(rows, cty.ObjectVal(attrs))
	}

	return tableVal(header, rows), nil
}

// SelectColumns projects the single input table onto the columns named by
// the 'columns' config attribute, preserving row order.
func SelectColumns(ctx context.Context, call *registry.Call) (cty.Value, error) {
	in, err := singleTableInput(call)
	if err != nil {
		return cty.NilVal, err
	}

	colsVal, ok := call.Config["columns"]
	if !ok || !colsVal.CanIterateElements() {
		return cty.NilVal, fmt.Errorf("select_columns requires a 'columns' list attribute")
	}
	var columns []string
	for it := colsVal.ElementIterator(); it.Next(); {
		_, v := it.Element()
		if v.Type() != cty.String {
			return cty.NilVal, fmt.Errorf("select_columns: column names must be strings")
		}
		columns = append(columns, v.AsString())
	}
	if len(columns) == 0 {
		return cty.NilVal, fmt.Errorf("select_columns: at least one column is required")
	}

	var rows []cty.Value
	for it := in.ElementIterator(); it.Next(); {
		_, row := it.Element()
		attrs := make(map[string]cty.Value, len(columns))
		for _, col := range columns {
			if !row.Type().HasAttribute(col) {
				return cty.NilVal, fmt.Errorf("select_columns: input has no column %q", col)
			}
			attrs[col] = row.GetAttr(col)
		}
		rows = append(rows, cty.ObjectVal(attrs))
	}

	return tableVal(columns, rows), nil
}

// RowLimit truncates the single input table to at most 'limit' rows.
func RowLimit(ctx context.Context, call *registry.Call) (cty.Value, error) {
	in, err := singleTableInput(call)
	if err != nil {
		return cty.NilVal, err
	}

	limitVal, ok := call.Config["limit"]
	if !ok || limitVal.Type() != cty.Number {
		return cty.NilVal, fmt.Errorf("row_limit requires a number 'limit' attribute")
	}
	limit, _ := limitVal.AsBigFloat().Int64()
	if limit < 0 {
		return cty.NilVal, fmt.Errorf("row_limit: limit must not be negative")
	}

	var rows []cty.Value
	for it := in.ElementIterator(); it.Next() && int64(len(rows)) < limit; {
		_, row := it.Element()
		rows = append(rows, row)
	}

	// Literal tables from flow files decode as tuples, not lists; tuples
	// have no single element type, so they stay tuples on the way out.
	if in.Type().IsTupleType() {
		if len(rows) == 0 {
			return cty.EmptyTupleVal, nil
		}
		return cty.TupleVal(rows), nil
	}
	if len(rows) == 0 {
		// Preserve the input's element type for an empty result.
		return cty.ListValEmpty(in.Type().ElementType()), nil
	}
	return cty.ListVal(rows), nil
}

// singleTableInput extracts the one upstream table a projection runner
// operates on.
func singleTableInput(call *registry.Call) (cty.Value, error) {
	if len(call.Inputs) != 1 {
		return cty.NilVal, fmt.Errorf("%s expects exactly one input, got %d", call.Node, len(call.Inputs))
	}
	v := call.Inputs[0].Value
	if !v.CanIterateElements() {
		return cty.NilVal, fmt.Errorf("%s: input is not a table", call.Node)
	}
	return v, nil
}

// tableVal assembles a table value, handling the empty-table case where the
// element type must be derived from the column names.
func tableVal(columns []string, rows []cty.Value) cty.Value {
	if len(rows) > 0 {
		return cty.ListVal(rows)
	}
	attrTypes := make(map[string]cty.Type, len(columns))
	for _, col := range columns {
		attrTypes[col] = cty.String
	}
	return cty.ListValEmpty(cty.Object(attrTypes))
}
