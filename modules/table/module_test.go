package table

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/flowgridgo/internal/artifact"
	"github.com/vk/flowgridgo/internal/hooks"
	"github.com/vk/flowgridgo/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func tableInput(v cty.Value) []*artifact.Artifact {
	return []*artifact.Artifact{{Name: "in", Value: v}}
}

func rowsOf(t *testing.T, v cty.Value) []map[string]string {
	t.Helper()
	var rows []map[string]string
	for it := v.ElementIterator(); it.Next(); {
		_, row := it.Element()
		m := make(map[string]string)
		for name := range row.Type().AttributeTypes() {
			m[name] = row.GetAttr(name).AsString()
		}
		rows = append(rows, m)
	}
	return rows
}

func TestCSVLoad(t *testing.T) {
	t.Run("loads header and rows", func(t *testing.T) {
		path := writeCSV(t, "name,total\nalice,30\nbob,25\n")

		v, err := CSVLoad(context.Background(), &registry.Call{
			Node:   "orders",
			Config: map[string]cty.Value{"path": cty.StringVal(path)},
		})
		require.NoError(t, err)

		rows := rowsOf(t, v)
		require.Len(t, rows, 2)
		assert.Equal(t, "alice", rows[0]["name"])
		assert.Equal(t, "30", rows[0]["total"])
		assert.Equal(t, "bob", rows[1]["name"])
	})

	t.Run("header only yields an empty table", func(t *testing.T) {
		path := writeCSV(t, "name,total\n")

		v, err := CSVLoad(context.Background(), &registry.Call{
			Config: map[string]cty.Value{"path": cty.StringVal(path)},
		})
		require.NoError(t, err)
		assert.Equal(t, 0, v.LengthInt())
		assert.True(t, v.Type().ElementType().HasAttribute("name"))
	})

	t.Run("missing path attribute fails", func(t *testing.T) {
		_, err := CSVLoad(context.Background(), &registry.Call{Config: map[string]cty.Value{}})
		assert.ErrorContains(t, err, "'path'")
	})

	t.Run("missing file fails", func(t *testing.T) {
		_, err := CSVLoad(context.Background(), &registry.Call{
			Config: map[string]cty.Value{"path": cty.StringVal("/no/such/file.csv")},
		})
		assert.ErrorContains(t, err, "opening csv file")
	})

	t.Run("empty file fails", func(t *testing.T) {
		path := writeCSV(t, "")
		_, err := CSVLoad(context.Background(), &registry.Call{
			Config: map[string]cty.Value{"path": cty.StringVal(path)},
		})
		assert.ErrorContains(t, err, "header row is required")
	})
}

func TestSelectColumns(t *testing.T) {
	input := cty.ListVal([]cty.Value{
		cty.ObjectVal(map[string]cty.Value{
			"name":  cty.StringVal("alice"),
			"total": cty.StringVal("30"),
			"city":  cty.StringVal("berlin"),
		}),
	})

	t.Run("projects the named columns", func(t *testing.T) {
		v, err := SelectColumns(context.Background(), &registry.Call{
			Node:   "projected",
			Inputs: tableInput(input),
			Config: map[string]cty.Value{"columns": cty.ListVal([]cty.Value{
				cty.StringVal("name"), cty.StringVal("city"),
			})},
		})
		require.NoError(t, err)

		rows := rowsOf(t, v)
		require.Len(t, rows, 1)
		assert.Equal(t, map[string]string{"name": "alice", "city": "berlin"}, rows[0])
	})

	t.Run("unknown column fails", func(t *testing.T) {
		_, err := SelectColumns(context.Background(), &registry.Call{
			Node:   "projected",
			Inputs: tableInput(input),
			Config: map[string]cty.Value{"columns": cty.ListVal([]cty.Value{cty.StringVal("nope")})},
		})
		assert.ErrorContains(t, err, `"nope"`)
	})

	t.Run("requires exactly one input", func(t *testing.T) {
		_, err := SelectColumns(context.Background(), &registry.Call{Node: "projected"})
		assert.ErrorContains(t, err, "exactly one input")
	})
}

func TestRowLimit(t *testing.T) {
	input := cty.ListVal([]cty.Value{
		cty.ObjectVal(map[string]cty.Value{"n": cty.StringVal("1")}),
		cty.ObjectVal(map[string]cty.Value{"n": cty.StringVal("2")}),
		cty.ObjectVal(map[string]cty.Value{"n": cty.StringVal("3")}),
	})

	t.Run("truncates to the limit", func(t *testing.T) {
		v, err := RowLimit(context.Background(), &registry.Call{
			Node:   "top",
			Inputs: tableInput(input),
			Config: map[string]cty.Value{"limit": cty.NumberIntVal(2)},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, v.LengthInt())
	})

	t.Run("limit larger than the table keeps everything", func(t *testing.T) {
		v, err := RowLimit(context.Background(), &registry.Call{
			Node:   "top",
			Inputs: tableInput(input),
			Config: map[string]cty.Value{"limit": cty.NumberIntVal(10)},
		})
		require.NoError(t, err)
		assert.Equal(t, 3, v.LengthInt())
	})

	t.Run("limit zero yields an empty table", func(t *testing.T) {
		v, err := RowLimit(context.Background(), &registry.Call{
			Node:   "top",
			Inputs: tableInput(input),
			Config: map[string]cty.Value{"limit": cty.NumberIntVal(0)},
		})
		require.NoError(t, err)
		assert.Equal(t, 0, v.LengthInt())
	})

	t.Run("tuple input survives truncation", func(t *testing.T) {
		// A literal table in a flow file decodes as a tuple.
		tuple := cty.TupleVal([]cty.Value{
			cty.ObjectVal(map[string]cty.Value{"ticker": cty.StringVal("AAA")}),
			cty.ObjectVal(map[string]cty.Value{"ticker": cty.StringVal("BBB")}),
		})

		v, err := RowLimit(context.Background(), &registry.Call{
			Node:   "top",
			Inputs: tableInput(tuple),
			Config: map[string]cty.Value{"limit": cty.NumberIntVal(1)},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, v.LengthInt())
	})

	t.Run("tuple input truncated to zero rows", func(t *testing.T) {
		tuple := cty.TupleVal([]cty.Value{
			cty.ObjectVal(map[string]cty.Value{"ticker": cty.StringVal("AAA")}),
		})

		var v cty.Value
		var err error
		require.NotPanics(t, func() {
			v, err = RowLimit(context.Background(), &registry.Call{
				Node:   "top",
				Inputs: tableInput(tuple),
				Config: map[string]cty.Value{"limit": cty.NumberIntVal(0)},
			})
		})
		require.NoError(t, err)
		assert.Equal(t, 0, v.LengthInt())
	})

	t.Run("negative limit fails", func(t *testing.T) {
		_, err := RowLimit(context.Background(), &registry.Call{
			Node:   "top",
			Inputs: tableInput(input),
			Config: map[string]cty.Value{"limit": cty.NumberIntVal(-1)},
		})
		assert.ErrorContains(t, err, "must not be negative")
	})
}

func TestModuleRegister(t *testing.T) {
	r := registry.New(hooks.NewManager())
	(&Module{}).Register(r)

	for _, runner := range []string{"csv_load", "select_columns", "row_limit"} {
		_, ok := r.Runner(runner)
		assert.True(t, ok, runner)
	}
}
