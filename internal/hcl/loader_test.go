package hcl

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

// writeFlowFiles writes the given name -> content map into a temp dir and
// returns its path.
func writeFlowFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return dir
}

func TestLoaderLoad(t *testing.T) {
	t.Run("parses inputs and nodes", func(t *testing.T) {
		dir := writeFlowFiles(t, map[string]string{
			"flow.hcl": `
input "raw_path" {
  value = "testdata/orders.csv"
}

node "csv_load" "orders" {
  inputs = ["raw_path"]
  config {
    path = "testdata/orders.csv"
  }
}

node "row_limit" "top_orders" {
  inputs = ["orders"]
  config {
    limit = 5
  }
}
`,
		})

		model, err := NewLoader().Load(context.Background(), dir)
		require.NoError(t, err)
		require.NotNil(t, model.Flow)

		require.Len(t, model.Flow.Inputs, 1)
		assert.Equal(t, "raw_path", model.Flow.Inputs[0].Name)
		assert.Equal(t, "testdata/orders.csv", model.Flow.Inputs[0].Value.AsString())

		require.Len(t, model.Flow.Nodes, 2)

		orders := model.Flow.Nodes[0]
		assert.Equal(t, "csv_load", orders.RunnerType)
		assert.Equal(t, "orders", orders.Name)
		assert.Equal(t, []string{"raw_path"}, orders.Inputs)
		assert.Equal(t, cty.StringVal("testdata/orders.csv"), orders.Config["path"])

		top := model.Flow.Nodes[1]
		assert.Equal(t, "row_limit", top.RunnerType)
		assert.Equal(t, []string{"orders"}, top.Inputs)
		assert.True(t, top.Config["limit"].RawEquals(cty.NumberIntVal(5)))
	})

	t.Run("node without config gets an empty record", func(t *testing.T) {
		dir := writeFlowFiles(t, map[string]string{
			"flow.hcl": `
node "csv_load" "orders" {
}
`,
		})

		model, err := NewLoader().Load(context.Background(), dir)
		require.NoError(t, err)
		require.Len(t, model.Flow.Nodes, 1)
		assert.NotNil(t, model.Flow.Nodes[0].Config)
		assert.Empty(t, model.Flow.Nodes[0].Config)
		assert.Empty(t, model.Flow.Nodes[0].Inputs)
	})

	t.Run("merges multiple files from a directory", func(t *testing.T) {
		dir := writeFlowFiles(t, map[string]string{
			"one.hcl":        `node "csv_load" "a" {}`,
			"nested/two.hcl": `node "csv_load" "b" {}`,
		})

		model, err := NewLoader().Load(context.Background(), dir)
		require.NoError(t, err)
		assert.Len(t, model.Flow.Nodes, 2)
	})

	t.Run("accepts a single file path", func(t *testing.T) {
		dir := writeFlowFiles(t, map[string]string{
			"flow.hcl": `node "csv_load" "a" {}`,
		})

		model, err := NewLoader().Load(context.Background(), filepath.Join(dir, "flow.hcl"))
		require.NoError(t, err)
		assert.Len(t, model.Flow.Nodes, 1)
	})

	t.Run("missing paths are skipped", func(t *testing.T) {
		model, err := NewLoader().Load(context.Background(), "/no/such/path")
		require.NoError(t, err)
		assert.Empty(t, model.Flow.Nodes)
	})

	t.Run("syntax errors are reported with the file name", func(t *testing.T) {
		dir := writeFlowFiles(t, map[string]string{
			"broken.hcl": `node "csv_load" {{{`,
		})

		_, err := NewLoader().Load(context.Background(), dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "broken.hcl")
	})

	t.Run("complex literal values survive translation", func(t *testing.T) {
		dir := writeFlowFiles(t, map[string]string{
			"flow.hcl": `
node "select_columns" "projected" {
  inputs = ["orders"]
  config {
    columns = ["name", "total"]
  }
}
`,
		})

		model, err := NewLoader().Load(context.Background(), dir)
		require.NoError(t, err)
		require.Len(t, model.Flow.Nodes, 1)

		cols := model.Flow.Nodes[0].Config["columns"]
		require.True(t, cols.CanIterateElements())
		var names []string
		for it := cols.ElementIterator(); it.Next(); {
			_, v := it.Element()
			names = append(names, v.AsString())
		}
		assert.Equal(t, []string{"name", "total"}, names)
	})
}
