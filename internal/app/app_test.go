package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/flowgridgo/internal/executor"
	"github.com/vk/flowgridgo/internal/hcl"
	"github.com/vk/flowgridgo/internal/registry"
	"github.com/vk/flowgridgo/internal/testutil"
	"github.com/vk/flowgridgo/modules/logging"
	"github.com/vk/flowgridgo/modules/table"
)

// harnessResult holds the outcome of one integration run.
type harnessResult struct {
	Result    *executor.Result
	Err       error
	LogOutput string
}

// testModules avoids the metrics module: registering its collectors on the
// process-wide Prometheus registry would collide across test cases.
func testModules() []registry.Module {
	return []registry.Module{&logging.Module{}, &table.Module{}}
}

// runFlow writes the given HCL files into a temp dir and runs the app over
// them. Startup panics are converted into errors.
func runFlow(t *testing.T, files map[string]string, mutate func(*Config)) *harnessResult {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}

	cfg, err := NewConfig(Config{
		FlowPath:  dir,
		LogLevel:  "debug",
		LogFormat: "text",
	})
	require.NoError(t, err)
	if mutate != nil {
		mutate(cfg)
	}

	logBuffer := &testutil.SafeBuffer{}

	var testApp *App
	var panicErr any
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicErr = r
			}
		}()
		testApp = NewApp(logBuffer, cfg, hcl.NewLoader(), testModules()...)
	}()
	if panicErr != nil {
		return &harnessResult{
			Err:       fmt.Errorf("application startup panicked | %v", panicErr),
			LogOutput: logBuffer.String(),
		}
	}

	result, runErr := testApp.RunFlow(context.Background())
	return &harnessResult{Result: result, Err: runErr, LogOutput: logBuffer.String()}
}

// csvFixture is a small orders table used across the integration tests.
const csvFixture = "name,total,city\nalice,30,berlin\nbob,25,lisbon\ncarol,40,berlin\n"

func pipelineHCL(csvPath string) string {
	return fmt.Sprintf(`
node "csv_load" "orders" {
  config {
    path = %q
  }
}

node "select_columns" "names" {
  inputs = ["orders"]
  config {
    columns = ["name", "city"]
  }
}

node "row_limit" "top" {
  inputs = ["names"]
  config {
    limit = 2
  }
}
`, csvPath)
}

func TestAppRunsPipeline(t *testing.T) {
	csvPath := filepath.Join(t.TempDir(), "orders.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(csvFixture), 0644))

	res := runFlow(t, map[string]string{"flow.hcl": pipelineHCL(csvPath)}, nil)
	require.NoError(t, res.Err)
	require.NotNil(t, res.Result)

	assert.Equal(t, executor.StatusCompleted, res.Result.Status)
	assert.Equal(t, []string{"orders", "names", "top"}, res.Result.ExecutedSteps)

	top, ok := res.Result.Artifacts.Get("top")
	require.True(t, ok)
	assert.Equal(t, 2, top.Value.LengthInt())

	assert.Contains(t, res.LogOutput, "Flow completed.")
}

func TestAppPersistentCacheAcrossRuns(t *testing.T) {
	csvPath := filepath.Join(t.TempDir(), "orders.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(csvFixture), 0644))
	cachePath := filepath.Join(t.TempDir(), "cache.db")

	files := map[string]string{"flow.hcl": pipelineHCL(csvPath)}
	withCache := func(c *Config) { c.CachePath = cachePath }

	first := runFlow(t, files, withCache)
	require.NoError(t, first.Err)
	for _, m := range first.Result.Nodes {
		assert.False(t, m.Cached)
	}

	// A brand new app process sees the same cache file: every node hits.
	second := runFlow(t, files, withCache)
	require.NoError(t, second.Err)
	for name, m := range second.Result.Nodes {
		assert.True(t, m.Cached, name)
	}
	assert.Contains(t, second.LogOutput, "satisfied from cache")
}

func TestAppStartupErrors(t *testing.T) {
	t.Run("unknown runner type fails validation", func(t *testing.T) {
		res := runFlow(t, map[string]string{
			"flow.hcl": `node "no_such_runner" "x" {}`,
		}, nil)
		require.Error(t, res.Err)
		assert.Contains(t, res.Err.Error(), "startup panicked")
		assert.Contains(t, res.Err.Error(), "no_such_runner")
	})

	t.Run("unparseable flow fails load", func(t *testing.T) {
		res := runFlow(t, map[string]string{
			"flow.hcl": `node "csv_load" {{{`,
		}, nil)
		require.Error(t, res.Err)
		assert.Contains(t, res.Err.Error(), "startup panicked")
	})
}

func TestAppRunFailures(t *testing.T) {
	t.Run("cycle is reported", func(t *testing.T) {
		res := runFlow(t, map[string]string{
			"flow.hcl": `
node "csv_load" "x" {
  inputs = ["y"]
}
node "csv_load" "y" {
  inputs = ["x"]
}
`,
		}, nil)
		require.Error(t, res.Err)
		assert.Contains(t, res.Err.Error(), "cycle")
		assert.Contains(t, res.Err.Error(), "x")
		assert.Contains(t, res.Err.Error(), "y")
	})

	t.Run("unknown input is reported", func(t *testing.T) {
		res := runFlow(t, map[string]string{
			"flow.hcl": `
node "csv_load" "orders" {
  inputs = ["nonexistent"]
}
`,
		}, nil)
		require.Error(t, res.Err)
		assert.Contains(t, res.Err.Error(), "nonexistent")
	})

	t.Run("node failure surfaces with FAILED status", func(t *testing.T) {
		res := runFlow(t, map[string]string{
			"flow.hcl": `
node "csv_load" "orders" {
  config {
    path = "/no/such/file.csv"
  }
}
`,
		}, nil)
		require.Error(t, res.Err)
		require.NotNil(t, res.Result)
		assert.Equal(t, executor.StatusFailed, res.Result.Status)
	})
}

func TestNewConfig(t *testing.T) {
	t.Run("requires a flow path", func(t *testing.T) {
		_, err := NewConfig(Config{})
		assert.ErrorContains(t, err, "flow path")
	})

	t.Run("applies defaults", func(t *testing.T) {
		cfg, err := NewConfig(Config{FlowPath: "x"})
		require.NoError(t, err)
		assert.Equal(t, 1, cfg.Workers)
		assert.Equal(t, "json", cfg.LogFormat)
		assert.Equal(t, "info", cfg.LogLevel)
	})

	t.Run("rejects invalid values", func(t *testing.T) {
		_, err := NewConfig(Config{FlowPath: "x", LogFormat: "xml"})
		assert.Error(t, err)
		_, err = NewConfig(Config{FlowPath: "x", LogLevel: "loud"})
		assert.Error(t, err)
	})
}
