package integration_tests

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/brickrun/internal/app"
	"github.com/vk/brickrun/internal/cli"
	"github.com/vk/brickrun/internal/hcl_adapter"
	"github.com/vk/brickrun/internal/testutil"
	"github.com/vk/brickrun/internal/value"
)

// Test for: parsed flags drive a full run of a program directory
func TestCLI_ParsedConfigRunsProgram(t *testing.T) {
	t.Parallel()

	dir := testutil.WriteFiles(t, map[string]string{"main.hcl": `
variable "roll" {
  value = 0
}

actor "dice" {
  script {
    when = "started"
    brick "set_variable" {
      variable = "roll"
      value    = rand(1, 6)
    }
  }
}
`})

	roll := func() value.Value {
		var out bytes.Buffer
		cfg, exit, err := cli.Parse([]string{"-p", dir, "-virtual", "-duration", "2s", "-seed", "7", "-log-format", "text"}, &out)
		require.NoError(t, err)
		require.False(t, exit)

		a := app.NewApp(&out, cfg, hcl_adapter.NewLoader())
		require.NoError(t, a.Run(context.Background()))
		assert.Contains(t, out.String(), "Application run finished.")

		v, ok := a.Engine().Variables().Global("roll", false)
		require.True(t, ok)
		return v.Get()
	}

	first := roll()
	assert.GreaterOrEqual(t, first.Number(), 1.0)
	assert.LessOrEqual(t, first.Number(), 6.0)
	assert.Equal(t, first, roll(), "the same seed must give the same roll")
}

// Test for: the help text names every option
func TestCLI_DisplaysHelp(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	cfg, exit, err := cli.Parse([]string{"-help"}, &out)

	require.NoError(t, err)
	assert.True(t, exit)
	assert.Nil(t, cfg)
	for _, flag := range []string{"-program", "-fps", "-duration", "-virtual", "-seed", "-publish-url", "-healthcheck-port"} {
		assert.Contains(t, out.String(), flag)
	}
}

// Test for: a single file path is accepted as well as a directory
func TestCLI_SingleFilePath(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "only.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`program "solo" {}`), 0o600))

	cfg, _, err := cli.Parse([]string{path}, &bytes.Buffer{})
	require.NoError(t, err)
	a := app.NewApp(&bytes.Buffer{}, cfg, hcl_adapter.NewLoader())
	assert.Equal(t, "solo", a.Program().Name)
}
