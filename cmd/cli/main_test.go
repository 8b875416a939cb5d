package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeProgram(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.hcl")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))
	return path
}

func TestRun_PanicRecovery(t *testing.T) {
	t.Parallel()

	path := writeProgram(t, `
actor "cat" {
  script {
    when = "started"
`)
	out := &bytes.Buffer{}

	err := run(context.Background(), out, []string{path})

	require.Error(t, err)
	require.Contains(t, err.Error(), "application startup panicked")
	require.Contains(t, err.Error(), "failed to parse")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	err := run(context.Background(), out, []string{"-h"})

	require.NoError(t, err)
	require.Contains(t, out.String(), "Usage:")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	err := run(context.Background(), &bytes.Buffer{}, []string{"--this-is-not-a-valid-flag"})

	require.Error(t, err)
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}

func TestRun_VirtualProgram(t *testing.T) {
	t.Parallel()

	path := writeProgram(t, `
variable "greeting" {
  value = ""
}

actor "cat" {
  script {
    when = "started"
    brick "set_variable" {
      variable = "greeting"
      value    = join("hello", " world")
    }
    brick "note" {
      text = "greets once"
    }
  }
}
`)
	out := &bytes.Buffer{}

	err := run(context.Background(), out, []string{"-virtual", "-duration", "1s", "-log-format", "text", path})

	require.NoError(t, err)
	require.Contains(t, out.String(), "Application run finished.")
	require.Contains(t, out.String(), "reason=idle")
}
