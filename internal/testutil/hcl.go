package testutil

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/brickrun/internal/config"
	"github.com/vk/brickrun/internal/ctxlog"
	"github.com/vk/brickrun/internal/hcl_adapter"
)

// WriteFiles writes files, keyed by relative path, into a fresh temporary
// directory and returns the directory.
func WriteFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return dir
}

// LoadProgram parses a single HCL program source.
func LoadProgram(t *testing.T, src string) *config.Program {
	t.Helper()
	dir := WriteFiles(t, map[string]string{"main.hcl": src})
	ctx := ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	p, err := hcl_adapter.NewLoader().Load(ctx, dir)
	require.NoError(t, err)
	return p
}
