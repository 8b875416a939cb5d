package ctxlog_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/brickrun/internal/ctxlog"
)

func TestFromContext(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	ctx := ctxlog.WithLogger(context.Background(), logger)
	require.Same(t, logger, ctxlog.FromContext(ctx))

	ctxlog.FromContext(ctxlog.With(ctx, "file", "main.hcl")).Info("Loaded.")
	assert.Contains(t, buf.String(), "file=main.hcl")
}

func TestFromContext_PanicsWithoutLogger(t *testing.T) {
	t.Parallel()

	assert.PanicsWithValue(t, "ctxlog: logger missing from context", func() {
		ctxlog.FromContext(context.Background())
	})
}
