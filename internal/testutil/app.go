package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vk/brickrun/internal/app"
	"github.com/vk/brickrun/internal/hcl_adapter"
	"github.com/vk/brickrun/internal/value"
)

// AppRun is the outcome of RunIntegrationTest.
type AppRun struct {
	App  *app.App
	Logs *SafeBuffer
	Err  error
}

// RunIntegrationTest writes files to a temporary directory and runs them
// through the full application on a virtual clock. Unset fields of cfg
// default to 10 FPS for at most 10 seconds with debug text logs. A startup
// panic is returned as Err.
func RunIntegrationTest(t *testing.T, files map[string]string, cfg app.Config) *AppRun {
	t.Helper()
	cfg.ProgramPath = WriteFiles(t, files)
	cfg.Virtual = true
	if cfg.Duration == 0 {
		cfg.Duration = 10 * time.Second
	}
	if cfg.FPS == 0 {
		cfg.FPS = 10
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "debug"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.Seed == nil {
		seed := uint64(1)
		cfg.Seed = &seed
	}
	valid, err := app.NewConfig(cfg)
	require.NoError(t, err)

	run := &AppRun{Logs: &SafeBuffer{}}
	func() {
		defer func() {
			if r := recover(); r != nil {
				run.Err = fmt.Errorf("application startup panicked: %v", r)
			}
		}()
		run.App = app.NewApp(run.Logs, valid, hcl_adapter.NewLoader())
	}()
	if run.Err != nil {
		return run
	}
	run.Err = run.App.Run(context.Background())
	return run
}

// Global returns the value of a global variable after the run.
func (r *AppRun) Global(t *testing.T, name string) value.Value {
	t.Helper()
	require.NoError(t, r.Err)
	v, ok := r.App.Engine().Variables().Global(name, false)
	require.True(t, ok, "global %q does not exist", name)
	return v.Get()
}

// GlobalList returns the items of a global list after the run.
func (r *AppRun) GlobalList(t *testing.T, name string) []value.Value {
	t.Helper()
	require.NoError(t, r.Err)
	v, ok := r.App.Engine().Variables().Global(name, true)
	require.True(t, ok, "list %q does not exist", name)
	return v.Items()
}
