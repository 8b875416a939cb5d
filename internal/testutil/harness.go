package testutil

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vk/brickrun/internal/actor"
	"github.com/vk/brickrun/internal/clock"
	"github.com/vk/brickrun/internal/engine"
	"github.com/vk/brickrun/internal/events"
	"github.com/vk/brickrun/internal/report"
	"github.com/vk/brickrun/internal/scheduler"
	"github.com/vk/brickrun/internal/value"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// Epoch is the instant every harness clock starts at.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Harness runs one program on a virtual clock and records everything it
// emits.
type Harness struct {
	T       *testing.T
	Engine  *engine.Engine
	Clock   *clock.Virtual
	Events  *events.Recorder
	Reports *report.Collector
	Logs    *SafeBuffer
}

// NewHarness loads src into a new engine. Options may adjust the engine
// options before the engine is created; clock, sink, reporter and logger
// are always the harness's own.
func NewHarness(t *testing.T, src string, options ...func(*engine.Options)) *Harness {
	t.Helper()

	h := &Harness{
		T:       t,
		Clock:   clock.NewVirtual(Epoch),
		Events:  &events.Recorder{},
		Reports: &report.Collector{},
		Logs:    &SafeBuffer{},
	}
	seed := uint64(1)
	opts := engine.Options{Seed: &seed}
	for _, o := range options {
		o(&opts)
	}
	opts.Clock = h.Clock
	opts.Sink = h.Events
	opts.Reporter = h.Reports
	opts.Logger = slog.New(slog.NewTextHandler(h.Logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	h.Engine = engine.New(opts)
	require.NoError(t, h.Engine.LoadProgram(LoadProgram(t, src)))
	return h
}

// Start starts the program.
func (h *Harness) Start() {
	h.T.Helper()
	require.NoError(h.T, h.Engine.Start())
}

// Tick runs one tick at the current virtual instant.
func (h *Harness) Tick() scheduler.TickReport {
	return h.Engine.Tick()
}

// Step advances the clock by d and runs one tick.
func (h *Harness) Step(d time.Duration) scheduler.TickReport {
	h.Clock.Advance(d)
	return h.Engine.Tick()
}

// RunFor ticks every frame until total has elapsed.
func (h *Harness) RunFor(total, frame time.Duration) {
	for elapsed := time.Duration(0); elapsed < total; elapsed += frame {
		h.Step(frame)
	}
}

// At returns the virtual instant d after Epoch.
func (h *Harness) At(d time.Duration) time.Time { return Epoch.Add(d) }

// Actor returns a live actor and fails the test if it does not exist.
func (h *Harness) Actor(name string) *actor.Actor {
	h.T.Helper()
	a, ok := h.Engine.Actor(name)
	require.True(h.T, ok, "actor %q does not exist", name)
	return a
}

// Global returns the value of a global variable.
func (h *Harness) Global(name string) value.Value {
	h.T.Helper()
	v, ok := h.Engine.Variables().Global(name, false)
	require.True(h.T, ok, "global %q does not exist", name)
	return v.Get()
}

// Private returns the value of a variable of the named actor.
func (h *Harness) Private(actorName, name string) value.Value {
	h.T.Helper()
	v, ok := h.Engine.Variables().Actor(actorName, name, false)
	require.True(h.T, ok, "variable %q of %q does not exist", name, actorName)
	return v.Get()
}

// List returns the items of a list, resolved like a formula would for the
// named actor.
func (h *Harness) List(actorName, name string) []value.Value {
	h.T.Helper()
	v, ok := h.Engine.Variables().LookupList(actorName, name)
	require.True(h.T, ok, "list %q does not exist for %q", name, actorName)
	return v.Items()
}
