package events

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
)

// Sink consumes events. Emit must not block the engine for long.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

// Emit implements Sink.
func (f SinkFunc) Emit(e Event) { f(e) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

// Recorder keeps every event in memory. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Emit implements Sink.
func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Reset forgets recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// Of returns the recorded events of type T, in emission order.
func Of[T Event](r *Recorder) []T {
	var out []T
	for _, e := range r.Events() {
		if t, ok := e.(T); ok {
			out = append(out, t)
		}
	}
	return out
}

// Fanout emits every event to each of its sinks in order.
type Fanout []Sink

// Emit implements Sink.
func (f Fanout) Emit(e Event) {
	for _, s := range f {
		if s != nil {
			s.Emit(e)
		}
	}
}

// LogSink writes events to a structured logger at debug level.
type LogSink struct {
	Logger *slog.Logger
}

// Emit implements Sink.
func (s LogSink) Emit(e Event) {
	if s.Logger == nil || !s.Logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	payload := Payload(e)
	keys := make([]string, 0, len(payload))
	for k := range payload {
		if k != "type" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	args := make([]any, 0, 2*len(keys)+2)
	args = append(args, "type", e.Type())
	for _, k := range keys {
		args = append(args, k, payload[k])
	}
	s.Logger.Debug("Event emitted.", args...)
}

// Chan forwards events to a buffered channel without blocking. Events that
// do not fit are dropped and counted.
type Chan struct {
	C       chan Event
	dropped atomic.Uint64
}

// NewChan returns a Chan with a buffer of size n.
func NewChan(n int) *Chan {
	return &Chan{C: make(chan Event, n)}
}

// Emit implements Sink.
func (c *Chan) Emit(e Event) {
	select {
	case c.C <- e:
	default:
		c.dropped.Add(1)
	}
}

// Dropped returns how many events did not fit in the buffer.
func (c *Chan) Dropped() uint64 { return c.dropped.Load() }
