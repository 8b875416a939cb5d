package events_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/vk/brickrun/internal/actor"
	"github.com/vk/brickrun/internal/events"
)

func TestRecorder_Of(t *testing.T) {
	t.Parallel()

	var r events.Recorder
	seg := events.LineSegment{Actor: "cat", End: actor.Point{X: 1, Y: 1}}
	r.Emit(events.ClearCanvas{})
	r.Emit(seg)
	r.Emit(events.ActorRemoved{Actor: "cat#1"})

	require.Len(t, r.Events(), 3)
	require.Equal(t, []events.LineSegment{seg}, events.Of[events.LineSegment](&r))
	require.Empty(t, events.Of[events.NoteEnded](&r))

	r.Reset()
	require.Empty(t, r.Events())
}

func TestFanout(t *testing.T) {
	t.Parallel()

	var a, b events.Recorder
	var seen []string
	f := events.Fanout{&a, nil, &b, events.SinkFunc(func(e events.Event) { seen = append(seen, e.Type()) })}
	f.Emit(events.ProgramStopped{})

	require.Len(t, a.Events(), 1)
	require.Len(t, b.Events(), 1)
	require.Equal(t, []string{"program_stopped"}, seen)
}

func TestChan_DropsWhenFull(t *testing.T) {
	t.Parallel()

	c := events.NewChan(1)
	c.Emit(events.ClearCanvas{})
	c.Emit(events.ClearCanvas{})
	c.Emit(events.ClearCanvas{})
	require.Equal(t, uint64(2), c.Dropped())
	require.Equal(t, events.ClearCanvas{}, <-c.C)
}

func TestPayload(t *testing.T) {
	t.Parallel()

	got := events.Payload(events.LineSegment{
		Actor: "cat",
		Start: actor.Point{X: 0, Y: 0},
		End:   actor.Point{X: 1, Y: 2},
		Width: 3.15,
		Color: actor.DefaultPenColor,
	})
	want := map[string]any{
		"type":  "line_segment",
		"actor": "cat",
		"start": []float64{0, 0},
		"end":   []float64{1, 2},
		"width": 3.15,
		"color": []uint8{0, 0, 255, 255},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}

	require.NotContains(t, events.Payload(events.NoteStarted{Instrument: "1-piano"}), "drum")
}

func TestLogSink(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	events.LogSink{Logger: logger}.Emit(events.ActorCloned{Actor: "cat#1", Source: "cat"})
	require.Contains(t, buf.String(), "type=actor_cloned")
	require.Contains(t, buf.String(), "actor=cat#1")
	require.Contains(t, buf.String(), "source=cat")

	buf.Reset()
	quiet := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	events.LogSink{Logger: quiet}.Emit(events.ClearCanvas{})
	require.Empty(t, buf.String())
}
