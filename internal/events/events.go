// Package events is the observable output of the engine: draw commands for
// a renderer and note lifecycle events for an audio engine. The engine never
// calls rendering or audio APIs; it emits events into a Sink.
package events

import (
	"github.com/vk/brickrun/internal/actor"
)

// Event is one entry of the output stream.
type Event interface {
	// Type is a stable snake_case name used on the wire and in logs.
	Type() string
}

// LineSegment is one stroke of a pen trail.
type LineSegment struct {
	Actor      string
	Start, End actor.Point
	Width      float64
	Color      actor.RGBA
}

// ClearCanvas erases every pen trail.
type ClearCanvas struct{}

// ActorMoved reports a changed position or rotation.
type ActorMoved struct {
	Actor    string
	Position actor.Point
	Rotation float64
}

// ActorVisibility reports a changed visibility or size.
type ActorVisibility struct {
	Actor   string
	Visible bool
	Size    float64
}

// ActorCloned reports a new clone.
type ActorCloned struct {
	Actor  string
	Source string
}

// ActorRemoved reports a deleted clone.
type ActorRemoved struct {
	Actor string
}

// NoteStarted asks the audio engine to start a sample.
type NoteStarted struct {
	ID    uint64
	Actor string
	Pitch float64
	Beats float64
	// Instrument is the sample path of the instrument or drum kit.
	Instrument string
	// Drum is set for drum hits.
	Drum string
}

// NoteEnded is emitted when a note's duration has elapsed or it was
// cancelled.
type NoteEnded struct {
	ID         uint64
	Actor      string
	Pitch      float64
	Instrument string
	Cancelled  bool
}

// ProgramStopped is emitted once when every script has been stopped.
type ProgramStopped struct{}

func (LineSegment) Type() string     { return "line_segment" }
func (ClearCanvas) Type() string     { return "clear_canvas" }
func (ActorMoved) Type() string      { return "actor_moved" }
func (ActorVisibility) Type() string { return "actor_visibility" }
func (ActorCloned) Type() string     { return "actor_cloned" }
func (ActorRemoved) Type() string    { return "actor_removed" }
func (NoteStarted) Type() string     { return "note_started" }
func (NoteEnded) Type() string       { return "note_ended" }
func (ProgramStopped) Type() string  { return "program_stopped" }

// Payload flattens e into a map suitable for JSON encoding and structured
// logging. The "type" key is always present.
func Payload(e Event) map[string]any {
	p := map[string]any{"type": e.Type()}
	switch x := e.(type) {
	case LineSegment:
		p["actor"] = x.Actor
		p["start"] = point(x.Start)
		p["end"] = point(x.End)
		p["width"] = x.Width
		p["color"] = []uint8{x.Color.R, x.Color.G, x.Color.B, x.Color.A}
	case ActorMoved:
		p["actor"] = x.Actor
		p["position"] = point(x.Position)
		p["rotation"] = x.Rotation
	case ActorVisibility:
		p["actor"] = x.Actor
		p["visible"] = x.Visible
		p["size"] = x.Size
	case ActorCloned:
		p["actor"] = x.Actor
		p["source"] = x.Source
	case ActorRemoved:
		p["actor"] = x.Actor
	case NoteStarted:
		p["id"] = x.ID
		p["actor"] = x.Actor
		p["pitch"] = x.Pitch
		p["beats"] = x.Beats
		p["instrument"] = x.Instrument
		if x.Drum != "" {
			p["drum"] = x.Drum
		}
	case NoteEnded:
		p["id"] = x.ID
		p["actor"] = x.Actor
		p["pitch"] = x.Pitch
		p["instrument"] = x.Instrument
		p["cancelled"] = x.Cancelled
	}
	return p
}

func point(p actor.Point) []float64 { return []float64{p.X, p.Y} }
