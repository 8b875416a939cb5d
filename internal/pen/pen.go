// Package pen turns actor movement into line segments.
//
// Update runs once per tick per actor, after all scripts have run. It draws
// from the position recorded at the previous update to the current one when
// the pen is down, and always records the current position so that moving
// with the pen up never leaves a stale segment behind.
package pen

import (
	"github.com/vk/brickrun/internal/actor"
	"github.com/vk/brickrun/internal/events"
)

// Update emits at most one segment for a and moves its baseline to the
// current position. It reports whether a segment was emitted.
func Update(a *actor.Actor, sink events.Sink) bool {
	p, prev := a.Position, a.Pen.PreviousPosition
	drawn := false
	if a.Pen.Down && p != prev {
		sink.Emit(events.LineSegment{
			Actor: a.Name,
			Start: prev,
			End:   p,
			Width: a.Pen.Size,
			Color: a.Pen.Color,
		})
		drawn = true
	}
	a.Pen.PreviousPosition = p
	return drawn
}

// Reset moves the baseline to the current position without drawing. It is
// used when an actor (re)starts.
func Reset(a *actor.Actor) {
	a.Pen.PreviousPosition = a.Position
}
