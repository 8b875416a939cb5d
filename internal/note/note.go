// Package note times the notes and drum hits started by sound bricks.
//
// A TimedNote only knows when it should end. The Timer owns the running
// notes, checks them against the engine clock on every Poll and emits the
// lifecycle events an external audio engine listens to.
package note

import (
	"time"

	"github.com/vk/brickrun/internal/clock"
)

// TimedNote is a one-shot timer for the duration of a note.
type TimedNote struct {
	ID         uint64
	Actor      string
	Pitch      float64
	Beats      float64
	BPM        float64
	Instrument Instrument
	// Drum is set for drum hits; Instrument is then Drums.
	Drum Drum

	fireAt       time.Time
	pauseAt      time.Time
	prePauseFire time.Time
	paused       bool
}

// Duration is beats*60/bpm seconds. A non-positive tempo gives a zero
// duration.
func (n *TimedNote) Duration() time.Duration {
	if !(n.BPM > 0) {
		return 0
	}
	return clock.Seconds(n.Beats * 60 / n.BPM)
}

// Activate schedules the note to end one Duration after now.
func (n *TimedNote) Activate(now time.Time) {
	n.fireAt = now.Add(n.Duration())
	n.paused = false
}

// Pause holds the note. It records the pause instant and the pending fire
// instant, and keeps the note from firing until Resume. Pausing a paused
// note does nothing.
func (n *TimedNote) Pause(now time.Time) {
	if n.paused {
		return
	}
	n.pauseAt = now
	n.prePauseFire = n.fireAt
	n.paused = true
}

// Resume continues a paused note so that it ends after exactly the time
// that was left when it was paused. A note that was never paused is due
// immediately; Resume then reports fireNow.
func (n *TimedNote) Resume(now time.Time) (fireNow bool) {
	if !n.paused {
		return true
	}
	n.fireAt = n.prePauseFire.Add(now.Sub(n.pauseAt))
	n.paused = false
	n.pauseAt, n.prePauseFire = time.Time{}, time.Time{}
	return false
}

// Paused reports whether the note is held.
func (n *TimedNote) Paused() bool { return n.paused }

// FireAt returns the instant the note ends. It is meaningless while paused.
func (n *TimedNote) FireAt() time.Time { return n.fireAt }

// Due reports whether the note should end at now.
func (n *TimedNote) Due(now time.Time) bool {
	return !n.paused && !now.Before(n.fireAt)
}
