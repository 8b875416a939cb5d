package note

import (
	"sort"
	"sync"

	"github.com/vk/brickrun/internal/clock"
	"github.com/vk/brickrun/internal/events"
)

// Timer owns the running notes. Notes start on Play and end on the first
// Poll at or after their fire instant, or when cancelled.
type Timer struct {
	clock clock.Clock
	sink  events.Sink

	mu     sync.Mutex
	notes  map[uint64]*TimedNote
	nextID uint64
	paused bool
}

// NewTimer returns a Timer reading time from c and emitting to sink.
func NewTimer(c clock.Clock, sink events.Sink) *Timer {
	if sink == nil {
		sink = events.Discard
	}
	return &Timer{clock: c, sink: sink, notes: make(map[uint64]*TimedNote)}
}

// Play activates n, emits NoteStarted and returns the registered note. If
// the timer is paused the note starts paused.
func (t *Timer) Play(n TimedNote) *TimedNote {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	t.nextID++
	n.ID = t.nextID
	note := &n
	note.Activate(now)
	if t.paused {
		note.Pause(now)
	}
	t.notes[note.ID] = note

	t.sink.Emit(events.NoteStarted{
		ID:         note.ID,
		Actor:      note.Actor,
		Pitch:      note.Pitch,
		Beats:      note.Beats,
		Instrument: note.Instrument.Path(),
		Drum:       note.Drum.String(),
	})
	return note
}

// Pause holds every running note.
func (t *Timer) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.clock.Now()
	t.paused = true
	for _, n := range t.notes {
		n.Pause(now)
	}
}

// Resume continues every held note. Notes that report they are due
// immediately end now.
func (t *Timer) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.clock.Now()
	t.paused = false
	var due []*TimedNote
	for _, n := range t.notes {
		if n.Resume(now) {
			due = append(due, n)
		}
	}
	t.end(due, false)
}

// Cancel ends the note with the given ID early. It reports whether the note
// was running.
func (t *Timer) Cancel(id uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, ok := t.notes[id]
	if !ok {
		return false
	}
	t.end([]*TimedNote{n}, true)
	return true
}

// StopAll cancels every running note.
func (t *Timer) StopAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	all := make([]*TimedNote, 0, len(t.notes))
	for _, n := range t.notes {
		all = append(all, n)
	}
	t.end(all, true)
}

// Poll ends every note that is due and returns how many ended.
func (t *Timer) Poll() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.paused {
		return 0
	}
	now := t.clock.Now()
	var due []*TimedNote
	for _, n := range t.notes {
		if n.Due(now) {
			due = append(due, n)
		}
	}
	t.end(due, false)
	return len(due)
}

// Active returns the number of running notes.
func (t *Timer) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.notes)
}

// end releases notes in (fire instant, ID) order and emits NoteEnded for
// each. The caller holds t.mu.
func (t *Timer) end(notes []*TimedNote, cancelled bool) {
	sort.Slice(notes, func(i, j int) bool {
		a, b := notes[i], notes[j]
		if !a.fireAt.Equal(b.fireAt) {
			return a.fireAt.Before(b.fireAt)
		}
		return a.ID < b.ID
	})
	for _, n := range notes {
		delete(t.notes, n.ID)
		t.sink.Emit(events.NoteEnded{
			ID:         n.ID,
			Actor:      n.Actor,
			Pitch:      n.Pitch,
			Instrument: n.Instrument.Path(),
			Cancelled:  cancelled,
		})
	}
}
