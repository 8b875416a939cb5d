package scheduler

import (
	"github.com/vk/brickrun/internal/actor"
)

// Host performs the effects of control bricks that reach beyond the
// scheduler.
type Host interface {
	// CreateClone clones target (or parent itself when target is empty) and
	// registers the clone. Failures are reported by the host.
	CreateClone(parent *actor.Actor, target string)
	// DeleteClone removes a if it is a clone and reports whether it did.
	DeleteClone(a *actor.Actor) bool
	// AllStopped is called once every script has been stopped by a stop-all
	// request.
	AllStopped()
}

// TickReport summarizes one tick.
type TickReport struct {
	Tick uint64
	// Started counts scripts started by queued triggers.
	Started int
	// Ran counts scripts that were stepped.
	Ran int
	// Steps counts bricks executed.
	Steps int
	// Faults counts scripts stopped by a fault.
	Faults int
	// Active counts scripts left Running or Suspended.
	Active int
	Paused bool
}
