package engine

import (
	"fmt"

	"github.com/vk/brickrun/internal/actor"
	"github.com/vk/brickrun/internal/events"
	"github.com/vk/brickrun/internal/pen"
	"github.com/vk/brickrun/internal/report"
	"github.com/vk/brickrun/internal/scheduler"
	"github.com/vk/brickrun/internal/script"
)

// host is the scheduler's view of the engine. Its methods run inside a tick
// or a stop request, with the engine mutex already held.
type host Engine

var _ scheduler.Host = (*host)(nil)

func (h *host) engine() *Engine { return (*Engine)(h) }

// CreateClone clones target, or parent when target is empty, and queues the
// clone's `when_cloned` scripts. Failures are reported and fail only the
// clone.
func (h *host) CreateClone(parent *actor.Actor, target string) {
	e := h.engine()
	src := parent
	if target != "" {
		src = e.byName[target]
		if src == nil {
			e.cloneFailed(parent.Name, fmt.Errorf("%w: %q", ErrUnknownActor, target))
			return
		}
	}
	if n := e.cloneCount(); n >= e.maxClones {
		e.cloneFailed(src.Name, fmt.Errorf("clone limit of %d reached", e.maxClones))
		return
	}

	root := src.Name
	if src.IsClone {
		root = src.CloneOf
	}
	e.cloneSeq[root]++
	name := fmt.Sprintf("%s#%d", root, e.cloneSeq[root])

	clone, err := src.Clone(e.vars, name, e.reporter, false)
	if err != nil {
		e.cloneFailed(src.Name, err)
		return
	}
	comp := newCompiler(e, clone)
	for i, s := range clone.Scripts {
		if err := s.Compile(comp); err != nil {
			e.vars.RemoveActor(name)
			e.cloneFailed(src.Name, fmt.Errorf("script %d: %w", i+1, err))
			return
		}
	}
	pen.Reset(clone)

	e.addActor(clone)
	e.sink.Emit(events.ActorCloned{Actor: clone.Name, Source: src.Name})
	e.emitTransform(clone, true)
	e.sched.Trigger(script.Trigger{Kind: script.WhenCloned}, clone)
	e.logger.Debug("Clone created.", "clone", clone.Name, "source", src.Name)
}

// DeleteClone removes a if it is a clone.
func (h *host) DeleteClone(a *actor.Actor) bool {
	if !a.IsClone {
		return false
	}
	e := h.engine()
	e.removeActor(a)
	e.sink.Emit(events.ActorRemoved{Actor: a.Name})
	e.logger.Debug("Clone deleted.", "clone", a.Name)
	return true
}

// AllStopped ends every note, removes every clone and reports the stop.
func (h *host) AllStopped() {
	e := h.engine()
	e.timer.StopAll()
	for _, a := range append([]*actor.Actor(nil), e.actors...) {
		if a.IsClone {
			h.DeleteClone(a)
		}
	}
	e.sink.Emit(events.ProgramStopped{})
	e.logger.Info("Program stopped.", "program", e.name)
}

func (e *Engine) cloneCount() int {
	n := 0
	for _, a := range e.actors {
		if a.IsClone {
			n++
		}
	}
	return n
}

func (e *Engine) cloneFailed(owner string, err error) {
	e.reporter.Report(report.Record{
		Kind:    report.CloneFailure,
		Owner:   owner,
		Message: "create_clone failed",
		Err:     err,
	})
}
