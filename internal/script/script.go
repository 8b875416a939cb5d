// Package script turns a brick sequence into something the scheduler can
// run a slice at a time.
//
// A Script is compiled once into a tree of ops. Running it keeps an explicit
// frame stack, so a script can stop at a suspension point (a wait, the end of
// a loop iteration, a broadcast-and-wait) and pick up exactly there on a later
// tick. Everything between two suspension points runs to completion in one
// call to Step.
package script

import (
	"fmt"
	"time"

	"github.com/vk/brickrun/internal/brick"
)

// TriggerKind is the event that starts a script.
type TriggerKind int

const (
	WhenStarted TriggerKind = iota
	WhenBroadcast
	WhenTapped
	WhenCollision
	WhenCloned
)

var triggerNames = map[TriggerKind]string{
	WhenStarted:   "when_started",
	WhenBroadcast: "when_broadcast",
	WhenTapped:    "when_tapped",
	WhenCollision: "when_collision",
	WhenCloned:    "when_cloned",
}

// String returns the program-file name of the trigger.
func (k TriggerKind) String() string {
	if s, ok := triggerNames[k]; ok {
		return s
	}
	return fmt.Sprintf("trigger(%d)", int(k))
}

// ParseTriggerKind is the inverse of TriggerKind.String.
func ParseTriggerKind(s string) (TriggerKind, bool) {
	for k, name := range triggerNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// Trigger describes when a script starts.
type Trigger struct {
	Kind TriggerKind
	// Message is the broadcast a WhenBroadcast script listens for.
	Message string
	// Target is the actor a WhenCollision script reacts to. Empty matches
	// any actor.
	Target string
}

// Matches reports whether an event described by ev starts a script with
// trigger t.
func (t Trigger) Matches(ev Trigger) bool {
	if t.Kind != ev.Kind {
		return false
	}
	switch t.Kind {
	case WhenBroadcast:
		return t.Message == ev.Message
	case WhenCollision:
		return t.Target == "" || t.Target == ev.Target
	default:
		return true
	}
}

// State is the lifecycle state of a script.
type State int

const (
	Idle State = iota
	Running
	Suspended
	Finished
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Suspended:
		return "suspended"
	case Finished:
		return "finished"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Active reports whether a script in state s still has work to do.
func (s State) Active() bool { return s == Running || s == Suspended }

// SuspendKind says what a suspended script is waiting for.
type SuspendKind int

const (
	// NextTick resumes on the following tick.
	NextTick SuspendKind = iota
	// Until resumes once the clock reaches a deadline.
	Until
	// Receivers resumes once a broadcast-and-wait has been answered.
	Receivers
)

// Suspension is the resume condition of a suspended script.
type Suspension struct {
	Kind     SuspendKind
	Deadline time.Time
	Done     func() bool
	// tick is the tick the script suspended in.
	tick uint64
}

// Script is an ordered brick sequence with a trigger, owned by one actor.
type Script struct {
	Trigger Trigger
	Bricks  []brick.Brick

	program []op
	eval    Evaluator

	state      State
	stack      []frame
	suspension Suspension
	generation uint64
}

// New returns an Idle, uncompiled script.
func New(trigger Trigger, bricks []brick.Brick) *Script {
	return &Script{Trigger: trigger, Bricks: bricks}
}

// State returns the current lifecycle state.
func (s *Script) State() State { return s.state }

// Generation counts how many times the script has been started.
func (s *Script) Generation() uint64 { return s.generation }

// Suspension returns the resume condition. It is meaningful only while the
// script is Suspended.
func (s *Script) Suspension() Suspension { return s.suspension }

// Compiled reports whether Compile has succeeded.
func (s *Script) Compiled() bool { return s.eval != nil }

// Start (re)starts the script from its first brick. A running script is
// abandoned where it is.
func (s *Script) Start() {
	s.generation++
	s.stack = []frame{{ops: s.program}}
	s.suspension = Suspension{}
	s.state = Running
}

// Stop abandons the remaining bricks. Effects of bricks already run stay.
func (s *Script) Stop() {
	s.stack = nil
	s.state = Stopped
}

// Reset returns the script to Idle without counting a generation.
func (s *Script) Reset() {
	s.stack = nil
	s.suspension = Suspension{}
	s.state = Idle
}

// Ready reports whether the script can run on tick at instant now.
func (s *Script) Ready(tick uint64, now time.Time) bool {
	switch s.state {
	case Running:
		return true
	case Suspended:
		if tick <= s.suspension.tick {
			return false
		}
		switch s.suspension.Kind {
		case Until:
			return !now.Before(s.suspension.Deadline)
		case Receivers:
			return s.suspension.Done == nil || s.suspension.Done()
		default:
			return true
		}
	default:
		return false
	}
}

// Shift moves a pending wait deadline by d. The engine calls it on resume
// so that time spent paused does not count towards waits.
func (s *Script) Shift(d time.Duration) {
	if s.state == Suspended && s.suspension.Kind == Until {
		s.suspension.Deadline = s.suspension.Deadline.Add(d)
	}
}

// Clone returns an Idle, uncompiled copy with every brick cloned.
func (s *Script) Clone(ctx *brick.CloneContext, reportErrors bool) (*Script, error) {
	bricks, err := brick.CloneSequence(s.Bricks, ctx, reportErrors)
	if err != nil {
		return nil, err
	}
	return New(s.Trigger, bricks), nil
}
