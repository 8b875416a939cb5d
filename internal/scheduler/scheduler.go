package scheduler

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/vk/brickrun/internal/actor"
	"github.com/vk/brickrun/internal/brick"
	"github.com/vk/brickrun/internal/report"
	"github.com/vk/brickrun/internal/script"
)

// Options configures a Scheduler.
type Options struct {
	Host     Host
	Reporter report.Reporter
	Logger   *slog.Logger
}

type entry struct {
	actor   *actor.Actor
	script  *script.Script
	index   int
	removed bool
}

// activation is a queued trigger. actor restricts it to one actor's
// scripts; nil matches every actor.
type activation struct {
	trigger script.Trigger
	actor   *actor.Actor
	wait    *broadcastWait
}

// Scheduler is the cooperative tick driver. It is not safe for concurrent
// use; the engine serializes all calls.
type Scheduler struct {
	host     Host
	reporter report.Reporter
	logger   *slog.Logger

	entries []*entry
	pending []activation

	tick   uint64
	now    time.Time
	inTick bool

	stopAll       bool
	stopScripts   map[*script.Script]struct{}
	stopActors    map[*actor.Actor]struct{}
	removedActors map[*actor.Actor]struct{}

	paused   bool
	pausedAt time.Time
}

// New creates an empty scheduler.
func New(opts Options) *Scheduler {
	s := &Scheduler{
		host:          opts.Host,
		reporter:      opts.Reporter,
		logger:        opts.Logger,
		stopScripts:   make(map[*script.Script]struct{}),
		stopActors:    make(map[*actor.Actor]struct{}),
		removedActors: make(map[*actor.Actor]struct{}),
	}
	if s.reporter == nil {
		s.reporter = report.Nop{}
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	return s
}

// Register appends every script of a to the run order. The scripts must
// already be compiled.
func (s *Scheduler) Register(a *actor.Actor) {
	for i, sc := range a.Scripts {
		s.entries = append(s.entries, &entry{actor: a, script: sc, index: i + 1})
	}
	s.logger.Debug("Actor registered with scheduler.", "actor", a.Name, "scripts", len(a.Scripts))
}

// Unregister stops every script of a and removes them at the next check.
func (s *Scheduler) Unregister(a *actor.Actor) {
	s.removedActors[a] = struct{}{}
	s.request()
}

// Trigger queues an event for the next tick. With a non-nil actor only that
// actor's scripts can match.
func (s *Scheduler) Trigger(t script.Trigger, a *actor.Actor) {
	s.pending = append(s.pending, activation{trigger: t, actor: a})
}

// Broadcast queues a broadcast for the next tick.
func (s *Scheduler) Broadcast(message string) {
	s.Trigger(script.Trigger{Kind: script.WhenBroadcast, Message: message}, nil)
}

// StopAll stops every script and drops queued triggers. Outside a tick it
// takes effect immediately; during a tick, at the next check.
func (s *Scheduler) StopAll() {
	s.stopAll = true
	s.request()
}

// StopActor stops every script of a at the next check.
func (s *Scheduler) StopActor(a *actor.Actor) {
	s.stopActors[a] = struct{}{}
	s.request()
}

// StopOthers stops every script of a except keep at the next check.
func (s *Scheduler) StopOthers(a *actor.Actor, keep *script.Script) {
	for _, e := range s.entries {
		if e.actor == a && e.script != keep {
			s.stopScripts[e.script] = struct{}{}
		}
	}
	s.request()
}

func (s *Scheduler) request() {
	if !s.inTick {
		s.applyStops()
		s.compact()
	}
}

// Pause freezes the scheduler. Ticks are ignored until Resume.
func (s *Scheduler) Pause(now time.Time) {
	if s.paused {
		return
	}
	s.paused = true
	s.pausedAt = now
}

// Resume unfreezes the scheduler. Wait deadlines move by the time spent
// paused.
func (s *Scheduler) Resume(now time.Time) {
	if !s.paused {
		return
	}
	d := now.Sub(s.pausedAt)
	for _, e := range s.entries {
		e.script.Shift(d)
	}
	s.paused = false
}

// Paused reports whether the scheduler is paused.
func (s *Scheduler) Paused() bool { return s.paused }

// TickCount returns the number of ticks run so far.
func (s *Scheduler) TickCount() uint64 { return s.tick }

// Idle reports whether no script is active and no trigger is queued.
func (s *Scheduler) Idle() bool {
	if len(s.pending) > 0 {
		return false
	}
	for _, e := range s.entries {
		if !e.removed && e.script.State().Active() {
			return false
		}
	}
	return true
}

// Actors returns the registered actors in registration order, without
// duplicates.
func (s *Scheduler) Actors() []*actor.Actor {
	seen := make(map[*actor.Actor]struct{})
	var out []*actor.Actor
	for _, e := range s.entries {
		if _, ok := seen[e.actor]; ok || e.removed {
			continue
		}
		seen[e.actor] = struct{}{}
		out = append(out, e.actor)
	}
	return out
}

// Tick runs one scheduling pass at instant now.
func (s *Scheduler) Tick(now time.Time) TickReport {
	if s.paused {
		return TickReport{Tick: s.tick, Paused: true}
	}
	s.tick++
	s.now = now
	s.inTick = true
	defer func() { s.inTick = false }()

	rep := TickReport{Tick: s.tick}
	s.applyStops()

	queued := s.pending
	s.pending = nil
	for _, act := range queued {
		rep.Started += s.activate(act)
	}

	// Clones registered during the pass are appended and only start from a
	// queued trigger, so iterating the growing slice is safe.
	for i := 0; i < len(s.entries); i++ {
		s.applyStops()
		e := s.entries[i]
		if e.removed || !e.script.Ready(s.tick, now) {
			continue
		}
		out := e.script.Step(&env{s: s, e: e})
		rep.Ran++
		rep.Steps += out.Steps
		if out.Err != nil {
			rep.Faults++
			s.fault(e, out.Err)
		}
	}
	s.applyStops()
	s.compact()

	for _, e := range s.entries {
		if e.script.State().Active() {
			rep.Active++
		}
	}
	return rep
}

func (s *Scheduler) activate(act activation) int {
	started := 0
	for _, e := range s.entries {
		if e.removed || (act.actor != nil && e.actor != act.actor) {
			continue
		}
		if !e.script.Trigger.Matches(act.trigger) {
			continue
		}
		e.script.Start()
		started++
		if act.wait != nil {
			act.wait.receivers = append(act.wait.receivers, receiver{script: e.script, generation: e.script.Generation()})
		}
	}
	if act.wait != nil {
		act.wait.armed = true
	}
	return started
}

func (s *Scheduler) applyStops() {
	if !s.stopAll && len(s.stopScripts) == 0 && len(s.stopActors) == 0 && len(s.removedActors) == 0 {
		return
	}
	all := s.stopAll
	for _, e := range s.entries {
		_, byScript := s.stopScripts[e.script]
		_, byActor := s.stopActors[e.actor]
		_, removed := s.removedActors[e.actor]
		if removed {
			e.removed = true
		}
		if (all || byScript || byActor || removed) && e.script.State().Active() {
			e.script.Stop()
		}
	}
	clear(s.stopScripts)
	clear(s.stopActors)
	clear(s.removedActors)
	if all {
		s.stopAll = false
		s.pending = nil
		s.logger.Debug("All scripts stopped.", "tick", s.tick)
		if s.host != nil {
			s.host.AllStopped()
		}
	}
}

func (s *Scheduler) compact() {
	kept := s.entries[:0]
	for _, e := range s.entries {
		if !e.removed {
			kept = append(kept, e)
		}
	}
	clear(s.entries[len(kept):])
	s.entries = kept
}

func (s *Scheduler) fault(e *entry, err error) {
	s.logger.Debug("Script faulted and was stopped.", "actor", e.actor.Name, "script", e.index, "error", err)
	s.reporter.Report(report.Record{
		Kind:    report.SchedulerFault,
		Owner:   e.actor.Name,
		Message: fmt.Sprintf("script %d (%s) stopped", e.index, e.script.Trigger.Kind),
		Err:     err,
	})
}

// State returns the state of the i-th script (1-based) registered for a.
func (s *Scheduler) State(a *actor.Actor, i int) (script.State, bool) {
	for _, e := range s.entries {
		if e.actor == a && e.index == i {
			return e.script.State(), true
		}
	}
	return 0, false
}

type receiver struct {
	script     *script.Script
	generation uint64
}

// broadcastWait tracks the receivers started for one broadcast-and-wait.
// It is armed once the broadcast has been delivered.
type broadcastWait struct {
	armed     bool
	receivers []receiver
}

func (w *broadcastWait) done() bool {
	if !w.armed {
		return false
	}
	for _, r := range w.receivers {
		// A restarted receiver counts as answered.
		if r.script.Generation() == r.generation && r.script.State().Active() {
			return false
		}
	}
	return true
}

// env binds a running script to the scheduler.
type env struct {
	s *Scheduler
	e *entry
}

func (v *env) Tick() uint64       { return v.s.tick }
func (v *env) Now() time.Time     { return v.s.now }
func (v *env) Broadcast(m string) { v.s.Broadcast(m) }

func (v *env) BroadcastAndWait(m string) func() bool {
	w := &broadcastWait{}
	v.s.pending = append(v.s.pending, activation{
		trigger: script.Trigger{Kind: script.WhenBroadcast, Message: m},
		wait:    w,
	})
	return w.done
}

func (v *env) Stop(which brick.StopTarget) {
	switch which {
	case brick.StopAll:
		v.s.StopAll()
	case brick.StopOtherScripts:
		v.s.StopOthers(v.e.actor, v.e.script)
	}
}

func (v *env) CreateClone(target string) {
	if v.s.host != nil {
		v.s.host.CreateClone(v.e.actor, target)
	}
}

func (v *env) DeleteClone() bool {
	if v.s.host == nil {
		return false
	}
	return v.s.host.DeleteClone(v.e.actor)
}
