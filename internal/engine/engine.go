package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/vk/brickrun/internal/actor"
	"github.com/vk/brickrun/internal/clock"
	"github.com/vk/brickrun/internal/config"
	"github.com/vk/brickrun/internal/events"
	"github.com/vk/brickrun/internal/formula"
	"github.com/vk/brickrun/internal/note"
	"github.com/vk/brickrun/internal/pen"
	"github.com/vk/brickrun/internal/report"
	"github.com/vk/brickrun/internal/scheduler"
	"github.com/vk/brickrun/internal/script"
	"github.com/vk/brickrun/internal/variables"
)

const (
	// DefaultTempo is the tempo in beats per minute before any set_tempo.
	DefaultTempo = 60.0
	MinTempo     = 20.0
	MaxTempo     = 500.0
	// DefaultMaxClones bounds the number of live clones.
	DefaultMaxClones = 300
)

var (
	ErrAlreadyLoaded = errors.New("program already loaded")
	ErrNotLoaded     = errors.New("no program loaded")
	ErrUnknownActor  = errors.New("unknown actor")
)

// SensorSource supplies sensor values the engine does not compute itself,
// such as device sensors.
type SensorSource interface {
	Sensor(id string) (value float64, ok bool)
}

// SensorFunc adapts a function to SensorSource.
type SensorFunc func(id string) (float64, bool)

// Sensor implements SensorSource.
func (f SensorFunc) Sensor(id string) (float64, bool) { return f(id) }

// Options configures an Engine. Zero values select the defaults.
type Options struct {
	Clock    clock.Clock
	Reporter report.Reporter
	Sink     events.Sink
	Sensors  SensorSource
	// Seed makes rand() reproducible when set.
	Seed      *uint64
	Logger    *slog.Logger
	MaxClones int
}

// Engine runs one program.
type Engine struct {
	mu sync.Mutex

	clock     clock.Clock
	reporter  report.Reporter
	sink      events.Sink
	sensors   SensorSource
	logger    *slog.Logger
	maxClones int

	ip    *formula.Interpreter
	vars  *variables.Container
	sched *scheduler.Scheduler
	timer *note.Timer

	loaded bool
	name   string
	actors []*actor.Actor
	byName map[string]*actor.Actor
	shown  map[*actor.Actor]transform

	tempo    float64
	cloneSeq map[string]int

	startedAt   time.Time
	paused      bool
	pausedAt    time.Time
	pausedTotal time.Duration
}

// transform is the last state reported for an actor.
type transform struct {
	position actor.Point
	rotation float64
	visible  bool
	size     float64
}

// New creates an engine with no program.
func New(opts Options) *Engine {
	e := &Engine{
		clock:     opts.Clock,
		reporter:  opts.Reporter,
		sink:      opts.Sink,
		sensors:   opts.Sensors,
		logger:    opts.Logger,
		maxClones: opts.MaxClones,
		vars:      variables.New(),
		byName:    make(map[string]*actor.Actor),
		shown:     make(map[*actor.Actor]transform),
		tempo:     DefaultTempo,
		cloneSeq:  make(map[string]int),
	}
	if e.clock == nil {
		e.clock = clock.Real{}
	}
	if e.reporter == nil {
		e.reporter = report.Nop{}
	}
	if e.sink == nil {
		e.sink = events.Discard
	}
	if e.logger == nil {
		e.logger = slog.New(slog.DiscardHandler)
	}
	if e.maxClones <= 0 {
		e.maxClones = DefaultMaxClones
	}

	ipOpts := []formula.Option{formula.WithReporter(e.reporter)}
	if opts.Seed != nil {
		ipOpts = append(ipOpts, formula.WithSeed(*opts.Seed))
	}
	e.ip = formula.NewInterpreter(ipOpts...)
	e.timer = note.NewTimer(e.clock, e.sink)
	e.sched = scheduler.New(scheduler.Options{
		Host:     (*host)(e),
		Reporter: e.reporter,
		Logger:   e.logger,
	})
	return e
}

// LoadProgram builds variables, actors and compiled scripts from p. It can
// be called once per engine.
func (e *Engine) LoadProgram(p *config.Program) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.loaded {
		return ErrAlreadyLoaded
	}
	e.logger.Debug("Loading program.", "program", p.Name, "actors", len(p.Actors))

	for _, v := range p.Variables {
		var err error
		if v.List {
			_, err = e.vars.AddGlobalList(v.Name, v.Items)
		} else {
			_, err = e.vars.AddGlobal(v.Name, v.Initial)
		}
		if err != nil {
			return fmt.Errorf("global %q: %w", v.Name, err)
		}
	}

	seen := make(map[string]struct{}, len(p.Actors))
	for _, ca := range p.Actors {
		if err := e.declareActor(ca, seen); err != nil {
			return err
		}
	}

	actors := make([]*actor.Actor, 0, len(p.Actors))
	for _, ca := range p.Actors {
		a, err := e.buildActor(ca)
		if err != nil {
			return fmt.Errorf("actor %q: %w", ca.Name, err)
		}
		actors = append(actors, a)
	}

	for _, a := range actors {
		e.addActor(a)
	}
	e.name = p.Name
	e.loaded = true
	e.logger.Info("Program loaded.", "program", p.Name, "actors", len(actors))
	return nil
}

func (e *Engine) declareActor(ca *config.Actor, seen map[string]struct{}) error {
	switch {
	case ca.Name == "":
		return fmt.Errorf("actor name must not be empty")
	case strings.Contains(ca.Name, "#"):
		return fmt.Errorf("actor %q: names containing '#' are reserved for clones", ca.Name)
	}
	if _, dup := seen[ca.Name]; dup {
		return fmt.Errorf("actor %q declared twice", ca.Name)
	}
	seen[ca.Name] = struct{}{}
	e.vars.AddActor(ca.Name)
	for _, v := range ca.Variables {
		var err error
		if v.List {
			_, err = e.vars.AddActorList(ca.Name, v.Name, v.Items)
		} else {
			_, err = e.vars.AddActorVariable(ca.Name, v.Name, v.Initial)
		}
		if err != nil {
			return fmt.Errorf("actor %q, variable %q: %w", ca.Name, v.Name, err)
		}
	}
	return nil
}

func (e *Engine) buildActor(ca *config.Actor) (*actor.Actor, error) {
	a := actor.New(ca.Name)
	a.Position = actor.Point{X: ca.X, Y: ca.Y}
	if ca.Rotation != nil {
		a.SetRotation(*ca.Rotation)
	}
	if ca.Visible != nil {
		a.Visible = *ca.Visible
	}
	if ca.Size != nil {
		a.Size = max(*ca.Size, 0)
	}

	b := &builder{vars: e.vars, actor: ca.Name}
	for i, cs := range ca.Scripts {
		bricks, err := b.bricks(cs.Bricks)
		if err != nil {
			return nil, fmt.Errorf("script %d: %w", i+1, err)
		}
		s := script.New(cs.Trigger, bricks)
		if err := s.Compile(newCompiler(e, a)); err != nil {
			return nil, fmt.Errorf("script %d: %w", i+1, err)
		}
		e.warnUnknownFunctions(a.Name, i+1, bricks)
		a.AddScript(s)
	}
	return a, nil
}

// addActor makes a live: it becomes visible to lookups, ticks and events.
func (e *Engine) addActor(a *actor.Actor) {
	e.actors = append(e.actors, a)
	e.byName[a.Name] = a
	e.sched.Register(a)
}

func (e *Engine) removeActor(a *actor.Actor) {
	for i, x := range e.actors {
		if x == a {
			e.actors = append(e.actors[:i], e.actors[i+1:]...)
			break
		}
	}
	delete(e.byName, a.Name)
	delete(e.shown, a)
	e.sched.Unregister(a)
	e.vars.RemoveActor(a.Name)
}

// Start resets every pen baseline, reports the initial transforms and
// queues the `when_started` scripts for the next tick.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.loaded {
		return ErrNotLoaded
	}
	e.startedAt = e.clock.Now()
	e.pausedTotal = 0
	for _, a := range e.actors {
		pen.Reset(a)
		e.emitTransform(a, true)
	}
	e.sched.Trigger(script.Trigger{Kind: script.WhenStarted}, nil)
	e.logger.Debug("Program started.", "program", e.name)
	return nil
}

// Tick runs one scheduling pass, then draws pen trails, reports changed
// transforms and ends due notes. It does nothing while paused.
func (e *Engine) Tick() scheduler.TickReport {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.paused {
		return scheduler.TickReport{Tick: e.sched.TickCount(), Paused: true}
	}
	rep := e.sched.Tick(e.clock.Now())
	for _, a := range e.actors {
		pen.Update(a, e.sink)
		e.emitTransform(a, false)
	}
	e.timer.Poll()
	return rep
}

func (e *Engine) emitTransform(a *actor.Actor, force bool) {
	cur := transform{position: a.Position, rotation: a.Rotation, visible: a.Visible, size: a.Size}
	prev, seen := e.shown[a]
	if force || !seen || cur.position != prev.position || cur.rotation != prev.rotation {
		e.sink.Emit(events.ActorMoved{Actor: a.Name, Position: cur.position, Rotation: cur.rotation})
	}
	if force || !seen || cur.visible != prev.visible || cur.size != prev.size {
		e.sink.Emit(events.ActorVisibility{Actor: a.Name, Visible: cur.visible, Size: cur.size})
	}
	e.shown[a] = cur
}

// Pause freezes scripts, waits and notes.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.paused {
		return
	}
	now := e.clock.Now()
	e.paused = true
	e.pausedAt = now
	e.sched.Pause(now)
	e.timer.Pause()
	e.logger.Debug("Program paused.", "tick", e.sched.TickCount())
}

// Resume continues after Pause. Wait deadlines and note end times move by
// the time spent paused.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.paused {
		return
	}
	now := e.clock.Now()
	e.pausedTotal += now.Sub(e.pausedAt)
	e.paused = false
	e.sched.Resume(now)
	e.timer.Resume()
	e.logger.Debug("Program resumed.", "paused_for", now.Sub(e.pausedAt))
}

// Stop ends every script and note and removes every clone.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sched.StopAll()
}

// Broadcast queues a broadcast for the next tick.
func (e *Engine) Broadcast(message string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sched.Broadcast(message)
}

// Tap queues the `when_tapped` scripts of the named actor.
func (e *Engine) Tap(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	a := e.byName[name]
	if a == nil {
		return fmt.Errorf("%w: %q", ErrUnknownActor, name)
	}
	e.sched.Trigger(script.Trigger{Kind: script.WhenTapped}, a)
	return nil
}

// Collide reports that two actors touched. Each side's `when_collision`
// scripts that listen for the other, or for any actor, are queued.
func (e *Engine) Collide(first, second string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, b := e.byName[first], e.byName[second]
	if a == nil {
		return fmt.Errorf("%w: %q", ErrUnknownActor, first)
	}
	if b == nil {
		return fmt.Errorf("%w: %q", ErrUnknownActor, second)
	}
	e.sched.Trigger(script.Trigger{Kind: script.WhenCollision, Target: b.Name}, a)
	e.sched.Trigger(script.Trigger{Kind: script.WhenCollision, Target: a.Name}, b)
	return nil
}

// Idle reports whether no script is active, no trigger is queued and no
// note is sounding.
func (e *Engine) Idle() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sched.Idle() && e.timer.Active() == 0
}

// Paused reports whether the engine is paused.
func (e *Engine) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

// Actor returns the live actor or clone named name.
func (e *Engine) Actor(name string) (*actor.Actor, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	a := e.byName[name]
	return a, a != nil
}

// Actors returns the live actors and clones in creation order.
func (e *Engine) Actors() []*actor.Actor {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*actor.Actor, len(e.actors))
	copy(out, e.actors)
	return out
}

// Variables returns the program's variables container.
func (e *Engine) Variables() *variables.Container { return e.vars }

// Tempo returns the current tempo in beats per minute.
func (e *Engine) Tempo() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tempo
}

// ScriptState returns the state of the i-th script (1-based) of the named
// actor.
func (e *Engine) ScriptState(name string, i int) (script.State, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	a := e.byName[name]
	if a == nil {
		return 0, false
	}
	return e.sched.State(a, i)
}

// elapsed is the run time since Start, excluding pauses.
func (e *Engine) elapsed() time.Duration {
	if e.startedAt.IsZero() {
		return 0
	}
	now := e.clock.Now()
	if e.paused {
		now = e.pausedAt
	}
	return now.Sub(e.startedAt) - e.pausedTotal
}

func (e *Engine) setTempo(bpm float64) {
	if math.IsNaN(bpm) {
		return
	}
	e.tempo = min(max(bpm, MinTempo), MaxTempo)
}
