// Package actor holds the on-screen entities a program is made of: their
// transform, their pen and the scripts they own.
package actor

import (
	"fmt"
	"math"

	"github.com/vk/brickrun/internal/brick"
	"github.com/vk/brickrun/internal/report"
	"github.com/vk/brickrun/internal/script"
	"github.com/vk/brickrun/internal/variables"
)

const (
	// DefaultRotation faces right.
	DefaultRotation = 90.0
	DefaultSize     = 100.0
	DefaultPenSize  = 3.15
)

// DefaultPenColor is opaque blue.
var DefaultPenColor = RGBA{R: 0, G: 0, B: 255, A: 255}

// Point is a position on the stage. The origin is the stage centre, y grows
// upwards.
type Point struct {
	X, Y float64
}

// String implements fmt.Stringer.
func (p Point) String() string { return fmt.Sprintf("(%g, %g)", p.X, p.Y) }

// RGBA is an 8-bit color.
type RGBA struct {
	R, G, B, A uint8
}

// PenConfig is the drawing state of an actor.
type PenConfig struct {
	Down  bool
	Color RGBA
	Size  float64
	// PreviousPosition is where the last pen update left the actor.
	PreviousPosition Point
}

// Actor is one entity on the stage.
type Actor struct {
	Name     string
	Position Point
	// Rotation is in degrees, normalized to (-180, 180].
	Rotation float64
	Visible  bool
	// Size is a percentage of the costume's natural size.
	Size    float64
	Pen     PenConfig
	Scripts []*script.Script

	IsClone bool
	// CloneOf names the actor this one was cloned from.
	CloneOf string
}

// New returns an actor with default transform and pen.
func New(name string) *Actor {
	return &Actor{
		Name:     name,
		Rotation: DefaultRotation,
		Visible:  true,
		Size:     DefaultSize,
		Pen:      PenConfig{Color: DefaultPenColor, Size: DefaultPenSize},
	}
}

// AddScript appends s to the actor's scripts.
func (a *Actor) AddScript(s *script.Script) {
	a.Scripts = append(a.Scripts, s)
}

// SetRotation points the actor at deg degrees.
func (a *Actor) SetRotation(deg float64) {
	a.Rotation = NormalizeRotation(deg)
}

// Turn rotates the actor clockwise by deg degrees.
func (a *Actor) Turn(deg float64) {
	a.SetRotation(a.Rotation + deg)
}

// Move moves the actor steps units along its heading. Rotation 90 is +x,
// rotation 0 is +y.
func (a *Actor) Move(steps float64) {
	rad := a.Rotation * math.Pi / 180
	a.Position.X += steps * math.Sin(rad)
	a.Position.Y += steps * math.Cos(rad)
}

// NormalizeRotation maps deg into (-180, 180]. Non-finite input keeps the
// default heading.
func NormalizeRotation(deg float64) float64 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return DefaultRotation
	}
	r := math.Mod(deg, 360)
	if r <= -180 {
		r += 360
	} else if r > 180 {
		r -= 360
	}
	return r
}

// Clone creates a copy of a named name. Its private variables are created in
// vars, seeded from a's current values, and every brick of every script is
// cloned with its variable handles rewired to the copies. Globals stay
// shared. The clone's scripts are Idle and uncompiled.
func (a *Actor) Clone(vars *variables.Container, name string, reporter report.Reporter, reportErrors bool) (*Actor, error) {
	mapping, err := vars.CloneActorScope(a.Name, name)
	if err != nil {
		return nil, fmt.Errorf("clone actor %q: %w", a.Name, err)
	}

	out := *a
	out.Name = name
	out.IsClone = true
	out.CloneOf = a.Name
	if a.IsClone {
		out.CloneOf = a.CloneOf
	}
	out.Scripts = make([]*script.Script, 0, len(a.Scripts))

	ctx := &brick.CloneContext{Variables: mapping, Reporter: reporter, Owner: a.Name}
	for _, s := range a.Scripts {
		cp, err := s.Clone(ctx, reportErrors)
		if err != nil {
			vars.RemoveActor(name)
			return nil, fmt.Errorf("clone actor %q: %w", a.Name, err)
		}
		out.Scripts = append(out.Scripts, cp)
	}
	return &out, nil
}
