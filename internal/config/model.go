package config

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/vk/brickrun/internal/formula"
	"github.com/vk/brickrun/internal/script"
	"github.com/vk/brickrun/internal/value"
)

// Program is the unified, format-agnostic representation of a program.
type Program struct {
	Name      string
	Variables []*Variable
	Actors    []*Actor
}

// Variable declares a variable or a list.
type Variable struct {
	Name    string
	List    bool
	Initial value.Value
	Items   []value.Value
}

// Actor is the format-agnostic representation of an `actor` block. Nil
// optional fields keep the engine defaults.
type Actor struct {
	Name      string
	X, Y      float64
	Rotation  *float64
	Visible   *bool
	Size      *float64
	Variables []*Variable
	Scripts   []*Script
}

// Script is the format-agnostic representation of a `script` block.
type Script struct {
	Trigger script.Trigger
	Bricks  []*Brick
}

// Brick is one instruction before it is resolved. Args holds every
// parameter as a formula; parameters that name something (a variable, a
// message, an instrument) are constant text formulas.
type Brick struct {
	Kind     string
	Disabled bool
	Args     map[string]formula.Formula
	Body     []*Brick
	Else     []*Brick
	// DefRange locates the brick block and ArgRanges its attributes. Both
	// are zero for bricks not read from a file.
	DefRange  hcl.Range
	ArgRanges map[string]hcl.Range
}

// Actor returns the actor named name, or nil.
func (p *Program) Actor(name string) *Actor {
	for _, a := range p.Actors {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// Merge appends other's declarations to p. The first non-empty name wins.
func (p *Program) Merge(other *Program) {
	if p.Name == "" {
		p.Name = other.Name
	}
	p.Variables = append(p.Variables, other.Variables...)
	p.Actors = append(p.Actors, other.Actors...)
}
