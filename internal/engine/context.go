package engine

import (
	"github.com/vk/brickrun/internal/actor"
	"github.com/vk/brickrun/internal/formula"
	"github.com/vk/brickrun/internal/value"
	"github.com/vk/brickrun/internal/variables"
)

// Built-in sensors, readable in formulas as sensor.<id>.
const (
	SensorX        = "x"
	SensorY        = "y"
	SensorRotation = "direction"
	SensorSize     = "size"
	SensorVisible  = "visible"
	SensorPenDown  = "pen_down"
	SensorPenSize  = "pen_size"
	SensorTimer    = "timer"
	SensorTempo    = "tempo"
)

// evalContext is the formula.Context of one actor.
type evalContext struct {
	e *Engine
	a *actor.Actor
}

var _ formula.Context = (*evalContext)(nil)

func (c *evalContext) Owner() string { return c.a.Name }

func (c *evalContext) lookup(scope formula.Scope, name string, list bool) (*variables.Variable, bool) {
	switch scope {
	case formula.ScopeGlobal:
		return c.e.vars.Global(name, list)
	case formula.ScopeActor:
		return c.e.vars.Actor(c.a.Name, name, list)
	default:
		if list {
			return c.e.vars.LookupList(c.a.Name, name)
		}
		return c.e.vars.Lookup(c.a.Name, name)
	}
}

func (c *evalContext) Variable(scope formula.Scope, name string) (value.Value, bool) {
	v, ok := c.lookup(scope, name, false)
	if !ok {
		return value.Zero, false
	}
	return v.Get(), true
}

func (c *evalContext) List(scope formula.Scope, name string) ([]value.Value, bool) {
	v, ok := c.lookup(scope, name, true)
	if !ok {
		return nil, false
	}
	return v.Items(), true
}

func (c *evalContext) Sensor(id string) (value.Value, bool) {
	a := c.a
	switch id {
	case SensorX:
		return value.Number(a.Position.X), true
	case SensorY:
		return value.Number(a.Position.Y), true
	case SensorRotation:
		return value.Number(a.Rotation), true
	case SensorSize:
		return value.Number(a.Size), true
	case SensorVisible:
		return value.Bool(a.Visible), true
	case SensorPenDown:
		return value.Bool(a.Pen.Down), true
	case SensorPenSize:
		return value.Number(a.Pen.Size), true
	case SensorTimer:
		return value.Number(c.e.elapsed().Seconds()), true
	case SensorTempo:
		return value.Number(c.e.tempo), true
	}
	if c.e.sensors != nil {
		if f, ok := c.e.sensors.Sensor(id); ok {
			return value.Number(f), true
		}
	}
	return value.Zero, false
}
