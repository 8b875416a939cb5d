package engine

import (
	"fmt"
	"math"

	"github.com/vk/brickrun/internal/actor"
	"github.com/vk/brickrun/internal/brick"
	"github.com/vk/brickrun/internal/events"
	"github.com/vk/brickrun/internal/formula"
	"github.com/vk/brickrun/internal/note"
	"github.com/vk/brickrun/internal/report"
	"github.com/vk/brickrun/internal/script"
	"github.com/vk/brickrun/internal/value"
)

// compiler turns the non-control bricks of one actor into actions. The
// actions close over the brick, so a clone compiled with its own compiler
// acts on its own bricks and state.
type compiler struct {
	e   *Engine
	a   *actor.Actor
	ctx *evalContext
}

func newCompiler(e *Engine, a *actor.Actor) *compiler {
	return &compiler{e: e, a: a, ctx: &evalContext{e: e, a: a}}
}

var _ script.Compiler = (*compiler)(nil)

func (c *compiler) Evaluate(f formula.Formula) value.Value {
	return c.e.ip.Evaluate(f, c.ctx)
}

func (c *compiler) num(f formula.Formula) float64 { return c.Evaluate(f).Number() }

// finite returns f, or keep when f is NaN or infinite.
func finite(f, keep float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return keep
	}
	return f
}

// listIndex converts a 1-based list position. Out-of-range positions are
// left to the list operations, which ignore them.
func listIndex(v value.Value) int {
	f := v.Number()
	if math.IsNaN(f) {
		return 0
	}
	return int(math.Trunc(min(max(f, math.MinInt32), math.MaxInt32)))
}

func colorChannel(f float64) uint8 {
	if math.IsNaN(f) {
		return 0
	}
	return uint8(math.Round(min(max(f, 0), 255)))
}

func (c *compiler) Action(b brick.Brick) (script.ActionStep, error) {
	a, e := c.a, c.e
	switch x := b.(type) {
	case *brick.PlaceAt:
		return func() error {
			px, py := c.num(x.X), c.num(x.Y)
			a.Position = actor.Point{X: finite(px, a.Position.X), Y: finite(py, a.Position.Y)}
			return nil
		}, nil
	case *brick.SetX:
		return func() error { a.Position.X = finite(c.num(x.X), a.Position.X); return nil }, nil
	case *brick.SetY:
		return func() error { a.Position.Y = finite(c.num(x.Y), a.Position.Y); return nil }, nil
	case *brick.ChangeXBy:
		return func() error { a.Position.X = finite(a.Position.X+c.num(x.DX), a.Position.X); return nil }, nil
	case *brick.ChangeYBy:
		return func() error { a.Position.Y = finite(a.Position.Y+c.num(x.DY), a.Position.Y); return nil }, nil
	case *brick.MoveSteps:
		return func() error {
			if steps := c.num(x.Steps); finite(steps, 0) != 0 {
				a.Move(steps)
			}
			return nil
		}, nil
	case *brick.TurnLeft:
		return func() error { a.Turn(-finite(c.num(x.Degrees), 0)); return nil }, nil
	case *brick.TurnRight:
		return func() error { a.Turn(finite(c.num(x.Degrees), 0)); return nil }, nil
	case *brick.PointInDirection:
		return func() error { a.SetRotation(finite(c.num(x.Degrees), a.Rotation)); return nil }, nil
	case *brick.GoToActor:
		return func() error {
			target := e.byName[x.Target]
			if target == nil {
				e.reporter.Report(report.Record{
					Kind:    report.EvaluationWarning,
					Owner:   a.Name,
					Message: fmt.Sprintf("go_to: unknown actor %q", x.Target),
				})
				return nil
			}
			a.Position = target.Position
			return nil
		}, nil

	case *brick.Show:
		return func() error { a.Visible = true; return nil }, nil
	case *brick.Hide:
		return func() error { a.Visible = false; return nil }, nil
	case *brick.SetSize:
		return func() error { a.Size = max(finite(c.num(x.Percent), a.Size), 0); return nil }, nil

	case *brick.SetVariable:
		return func() error { x.Variable.Set(c.Evaluate(x.Value)); return nil }, nil
	case *brick.ChangeVariable:
		return func() error {
			delta := c.num(x.Delta)
			x.Variable.Set(value.Number(x.Variable.Get().Number() + delta))
			return nil
		}, nil
	case *brick.AddItem:
		return func() error { x.List.Append(c.Evaluate(x.Value)); return nil }, nil
	case *brick.DeleteItem:
		return func() error { x.List.Delete(listIndex(c.Evaluate(x.Index))); return nil }, nil
	case *brick.InsertItem:
		return func() error {
			pos, item := listIndex(c.Evaluate(x.Index)), c.Evaluate(x.Value)
			x.List.Insert(pos, item)
			return nil
		}, nil
	case *brick.ReplaceItem:
		return func() error {
			pos, item := listIndex(c.Evaluate(x.Index)), c.Evaluate(x.Value)
			x.List.Replace(pos, item)
			return nil
		}, nil

	case *brick.PenDown:
		return func() error { a.Pen.Down = true; return nil }, nil
	case *brick.PenUp:
		return func() error { a.Pen.Down = false; return nil }, nil
	case *brick.SetPenSize:
		return func() error { a.Pen.Size = max(finite(c.num(x.Size), a.Pen.Size), 0); return nil }, nil
	case *brick.SetPenColor:
		return func() error {
			a.Pen.Color = actor.RGBA{
				R: colorChannel(c.num(x.Red)),
				G: colorChannel(c.num(x.Green)),
				B: colorChannel(c.num(x.Blue)),
				A: 255,
			}
			return nil
		}, nil
	case *brick.ClearGraphics:
		return func() error { e.sink.Emit(events.ClearCanvas{}); return nil }, nil

	case *brick.PlayNote:
		return func() error {
			pitch, beats := c.num(x.Pitch), c.num(x.Beats)
			e.timer.Play(note.TimedNote{
				Actor:      a.Name,
				Pitch:      finite(pitch, 0),
				Beats:      finite(beats, 0),
				BPM:        e.tempo,
				Instrument: note.Instrument(x.Instrument),
			})
			return nil
		}, nil
	case *brick.PlayDrum:
		return func() error {
			e.timer.Play(note.TimedNote{
				Actor:      a.Name,
				Beats:      finite(c.num(x.Beats), 0),
				BPM:        e.tempo,
				Instrument: note.Drums,
				Drum:       note.Drum(x.Drum),
			})
			return nil
		}, nil
	case *brick.SetTempo:
		return func() error { e.setTempo(c.num(x.BPM)); return nil }, nil
	case *brick.ChangeTempo:
		return func() error { e.setTempo(e.tempo + c.num(x.Delta)); return nil }, nil
	case *brick.StopAllSounds:
		return func() error { e.timer.StopAll(); return nil }, nil
	}
	return nil, fmt.Errorf("%w: %s", script.ErrUnknownBrick, b.Kind())
}
