package brick

import (
	"github.com/vk/brickrun/internal/formula"
	"github.com/vk/brickrun/internal/variables"
)

// parts exposes the owned slots of a brick so that cloning, comparison and
// traversal share one per-kind table instead of one switch each.
type parts struct {
	formulas []*formula.Formula
	vars     []**variables.Variable
	children []*[]Brick
	// attrs are plain, comparable fields (messages, targets, enums).
	attrs []any
}

func partsOf(b Brick) parts {
	switch x := b.(type) {
	case *PlaceAt:
		return parts{formulas: fs(&x.X, &x.Y)}
	case *SetX:
		return parts{formulas: fs(&x.X)}
	case *SetY:
		return parts{formulas: fs(&x.Y)}
	case *ChangeXBy:
		return parts{formulas: fs(&x.DX)}
	case *ChangeYBy:
		return parts{formulas: fs(&x.DY)}
	case *MoveSteps:
		return parts{formulas: fs(&x.Steps)}
	case *TurnLeft:
		return parts{formulas: fs(&x.Degrees)}
	case *TurnRight:
		return parts{formulas: fs(&x.Degrees)}
	case *PointInDirection:
		return parts{formulas: fs(&x.Degrees)}
	case *GoToActor:
		return parts{attrs: []any{x.Target}}
	case *SetSize:
		return parts{formulas: fs(&x.Percent)}
	case *SetVariable:
		return parts{formulas: fs(&x.Value), vars: vs(&x.Variable)}
	case *ChangeVariable:
		return parts{formulas: fs(&x.Delta), vars: vs(&x.Variable)}
	case *AddItem:
		return parts{formulas: fs(&x.Value), vars: vs(&x.List)}
	case *DeleteItem:
		return parts{formulas: fs(&x.Index), vars: vs(&x.List)}
	case *InsertItem:
		return parts{formulas: fs(&x.Index, &x.Value), vars: vs(&x.List)}
	case *ReplaceItem:
		return parts{formulas: fs(&x.Index, &x.Value), vars: vs(&x.List)}
	case *SetPenSize:
		return parts{formulas: fs(&x.Size)}
	case *SetPenColor:
		return parts{formulas: fs(&x.Red, &x.Green, &x.Blue)}
	case *Wait:
		return parts{formulas: fs(&x.Seconds)}
	case *Repeat:
		return parts{formulas: fs(&x.Times), children: cs(&x.Body)}
	case *RepeatUntil:
		return parts{formulas: fs(&x.Condition), children: cs(&x.Body)}
	case *Forever:
		return parts{children: cs(&x.Body)}
	case *If:
		return parts{formulas: fs(&x.Condition), children: cs(&x.Then, &x.Else)}
	case *Broadcast:
		return parts{attrs: []any{x.Message}}
	case *BroadcastAndWait:
		return parts{attrs: []any{x.Message}}
	case *Stop:
		return parts{attrs: []any{x.Which}}
	case *CreateClone:
		return parts{attrs: []any{x.Target}}
	case *Note:
		return parts{attrs: []any{x.Text}}
	case *PlayNote:
		return parts{formulas: fs(&x.Pitch, &x.Beats), attrs: []any{x.Instrument}}
	case *PlayDrum:
		return parts{formulas: fs(&x.Beats), attrs: []any{x.Drum}}
	case *SetTempo:
		return parts{formulas: fs(&x.BPM)}
	case *ChangeTempo:
		return parts{formulas: fs(&x.Delta)}
	default:
		// Show, Hide, PenDown, PenUp, ClearGraphics, DeleteClone and
		// StopAllSounds carry no fields.
		return parts{}
	}
}

func fs(slots ...*formula.Formula) []*formula.Formula         { return slots }
func vs(slots ...**variables.Variable) []**variables.Variable { return slots }
func cs(slots ...*[]Brick) []*[]Brick                         { return slots }

// Formulas returns the formulas owned directly by b, not by its children.
func Formulas(b Brick) []formula.Formula {
	p := partsOf(b)
	out := make([]formula.Formula, 0, len(p.formulas))
	for _, f := range p.formulas {
		out = append(out, *f)
	}
	return out
}

// Variables returns the variable and list handles b refers to.
func Variables(b Brick) []*variables.Variable {
	p := partsOf(b)
	out := make([]*variables.Variable, 0, len(p.vars))
	for _, v := range p.vars {
		out = append(out, *v)
	}
	return out
}

// Children returns the child sequences owned by a control brick.
func Children(b Brick) [][]Brick {
	p := partsOf(b)
	out := make([][]Brick, 0, len(p.children))
	for _, c := range p.children {
		out = append(out, *c)
	}
	return out
}

// Walk calls fn for every brick in bricks and, recursively, their children.
func Walk(bricks []Brick, fn func(Brick)) {
	for _, b := range bricks {
		fn(b)
		for _, seq := range Children(b) {
			Walk(seq, fn)
		}
	}
}
