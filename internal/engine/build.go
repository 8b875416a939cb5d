package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/brickrun/internal/brick"
	"github.com/vk/brickrun/internal/config"
	"github.com/vk/brickrun/internal/formula"
	"github.com/vk/brickrun/internal/note"
	"github.com/vk/brickrun/internal/value"
	"github.com/vk/brickrun/internal/variables"
)

// builder resolves config bricks of one actor into typed bricks. Variable
// names are resolved in the actor's scope first, then globally.
type builder struct {
	vars  *variables.Container
	actor string
}

func (b *builder) bricks(cbs []*config.Brick) ([]brick.Brick, error) {
	out := make([]brick.Brick, 0, len(cbs))
	for _, cb := range cbs {
		x, err := b.brick(cb)
		if err != nil {
			return nil, err
		}
		out = append(out, x)
	}
	return out, nil
}

func (b *builder) brick(cb *config.Brick) (brick.Brick, error) {
	out, err := b.resolve(cb)
	if err != nil {
		return nil, fmt.Errorf("brick %s: %w", cb.Kind, err)
	}
	brick.SetDisabled(out, cb.Disabled)
	return out, nil
}

func (b *builder) resolve(cb *config.Brick) (brick.Brick, error) {
	r := &args{cb: cb, used: make(map[string]bool)}
	var out brick.Brick
	nests := false

	switch brick.Kind(cb.Kind) {
	case brick.KindPlaceAt:
		out = &brick.PlaceAt{X: r.formula("x"), Y: r.formula("y")}
	case brick.KindSetX:
		out = &brick.SetX{X: r.formula("x")}
	case brick.KindSetY:
		out = &brick.SetY{Y: r.formula("y")}
	case brick.KindChangeXBy:
		out = &brick.ChangeXBy{DX: r.formula("dx")}
	case brick.KindChangeYBy:
		out = &brick.ChangeYBy{DY: r.formula("dy")}
	case brick.KindMoveSteps:
		out = &brick.MoveSteps{Steps: r.formula("steps")}
	case brick.KindTurnLeft:
		out = &brick.TurnLeft{Degrees: r.formula("degrees")}
	case brick.KindTurnRight:
		out = &brick.TurnRight{Degrees: r.formula("degrees")}
	case brick.KindPointInDirection:
		out = &brick.PointInDirection{Degrees: r.formula("degrees")}
	case brick.KindGoToActor:
		out = &brick.GoToActor{Target: r.text("target")}
	case brick.KindShow:
		out = &brick.Show{}
	case brick.KindHide:
		out = &brick.Hide{}
	case brick.KindSetSize:
		out = &brick.SetSize{Percent: r.formula("percent")}

	case brick.KindSetVariable:
		out = &brick.SetVariable{Variable: b.variable(r, "variable", false), Value: r.formula("value")}
	case brick.KindChangeVariable:
		out = &brick.ChangeVariable{Variable: b.variable(r, "variable", false), Delta: r.formula("delta")}
	case brick.KindAddItem:
		out = &brick.AddItem{List: b.variable(r, "list", true), Value: r.formula("value")}
	case brick.KindDeleteItem:
		out = &brick.DeleteItem{List: b.variable(r, "list", true), Index: r.formula("index")}
	case brick.KindInsertItem:
		out = &brick.InsertItem{List: b.variable(r, "list", true), Index: r.formula("index"), Value: r.formula("value")}
	case brick.KindReplaceItem:
		out = &brick.ReplaceItem{List: b.variable(r, "list", true), Index: r.formula("index"), Value: r.formula("value")}

	case brick.KindPenDown:
		out = &brick.PenDown{}
	case brick.KindPenUp:
		out = &brick.PenUp{}
	case brick.KindSetPenSize:
		out = &brick.SetPenSize{Size: r.formula("size")}
	case brick.KindSetPenColor:
		out = &brick.SetPenColor{Red: r.formula("red"), Green: r.formula("green"), Blue: r.formula("blue")}
	case brick.KindClearGraphics:
		out = &brick.ClearGraphics{}

	case brick.KindWait:
		out = &brick.Wait{Seconds: r.formula("seconds")}
	case brick.KindRepeat:
		body, err := b.bricks(cb.Body)
		if err != nil {
			return nil, err
		}
		out, nests = &brick.Repeat{Times: r.formula("times"), Body: body}, true
	case brick.KindRepeatUntil:
		body, err := b.bricks(cb.Body)
		if err != nil {
			return nil, err
		}
		out, nests = &brick.RepeatUntil{Condition: r.formula("condition"), Body: body}, true
	case brick.KindForever:
		body, err := b.bricks(cb.Body)
		if err != nil {
			return nil, err
		}
		out, nests = &brick.Forever{Body: body}, true
	case brick.KindIf:
		then, err := b.bricks(cb.Body)
		if err != nil {
			return nil, err
		}
		els, err := b.bricks(cb.Else)
		if err != nil {
			return nil, err
		}
		out, nests = &brick.If{Condition: r.formula("condition"), Then: then, Else: els}, true
	case brick.KindBroadcast:
		out = &brick.Broadcast{Message: r.text("message")}
	case brick.KindBroadcastAndWait:
		out = &brick.BroadcastAndWait{Message: r.text("message")}
	case brick.KindStop:
		out = &brick.Stop{Which: r.stopTarget("which")}
	case brick.KindCreateClone:
		target := r.optionalText("target", "")
		if target == "myself" {
			target = ""
		}
		out = &brick.CreateClone{Target: target}
	case brick.KindDeleteClone:
		out = &brick.DeleteClone{}
	case brick.KindNote:
		out = &brick.Note{Text: r.optionalText("text", "")}

	case brick.KindPlayNote:
		out = &brick.PlayNote{
			Instrument: r.instrument("instrument"),
			Pitch:      r.formula("pitch"),
			Beats:      r.formula("beats"),
		}
	case brick.KindPlayDrum:
		out = &brick.PlayDrum{Drum: r.drum("drum"), Beats: r.formula("beats")}
	case brick.KindSetTempo:
		out = &brick.SetTempo{BPM: r.formula("bpm")}
	case brick.KindChangeTempo:
		out = &brick.ChangeTempo{Delta: r.formula("delta")}
	case brick.KindStopAllSounds:
		out = &brick.StopAllSounds{}

	default:
		r.fail("", "Unknown brick kind", "unknown brick kind %q", cb.Kind)
		return nil, r.diags
	}

	if !nests && len(cb.Body) > 0 {
		r.fail("", "Invalid nesting", "nested bricks are not allowed here")
	}
	if brick.Kind(cb.Kind) != brick.KindIf && len(cb.Else) > 0 {
		r.fail("", "Invalid nesting", "only if takes an else block")
	}
	return out, r.finish()
}

func (b *builder) variable(r *args, attr string, list bool) *variables.Variable {
	kind := "variable"
	if list {
		kind = "list"
	}
	failed := len(r.diags)
	name := r.text(attr)
	if name == "" {
		if len(r.diags) == failed {
			r.fail(attr, "Invalid attribute", "attribute %q must name a %s", attr, kind)
		}
		return nil
	}
	var v *variables.Variable
	var ok bool
	if list {
		v, ok = b.vars.LookupList(b.actor, name)
	} else {
		v, ok = b.vars.Lookup(b.actor, name)
	}
	if !ok {
		r.fail(attr, "Unknown "+kind, "unknown %s %q", kind, name)
	}
	return v
}

// args reads the parameters of one config brick and collects every problem
// found as a diagnostic.
type args struct {
	cb    *config.Brick
	used  map[string]bool
	diags hcl.Diagnostics
}

func (r *args) fail(attr, summary, format string, a ...any) {
	r.diags = append(r.diags, &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  summary,
		Detail:   fmt.Sprintf(format, a...),
		Subject:  r.subject(attr),
	})
}

// subject points at the attribute when it was written, else at the brick.
// Bricks built without a source file have no subject.
func (r *args) subject(attr string) *hcl.Range {
	if rng, ok := r.cb.ArgRanges[attr]; ok {
		return rng.Ptr()
	}
	if r.cb.DefRange.Filename == "" {
		return nil
	}
	return r.cb.DefRange.Ptr()
}

func (r *args) formula(name string) formula.Formula {
	r.used[name] = true
	f, ok := r.cb.Args[name]
	if !ok || f == nil {
		r.fail(name, "Missing attribute", "missing attribute %q", name)
		return formula.Number(0)
	}
	return f
}

func (r *args) constant(name string) (value.Value, bool) {
	r.used[name] = true
	f, ok := r.cb.Args[name]
	if !ok {
		return value.Value{}, false
	}
	lit, isLit := f.(*formula.Literal)
	if !isLit {
		r.fail(name, "Invalid attribute", "attribute %q must be a constant", name)
		return value.Value{}, false
	}
	return lit.Value, true
}

func (r *args) text(name string) string {
	v, ok := r.constant(name)
	if !ok {
		if _, present := r.cb.Args[name]; !present {
			r.fail(name, "Missing attribute", "missing attribute %q", name)
		}
		return ""
	}
	return v.Text()
}

func (r *args) optionalText(name, def string) string {
	v, ok := r.constant(name)
	if !ok {
		return def
	}
	return v.Text()
}

var stopTargets = map[string]brick.StopTarget{
	"this_script":   brick.StopThisScript,
	"other_scripts": brick.StopOtherScripts,
	"all":           brick.StopAll,
}

func (r *args) stopTarget(name string) brick.StopTarget {
	s := r.optionalText(name, "this_script")
	t, ok := stopTargets[s]
	if !ok {
		r.fail(name, "Invalid attribute", "attribute %q: unknown stop target %q", name, s)
	}
	return t
}

// instrument accepts a name, a sample path or a number and defaults to
// piano.
func (r *args) instrument(name string) int {
	v, ok := r.constant(name)
	if !ok {
		return int(note.Piano)
	}
	if n, whole := wholeNumber(v); whole {
		if !note.Instrument(n).Valid() || n == int(note.Drums) {
			r.fail(name, "Invalid attribute", "attribute %q: unknown instrument %d", name, n)
		}
		return n
	}
	i, found := note.InstrumentByName(v.Text())
	if !found || i == note.Drums {
		r.fail(name, "Invalid attribute", "attribute %q: unknown instrument %q", name, v.Text())
	}
	return int(i)
}

func (r *args) drum(name string) int {
	v, ok := r.constant(name)
	if !ok {
		if _, present := r.cb.Args[name]; !present {
			r.fail(name, "Missing attribute", "missing attribute %q", name)
		}
		return 0
	}
	if n, whole := wholeNumber(v); whole {
		if !note.Drum(n).Valid() {
			r.fail(name, "Invalid attribute", "attribute %q: unknown drum %d", name, n)
		}
		return n
	}
	d, found := note.DrumByName(v.Text())
	if !found {
		r.fail(name, "Invalid attribute", "attribute %q: unknown drum %q", name, v.Text())
	}
	return int(d)
}

func wholeNumber(v value.Value) (int, bool) {
	if v.Tag() != value.NumberTag {
		return 0, false
	}
	f := v.Number()
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

func (r *args) finish() error {
	var extra []string
	for name := range r.cb.Args {
		if !r.used[name] {
			extra = append(extra, name)
		}
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		r.fail(extra[0], "Unexpected attributes", "unexpected attributes: %s", strings.Join(extra, ", "))
	}
	if r.diags.HasErrors() {
		return r.diags
	}
	return nil
}
