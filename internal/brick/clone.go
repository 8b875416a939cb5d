package brick

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/vk/brickrun/internal/formula"
	"github.com/vk/brickrun/internal/report"
	"github.com/vk/brickrun/internal/variables"
)

// ErrCloneFailure is wrapped by every error Clone returns.
var ErrCloneFailure = errors.New("clone failed")

// CloneContext carries what a clone needs beyond the brick itself.
type CloneContext struct {
	// Variables maps actor-private handles of the source to the handles of
	// the copy. When nil, handles are kept as they are (cloning within the
	// same actor). When set, every actor-private handle must be present.
	Variables map[*variables.Variable]*variables.Variable
	// Reporter receives CloneFailure records when error reporting is on.
	Reporter report.Reporter
	// Owner attributes reports.
	Owner string
}

func (ctx *CloneContext) variable(v *variables.Variable) (*variables.Variable, error) {
	if v == nil || v.IsGlobal() || ctx == nil || ctx.Variables == nil {
		return v, nil
	}
	mapped, ok := ctx.Variables[v]
	if !ok {
		return nil, fmt.Errorf("%w: no copy of %s in the target scope", ErrCloneFailure, v)
	}
	return mapped, nil
}

// Clone returns a deep copy of b. Every formula and child brick is copied;
// the result is Equal to b and shares no owned node with it. With
// reportErrors off, failures are still returned but not reported, which
// keeps bulk copies such as actor cloning from flooding the reporter.
func Clone(b Brick, ctx *CloneContext, reportErrors bool) (Brick, error) {
	out, err := clone(b, ctx)
	if err != nil && reportErrors && ctx != nil && ctx.Reporter != nil {
		ctx.Reporter.Report(report.Record{
			Kind:    report.CloneFailure,
			Owner:   ctx.Owner,
			Message: "brick could not be cloned",
			Err:     err,
		})
	}
	return out, err
}

// CloneSequence clones every brick in bricks, in order.
func CloneSequence(bricks []Brick, ctx *CloneContext, reportErrors bool) ([]Brick, error) {
	out, err := cloneSequence(bricks, ctx)
	if err != nil && reportErrors && ctx != nil && ctx.Reporter != nil {
		ctx.Reporter.Report(report.Record{
			Kind:    report.CloneFailure,
			Owner:   ctx.Owner,
			Message: "brick sequence could not be cloned",
			Err:     err,
		})
	}
	return out, err
}

func cloneSequence(bricks []Brick, ctx *CloneContext) ([]Brick, error) {
	if bricks == nil {
		return nil, nil
	}
	out := make([]Brick, len(bricks))
	for i, b := range bricks {
		c, err := clone(b, ctx)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

func clone(b Brick, ctx *CloneContext) (Brick, error) {
	src := reflect.ValueOf(b)
	if b == nil || src.Kind() != reflect.Pointer || src.IsNil() {
		return nil, fmt.Errorf("%w: nil brick", ErrCloneFailure)
	}

	// Shallow copy first, then replace every owned slot in the copy.
	dst := reflect.New(src.Elem().Type())
	dst.Elem().Set(src.Elem())
	out := dst.Interface().(Brick)

	p := partsOf(out)
	for _, f := range p.formulas {
		*f = formula.Clone(*f)
	}
	for _, v := range p.vars {
		mapped, err := ctx.variable(*v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.Kind(), err)
		}
		*v = mapped
	}
	for _, seq := range p.children {
		kids, err := cloneSequence(*seq, ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.Kind(), err)
		}
		*seq = kids
	}
	return out, nil
}

// Equal reports whether a and b are structurally identical: same kind, same
// flags, equal formulas, variables with the same name and scope, and equal
// children. Object identity is ignored.
func Equal(a, b Brick) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() || IsDisabled(a) != IsDisabled(b) {
		return false
	}
	pa, pb := partsOf(a), partsOf(b)
	for i := range pa.formulas {
		if !formula.Equal(*pa.formulas[i], *pb.formulas[i]) {
			return false
		}
	}
	for i := range pa.vars {
		if !sameVariable(*pa.vars[i], *pb.vars[i]) {
			return false
		}
	}
	for i := range pa.attrs {
		if pa.attrs[i] != pb.attrs[i] {
			return false
		}
	}
	for i := range pa.children {
		if !EqualSequence(*pa.children[i], *pb.children[i]) {
			return false
		}
	}
	return true
}

// EqualSequence compares two brick sequences element by element.
func EqualSequence(a, b []Brick) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func sameVariable(a, b *variables.Variable) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Name() == b.Name() && a.IsList() == b.IsList() && a.IsGlobal() == b.IsGlobal()
}
