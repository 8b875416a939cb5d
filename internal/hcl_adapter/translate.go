package hcl_adapter

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/brickrun/internal/config"
	"github.com/vk/brickrun/internal/ctxlog"
	"github.com/vk/brickrun/internal/formula"
	"github.com/vk/brickrun/internal/script"
	"github.com/vk/brickrun/internal/value"
	"github.com/zclconf/go-cty/cty"
)

// disabledAttr switches a brick off without removing it. It is the only
// brick attribute that is not a parameter.
const disabledAttr = "disabled"

func (l *Loader) translateFile(ctx context.Context, root *fileRoot) (*config.Program, error) {
	p := &config.Program{}
	if len(root.Programs) > 1 {
		return nil, fmt.Errorf("at most one program block is allowed per file, found %d", len(root.Programs))
	}
	if len(root.Programs) == 1 {
		p.Name = root.Programs[0].Name
	}

	vars, err := translateVariables(ctx, root.Variables, root.Lists, "global scope")
	if err != nil {
		return nil, err
	}
	p.Variables = vars

	for _, ab := range root.Actors {
		a, err := l.translateActor(ctx, ab)
		if err != nil {
			return nil, err
		}
		p.Actors = append(p.Actors, a)
	}
	return p, nil
}

func (l *Loader) translateActor(ctx context.Context, ab *actorBlock) (*config.Actor, error) {
	a := &config.Actor{
		Name:     ab.Name,
		Rotation: ab.Rotation,
		Visible:  ab.Visible,
		Size:     ab.Size,
	}
	if ab.X != nil {
		a.X = *ab.X
	}
	if ab.Y != nil {
		a.Y = *ab.Y
	}

	vars, err := translateVariables(ctx, ab.Variables, ab.Lists, fmt.Sprintf("actor '%s'", ab.Name))
	if err != nil {
		return nil, err
	}
	a.Variables = vars

	for i, sb := range ab.Scripts {
		s, err := l.translateScript(ctx, sb)
		if err != nil {
			return nil, fmt.Errorf("actor '%s', script %d: %w", ab.Name, i+1, err)
		}
		a.Scripts = append(a.Scripts, s)
	}
	ctxlog.FromContext(ctx).Debug("Translated actor block.", "actor", a.Name, "scripts", len(a.Scripts), "variables", len(a.Variables))
	return a, nil
}

func translateVariables(ctx context.Context, vbs []*variableBlock, lbs []*listBlock, owner string) ([]*config.Variable, error) {
	out := make([]*config.Variable, 0, len(vbs)+len(lbs))
	for _, vb := range vbs {
		initial := value.Zero
		if isExprDefined(ctx, vb.Value, "value") {
			v, err := evalConstant(vb.Value)
			if err != nil {
				return nil, fmt.Errorf("invalid value for variable '%s' in %s: %w", vb.Name, owner, err)
			}
			if initial, err = value.FromCty(v); err != nil {
				return nil, fmt.Errorf("invalid value for variable '%s' in %s: %w", vb.Name, owner, err)
			}
		}
		out = append(out, &config.Variable{Name: vb.Name, Initial: initial})
	}
	for _, lb := range lbs {
		var items []value.Value
		if isExprDefined(ctx, lb.Items, "items") {
			v, err := evalConstant(lb.Items)
			if err != nil {
				return nil, fmt.Errorf("invalid items for list '%s' in %s: %w", lb.Name, owner, err)
			}
			if items, err = value.FromCtyList(v); err != nil {
				return nil, fmt.Errorf("invalid items for list '%s' in %s: %w", lb.Name, owner, err)
			}
		}
		out = append(out, &config.Variable{Name: lb.Name, List: true, Items: items})
	}
	return out, nil
}

// evalConstant evaluates an expression that must not reference anything.
func evalConstant(expr hcl.Expression) (cty.Value, error) {
	v, diags := expr.Value(nil)
	if diags.HasErrors() {
		return cty.NilVal, diags
	}
	return v, nil
}

func (l *Loader) translateScript(ctx context.Context, sb *scriptBlock) (*config.Script, error) {
	kind, ok := script.ParseTriggerKind("when_" + sb.When)
	if !ok {
		return nil, fmt.Errorf("unknown trigger %q", sb.When)
	}
	t := script.Trigger{Kind: kind}
	if sb.Message != nil {
		t.Message = *sb.Message
	}
	if sb.Target != nil {
		t.Target = *sb.Target
	}
	if kind == script.WhenBroadcast && t.Message == "" {
		return nil, fmt.Errorf("trigger %q requires a message", sb.When)
	}

	bricks, err := l.translateBricks(ctx, sb.Bricks)
	if err != nil {
		return nil, err
	}
	return &config.Script{Trigger: t, Bricks: bricks}, nil
}

func (l *Loader) translateBricks(ctx context.Context, bbs []*brickBlock) ([]*config.Brick, error) {
	out := make([]*config.Brick, 0, len(bbs))
	for _, bb := range bbs {
		b, err := l.translateBrick(ctx, bb)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func (l *Loader) translateBrick(ctx context.Context, bb *brickBlock) (*config.Brick, error) {
	b := &config.Brick{
		Kind:      bb.Kind,
		Args:      make(map[string]formula.Formula),
		DefRange:  bb.Remain.MissingItemRange(),
		ArgRanges: make(map[string]hcl.Range),
	}

	attrs, diags := bb.Remain.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("brick '%s' at %s: %w", bb.Kind, b.DefRange, diags)
	}
	for name, attr := range attrs {
		if name == disabledAttr {
			v, err := evalConstant(attr.Expr)
			if err != nil || v.IsNull() || v.Type() != cty.Bool {
				return nil, fmt.Errorf("brick '%s' at %s: %s must be a constant bool", bb.Kind, b.DefRange, disabledAttr)
			}
			b.Disabled = v.True()
			continue
		}
		f, err := formula.FromHCL(attr.Expr)
		if err != nil {
			return nil, fmt.Errorf("brick '%s', attribute '%s': %w", bb.Kind, name, err)
		}
		b.Args[name] = f
		b.ArgRanges[name] = attr.Expr.Range()
	}

	body, err := l.translateBricks(ctx, bb.Bricks)
	if err != nil {
		return nil, err
	}
	b.Body = body
	if bb.Else != nil {
		if b.Else, err = l.translateBricks(ctx, bb.Else.Bricks); err != nil {
			return nil, err
		}
	}
	return b, nil
}
