package formula

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/brickrun/internal/value"
)

// Parse parses formula source written in HCL expression syntax, e.g.
// `var.speed * 2 + sin(sensor.direction)`.
func Parse(src string) (Formula, error) {
	expr, diags := hclsyntax.ParseExpression([]byte(src), "formula", hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse formula %q: %w", src, diags)
	}
	return FromHCL(expr)
}

// MustParse is like Parse but panics on error. It is intended for tests and
// static tables.
func MustParse(src string) Formula {
	f, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return f
}

var binaryOps = map[*hclsyntax.Operation]BinaryOperator{
	hclsyntax.OpAdd:                Add,
	hclsyntax.OpSubtract:           Subtract,
	hclsyntax.OpMultiply:           Multiply,
	hclsyntax.OpDivide:             Divide,
	hclsyntax.OpModulo:             Modulo,
	hclsyntax.OpEqual:              Equals,
	hclsyntax.OpNotEqual:           NotEquals,
	hclsyntax.OpLessThan:           Less,
	hclsyntax.OpLessThanOrEqual:    LessOrEqual,
	hclsyntax.OpGreaterThan:        Greater,
	hclsyntax.OpGreaterThanOrEqual: GreaterOrEqual,
	hclsyntax.OpLogicalAnd:         And,
	hclsyntax.OpLogicalOr:          Or,
}

// FromHCL converts a parsed HCL expression into a formula tree. Only the
// subset of HCL that maps onto formula nodes is accepted; anything else
// (for expressions, splats, indexing, object constructors) is an error.
func FromHCL(expr hcl.Expression) (Formula, error) {
	switch e := expr.(type) {
	case *hclsyntax.LiteralValueExpr:
		v, err := value.FromCty(e.Val)
		if err != nil {
			return nil, rangeErr(e.SrcRange, err)
		}
		return &Literal{Value: v}, nil

	case *hclsyntax.ScopeTraversalExpr:
		return fromTraversal(e.Traversal, e.SrcRange)

	case *hclsyntax.ParenthesesExpr:
		return FromHCL(e.Expression)

	case *hclsyntax.UnaryOpExpr:
		x, err := FromHCL(e.Val)
		if err != nil {
			return nil, err
		}
		switch e.Op {
		case hclsyntax.OpNegate:
			return &UnaryOp{Op: Negate, X: x}, nil
		case hclsyntax.OpLogicalNot:
			return &UnaryOp{Op: Not, X: x}, nil
		}
		return nil, rangeErr(e.SrcRange, fmt.Errorf("unsupported unary operator"))

	case *hclsyntax.BinaryOpExpr:
		op, ok := binaryOps[e.Op]
		if !ok {
			return nil, rangeErr(e.SrcRange, fmt.Errorf("unsupported binary operator"))
		}
		l, err := FromHCL(e.LHS)
		if err != nil {
			return nil, err
		}
		r, err := FromHCL(e.RHS)
		if err != nil {
			return nil, err
		}
		return &BinaryOp{Op: op, L: l, R: r}, nil

	case *hclsyntax.ConditionalExpr:
		args, err := fromExprs(e.Condition, e.TrueResult, e.FalseResult)
		if err != nil {
			return nil, err
		}
		return &FunctionCall{Name: "if_then_else", Args: args}, nil

	case *hclsyntax.FunctionCallExpr:
		if e.ExpandFinal {
			return nil, rangeErr(e.Range(), fmt.Errorf("argument expansion is not supported"))
		}
		args, err := fromExprs(e.Args...)
		if err != nil {
			return nil, err
		}
		return &FunctionCall{Name: e.Name, Args: args}, nil

	case *hclsyntax.TemplateWrapExpr:
		return FromHCL(e.Wrapped)

	case *hclsyntax.TemplateExpr:
		// A plain quoted string is a template with one literal part.
		if len(e.Parts) == 1 {
			if lit, ok := e.Parts[0].(*hclsyntax.LiteralValueExpr); ok {
				v, err := value.FromCty(lit.Val)
				if err != nil {
					return nil, rangeErr(e.SrcRange, err)
				}
				return &Literal{Value: value.Text(v.Text())}, nil
			}
		}
		args, err := fromExprs(e.Parts...)
		if err != nil {
			return nil, err
		}
		return &FunctionCall{Name: "join", Args: args}, nil

	case nil:
		return nil, fmt.Errorf("missing expression")

	default:
		return nil, rangeErr(expr.Range(), fmt.Errorf("unsupported expression type %T", expr))
	}
}

func fromExprs[E hcl.Expression](exprs ...E) ([]Formula, error) {
	out := make([]Formula, 0, len(exprs))
	for _, x := range exprs {
		f, err := FromHCL(x)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// fromTraversal maps `<root>.<name>` onto variable, list and sensor
// references.
func fromTraversal(t hcl.Traversal, rng hcl.Range) (Formula, error) {
	if len(t) != 2 {
		return nil, rangeErr(rng, fmt.Errorf("reference must have the form <kind>.<name>"))
	}
	attr, ok := t[1].(hcl.TraverseAttr)
	if !ok {
		return nil, rangeErr(rng, fmt.Errorf("reference must have the form <kind>.<name>"))
	}
	name := attr.Name
	switch t.RootName() {
	case "var":
		return &VariableRef{Scope: ScopeAuto, Name: name}, nil
	case "global":
		return &VariableRef{Scope: ScopeGlobal, Name: name}, nil
	case "actor":
		return &VariableRef{Scope: ScopeActor, Name: name}, nil
	case "list":
		return &VariableRef{Scope: ScopeAuto, Name: name, List: true}, nil
	case "global_list":
		return &VariableRef{Scope: ScopeGlobal, Name: name, List: true}, nil
	case "actor_list":
		return &VariableRef{Scope: ScopeActor, Name: name, List: true}, nil
	case "sensor":
		return &SensorRef{ID: name}, nil
	default:
		return nil, rangeErr(rng, fmt.Errorf("unknown reference kind %q", t.RootName()))
	}
}

func rangeErr(rng hcl.Range, err error) error {
	return fmt.Errorf("%s: %w", rng.String(), err)
}
