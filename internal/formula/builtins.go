package formula

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/vk/brickrun/internal/value"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

type builtin struct {
	minArgs int
	maxArgs int // -1 for variadic
	fn      func(c *call) (value.Value, error)
}

// call gives a builtin lazy access to its arguments.
type call struct {
	e    *evaluation
	args []Formula
}

func (c *call) value(i int) value.Value { return c.e.eval(c.args[i]) }
func (c *call) num(i int) float64       { return c.value(i).Number() }
func (c *call) text(i int) string       { return c.value(i).Text() }

// list resolves argument i as a list reference.
func (c *call) list(i int) ([]value.Value, error) {
	ref, ok := c.args[i].(*VariableRef)
	if !ok {
		return nil, fmt.Errorf("argument %d must be a list", i+1)
	}
	items, found := c.e.ctx.List(ref.Scope, ref.Name)
	if !found {
		c.e.warn("unknown list %q", ref.Name)
		return nil, nil
	}
	return items, nil
}

var errIndexOutOfRange = errors.New("index out of range")

func unary(fn func(float64) float64) builtin {
	return builtin{minArgs: 1, maxArgs: 1, fn: func(c *call) (value.Value, error) {
		return value.Number(fn(c.num(0))), nil
	}}
}

func isWhole(f float64) bool {
	return !math.IsInf(f, 0) && f == math.Trunc(f)
}

func degrees(rad float64) float64 { return rad * 180 / math.Pi }
func radians(deg float64) float64 { return deg * math.Pi / 180 }

func ctyString(fn func(cty.Value) (cty.Value, error)) builtin {
	return builtin{minArgs: 1, maxArgs: 1, fn: func(c *call) (value.Value, error) {
		out, err := fn(cty.StringVal(c.text(0)))
		if err != nil {
			return value.Zero, err
		}
		return value.FromCty(out)
	}}
}

func builtinTable() map[string]builtin {
	listLength := builtin{minArgs: 1, maxArgs: 1, fn: func(c *call) (value.Value, error) {
		items, err := c.list(0)
		return value.Number(float64(len(items))), err
	}}

	return map[string]builtin{
		"sin":  unary(func(x float64) float64 { return math.Sin(radians(x)) }),
		"cos":  unary(func(x float64) float64 { return math.Cos(radians(x)) }),
		"tan":  unary(func(x float64) float64 { return math.Tan(radians(x)) }),
		"asin": unary(func(x float64) float64 { return degrees(math.Asin(x)) }),
		"acos": unary(func(x float64) float64 { return degrees(math.Acos(x)) }),
		"atan": unary(func(x float64) float64 { return degrees(math.Atan(x)) }),
		"ln":   unary(math.Log),
		"log":  unary(math.Log10),
		"exp":  unary(math.Exp),
		"sqrt": unary(math.Sqrt),
		"abs":  unary(math.Abs),
		// Halves round away from zero.
		"round": unary(math.Round),
		"floor": unary(math.Floor),
		"ceil":  unary(math.Ceil),
		"pi": {minArgs: 0, maxArgs: 0, fn: func(*call) (value.Value, error) {
			return value.Number(math.Pi), nil
		}},
		"mod": {minArgs: 2, maxArgs: 2, fn: func(c *call) (value.Value, error) {
			a, b := c.num(0), c.num(1)
			m := math.Mod(a, b)
			if m != 0 && (m < 0) != (b < 0) {
				m += b
			}
			return value.Number(m), nil
		}},
		"pow": {minArgs: 2, maxArgs: 2, fn: func(c *call) (value.Value, error) {
			return value.Number(math.Pow(c.num(0), c.num(1))), nil
		}},
		"min": {minArgs: 1, maxArgs: -1, fn: func(c *call) (value.Value, error) {
			m := c.num(0)
			for i := 1; i < len(c.args); i++ {
				m = math.Min(m, c.num(i))
			}
			return value.Number(m), nil
		}},
		"max": {minArgs: 1, maxArgs: -1, fn: func(c *call) (value.Value, error) {
			m := c.num(0)
			for i := 1; i < len(c.args); i++ {
				m = math.Max(m, c.num(i))
			}
			return value.Number(m), nil
		}},
		"rand": {minArgs: 2, maxArgs: 2, fn: func(c *call) (value.Value, error) {
			lo, hi := c.num(0), c.num(1)
			if lo > hi {
				lo, hi = hi, lo
			}
			r := c.e.ip.rand
			if isWhole(lo) && isWhole(hi) && hi-lo < 1<<53 {
				return value.Number(lo + float64(r.Int64N(int64(hi-lo)+1))), nil
			}
			return value.Number(lo + r.Float64()*(hi-lo)), nil
		}},
		"if_then_else": {minArgs: 3, maxArgs: 3, fn: func(c *call) (value.Value, error) {
			if c.value(0).Bool() {
				return c.value(1), nil
			}
			return c.value(2), nil
		}},
		"join": {minArgs: 0, maxArgs: -1, fn: func(c *call) (value.Value, error) {
			var sb strings.Builder
			for i := range c.args {
				sb.WriteString(c.text(i))
			}
			return value.Text(sb.String()), nil
		}},
		"length": {minArgs: 1, maxArgs: 1, fn: func(c *call) (value.Value, error) {
			return value.Number(float64(len([]rune(c.text(0))))), nil
		}},
		"letter": {minArgs: 2, maxArgs: 2, fn: func(c *call) (value.Value, error) {
			idx := int(c.num(0))
			runes := []rune(c.text(1))
			if idx < 1 || idx > len(runes) {
				return value.Text(""), nil
			}
			return value.Text(string(runes[idx-1])), nil
		}},
		"upper": ctyString(stdlib.Upper),
		"lower": ctyString(stdlib.Lower),
		"regex": {minArgs: 2, maxArgs: 2, fn: func(c *call) (value.Value, error) {
			out, err := stdlib.Regex(cty.StringVal(c.text(0)), cty.StringVal(c.text(1)))
			if err != nil {
				return value.Zero, err
			}
			if out.Type() == cty.String {
				return value.Text(out.AsString()), nil
			}
			// Capture groups come back as a tuple or object; take the first.
			for it := out.ElementIterator(); it.Next(); {
				_, first := it.Element()
				return value.FromCty(first)
			}
			return value.Text(""), nil
		}},
		"number_of_items": listLength,
		"length_of_list":  listLength,
		"element": {minArgs: 2, maxArgs: 2, fn: func(c *call) (value.Value, error) {
			idx := int(c.num(0))
			items, err := c.list(1)
			if err != nil {
				return value.Zero, err
			}
			if idx < 1 || idx > len(items) {
				return value.Zero, errIndexOutOfRange
			}
			return items[idx-1], nil
		}},
		"contains": {minArgs: 2, maxArgs: 2, fn: func(c *call) (value.Value, error) {
			items, err := c.list(0)
			if err != nil {
				return value.Zero, err
			}
			needle := c.value(1)
			for _, it := range items {
				if equalValues(it, needle) {
					return value.Bool(true), nil
				}
			}
			return value.Bool(false), nil
		}},
		"index_of": {minArgs: 2, maxArgs: 2, fn: func(c *call) (value.Value, error) {
			needle := c.value(0)
			items, err := c.list(1)
			if err != nil {
				return value.Zero, err
			}
			for i, it := range items {
				if equalValues(it, needle) {
					return value.Number(float64(i + 1)), nil
				}
			}
			return value.Number(0), nil
		}},
	}
}
