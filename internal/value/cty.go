package value

import (
	"fmt"
	"math"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// FromCty converts a primitive cty value (as produced by evaluating an HCL
// literal) into a Value. Null values convert to Zero.
func FromCty(v cty.Value) (Value, error) {
	if v.IsNull() {
		return Zero, nil
	}
	if !v.IsKnown() {
		return Zero, fmt.Errorf("value is not known")
	}
	switch v.Type() {
	case cty.Number:
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			bf := v.AsBigFloat()
			if bf.IsInf() {
				return Number(math.Inf(bf.Sign())), nil
			}
			return Zero, fmt.Errorf("number out of range: %w", err)
		}
		return Number(f), nil
	case cty.String:
		return Text(v.AsString()), nil
	case cty.Bool:
		return Bool(v.True()), nil
	default:
		return Zero, fmt.Errorf("unsupported value type %s", v.Type().FriendlyName())
	}
}

// FromCtyList converts a cty list, set or tuple of primitives into Values.
func FromCtyList(v cty.Value) ([]Value, error) {
	if v.IsNull() {
		return nil, nil
	}
	if !v.CanIterateElements() {
		return nil, fmt.Errorf("expected a list, got %s", v.Type().FriendlyName())
	}
	out := make([]Value, 0, v.LengthInt())
	for it := v.ElementIterator(); it.Next(); {
		_, ev := it.Element()
		item, err := FromCty(ev)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// ToCty converts v into its cty equivalent. cty numbers cannot hold NaN, so
// NaN is carried as the string "NaN".
func ToCty(v Value) cty.Value {
	switch v.tag {
	case TextTag:
		return cty.StringVal(v.str)
	case BoolTag:
		return cty.BoolVal(v.b)
	default:
		switch {
		case math.IsNaN(v.num):
			return cty.StringVal("NaN")
		case math.IsInf(v.num, 1):
			return cty.PositiveInfinity
		case math.IsInf(v.num, -1):
			return cty.NegativeInfinity
		}
		return cty.NumberFloatVal(v.num)
	}
}
