package value_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/brickrun/internal/value"
	"github.com/zclconf/go-cty/cty"
)

func TestValue_NumberCoercion(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		in   value.Value
		want float64
	}{
		{"number", value.Number(2.5), 2.5},
		{"true", value.Bool(true), 1},
		{"false", value.Bool(false), 0},
		{"plain text number", value.Text("42"), 42},
		{"leading prefix", value.Text("12abc"), 12},
		{"decimal prefix", value.Text(" -3.5kg"), -3.5},
		{"exponent", value.Text("1e3x"), 1000},
		{"dangling exponent", value.Text("7e"), 7},
		{"no prefix", value.Text("abc"), 0},
		{"empty", value.Text(""), 0},
		{"lone dot", value.Text("."), 0},
		{"infinity spelling", value.Text("Infinity"), math.Inf(1)},
		{"negative infinity spelling", value.Text(" -Infinity "), math.Inf(-1)},
		{"lowercase inf", value.Text("inf"), 0},
		{"hex float", value.Text("0x1p3"), 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.in.Number())
		})
	}
}

func TestValue_TextCoercion(t *testing.T) {
	t.Parallel()

	require.Equal(t, "3", value.Number(3).Text())
	require.Equal(t, "3.25", value.Number(3.25).Text())
	require.Equal(t, "NaN", value.Number(math.NaN()).Text())
	require.Equal(t, "Infinity", value.Number(math.Inf(1)).Text())
	require.Equal(t, "-Infinity", value.Number(math.Inf(-1)).Text())
	require.Equal(t, "true", value.Bool(true).Text())
	require.Equal(t, "hello", value.Text("hello").Text())
}

func TestValue_BoolCoercion(t *testing.T) {
	t.Parallel()

	require.True(t, value.Number(1).Bool())
	require.False(t, value.Number(0).Bool())
	require.False(t, value.Number(math.NaN()).Bool())
	require.True(t, value.Text("TRUE").Bool())
	require.True(t, value.Text("2").Bool())
	require.False(t, value.Text("false").Bool())
	require.False(t, value.Text("banana").Bool())
}

func TestValue_IsNumeric(t *testing.T) {
	t.Parallel()

	require.True(t, value.Number(1).IsNumeric())
	require.True(t, value.Bool(false).IsNumeric())
	require.True(t, value.Text(" 12.5 ").IsNumeric())
	require.False(t, value.Text("12abc").IsNumeric())
	require.False(t, value.Text("").IsNumeric())
	require.True(t, value.Text("Infinity").IsNumeric())
	require.True(t, value.Text("NaN").IsNumeric())
	require.True(t, math.IsNaN(value.Text("NaN").Number()))
	for _, s := range []string{"inf", "nan", "0x1p3", "1_000", "Infinityx", "+"} {
		require.False(t, value.Text(s).IsNumeric(), s)
	}
}

func TestEqual(t *testing.T) {
	t.Parallel()

	require.True(t, value.Equal(value.Number(math.NaN()), value.Number(math.NaN())))
	require.True(t, value.Equal(value.Text("a"), value.Text("a")))
	require.False(t, value.Equal(value.Text("1"), value.Number(1)))
	require.True(t, value.Equal(value.Zero, value.Value{}))
}

func TestCtyBridge(t *testing.T) {
	t.Parallel()

	t.Run("primitives", func(t *testing.T) {
		v, err := value.FromCty(cty.NumberIntVal(5))
		require.NoError(t, err)
		require.Equal(t, 5.0, v.Number())

		v, err = value.FromCty(cty.StringVal("hi"))
		require.NoError(t, err)
		require.Equal(t, value.TextTag, v.Tag())

		v, err = value.FromCty(cty.NullVal(cty.String))
		require.NoError(t, err)
		require.True(t, value.Equal(value.Zero, v))
	})

	t.Run("unsupported type", func(t *testing.T) {
		_, err := value.FromCty(cty.ObjectVal(map[string]cty.Value{"a": cty.True}))
		require.Error(t, err)
	})

	t.Run("list", func(t *testing.T) {
		items, err := value.FromCtyList(cty.TupleVal([]cty.Value{cty.NumberIntVal(1), cty.StringVal("b")}))
		require.NoError(t, err)
		require.Len(t, items, 2)
		require.Equal(t, "b", items[1].Text())
	})

	t.Run("round trip", func(t *testing.T) {
		for _, v := range []value.Value{value.Number(1.5), value.Text("x"), value.Bool(true), value.Number(math.Inf(1))} {
			back, err := value.FromCty(value.ToCty(v))
			require.NoError(t, err)
			require.True(t, value.Equal(v, back), "round trip of %v", v)
		}
		require.Equal(t, cty.StringVal("NaN"), value.ToCty(value.Number(math.NaN())))
	})
}
