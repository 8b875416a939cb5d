package formula_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/vk/brickrun/internal/formula"
	"github.com/vk/brickrun/internal/value"
)

// assertDistinct fails if any node of a is pointer-identical to a node of b.
func assertDistinct(t *testing.T, a, b formula.Formula) {
	t.Helper()
	seen := make(map[formula.Formula]struct{})
	formula.Walk(a, func(n formula.Formula) { seen[n] = struct{}{} })
	formula.Walk(b, func(n formula.Formula) {
		_, shared := seen[n]
		require.False(t, shared, "clone shares node %T with its source", n)
	})
}

func TestClone_StructurallyEqualAndDistinct(t *testing.T) {
	t.Parallel()

	sources := []string{
		`270`,
		`"hello"`,
		`true`,
		`var.speed`,
		`global_list.names`,
		`sensor.loudness`,
		`-var.x`,
		`!(var.a && var.b)`,
		`var.a * (2 + sin(sensor.direction))`,
		`join("a", var.b, "c")`,
		`var.x > 3 ? "big" : "small"`,
		`number_of_items(list.path) + 1`,
	}

	for _, src := range sources {
		t.Run(src, func(t *testing.T) {
			f := formula.MustParse(src)
			c := formula.Clone(f)

			require.True(t, formula.Equal(f, c))
			require.NotSame(t, f, c)
			assertDistinct(t, f, c)
			require.Empty(t, cmp.Diff(formula.Source(f), formula.Source(c)))
		})
	}

	require.Nil(t, formula.Clone(nil))
}

func TestEqual(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		a, b string
		want bool
	}{
		{"same literal", `1`, `1`, true},
		{"different literal", `1`, `2`, false},
		{"number vs text", `1`, `"1"`, false},
		{"different scope", `var.x`, `global.x`, false},
		{"list vs variable", `list.x`, `var.x`, false},
		{"different operator", `1 + 2`, `1 - 2`, false},
		{"different arity", `max(1, 2)`, `max(1, 2, 3)`, false},
		{"deep equal", `max(var.a, 2) * -sensor.x`, `max(var.a, 2) * -sensor.x`, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, formula.Equal(formula.MustParse(tc.a), formula.MustParse(tc.b)))
		})
	}

	require.True(t, formula.Equal(nil, nil))
	require.False(t, formula.Equal(nil, formula.Number(1)))
}

func TestReferencesAndFunctions(t *testing.T) {
	t.Parallel()

	f := formula.MustParse(`max(var.b, global.a) + length_of_list(list.items) + var.b + sin(1)`)

	refs := formula.References(f)
	names := make([]string, len(refs))
	for i, r := range refs {
		names[i] = r.String()
	}
	require.Equal(t, []string{"global.a", "list.items", "var.b"}, names)
	require.Equal(t, []string{"length_of_list", "max", "sin"}, formula.Functions(f))
}

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("literal and reference shapes", func(t *testing.T) {
		require.Equal(t, &formula.Literal{Value: value.Number(20)}, formula.MustParse(`20`))
		require.Equal(t, &formula.Literal{Value: value.Text("hi")}, formula.MustParse(`"hi"`))
		require.Equal(t, &formula.VariableRef{Scope: formula.ScopeActor, Name: "hp"}, formula.MustParse(`actor.hp`))
		require.Equal(t, &formula.SensorRef{ID: "x"}, formula.MustParse(`sensor.x`))
	})

	t.Run("template becomes join", func(t *testing.T) {
		f := formula.MustParse(`"score: ${var.score}"`)
		call, ok := f.(*formula.FunctionCall)
		require.True(t, ok)
		require.Equal(t, "join", call.Name)
		require.Len(t, call.Args, 2)
	})

	t.Run("rejected syntax", func(t *testing.T) {
		for _, src := range []string{`var.a.b`, `foo.bar`, `[1, 2]`, `{a = 1}`, `var.list[0]`, `max(var.l...)`, `1 +`} {
			_, err := formula.Parse(src)
			require.Error(t, err, src)
		}
	})
}
