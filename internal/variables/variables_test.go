package variables_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/brickrun/internal/value"
	"github.com/vk/brickrun/internal/variables"
)

func TestContainer_DuplicateNames(t *testing.T) {
	t.Parallel()

	t.Run("within a scope", func(t *testing.T) {
		c := variables.New()
		_, err := c.AddGlobal("score", value.Zero)
		require.NoError(t, err)
		_, err = c.AddGlobal("score", value.Zero)
		require.ErrorIs(t, err, variables.ErrDuplicateName)

		_, err = c.AddActorVariable("cat", "hp", value.Zero)
		require.NoError(t, err)
		_, err = c.AddActorVariable("cat", "hp", value.Zero)
		require.ErrorIs(t, err, variables.ErrDuplicateName)
	})

	t.Run("across scopes", func(t *testing.T) {
		c := variables.New()
		_, err := c.AddGlobal("score", value.Zero)
		require.NoError(t, err)
		_, err = c.AddActorVariable("cat", "score", value.Zero)
		require.ErrorIs(t, err, variables.ErrDuplicateName)

		_, err = c.AddActorVariable("dog", "speed", value.Zero)
		require.NoError(t, err)
		_, err = c.AddGlobal("speed", value.Zero)
		require.ErrorIs(t, err, variables.ErrDuplicateName)
	})

	t.Run("same name in two actors", func(t *testing.T) {
		c := variables.New()
		a, err := c.AddActorVariable("cat", "hp", value.Number(1))
		require.NoError(t, err)
		b, err := c.AddActorVariable("dog", "hp", value.Number(2))
		require.NoError(t, err)
		require.NotEqual(t, a.ID(), b.ID())
	})

	t.Run("variables and lists are separate namespaces", func(t *testing.T) {
		c := variables.New()
		_, err := c.AddGlobal("items", value.Zero)
		require.NoError(t, err)
		_, err = c.AddGlobalList("items", nil)
		require.NoError(t, err)
	})
}

func TestContainer_LookupPrefersPrivateScope(t *testing.T) {
	t.Parallel()

	c := variables.New()
	g, err := c.AddGlobal("score", value.Number(1))
	require.NoError(t, err)
	c.AddActor("cat")

	v, ok := c.Lookup("cat", "score")
	require.True(t, ok)
	require.Same(t, g, v)

	_, ok = c.Lookup("cat", "missing")
	require.False(t, ok)

	_, ok = c.Actor("cat", "score", false)
	require.False(t, ok)
	_, ok = c.Global("score", false)
	require.True(t, ok)
}

func TestVariable_ListOperations(t *testing.T) {
	t.Parallel()

	c := variables.New()
	l, err := c.AddActorList("cat", "path", []value.Value{value.Number(1), value.Number(2)})
	require.NoError(t, err)

	l.Append(value.Number(3))
	l.Insert(1, value.Number(0))
	l.Insert(99, value.Number(4))
	l.Insert(0, value.Number(-1))
	require.Equal(t, []value.Value{value.Number(0), value.Number(1), value.Number(2), value.Number(3), value.Number(4)}, l.Items())

	l.Delete(2)
	l.Delete(42)
	l.Replace(1, value.Text("start"))
	require.Equal(t, []value.Value{value.Text("start"), value.Number(2), value.Number(3), value.Number(4)}, l.Items())
	require.Equal(t, 4, l.Len())

	c.Reset()
	require.Equal(t, []value.Value{value.Number(1), value.Number(2)}, l.Items())
}

func TestContainer_CloneActorScope(t *testing.T) {
	t.Parallel()

	c := variables.New()
	g, err := c.AddGlobal("score", value.Number(7))
	require.NoError(t, err)
	hp, err := c.AddActorVariable("cat", "hp", value.Number(3))
	require.NoError(t, err)
	path, err := c.AddActorList("cat", "path", []value.Value{value.Text("a")})
	require.NoError(t, err)

	hp.Set(value.Number(9))

	mapping, err := c.CloneActorScope("cat", "cat#1")
	require.NoError(t, err)
	require.Len(t, mapping, 2)

	cloneHP := mapping[hp]
	require.NotSame(t, hp, cloneHP)
	require.Equal(t, 9.0, cloneHP.Get().Number(), "clone is seeded from the current value")
	require.Equal(t, "cat#1", cloneHP.Owner())
	require.Equal(t, []value.Value{value.Text("a")}, mapping[path].Items())

	cloneHP.Set(value.Number(1))
	require.Equal(t, 9.0, hp.Get().Number(), "source is unaffected by writes to the clone")

	shared, ok := c.Lookup("cat#1", "score")
	require.True(t, ok)
	require.Same(t, g, shared, "globals are shared, never duplicated")

	_, err = c.CloneActorScope("nobody", "x")
	require.ErrorIs(t, err, variables.ErrUnknownActor)
	_, err = c.CloneActorScope("cat", "cat#1")
	require.ErrorIs(t, err, variables.ErrDuplicateName)
}

func TestContainer_Names(t *testing.T) {
	t.Parallel()

	c := variables.New()
	_, _ = c.AddGlobal("b", value.Zero)
	_, _ = c.AddActorVariable("cat", "a", value.Zero)
	_, _ = c.AddActorVariable("dog", "c", value.Zero)
	_, _ = c.AddGlobalList("l", nil)

	require.Equal(t, []string{"a", "b"}, c.Names("cat"))
	require.Equal(t, []string{"b"}, c.Names(""))
	require.Equal(t, []string{"l"}, c.ListNames("dog"))

	c.RemoveActor("cat")
	require.Equal(t, []string{"b"}, c.Names("cat"))
}

func TestVariable_ConcurrentReaders(t *testing.T) {
	t.Parallel()

	c := variables.New()
	v, err := c.AddGlobal("n", value.Zero)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = v.Get()
			_, _ = c.Lookup("cat", "n")
		}()
	}
	v.Set(value.Number(1))
	wg.Wait()
	require.Equal(t, 1.0, v.Get().Number())
}
