package clock_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vk/brickrun/internal/clock"
)

func TestVirtual(t *testing.T) {
	t.Parallel()

	var v clock.Virtual
	require.Equal(t, time.Unix(0, 0), v.Now())

	got := v.Advance(400 * time.Millisecond)
	require.Equal(t, time.Unix(0, 0).Add(400*time.Millisecond), got)
	require.Equal(t, got, v.Now())

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	v.Set(start)
	require.Equal(t, start, v.Now())
}

func TestSeconds(t *testing.T) {
	t.Parallel()

	require.Equal(t, 1500*time.Millisecond, clock.Seconds(1.5))
	require.Equal(t, time.Duration(0), clock.Seconds(-1))
	require.Equal(t, time.Duration(0), clock.Seconds(math.NaN()))
	require.Equal(t, time.Duration(1<<62), clock.Seconds(math.Inf(1)))
}
