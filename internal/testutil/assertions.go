package testutil

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/vk/brickrun/internal/events"
	"github.com/vk/brickrun/internal/value"
)

// Texts renders values as text, for compact comparisons.
func Texts(vs []value.Value) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.Text()
	}
	return out
}

// AssertSegments compares the recorded line segments with want.
func AssertSegments(t *testing.T, h *Harness, want []events.LineSegment) {
	t.Helper()
	if diff := cmp.Diff(want, events.Of[events.LineSegment](h.Events)); diff != "" {
		t.Errorf("line segments mismatch (-want +got):\n%s", diff)
	}
}
