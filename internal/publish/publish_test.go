package publish_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/brickrun/internal/events"
	"github.com/vk/brickrun/internal/publish"
)

type sent struct {
	event   string
	payload map[string]any
}

type fakeConn struct {
	mu     sync.Mutex
	sent   []sent
	fail   string
	closed bool
}

func (c *fakeConn) Emit(event string, args ...any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if event == c.fail {
		return errors.New("boom")
	}
	c.sent = append(c.sent, sent{event: event, payload: args[0].(map[string]any)})
	return nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeConn) snapshot() ([]sent, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]sent(nil), c.sent...), c.closed
}

func TestPublisher_ForwardsQueuedEvents(t *testing.T) {
	conn := &fakeConn{}
	p := publish.New(conn, "run-1", 8, nil)

	p.Emit(events.ActorCloned{Actor: "cat#1", Source: "cat"})
	p.Emit(events.ProgramStopped{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.Run(ctx)

	got, closed := conn.snapshot()
	require.Len(t, got, 2)
	assert.True(t, closed)
	assert.Equal(t, "actor_cloned", got[0].event)
	assert.Equal(t, "cat#1", got[0].payload["actor"])
	assert.Equal(t, "run-1", got[0].payload["run_id"])
	assert.Equal(t, uint64(1), got[0].payload["seq"])
	assert.Equal(t, "program_stopped", got[1].event)
	assert.Equal(t, uint64(2), got[1].payload["seq"])
	assert.Equal(t, uint64(2), p.Sent())
}

func TestPublisher_RunsUntilCancelled(t *testing.T) {
	conn := &fakeConn{}
	p := publish.New(conn, "", 8, nil)
	_, err := uuid.Parse(p.RunID())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	p.Emit(events.ClearCanvas{})
	require.Eventually(t, func() bool {
		got, _ := conn.snapshot()
		return len(got) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
	_, closed := conn.snapshot()
	assert.True(t, closed)
}

func TestPublisher_DropsWhenFullAndSkipsFailedSends(t *testing.T) {
	conn := &fakeConn{fail: "clear_canvas"}
	p := publish.New(conn, "run-2", 2, nil)

	p.Emit(events.ClearCanvas{})
	p.Emit(events.ProgramStopped{})
	p.Emit(events.ProgramStopped{})
	assert.Equal(t, uint64(1), p.Dropped())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.Run(ctx)

	got, _ := conn.snapshot()
	require.Len(t, got, 1)
	assert.Equal(t, "program_stopped", got[0].event)
	assert.Equal(t, uint64(2), got[0].payload["seq"])
	assert.Equal(t, uint64(1), p.Sent())
}

func TestConnect_RejectsRelativeURL(t *testing.T) {
	_, err := publish.Connect(context.Background(), publish.Config{URL: "/socket.io"}, nil)
	require.ErrorContains(t, err, "must be absolute")
}
