package integration_tests

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/brickrun/internal/app"
	"github.com/vk/brickrun/internal/testutil"
)

// Test for: broadcast and wait resumes only after every receiver finished
func TestCoreExecution_BroadcastAndWait_ResumesAfterReceivers(t *testing.T) {
	t.Parallel()

	program := `
list "log" {
  items = []
}

actor "stage" {
  script {
    when = "started"
    brick "add_item" {
      list  = "log"
      value = "start"
    }
    brick "broadcast_and_wait" {
      message = "work"
    }
    brick "add_item" {
      list  = "log"
      value = "done"
    }
  }
}

actor "worker" {
  script {
    when    = "broadcast"
    message = "work"
    brick "wait" {
      seconds = 0.5
    }
    brick "add_item" {
      list  = "log"
      value = "worked"
    }
  }
}
`
	run := testutil.RunIntegrationTest(t, map[string]string{"main.hcl": program}, app.Config{})

	require.NoError(t, run.Err)
	assert.Equal(t, []string{"start", "worked", "done"}, testutil.Texts(run.GlobalList(t, "log")))
	assert.Contains(t, run.Logs.String(), "reason=idle")
}
