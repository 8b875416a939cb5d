package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/brickrun/internal/actor"
	"github.com/vk/brickrun/internal/engine"
	"github.com/vk/brickrun/internal/events"
	"github.com/vk/brickrun/internal/report"
	"github.com/vk/brickrun/internal/script"
	"github.com/vk/brickrun/internal/testutil"
	"github.com/vk/brickrun/internal/variables"
)

const frame = 100 * time.Millisecond

func TestPenTrail_DrawsOnlyWithPenDown(t *testing.T) {
	h := testutil.NewHarness(t, `
actor "pen" {
  script {
    when = "started"
    brick "pen_down" {}
    brick "place_at" {
      x = 1
      y = 1
    }
    brick "wait" {
      seconds = 0
    }
    brick "pen_up" {}
    brick "place_at" {
      x = 2
      y = 2
    }
  }
}
`)
	h.Start()

	h.Tick()
	testutil.AssertSegments(t, h, []events.LineSegment{{
		Actor: "pen",
		Start: actor.Point{X: 0, Y: 0},
		End:   actor.Point{X: 1, Y: 1},
		Width: actor.DefaultPenSize,
		Color: actor.DefaultPenColor,
	}})

	h.Events.Reset()
	h.Step(frame)
	testutil.AssertSegments(t, h, nil)
	assert.Equal(t, actor.Point{X: 2, Y: 2}, h.Actor("pen").Pen.PreviousPosition)
}

func TestPointInDirection(t *testing.T) {
	h := testutil.NewHarness(t, `
actor "cat" {
  script {
    when = "started"
    brick "point_in_direction" {
      degrees = 20
    }
  }
}
`)
	h.Start()
	h.Tick()
	assert.InDelta(t, 20.0, h.Actor("cat").Rotation, 1e-4)
}

func TestNote_PauseKeepsRemainingTime(t *testing.T) {
	h := testutil.NewHarness(t, `
actor "band" {
  script {
    when = "started"
    brick "play_note" {
      pitch = 60
      beats = 1
    }
  }
}
`)
	h.Start()
	h.Tick()
	require.Len(t, events.Of[events.NoteStarted](h.Events), 1)

	h.Clock.Set(h.At(400 * time.Millisecond))
	h.Engine.Pause()
	h.Clock.Set(h.At(900 * time.Millisecond))
	h.Engine.Resume()

	h.Clock.Set(h.At(1000 * time.Millisecond))
	h.Tick()
	h.Clock.Set(h.At(1400 * time.Millisecond))
	h.Tick()
	assert.Empty(t, events.Of[events.NoteEnded](h.Events))

	h.Clock.Set(h.At(1500 * time.Millisecond))
	h.Tick()
	ended := events.Of[events.NoteEnded](h.Events)
	require.Len(t, ended, 1)
	assert.Equal(t, "band", ended[0].Actor)
	assert.False(t, ended[0].Cancelled)
	assert.True(t, h.Engine.Idle())
}

func TestBroadcast_ReceiverStartsNextTick(t *testing.T) {
	h := testutil.NewHarness(t, `
actor "sender" {
  script {
    when = "started"
    brick "broadcast" {
      message = "go"
    }
  }
}

actor "receiver" {
  script {
    when    = "broadcast"
    message = "go"
    brick "set_x" {
      x = 5
    }
    brick "wait" {
      seconds = 10
    }
  }
}
`)
	h.Start()

	h.Tick()
	state, ok := h.Engine.ScriptState("receiver", 1)
	require.True(t, ok)
	assert.Equal(t, script.Idle, state)
	assert.Equal(t, 0.0, h.Actor("receiver").Position.X)

	h.Step(frame)
	state, _ = h.Engine.ScriptState("receiver", 1)
	assert.Equal(t, script.Suspended, state)
	assert.Equal(t, 5.0, h.Actor("receiver").Position.X)
}

func TestVariables_ScopesAndListOperations(t *testing.T) {
	h := testutil.NewHarness(t, `
variable "score" {
  value = 1
}

list "log" {}

actor "cat" {
  variable "hp" {
    value = 100
  }

  script {
    when = "started"
    brick "change_variable" {
      variable = "hp"
      delta    = 1
    }
    brick "add_item" {
      list  = "log"
      value = global.score + actor.hp
    }
    brick "add_item" {
      list  = "log"
      value = "x"
    }
    brick "insert_item" {
      list  = "log"
      index = 1
      value = "first"
    }
    brick "replace_item" {
      list  = "log"
      index = 3
      value = "y"
    }
    brick "delete_item" {
      list  = "log"
      index = 1
    }
    brick "set_variable" {
      variable = "score"
      value    = number_of_items(list.log)
    }
  }
}
`)
	h.Start()
	h.Tick()

	assert.Equal(t, 2.0, h.Global("score").Number())
	assert.Equal(t, 101.0, h.Private("cat", "hp").Number())
	assert.Equal(t, []string{"102", "y"}, testutil.Texts(h.List("cat", "log")))
}

func TestClones_GetPrivateCopiesAndCanBeDeleted(t *testing.T) {
	h := testutil.NewHarness(t, `
actor "cat" {
  variable "hp" {
    value = 3
  }

  script {
    when = "started"
    brick "create_clone" {}
    brick "create_clone" {
      target = "myself"
    }
  }

  script {
    when = "cloned"
    brick "change_variable" {
      variable = "hp"
      delta    = 1
    }
    brick "wait" {
      seconds = 1
    }
    brick "delete_clone" {}
  }
}
`)
	h.Start()

	h.Tick()
	require.Len(t, h.Engine.Actors(), 3)
	cloned := events.Of[events.ActorCloned](h.Events)
	assert.Equal(t, []events.ActorCloned{
		{Actor: "cat#1", Source: "cat"},
		{Actor: "cat#2", Source: "cat"},
	}, cloned)
	assert.True(t, h.Actor("cat#1").IsClone)
	assert.Equal(t, "cat", h.Actor("cat#1").CloneOf)

	h.Step(frame)
	assert.Equal(t, 4.0, h.Private("cat#1", "hp").Number())
	assert.Equal(t, 4.0, h.Private("cat#2", "hp").Number())
	assert.Equal(t, 3.0, h.Private("cat", "hp").Number())

	h.Step(time.Second)
	assert.Len(t, h.Engine.Actors(), 1)
	assert.Len(t, events.Of[events.ActorRemoved](h.Events), 2)
	_, ok := h.Engine.Variables().Actor("cat#1", "hp", false)
	assert.False(t, ok)
}

func TestClones_UnknownTargetFailsOnlyTheClone(t *testing.T) {
	h := testutil.NewHarness(t, `
actor "cat" {
  script {
    when = "started"
    brick "create_clone" {
      target = "ghost"
    }
    brick "set_x" {
      x = 7
    }
  }
}
`)
	h.Start()
	h.Tick()
	assert.Equal(t, 1, h.Reports.Count(report.CloneFailure))
	assert.Equal(t, 7.0, h.Actor("cat").Position.X)
}

func TestClones_Limit(t *testing.T) {
	h := testutil.NewHarness(t, `
actor "cat" {
  script {
    when = "started"
    brick "repeat" {
      times = 5
      brick "create_clone" {}
    }
  }
}
`, func(o *engine.Options) { o.MaxClones = 3 })
	h.Start()
	h.RunFor(time.Second, frame)
	assert.Len(t, h.Engine.Actors(), 4)
	assert.Equal(t, 2, h.Reports.Count(report.CloneFailure))
}

func TestStopAll(t *testing.T) {
	h := testutil.NewHarness(t, `
actor "cat" {
  script {
    when = "started"
    brick "forever" {
      brick "change_x_by" {
        dx = 1
      }
    }
  }

  script {
    when = "started"
    brick "play_note" {
      pitch = 60
      beats = 100
    }
    brick "create_clone" {}
    brick "wait" {
      seconds = 0.25
    }
    brick "stop" {
      which = "all"
    }
  }
}
`)
	h.Start()
	h.RunFor(time.Second, frame)

	assert.True(t, h.Engine.Idle())
	assert.Len(t, events.Of[events.ProgramStopped](h.Events), 1)
	ended := events.Of[events.NoteEnded](h.Events)
	require.Len(t, ended, 1)
	assert.True(t, ended[0].Cancelled)
	assert.Len(t, h.Engine.Actors(), 1)

	x := h.Actor("cat").Position.X
	h.Step(frame)
	assert.Equal(t, x, h.Actor("cat").Position.X)
	state, _ := h.Engine.ScriptState("cat", 1)
	assert.Equal(t, script.Stopped, state)
}

func TestPauseResume_ShiftsWaits(t *testing.T) {
	h := testutil.NewHarness(t, `
actor "cat" {
  script {
    when = "started"
    brick "wait" {
      seconds = 1
    }
    brick "set_x" {
      x = sensor.timer
    }
  }
}
`)
	h.Start()
	h.Tick()

	h.Clock.Set(h.At(500 * time.Millisecond))
	h.Engine.Pause()
	h.Clock.Set(h.At(10 * time.Second))
	assert.True(t, h.Tick().Paused)
	h.Engine.Resume()

	h.Clock.Set(h.At(10*time.Second + 400*time.Millisecond))
	h.Tick()
	assert.Equal(t, 0.0, h.Actor("cat").Position.X)

	h.Clock.Set(h.At(10*time.Second + 500*time.Millisecond))
	h.Tick()
	assert.InDelta(t, 1.0, h.Actor("cat").Position.X, 1e-9)
}

func TestTapAndCollide(t *testing.T) {
	h := testutil.NewHarness(t, `
actor "cat" {
  script {
    when = "tapped"
    brick "set_x" {
      x = 1
    }
  }

  script {
    when   = "collision"
    target = "wall"
    brick "set_y" {
      y = 1
    }
  }
}

actor "wall" {
  script {
    when = "collision"
    brick "hide" {}
  }
}

actor "dog" {}
`)
	h.Start()
	require.NoError(t, h.Engine.Tap("cat"))
	require.ErrorIs(t, h.Engine.Tap("ghost"), engine.ErrUnknownActor)
	h.Tick()
	assert.Equal(t, 1.0, h.Actor("cat").Position.X)

	require.NoError(t, h.Engine.Collide("cat", "dog"))
	h.Step(frame)
	assert.Equal(t, 0.0, h.Actor("cat").Position.Y)
	assert.True(t, h.Actor("wall").Visible)

	require.NoError(t, h.Engine.Collide("wall", "cat"))
	h.Step(frame)
	assert.Equal(t, 1.0, h.Actor("cat").Position.Y)
	assert.False(t, h.Actor("wall").Visible)
}

func TestTransformEvents_OnlyOnChange(t *testing.T) {
	h := testutil.NewHarness(t, `
actor "cat" {
  script {
    when = "started"
    brick "wait" {
      seconds = 0.1
    }
    brick "move_steps" {
      steps = 10
    }
    brick "set_size" {
      percent = 50
    }
  }
}
`)
	h.Start()
	assert.Len(t, events.Of[events.ActorMoved](h.Events), 1)
	assert.Len(t, events.Of[events.ActorVisibility](h.Events), 1)

	h.Tick()
	assert.Len(t, events.Of[events.ActorMoved](h.Events), 1)

	h.Step(frame)
	moved := events.Of[events.ActorMoved](h.Events)
	require.Len(t, moved, 2)
	assert.InDelta(t, 10.0, moved[1].Position.X, 1e-9)
	assert.InDelta(t, 0.0, moved[1].Position.Y, 1e-9)
	vis := events.Of[events.ActorVisibility](h.Events)
	require.Len(t, vis, 2)
	assert.Equal(t, 50.0, vis[1].Size)
}

func TestSoundBricks(t *testing.T) {
	h := testutil.NewHarness(t, `
actor "band" {
  script {
    when = "started"
    brick "set_tempo" {
      bpm = 1000
    }
    brick "change_tempo" {
      delta = -380
    }
    brick "play_note" {
      instrument = "cello"
      pitch      = 64
      beats      = 1
    }
    brick "play_drum" {
      drum  = "snare_drum"
      beats = 2
    }
  }
}
`)
	h.Start()
	h.Tick()
	assert.Equal(t, 120.0, h.Engine.Tempo())

	started := events.Of[events.NoteStarted](h.Events)
	require.Len(t, started, 2)
	assert.Equal(t, "8-cello", started[0].Instrument)
	assert.Equal(t, "22-drums", started[1].Instrument)
	assert.Equal(t, "snare_drum", started[1].Drum)

	h.Clock.Set(h.At(500 * time.Millisecond))
	h.Tick()
	require.Len(t, events.Of[events.NoteEnded](h.Events), 1)
	h.Clock.Set(h.At(time.Second))
	h.Tick()
	require.Len(t, events.Of[events.NoteEnded](h.Events), 2)
}

func TestSensors(t *testing.T) {
	h := testutil.NewHarness(t, `
variable "light" {}
variable "missing" {}

actor "cat" {
  x = 3

  script {
    when = "started"
    brick "set_variable" {
      variable = "light"
      value    = sensor.light + sensor.x
    }
    brick "set_variable" {
      variable = "missing"
      value    = sensor.compass
    }
  }
}
`, func(o *engine.Options) {
		o.Sensors = engine.SensorFunc(func(id string) (float64, bool) {
			if id == "light" {
				return 40, true
			}
			return 0, false
		})
	})
	h.Start()
	h.Tick()
	assert.Equal(t, 43.0, h.Global("light").Number())
	assert.Equal(t, 0.0, h.Global("missing").Number())
	assert.Equal(t, 1, h.Reports.Count(report.EvaluationWarning))
}

func TestGoTo(t *testing.T) {
	h := testutil.NewHarness(t, `
actor "cat" {
  script {
    when = "started"
    brick "go_to" {
      target = "dog"
    }
    brick "go_to" {
      target = "ghost"
    }
  }
}

actor "dog" {
  x = 4
  y = -2
}
`)
	h.Start()
	h.Tick()
	assert.Equal(t, actor.Point{X: 4, Y: -2}, h.Actor("cat").Position)
	assert.Equal(t, 1, h.Reports.Count(report.EvaluationWarning))
}

func TestUsageQueries(t *testing.T) {
	h := testutil.NewHarness(t, `
variable "score" {}
variable "unused" {}
list "items" {}
list "spare" {}

actor "cat" {
  script {
    when = "started"
    brick "set_x" {
      x = var.score * 2
    }
    brick "add_item" {
      list  = "items"
      value = 1
    }
  }
}
`)
	global := func(name string, list bool) *variables.Variable {
		v, ok := h.Engine.Variables().Global(name, list)
		require.True(t, ok, name)
		return v
	}
	assert.True(t, h.Engine.IsVariableUsed(global("score", false)))
	assert.False(t, h.Engine.IsVariableUsed(global("unused", false)))
	assert.True(t, h.Engine.IsVariableUsed(global("items", true)))
	assert.False(t, h.Engine.IsVariableUsed(global("spare", true)))
	assert.False(t, h.Engine.IsVariableUsed(nil))
}

func TestUsageQueries_PrivateScope(t *testing.T) {
	h := testutil.NewHarness(t, `
actor "cat" {
  variable "x" {}
  list "bag" {}

  script {
    when = "started"
    brick "change_variable" {
      variable = "x"
      delta    = 1
    }
  }
}

actor "dog" {
  variable "x" {}
  list "bag" {}

  script {
    when = "started"
    brick "add_item" {
      list  = "bag"
      value = actor.x
    }
  }
}
`)
	private := func(owner, name string, list bool) *variables.Variable {
		v, ok := h.Engine.Variables().Actor(owner, name, list)
		require.True(t, ok, owner+"."+name)
		return v
	}
	assert.True(t, h.Engine.IsVariableUsed(private("cat", "x", false)))
	assert.True(t, h.Engine.IsVariableUsed(private("dog", "x", false)))
	assert.False(t, h.Engine.IsVariableUsed(private("cat", "bag", true)))
	assert.True(t, h.Engine.IsVariableUsed(private("dog", "bag", true)))
}

func TestUsageQueries_ClonesShareOwnerScope(t *testing.T) {
	h := testutil.NewHarness(t, `
actor "cat" {
  variable "lives" {}

  script {
    when = "started"
    brick "create_clone" {}
  }

  script {
    when = "cloned"
    brick "set_variable" {
      variable = "lives"
      value    = 9
    }
  }
}

actor "dog" {
  variable "bones" {}
}
`)
	h.Start()
	h.Tick()
	assert.True(t, h.Actor("cat#1").IsClone)

	lives, ok := h.Engine.Variables().Actor("cat", "lives", false)
	require.True(t, ok)
	assert.True(t, h.Engine.IsVariableUsed(lives))

	cloneLives, ok := h.Engine.Variables().Actor("cat#1", "lives", false)
	require.True(t, ok)
	assert.True(t, h.Engine.IsVariableUsed(cloneLives))

	bones, ok := h.Engine.Variables().Actor("dog", "bones", false)
	require.True(t, ok)
	assert.False(t, h.Engine.IsVariableUsed(bones))
}

func TestLifecycleErrors(t *testing.T) {
	e := engine.New(engine.Options{})
	require.ErrorIs(t, e.Start(), engine.ErrNotLoaded)

	p := testutil.LoadProgram(t, `actor "cat" {}`)
	require.NoError(t, e.LoadProgram(p))
	require.ErrorIs(t, e.LoadProgram(p), engine.ErrAlreadyLoaded)
	require.NoError(t, e.Start())
}
