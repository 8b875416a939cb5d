package integration_tests

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/brickrun/internal/app"
	"github.com/vk/brickrun/internal/testutil"
	"github.com/vk/brickrun/internal/value"
)

// Test for: conditionals, templates, disabled bricks and if/else blocks
func TestHCLFeatures_Expressions(t *testing.T) {
	t.Parallel()

	program := `
variable "n" {
  value = 2
}

variable "size" {
  value = ""
}

variable "label" {
  value = ""
}

variable "branch" {
  value = ""
}

actor "cat" {
  script {
    when = "started"
    brick "set_variable" {
      variable = "size"
      value    = var.n > 1 ? "big" : "small"
    }
    brick "set_variable" {
      variable = "label"
      value    = "n=${var.n}"
    }
    brick "set_variable" {
      variable = "n"
      value    = 100
      disabled = true
    }
    brick "if" {
      condition = var.n == 3
      brick "set_variable" {
        variable = "branch"
        value    = "then"
      }
      else {
        brick "set_variable" {
          variable = "branch"
          value    = "else"
        }
      }
    }
  }
}
`
	run := testutil.RunIntegrationTest(t, map[string]string{"main.hcl": program}, app.Config{})

	require.NoError(t, run.Err)
	assert.Equal(t, value.Number(2), run.Global(t, "n"))
	assert.Equal(t, "big", run.Global(t, "size").Text())
	assert.Equal(t, "n=2", run.Global(t, "label").Text())
	assert.Equal(t, "else", run.Global(t, "branch").Text())
}

// Test for: explicit scope prefixes reach actor and global variables
func TestHCLFeatures_ScopePrefixes(t *testing.T) {
	t.Parallel()

	program := `
variable "speed" {
  value = 1
}

variable "seen" {
  value = 0
}

actor "cat" {
  variable "boost" {
    value = 7
  }

  script {
    when = "started"
    brick "set_variable" {
      variable = "seen"
      value    = actor.boost * 10 + global.speed + var.boost
    }
  }
}
`
	run := testutil.RunIntegrationTest(t, map[string]string{"main.hcl": program}, app.Config{})

	require.NoError(t, run.Err)
	assert.Equal(t, value.Number(78), run.Global(t, "seen"))
}
