package integration_tests

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/brickrun/internal/app"
	"github.com/vk/brickrun/internal/testutil"
)

// Test for: programs that cannot be loaded never start
func TestErrorHandling_StartupErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		program string
		wantErr []string
	}{
		{
			name:    "invalid hcl is rejected",
			program: "actor \"cat\" {\n  script {\n",
			wantErr: []string{"failed to parse"},
		},
		{
			name: "unknown brick kind",
			program: `
actor "cat" {
  script {
    when = "started"
    brick "fly" {}
  }
}
`,
			wantErr: []string{"failed to build program", `unknown brick kind "fly"`},
		},
		{
			name: "required argument missing",
			program: `
actor "cat" {
  script {
    when = "started"
    brick "move_steps" {}
  }
}
`,
			wantErr: []string{`missing attribute "steps"`},
		},
		{
			name: "duplicate actor",
			program: `
actor "cat" {}
actor "cat" {}
`,
			wantErr: []string{`actor "cat" declared twice`},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			run := testutil.RunIntegrationTest(t, map[string]string{"main.hcl": tc.program}, app.Config{})

			require.Error(t, run.Err)
			assert.Contains(t, run.Err.Error(), "application startup panicked")
			for _, want := range tc.wantErr {
				assert.Contains(t, run.Err.Error(), want)
			}
		})
	}
}
