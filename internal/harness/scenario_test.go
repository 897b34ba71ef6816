package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, `
name: test_scenario
description: "Test scenario for validation"
documents:
  http://ex.com/a.json: '{"type": "string"}'
steps:
  - op: follow
    address: http://ex.com/a.json
    expect:
      address: http://ex.com/a.json
  - op: process
assertions:
  - type: built
    addresses: [http://ex.com/a.json]
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, "Test scenario for validation", scenario.Description)
	assert.Len(t, scenario.Documents, 1)
	require.Len(t, scenario.Steps, 2)
	assert.Equal(t, OpFollow, scenario.Steps[0].Op)
	require.NotNil(t, scenario.Steps[0].Expect)
	assert.Equal(t, "http://ex.com/a.json", scenario.Steps[0].Expect.Address)
	require.Len(t, scenario.Assertions, 1)
	assert.Equal(t, AssertBuilt, scenario.Assertions[0].Type)
}

func TestLoadScenario_BaseValue(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: base
base:
  $id: http://ex.com/root
  required: [a, b]
steps:
  - op: load_base
`))
	require.NoError(t, err)

	base, ok := scenario.Base.(map[string]any)
	require.True(t, ok, "base should decode as a mapping, got %T", scenario.Base)
	assert.Equal(t, "http://ex.com/root", base["$id"])
	assert.Equal(t, []any{"a", "b"}, base["required"])
}

func TestLoadScenario_FileNotFound(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, `
name: typo
steps:
  - op: process
assertion:
  - type: unbuilt_count
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_InvalidScenarios(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing name",
			content: "steps:\n  - op: process\n",
			wantErr: "name is required",
		},
		{
			name:    "no steps",
			content: "name: x\n",
			wantErr: "at least one step is required",
		},
		{
			name:    "unknown op",
			content: "name: x\nsteps:\n  - op: explode\n",
			wantErr: `unknown op "explode"`,
		},
		{
			name:    "load_base without base",
			content: "name: x\nsteps:\n  - op: load_base\n",
			wantErr: "load_base requires a base value",
		},
		{
			name:    "load_resources without files",
			content: "name: x\nsteps:\n  - op: load_resources\n",
			wantErr: "load_resources requires files",
		},
		{
			name:    "fetch without address",
			content: "name: x\nsteps:\n  - op: fetch\n",
			wantErr: "fetch requires an address",
		},
		{
			name:    "unknown builder",
			content: "name: x\nbuilder: magic\nsteps:\n  - op: process\n",
			wantErr: `unknown builder "magic"`,
		},
		{
			name:    "bad rewrite",
			content: "name: x\nrewrites: [nothing]\nsteps:\n  - op: process\n",
			wantErr: "expected from=to",
		},
		{
			name:    "unknown assertion",
			content: "name: x\nsteps:\n  - op: process\nassertions:\n  - type: vibes\n",
			wantErr: `unknown assertion type "vibes"`,
		},
		{
			name:    "built without addresses",
			content: "name: x\nsteps:\n  - op: process\nassertions:\n  - type: built\n",
			wantErr: "built requires addresses",
		},
		{
			name:    "fetch_count without address",
			content: "name: x\nsteps:\n  - op: process\nassertions:\n  - type: fetch_count\n    count: 1\n",
			wantErr: "fetch_count requires an address",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid scenario")
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_TestdataScenariosParse(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	names := make(map[string]string)
	for _, path := range paths {
		scenario, err := LoadScenario(path)
		require.NoError(t, err, path)
		if prev, dup := names[scenario.Name]; dup {
			t.Fatalf("scenario name %q used by %s and %s", scenario.Name, prev, path)
		}
		names[scenario.Name] = path
	}
}
