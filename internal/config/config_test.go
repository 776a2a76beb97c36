package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("AGENTCORE_TEST_KEY", "secret123")
	os.Unsetenv("AGENTCORE_TEST_MISSING")

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "key: $AGENTCORE_TEST_KEY", "key: secret123"},
		{"braced", "key: ${AGENTCORE_TEST_KEY}", "key: secret123"},
		{"default used", "key: ${AGENTCORE_TEST_MISSING:-fallback}", "key: fallback"},
		{"default overridden", "key: ${AGENTCORE_TEST_KEY:-fallback}", "key: secret123"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, expandEnvVars(tc.in))
		})
	}
}

func TestLoadDefaultsAndValidate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agentcore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
model:
  adapter: openai
  model: gpt-4o-mini
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Model.Adapter)
	assert.Equal(t, 4096, cfg.Model.MaxTokens)
	assert.Equal(t, 10, cfg.React.MaxSteps)
	assert.Equal(t, 30000, cfg.FrontendTool.TimeoutMs)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadRejectsMissingModel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agentcore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
react:
  max_steps: 5
`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsOutOfRangeTimeouts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agentcore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
model:
  adapter: openai
  model: gpt-4o-mini
  total_timeout_seconds: 9000
`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
