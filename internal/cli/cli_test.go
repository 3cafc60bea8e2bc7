package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridmatch/matcher/internal/config"
)

const testConfigYAML = `
http_addr: ":18080"
metrics_addr: ":19090"
job_store:
  driver: memory
housekeeping:
  enabled: false
audit_log:
  path: ""
requests_per_second: 0
`

func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "matcher.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfigYAML), 0o644))
	return path
}

func TestBuildCLI(t *testing.T) {
	cmd := BuildCLI()

	assert.NotNil(t, cmd, "BuildCLI should return a non-nil command")
	assert.Equal(t, "matcherd", cmd.Use)
	assert.Equal(t, "1.0.0", cmd.Version)

	commands := cmd.Commands()
	assert.Len(t, commands, 3, "should have 3 subcommands")

	names := make(map[string]bool)
	for _, c := range commands {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["match"])
	assert.True(t, names["status"])

	configFlag := cmd.PersistentFlags().Lookup("config")
	assert.NotNil(t, configFlag)
	assert.Equal(t, "configs/default.yaml", configFlag.DefValue)
}

func TestBuildMatchCommand(t *testing.T) {
	cmd := buildMatchCommand()

	assert.Equal(t, "match", cmd.Use)
	assert.NotNil(t, cmd.RunE)

	resourceFlag := cmd.Flags().Lookup("resource")
	assert.NotNil(t, resourceFlag)
	assert.Equal(t, "r", resourceFlag.Shorthand)
}

func TestBuildStatusCommand(t *testing.T) {
	cmd := buildStatusCommand()

	assert.Equal(t, "status", cmd.Use)
	assert.Contains(t, cmd.Short, "status")
	assert.NotNil(t, cmd.RunE)
}

func TestShowStatusMemoryStore(t *testing.T) {
	path := writeTestConfig(t)
	err := showStatus(path)
	assert.NoError(t, err, "showStatus against a memory-backed config should not error")
}

func TestRunMatchNoCandidate(t *testing.T) {
	path := writeTestConfig(t)
	err := runMatch(path, `[ Site="S1"; Requirements=true; ]`, false)
	assert.NoError(t, err)
}

func TestRunMatchRequiresResource(t *testing.T) {
	cmd := buildMatchCommand()
	cmd.SetArgs([]string{})
	err := cmd.Execute()
	assert.Error(t, err, "match without --resource should fail required-flag validation")
}

func TestBuildRuntimeUnknownDriverDefaultsToMemory(t *testing.T) {
	path := writeTestConfig(t)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	cfg.JobStore.Driver = "unknown"

	rt, err := buildRuntime(cfg)
	require.NoError(t, err)
	defer rt.Close()

	assert.Equal(t, 0, rt.index.Len(), "freshly built memory store has no queues")
}
