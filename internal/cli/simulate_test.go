package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/smartscript/internal/testutil"
)

// copyScenario copies a shared scenario into dir with its rules path made
// absolute, and returns the new file path.
func copyScenario(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(testScenariosDir, name))
	require.NoError(t, err)
	rules, err := filepath.Abs(testRulesDir)
	require.NoError(t, err)

	src := strings.Replace(string(data), "rules: ../rules", "rules: "+rules, 1)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestSimulateScenarioDir(t *testing.T) {
	out, err := runCommand(t, "text", NewSimulateCommand, testScenariosDir)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ boar_aggro (3 effect(s))")
	assert.Contains(t, out, "✓ keeper_timed_list")
	assert.Contains(t, out, "✓ guard_condition")
	assert.Contains(t, out, "Simulation Summary: 3 passed, 0 failed, 3 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestSimulateFilter(t *testing.T) {
	out, err := runCommand(t, "json", NewSimulateCommand, testScenariosDir, "--filter", "boar_*")
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   SimulationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Equal(t, 1, resp.Data.Total)
	sr := resp.Data.Scenarios[0]
	assert.Equal(t, "boar_aggro", sr.Name)
	assert.True(t, sr.Pass)
	assert.Equal(t, "0190c5d2-0000-7000-8000-000000000001", sr.RunID)
	assert.Equal(t, 3, sr.Effects)
	assert.Equal(t, "none", sr.Golden)
}

func TestSimulateSingleFile(t *testing.T) {
	file := filepath.Join(testScenariosDir, "keeper_timed_list.yaml")

	out, err := runCommand(t, "text", NewSimulateCommand, file)
	require.NoError(t, err)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestSimulateMissingPath(t *testing.T) {
	_, err := runCommand(t, "text", NewSimulateCommand, filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSimulateEmptyDir(t *testing.T) {
	out, err := runCommand(t, "text", NewSimulateCommand, t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestSimulateUpdateGoldenMatchesHarness(t *testing.T) {
	dir := t.TempDir()
	file := copyScenario(t, dir, "boar_aggro.yaml")

	out, err := runCommand(t, "text", NewSimulateCommand, file, "--update-golden")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ boar_aggro (golden updated)")

	got, err := os.ReadFile(filepath.Join(dir, "golden", "boar_aggro.golden"))
	require.NoError(t, err)
	want, err := os.ReadFile(filepath.Join("..", "harness", "testdata", "golden", "boar_aggro.golden"))
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))

	out, err = runCommand(t, "text", NewSimulateCommand, file)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ boar_aggro (3 effect(s), golden match)")
}

func TestSimulateGoldenWithoutPinnedRunID(t *testing.T) {
	dir := t.TempDir()
	file := copyScenario(t, dir, "guard_condition.yaml")

	_, err := runCommand(t, "text", NewSimulateCommand, file, "--update-golden")
	require.NoError(t, err)

	got, err := os.ReadFile(goldenFilePath(file))
	require.NoError(t, err)
	assert.NotContains(t, string(got), "run_id")

	// A fresh UUIDv7 per run must not break the comparison.
	_, err = runCommand(t, "text", NewSimulateCommand, file)
	require.NoError(t, err)
}

func TestSimulateGoldenMismatch(t *testing.T) {
	dir := t.TempDir()
	file := copyScenario(t, dir, "boar_aggro.yaml")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "golden"), 0o755))
	require.NoError(t, os.WriteFile(goldenFilePath(file), []byte(`{"scenario_name":"boar_aggro","trace":[]}`), 0o644))

	out, err := runCommand(t, "text", NewSimulateCommand, file)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ boar_aggro")
	assert.Contains(t, out, "trace does not match golden file")
}

func TestSimulateFailedAssertion(t *testing.T) {
	dir := t.TempDir()
	file := copyScenario(t, dir, "boar_aggro.yaml")
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	data = []byte(strings.Replace(string(data), "count: 2", "count: 5", 1))
	require.NoError(t, os.WriteFile(file, data, 0o644))

	out, err := runCommand(t, "json", NewSimulateCommand, file)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeSimFailed, resp.Error.Code)
}

func TestSimulateLoadError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("name: broken\nunknown_field: 1\n"), 0o644))

	out, err := runCommand(t, "text", NewSimulateCommand, dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestSimulateRunIDOverride(t *testing.T) {
	file := filepath.Join(testScenariosDir, "guard_condition.yaml")
	opts := &SimulateOptions{RootOptions: &RootOptions{Format: "json"}, RunIDs: testutil.NewFixedRunID("run-7")}

	sr := runScenario(opts, file)
	assert.True(t, sr.Pass, sr.Errors)
	assert.Equal(t, "run-7", sr.RunID)
}

func TestGoldenFilePath(t *testing.T) {
	assert.Equal(t,
		filepath.Join("scenarios", "golden", "boar.golden"),
		goldenFilePath(filepath.Join("scenarios", "boar.yaml")))
}
