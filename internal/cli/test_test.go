package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// copyScenarios copies the scenario fixtures and the models they use into
// a temp dir so golden files can be rewritten.
func copyScenarios(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, rel := range []string{
		"models/count.cue",
		"scenarios/counter.yaml",
		"scenarios/reset.yaml",
		"scenarios/golden/counter.golden",
	} {
		data, err := os.ReadFile(filepath.Join("testdata", rel))
		require.NoError(t, err)
		dst := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(dst), 0o755))
		require.NoError(t, os.WriteFile(dst, data, 0o644))
	}
	return filepath.Join(root, "scenarios")
}

func TestTestPasses(t *testing.T) {
	out, err := execute(t, "test", "testdata/scenarios")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ counter")
	assert.Contains(t, out, "✓ reset")
	assert.Contains(t, out, "2 passed, 0 failed, 2 total")
}

func TestTestJSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "test", "testdata/scenarios")
	require.NoError(t, err)

	status, result := decode[TestResult](t, out)
	assert.Equal(t, "ok", status)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 2, result.Passed)

	golden := map[string]string{}
	for _, sr := range result.Scenarios {
		golden[sr.Name] = sr.Golden
	}
	assert.Equal(t, map[string]string{"counter": "match", "reset": "missing"}, golden)
}

func TestTestFilter(t *testing.T) {
	out, err := execute(t, "test", "testdata/scenarios", "--filter", "count*")
	require.NoError(t, err)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
	assert.NotContains(t, out, "reset")
}

func TestTestNoMatches(t *testing.T) {
	out, err := execute(t, "test", "testdata/scenarios", "--filter", "nothing-*")
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTestFailure(t *testing.T) {
	out, err := execute(t, "test", "testdata/failing")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ wrong")
	assert.Contains(t, out, "assertions[0]")
}

func TestTestMissingDirectory(t *testing.T) {
	_, err := execute(t, "test", "testdata/nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestGoldenMismatch(t *testing.T) {
	dir := copyScenarios(t)
	golden := filepath.Join(dir, "golden", "counter.golden")
	require.NoError(t, os.WriteFile(golden, []byte(`{"scenario":"counter"}`), 0o644))

	out, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "does not match golden file")
}

func TestTestUpdateGolden(t *testing.T) {
	dir := copyScenarios(t)
	golden := filepath.Join(dir, "golden", "counter.golden")
	require.NoError(t, os.WriteFile(golden, []byte("stale"), 0o644))

	out, err := execute(t, "test", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "(golden updated)")

	want, err := os.ReadFile(filepath.Join("testdata", "scenarios", "golden", "counter.golden"))
	require.NoError(t, err)
	got, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))

	_, err = os.Stat(filepath.Join(dir, "golden", "reset.golden"))
	assert.NoError(t, err)

	_, err = execute(t, "test", dir)
	require.NoError(t, err)
}

func TestGoldenFilePath(t *testing.T) {
	assert.Equal(t, filepath.Join("a", "b", "golden", "x.golden"), goldenFilePath(filepath.Join("a", "b", "x.yaml")))
}
