package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ripple/internal/value"
)

func TestRunWithGolden(t *testing.T) {
	for _, name := range []string{"counter_basic", "todo_list"} {
		t.Run(name, func(t *testing.T) {
			result, err := RunWithGolden(t, loadTestScenario(t, name))
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestTraceSnapshotCanonical(t *testing.T) {
	s := TraceSnapshot{
		ScenarioName: "tiny",
		Trace: []TraceEvent{
			{Seq: 1, Model: "m", Action: "a", Args: []value.Value{value.String("x")}, Nested: true},
		},
		State: map[string]any{"m": map[string]any{"b": int64(2), "a": []any{}}},
	}
	data, err := s.Canonical()
	require.NoError(t, err)
	assert.Equal(t,
		`{"scenario":"tiny","state":{"m":{"a":[],"b":2}},"trace":[{"action":"a","args":["x"],"model":"m","nested":true,"seq":1}]}`,
		string(data))
}
