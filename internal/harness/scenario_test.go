package harness

import (
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/counter_basic.yaml")
	require.NoError(t, err)

	assert.Equal(t, "counter_basic", s.Name)
	require.Len(t, s.Models, 1)
	assert.Equal(t, filepath.Join("testdata", "scenarios", "..", "models", "count.cue"), s.Models[0])
	require.Len(t, s.Steps, 5)
	assert.Equal(t, "count/add", s.Steps[0].Dispatch)
	assert.Equal(t, []any{5}, s.Steps[0].Args)
	require.Len(t, s.Steps[1].Batch, 2)
	assert.Equal(t, "UNKNOWN_ACTION", s.Steps[2].ExpectError)
	assert.Equal(t, "count", s.Steps[3].Unsubscribe)
	assert.Len(t, s.Assertions, 5)
}

func TestLoadScenarioRejectsUnknownFields(t *testing.T) {
	_, err := LoadScenario("testdata/invalid/typo.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "assertion")
}

func TestLoadScenarios(t *testing.T) {
	scenarios, err := LoadScenarios("testdata/scenarios")
	require.NoError(t, err)
	require.Len(t, scenarios, 2)
	assert.Equal(t, "counter_basic", scenarios[0].Name)
	assert.Equal(t, "todo_list", scenarios[1].Name)
}

func TestValidateScenario(t *testing.T) {
	models, err := filepath.Abs("testdata/models/count.cue")
	require.NoError(t, err)

	valid := func() *Scenario {
		return &Scenario{
			Name:        "ok",
			Description: "ok",
			Models:      []string{models},
			Steps:       []Step{{Dispatch: "count/add"}},
			Assertions:  []Assertion{{Type: AssertFlushes, Count: 1}},
		}
	}
	require.NoError(t, validateScenario(valid()))

	tests := []struct {
		name   string
		mutate func(s *Scenario)
		want   string
	}{
		{"no name", func(s *Scenario) { s.Name = "" }, "name is required"},
		{"no description", func(s *Scenario) { s.Description = "" }, "description is required"},
		{"no models", func(s *Scenario) { s.Models = nil }, "models list"},
		{"missing model file", func(s *Scenario) { s.Models = []string{"nope.cue"} }, "model file not found"},
		{"bad mode", func(s *Scenario) { s.Mode = "staging" }, "staging"},
		{"no steps", func(s *Scenario) { s.Steps = nil }, "steps list"},
		{"no assertions", func(s *Scenario) { s.Assertions = nil }, "assertions list"},
		{"bad dispatch", func(s *Scenario) { s.Steps[0].Dispatch = "add" }, "model/action"},
		{"empty step", func(s *Scenario) { s.Steps[0] = Step{} }, "exactly one of"},
		{"two kinds", func(s *Scenario) { s.Steps[0].Unsubscribe = "count" }, "exactly one of"},
		{"args without dispatch", func(s *Scenario) { s.Steps[0] = Step{Unsubscribe: "count", Args: []any{1}} }, "need dispatch"},
		{"nested batch", func(s *Scenario) { s.Steps[0] = Step{Batch: []Step{{}}} }, "steps[0].batch[0]"},
		{"no type", func(s *Scenario) { s.Assertions[0].Type = "" }, "type is required"},
		{"unknown type", func(s *Scenario) { s.Assertions[0].Type = "final_state" }, "unknown assertion type"},
		{"negative count", func(s *Scenario) { s.Assertions[0].Count = -1 }, "non-negative"},
		{"state without expect", func(s *Scenario) { s.Assertions[0] = Assertion{Type: AssertState, Model: "count"} }, "expect"},
		{"view without name", func(s *Scenario) { s.Assertions[0] = Assertion{Type: AssertView, Model: "count", Expect: 1} }, "view"},
		{"trace_order without actions", func(s *Scenario) { s.Assertions[0] = Assertion{Type: AssertTraceOrder} }, "actions list"},
		{"trace_count without action", func(s *Scenario) { s.Assertions[0] = Assertion{Type: AssertTraceCount} }, "action is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(s)
			err := validateScenario(s)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenarioMissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}
