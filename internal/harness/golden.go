package harness

import (
	"maps"
	"slices"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/ripple/internal/value"
)

// TraceSnapshot is what golden files capture: the trace and the final
// state of every model.
type TraceSnapshot struct {
	ScenarioName string
	Trace        []TraceEvent
	State        map[string]any
}

// Canonical renders the snapshot as canonical JSON.
func (s *TraceSnapshot) Canonical() ([]byte, error) {
	events := make([]value.Value, len(s.Trace))
	for i, e := range s.Trace {
		events[i] = value.ObjectOf(
			value.O("seq", value.Int(e.Seq)),
			value.O("model", value.String(e.Model)),
			value.O("action", value.String(e.Action)),
			value.O("args", value.OwnList(slices.Clone(e.Args))),
			value.O("nested", value.Bool(e.Nested)),
		)
	}

	state := make(map[string]value.Value, len(s.State))
	for _, name := range slices.Sorted(maps.Keys(s.State)) {
		v, err := value.FromGo(s.State[name])
		if err != nil {
			return nil, err
		}
		state[name] = v
	}

	return value.MarshalCanonical(value.ObjectOf(
		value.O("scenario", value.String(s.ScenarioName)),
		value.O("trace", value.OwnList(events)),
		value.O("state", value.OwnObject(state)),
	))
}

// RunWithGolden runs scenario and compares its snapshot with
// testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result with its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Trace:        result.Trace,
		State:        result.State,
	}
	data, err := snapshot.Canonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
