package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/ripple/internal/value"
)

// AssertionError is a failed assertion with enough context to debug it.
type AssertionError struct {
	Type     string       // assertion type
	Expected string       // human-readable expected outcome
	Actual   string       // human-readable actual outcome
	Trace    []TraceEvent // full trace, for trace assertions
}

func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for i, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] seq=%d %s %s\n", i+1, event.Seq, event.Key(), formatArgs(event.Args))
		}
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion and returns the failure
// messages. An empty slice means all passed.
func EvaluateAssertions(h *Harness, result *Result, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluate(h, result, a); err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

func evaluate(h *Harness, result *Result, a Assertion) error {
	switch a.Type {
	case AssertState:
		return assertState(h, a)
	case AssertView:
		return assertView(h, a)
	case AssertNotifications:
		return assertNotifications(h, a)
	case AssertFlushes:
		return assertFlushes(result, a)
	case AssertTraceContains:
		return assertTraceContains(result.Trace, a)
	case AssertTraceOrder:
		return assertTraceOrder(result.Trace, a)
	case AssertTraceCount:
		return assertTraceCount(result.Trace, a)
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

func assertState(h *Harness, a Assertion) error {
	handle, ok := h.handles[a.Model]
	if !ok {
		return fmt.Errorf("unknown model %q", a.Model)
	}
	path := value.ParsePath(a.Path)
	actual, found := value.Lookup(handle.RawState(), path)
	if !found {
		return &AssertionError{
			Type:     AssertState,
			Expected: fmt.Sprintf("%s at %q", a.Model, a.Path),
			Actual:   "path not found",
		}
	}
	if why := match(a.Expect, actual); why != "" {
		return &AssertionError{
			Type:     AssertState,
			Expected: fmt.Sprintf("%s at %q = %v", a.Model, a.Path, a.Expect),
			Actual:   why,
		}
	}
	return nil
}

func assertView(h *Harness, a Assertion) error {
	handle, ok := h.handles[a.Model]
	if !ok {
		return fmt.Errorf("unknown model %q", a.Model)
	}
	actual, err := handle.View(a.View)
	if err != nil {
		return &AssertionError{
			Type:     AssertView,
			Expected: fmt.Sprintf("view %s.%s", a.Model, a.View),
			Actual:   err.Error(),
		}
	}
	if why := match(a.Expect, actual); why != "" {
		return &AssertionError{
			Type:     AssertView,
			Expected: fmt.Sprintf("view %s.%s = %v", a.Model, a.View, a.Expect),
			Actual:   why,
		}
	}
	return nil
}

func assertNotifications(h *Harness, a Assertion) error {
	counter, ok := h.counters[a.Model]
	if !ok {
		return fmt.Errorf("unknown model %q", a.Model)
	}
	if got := counter.Count(); got != int64(a.Count) {
		return &AssertionError{
			Type:     AssertNotifications,
			Expected: fmt.Sprintf("%d notifications of %s", a.Count, a.Model),
			Actual:   fmt.Sprintf("%d notifications", got),
		}
	}
	return nil
}

func assertFlushes(result *Result, a Assertion) error {
	if result.Flushes != int64(a.Count) {
		return &AssertionError{
			Type:     AssertFlushes,
			Expected: fmt.Sprintf("%d flush passes", a.Count),
			Actual:   fmt.Sprintf("%d flush passes", result.Flushes),
		}
	}
	return nil
}

// assertTraceContains looks for a reducer whose args start with a.Args.
func assertTraceContains(trace []TraceEvent, a Assertion) error {
	for _, event := range trace {
		if event.Key() != a.Action || len(event.Args) < len(a.Args) {
			continue
		}
		matched := true
		for i, want := range a.Args {
			if match(want, event.Args[i]) != "" {
				matched = false
				break
			}
		}
		if matched {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("%s with args %v", a.Action, a.Args),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the first occurrence of each action comes
// in the given order. Other actions may appear in between.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	positions := make(map[string]int)
	for i, event := range trace {
		key := event.Key()
		if slices.Contains(a.Actions, key) && positions[key] == 0 {
			positions[key] = i + 1
		}
	}

	for _, action := range a.Actions {
		if positions[action] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all actions present: %v", a.Actions),
				Actual:   fmt.Sprintf("missing action: %s", action),
				Trace:    trace,
			}
		}
	}
	for i := 1; i < len(a.Actions); i++ {
		prev, curr := a.Actions[i-1], a.Actions[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("actions in order: %v", a.Actions),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Key() == a.Action {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", a.Count, a.Action),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// match compares a YAML-decoded expectation with an actual value and
// returns why they differ, or "" when they match. Objects match as
// subsets; numbers compare numerically.
func match(expected any, actual value.Value) string {
	switch want := expected.(type) {
	case map[string]any:
		obj, ok := actual.(*value.Object)
		if !ok {
			return fmt.Sprintf("got %s, want object", value.KindOf(actual))
		}
		keys := make([]string, 0, len(want))
		for k := range want {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			got, ok := obj.Get(k)
			if !ok {
				return fmt.Sprintf("field %q missing", k)
			}
			if why := match(want[k], got); why != "" {
				return fmt.Sprintf("field %q: %s", k, why)
			}
		}
		return ""
	case []any:
		var items []value.Value
		switch c := actual.(type) {
		case *value.List:
			items = c.Items()
		case *value.Set:
			items = c.Members()
		default:
			return fmt.Sprintf("got %s, want list", value.KindOf(actual))
		}
		if len(items) != len(want) {
			return fmt.Sprintf("got %d items, want %d", len(items), len(want))
		}
		for i := range want {
			if why := match(want[i], items[i]); why != "" {
				return fmt.Sprintf("[%d]: %s", i, why)
			}
		}
		return ""
	}

	exp, err := value.FromGo(expected)
	if err != nil {
		return err.Error()
	}
	if ef, ok := number(exp); ok {
		if af, ok := number(actual); ok && ef == af {
			return ""
		}
	}
	if value.Equal(exp, actual) {
		return ""
	}
	return fmt.Sprintf("got %s", render(actual))
}

func number(v value.Value) (float64, bool) {
	switch n := v.(type) {
	case value.Int:
		return float64(n), true
	case value.Float:
		return float64(n), true
	}
	return 0, false
}

func render(v value.Value) string {
	data, err := value.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

func formatArgs(args []value.Value) string {
	return render(value.OwnList(args))
}
