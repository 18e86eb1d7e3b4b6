package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/ripple/internal/model"
)

// Scenario is a scripted run against a set of declared models.
type Scenario struct {
	// Name uniquely identifies this scenario; golden files are named after it.
	Name string `yaml:"name"`

	// Description explains what this scenario checks.
	Description string `yaml:"description"`

	// Models lists CUE files or directories to compile. LoadScenario
	// resolves them relative to the scenario file.
	Models []string `yaml:"models"`

	// Mode selects development or production flush error handling.
	Mode string `yaml:"mode,omitempty"`

	// Steps run in order against one manager.
	Steps []Step `yaml:"steps"`

	// Assertions are checked after the last step.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one scenario action. Exactly one of Dispatch, Batch and
// Unsubscribe is set.
type Step struct {
	// Dispatch is "model/action".
	Dispatch string `yaml:"dispatch,omitempty"`

	// Args are the dispatch arguments.
	Args []any `yaml:"args,omitempty"`

	// ExpectError is the error code the dispatch must fail with,
	// e.g. UNKNOWN_ACTION or DEPTH_EXCEEDED.
	ExpectError string `yaml:"expect_error,omitempty"`

	// Batch runs its steps inside one manager batch, so they share a tick.
	Batch []Step `yaml:"batch,omitempty"`

	// Unsubscribe removes the harness listener from the named model.
	Unsubscribe string `yaml:"unsubscribe,omitempty"`
}

// Assertion checks the outcome of a scenario.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Model names the model (state, view, notifications).
	Model string `yaml:"model,omitempty"`

	// View names the view (view).
	View string `yaml:"view,omitempty"`

	// Path narrows a state assertion to a node, in dotted form.
	Path string `yaml:"path,omitempty"`

	// Expect is the expected value (state, view). Objects match as subsets.
	Expect any `yaml:"expect,omitempty"`

	// Count is the expected number (notifications, flushes, trace_count).
	Count int `yaml:"count,omitempty"`

	// Action is "model/reducer" (trace_contains, trace_count).
	Action string `yaml:"action,omitempty"`

	// Args must match a prefix of the dispatch args (trace_contains).
	Args []any `yaml:"args,omitempty"`

	// Actions is the expected relative order (trace_order).
	Actions []string `yaml:"actions,omitempty"`
}

// Assertion type constants.
const (
	AssertState         = "state"
	AssertView          = "view"
	AssertNotifications = "notifications"
	AssertFlushes       = "flushes"
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
)

// LoadScenario reads and validates a scenario file. Unknown fields are
// rejected, so typos such as "assertion:" fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	for i, p := range scenario.Models {
		if !filepath.IsAbs(p) {
			scenario.Models[i] = filepath.Join(base, p)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarios loads every .yaml scenario in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("list scenarios: %w", err)
	}
	var scenarios []*Scenario
	for _, path := range matches {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Models) == 0 {
		return fmt.Errorf("models list is required and must be non-empty")
	}
	if _, err := model.ParseMode(s.Mode); err != nil {
		return err
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for _, p := range s.Models {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return fmt.Errorf("model file not found: %s", p)
		}
	}
	if err := validateSteps("steps", s.Steps); err != nil {
		return err
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateSteps(prefix string, steps []Step) error {
	for i, step := range steps {
		where := fmt.Sprintf("%s[%d]", prefix, i)
		set := 0
		if step.Dispatch != "" {
			set++
			if _, _, err := splitAction(step.Dispatch); err != nil {
				return fmt.Errorf("%s: %w", where, err)
			}
		}
		if step.Batch != nil {
			set++
			if err := validateSteps(where+".batch", step.Batch); err != nil {
				return err
			}
		}
		if step.Unsubscribe != "" {
			set++
		}
		if set != 1 {
			return fmt.Errorf("%s: exactly one of dispatch, batch, unsubscribe is required", where)
		}
		if step.Dispatch == "" && (step.Args != nil || step.ExpectError != "") {
			return fmt.Errorf("%s: args and expect_error need dispatch", where)
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if a.Count < 0 {
		return fmt.Errorf("assertions[%d]: count must be non-negative", index)
	}

	switch a.Type {
	case AssertState:
		if a.Model == "" || a.Expect == nil {
			return fmt.Errorf("assertions[%d]: model and expect are required for state", index)
		}
	case AssertView:
		if a.Model == "" || a.View == "" || a.Expect == nil {
			return fmt.Errorf("assertions[%d]: model, view and expect are required for view", index)
		}
	case AssertNotifications:
		if a.Model == "" {
			return fmt.Errorf("assertions[%d]: model is required for notifications", index)
		}
	case AssertFlushes:
	case AssertTraceContains, AssertTraceCount:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for %s", index, a.Type)
		}
	case AssertTraceOrder:
		if len(a.Actions) == 0 {
			return fmt.Errorf("assertions[%d]: actions list is required for trace_order", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

// splitAction parses "model/action".
func splitAction(s string) (string, string, error) {
	modelName, action, ok := strings.Cut(s, "/")
	if !ok || modelName == "" || action == "" {
		return "", "", fmt.Errorf("dispatch %q must be model/action", s)
	}
	return modelName, action, nil
}
