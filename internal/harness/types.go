package harness

import "github.com/roach88/ripple/internal/value"

// TraceEvent is one reducer descriptor seen during a scenario.
type TraceEvent struct {
	Seq    int64         `json:"seq"`
	Model  string        `json:"model"`
	Action string        `json:"action"`
	Args   []value.Value `json:"args"`
	Nested bool          `json:"nested"`
}

// Key addresses the event the way scenarios do: "model/action".
func (e TraceEvent) Key() string {
	return e.Model + "/" + e.Action
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every step behaved as expected and every
	// assertion held.
	Pass bool `json:"pass"`

	// Trace lists reducer descriptors in observation order.
	Trace []TraceEvent `json:"trace"`

	// Errors holds step and assertion failures.
	Errors []string `json:"errors,omitempty"`

	// State is the final snapshot of every model, as plain Go data.
	State map[string]any `json:"state,omitempty"`

	// Notifications counts listener calls per model.
	Notifications map[string]int64 `json:"notifications,omitempty"`

	// Flushes is the number of flush passes the scheduler ran.
	Flushes int64 `json:"flushes"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:          true,
		Trace:         []TraceEvent{},
		Errors:        []string{},
		State:         make(map[string]any),
		Notifications: make(map[string]int64),
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
