// Package harness runs YAML scenarios against a real model manager.
//
// # Scenario Format
//
//	name: counter_batch
//	description: "Dispatches inside a batch notify once"
//	models:
//	  - models/count.cue          # file or directory, relative to the scenario
//	mode: development             # optional; development or production
//	steps:
//	  - dispatch: count/add
//	    args: [5]
//	  - batch:
//	      - dispatch: count/add
//	      - dispatch: count/add
//	  - unsubscribe: count
//	  - dispatch: count/missing
//	    expect_error: UNKNOWN_ACTION
//	assertions:
//	  - type: state
//	    model: count
//	    expect: {value: 7}
//	  - type: notifications
//	    model: count
//	    count: 2
//
// # Assertion Types
//
//   - state: the model's snapshot (or the node at path) matches expect
//   - view: the named view's value matches expect
//   - notifications: the model's listener ran exactly count times
//   - flushes: the scheduler ran exactly count flush passes
//   - trace_contains: a reducer ran with args matching a prefix of args
//   - trace_order: reducers appear in the given relative order
//   - trace_count: a reducer ran exactly count times
//
// Matching uses subset semantics for objects: only the keys written in
// expect are compared. Trace entries are addressed as "model/reducer".
//
// The trace lists every reducer descriptor, nested ones included, in the
// order observers saw them. RunWithGolden compares the canonical JSON of
// the trace and final state against testdata/golden/<name>.golden.
package harness
