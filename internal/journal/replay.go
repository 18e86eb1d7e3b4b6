package journal

import (
	"context"
	"fmt"

	"github.com/roach88/ripple/internal/model"
	"github.com/roach88/ripple/internal/value"
)

// Mismatch is one entry that did not replay to its recorded snapshot.
type Mismatch struct {
	Seq      int64  `json:"seq"`
	Model    string `json:"model"`
	Type     string `json:"type"`
	Expected string `json:"expected"`         // recorded fingerprint
	Actual   string `json:"actual,omitempty"` // replayed fingerprint, empty when the dispatch failed
	Reason   string `json:"reason"`
}

// ReplayResult summarizes a replay.
type ReplayResult struct {
	Session       string     `json:"session"`
	Deterministic bool       `json:"deterministic"`
	Replayed      int        `json:"replayed"` // top-level entries dispatched
	Skipped       int        `json:"skipped"`  // nested entries, reproduced by their parents
	Mismatches    []Mismatch `json:"mismatches,omitempty"`
}

// Replay rebuilds a fresh manager from defs and re-dispatches the
// top-level entries of session in seq order, comparing the snapshot
// fingerprint after each one with the recorded fingerprint. Nested entries
// are skipped: their enclosing reducer dispatches them again.
//
// Replay returns an error only when the journal cannot be read; divergence
// is reported through the result.
func Replay(ctx context.Context, j *Journal, session string, defs []*model.Definition, opts ...model.Option) (*ReplayResult, error) {
	entries, err := j.Entries(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", session, err)
	}

	byName := make(map[string]*model.Definition, len(defs))
	for _, def := range defs {
		byName[def.Name()] = def
	}

	m := model.NewManager(opts...)
	defer m.Destroy()

	res := &ReplayResult{Session: session}
	for _, e := range entries {
		if e.Nested {
			res.Skipped++
			continue
		}
		res.Replayed++

		mismatch := Mismatch{Seq: e.Seq, Model: e.Model, Type: e.Type, Expected: e.Fingerprint}
		def, ok := byName[e.Model]
		if !ok {
			mismatch.Reason = "no definition for model"
			res.Mismatches = append(res.Mismatches, mismatch)
			continue
		}
		h, err := m.GetModel(e.Model, def)
		if err != nil {
			mismatch.Reason = err.Error()
			res.Mismatches = append(res.Mismatches, mismatch)
			continue
		}
		if _, err := h.Dispatch(ctx, e.Type, e.Payload...); err != nil {
			mismatch.Reason = err.Error()
			res.Mismatches = append(res.Mismatches, mismatch)
			continue
		}
		fp, err := value.Fingerprint(h.RawState())
		if err != nil {
			mismatch.Reason = err.Error()
			res.Mismatches = append(res.Mismatches, mismatch)
			continue
		}
		if fp != e.Fingerprint {
			mismatch.Actual = fp
			mismatch.Reason = "snapshot fingerprint differs"
			res.Mismatches = append(res.Mismatches, mismatch)
		}
	}
	res.Deterministic = len(res.Mismatches) == 0
	return res, nil
}
