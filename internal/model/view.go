package model

import (
	"fmt"
	"slices"

	"github.com/roach88/ripple/internal/value"
)

type stateDep struct {
	path    value.Path
	ref     value.Value
	present bool
}

type viewDep struct {
	name string
	ref  value.Value
}

// viewEntry is a cached view result plus what it read.
type viewEntry struct {
	state     value.Value // snapshot the entry was last validated against
	stateDeps []stateDep
	viewDeps  []viewDep
	value     value.Value
}

// ViewContext is what a View body reads state through. Every read is
// recorded so the cached result can be reused while the values it read
// keep their identity.
type ViewContext struct {
	inst      *instance
	snap      value.Value
	stack     []string
	stateDeps []stateDep
	viewDeps  []viewDep
}

// Model returns the model name.
func (vc *ViewContext) Model() string { return vc.inst.name }

// Get returns the value at p in the snapshot being viewed.
func (vc *ViewContext) Get(p value.Path) (value.Value, bool) {
	v, ok := value.Lookup(vc.snap, p)
	vc.stateDeps = append(vc.stateDeps, stateDep{path: slices.Clone(p), ref: v, present: ok})
	return v, ok
}

// State returns the whole snapshot. The view then depends on every change.
func (vc *ViewContext) State() value.Value {
	vc.stateDeps = append(vc.stateDeps, stateDep{path: value.Path{}, ref: vc.snap, present: true})
	return vc.snap
}

// View returns a sibling view, memoized like any other access.
func (vc *ViewContext) View(name string) (value.Value, error) {
	v, err := vc.inst.evalView(name, vc.snap, vc.stack)
	if err != nil {
		return nil, err
	}
	vc.viewDeps = append(vc.viewDeps, viewDep{name: name, ref: v})
	return v, nil
}

func (inst *instance) view(name string) (value.Value, error) {
	inst.viewMu.Lock()
	defer inst.viewMu.Unlock()
	return inst.evalView(name, inst.current(), nil)
}

// evalView returns the cached value of name when its dependencies are
// unchanged in snap, and recomputes it otherwise. stack holds the views
// being evaluated above this one. Caller holds viewMu.
func (inst *instance) evalView(name string, snap value.Value, stack []string) (value.Value, error) {
	fn, ok := inst.def.views[name]
	if !ok {
		return nil, &UnknownViewError{Model: inst.name, View: name}
	}
	if slices.Contains(stack, name) {
		return nil, &ViewCycleError{Model: inst.name, Cycle: append(slices.Clone(stack), name)}
	}
	stack = append(slices.Clone(stack), name)

	if entry := inst.views[name]; entry != nil {
		if value.Same(entry.state, snap) {
			return entry.value, nil
		}
		if inst.depsHold(entry, snap, stack) {
			entry.state = snap
			return entry.value, nil
		}
	}

	vc := &ViewContext{inst: inst, snap: snap, stack: stack}
	v, err := fn(vc)
	if err != nil {
		return nil, fmt.Errorf("view %s.%s: %w", inst.name, name, err)
	}
	if v == nil {
		v = value.Null{}
	}
	inst.views[name] = &viewEntry{
		state:     snap,
		stateDeps: vc.stateDeps,
		viewDeps:  vc.viewDeps,
		value:     v,
	}
	return v, nil
}

// depsHold reports whether every recorded read resolves to the same value
// in snap.
func (inst *instance) depsHold(entry *viewEntry, snap value.Value, stack []string) bool {
	if !statesHold(entry.stateDeps, snap) {
		return false
	}
	for _, dep := range entry.viewDeps {
		cur, err := inst.evalView(dep.name, snap, stack)
		if err != nil || !value.Same(cur, dep.ref) {
			return false
		}
	}
	return true
}

func statesHold(deps []stateDep, snap value.Value) bool {
	for _, dep := range deps {
		cur, ok := value.Lookup(snap, dep.path)
		if ok != dep.present || (ok && !value.Same(cur, dep.ref)) {
			return false
		}
	}
	return true
}

// invalidateViews drops entries whose state reads changed. Sibling view
// reads are checked lazily on the next access.
func (inst *instance) invalidateViews() {
	inst.viewMu.Lock()
	defer inst.viewMu.Unlock()
	snap := inst.current()
	for name, entry := range inst.views {
		if value.Same(entry.state, snap) {
			continue
		}
		if !statesHold(entry.stateDeps, snap) {
			delete(inst.views, name)
			continue
		}
		if len(entry.viewDeps) == 0 {
			entry.state = snap
		}
	}
}
