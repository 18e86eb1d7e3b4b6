package model

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/roach88/ripple/internal/draft"
	"github.com/roach88/ripple/internal/value"
)

// Listener is a change subscriber. It is called with no arguments once per
// flush in which its model changed; read the new state from the handle.
type Listener func()

// ActionObserver receives every reducer descriptor right after the reducer
// returns, before the flush. ctx carries the dispatching turn, so an
// observer may dispatch re-entrantly.
type ActionObserver func(ctx context.Context, d Descriptor)

// Descriptor describes one reducer dispatch.
type Descriptor struct {
	Seq     int64         // logical clock stamp
	Model   string        // model name
	Type    string        // reducer name
	Payload []value.Value // dispatch arguments
	Nested  bool          // dispatched while another reducer was running
}

// Result is what Dispatch returns: Action for reducers, Value for actions.
type Result struct {
	Action Descriptor
	Value  value.Value
}

// Handle is the public surface of a model instance. Plugins decorate it by
// embedding a Handle and overriding methods.
type Handle interface {
	// Name returns the model name.
	Name() string
	// Dispatch runs the named reducer or action.
	Dispatch(ctx context.Context, name string, args ...value.Value) (Result, error)
	// GetState returns the committed snapshot. Plugins may wrap it.
	GetState() value.Value
	// RawState returns the committed snapshot and is never wrapped.
	RawState() value.Value
	// Subscribe registers a change listener and returns its unsubscribe func.
	Subscribe(l Listener) func()
	// OnAction registers a reducer descriptor observer.
	OnAction(o ActionObserver) func()
	// View returns the memoized value of the named view.
	View(name string) (value.Value, error)
}

type snapshot struct {
	v value.Value
}

// instance holds one model's live state.
type instance struct {
	name  string
	def   *Definition
	mgr   *Manager
	state atomic.Pointer[snapshot]
	dirty bool // guarded by scheduler.mu

	subs      listenerSet[Listener]
	observers listenerSet[ActionObserver]

	viewMu sync.Mutex
	views  map[string]*viewEntry

	core  *coreHandle
	outer Handle // plugin-wrapped handle
}

func newInstance(m *Manager, def *Definition) *instance {
	inst := &instance{
		name:  def.Name(),
		def:   def,
		mgr:   m,
		views: make(map[string]*viewEntry),
	}
	inst.state.Store(&snapshot{v: def.InitialState()})
	inst.core = &coreHandle{inst: inst}
	inst.outer = inst.core
	return inst
}

func (inst *instance) current() value.Value {
	return inst.state.Load().v
}

func (inst *instance) dispatch(ctx context.Context, name string, args []value.Value) (res Result, err error) {
	m := inst.mgr
	if m.destroyed.Load() {
		return Result{}, &ManagerDestroyedError{Op: "dispatch"}
	}
	reducer, isReducer := inst.def.reducers[name]
	action, isAction := inst.def.actions[name]
	if !isReducer && !isAction {
		return Result{}, &UnknownActionError{Model: inst.name, Action: name}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, t, outer := m.sched.enter(ctx)
	if outer {
		defer func() {
			if r := recover(); r != nil {
				m.sched.release(t)
				panic(r)
			}
			if ferr := m.sched.exit(t); ferr != nil {
				err = errors.Join(err, ferr)
			}
		}()
	}

	if qerr := t.quota.Enter(inst.name, name); qerr != nil {
		return Result{}, qerr
	}
	defer t.quota.Leave()

	if isReducer {
		return inst.runReducer(ctx, t, name, reducer, args)
	}
	return inst.runAction(ctx, t, name, action, args)
}

// runReducer applies a reducer. The outermost reducer for an instance in a
// turn owns the root draft and commits it; reducers it dispatches to the
// same instance write into that draft.
func (inst *instance) runReducer(ctx context.Context, t *turn, name string, fn Reducer, args []value.Value) (Result, error) {
	nested := t.reducerDepth > 0
	root, joined := t.drafts[inst]
	if !joined {
		d, err := draft.New(inst.current())
		if err != nil {
			return Result{}, fmt.Errorf("%s/%s: %w", inst.name, name, err)
		}
		root = d
		t.drafts[inst] = d
		defer func() {
			if t.drafts[inst] == root {
				delete(t.drafts, inst)
			}
			root.Revoke()
		}()
	}

	// A nested reducer shares its caller's draft, so its writes are undone
	// on failure rather than discarded with the draft.
	var sp *draft.Savepoint
	if joined {
		var err error
		if sp, err = root.Save(); err != nil {
			return Result{}, fmt.Errorf("%s/%s: %w", inst.name, name, err)
		}
	}

	if err := t.callReducer(fn, &Draft{Draft: root, ctx: ctx, inst: inst}, args); err != nil {
		if sp != nil {
			if rerr := sp.Restore(); rerr != nil {
				err = errors.Join(err, rerr)
			}
		}
		return Result{}, fmt.Errorf("%s/%s: %w", inst.name, name, err)
	}

	desc := Descriptor{
		Seq:     inst.mgr.clock.Next(),
		Model:   inst.name,
		Type:    name,
		Payload: slices.Clone(args),
		Nested:  nested,
	}

	if !joined {
		// Observers may dispatch to this instance again; that starts a
		// fresh draft over the committed state.
		delete(t.drafts, inst)
		next, changed, err := root.Finalize()
		if err != nil {
			return Result{}, fmt.Errorf("%s/%s: %w", inst.name, name, err)
		}
		if changed {
			inst.state.Store(&snapshot{v: next})
			inst.mgr.sched.markDirty(inst)
			inst.mgr.sched.stats.commits.Add(1)
			inst.mgr.logger.Debug("state committed",
				"model", inst.name,
				"action", name,
				"seq", desc.Seq,
			)
		}
	}

	inst.notifyAction(ctx, desc)
	return Result{Action: desc}, nil
}

func (t *turn) callReducer(fn Reducer, d *Draft, args []value.Value) error {
	t.reducerDepth++
	defer func() { t.reducerDepth-- }()
	return fn(d, args...)
}

func (inst *instance) runAction(ctx context.Context, t *turn, name string, fn Action, args []value.Value) (Result, error) {
	ac := &ActionContext{inst: inst, ctx: ctx, turn: t}
	v, err := fn(ac, args...)
	if err != nil {
		return Result{}, fmt.Errorf("%s/%s: %w", inst.name, name, err)
	}
	if v == nil {
		v = value.Null{}
	}
	return Result{Value: v}, nil
}

// notifyAction delivers d to observers. Observer panics are logged and
// swallowed; they never undo a commit.
func (inst *instance) notifyAction(ctx context.Context, d Descriptor) {
	for _, o := range inst.observers.snapshot() {
		if !o.active.Load() {
			continue
		}
		func() {
			defer func() {
				if r := recover(); r != nil {
					inst.mgr.logger.Error("action observer panicked",
						"model", inst.name,
						"action", d.Type,
						"seq", d.Seq,
						"panic", r,
					)
				}
			}()
			o.fn(ctx, d)
		}()
	}
}

// coreHandle is the innermost Handle of an instance.
type coreHandle struct {
	inst *instance
}

func (h *coreHandle) Name() string { return h.inst.name }

func (h *coreHandle) Dispatch(ctx context.Context, name string, args ...value.Value) (Result, error) {
	return h.inst.dispatch(ctx, name, args)
}

func (h *coreHandle) GetState() value.Value { return h.inst.current() }

func (h *coreHandle) RawState() value.Value { return h.inst.current() }

func (h *coreHandle) Subscribe(l Listener) func() {
	if l == nil || h.inst.mgr.destroyed.Load() {
		return func() {}
	}
	return h.inst.subs.add(l)
}

func (h *coreHandle) OnAction(o ActionObserver) func() {
	if o == nil || h.inst.mgr.destroyed.Load() {
		return func() {}
	}
	return h.inst.observers.add(o)
}

func (h *coreHandle) View(name string) (value.Value, error) {
	return h.inst.view(name)
}

// ActionContext is what an Action body works with.
type ActionContext struct {
	inst *instance
	ctx  context.Context
	turn *turn
}

// Model returns the model name.
func (ac *ActionContext) Model() string { return ac.inst.name }

// Context returns the context of the current turn. Dispatching to another
// model with it keeps that dispatch in the same turn.
func (ac *ActionContext) Context() context.Context { return ac.ctx }

// Dispatch runs a reducer or action of the same model through the outermost
// handle, so plugin wrappers see it.
func (ac *ActionContext) Dispatch(name string, args ...value.Value) (Result, error) {
	return ac.inst.outer.Dispatch(ac.ctx, name, args...)
}

// State returns the model's committed snapshot.
func (ac *ActionContext) State() value.Value {
	return ac.inst.outer.GetState()
}

// View returns a view of the model.
func (ac *ActionContext) View(name string) (value.Value, error) {
	return ac.inst.outer.View(name)
}

// Suspend releases the manager's slot while fn runs. Pending changes are
// flushed first; after fn returns the action continues against whatever
// state is current by then. The ctx given to fn does not carry the turn, so
// dispatches made from fn run in their own turns.
//
// Suspending while a reducer is running returns ErrSuspendInReducer.
func (ac *ActionContext) Suspend(fn func(ctx context.Context) error) error {
	if ac.turn.reducerDepth > 0 {
		return ErrSuspendInReducer
	}
	return ac.inst.mgr.sched.suspend(ac.ctx, ac.turn, fn)
}

// Await is Suspend for functions that produce a value.
func Await[T any](ac *ActionContext, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := ac.Suspend(func(ctx context.Context) error {
		v, err := fn(ctx)
		out = v
		return err
	})
	return out, err
}
