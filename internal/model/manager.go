package model

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/roach88/ripple/internal/value"
)

// Manager owns a set of model instances and the logical execution thread
// they share.
//
// Thread-safety model:
//   - every method is safe from any goroutine
//   - dispatches serialize on the manager's slot; one that carries the
//     in-flight turn in its context joins it instead
//   - snapshots are published atomically, so state reads never block
type Manager struct {
	mu        sync.Mutex // guards defs, instances, order
	defs      map[string]*Definition
	instances map[string]*instance
	order     []*instance

	factories []PluginFactory
	plugins   []Plugin
	subs      listenerSet[Listener]
	sched     *scheduler
	clock     *Clock
	destroyed atomic.Bool

	logger   *slog.Logger
	mode     Mode
	strict   bool
	maxDepth int
}

// Stats are cumulative scheduler counters.
type Stats struct {
	Flushes          int64 // flush passes run
	ScheduledFlushes int64 // times a flush was scheduled by a first dirty mark
	Commits          int64 // reducer commits that changed state
	ListenerFailures int64 // listener panics recovered
}

// NewManager creates a manager. Plugin factories are called here.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		defs:      make(map[string]*Definition),
		instances: make(map[string]*instance),
		clock:     NewClock(),
		logger:    slog.Default(),
		mode:      ModeDevelopment,
		maxDepth:  DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(m)
	}
	for _, f := range m.factories {
		if p := f(); p != nil {
			m.plugins = append(m.plugins, p)
		}
	}
	m.sched = newScheduler(m.maxDepth, m.mode, m.logger, &m.subs)
	return m
}

// Register makes definitions available to GetModel by name without
// instantiating them.
func (m *Manager) Register(defs ...*Definition) error {
	if m.destroyed.Load() {
		return &ManagerDestroyedError{Op: "register"}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, def := range defs {
		if def == nil {
			return errors.New("register: nil definition")
		}
		if prev, ok := m.defs[def.Name()]; ok && prev.Fingerprint() != def.Fingerprint() {
			if err := m.mismatch(def.Name(), prev, def); err != nil {
				return err
			}
			continue
		}
		m.defs[def.Name()] = def
	}
	return nil
}

// GetModel returns the handle for name, building the instance on first use.
// def may be nil when name was registered or is already instantiated.
func (m *Manager) GetModel(name string, def *Definition) (Handle, error) {
	if m.destroyed.Load() {
		return nil, &ManagerDestroyedError{Op: "get model"}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if inst, ok := m.instances[name]; ok {
		if def != nil && def != inst.def && def.Fingerprint() != inst.def.Fingerprint() {
			if err := m.mismatch(name, inst.def, def); err != nil {
				return nil, err
			}
		}
		return inst.outer, nil
	}

	if def == nil {
		def = m.defs[name]
		if def == nil {
			return nil, &UnknownModelError{Model: name}
		}
	}
	if def.Name() != name {
		return nil, fmt.Errorf("get model %q: definition is named %q", name, def.Name())
	}

	inst := newInstance(m, def)
	inst.outer = applyPlugins(inst.core, m.plugins)
	m.instances[name] = inst
	m.order = append(m.order, inst)
	if _, ok := m.defs[name]; !ok {
		m.defs[name] = def
	}

	m.logger.Debug("model instance created",
		"model", name,
		"definition", short(def.Fingerprint()),
		"plugins", len(m.plugins),
	)
	return inst.outer, nil
}

// mismatch applies the strict/non-strict policy. Caller holds mu.
func (m *Manager) mismatch(name string, cached, given *Definition) error {
	if m.strict {
		return &DefinitionMismatchError{Model: name, Cached: cached.Fingerprint(), Given: given.Fingerprint()}
	}
	m.logger.Warn("definition mismatch, keeping the existing one",
		"model", name,
		"cached", short(cached.Fingerprint()),
		"given", short(given.Fingerprint()),
	)
	return nil
}

// GetState returns every instance's committed snapshot by model name. The
// map is fresh on each call; the snapshots are shared.
func (m *Manager) GetState() (map[string]value.Value, error) {
	if m.destroyed.Load() {
		return nil, &ManagerDestroyedError{Op: "get state"}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]value.Value, len(m.instances))
	for name, inst := range m.instances {
		out[name] = inst.current()
	}
	return out, nil
}

// Models returns the instantiated model names in creation order.
func (m *Manager) Models() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, len(m.order))
	for i, inst := range m.order {
		names[i] = inst.name
	}
	return names
}

// Subscribe registers a listener called once per flush in which any
// instance changed, after the instances' own listeners.
func (m *Manager) Subscribe(l Listener) (func(), error) {
	if m.destroyed.Load() {
		return nil, &ManagerDestroyedError{Op: "subscribe"}
	}
	if l == nil {
		return func() {}, nil
	}
	return m.subs.add(l), nil
}

// Batch runs fn in a single turn: every dispatch made with the ctx passed
// to fn joins it, and listeners are notified once when fn returns.
func (m *Manager) Batch(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if m.destroyed.Load() {
		return &ManagerDestroyedError{Op: "batch"}
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
	return fn(ctx)
}

// Stats returns the scheduler counters.
func (m *Manager) Stats() Stats {
	s := m.sched
	return Stats{
		Flushes:          s.stats.flushes.Load(),
		ScheduledFlushes: s.stats.scheduled.Load(),
		Commits:          s.stats.commits.Load(),
		ListenerFailures: s.stats.listenerFailures.Load(),
	}
}

// Destroy drops every instance and subscription. Afterwards manager methods
// that return an error return ManagerDestroyedError, Models is empty, Stats
// keeps its counters, handles obtained earlier refuse Dispatch, and no
// listener is called again.
func (m *Manager) Destroy() error {
	if m.destroyed.Swap(true) {
		return &ManagerDestroyedError{Op: "destroy"}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inst := range m.order {
		inst.subs.clear()
		inst.observers.clear()
		inst.viewMu.Lock()
		clear(inst.views)
		inst.viewMu.Unlock()
	}
	m.subs.clear()
	m.instances = make(map[string]*instance)
	m.order = nil
	m.logger.Debug("manager destroyed")
	return nil
}
