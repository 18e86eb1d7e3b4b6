package model

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/roach88/ripple/internal/draft"
)

// turnKey is the context key carrying the in-flight turn.
type turnKey struct{}

// turn is one hold of the manager's slot. Dispatches whose context carries
// a held turn of the same scheduler join it instead of taking the slot
// again, which is what makes re-entrant dispatch possible.
//
// All fields except held are only touched by the goroutine holding the slot.
type turn struct {
	sched        *scheduler
	held         atomic.Bool
	quota        *DepthQuota
	drafts       map[*instance]*draft.Draft // active root draft per instance
	reducerDepth int
	deferred     []error // flush errors of suspended ticks, reported by exit
}

// scheduler is the per-manager logical execution thread.
//
// The slot serializes turns across goroutines. State changes are only
// published while the slot is held; listeners run after it is released, at
// the end of the outermost turn.
//
// Thread-safety model:
//   - enter/exit/suspend: any goroutine
//   - markDirty: slot holder only
//   - flush: any goroutine, but at most one flushes at a time
type scheduler struct {
	slot     sync.Mutex
	maxDepth int
	mode     Mode
	logger   *slog.Logger
	global   *listenerSet[Listener]

	mu       sync.Mutex // guards dirty, pending, flushing, inst.dirty
	dirty    []*instance
	pending  bool
	flushing bool

	stats struct {
		flushes          atomic.Int64
		scheduled        atomic.Int64
		commits          atomic.Int64
		listenerFailures atomic.Int64
	}
}

func newScheduler(maxDepth int, mode Mode, logger *slog.Logger, global *listenerSet[Listener]) *scheduler {
	return &scheduler{
		maxDepth: maxDepth,
		mode:     mode,
		logger:   logger,
		global:   global,
	}
}

// enter joins the turn carried by ctx or opens a new one. outer is true when
// the caller opened the turn and must call exit.
func (s *scheduler) enter(ctx context.Context) (context.Context, *turn, bool) {
	if t, ok := ctx.Value(turnKey{}).(*turn); ok && t != nil && t.sched == s && t.held.Load() {
		return ctx, t, false
	}
	s.slot.Lock()
	t := &turn{
		sched:  s,
		quota:  NewDepthQuota(s.maxDepth),
		drafts: make(map[*instance]*draft.Draft),
	}
	t.held.Store(true)
	return context.WithValue(ctx, turnKey{}, t), t, true
}

// release gives up the slot without flushing.
func (s *scheduler) release(t *turn) {
	t.held.Store(false)
	s.slot.Unlock()
}

// exit ends the turn and runs any pending flush. Flush errors of earlier
// suspended ticks are reported here too.
func (s *scheduler) exit(t *turn) error {
	s.release(t)
	err := s.flush()
	if len(t.deferred) == 0 {
		return err
	}
	return errors.Join(append(t.deferred, err)...)
}

// suspend ends the current tick of t, runs fn outside the slot, then takes
// the slot back for the same turn. Whatever other goroutines committed in
// between is visible afterwards.
//
// Only fn's error is returned. A failed flush of the ending tick is kept on
// t until the outermost exit so the action goes on running.
func (s *scheduler) suspend(ctx context.Context, t *turn, fn func(ctx context.Context) error) error {
	s.release(t)
	if ferr := s.flush(); ferr != nil {
		t.deferred = append(t.deferred, ferr)
	}
	defer func() {
		s.slot.Lock()
		t.held.Store(true)
	}()
	return fn(context.WithValue(ctx, turnKey{}, (*turn)(nil)))
}

// markDirty queues inst for the next flush. Only the first marking of an
// instance per flush counts; only the first marking overall schedules.
func (s *scheduler) markDirty(inst *instance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if inst.dirty {
		return
	}
	inst.dirty = true
	s.dirty = append(s.dirty, inst)
	if !s.pending {
		s.pending = true
		s.stats.scheduled.Add(1)
	}
}

// flush notifies listeners of every dirty instance. Marks made while it
// runs (a listener dispatching, or another goroutine finishing a turn) are
// drained by further passes on this goroutine.
//
// In development mode the recovered listener panics are returned joined.
func (s *scheduler) flush() error {
	s.mu.Lock()
	if s.flushing || !s.pending {
		s.mu.Unlock()
		return nil
	}
	s.flushing = true
	s.mu.Unlock()

	var errs []error
	for {
		s.mu.Lock()
		batch := s.dirty
		s.dirty = nil
		s.pending = false
		// Cleared before notifying so a listener's own dispatch re-marks.
		for _, inst := range batch {
			inst.dirty = false
		}
		if len(batch) == 0 {
			s.flushing = false
			s.mu.Unlock()
			break
		}
		s.mu.Unlock()

		errs = append(errs, s.flushPass(batch)...)
	}

	if len(errs) == 0 || s.mode == ModeProduction {
		return nil
	}
	return errors.Join(errs...)
}

func (s *scheduler) flushPass(batch []*instance) []error {
	s.stats.flushes.Add(1)
	var errs []error
	for _, inst := range batch {
		for _, l := range inst.subs.snapshot() {
			if !l.active.Load() {
				continue
			}
			if err := s.notify(inst.name, l.fn); err != nil {
				errs = append(errs, err)
			}
		}
		inst.invalidateViews()
	}
	for _, l := range s.global.snapshot() {
		if !l.active.Load() {
			continue
		}
		if err := s.notify("", l.fn); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// notify calls one listener, turning a panic into a SchedulerFlushError.
func (s *scheduler) notify(model string, fn Listener) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &SchedulerFlushError{Model: model, Panic: r}
			s.stats.listenerFailures.Add(1)
			s.logger.Error("listener panicked",
				"model", model,
				"error", err,
				"event", "flush_listener_failed",
			)
		}
	}()
	fn()
	return nil
}

// listenerEntry is one registration. active flips to false on unsubscribe
// so an in-progress flush skips it immediately.
type listenerEntry[F any] struct {
	fn     F
	active atomic.Bool
}

// listenerSet is a copy-on-write registration list. snapshot() results are
// never modified afterwards, so a flush can iterate one while listeners
// subscribe and unsubscribe.
type listenerSet[F any] struct {
	mu      sync.Mutex
	entries []*listenerEntry[F]
}

// add registers fn and returns an idempotent remove func.
func (s *listenerSet[F]) add(fn F) func() {
	e := &listenerEntry[F]{fn: fn}
	e.active.Store(true)

	s.mu.Lock()
	s.entries = append(slices.Clip(s.entries), e)
	s.mu.Unlock()

	return func() {
		if !e.active.Swap(false) {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		next := make([]*listenerEntry[F], 0, len(s.entries))
		for _, other := range s.entries {
			if other != e {
				next = append(next, other)
			}
		}
		s.entries = next
	}
}

func (s *listenerSet[F]) snapshot() []*listenerEntry[F] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries
}

// clear deactivates and drops every registration.
func (s *listenerSet[F]) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		e.active.Store(false)
	}
	s.entries = nil
}
