package harness

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/roach88/ripple/internal/compiler"
	"github.com/roach88/ripple/internal/model"
	"github.com/roach88/ripple/internal/testutil"
	"github.com/roach88/ripple/internal/value"
)

// Harness executes one scenario against a fresh manager.
type Harness struct {
	manager  *model.Manager
	handles  map[string]model.Handle
	counters map[string]*testutil.NotificationCounter
	unsubs   map[string]func()
	tracer   *tracer
	logger   *slog.Logger
}

// tracer is a plugin that records every reducer descriptor.
type tracer struct {
	mu     sync.Mutex
	events []TraceEvent
}

func (tr *tracer) OnModelInstance(h model.Handle) model.Handle {
	h.OnAction(func(_ context.Context, d model.Descriptor) {
		tr.mu.Lock()
		defer tr.mu.Unlock()
		tr.events = append(tr.events, TraceEvent{
			Seq:    d.Seq,
			Model:  d.Model,
			Action: d.Type,
			Args:   d.Payload,
			Nested: d.Nested,
		})
	})
	return nil
}

func (tr *tracer) trace() []TraceEvent {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return append([]TraceEvent{}, tr.events...)
}

// Run executes a scenario and returns its result. Step failures and
// assertion failures are reported in the result; the error is reserved
// for scenarios that cannot run at all, such as models that fail to
// compile.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario, testutil.QuietLogger())
}

// RunContext is Run with an explicit context and manager logger.
func RunContext(ctx context.Context, scenario *Scenario, logger *slog.Logger) (*Result, error) {
	defs, err := loadModels(scenario.Models)
	if err != nil {
		return nil, fmt.Errorf("failed to load models: %w", err)
	}
	mode, err := model.ParseMode(scenario.Mode)
	if err != nil {
		return nil, err
	}

	tr := &tracer{}
	m := model.NewManager(
		model.WithLogger(logger),
		model.WithMode(mode),
		model.WithPlugins(func() model.Plugin { return tr }),
	)
	defer m.Destroy()

	h := &Harness{
		manager:  m,
		handles:  make(map[string]model.Handle),
		counters: make(map[string]*testutil.NotificationCounter),
		unsubs:   make(map[string]func()),
		tracer:   tr,
		logger:   logger,
	}
	for _, def := range defs {
		handle, err := m.GetModel(def.Name(), def)
		if err != nil {
			return nil, fmt.Errorf("failed to instantiate %s: %w", def.Name(), err)
		}
		counter := &testutil.NotificationCounter{}
		h.handles[def.Name()] = handle
		h.counters[def.Name()] = counter
		h.unsubs[def.Name()] = handle.Subscribe(counter.Listener())
	}

	result := NewResult()
	h.executeSteps(ctx, "steps", scenario.Steps, result)

	result.Trace = tr.trace()
	result.Flushes = m.Stats().Flushes
	for name, handle := range h.handles {
		result.State[name] = value.ToGo(handle.RawState())
		result.Notifications[name] = h.counters[name].Count()
	}

	for _, msg := range EvaluateAssertions(h, result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func loadModels(paths []string) ([]*model.Definition, error) {
	var defs []*model.Definition
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		var loaded []*model.Definition
		if info.IsDir() {
			loaded, err = compiler.LoadDir(p)
		} else {
			loaded, err = compiler.LoadFile(p)
		}
		if err != nil {
			return nil, err
		}
		defs = append(defs, loaded...)
	}
	return defs, nil
}

func (h *Harness) executeSteps(ctx context.Context, prefix string, steps []Step, result *Result) {
	for i, step := range steps {
		where := fmt.Sprintf("%s[%d]", prefix, i)
		switch {
		case step.Dispatch != "":
			h.executeDispatch(ctx, where, step, result)
		case step.Batch != nil:
			err := h.manager.Batch(ctx, func(ctx context.Context) error {
				h.executeSteps(ctx, where+".batch", step.Batch, result)
				return nil
			})
			if err != nil {
				result.AddError(fmt.Sprintf("%s: batch: %v", where, err))
			}
		case step.Unsubscribe != "":
			unsub, ok := h.unsubs[step.Unsubscribe]
			if !ok {
				result.AddError(fmt.Sprintf("%s: unknown model %q", where, step.Unsubscribe))
				continue
			}
			unsub()
		}
	}
}

func (h *Harness) executeDispatch(ctx context.Context, where string, step Step, result *Result) {
	modelName, action, err := splitAction(step.Dispatch)
	if err != nil {
		result.AddError(fmt.Sprintf("%s: %v", where, err))
		return
	}
	handle, ok := h.handles[modelName]
	if !ok {
		result.AddError(fmt.Sprintf("%s: unknown model %q", where, modelName))
		return
	}
	args := make([]value.Value, len(step.Args))
	for i, a := range step.Args {
		v, err := value.FromGo(a)
		if err != nil {
			result.AddError(fmt.Sprintf("%s: args[%d]: %v", where, i, err))
			return
		}
		args[i] = v
	}

	_, err = handle.Dispatch(ctx, action, args...)
	switch {
	case step.ExpectError != "":
		if err == nil {
			result.AddError(fmt.Sprintf("%s: %s succeeded, expected %s", where, step.Dispatch, step.ExpectError))
			return
		}
		if code := model.CodeOf(err); string(code) != step.ExpectError {
			result.AddError(fmt.Sprintf("%s: %s failed with %q (%v), expected %s", where, step.Dispatch, code, err, step.ExpectError))
		}
	case err != nil:
		result.AddError(fmt.Sprintf("%s: %s: %v", where, step.Dispatch, err))
	}
}
