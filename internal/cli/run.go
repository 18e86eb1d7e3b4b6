package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/ripple/internal/journal"
	"github.com/roach88/ripple/internal/model"
	"github.com/roach88/ripple/internal/plugins/logging"
	"github.com/roach88/ripple/internal/value"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Steps   []string
	Journal string
	Session string
}

// Step is one parsed --step flag.
type Step struct {
	Model  string
	Action string
	Args   []value.Value
}

// RunResult is the success payload of run.
type RunResult struct {
	Session    string         `json:"session,omitempty"`
	Dispatched int            `json:"dispatched"`
	Journaled  int64          `json:"journaled"`
	Flushes    int64          `json:"flushes"`
	State      map[string]any `json:"state"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <models-dir>",
		Short: "Dispatch steps against compiled models",
		Long: `Compile the models in a directory, dispatch each --step in order
inside one manager and print the resulting state of every model.

A step is model/action, optionally followed by a colon and a JSON array
of arguments. A JSON value that is not an array is passed as the only
argument. With --journal every reducer dispatch is recorded to a SQLite
journal that replay can verify later.

Example:
  ripple run ./models --step count/add:[5] --step count/add
  ripple run ./models --step todo/push:[{"id":1}] --journal ./ripple.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModels(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Steps, "step", nil, "model/action[:jsonArgs], repeatable")
	cmd.Flags().StringVar(&opts.Journal, "journal", "", "path to a SQLite journal (default from config)")
	cmd.Flags().StringVar(&opts.Session, "session", "", "journal session id (default: new UUIDv7)")

	return cmd
}

// ParseStep parses model/action[:jsonArgs].
func ParseStep(s string) (Step, error) {
	ref, raw, hasArgs := strings.Cut(s, ":")
	name, action, ok := strings.Cut(ref, "/")
	if !ok || name == "" || action == "" {
		return Step{}, fmt.Errorf("step %q: want model/action", s)
	}
	step := Step{Model: name, Action: action}
	if !hasArgs || raw == "" {
		return step, nil
	}
	v, err := value.Unmarshal([]byte(raw))
	if err != nil {
		return Step{}, fmt.Errorf("step %q: arguments: %w", s, err)
	}
	if list, ok := v.(*value.List); ok {
		step.Args = list.Items()
	} else {
		step.Args = []value.Value{v}
	}
	return step, nil
}

func runModels(opts *RunOptions, dir string, cmd *cobra.Command) (err error) {
	f := opts.formatter(cmd)

	steps := make([]Step, 0, len(opts.Steps))
	for _, s := range opts.Steps {
		step, err := ParseStep(s)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeGeneric, "invalid step", err, nil)
		}
		steps = append(steps, step)
	}

	cfg, logger, err := opts.settings(f.errWriter())
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "invalid configuration", err, nil)
	}
	defs, err := loadModels(f, dir)
	if err != nil {
		return err
	}

	managerOpts, err := cfg.ManagerOptions(logger)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "invalid configuration", err, nil)
	}
	managerOpts = append(managerOpts, model.WithPlugins(logging.Plugin(logger)))

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	path := opts.Journal
	if path == "" {
		path = cfg.JournalPath
	}
	var rec *journal.Recorder
	if path != "" {
		j, openErr := journal.Open(path)
		if openErr != nil {
			return f.Fail(ExitCommandError, ErrCodeJournal, "failed to open journal", openErr, nil)
		}
		defer j.Close()

		recOpts := []journal.RecorderOption{journal.WithLogger(logger)}
		if opts.Session != "" {
			recOpts = append(recOpts, journal.WithSession(opts.Session))
		}
		rec = journal.NewRecorder(j, recOpts...)
		managerOpts = append(managerOpts, model.WithPlugins(rec.Plugin()))

		go func() {
			if err := rec.Run(ctx); err != nil && ctx.Err() == nil && !errors.Is(err, journal.ErrRecorderClosed) {
				logger.Error("journal recorder stopped", "error", err)
			}
		}()
		defer func() {
			if cerr := rec.Close(); cerr != nil && err == nil {
				err = f.Fail(ExitFailure, ErrCodeJournal, "journal writes failed", cerr, nil)
			}
		}()
		logger.Info("journaling", "path", path, "session", rec.Session())
	}

	m := model.NewManager(managerOpts...)
	defer m.Destroy()

	result, err := dispatchSteps(ctx, m, defs, steps, logger)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeDispatch, "dispatch failed", err, map[string]string{"code": string(model.CodeOf(err))})
	}
	if rec != nil {
		// Close flushes the queue so Journaled is final.
		if err := rec.Close(); err != nil {
			return f.Fail(ExitFailure, ErrCodeJournal, "journal writes failed", err, nil)
		}
		result.Session = rec.Session()
		result.Journaled = rec.Written()
	}

	if f.json() {
		return f.Success(result)
	}
	return writeRunText(f, result)
}

func dispatchSteps(ctx context.Context, m *model.Manager, defs []*model.Definition, steps []Step, logger *slog.Logger) (*RunResult, error) {
	if err := m.Register(defs...); err != nil {
		return nil, err
	}
	handles := make(map[string]model.Handle, len(defs))
	for _, def := range defs {
		h, err := m.GetModel(def.Name(), nil)
		if err != nil {
			return nil, err
		}
		handles[def.Name()] = h
	}

	result := &RunResult{State: make(map[string]any)}
	for i, step := range steps {
		h, ok := handles[step.Model]
		if !ok {
			return nil, &model.UnknownModelError{Model: step.Model}
		}
		if _, err := h.Dispatch(ctx, step.Action, step.Args...); err != nil {
			return nil, fmt.Errorf("step %d (%s/%s): %w", i+1, step.Model, step.Action, err)
		}
		result.Dispatched++
		logger.Debug("step dispatched", "step", i+1, "model", step.Model, "action", step.Action)
	}

	state, err := m.GetState()
	if err != nil {
		return nil, err
	}
	for name, v := range state {
		result.State[name] = value.ToGo(v)
	}
	result.Flushes = m.Stats().Flushes
	return result, nil
}

func writeRunText(f *OutputFormatter, result *RunResult) error {
	w := f.Writer
	fmt.Fprintf(w, "✓ %d step(s) dispatched, %d flush(es)\n", result.Dispatched, result.Flushes)
	if result.Session != "" {
		fmt.Fprintf(w, "  journal session %s (%d entries)\n", result.Session, result.Journaled)
	}
	state := make(map[string]value.Value, len(result.State))
	for name, v := range result.State {
		sv, err := value.FromGo(v)
		if err != nil {
			return err
		}
		state[name] = sv
	}
	data, err := value.MarshalCanonical(value.OwnObject(state))
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(data))
	return nil
}
