package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/ripple/internal/journal"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Journal string
	Models  string
	Session string
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay a journal session and verify determinism",
		Long: `Rebuild a fresh manager from the models directory, dispatch the
top-level entries of a journal session again and compare each resulting
snapshot with the fingerprint that was recorded.

Without --session the most recent session is replayed.

Exit codes:
  0 - Replay is deterministic
  1 - Replay diverged from the journal
  2 - Command error (missing journal, models fail to load, etc.)

Example:
  ripple replay --journal ./ripple.db --models ./models
  ripple replay --journal ./ripple.db --models ./models --session 0190...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "journal", "", "path to the SQLite journal (default from config)")
	cmd.Flags().StringVar(&opts.Models, "models", "", "models directory (required)")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session to replay (default: latest)")
	_ = cmd.MarkFlagRequired("models")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	cfg, logger, err := opts.settings(f.errWriter())
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "invalid configuration", err, nil)
	}
	path := opts.Journal
	if path == "" {
		path = cfg.JournalPath
	}
	if path == "" {
		return f.Fail(ExitCommandError, ErrCodeJournal, "no journal given (--journal or RIPPLE_JOURNAL)", nil, nil)
	}

	defs, err := loadModels(f, opts.Models)
	if err != nil {
		return err
	}

	j, err := openExistingJournal(path)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeJournal, "failed to open journal", err, nil)
	}
	defer j.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	session := opts.Session
	if session == "" {
		session, err = j.LatestSession(ctx)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeJournal, "no session to replay", err, nil)
		}
	}
	f.VerboseLog("replaying session %s from %s", session, path)

	managerOpts, err := cfg.ManagerOptions(logger)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "invalid configuration", err, nil)
	}
	result, err := journal.Replay(ctx, j, session, defs, managerOpts...)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeJournal, "failed to read journal", err, nil)
	}

	if f.json() {
		if err := f.Success(result); err != nil {
			return err
		}
	} else {
		writeReplayText(f, result)
	}

	if !result.Deterministic {
		return NewExitError(ExitFailure, fmt.Sprintf("session %s replayed with %d mismatch(es)", session, len(result.Mismatches)))
	}
	return nil
}

func writeReplayText(f *OutputFormatter, r *journal.ReplayResult) {
	w := f.Writer
	if r.Deterministic {
		fmt.Fprintf(w, "✓ session %s is deterministic (%d replayed, %d nested skipped)\n",
			r.Session, r.Replayed, r.Skipped)
		return
	}
	fmt.Fprintf(w, "✗ session %s diverged (%d replayed, %d mismatch(es))\n",
		r.Session, r.Replayed, len(r.Mismatches))
	for _, mm := range r.Mismatches {
		fmt.Fprintf(w, "  seq %d %s/%s: %s\n", mm.Seq, mm.Model, mm.Type, mm.Reason)
		f.VerboseLog("    expected %s, got %s", mm.Expected, mm.Actual)
	}
}

// openExistingJournal refuses to create a journal: replaying a path that
// does not exist is a usage error.
func openExistingJournal(path string) (*journal.Journal, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return journal.Open(path)
}
