package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ripple/internal/compiler"
	"github.com/roach88/ripple/internal/model"
)

// ModelSummary describes one compiled model.
type ModelSummary struct {
	Name        string   `json:"name"`
	Fingerprint string   `json:"fingerprint"`
	Reducers    []string `json:"reducers"`
	Views       []string `json:"views"`
}

// ValidationResult is the success payload of validate.
type ValidationResult struct {
	Valid  bool           `json:"valid"`
	Models []ModelSummary `json:"models"`
}

// CompileDetails locates a compile error in JSON output.
type CompileDetails struct {
	Model  string `json:"model,omitempty"`
	Member string `json:"member,omitempty"`
	Field  string `json:"field,omitempty"`
	File   string `json:"file,omitempty"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <models-dir>",
		Short: "Compile CUE models and list them",
		Long: `Compile every model declared in a CUE package and list the
reducers and views each one exposes.

Exit codes:
  0 - All models compiled
  1 - A model failed to compile
  2 - Command error (missing directory, no .cue files)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	defs, err := loadModels(f, dir)
	if err != nil {
		return err
	}

	result := ValidationResult{Valid: true, Models: summarize(defs)}
	if f.json() {
		return f.Success(result)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "✓ %d model(s) valid\n", len(result.Models))
	for _, m := range result.Models {
		fmt.Fprintf(w, "  %s  reducers=[%s] views=[%s]\n",
			m.Name, strings.Join(m.Reducers, ","), strings.Join(m.Views, ","))
		f.VerboseLog("%s fingerprint %s", m.Name, m.Fingerprint)
	}
	return nil
}

// loadModels compiles dir and reports failures through f. The returned
// error is always an ExitError.
func loadModels(f *OutputFormatter, dir string) ([]*model.Definition, error) {
	f.VerboseLog("loading models from %s", dir)
	defs, err := compiler.LoadDir(dir)
	if err == nil {
		return defs, nil
	}

	var cerr *compiler.CompileError
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, f.Fail(ExitCommandError, ErrCodeNotFound, "models directory not found", err, nil)
	case errors.As(err, &cerr):
		details := CompileDetails{Model: cerr.Model, Member: cerr.Member, Field: cerr.Field}
		if cerr.Pos.IsValid() {
			details.File = cerr.Pos.Filename()
			details.Line = cerr.Pos.Line()
			details.Column = cerr.Pos.Column()
		}
		return nil, f.Fail(ExitFailure, ErrCodeCompile, "models failed to compile", err, details)
	case strings.Contains(err.Error(), "no .cue files"):
		return nil, f.Fail(ExitCommandError, ErrCodeNoModels, "no models to load", err, nil)
	default:
		return nil, f.Fail(ExitCommandError, ErrCodeGeneric, "failed to load models", err, nil)
	}
}

func summarize(defs []*model.Definition) []ModelSummary {
	out := make([]ModelSummary, len(defs))
	for i, def := range defs {
		out[i] = ModelSummary{
			Name:        def.Name(),
			Fingerprint: def.Fingerprint(),
			Reducers:    def.Reducers(),
			Views:       def.Views(),
		}
	}
	return out
}
