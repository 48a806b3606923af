package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/wherekit/internal/harness"
	"github.com/roach88/wherekit/internal/store"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	Database string
	Table    string
	Save     string // save the built filter under this name
	Saved    string // evaluate a saved filter instead of a scenario
	IDs      bool   // also list the ids of matching rows
}

// EvalResult is the outcome of evaluating one filter against a table.
type EvalResult struct {
	Name   string  `json:"name"`
	Where  string  `json:"where"`
	SQL    string  `json:"sql"`
	Params []any   `json:"params"`
	Table  string  `json:"table"`
	Count  int64   `json:"count"`
	IDs    []int64 `json:"ids,omitempty"`

	// Set when the filter was saved or loaded from the store.
	SavedID   string `json:"saved_id,omitempty"`
	SavedHash string `json:"saved_hash,omitempty"`
	SavedSeq  int64  `json:"saved_seq,omitempty"`
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval [scenario-file]",
		Short: "Count the rows of a SQLite table matched by a filter",
		Long: `Build a filter and count the rows it matches.

The filter comes either from a YAML scenario or, with --saved, from a
filter previously stored with --save. Unclosed groups in a scenario are
evaluated as if they were closed.

Examples:
  wherekit eval ./scenarios/or_group.yaml --db ./books.db --table book
  wherekit eval ./scenarios/or_group.yaml --db ./books.db --table book --save cheap
  wherekit eval ./scenarios/or_group.yaml --db ./books.db --table book --ids
  wherekit eval --saved cheap --db ./books.db --table book`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.Table, "table", "", "table to evaluate against (required)")
	cmd.Flags().StringVar(&opts.Save, "save", "", "save the scenario's filter under this name")
	cmd.Flags().StringVar(&opts.Saved, "saved", "", "evaluate a saved filter instead of a scenario")
	cmd.Flags().BoolVar(&opts.IDs, "ids", false, "list the ids of matching rows (scenario only)")
	_ = cmd.MarkFlagRequired("db")
	_ = cmd.MarkFlagRequired("table")

	return cmd
}

func runEval(opts *EvalOptions, args []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if (len(args) == 0) == (opts.Saved == "") {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "provide exactly one of a scenario file or --saved")
	}
	if opts.Saved != "" && opts.Save != "" {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "--save cannot be combined with --saved")
	}
	if opts.Saved != "" && opts.IDs {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "--ids cannot be combined with --saved")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, fmt.Sprintf("failed to open database: %v", err))
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	var (
		result *EvalResult
		code   string
	)
	if opts.Saved != "" {
		result, code, err = evalSaved(ctx, st, opts)
	} else {
		result, code, err = evalScenario(ctx, st, opts, args[0])
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, code, err.Error())
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Filter: %s\n", result.Where)
	fmt.Fprintf(w, "SQL:    %s\n", result.SQL)
	fmt.Fprintf(w, "Params: %v\n", result.Params)
	fmt.Fprintf(w, "Table:  %s\n", result.Table)
	fmt.Fprintf(w, "Count:  %d\n", result.Count)
	if opts.IDs {
		fmt.Fprintf(w, "IDs:    %v\n", result.IDs)
	}
	if result.SavedID != "" {
		fmt.Fprintf(w, "Saved:  %s (seq %d, hash %s)\n", result.Name, result.SavedSeq, shortHash(result.SavedHash))
	}
	return nil
}

// evalScenario builds the scenario's filter, counts it and optionally saves
// it. On failure it also returns the error code to report.
func evalScenario(ctx context.Context, st *store.Store, opts *EvalOptions, file string) (*EvalResult, string, error) {
	scenario, err := harness.LoadScenario(file)
	if err != nil {
		return nil, ErrCodeLoadFailed, err
	}
	run, err := harness.Run(scenario)
	if err != nil {
		return nil, ErrCodeInvalid, err
	}
	combiner := run.Criteria.Combiner()

	n, err := st.Count(ctx, opts.Table, combiner)
	if err != nil {
		return nil, ErrCodeDatabase, err
	}
	slog.Info("filter evaluated", "scenario", scenario.Name, "table", opts.Table, "count", n)

	result := &EvalResult{
		Name:   scenario.Name,
		Where:  run.Where,
		SQL:    run.SQL,
		Params: run.Params,
		Table:  opts.Table,
		Count:  n,
	}

	if opts.IDs {
		if result.IDs, err = st.MatchingIDs(ctx, opts.Table, combiner); err != nil {
			return nil, ErrCodeDatabase, err
		}
	}

	if opts.Save != "" {
		saved, err := st.SaveFilter(ctx, opts.Save, combiner)
		if err != nil {
			return nil, ErrCodeDatabase, err
		}
		result.Name = saved.Name
		result.SavedID = saved.ID
		result.SavedHash = saved.Hash
		result.SavedSeq = saved.Seq
	}
	return result, "", nil
}

func evalSaved(ctx context.Context, st *store.Store, opts *EvalOptions) (*EvalResult, string, error) {
	saved, err := st.LoadFilter(ctx, opts.Saved)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrCodeNotFound, err
	}
	if err != nil {
		return nil, ErrCodeDatabase, err
	}

	n, err := st.CountSaved(ctx, opts.Table, saved)
	if err != nil {
		return nil, ErrCodeDatabase, err
	}
	slog.Info("saved filter evaluated", "name", saved.Name, "table", opts.Table, "count", n)

	return &EvalResult{
		Name:      saved.Name,
		Where:     saved.Where,
		SQL:       saved.SQL,
		Params:    saved.Params,
		Table:     opts.Table,
		Count:     n,
		SavedID:   saved.ID,
		SavedHash: saved.Hash,
		SavedSeq:  saved.Seq,
	}, "", nil
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
