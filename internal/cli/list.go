package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/wherekit/internal/store"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Database string
}

// SavedFilterInfo is one saved filter record as printed by list.
type SavedFilterInfo struct {
	Seq    int64  `json:"seq"`
	Name   string `json:"name"`
	Where  string `json:"where"`
	SQL    string `json:"sql"`
	Params []any  `json:"params"`
	Hash   string `json:"hash"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved filters",
		Long: `List every filter saved with "wherekit eval --save", oldest first.

Re-saving a name with new content adds a record, so a name can appear more
than once; "eval --saved" uses its latest record.

Examples:
  wherekit list --db ./books.db
  wherekit list --db ./books.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runList(opts *ListOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
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

	filters, err := st.ListFilters(ctx)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, err.Error())
	}

	infos := make([]SavedFilterInfo, 0, len(filters))
	for _, f := range filters {
		infos = append(infos, SavedFilterInfo{
			Seq:    f.Seq,
			Name:   f.Name,
			Where:  f.Where,
			SQL:    f.SQL,
			Params: f.Params,
			Hash:   f.Hash,
		})
	}

	if formatter.Format == "json" {
		return formatter.Success(infos)
	}

	w := formatter.Writer
	if len(infos) == 0 {
		fmt.Fprintln(w, "No saved filters.")
		return nil
	}
	for _, f := range infos {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", f.Seq, f.Name, shortHash(f.Hash), f.Where)
	}
	return nil
}
