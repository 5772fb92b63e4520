package cli

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/cqdecomp/internal/pipeline"
	"github.com/roach88/cqdecomp/internal/store"
)

// HistoryOptions holds flags for the history and show commands.
type HistoryOptions struct {
	*RootOptions
	DatabasePath string
	Limit        int
	QueryName    string
	Fingerprint  string
	Termination  string
	MinValid     int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List saved decomposition runs",
		Long: `List runs saved with "decompose --db", newest first.

Examples:
  cqdecomp history --db runs.db
  cqdecomp history --db runs.db --limit 5 --format json
  cqdecomp history --db runs.db --query square-with-chord --min-valid 1
  cqdecomp history --db runs.db --termination time_budget_exceeded`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DatabasePath, "db", "", "SQLite database path (required)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "number of runs to list (0 = all)")
	cmd.Flags().StringVar(&opts.QueryName, "query", "", "only runs of this query name")
	cmd.Flags().StringVar(&opts.Fingerprint, "fingerprint", "", "only runs of this query fingerprint")
	cmd.Flags().StringVar(&opts.Termination, "termination", "", "only runs that stopped for this reason (completed for full runs)")
	cmd.Flags().IntVar(&opts.MinValid, "min-valid", 0, "only runs with at least this many valid partitions")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one saved decomposition run",
		Long: `Show a saved run: its query, options, counts, rule catalogues and
diagnostics.

Examples:
  cqdecomp show 01923f7a-... --db runs.db
  cqdecomp show 01923f7a-... --db runs.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DatabasePath, "db", "", "SQLite database path (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

// openExisting opens a database that must already exist; store.Open would
// otherwise create an empty one.
func openExisting(f *OutputFormatter, path string) (*store.Store, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("database not found: %s", path), nil)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeStore, "cannot open database", err)
	}
	return st, nil
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	st, err := openExisting(f, opts.DatabasePath)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.FindRuns(cmd.Context(), store.RunFilter{
		QueryName:        opts.QueryName,
		QueryFingerprint: opts.Fingerprint,
		Termination:      pipeline.TerminationReason(opts.Termination),
		MinValid:         opts.MinValid,
		Limit:            opts.Limit,
	})
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "cannot list runs", err)
	}

	if f.JSON() {
		return f.Success(runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(f.Writer, "No runs saved.")
		return nil
	}

	tw := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tQUERY\tVALID\tFINAL\tCREATED")
	for _, r := range runs {
		final := r.FinalExpression
		if final == "" {
			final = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%s\t%s\n",
			r.ID, r.QueryName, r.Counts.Valid, r.Counts.Filtered, final, r.CreatedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}

func runShow(opts *HistoryOptions, id string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	st, err := openExisting(f, opts.DatabasePath)
	if err != nil {
		return err
	}
	defer st.Close()

	run, err := st.GetRun(cmd.Context(), id)
	if errors.Is(err, store.ErrRunNotFound) {
		return f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("run not found: %s", id), nil)
	}
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "cannot load run", err)
	}

	if f.JSON() {
		return f.Success(run)
	}

	w := f.Writer
	fmt.Fprintf(w, "Run %s\n", run.ID)
	fmt.Fprintf(w, "Query: %s (%d edges, fingerprint %s)\n", run.QueryName, len(run.Query.Edges), run.QueryFingerprint)
	for i, e := range run.Query.Edges {
		fmt.Fprintf(w, "  e%d: %s\n", i, e)
	}
	fmt.Fprintf(w, "Options: mode=%s plan=%s max-partitions=%d diameter-cap=%d\n",
		run.Options.Mode, run.Options.Plan, run.Options.MaxPartitions, run.Options.DiameterCap)
	fmt.Fprintf(w, "Partitions: %d generated, %d filtered, %d valid\n",
		run.Counts.Total, run.Counts.Filtered, run.Counts.Valid)
	if run.FinalExpression != "" {
		fmt.Fprintf(w, "Final expression: %s\n", run.FinalExpression)
	} else {
		fmt.Fprintln(w, "Final expression: none")
	}
	if run.TerminationReason != "" {
		fmt.Fprintf(w, "Terminated: %s\n", run.TerminationReason)
	}
	fmt.Fprintf(w, "Elapsed: %s, created %s\n", run.Elapsed, run.CreatedAt.Format(time.RFC3339))

	fmt.Fprintf(w, "Whole-query rules (%d):\n", len(run.Global))
	for _, r := range run.Global {
		fmt.Fprintf(w, "  %s [%s -> %s] %s\n", r.Expr, r.Source, r.Target, r.Edges)
	}
	fmt.Fprintf(w, "Catalogue (%d):\n", len(run.Catalogue))
	for _, r := range run.Catalogue {
		fmt.Fprintf(w, "  %s [%s -> %s] %s\n", r.Expr, r.Source, r.Target, r.Edges)
	}
	if len(run.Diagnostics) > 0 {
		fmt.Fprintf(w, "Diagnostics (%d):\n", len(run.Diagnostics))
		for _, d := range run.Diagnostics {
			fmt.Fprintf(w, "  %s\n", d)
		}
	}
	return nil
}
