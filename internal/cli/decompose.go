package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/cqdecomp/internal/cpq"
	"github.com/roach88/cqdecomp/internal/ir"
	"github.com/roach88/cqdecomp/internal/pipeline"
	"github.com/roach88/cqdecomp/internal/store"
)

// DecomposeOptions holds flags for the decompose command.
type DecomposeOptions struct {
	*RootOptions
	Query string // query name inside a multi-query file
}

// DecomposeOutput is the JSON payload of the decompose command.
type DecomposeOutput struct {
	RunID  string           `json:"run_id,omitempty"`
	Result *pipeline.Result `json:"result"`
}

// NewDecomposeCommand creates the decompose command.
func NewDecomposeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DecomposeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "decompose <query-file>",
		Short: "Decompose a query into CPQ expressions",
		Long: `Run the decomposition pipeline on a query and print a summary.

Partitions the query's edges into connected components, synthesizes CPQ
rules per component, and reports the valid partitions, the rule catalogue
and the whole-query expression. With --db the run is saved to history.

Exit codes:
  0 - At least one partition is valid
  1 - No valid partition, or the query is invalid
  2 - Command error (unreadable file, bad option, database error)

Examples:
  cqdecomp decompose square.yaml
  cqdecomp decompose queries.cue --query triangle --plan first
  cqdecomp decompose square.yaml --mode enumerate --tuple-limit 5 --format json
  CQDECOMP_TIME_BUDGET=2s cqdecomp decompose big.yaml --db runs.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecompose(opts, args[0], cmd)
		},
	}

	addPipelineFlags(cmd)
	cmd.Flags().StringVar(&opts.Query, "query", "", "query name when the file holds several")
	cmd.Flags().String(keyDB, "", "SQLite database to save the run in")

	return cmd
}

func runDecompose(opts *DecomposeOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	v, err := opts.settings(cmd)
	if err != nil {
		return configError(f, err)
	}
	popts, err := pipelineOptions(v)
	if err != nil {
		return configError(f, err)
	}

	q, err := loadQuery(f, path, opts.Query)
	if err != nil {
		return err
	}

	logger := newLogger(opts.RootOptions, f.GetErrWriter())
	res, err := pipeline.Decompose(cmd.Context(), q, popts, pipeline.WithLogger(logger))
	if err != nil {
		if pipeline.IsConfigError(err) {
			return configError(f, err)
		}
		if res == nil {
			return f.Fail(ExitFailure, ErrCodeGeneric, "decomposition failed", err)
		}
		// Cancelled runs still report what they found.
		f.VerboseLog("Run interrupted: %v", err)
	}

	var runID string
	if dbPath := v.GetString(keyDB); dbPath != "" {
		runID, err = saveRun(cmd, dbPath, q, res)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeStore, "cannot save run", err)
		}
		f.VerboseLog("Saved run %s to %s", runID, dbPath)
	}

	if f.JSON() {
		if err := f.Success(DecomposeOutput{RunID: runID, Result: res}); err != nil {
			return err
		}
	} else {
		writeSummary(f.Writer, res, f.Verbose)
		if runID != "" {
			fmt.Fprintf(f.Writer, "Run saved: %s\n", runID)
		}
	}

	if !res.HasValidPartition() {
		return WrapExitError(ExitFailure, fmt.Sprintf("[%s] %s", ErrCodeNoValidPartition, res.Query), pipeline.ErrNoValidPartition)
	}
	return nil
}

func saveRun(cmd *cobra.Command, dbPath string, q *ir.Query, res *pipeline.Result) (string, error) {
	st, err := store.Open(dbPath)
	if err != nil {
		return "", err
	}
	defer st.Close()
	return st.SaveRun(cmd.Context(), q, res)
}

// writeSummary prints the human-readable decomposition report.
func writeSummary(w io.Writer, res *pipeline.Result, verbose bool) {
	fmt.Fprintf(w, "Query: %s (%d edges, %d vertices, free: %s)\n",
		res.Query, len(res.Edges), res.VertexCount, freeList(res.FreeVariables))
	fmt.Fprintf(w, "Partitions: %d generated, %d filtered, %d valid\n",
		res.Counts.Total, res.Counts.Filtered, res.Counts.Valid)

	if res.FinalExpression != nil {
		fe := res.FinalExpression
		fmt.Fprintf(w, "Final expression: %s [%s -> %s] diameter %d\n",
			fe.Expr, fe.Source, fe.Target, fe.Diameter())
		if fe.Source != fe.Target {
			fmt.Fprintf(w, "  reverse: %s [%s -> %s]\n", cpq.Reverse(fe.Expr), fe.Target, fe.Source)
		}
	} else {
		fmt.Fprintln(w, "Final expression: none")
	}
	fmt.Fprintf(w, "Catalogue: %d rules, %d whole-query rules\n", len(res.Catalogue), len(res.GlobalCatalogue))
	fmt.Fprintf(w, "Cache: %d hits, %d misses\n", res.Cache.Hits, res.Cache.Misses)
	if res.TerminationReason != "" {
		fmt.Fprintf(w, "Terminated: %s\n", res.TerminationReason)
	}

	if len(res.Diagnostics) > 0 {
		fmt.Fprintf(w, "Diagnostics: %d\n", len(res.Diagnostics))
		if verbose {
			for _, d := range res.Diagnostics {
				fmt.Fprintf(w, "  %s\n", d)
			}
		}
	}

	if verbose {
		for _, ev := range res.Evaluations {
			status := "invalid"
			if ev.Valid {
				status = "valid"
			}
			fmt.Fprintf(w, "Partition %d (%s): %s rules %v\n", ev.Index, status, ev.Partition.Signature(res.Edges), ev.RuleCounts)
			for i, tuple := range ev.Tuples {
				fmt.Fprintf(w, "  tuple %d:", i+1)
				for _, r := range tuple {
					fmt.Fprintf(w, " %s", r.Expr)
				}
				fmt.Fprintln(w)
			}
		}
		fmt.Fprintf(w, "Elapsed: %s\n", res.Elapsed)
	}
}

func freeList(vs []ir.VertexID) string {
	if len(vs) == 0 {
		return "none"
	}
	return ir.JoinVertices(vs)
}
