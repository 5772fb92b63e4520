package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/cqdecomp/internal/compiler"
	"github.com/roach88/cqdecomp/internal/ir"
	"github.com/roach88/cqdecomp/internal/pipeline"
	"github.com/roach88/cqdecomp/internal/querygen"
)

// ProfileOptions holds flags for the profile command.
type ProfileOptions struct {
	*RootOptions
	Random      int
	RandomEdges int
	RandomFree  int
}

// NewProfileCommand creates the profile command.
func NewProfileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ProfileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "profile [query-file...]",
		Short: "Decompose many queries and tabulate the cost",
		Long: `Decompose every query in the given files, plus optional random
queries, with the same options and print one row per query.

Examples:
  cqdecomp profile queries.cue square.yaml
  cqdecomp profile --random 20 --random-edges 6 --time-budget 1s
  cqdecomp profile queries.cue --workers 4 --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfile(opts, args, cmd)
		},
	}

	addPipelineFlags(cmd)
	cmd.Flags().IntVar(&opts.Random, "random", 0, "also profile this many random queries (seeds 1..n)")
	cmd.Flags().IntVar(&opts.RandomEdges, "random-edges", 5, "edges per random query")
	cmd.Flags().IntVar(&opts.RandomFree, "random-free", 1, "free variables per random query")

	return cmd
}

func runProfile(opts *ProfileOptions, paths []string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	v, err := opts.settings(cmd)
	if err != nil {
		return configError(f, err)
	}
	popts, err := pipelineOptions(v)
	if err != nil {
		return configError(f, err)
	}
	logger := newLogger(opts.RootOptions, f.GetErrWriter())

	var queries []*ir.Query
	for _, path := range paths {
		qs, err := compiler.LoadFile(path)
		if err != nil {
			return queryError(f, path, err)
		}
		f.VerboseLog("Loaded %d query(ies) from %s", len(qs), path)
		queries = append(queries, qs...)
	}
	for seed := 1; seed <= opts.Random; seed++ {
		q, err := querygen.Generate(querygen.Config{
			Edges:  opts.RandomEdges,
			Free:   opts.RandomFree,
			Labels: max(1, opts.RandomEdges/2),
			Seed:   int64(seed),
		}, logger)
		if err != nil {
			return configError(f, err)
		}
		queries = append(queries, q)
	}
	if len(queries) == 0 {
		return f.Fail(ExitCommandError, ErrCodeConfig, "nothing to profile: give query files or --random", nil)
	}

	profile, err := pipeline.ProfileQueries(cmd.Context(), queries, popts, pipeline.WithLogger(logger))
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeGeneric, "profiling stopped", err)
	}

	if f.JSON() {
		return f.Success(profile)
	}

	tw := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "QUERY\tEDGES\tPARTITIONS\tFILTERED\tVALID\tCATALOGUE\tFINAL\tHIT RATE\tELAPSED\tSTOPPED")
	for _, e := range profile.Entries {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%t\t%.2f\t%s\t%s\n",
			e.Query, e.Edges, e.Counts.Total, e.Counts.Filtered, e.Counts.Valid,
			e.Catalogue, e.HasFinal, e.Cache.HitRate(), e.Elapsed, e.TerminationReason)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(f.Writer, "\n%d/%d queries decomposed in %s (cache hit rate %.2f)\n",
		profile.Valid, len(profile.Entries), profile.Elapsed, profile.Cache.HitRate())
	return nil
}
