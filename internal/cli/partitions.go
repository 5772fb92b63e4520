package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/cqdecomp/internal/ir"
	"github.com/roach88/cqdecomp/internal/partition"
	"github.com/roach88/cqdecomp/internal/pipeline"
)

// PartitionsOptions holds flags for the partitions command.
type PartitionsOptions struct {
	*RootOptions
	Query         string
	Filtered      bool
	MaxPartitions int
}

// PartitionsOutput is the JSON payload of the partitions command.
type PartitionsOutput struct {
	Query       string               `json:"query"`
	Total       int                  `json:"total"`
	Truncated   bool                 `json:"truncated"`
	Partitions  []ir.Partition       `json:"partitions,omitempty"`
	Filtered    []partition.Filtered `json:"filtered,omitempty"`
	Diagnostics []ir.Diagnostic      `json:"diagnostics,omitempty"`
}

// NewPartitionsCommand creates the partitions command.
func NewPartitionsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PartitionsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "partitions <query-file>",
		Short: "List the connected edge partitions of a query",
		Long: `List every partition of a query's edges into connected components.

With --filtered only partitions whose components need at most two join
nodes are listed, together with each component's join nodes; the rejected
partitions are reported as diagnostics in verbose mode.

Examples:
  cqdecomp partitions square.yaml
  cqdecomp partitions square.yaml --filtered -v
  cqdecomp partitions big.yaml --max-partitions 100 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPartitions(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Query, "query", "", "query name when the file holds several")
	cmd.Flags().BoolVar(&opts.Filtered, "filtered", false, "apply the join-node filter")
	cmd.Flags().IntVar(&opts.MaxPartitions, "max-partitions", pipeline.DefaultMaxPartitions, "stop generating after this many partitions (0 = unbounded)")

	return cmd
}

func runPartitions(opts *PartitionsOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	if opts.MaxPartitions < 0 {
		return configError(f, fmt.Errorf("max-partitions must be non-negative, got %d", opts.MaxPartitions))
	}

	q, err := loadQuery(f, path, opts.Query)
	if err != nil {
		return err
	}

	logger := newLogger(opts.RootOptions, f.GetErrWriter())
	gen := partition.NewGenerator(
		partition.WithMaxPartitions(opts.MaxPartitions),
		partition.WithLogger(logger),
	)
	generated := gen.Generate(q.Edges)

	out := PartitionsOutput{
		Query:     q.Name,
		Total:     len(generated.Partitions),
		Truncated: generated.Truncated,
	}
	if opts.Filtered {
		out.Filtered, out.Diagnostics = partition.Filter(generated.Partitions, q.FreeVariables, q.Edges, logger)
	} else {
		out.Partitions = generated.Partitions
	}

	if f.JSON() {
		return f.Success(out)
	}
	writePartitions(f, out)
	return nil
}

func writePartitions(f *OutputFormatter, out PartitionsOutput) {
	w := f.Writer
	if out.Truncated {
		fmt.Fprintf(w, "%s: %d partitions (truncated)\n", out.Query, out.Total)
	} else {
		fmt.Fprintf(w, "%s: %d partitions\n", out.Query, out.Total)
	}

	for i, p := range out.Partitions {
		fmt.Fprintf(w, "%3d. %s\n", i+1, componentSets(p))
	}

	if out.Partitions == nil {
		fmt.Fprintf(w, "%d pass the join-node filter\n", len(out.Filtered))
		for _, fp := range out.Filtered {
			joins := make([]string, len(fp.Joins.Components))
			for i, js := range fp.Joins.Components {
				joins[i] = "[" + ir.JoinVertices(js) + "]"
			}
			fmt.Fprintf(w, "%3d. %s  joins %s\n", fp.Index, componentSets(fp.Partition), strings.Join(joins, " "))
		}
		if f.Verbose {
			for _, d := range out.Diagnostics {
				fmt.Fprintf(w, "  rejected %s\n", d)
			}
		}
	}
}

// componentSets renders a partition as its component edge sets.
func componentSets(p ir.Partition) string {
	parts := make([]string, len(p.Components))
	for i, c := range p.Components {
		parts[i] = c.Edges.String()
	}
	return strings.Join(parts, " | ")
}
