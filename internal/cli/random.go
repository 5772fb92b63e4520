package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/cqdecomp/internal/compiler"
	"github.com/roach88/cqdecomp/internal/querygen"
)

// RandomOptions holds flags for the random command.
type RandomOptions struct {
	*RootOptions
	Config querygen.Config
	Output string
}

// NewRandomCommand creates the random command.
func NewRandomCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RandomOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "random",
		Short: "Generate a random connected query",
		Long: `Generate a random connected conjunctive query and print it as YAML.

The same flags always produce the same query, so generated files can be
regenerated instead of committed.

Examples:
  cqdecomp random --edges 6 --free 2 --labels 3 --seed 7
  cqdecomp random --edges 8 --seed 1 -o q8.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRandom(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Config.Edges, "edges", 4, "number of edges")
	cmd.Flags().IntVar(&opts.Config.Free, "free", 1, "number of free variables")
	cmd.Flags().IntVar(&opts.Config.Labels, "labels", 2, "number of distinct labels")
	cmd.Flags().Int64Var(&opts.Config.Seed, "seed", 0, "random seed")
	cmd.Flags().StringVar(&opts.Config.Name, "name", "", "query name (derived from the flags if empty)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the YAML to this file instead of stdout")

	return cmd
}

func runRandom(opts *RandomOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	q, err := querygen.Generate(opts.Config, newLogger(opts.RootOptions, f.GetErrWriter()))
	if err != nil {
		return configError(f, err)
	}

	data, err := compiler.MarshalYAML(q)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeGeneric, "cannot encode query", err)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, data, 0o644); err != nil {
			return f.Fail(ExitCommandError, ErrCodeGeneric, "cannot write query", err)
		}
		f.VerboseLog("Wrote %s (%d edges) to %s", q.Name, len(q.Edges), opts.Output)
	}

	if f.JSON() {
		return f.Success(compiler.FromQuery(q))
	}
	if opts.Output == "" {
		_, err = f.Writer.Write(data)
		return err
	}
	fmt.Fprintf(f.Writer, "Wrote %s to %s\n", q.Name, opts.Output)
	return nil
}
