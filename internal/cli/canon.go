package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/cqdecomp/internal/cpq"
	"github.com/roach88/cqdecomp/internal/ir"
)

// CanonOutput is the JSON payload of the canon command.
type CanonOutput struct {
	Input     string         `json:"input"`
	Canonical string         `json:"canonical"`
	Reverse   string         `json:"reverse"`
	Diameter  int            `json:"diameter"`
	Loop      bool           `json:"loop"`
	Labels    []ir.Predicate `json:"labels"`
	Shape     cpq.Shape      `json:"shape"`
}

// NewCanonCommand creates the canon command.
func NewCanonCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "canon <expr>",
		Short: "Print the canonical form of a CPQ expression",
		Long: `Parse a CPQ expression and print its canonical form, its reverse,
its diameter and whether it denotes a loop.

Both notations are accepted: "(a ◦ b⁻)" and "(a . b^-)", "(a ∩ id)" and
"(a & id)".

Examples:
  cqdecomp canon "(b & a)"
  cqdecomp canon "((r1 . r2) & r5)" --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCanon(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runCanon(opts *RootOptions, input string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	e, err := cpq.Parse(input)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeExpression, "cannot parse expression", err)
	}
	if err := cpq.Validate(e); err != nil {
		return f.Fail(ExitFailure, ErrCodeExpression, "malformed expression", err)
	}

	canonical := cpq.Canonicalize(e)
	shape := cpq.Expand(canonical)
	out := CanonOutput{
		Input:     e.String(),
		Canonical: canonical.String(),
		Reverse:   cpq.Reverse(canonical).String(),
		Diameter:  cpq.Diameter(canonical),
		Loop:      shape.IsLoop(),
		Labels:    cpq.Labels(canonical),
		Shape:     shape,
	}

	if f.JSON() {
		return f.Success(out)
	}

	fmt.Fprintf(f.Writer, "input:     %s\n", out.Input)
	fmt.Fprintf(f.Writer, "canonical: %s\n", out.Canonical)
	fmt.Fprintf(f.Writer, "reverse:   %s\n", out.Reverse)
	fmt.Fprintf(f.Writer, "diameter:  %d\n", out.Diameter)
	fmt.Fprintf(f.Writer, "loop:      %t\n", out.Loop)
	if f.Verbose {
		fmt.Fprintf(f.Writer, "shape:     %d vertices, source %d, target %d\n", shape.Vertices, shape.Source, shape.Target)
		for _, se := range shape.Edges {
			fmt.Fprintf(f.Writer, "  %d --%s--> %d\n", se.Source, se.Label, se.Target)
		}
	}
	return nil
}
