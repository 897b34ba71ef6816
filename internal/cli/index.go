package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/schemastore/internal/index"
	"github.com/roach88/schemastore/internal/ir"
)

// IndexOptions holds flags for the index command.
type IndexOptions struct {
	*RootOptions
	FailOnCycle bool
}

// IndexResult is the output of the index command.
type IndexResult struct {
	Documents   []string             `json:"documents"`
	Identifiers []ir.BindingEntry    `json:"identifiers"`
	References  []ir.BindingEntry    `json:"references"`
	Queued      []string             `json:"queued"`
	Cycles      []index.CycleWarning `json:"cycles"`
}

// NewIndexCommand creates the index command.
func NewIndexCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IndexOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "index <path>",
		Short: "List identifiers, references, and reference cycles",
		Long: `Load a schema file or directory and print the identifier and reference
indexes built while scanning it.

Loops made only of $ref nodes are reported as cycle warnings. Following any
address on such a loop fails, so --fail-on-cycle turns them into errors.

Examples:
  schemastore index ./schemas
  schemastore index ./schemas/root.json --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.FailOnCycle, "fail-on-cycle", false, "exit 1 when a reference cycle is found")

	return cmd
}

func runIndex(opts *IndexOptions, path string, cmd *cobra.Command) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	loaded, err := LoadInput(ctx, opts.RootOptions, path, nil, newLogger(opts.RootOptions, cmd.ErrOrStderr()))
	if err != nil {
		return outputLoadError(formatter, err)
	}
	eng := loaded.Engine
	formatter.Session = eng.Session()

	snap, err := eng.Snapshot()
	if err != nil {
		return WrapExitError(ExitFailure, "failed to snapshot session", err)
	}

	result := &IndexResult{
		Documents:   make([]string, 0, len(snap.Documents)),
		Identifiers: snap.Identifiers,
		References:  snap.References,
		Queued:      snap.Unbuilt,
		Cycles:      index.AnalyzeCycles(eng.Identifiers(), eng.References()),
	}
	for _, doc := range snap.Documents {
		result.Documents = append(result.Documents, doc.URI)
	}

	if formatter.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		outputIndexText(formatter, result)
	}

	if opts.FailOnCycle && len(result.Cycles) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("found %d reference cycle(s)", len(result.Cycles)))
	}
	return nil
}

func outputIndexText(formatter *OutputFormatter, result *IndexResult) {
	w := formatter.Writer
	fmt.Fprintf(w, "✓ Indexed %d document(s): %d identifier(s), %d reference(s)\n\n",
		len(result.Documents), len(result.Identifiers), len(result.References))

	if len(result.Identifiers) > 0 {
		fmt.Fprintln(w, "Identifiers:")
		for _, b := range result.Identifiers {
			fmt.Fprintf(w, "  %s → %s\n", b.From, b.To)
		}
		fmt.Fprintln(w)
	}

	if len(result.References) > 0 {
		fmt.Fprintln(w, "References:")
		for _, b := range result.References {
			fmt.Fprintf(w, "  %s → %s\n", b.From, b.To)
		}
		fmt.Fprintln(w)
	}

	if len(result.Cycles) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, c := range result.Cycles {
			fmt.Fprintf(w, "  ⚠ %s\n", c.Message)
		}
		fmt.Fprintln(w)
	}
}
