package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose   bool
	Format    string   // "json" | "text"
	Rewrites  []string // from=to rules, applied after Config.Rewrites
	StrictIDs bool

	// Config holds environment defaults. Populated by the root command
	// before any subcommand runs.
	Config Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the schemastore CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "schemastore",
		Short: "Resolve $id and $ref across JSON schema documents",
		Long: `schemastore loads linked JSON, YAML, or CUE schema documents, resolves
every $id and $ref into a canonical address, and compiles each reachable
schema exactly once.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			opts.Config = LoadConfig()
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringArrayVar(&opts.Rewrites, "rewrite", nil, "rewrite URI prefix, as from=to (repeatable)")
	cmd.PersistentFlags().BoolVar(&opts.StrictIDs, "strict-ids", false, "fail when an $id is declared at two addresses")

	// Add subcommands
	cmd.AddCommand(NewResolveCommand(opts))
	cmd.AddCommand(NewIndexCommand(opts))
	cmd.AddCommand(NewProcessCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
