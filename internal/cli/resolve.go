package cli

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/roach88/schemastore/internal/ir"
)

// ResolveOptions holds flags for the resolve command.
type ResolveOptions struct {
	*RootOptions
}

// ResolveResult is the output of the resolve command.
type ResolveResult struct {
	Address  string `json:"address"`  // address as requested, made absolute
	Physical string `json:"physical"` // address after identifier translation
	Queued   string `json:"queued"`   // address FollowAndQueue lands on
	Value    any    `json:"value"`
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResolveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "resolve <path> [address]",
		Short: "Resolve an address to its JSON value",
		Long: `Load a schema file or directory and print the value at an address.

The address may be absolute (http://example.com/root#/definitions/a) or a
reference relative to <path> (#/definitions/a, other.json#/items). Without an
address the document at <path> is printed.

Examples:
  schemastore resolve ./schemas/root.json '#/definitions/a'
  schemastore resolve ./schemas 'http://example.com/root#/properties/name'
  schemastore resolve --rewrite http://example.com/=file:///srv/schemas/ ./root.json`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := ""
			if len(args) == 2 {
				ref = args[1]
			}
			return runResolve(opts, args[0], ref, cmd)
		},
	}

	return cmd
}

func runResolve(opts *ResolveOptions, path, ref string, cmd *cobra.Command) error {
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

	if ref == "" && strings.HasSuffix(loaded.Base, "/") {
		_ = formatter.Error(ErrCodeGeneric, "an address is required when <path> is a directory", nil)
		return NewExitError(ExitCommandError, "missing address")
	}

	addr, err := ir.ResolveReference(loaded.Base, ref)
	if err != nil {
		return outputEngineError(formatter, "invalid address", err)
	}
	formatter.VerboseLog("Resolving %s", addr)

	value, err := eng.Resolve(ctx, addr)
	if err != nil {
		return outputEngineError(formatter, "resolve failed", err)
	}
	queued, err := eng.FollowAndQueue(ctx, addr)
	if err != nil {
		return outputEngineError(formatter, "follow failed", err)
	}

	result := &ResolveResult{
		Address:  addr.String(),
		Physical: eng.Physical(addr).String(),
		Queued:   queued.String(),
		Value:    value,
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	out, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return WrapExitError(ExitFailure, "failed to render value", err)
	}
	fmt.Fprintf(formatter.Writer, "%s\n", result.Address)
	if result.Physical != result.Address {
		fmt.Fprintf(formatter.Writer, "  physical: %s\n", result.Physical)
	}
	if result.Queued != result.Physical {
		fmt.Fprintf(formatter.Writer, "  follows to: %s\n", result.Queued)
	}
	fmt.Fprintln(formatter.Writer, string(out))
	return nil
}
