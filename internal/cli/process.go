package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/schemastore/internal/engine"
	"github.com/roach88/schemastore/internal/ir"
	"github.com/roach88/schemastore/internal/schema"
	"github.com/roach88/schemastore/internal/store"
)

// ProcessOptions holds flags for the process command.
type ProcessOptions struct {
	*RootOptions
	Database  string
	MaxBuilds int

	// SessionGenerator allows overriding the session id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	SessionGenerator engine.SessionGenerator
}

// ProcessResult is the output of the process command.
type ProcessResult struct {
	Session  string                   `json:"session"`
	Built    []string                 `json:"built"`
	Unbuilt  []string                 `json:"unbuilt"`
	Problems []schema.ValidationError `json:"problems"`
	Database string                   `json:"database,omitempty"`
}

// NewProcessCommand creates the process command.
func NewProcessCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ProcessOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "process <path>",
		Short: "Compile every reachable schema",
		Long: `Load a schema file or directory and compile every schema reachable from
it, following $ref through identifiers and across documents.

Each compiled schema is checked for structural problems (unknown types,
duplicate required names, empty enums). With --db the session is stored as
a snapshot that "schemastore show" can read back.

Examples:
  schemastore process ./schemas
  schemastore process ./schemas/root.json --db ./schemastore.db
  SCHEMASTORE_DB=./schemastore.db schemastore process ./schemas`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database for the session snapshot (default $"+EnvDB+")")
	cmd.Flags().IntVar(&opts.MaxBuilds, "max-builds", engine.DefaultMaxBuilds, "maximum builds in one run (0 = unlimited)")

	return cmd
}

func runProcess(opts *ProcessOptions, path string, cmd *cobra.Command) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = opts.Config.DB
	}

	extra := []engine.Option{engine.WithMaxBuilds(opts.MaxBuilds)}
	if opts.SessionGenerator != nil {
		extra = append(extra, engine.WithSessionGenerator(opts.SessionGenerator))
	}

	loaded, err := LoadInput(ctx, opts.RootOptions, path, schema.Builder(), newLogger(opts.RootOptions, cmd.ErrOrStderr()), extra...)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	eng := loaded.Engine
	formatter.Session = eng.Session()
	formatter.VerboseLog("Session %s: %d root(s) queued", eng.Session(), len(loaded.Roots))

	if err := eng.Process(ctx); err != nil {
		return outputEngineError(formatter, "process failed", err)
	}

	snap, err := eng.Snapshot()
	if err != nil {
		return WrapExitError(ExitFailure, "failed to snapshot session", err)
	}

	result := &ProcessResult{
		Session:  snap.Session,
		Built:    make([]string, 0, len(snap.Built)),
		Unbuilt:  snap.Unbuilt,
		Problems: []schema.ValidationError{},
		Database: dbPath,
	}
	for _, b := range snap.Built {
		result.Built = append(result.Built, b.Address)
		addr, err := ir.ParseAddress(b.Address)
		if err != nil {
			return outputEngineError(formatter, "invalid built address", err)
		}
		built, _ := eng.Result(addr)
		if s, ok := built.(*schema.Schema); ok {
			result.Problems = append(result.Problems, schema.Validate(s)...)
		}
	}

	if dbPath != "" {
		if err := writeSnapshot(ctx, dbPath, snap); err != nil {
			_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to store snapshot", err)
		}
		formatter.VerboseLog("Stored session %s in %s", snap.Session, dbPath)
	}

	if formatter.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		outputProcessText(formatter, result)
	}

	if len(result.Problems) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%s: %d schema problem(s)", ErrCodeInvalid, len(result.Problems)))
	}
	return nil
}

func writeSnapshot(ctx context.Context, dbPath string, snap ir.Snapshot) error {
	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()
	return st.WriteSnapshot(ctx, snap)
}

func outputProcessText(formatter *OutputFormatter, result *ProcessResult) {
	w := formatter.Writer
	if len(result.Problems) == 0 {
		fmt.Fprintf(w, "✓ Built %d schema(s)\n", len(result.Built))
	} else {
		fmt.Fprintf(w, "✗ Built %d schema(s) with %d problem(s)\n", len(result.Built), len(result.Problems))
	}
	fmt.Fprintf(w, "Session: %s\n\n", result.Session)

	if formatter.Verbose {
		for _, addr := range result.Built {
			fmt.Fprintf(w, "  %s\n", addr)
		}
		fmt.Fprintln(w)
	}

	if len(result.Problems) > 0 {
		fmt.Fprintln(w, "Problems:")
		for _, p := range result.Problems {
			fmt.Fprintf(w, "  %s\n", p.Error())
		}
		fmt.Fprintln(w)
	}

	if result.Database != "" {
		fmt.Fprintf(w, "Wrote snapshot to %s\n", result.Database)
	}
}
