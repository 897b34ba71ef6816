package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/schemastore/internal/store"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Database string
	Digest   string
}

// SessionList is the output of show without a session argument.
type SessionList struct {
	Sessions []store.SessionSummary `json:"sessions"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show [session]",
		Short: "Show stored session snapshots",
		Long: `Read session snapshots written by "schemastore process --db".

Without a session id, lists every stored session. With --digest, lists the
sessions that cached a document with that content digest.

Examples:
  schemastore show --db ./schemastore.db
  schemastore show --db ./schemastore.db 0192f3c4-...
  schemastore show --db ./schemastore.db --digest 9f2c...`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			session := ""
			if len(args) == 1 {
				session = args[0]
			}
			return runShow(opts, session, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default $"+EnvDB+")")
	cmd.Flags().StringVar(&opts.Digest, "digest", "", "list sessions that cached a document with this digest")

	return cmd
}

func runShow(opts *ShowOptions, session string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

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
	if dbPath == "" {
		_ = formatter.Error(ErrCodeNotFound, "no database: pass --db or set "+EnvDB, nil)
		return NewExitError(ExitCommandError, "no database")
	}

	st, err := store.Open(dbPath)
	if err != nil {
		_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	switch {
	case session != "":
		return showSession(ctx, formatter, st, session)
	case opts.Digest != "":
		ids, err := st.SessionsWithDocument(ctx, opts.Digest)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to query sessions", err)
		}
		if formatter.Format == "json" {
			return formatter.Success(ids)
		}
		for _, id := range ids {
			fmt.Fprintln(formatter.Writer, id)
		}
		return nil
	default:
		sessions, err := st.ListSessions(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list sessions", err)
		}
		if formatter.Format == "json" {
			return formatter.Success(SessionList{Sessions: sessions})
		}
		if len(sessions) == 0 {
			fmt.Fprintln(formatter.Writer, "No sessions stored")
			return nil
		}
		for _, s := range sessions {
			fmt.Fprintf(formatter.Writer, "%s  %d document(s), %d built, %d unbuilt\n",
				s.ID, s.Documents, s.Built, s.Unbuilt)
		}
		return nil
	}
}

func showSession(ctx context.Context, formatter *OutputFormatter, st *store.Store, session string) error {
	snap, err := st.ReadSnapshot(ctx, session)
	if errors.Is(err, store.ErrSessionNotFound) {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("session not found: %s", session), nil)
		return NewExitError(ExitFailure, "session not found")
	}
	if err != nil {
		_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read snapshot", err)
	}

	formatter.Session = snap.Session
	if formatter.Format == "json" {
		return formatter.Success(snap)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Session: %s\n\n", snap.Session)

	fmt.Fprintf(w, "Documents (%d):\n", len(snap.Documents))
	for _, d := range snap.Documents {
		fmt.Fprintf(w, "  %s  %s\n", d.Digest, displayURI(d.URI))
	}
	fmt.Fprintln(w)

	if len(snap.Identifiers) > 0 {
		fmt.Fprintf(w, "Identifiers (%d):\n", len(snap.Identifiers))
		for _, b := range snap.Identifiers {
			fmt.Fprintf(w, "  %s → %s\n", b.From, displayURI(b.To))
		}
		fmt.Fprintln(w)
	}

	if len(snap.References) > 0 {
		fmt.Fprintf(w, "References (%d):\n", len(snap.References))
		for _, b := range snap.References {
			fmt.Fprintf(w, "  %s → %s\n", displayURI(b.From), displayURI(b.To))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Built (%d):\n", len(snap.Built))
	for _, b := range snap.Built {
		fmt.Fprintf(w, "  [seq=%d] %s\n", b.Seq, displayURI(b.Address))
	}

	if len(snap.Unbuilt) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Unbuilt (%d):\n", len(snap.Unbuilt))
		for _, addr := range snap.Unbuilt {
			fmt.Fprintf(w, "  %s\n", displayURI(addr))
		}
	}
	return nil
}

// displayURI renders the base document, whose URI is empty, readably.
func displayURI(uri string) string {
	if uri == "" {
		return "(base)"
	}
	if uri[0] == '#' {
		return "(base)" + uri
	}
	return uri
}
