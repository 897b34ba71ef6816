package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/schemastore/internal/document"
	"github.com/roach88/schemastore/internal/engine"
	"github.com/roach88/schemastore/internal/ir"
)

// LoadResult describes a path loaded into a fresh engine.
type LoadResult struct {
	Engine *engine.Engine

	// Base is the URI that relative address arguments resolve against: the
	// file URI of a single file, or the directory URI with a trailing slash.
	Base string

	// Roots are the addresses queued by loading, in queue order.
	Roots []ir.Address
}

// LoadError reports a problem with the command's input path.
type LoadError struct {
	Code    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// newLogger returns the logger handed to the engine. Engine logs go to w so
// they never mix with command output.
func newLogger(opts *RootOptions, w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// newFetcher returns the transport for every supported scheme. s3:// is
// only available when an S3 endpoint is configured.
func newFetcher(cfg Config) (document.Fetcher, error) {
	fetcher := document.DefaultFetcher()
	if cfg.S3 != nil {
		s3, err := document.NewS3Fetcher(*cfg.S3)
		if err != nil {
			return nil, err
		}
		fetcher["s3"] = s3
	}
	return fetcher, nil
}

// newEngine builds an engine from the global options. Environment rewrite
// rules run before --rewrite rules.
func newEngine(opts *RootOptions, b engine.Builder, logger *slog.Logger, extra ...engine.Option) (*engine.Engine, error) {
	rules := append(append([]string{}, opts.Config.Rewrites...), opts.Rewrites...)
	rewriters, err := document.ParseRewrites(rules)
	if err != nil {
		return nil, err
	}
	fetcher, err := newFetcher(opts.Config)
	if err != nil {
		return nil, err
	}

	engineOpts := []engine.Option{
		engine.WithFetcher(fetcher),
		engine.WithRewriters(rewriters...),
		engine.WithLogger(logger),
		engine.WithStrictIdentifiers(opts.StrictIDs),
	}
	return engine.New(b, append(engineOpts, extra...)...), nil
}

// LoadInput creates an engine and loads path into it. A directory is loaded
// with LoadResources; a single file is queued on its own, and its references
// pull in whatever else it needs.
func LoadInput(ctx context.Context, opts *RootOptions, path string, b engine.Builder, logger *slog.Logger, extra ...engine.Option) (*LoadResult, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("path not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing path: %v", err)}
	}

	eng, err := newEngine(opts, b, logger, extra...)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
	}

	uri, err := ir.FileURI(path)
	if err != nil {
		return nil, err
	}
	result := &LoadResult{Engine: eng, Base: uri}

	if info.IsDir() {
		if !strings.HasSuffix(result.Base, "/") {
			result.Base += "/"
		}
		if err := eng.LoadResources(ctx, path); err != nil {
			return nil, err
		}
		result.Roots = eng.Unbuilt()
		return result, nil
	}

	root, err := eng.FollowAndQueue(ctx, ir.Address{Document: uri})
	if err != nil {
		return nil, err
	}
	result.Roots = []ir.Address{root}
	return result, nil
}

// outputLoadError reports an error from LoadInput.
func outputLoadError(formatter *OutputFormatter, err error) error {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		_ = formatter.Error(loadErr.Code, loadErr.Message, nil)
		return WrapExitError(ExitCommandError, loadErr.Message, nil)
	}
	return outputEngineError(formatter, "load failed", err)
}

// commandContext returns the command's context, cancelled on SIGINT or
// SIGTERM so a long Process stops between builds.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	// Use command's context if available (for testing), otherwise create one
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
