package cli

import (
	"errors"
	"fmt"
	"io"

	json "github.com/goccy/go-json"

	"github.com/roach88/schemastore/internal/ir"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Resolution or validation failure (pointer, cycle, build errors, schema problems)
	ExitCommandError = 2 // Command error (invalid paths, unreachable documents, database not found, etc.)
)

// CLI error codes for failures that carry no ir.ErrorCode.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeNotFound    = "E005" // Path or session not found
	ErrCodeStoreFailed = "E008" // Snapshot store error
	ErrCodeInvalid     = "E200" // Built schemas failed validation
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
	Session   string // copied into JSON responses when set
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status  string    `json:"status"`            // "ok" or "error"
	Data    any       `json:"data,omitempty"`    // success payload
	Error   *CLIError `json:"error,omitempty"`   // error details
	Session string    `json:"session,omitempty"` // resolution session id, when one was created
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "POINTER_UNRESOLVED", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status:  "ok",
			Data:    data,
			Session: f.Session,
		})
	}

	// Human-readable text output
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
			Session: f.Session,
		})
	}

	// Human-readable error
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// ErrorCode returns the code reported for err: its ir.ErrorCode when it
// carries one, otherwise ErrCodeGeneric.
func ErrorCode(err error) string {
	if code := ir.CodeOf(err); code != "" {
		return string(code)
	}
	return ErrCodeGeneric
}

// ExitCodeFor maps an engine error to an exit code. Unreachable inputs are
// command errors; everything else found inside the documents is a failure.
func ExitCodeFor(err error) int {
	if ir.IsFetchError(err) || ir.IsURIError(err) {
		return ExitCommandError
	}
	return ExitFailure
}

// ErrorDetails returns structured context for an ir.Error, or nil.
func ErrorDetails(err error) any {
	var irErr *ir.Error
	if !errors.As(err, &irErr) {
		return nil
	}
	details := map[string]any{}
	if irErr.URI != "" {
		details["uri"] = irErr.URI
	}
	if irErr.Pointer != "" {
		details["pointer"] = irErr.Pointer
	}
	if len(irErr.Chain) > 0 {
		chain := make([]string, len(irErr.Chain))
		for i, a := range irErr.Chain {
			chain[i] = a.String()
		}
		details["chain"] = chain
	}
	if len(details) == 0 {
		return nil
	}
	return details
}

// outputEngineError reports err through formatter and returns the matching
// ExitError.
func outputEngineError(formatter *OutputFormatter, message string, err error) error {
	_ = formatter.Error(ErrorCode(err), err.Error(), ErrorDetails(err))
	return WrapExitError(ExitCodeFor(err), message, err)
}
