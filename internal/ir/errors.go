package ir

import (
	"errors"
	"fmt"
	"strings"
)

// Error is the structured error returned by every schemastore operation.
//
// Error kinds:
//   - Fetch: transport or IO failure reaching a URI
//   - Content: fetched text is not a JSON object or array
//   - Pointer: a JSON Pointer fragment does not resolve
//   - URI: malformed or unresolvable URI
//   - Cycle: a $ref chain revisits an address
//   - DuplicateIdentifier: strict mode saw an $id declared twice
//   - Quota: a Process call exceeded its build budget
//   - Build: the external builder failed
//
// None of these are retried. They propagate to the caller of the operation
// that triggered them.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// URI is the document or reference URI involved, when known.
	URI string

	// Pointer is the JSON Pointer involved (Pointer errors).
	Pointer string

	// Chain lists the addresses visited before a cycle was detected.
	Chain []Address

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes errors.
type ErrorCode string

const (
	// ErrCodeFetch indicates the document content could not be retrieved.
	ErrCodeFetch ErrorCode = "FETCH_FAILED"

	// ErrCodeContent indicates the document is not a JSON object or array.
	ErrCodeContent ErrorCode = "INVALID_CONTENT"

	// ErrCodePointer indicates a JSON Pointer did not resolve.
	ErrCodePointer ErrorCode = "POINTER_UNRESOLVED"

	// ErrCodeURI indicates a malformed URI.
	ErrCodeURI ErrorCode = "INVALID_URI"

	// ErrCodeCycle indicates a $ref chain loops back on itself.
	ErrCodeCycle ErrorCode = "REFERENCE_CYCLE"

	// ErrCodeDuplicateIdentifier indicates an $id declared at two addresses.
	ErrCodeDuplicateIdentifier ErrorCode = "DUPLICATE_IDENTIFIER"

	// ErrCodeQuota indicates Process exceeded its maximum number of builds.
	ErrCodeQuota ErrorCode = "QUOTA_EXCEEDED"

	// ErrCodeBuild indicates the builder failed for an address.
	ErrCodeBuild ErrorCode = "BUILD_FAILED"
)

var errNotFileURI = errors.New("not a file URI")

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Message)
	switch {
	case e.URI != "" && e.Pointer != "":
		fmt.Fprintf(&b, " (uri=%s, pointer=%s)", e.URI, e.Pointer)
	case e.URI != "":
		fmt.Fprintf(&b, " (uri=%s)", e.URI)
	case e.Pointer != "":
		fmt.Fprintf(&b, " (pointer=%s)", e.Pointer)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewFetchError creates an Error for a transport failure.
func NewFetchError(uri string, err error) *Error {
	return &Error{Code: ErrCodeFetch, Message: "error fetching document", URI: uri, Err: err}
}

// NewContentError creates an Error for a document that is not an object or array.
func NewContentError(uri, message string, err error) *Error {
	return &Error{Code: ErrCodeContent, Message: message, URI: uri, Err: err}
}

// NewPointerError creates an Error for an unresolvable JSON Pointer.
func NewPointerError(uri, pointer, message string) *Error {
	return &Error{Code: ErrCodePointer, Message: message, URI: uri, Pointer: pointer}
}

// NewURIError creates an Error for a malformed URI.
func NewURIError(uri string, err error) *Error {
	return &Error{Code: ErrCodeURI, Message: "invalid URI", URI: uri, Err: err}
}

// NewCycleError creates an Error for a $ref chain that revisits an address.
// The chain is copied.
func NewCycleError(chain []Address) *Error {
	parts := make([]string, len(chain))
	for i, a := range chain {
		parts[i] = a.String()
	}
	return &Error{
		Code:    ErrCodeCycle,
		Message: "reference cycle: " + strings.Join(parts, " -> "),
		Chain:   append([]Address(nil), chain...),
	}
}

// NewDuplicateIdentifierError creates an Error for an $id bound twice.
func NewDuplicateIdentifierError(id string, first, second Address) *Error {
	return &Error{
		Code:    ErrCodeDuplicateIdentifier,
		Message: fmt.Sprintf("identifier declared at %q and %q", first.String(), second.String()),
		URI:     id,
	}
}

// NewQuotaError creates an Error for a Process call exceeding maxBuilds.
func NewQuotaError(builds, maxBuilds int) *Error {
	return &Error{
		Code:    ErrCodeQuota,
		Message: fmt.Sprintf("process exceeded max builds (%d >= %d)", builds, maxBuilds),
	}
}

// NewBuildError wraps a builder failure for addr.
func NewBuildError(addr Address, err error) *Error {
	return &Error{Code: ErrCodeBuild, Message: "builder failed", URI: addr.String(), Err: err}
}

// CodeOf returns the code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// hasCode reports whether any *Error in err's chain carries code. Build errors
// wrap the builder's cause, so the chain is walked past the first match.
func hasCode(err error, code ErrorCode) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Err
	}
	return false
}

// IsFetchError reports whether err is (or wraps) a fetch error.
func IsFetchError(err error) bool { return hasCode(err, ErrCodeFetch) }

// IsContentError reports whether err is (or wraps) a content error.
func IsContentError(err error) bool { return hasCode(err, ErrCodeContent) }

// IsPointerError reports whether err is (or wraps) a pointer error.
func IsPointerError(err error) bool { return hasCode(err, ErrCodePointer) }

// IsURIError reports whether err is (or wraps) a URI error.
func IsURIError(err error) bool { return hasCode(err, ErrCodeURI) }

// IsCycleError reports whether err is (or wraps) a reference cycle error.
func IsCycleError(err error) bool { return hasCode(err, ErrCodeCycle) }

// IsDuplicateIdentifierError reports whether err is (or wraps) a duplicate $id error.
func IsDuplicateIdentifierError(err error) bool {
	return hasCode(err, ErrCodeDuplicateIdentifier)
}

// IsQuotaError reports whether err is (or wraps) a quota error.
func IsQuotaError(err error) bool { return hasCode(err, ErrCodeQuota) }

// IsBuildError reports whether err is (or wraps) a builder failure.
func IsBuildError(err error) bool { return hasCode(err, ErrCodeBuild) }
