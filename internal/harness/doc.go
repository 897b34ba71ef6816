// Package harness runs YAML conformance scenarios against the resolution
// engine.
//
// A scenario declares in-memory documents, an optional file tree written to a
// temporary directory, an optional base value, and a list of steps:
//
//	load_base        install the base value and follow it
//	load_resources   walk the file tree and queue every file
//	follow           follow and queue an address
//	resolve          resolve an address to its JSON value
//	fetch            fetch a document through the rewriter chain
//	process          drain the build queue
//
// Each step may expect an address, a value, or an error code. After the steps
// run, assertions check the identifier and reference indexes, the build
// queue, builder calls and transport fetch counts.
//
// Golden files under testdata/golden hold the canonical JSON outcome of a
// scenario: step records, builder calls, cached documents, bindings and the
// built and unbuilt sets. The temporary directory URI is written as {{dir}}.
// Regenerate them with:
//
//	go test ./internal/harness -update
package harness
