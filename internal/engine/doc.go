// Package engine resolves $id and $ref indirection across a set of lazily
// fetched JSON documents and drives a builder over every concrete address
// that needs compiling.
//
// An Engine owns one resolution session: the document cache, the identifier
// and reference indexes, the build queue, and the logical clock that orders
// builds. Nothing is shared between engines, so independent sessions need
// independent engines.
//
// ARCHITECTURE:
//
// Loading:
//  1. LoadBaseObject installs a caller-supplied document under the base
//     address; LoadResources walks a directory of files.
//  2. Every newly cached document is scanned exactly once, populating the
//     identifier and reference indexes.
//  3. FollowAndQueue collapses $ref chains down to a concrete address and
//     marks it unbuilt.
//
// Processing:
// Process drains the unbuilt set in FIFO order, handing each address to the
// Builder. The builder may call back into Resolve, FollowAndQueue and Fetch;
// anything it queues is drained by the same Process call.
//
// The engine is single-goroutine. It is not safe for concurrent use and the
// builder runs on the caller's goroutine. Callers sharing an Engine across
// goroutines must guard every method with one lock.
//
// CRITICAL PATTERNS:
//
// Logical Clock:
// Each build is stamped with a monotonic seq from Clock.Next(), never a
// wall-clock timestamp, so snapshots of the same input are identical.
//
// Cycle guard:
// A $ref chain that revisits an address fails with a CycleError instead of
// recursing forever.
package engine
