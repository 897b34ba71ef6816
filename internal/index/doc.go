// Package index holds the two lookup tables built from scanned documents.
//
// The Identifier Index maps every declared $id (resolved to an absolute URI)
// to the physical Address where it was declared. The Reference Index maps the
// Address of every $ref node to the Address its value points at. The target
// may itself be an identifier; translating it back to a physical location is
// the job of Identifiers.Translate.
//
// The two tables are kept separate on purpose: identifiers and physical
// locations live in different namespaces, and resolution always tries the
// identifier translation first before treating a value as physical.
//
// Scanner populates both tables with a depth-first walk. The active
// identifier is threaded through the recursion as a call parameter, so a
// nested $id rebases only its own subtree.
package index
