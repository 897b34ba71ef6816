// Package schema is the default builder: it compiles the JSON value at a
// concrete address into a Schema outline.
//
// An outline records the scalar keywords of one schema node and, for every
// subschema keyword (properties, items, allOf, ...), the concrete address the
// subschema resolves to. Compiling a node queues each of those addresses, so
// a single Process call compiles the whole reachable schema graph, and
// recursive schemas terminate because an address is only built once.
//
// Validate runs structural checks over a compiled outline and reports every
// problem found rather than stopping at the first.
package schema
