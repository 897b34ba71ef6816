package ir

// Snapshot is the persisted state of one resolution session.
//
// Slices are ordered deterministically: documents in cache order, bindings
// in declaration or scan order, built entries by sequence number, unbuilt
// entries in enqueue order.
type Snapshot struct {
	Session     string          `json:"session"`
	Documents   []DocumentEntry `json:"documents"`
	Identifiers []BindingEntry  `json:"identifiers"`
	References  []BindingEntry  `json:"references"`
	Built       []BuiltEntry    `json:"built"`
	Unbuilt     []string        `json:"unbuilt"`
}

// DocumentEntry is one cached document. Digest is the DocumentDigest of
// Content.
type DocumentEntry struct {
	URI     string `json:"uri"`
	Digest  string `json:"digest"`
	Content any    `json:"content"`
}

// BindingEntry is one identifier or reference binding, rendered as URI
// references.
type BindingEntry struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// BuiltEntry is one built address with its builder result. Digest is the
// ResultDigest of Result.
type BuiltEntry struct {
	Address string `json:"address"`
	Seq     int64  `json:"seq"`
	Digest  string `json:"digest"`
	Result  any    `json:"result"`
}
