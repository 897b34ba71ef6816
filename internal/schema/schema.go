package schema

// Schema is the compiled outline of one schema node.
//
// Subschema fields hold the concrete address (as a URI reference) of the
// subschema after $ref collapsing, not the subschema itself. Look the address
// up in the engine's built set to get its outline.
type Schema struct {
	Address string `json:"address"`

	// Boolean is set for the boolean schemas true and false. All other
	// fields are empty then.
	Boolean *bool `json:"boolean,omitempty"`

	ID          string   `json:"id,omitempty"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Types       []string `json:"types,omitempty"`
	Format      string   `json:"format,omitempty"`
	Required    []string `json:"required,omitempty"`

	// Enum holds the allowed values. A const keyword is folded in as a
	// one-element enum.
	Enum []any `json:"enum,omitempty"`

	// Closed is set when additionalProperties is the literal false schema.
	Closed bool `json:"closed,omitempty"`

	Properties           map[string]string `json:"properties,omitempty"`
	PatternProperties    map[string]string `json:"pattern_properties,omitempty"`
	AdditionalProperties string            `json:"additional_properties,omitempty"`
	PropertyNames        string            `json:"property_names,omitempty"`
	Items                string            `json:"items,omitempty"`
	PrefixItems          []string          `json:"prefix_items,omitempty"`
	Contains             string            `json:"contains,omitempty"`
	AllOf                []string          `json:"all_of,omitempty"`
	AnyOf                []string          `json:"any_of,omitempty"`
	OneOf                []string          `json:"one_of,omitempty"`
	Not                  string            `json:"not,omitempty"`
	If                   string            `json:"if,omitempty"`
	Then                 string            `json:"then,omitempty"`
	Else                 string            `json:"else,omitempty"`
}

// Subschemas returns every subschema address referenced by s, in keyword
// order. Duplicates are kept.
func (s *Schema) Subschemas() []string {
	var out []string
	out = appendSorted(out, s.Properties)
	out = appendSorted(out, s.PatternProperties)
	out = appendNonEmpty(out, s.AdditionalProperties, s.PropertyNames, s.Items)
	out = append(out, s.PrefixItems...)
	out = appendNonEmpty(out, s.Contains)
	out = append(out, s.AllOf...)
	out = append(out, s.AnyOf...)
	out = append(out, s.OneOf...)
	out = appendNonEmpty(out, s.Not, s.If, s.Then, s.Else)
	return out
}
