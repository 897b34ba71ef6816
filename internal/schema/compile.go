package schema

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/roach88/schemastore/internal/engine"
	"github.com/roach88/schemastore/internal/ir"
)

// Resolver is the part of the engine a compiler needs.
type Resolver interface {
	Resolve(ctx context.Context, addr ir.Address) (any, error)
	FollowAndQueue(ctx context.Context, addr ir.Address) (ir.Address, error)
}

// Builder returns an engine.Builder that compiles every queued address.
func Builder() engine.Builder {
	return engine.BuilderFunc(func(ctx context.Context, e *engine.Engine, addr ir.Address) (any, error) {
		return Compile(ctx, e, addr)
	})
}

// Compile resolves addr and compiles the value there into a Schema,
// queueing every subschema it references through r.
func Compile(ctx context.Context, r Resolver, addr ir.Address) (*Schema, error) {
	v, err := r.Resolve(ctx, addr)
	if err != nil {
		return nil, err
	}

	s := &Schema{Address: addr.String()}
	switch node := v.(type) {
	case bool:
		s.Boolean = &node
		return s, nil
	case map[string]any:
		c := &compileState{ctx: ctx, r: r, addr: addr, node: node, s: s}
		if err := c.compile(); err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, &CompileError{
			Address: addr.String(),
			Message: "schema must be an object or boolean, got " + ir.KindOf(v),
		}
	}
}

// compileState carries one Compile call.
type compileState struct {
	ctx  context.Context
	r    Resolver
	addr ir.Address
	node map[string]any
	s    *Schema
}

func (c *compileState) compile() error {
	var err error
	s := c.s

	// Scalar keywords
	if s.ID, err = c.str("$id"); err != nil {
		return err
	}
	if s.Title, err = c.str("title"); err != nil {
		return err
	}
	if s.Description, err = c.str("description"); err != nil {
		return err
	}
	if s.Format, err = c.str("format"); err != nil {
		return err
	}
	if s.Types, err = c.types(); err != nil {
		return err
	}
	if s.Required, err = c.strList("required"); err != nil {
		return err
	}
	if s.Enum, err = c.enum(); err != nil {
		return err
	}

	// Object subschemas
	if s.Properties, err = c.subMap("properties"); err != nil {
		return err
	}
	if s.PatternProperties, err = c.subMap("patternProperties"); err != nil {
		return err
	}
	if s.AdditionalProperties, err = c.sub("additionalProperties"); err != nil {
		return err
	}
	if closed, ok := c.node["additionalProperties"].(bool); ok && !closed {
		s.Closed = true
	}
	if s.PropertyNames, err = c.sub("propertyNames"); err != nil {
		return err
	}

	// Array subschemas. A list-valued items is the older tuple form.
	if _, isList := c.node["items"].([]any); isList {
		if s.PrefixItems, err = c.subList("items"); err != nil {
			return err
		}
	} else if s.Items, err = c.sub("items"); err != nil {
		return err
	}
	if _, has := c.node["prefixItems"]; has {
		if s.PrefixItems, err = c.subList("prefixItems"); err != nil {
			return err
		}
	}
	if s.Contains, err = c.sub("contains"); err != nil {
		return err
	}

	// Combinators
	if s.AllOf, err = c.subList("allOf"); err != nil {
		return err
	}
	if s.AnyOf, err = c.subList("anyOf"); err != nil {
		return err
	}
	if s.OneOf, err = c.subList("oneOf"); err != nil {
		return err
	}
	if s.Not, err = c.sub("not"); err != nil {
		return err
	}
	if s.If, err = c.sub("if"); err != nil {
		return err
	}
	if s.Then, err = c.sub("then"); err != nil {
		return err
	}
	if s.Else, err = c.sub("else"); err != nil {
		return err
	}
	return nil
}

func (c *compileState) fail(keyword, format string, args ...any) error {
	return &CompileError{
		Address: c.addr.String(),
		Keyword: keyword,
		Message: fmt.Sprintf(format, args...),
	}
}

// str returns a string keyword, or "" when absent.
func (c *compileState) str(keyword string) (string, error) {
	v, ok := c.node[keyword]
	if !ok {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", c.fail(keyword, "must be a string, got %s", ir.KindOf(v))
	}
	return s, nil
}

// strList returns a list-of-strings keyword.
func (c *compileState) strList(keyword string) ([]string, error) {
	v, ok := c.node[keyword]
	if !ok {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, c.fail(keyword, "must be an array, got %s", ir.KindOf(v))
	}
	out := make([]string, 0, len(list))
	for i, elem := range list {
		s, ok := elem.(string)
		if !ok {
			return nil, c.fail(keyword+"/"+strconv.Itoa(i), "must be a string, got %s", ir.KindOf(elem))
		}
		out = append(out, s)
	}
	return out, nil
}

// types accepts "type" as one name or a list of names.
func (c *compileState) types() ([]string, error) {
	if name, ok := c.node["type"].(string); ok {
		return []string{name}, nil
	}
	return c.strList("type")
}

func (c *compileState) enum() ([]any, error) {
	if v, ok := c.node["const"]; ok {
		return []any{v}, nil
	}
	v, ok := c.node["enum"]
	if !ok {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, c.fail("enum", "must be an array, got %s", ir.KindOf(v))
	}
	return slices.Clone(list), nil
}

// queue follows and queues the subschema at the given child address.
func (c *compileState) queue(keyword string, child ir.Address, v any) (string, error) {
	switch v.(type) {
	case map[string]any, bool:
	default:
		return "", c.fail(keyword, "subschema must be an object or boolean, got %s", ir.KindOf(v))
	}
	dep, err := c.r.FollowAndQueue(c.ctx, child)
	if err != nil {
		return "", err
	}
	return dep.String(), nil
}

// sub compiles a single-subschema keyword.
func (c *compileState) sub(keyword string) (string, error) {
	v, ok := c.node[keyword]
	if !ok {
		return "", nil
	}
	return c.queue(keyword, c.addr.Child(keyword), v)
}

// subList compiles an array-of-subschemas keyword.
func (c *compileState) subList(keyword string) ([]string, error) {
	v, ok := c.node[keyword]
	if !ok {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, c.fail(keyword, "must be an array, got %s", ir.KindOf(v))
	}
	out := make([]string, 0, len(list))
	for i, elem := range list {
		idx := strconv.Itoa(i)
		dep, err := c.queue(keyword+"/"+idx, c.addr.Child(keyword).Child(idx), elem)
		if err != nil {
			return nil, err
		}
		out = append(out, dep)
	}
	return out, nil
}

// subMap compiles a name-to-subschema keyword. Names are visited in sorted
// order so queueing is deterministic.
func (c *compileState) subMap(keyword string) (map[string]string, error) {
	v, ok := c.node[keyword]
	if !ok {
		return nil, nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, c.fail(keyword, "must be an object, got %s", ir.KindOf(v))
	}
	out := make(map[string]string, len(obj))
	for _, name := range ir.SortedKeys(obj) {
		dep, err := c.queue(keyword+"/"+ir.EscapePointerToken(name), c.addr.Child(keyword).Child(name), obj[name])
		if err != nil {
			return nil, err
		}
		out[name] = dep
	}
	return out, nil
}

func appendSorted(out []string, m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

func appendNonEmpty(out []string, addrs ...string) []string {
	for _, a := range addrs {
		if a != "" {
			out = append(out, a)
		}
	}
	return out
}
