package document

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/schemastore/internal/ir"
)

// Format identifies how raw document content is decoded.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCUE  Format = "cue"
)

// FormatOf picks a decoder from the extension of the URI path. Anything that
// is not YAML or CUE is decoded as JSON.
func FormatOf(uri string) Format {
	p := uri
	if u, err := url.Parse(uri); err == nil {
		p = u.Path
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".cue":
		return FormatCUE
	default:
		return FormatJSON
	}
}

// Decode parses raw content fetched from uri into the document tree model.
// The top-level value must be an object or array; anything else is a
// ContentError. Schema documents are closed under this rule, so a bare
// scalar is never a valid fetch result.
func Decode(uri string, data []byte) (any, error) {
	var (
		doc any
		err error
	)
	switch FormatOf(uri) {
	case FormatYAML:
		doc, err = decodeYAML(data)
	case FormatCUE:
		doc, err = decodeCUE(uri, data)
	default:
		doc, err = ir.DecodeJSON(data)
	}
	if err != nil {
		return nil, ir.NewContentError(uri, "cannot parse document", err)
	}
	if !ir.IsContainer(doc) {
		return nil, ir.NewContentError(uri, "document must be a JSON object or array, got "+ir.KindOf(doc), nil)
	}
	return doc, nil
}

func decodeYAML(data []byte) (any, error) {
	var node any
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	normalized, err := normalizeYAML(node)
	if err != nil {
		return nil, err
	}
	return ir.ToValue(normalized)
}

// normalizeYAML converts map[any]any (produced for non-string keys) into
// map[string]any so the value can be re-encoded as JSON.
func normalizeYAML(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			n, err := normalizeYAML(vv)
			if err != nil {
				return nil, err
			}
			out[k] = n
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			n, err := normalizeYAML(vv)
			if err != nil {
				return nil, err
			}
			out[fmt.Sprint(k)] = n
		}
		return out, nil
	case []any:
		arr := make([]any, len(t))
		for i := range t {
			n, err := normalizeYAML(t[i])
			if err != nil {
				return nil, err
			}
			arr[i] = n
		}
		return arr, nil
	default:
		return v, nil
	}
}

// decodeCUE evaluates a CUE file and exports its concrete value as JSON.
func decodeCUE(uri string, data []byte) (any, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(uri))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compiling CUE: %w", err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("CUE value is not concrete: %w", err)
	}
	out, err := v.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("exporting CUE: %w", err)
	}
	return ir.DecodeJSON(out)
}
