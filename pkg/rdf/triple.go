// Package rdf holds the minimal triple model shared by the graph steps and the
// convert passes.
package rdf

import (
	"errors"
	"fmt"
	"strings"
)

// ContextKey is where steps keep the working graph in the pipeline context.
const ContextKey = "triples"

var ErrInvalidTriples = errors.New("invalid triples in context")

// Triple is one statement. Subject and predicate are bare IRIs; Object keeps its
// N-Triples form, so literals carry their quotes and any language or datatype
// suffix.
type Triple struct {
	Subject   string `json:"subject"`
	Predicate string `json:"predicate"`
	Object    string `json:"object"`
}

// IsLiteral reports whether the object is a literal rather than an IRI.
func (t Triple) IsLiteral() bool {
	return strings.HasPrefix(t.Object, `"`)
}

// SplitLiteral separates a literal object into its lexical value and suffix
// (for example `@en` or `^^<...#string>`).
func SplitLiteral(object string) (string, string, bool) {
	if !strings.HasPrefix(object, `"`) {
		return "", "", false
	}

	end := strings.LastIndex(object, `"`)
	if end <= 0 {
		return "", "", false
	}

	return object[1:end], object[end+1:], true
}

// FromContext reads the working graph. A missing key yields (nil, false, nil).
// The graph may be a []Triple set in-process or the []any of maps produced by
// a JSON round trip through a state store.
func FromContext(data map[string]any) ([]Triple, bool, error) {
	raw, ok := data[ContextKey]
	if !ok || raw == nil {
		return nil, false, nil
	}

	switch v := raw.(type) {
	case []Triple:
		out := make([]Triple, len(v))
		copy(out, v)

		return out, true, nil
	case []map[string]any:
		out := make([]Triple, 0, len(v))

		for i, m := range v {
			t, err := tripleFromMap(m)
			if err != nil {
				return nil, true, fmt.Errorf("%w: entry %d: %w", ErrInvalidTriples, i, err)
			}

			out = append(out, t)
		}

		return out, true, nil
	case []any:
		out := make([]Triple, 0, len(v))

		for i, item := range v {
			m, isMap := item.(map[string]any)
			if !isMap {
				return nil, true, fmt.Errorf("%w: entry %d is %T", ErrInvalidTriples, i, item)
			}

			t, err := tripleFromMap(m)
			if err != nil {
				return nil, true, fmt.Errorf("%w: entry %d: %w", ErrInvalidTriples, i, err)
			}

			out = append(out, t)
		}

		return out, true, nil
	default:
		return nil, true, fmt.Errorf("%w: unexpected type %T", ErrInvalidTriples, raw)
	}
}

// ToContext stores the working graph.
func ToContext(data map[string]any, triples []Triple) {
	data[ContextKey] = triples
}

func tripleFromMap(m map[string]any) (Triple, error) {
	subject, _ := m["subject"].(string)
	predicate, _ := m["predicate"].(string)
	object, _ := m["object"].(string)

	if subject == "" || predicate == "" || object == "" {
		return Triple{}, errors.New("subject, predicate and object must be non-empty strings")
	}

	return Triple{Subject: subject, Predicate: predicate, Object: object}, nil
}
