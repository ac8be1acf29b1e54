// Package trimliterals provides the convert pass that strips surrounding
// whitespace from literal values.
package trimliterals

import (
	"context"
	"strings"

	"github.com/dukex/pipeflow/pkg/protocol"
	"github.com/dukex/pipeflow/pkg/rdf"
)

const PassID = "trim_literals"

// Pass trims literal lexical values, keeping language tags and datatypes.
type Pass struct{}

func NewPass() protocol.ConvertPass {
	return &Pass{}
}

func (p *Pass) ID() string {
	return PassID
}

func (p *Pass) Apply(_ context.Context, data map[string]any) error {
	triples, ok, err := rdf.FromContext(data)
	if err != nil || !ok {
		return err
	}

	for i, t := range triples {
		value, suffix, isLiteral := rdf.SplitLiteral(t.Object)
		if !isLiteral {
			continue
		}

		triples[i].Object = `"` + strings.TrimSpace(value) + `"` + suffix
	}

	rdf.ToContext(data, triples)

	return nil
}
