// Package dropunsupported provides the convert pass that removes statements
// whose predicate has no ADMS v2 counterpart.
package dropunsupported

import (
	"context"

	"github.com/dukex/pipeflow/pkg/protocol"
	"github.com/dukex/pipeflow/pkg/rdf"
)

const PassID = "drop_unsupported"

// DefaultPredicates are legacy catalogue predicates dropped by NewPass.
var DefaultPredicates = []string{
	"http://joinup.eu/ontology/legacy#id",
	"http://joinup.eu/ontology/legacy#workflowState",
	"http://joinup.eu/ontology/legacy#moderator",
}

// Pass removes every triple whose predicate is in the deny list.
type Pass struct {
	deny map[string]struct{}
}

// NewPass builds the pass; without arguments DefaultPredicates is used.
func NewPass(predicates ...string) protocol.ConvertPass {
	if len(predicates) == 0 {
		predicates = DefaultPredicates
	}

	deny := make(map[string]struct{}, len(predicates))
	for _, p := range predicates {
		deny[p] = struct{}{}
	}

	return &Pass{deny: deny}
}

func (p *Pass) ID() string {
	return PassID
}

func (p *Pass) Apply(_ context.Context, data map[string]any) error {
	triples, ok, err := rdf.FromContext(data)
	if err != nil || !ok {
		return err
	}

	kept := triples[:0]

	for _, t := range triples {
		if _, denied := p.deny[t.Predicate]; denied {
			continue
		}

		kept = append(kept, t)
	}

	rdf.ToContext(data, kept)

	return nil
}
