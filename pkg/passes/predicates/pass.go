// Package predicates provides the convert pass that moves ADMS v1 predicates to
// the ADMS v2 namespace.
package predicates

import (
	"context"
	"strings"

	"github.com/dukex/pipeflow/pkg/protocol"
	"github.com/dukex/pipeflow/pkg/rdf"
)

const PassID = "adms_predicates"

const (
	LegacyNamespace = "http://purl.org/adms/"
	Namespace       = "http://www.w3.org/ns/adms#"
)

// renamed covers v1 terms whose local name changed in v2.
var renamed = map[string]string{
	LegacyNamespace + "sw/release":       Namespace + "includedAsset",
	LegacyNamespace + "interoperability": Namespace + "representationTechnique",
}

// Pass rewrites predicates in the legacy namespace. Rewritten predicates fall
// outside the legacy namespace, so applying the pass twice is a no-op.
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

	for i := range triples {
		triples[i].Predicate = Rename(triples[i].Predicate)
	}

	rdf.ToContext(data, triples)

	return nil
}

// Rename maps a single predicate to its ADMS v2 form.
func Rename(predicate string) string {
	if v2, ok := renamed[predicate]; ok {
		return v2
	}

	if local, found := strings.CutPrefix(predicate, LegacyNamespace); found {
		return Namespace + local
	}

	return predicate
}
