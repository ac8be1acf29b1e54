package registry

import (
	"github.com/dukex/pipeflow/pkg/models"
	"github.com/dukex/pipeflow/pkg/passes/dropunsupported"
	"github.com/dukex/pipeflow/pkg/passes/predicates"
	"github.com/dukex/pipeflow/pkg/passes/trimliterals"
	"github.com/dukex/pipeflow/pkg/protocol"
	"github.com/dukex/pipeflow/pkg/steps/convert"
	logstep "github.com/dukex/pipeflow/pkg/steps/log"
	"github.com/dukex/pipeflow/pkg/steps/provenance"
	"github.com/dukex/pipeflow/pkg/steps/selection"
	"github.com/dukex/pipeflow/pkg/steps/store"
	"github.com/dukex/pipeflow/pkg/steps/triples"
	"github.com/dukex/pipeflow/pkg/steps/upload"
)

// Built-in pipeline ids.
const (
	PipelineDemo    = "demo"
	PipelineConvert = "convert"
	PipelineImport  = "import"
)

// RegisterDefaultSteps registers all built-in step factories with the registry.
// The sink may be nil, in which case the store_graph step is not registered.
// Relative upload paths are resolved against uploadDir.
func (r *Registry) RegisterDefaultSteps(sink protocol.DataSink, uploadDir string) {
	r.RegisterStep(selection.NewStepFactory())
	r.RegisterStep(upload.NewStepFactory())
	r.RegisterStep(triples.NewStepFactory(uploadDir))
	r.RegisterStep(convert.NewStepFactory(r))
	r.RegisterStep(provenance.NewStepFactory())
	r.RegisterStep(logstep.NewStepFactory())

	if sink != nil {
		r.RegisterStep(store.NewStepFactory(sink))
	}
}

// RegisterDefaultConvertPasses registers the built-in convert passes.
func (r *Registry) RegisterDefaultConvertPasses() {
	r.RegisterConvertPass(predicates.NewPass())
	r.RegisterConvertPass(trimliterals.NewPass())
	r.RegisterConvertPass(dropunsupported.NewPass())
}

// RegisterDefaultPipelines registers the built-in pipelines.
func (r *Registry) RegisterDefaultPipelines() error {
	defaults := []*models.PipelineDefinition{
		{
			ID:    PipelineDemo,
			Label: "Manual upload",
			Steps: []string{upload.StepID},
		},
		{
			ID:    PipelineConvert,
			Label: "Convert a graph to ADMS v2",
			Steps: []string{selection.StepID, convert.StepID, provenance.StepID},
		},
		{
			ID:    PipelineImport,
			Label: "Import a federated solution",
			Steps: []string{
				upload.StepID,
				selection.StepID,
				triples.StepID,
				convert.StepID,
				provenance.StepID,
				store.StepID,
				logstep.StepID,
			},
		},
	}

	for _, definition := range defaults {
		if err := r.RegisterPipeline(definition); err != nil {
			return err
		}
	}

	return nil
}
