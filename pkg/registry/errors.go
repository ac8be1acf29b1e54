package registry

import "errors"

var (
	// ErrPipelineNotFound indicates no pipeline is registered under the given id.
	ErrPipelineNotFound = errors.New("pipeline not found")

	// ErrStepNotFound indicates no step factory is registered under the given id.
	ErrStepNotFound = errors.New("step not found")

	// ErrPipelineAlreadyRegistered indicates a pipeline id was registered twice.
	ErrPipelineAlreadyRegistered = errors.New("pipeline already registered")

	// ErrInvalidPipeline indicates a malformed pipeline definition.
	ErrInvalidPipeline = errors.New("invalid pipeline definition")
)
