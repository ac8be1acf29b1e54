package pipeline

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownPipeline      = errors.New("unknown pipeline")
	ErrUnknownStep          = errors.New("unknown step")
	ErrStepNotAwaitingInput = errors.New("active step does not accept input")
	ErrPipelineConflict     = errors.New("another pipeline is in progress for this session")
	ErrStepFailed           = errors.New("step failed")
	ErrConvertPassFailed    = errors.New("convert pass failed")
)

// UnknownPipelineError is returned when a pipeline id is not registered.
type UnknownPipelineError struct {
	PipelineID string
	Err        error
}

func (e *UnknownPipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unknown pipeline %q: %v", e.PipelineID, e.Err)
	}

	return fmt.Sprintf("unknown pipeline %q", e.PipelineID)
}

func (e *UnknownPipelineError) Unwrap() error {
	return e.Err
}

func (e *UnknownPipelineError) Is(target error) bool {
	return target == ErrUnknownPipeline
}

// UnknownStepError is returned when the active or next step cannot be resolved.
type UnknownStepError struct {
	PipelineID string
	StepID     string
	Err        error
}

func (e *UnknownStepError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unknown step %q in pipeline %q: %v", e.StepID, e.PipelineID, e.Err)
	}

	return fmt.Sprintf("unknown step %q in pipeline %q", e.StepID, e.PipelineID)
}

func (e *UnknownStepError) Unwrap() error {
	return e.Err
}

func (e *UnknownStepError) Is(target error) bool {
	return target == ErrUnknownStep
}

// StepExecutionError carries a failure raised by a step. The step's own error
// stays reachable through errors.Is and errors.As.
type StepExecutionError struct {
	StepID string
	Err    error
}

func (e *StepExecutionError) Error() string {
	return fmt.Sprintf("step %q failed: %v", e.StepID, e.Err)
}

func (e *StepExecutionError) Unwrap() error {
	return e.Err
}

func (e *StepExecutionError) Is(target error) bool {
	return target == ErrStepFailed
}

// NewStepExecutionError wraps err for stepID unless it already is a step error.
func NewStepExecutionError(stepID string, err error) error {
	var stepErr *StepExecutionError
	if errors.As(err, &stepErr) {
		return err
	}

	return &StepExecutionError{StepID: stepID, Err: err}
}

// ConvertPassError identifies the convert pass that aborted a pass sequence.
type ConvertPassError struct {
	PassID string
	Err    error
}

func (e *ConvertPassError) Error() string {
	return fmt.Sprintf("convert pass %q failed: %v", e.PassID, e.Err)
}

func (e *ConvertPassError) Unwrap() error {
	return e.Err
}

func (e *ConvertPassError) Is(target error) bool {
	return target == ErrConvertPassFailed
}

// PipelineConflictError is returned when input is submitted for a pipeline other
// than the one the session is running.
type PipelineConflictError struct {
	Requested string
	Active    string
}

func (e *PipelineConflictError) Error() string {
	return fmt.Sprintf("pipeline %q requested but %q is in progress", e.Requested, e.Active)
}

func (e *PipelineConflictError) Is(target error) bool {
	return target == ErrPipelineConflict
}

func IsUnknownPipeline(err error) bool {
	return errors.Is(err, ErrUnknownPipeline)
}

func IsUnknownStep(err error) bool {
	return errors.Is(err, ErrUnknownStep)
}

func IsStepExecution(err error) bool {
	return errors.Is(err, ErrStepFailed)
}

func IsConvertPass(err error) bool {
	return errors.Is(err, ErrConvertPassFailed)
}

func IsStepNotAwaitingInput(err error) bool {
	return errors.Is(err, ErrStepNotAwaitingInput)
}

func IsPipelineConflict(err error) bool {
	return errors.Is(err, ErrPipelineConflict)
}
