package protocol

import "context"

// ConvertPass is an independent transformation applied to the pipeline context
// by the conversion step. Passes must not depend on the order in which their
// siblings run and should be safe to re-apply.
type ConvertPass interface {
	ID() string
	Apply(ctx context.Context, data map[string]any) error
}
