package pipeline

import (
	"context"

	"github.com/dukex/pipeflow/pkg/protocol"
)

// RunConvertPasses applies every pass, in order, to the same context map. The
// first failure stops the sequence; mutations made by earlier passes are kept.
func RunConvertPasses(ctx context.Context, passes []protocol.ConvertPass, data map[string]any) error {
	for _, pass := range passes {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := pass.Apply(ctx, data)
		if err != nil {
			return &ConvertPassError{PassID: pass.ID(), Err: err}
		}
	}

	return nil
}
