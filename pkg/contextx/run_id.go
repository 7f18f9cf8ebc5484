package contextx

import (
	"context"
	"fmt"
)

// RunID identifies one execution of a scheduled job.
type RunID string

type contextKeyRunID struct{}

func (r RunID) String() string {
	return string(r)
}

func WithRunID(ctx context.Context, runID RunID) context.Context {
	return context.WithValue(ctx, contextKeyRunID{}, runID)
}

func RunIDFromContext(ctx context.Context) (RunID, error) {
	runID, ok := ctx.Value(contextKeyRunID{}).(RunID)
	if !ok {
		return "", fmt.Errorf("run id: %w", ErrNoValue)
	}

	return runID, nil
}
