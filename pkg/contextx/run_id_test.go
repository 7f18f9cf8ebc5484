package contextx_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"dealfeed/pkg/contextx"
)

func TestRunID(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	var testRunIDEmpty contextx.RunID

	testRunIDNotEmpty := contextx.RunID("cs7hq0m5p8s0a4kqv3p0")

	runID, err := contextx.RunIDFromContext(ctx)
	rq.Equal(testRunIDEmpty, runID)
	rq.ErrorIs(err, contextx.ErrNoValue)
	rq.ErrorContains(err, "run id: no value in context")

	ctx = contextx.WithRunID(ctx, testRunIDNotEmpty)

	runID, err = contextx.RunIDFromContext(ctx)
	rq.Equal(testRunIDNotEmpty, runID)
	rq.NoError(err)
}
