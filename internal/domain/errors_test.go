package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"dealfeed/internal/domain"
	"dealfeed/pkg/errcodes"
)

func TestHasCode(t *testing.T) {
	cause := errors.New("connection reset")

	testCases := []struct {
		name string
		err  error
		want bool
	}{
		{name: "direct", err: domain.NewError(errcodes.RefreshInProgress, "busy"), want: true},
		{name: "wrapped", err: fmt.Errorf("worker: %w", domain.NewError(errcodes.RefreshInProgress, "busy")), want: true},
		{name: "other code", err: domain.WrapError(cause, errcodes.InternalServerError, "db"), want: false},
		{name: "plain error", err: cause, want: false},
		{name: "nil", err: nil, want: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rq := require.New(t)
			rq.Equal(tc.want, domain.HasCode(tc.err, errcodes.RefreshInProgress))
		})
	}
}

func TestWrapError(t *testing.T) {
	rq := require.New(t)

	cause := errors.New("connection reset")
	err := domain.WrapError(cause, errcodes.InternalServerError, "failed to read feed")

	rq.ErrorIs(err, cause)
	rq.Equal("failed to read feed: connection reset", err.Error())
	rq.Equal("deal not found", domain.NewError(errcodes.DealNotFound, "deal not found").Error())
}
