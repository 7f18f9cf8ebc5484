package value

import (
	"fmt"

	"git.appkode.ru/pub/go/failure"

	"dealfeed/pkg/errcodes"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

type Page struct {
	Limit  int
	Offset int
}

// NewPage validates paging parameters; limit 0 means DefaultPageLimit.
func NewPage(limit, offset int) (Page, error) {
	if limit == 0 {
		limit = DefaultPageLimit
	}

	if limit < 0 || limit > MaxPageLimit || offset < 0 {
		return Page{}, failure.NewInvalidArgumentError(
			fmt.Sprintf("invalid page: limit=%d offset=%d", limit, offset),
			failure.WithCode(errcodes.InvalidPaging),
			failure.WithDescription(fmt.Sprintf("limit must be in [1, %d], offset must not be negative", MaxPageLimit)),
		)
	}

	return Page{Limit: limit, Offset: offset}, nil
}
