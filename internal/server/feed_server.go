package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"git.appkode.ru/pub/go/failure"

	"dealfeed/internal/domain"
	"dealfeed/internal/domain/entity"
	"dealfeed/internal/domain/service/feedorder"
	"dealfeed/internal/domain/value"
	"dealfeed/pkg/errcodes"
	"dealfeed/pkg/httpx/reply"
	"dealfeed/pkg/rest"
)

type feedService interface {
	Feed(ctx context.Context, page value.Page) ([]entity.Deal, error)
	CategoryFeed(ctx context.Context, category string, page value.Page) ([]entity.Deal, error)
	PreviewAllocation(ctx context.Context, size int) (feedorder.Allocation, error)
	LastResult() (entity.RefreshResult, bool)
}

type refreshEnqueuer interface {
	EnqueueRefresh(ctx context.Context, reason string) (string, error)
}

type FeedServer struct {
	feedService feedService
	enqueuer    refreshEnqueuer
}

func NewFeedServer(feedService feedService, enqueuer refreshEnqueuer) FeedServer {
	return FeedServer{
		feedService: feedService,
		enqueuer:    enqueuer,
	}
}

func (s FeedServer) getV1Feed(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	page, err := parsePage(r)
	if err != nil {
		return err
	}

	deals, err := s.feedService.Feed(ctx, page)
	if err != nil {
		return fmt.Errorf("feedService.Feed: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTFeedPage(deals, page))

	return nil
}

func (s FeedServer) getV1CategoryFeed(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	page, err := parsePage(r)
	if err != nil {
		return err
	}

	deals, err := s.feedService.CategoryFeed(ctx, r.PathValue("category"), page)
	if err != nil {
		return fmt.Errorf("feedService.CategoryFeed: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTFeedPage(deals, page))

	return nil
}

func (s FeedServer) getV1Allocation(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	size, err := queryInt(r, "size")
	if err != nil {
		return err
	}

	if size < 0 {
		return failure.NewInvalidArgumentError(
			"negative size",
			failure.WithCode(errcodes.ValidationError),
			failure.WithDescription("size must not be negative"),
		)
	}

	alloc, err := s.feedService.PreviewAllocation(ctx, size)
	if err != nil {
		return fmt.Errorf("feedService.PreviewAllocation: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, rest.Allocation{
		Size:    alloc.Total(),
		Sources: newRESTAllocation(alloc),
	})

	return nil
}

func (s FeedServer) getV1RefreshStatus(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	result, ok := s.feedService.LastResult()
	if !ok {
		return domain.NewError(errcodes.NotFound, "feed has not been refreshed since start")
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTRefreshStatus(result))

	return nil
}

func (s FeedServer) postV1Refresh(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	taskID, err := s.enqueuer.EnqueueRefresh(ctx, "api")
	if err != nil {
		return fmt.Errorf("enqueuer.EnqueueRefresh: %w", err)
	}

	reply.JSON(ctx, w, http.StatusAccepted, rest.RefreshAccepted{TaskID: taskID})

	return nil
}

func parsePage(r *http.Request) (value.Page, error) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		return value.Page{}, err
	}

	offset, err := queryInt(r, "offset")
	if err != nil {
		return value.Page{}, err
	}

	return value.NewPage(limit, offset)
}

// queryInt returns 0 for a missing parameter.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, failure.NewInvalidArgumentError(
			fmt.Sprintf("strconv.Atoi(%s): %v", name, err),
			failure.WithCode(errcodes.ValidationError),
			failure.WithDescription(name+" must be an integer"),
		)
	}

	return n, nil
}
