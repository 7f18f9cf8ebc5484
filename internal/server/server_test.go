package server_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/require"

	"dealfeed/internal/domain"
	"dealfeed/internal/domain/entity"
	"dealfeed/internal/domain/service/deal"
	"dealfeed/internal/domain/service/feedorder"
	"dealfeed/internal/domain/value"
	"dealfeed/internal/server"
	"dealfeed/pkg/errcodes"
	"dealfeed/pkg/rest"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

type fakeFeed struct {
	deals    []entity.Deal
	gotPage  value.Page
	gotCat   string
	gotSize  int
	last     *entity.RefreshResult
	feedErr  error
	taskID   string
	queueErr error
}

func (f *fakeFeed) Feed(_ context.Context, page value.Page) ([]entity.Deal, error) {
	f.gotPage = page
	return f.deals, f.feedErr
}

func (f *fakeFeed) CategoryFeed(_ context.Context, category string, page value.Page) ([]entity.Deal, error) {
	f.gotCat = category
	f.gotPage = page

	if strings.TrimSpace(category) == "" {
		return nil, domain.NewError(errcodes.InvalidCategory, "category is empty")
	}

	return f.deals, f.feedErr
}

func (f *fakeFeed) PreviewAllocation(_ context.Context, size int) (feedorder.Allocation, error) {
	f.gotSize = size
	return feedorder.Allocation{"naver": 6, "gianex": 4}, nil
}

func (f *fakeFeed) LastResult() (entity.RefreshResult, bool) {
	if f.last == nil {
		return entity.RefreshResult{}, false
	}

	return *f.last, true
}

func (f *fakeFeed) EnqueueRefresh(_ context.Context, _ string) (string, error) {
	return f.taskID, f.queueErr
}

type fakeDeals struct {
	gotSource value.Source
	gotBatch  []entity.Deal
}

func (d *fakeDeals) Ingest(_ context.Context, source value.Source, batch []entity.Deal) (deal.IngestResult, error) {
	d.gotSource = source
	d.gotBatch = batch

	return deal.IngestResult{Received: len(batch), Stored: len(batch)}, nil
}

func (d *fakeDeals) Get(_ context.Context, id string) (entity.Deal, error) {
	if id != "naver_1" {
		return entity.Deal{}, domain.NewError(errcodes.DealNotFound, "deal not found")
	}

	return entity.Deal{ID: id, Source: "naver", Title: "Socks", DropRate: 49.6}, nil
}

func newRouter(feed *fakeFeed, deals *fakeDeals) http.Handler {
	r := chi.NewRouter()
	server.NewServer(server.NewFeedServer(feed, feed), server.NewDealServer(deals)).RegisterRoutes(r)

	return r
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func TestServer_Feed(t *testing.T) {
	rq := require.New(t)

	feed := &fakeFeed{deals: []entity.Deal{{ID: "a", Source: "naver", FeedOrder: 0}, {ID: "b", FeedOrder: 1}}}
	h := newRouter(feed, &fakeDeals{})

	rec := do(t, h, http.MethodGet, "/v1/feed?limit=2&offset=4", "")
	rq.Equal(http.StatusOK, rec.Code)
	rq.Equal(value.Page{Limit: 2, Offset: 4}, feed.gotPage)

	var page rest.FeedPage
	rq.NoError(json.Unmarshal(rec.Body.Bytes(), &page))
	rq.Len(page.Items, 2)
	rq.Equal("naver", page.Items[0].Source)
	rq.Equal("other", page.Items[1].Source)

	rec = do(t, h, http.MethodGet, "/v1/feed", "")
	rq.Equal(http.StatusOK, rec.Code)
	rq.Equal(value.Page{Limit: value.DefaultPageLimit}, feed.gotPage)
}

func TestServer_CategoryFeed(t *testing.T) {
	rq := require.New(t)

	feed := &fakeFeed{}
	h := newRouter(feed, &fakeDeals{})

	rec := do(t, h, http.MethodGet, "/v1/feed/categories/food?limit=5", "")
	rq.Equal(http.StatusOK, rec.Code)
	rq.Equal("food", feed.gotCat)
	rq.Equal(5, feed.gotPage.Limit)

	rec = do(t, h, http.MethodGet, "/v1/feed/categories/%20", "")
	rq.Equal(http.StatusBadRequest, rec.Code)
	rq.Contains(rec.Body.String(), errcodes.InvalidCategory.String())
}

func TestServer_Errors(t *testing.T) {
	testCases := []struct {
		name     string
		feed     *fakeFeed
		method   string
		target   string
		body     string
		wantCode int
		wantBody string
	}{
		{
			name:     "limit too big",
			feed:     &fakeFeed{},
			method:   http.MethodGet,
			target:   "/v1/feed?limit=1000",
			wantCode: http.StatusBadRequest,
			wantBody: errcodes.InvalidPaging.String(),
		},
		{
			name:     "limit is not a number",
			feed:     &fakeFeed{},
			method:   http.MethodGet,
			target:   "/v1/feed?limit=ten",
			wantCode: http.StatusBadRequest,
			wantBody: errcodes.ValidationError.String(),
		},
		{
			name:     "negative size",
			feed:     &fakeFeed{},
			method:   http.MethodGet,
			target:   "/v1/feed/allocation?size=-1",
			wantCode: http.StatusBadRequest,
			wantBody: errcodes.ValidationError.String(),
		},
		{
			name:     "storage down",
			feed:     &fakeFeed{feedErr: domain.NewError(errcodes.InternalServerError, "db")},
			method:   http.MethodGet,
			target:   "/v1/feed",
			wantCode: http.StatusInternalServerError,
			wantBody: errcodes.InternalServerError.String(),
		},
		{
			name:     "no refresh yet",
			feed:     &fakeFeed{},
			method:   http.MethodGet,
			target:   "/v1/feed/status",
			wantCode: http.StatusNotFound,
			wantBody: errcodes.NotFound.String(),
		},
		{
			name:     "refresh already queued",
			feed:     &fakeFeed{queueErr: domain.NewError(errcodes.RefreshInProgress, "refresh is already queued")},
			method:   http.MethodPost,
			target:   "/v1/feed/refresh",
			wantCode: http.StatusConflict,
			wantBody: errcodes.RefreshInProgress.String(),
		},
		{
			name:     "unknown deal",
			feed:     &fakeFeed{},
			method:   http.MethodGet,
			target:   "/v1/deals/missing",
			wantCode: http.StatusNotFound,
			wantBody: errcodes.DealNotFound.String(),
		},
		{
			name:     "broken json",
			feed:     &fakeFeed{},
			method:   http.MethodPost,
			target:   "/v1/deals",
			body:     `{"source":`,
			wantCode: http.StatusBadRequest,
			wantBody: errcodes.ValidationError.String(),
		},
		{
			name:     "empty batch",
			feed:     &fakeFeed{},
			method:   http.MethodPost,
			target:   "/v1/deals",
			body:     `{"source":"naver","deals":[]}`,
			wantCode: http.StatusBadRequest,
			wantBody: errcodes.ValidationError.String(),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rq := require.New(t)

			rec := do(t, newRouter(tc.feed, &fakeDeals{}), tc.method, tc.target, tc.body)

			rq.Equal(tc.wantCode, rec.Code)
			rq.Contains(rec.Body.String(), tc.wantBody)
		})
	}
}

func TestServer_Allocation(t *testing.T) {
	rq := require.New(t)

	feed := &fakeFeed{}
	rec := do(t, newRouter(feed, &fakeDeals{}), http.MethodGet, "/v1/feed/allocation?size=10", "")
	rq.Equal(http.StatusOK, rec.Code)
	rq.Equal(10, feed.gotSize)

	var alloc rest.Allocation
	rq.NoError(json.Unmarshal(rec.Body.Bytes(), &alloc))
	rq.Equal(rest.Allocation{Size: 10, Sources: map[string]int{"naver": 6, "gianex": 4}}, alloc)
}

func TestServer_Refresh(t *testing.T) {
	rq := require.New(t)

	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	feed := &fakeFeed{
		taskID: "task-1",
		last: &entity.RefreshResult{
			RunID:      "run-1",
			StartedAt:  started,
			Duration:   1500 * time.Millisecond,
			Total:      9,
			Categories: 2,
			Allocation: map[value.Source]int{"naver": 9},
		},
	}
	h := newRouter(feed, &fakeDeals{})

	rec := do(t, h, http.MethodPost, "/v1/feed/refresh", "")
	rq.Equal(http.StatusAccepted, rec.Code)
	rq.JSONEq(`{"taskId":"task-1"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/v1/feed/status", "")
	rq.Equal(http.StatusOK, rec.Code)

	var status rest.RefreshStatus
	rq.NoError(json.Unmarshal(rec.Body.Bytes(), &status))
	rq.Equal("run-1", status.RunID)
	rq.Equal(int64(1500), status.DurationMs)
	rq.Equal(map[string]int{"naver": 9}, status.Allocation)
	rq.True(started.Equal(status.StartedAt))
}

func TestServer_Deals(t *testing.T) {
	rq := require.New(t)

	deals := &fakeDeals{}
	h := newRouter(&fakeFeed{}, deals)

	body := `{"source":"naver","deals":[
		{"id":"deal_1","title":"Socks","link":"https://example.com/1","currentPrice":500,"previousPrice":1000},
		{"id":"deal_2","title":"Hat","link":"https://example.com/2","currentPrice":10}
	]}`

	rec := do(t, h, http.MethodPost, "/v1/deals", body)
	rq.Equal(http.StatusOK, rec.Code)
	rq.Equal(value.Source("naver"), deals.gotSource)
	rq.Len(deals.gotBatch, 2)
	rq.Equal(int64(1000), *deals.gotBatch[0].PreviousPrice)
	rq.Nil(deals.gotBatch[1].PreviousPrice)

	var resp rest.IngestResponse
	rq.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	rq.Equal(2, resp.Stored)

	rec = do(t, h, http.MethodGet, "/v1/deals/naver_1", "")
	rq.Equal(http.StatusOK, rec.Code)

	var got rest.Deal
	rq.NoError(json.Unmarshal(rec.Body.Bytes(), &got))
	rq.Equal("naver_1", got.ID)
	rq.Equal(50, got.DropRate)
}
