package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"dealfeed/internal/domain"
	"dealfeed/pkg/errcodes"
	"dealfeed/pkg/httpx/reply"
)

func (s Server) RegisterRoutes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Route("/feed", func(r chi.Router) {
			r.Get("/", handler(s.getV1Feed))
			r.Get("/categories/{category}", handler(s.getV1CategoryFeed))
			r.Get("/allocation", handler(s.getV1Allocation))
			r.Get("/status", handler(s.getV1RefreshStatus))
			r.Post("/refresh", handler(s.postV1Refresh))
		})

		r.Route("/deals", func(r chi.Router) {
			r.Post("/", handler(s.postV1Deals))
			r.Get("/{id}", handler(s.getV1Deal))
		})
	})
}

func handler(f func(http.ResponseWriter, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := f(w, r); err != nil {
			replyError(w, r, err)
		}
	}
}

// replyError maps domain codes onto HTTP statuses; anything else goes through
// the failure classes in reply.Error.
func replyError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *domain.AppError
	if !errors.As(err, &appErr) {
		reply.Error(r.Context(), w, err)
		return
	}

	switch appErr.Code {
	case errcodes.DealNotFound, errcodes.NotFound:
		reply.Status(r.Context(), w, http.StatusNotFound, appErr.Code, appErr.Message)
	case errcodes.RefreshInProgress:
		reply.Status(r.Context(), w, http.StatusConflict, appErr.Code, appErr.Message)
	case errcodes.InvalidCategory, errcodes.InvalidSource, errcodes.InvalidDealBatch,
		errcodes.InvalidFeedPolicy:
		reply.Status(r.Context(), w, http.StatusBadRequest, appErr.Code, appErr.Message)
	case errcodes.NotifyUnavailable:
		reply.Status(r.Context(), w, http.StatusServiceUnavailable, appErr.Code, appErr.Message)
	default:
		reply.Error(r.Context(), w, err)
	}
}
