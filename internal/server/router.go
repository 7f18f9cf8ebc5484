package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"dealfeed/pkg/logx"
	"dealfeed/pkg/middlewarex"
)

// NewRouter wires the API routes behind the request middlewares.
func NewRouter(s Server, masker logx.SensitiveDataMaskerInterface, logFieldMaxLen int) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middlewarex.TraceID,
		middlewarex.Logger,
		middlewarex.Recovery,
		middlewarex.RequestLogging(masker, logFieldMaxLen),
		middlewarex.ResponseLogging(masker, logFieldMaxLen),
	)

	s.RegisterRoutes(r)

	return r
}
