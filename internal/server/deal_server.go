package server

import (
	"context"
	"fmt"
	"net/http"

	"dealfeed/internal/domain/entity"
	"dealfeed/internal/domain/service/deal"
	"dealfeed/internal/domain/value"
	"dealfeed/pkg/httpx/reply"
	"dealfeed/pkg/httpx/req"
	"dealfeed/pkg/rest"
)

type dealService interface {
	Ingest(ctx context.Context, source value.Source, batch []entity.Deal) (deal.IngestResult, error)
	Get(ctx context.Context, id string) (entity.Deal, error)
}

type DealServer struct {
	dealService dealService
}

func NewDealServer(dealService dealService) DealServer {
	return DealServer{
		dealService: dealService,
	}
}

func (s DealServer) postV1Deals(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var request rest.IngestRequest

	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	result, err := s.dealService.Ingest(ctx, value.Source(request.Source), newDomainDeals(request.Deals))
	if err != nil {
		return fmt.Errorf("dealService.Ingest: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTIngestResponse(result))

	return nil
}

func (s DealServer) getV1Deal(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	d, err := s.dealService.Get(ctx, r.PathValue("id"))
	if err != nil {
		return fmt.Errorf("dealService.Get: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTDeal(d))

	return nil
}
