package deal

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"

	"dealfeed/internal/domain"
	"dealfeed/internal/domain/entity"
	"dealfeed/internal/domain/value"
	"dealfeed/pkg/contextx"
	"dealfeed/pkg/errcodes"
	"dealfeed/pkg/logx"
)

// BatchLimit bounds the rows written by one statement.
const BatchLimit = 500

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

type Repository interface {
	GetByID(ctx context.Context, id string) (entity.Deal, error)
	Upsert(ctx context.Context, deals []entity.Deal) error
	DeleteStale(ctx context.Context, updatedBefore time.Time, limit int) (int, error)
	DeleteEnded(ctx context.Context, now time.Time, limit int) (int, error)
}

type Config struct {
	HotDropRate     float64
	MaxHotPerIngest int
	StaleAfter      time.Duration
	CleanupBatch    int
	CleanupRounds   int
}

type IngestResult struct {
	Received   int `json:"received"`
	Duplicates int `json:"duplicates"`
	Expired    int `json:"expired"`
	Stored     int `json:"stored"`
	Hot        int `json:"hot"`
}

type CleanupResult struct {
	Stale int
	Ended int
}

type Service struct {
	repo Repository
	hot  chan<- entity.Deal
	cfg  Config
	now  func() time.Time
}

func NewService(repo Repository, hot chan<- entity.Deal, cfg Config) *Service {
	return &Service{
		repo: repo,
		hot:  hot,
		cfg:  cfg,
		now:  time.Now,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Ingest stores one scraped batch of source. Listings of the same product
// collapse to the one with the largest discount, deals whose sale is over
// are skipped, and the biggest discounts are handed to the notifier.
func (s *Service) Ingest(ctx context.Context, source value.Source, batch []entity.Deal) (IngestResult, error) {
	source = value.Source(strings.TrimSpace(source.String()))
	if source == "" {
		return IngestResult{}, domain.NewError(errcodes.InvalidSource, "source is empty")
	}

	if len(batch) == 0 {
		return IngestResult{}, domain.NewError(errcodes.InvalidDealBatch, "batch is empty")
	}

	ctx = contextx.WithLogger(ctx, logger(ctx).With(slog.String(logx.FieldSource, source.String())))

	unique, err := dedup(batch)
	if err != nil {
		return IngestResult{}, err
	}

	now := s.now()
	result := IngestResult{Received: len(batch), Duplicates: len(batch) - len(unique)}

	fresh := make([]entity.Deal, 0, len(unique))

	for _, d := range unique {
		if d.Expired(now) {
			result.Expired++
			continue
		}

		d.ID = StoreID(d.ID)
		d.Source = source
		d.DropRate = d.CalcDropRate()
		d.UpdatedAt = now

		fresh = append(fresh, d)
	}

	if result.Expired > 0 {
		logger(ctx).Info("expired deals skipped", slog.Int(logx.FieldItems, result.Expired))
	}

	for _, chunk := range lo.Chunk(fresh, BatchLimit) {
		if err := s.repo.Upsert(ctx, chunk); err != nil {
			return result, fmt.Errorf("repo.Upsert: %w", err)
		}

		result.Stored += len(chunk)
	}

	result.Hot = s.emitHot(ctx, fresh)

	logger(ctx).Info("deals ingested",
		slog.Int("received", result.Received),
		slog.Int("duplicates", result.Duplicates),
		slog.Int("stored", result.Stored),
		slog.Int("hot", result.Hot),
	)

	return result, nil
}

// dedup keeps one deal per stored id: the one with the largest discount,
// the first one on ties. Order of first appearance is preserved.
func dedup(batch []entity.Deal) ([]entity.Deal, error) {
	index := make(map[string]int, len(batch))
	unique := make([]entity.Deal, 0, len(batch))

	for _, d := range batch {
		if strings.TrimSpace(d.ID) == "" {
			return nil, domain.NewError(errcodes.InvalidDealBatch, "deal without id")
		}

		id := StoreID(d.ID)

		i, seen := index[id]
		if !seen {
			index[id] = len(unique)
			unique = append(unique, d)

			continue
		}

		if d.CalcDropRate() > unique[i].CalcDropRate() {
			unique[i] = d
		}
	}

	return unique, nil
}

// emitHot offers the biggest discounts to the notifier without blocking
// ingest; a busy notifier loses them.
func (s *Service) emitHot(ctx context.Context, deals []entity.Deal) int {
	if s.hot == nil || s.cfg.MaxHotPerIngest <= 0 {
		return 0
	}

	hot := lo.Filter(deals, func(d entity.Deal, _ int) bool { return d.DropRate >= s.cfg.HotDropRate })
	slices.SortStableFunc(hot, func(a, b entity.Deal) int { return cmp.Compare(b.DropRate, a.DropRate) })

	sent := 0

	for _, d := range lo.Slice(hot, 0, s.cfg.MaxHotPerIngest) {
		select {
		case s.hot <- d:
			sent++
		default:
			logger(ctx).Warn("hot deal dropped, notifier busy", slog.String(logx.FieldDealID, d.ID))
		}
	}

	return sent
}

// Get accepts any listing id of a product.
func (s *Service) Get(ctx context.Context, id string) (entity.Deal, error) {
	if strings.TrimSpace(id) == "" {
		return entity.Deal{}, domain.NewError(errcodes.DealNotFound, "deal not found")
	}

	d, err := s.repo.GetByID(ctx, StoreID(id))
	if err != nil {
		return entity.Deal{}, fmt.Errorf("repo.GetByID: %w", err)
	}

	return d, nil
}

// Cleanup deletes deals nobody refreshed within StaleAfter and deals whose
// sale has ended, at most CleanupBatch rows per statement and CleanupRounds
// statements per kind.
func (s *Service) Cleanup(ctx context.Context) (CleanupResult, error) {
	now := s.now()

	stale, err := s.rounds(ctx, func(ctx context.Context, limit int) (int, error) {
		return s.repo.DeleteStale(ctx, now.Add(-s.cfg.StaleAfter), limit)
	})
	if err != nil {
		return CleanupResult{}, fmt.Errorf("repo.DeleteStale: %w", err)
	}

	ended, err := s.rounds(ctx, func(ctx context.Context, limit int) (int, error) {
		return s.repo.DeleteEnded(ctx, now, limit)
	})
	if err != nil {
		return CleanupResult{Stale: stale}, fmt.Errorf("repo.DeleteEnded: %w", err)
	}

	logger(ctx).Info("deals cleaned up", slog.Int("stale", stale), slog.Int("ended", ended))

	return CleanupResult{Stale: stale, Ended: ended}, nil
}

func (s *Service) rounds(ctx context.Context, del func(context.Context, int) (int, error)) (int, error) {
	total := 0

	for range max(s.cfg.CleanupRounds, 1) {
		n, err := del(ctx, s.cfg.CleanupBatch)
		if err != nil {
			return total, err
		}

		total += n

		if n < s.cfg.CleanupBatch {
			break
		}
	}

	return total, nil
}
