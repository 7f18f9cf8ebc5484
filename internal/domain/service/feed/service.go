package feed

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/xid"
	"github.com/samber/lo"

	"dealfeed/internal/domain"
	"dealfeed/internal/domain/entity"
	"dealfeed/internal/domain/service/feedorder"
	"dealfeed/internal/domain/value"
	"dealfeed/pkg/contextx"
	"dealfeed/pkg/errcodes"
	"dealfeed/pkg/logx"
)

const refreshLockKey = "dealfeed:lock:feed-refresh"

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

type DealRepository interface {
	ListEligible(ctx context.Context, minDropRate float64) ([]entity.Deal, error)
	CountBySource(ctx context.Context, minDropRate float64) (map[value.Source]int, error)
	UpdateRanks(ctx context.Context, ranks []entity.FeedRank) error
	Feed(ctx context.Context, page value.Page) ([]entity.Deal, error)
	CategoryFeed(ctx context.Context, category string, page value.Page) ([]entity.Deal, error)
}

// Locker is a cross-process mutex. TryLock reports ok=false, without an
// error, when somebody else holds key.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (unlock func(context.Context) error, ok bool, err error)
}

type Config struct {
	Policy      value.FeedPolicy
	MinDropRate float64
	LockTTL     time.Duration
}

type Service struct {
	repo    DealRepository
	locker  Locker
	metrics *Metrics
	cfg     Config
	rnd     feedorder.Random
	now     func() time.Time

	mu   sync.RWMutex
	last *entity.RefreshResult
}

func NewService(repo DealRepository, locker Locker, metrics *Metrics, cfg Config) *Service {
	return &Service{
		repo:    repo,
		locker:  locker,
		metrics: metrics,
		cfg:     cfg,
		rnd:     feedorder.NewRandom(),
		now:     time.Now,
	}
}

func (s *Service) WithRandom(rnd feedorder.Random) *Service {
	s.rnd = rnd
	return s
}

// Refresh recomputes both rankings for the whole eligible pool and stores
// them in one transaction. Only one refresh runs at a time across all
// processes; a concurrent call fails with RefreshInProgress.
func (s *Service) Refresh(ctx context.Context) (entity.RefreshResult, error) {
	runID := xid.New().String()
	ctx = contextx.WithRunID(ctx, contextx.RunID(runID))
	ctx = contextx.WithLogger(ctx, logger(ctx).With(slog.String(logx.FieldRunID, runID)))

	unlock, ok, err := s.locker.TryLock(ctx, refreshLockKey, s.cfg.LockTTL)
	if err != nil {
		s.metrics.failed()
		return entity.RefreshResult{}, domain.WrapError(err, errcodes.InternalServerError, "acquire refresh lock")
	}

	if !ok {
		s.metrics.skipped()
		return entity.RefreshResult{}, domain.NewError(errcodes.RefreshInProgress, "feed refresh already in progress")
	}

	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			logger(ctx).Warn("release refresh lock", logx.Error(err))
		}
	}()

	started := s.now()

	result, err := s.refresh(ctx)
	if err != nil {
		s.metrics.failed()
		return entity.RefreshResult{}, err
	}

	result.RunID = runID
	result.StartedAt = started
	result.Duration = s.now().Sub(started)

	s.metrics.observe(result)

	s.mu.Lock()
	s.last = &result
	s.mu.Unlock()

	logger(ctx).Info("feed refreshed",
		slog.Int(logx.FieldItems, result.Total),
		slog.Int("categories", result.Categories),
		slog.String("allocation", formatAllocation(result.Allocation)),
		slog.Int64(logx.FieldDurationMs, result.Duration.Milliseconds()),
	)

	return result, nil
}

func (s *Service) refresh(ctx context.Context) (entity.RefreshResult, error) {
	deals, err := s.repo.ListEligible(ctx, s.cfg.MinDropRate)
	if err != nil {
		return entity.RefreshResult{}, fmt.Errorf("repo.ListEligible: %w", err)
	}

	composition := Compose(deals, s.cfg.Policy, s.rnd)

	if err := s.repo.UpdateRanks(ctx, composition.Ranks); err != nil {
		return entity.RefreshResult{}, fmt.Errorf("repo.UpdateRanks: %w", err)
	}

	return entity.RefreshResult{
		Total:      len(composition.Ranks),
		Categories: composition.Categories,
		Allocation: composition.Allocation,
	}, nil
}

func (s *Service) Feed(ctx context.Context, page value.Page) ([]entity.Deal, error) {
	deals, err := s.repo.Feed(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("repo.Feed: %w", err)
	}

	return deals, nil
}

func (s *Service) CategoryFeed(ctx context.Context, category string, page value.Page) ([]entity.Deal, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, domain.NewError(errcodes.InvalidCategory, "category is empty")
	}

	deals, err := s.repo.CategoryFeed(ctx, category, page)
	if err != nil {
		return nil, fmt.Errorf("repo.CategoryFeed: %w", err)
	}

	return deals, nil
}

// PreviewAllocation shows how a feed of size items would be split between
// the sources of the current pool; size <= 0 takes the whole pool.
func (s *Service) PreviewAllocation(ctx context.Context, size int) (feedorder.Allocation, error) {
	counts, err := s.repo.CountBySource(ctx, s.cfg.MinDropRate)
	if err != nil {
		return nil, fmt.Errorf("repo.CountBySource: %w", err)
	}

	sources := lo.Keys(counts)
	slices.Sort(sources)

	available := lo.Map(sources, func(src value.Source, _ int) feedorder.Availability {
		return feedorder.Availability{Source: src, Count: counts[src]}
	})

	if size <= 0 {
		return feedorder.Allocate(available, s.cfg.Policy), nil
	}

	return feedorder.AllocateN(available, size, s.cfg.Policy), nil
}

func (s *Service) Policy() value.FeedPolicy {
	return s.cfg.Policy
}

// LastResult is the last successful refresh of this process.
func (s *Service) LastResult() (entity.RefreshResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.last == nil {
		return entity.RefreshResult{}, false
	}

	return *s.last, true
}

func formatAllocation(alloc map[value.Source]int) string {
	sources := lo.Keys(alloc)
	slices.Sort(sources)

	return strings.Join(lo.Map(sources, func(src value.Source, _ int) string {
		return fmt.Sprintf("%s=%d", src, alloc[src])
	}), " ")
}
