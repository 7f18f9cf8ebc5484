package application

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"dealfeed/internal/config"
	"dealfeed/internal/domain/entity"
	"dealfeed/internal/domain/service/deal"
	"dealfeed/internal/domain/service/feed"
	"dealfeed/internal/infrastructure/lock"
	"dealfeed/internal/infrastructure/notifier"
	"dealfeed/internal/infrastructure/persistence"
	"dealfeed/internal/server"
	"dealfeed/internal/transport/bot"
	"dealfeed/internal/transport/bot/handler"
	"dealfeed/internal/worker"
	"dealfeed/pkg/application/connectors"
	"dealfeed/pkg/application/modules"
	"dealfeed/pkg/contextx"
	"dealfeed/pkg/httpx"
	"dealfeed/pkg/logx"
	"dealfeed/pkg/metrics"
	"dealfeed/pkg/probe"
)

const readHeaderTimeout = 5 * time.Second

// Run собирает зависимости и блокируется, пока не остановится любой из модулей
// или не будет отменён ctx.
func Run(ctx context.Context, cfg config.Config) error {
	log := contextx.LoggerFromContextOrDefault(ctx)
	masker := logx.NewSensitiveDataMasker()
	registry := metrics.NewRegistry()

	// Storage
	pg := &connectors.Postgres{
		DSN:             cfg.Postgres.DSN,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
	}
	db := pg.Client(ctx)
	defer pg.Close(ctx)

	rds := &connectors.Redis{
		Address:            cfg.Redis.Address,
		Username:           cfg.Redis.Username,
		Password:           cfg.Redis.Password,
		DatabaseNumber:     cfg.Redis.DatabaseNumber,
		PoolSize:           cfg.Redis.PoolSize,
		MinIdleConnections: cfg.Redis.MinIdleConnections,
		MaxIdleConnections: cfg.Redis.MaxIdleConnections,
	}
	redisClient := rds.Client(ctx)
	defer rds.Close(ctx)

	taskClient := asynq.NewClient(rds.AsynqOpt())
	defer func() {
		if err := taskClient.Close(); err != nil {
			log.Error("asynq client close", logx.Error(err))
		}
	}()

	// Services
	repo := persistence.NewDealRepository(db)
	hot := make(chan entity.Deal, cfg.Notify.QueueSize)

	feedService := feed.NewService(repo, lock.NewRedisLocker(redisClient), feed.NewMetrics(registry), feed.Config{
		Policy:      cfg.Feed.Policy,
		MinDropRate: cfg.Feed.MinDropRate,
		LockTTL:     cfg.Feed.LockTTL,
	})

	dealService := deal.NewService(repo, hot, deal.Config{
		HotDropRate:     cfg.Notify.HotDropRate,
		MaxHotPerIngest: cfg.Notify.MaxHotPerIngest,
		StaleAfter:      cfg.Deal.StaleAfter,
		CleanupBatch:    cfg.Deal.CleanupBatch,
		CleanupRounds:   cfg.Deal.CleanupRounds,
	})

	enqueuer := worker.NewEnqueuer(taskClient)

	// Telegram
	botAPI, err := notifier.NewBotAPI(cfg.Bot.Token, httpx.NewLoggingClient(
		cfg.HTTP.ClientTimeout,
		httpx.WithSensitiveDataMasker(masker),
		httpx.WithLogFieldMaxLen(cfg.Log.FieldMaxLen),
	))
	if err != nil {
		return fmt.Errorf("notifier.NewBotAPI: %w", err)
	}

	pusher := notifier.NewTelegramBot(botAPI, notifier.Config{
		ChatID:          cfg.Bot.ChatID,
		DedupTTL:        cfg.Notify.DedupTTL,
		BreakerFailures: cfg.Notify.BreakerFailures,
		BreakerTimeout:  cfg.Notify.BreakerTimeout,
	})

	adminBot := bot.New(botAPI, handler.New(feedService, enqueuer), cfg.Bot.AdminID)

	// HTTP
	srv := server.NewServer(
		server.NewFeedServer(feedService, enqueuer),
		server.NewDealServer(dealService),
	)

	httpServer := &http.Server{ //nolint:exhaustruct
		Addr:              cfg.HTTP.ListenAddress,
		Handler:           server.NewRouter(srv, masker, cfg.Log.FieldMaxLen),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	refreshTask, err := worker.NewFeedRefreshTask("schedule")
	if err != nil {
		return fmt.Errorf("worker.NewFeedRefreshTask: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	modules.HTTPServer{ShutdownTimeout: cfg.HTTP.ShutdownTimeout}.Run(ctx, g, httpServer)

	modules.ProbeServer{
		Name:          cfg.App.Name,
		Version:       cfg.App.Version,
		ListenAddress: cfg.Probe.ListenAddress,
		Checks: map[string]probe.Check{
			"postgres": db.PingContext,
			"redis": func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			},
		},
	}.Run(ctx, g)

	modules.MetricServer{
		ListenAddress: cfg.Metrics.ListenAddress,
		Gatherer:      registry,
	}.Run(ctx, g)

	modules.AsynqServer{
		Redis:       rds.AsynqOpt(),
		Concurrency: cfg.Schedule.Concurrency,
	}.Run(ctx, g, modules.AsynqQueues{worker.QueueFeed: 1}, worker.NewHandler(feedService, dealService).Handlers()...)

	modules.AsynqScheduler{
		Redis:    rds.AsynqOpt(),
		Location: cfg.Schedule.Location,
	}.Run(ctx, g,
		modules.AsynqPeriodicTask{Cronspec: cfg.Schedule.FeedRefresh, Task: refreshTask},
		modules.AsynqPeriodicTask{Cronspec: cfg.Schedule.DealsCleanup, Task: worker.NewDealsCleanupTask()},
	)

	g.Go(func() error {
		return pusher.Run(ctx, hot)
	})

	g.Go(func() error {
		return adminBot.Run(ctx)
	})

	log.Info("application started",
		slog.String(logx.FieldAppName, cfg.App.Name),
		slog.String(logx.FieldAppVersion, cfg.App.Version),
	)

	if err := g.Wait(); err != nil {
		return fmt.Errorf("errgroup.Wait: %w", err)
	}

	return nil
}
