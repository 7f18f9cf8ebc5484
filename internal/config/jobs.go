package config

import "time"

// Schedule задаёт cron-выражения периодических задач asynq.
type Schedule struct {
	FeedRefresh  string `env:"SCHEDULE_FEED_REFRESH" envDefault:"@every 15m"`
	DealsCleanup string `env:"SCHEDULE_DEALS_CLEANUP" envDefault:"0 4 * * *"`
	Location     string `env:"SCHEDULE_LOCATION" envDefault:"Asia/Seoul"`
	Concurrency  int    `env:"WORKER_CONCURRENCY" envDefault:"2"`
}

type Notify struct {
	HotDropRate     float64       `env:"NOTIFY_HOT_DROP_RATE" envDefault:"30"`
	MaxHotPerIngest int           `env:"NOTIFY_MAX_HOT_PER_INGEST" envDefault:"3"`
	DedupTTL        time.Duration `env:"NOTIFY_DEDUP_TTL" envDefault:"4h"`
	QueueSize       int           `env:"NOTIFY_QUEUE_SIZE" envDefault:"100"`
	BreakerFailures uint32        `env:"NOTIFY_BREAKER_FAILURES" envDefault:"5"`
	BreakerTimeout  time.Duration `env:"NOTIFY_BREAKER_TIMEOUT" envDefault:"1m"`
}

type Deal struct {
	StaleAfter    time.Duration `env:"DEAL_STALE_AFTER" envDefault:"24h"`
	CleanupBatch  int           `env:"DEAL_CLEANUP_BATCH" envDefault:"500"`
	CleanupRounds int           `env:"DEAL_CLEANUP_ROUNDS" envDefault:"20"`
}
