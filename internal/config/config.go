package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	App      App
	Log      Log
	HTTP     HTTP
	Probe    Probe
	Metrics  Metrics
	Postgres Postgres
	Redis    Redis
	Bot      Bot
	Feed     Feed
	Schedule Schedule
	Notify   Notify
	Deal     Deal
}

type App struct {
	Name    string `env:"APP_NAME" envDefault:"dealfeed"`
	Version string `env:"APP_VERSION" envDefault:"dev"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"` // text | json
	// FieldMaxLen обрезает дампы запросов и ответов в логах.
	FieldMaxLen int `env:"LOG_FIELD_MAX_LEN" envDefault:"4096"`
}

type Bot struct {
	Token   string `env:"BOT_TOKEN,notEmpty" json:"-"`
	AdminID int64  `env:"BOT_ADMIN_ID,required"`
	ChatID  int64  `env:"BOT_CHAT_ID,required"`
}

func Load() (Config, error) {
	_ = godotenv.Load()

	var config Config

	if err := env.Parse(&config); err != nil {
		return Config{}, fmt.Errorf("env.Parse: %w", err)
	}

	policy, err := ParsePolicy(config.Feed.PolicyJSON)
	if err != nil {
		return Config{}, fmt.Errorf("config.ParsePolicy: %w", err)
	}

	config.Feed.Policy = policy

	return config, nil
}
