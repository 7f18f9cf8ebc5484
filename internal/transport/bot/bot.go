package bot

import (
	"context"
	"fmt"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	"dealfeed/internal/transport/bot/handler"
	"dealfeed/pkg/contextx"
	"dealfeed/pkg/logx"
)

const pollTimeout = 60 // seconds

// Bot принимает админские команды через long polling.
type Bot struct {
	bot     *telego.Bot
	handler *handler.Handler
	adminID int64
}

func New(bot *telego.Bot, h *handler.Handler, adminID int64) *Bot {
	return &Bot{
		bot:     bot,
		handler: h,
		adminID: adminID,
	}
}

// Run блокируется до отмены ctx.
func (b *Bot) Run(ctx context.Context) error {
	log := contextx.LoggerFromContextOrDefault(ctx)

	updates, err := b.bot.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		Timeout: pollTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to get updates: %w", err)
	}

	botHandler, err := th.NewBotHandler(b.bot, updates)
	if err != nil {
		return fmt.Errorf("failed to create bot handler: %w", err)
	}

	b.handler.RegisterRoutes(botHandler, b.adminID)

	go func() {
		if err := botHandler.Start(); err != nil {
			log.Error("failed to start bot handler", logx.Error(err))
		}
	}()

	log.Info("admin bot started")

	<-ctx.Done()

	if err := botHandler.Stop(); err != nil {
		log.Error("failed to stop bot handler", logx.Error(err))
	}

	return nil
}
