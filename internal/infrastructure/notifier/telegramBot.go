package notifier

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"github.com/patrickmn/go-cache"
	"github.com/sony/gobreaker/v2"

	"dealfeed/internal/domain"
	"dealfeed/internal/domain/entity"
	"dealfeed/pkg/contextx"
	"dealfeed/pkg/errcodes"
	"dealfeed/pkg/logx"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

type MessageSender interface {
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
}

type Config struct {
	ChatID          int64
	DedupTTL        time.Duration
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// TelegramBot pushes hot deals into one chat.
type TelegramBot struct {
	sender  MessageSender
	chatID  int64
	sent    *cache.Cache
	breaker *gobreaker.CircuitBreaker[*telego.Message]
}

// NewBotAPI creates the Bot API client; requests go through client.
func NewBotAPI(token string, client *http.Client) (*telego.Bot, error) {
	bot, err := telego.NewBot(token, telego.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	return bot, nil
}

func NewTelegramBot(sender MessageSender, cfg Config) *TelegramBot {
	return &TelegramBot{
		sender: sender,
		chatID: cfg.ChatID,
		sent:   cache.New(cfg.DedupTTL, 2*cfg.DedupTTL), //nolint:mnd // cleanup twice per window
		breaker: gobreaker.NewCircuitBreaker[*telego.Message](gobreaker.Settings{
			Name:        "telegram",
			MaxRequests: 1,
			Timeout:     cfg.BreakerTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= max(cfg.BreakerFailures, 1)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				slog.Default().Warn("circuit breaker state changed",
					slog.String("breaker", name),
					slog.String("from", from.String()),
					slog.String("to", to.String()),
				)
			},
		}),
	}
}

// Run отправляет сделки из канала, пока он не закрыт или не отменён ctx.
func (b *TelegramBot) Run(ctx context.Context, deals <-chan entity.Deal) error {
	logger(ctx).Info("notifier started", slog.Int64("chat-id", b.chatID))

	for {
		select {
		case <-ctx.Done():
			return nil
		case deal, ok := <-deals:
			if !ok {
				return nil
			}

			if err := b.SendDeal(ctx, deal); err != nil {
				logger(ctx).Error("failed to send deal", slog.String(logx.FieldDealID, deal.ID), logx.Error(err))
			}
		}
	}
}

// SendDeal sends deal unless it was already sent within the dedup window.
func (b *TelegramBot) SendDeal(ctx context.Context, deal entity.Deal) error {
	if _, found := b.sent.Get(deal.ID); found {
		logger(ctx).Debug("deal already sent", slog.String(logx.FieldDealID, deal.ID))
		return nil
	}

	msg := tu.Message(tu.ID(b.chatID), FormatDeal(deal)).WithParseMode(telego.ModeHTML)

	if err := b.send(ctx, msg); err != nil {
		return err
	}

	b.sent.SetDefault(deal.ID, struct{}{})

	return nil
}

// SendText отправляет простое текстовое сообщение.
func (b *TelegramBot) SendText(ctx context.Context, text string) error {
	return b.send(ctx, tu.Message(tu.ID(b.chatID), text))
}

func (b *TelegramBot) send(ctx context.Context, msg *telego.SendMessageParams) error {
	_, err := b.breaker.Execute(func() (*telego.Message, error) {
		return b.sender.SendMessage(ctx, msg)
	})

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return domain.WrapError(err, errcodes.NotifyUnavailable, "telegram is unavailable")
	case err != nil:
		return fmt.Errorf("send message: %w", err)
	}

	return nil
}

func FormatDeal(deal entity.Deal) string {
	text := fmt.Sprintf("🔥 <b>%d%% OFF</b> %s\n\n", deal.RoundedDropRate(), html.EscapeString(deal.Title))

	if deal.MallName != "" {
		text += fmt.Sprintf("🏬 %s\n", html.EscapeString(deal.MallName))
	}

	text += fmt.Sprintf("💰 <b>%s</b>", formatPrice(deal.CurrentPrice))

	if deal.PreviousPrice != nil {
		text += fmt.Sprintf(" <s>%s</s>", formatPrice(*deal.PreviousPrice))
	}

	return text + fmt.Sprintf("\n\n🔗 <a href=\"%s\">Open deal</a>", html.EscapeString(deal.Link))
}

// formatPrice groups thousands: 1234567 -> "1,234,567₩".
func formatPrice(v int64) string {
	s := fmt.Sprint(v)
	if v < 0 {
		return s + "₩"
	}

	out := make([]byte, 0, len(s)+len(s)/3) //nolint:mnd // one comma per three digits

	for i := range len(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}

		out = append(out, s[i])
	}

	return string(out) + "₩"
}
