package notifier_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/require"

	"dealfeed/internal/domain"
	"dealfeed/internal/domain/entity"
	"dealfeed/internal/infrastructure/notifier"
	"dealfeed/pkg/errcodes"
)

type fakeSender struct {
	mu   sync.Mutex
	err  error
	sent []*telego.SendMessageParams
}

func (s *fakeSender) SendMessage(_ context.Context, params *telego.SendMessageParams) (*telego.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}

	s.sent = append(s.sent, params)

	return &telego.Message{}, nil
}

func (s *fakeSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sent)
}

func newBot(sender notifier.MessageSender) *notifier.TelegramBot {
	return notifier.NewTelegramBot(sender, notifier.Config{
		ChatID:          42,
		DedupTTL:        time.Hour,
		BreakerFailures: 2,
		BreakerTimeout:  time.Hour,
	})
}

func TestTelegramBot_SendDeal(t *testing.T) {
	rq := require.New(t)

	sender := &fakeSender{}
	bot := newBot(sender)
	prev := int64(129000)

	deal := entity.Deal{
		ID:            "naver_1",
		Title:         "Socks <3 pack>",
		MallName:      "A&B",
		Link:          "https://example.com/?a=1&b=2",
		CurrentPrice:  64500,
		PreviousPrice: &prev,
		DropRate:      50,
	}

	rq.NoError(bot.SendDeal(context.Background(), deal))
	rq.NoError(bot.SendDeal(context.Background(), deal))

	rq.Equal(1, sender.count())

	msg := sender.sent[0]
	rq.Equal(int64(42), msg.ChatID.ID)
	rq.Equal(telego.ModeHTML, msg.ParseMode)
	rq.Contains(msg.Text, "50% OFF")
	rq.Contains(msg.Text, "Socks &lt;3 pack&gt;")
	rq.Contains(msg.Text, "A&amp;B")
	rq.Contains(msg.Text, "64,500₩")
	rq.Contains(msg.Text, "<s>129,000₩</s>")
	rq.Contains(msg.Text, `href="https://example.com/?a=1&amp;b=2"`)
}

func TestTelegramBot_FailedSendIsRetried(t *testing.T) {
	rq := require.New(t)

	sender := &fakeSender{err: errors.New("bad gateway")}
	bot := newBot(sender)
	deal := entity.Deal{ID: "x", Title: "x"}

	rq.Error(bot.SendDeal(context.Background(), deal))

	sender.err = nil

	rq.NoError(bot.SendDeal(context.Background(), deal))
	rq.Equal(1, sender.count())
}

func TestTelegramBot_BreakerOpens(t *testing.T) {
	rq := require.New(t)

	sendErr := errors.New("bad gateway")
	sender := &fakeSender{err: sendErr}
	bot := newBot(sender)

	for range 2 {
		rq.ErrorIs(bot.SendText(context.Background(), "ping"), sendErr)
	}

	err := bot.SendText(context.Background(), "ping")
	code, ok := domain.GetCode(err)
	rq.True(ok)
	rq.Equal(errcodes.NotifyUnavailable, code)
}

func TestTelegramBot_Run(t *testing.T) {
	rq := require.New(t)

	sender := &fakeSender{}
	bot := newBot(sender)
	deals := make(chan entity.Deal, 3)

	deals <- entity.Deal{ID: "a"}
	deals <- entity.Deal{ID: "b"}
	deals <- entity.Deal{ID: "a"}
	close(deals)

	rq.NoError(bot.Run(context.Background(), deals))
	rq.Equal(2, sender.count())
}

func TestFormatDeal_WithoutOptionalFields(t *testing.T) {
	rq := require.New(t)

	text := notifier.FormatDeal(entity.Deal{Title: "t", CurrentPrice: 999, DropRate: 33.6, Link: "l"})

	rq.Contains(text, "34% OFF")
	rq.Contains(text, "999₩")
	rq.NotContains(text, "<s>")
	rq.NotContains(text, "🏬")
}
