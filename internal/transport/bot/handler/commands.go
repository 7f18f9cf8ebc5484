package handler

import (
	"fmt"
	"html"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	"github.com/samber/lo"

	"dealfeed/internal/domain"
	"dealfeed/internal/domain/entity"
	"dealfeed/internal/domain/value"
	"dealfeed/internal/transport/bot/view"
	"dealfeed/pkg/errcodes"
)

func (h *Handler) OnStart(ctx *th.Context, msg telego.Message) error {
	return h.sendHTML(ctx, msg.Chat.ID, view.StartMessage)
}

func (h *Handler) OnStatus(ctx *th.Context, msg telego.Message) error {
	result, ok := h.feed.LastResult()
	if !ok {
		return h.sendHTML(ctx, msg.Chat.ID, view.StatusNeverRefreshed)
	}

	return h.sendHTML(ctx, msg.Chat.ID, FormatStatus(result))
}

func (h *Handler) OnRefresh(ctx *th.Context, msg telego.Message) error {
	taskID, err := h.enqueuer.EnqueueRefresh(ctx, "bot")

	switch {
	case domain.HasCode(err, errcodes.RefreshInProgress):
		return h.sendHTML(ctx, msg.Chat.ID, view.RefreshInProgress)
	case err != nil:
		return h.sendHTML(ctx, msg.Chat.ID, fmt.Sprintf(view.RefreshFailed, html.EscapeString(err.Error())))
	}

	return h.sendHTML(ctx, msg.Chat.ID, fmt.Sprintf(view.RefreshQueued, html.EscapeString(taskID)))
}

func (h *Handler) OnPolicy(ctx *th.Context, msg telego.Message) error {
	return h.sendHTML(ctx, msg.Chat.ID, FormatPolicy(h.feed.Policy()))
}

// OnAllocation показывает распределение слотов.
// Использование: /allocation или /allocation 20
func (h *Handler) OnAllocation(ctx *th.Context, msg telego.Message) error {
	size, ok := parseSize(msg.Text)
	if !ok {
		return h.sendHTML(ctx, msg.Chat.ID, view.AllocationInvalidSize)
	}

	alloc, err := h.feed.PreviewAllocation(ctx, size)
	if err != nil {
		return h.sendHTML(ctx, msg.Chat.ID, fmt.Sprintf(view.AllocationFailed, html.EscapeString(err.Error())))
	}

	return h.sendHTML(ctx, msg.Chat.ID, FormatAllocation(alloc))
}

func FormatStatus(r entity.RefreshResult) string {
	return fmt.Sprintf(view.StatusTemplate,
		html.EscapeString(r.RunID),
		r.StartedAt.UTC().Format(time.DateTime),
		r.Duration.Round(time.Millisecond),
		r.Total,
		r.Categories,
		FormatAllocation(r.Allocation),
	)
}

func FormatPolicy(p value.FeedPolicy) string {
	if len(p.Quotas) == 0 && len(p.Groups) == 0 {
		return view.PolicyEmpty
	}

	var sb strings.Builder

	sb.WriteString(view.PolicyHeader)

	for _, src := range sortedSources(p.Quotas) {
		quota := p.Quotas[src]
		fmt.Fprintf(&sb, view.PolicyQuota, html.EscapeString(src.String()), quota.MinRatio*100, ceiling(quota.MaxRatio))
	}

	if len(p.Groups) > 0 {
		sb.WriteString(view.PolicyGroupsTo)
	}

	for _, g := range p.Groups {
		members := lo.Map(g.Sources, func(s value.Source, _ int) string { return s.String() })
		fmt.Fprintf(&sb, view.PolicyGroup,
			html.EscapeString(g.Name),
			html.EscapeString(strings.Join(members, ", ")),
			g.MinTotalRatio*100,
			ceiling(g.MaxTotalRatio),
		)
	}

	return sb.String()
}

func FormatAllocation[M ~map[value.Source]int](alloc M) string {
	total := lo.Sum(lo.Values(map[value.Source]int(alloc)))
	if total == 0 {
		return view.AllocationNothingFound
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, view.AllocationHeader, total)

	for _, src := range sortedSources(alloc) {
		fmt.Fprintf(&sb, view.AllocationLine, html.EscapeString(src.String()), alloc[src])
	}

	return sb.String()
}

// ceiling форматирует верхнюю границу; 0 значит без ограничения.
func ceiling(ratio float64) string {
	if ratio == 0 {
		return "∞"
	}

	return strconv.FormatFloat(ratio*100, 'f', 0, 64) + "%"
}

func sortedSources[M ~map[value.Source]V, V any](m M) []value.Source {
	keys := lo.Keys(map[value.Source]V(m))
	slices.Sort(keys)

	return keys
}

// parseSize: без аргумента 0 (весь пул).
func parseSize(text string) (int, bool) {
	args := strings.Fields(text)
	if len(args) < 2 {
		return 0, true
	}

	size, err := strconv.Atoi(args[1])
	if err != nil || size < 0 {
		return 0, false
	}

	return size, true
}

func (h *Handler) sendHTML(ctx *th.Context, chatID int64, text string) error {
	_, err := ctx.Bot().SendMessage(ctx, &telego.SendMessageParams{
		ChatID:    telego.ChatID{ID: chatID},
		Text:      text,
		ParseMode: telego.ModeHTML,
	})

	return err
}
