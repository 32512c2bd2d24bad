// Package bot runs the Telegram vote bot: it announces freshly gathered
// records to the subscriber chat and turns inline keyboard taps into
// estimation votes on the gathering server.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"digest_curator/internal/model"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// EstimationSink records a subscriber's vote for a record.
type EstimationSink interface {
	SendEstimation(ctx context.Context, recordID int64, est model.Estimation) error
}

const (
	actionApprove = "approve"
	actionIgnore  = "ignore"
	actionMain    = "main"
)

// Bot is the Telegram vote bot.
type Bot struct {
	api    telegramAPI
	sink   EstimationSink
	chatID int64
	log    *slog.Logger
}

// New creates a Bot with the given Telegram token.
func New(token string, chatID int64, sink EstimationSink, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	return &Bot{api: api, sink: sink, chatID: chatID, log: log}, nil
}

// Run starts the bot's long-polling loop, blocking until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			if update.CallbackQuery == nil {
				continue
			}
			b.handleCallback(ctx, update.CallbackQuery)
		}
	}
}

// Announce posts one record to the subscriber chat with the vote keyboard.
func (b *Bot) Announce(rec model.DigestRecord) error {
	msg := tgbotapi.NewMessage(b.chatID, FormatAnnouncement(rec))
	msg.DisableWebPagePreview = false
	msg.ReplyMarkup = voteKeyboard(rec.ID)
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("announce record %d: %w", rec.ID, err)
	}
	return nil
}

func voteKeyboard(recordID int64) tgbotapi.InlineKeyboardMarkup {
	id := strconv.FormatInt(recordID, 10)
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👍 In digest", actionApprove+":"+id),
			tgbotapi.NewInlineKeyboardButtonData("👎 Ignore", actionIgnore+":"+id),
			tgbotapi.NewInlineKeyboardButtonData("⭐ Main", actionMain+":"+id),
		),
	)
}

// FormatAnnouncement renders the announcement text for one record.
func FormatAnnouncement(rec model.DigestRecord) string {
	var b strings.Builder
	b.WriteString(rec.Title)
	b.WriteString("\n")
	b.WriteString(rec.URL)
	if rec.Source != "" {
		fmt.Fprintf(&b, "\n\nSource: %s", rec.Source)
	}
	return b.String()
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	callback := tgbotapi.NewCallback(cb.ID, "")
	if _, err := b.api.Send(callback); err != nil {
		b.log.Error("send callback ack", "error", err)
	}

	est, recordID, ok := parseVote(cb.Data, cb.From.UserName)
	if !ok {
		return
	}

	b.log.Info("vote",
		"record_id", recordID,
		"state", est.State,
		"user_id", cb.From.ID,
		"username", cb.From.UserName,
	)

	if err := b.sink.SendEstimation(ctx, recordID, est); err != nil {
		b.log.Error("send estimation", "record_id", recordID, "error", err)
	}
}

// parseVote turns callback data ("approve:123") into an estimation.
func parseVote(data, user string) (model.Estimation, int64, bool) {
	parts := strings.SplitN(data, ":", 2)
	if len(parts) != 2 {
		return model.Estimation{}, 0, false
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return model.Estimation{}, 0, false
	}

	est := model.Estimation{User: user}
	switch parts[0] {
	case actionApprove:
		est.State = model.StateInDigest
	case actionIgnore:
		est.State = model.StateIgnored
	case actionMain:
		est.State = model.StateInDigest
		main := true
		est.IsMain = &main
	default:
		return model.Estimation{}, 0, false
	}
	return est, id, true
}
