package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	cmdToggle  = "toggle"
	cmdUnblock = "unblock"
)

// Telegram rejects callback data longer than this.
const maxCallbackData = 64

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	callback := tgbotapi.NewCallback(cb.ID, "")
	if _, err := b.api.Request(callback); err != nil {
		b.log.Error("send callback ack", "error", err)
	}
	if cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID

	action, value, ok := strings.Cut(cb.Data, ":")
	if !ok || value == "" {
		return
	}

	b.log.Info("callback",
		"action", action,
		"value", value,
		"chat_id", chatID,
		"user_id", cb.From.ID,
		"username", cb.From.UserName,
	)

	switch action {
	case cmdToggle:
		b.handleToggle(ctx, chatID, value)
	case cmdUnblock:
		b.handleUnblock(ctx, chatID, value)
	}
}

// replyWithButtons sends text with one button per value that fits in callback data.
func (b *Bot) replyWithButtons(chatID int64, text, action, label string, values []string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, v := range values {
		data := action + ":" + v
		if len(data) > maxCallbackData {
			continue
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label+" "+v, data),
		))
	}
	if len(rows) > 0 {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	}

	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message", "chat_id", chatID, "error", err)
	}
}
