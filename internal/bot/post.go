package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"notif_organizer/internal/model"
)

// postedMessage is a Telegram message showing an outbound notification.
type postedMessage struct {
	MessageID int
	Photo     bool
}

// Post shows n in the notification chat. A conversation posted again under
// the same id edits the earlier message; the summary is deleted and re-sent
// so it always sits below the latest conversation.
func (b *Bot) Post(ctx context.Context, n model.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := strconv.Itoa(n.ID)

	if prev, ok := b.posted.Get(key); ok {
		pm := prev.(postedMessage)
		if n.IsSummary {
			b.deleteMessage(pm.MessageID)
		} else {
			err := b.edit(pm, n)
			if err == nil || isNotModified(err) {
				b.posted.SetDefault(key, pm)
				return nil
			}
			b.log.Warn("edit notification, sending new", "notification_id", n.ID, "message_id", pm.MessageID, "error", err)
		}
	}

	pm, err := b.send(n)
	if err != nil {
		return fmt.Errorf("send notification %d: %w", n.ID, err)
	}
	b.posted.SetDefault(key, pm)
	return nil
}

func (b *Bot) send(n model.Notification) (postedMessage, error) {
	text := FormatNotification(n)
	markup := actionMarkup(n.ActionHandle)

	if len(n.Icon) > 0 && !n.IsSummary {
		photo := tgbotapi.NewPhoto(b.cfg.ChatID, tgbotapi.FileBytes{Name: "icon", Bytes: n.Icon})
		photo.Caption = text
		if markup != nil {
			photo.ReplyMarkup = *markup
		}
		sent, err := b.api.Send(photo)
		if err != nil {
			return postedMessage{}, err
		}
		return postedMessage{MessageID: sent.MessageID, Photo: true}, nil
	}

	msg := tgbotapi.NewMessage(b.cfg.ChatID, text)
	msg.DisableWebPagePreview = true
	if markup != nil {
		msg.ReplyMarkup = *markup
	}
	sent, err := b.api.Send(msg)
	if err != nil {
		return postedMessage{}, err
	}
	return postedMessage{MessageID: sent.MessageID}, nil
}

func (b *Bot) edit(pm postedMessage, n model.Notification) error {
	text := FormatNotification(n)
	markup := actionMarkup(n.ActionHandle)

	var c tgbotapi.Chattable
	if pm.Photo {
		e := tgbotapi.NewEditMessageCaption(b.cfg.ChatID, pm.MessageID, text)
		e.ReplyMarkup = markup
		c = e
	} else {
		e := tgbotapi.NewEditMessageText(b.cfg.ChatID, pm.MessageID, text)
		e.DisableWebPagePreview = true
		e.ReplyMarkup = markup
		c = e
	}
	_, err := b.api.Send(c)
	return err
}

func (b *Bot) deleteMessage(messageID int) {
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(b.cfg.ChatID, messageID)); err != nil {
		b.log.Debug("delete previous summary", "message_id", messageID, "error", err)
	}
}

func isNotModified(err error) bool {
	return strings.Contains(err.Error(), "message is not modified")
}

// actionMarkup turns a link-like action handle into an "Open" button.
func actionMarkup(handle string) *tgbotapi.InlineKeyboardMarkup {
	if !isLink(handle) {
		return nil
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL("Open", handle)),
	)
	return &kb
}

func isLink(s string) bool {
	for _, p := range []string{"https://", "http://", "tg://"} {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
