package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/patrickmn/go-cache"

	"notif_organizer/internal/config"
	"notif_organizer/internal/model"
)

// How long a posted conversation stays editable in place.
const conversationTTL = 24 * time.Hour

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Rules is the filter state managed through bot commands.
type Rules interface {
	Config() model.FilterConfig
	ToggleSource(ctx context.Context, id string) error
	AddKeyword(ctx context.Context, text string) error
	RemoveKeyword(ctx context.Context, text string) error
	SetDismissOriginal(ctx context.Context, flag bool) error
}

// Journal is the read side of the notification log.
type Journal interface {
	Entries() []model.LogEntry
}

// Bot is the Telegram front-end: it re-posts organized notifications to the
// configured chat and lets allowed users manage the filter rules.
type Bot struct {
	api     telegramAPI
	rules   Rules
	journal Journal
	cfg     *config.Config
	log     *slog.Logger
	// posted maps outbound notification ids to the Telegram messages showing them.
	posted *cache.Cache
}

// New creates a Bot with the given Telegram token, rules, log and config.
func New(token string, rules Rules, journal Journal, cfg *config.Config, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	return newBot(api, rules, journal, cfg, log), nil
}

func newBot(api telegramAPI, rules Rules, journal Journal, cfg *config.Config, log *slog.Logger) *Bot {
	return &Bot{
		api:     api,
		rules:   rules,
		journal: journal,
		cfg:     cfg,
		log:     log,
		posted:  cache.New(conversationTTL, time.Hour),
	}
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
			if update.CallbackQuery != nil {
				if !b.cfg.IsUserAllowed(update.CallbackQuery.From.ID) {
					continue
				}
				b.handleCallback(ctx, update.CallbackQuery)
				continue
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			if !b.cfg.IsUserAllowed(update.Message.From.ID) {
				b.reply(update.Message.Chat.ID, "Access denied.")
				continue
			}
			b.handleCommand(ctx, update.Message)
		}
	}
}

// SendMessage sends a text message to the given chat.
func (b *Bot) SendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	b.SendMessage(chatID, text)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cmd := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())
	chatID := msg.Chat.ID

	b.log.Debug("command", "cmd", cmd, "args", args, "chat_id", chatID)

	switch cmd {
	case "start":
		b.handleStart(chatID)
	case "help":
		b.handleHelp(chatID)
	case "status":
		b.handleStatus(chatID)
	case "sources":
		b.handleSources(chatID)
	case cmdToggle:
		b.handleToggle(ctx, chatID, args)
	case "keywords":
		b.handleKeywords(chatID)
	case "block":
		b.handleBlock(ctx, chatID, args)
	case cmdUnblock:
		b.handleUnblock(ctx, chatID, args)
	case "dismiss":
		b.handleDismiss(ctx, chatID, args)
	case "log":
		b.handleLog(chatID, args)
	default:
		b.reply(chatID, "Unknown command. Use /help for a list of commands.")
	}
}
