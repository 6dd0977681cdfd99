package bot

import (
	"context"
	"fmt"

	"notif_organizer/internal/filter"
)

func (b *Bot) handleStart(chatID int64) {
	b.reply(chatID, `Welcome to Notification Organizer!

Notifications from your device are filtered and re-posted here as conversations.

Quick start:
1. /toggle <source> — only organize notifications from listed sources
2. /block <keyword> — drop notifications mentioning a keyword
3. /dismiss on — clear the original notification from the device

Use /help for the full command reference.`)
}

func (b *Bot) handleHelp(chatID int64) {
	b.reply(chatID, `Sources:
/sources — show the allow-list (empty = all sources)
/toggle <source> — add or remove a source

Keywords:
/keywords — show blocked keywords
/block <keyword> — block a word/phrase (case-insensitive)
/unblock <keyword> — unblock a keyword exactly as listed

Other:
/dismiss on|off — dismiss originals on the device
/status — current settings
/log [n] — last n organized notifications (default 10, max 50)`)
}

func (b *Bot) handleStatus(chatID int64) {
	b.reply(chatID, FormatStatus(b.rules.Config(), len(b.journal.Entries())))
}

func (b *Bot) handleSources(chatID int64) {
	cfg := b.rules.Config()
	b.replyWithButtons(chatID, FormatSources(cfg.AllowedSources), cmdToggle, "Remove", cfg.AllowedSources)
}

func (b *Bot) handleToggle(ctx context.Context, chatID int64, args string) {
	source, err := ParseSourceArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /toggle <source>")
		return
	}

	if err := b.rules.ToggleSource(ctx, source); err != nil {
		b.reply(chatID, fmt.Sprintf("Changed, but saving failed: %v", err))
		return
	}

	for _, s := range b.rules.Config().AllowedSources {
		if s == source {
			b.reply(chatID, fmt.Sprintf("Source %q added to the allow-list.", source))
			return
		}
	}
	b.reply(chatID, fmt.Sprintf("Source %q removed from the allow-list.", source))
}

func (b *Bot) handleKeywords(chatID int64) {
	keywords := b.rules.Config().BlockedKeywords
	b.replyWithButtons(chatID, FormatKeywords(keywords), cmdUnblock, "Unblock", keywords)
}

func (b *Bot) handleBlock(ctx context.Context, chatID int64, args string) {
	keyword, err := ParseKeywordArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /block <keyword>")
		return
	}

	if err := b.rules.AddKeyword(ctx, keyword); err != nil {
		b.reply(chatID, fmt.Sprintf("Changed, but saving failed: %v", err))
		return
	}
	// Echo the stored form; /unblock matches it verbatim.
	stored, _ := filter.NormalizeKeyword(keyword)
	b.reply(chatID, fmt.Sprintf("Keyword %q blocked.", stored))
}

func (b *Bot) handleUnblock(ctx context.Context, chatID int64, args string) {
	keyword, err := ParseKeywordArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /unblock <keyword>")
		return
	}

	before := len(b.rules.Config().BlockedKeywords)
	if err := b.rules.RemoveKeyword(ctx, keyword); err != nil {
		b.reply(chatID, fmt.Sprintf("Changed, but saving failed: %v", err))
		return
	}
	if len(b.rules.Config().BlockedKeywords) == before {
		b.reply(chatID, fmt.Sprintf("Keyword %q is not blocked. Use /keywords to see the exact list.", keyword))
		return
	}
	b.reply(chatID, fmt.Sprintf("Keyword %q unblocked.", keyword))
}

func (b *Bot) handleDismiss(ctx context.Context, chatID int64, args string) {
	flag, err := ParseSwitchArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /dismiss on|off")
		return
	}

	if err := b.rules.SetDismissOriginal(ctx, flag); err != nil {
		b.reply(chatID, fmt.Sprintf("Changed, but saving failed: %v", err))
		return
	}
	if flag {
		b.reply(chatID, "Original notifications will be dismissed.")
		return
	}
	b.reply(chatID, "Original notifications will be kept.")
}

func (b *Bot) handleLog(chatID int64, args string) {
	n, err := ParseLimitArg(args)
	if err != nil {
		b.reply(chatID, err.Error())
		return
	}
	entries := b.journal.Entries()
	if len(entries) > n {
		entries = entries[:n]
	}
	b.reply(chatID, FormatLog(entries))
}
