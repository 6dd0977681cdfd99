package bot

import (
	"fmt"
	"strings"

	"notif_organizer/internal/model"
)

const (
	statusOn  = "on"
	statusOff = "off"
)

// FormatNotification renders an outbound notification as message text.
func FormatNotification(n model.Notification) string {
	if n.IsSummary {
		return n.Title + "\n" + n.Body
	}
	var b strings.Builder
	if n.Conversation != "" {
		fmt.Fprintf(&b, "[%s]\n\n", n.Conversation)
	}
	b.WriteString(n.Title)
	if n.Body != "" {
		b.WriteString(": ")
		b.WriteString(n.Body)
	}
	return b.String()
}

// FormatStatus summarizes the current rules.
func FormatStatus(cfg model.FilterConfig, logSize int) string {
	var b strings.Builder
	if len(cfg.AllowedSources) == 0 {
		b.WriteString("Sources: all\n")
	} else {
		fmt.Fprintf(&b, "Sources: %d allowed\n", len(cfg.AllowedSources))
	}
	fmt.Fprintf(&b, "Blocked keywords: %d\n", len(cfg.BlockedKeywords))
	dismiss := statusOff
	if cfg.DismissOriginal {
		dismiss = statusOn
	}
	fmt.Fprintf(&b, "Dismiss originals: %s\n", dismiss)
	fmt.Fprintf(&b, "Organized so far: %d", logSize)
	return b.String()
}

// FormatSources lists the allow-list.
func FormatSources(sources []string) string {
	if len(sources) == 0 {
		return "All sources are organized. Use /toggle <source> to restrict to a list."
	}
	var b strings.Builder
	b.WriteString("Allowed sources:\n")
	for _, s := range sources {
		fmt.Fprintf(&b, "  %s\n", s)
	}
	return b.String()
}

// FormatKeywords lists the blocked keywords.
func FormatKeywords(keywords []string) string {
	if len(keywords) == 0 {
		return "No blocked keywords. Use /block <keyword> to add one."
	}
	var b strings.Builder
	b.WriteString("Blocked keywords:\n")
	for _, k := range keywords {
		fmt.Fprintf(&b, "  %s\n", k)
	}
	return b.String()
}

// FormatLog renders log entries, newest first.
func FormatLog(entries []model.LogEntry) string {
	if len(entries) == 0 {
		return "Nothing organized yet."
	}
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s  %s\n", e.CreatedAt.UTC().Format("2006-01-02 15:04 UTC"), e.SourceID)
		fmt.Fprintf(&b, "%s: %s\n", e.SenderLabel, e.MessageText)
	}
	return b.String()
}
