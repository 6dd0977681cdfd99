// Package filter holds the user's allow/block rules and decides which
// notifications are accepted.
package filter

import (
	"slices"
	"strings"

	"notif_organizer/internal/model"
)

// Match reports whether a notification passes cfg.
// An empty allow-list admits every source. Blocked keywords always apply and
// match as case-insensitive substrings of the title or the content.
// Keywords in cfg are expected to be lowercase already.
func Match(cfg model.FilterConfig, sourceID, title, content string) bool {
	if len(cfg.AllowedSources) > 0 && !slices.Contains(cfg.AllowedSources, sourceID) {
		return false
	}

	title = strings.ToLower(title)
	content = strings.ToLower(content)
	for _, k := range cfg.BlockedKeywords {
		if strings.Contains(title, k) || strings.Contains(content, k) {
			return false
		}
	}
	return true
}

// NormalizeKeyword returns the stored form of a keyword and whether it is usable.
func NormalizeKeyword(text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	return strings.ToLower(text), true
}
