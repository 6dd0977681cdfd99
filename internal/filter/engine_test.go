package filter

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"notif_organizer/internal/model"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		name    string
		cfg     model.FilterConfig
		source  string
		title   string
		content string
		want    bool
	}{
		{
			name:    "empty config passes everything",
			source:  "com.chat.app",
			title:   "Alice",
			content: "hello there",
			want:    true,
		},
		{
			name:    "empty allow-list admits any source",
			cfg:     model.FilterConfig{BlockedKeywords: []string{"promo"}},
			source:  "com.unknown",
			title:   "Bob",
			content: "lunch?",
			want:    true,
		},
		{
			name:    "listed source passes",
			cfg:     model.FilterConfig{AllowedSources: []string{"com.chat.app", "com.mail"}},
			source:  "com.mail",
			title:   "Inbox",
			content: "1 new message",
			want:    true,
		},
		{
			name:    "unlisted source rejected",
			cfg:     model.FilterConfig{AllowedSources: []string{"com.chat.app"}},
			source:  "com.game",
			title:   "Energy full",
			content: "come back",
			want:    false,
		},
		{
			name:    "unlisted source rejected without keywords involved",
			cfg:     model.FilterConfig{AllowedSources: []string{"com.chat.app"}, BlockedKeywords: []string{"zzz"}},
			source:  "com.game",
			title:   "",
			content: "",
			want:    false,
		},
		{
			name:    "keyword in content blocks",
			cfg:     model.FilterConfig{BlockedKeywords: []string{"spam"}},
			source:  "com.chat.app",
			title:   "Alice",
			content: "hey, free spam offer",
			want:    false,
		},
		{
			name:    "keyword in title blocks",
			cfg:     model.FilterConfig{BlockedKeywords: []string{"promo"}},
			source:  "com.shop",
			title:   "Weekend PROMO",
			content: "50% off",
			want:    false,
		},
		{
			name:    "keyword matches as substring",
			cfg:     model.FilterConfig{BlockedKeywords: []string{"cat"}},
			source:  "com.news",
			title:   "New category",
			content: "",
			want:    false,
		},
		{
			name:    "keyword blocks listed source",
			cfg:     model.FilterConfig{AllowedSources: []string{"com.chat.app"}, BlockedKeywords: []string{"spam"}},
			source:  "com.chat.app",
			title:   "Alice",
			content: "Spam again",
			want:    false,
		},
		{
			name:    "no keyword hit passes",
			cfg:     model.FilterConfig{BlockedKeywords: []string{"spam"}},
			source:  "com.chat.app",
			title:   "Alice",
			content: "hello there",
			want:    true,
		},
		{
			name:    "unicode keyword",
			cfg:     model.FilterConfig{BlockedKeywords: []string{"реклама"}},
			source:  "org.telegram",
			title:   "Канал",
			content: "РЕКЛАМА: скидки",
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Match(tt.cfg, tt.source, tt.title, tt.content)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Match() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalizeKeyword(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   string
		wantOK bool
	}{
		{name: "lowercased", text: "SpAm", want: "spam", wantOK: true},
		{name: "inner spaces kept", text: "Free Offer", want: "free offer", wantOK: true},
		{name: "empty", text: "", wantOK: false},
		{name: "whitespace only", text: " \t\n", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeKeyword(tt.text)
			if diff := cmp.Diff(tt.wantOK, ok); diff != "" {
				t.Errorf("ok mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("keyword mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
