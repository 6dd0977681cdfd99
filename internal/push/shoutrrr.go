// Package push mirrors organized notifications to additional services.
package push

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	shoutrrr "github.com/nicholas-fedor/shoutrrr"
	router "github.com/nicholas-fedor/shoutrrr/pkg/router"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"

	"notif_organizer/internal/model"
)

// DefaultTimeout bounds a single mirror delivery.
const DefaultTimeout = 10 * time.Second

// Shoutrrr mirrors conversation notifications to every configured shoutrrr URL.
type Shoutrrr struct {
	sender *router.ServiceRouter
}

// NewShoutrrr builds a sender for urls. Invalid URLs are reported here rather
// than on first delivery.
func NewShoutrrr(urls []string, timeout time.Duration) (*Shoutrrr, error) {
	if len(urls) == 0 {
		return nil, fmt.Errorf("at least one shoutrrr URL is required")
	}
	sender, err := shoutrrr.CreateSender(urls...)
	if err != nil {
		return nil, fmt.Errorf("create shoutrrr sender: %w", err)
	}
	if timeout > 0 {
		sender.Timeout = timeout
	}
	sender.SetLogger(log.New(io.Discard, "", 0))
	return &Shoutrrr{sender: sender}, nil
}

// Post delivers n. Summaries only group messages in the chat client and are
// not mirrored.
func (s *Shoutrrr) Post(ctx context.Context, n model.Notification) error {
	if n.IsSummary {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	params := stypes.Params{}
	if n.Conversation != "" {
		params.SetTitle(n.Conversation)
	}
	for _, err := range s.sender.Send(mirrorText(n), &params) {
		if err != nil {
			return fmt.Errorf("mirror notification %d: %w", n.ID, err)
		}
	}
	return nil
}

func mirrorText(n model.Notification) string {
	if n.Body == "" {
		return n.Title
	}
	return n.Title + ": " + n.Body
}
