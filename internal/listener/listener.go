// Package listener bridges the device notification listener over JSON lines:
// posted notifications come in on one stream, dismiss requests go out on another.
package listener

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"notif_organizer/internal/model"
)

const maxLineSize = 4 * 1024 * 1024

// wireEvent is the JSON form of a posted notification. Icon is base64.
type wireEvent struct {
	SourceID        string  `json:"sourceId"`
	Title           *string `json:"title"`
	Content         *string `json:"content"`
	OriginalEventID int     `json:"originalEventId"`
	Key             string  `json:"key"`
	Icon            []byte  `json:"icon,omitempty"`
	ActionHandle    string  `json:"actionHandle,omitempty"`
}

// ParseEvent decodes one JSON line into an Event.
func ParseEvent(line []byte) (model.Event, error) {
	var w wireEvent
	if err := json.Unmarshal(line, &w); err != nil {
		return model.Event{}, fmt.Errorf("decode event: %w", err)
	}
	if strings.TrimSpace(w.SourceID) == "" {
		return model.Event{}, fmt.Errorf("decode event: sourceId is required")
	}
	return model.Event{
		SourceID:        w.SourceID,
		Title:           w.Title,
		Content:         w.Content,
		OriginalEventID: w.OriginalEventID,
		Key:             w.Key,
		Icon:            w.Icon,
		ActionHandle:    w.ActionHandle,
	}, nil
}

// Source reads posted notifications, one JSON object per line.
type Source struct {
	r   io.Reader
	log *slog.Logger
}

// NewSource creates a Source reading from r.
func NewSource(r io.Reader, log *slog.Logger) *Source {
	return &Source{r: r, log: log}
}

// Run delivers decoded events to out until the stream ends or ctx is
// cancelled. Lines that fail to decode are logged and skipped.
func (s *Source) Run(ctx context.Context, out chan<- model.Event) error {
	sc := bufio.NewScanner(s.r)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)

	for sc.Scan() {
		line := sc.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		ev, err := ParseEvent(line)
		if err != nil {
			s.log.Warn("skip inbound line", "error", err)
			continue
		}
		select {
		case out <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read events: %w", err)
	}
	return nil
}

type dismissRequest struct {
	Action string `json:"action"`
	Key    string `json:"key"`
}

// Dismisser writes cancel requests for original notifications.
type Dismisser struct {
	mu sync.Mutex
	w  io.Writer
}

// NewDismisser creates a Dismisser writing JSON lines to w.
func NewDismisser(w io.Writer) *Dismisser {
	return &Dismisser{w: w}
}

// Dismiss asks the device to cancel the notification with the given key.
func (d *Dismisser) Dismiss(_ context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("dismiss: empty key")
	}
	b, err := json.Marshal(dismissRequest{Action: "cancel", Key: key})
	if err != nil {
		return fmt.Errorf("marshal dismiss request: %w", err)
	}
	b = append(b, '\n')

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.w.Write(b); err != nil {
		return fmt.Errorf("write dismiss request: %w", err)
	}
	return nil
}
