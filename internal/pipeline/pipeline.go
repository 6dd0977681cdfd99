// Package pipeline decides the fate of each inbound notification and
// re-emits accepted ones as grouped conversation notifications.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"notif_organizer/internal/model"
)

// UnknownSender replaces a missing event title.
const UnknownSender = "Unknown"

// Outcome describes what happened to an event.
type Outcome int

// Possible outcomes of Handle.
const (
	OutcomeSelf Outcome = iota
	OutcomeRejected
	OutcomeAccepted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSelf:
		return "self"
	case OutcomeRejected:
		return "rejected"
	case OutcomeAccepted:
		return "accepted"
	}
	return "unknown"
}

// Rules is the filter state consulted for each event.
type Rules interface {
	Evaluate(sourceID, title, content string) bool
	DismissOriginal() bool
}

// Journal records accepted notifications.
type Journal interface {
	Append(ctx context.Context, e model.LogEntry) error
}

// Poster publishes outbound notifications.
type Poster interface {
	Post(ctx context.Context, n model.Notification) error
}

// Dismisser cancels an original notification by key.
type Dismisser interface {
	Dismiss(ctx context.Context, key string) error
}

// Pipeline handles inbound events one at a time.
type Pipeline struct {
	selfID    string
	rules     Rules
	journal   Journal
	poster    Poster
	dismisser Dismisser
	log       *slog.Logger
	now       func() time.Time
	newID     func() string
}

// New creates a Pipeline. Events whose source is selfID are ignored.
// dismisser may be nil when originals cannot be dismissed.
func New(selfID string, rules Rules, journal Journal, poster Poster, dismisser Dismisser, log *slog.Logger) *Pipeline {
	return &Pipeline{
		selfID:    selfID,
		rules:     rules,
		journal:   journal,
		poster:    poster,
		dismisser: dismisser,
		log:       log,
		now:       time.Now,
		newID:     newEntryID,
	}
}

// SetClock overrides the time source (useful for testing).
func (p *Pipeline) SetClock(now func() time.Time) {
	p.now = now
}

// Handle runs one event through filtering, suppression, logging and
// re-emission. Nothing is retried; failures after acceptance are logged and
// do not undo earlier steps.
func (p *Pipeline) Handle(ctx context.Context, ev model.Event) Outcome {
	if ev.SourceID == p.selfID {
		return OutcomeSelf
	}

	title := UnknownSender
	if ev.Title != nil {
		title = *ev.Title
	}
	content := ""
	if ev.Content != nil {
		content = *ev.Content
	}

	if !p.rules.Evaluate(ev.SourceID, title, content) {
		p.log.Debug("notification rejected", "source_id", ev.SourceID)
		return OutcomeRejected
	}

	if p.rules.DismissOriginal() && p.dismisser != nil {
		if err := p.dismisser.Dismiss(ctx, ev.Key); err != nil {
			p.log.Warn("dismiss original", "source_id", ev.SourceID, "key", ev.Key, "error", err)
		}
	}

	entry := model.LogEntry{
		ID:              p.newID(),
		SourceID:        ev.SourceID,
		SenderLabel:     title,
		MessageText:     content,
		OriginalEventID: ev.OriginalEventID,
		CreatedAt:       time.UnixMilli(p.now().UnixMilli()).UTC(),
	}
	if err := p.journal.Append(ctx, entry); err != nil {
		p.log.Error("append log entry", "entry_id", entry.ID, "error", err)
	}

	conv := Conversation(entry, ev.Icon, ev.ActionHandle)
	if err := p.poster.Post(ctx, conv); err != nil {
		p.log.Error("post notification", "notification_id", conv.ID, "source_id", ev.SourceID, "error", err)
	}
	if err := p.poster.Post(ctx, Summary()); err != nil {
		p.log.Error("post summary", "notification_id", SummaryID, "error", err)
	}

	p.log.Info("notification organized", "source_id", ev.SourceID, "sender", title, "notification_id", conv.ID)
	return OutcomeAccepted
}

// Run handles events from the channel in arrival order until ctx is cancelled
// or the channel is closed.
func (p *Pipeline) Run(ctx context.Context, events <-chan model.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			p.Handle(ctx, ev)
		}
	}
}

func newEntryID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
