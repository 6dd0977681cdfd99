// Package scheduler polls feeds and delivers their unseen items as inbound events.
package scheduler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"notif_organizer/internal/fetcher"
	"notif_organizer/internal/model"
)

// SeenStore remembers which feed items were already delivered.
type SeenStore interface {
	MarkSeen(ctx context.Context, source, guid string) error
	IsSeen(ctx context.Context, source, guid string) (bool, error)
}

// Scheduler periodically checks feeds and emits events for new items.
type Scheduler struct {
	urls    []string
	store   SeenStore
	fetcher *fetcher.Fetcher
	log     *slog.Logger
	tick    time.Duration
}

// New creates a Scheduler with the default HTTP client.
func New(urls []string, store SeenStore, log *slog.Logger) *Scheduler {
	return NewWithFetcher(urls, store, fetcher.New(http.DefaultClient), log)
}

// NewWithFetcher creates a Scheduler with a custom fetcher (useful for testing).
func NewWithFetcher(urls []string, store SeenStore, f *fetcher.Fetcher, log *slog.Logger) *Scheduler {
	return &Scheduler{
		urls:    urls,
		store:   store,
		fetcher: f,
		log:     log,
		tick:    15 * time.Minute,
	}
}

// SetTickInterval overrides the default 15-minute check interval.
func (s *Scheduler) SetTickInterval(d time.Duration) {
	s.tick = d
}

// Run starts the polling loop, blocking until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context, out chan<- model.Event) {
	s.checkAll(ctx, out)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.checkAll(ctx, out)
		}
	}
}

func (s *Scheduler) checkAll(ctx context.Context, out chan<- model.Event) {
	for _, url := range s.urls {
		if ctx.Err() != nil {
			return
		}
		s.processFeed(ctx, url, out)
	}
}

func (s *Scheduler) processFeed(ctx context.Context, url string, out chan<- model.Event) {
	s.log.Debug("checking feed", "url", url)

	feed, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		s.log.Error("fetch feed", "url", url, "error", err)
		return
	}

	delivered := 0
	for _, item := range feed.Items {
		ev := fetcher.ItemEvent(url, feed, item)

		seen, err := s.store.IsSeen(ctx, url, ev.Key)
		if err != nil {
			s.log.Error("check seen", "url", url, "guid", ev.Key, "error", err)
			continue
		}
		if seen {
			continue
		}

		select {
		case out <- ev:
		case <-ctx.Done():
			return
		}
		delivered++

		if err := s.store.MarkSeen(ctx, url, ev.Key); err != nil {
			s.log.Error("mark seen", "url", url, "guid", ev.Key, "error", err)
		}
	}

	if delivered > 0 {
		s.log.Info("delivered feed items", "url", url, "count", delivered)
	}
}
