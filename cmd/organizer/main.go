package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"notif_organizer/internal/bot"
	"notif_organizer/internal/config"
	"notif_organizer/internal/filter"
	"notif_organizer/internal/history"
	"notif_organizer/internal/listener"
	"notif_organizer/internal/model"
	"notif_organizer/internal/pipeline"
	"notif_organizer/internal/push"
	"notif_organizer/internal/scheduler"
	"notif_organizer/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error("create data directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}

	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		log.Error("open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rules := filter.NewStore(store, log)
	if err := rules.Load(ctx); err != nil {
		log.Error("load filter rules", "error", err)
		os.Exit(1)
	}
	journal := history.New(store, log)
	entries, err := journal.Load(ctx)
	if err != nil {
		log.Error("load notification log", "error", err)
		os.Exit(1)
	}
	log.Info("state loaded", "log_entries", len(entries), "allowed_sources", len(rules.Config().AllowedSources))

	b, err := bot.New(cfg.TelegramBotToken, rules, journal, cfg, log)
	if err != nil {
		log.Error("create bot", "error", err)
		os.Exit(1)
	}

	var poster pipeline.Poster = b
	if len(cfg.ShoutrrrURLs) > 0 {
		mirror, err := push.NewShoutrrr(cfg.ShoutrrrURLs, push.DefaultTimeout)
		if err != nil {
			log.Error("create push mirror", "error", err)
			os.Exit(1)
		}
		poster = push.Fanout{b, mirror}
	}

	events, err := openEvents(cfg.EventsPath)
	if err != nil {
		log.Error("open events", "path", cfg.EventsPath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = events.Close() }()

	dismissOut, err := openDismiss(cfg.DismissPath)
	if err != nil {
		log.Error("open dismiss output", "path", cfg.DismissPath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = dismissOut.Close() }()

	p := pipeline.New(cfg.SelfSourceID, rules, journal, poster, listener.NewDismisser(dismissOut), log)

	inbound := make(chan model.Event, 64)

	log.Info("starting organizer", "self_source_id", cfg.SelfSourceID, "feeds", len(cfg.FeedURLs))

	go func() {
		if err := listener.NewSource(events, log).Run(ctx, inbound); err != nil && ctx.Err() == nil {
			log.Error("event listener stopped", "error", err)
			return
		}
		log.Info("event stream ended")
	}()

	if len(cfg.FeedURLs) > 0 {
		sched := scheduler.New(cfg.FeedURLs, store, log)
		sched.SetTickInterval(cfg.FeedInterval)
		go sched.Run(ctx, inbound)
	}

	go watch(ctx, log, "filter rules changed", rules.Subscribe)
	go watch(ctx, log, "notification log changed", journal.Subscribe)

	go p.Run(ctx, inbound)

	b.Run(ctx)

	log.Info("organizer stopped")
}

// watch logs every change signal until ctx is cancelled.
func watch(ctx context.Context, log *slog.Logger, msg string, subscribe func() (<-chan struct{}, func())) {
	changes, cancel := subscribe()
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
			log.Debug(msg)
		}
	}
}

func openEvents(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

func openDismiss(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o640)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
