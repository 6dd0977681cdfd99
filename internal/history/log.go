// Package history keeps the newest-first log of accepted notifications.
package history

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"notif_organizer/internal/broadcast"
	"notif_organizer/internal/model"
	"notif_organizer/internal/storage"
)

// KeyEntries is the storage key holding the serialized records.
const KeyEntries = "notifications_list"

// Log is the in-memory notification log, persisted as an unordered set of
// records. Order is re-derived from timestamps on Load; Append only prepends.
type Log struct {
	kv  storage.Storage
	log *slog.Logger
	bus *broadcast.Broadcaster

	mu      sync.RWMutex
	loaded  bool
	entries []model.LogEntry
}

// New creates an unloaded Log. Load must be called before any other method.
func New(kv storage.Storage, log *slog.Logger) *Log {
	return &Log{
		kv:  kv,
		log: log,
		bus: broadcast.New(),
	}
}

// Load replaces the in-memory log with the persisted records sorted newest
// first. Malformed records are skipped.
func (l *Log) Load(ctx context.Context) ([]model.LogEntry, error) {
	raw, err := l.kv.StringSet(ctx, KeyEntries)
	if err != nil {
		return nil, fmt.Errorf("load log records: %w", err)
	}

	entries := make([]model.LogEntry, 0, len(raw))
	for _, r := range raw {
		e, err := Decode(r)
		if err != nil {
			l.log.Warn("skip log record", "error", err)
			continue
		}
		entries = append(entries, e)
	}
	slices.SortStableFunc(entries, newestFirst)

	l.mu.Lock()
	l.entries = entries
	l.loaded = true
	l.mu.Unlock()

	l.bus.Publish()
	return slices.Clone(entries), nil
}

// Append puts e at the head of the log and persists the whole log.
// The in-memory append stands even when the write fails.
func (l *Log) Append(ctx context.Context, e model.LogEntry) error {
	l.mu.Lock()
	l.mustBeLoaded()
	l.entries = slices.Insert(l.entries, 0, e)
	err := l.save(ctx)
	l.mu.Unlock()

	l.bus.Publish()
	if err != nil {
		return fmt.Errorf("persist log: %w", err)
	}
	return nil
}

// Entries returns a copy of the log, most recently processed first.
func (l *Log) Entries() []model.LogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.mustBeLoaded()
	return slices.Clone(l.entries)
}

// Len returns the number of entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.mustBeLoaded()
	return len(l.entries)
}

// Subscribe returns a channel signalled whenever the log changes.
func (l *Log) Subscribe() (<-chan struct{}, func()) {
	return l.bus.Subscribe()
}

func (l *Log) save(ctx context.Context) error {
	records := make([]string, 0, len(l.entries))
	for _, e := range l.entries {
		r, err := Encode(e)
		if err != nil {
			return err
		}
		records = append(records, r)
	}
	return l.kv.PutStringSet(ctx, KeyEntries, records)
}

func (l *Log) mustBeLoaded() {
	if !l.loaded {
		panic("history: log used before Load")
	}
}

func newestFirst(a, b model.LogEntry) int {
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(b.ID, a.ID)
}
