package filter

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"notif_organizer/internal/broadcast"
	"notif_organizer/internal/model"
	"notif_organizer/internal/storage"
)

// Persisted keys.
const (
	KeyAllowedSources  = "allowed_packages"
	KeyBlockedKeywords = "blocked_keywords"
	KeyDismissOriginal = "dismiss_original"
)

// Store holds the filtering rules in memory and writes every mutation through
// to storage. The in-memory change stands even when the write fails.
type Store struct {
	kv  storage.Storage
	log *slog.Logger
	bus *broadcast.Broadcaster

	mu       sync.RWMutex
	loaded   bool
	allowed  map[string]struct{}
	keywords map[string]struct{}
	dismiss  bool
}

// NewStore creates an unloaded Store. Load must be called before any other method.
func NewStore(kv storage.Storage, log *slog.Logger) *Store {
	return &Store{
		kv:  kv,
		log: log,
		bus: broadcast.New(),
	}
}

// Load reads the persisted rules.
func (s *Store) Load(ctx context.Context) error {
	allowed, err := s.kv.StringSet(ctx, KeyAllowedSources)
	if err != nil {
		return fmt.Errorf("load allowed sources: %w", err)
	}
	keywords, err := s.kv.StringSet(ctx, KeyBlockedKeywords)
	if err != nil {
		return fmt.Errorf("load blocked keywords: %w", err)
	}
	dismiss, err := s.kv.Bool(ctx, KeyDismissOriginal)
	if err != nil {
		return fmt.Errorf("load dismiss flag: %w", err)
	}

	s.mu.Lock()
	s.allowed = toSet(allowed)
	s.keywords = toSet(keywords)
	s.dismiss = dismiss
	s.loaded = true
	s.mu.Unlock()

	s.log.Debug("filter rules loaded", "sources", len(allowed), "keywords", len(keywords), "dismiss_original", dismiss)
	return nil
}

// Subscribe returns a channel signalled after every mutation.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	return s.bus.Subscribe()
}

// ToggleSource adds id to the allow-list, or removes it if already present.
func (s *Store) ToggleSource(ctx context.Context, id string) error {
	s.mu.Lock()
	s.mustBeLoaded()
	if _, ok := s.allowed[id]; ok {
		delete(s.allowed, id)
	} else {
		s.allowed[id] = struct{}{}
	}
	err := s.kv.PutStringSet(ctx, KeyAllowedSources, fromSet(s.allowed))
	s.mu.Unlock()

	s.bus.Publish()
	return s.writeErr("allowed sources", err)
}

// AddKeyword blocks text, stored lowercase. Blank text is ignored.
func (s *Store) AddKeyword(ctx context.Context, text string) error {
	s.mu.Lock()
	s.mustBeLoaded()
	k, ok := NormalizeKeyword(text)
	if !ok {
		s.mu.Unlock()
		return nil
	}
	s.keywords[k] = struct{}{}
	err := s.kv.PutStringSet(ctx, KeyBlockedKeywords, fromSet(s.keywords))
	s.mu.Unlock()

	s.bus.Publish()
	return s.writeErr("blocked keywords", err)
}

// RemoveKeyword unblocks text. It must match the stored lowercase form.
func (s *Store) RemoveKeyword(ctx context.Context, text string) error {
	s.mu.Lock()
	s.mustBeLoaded()
	delete(s.keywords, text)
	err := s.kv.PutStringSet(ctx, KeyBlockedKeywords, fromSet(s.keywords))
	s.mu.Unlock()

	s.bus.Publish()
	return s.writeErr("blocked keywords", err)
}

// SetDismissOriginal sets whether accepted originals are dismissed.
func (s *Store) SetDismissOriginal(ctx context.Context, flag bool) error {
	s.mu.Lock()
	s.mustBeLoaded()
	s.dismiss = flag
	err := s.kv.PutBool(ctx, KeyDismissOriginal, flag)
	s.mu.Unlock()

	s.bus.Publish()
	return s.writeErr("dismiss flag", err)
}

// DismissOriginal reports the current dismiss flag.
func (s *Store) DismissOriginal() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.mustBeLoaded()
	return s.dismiss
}

// Evaluate reports whether a notification is accepted by the current rules.
func (s *Store) Evaluate(sourceID, title, content string) bool {
	return Match(s.Config(), sourceID, title, content)
}

// Config returns a sorted snapshot of the current rules.
func (s *Store) Config() model.FilterConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.mustBeLoaded()
	return model.FilterConfig{
		AllowedSources:  fromSet(s.allowed),
		BlockedKeywords: fromSet(s.keywords),
		DismissOriginal: s.dismiss,
	}
}

func (s *Store) mustBeLoaded() {
	if !s.loaded {
		panic("filter: store used before Load")
	}
}

func (s *Store) writeErr(what string, err error) error {
	if err == nil {
		return nil
	}
	s.log.Error("persist filter rules", "key", what, "error", err)
	return fmt.Errorf("persist %s: %w", what, err)
}

func toSet(items []string) map[string]struct{} {
	m := make(map[string]struct{}, len(items))
	for _, it := range items {
		m[it] = struct{}{}
	}
	return m
}

func fromSet(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
