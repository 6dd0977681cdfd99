package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.uber.org/goleak"

	"notif_organizer/internal/filter"
	"notif_organizer/internal/history"
	"notif_organizer/internal/model"
	"notif_organizer/internal/storage"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// --- fakes ---

type mockPoster struct {
	mu     sync.Mutex
	posted []model.Notification
	err    error
}

func (m *mockPoster) Post(_ context.Context, n model.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posted = append(m.posted, n)
	return m.err
}

func (m *mockPoster) getPosted() []model.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]model.Notification, len(m.posted))
	copy(cp, m.posted)
	return cp
}

type mockDismisser struct {
	keys []string
	err  error
}

func (m *mockDismisser) Dismiss(_ context.Context, key string) error {
	m.keys = append(m.keys, key)
	return m.err
}

// --- helpers ---

const selfID = "notif_organizer"

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	rules     *filter.Store
	journal   *history.Log
	poster    *mockPoster
	dismisser *mockDismisser
	p         *Pipeline
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	kv, err := storage.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = kv.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	rules := filter.NewStore(kv, log)
	if err := rules.Load(ctx); err != nil {
		t.Fatalf("load rules: %v", err)
	}
	journal := history.New(kv, log)
	if _, err := journal.Load(ctx); err != nil {
		t.Fatalf("load log: %v", err)
	}

	f := &fixture{
		rules:     rules,
		journal:   journal,
		poster:    &mockPoster{},
		dismisser: &mockDismisser{},
	}
	f.p = New(selfID, rules, journal, f.poster, f.dismisser, log)
	f.p.SetClock(func() time.Time { return fixedNow })
	return f
}

func ptr(s string) *string { return &s }

func event(source, title, content string) model.Event {
	return model.Event{
		SourceID:        source,
		Title:           ptr(title),
		Content:         ptr(content),
		OriginalEventID: 11,
		Key:             "0|" + source + "|11|null|10001",
	}
}

var ignoreEntryID = cmpopts.IgnoreFields(model.LogEntry{}, "ID")

// --- tests ---

func TestHandleKeywordRejects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	if err := f.rules.AddKeyword(ctx, "spam"); err != nil {
		t.Fatalf("add keyword: %v", err)
	}

	got := f.p.Handle(ctx, event("com.chat.app", "Alice", "hey, free spam offer"))

	if diff := cmp.Diff(OutcomeRejected, got); diff != "" {
		t.Errorf("outcome mismatch (-want +got):\n%s", diff)
	}
	if n := f.journal.Len(); n != 0 {
		t.Errorf("log has %d entries, want 0", n)
	}
	if n := len(f.poster.getPosted()); n != 0 {
		t.Errorf("posted %d notifications, want 0", n)
	}
}

func TestHandleAccepted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	if err := f.rules.AddKeyword(ctx, "spam"); err != nil {
		t.Fatalf("add keyword: %v", err)
	}

	got := f.p.Handle(ctx, event("com.chat.app", "Alice", "hello there"))

	if diff := cmp.Diff(OutcomeAccepted, got); diff != "" {
		t.Errorf("outcome mismatch (-want +got):\n%s", diff)
	}

	wantEntries := []model.LogEntry{{
		SourceID:        "com.chat.app",
		SenderLabel:     "Alice",
		MessageText:     "hello there",
		OriginalEventID: 11,
		CreatedAt:       fixedNow,
	}}
	entries := f.journal.Entries()
	if diff := cmp.Diff(wantEntries, entries, ignoreEntryID); diff != "" {
		t.Errorf("log entries mismatch (-want +got):\n%s", diff)
	}
	if entries[0].ID == "" {
		t.Error("expected a generated entry id")
	}

	wantPosts := []model.Notification{
		{
			ID:           ConversationID(11, "com.chat.app", "Alice"),
			GroupKey:     GroupKey,
			Conversation: "Organized: com.chat.app",
			Title:        "Alice",
			Body:         "hello there",
		},
		Summary(),
	}
	if diff := cmp.Diff(wantPosts, f.poster.getPosted()); diff != "" {
		t.Errorf("posts mismatch (-want +got):\n%s", diff)
	}
	if n := len(f.dismisser.keys); n != 0 {
		t.Errorf("dismissed %d originals with flag off, want 0", n)
	}
}

func TestHandleSelfEventHasNoSideEffects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	if err := f.rules.SetDismissOriginal(ctx, true); err != nil {
		t.Fatalf("set dismiss: %v", err)
	}

	got := f.p.Handle(ctx, event(selfID, "Organized Notifications", "New messages"))

	if diff := cmp.Diff(OutcomeSelf, got); diff != "" {
		t.Errorf("outcome mismatch (-want +got):\n%s", diff)
	}
	if n := f.journal.Len(); n != 0 {
		t.Errorf("log has %d entries, want 0", n)
	}
	if n := len(f.poster.getPosted()); n != 0 {
		t.Errorf("posted %d notifications, want 0", n)
	}
	if n := len(f.dismisser.keys); n != 0 {
		t.Errorf("dismissed %d originals, want 0", n)
	}
}

func TestHandleAllowList(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	if err := f.rules.ToggleSource(ctx, "com.chat.app"); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	if got := f.p.Handle(ctx, event("com.game", "Energy", "full")); got != OutcomeRejected {
		t.Errorf("unlisted source outcome = %v, want rejected", got)
	}
	if got := f.p.Handle(ctx, event("com.chat.app", "Alice", "hi")); got != OutcomeAccepted {
		t.Errorf("listed source outcome = %v, want accepted", got)
	}
	if n := f.journal.Len(); n != 1 {
		t.Errorf("log has %d entries, want 1", n)
	}
}

func TestHandleMissingFields(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.p.Handle(ctx, model.Event{SourceID: "com.chat.app", OriginalEventID: 0})

	entries := f.journal.Entries()
	if len(entries) != 1 {
		t.Fatalf("log has %d entries, want 1", len(entries))
	}
	if diff := cmp.Diff("Unknown", entries[0].SenderLabel); diff != "" {
		t.Errorf("sender mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff("", entries[0].MessageText); diff != "" {
		t.Errorf("message mismatch (-want +got):\n%s", diff)
	}
}

func TestHandlePlaceholderTitleIsFiltered(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	if err := f.rules.AddKeyword(ctx, "unknown"); err != nil {
		t.Fatalf("add keyword: %v", err)
	}

	got := f.p.Handle(ctx, model.Event{SourceID: "com.chat.app", Content: ptr("hi")})
	if diff := cmp.Diff(OutcomeRejected, got); diff != "" {
		t.Errorf("outcome mismatch (-want +got):\n%s", diff)
	}
}

func TestHandleDismissesOriginal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	if err := f.rules.SetDismissOriginal(ctx, true); err != nil {
		t.Fatalf("set dismiss: %v", err)
	}
	f.dismisser.err = errors.New("listener gone")

	ev := event("com.chat.app", "Alice", "hi")
	got := f.p.Handle(ctx, ev)

	if diff := cmp.Diff(OutcomeAccepted, got); diff != "" {
		t.Errorf("outcome mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{ev.Key}, f.dismisser.keys); diff != "" {
		t.Errorf("dismissed keys mismatch (-want +got):\n%s", diff)
	}
	if n := f.journal.Len(); n != 1 {
		t.Errorf("log has %d entries after failed dismiss, want 1", n)
	}
}

func TestHandlePostFailureKeepsLogEntry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.poster.err = errors.New("chat not found")

	got := f.p.Handle(ctx, event("com.chat.app", "Alice", "hi"))

	if diff := cmp.Diff(OutcomeAccepted, got); diff != "" {
		t.Errorf("outcome mismatch (-want +got):\n%s", diff)
	}
	if n := f.journal.Len(); n != 1 {
		t.Errorf("log has %d entries, want 1", n)
	}
	// Both posts are attempted exactly once.
	if n := len(f.poster.getPosted()); n != 2 {
		t.Errorf("post attempts = %d, want 2", n)
	}
}

func TestHandleSameConversationReusesID(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.p.Handle(ctx, event("com.chat.app", "Alice", "one"))
	f.p.Handle(ctx, event("com.chat.app", "Alice", "two"))
	f.p.Handle(ctx, event("com.chat.app", "Bob", "three"))

	posted := f.poster.getPosted()
	if len(posted) != 6 {
		t.Fatalf("posted %d notifications, want 6", len(posted))
	}
	if posted[0].ID != posted[2].ID {
		t.Errorf("same conversation got ids %d and %d", posted[0].ID, posted[2].ID)
	}
	if posted[0].ID == posted[4].ID {
		t.Errorf("different senders share id %d", posted[0].ID)
	}
	if diff := cmp.Diff([]string{"three", "two", "one"}, messages(f.journal.Entries())); diff != "" {
		t.Errorf("log order mismatch (-want +got):\n%s", diff)
	}
}

func messages(entries []model.LogEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.MessageText
	}
	return out
}

func TestRunProcessesInOrder(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan model.Event)
	done := make(chan struct{})
	go func() {
		f.p.Run(ctx, events)
		close(done)
	}()

	for _, msg := range []string{"a", "b", "c"} {
		events <- event("com.chat.app", "Alice", msg)
	}
	close(events)
	<-done

	if diff := cmp.Diff([]string{"c", "b", "a"}, messages(f.journal.Entries())); diff != "" {
		t.Errorf("log order mismatch (-want +got):\n%s", diff)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		f.p.Run(ctx, make(chan model.Event))
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
