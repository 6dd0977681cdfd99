package push

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"notif_organizer/internal/model"
)

type recordingPoster struct {
	got []int
	err error
}

func (p *recordingPoster) Post(_ context.Context, n model.Notification) error {
	p.got = append(p.got, n.ID)
	return p.err
}

func TestFanout(t *testing.T) {
	ok := &recordingPoster{}
	bad := &recordingPoster{err: errors.New("boom")}
	last := &recordingPoster{}

	err := Fanout{ok, bad, last}.Post(context.Background(), model.Notification{ID: 9})
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected joined error, got %v", err)
	}
	for _, p := range []*recordingPoster{ok, bad, last} {
		if diff := cmp.Diff([]int{9}, p.got); diff != "" {
			t.Errorf("delivered ids mismatch (-want +got):\n%s", diff)
		}
	}

	if err := (Fanout{ok}).Post(context.Background(), model.Notification{ID: 1}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestMirrorText(t *testing.T) {
	tests := []struct {
		name string
		n    model.Notification
		want string
	}{
		{name: "sender and body", n: model.Notification{Title: "Alice", Body: "hi"}, want: "Alice: hi"},
		{name: "no body", n: model.Notification{Title: "Unknown"}, want: "Unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, mirrorText(tt.n)); diff != "" {
				t.Errorf("mirrorText() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNewShoutrrrRejectsBadURLs(t *testing.T) {
	if _, err := NewShoutrrr(nil, time.Second); err == nil {
		t.Error("expected error for no URLs")
	}
	if _, err := NewShoutrrr([]string{"nosuchservice://host"}, time.Second); err == nil {
		t.Error("expected error for unknown service")
	}
}

func TestShoutrrrPost(t *testing.T) {
	var (
		mu     sync.Mutex
		bodies []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, string(b))
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	url := "generic://" + strings.TrimPrefix(srv.URL, "http://") + "/hook?disabletls=yes"
	s, err := NewShoutrrr([]string{url}, 2*time.Second)
	if err != nil {
		t.Fatalf("new shoutrrr: %v", err)
	}

	ctx := context.Background()
	if err := s.Post(ctx, model.Notification{ID: 0, Title: "Organized Notifications", Body: "New messages", IsSummary: true}); err != nil {
		t.Fatalf("post summary: %v", err)
	}
	if err := s.Post(ctx, model.Notification{ID: 5, Conversation: "Organized: com.chat.app", Title: "Alice", Body: "lunch?"}); err != nil {
		t.Fatalf("post conversation: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if diff := cmp.Diff(1, len(bodies)); diff != "" {
		t.Fatalf("request count mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(bodies[0], "Alice: lunch?") {
		t.Errorf("body missing message, got %q", bodies[0])
	}
}

func TestShoutrrrPostCancelled(t *testing.T) {
	s, err := NewShoutrrr([]string{"generic://127.0.0.1:1/hook?disabletls=yes"}, time.Second)
	if err != nil {
		t.Fatalf("new shoutrrr: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Post(ctx, model.Notification{ID: 1, Title: "x"}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
