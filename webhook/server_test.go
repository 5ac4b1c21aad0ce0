package webhook

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	vkbot "github.com/mchkv/vkbot"
	"github.com/mchkv/vkbot/internal/testutil/testlog"
)

type recordingDispatcher struct {
	updates []*vkbot.Update
	err     error
}

func (d *recordingDispatcher) ProcessUpdate(_ context.Context, u *vkbot.Update) error {
	d.updates = append(d.updates, u)
	return d.err
}

func testServer(t *testing.T, cfg Config, d Dispatcher) *httptest.Server {
	t.Helper()
	if cfg.Confirmation == "" {
		cfg.Confirmation = "confirm-me"
	}
	s, err := New(d, cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, path, body string) (int, string) {
	t.Helper()
	resp, err := srv.Client().Post(srv.URL+path, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(data)
}

func TestNewValidatesConfig(t *testing.T) {
	if _, err := New(&recordingDispatcher{}, Config{}); !errors.Is(err, ErrConfirmationRequired) {
		t.Fatalf("expected ErrConfirmationRequired, got %v", err)
	}
	if _, err := New(nil, Config{Confirmation: "x"}); !errors.Is(err, ErrDispatcherRequired) {
		t.Fatalf("expected ErrDispatcherRequired, got %v", err)
	}
}

func TestConfirmationProbe(t *testing.T) {
	testlog.Start(t)
	d := &recordingDispatcher{}
	srv := testServer(t, Config{Confirmation: "answer-42"}, d)

	status, body := post(t, srv, "/callback", `{"type":"confirmation","group_id":5}`)
	if status != http.StatusOK || body != "answer-42" {
		t.Fatalf("unexpected confirmation reply: %d %q", status, body)
	}
	if len(d.updates) != 0 {
		t.Fatalf("confirmation must not reach the dispatcher")
	}
}

func TestSecretMismatchRejected(t *testing.T) {
	testlog.Start(t)
	d := &recordingDispatcher{}
	srv := testServer(t, Config{Secret: "good"}, d)

	status, _ := post(t, srv, "/callback", `{"type":"message_new","secret":"bad","object":{}}`)
	if status != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", status)
	}

	status, body := post(t, srv, "/callback", `{"type":"message_new","secret":"good","event_id":"e1","object":{}}`)
	if status != http.StatusOK || body != "ok" {
		t.Fatalf("valid secret must pass: %d %q", status, body)
	}
	if len(d.updates) != 1 {
		t.Fatalf("expected one dispatched update, got %d", len(d.updates))
	}
}

func TestEventDispatchAndDedupe(t *testing.T) {
	testlog.Start(t)
	d := &recordingDispatcher{}
	srv := testServer(t, Config{}, d)

	body := `{"type":"message_new","group_id":5,"event_id":"evt-1","object":{"message":{"peer_id":1}}}`
	for i := 0; i < 3; i++ {
		status, text := post(t, srv, "/callback", body)
		if status != http.StatusOK || text != "ok" {
			t.Fatalf("delivery %d: %d %q", i, status, text)
		}
	}

	if len(d.updates) != 1 {
		t.Fatalf("replays must be dropped, dispatched %d times", len(d.updates))
	}
	u := d.updates[0]
	if u.Type != "message_new" || u.EventID != "evt-1" || u.GroupID != 5 {
		t.Fatalf("unexpected update: %+v", u)
	}
}

func TestDispatcherErrorStillAnswersOK(t *testing.T) {
	testlog.Start(t)
	d := &recordingDispatcher{err: errors.New("handler exploded")}
	srv := testServer(t, Config{}, d)

	status, body := post(t, srv, "/callback", `{"type":"message_new","event_id":"e9","object":{}}`)
	if status != http.StatusOK || body != "ok" {
		t.Fatalf("handler failures must still answer ok: %d %q", status, body)
	}
}

func TestMalformedBodyRejected(t *testing.T) {
	testlog.Start(t)
	srv := testServer(t, Config{}, &recordingDispatcher{})

	status, _ := post(t, srv, "/callback", `{not json`)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
}

func TestHealthAndCustomPath(t *testing.T) {
	testlog.Start(t)
	d := &recordingDispatcher{}
	srv := testServer(t, Config{Path: "/vk/events"}, d)

	resp, err := srv.Client().Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("get healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected healthz status: %d", resp.StatusCode)
	}

	status, _ := post(t, srv, "/vk/events", `{"type":"message_new","event_id":"p1","object":{}}`)
	if status != http.StatusOK {
		t.Fatalf("custom path must serve callbacks: %d", status)
	}
	if len(d.updates) != 1 {
		t.Fatalf("expected dispatch on custom path")
	}
}

func TestDedupeSetTTL(t *testing.T) {
	d := newDedupeSet(time.Minute)
	base := time.Unix(1700000000, 0)
	d.now = func() time.Time { return base }

	if !d.Add("a") {
		t.Fatalf("first add must be new")
	}
	if d.Add("a") {
		t.Fatalf("replay within ttl must be dropped")
	}

	d.now = func() time.Time { return base.Add(2 * time.Minute) }
	if !d.Add("a") {
		t.Fatalf("expired id must be accepted again")
	}

	if !d.Add("") || !d.Add("") {
		t.Fatalf("empty ids are never deduped")
	}
}
