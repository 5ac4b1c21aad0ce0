package longpoll

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mchkv/vkbot/api"
	"github.com/mchkv/vkbot/internal/testutil/testlog"
)

// lpFixture emulates both the method host and the long poll host. The
// a_check script decides each cycle's answer from the ts cursor.
type lpFixture struct {
	srv    *httptest.Server
	grants atomic.Int32
	script func(ts string) string
}

func newLPFixture(t *testing.T, script func(ts string) string) *lpFixture {
	t.Helper()
	f := &lpFixture{script: script}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/method/groups.getLongPollServer":
			f.grants.Add(1)
			fmt.Fprintf(w, `{"response":{"server":"%s/lp","key":"k","ts":"1"}}`, f.srv.URL)
		case r.URL.Path == "/lp":
			fmt.Fprint(w, f.script(r.URL.Query().Get("ts")))
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *lpFixture) poller(t *testing.T, groupID int64) *Poller {
	t.Helper()
	client, err := api.NewClient("tok", api.Config{
		BaseURL:     f.srv.URL + "/method/",
		MaxAttempts: 1,
		HTTPClient:  f.srv.Client(),
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return New(client, groupID, Config{
		Wait: time.Second,
		Backoff: api.BackoffConfig{
			InitialDelay: time.Millisecond,
			Multiplier:   1.0,
			MaxDelay:     time.Millisecond,
		},
	})
}

func TestPollerDispatchesUpdates(t *testing.T) {
	testlog.Start(t)

	f := newLPFixture(t, func(ts string) string {
		if ts == "1" {
			return `{"ts":"2","updates":[
				{"type":"message_new","event_id":"e1","group_id":5,"object":{"x":1}},
				{"type":"","object":{}},
				{"type":"message_event","event_id":"e2","object":{"y":2}}
			]}`
		}
		return `{"ts":"` + ts + `","updates":[]}`
	})

	ctx, cancel := context.WithCancel(context.Background())
	var got []Event
	err := f.poller(t, 5).Run(ctx, func(_ context.Context, ev Event) {
		got = append(got, ev)
		if len(got) == 2 {
			cancel()
		}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("run must end with ctx error, got %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].Type != "message_new" || got[0].EventID != "e1" {
		t.Fatalf("unexpected first event: %+v", got[0])
	}
	if got[1].Type != "message_event" {
		t.Fatalf("unexpected second event: %+v", got[1])
	}
}

func TestPollerAdvancesTSCursor(t *testing.T) {
	testlog.Start(t)

	var lastTS atomic.Value
	f := newLPFixture(t, func(ts string) string {
		lastTS.Store(ts)
		n, _ := strconv.Atoi(ts)
		return fmt.Sprintf(`{"ts":"%d","updates":[{"type":"message_new","object":{}}]}`, n+1)
	})

	ctx, cancel := context.WithCancel(context.Background())
	seen := 0
	_ = f.poller(t, 5).Run(ctx, func(_ context.Context, ev Event) {
		seen++
		if seen == 2 {
			cancel()
		}
	})

	// Cycle one polls at ts=1, cycle two must poll at the returned ts=2.
	if ts, _ := lastTS.Load().(string); ts != "2" {
		t.Fatalf("ts cursor must advance with each cycle, last seen %q", ts)
	}
}

func TestPollerStaleTSRepeatsWithNewCursor(t *testing.T) {
	testlog.Start(t)

	f := newLPFixture(t, func(ts string) string {
		if ts == "1" {
			return `{"failed":1,"ts":"9"}`
		}
		return `{"ts":"10","updates":[{"type":"message_new","event_id":"ok","object":{}}]}`
	})

	ctx, cancel := context.WithCancel(context.Background())
	var got []Event
	_ = f.poller(t, 5).Run(ctx, func(_ context.Context, ev Event) {
		got = append(got, ev)
		cancel()
	})

	if len(got) != 1 || got[0].EventID != "ok" {
		t.Fatalf("stale ts must retry with the fresh cursor, got %+v", got)
	}
	if f.grants.Load() != 1 {
		t.Fatalf("stale ts must not re-request the grant, got %d grants", f.grants.Load())
	}
}

func TestPollerKeyExpiryRequestsNewGrant(t *testing.T) {
	testlog.Start(t)

	first := atomic.Bool{}
	f := newLPFixture(t, func(ts string) string {
		if first.CompareAndSwap(false, true) {
			return `{"failed":2}`
		}
		return `{"ts":"2","updates":[{"type":"message_new","event_id":"after","object":{}}]}`
	})

	ctx, cancel := context.WithCancel(context.Background())
	var got []Event
	_ = f.poller(t, 5).Run(ctx, func(_ context.Context, ev Event) {
		got = append(got, ev)
		cancel()
	})

	if len(got) != 1 || got[0].EventID != "after" {
		t.Fatalf("expected dispatch after regrant, got %+v", got)
	}
	if f.grants.Load() != 2 {
		t.Fatalf("key expiry must re-request the grant, got %d grants", f.grants.Load())
	}
}

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{}.WithDefaults()
	if cfg.Wait != api.DefaultLongPollWait {
		t.Fatalf("unexpected wait default: %v", cfg.Wait)
	}
	if cfg.Backoff.InitialDelay <= 0 {
		t.Fatalf("backoff defaults must apply")
	}

	custom := Config{Wait: 5 * time.Second}.WithDefaults()
	if custom.Wait != 5*time.Second {
		t.Fatalf("explicit wait must survive defaults: %v", custom.Wait)
	}
}
