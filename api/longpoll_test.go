package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mchkv/vkbot/internal/testutil/testlog"
)

func TestGroupsGetLongPollServer(t *testing.T) {
	testlog.Start(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("group_id") != "187037543" {
			t.Errorf("unexpected group_id: %q", r.URL.Query().Get("group_id"))
		}
		w.Write([]byte(`{"response":{"server":"https://lp.vk.com/wh187037543","key":"abc","ts":"10"}}`))
	}))
	defer srv.Close()

	c := testClient(t, srv)
	grant, err := c.GroupsGetLongPollServer(context.Background(), 187037543)
	if err != nil {
		t.Fatalf("get server: %v", err)
	}
	if grant.Server != "https://lp.vk.com/wh187037543" || grant.Key != "abc" || grant.TS != "10" {
		t.Fatalf("unexpected grant: %+v", grant)
	}
}

func TestGroupsGetLongPollServerIncompleteGrant(t *testing.T) {
	testlog.Start(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":{"server":"","key":"","ts":"10"}}`))
	}))
	defer srv.Close()

	c := testClient(t, srv)
	if _, err := c.GroupsGetLongPollServer(context.Background(), 1); err == nil {
		t.Fatalf("expected error for incomplete grant")
	}
}

func TestLongPollWait(t *testing.T) {
	testlog.Start(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("act") != "a_check" || q.Get("key") != "k" || q.Get("ts") != "5" {
			t.Errorf("unexpected a_check query: %v", q)
		}
		if q.Get("wait") != "2" {
			t.Errorf("unexpected wait: %q", q.Get("wait"))
		}
		w.Write([]byte(`{"ts":"6","updates":[{"type":"message_new"}]}`))
	}))
	defer srv.Close()

	c := testClient(t, srv)
	resp, err := c.LongPollWait(context.Background(), &LongPollServer{
		Server: srv.URL,
		Key:    "k",
		TS:     "5",
	}, 2*time.Second)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if resp.Failed != LongPollOK {
		t.Fatalf("unexpected failed code: %d", resp.Failed)
	}
	if resp.TS != "6" || len(resp.Updates) != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestLongPollWaitFailedCode(t *testing.T) {
	testlog.Start(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"failed":2}`))
	}))
	defer srv.Close()

	c := testClient(t, srv)
	resp, err := c.LongPollWait(context.Background(), &LongPollServer{Server: srv.URL, Key: "k", TS: "1"}, time.Second)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if resp.Failed != LongPollKeyExpired {
		t.Fatalf("unexpected failed code: %d", resp.Failed)
	}
}
