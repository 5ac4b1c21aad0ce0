package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mchkv/vkbot/internal/testutil/testlog"
)

func TestGroupsGetByIDWrappedShape(t *testing.T) {
	testlog.Start(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":{"groups":[{"id":187037543,"name":"Test Club","screen_name":"testclub"}]}}`))
	}))
	defer srv.Close()

	c := testClient(t, srv)
	g, err := c.GroupsGetByID(context.Background())
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if g.ID != 187037543 || g.ScreenName != "testclub" {
		t.Fatalf("unexpected group: %+v", g)
	}
}

func TestGroupsGetByIDBareListShape(t *testing.T) {
	testlog.Start(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":[{"id":5,"name":"Old Shape"}]}`))
	}))
	defer srv.Close()

	c := testClient(t, srv)
	g, err := c.GroupsGetByID(context.Background())
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if g.ID != 5 {
		t.Fatalf("unexpected group: %+v", g)
	}
}

func TestGroupsGetByIDNoGroups(t *testing.T) {
	testlog.Start(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":{"groups":[]}}`))
	}))
	defer srv.Close()

	c := testClient(t, srv)
	if _, err := c.GroupsGetByID(context.Background()); !errors.Is(err, ErrNoGroups) {
		t.Fatalf("expected ErrNoGroups, got %v", err)
	}
}
