package state

import (
	"context"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func testBadger(t *testing.T) *BadgerStorage {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewBadgerStorage(db)
}

func TestBadgerStorageRoundTrip(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := testBadger(t)

	got, err := s.State(ctx, 5)
	req.NoError(err)
	req.Empty(got)

	req.NoError(s.SetState(ctx, 5, "signup:name"))
	got, err = s.State(ctx, 5)
	req.NoError(err)
	req.Equal("signup:name", got)

	req.NoError(s.SetData(ctx, 5, map[string]any{"name": "Ann", "age": float64(30)}))
	data, err := s.Data(ctx, 5)
	req.NoError(err)
	req.Equal("Ann", data["name"])
	req.Equal(float64(30), data["age"])

	req.NoError(s.Delete(ctx, 5))
	got, err = s.State(ctx, 5)
	req.NoError(err)
	req.Empty(got)
	data, err = s.Data(ctx, 5)
	req.NoError(err)
	req.Empty(data)
}

func TestBadgerStorageSurvivesMissingKeys(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := testBadger(t)

	data, err := s.Data(ctx, 999)
	req.NoError(err)
	req.Empty(data)
	req.NoError(s.Delete(ctx, 999))
}
