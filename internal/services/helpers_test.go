package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/WesleyKlop/journali-api/internal/model"
	"github.com/WesleyKlop/journali-api/internal/store"
	"github.com/WesleyKlop/journali-api/internal/store/sqlite"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	ctx := context.Background()
	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "services.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, sqlite.EnsureSchema(ctx, db))
	return sqlite.NewWithDB(db)
}

func mustUser(t *testing.T, s store.Store, username string) string {
	t.Helper()
	u, err := s.Users().Create(context.Background(), &model.User{Username: username, PasswordHash: "x"})
	require.NoError(t, err)
	return u.ID
}

// tickingClock advances one second per call so creation order is observable.
type tickingClock struct{ t time.Time }

func (c *tickingClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestItemService(t *testing.T, s store.Store) *ItemService {
	t.Helper()
	clock := &tickingClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	return NewItemService(s, WithClock(clock.Now))
}

func ptr[T any](v T) *T { return &v }
