package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/WesleyKlop/journali-api/internal/auth"
	"github.com/WesleyKlop/journali-api/internal/model"
	"github.com/WesleyKlop/journali-api/internal/store"
)

func newTestUserService(t *testing.T, s store.Store) (*UserService, *auth.TokenService) {
	t.Helper()
	tokens, err := auth.NewTokenService("test-secret", "journali.nl", 30*24*time.Hour)
	require.NoError(t, err)
	return NewUserService(s, auth.NewPasswordHasher(bcrypt.MinCost), tokens), tokens
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestStore(t)
	users, tokens := newTestUserService(t, s)
	ctx := context.Background()

	alice, err := users.Register(ctx, "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, "alice", alice.Username)
	assert.NotEqual(t, "pw", alice.PasswordHash)

	tok, err := users.Login(ctx, "alice", "pw")
	require.NoError(t, err)
	sub, err := tokens.Verify(tok.Token)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, sub)

	_, err = users.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, model.ErrUnauthorized)
	_, err = users.Login(ctx, "nobody", "pw")
	assert.ErrorIs(t, err, model.ErrUnauthorized)
}

func TestRegisterRejectsDuplicatesAndBadInput(t *testing.T) {
	s := newTestStore(t)
	users, _ := newTestUserService(t, s)
	ctx := context.Background()

	_, err := users.Register(ctx, "alice", "pw")
	require.NoError(t, err)
	_, err = users.Register(ctx, "alice", "other")
	assert.ErrorIs(t, err, model.ErrConflict)

	_, err = users.Register(ctx, "a", "pw")
	assert.True(t, model.IsValidationError(err))
	_, err = users.Register(ctx, "carol", "")
	assert.True(t, model.IsValidationError(err))
}

func TestUpdateSelf(t *testing.T) {
	s := newTestStore(t)
	users, _ := newTestUserService(t, s)
	ctx := context.Background()

	alice, err := users.Register(ctx, "alice", "pw")
	require.NoError(t, err)
	_, err = users.Register(ctx, "bob", "pw")
	require.NoError(t, err)

	updated, err := users.UpdateSelf(ctx, alice.ID, UserUpdate{Username: ptr("alice2"), Password: ptr("new-pw")})
	require.NoError(t, err)
	assert.Equal(t, "alice2", updated.Username)

	_, err = users.Login(ctx, "alice2", "pw")
	assert.ErrorIs(t, err, model.ErrUnauthorized)
	_, err = users.Login(ctx, "alice2", "new-pw")
	assert.NoError(t, err)

	_, err = users.UpdateSelf(ctx, alice.ID, UserUpdate{Username: ptr("bob")})
	assert.ErrorIs(t, err, model.ErrConflict)

	got, err := users.GetUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice2", got.Username)
}
