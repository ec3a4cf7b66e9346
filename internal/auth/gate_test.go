package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WesleyKlop/journali-api/internal/model"
)

type stubUsers struct {
	users map[string]*model.User
	err   error
}

func (s *stubUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return u, nil
}

func TestExtractBearer(t *testing.T) {
	cases := []struct {
		header string
		token  string
		err    error
	}{
		{"", "", ErrMissingToken},
		{"Bearer abc", "abc", nil},
		{"bearer abc", "abc", nil},
		{"Basic abc", "", ErrMalformedHeader},
		{"Bearer", "", ErrMalformedHeader},
		{"Bearer a b", "", ErrMalformedHeader},
	}
	for _, tc := range cases {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			r.Header.Set("Authorization", tc.header)
		}
		tok, err := ExtractBearer(r)
		assert.Equal(t, tc.token, tok, tc.header)
		assert.ErrorIs(t, err, tc.err, tc.header)
	}
}

func newTestGate(t *testing.T, users *stubUsers, outcomes *[]string) (*Gate, *TokenService) {
	t.Helper()
	clock := &fakeClock{t: time.Now()}
	tokens := newTestTokens(t, clock)
	gate := NewGate(tokens, users,
		WithBypass("/api/login", "/api/register"),
		WithObserver(func(o string) { *outcomes = append(*outcomes, o) }),
	)
	return gate, tokens
}

func TestGateMiddleware(t *testing.T) {
	alice := &model.User{ID: "alice-id", Username: "alice"}
	users := &stubUsers{users: map[string]*model.User{alice.ID: alice}}
	var outcomes []string
	gate, tokens := newTestGate(t, users, &outcomes)

	var seen *model.User
	h := gate.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = CallerFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	valid, err := tokens.Issue(alice.ID)
	require.NoError(t, err)
	ghost, err := tokens.Issue("deleted-user")
	require.NoError(t, err)

	cases := []struct {
		name    string
		path    string
		header  string
		status  int
		caller  *model.User
		outcome string
	}{
		{"bypass", "/api/login", "", http.StatusNoContent, nil, OutcomeBypassed},
		{"missing token", "/api/items", "", http.StatusUnauthorized, nil, OutcomeRejected},
		{"malformed header", "/api/items", "Token x", http.StatusUnauthorized, nil, OutcomeRejected},
		{"bad token", "/api/items", "Bearer nope", http.StatusUnauthorized, nil, OutcomeRejected},
		{"unknown subject", "/api/items", "Bearer " + ghost.Token, http.StatusUnauthorized, nil, OutcomeRejected},
		{"authenticated", "/api/items", "Bearer " + valid.Token, http.StatusNoContent, alice, OutcomeAuthenticated},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seen = nil
			outcomes = outcomes[:0]
			r := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, r)

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.caller, seen)
			assert.Equal(t, []string{tc.outcome}, outcomes)
		})
	}
}

func TestGateStoreFailureIsInternal(t *testing.T) {
	users := &stubUsers{err: model.NewStorageError("users.get", errors.New("db down"))}
	var outcomes []string
	gate, tokens := newTestGate(t, users, &outcomes)

	tok, err := tokens.Issue("someone")
	require.NoError(t, err)

	_, err = gate.Authenticate(context.Background(), tok.Token)
	assert.ErrorIs(t, err, model.ErrStorage)

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/items", nil)
	r.Header.Set("Authorization", "Bearer "+tok.Token)
	gate.Middleware(http.NotFoundHandler()).ServeHTTP(rec, r)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, []string{OutcomeError}, outcomes)
}

func TestAuthenticateEmptyBearer(t *testing.T) {
	var outcomes []string
	gate, _ := newTestGate(t, &stubUsers{}, &outcomes)
	_, err := gate.Authenticate(context.Background(), "")
	assert.ErrorIs(t, err, model.ErrUnauthorized)
}
