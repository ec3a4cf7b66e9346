package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/WesleyKlop/journali-api/internal/api/respond"
	"github.com/WesleyKlop/journali-api/internal/model"
)

// Gate outcomes reported to an Observer.
const (
	OutcomeBypassed      = "bypassed"
	OutcomeAuthenticated = "authenticated"
	OutcomeRejected      = "rejected"
	OutcomeError         = "error"
)

// UserLookup resolves a token subject to a user.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// Gate resolves the caller of every request that is not on the bypass list.
type Gate struct {
	tokens  *TokenService
	users   UserLookup
	bypass  map[string]struct{}
	observe func(outcome string)
}

// GateOption customises a Gate.
type GateOption func(*Gate)

// WithBypass lets requests for the exact paths through unauthenticated.
func WithBypass(paths ...string) GateOption {
	return func(g *Gate) {
		for _, p := range paths {
			g.bypass[p] = struct{}{}
		}
	}
}

// WithObserver registers a callback invoked with each request's outcome.
func WithObserver(fn func(outcome string)) GateOption {
	return func(g *Gate) { g.observe = fn }
}

func NewGate(tokens *TokenService, users UserLookup, opts ...GateOption) *Gate {
	g := &Gate{
		tokens:  tokens,
		users:   users,
		bypass:  map[string]struct{}{},
		observe: func(string) {},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Authenticate verifies bearer and loads its subject. A bad token or a
// subject that no longer exists yields model.ErrUnauthorized; a failing
// user store is returned as is.
func (g *Gate) Authenticate(ctx context.Context, bearer string) (*model.User, error) {
	if bearer == "" {
		return nil, model.ErrUnauthorized
	}
	subject, err := g.tokens.Verify(bearer)
	if err != nil {
		return nil, model.ErrUnauthorized
	}
	u, err := g.users.GetByID(ctx, subject)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.ErrUnauthorized
		}
		return nil, fmt.Errorf("load caller: %w", err)
	}
	return u, nil
}

// Middleware rejects unauthenticated requests with 401 and stores the caller
// on the request context otherwise.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := g.bypass[r.URL.Path]; ok {
			g.observe(OutcomeBypassed)
			next.ServeHTTP(w, r)
			return
		}

		logger := hlog.FromRequest(r)
		token, err := ExtractBearer(r)
		if err != nil {
			g.observe(OutcomeRejected)
			logger.Debug().Err(err).Msg("request rejected")
			respond.WriteUnauthorized(w)
			return
		}

		u, err := g.Authenticate(r.Context(), token)
		switch {
		case errors.Is(err, model.ErrUnauthorized):
			g.observe(OutcomeRejected)
			logger.Debug().Msg("request rejected: invalid token or unknown subject")
			respond.WriteUnauthorized(w)
			return
		case err != nil:
			g.observe(OutcomeError)
			respond.WriteServiceError(w, r, err)
			return
		}

		g.observe(OutcomeAuthenticated)
		next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), u)))
	})
}
