package auth

import (
	"context"

	"github.com/WesleyKlop/journali-api/internal/model"
)

type callerKey struct{}

// WithCaller stores the authenticated user on ctx.
func WithCaller(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, callerKey{}, u)
}

// CallerFrom returns the user stored by the gate, if any.
func CallerFrom(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(callerKey{}).(*model.User)
	return u, ok && u != nil
}
