package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/WesleyKlop/journali-api/internal/api/recovery"
	"github.com/WesleyKlop/journali-api/internal/auth"
	"github.com/WesleyKlop/journali-api/internal/metrics"
	"github.com/WesleyKlop/journali-api/internal/services"
)

// Paths reachable without a bearer token.
const (
	PathRegister = "/api/register"
	PathLogin    = "/api/login"
	PathHealth   = "/api/health"
	PathVersion  = "/api/version"
	PathMetrics  = "/metrics"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Items   *services.ItemService
	Users   *services.UserService
	Tokens  *auth.TokenService
	Lookup  auth.UserLookup
	Health  HealthSource
	Log     zerolog.Logger
	Version string
}

// NewRouter builds the HTTP surface: request logging, panic recovery,
// metrics and the auth gate, then one route group per item kind.
func NewRouter(d Deps) *mux.Router {
	root := mux.NewRouter()

	gate := auth.NewGate(d.Tokens, d.Lookup,
		auth.WithBypass(PathRegister, PathLogin, PathHealth, PathVersion, PathMetrics),
		auth.WithObserver(metrics.ObserveAuth),
	)

	root.Use(
		hlog.NewHandler(d.Log),
		hlog.RequestIDHandler("req_id", "X-Request-Id"),
		hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
			hlog.FromRequest(r).Info().
				Str("method", r.Method).
				Stringer("url", r.URL).
				Int("status", status).
				Int("size", size).
				Dur("duration", duration).
				Msg("request")
		}),
		recovery.Middleware,
		metrics.Middleware,
		gate.Middleware,
	)

	// Public
	users := NewUserHandler(d.Users)
	root.HandleFunc(PathRegister, users.Register).Methods(http.MethodPost)
	root.HandleFunc(PathLogin, users.Login).Methods(http.MethodPost)
	root.HandleFunc(PathHealth, NewHealthHandler(d.Health).CheckHealth).Methods(http.MethodGet)
	root.HandleFunc(PathVersion, VersionHandler(d.Version)).Methods(http.MethodGet)
	root.Handle(PathMetrics, metrics.Handler()).Methods(http.MethodGet)

	// Account
	root.HandleFunc("/api/users/me", users.Me).Methods(http.MethodGet)
	root.HandleFunc("/api/users/me", users.UpdateMe).Methods(http.MethodPatch)

	// Items
	items := NewItemsHandler(d.Items)
	root.HandleFunc("/api/items", items.List).Methods(http.MethodGet)
	registerKind(root, d.Items, services.Pages)
	registerKind(root, d.Items, services.Todos)
	registerKind(root, d.Items, services.TodoItems)
	registerKind(root, d.Items, services.TextFields)

	return root
}
