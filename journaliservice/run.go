// Package journaliservice wires configuration, storage, health and the HTTP
// surface into a running journali server.
package journaliservice

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/WesleyKlop/journali-api/internal/api"
	"github.com/WesleyKlop/journali-api/internal/auth"
	"github.com/WesleyKlop/journali-api/internal/config"
	"github.com/WesleyKlop/journali-api/internal/factory"
	"github.com/WesleyKlop/journali-api/internal/health"
	"github.com/WesleyKlop/journali-api/internal/services"
	"github.com/WesleyKlop/journali-api/internal/store"
	"github.com/WesleyKlop/journali-api/internal/store/sqlstore"
)

// Version is stamped at build time with -ldflags "-X ...journaliservice.Version=...".
var Version = "dev"

// Option customises a Run.
type Option func(*runOptions)

type runOptions struct {
	onListen func(net.Addr)
}

// OnListen is called with the bound address once the listener is open.
func OnListen(fn func(net.Addr)) Option {
	return func(o *runOptions) { o.onListen = fn }
}

// Run starts the journali HTTP server and blocks until ctx is cancelled or the
// server fails. Shutdown is bounded by cfg.ShutdownTimeout.
func Run(ctx context.Context, cfg *config.Config, log zerolog.Logger, opts ...Option) error {
	var o runOptions
	for _, fn := range opts {
		fn(&o)
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Str("version", Version).
		Msg("Journali service starting")

	st, err := initStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Warn().Err(err).Msg("closing store")
		}
	}()

	svcHealth := startHealthCheckers(ctx, cfg, log, st)
	router, err := buildRouter(st, cfg, log, svcHealth)
	if err != nil {
		return err
	}

	// Block startup until dependencies report healthy; fail fast otherwise
	if err := waitUntilHealthy(ctx, cfg, svcHealth); err != nil {
		log.Error().Stack().Err(err).Msg("startup health check failed")
		return err
	}

	ln, err := net.Listen("tcp", cfg.GetHTTPAddr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.GetHTTPAddr(), err)
	}
	if o.onListen != nil {
		o.onListen(ln.Addr())
	}

	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, ln, log)

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		return err
	}
}

func initStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*sqlstore.Store, error) {
	st, err := factory.NewStore(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Store adapter unavailable")
		return nil, err
	}
	return st, nil
}

// buildRouter constructs the services and hands them to the HTTP layer.
func buildRouter(st store.Store, cfg *config.Config, log zerolog.Logger, src api.HealthSource) (http.Handler, error) {
	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenIssuer, cfg.TokenTTL)
	if err != nil {
		return nil, err
	}
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)

	return api.NewRouter(api.Deps{
		Items:   services.NewItemService(st, services.WithLogger(log)),
		Users:   services.NewUserService(st, hasher, tokens),
		Tokens:  tokens,
		Lookup:  st.Users(),
		Health:  src,
		Log:     log,
		Version: Version,
	}), nil
}

// startHealthCheckers starts the store checker and the service-level aggregator.
func startHealthCheckers(ctx context.Context, cfg *config.Config, log zerolog.Logger, st store.Store) *health.Service {
	storeChecker := store.NewStoreHealthChecker(st, log, cfg.HealthProbeTimeout)
	go storeChecker.Start(ctx, cfg.HealthInterval)

	svcHealth := health.NewService(log, storeChecker)
	go svcHealth.Start(ctx, cfg.HealthInterval)
	return svcHealth
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, ln net.Listener, log zerolog.Logger) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Stringer("addr", ln.Addr()).Msg("HTTP server starting")
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	return errCh
}

// startupHealthTimeout is twice the health interval, never less than 10 seconds.
func startupHealthTimeout(interval time.Duration) time.Duration {
	timeout := 2 * interval
	if timeout < 10*time.Second {
		return 10 * time.Second
	}
	return timeout
}

// waitUntilHealthy blocks until service health is healthy or the startup window expires.
func waitUntilHealthy(ctx context.Context, cfg *config.Config, svcHealth *health.Service) error {
	timeout := startupHealthTimeout(cfg.HealthInterval)
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		if svcHealth.Evaluate() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("startup aborted: dependencies not healthy within %s", timeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// NewServerContext returns a context that is cancelled on SIGINT/SIGTERM.
func NewServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
