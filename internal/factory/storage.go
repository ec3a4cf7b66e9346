package factory

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/WesleyKlop/journali-api/internal/config"
	"github.com/WesleyKlop/journali-api/internal/store/postgres"
	"github.com/WesleyKlop/journali-api/internal/store/sqlite"
	"github.com/WesleyKlop/journali-api/internal/store/sqlstore"
)

// NewStore opens the store selected by cfg.DBDriver, applies pool limits and,
// when cfg.AutoMigrate is set, creates the schema.
func NewStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*sqlstore.Store, error) {
	var (
		db     *sql.DB
		err    error
		ensure func(context.Context, *sql.DB) error
		wrap   func(*sql.DB) *sqlstore.Store
	)

	switch cfg.DBDriver {
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("JOURNALI_DATABASE_URL is required when DB_DRIVER=postgres")
		}
		db, err = postgres.Open(ctx, cfg.DatabaseURL)
		ensure, wrap = postgres.EnsureSchema, postgres.NewWithDB
	case "sqlite":
		db, err = sqlite.Open(ctx, cfg.SQLitePath)
		ensure, wrap = sqlite.EnsureSchema, sqlite.NewWithDB
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER: %s", cfg.DBDriver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.DBDriver, err)
	}

	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DBConnMaxLifetime)

	if cfg.AutoMigrate {
		if err := ensure(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Debug().Str("driver", cfg.DBDriver).Msg("schema ensured")
	}

	log.Info().
		Str("driver", cfg.DBDriver).
		Int("max_open_conns", cfg.DBMaxOpenConns).
		Int("max_idle_conns", cfg.DBMaxIdleConns).
		Msg("store opened")

	return wrap(db), nil
}
