package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/WesleyKlop/journali-api/internal/store/sqlstore"
)

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// Dialect describes PostgreSQL for sqlstore.
var Dialect = sqlstore.Dialect{
	Name:   "postgres",
	Rebind: sqlstore.Dollar,
	IsUniqueViolation: func(err error) bool {
		var pgErr *pgconn.PgError
		return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
	},
}

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies connectivity.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB constructs a Postgres-backed store on an open pool.
func NewWithDB(db *sql.DB) *sqlstore.Store { return sqlstore.New(db, Dialect) }

// EnsureSchema creates the journali tables if they do not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id UUID PRIMARY KEY,
            username VARCHAR(255) NOT NULL UNIQUE,
            password TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,
		`CREATE TABLE IF NOT EXISTS items (
            id UUID PRIMARY KEY,
            item_type SMALLINT NOT NULL,
            parent_id UUID,
            parent_type SMALLINT,
            owner_id UUID NOT NULL REFERENCES users(id),
            created_at TIMESTAMPTZ NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL,
            due_date TIMESTAMPTZ
        )`,
		`CREATE INDEX IF NOT EXISTS items_owner_parent_idx ON items (owner_id, parent_id)`,
		`CREATE TABLE IF NOT EXISTS pages (
            id UUID PRIMARY KEY REFERENCES items(id),
            title VARCHAR(255) NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS todos (
            id UUID PRIMARY KEY REFERENCES items(id),
            title VARCHAR(255) NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS todo_items (
            id UUID PRIMARY KEY REFERENCES items(id),
            title VARCHAR(255) NOT NULL,
            checked BOOLEAN NOT NULL DEFAULT FALSE
        )`,
		`CREATE TABLE IF NOT EXISTS text_fields (
            id UUID PRIMARY KEY REFERENCES items(id),
            text TEXT NOT NULL
        )`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("postgres schema: %w", err)
		}
	}
	return nil
}
