package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/WesleyKlop/journali-api/internal/store/sqlstore"
)

// Dialect describes SQLite for sqlstore. Placeholders need no rewriting.
var Dialect = sqlstore.Dialect{
	Name: "sqlite",
	IsUniqueViolation: func(err error) bool {
		var sqliteErr *msqlite.Error
		if !errors.As(err, &sqliteErr) {
			return false
		}
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			// primary code only when extended result codes are off
			return strings.Contains(sqliteErr.Error(), "UNIQUE constraint failed")
		}
		return false
	},
}

// Open opens (or creates) a SQLite database at path with WAL journaling and
// foreign keys enforced. Transactions begin IMMEDIATE so read-then-write
// transactions wait on busy_timeout instead of failing with SQLITE_BUSY.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	// ensure parent directory exists to avoid SQLITE_CANTOPEN errors
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_txlock=immediate", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB constructs a SQLite-backed store on an open database.
func NewWithDB(db *sql.DB) *sqlstore.Store { return sqlstore.New(db, Dialect) }

// EnsureSchema creates the journali tables if they do not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id TEXT PRIMARY KEY,
            username TEXT NOT NULL UNIQUE,
            password TEXT NOT NULL,
            created_at TIMESTAMP NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS items (
            id TEXT PRIMARY KEY,
            item_type INTEGER NOT NULL,
            parent_id TEXT,
            parent_type INTEGER,
            owner_id TEXT NOT NULL REFERENCES users(id),
            created_at TIMESTAMP NOT NULL,
            updated_at TIMESTAMP NOT NULL,
            due_date TIMESTAMP
        );`,
		`CREATE INDEX IF NOT EXISTS items_owner_parent_idx ON items (owner_id, parent_id);`,
		`CREATE TABLE IF NOT EXISTS pages (
            id TEXT PRIMARY KEY REFERENCES items(id),
            title TEXT NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS todos (
            id TEXT PRIMARY KEY REFERENCES items(id),
            title TEXT NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS todo_items (
            id TEXT PRIMARY KEY REFERENCES items(id),
            title TEXT NOT NULL,
            checked BOOLEAN NOT NULL DEFAULT 0
        );`,
		`CREATE TABLE IF NOT EXISTS text_fields (
            id TEXT PRIMARY KEY REFERENCES items(id),
            text TEXT NOT NULL
        );`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite schema: %w", err)
		}
	}
	return nil
}
