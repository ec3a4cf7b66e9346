// Package sqlstore implements store.Store on database/sql. The postgres and
// sqlite packages supply the driver, schema and a Dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/WesleyKlop/journali-api/internal/model"
	"github.com/WesleyKlop/journali-api/internal/store"
)

// Dialect captures the differences between SQL engines. Queries are written
// with '?' placeholders and passed through Rebind before execution.
type Dialect struct {
	Name              string
	Rebind            func(query string) string
	IsUniqueViolation func(err error) bool
}

// Dollar rewrites '?' placeholders to $1, $2, ... for engines that need it.
func Dollar(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn binds a querier (*sql.DB or *sql.Tx) to a dialect.
type conn struct {
	q querier
	d Dialect
}

func (c conn) rebind(query string) string {
	if c.d.Rebind == nil {
		return query
	}
	return c.d.Rebind(query)
}

func (c conn) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.q.ExecContext(ctx, c.rebind(query), args...)
}

func (c conn) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.q.QueryContext(ctx, c.rebind(query), args...)
}

func (c conn) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return c.q.QueryRowContext(ctx, c.rebind(query), args...)
}

// wrap maps driver errors onto the model taxonomy.
func (c conn) wrap(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, model.ErrNotFound), errors.Is(err, model.ErrConflict), errors.Is(err, model.ErrStorage):
		return err
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%s: %w", op, model.ErrNotFound)
	case c.d.IsUniqueViolation != nil && c.d.IsUniqueViolation(err):
		return fmt.Errorf("%s: %w", op, model.ErrConflict)
	}
	return model.NewStorageError(op, err)
}

// execOne runs a write that must touch exactly one row.
func (c conn) execOne(ctx context.Context, op, query string, args ...any) error {
	res, err := c.exec(ctx, query, args...)
	if err != nil {
		return c.wrap(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return c.wrap(op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, model.ErrNotFound)
	}
	return nil
}

// deleteByID removes the row keyed by id from table.
func (c conn) deleteByID(ctx context.Context, table, id string) error {
	return c.execOne(ctx, table+".delete", "DELETE FROM "+table+" WHERE id = ?", id)
}

// assignments collects "col = ?" fragments for partial updates.
type assignments struct {
	cols []string
	args []any
}

func (a *assignments) set(col string, v any) {
	a.cols = append(a.cols, col+" = ?")
	a.args = append(a.args, v)
}

func (a *assignments) empty() bool { return len(a.cols) == 0 }

// update builds "UPDATE table SET ... WHERE id = ?" and runs it.
func (a *assignments) update(ctx context.Context, c conn, table, id string) error {
	query := "UPDATE " + table + " SET " + strings.Join(a.cols, ", ") + " WHERE id = ?"
	return c.execOne(ctx, table+".update", query, append(a.args, id)...)
}

// Store is the database/sql implementation of store.Store.
type Store struct {
	db *sql.DB
	tx *sql.Tx
	c  conn
}

// New wraps db using dialect d.
func New(db *sql.DB, d Dialect) *Store {
	return &Store{db: db, c: conn{q: db, d: d}}
}

func (s *Store) Users() store.Users { return &users{c: s.c} }
func (s *Store) Items() store.Items { return &items{c: s.c} }

func (s *Store) Pages() store.Children[model.Page, model.PagePatch] {
	return &pages{c: s.c}
}

func (s *Store) Todos() store.Children[model.Todo, model.TodoPatch] {
	return &todos{c: s.c}
}

func (s *Store) TodoItems() store.Children[model.TodoItem, model.TodoItemPatch] {
	return &todoItems{c: s.c}
}

func (s *Store) TextFields() store.Children[model.TextField, model.TextFieldPatch] {
	return &textFields{c: s.c}
}

func (s *Store) WithTx(ctx context.Context, fn func(tx store.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.NewStorageError("tx.begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&Store{db: s.db, tx: tx, c: conn{q: tx, d: s.c.d}}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return model.NewStorageError("tx.commit", err)
	}
	return nil
}

// HealthPing implements health.HealthPinger.
func (s *Store) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// DB exposes the underlying pool.
func (s *Store) DB() *sql.DB { return s.db }

// Dialect returns the engine name, e.g. "postgres".
func (s *Store) Dialect() string { return s.c.d.Name }

func (s *Store) Close() error { return s.db.Close() }

var _ store.Store = (*Store)(nil)
