package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/WesleyKlop/journali-api/internal/model"
)

type users struct{ c conn }

const userColumns = `id, username, password, created_at`

func (u *users) Create(ctx context.Context, m *model.User) (*model.User, error) {
	out := *m
	if out.ID == "" {
		out.ID = uuid.New().String()
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	}
	_, err := u.c.exec(ctx, `
        INSERT INTO users (id, username, password, created_at)
        VALUES (?, ?, ?, ?)
    `, out.ID, out.Username, out.PasswordHash, out.CreatedAt)
	if err != nil {
		return nil, u.c.wrap("users.create", err)
	}
	return &out, nil
}

func (u *users) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := u.c.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return u.scan("users.get", row)
}

func (u *users) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	row := u.c.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	return u.scan("users.get_by_username", row)
}

func (u *users) Update(ctx context.Context, id string, patch model.UserPatch) (*model.User, error) {
	var a assignments
	if patch.Username != nil {
		a.set("username", *patch.Username)
	}
	if patch.PasswordHash != nil {
		a.set("password", *patch.PasswordHash)
	}
	if !a.empty() {
		if err := a.update(ctx, u.c, "users", id); err != nil {
			return nil, err
		}
	}
	return u.GetByID(ctx, id)
}

func (u *users) scan(op string, row *sql.Row) (*model.User, error) {
	var out model.User
	if err := row.Scan(&out.ID, &out.Username, &out.PasswordHash, &out.CreatedAt); err != nil {
		return nil, u.c.wrap(op, err)
	}
	out.CreatedAt = out.CreatedAt.UTC()
	return &out, nil
}
