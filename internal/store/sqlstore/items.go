package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/WesleyKlop/journali-api/internal/model"
)

type items struct{ c conn }

const itemColumns = `id, item_type, parent_id, parent_type, owner_id, created_at, updated_at, due_date`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(r rowScanner) (model.Item, error) {
	var (
		it         model.Item
		itemType   int16
		parentID   sql.NullString
		parentType sql.NullInt16
		due        sql.NullTime
	)
	if err := r.Scan(&it.ID, &itemType, &parentID, &parentType, &it.OwnerID, &it.CreatedAt, &it.UpdatedAt, &due); err != nil {
		return model.Item{}, err
	}
	it.ItemType = model.ItemType(itemType)
	it.CreatedAt = it.CreatedAt.UTC()
	it.UpdatedAt = it.UpdatedAt.UTC()
	if parentID.Valid {
		it.ParentID = &parentID.String
	}
	if parentType.Valid {
		pt := model.ItemType(parentType.Int16)
		it.ParentType = &pt
	}
	if due.Valid {
		d := due.Time.UTC()
		it.DueDate = &d
	}
	return it, nil
}

func nullableType(t *model.ItemType) any {
	if t == nil {
		return nil
	}
	return int16(*t)
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func (s *items) Create(ctx context.Context, it *model.Item) (*model.Item, error) {
	if it.ID == "" {
		return nil, model.NewValidationError("id", "is required")
	}
	out := *it
	_, err := s.c.exec(ctx, `
        INSERT INTO items (`+itemColumns+`)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `, out.ID, int16(out.ItemType), nullableString(out.ParentID), nullableType(out.ParentType),
		out.OwnerID, out.CreatedAt, out.UpdatedAt, nullableTime(out.DueDate))
	if err != nil {
		return nil, s.c.wrap("items.create", err)
	}
	return &out, nil
}

func (s *items) Get(ctx context.Context, id string) (*model.Item, error) {
	row := s.c.queryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	it, err := scanItem(row)
	if err != nil {
		return nil, s.c.wrap("items.get", err)
	}
	return &it, nil
}

func (s *items) HasOwner(ctx context.Context, id, owner string, typ model.ItemType) (bool, error) {
	var ok bool
	row := s.c.queryRow(ctx, `
        SELECT EXISTS (SELECT 1 FROM items WHERE id = ? AND owner_id = ? AND item_type = ?)
    `, id, owner, int16(typ))
	if err := row.Scan(&ok); err != nil {
		return false, s.c.wrap("items.has_owner", err)
	}
	return ok, nil
}

func (s *items) Update(ctx context.Context, id string, patch model.ItemPatch, now time.Time) (*model.Item, error) {
	var a assignments
	if patch.ParentID != nil {
		a.set("parent_id", *patch.ParentID)
	}
	if patch.ParentType != nil {
		a.set("parent_type", int16(*patch.ParentType))
	}
	if patch.DueDate != nil {
		a.set("due_date", patch.DueDate.UTC())
	}
	a.set("updated_at", now.UTC())
	if err := a.update(ctx, s.c, "items", id); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *items) Delete(ctx context.Context, id string, typ model.ItemType) error {
	return s.c.execOne(ctx, "items.delete", `DELETE FROM items WHERE id = ? AND item_type = ?`, id, int16(typ))
}

func (s *items) ListByOwner(ctx context.Context, owner string, parentID *string) ([]model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE owner_id = ?`
	args := []any{owner}
	if parentID != nil {
		query += ` AND parent_id = ?`
		args = append(args, *parentID)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.c.query(ctx, query, args...)
	if err != nil {
		return nil, s.c.wrap("items.list", err)
	}
	defer func() { _ = rows.Close() }()

	var res []model.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, s.c.wrap("items.list", fmt.Errorf("scan: %w", err))
		}
		res = append(res, it)
	}
	if err := rows.Err(); err != nil {
		return nil, s.c.wrap("items.list", err)
	}
	return res, nil
}
