package sqlstore

import (
	"context"

	"github.com/WesleyKlop/journali-api/internal/model"
)

type textFields struct{ c conn }

func (s *textFields) Create(ctx context.Context, m *model.TextField) (*model.TextField, error) {
	if _, err := s.c.exec(ctx, `INSERT INTO text_fields (id, text) VALUES (?, ?)`, m.ID, m.Text); err != nil {
		return nil, s.c.wrap("text_fields.create", err)
	}
	out := *m
	return &out, nil
}

func (s *textFields) Find(ctx context.Context, id string) (*model.TextField, error) {
	var out model.TextField
	row := s.c.queryRow(ctx, `SELECT id, text FROM text_fields WHERE id = ?`, id)
	if err := row.Scan(&out.ID, &out.Text); err != nil {
		return nil, s.c.wrap("text_fields.find", err)
	}
	return &out, nil
}

func (s *textFields) Update(ctx context.Context, id string, patch model.TextFieldPatch) (*model.TextField, error) {
	if patch.Text != nil {
		if err := s.c.execOne(ctx, "text_fields.update", `UPDATE text_fields SET text = ? WHERE id = ?`, *patch.Text, id); err != nil {
			return nil, err
		}
	}
	return s.Find(ctx, id)
}

func (s *textFields) Delete(ctx context.Context, id string) error {
	return s.c.deleteByID(ctx, "text_fields", id)
}
