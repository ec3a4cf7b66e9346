package sqlstore

import (
	"context"

	"github.com/WesleyKlop/journali-api/internal/model"
)

type pages struct{ c conn }

func (s *pages) Create(ctx context.Context, m *model.Page) (*model.Page, error) {
	if _, err := s.c.exec(ctx, `INSERT INTO pages (id, title) VALUES (?, ?)`, m.ID, m.Title); err != nil {
		return nil, s.c.wrap("pages.create", err)
	}
	out := *m
	return &out, nil
}

func (s *pages) Find(ctx context.Context, id string) (*model.Page, error) {
	var out model.Page
	row := s.c.queryRow(ctx, `SELECT id, title FROM pages WHERE id = ?`, id)
	if err := row.Scan(&out.ID, &out.Title); err != nil {
		return nil, s.c.wrap("pages.find", err)
	}
	return &out, nil
}

func (s *pages) Update(ctx context.Context, id string, patch model.PagePatch) (*model.Page, error) {
	if patch.Title != nil {
		if err := s.c.execOne(ctx, "pages.update", `UPDATE pages SET title = ? WHERE id = ?`, *patch.Title, id); err != nil {
			return nil, err
		}
	}
	return s.Find(ctx, id)
}

func (s *pages) Delete(ctx context.Context, id string) error {
	return s.c.deleteByID(ctx, "pages", id)
}
