package sqlstore

import (
	"context"

	"github.com/WesleyKlop/journali-api/internal/model"
)

type todoItems struct{ c conn }

func (s *todoItems) Create(ctx context.Context, m *model.TodoItem) (*model.TodoItem, error) {
	_, err := s.c.exec(ctx, `INSERT INTO todo_items (id, title, checked) VALUES (?, ?, ?)`, m.ID, m.Title, m.Checked)
	if err != nil {
		return nil, s.c.wrap("todo_items.create", err)
	}
	out := *m
	return &out, nil
}

func (s *todoItems) Find(ctx context.Context, id string) (*model.TodoItem, error) {
	var out model.TodoItem
	row := s.c.queryRow(ctx, `SELECT id, title, checked FROM todo_items WHERE id = ?`, id)
	if err := row.Scan(&out.ID, &out.Title, &out.Checked); err != nil {
		return nil, s.c.wrap("todo_items.find", err)
	}
	return &out, nil
}

func (s *todoItems) Update(ctx context.Context, id string, patch model.TodoItemPatch) (*model.TodoItem, error) {
	var a assignments
	if patch.Title != nil {
		a.set("title", *patch.Title)
	}
	if patch.Checked != nil {
		a.set("checked", *patch.Checked)
	}
	if !a.empty() {
		if err := a.update(ctx, s.c, "todo_items", id); err != nil {
			return nil, err
		}
	}
	return s.Find(ctx, id)
}

func (s *todoItems) Delete(ctx context.Context, id string) error {
	return s.c.deleteByID(ctx, "todo_items", id)
}
