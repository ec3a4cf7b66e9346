package sqlstore

import (
	"context"

	"github.com/WesleyKlop/journali-api/internal/model"
)

type todos struct{ c conn }

func (s *todos) Create(ctx context.Context, m *model.Todo) (*model.Todo, error) {
	if _, err := s.c.exec(ctx, `INSERT INTO todos (id, title) VALUES (?, ?)`, m.ID, m.Title); err != nil {
		return nil, s.c.wrap("todos.create", err)
	}
	out := *m
	return &out, nil
}

func (s *todos) Find(ctx context.Context, id string) (*model.Todo, error) {
	var out model.Todo
	row := s.c.queryRow(ctx, `SELECT id, title FROM todos WHERE id = ?`, id)
	if err := row.Scan(&out.ID, &out.Title); err != nil {
		return nil, s.c.wrap("todos.find", err)
	}
	return &out, nil
}

func (s *todos) Update(ctx context.Context, id string, patch model.TodoPatch) (*model.Todo, error) {
	if patch.Title != nil {
		if err := s.c.execOne(ctx, "todos.update", `UPDATE todos SET title = ? WHERE id = ?`, *patch.Title, id); err != nil {
			return nil, err
		}
	}
	return s.Find(ctx, id)
}

func (s *todos) Delete(ctx context.Context, id string) error {
	return s.c.deleteByID(ctx, "todos", id)
}
