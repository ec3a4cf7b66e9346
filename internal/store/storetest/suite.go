// Package storetest holds a driver-compliance suite for store.Store implementations.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/WesleyKlop/journali-api/internal/model"
	"github.com/WesleyKlop/journali-api/internal/store"
)

// Run exercises the compliance suite against a store.Store implementation.
// makeStore must return a store with the schema applied; it may be shared
// with other runs, so the suite only relies on rows it creates itself.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	// Users
	username := "user-" + uuid.New().String()
	u, err := s.Users().Create(ctx, &model.User{Username: username, PasswordHash: "hash"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.ID == "" {
		t.Fatalf("CreateUser: empty id")
	}
	if got, err := s.Users().GetByUsername(ctx, username); err != nil || got.ID != u.ID {
		t.Fatalf("GetByUsername: got=%v err=%v", got, err)
	}
	if _, err := s.Users().Create(ctx, &model.User{Username: username, PasswordHash: "other"}); !errors.Is(err, model.ErrConflict) {
		t.Fatalf("duplicate username: want ErrConflict, got %v", err)
	}
	if _, err := s.Users().GetByID(ctx, uuid.New().String()); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("GetByID missing: want ErrNotFound, got %v", err)
	}
	newHash := "hash-2"
	if got, err := s.Users().Update(ctx, u.ID, model.UserPatch{PasswordHash: &newHash}); err != nil || got.PasswordHash != newHash || got.Username != username {
		t.Fatalf("UpdateUser: got=%v err=%v", got, err)
	}

	// Items with children
	mkItem := func(typ model.ItemType, created time.Time, parent *model.Item) *model.Item {
		it := &model.Item{ID: uuid.New().String(), ItemType: typ, OwnerID: u.ID, CreatedAt: created, UpdatedAt: created}
		if parent != nil {
			it.ParentID = &parent.ID
			it.ParentType = &parent.ItemType
		}
		out, err := s.Items().Create(ctx, it)
		if err != nil {
			t.Fatalf("CreateItem: %v", err)
		}
		return out
	}

	todo := mkItem(model.TypeTodo, base, nil)
	if _, err := s.Todos().Create(ctx, &model.Todo{ID: todo.ID, Title: "groceries"}); err != nil {
		t.Fatalf("CreateTodo: %v", err)
	}
	first := mkItem(model.TypeTodoItem, base.Add(time.Minute), todo)
	if _, err := s.TodoItems().Create(ctx, &model.TodoItem{ID: first.ID, Title: "milk"}); err != nil {
		t.Fatalf("CreateTodoItem: %v", err)
	}
	second := mkItem(model.TypeTodoItem, base.Add(2*time.Minute), todo)
	if _, err := s.TodoItems().Create(ctx, &model.TodoItem{ID: second.ID, Title: "eggs"}); err != nil {
		t.Fatalf("CreateTodoItem: %v", err)
	}
	page := mkItem(model.TypePage, base.Add(3*time.Minute), nil)
	if _, err := s.Pages().Create(ctx, &model.Page{ID: page.ID, Title: "diary"}); err != nil {
		t.Fatalf("CreatePage: %v", err)
	}
	text := mkItem(model.TypeTextField, base.Add(4*time.Minute), page)
	if _, err := s.TextFields().Create(ctx, &model.TextField{ID: text.ID, Text: "dear diary"}); err != nil {
		t.Fatalf("CreateTextField: %v", err)
	}

	got, err := s.Items().Get(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got.ParentID == nil || *got.ParentID != todo.ID || got.ParentType == nil || *got.ParentType != model.TypeTodo {
		t.Fatalf("GetItem parent link: %+v", got)
	}
	if !got.CreatedAt.Equal(base.Add(time.Minute)) || got.DueDate != nil {
		t.Fatalf("GetItem timestamps: %+v", got)
	}

	// Ownership
	if ok, err := s.Items().HasOwner(ctx, todo.ID, u.ID, model.TypeTodo); err != nil || !ok {
		t.Fatalf("HasOwner: ok=%v err=%v", ok, err)
	}
	if ok, err := s.Items().HasOwner(ctx, todo.ID, u.ID, model.TypePage); err != nil || ok {
		t.Fatalf("HasOwner wrong type: ok=%v err=%v", ok, err)
	}
	if ok, err := s.Items().HasOwner(ctx, todo.ID, uuid.New().String(), model.TypeTodo); err != nil || ok {
		t.Fatalf("HasOwner other owner: ok=%v err=%v", ok, err)
	}

	// Listing order and parent filter
	all, err := s.Items().ListByOwner(ctx, u.ID, nil)
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	wantOrder := []string{text.ID, page.ID, second.ID, first.ID, todo.ID}
	if len(all) != len(wantOrder) {
		t.Fatalf("ListByOwner: n=%d want %d", len(all), len(wantOrder))
	}
	for i, id := range wantOrder {
		if all[i].ID != id {
			t.Fatalf("ListByOwner order at %d: got %s want %s", i, all[i].ID, id)
		}
	}
	children, err := s.Items().ListByOwner(ctx, u.ID, &todo.ID)
	if err != nil || len(children) != 2 || children[0].ID != second.ID || children[1].ID != first.ID {
		t.Fatalf("ListByOwner parent filter: n=%d err=%v", len(children), err)
	}

	// Partial updates
	due := base.Add(48 * time.Hour)
	updated, err := s.Items().Update(ctx, todo.ID, model.ItemPatch{DueDate: &due}, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if updated.DueDate == nil || !updated.DueDate.Equal(due) || !updated.UpdatedAt.Equal(base.Add(time.Hour)) {
		t.Fatalf("UpdateItem result: %+v", updated)
	}
	checked := true
	ti, err := s.TodoItems().Update(ctx, first.ID, model.TodoItemPatch{Checked: &checked})
	if err != nil || !ti.Checked || ti.Title != "milk" {
		t.Fatalf("UpdateTodoItem: got=%+v err=%v", ti, err)
	}
	title := "journal"
	if p, err := s.Pages().Update(ctx, page.ID, model.PagePatch{Title: &title}); err != nil || p.Title != title {
		t.Fatalf("UpdatePage: got=%+v err=%v", p, err)
	}
	if _, err := s.Todos().Update(ctx, uuid.New().String(), model.TodoPatch{Title: &title}); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("UpdateTodo missing: want ErrNotFound, got %v", err)
	}
	if _, err := s.TextFields().Find(ctx, uuid.New().String()); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("FindTextField missing: want ErrNotFound, got %v", err)
	}

	// Transactions roll back on error
	orphan := uuid.New().String()
	boom := errors.New("boom")
	err = s.WithTx(ctx, func(tx store.Store) error {
		if _, err := tx.Items().Create(ctx, &model.Item{ID: orphan, ItemType: model.TypePage, OwnerID: u.ID, CreatedAt: base, UpdatedAt: base}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx: want boom, got %v", err)
	}
	if _, err := s.Items().Get(ctx, orphan); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("rolled back item still present: %v", err)
	}

	// Delete child then parent
	err = s.WithTx(ctx, func(tx store.Store) error {
		if err := tx.TextFields().Delete(ctx, text.ID); err != nil {
			return err
		}
		return tx.Items().Delete(ctx, text.ID, model.TypeTextField)
	})
	if err != nil {
		t.Fatalf("delete text field: %v", err)
	}
	if _, err := s.Items().Get(ctx, text.ID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("deleted item still present: %v", err)
	}
	if err := s.Pages().Delete(ctx, text.ID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("delete missing page: want ErrNotFound, got %v", err)
	}
	if err := s.Items().Delete(ctx, page.ID, model.TypeTodo); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("delete with wrong type: want ErrNotFound, got %v", err)
	}
}
