package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WesleyKlop/journali-api/internal/model"
	"github.com/WesleyKlop/journali-api/internal/store"
)

// checkForeignAccess creates an item as owner and asserts that other cannot
// see, change or delete it, while owner still can.
func checkForeignAccess[M model.Payload, P any](t *testing.T, svc *ItemService, k Kind[M, P], payload M, patch P, owner, other string) {
	t.Helper()
	ctx := context.Background()

	view, err := Create(ctx, svc, k, NewItem[M]{Payload: payload}, owner)
	require.NoError(t, err)

	_, err = Find(ctx, svc, k, view.ID, other)
	assert.ErrorIs(t, err, model.ErrNotFound, "find as other")
	_, err = Update(ctx, svc, k, view.ID, Patch[P]{Fields: patch}, other)
	assert.ErrorIs(t, err, model.ErrNotFound, "update as other")
	err = Delete(ctx, svc, k, view.ID, other)
	assert.ErrorIs(t, err, model.ErrNotFound, "delete as other")

	got, err := Find(ctx, svc, k, view.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, view.Payload, got.Payload, "payload unchanged after foreign attempts")
	assert.Equal(t, owner, got.OwnerID)
}

func TestForeignItemsAreNotFound(t *testing.T) {
	s := newTestStore(t)
	svc := newTestItemService(t, s)
	alice := mustUser(t, s, "alice")
	bob := mustUser(t, s, "bob")

	checkForeignAccess(t, svc, Pages, model.Page{Title: "diary"}, model.PagePatch{Title: ptr("stolen")}, alice, bob)
	checkForeignAccess(t, svc, Todos, model.Todo{Title: "chores"}, model.TodoPatch{Title: ptr("stolen")}, alice, bob)
	checkForeignAccess(t, svc, TodoItems, model.TodoItem{Title: "dishes"}, model.TodoItemPatch{Checked: ptr(true)}, alice, bob)
	checkForeignAccess(t, svc, TextFields, model.TextField{Text: "secret"}, model.TextFieldPatch{Text: ptr("stolen")}, alice, bob)
}

func TestMissingAndForeignAreIndistinguishable(t *testing.T) {
	s := newTestStore(t)
	svc := newTestItemService(t, s)
	alice := mustUser(t, s, "alice")
	bob := mustUser(t, s, "bob")
	ctx := context.Background()

	view, err := Create(ctx, svc, Pages, NewItem[model.Page]{Payload: model.Page{Title: "diary"}}, alice)
	require.NoError(t, err)

	_, foreign := Find(ctx, svc, Pages, view.ID, bob)
	_, missing := Find(ctx, svc, Pages, uuid.New().String(), bob)
	_, malformed := Find(ctx, svc, Pages, "not-an-id", bob)
	_, wrongKind := Find(ctx, svc, Todos, view.ID, alice)
	for _, err := range []error{foreign, missing, malformed, wrongKind} {
		assert.Equal(t, model.ErrNotFound, err)
	}
}

func TestCreateFindRoundTrip(t *testing.T) {
	s := newTestStore(t)
	svc := newTestItemService(t, s)
	alice := mustUser(t, s, "alice")
	ctx := context.Background()

	todo, err := Create(ctx, svc, Todos, NewItem[model.Todo]{Payload: model.Todo{Title: "groceries"}}, alice)
	require.NoError(t, err)
	assert.Equal(t, "todo", todo.Kind)
	assert.Equal(t, model.TypeTodo, todo.ItemType)
	assert.NotEmpty(t, todo.ID)

	in := NewItem[model.TodoItem]{
		ParentID:   &todo.ID,
		ParentType: ptr(model.TypeTodo),
		Payload:    model.TodoItem{Title: "milk", Checked: true},
	}
	created, err := Create(ctx, svc, TodoItems, in, alice)
	require.NoError(t, err)

	got, err := Find(ctx, svc, TodoItems, created.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, model.TodoItem{ID: created.ID, Title: "milk", Checked: true}, got.Payload)
	require.NotNil(t, got.ParentID)
	assert.Equal(t, todo.ID, *got.ParentID)
	assert.Equal(t, model.TypeTodo, *got.ParentType)
	assert.True(t, got.CreatedAt.Equal(created.CreatedAt))
}

func TestCreateValidation(t *testing.T) {
	s := newTestStore(t)
	svc := newTestItemService(t, s)
	alice := mustUser(t, s, "alice")
	bob := mustUser(t, s, "bob")
	ctx := context.Background()

	_, err := Create(ctx, svc, Pages, NewItem[model.Page]{Payload: model.Page{}}, alice)
	assert.True(t, model.IsValidationError(err), "empty title")

	page, err := Create(ctx, svc, Pages, NewItem[model.Page]{Payload: model.Page{Title: "p"}}, alice)
	require.NoError(t, err)

	_, err = Create(ctx, svc, TextFields, NewItem[model.TextField]{ParentID: &page.ID}, alice)
	assert.True(t, model.IsValidationError(err), "parent id without type")

	_, err = Create(ctx, svc, TextFields, NewItem[model.TextField]{ParentID: &page.ID, ParentType: ptr(model.TypeTodo)}, alice)
	assert.True(t, model.IsValidationError(err), "parent type mismatch")

	_, err = Create(ctx, svc, TextFields, NewItem[model.TextField]{ParentID: &page.ID, ParentType: ptr(model.TypePage)}, bob)
	assert.True(t, model.IsValidationError(err), "foreign parent")

	_, err = Create(ctx, svc, Pages, NewItem[model.Page]{Payload: model.Page{Title: "p"}}, "")
	assert.ErrorIs(t, err, model.ErrUnauthorized)

	all, err := svc.FindByParent(ctx, nil, alice)
	require.NoError(t, err)
	assert.Len(t, all, 1, "rejected creates leave nothing behind")
	bobs, err := svc.FindByParent(ctx, nil, bob)
	require.NoError(t, err)
	assert.Empty(t, bobs)
}

func TestFindByParent(t *testing.T) {
	s := newTestStore(t)
	svc := newTestItemService(t, s)
	alice := mustUser(t, s, "alice")
	bob := mustUser(t, s, "bob")
	ctx := context.Background()

	todo, err := Create(ctx, svc, Todos, NewItem[model.Todo]{Payload: model.Todo{Title: "list"}}, alice)
	require.NoError(t, err)
	under := func(title string) *model.ViewItem {
		v, err := Create(ctx, svc, TodoItems, NewItem[model.TodoItem]{
			ParentID: &todo.ID, ParentType: ptr(model.TypeTodo), Payload: model.TodoItem{Title: title},
		}, alice)
		require.NoError(t, err)
		return v
	}
	first := under("first")
	second := under("second")
	page, err := Create(ctx, svc, Pages, NewItem[model.Page]{Payload: model.Page{Title: "elsewhere"}}, alice)
	require.NoError(t, err)
	_, err = Create(ctx, svc, Pages, NewItem[model.Page]{Payload: model.Page{Title: "bob's"}}, bob)
	require.NoError(t, err)

	children, err := svc.FindByParent(ctx, &todo.ID, alice)
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, second.ID, children[0].ID, "newest first")
	assert.Equal(t, first.ID, children[1].ID)
	assert.Equal(t, model.TodoItem{ID: first.ID, Title: "first"}, children[1].Payload)

	all, err := svc.FindByParent(ctx, nil, alice)
	require.NoError(t, err)
	ids := make([]string, 0, len(all))
	for _, v := range all {
		ids = append(ids, v.ID)
		assert.Equal(t, alice, v.OwnerID)
	}
	assert.Equal(t, []string{page.ID, second.ID, first.ID, todo.ID}, ids)

	none, err := svc.FindByParent(ctx, &todo.ID, bob)
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.NotNil(t, none)

	_, err = svc.FindByParent(ctx, ptr("garbage"), alice)
	assert.True(t, model.IsValidationError(err))
}

func TestDeleteRemovesItem(t *testing.T) {
	s := newTestStore(t)
	svc := newTestItemService(t, s)
	alice := mustUser(t, s, "alice")
	ctx := context.Background()

	page, err := Create(ctx, svc, Pages, NewItem[model.Page]{Payload: model.Page{Title: "p"}}, alice)
	require.NoError(t, err)
	text, err := Create(ctx, svc, TextFields, NewItem[model.TextField]{
		ParentID: &page.ID, ParentType: ptr(model.TypePage), Payload: model.TextField{Text: "hello"},
	}, alice)
	require.NoError(t, err)

	require.NoError(t, Delete(ctx, svc, TextFields, text.ID, alice))

	_, err = Find(ctx, svc, TextFields, text.ID, alice)
	assert.ErrorIs(t, err, model.ErrNotFound)
	children, err := svc.FindByParent(ctx, &page.ID, alice)
	require.NoError(t, err)
	assert.Empty(t, children)
	_, err = s.TextFields().Find(ctx, text.ID)
	assert.ErrorIs(t, err, model.ErrNotFound, "payload row removed")

	assert.ErrorIs(t, Delete(ctx, svc, TextFields, text.ID, alice), model.ErrNotFound, "second delete")
}

func TestTodoDueDateScenario(t *testing.T) {
	s := newTestStore(t)
	svc := newTestItemService(t, s)
	u1 := mustUser(t, s, "user-one")
	u2 := mustUser(t, s, "user-two")
	ctx := context.Background()

	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	todo, err := Create(ctx, svc, Todos, NewItem[model.Todo]{DueDate: &jan, Payload: model.Todo{Title: "taxes"}}, u1)
	require.NoError(t, err)

	updated, err := Update(ctx, svc, Todos, todo.ID, Patch[model.TodoPatch]{Item: model.ItemPatch{DueDate: &feb}}, u1)
	require.NoError(t, err)
	assert.Equal(t, "taxes", updated.Title)

	got, err := Find(ctx, svc, Todos, todo.ID, u1)
	require.NoError(t, err)
	require.NotNil(t, got.DueDate)
	assert.True(t, got.DueDate.Equal(feb))
	assert.True(t, got.UpdatedAt.After(got.CreatedAt), "updated_at refreshed")

	_, err = Update(ctx, svc, Todos, todo.ID, Patch[model.TodoPatch]{Item: model.ItemPatch{DueDate: &jan}}, u2)
	assert.ErrorIs(t, err, model.ErrNotFound)

	got, err = Find(ctx, svc, Todos, todo.ID, u1)
	require.NoError(t, err)
	assert.True(t, got.DueDate.Equal(feb), "foreign update left the date alone")
}

func TestUpdatePayloadAndLink(t *testing.T) {
	s := newTestStore(t)
	svc := newTestItemService(t, s)
	alice := mustUser(t, s, "alice")
	ctx := context.Background()

	a, err := Create(ctx, svc, Todos, NewItem[model.Todo]{Payload: model.Todo{Title: "a"}}, alice)
	require.NoError(t, err)
	b, err := Create(ctx, svc, Todos, NewItem[model.Todo]{Payload: model.Todo{Title: "b"}}, alice)
	require.NoError(t, err)
	item, err := Create(ctx, svc, TodoItems, NewItem[model.TodoItem]{
		ParentID: &a.ID, ParentType: ptr(model.TypeTodo), Payload: model.TodoItem{Title: "move me"},
	}, alice)
	require.NoError(t, err)

	out, err := Update(ctx, svc, TodoItems, item.ID, Patch[model.TodoItemPatch]{
		Item:   model.ItemPatch{ParentID: &b.ID, ParentType: ptr(model.TypeTodo)},
		Fields: model.TodoItemPatch{Checked: ptr(true)},
	}, alice)
	require.NoError(t, err)
	assert.Equal(t, model.TodoItem{ID: item.ID, Title: "move me", Checked: true}, *out)

	underB, err := svc.FindByParent(ctx, &b.ID, alice)
	require.NoError(t, err)
	require.Len(t, underB, 1)
	assert.Equal(t, item.ID, underB[0].ID)

	_, err = Update(ctx, svc, TodoItems, item.ID, Patch[model.TodoItemPatch]{
		Item: model.ItemPatch{ParentID: &item.ID, ParentType: ptr(model.TypeTodoItem)},
	}, alice)
	assert.True(t, model.IsValidationError(err), "self parent")

	_, err = Update(ctx, svc, TodoItems, item.ID, Patch[model.TodoItemPatch]{
		Fields: model.TodoItemPatch{Title: ptr("")},
	}, alice)
	assert.True(t, model.IsValidationError(err), "empty title")
}

func TestUpdateRejectsParentCycles(t *testing.T) {
	s := newTestStore(t)
	svc := newTestItemService(t, s)
	alice := mustUser(t, s, "alice")
	ctx := context.Background()

	a, err := Create(ctx, svc, Pages, NewItem[model.Page]{Payload: model.Page{Title: "a"}}, alice)
	require.NoError(t, err)
	b, err := Create(ctx, svc, Pages, NewItem[model.Page]{
		ParentID: &a.ID, ParentType: ptr(model.TypePage), Payload: model.Page{Title: "b"},
	}, alice)
	require.NoError(t, err)
	c, err := Create(ctx, svc, Pages, NewItem[model.Page]{
		ParentID: &b.ID, ParentType: ptr(model.TypePage), Payload: model.Page{Title: "c"},
	}, alice)
	require.NoError(t, err)

	for name, parent := range map[string]string{"direct": b.ID, "transitive": c.ID} {
		_, err = Update(ctx, svc, Pages, a.ID, Patch[model.PagePatch]{
			Item: model.ItemPatch{ParentID: &parent, ParentType: ptr(model.TypePage)},
		}, alice)
		assert.True(t, model.IsValidationError(err), name)
	}

	got, err := Find(ctx, svc, Pages, a.ID, alice)
	require.NoError(t, err)
	assert.Nil(t, got.ParentID, "rejected link leaves the item unchanged")

	// Re-parenting within the tree without closing a loop is fine.
	_, err = Update(ctx, svc, Pages, c.ID, Patch[model.PagePatch]{
		Item: model.ItemPatch{ParentID: &a.ID, ParentType: ptr(model.TypePage)},
	}, alice)
	require.NoError(t, err)
}

func TestConcurrentUpdates(t *testing.T) {
	s := newTestStore(t)
	svc := NewItemService(s)
	alice := mustUser(t, s, "alice")
	ctx := context.Background()

	ids := make([]string, 8)
	for i := range ids {
		v, err := Create(ctx, svc, Todos, NewItem[model.Todo]{Payload: model.Todo{Title: "todo"}}, alice)
		require.NoError(t, err)
		ids[i] = v.ID
	}

	const workers = 40
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := Update(ctx, svc, Todos, id, Patch[model.TodoPatch]{Fields: model.TodoPatch{Title: ptr("x")}}, alice)
			errs <- err
		}(ids[i%len(ids)])
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	for _, id := range ids {
		got, err := Find(ctx, svc, Todos, id, alice)
		require.NoError(t, err)
		assert.Equal(t, model.Todo{ID: id, Title: "x"}, got.Payload)
	}
}

func TestFindByParentReportsIntegrityViolations(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("unknown item type", func(t *testing.T) {
		s := newTestStore(t)
		svc := newTestItemService(t, s)
		alice := mustUser(t, s, "alice")
		_, err := s.Items().Create(ctx, &model.Item{ID: uuid.New().String(), ItemType: 999, OwnerID: alice, CreatedAt: now, UpdatedAt: now})
		require.NoError(t, err)

		_, err = svc.FindByParent(ctx, nil, alice)
		var ie *model.IntegrityError
		require.ErrorAs(t, err, &ie)
		assert.Equal(t, model.ItemType(999), ie.ItemType)
	})

	t.Run("missing payload", func(t *testing.T) {
		s := newTestStore(t)
		svc := newTestItemService(t, s)
		alice := mustUser(t, s, "alice")
		id := uuid.New().String()
		_, err := s.Items().Create(ctx, &model.Item{ID: id, ItemType: model.TypePage, OwnerID: alice, CreatedAt: now, UpdatedAt: now})
		require.NoError(t, err)

		_, err = svc.FindByParent(ctx, nil, alice)
		assert.ErrorIs(t, err, model.ErrIntegrity)
		_, err = Find(ctx, svc, Pages, id, alice)
		assert.ErrorIs(t, err, model.ErrIntegrity)
	})

	t.Run("custom registry without the kind", func(t *testing.T) {
		s := newTestStore(t)
		reg, err := NewRegistry(Pages)
		require.NoError(t, err)
		svc := NewItemService(s, WithRegistry(reg))
		alice := mustUser(t, s, "alice")

		_, err = Create(ctx, svc, Todos, NewItem[model.Todo]{Payload: model.Todo{Title: "t"}}, alice)
		require.NoError(t, err)
		_, err = svc.FindByParent(ctx, nil, alice)
		assert.ErrorIs(t, err, model.ErrIntegrity)
	})
}

func TestHasOwner(t *testing.T) {
	s := newTestStore(t)
	svc := newTestItemService(t, s)
	alice := mustUser(t, s, "alice")
	ctx := context.Background()

	page, err := Create(ctx, svc, Pages, NewItem[model.Page]{Payload: model.Page{Title: "p"}}, alice)
	require.NoError(t, err)

	assert.True(t, svc.HasOwner(ctx, page.ID, alice, model.TypePage))
	assert.False(t, svc.HasOwner(ctx, page.ID, alice, model.TypeTodo))
	assert.False(t, svc.HasOwner(ctx, page.ID, uuid.New().String(), model.TypePage))
	assert.False(t, svc.HasOwner(ctx, "bogus", alice, model.TypePage))
	assert.False(t, svc.HasOwner(ctx, page.ID, "", model.TypePage))

	broken := NewItemService(&faultyStore{Store: s, failItemsHasOwner: true})
	assert.False(t, broken.HasOwner(ctx, page.ID, alice, model.TypePage), "lookup failure is false")
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"pages", "todos", "todo_items", "text_fields"}, DefaultRegistry().Names())

	_, err := NewRegistry(Pages, Pages)
	assert.Error(t, err)

	clash := Todos
	clash.Type = 999
	clash.Name = "pages"
	_, err = NewRegistry(Pages, clash)
	assert.Error(t, err)
}

// --- transaction policy under injected failures ---

var errInjected = errors.New("injected failure")

type faultyStore struct {
	store.Store
	failPagesCreate   bool
	failItemsDelete   bool
	failItemsHasOwner bool
}

func (f *faultyStore) WithTx(ctx context.Context, fn func(tx store.Store) error) error {
	return f.Store.WithTx(ctx, func(tx store.Store) error {
		inner := *f
		inner.Store = tx
		return fn(&inner)
	})
}

func (f *faultyStore) Items() store.Items {
	return &faultyItems{Items: f.Store.Items(), f: f}
}

func (f *faultyStore) Pages() store.Children[model.Page, model.PagePatch] {
	return &faultyPages{Children: f.Store.Pages(), f: f}
}

type faultyItems struct {
	store.Items
	f *faultyStore
}

func (i *faultyItems) Delete(ctx context.Context, id string, typ model.ItemType) error {
	if i.f.failItemsDelete {
		return errInjected
	}
	return i.Items.Delete(ctx, id, typ)
}

func (i *faultyItems) HasOwner(ctx context.Context, id, owner string, typ model.ItemType) (bool, error) {
	if i.f.failItemsHasOwner {
		return false, errInjected
	}
	return i.Items.HasOwner(ctx, id, owner, typ)
}

type faultyPages struct {
	store.Children[model.Page, model.PagePatch]
	f *faultyStore
}

func (p *faultyPages) Create(ctx context.Context, m *model.Page) (*model.Page, error) {
	if p.f.failPagesCreate {
		return nil, errInjected
	}
	return p.Children.Create(ctx, m)
}

func TestCreateIsAtomic(t *testing.T) {
	s := newTestStore(t)
	alice := mustUser(t, s, "alice")
	ctx := context.Background()

	svc := newTestItemService(t, &faultyStore{Store: s, failPagesCreate: true})
	_, err := Create(ctx, svc, Pages, NewItem[model.Page]{Payload: model.Page{Title: "p"}}, alice)
	require.ErrorIs(t, err, errInjected)

	parents, err := s.Items().ListByOwner(ctx, alice, nil)
	require.NoError(t, err)
	assert.Empty(t, parents, "parent row rolled back with the failed payload write")
}

func TestDeleteIsAtomic(t *testing.T) {
	s := newTestStore(t)
	alice := mustUser(t, s, "alice")
	ctx := context.Background()

	page, err := Create(ctx, newTestItemService(t, s), Pages, NewItem[model.Page]{Payload: model.Page{Title: "keep"}}, alice)
	require.NoError(t, err)

	svc := newTestItemService(t, &faultyStore{Store: s, failItemsDelete: true})
	err = Delete(ctx, svc, Pages, page.ID, alice)
	require.ErrorIs(t, err, errInjected)

	_, err = s.Items().Get(ctx, page.ID)
	require.NoError(t, err, "parent row kept")
	got, err := s.Pages().Find(ctx, page.ID)
	require.NoError(t, err, "payload row restored by rollback")
	assert.Equal(t, "keep", got.Title)
}
