package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/WesleyKlop/journali-api/internal/model"
	"github.com/WesleyKlop/journali-api/internal/store"
)

// Kind binds a payload type to its type tag, route name and typed store.
// Adding an item kind means declaring one Kind and registering it.
type Kind[M model.Payload, P any] struct {
	Type   model.ItemType
	Name   string
	Store  func(store.Store) store.Children[M, P]
	Assign func(m *M, id string)
}

var (
	Pages = Kind[model.Page, model.PagePatch]{
		Type:   model.TypePage,
		Name:   "pages",
		Store:  store.Store.Pages,
		Assign: func(m *model.Page, id string) { m.ID = id },
	}
	Todos = Kind[model.Todo, model.TodoPatch]{
		Type:   model.TypeTodo,
		Name:   "todos",
		Store:  store.Store.Todos,
		Assign: func(m *model.Todo, id string) { m.ID = id },
	}
	TodoItems = Kind[model.TodoItem, model.TodoItemPatch]{
		Type:   model.TypeTodoItem,
		Name:   "todo_items",
		Store:  store.Store.TodoItems,
		Assign: func(m *model.TodoItem, id string) { m.ID = id },
	}
	TextFields = Kind[model.TextField, model.TextFieldPatch]{
		Type:   model.TypeTextField,
		Name:   "text_fields",
		Store:  store.Store.TextFields,
		Assign: func(m *model.TextField, id string) { m.ID = id },
	}
)

// Descriptor is the type-erased view of a Kind held by a Registry. Only Kind
// implements it.
type Descriptor interface {
	itemType() model.ItemType
	kindName() string
	load(ctx context.Context, s store.Store, id string) (model.Payload, error)
}

func (k Kind[M, P]) itemType() model.ItemType { return k.Type }
func (k Kind[M, P]) kindName() string         { return k.Name }

func (k Kind[M, P]) load(ctx context.Context, s store.Store, id string) (model.Payload, error) {
	m, err := k.Store(s).Find(ctx, id)
	if err != nil {
		return nil, err
	}
	return *m, nil
}

// Registry maps type tags to kinds for polymorphic reads.
type Registry struct {
	byType map[model.ItemType]Descriptor
}

// NewRegistry fails on duplicate tags or names.
func NewRegistry(kinds ...Descriptor) (*Registry, error) {
	r := &Registry{byType: make(map[model.ItemType]Descriptor, len(kinds))}
	names := make(map[string]struct{}, len(kinds))
	for _, k := range kinds {
		if _, dup := r.byType[k.itemType()]; dup {
			return nil, fmt.Errorf("item type %d registered twice", int16(k.itemType()))
		}
		if _, dup := names[k.kindName()]; dup {
			return nil, fmt.Errorf("item kind %q registered twice", k.kindName())
		}
		r.byType[k.itemType()] = k
		names[k.kindName()] = struct{}{}
	}
	return r, nil
}

// DefaultRegistry holds every built-in kind.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(Pages, Todos, TodoItems, TextFields)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Registry) lookup(t model.ItemType) (Descriptor, bool) {
	d, ok := r.byType[t]
	return d, ok
}

// Names lists the registered kind names in type tag order.
func (r *Registry) Names() []string {
	types := make([]int, 0, len(r.byType))
	for t := range r.byType {
		types = append(types, int(t))
	}
	sort.Ints(types)
	out := make([]string, 0, len(types))
	for _, t := range types {
		out = append(out, r.byType[model.ItemType(t)].kindName())
	}
	return out
}
