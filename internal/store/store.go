package store

import (
	"context"
	"time"

	"github.com/WesleyKlop/journali-api/internal/model"
)

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (postgres, sqlite).
type Store interface {
	Users() Users
	Items() Items
	Pages() Children[model.Page, model.PagePatch]
	Todos() Children[model.Todo, model.TodoPatch]
	TodoItems() Children[model.TodoItem, model.TodoItemPatch]
	TextFields() Children[model.TextField, model.TextFieldPatch]

	// WithTx runs fn against a Store bound to a single transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	// Calling WithTx on a Store that is already transactional reuses it.
	WithTx(ctx context.Context, fn func(tx Store) error) error
}

type Users interface {
	Create(ctx context.Context, u *model.User) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	Update(ctx context.Context, id string, patch model.UserPatch) (*model.User, error)
}

// Items persists the parent record shared by all item kinds.
type Items interface {
	Create(ctx context.Context, it *model.Item) (*model.Item, error)
	Get(ctx context.Context, id string) (*model.Item, error)
	// HasOwner reports whether an item with id, owner and type exists.
	HasOwner(ctx context.Context, id, owner string, typ model.ItemType) (bool, error)
	Update(ctx context.Context, id string, patch model.ItemPatch, now time.Time) (*model.Item, error)
	Delete(ctx context.Context, id string, typ model.ItemType) error
	// ListByOwner returns the owner's items, optionally only those under parentID,
	// ordered by created_at then id, both descending.
	ListByOwner(ctx context.Context, owner string, parentID *string) ([]model.Item, error)
}

// Children is the uniform contract every typed child store satisfies.
// M is the payload type and P its partial update.
type Children[M any, P any] interface {
	Create(ctx context.Context, m *M) (*M, error)
	Find(ctx context.Context, id string) (*M, error)
	Update(ctx context.Context, id string, patch P) (*M, error)
	Delete(ctx context.Context, id string) error
}
