package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/WesleyKlop/journali-api/internal/model"
	"github.com/WesleyKlop/journali-api/internal/store"
)

// ItemService authorizes and orchestrates item operations across the parent
// store and the typed child stores. The typed operations are the generic
// functions Create, Find, Update and Delete.
type ItemService struct {
	store store.Store
	kinds *Registry
	log   zerolog.Logger
	now   func() time.Time
	newID func() string
}

// Option customises an ItemService.
type Option func(*ItemService)

func WithClock(now func() time.Time) Option { return func(s *ItemService) { s.now = now } }

func WithIDGenerator(fn func() string) Option { return func(s *ItemService) { s.newID = fn } }

func WithLogger(log zerolog.Logger) Option { return func(s *ItemService) { s.log = log } }

func WithRegistry(r *Registry) Option { return func(s *ItemService) { s.kinds = r } }

func NewItemService(s store.Store, opts ...Option) *ItemService {
	svc := &ItemService{
		store: s,
		kinds: DefaultRegistry(),
		log:   zerolog.Nop(),
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// NewItem describes an item to create. ParentID and ParentType are set together or not at all.
type NewItem[M any] struct {
	ParentID   *string
	ParentType *model.ItemType
	DueDate    *time.Time
	Payload    M
}

// Patch is a partial update of both the parent record and the payload.
type Patch[P any] struct {
	Item   model.ItemPatch
	Fields P
}

type validator interface{ Validate() error }

func validatePayload(v any) error {
	if val, ok := v.(validator); ok {
		return val.Validate()
	}
	return nil
}

// timestamp returns the current time at the precision every store keeps.
func (s *ItemService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// HasOwner reports whether id is an item of type typ owned by owner. Lookup
// failures are logged and reported as false.
func (s *ItemService) HasOwner(ctx context.Context, id, owner string, typ model.ItemType) bool {
	return s.hasOwner(ctx, s.store, id, owner, typ)
}

func (s *ItemService) hasOwner(ctx context.Context, st store.Store, id, owner string, typ model.ItemType) bool {
	if model.ValidateID("id", id) != nil || owner == "" {
		return false
	}
	ok, err := st.Items().HasOwner(ctx, id, owner, typ)
	if err != nil {
		s.log.Warn().Err(err).
			Str("item_id", id).
			Int16("item_type", int16(typ)).
			Msg("ownership lookup failed")
		return false
	}
	return ok
}

// checkLink validates an optional parent link: both halves or neither, the
// parent must be an item of that type owned by caller, and the link must not
// close a cycle.
func (s *ItemService) checkLink(ctx context.Context, st store.Store, self string, parentID *string, parentType *model.ItemType, caller string) error {
	if parentID == nil && parentType == nil {
		return nil
	}
	if parentID == nil || parentType == nil {
		return model.NewValidationError("parent_id", "parent_id and parent_type must be given together")
	}
	if err := model.ValidateID("parent_id", *parentID); err != nil {
		return err
	}
	if *parentID == self {
		return model.NewValidationError("parent_id", "an item cannot be its own parent")
	}
	if !s.hasOwner(ctx, st, *parentID, caller, *parentType) {
		return model.NewValidationError("parent_id", "does not reference an item of parent_type")
	}
	return checkAncestors(ctx, st, self, *parentID)
}

// maxLinkDepth bounds the ancestor walk in checkAncestors.
const maxLinkDepth = 1024

// checkAncestors rejects a link under parentID when self is already one of
// parentID's ancestors. Dangling links end the walk.
func checkAncestors(ctx context.Context, st store.Store, self, parentID string) error {
	cur := parentID
	for depth := 0; depth < maxLinkDepth; depth++ {
		it, err := st.Items().Get(ctx, cur)
		if errors.Is(err, model.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if it.ParentID == nil {
			return nil
		}
		if *it.ParentID == self {
			return model.NewValidationError("parent_id", "would create a parent cycle")
		}
		cur = *it.ParentID
	}
	return model.NewValidationError("parent_id", "parent chain is too deep")
}

// Create persists the parent record and the typed payload in one transaction
// and returns the assembled view. The caller becomes the owner.
func Create[M model.Payload, P any](ctx context.Context, s *ItemService, k Kind[M, P], in NewItem[M], caller string) (*model.ViewItem, error) {
	if caller == "" {
		return nil, model.ErrUnauthorized
	}
	if err := validatePayload(in.Payload); err != nil {
		return nil, err
	}

	now := s.timestamp()
	parent := model.Item{
		ID:         s.newID(),
		ItemType:   k.Type,
		ParentID:   in.ParentID,
		ParentType: in.ParentType,
		OwnerID:    caller,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if in.DueDate != nil {
		d := in.DueDate.UTC()
		parent.DueDate = &d
	}
	payload := in.Payload
	k.Assign(&payload, parent.ID)

	var view model.ViewItem
	err := s.store.WithTx(ctx, func(tx store.Store) error {
		if err := s.checkLink(ctx, tx, parent.ID, in.ParentID, in.ParentType, caller); err != nil {
			return err
		}
		created, err := tx.Items().Create(ctx, &parent)
		if err != nil {
			return err
		}
		child, err := k.Store(tx).Create(ctx, &payload)
		if err != nil {
			return err
		}
		view = model.NewViewItem(*created, *child)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// Find returns the item when caller owns an item of kind k with that id.
// Missing and foreign items are both model.ErrNotFound.
func Find[M model.Payload, P any](ctx context.Context, s *ItemService, k Kind[M, P], id, caller string) (*model.ViewItem, error) {
	var view model.ViewItem
	err := s.store.WithTx(ctx, func(tx store.Store) error {
		if !s.hasOwner(ctx, tx, id, caller, k.Type) {
			return model.ErrNotFound
		}
		parent, err := tx.Items().Get(ctx, id)
		if err != nil {
			return err
		}
		child, err := k.Store(tx).Find(ctx, id)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return s.integrity(parent, "typed payload missing")
			}
			return err
		}
		view = model.NewViewItem(*parent, *child)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// Update applies patch to an owned item of kind k and returns the updated payload.
// The parent record's updated_at is refreshed on every successful update.
func Update[M model.Payload, P any](ctx context.Context, s *ItemService, k Kind[M, P], id string, patch Patch[P], caller string) (*M, error) {
	if err := validatePayload(patch.Fields); err != nil {
		return nil, err
	}
	var out *M
	err := s.store.WithTx(ctx, func(tx store.Store) error {
		if !s.hasOwner(ctx, tx, id, caller, k.Type) {
			return model.ErrNotFound
		}
		if err := s.checkLink(ctx, tx, id, patch.Item.ParentID, patch.Item.ParentType, caller); err != nil {
			return err
		}
		child, err := k.Store(tx).Update(ctx, id, patch.Fields)
		if err != nil {
			return err
		}
		if _, err := tx.Items().Update(ctx, id, patch.Item, s.timestamp()); err != nil {
			return err
		}
		out = child
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes an owned item of kind k: the payload first, then the parent
// record, in one transaction. Items that named it as parent keep their link.
func Delete[M model.Payload, P any](ctx context.Context, s *ItemService, k Kind[M, P], id, caller string) error {
	return s.store.WithTx(ctx, func(tx store.Store) error {
		if !s.hasOwner(ctx, tx, id, caller, k.Type) {
			return model.ErrNotFound
		}
		if err := k.Store(tx).Delete(ctx, id); err != nil {
			return err
		}
		return tx.Items().Delete(ctx, id, k.Type)
	})
}

// FindByParent returns every item owned by caller, or only those whose
// parent_id equals parentID, newest first (created_at then id, descending).
// A record that cannot be paired with its payload is a model.IntegrityError.
func (s *ItemService) FindByParent(ctx context.Context, parentID *string, caller string) ([]model.ViewItem, error) {
	if caller == "" {
		return nil, model.ErrUnauthorized
	}
	if parentID != nil {
		if err := model.ValidateID("parent_id", *parentID); err != nil {
			return nil, err
		}
	}

	var out []model.ViewItem
	err := s.store.WithTx(ctx, func(tx store.Store) error {
		parents, err := tx.Items().ListByOwner(ctx, caller, parentID)
		if err != nil {
			return err
		}
		out = make([]model.ViewItem, 0, len(parents))
		for _, it := range parents {
			kind, ok := s.kinds.lookup(it.ItemType)
			if !ok {
				return s.integrity(&it, "no typed store registered for item type")
			}
			payload, err := kind.load(ctx, tx, it.ID)
			if err != nil {
				if errors.Is(err, model.ErrNotFound) {
					return s.integrity(&it, "typed payload missing")
				}
				return err
			}
			out = append(out, model.NewViewItem(it, payload))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ItemService) integrity(it *model.Item, reason string) error {
	err := &model.IntegrityError{ItemID: it.ID, ItemType: it.ItemType, Reason: reason}
	s.log.Error().Stack().Err(err).Str("owner_id", it.OwnerID).Msg("item integrity violation")
	return err
}
