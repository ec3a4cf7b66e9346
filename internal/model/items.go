package model

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// ItemType tags which typed child store owns an item's payload.
type ItemType int16

const (
	TypePage      ItemType = 100
	TypeTodo      ItemType = 200
	TypeTodoItem  ItemType = 210
	TypeTextField ItemType = 300
)

func (t ItemType) String() string {
	switch t {
	case TypePage:
		return "page"
	case TypeTodo:
		return "todo"
	case TypeTodoItem:
		return "todo_item"
	case TypeTextField:
		return "text_field"
	default:
		return fmt.Sprintf("item_type(%d)", int16(t))
	}
}

// Item is the parent record shared by every item kind.
type Item struct {
	ID         string     `json:"id"`
	ItemType   ItemType   `json:"item_type"`
	ParentID   *string    `json:"parent_id,omitempty"`
	ParentType *ItemType  `json:"parent_type,omitempty"`
	OwnerID    string     `json:"owner_id"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DueDate    *time.Time `json:"due_date,omitempty"`
}

// ItemPatch carries the mutable parent record fields. Nil fields are left unchanged.
type ItemPatch struct {
	ParentID   *string    `json:"parent_id,omitempty"`
	ParentType *ItemType  `json:"parent_type,omitempty"`
	DueDate    *time.Time `json:"due_date,omitempty"`
}

// Payload is implemented by every typed child record.
type Payload interface {
	ItemType() ItemType
	ItemID() string
}

// Page is a top-level journal page.
type Page struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func (p Page) ItemType() ItemType { return TypePage }
func (p Page) ItemID() string     { return p.ID }

func (p Page) Validate() error {
	return requireText("title", p.Title, 255)
}

type PagePatch struct {
	Title *string `json:"title,omitempty"`
}

func (p PagePatch) Validate() error {
	return optionalText("title", p.Title, 255)
}

// Todo is a list of TodoItems.
type Todo struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func (t Todo) ItemType() ItemType { return TypeTodo }
func (t Todo) ItemID() string     { return t.ID }

func (t Todo) Validate() error {
	return requireText("title", t.Title, 255)
}

type TodoPatch struct {
	Title *string `json:"title,omitempty"`
}

func (p TodoPatch) Validate() error {
	return optionalText("title", p.Title, 255)
}

// TodoItem is a single checkable entry, normally parented by a Todo.
type TodoItem struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Checked bool   `json:"checked"`
}

func (t TodoItem) ItemType() ItemType { return TypeTodoItem }
func (t TodoItem) ItemID() string     { return t.ID }

func (t TodoItem) Validate() error {
	return requireText("title", t.Title, 255)
}

type TodoItemPatch struct {
	Title   *string `json:"title,omitempty"`
	Checked *bool   `json:"checked,omitempty"`
}

func (p TodoItemPatch) Validate() error {
	return optionalText("title", p.Title, 255)
}

// maxTextLen is the TextField limit in characters.
const maxTextLen = 65535

// TextField is a free-form block of text, usually on a Page.
type TextField struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

func (t TextField) ItemType() ItemType { return TypeTextField }
func (t TextField) ItemID() string     { return t.ID }

func (t TextField) Validate() error {
	if utf8.RuneCountInString(t.Text) > maxTextLen {
		return NewValidationError("text", "exceeds 65535 characters")
	}
	return nil
}

type TextFieldPatch struct {
	Text *string `json:"text,omitempty"`
}

func (p TextFieldPatch) Validate() error {
	if p.Text != nil && utf8.RuneCountInString(*p.Text) > maxTextLen {
		return NewValidationError("text", "exceeds 65535 characters")
	}
	return nil
}

func requireText(field, v string, limit int) error {
	if v == "" {
		return NewValidationError(field, "is required")
	}
	if utf8.RuneCountInString(v) > limit {
		return NewValidationError(field, fmt.Sprintf("exceeds %d characters", limit))
	}
	return nil
}

func optionalText(field string, v *string, limit int) error {
	if v == nil {
		return nil
	}
	return requireText(field, *v, limit)
}
