package model

// ViewItem is the read-only composite of a parent record and its typed payload.
// It is produced by read paths only and never persisted.
type ViewItem struct {
	Item
	Kind    string  `json:"kind"`
	Payload Payload `json:"payload"`
}

// NewViewItem pairs it with p. The payload's type must match it.ItemType.
func NewViewItem(it Item, p Payload) ViewItem {
	return ViewItem{Item: it, Kind: it.ItemType.String(), Payload: p}
}
