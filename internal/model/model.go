package model

import (
	"time"

	"github.com/google/uuid"
)

// Item is one entry on a timeline.
//
// ID is opaque and stable: it is assigned once (client- or server-side) and is never
// recomputed from Time or Label.
type Item struct {
	ID    string `json:"id"`
	Time  string `json:"time"`
	Label string `json:"label"`
}

// Timeline is the editable document: an optional title, an optional event date
// (YYYY-MM-DD) and the ordered items. Empty Title/EventDate mean "not set".
type Timeline struct {
	Title     string `json:"title"`
	EventDate string `json:"event_date"`
	Items     []Item `json:"items"`
}

// Snapshot is a copy of a timeline as persisted in the draft store.
type Snapshot struct {
	Title     string    `json:"title"`
	EventDate string    `json:"event_date"`
	Items     []Item    `json:"items"`
	SavedAt   time.Time `json:"savedAt,omitempty"`
}

// Field names an editable item field.
type Field string

const (
	FieldTime  Field = "time"
	FieldLabel Field = "label"
)

const (
	// NewItemLabel is the placeholder label of a freshly added item.
	NewItemLabel = "New item"
	// DefaultTitle is shown when a timeline has no title.
	DefaultTitle = "Wedding Timeline"
)

// NewItemID returns a fresh random item id.
func NewItemID() string {
	return uuid.NewString()
}

func (t Timeline) Clone() Timeline {
	out := t
	out.Items = CloneItems(t.Items)
	return out
}

func (t Timeline) Snapshot() Snapshot {
	return Snapshot{
		Title:     t.Title,
		EventDate: t.EventDate,
		Items:     CloneItems(t.Items),
	}
}

func (s Snapshot) Timeline() Timeline {
	return Timeline{
		Title:     s.Title,
		EventDate: s.EventDate,
		Items:     CloneItems(s.Items),
	}
}

func CloneItems(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

func ParseField(s string) (Field, bool) {
	switch Field(s) {
	case FieldTime, FieldLabel:
		return Field(s), true
	default:
		return "", false
	}
}
