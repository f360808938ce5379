package remote

import (
	"encoding/json"

	"timeline-cli/internal/model"
)

// Document is the canonical timeline as the document store returns it. Items are kept raw
// because upstream data is not trusted to be well-formed; see Timeline.
type Document struct {
	Title     *string           `json:"title"`
	EventDate *string           `json:"event_date"`
	Items     []json.RawMessage `json:"items"`
}

// ReplaceRequest is the full-replacement body sent on save.
type ReplaceRequest struct {
	Title     *string      `json:"title"`
	EventDate *string      `json:"event_date"`
	Items     []model.Item `json:"items"`
}

// Timeline normalizes the document into a well-formed timeline.
func (d Document) Timeline() model.Timeline {
	t := model.Timeline{Items: model.NormalizeItems(d.Items)}
	if d.Title != nil {
		t.Title = *d.Title
	}
	if d.EventDate != nil {
		t.EventDate = *d.EventDate
	}
	return t
}

func NewReplaceRequest(t model.Timeline) ReplaceRequest {
	items := model.CloneItems(t.Items)
	return ReplaceRequest{
		Title:     optional(t.Title),
		EventDate: optional(t.EventDate),
		Items:     items,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
