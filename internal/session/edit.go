package session

import (
	"fmt"

	"timeline-cli/internal/model"
	"timeline-cli/internal/order"
	"timeline-cli/internal/undo"
)

// SetEditMode switches edit mode. Leaving edit mode does not clear the draft.
func (s *Session) SetEditMode(on bool) {
	s.mu.Lock()
	s.editMode = on
	s.mu.Unlock()
}

func (s *Session) ToggleEditMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editMode = !s.editMode
	return s.editMode
}

func (s *Session) SetTitle(title string) error {
	return s.mutate(func(doc *model.Timeline) error {
		doc.Title = title
		return nil
	})
}

// SetEventDate sets the event day (YYYY-MM-DD); "" unsets it.
func (s *Session) SetEventDate(date string) error {
	return s.mutate(func(doc *model.Timeline) error {
		doc.EventDate = date
		return nil
	})
}

func (s *Session) SetItemField(id string, field model.Field, value string) error {
	return s.mutate(func(doc *model.Timeline) error {
		i := order.IndexOf(doc.Items, id)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrUnknownItem, id)
		}
		items := model.CloneItems(doc.Items)
		switch field {
		case model.FieldTime:
			items[i].Time = value
		case model.FieldLabel:
			items[i].Label = value
		default:
			return fmt.Errorf("%w: %s", ErrUnknownField, field)
		}
		doc.Items = items
		return nil
	})
}

// AddItem appends a placeholder item and returns it.
func (s *Session) AddItem() (model.Item, error) {
	var added model.Item
	err := s.mutate(func(doc *model.Timeline) error {
		doc.Items, added = order.Add(doc.Items)
		return nil
	})
	return added, err
}

// Move relocates activeID to the position held by overID. Unknown or equal ids leave the
// order unchanged.
func (s *Session) Move(activeID, overID string) error {
	return s.mutate(func(doc *model.Timeline) error {
		from, to := order.IndexOf(doc.Items, activeID), order.IndexOf(doc.Items, overID)
		if from < 0 || to < 0 || from == to {
			return errNoChange
		}
		doc.Items = order.Move(doc.Items, activeID, overID)
		return nil
	})
}

// SortByTime orders items by clock time. Only ever invoked explicitly.
func (s *Session) SortByTime() error {
	return s.mutate(func(doc *model.Timeline) error {
		doc.Items = order.SortByTime(doc.Items)
		return nil
	})
}

// DeleteItem removes the item and holds it in the undo buffer. A deletion that was still
// pending is committed.
func (s *Session) DeleteItem(id string) (model.Item, error) {
	var removed model.Item
	err := s.mutate(func(doc *model.Timeline) error {
		i := order.IndexOf(doc.Items, id)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrUnknownItem, id)
		}
		items, it, _ := order.RemoveAt(doc.Items, i)
		s.undo.Push(it, i)
		doc.Items = items
		removed = it
		return nil
	})
	return removed, err
}

// UndoDelete restores the pending deletion at the end of the list. ok is false when there
// is nothing to undo (never deleted, already undone, or expired).
func (s *Session) UndoDelete() (model.Item, bool) {
	// Take may run the expiry callback, which takes s.mu.
	p, ok := s.undo.Take()
	if !ok {
		return model.Item{}, false
	}
	err := s.mutate(func(doc *model.Timeline) error {
		if order.IndexOf(doc.Items, p.Item.ID) >= 0 {
			return errNoChange
		}
		items := make([]model.Item, 0, len(doc.Items)+1)
		items = append(items, doc.Items...)
		doc.Items = append(items, p.Item)
		return nil
	})
	if err != nil {
		return model.Item{}, false
	}
	return p.Item, true
}

// CommitDelete makes a pending deletion final without waiting for the undo window, and
// rewrites the draft without the item.
func (s *Session) CommitDelete() {
	if _, ok := s.undo.Pending(); !ok {
		return
	}
	s.undo.Clear()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.status != StatusReady || !s.dirty {
		return
	}
	s.persistLocked()
}

// Pending reports the deletion that can still be undone.
func (s *Session) Pending() (undo.Pending, bool) {
	return s.undo.Pending()
}

func (s *Session) onUndoExpired(p undo.Pending) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.status != StatusReady || !s.dirty {
		return
	}
	s.log.Debug().Str("item", p.Item.ID).Msg("deletion committed")
	// The draft carried the item while the deletion was pending.
	s.persistLocked()
}
