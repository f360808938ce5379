// Package order maintains the order of timeline items under drag-reorder and structural edits.
//
// Every function returns a new slice and leaves its input untouched. Order is never derived
// from item content, except by SortByTime, which callers invoke explicitly.
package order

import (
	"sort"
	"strconv"
	"strings"

	"timeline-cli/internal/model"
)

// IndexOf returns the index of the item with the given id, or -1.
func IndexOf(items []model.Item, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

// Move relocates the item activeID to the index currently held by overID: the active item
// is extracted and reinserted, shifting everything in between by one position.
//
// If either id is unknown, or both are the same, the order is returned unchanged.
func Move(items []model.Item, activeID, overID string) []model.Item {
	from := IndexOf(items, activeID)
	to := IndexOf(items, overID)
	if from < 0 || to < 0 || from == to {
		return model.CloneItems(items)
	}

	out := make([]model.Item, len(items))
	moved := items[from]
	switch {
	case from < to:
		copy(out, items[:from])
		copy(out[from:], items[from+1:to+1])
		out[to] = moved
		copy(out[to+1:], items[to+1:])
	default:
		copy(out, items[:to])
		out[to] = moved
		copy(out[to+1:], items[to:from])
		copy(out[from+1:], items[from+1:])
	}
	return out
}

// Add appends a new placeholder item with a fresh id.
func Add(items []model.Item) ([]model.Item, model.Item) {
	it := model.Item{ID: model.NewItemID(), Time: "", Label: model.NewItemLabel}
	out := make([]model.Item, 0, len(items)+1)
	out = append(out, items...)
	out = append(out, it)
	return out, it
}

// RemoveAt drops the element at index. ok is false (and the order unchanged) when index
// is out of bounds.
func RemoveAt(items []model.Item, index int) (out []model.Item, removed model.Item, ok bool) {
	if index < 0 || index >= len(items) {
		return model.CloneItems(items), model.Item{}, false
	}
	out = make([]model.Item, 0, len(items)-1)
	out = append(out, items[:index]...)
	out = append(out, items[index+1:]...)
	return out, items[index], true
}

// SortByTime orders items by their clock time. Items whose time cannot be read keep their
// relative order and go after all items that can.
func SortByTime(items []model.Item) []model.Item {
	type keyed struct {
		it  model.Item
		min int
		ok  bool
	}
	ks := make([]keyed, len(items))
	for i, it := range items {
		m, ok := ParseClock(it.Time)
		ks[i] = keyed{it: it, min: m, ok: ok}
	}
	sort.SliceStable(ks, func(i, j int) bool {
		a, b := ks[i], ks[j]
		if a.ok != b.ok {
			return a.ok
		}
		if !a.ok {
			return false
		}
		return a.min < b.min
	})
	out := make([]model.Item, len(ks))
	for i := range ks {
		out[i] = ks[i].it
	}
	return out
}

// ParseClock reads a free-form clock label and returns minutes after midnight.
//
// Accepted: "15:04", "3:04 PM", "3:04pm", "3 PM", "3PM". Surrounding text is not accepted.
func ParseClock(s string) (int, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}

	meridiem := ""
	switch {
	case strings.HasSuffix(s, "am"):
		meridiem = "am"
	case strings.HasSuffix(s, "pm"):
		meridiem = "pm"
	}
	if meridiem != "" {
		s = strings.TrimSpace(strings.TrimSuffix(s, meridiem))
	}

	hStr, mStr, hasMin := strings.Cut(s, ":")
	h, err := strconv.Atoi(hStr)
	if err != nil {
		return 0, false
	}
	m := 0
	if hasMin {
		if len(mStr) != 2 {
			return 0, false
		}
		m, err = strconv.Atoi(mStr)
		if err != nil || m < 0 || m > 59 {
			return 0, false
		}
	} else if meridiem == "" {
		// A bare number is not a time.
		return 0, false
	}

	switch meridiem {
	case "":
		if h < 0 || h > 23 {
			return 0, false
		}
	default:
		if h < 1 || h > 12 {
			return 0, false
		}
		if h == 12 {
			h = 0
		}
		if meridiem == "pm" {
			h += 12
		}
	}
	return h*60 + m, true
}
