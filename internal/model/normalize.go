package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

// NormalizeItem turns possibly-partial, untyped input into a usable Item.
//
// Accepted inputs: Item, *Item, map[string]any, json.RawMessage / []byte holding a JSON
// object. Anything else yields an empty item with a fresh id. The id is kept only when it
// is a non-blank string; time and label are coerced to text ("" when absent).
func NormalizeItem(raw any) Item {
	switch v := raw.(type) {
	case Item:
		return normalizeTyped(v)
	case *Item:
		if v == nil {
			return Item{ID: NewItemID()}
		}
		return normalizeTyped(*v)
	case map[string]any:
		return normalizeMap(v)
	case json.RawMessage:
		return normalizeJSON(v)
	case []byte:
		return normalizeJSON(v)
	default:
		return Item{ID: NewItemID()}
	}
}

// NormalizeItems normalizes every element and reassigns ids that repeat within the list,
// so the result always satisfies the per-document uniqueness invariant.
func NormalizeItems[T any](raw []T) []Item {
	out := make([]Item, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, r := range raw {
		it := NormalizeItem(any(r))
		if seen[it.ID] {
			it.ID = NewItemID()
		}
		seen[it.ID] = true
		out = append(out, it)
	}
	return out
}

func normalizeTyped(it Item) Item {
	if strings.TrimSpace(it.ID) == "" {
		it.ID = NewItemID()
	}
	return it
}

func normalizeJSON(b []byte) Item {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil || m == nil {
		return Item{ID: NewItemID()}
	}
	return normalizeMap(m)
}

func normalizeMap(m map[string]any) Item {
	it := Item{
		Time:  coerceText(m["time"]),
		Label: coerceText(m["label"]),
	}
	if id, ok := m["id"].(string); ok && strings.TrimSpace(id) != "" {
		it.ID = id
	} else {
		it.ID = NewItemID()
	}
	return it
}

// coerceText renders scalars as text. Composite values (objects, arrays) become "".
func coerceText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	default:
		return ""
	}
}
