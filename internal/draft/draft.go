// Package draft persists in-progress timeline edits on the local device, one snapshot per
// document slug.
//
// Stores are best-effort from the caller's point of view: malformed stored data loads as
// absent, and callers are expected to tolerate (log and ignore) any returned error.
package draft

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"timeline-cli/internal/model"
)

const (
	keyPrefix     = "timeline-draft:"
	formatVersion = 1
)

// ErrUnavailable is returned when the persistence medium cannot be used.
var ErrUnavailable = errors.New("draft storage unavailable")

type Store interface {
	// Save overwrites the draft stored under key.
	Save(key string, snap model.Snapshot) error
	// Load returns the stored draft; ok is false when there is none or it cannot be parsed.
	Load(key string) (snap model.Snapshot, ok bool, err error)
	// Clear removes any draft stored under key.
	Clear(key string) error
}

// Lister is implemented by stores that can enumerate their keys.
type Lister interface {
	Keys() ([]string, error)
}

// Key derives the storage key for a document slug.
func Key(slug string) string {
	return keyPrefix + strings.TrimSpace(slug)
}

// SlugFromKey is the inverse of Key.
func SlugFromKey(key string) (string, bool) {
	if !strings.HasPrefix(key, keyPrefix) {
		return "", false
	}
	return strings.TrimPrefix(key, keyPrefix), true
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Open builds a store for the named backend rooted at dir.
func Open(backend, dir string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendFile:
		return &FileStore{Dir: dir}, nil
	case BackendSQLite:
		return &SQLiteStore{Path: sqlitePathIn(dir)}, nil
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown draft backend: %s", backend)
	}
}

// wireDraft is the stored representation. Items stay raw so that one bad entry does not
// invalidate the whole draft; they are normalized on decode.
type wireDraft struct {
	Version   int               `json:"version"`
	SavedAt   time.Time         `json:"savedAt"`
	Title     *string           `json:"title"`
	EventDate *string           `json:"event_date"`
	Items     []json.RawMessage `json:"items"`
}

func encode(snap model.Snapshot) ([]byte, error) {
	w := wireDraft{
		Version:   formatVersion,
		SavedAt:   snap.SavedAt.UTC(),
		Title:     optional(snap.Title),
		EventDate: optional(snap.EventDate),
		Items:     make([]json.RawMessage, 0, len(snap.Items)),
	}
	for _, it := range snap.Items {
		b, err := json.Marshal(it)
		if err != nil {
			return nil, err
		}
		w.Items = append(w.Items, b)
	}
	return json.MarshalIndent(w, "", "  ")
}

// decode returns ok=false for anything that is not a readable draft.
func decode(b []byte) (model.Snapshot, bool) {
	var w wireDraft
	if err := json.Unmarshal(b, &w); err != nil {
		return model.Snapshot{}, false
	}
	if w.Version != formatVersion {
		return model.Snapshot{}, false
	}
	snap := model.Snapshot{
		SavedAt: w.SavedAt,
		Items:   model.NormalizeItems(w.Items),
	}
	if w.Title != nil {
		snap.Title = *w.Title
	}
	if w.EventDate != nil {
		snap.EventDate = *w.EventDate
	}
	return snap, true
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Unavailable is a Store whose medium is never usable.
type Unavailable struct{}

func (Unavailable) Save(string, model.Snapshot) error { return ErrUnavailable }
func (Unavailable) Load(string) (model.Snapshot, bool, error) {
	return model.Snapshot{}, false, ErrUnavailable
}
func (Unavailable) Clear(string) error { return ErrUnavailable }
