package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"timeline-cli/internal/model"

	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("timeline not found")

// Record is one stored timeline. Nil Title/EventDate are stored as NULL.
type Record struct {
	Title     *string      `json:"title"`
	EventDate *string      `json:"event_date"`
	Items     []model.Item `json:"items"`
	UpdatedAt time.Time    `json:"-"`
}

// Store keeps timelines in a SQLite file, keyed by public slug.
type Store struct {
	Path string
	Now  func() time.Time
}

func (s *Store) open(ctx context.Context) (*sql.DB, error) {
	if strings.TrimSpace(s.Path) == "" {
		return nil, errors.New("server: store path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", s.Path)
	if err != nil {
		return nil, err
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS timelines (
		slug TEXT PRIMARY KEY,
		title TEXT,
		event_date TEXT,
		items_json TEXT NOT NULL,
		updated_at_unixms INTEGER NOT NULL
	);`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Store) Get(ctx context.Context, slug string) (Record, error) {
	db, err := s.open(ctx)
	if err != nil {
		return Record{}, err
	}
	defer db.Close()

	var (
		title, date sql.NullString
		itemsJSON   string
		updated     int64
	)
	err = db.QueryRowContext(ctx,
		`SELECT title, event_date, items_json, updated_at_unixms FROM timelines WHERE slug = ?`, slug,
	).Scan(&title, &date, &itemsJSON, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	rec := Record{UpdatedAt: time.UnixMilli(updated)}
	if title.Valid {
		rec.Title = &title.String
	}
	if date.Valid {
		rec.EventDate = &date.String
	}
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(itemsJSON), &raw); err != nil {
		return Record{}, err
	}
	rec.Items = model.NormalizeItems(raw)
	return rec, nil
}

// Put creates or overwrites the timeline stored under slug.
func (s *Store) Put(ctx context.Context, slug string, rec Record) error {
	db, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	itemsJSON, err := encodeItems(rec.Items)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `INSERT INTO timelines(slug, title, event_date, items_json, updated_at_unixms)
		VALUES(?, ?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
			title=excluded.title,
			event_date=excluded.event_date,
			items_json=excluded.items_json,
			updated_at_unixms=excluded.updated_at_unixms;`,
		slug, nullable(rec.Title), nullable(rec.EventDate), itemsJSON, s.now().UnixMilli())
	return err
}

// Replace overwrites an existing timeline and returns what was stored.
func (s *Store) Replace(ctx context.Context, slug string, rec Record) (Record, error) {
	db, err := s.open(ctx)
	if err != nil {
		return Record{}, err
	}
	defer db.Close()

	itemsJSON, err := encodeItems(rec.Items)
	if err != nil {
		return Record{}, err
	}
	now := s.now()
	res, err := db.ExecContext(ctx,
		`UPDATE timelines SET title = ?, event_date = ?, items_json = ?, updated_at_unixms = ? WHERE slug = ?`,
		nullable(rec.Title), nullable(rec.EventDate), itemsJSON, now.UnixMilli(), slug)
	if err != nil {
		return Record{}, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return Record{}, err
	} else if n == 0 {
		return Record{}, ErrNotFound
	}
	rec.UpdatedAt = time.UnixMilli(now.UnixMilli())
	return rec, nil
}

func (s *Store) Slugs(ctx context.Context) ([]string, error) {
	db, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT slug FROM timelines ORDER BY slug`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, err
		}
		out = append(out, slug)
	}
	return out, rows.Err()
}

func encodeItems(items []model.Item) (string, error) {
	if items == nil {
		items = []model.Item{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
