package draft

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"timeline-cli/internal/model"

	_ "modernc.org/sqlite"
)

const sqliteFileName = "drafts.sqlite"

func sqlitePathIn(dir string) string {
	if strings.TrimSpace(dir) == "" {
		return ""
	}
	return filepath.Join(dir, sqliteFileName)
}

// SQLiteStore keeps drafts as JSON rows in a single SQLite database file.
type SQLiteStore struct {
	Path string
	Now  func() time.Time
}

func (s *SQLiteStore) open(ctx context.Context) (*sql.DB, error) {
	if strings.TrimSpace(s.Path) == "" {
		return nil, ErrUnavailable
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return nil, err
	}
	// modernc.org/sqlite driver name is "sqlite".
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
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS drafts (
		key TEXT PRIMARY KEY,
		json TEXT NOT NULL,
		saved_at_unixms INTEGER NOT NULL
	);`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func (s *SQLiteStore) Save(key string, snap model.Snapshot) error {
	ctx := context.Background()
	db, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	snap.SavedAt = s.now()
	b, err := encode(snap)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `INSERT OR REPLACE INTO drafts(key, json, saved_at_unixms) VALUES(?, ?, ?)`,
		key, string(b), snap.SavedAt.UTC().UnixMilli())
	return err
}

func (s *SQLiteStore) Load(key string) (model.Snapshot, bool, error) {
	ctx := context.Background()
	db, err := s.open(ctx)
	if err != nil {
		return model.Snapshot{}, false, err
	}
	defer db.Close()

	var js string
	err = db.QueryRowContext(ctx, `SELECT json FROM drafts WHERE key = ?`, key).Scan(&js)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Snapshot{}, false, nil
	}
	if err != nil {
		return model.Snapshot{}, false, err
	}
	snap, ok := decode([]byte(js))
	return snap, ok, nil
}

func (s *SQLiteStore) Clear(key string) error {
	ctx := context.Background()
	db, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.ExecContext(ctx, `DELETE FROM drafts WHERE key = ?`, key)
	return err
}

// Keys lists the keys that currently have a draft row.
func (s *SQLiteStore) Keys() ([]string, error) {
	ctx := context.Background()
	db, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT key FROM drafts ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
