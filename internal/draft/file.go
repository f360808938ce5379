package draft

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"timeline-cli/internal/model"
)

// FileStore keeps one JSON file per key inside Dir.
type FileStore struct {
	Dir string
	// Now stamps SavedAt; defaults to time.Now.
	Now func() time.Time
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.Dir, url.QueryEscape(key)+".json")
}

func (s *FileStore) ensure() error {
	if strings.TrimSpace(s.Dir) == "" {
		return ErrUnavailable
	}
	return os.MkdirAll(s.Dir, 0o755)
}

func (s *FileStore) Save(key string, snap model.Snapshot) error {
	if err := s.ensure(); err != nil {
		return err
	}
	snap.SavedAt = s.now()
	b, err := encode(snap)
	if err != nil {
		return err
	}
	return atomicWriteFile(s.Dir, "draft.*.tmp", s.path(key), b, 0o600)
}

func (s *FileStore) Load(key string) (model.Snapshot, bool, error) {
	if strings.TrimSpace(s.Dir) == "" {
		return model.Snapshot{}, false, ErrUnavailable
	}
	b, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.Snapshot{}, false, nil
		}
		return model.Snapshot{}, false, err
	}
	snap, ok := decode(b)
	return snap, ok, nil
}

func (s *FileStore) Clear(key string) error {
	if strings.TrimSpace(s.Dir) == "" {
		return ErrUnavailable
	}
	err := os.Remove(s.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Keys lists the keys that currently have a draft file.
func (s *FileStore) Keys() ([]string, error) {
	ents, err := os.ReadDir(s.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var out []string
	for _, e := range ents {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		key, err := url.QueryUnescape(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		out = append(out, key)
	}
	return out, nil
}

func (s *FileStore) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func atomicWriteFile(dir, tmpPattern, path string, b []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}
