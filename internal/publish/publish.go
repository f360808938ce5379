// Package publish writes a timeline to disk in its shareable forms.
package publish

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"timeline-cli/internal/format"
	"timeline-cli/internal/model"
)

type WriteOptions struct {
	Overwrite bool
	// SkipText omits the plain-text copy.
	SkipText bool
}

type WriteResult struct {
	Written []string `json:"written"`
}

// WriteTimeline writes <slug>.md (and <slug>.txt unless SkipText) into toDir.
func WriteTimeline(slug string, t model.Timeline, toDir string, opt WriteOptions) (WriteResult, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return WriteResult{}, errors.New("missing slug")
	}
	toDir = strings.TrimSpace(toDir)
	if toDir == "" {
		return WriteResult{}, errors.New("missing --to")
	}
	toDir = filepath.Clean(toDir)
	if err := os.MkdirAll(toDir, 0o755); err != nil {
		return WriteResult{}, err
	}

	base := filepath.Join(toDir, url.PathEscape(slug))
	files := []struct {
		path string
		body string
	}{
		{base + ".md", format.Markdown(t)},
	}
	if !opt.SkipText {
		files = append(files, struct {
			path string
			body string
		}{base + ".txt", format.CopyText(t) + "\n"})
	}

	// Check everything first so a refusal leaves nothing half-written.
	if !opt.Overwrite {
		for _, f := range files {
			if _, err := os.Stat(f.path); err == nil {
				return WriteResult{}, errors.New("file exists (use --overwrite): " + f.path)
			}
		}
	}
	var res WriteResult
	for _, f := range files {
		if err := os.WriteFile(f.path, []byte(f.body), 0o644); err != nil {
			return WriteResult{}, err
		}
		res.Written = append(res.Written, f.path)
	}
	return res, nil
}
