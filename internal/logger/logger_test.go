package logger

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func TestNew_WritesStructuredLines(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := New(Config{Level: "info", Output: &buf})
	l.Info().Str("slug", "abc").Msg("loaded")
	l.Debug().Msg("hidden")

	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("expected one JSON line, got %q: %v", buf.String(), err)
	}
	if line["service"] != "timeline" || line["slug"] != "abc" || line["message"] != "loaded" {
		t.Fatalf("unexpected log line: %v", line)
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]zerolog.Level{
		"debug":    zerolog.DebugLevel,
		"INFO":     zerolog.InfoLevel,
		"":         zerolog.WarnLevel,
		"error":    zerolog.ErrorLevel,
		"disabled": zerolog.Disabled,
		"bogus":    zerolog.WarnLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestOpenFile_CreatesParents(t *testing.T) {
	t.Parallel()

	f, err := OpenFile(filepath.Join(t.TempDir(), "nested", "timeline.log"))
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	_ = f.Close()
}
