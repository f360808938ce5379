package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"timeline-cli/internal/draft"
	"timeline-cli/internal/format"
	"timeline-cli/internal/model"
	"timeline-cli/internal/publish"
	"timeline-cli/internal/server"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedDoc = `{"title":"A&B","event_date":"2025-06-01","items":[
	{"id":"1","time":"10:00 AM","label":"Hair & makeup"},
	{"id":"2","time":"4:30 PM","label":"Ceremony"},
	{"id":"3","time":"1:00 PM","label":"First look"}]}`

type env struct {
	t       *testing.T
	store   *server.Store
	url     string
	drafts  string
	copied  []string
	copyErr error
}

// newEnv starts a document store seeded with "abc123" and isolates config lookup.
// Tests using it cannot run in parallel (t.Setenv).
func newEnv(t *testing.T) *env {
	t.Helper()
	t.Setenv("TIMELINE_CONFIG_DIR", t.TempDir())
	t.Setenv("TIMELINE_API_TOKEN", "")
	t.Setenv("TIMELINE_API_TOKEN_SSM", "")
	t.Setenv("TIMELINE_DRAFT_BACKEND", "")
	t.Setenv("LOG_LEVEL", "disabled")

	st := &server.Store{Path: filepath.Join(t.TempDir(), "timelines.sqlite")}
	srv, err := server.New(server.Config{Store: st})
	require.NoError(t, err)
	require.NoError(t, srv.Seed(t.Context(), "abc123", strings.NewReader(seedDoc)))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &env{t: t, store: st, url: ts.URL, drafts: t.TempDir()}
}

func (e *env) run(args ...string) (stdout []byte, stderr []byte, err error) {
	e.t.Helper()

	app := &App{copy: func(s string) error {
		if e.copyErr != nil {
			return e.copyErr
		}
		e.copied = append(e.copied, s)
		return nil
	}}
	cmd := newRootCmd(app)

	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(append([]string{"--api", e.url, "--drafts", e.drafts}, args...))

	err = cmd.ExecuteContext(e.t.Context())
	return outBuf.Bytes(), errBuf.Bytes(), err
}

func (e *env) mustRun(args ...string) []byte {
	e.t.Helper()
	out, errOut, err := e.run(args...)
	require.NoError(e.t, err, "stderr:\n%s", errOut)
	return out
}

type envelope[T any] struct {
	Data T `json:"data"`
}

func decodeData[T any](t *testing.T, b []byte) T {
	t.Helper()
	var out envelope[T]
	require.NoError(t, json.Unmarshal(b, &out), "output: %s", b)
	return out.Data
}

func labels(items []model.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Label)
	}
	return out
}

func TestShow_ReturnsRemoteDocument(t *testing.T) {
	e := newEnv(t)

	got := decodeData[timelineOut](t, e.mustRun("show", "abc123"))
	assert.Equal(t, "abc123", got.Slug)
	assert.Equal(t, "A&B", got.Title)
	assert.Equal(t, "2025-06-01", got.EventDate)
	assert.Equal(t, []string{"Hair & makeup", "Ceremony", "First look"}, labels(got.Items))
	assert.False(t, got.RestoredDraft)
	assert.Nil(t, got.DraftSavedAt)
}

func TestShow_UnknownSlug(t *testing.T) {
	e := newEnv(t)

	_, errOut, err := e.run("show", "missing")
	require.Error(t, err)
	var nf notFoundError
	assert.True(t, errors.As(err, &nf))
	assert.Contains(t, string(errOut), "timeline not found: missing")
}

func TestShow_Render(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	e := newEnv(t)

	out := string(e.mustRun("show", "abc123", "--render"))
	assert.Contains(t, out, "A&B")
	assert.Contains(t, out, "Ceremony")
	assert.NotContains(t, out, `"data"`)
}

func TestItemsAdd_KeepsDraftUntilSave(t *testing.T) {
	e := newEnv(t)

	added := decodeData[model.Item](t, e.mustRun("items", "add", "abc123", "--time", "6:00 PM", "--label", "Dinner"))
	assert.NotEmpty(t, added.ID)
	assert.Equal(t, "Dinner", added.Label)

	shown := decodeData[timelineOut](t, e.mustRun("show", "abc123"))
	assert.True(t, shown.RestoredDraft)
	assert.NotNil(t, shown.DraftSavedAt)
	assert.Equal(t, []string{"Hair & makeup", "Ceremony", "First look", "Dinner"}, labels(shown.Items))

	// The document store is untouched until save.
	rec, err := e.store.Get(t.Context(), "abc123")
	require.NoError(t, err)
	assert.Len(t, rec.Items, 3)

	saved := decodeData[timelineOut](t, e.mustRun("save", "abc123"))
	assert.False(t, saved.Dirty)
	assert.Equal(t, labels(shown.Items), labels(saved.Items))

	rec, err = e.store.Get(t.Context(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, []string{"Hair & makeup", "Ceremony", "First look", "Dinner"}, labels(rec.Items))
	assert.Equal(t, added.ID, rec.Items[3].ID)

	_, _, err = e.run("draft", "show", "abc123")
	var nf notFoundError
	assert.True(t, errors.As(err, &nf), "draft should be cleared after save; got %v", err)
}

func TestItemsAdd_DefaultsToPlaceholder(t *testing.T) {
	e := newEnv(t)

	added := decodeData[model.Item](t, e.mustRun("items", "add", "abc123"))
	assert.Equal(t, model.NewItemLabel, added.Label)
	assert.Equal(t, "", added.Time)
}

func TestItemsSet(t *testing.T) {
	e := newEnv(t)

	got := decodeData[model.Item](t, e.mustRun("items", "set", "abc123", "2", "--label", "Vows"))
	assert.Equal(t, model.Item{ID: "2", Time: "4:30 PM", Label: "Vows"}, got)

	_, _, err := e.run("items", "set", "abc123", "nope", "--label", "x")
	var nf notFoundError
	assert.True(t, errors.As(err, &nf))

	_, _, err = e.run("items", "set", "abc123", "2")
	assert.Error(t, err)
}

func TestItemsMoveAndSort(t *testing.T) {
	e := newEnv(t)

	moved := decodeData[timelineOut](t, e.mustRun("items", "move", "abc123", "3", "--over", "1"))
	assert.Equal(t, []string{"First look", "Hair & makeup", "Ceremony"}, labels(moved.Items))

	_, _, err := e.run("items", "move", "abc123", "3", "--over", "missing")
	assert.Error(t, err)

	sorted := decodeData[timelineOut](t, e.mustRun("items", "sort", "abc123"))
	assert.Equal(t, []string{"Hair & makeup", "First look", "Ceremony"}, labels(sorted.Items))
}

func TestItemsDelete_CommitsToDraft(t *testing.T) {
	e := newEnv(t)

	removed := decodeData[model.Item](t, e.mustRun("items", "delete", "abc123", "2"))
	assert.Equal(t, "Ceremony", removed.Label)

	d := decodeData[draftOut](t, e.mustRun("draft", "show", "abc123"))
	assert.Equal(t, []string{"Hair & makeup", "First look"}, labels(d.Items))

	_, _, err := e.run("items", "delete", "abc123", "2")
	var nf notFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestTitleAndDate(t *testing.T) {
	e := newEnv(t)

	got := decodeData[timelineOut](t, e.mustRun("title", "abc123", "  C&D  "))
	assert.Equal(t, "C&D", got.Title)

	got = decodeData[timelineOut](t, e.mustRun("date", "abc123", "2026-09-12"))
	assert.Equal(t, "2026-09-12", got.EventDate)

	_, errOut, err := e.run("date", "abc123", "12/09/2026")
	require.Error(t, err)
	assert.Contains(t, string(errOut), "expected YYYY-MM-DD")

	got = decodeData[timelineOut](t, e.mustRun("date", "abc123", ""))
	assert.Equal(t, "", got.EventDate)
}

func TestCopy(t *testing.T) {
	e := newEnv(t)

	e.mustRun("copy", "abc123")
	require.Len(t, e.copied, 1)

	want := format.CopyText(model.Timeline{
		Title:     "A&B",
		EventDate: "2025-06-01",
		Items: []model.Item{
			{ID: "1", Time: "10:00 AM", Label: "Hair & makeup"},
			{ID: "2", Time: "4:30 PM", Label: "Ceremony"},
			{ID: "3", Time: "1:00 PM", Label: "First look"},
		},
	})
	assert.Equal(t, want, e.copied[0])

	out := e.mustRun("copy", "abc123", "--stdout")
	assert.Equal(t, want+"\n", string(out))
	assert.Len(t, e.copied, 1)

	e.copyErr = errors.New("no clipboard")
	_, _, err := e.run("copy", "abc123")
	assert.ErrorContains(t, err, "no clipboard")
}

func TestDraftListAndClear(t *testing.T) {
	e := newEnv(t)

	assert.Empty(t, decodeData[[]string](t, e.mustRun("draft", "list")))

	e.mustRun("title", "abc123", "Draft title")
	assert.Equal(t, []string{"abc123"}, decodeData[[]string](t, e.mustRun("draft", "list")))

	e.mustRun("draft", "clear", "abc123")
	assert.Empty(t, decodeData[[]string](t, e.mustRun("draft", "list")))

	got := decodeData[timelineOut](t, e.mustRun("show", "abc123"))
	assert.Equal(t, "A&B", got.Title)
}

func TestSQLiteDraftBackend(t *testing.T) {
	e := newEnv(t)

	e.mustRun("--draft-backend", draft.BackendSQLite, "title", "abc123", "Via sqlite")
	got := decodeData[timelineOut](t, e.mustRun("--draft-backend", draft.BackendSQLite, "show", "abc123"))
	assert.Equal(t, "Via sqlite", got.Title)
	assert.True(t, got.RestoredDraft)

	// The file backend does not see it.
	got = decodeData[timelineOut](t, e.mustRun("show", "abc123"))
	assert.Equal(t, "A&B", got.Title)
}

func TestFormatText(t *testing.T) {
	e := newEnv(t)

	out := string(e.mustRun("--format", "text", "show", "abc123"))
	assert.True(t, strings.HasPrefix(out, "A&B\n"), "got %q", out)
	assert.Contains(t, out, "Ceremony")
	assert.NotContains(t, out, `"data"`)
}

func TestExport(t *testing.T) {
	e := newEnv(t)
	dir := t.TempDir()

	e.mustRun("title", "abc123", "Draft title")
	got := decodeData[publish.WriteResult](t, e.mustRun("export", "abc123", "--to", dir))
	require.Len(t, got.Written, 2)

	md, err := os.ReadFile(filepath.Join(dir, "abc123.md"))
	require.NoError(t, err)
	assert.Contains(t, string(md), "# Draft title")

	_, _, err = e.run("export", "abc123", "--to", dir)
	assert.ErrorContains(t, err, "--overwrite")
}

func TestDocs(t *testing.T) {
	e := newEnv(t)

	got := decodeData[map[string][]string](t, e.mustRun("docs"))
	assert.Contains(t, got["topics"], "drafts")

	out := e.mustRun("docs", "drafts", "--raw")
	assert.True(t, strings.HasPrefix(string(out), "# Drafts"))

	_, _, err := e.run("docs", "nope")
	assert.ErrorContains(t, err, "unknown docs topic")
}
