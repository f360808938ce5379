package tui

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"timeline-cli/internal/draft"
	"timeline-cli/internal/model"
	"timeline-cli/internal/remote"
	"timeline-cli/internal/session"

	tea "github.com/charmbracelet/bubbletea"
)

type stubRemote struct {
	doc      remote.Document
	fetchErr error
}

func (r *stubRemote) Fetch(context.Context, string) (remote.Document, error) {
	return r.doc, r.fetchErr
}

func (r *stubRemote) Replace(_ context.Context, _ string, body remote.ReplaceRequest) (remote.Document, error) {
	items := make([]json.RawMessage, 0, len(body.Items))
	for _, it := range body.Items {
		b, _ := json.Marshal(it)
		items = append(items, b)
	}
	r.doc = remote.Document{Title: body.Title, EventDate: body.EventDate, Items: items}
	return r.doc, nil
}

func strp(s string) *string { return &s }

func newLoadedModel(t *testing.T, labels ...string) (appModel, *draft.MemoryStore, *[]string) {
	t.Helper()
	var items []json.RawMessage
	for i, l := range labels {
		b, _ := json.Marshal(model.Item{ID: string(rune('a' + i)), Time: "10:0" + string(rune('0'+i)), Label: l})
		items = append(items, b)
	}
	rem := &stubRemote{doc: remote.Document{Title: strp("A&B"), EventDate: strp("2025-06-01"), Items: items}}
	drafts := draft.NewMemoryStore()
	sess := session.New("abc123", session.Options{Remote: rem, Drafts: drafts})
	t.Cleanup(sess.Close)

	var copied []string
	m := newAppModel(sess, Options{Copy: func(s string) error {
		copied = append(copied, s)
		return nil
	}})
	mm, _ := m.Update(loadedMsg{err: sess.Load(context.Background())})
	return mm.(appModel), drafts, &copied
}

func press(t *testing.T, m appModel, keys ...string) appModel {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		mm, _ := m.Update(msg)
		m = mm.(appModel)
	}
	return m
}

func labelsOf(m appModel) []string {
	var out []string
	for _, it := range m.view.Timeline.Items {
		out = append(out, it.Label)
	}
	return out
}

func TestView_RendersHeaderAndRows(t *testing.T) {
	m, _, _ := newLoadedModel(t, "Arrival", "Ceremony")
	m.width = 60

	out := m.View()
	for _, want := range []string{"A&B", "June 1, 2025", "Arrival", "Ceremony", "e edit timeline"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in view:\n%s", want, out)
		}
	}
}

func TestView_NotFound(t *testing.T) {
	rem := &stubRemote{fetchErr: &remote.NotFoundError{Slug: "abc123"}}
	sess := session.New("abc123", session.Options{Remote: rem})
	t.Cleanup(sess.Close)

	m := newAppModel(sess, Options{})
	mm, _ := m.Update(loadedMsg{err: sess.Load(context.Background())})
	out := mm.(appModel).View()
	if !strings.Contains(out, "Timeline not found") {
		t.Fatalf("expected not-found message, got:\n%s", out)
	}
}

func TestEditKeys_IgnoredOutsideEditMode(t *testing.T) {
	m, _, _ := newLoadedModel(t, "Arrival")
	m = press(t, m, "d", "a")
	if got := labelsOf(m); len(got) != 1 || got[0] != "Arrival" {
		t.Fatalf("expected no edits outside edit mode, got %v", got)
	}
}

func TestAddThenTypeLabel_PersistsDraft(t *testing.T) {
	m, drafts, _ := newLoadedModel(t, "Arrival")
	m = press(t, m, "e", "a")
	if m.editing != editLabel {
		t.Fatalf("expected label editor after add")
	}
	// Replace the placeholder text.
	m.input.SetValue("")
	m = press(t, m, "T", "o", "a", "s", "t", "s", "enter")

	if got := labelsOf(m); len(got) != 2 || got[1] != "Toasts" {
		t.Fatalf("labels = %v", got)
	}
	snap, ok, _ := drafts.Load(draft.Key("abc123"))
	if !ok || len(snap.Items) != 2 || snap.Items[1].Label != "Toasts" {
		t.Fatalf("expected draft with new item, got %#v ok=%v", snap, ok)
	}
}

func TestDeleteThenUndo_ReappendsAtEnd(t *testing.T) {
	m, _, _ := newLoadedModel(t, "Arrival", "Ceremony", "Dinner")
	m = press(t, m, "e", "d")
	if got := labelsOf(m); strings.Join(got, ",") != "Ceremony,Dinner" {
		t.Fatalf("after delete: %v", got)
	}
	if m.view.Pending == nil {
		t.Fatalf("expected pending deletion in view")
	}
	if !strings.Contains(m.View(), `Deleted "Arrival"`) {
		t.Fatalf("expected undo hint in view")
	}

	m = press(t, m, "u")
	if got := labelsOf(m); strings.Join(got, ",") != "Ceremony,Dinner,Arrival" {
		t.Fatalf("after undo: %v", got)
	}
	if m.cursor != 2 {
		t.Fatalf("expected cursor on restored item, got %d", m.cursor)
	}
}

func TestMoveKeys(t *testing.T) {
	m, _, _ := newLoadedModel(t, "Arrival", "Ceremony", "Dinner")
	m = press(t, m, "e", "J")
	if got := labelsOf(m); strings.Join(got, ",") != "Ceremony,Arrival,Dinner" {
		t.Fatalf("after J: %v", got)
	}
	if m.cursor != 1 {
		t.Fatalf("cursor should follow the moved item, got %d", m.cursor)
	}
	m = press(t, m, "K", "K")
	if got := labelsOf(m); strings.Join(got, ",") != "Arrival,Ceremony,Dinner" {
		t.Fatalf("after K K: %v", got)
	}
}

func TestCopy(t *testing.T) {
	m, _, copied := newLoadedModel(t, "Arrival")
	m = press(t, m, "y")
	if len(*copied) != 1 || (*copied)[0] != "A&B\nJune 1, 2025\n\n10:00 – Arrival" {
		t.Fatalf("copied = %q", *copied)
	}
	if m.minibufferText != "Copied!" {
		t.Fatalf("minibuffer = %q", m.minibufferText)
	}
}

func TestSaveKey_RunsSaveAndShowsResult(t *testing.T) {
	m, drafts, _ := newLoadedModel(t, "Arrival")
	m = press(t, m, "e", "T")
	m.input.SetValue("Renamed")
	m = press(t, m, "enter")

	mm, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	m = mm.(appModel)
	if cmd == nil || !m.view.Saving {
		t.Fatalf("expected save command and saving flag")
	}
	mm, _ = m.Update(cmd())
	m = mm.(appModel)

	if m.view.SaveResult != session.SaveSucceeded {
		t.Fatalf("save result = %v", m.view.SaveResult)
	}
	if !strings.Contains(m.View(), "Saved") {
		t.Fatalf("expected Saved in status line")
	}
	if _, ok, _ := drafts.Load(draft.Key("abc123")); ok {
		t.Fatalf("expected draft cleared after save")
	}
}

func TestEditDate_RejectsInvalid(t *testing.T) {
	m, _, _ := newLoadedModel(t, "Arrival")
	m = press(t, m, "e", "D")
	m.input.SetValue("June 1")
	m = press(t, m, "enter")
	if m.view.Timeline.EventDate != "2025-06-01" {
		t.Fatalf("invalid date must not be applied, got %q", m.view.Timeline.EventDate)
	}
	if m.minibufferText == "" {
		t.Fatalf("expected validation message")
	}
}

func TestReloadTick_ClearsMinibuffer(t *testing.T) {
	m, _, _ := newLoadedModel(t, "Arrival")
	m.showMinibuffer("Hello")
	m.minibufferSetAt = time.Now().Add(-minibufferAutoClearAfter - 100*time.Millisecond)

	mm, _ := m.Update(reloadTickMsg{})
	m = mm.(appModel)
	if m.minibufferText != "" {
		t.Fatalf("expected minibuffer to clear, got %q", m.minibufferText)
	}
}
