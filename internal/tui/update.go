package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"timeline-cli/internal/model"
	"timeline-cli/internal/session"

	tea "github.com/charmbracelet/bubbletea"
)

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(10, msg.Width-16)
		return m, nil

	case loadedMsg:
		m.refresh()
		if msg.err == nil && m.view.RestoredDraft {
			m.showMinibuffer("Restored unsaved changes from a local draft")
		}
		return m, nil

	case savedMsg:
		m.refresh()
		if msg.err != nil && !errors.Is(msg.err, session.ErrSaveInFlight) && !errors.Is(msg.err, session.ErrClosed) {
			m.log.Warn().Err(msg.err).Msg("save failed")
		}
		return m, nil

	case reloadTickMsg:
		m.refresh()
		if m.minibufferText != "" && time.Since(m.minibufferSetAt) > minibufferAutoClearAfter {
			m.minibufferText = ""
		}
		return m, tickReload()

	case tea.KeyMsg:
		if m.editing != editNone {
			return m.updateEditing(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m appModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.sess.Close()
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "j":
		if m.cursor < len(m.view.Timeline.Items)-1 {
			m.cursor++
		}
		return m, nil
	case "y":
		m.copyText()
		return m, nil
	case "r":
		if m.view.Status == session.StatusFailed {
			m.view.Status = session.StatusLoading
			return m, loadCmd(m.sess)
		}
		return m, nil
	case "e":
		m.sess.ToggleEditMode()
		m.refresh()
		return m, nil
	}

	if !m.view.EditMode || !m.view.Ready() {
		return m, nil
	}

	switch msg.String() {
	case "a":
		it, err := m.sess.AddItem()
		m.reportErr("add", err)
		m.refresh()
		if err == nil {
			m.selectID(it.ID)
			m.startEdit(editLabel, it.ID, it.Label)
		}
	case "d", "delete", "backspace":
		if it, ok := m.selected(); ok {
			_, err := m.sess.DeleteItem(it.ID)
			m.reportErr("delete", err)
			m.refresh()
		}
	case "u":
		if it, ok := m.sess.UndoDelete(); ok {
			m.refresh()
			m.selectID(it.ID)
		} else {
			m.showMinibuffer("Nothing to undo")
		}
	case "K", "shift+up":
		m.moveSelected(-1)
	case "J", "shift+down":
		m.moveSelected(1)
	case "S":
		m.reportErr("sort", m.sess.SortByTime())
		m.refresh()
	case "enter":
		if it, ok := m.selected(); ok {
			m.startEdit(editLabel, it.ID, it.Label)
		}
	case "t":
		if it, ok := m.selected(); ok {
			m.startEdit(editTime, it.ID, it.Time)
		}
	case "T":
		m.startEdit(editTitle, "", m.view.Timeline.Title)
	case "D":
		m.startEdit(editDate, "", m.view.Timeline.EventDate)
	case "s":
		if m.view.Saving {
			return m, nil
		}
		m.view.Saving = true
		return m, saveCmd(m.sess)
	case "x":
		m.sess.SetEditMode(false)
		m.refresh()
		return m, func() tea.Msg {
			return loadedMsg{err: m.sess.DiscardDraft(context.Background())}
		}
	}
	return m, nil
}

func (m *appModel) moveSelected(delta int) {
	it, ok := m.selected()
	if !ok {
		return
	}
	j := m.cursor + delta
	items := m.view.Timeline.Items
	if j < 0 || j >= len(items) {
		return
	}
	m.reportErr("move", m.sess.Move(it.ID, items[j].ID))
	m.refresh()
	m.selectID(it.ID)
}

func (m *appModel) copyText() {
	if m.copy == nil || !m.view.Ready() {
		return
	}
	if err := m.copy(m.sess.CopyText()); err != nil {
		m.log.Warn().Err(err).Msg("copy failed")
		m.showMinibuffer("Could not copy")
		return
	}
	m.showMinibuffer("Copied!")
}

func (m *appModel) startEdit(target editTarget, id, value string) {
	m.editing = target
	m.editID = id
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
}

func (m appModel) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.stopEdit()
		return m, nil
	case tea.KeyEnter:
		m.commitEdit()
		m.stopEdit()
		m.refresh()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *appModel) commitEdit() {
	v := m.input.Value()
	switch m.editing {
	case editLabel:
		m.reportErr("label", m.sess.SetItemField(m.editID, model.FieldLabel, v))
	case editTime:
		m.reportErr("time", m.sess.SetItemField(m.editID, model.FieldTime, strings.TrimSpace(v)))
	case editTitle:
		m.reportErr("title", m.sess.SetTitle(strings.TrimSpace(v)))
	case editDate:
		v = strings.TrimSpace(v)
		if v != "" && !validDate(v) {
			m.showMinibuffer("Date must be YYYY-MM-DD")
			return
		}
		m.reportErr("date", m.sess.SetEventDate(v))
	}
}

func (m *appModel) stopEdit() {
	m.editing = editNone
	m.editID = ""
	m.input.Blur()
	m.input.Reset()
}

func validDate(s string) bool {
	_, err := time.Parse(time.DateOnly, s)
	return err == nil
}

func loadErrorText(v session.View) string {
	switch v.ErrorKind {
	case session.ErrorNotFound:
		return "Timeline not found"
	default:
		if v.Err != "" {
			return "Could not load timeline: " + v.Err
		}
		return "Could not load timeline"
	}
}
