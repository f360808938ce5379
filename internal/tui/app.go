// Package tui is the interactive terminal editor for a single timeline. It renders a
// session.View and forwards key presses to the session; it holds no document state of its
// own.
package tui

import (
	"context"
	"errors"
	"time"

	"timeline-cli/internal/model"
	"timeline-cli/internal/session"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
)

const (
	minibufferAutoClearAfter = 1500 * time.Millisecond
	saveMessageFor           = 2 * time.Second
	reloadTickEvery          = 250 * time.Millisecond
)

type Options struct {
	// Copy writes text to the system clipboard.
	Copy   func(string) error
	Logger zerolog.Logger
}

type editTarget int

const (
	editNone editTarget = iota
	editLabel
	editTime
	editTitle
	editDate
)

type (
	loadedMsg     struct{ err error }
	savedMsg      struct{ err error }
	reloadTickMsg struct{}
)

type appModel struct {
	sess *session.Session
	copy func(string) error
	log  zerolog.Logger

	view   session.View
	cursor int
	width  int
	height int

	editing editTarget
	editID  string
	input   textinput.Model

	minibufferText  string
	minibufferSetAt time.Time
}

func newAppModel(sess *session.Session, opts Options) appModel {
	in := textinput.New()
	in.CharLimit = 200
	in.Prompt = ""
	m := appModel{
		sess:  sess,
		copy:  opts.Copy,
		log:   opts.Logger,
		input: in,
	}
	m.view = sess.View()
	return m
}

func (m appModel) Init() tea.Cmd {
	return tea.Batch(loadCmd(m.sess), tickReload())
}

func loadCmd(sess *session.Session) tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{err: sess.Load(context.Background())}
	}
}

func saveCmd(sess *session.Session) tea.Cmd {
	return func() tea.Msg {
		return savedMsg{err: sess.Save(context.Background())}
	}
}

func tickReload() tea.Cmd {
	return tea.Tick(reloadTickEvery, func(time.Time) tea.Msg { return reloadTickMsg{} })
}

func (m *appModel) refresh() {
	m.view = m.sess.View()
	n := len(m.view.Timeline.Items)
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *appModel) showMinibuffer(s string) {
	m.minibufferText = s
	m.minibufferSetAt = time.Now()
}

func (m appModel) selected() (model.Item, bool) {
	items := m.view.Timeline.Items
	if m.cursor < 0 || m.cursor >= len(items) {
		return model.Item{}, false
	}
	return items[m.cursor], true
}

func (m *appModel) selectID(id string) {
	for i, it := range m.view.Timeline.Items {
		if it.ID == id {
			m.cursor = i
			return
		}
	}
}

func (m *appModel) reportErr(op string, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, session.ErrNotReady) {
		m.showMinibuffer("Timeline is still loading")
		return
	}
	m.log.Warn().Err(err).Str("op", op).Msg("edit failed")
	m.showMinibuffer(op + ": " + err.Error())
}
