package tui

import (
	"fmt"
	"strings"
	"time"

	"timeline-cli/internal/format"
	"timeline-cli/internal/session"

	"github.com/charmbracelet/lipgloss"
)

const (
	timeColW   = 10
	emptyItems = "No timeline items yet. Please ask your photographer or planner to regenerate the schedule."
)

func (m appModel) View() string {
	w := m.width
	if w <= 0 {
		w = 80
	}
	v := m.view

	var b strings.Builder
	switch v.Status {
	case session.StatusLoading:
		b.WriteString(styleMuted().Render("Loading timeline…"))
		b.WriteString("\n")
		return b.String()
	case session.StatusFailed:
		b.WriteString(styleError().Render(cutLine(loadErrorText(v), w)))
		b.WriteString("\n\n")
		b.WriteString(styleMuted().Render("r retry · q quit"))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(styleEyebrow().Render("WEDDING DAY TIMELINE"))
	b.WriteString("\n")
	b.WriteString(styleTitle().Render(ellipsize(format.DisplayTitle(v.Timeline.Title), w)))
	b.WriteString("\n")
	if d := format.LongDate(v.Timeline.EventDate); d != "" {
		b.WriteString(styleMuted().Render(d))
		b.WriteString("\n")
	}
	if st := m.statusLine(time.Now()); st != "" {
		b.WriteString(cutLine(st, w))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if len(v.Timeline.Items) == 0 {
		b.WriteString(styleMuted().Render(lipgloss.NewStyle().Width(min(w, 72)).Render(emptyItems)))
		b.WriteString("\n")
	}
	for i, it := range v.Timeline.Items {
		b.WriteString(m.renderRow(i, it.Time, it.Label, w))
		b.WriteString("\n")
	}

	if p := v.Pending; p != nil {
		left := time.Until(p.Deadline).Round(time.Second)
		if left < 0 {
			left = 0
		}
		hint := fmt.Sprintf("Deleted %q · u to undo (%s)", p.Item.Label, left)
		b.WriteString("\n")
		b.WriteString(styleWarn().Render(cutLine(hint, w)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.editing != editNone {
		b.WriteString(renderInputLine(w, m.editPrompt(), m.input.View()))
		b.WriteString("\n")
		b.WriteString(styleMuted().Render("enter save · esc cancel"))
	} else if m.minibufferText != "" {
		b.WriteString(cutLine(m.minibufferText, w))
	} else {
		b.WriteString(styleMuted().Render(cutLine(m.helpLine(), w)))
	}
	b.WriteString("\n")
	return b.String()
}

func (m appModel) renderRow(i int, tm, label string, w int) string {
	marker := "  "
	if i == m.cursor {
		marker = "› "
	}
	timeCell := ellipsize(tm, timeColW-1)
	timeCell += strings.Repeat(" ", max(0, timeColW-lipgloss.Width(timeCell)))
	labelW := max(0, w-len([]rune(marker))-timeColW)
	line := marker + styleTime().Render(timeCell) + ellipsize(label, labelW)
	if i == m.cursor && m.view.EditMode {
		return styleSelected().Render(cutLine(line, w))
	}
	return cutLine(line, w)
}

func (m appModel) statusLine(now time.Time) string {
	v := m.view
	var parts []string
	if v.EditMode {
		parts = append(parts, styleTitle().Render("Editing"))
	}
	switch {
	case v.Saving:
		parts = append(parts, styleMuted().Render("Saving…"))
	case v.SaveResult == session.SaveSucceeded && now.Sub(v.SaveAt) < saveMessageFor:
		parts = append(parts, styleSuccess().Render("Saved"))
	case v.SaveResult == session.SaveFailed && now.Sub(v.SaveAt) < saveMessageFor:
		parts = append(parts, styleError().Render("Save failed"))
	}
	if v.RestoredDraft && v.Dirty {
		msg := "Restored local draft"
		if !v.DraftSavedAt.IsZero() {
			msg += " from " + v.DraftSavedAt.Local().Format("Jan 2 15:04")
		}
		parts = append(parts, styleWarn().Render(msg))
	} else if v.Dirty {
		parts = append(parts, styleMuted().Render("Unsaved changes"))
	}
	return strings.Join(parts, styleMuted().Render(" · "))
}

func (m appModel) helpLine() string {
	if !m.view.EditMode {
		return "e edit timeline · y copy · q quit"
	}
	return "a add · d delete · u undo · K/J move · enter label · t time · T title · D date · S sort · s save · x discard draft · e done editing"
}

func (m appModel) editPrompt() string {
	switch m.editing {
	case editLabel:
		return "Label: "
	case editTime:
		return "Time: "
	case editTitle:
		return "Title: "
	case editDate:
		return "Date (YYYY-MM-DD): "
	default:
		return ""
	}
}
