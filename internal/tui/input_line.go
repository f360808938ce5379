package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

func renderInputLine(bodyW int, prompt, inputView string) string {
	if bodyW < 10 {
		bodyW = 10
	}

	// Inputs always render as one visual line.
	inputView = strings.ReplaceAll(inputView, "\n", " ")
	inputView = strings.ReplaceAll(inputView, "\r", " ")

	line := lipgloss.PlaceHorizontal(
		bodyW,
		lipgloss.Left,
		" "+prompt+inputView+" ",
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceBackground(colorInputBg),
	)
	return cutLine(line, bodyW)
}

// cutLine truncates a possibly styled line to w cells, resetting styles when it cuts.
func cutLine(s string, w int) string {
	if w <= 0 {
		return ""
	}
	if xansi.StringWidth(s) <= w {
		return s
	}
	return xansi.Cut(s, 0, w) + "\x1b[0m"
}

// ellipsize truncates plain text to w cells with a trailing ellipsis.
func ellipsize(s string, w int) string {
	if w <= 0 {
		return ""
	}
	if xansi.StringWidth(s) <= w {
		return s
	}
	if w == 1 {
		return "…"
	}
	return xansi.Cut(s, 0, w-1) + "…"
}
