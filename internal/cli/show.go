package cli

import (
	"time"

	"timeline-cli/internal/format"
	"timeline-cli/internal/model"
	"timeline-cli/internal/session"
	"timeline-cli/internal/tui"

	"github.com/spf13/cobra"
)

type timelineOut struct {
	Slug          string       `json:"slug"`
	Title         string       `json:"title"`
	EventDate     string       `json:"event_date"`
	Items         []model.Item `json:"items"`
	RestoredDraft bool         `json:"restoredDraft"`
	Dirty         bool         `json:"dirty"`
	DraftSavedAt  *time.Time   `json:"draftSavedAt,omitempty"`
}

func timelineData(v session.View) timelineOut {
	out := timelineOut{
		Slug:          v.Slug,
		Title:         v.Timeline.Title,
		EventDate:     v.Timeline.EventDate,
		Items:         v.Timeline.Items,
		RestoredDraft: v.RestoredDraft,
		Dirty:         v.Dirty,
	}
	if out.Items == nil {
		out.Items = []model.Item{}
	}
	if !v.DraftSavedAt.IsZero() {
		t := v.DraftSavedAt
		out.DraftSavedAt = &t
	}
	return out
}

func newShowCmd(app *App) *cobra.Command {
	var render bool
	var width int
	cmd := &cobra.Command{
		Use:   "show <slug>",
		Short: "Show a timeline (a local draft, when present, wins over the remote copy)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.loadSession(cmd.Context(), args[0], false)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer sess.Close()

			v := sess.View()
			if render {
				return writeText(cmd.OutOrStdout(), tui.RenderMarkdown(format.Markdown(v.Timeline), width))
			}
			if app.Format == "text" {
				return writeText(cmd.OutOrStdout(), format.CopyText(v.Timeline))
			}
			return writeOut(cmd, app, map[string]any{"data": timelineData(v)})
		},
	}
	cmd.Flags().BoolVar(&render, "render", false, "Render as formatted markdown instead of JSON")
	cmd.Flags().IntVar(&width, "width", 80, "Wrap width for --render")
	return cmd
}

func newCopyCmd(app *App) *cobra.Command {
	var stdout bool
	cmd := &cobra.Command{
		Use:   "copy <slug>",
		Short: "Copy a timeline to the clipboard as plain text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.loadSession(cmd.Context(), args[0], false)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer sess.Close()

			text := sess.CopyText()
			if stdout {
				return writeText(cmd.OutOrStdout(), text)
			}
			if err := app.copy(text); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"copied": true, "text": text}})
		},
	}
	cmd.Flags().BoolVar(&stdout, "stdout", false, "Print the text instead of copying it")
	return cmd
}
