package cli

import (
	"fmt"
	"time"

	"timeline-cli/internal/draft"
	"timeline-cli/internal/model"

	"github.com/spf13/cobra"
)

func newDraftCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Inspect or discard local drafts",
	}
	cmd.AddCommand(newDraftShowCmd(app))
	cmd.AddCommand(newDraftClearCmd(app))
	cmd.AddCommand(newDraftListCmd(app))
	return cmd
}

type draftOut struct {
	Slug      string       `json:"slug"`
	Title     string       `json:"title"`
	EventDate string       `json:"event_date"`
	Items     []model.Item `json:"items"`
	SavedAt   time.Time    `json:"savedAt"`
}

func newDraftShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <slug>",
		Short: "Print the local draft without contacting the document store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.drafts()
			if err != nil {
				return writeErr(cmd, err)
			}
			snap, ok, err := store.Load(draft.Key(args[0]))
			if err != nil {
				return writeErr(cmd, err)
			}
			if !ok {
				return writeErr(cmd, errNotFound("draft", args[0]))
			}
			items := snap.Items
			if items == nil {
				items = []model.Item{}
			}
			return writeOut(cmd, app, map[string]any{"data": draftOut{
				Slug:      args[0],
				Title:     snap.Title,
				EventDate: snap.EventDate,
				Items:     items,
				SavedAt:   snap.SavedAt,
			}})
		},
	}
}

func newDraftClearCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <slug>",
		Short: "Discard the local draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.drafts()
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := store.Clear(draft.Key(args[0])); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"slug": args[0], "cleared": true}})
		},
	}
}

func newDraftListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List slugs with a local draft",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.drafts()
			if err != nil {
				return writeErr(cmd, err)
			}
			lister, ok := store.(draft.Lister)
			if !ok {
				return writeErr(cmd, fmt.Errorf("draft backend %q cannot list drafts", app.DraftBackend))
			}
			keys, err := lister.Keys()
			if err != nil {
				return writeErr(cmd, err)
			}
			slugs := []string{}
			for _, k := range keys {
				if slug, ok := draft.SlugFromKey(k); ok {
					slugs = append(slugs, slug)
				}
			}
			return writeOut(cmd, app, map[string]any{"data": slugs})
		},
	}
}
