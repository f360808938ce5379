package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"timeline-cli/internal/model"
	"timeline-cli/internal/session"

	"github.com/spf13/cobra"
)

func newItemsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "items",
		Short: "Edit timeline items (changes are kept as a local draft until `timeline save`)",
	}
	cmd.AddCommand(newItemsAddCmd(app))
	cmd.AddCommand(newItemsSetCmd(app))
	cmd.AddCommand(newItemsMoveCmd(app))
	cmd.AddCommand(newItemsDeleteCmd(app))
	cmd.AddCommand(newItemsSortCmd(app))
	return cmd
}

func newItemsAddCmd(app *App) *cobra.Command {
	var tm, label string
	cmd := &cobra.Command{
		Use:   "add <slug>",
		Short: "Append an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.loadSession(cmd.Context(), args[0], true)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer sess.Close()

			it, err := sess.AddItem()
			if err != nil {
				return writeErr(cmd, err)
			}
			if cmd.Flags().Changed("time") {
				if err := sess.SetItemField(it.ID, model.FieldTime, strings.TrimSpace(tm)); err != nil {
					return writeErr(cmd, err)
				}
				it.Time = strings.TrimSpace(tm)
			}
			if cmd.Flags().Changed("label") {
				if err := sess.SetItemField(it.ID, model.FieldLabel, label); err != nil {
					return writeErr(cmd, err)
				}
				it.Label = label
			}
			return writeOut(cmd, app, map[string]any{"data": it})
		},
	}
	cmd.Flags().StringVar(&tm, "time", "", "Clock time (free text, e.g. \"4:30 PM\")")
	cmd.Flags().StringVar(&label, "label", "", "Label (default \""+model.NewItemLabel+"\")")
	return cmd
}

func newItemsSetCmd(app *App) *cobra.Command {
	var tm, label string
	cmd := &cobra.Command{
		Use:   "set <slug> <item-id>",
		Short: "Change an item's time and/or label",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("time") && !cmd.Flags().Changed("label") {
				return writeErr(cmd, errors.New("provide --time and/or --label"))
			}
			sess, err := app.loadSession(cmd.Context(), args[0], true)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer sess.Close()

			id := args[1]
			if cmd.Flags().Changed("time") {
				if err := sess.SetItemField(id, model.FieldTime, strings.TrimSpace(tm)); err != nil {
					return writeErr(cmd, itemError(id, err))
				}
			}
			if cmd.Flags().Changed("label") {
				if err := sess.SetItemField(id, model.FieldLabel, label); err != nil {
					return writeErr(cmd, itemError(id, err))
				}
			}
			it, _ := findItem(sess, id)
			return writeOut(cmd, app, map[string]any{"data": it})
		},
	}
	cmd.Flags().StringVar(&tm, "time", "", "Clock time")
	cmd.Flags().StringVar(&label, "label", "", "Label")
	return cmd
}

func newItemsMoveCmd(app *App) *cobra.Command {
	var over string
	cmd := &cobra.Command{
		Use:   "move <slug> <item-id> --over <item-id>",
		Short: "Move an item to the position currently held by another item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(over) == "" {
				return writeErr(cmd, errors.New("missing --over"))
			}
			sess, err := app.loadSession(cmd.Context(), args[0], true)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer sess.Close()

			id := args[1]
			for _, want := range []string{id, over} {
				if _, ok := findItem(sess, want); !ok {
					return writeErr(cmd, errNotFound("item", want))
				}
			}
			if err := sess.Move(id, over); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": timelineData(sess.View())})
		},
	}
	cmd.Flags().StringVar(&over, "over", "", "Item whose position the moved item takes")
	return cmd
}

func newItemsDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <slug> <item-id>",
		Short: "Delete an item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.loadSession(cmd.Context(), args[0], true)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer sess.Close()

			removed, err := sess.DeleteItem(args[1])
			if err != nil {
				return writeErr(cmd, itemError(args[1], err))
			}
			// Nothing can undo once this process exits.
			sess.CommitDelete()
			return writeOut(cmd, app, map[string]any{"data": removed})
		},
	}
}

func newItemsSortCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "sort <slug>",
		Short: "Order items by clock time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.loadSession(cmd.Context(), args[0], true)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer sess.Close()

			if err := sess.SortByTime(); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": timelineData(sess.View())})
		},
	}
}

func newTitleCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "title <slug> <title>",
		Short: "Set the timeline title (empty to unset)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.loadSession(cmd.Context(), args[0], true)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer sess.Close()

			if err := sess.SetTitle(strings.TrimSpace(args[1])); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": timelineData(sess.View())})
		},
	}
}

func newDateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "date <slug> <YYYY-MM-DD>",
		Short: "Set the event date (empty to unset)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			date := strings.TrimSpace(args[1])
			if date != "" {
				if _, err := time.Parse(time.DateOnly, date); err != nil {
					return writeErr(cmd, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", date))
				}
			}
			sess, err := app.loadSession(cmd.Context(), args[0], true)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer sess.Close()

			if err := sess.SetEventDate(date); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": timelineData(sess.View())})
		},
	}
}

func findItem(sess *session.Session, id string) (model.Item, bool) {
	for _, it := range sess.Timeline().Items {
		if it.ID == id {
			return it, true
		}
	}
	return model.Item{}, false
}

func itemError(id string, err error) error {
	if errors.Is(err, session.ErrUnknownItem) {
		return errNotFound("item", id)
	}
	return err
}
