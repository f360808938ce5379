package cli

import (
	"github.com/spf13/cobra"
)

func newSaveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "save <slug>",
		Short: "Send the local draft to the document store and clear it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.loadSession(cmd.Context(), args[0], true)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer sess.Close()

			if err := sess.Save(cmd.Context()); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": timelineData(sess.View())})
		},
	}
}
