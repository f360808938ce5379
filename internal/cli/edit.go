package cli

import (
	"timeline-cli/internal/logger"
	"timeline-cli/internal/tui"

	"github.com/spf13/cobra"
)

func newEditCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <slug>",
		Short: "Open the interactive editor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// The alternate screen owns the terminal; logs go to a file.
			f, err := logger.OpenFile(app.LogFile)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer f.Close()
			app.log = logger.New(logger.Config{Level: app.LogLevel, Output: f})

			sess, err := app.newSession(args[0], false)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer sess.Close()
			return tui.Run(sess, tui.Options{Copy: app.copy, Logger: app.log})
		},
	}
}
