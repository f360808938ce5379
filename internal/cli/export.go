package cli

import (
	"timeline-cli/internal/publish"

	"github.com/spf13/cobra"
)

func newExportCmd(app *App) *cobra.Command {
	var to string
	var overwrite, noText bool
	cmd := &cobra.Command{
		Use:   "export <slug> --to <dir>",
		Short: "Write the timeline as markdown and plain text files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.loadSession(cmd.Context(), args[0], false)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer sess.Close()

			res, err := publish.WriteTimeline(args[0], sess.Timeline(), to, publish.WriteOptions{
				Overwrite: overwrite,
				SkipText:  noText,
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": res})
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "Output directory")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace existing files")
	cmd.Flags().BoolVar(&noText, "no-text", false, "Skip the plain-text copy")
	return cmd
}
