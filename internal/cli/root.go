package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"timeline-cli/internal/clipboard"
	"timeline-cli/internal/config"
	"timeline-cli/internal/draft"
	"timeline-cli/internal/format"
	"timeline-cli/internal/logger"
	"timeline-cli/internal/remote"
	"timeline-cli/internal/session"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type App struct {
	APIURL       string
	DraftDir     string
	DraftBackend string
	PrettyJSON   bool
	Format       string
	LogLevel     string
	LogFile      string

	cfg *config.Config
	log zerolog.Logger

	// copy writes to the system clipboard; replaced in tests.
	copy func(string) error
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(&App{copy: clipboard.Write})
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "timeline",
		Short:        "Edit event-day timelines from the terminal",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Edit a timeline interactively
  timeline edit abc123

  # Open a shared link directly (shortcut for: timeline edit <slug>)
  timeline http://localhost:3000/timeline/abc123

  # Scriptable edits (held as a local draft until saved)
  timeline items add abc123 --time "4:30 PM" --label "Ceremony"
  timeline save abc123

  # Copy as plain text
  timeline copy abc123
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.init(cmd)
	}

	cmd.PersistentFlags().StringVar(&app.APIURL, "api", "", "Document store base URL (env TIMELINE_API_URL, default "+config.DefaultAPIURL+")")
	cmd.PersistentFlags().StringVar(&app.DraftDir, "drafts", "", "Directory for local drafts (env TIMELINE_DRAFT_DIR)")
	cmd.PersistentFlags().StringVar(&app.DraftBackend, "draft-backend", "", "Draft storage backend (file|sqlite|memory; env TIMELINE_DRAFT_BACKEND)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("TIMELINE_FORMAT", "json"), "Output format (json|text)")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", "", "Log level (debug|info|warn|error|disabled; env LOG_LEVEL)")
	cmd.PersistentFlags().StringVar(&app.LogFile, "log-file", "", "Log file used by the interactive editor (env TIMELINE_LOG_FILE)")

	cmd.AddCommand(newEditCmd(app))
	cmd.AddCommand(newShowCmd(app))
	cmd.AddCommand(newCopyCmd(app))
	cmd.AddCommand(newItemsCmd(app))
	cmd.AddCommand(newTitleCmd(app))
	cmd.AddCommand(newDateCmd(app))
	cmd.AddCommand(newSaveCmd(app))
	cmd.AddCommand(newDraftCmd(app))
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newDocsCmd(app))
	cmd.AddCommand(newServeCmd(app))

	return cmd
}

// init resolves configuration; flags win over config.
func (app *App) init(cmd *cobra.Command) error {
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return writeErr(cmd, err)
	}
	app.cfg = cfg
	if app.APIURL == "" {
		app.APIURL = cfg.APIURL
	}
	if app.DraftDir == "" {
		app.DraftDir = cfg.DraftDir
	}
	if app.DraftBackend == "" {
		app.DraftBackend = cfg.DraftBackend
	}
	if app.LogLevel == "" {
		app.LogLevel = cfg.LogLevel
	}
	if app.LogFile == "" {
		app.LogFile = cfg.LogFile
	}
	app.log = logger.New(logger.Config{Level: app.LogLevel, Output: cmd.ErrOrStderr()})
	return nil
}

func (app *App) client() *remote.Client {
	opts := []remote.Option{remote.WithLogger(app.log)}
	if app.cfg != nil {
		opts = append(opts, remote.WithToken(app.cfg.APIToken), remote.WithTimeout(app.cfg.HTTPTimeout))
	}
	return remote.NewClient(app.APIURL, opts...)
}

func (app *App) drafts() (draft.Store, error) {
	return draft.Open(app.DraftBackend, app.DraftDir)
}

func (app *App) newSession(slug string, editMode bool) (*session.Session, error) {
	drafts, err := app.drafts()
	if err != nil {
		return nil, err
	}
	opts := session.Options{
		Remote:   app.client(),
		Drafts:   drafts,
		Logger:   app.log,
		EditMode: editMode,
	}
	if app.cfg != nil {
		opts.UndoWindow = app.cfg.UndoWindow
	}
	return session.New(slug, opts), nil
}

// loadSession opens and loads a session. Scripted edits run in edit mode so every change
// is kept as a draft until `timeline save`.
func (app *App) loadSession(ctx context.Context, slug string, editMode bool) (*session.Session, error) {
	sess, err := app.newSession(slug, editMode)
	if err != nil {
		return nil, err
	}
	if err := sess.Load(ctx); err != nil {
		sess.Close()
		return nil, loadError(slug, err)
	}
	return sess, nil
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}

func writeText(w io.Writer, s string) error {
	_, err := fmt.Fprintln(w, s)
	return err
}
