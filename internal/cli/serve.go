package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"timeline-cli/internal/logger"
	"timeline-cli/internal/server"

	"github.com/spf13/cobra"
)

func newServeCmd(app *App) *cobra.Command {
	var addr, dbPath, token string
	var seeds []string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a local document store for development",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(dbPath) == "" {
				dbPath = filepath.Join(app.cfg.Dir, "server.sqlite")
			}
			level := app.LogLevel
			if !cmd.Flags().Changed("log-level") && os.Getenv("LOG_LEVEL") == "" {
				level = "info"
			}
			log := logger.New(logger.Config{Level: level, Output: cmd.ErrOrStderr()})

			srv, err := server.New(server.Config{
				Addr:   addr,
				Store:  &server.Store{Path: dbPath},
				Token:  token,
				Logger: log,
			})
			if err != nil {
				return writeErr(cmd, err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			for _, s := range seeds {
				if err := seedFile(ctx, srv, s); err != nil {
					return writeErr(cmd, err)
				}
			}

			log.Debug().Str("db", dbPath).Int("seeded", len(seeds)).Msg("store ready")
			if err := srv.ListenAndServe(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return writeErr(cmd, err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", envOr("TIMELINE_SERVER_ADDR", "127.0.0.1:8000"), "Listen address")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (default <config dir>/server.sqlite)")
	cmd.Flags().StringVar(&token, "token", os.Getenv("TIMELINE_SERVER_TOKEN"), "Require this bearer token on timeline routes")
	cmd.Flags().StringArrayVar(&seeds, "seed", nil, "Seed a document before serving (slug=path/to/doc.json; repeatable)")
	return cmd
}

func seedFile(ctx context.Context, srv *server.Server, arg string) error {
	slug, path, ok := strings.Cut(arg, "=")
	slug = strings.TrimSpace(slug)
	if !ok || slug == "" || strings.TrimSpace(path) == "" {
		return fmt.Errorf("invalid --seed %q (expected slug=path)", arg)
	}
	f, err := os.Open(strings.TrimSpace(path))
	if err != nil {
		return err
	}
	defer f.Close()
	return srv.Seed(ctx, slug, f)
}
