package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/at-ishikawa/elicitor/internal/audio"
	"github.com/at-ishikawa/elicitor/internal/bootstrap"
	"github.com/at-ishikawa/elicitor/internal/config"
	"github.com/at-ishikawa/elicitor/internal/consent"
	"github.com/at-ishikawa/elicitor/internal/database"
	"github.com/at-ishikawa/elicitor/internal/datasync"
	"github.com/at-ishikawa/elicitor/internal/elicitation"
	"github.com/at-ishikawa/elicitor/internal/entry"
	"github.com/at-ishikawa/elicitor/internal/export"
	"github.com/at-ishikawa/elicitor/internal/remote"
	"github.com/at-ishikawa/elicitor/internal/server"
	"github.com/at-ishikawa/elicitor/internal/settings"
)

var configFile string

func main() {
	rootCmd := &cobra.Command{
		Use:           "elicitor-server",
		Short:         "Elicitor wordlist service HTTP server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}
	rootCmd.Flags().StringVar(&configFile, "config", "", "config file path")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	app := bootstrap.New()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loadConfig() > %w", err)
	}

	srv, err := setup(ctx, app, cfg)
	if err != nil {
		return err
	}

	return app.Run(ctx, func(ctx context.Context) error {
		slog.Default().Info("starting server", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
}

// setup takes the instance lock and builds the server. When a step fails,
// the hooks registered so far run before the error is returned.
func setup(ctx context.Context, app *bootstrap.App, cfg *config.Config) (*http.Server, error) {
	srv, err := buildServer(ctx, app, cfg)
	if err != nil {
		if shutdownErr := app.Shutdown(context.Background()); shutdownErr != nil {
			return nil, errors.Join(err, shutdownErr)
		}
		return nil, err
	}
	return srv, nil
}

func buildServer(ctx context.Context, app *bootstrap.App, cfg *config.Config) (*http.Server, error) {
	if err := app.Lock(cfg.Server.LockFile); err != nil {
		return nil, err
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	app.AddShutdownHook(func(ctx context.Context) error {
		return db.Close()
	})
	if err := database.Migrate(ctx, db); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	fetcher := remote.NewFetcher(cfg.Remote)
	app.AddShutdownHook(func(ctx context.Context) error {
		return fetcher.Close()
	})

	handler, err := newHandler(cfg, db, fetcher)
	if err != nil {
		return nil, err
	}
	path, h := server.NewWordlistServiceHandler(handler)

	mux := http.NewServeMux()
	mux.Handle(path, h)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: corsMiddleware(h2c.NewHandler(mux, &http2.Server{}), cfg.Server.CORS.AllowedOrigins),
	}
	app.AddShutdownHook(srv.Shutdown)
	return srv, nil
}

func newHandler(cfg *config.Config, db *sqlx.DB, fetcher *remote.Fetcher) (*server.WordlistHandler, error) {
	entryRepo := entry.NewDBRepository(db)
	audioRepo := audio.NewDBRepository(db)
	service := elicitation.NewService(entryRepo, audioRepo, consent.NewDBRepository(db), settings.NewDBRepository(db))
	importer := datasync.NewImporter(entryRepo, audioRepo, io.Discard)

	handler, err := server.NewWordlistHandler(service, importer, fetcher, export.NewPackager(cfg.Export.AppVersion))
	if err != nil {
		return nil, fmt.Errorf("server.NewWordlistHandler() > %w", err)
	}
	return handler, nil
}

func loadConfig() (*config.Config, error) {
	loader, err := config.NewConfigLoader(configFile)
	if err != nil {
		return nil, fmt.Errorf("config.NewConfigLoader() > %w", err)
	}
	return loader.Load()
}

func corsMiddleware(next http.Handler, allowedOrigins []string) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Connect-Protocol-Version")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
