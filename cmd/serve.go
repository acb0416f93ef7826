// cmd/serve.go
//
// `wordslide serve`: opens and migrates the database, starts the idle
// session sweeper and runs the HTTP API until SIGINT/SIGTERM.

package cmd

import (
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/wordslide/internal/db"
	"github.com/robalobadob/wordslide/internal/httpserver"
	"github.com/robalobadob/wordslide/internal/store"
)

var servePort string

func init() {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the JSON API: game sessions, saves, the daily challenge and accounts.

Configuration comes from the environment (and .env): PORT, DB_PATH,
JWT_SECRET, CLIENT_ORIGIN, DAILY_SALT, LOG_LEVEL and friends.`,
		RunE: runServe,
	}
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "", "Listen port (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if servePort != "" {
		cfg.Port = servePort
	}

	conn, err := db.OpenAndMigrate(cfg.DBPath)
	if err != nil {
		log.Error().Err(err).Str("path", cfg.DBPath).Msg("failed to open database")
		return err
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mem := store.NewMemoryStore()
	go mem.RunSweeper(ctx, time.Minute, cfg.SessionTTL, func(n int) {
		log.Info().Int("sessions", n).Msg("evicted idle sessions")
	})

	srv := httpserver.New(cfg, mem, conn)
	log.Info().Str("port", cfg.Port).Msg("starting wordslide server")
	if err := srv.Start(ctx, ":"+cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("server exited")
		return err
	}
	return nil
}
