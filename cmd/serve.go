package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lcrespin/towerstats/internal/pipeline"
	"github.com/lcrespin/towerstats/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the leaderboards as a JSON API",
	Long: `Start an HTTP server exposing the tables under /api/v1. Every request
fetches and reconciles the feed again, so answers always reflect the
current log.

Endpoints:
  GET /health
  GET /api/v1/dashboard
  GET /api/v1/summary
  GET /api/v1/groups
  GET /api/v1/rankings[?group=]    GET /api/v1/rankings/{group}
  GET /api/v1/winrate
  GET /api/v1/elo
  GET /api/v1/kills
  GET /api/v1/sessions[?date=YYYY-MM-DD&group=]
  GET /api/v1/players/{name}/trend`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8080)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	srv := server.NewServer(addr, pipeline.NewLoader(newSource(cfg), cfg))
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-cmd.Context().Done():
		log.Info("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
