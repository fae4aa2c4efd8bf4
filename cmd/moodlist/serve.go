package cmd

import (
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/toozej/moodlist/internal/auth"
	"github.com/toozej/moodlist/internal/server"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the token-exchange service",
		Long: `Run the HTTP service that trades authorization codes and refresh tokens for
access tokens. It holds the Spotify client secret so that CLI instances
configured with TOKEN_EXCHANGE_URL never need it.

Endpoints:
  POST /api/spotify-token   {"code": "..."}
  POST /api/refresh-token   {"refresh_token": "..."}
  GET  /healthz`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := log.StandardLogger()

	exchanger, err := auth.NewOAuthExchanger(oauthSettings(conf), logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.WithField("address", conf.Server.Address()).Info("🚀 Starting token-exchange service")
	return server.New(conf.Server.Address(), server.NewExchangeRouter(exchanger, logger), logger).Run(ctx)
}
