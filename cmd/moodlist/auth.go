package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/toozej/moodlist/internal/auth"
	"github.com/toozej/moodlist/internal/server"
)

// loginTimeout bounds how long login waits for the OAuth callback
const loginTimeout = 5 * time.Minute

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Connect your Spotify account",
		Long: `Start the Spotify authorization-code flow. moodlist prints an authorization
URL and listens on the redirect URI for the callback, then stores the issued tokens.`,
		Args: cobra.NoArgs,
		RunE: runLogin,
	}
}

func runLogin(cmd *cobra.Command, args []string) error {
	if err := conf.ValidateExchange(); err != nil {
		return err
	}

	svc, err := initializeServices(conf)
	if err != nil {
		return err
	}
	defer svc.Close()

	state := uuid.NewString()
	authURL := auth.NewOAuthConfig(oauthSettings(conf)).AuthCodeURL(state)

	log.WithField("auth_url", authURL).Info("Please visit this URL to authenticate with Spotify")
	fmt.Fprintf(cmd.OutOrStdout(), "\n🔐 Spotify Authentication Required\n")
	fmt.Fprintf(cmd.OutOrStdout(), "Please visit this URL to authenticate:\n%s\n\n", authURL)
	fmt.Fprintf(cmd.OutOrStdout(), "Waiting for authentication... (Press Ctrl+C to cancel)\n")

	ctx, cancel := context.WithTimeout(cmd.Context(), loginTimeout)
	defer cancel()

	if err := awaitCallback(ctx, conf.Server.Address(), callbackPath(conf.Spotify.RedirectURL), state, svc.tokens.Authorize, svc.logger); err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "✅ Logged in to Spotify")
	return nil
}

// awaitCallback serves the OAuth callback on addr until one callback
// completes or ctx ends
func awaitCallback(ctx context.Context, addr, path, state string, authorize server.AuthorizeFunc, logger *log.Logger) error {
	handler := server.NewCallbackHandler(state, authorize)

	router := server.NewRouter()
	router.Use(server.RequestID, server.Logging(logger))
	router.Handle(http.MethodGet, path, handler)

	serveCtx, stop := context.WithCancel(ctx)
	defer stop()

	srv := server.New(addr, router, logger)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(serveCtx) }()

	var result error
	select {
	case err := <-handler.Result():
		result = err
	case err := <-errCh:
		return err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			result = fmt.Errorf("timed out after %s waiting for the callback", loginTimeout)
		} else {
			result = ctx.Err()
		}
	}

	stop()
	if err := <-errCh; err != nil {
		logger.WithError(err).Warn("Error shutting down authentication server")
	}
	return result
}

// callbackPath returns the path of the redirect URI
func callbackPath(redirectURL string) string {
	u, err := url.Parse(redirectURL)
	if err != nil || u.Path == "" || u.Path == "/" {
		return server.CallbackPath
	}
	return u.Path
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored Spotify tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := initializeServices(conf)
			if err != nil {
				return err
			}
			defer svc.Close()

			if err := svc.tokens.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "👋 Logged out")
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored token state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := initializeServices(conf)
			if err != nil {
				return err
			}
			defer svc.Close()

			creds, err := svc.tokens.Status(cmd.Context())
			if err != nil {
				return err
			}
			printStatus(cmd, creds, time.Now())
			return nil
		},
	}
}

func printStatus(cmd *cobra.Command, creds auth.Credentials, now time.Time) {
	out := cmd.OutOrStdout()
	if creds.AccessToken == "" {
		fmt.Fprintln(out, "Not logged in")
		return
	}

	switch {
	case creds.ExpiresAt.IsZero():
		fmt.Fprintln(out, "Access token: present, expiry unknown")
	case creds.Expired(now):
		fmt.Fprintf(out, "Access token: expired at %s\n", creds.ExpiresAt.Format(time.RFC3339))
	default:
		fmt.Fprintf(out, "Access token: valid until %s (%s left)\n",
			creds.ExpiresAt.Format(time.RFC3339), creds.ExpiresAt.Sub(now).Round(time.Second))
	}

	if creds.Refreshable() {
		fmt.Fprintln(out, "Refresh token: present")
	} else {
		fmt.Fprintln(out, "Refresh token: missing, run 'moodlist login' when the access token expires")
	}
}
