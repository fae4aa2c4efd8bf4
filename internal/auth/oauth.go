package auth

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/toozej/moodlist/internal/types"
)

// defaultExpiresIn is used when the provider omits an expiry
const defaultExpiresIn = 3600

// DefaultScopes are requested during login
var DefaultScopes = []string{
	spotifyauth.ScopeUserReadEmail,
	spotifyauth.ScopeUserReadPrivate,
	spotifyauth.ScopeUserTopRead,
	spotifyauth.ScopePlaylistModifyPrivate,
	spotifyauth.ScopePlaylistModifyPublic,
}

// OAuthSettings holds what is needed to talk to the provider's token endpoint
type OAuthSettings struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string

	// AuthURL and TokenURL default to the Spotify accounts service
	AuthURL  string
	TokenURL string
}

// NewOAuthConfig builds an oauth2 config for the authorization-code flow
func NewOAuthConfig(s OAuthSettings) *oauth2.Config {
	authURL := s.AuthURL
	if authURL == "" {
		authURL = spotifyauth.AuthURL
	}
	tokenURL := s.TokenURL
	if tokenURL == "" {
		tokenURL = spotifyauth.TokenURL
	}
	scopes := s.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}

	return &oauth2.Config{
		ClientID:     s.ClientID,
		ClientSecret: s.ClientSecret,
		RedirectURL:  s.RedirectURL,
		Scopes:       scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   authURL,
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
}

// OAuthExchanger performs both exchanges directly against the provider.
// It holds the client secret and belongs on the server side.
type OAuthExchanger struct {
	config *oauth2.Config
	logger *logrus.Logger
	now    func() time.Time
}

// NewOAuthExchanger creates an exchanger from settings
func NewOAuthExchanger(s OAuthSettings, logger *logrus.Logger) (*OAuthExchanger, error) {
	if s.ClientID == "" || s.ClientSecret == "" {
		return nil, fmt.Errorf("spotify client ID and secret are required")
	}
	return &OAuthExchanger{
		config: NewOAuthConfig(s),
		logger: logger,
		now:    time.Now,
	}, nil
}

// AuthCodeURL returns the provider authorization URL carrying state
func (o *OAuthExchanger) AuthCodeURL(state string) string {
	return o.config.AuthCodeURL(state)
}

// ExchangeCode trades an authorization code for the full token triplet
func (o *OAuthExchanger) ExchangeCode(ctx context.Context, code string) (*types.TokenResponse, error) {
	o.logger.WithFields(logrus.Fields{
		"component": "oauth_exchanger",
		"operation": "exchange_code",
	}).Debug("Exchanging authorization code")

	token, err := o.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code for token: %w", err)
	}

	return &types.TokenResponse{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresIn:    o.expiresIn(token),
	}, nil
}

// RefreshToken trades a refresh token for a new access token.
// The refresh token is not rotated.
func (o *OAuthExchanger) RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error) {
	o.logger.WithFields(logrus.Fields{
		"component": "oauth_exchanger",
		"operation": "refresh_token",
	}).Debug("Refreshing access token")

	token, err := o.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}

	return &types.TokenResponse{
		AccessToken: token.AccessToken,
		ExpiresIn:   o.expiresIn(token),
	}, nil
}

func (o *OAuthExchanger) expiresIn(token *oauth2.Token) int {
	if token.Expiry.IsZero() {
		return defaultExpiresIn
	}
	seconds := int(math.Round(token.Expiry.Sub(o.now()).Seconds()))
	if seconds <= 0 {
		return defaultExpiresIn
	}
	return seconds
}
