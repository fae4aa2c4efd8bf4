package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/toozej/moodlist/internal/api"
	"github.com/toozej/moodlist/internal/auth"
	"github.com/toozej/moodlist/internal/favorites"
	"github.com/toozej/moodlist/internal/mood"
	"github.com/toozej/moodlist/internal/playlist"
	"github.com/toozej/moodlist/internal/search"
	"github.com/toozej/moodlist/internal/spotify"
	"github.com/toozej/moodlist/internal/store"
	"github.com/toozej/moodlist/internal/types"
	"github.com/toozej/moodlist/pkg/config"
)

// services bundles everything a command needs, built from conf
type services struct {
	store     store.Store
	tokens    *auth.Manager
	catalog   *spotify.Service
	matcher   *search.Matcher
	favorites *favorites.Service
	logger    *log.Logger
}

// initializeServices opens the store and wires the token manager, fetch
// client and catalog
func initializeServices(cfg config.Config) (*services, error) {
	logger := log.StandardLogger()

	storePath, err := cfg.Store.ResolvePath()
	if err != nil {
		return nil, err
	}
	kv, err := store.Open(cfg.Store.Driver, storePath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Driver, err)
	}

	exchanger, err := initializeExchanger(cfg, logger)
	if err != nil {
		_ = kv.Close()
		return nil, err
	}

	tokens := auth.NewManager(kv, exchanger, logger)
	catalog := spotify.NewService(spotify.NewClient(cfg.Spotify, tokens, logger), logger)

	return &services{
		store:     kv,
		tokens:    tokens,
		catalog:   catalog,
		matcher:   search.NewMatcher(catalog, logger),
		favorites: favorites.NewService(kv, logger),
		logger:    logger,
	}, nil
}

// initializeExchanger returns a remote exchange client when an exchange
// service is configured and an in-process exchanger otherwise
func initializeExchanger(cfg config.Config, logger *log.Logger) (types.TokenExchanger, error) {
	if cfg.Exchange.URL != "" {
		client, err := api.NewExchangeClient(cfg.Exchange.URL, cfg.Spotify.HTTPTimeout, logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
	if cfg.Spotify.ClientSecret == "" {
		// Without a secret the manager can still hand out stored tokens;
		// only exchanges fail.
		return unavailableExchanger{}, nil
	}
	exchanger, err := auth.NewOAuthExchanger(oauthSettings(cfg), logger)
	if err != nil {
		return nil, err
	}
	return exchanger, nil
}

func oauthSettings(cfg config.Config) auth.OAuthSettings {
	return auth.OAuthSettings{
		ClientID:     cfg.Spotify.ClientID,
		ClientSecret: cfg.Spotify.ClientSecret,
		RedirectURL:  cfg.Spotify.RedirectURL,
		Scopes:       cfg.Spotify.Scopes,
		AuthURL:      cfg.Spotify.AuthURL,
		TokenURL:     cfg.Spotify.TokenURL,
	}
}

// newAssembler builds a playlist assembler over the catalog
func (s *services) newAssembler(cfg config.Config) *playlist.Assembler {
	opts := []playlist.Option{playlist.WithMarket(cfg.Spotify.Market)}
	if cfg.Playlist.RequestsPerSecond > 0 {
		burst := max(cfg.Playlist.Burst, 1)
		opts = append(opts, playlist.WithLimiter(rate.NewLimiter(rate.Limit(cfg.Playlist.RequestsPerSecond), burst)))
	}
	return playlist.NewAssembler(s.catalog, mood.NewFilter(s.catalog, s.logger), s.logger, opts...)
}

func (s *services) Close() error {
	return s.store.Close()
}

var errExchangeUnavailable = errors.New("no token exchange configured: set SPOTIFY_CLIENT_SECRET or TOKEN_EXCHANGE_URL")

// unavailableExchanger fails every exchange
type unavailableExchanger struct{}

func (unavailableExchanger) ExchangeCode(_ context.Context, _ string) (*types.TokenResponse, error) {
	return nil, errExchangeUnavailable
}

func (unavailableExchanger) RefreshToken(_ context.Context, _ string) (*types.TokenResponse, error) {
	return nil, errExchangeUnavailable
}

// explain turns fetch errors into user-facing messages
func explain(err error) error {
	if err == nil {
		return nil
	}

	var rateErr *spotify.RateLimitError
	switch {
	case errors.Is(err, playlist.ErrSuperseded):
		return err
	case errors.As(err, &rateErr):
		return fmt.Errorf("rate limited by Spotify, try again in %d seconds", rateErr.RetryAfter)
	case errors.Is(err, spotify.ErrAuth):
		return fmt.Errorf("not logged in or session expired, run 'moodlist login': %w", err)
	case errors.Is(err, spotify.ErrNetwork):
		return fmt.Errorf("could not reach Spotify: %w", err)
	default:
		return err
	}
}

// spotifyIDLength is the length of a base62 Spotify id
const spotifyIDLength = 22

// spotifyID extracts an id from a bare id, a spotify:<kind>:<id> URI or an
// open.spotify.com/<kind>/<id> link. ok is false for free text.
func spotifyID(kind, ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if rest, found := strings.CutPrefix(ref, "spotify:"+kind+":"); found {
		ref = rest
	} else if _, rest, found := strings.Cut(ref, "open.spotify.com/"+kind+"/"); found {
		ref, _, _ = strings.Cut(rest, "?")
	}

	if len(ref) != spotifyIDLength {
		return "", false
	}
	for _, r := range ref {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return "", false
		}
	}
	return ref, true
}
