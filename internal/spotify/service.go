package spotify

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/toozej/moodlist/internal/types"
)

// Catalog limits
const (
	// MaxAudioFeatureIDs is the audio-features endpoint's batch ceiling
	MaxAudioFeatureIDs = 100

	// MinQueryLength is the shortest query accepted by catalog searches
	MinQueryLength = 2

	// CatalogSearchLimit is the page size of artist and track pickers
	CatalogSearchLimit = 6
)

// Requester performs authenticated API requests
type Requester interface {
	Request(ctx context.Context, endpoint string, opts RequestOptions, out any) error
}

// Service implements the catalog lookups used by the playlist assembler,
// the mood filter and the CLI pickers
type Service struct {
	client Requester
	logger *logrus.Logger
}

// NewService creates a catalog service over client
func NewService(client Requester, logger *logrus.Logger) *Service {
	return &Service{
		client: client,
		logger: logger,
	}
}

// SearchTracksByQuery runs a raw track search, e.g. "genre:rock year:1990-1999"
func (s *Service) SearchTracksByQuery(ctx context.Context, query string, limit, offset int) ([]types.Track, error) {
	s.logger.WithFields(logrus.Fields{
		"component": "spotify_service",
		"operation": "search_tracks",
		"query":     query,
		"limit":     limit,
		"offset":    offset,
	}).Debug("Searching tracks")

	params := url.Values{}
	params.Set("type", "track")
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))

	var resp trackSearchResponse
	if err := s.client.Request(ctx, "/search", RequestOptions{Query: params}, &resp); err != nil {
		return nil, fmt.Errorf("failed to search tracks for %q: %w", query, err)
	}

	return normalizeTracks(resp.Tracks.Items), nil
}

// SearchTracks is the free-text track picker search
func (s *Service) SearchTracks(ctx context.Context, query string) ([]types.Track, error) {
	query = strings.TrimSpace(query)
	if len(query) < MinQueryLength {
		return nil, ErrQueryTooShort
	}
	return s.SearchTracksByQuery(ctx, query, CatalogSearchLimit, 0)
}

// SearchArtists is the free-text artist picker search
func (s *Service) SearchArtists(ctx context.Context, query string) ([]types.Artist, error) {
	query = strings.TrimSpace(query)
	if len(query) < MinQueryLength {
		return nil, ErrQueryTooShort
	}

	s.logger.WithFields(logrus.Fields{
		"component": "spotify_service",
		"operation": "search_artists",
		"query":     query,
	}).Debug("Searching artists")

	params := url.Values{}
	params.Set("type", "artist")
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(CatalogSearchLimit))

	var resp artistSearchResponse
	if err := s.client.Request(ctx, "/search", RequestOptions{Query: params}, &resp); err != nil {
		return nil, fmt.Errorf("failed to search artists for %q: %w", query, err)
	}
	if resp.Artists == nil {
		return []types.Artist{}, nil
	}

	artists := make([]types.Artist, 0, len(resp.Artists.Artists))
	for _, a := range resp.Artists.Artists {
		if a.ID == "" {
			continue
		}
		artists = append(artists, normalizeArtist(a))
	}
	return artists, nil
}

// GetArtistTopTracks returns an artist's top tracks in market
func (s *Service) GetArtistTopTracks(ctx context.Context, artistID, market string) ([]types.Track, error) {
	s.logger.WithFields(logrus.Fields{
		"component": "spotify_service",
		"operation": "artist_top_tracks",
		"artist_id": artistID,
		"market":    market,
	}).Debug("Getting artist top tracks")

	params := url.Values{}
	params.Set("market", market)

	var resp topTracksResponse
	endpoint := "/artists/" + url.PathEscape(artistID) + "/top-tracks"
	if err := s.client.Request(ctx, endpoint, RequestOptions{Query: params}, &resp); err != nil {
		return nil, fmt.Errorf("failed to get top tracks for artist %s: %w", artistID, err)
	}

	return normalizeTracks(resp.Tracks), nil
}

// GetAudioFeatures fetches audio features for up to MaxAudioFeatureIDs tracks.
// Tracks the provider has no features for are absent from the result.
func (s *Service) GetAudioFeatures(ctx context.Context, trackIDs []string) (map[string]types.AudioFeature, error) {
	if len(trackIDs) == 0 {
		return map[string]types.AudioFeature{}, nil
	}
	if len(trackIDs) > MaxAudioFeatureIDs {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyIDs, len(trackIDs), MaxAudioFeatureIDs)
	}

	s.logger.WithFields(logrus.Fields{
		"component": "spotify_service",
		"operation": "audio_features",
		"ids":       len(trackIDs),
	}).Debug("Getting audio features")

	params := url.Values{}
	params.Set("ids", strings.Join(trackIDs, ","))

	var resp audioFeaturesResponse
	if err := s.client.Request(ctx, "/audio-features", RequestOptions{Query: params}, &resp); err != nil {
		return nil, fmt.Errorf("failed to get audio features: %w", err)
	}

	features := make(map[string]types.AudioFeature, len(resp.AudioFeatures))
	for _, f := range resp.AudioFeatures {
		if f == nil || f.ID == "" {
			continue
		}
		features[string(f.ID)] = normalizeAudioFeatures(f)
	}
	return features, nil
}

// GetTrack fetches a single track by id
func (s *Service) GetTrack(ctx context.Context, trackID string) (*types.Track, error) {
	var resp wireTrack
	if err := s.client.Request(ctx, "/tracks/"+url.PathEscape(trackID), RequestOptions{}, &resp); err != nil {
		return nil, fmt.Errorf("failed to get track %s: %w", trackID, err)
	}
	track := normalizeTrack(&resp)
	return &track, nil
}

// CurrentUser returns the authenticated user's profile
func (s *Service) CurrentUser(ctx context.Context) (*types.UserProfile, error) {
	var resp privateUser
	if err := s.client.Request(ctx, "/me", RequestOptions{}, &resp); err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}

	return &types.UserProfile{
		ID:          resp.ID,
		DisplayName: resp.DisplayName,
		Email:       resp.Email,
		Country:     resp.Country,
		Product:     resp.Product,
	}, nil
}
