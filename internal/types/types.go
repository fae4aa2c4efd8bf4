package types

import (
	"context"
	"fmt"
	"strings"
)

// CredentialStore defines a simple persistent key-value store.
// Get reports whether the key exists; a missing key is not an error.
type CredentialStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// TokenExchanger defines the server-side code and refresh exchanges
type TokenExchanger interface {
	ExchangeCode(ctx context.Context, code string) (*TokenResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error)
}

// TokenSource hands out bearer tokens to the fetch client
type TokenSource interface {
	GetValidToken(ctx context.Context) (string, bool)
	Refresh(ctx context.Context) (string, bool)
}

// TrackSource defines the catalog lookups the playlist assembler draws from
type TrackSource interface {
	SearchTracksByQuery(ctx context.Context, query string, limit, offset int) ([]Track, error)
	GetArtistTopTracks(ctx context.Context, artistID, market string) ([]Track, error)
}

// FeatureSource defines the bulk audio-feature lookup
type FeatureSource interface {
	GetAudioFeatures(ctx context.Context, trackIDs []string) (map[string]AudioFeature, error)
}

// Core data models

// Track is the canonical track record
type Track struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Artists       string `json:"artists"`
	AlbumImageURL string `json:"albumImageUrl"`
	Popularity    int    `json:"popularity"`
}

// String formats a track for display
func (t Track) String() string {
	if t.Artists == "" {
		return t.Name
	}
	return fmt.Sprintf("%s - %s", t.Artists, t.Name)
}

// Artist represents an artist search result
type Artist struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Genres     []string `json:"genres,omitempty"`
	Popularity int      `json:"popularity"`
	ImageURL   string   `json:"imageUrl,omitempty"`
}

// AudioFeature holds the mood-relevant audio features of a track, each on a 0-1 scale
type AudioFeature struct {
	ID           string  `json:"id"`
	Energy       float64 `json:"energy"`
	Valence      float64 `json:"valence"`
	Danceability float64 `json:"danceability"`
	Acousticness float64 `json:"acousticness"`
}

// TokenResponse is the payload returned by the token exchanges.
// RefreshToken is empty for refresh exchanges.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in"`
}

// UserProfile represents the authenticated user
type UserProfile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
	Country     string `json:"country,omitempty"`
	Product     string `json:"product,omitempty"`
}

// JoinArtistNames joins artist display names the way tracks present them
func JoinArtistNames(names []string) string {
	return strings.Join(names, ", ")
}
