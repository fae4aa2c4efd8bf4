// Package search resolves loosely typed genre, artist and track names into
// catalog entries, scoring each candidate with fuzzy matching.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/sirupsen/logrus"

	"github.com/toozej/moodlist/internal/types"
)

// ErrNoMatch is returned when a catalog search comes back empty
var ErrNoMatch = errors.New("no match found")

// Catalog is the artist and track lookup the matcher searches
type Catalog interface {
	SearchArtists(ctx context.Context, query string) ([]types.Artist, error)
	SearchTracks(ctx context.Context, query string) ([]types.Track, error)
}

// Matcher picks the closest catalog result for a typed name
type Matcher struct {
	catalog Catalog
	logger  *logrus.Logger
}

// NewMatcher creates a new fuzzy matcher
func NewMatcher(catalog Catalog, logger *logrus.Logger) *Matcher {
	return &Matcher{
		catalog: catalog,
		logger:  logger,
	}
}

// ArtistMatch is a resolved artist with its match confidence
type ArtistMatch struct {
	Artist     types.Artist `json:"artist"`
	Query      string       `json:"query"`
	Confidence float64      `json:"confidence"`
}

// TrackMatch is a resolved track with its match confidence
type TrackMatch struct {
	Track      types.Track `json:"track"`
	Query      string      `json:"query"`
	Confidence float64     `json:"confidence"`
}

// IsHighConfidence returns true if the match confidence is at least 0.8
func (m ArtistMatch) IsHighConfidence() bool {
	return m.Confidence >= 0.8
}

// IsLowConfidence returns true if the match confidence is below 0.5
func (m ArtistMatch) IsLowConfidence() bool {
	return m.Confidence < 0.5
}

// IsHighConfidence returns true if the match confidence is at least 0.8
func (m TrackMatch) IsHighConfidence() bool {
	return m.Confidence >= 0.8
}

// IsLowConfidence returns true if the match confidence is below 0.5
func (m TrackMatch) IsLowConfidence() bool {
	return m.Confidence < 0.5
}

// ResolveArtist searches for query and returns the best scoring artist
func (m *Matcher) ResolveArtist(ctx context.Context, query string) (*ArtistMatch, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("artist query cannot be empty")
	}

	artists, err := m.catalog.SearchArtists(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to search for artist %q: %w", query, err)
	}
	if len(artists) == 0 {
		return nil, fmt.Errorf("%w: artist %q", ErrNoMatch, query)
	}

	best := ArtistMatch{Query: query, Confidence: -1}
	for _, a := range artists {
		if c := matchConfidence(query, a.Name); c > best.Confidence {
			best.Artist = a
			best.Confidence = c
		}
	}

	m.logger.WithFields(logrus.Fields{
		"component":   "matcher",
		"query":       query,
		"artist_id":   best.Artist.ID,
		"artist_name": best.Artist.Name,
		"confidence":  best.Confidence,
	}).Debug("Resolved artist")

	return &best, nil
}

// ResolveTrack searches for query and returns the best scoring track. A
// query of the form "artist - title" is scored against both parts.
func (m *Matcher) ResolveTrack(ctx context.Context, query string) (*TrackMatch, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("track query cannot be empty")
	}

	artistQuery, titleQuery := splitTrackQuery(query)
	searchQuery := titleQuery
	if artistQuery != "" {
		searchQuery = artistQuery + " " + titleQuery
	}

	tracks, err := m.catalog.SearchTracks(ctx, searchQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to search for track %q: %w", query, err)
	}
	if len(tracks) == 0 {
		return nil, fmt.Errorf("%w: track %q", ErrNoMatch, query)
	}

	best := TrackMatch{Query: query, Confidence: -1}
	for _, t := range tracks {
		c := matchConfidence(titleQuery, t.Name)
		if artistQuery != "" {
			// title weighs more than artist
			c = c*0.6 + matchConfidence(artistQuery, t.Artists)*0.4
		}
		if c > best.Confidence {
			best.Track = t
			best.Confidence = c
		}
	}

	m.logger.WithFields(logrus.Fields{
		"component":  "matcher",
		"query":      query,
		"track_id":   best.Track.ID,
		"track":      best.Track.String(),
		"confidence": best.Confidence,
	}).Debug("Resolved track")

	return &best, nil
}

// splitTrackQuery splits "artist - title"; without a separator the whole
// query is the title
func splitTrackQuery(query string) (artist, title string) {
	if before, after, ok := strings.Cut(query, " - "); ok {
		return strings.TrimSpace(before), strings.TrimSpace(after)
	}
	return "", strings.TrimSpace(query)
}

// matchConfidence scores between 0.0 and 1.0 how well name matches query
func matchConfidence(query, name string) float64 {
	q := strings.ToLower(strings.TrimSpace(query))
	n := strings.ToLower(strings.TrimSpace(name))

	if q == "" || n == "" {
		return 0
	}
	if q == n {
		return 1.0
	}

	if strings.Contains(n, q) {
		ratio := float64(len(q)) / float64(len(n))
		return 0.8 + ratio*0.2
	}
	if strings.Contains(q, n) {
		ratio := float64(len(n)) / float64(len(q))
		return 0.7 + ratio*0.2
	}

	matches := fuzzy.Find(q, []string{n})
	if len(matches) == 0 {
		return 0.1
	}

	// fuzzy scores grow with consecutive and word-start matches
	confidence := float64(matches[0].Score) / float64(len(q)*2) * 0.7
	return min(max(confidence, 0.1), 0.7)
}
