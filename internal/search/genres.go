package search

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/sahilm/fuzzy"
)

// ErrUnknownGenre is returned when a query matches no catalog genre
var ErrUnknownGenre = errors.New("unknown genre")

// Genres is the fixed set of selectable genres
var Genres = []string{
	"rock", "pop", "hip-hop", "indie", "electronic", "techno", "house", "jazz",
	"classical", "latin", "reggaeton", "metal", "blues", "country", "disco", "funk",
}

// GenreCatalog looks up genres by loosely typed names
type GenreCatalog struct {
	genres []string
}

// NewGenreCatalog creates a catalog over genres, or Genres when none are given
func NewGenreCatalog(genres ...string) *GenreCatalog {
	if len(genres) == 0 {
		genres = Genres
	}
	return &GenreCatalog{genres: genres}
}

// All returns every genre in catalog order
func (c *GenreCatalog) All() []string {
	return append([]string(nil), c.genres...)
}

// Find returns the genres matching query, best first. An empty query
// returns the whole catalog.
func (c *GenreCatalog) Find(query string) []string {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return c.All()
	}

	matches := fuzzy.Find(query, c.genres)
	found := make([]string, 0, len(matches))
	for _, m := range matches {
		found = append(found, m.Str)
	}
	return found
}

// Resolve maps a typed genre name to its catalog entry. Punctuation and
// spacing are ignored, so "Hip Hop" and "hiphop" both resolve to "hip-hop".
func (c *GenreCatalog) Resolve(name string) (string, error) {
	key := compact(name)
	if key == "" {
		return "", fmt.Errorf("%w: empty name", ErrUnknownGenre)
	}

	for _, g := range c.genres {
		if compact(g) == key {
			return g, nil
		}
	}

	if found := c.Find(name); len(found) > 0 {
		return found[0], nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownGenre, name)
}

// compact lowercases s and drops everything but letters and digits
func compact(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, s)
}
