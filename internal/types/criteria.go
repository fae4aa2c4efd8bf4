package types

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Selection limits
const (
	MaxGenres  = 5
	MaxArtists = 5
	MaxTracks  = 5
)

var (
	// ErrSelectionLimit is returned when adding past a selection limit
	ErrSelectionLimit = errors.New("selection limit reached")

	// ErrInvalidRange is returned for ranges outside 0..100 or with min > max
	ErrInvalidRange = errors.New("invalid range")

	// ErrUnknownDecade is returned when a decade is not one of Decades
	ErrUnknownDecade = errors.New("unknown decade")
)

// Range is an inclusive [Min, Max] bound on a 0-100 scale
type Range struct {
	Min int `json:"min" toml:"min"`
	Max int `json:"max" toml:"max"`
}

// FullRange returns [0, 100]
func FullRange() Range {
	return Range{Min: 0, Max: 100}
}

// IsFull reports whether the range spans the whole scale
func (r Range) IsFull() bool {
	return r.Min == 0 && r.Max == 100
}

// Contains reports whether v lies within the range, inclusive
func (r Range) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

// Validate checks 0 <= Min <= Max <= 100
func (r Range) Validate() error {
	if r.Min < 0 || r.Max > 100 || r.Min > r.Max {
		return fmt.Errorf("%w: [%d,%d]", ErrInvalidRange, r.Min, r.Max)
	}
	return nil
}

// String formats the range as "min-max"
func (r Range) String() string {
	return fmt.Sprintf("%d-%d", r.Min, r.Max)
}

// ParseRange parses "min-max" into a validated Range
func ParseRange(s string) (Range, error) {
	lo, hi, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return Range{}, fmt.Errorf("%w: %q, expected min-max", ErrInvalidRange, s)
	}
	low, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return Range{}, fmt.Errorf("%w: %q: %v", ErrInvalidRange, s, err)
	}
	high, err := strconv.Atoi(strings.TrimSpace(hi))
	if err != nil {
		return Range{}, fmt.Errorf("%w: %q: %v", ErrInvalidRange, s, err)
	}
	r := Range{Min: low, Max: high}
	return r, r.Validate()
}

// MoodRanges holds the four audio-mood bounds
type MoodRanges struct {
	Energy       Range `json:"energy" toml:"energy"`
	Valence      Range `json:"valence" toml:"valence"`
	Danceability Range `json:"danceability" toml:"danceability"`
	Acousticness Range `json:"acousticness" toml:"acousticness"`
}

// DefaultMoodRanges returns "no preference" for every mood
func DefaultMoodRanges() MoodRanges {
	return MoodRanges{
		Energy:       FullRange(),
		Valence:      FullRange(),
		Danceability: FullRange(),
		Acousticness: FullRange(),
	}
}

// IsDefault reports whether every mood range is [0, 100]
func (m MoodRanges) IsDefault() bool {
	return m.Energy.IsFull() && m.Valence.IsFull() && m.Danceability.IsFull() && m.Acousticness.IsFull()
}

// Validate validates each mood range
func (m MoodRanges) Validate() error {
	for name, r := range map[string]Range{
		"energy":       m.Energy,
		"valence":      m.Valence,
		"danceability": m.Danceability,
		"acousticness": m.Acousticness,
	} {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// Decade is a ten-year span used as a year: search qualifier
type Decade struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Decades lists the selectable decades
var Decades = []Decade{
	{Start: 1960, End: 1969},
	{Start: 1970, End: 1979},
	{Start: 1980, End: 1989},
	{Start: 1990, End: 1999},
	{Start: 2000, End: 2009},
	{Start: 2010, End: 2019},
	{Start: 2020, End: 2029},
}

// String returns the year range, e.g. "1990-1999"
func (d Decade) String() string {
	return fmt.Sprintf("%d-%d", d.Start, d.End)
}

// Label returns the short display name, e.g. "1990s"
func (d Decade) Label() string {
	return fmt.Sprintf("%ds", d.Start)
}

// ParseDecade accepts "1990s", "1990" or "1990-1999"
func ParseDecade(s string) (Decade, error) {
	s = strings.TrimSpace(s)
	start := strings.TrimSuffix(s, "s")
	if lo, _, ok := strings.Cut(s, "-"); ok {
		start = lo
	}
	year, err := strconv.Atoi(start)
	if err != nil {
		return Decade{}, fmt.Errorf("%w: %q", ErrUnknownDecade, s)
	}
	for _, d := range Decades {
		if d.Start == year && (s == start || s == start+"s" || s == d.String()) {
			return d, nil
		}
	}
	return Decade{}, fmt.Errorf("%w: %q", ErrUnknownDecade, s)
}

// Criteria is the full set of user-selected filters.
// Genres, Artists and Tracks have set semantics.
type Criteria struct {
	Genres     []string   `json:"genres"`
	Decade     *Decade    `json:"decade,omitempty"`
	Popularity Range      `json:"popularity"`
	Artists    []Artist   `json:"artists"`
	Tracks     []Track    `json:"tracks"`
	Mood       MoodRanges `json:"mood"`
}

// NewCriteria returns criteria with nothing selected and full ranges
func NewCriteria() Criteria {
	return Criteria{
		Popularity: FullRange(),
		Mood:       DefaultMoodRanges(),
	}
}

// IsEmpty reports whether no source is selected
func (c Criteria) IsEmpty() bool {
	return len(c.Genres) == 0 && len(c.Artists) == 0 && len(c.Tracks) == 0
}

// HasSources reports whether any artist or genre source is selected
func (c Criteria) HasSources() bool {
	return len(c.Genres) > 0 || len(c.Artists) > 0
}

// AddGenre adds a genre; adding a present genre is a no-op
func (c *Criteria) AddGenre(genre string) error {
	genre = strings.ToLower(strings.TrimSpace(genre))
	for _, g := range c.Genres {
		if g == genre {
			return nil
		}
	}
	if len(c.Genres) >= MaxGenres {
		return fmt.Errorf("%w: at most %d genres", ErrSelectionLimit, MaxGenres)
	}
	c.Genres = append(c.Genres, genre)
	return nil
}

// RemoveGenre removes a genre if present
func (c *Criteria) RemoveGenre(genre string) {
	for i, g := range c.Genres {
		if g == genre {
			c.Genres = append(c.Genres[:i:i], c.Genres[i+1:]...)
			return
		}
	}
}

// AddArtist adds an artist keyed by id
func (c *Criteria) AddArtist(artist Artist) error {
	for _, a := range c.Artists {
		if a.ID == artist.ID {
			return nil
		}
	}
	if len(c.Artists) >= MaxArtists {
		return fmt.Errorf("%w: at most %d artists", ErrSelectionLimit, MaxArtists)
	}
	c.Artists = append(c.Artists, artist)
	return nil
}

// RemoveArtist removes an artist by id
func (c *Criteria) RemoveArtist(id string) {
	for i, a := range c.Artists {
		if a.ID == id {
			c.Artists = append(c.Artists[:i:i], c.Artists[i+1:]...)
			return
		}
	}
}

// AddTrack adds a manually picked track keyed by id
func (c *Criteria) AddTrack(track Track) error {
	for _, t := range c.Tracks {
		if t.ID == track.ID {
			return nil
		}
	}
	if len(c.Tracks) >= MaxTracks {
		return fmt.Errorf("%w: at most %d tracks", ErrSelectionLimit, MaxTracks)
	}
	c.Tracks = append(c.Tracks, track)
	return nil
}

// RemoveTrack removes a manually picked track by id
func (c *Criteria) RemoveTrack(id string) {
	for i, t := range c.Tracks {
		if t.ID == id {
			c.Tracks = append(c.Tracks[:i:i], c.Tracks[i+1:]...)
			return
		}
	}
}

// Validate checks selection limits and ranges
func (c Criteria) Validate() error {
	if len(c.Genres) > MaxGenres {
		return fmt.Errorf("%w: at most %d genres", ErrSelectionLimit, MaxGenres)
	}
	if len(c.Artists) > MaxArtists {
		return fmt.Errorf("%w: at most %d artists", ErrSelectionLimit, MaxArtists)
	}
	if len(c.Tracks) > MaxTracks {
		return fmt.Errorf("%w: at most %d tracks", ErrSelectionLimit, MaxTracks)
	}
	if err := c.Popularity.Validate(); err != nil {
		return fmt.Errorf("popularity: %w", err)
	}
	return c.Mood.Validate()
}
