package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/toozej/moodlist/internal/types"
)

// ErrUnknownCriteriaKey is returned when a criteria file has keys nothing reads
var ErrUnknownCriteriaKey = errors.New("unknown key in criteria file")

// CriteriaFile is the on-disk TOML form of playlist criteria.
//
//	genres = ["rock", "indie"]
//	decade = "1990s"
//	artists = ["0oSGxfWSnnOXhD2fKuz2Gy"]
//	tracks = ["4uLU6hMCjMI75M1A2tKUQC"]
//
//	[popularity]
//	min = 40
//	max = 80
//
//	[mood.energy]
//	min = 60
//	max = 100
type CriteriaFile struct {
	Genres     []string     `toml:"genres"`
	Decade     string       `toml:"decade"`
	Artists    []string     `toml:"artists"`
	Tracks     []string     `toml:"tracks"`
	Popularity *types.Range `toml:"popularity"`
	Mood       struct {
		Energy       *types.Range `toml:"energy"`
		Valence      *types.Range `toml:"valence"`
		Danceability *types.Range `toml:"danceability"`
		Acousticness *types.Range `toml:"acousticness"`
	} `toml:"mood"`
}

// LoadCriteria decodes a criteria file
func LoadCriteria(path string) (*CriteriaFile, error) {
	var cf CriteriaFile
	md, err := toml.DecodeFile(path, &cf)
	if err != nil {
		return nil, fmt.Errorf("failed to decode criteria file %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%w: %s", ErrUnknownCriteriaKey, strings.Join(keys, ", "))
	}

	return &cf, nil
}

// Apply merges the file into c. Track ids are not applied because manual
// tracks must be resolved to full records first; see TrackIDs.
func (cf *CriteriaFile) Apply(c *types.Criteria) error {
	for _, g := range cf.Genres {
		if err := c.AddGenre(g); err != nil {
			return err
		}
	}

	if cf.Decade != "" {
		d, err := types.ParseDecade(cf.Decade)
		if err != nil {
			return err
		}
		c.Decade = &d
	}

	for _, id := range cf.Artists {
		if err := c.AddArtist(types.Artist{ID: id}); err != nil {
			return err
		}
	}

	if cf.Popularity != nil {
		c.Popularity = *cf.Popularity
	}
	for _, m := range []struct {
		src *types.Range
		dst *types.Range
	}{
		{cf.Mood.Energy, &c.Mood.Energy},
		{cf.Mood.Valence, &c.Mood.Valence},
		{cf.Mood.Danceability, &c.Mood.Danceability},
		{cf.Mood.Acousticness, &c.Mood.Acousticness},
	} {
		if m.src != nil {
			*m.dst = *m.src
		}
	}

	return c.Validate()
}

// TrackIDs returns the manually picked track ids
func (cf *CriteriaFile) TrackIDs() []string {
	return cf.Tracks
}
