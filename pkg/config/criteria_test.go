package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toozej/moodlist/internal/types"
)

func writeCriteria(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "criteria.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadCriteria(t *testing.T) {
	path := writeCriteria(t, `
genres = ["Rock", "indie"]
decade = "1990s"
artists = ["artist-1"]
tracks = ["track-1", "track-2"]

[popularity]
min = 40
max = 80

[mood.energy]
min = 60
max = 100
`)

	cf, err := LoadCriteria(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"track-1", "track-2"}, cf.TrackIDs())

	c := types.NewCriteria()
	require.NoError(t, cf.Apply(&c))

	assert.Equal(t, []string{"rock", "indie"}, c.Genres)
	require.NotNil(t, c.Decade)
	assert.Equal(t, "1990-1999", c.Decade.String())
	assert.Equal(t, []types.Artist{{ID: "artist-1"}}, c.Artists)
	assert.Equal(t, types.Range{Min: 40, Max: 80}, c.Popularity)
	assert.Equal(t, types.Range{Min: 60, Max: 100}, c.Mood.Energy)
	assert.True(t, c.Mood.Valence.IsFull())
	assert.Empty(t, c.Tracks)
}

func TestLoadCriteria_UnknownKey(t *testing.T) {
	path := writeCriteria(t, `genre = ["rock"]`)

	_, err := LoadCriteria(path)
	assert.ErrorIs(t, err, ErrUnknownCriteriaKey)
}

func TestLoadCriteria_Missing(t *testing.T) {
	_, err := LoadCriteria(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestCriteriaFile_ApplyInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{name: "bad decade", content: `decade = "1950s"`, wantErr: types.ErrUnknownDecade},
		{name: "too many genres", content: `genres = ["a","b","c","d","e","f"]`, wantErr: types.ErrSelectionLimit},
		{name: "inverted popularity", content: "[popularity]\nmin = 90\nmax = 10", wantErr: types.ErrInvalidRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cf, err := LoadCriteria(writeCriteria(t, tt.content))
			require.NoError(t, err)

			c := types.NewCriteria()
			assert.ErrorIs(t, cf.Apply(&c), tt.wantErr)
		})
	}
}
