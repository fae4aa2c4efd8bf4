package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrack_String(t *testing.T) {
	assert.Equal(t, "Nirvana - Lithium", Track{Name: "Lithium", Artists: "Nirvana"}.String())
	assert.Equal(t, "Lithium", Track{Name: "Lithium"}.String())
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Range
		wantErr bool
	}{
		{name: "full", input: "0-100", want: Range{Min: 0, Max: 100}},
		{name: "spaces", input: " 40 - 80 ", want: Range{Min: 40, Max: 80}},
		{name: "single point", input: "50-50", want: Range{Min: 50, Max: 50}},
		{name: "inverted", input: "80-40", wantErr: true},
		{name: "above scale", input: "10-101", wantErr: true},
		{name: "missing separator", input: "40", wantErr: true},
		{name: "not a number", input: "low-high", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRange(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRange)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRange_Contains(t *testing.T) {
	r := Range{Min: 40, Max: 80}
	assert.True(t, r.Contains(40))
	assert.True(t, r.Contains(80))
	assert.False(t, r.Contains(39))
	assert.False(t, r.Contains(81))
}

func TestMoodRanges_IsDefault(t *testing.T) {
	m := DefaultMoodRanges()
	assert.True(t, m.IsDefault())

	m.Valence = Range{Min: 0, Max: 99}
	assert.False(t, m.IsDefault())
}

func TestParseDecade(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "1990s", want: "1990-1999"},
		{input: "1990", want: "1990-1999"},
		{input: "1990-1999", want: "1990-1999"},
		{input: "2020s", want: "2020-2029"},
		{input: "1950s", wantErr: true},
		{input: "1990-1995", wantErr: true},
		{input: "nineties", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDecade(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownDecade)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestCriteria_SetSemantics(t *testing.T) {
	c := NewCriteria()
	assert.True(t, c.IsEmpty())

	require.NoError(t, c.AddGenre("Rock"))
	require.NoError(t, c.AddGenre("rock"))
	assert.Equal(t, []string{"rock"}, c.Genres)

	for _, g := range []string{"pop", "jazz", "funk", "disco"} {
		require.NoError(t, c.AddGenre(g))
	}
	assert.ErrorIs(t, c.AddGenre("metal"), ErrSelectionLimit)
	assert.Len(t, c.Genres, MaxGenres)

	c.RemoveGenre("jazz")
	assert.Equal(t, []string{"rock", "pop", "funk", "disco"}, c.Genres)

	require.NoError(t, c.AddArtist(Artist{ID: "a1", Name: "One"}))
	require.NoError(t, c.AddArtist(Artist{ID: "a1", Name: "One again"}))
	assert.Len(t, c.Artists, 1)
	c.RemoveArtist("a1")
	assert.Empty(t, c.Artists)

	require.NoError(t, c.AddTrack(Track{ID: "t1"}))
	assert.False(t, c.IsEmpty())
	assert.True(t, c.HasSources())
}

func TestCriteria_Validate(t *testing.T) {
	c := NewCriteria()
	require.NoError(t, c.Validate())

	c.Popularity = Range{Min: 90, Max: 10}
	assert.ErrorIs(t, c.Validate(), ErrInvalidRange)

	c = NewCriteria()
	c.Mood.Energy = Range{Min: -1, Max: 50}
	assert.ErrorIs(t, c.Validate(), ErrInvalidRange)

	c = NewCriteria()
	c.Tracks = make([]Track, MaxTracks+1)
	assert.ErrorIs(t, c.Validate(), ErrSelectionLimit)
}

func TestJoinArtistNames(t *testing.T) {
	assert.Equal(t, "A, B", JoinArtistNames([]string{"A", "B"}))
	assert.Equal(t, "", JoinArtistNames(nil))
}
