package spotify

import (
	"github.com/zmb3/spotify/v2"

	"github.com/toozej/moodlist/internal/types"
)

// defaultPopularity is assumed when the provider omits popularity
const defaultPopularity = 50

// wireTrack is the subset of a provider track object that gets normalized.
// Popularity is a pointer so an omitted value can be told apart from 0.
type wireTrack struct {
	ID      spotify.ID             `json:"id"`
	Name    string                 `json:"name"`
	Artists []spotify.SimpleArtist `json:"artists"`
	Album   struct {
		Images []spotify.Image `json:"images"`
	} `json:"album"`
	Popularity *int `json:"popularity"`
}

type trackSearchResponse struct {
	Tracks struct {
		Items []*wireTrack `json:"items"`
	} `json:"tracks"`
}

type topTracksResponse struct {
	Tracks []*wireTrack `json:"tracks"`
}

type artistSearchResponse struct {
	Artists *spotify.FullArtistPage `json:"artists"`
}

type privateUser = spotify.PrivateUser

// wireAudioFeatures keeps the provider's feature values as float64 so range
// bounds such as 0.3 compare exactly
type wireAudioFeatures struct {
	ID           spotify.ID `json:"id"`
	Energy       float64    `json:"energy"`
	Valence      float64    `json:"valence"`
	Danceability float64    `json:"danceability"`
	Acousticness float64    `json:"acousticness"`
}

type audioFeaturesResponse struct {
	AudioFeatures []*wireAudioFeatures `json:"audio_features"`
}

// normalizeTrack converts a provider track into the canonical record
func normalizeTrack(w *wireTrack) types.Track {
	names := make([]string, 0, len(w.Artists))
	for _, a := range w.Artists {
		names = append(names, a.Name)
	}

	popularity := defaultPopularity
	if w.Popularity != nil {
		popularity = *w.Popularity
	}

	return types.Track{
		ID:            string(w.ID),
		Name:          w.Name,
		Artists:       types.JoinArtistNames(names),
		AlbumImageURL: albumImageURL(w.Album.Images),
		Popularity:    popularity,
	}
}

// normalizeTracks normalizes a page of tracks, skipping null entries
func normalizeTracks(items []*wireTrack) []types.Track {
	tracks := make([]types.Track, 0, len(items))
	for _, item := range items {
		if item == nil || item.ID == "" {
			continue
		}
		tracks = append(tracks, normalizeTrack(item))
	}
	return tracks
}

// albumImageURL prefers the small (third) album image, then the medium one
func albumImageURL(images []spotify.Image) string {
	for _, i := range []int{2, 1, 0} {
		if i < len(images) && images[i].URL != "" {
			return images[i].URL
		}
	}
	return ""
}

func normalizeArtist(a spotify.FullArtist) types.Artist {
	imageURL := ""
	if len(a.Images) > 0 {
		imageURL = a.Images[len(a.Images)-1].URL
	}
	return types.Artist{
		ID:         string(a.ID),
		Name:       a.Name,
		Genres:     a.Genres,
		Popularity: int(a.Popularity),
		ImageURL:   imageURL,
	}
}

func normalizeAudioFeatures(f *wireAudioFeatures) types.AudioFeature {
	return types.AudioFeature{
		ID:           string(f.ID),
		Energy:       f.Energy,
		Valence:      f.Valence,
		Danceability: f.Danceability,
		Acousticness: f.Acousticness,
	}
}
