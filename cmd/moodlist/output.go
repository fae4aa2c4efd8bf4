package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/toozej/moodlist/internal/types"
)

// printTracks writes tracks as a numbered list, or as JSON when asJSON is
// set. Favorites are starred.
func printTracks(w io.Writer, tracks []types.Track, favorites map[string]bool, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if tracks == nil {
			tracks = []types.Track{}
		}
		return enc.Encode(tracks)
	}

	if len(tracks) == 0 {
		_, err := fmt.Fprintln(w, "No tracks matched your selection")
		return err
	}

	if _, err := fmt.Fprintf(w, "\n🎶 Playlist (%d tracks)\n", len(tracks)); err != nil {
		return err
	}
	for i, t := range tracks {
		star := " "
		if favorites[t.ID] {
			star = "★"
		}
		if _, err := fmt.Fprintf(w, "%s %2d. %s  [popularity %d]  %s\n", star, i+1, t, t.Popularity, t.ID); err != nil {
			return err
		}
	}
	return nil
}

// printArtists writes artists as a numbered list
func printArtists(w io.Writer, artists []types.Artist) error {
	if len(artists) == 0 {
		_, err := fmt.Fprintln(w, "No artists found")
		return err
	}
	for i, a := range artists {
		genres := ""
		if len(a.Genres) > 0 {
			genres = "  (" + strings.Join(a.Genres, ", ") + ")"
		}
		if _, err := fmt.Fprintf(w, "%2d. %s  [popularity %d]  %s%s\n", i+1, a.Name, a.Popularity, a.ID, genres); err != nil {
			return err
		}
	}
	return nil
}
