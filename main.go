// Package main provides the entry point for the moodlist application.
//
// moodlist builds Spotify playlists from genres, artists, tracks, decades and
// audio-mood ranges, and can run the token-exchange service its OAuth flow uses.
package main

import cmd "github.com/toozej/moodlist/cmd/moodlist"

// main is the entry point of the moodlist application.
// It delegates execution to the cmd package which handles all
// command-line interface functionality.
func main() {
	cmd.Execute()
}
