package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newFavoritesCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "favorites",
		Aliases: []string{"fav"},
		Short:   "Manage favorite tracks",
		Long: `Keep a list of favorite tracks across sessions. Tracks accept Spotify ids,
URIs, links or 'artist - title'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listFavorites(cmd, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print tracks as JSON")

	list := &cobra.Command{
		Use:   "list",
		Short: "List favorite tracks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listFavorites(cmd, asJSON)
		},
	}
	list.Flags().BoolVar(&asJSON, "json", false, "Print tracks as JSON")

	add := &cobra.Command{
		Use:   "add <track>",
		Short: "Add a track to favorites",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := initializeServices(conf)
			if err != nil {
				return err
			}
			defer svc.Close()

			track, err := resolveTrack(cmd.Context(), svc.resolver(), args[0], svc.logger)
			if err != nil {
				return err
			}
			added, err := svc.favorites.Add(cmd.Context(), track)
			if err != nil {
				return err
			}
			if added {
				fmt.Fprintf(cmd.OutOrStdout(), "★ Added %s\n", track)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is already a favorite\n", track)
			}
			return nil
		},
	}

	remove := &cobra.Command{
		Use:     "remove <track-id>",
		Aliases: []string{"rm"},
		Short:   "Remove a track from favorites",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := initializeServices(conf)
			if err != nil {
				return err
			}
			defer svc.Close()

			id := args[0]
			if parsed, ok := spotifyID("track", id); ok {
				id = parsed
			}
			removed, err := svc.favorites.Remove(cmd.Context(), id)
			if err != nil {
				return err
			}
			if removed {
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from favorites\n", id)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is not a favorite\n", id)
			}
			return nil
		},
	}

	toggle := &cobra.Command{
		Use:   "toggle <track>",
		Short: "Add a track to favorites, or remove it if present",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := initializeServices(conf)
			if err != nil {
				return err
			}
			defer svc.Close()

			track, err := resolveTrack(cmd.Context(), svc.resolver(), args[0], svc.logger)
			if err != nil {
				return err
			}
			now, err := svc.favorites.Toggle(cmd.Context(), track)
			if err != nil {
				return err
			}
			if now {
				fmt.Fprintf(cmd.OutOrStdout(), "★ Added %s\n", track)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from favorites\n", track)
			}
			return nil
		},
	}

	cmd.AddCommand(list, add, remove, toggle)
	return cmd
}

func listFavorites(cmd *cobra.Command, asJSON bool) error {
	svc, err := initializeServices(conf)
	if err != nil {
		return err
	}
	defer svc.Close()

	tracks, err := svc.favorites.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(tracks) == 0 && !asJSON {
		fmt.Fprintln(cmd.OutOrStdout(), "No favorites yet, add one with 'moodlist favorites add <track>'")
		return nil
	}

	all := make(map[string]bool, len(tracks))
	for _, t := range tracks {
		all[t.ID] = true
	}
	return printTracks(cmd.OutOrStdout(), tracks, all, asJSON)
}
