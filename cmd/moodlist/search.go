package cmd

import (
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// newSearchCmd creates the search command with artist and track subcommands
func newSearchCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search the Spotify catalog",
		Long: `Search the Spotify catalog for artists or tracks. Results show the ids that
generate and favorites accept.`,
	}

	artists := &cobra.Command{
		Use:   "artists <query>",
		Short: "Search for artists",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")

			svc, err := initializeServices(conf)
			if err != nil {
				return err
			}
			defer svc.Close()

			log.WithField("query", query).Debug("Searching artists")
			results, err := svc.catalog.SearchArtists(cmd.Context(), query)
			if err != nil {
				return explain(err)
			}
			return printArtists(cmd.OutOrStdout(), results)
		},
	}

	tracks := &cobra.Command{
		Use:   "tracks <query>",
		Short: "Search for tracks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")

			svc, err := initializeServices(conf)
			if err != nil {
				return err
			}
			defer svc.Close()

			log.WithField("query", query).Debug("Searching tracks")
			results, err := svc.catalog.SearchTracks(cmd.Context(), query)
			if err != nil {
				return explain(err)
			}

			favs, err := svc.favorites.IDs(cmd.Context())
			if err != nil {
				log.WithError(err).Warn("Could not load favorites")
			}
			return printTracks(cmd.OutOrStdout(), results, favs, asJSON)
		},
	}
	tracks.Flags().BoolVar(&asJSON, "json", false, "Print tracks as JSON")

	cmd.AddCommand(artists, tracks)
	return cmd
}
