package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/toozej/moodlist/internal/search"
	"github.com/toozej/moodlist/internal/types"
)

func newGenresCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "genres [query]",
		Short: "List the selectable genres and decades",
		Long: `List the genres generate accepts, fuzzy-filtered by an optional query,
followed by the selectable decades.`,
		Args: cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			printGenres(cmd, search.NewGenreCatalog(), query)
		},
	}
}

func printGenres(cmd *cobra.Command, catalog *search.GenreCatalog, query string) {
	out := cmd.OutOrStdout()

	genres := catalog.Find(query)
	if len(genres) == 0 {
		fmt.Fprintf(out, "No genres match %q\n", query)
		return
	}
	fmt.Fprintf(out, "Genres: %s\n", strings.Join(genres, ", "))

	if query == "" {
		labels := make([]string, len(types.Decades))
		for i, d := range types.Decades {
			labels[i] = d.Label()
		}
		fmt.Fprintf(out, "Decades: %s\n", strings.Join(labels, ", "))
	}
}
