// Package cmd provides command-line interface functionality for the moodlist application.
//
// This package implements the root command and manages the command-line interface
// using the cobra library. It handles configuration, logging setup, and command
// execution for the moodlist application.
//
// The package integrates with several components:
//   - Configuration management through pkg/config
//   - Token lifecycle through internal/auth
//   - Playlist assembly through internal/playlist
//   - Manual pages through pkg/man
//   - Version information through pkg/version
//
// Example usage:
//
//	import "github.com/toozej/moodlist/cmd/moodlist"
//
//	func main() {
//		cmd.Execute()
//	}
package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/toozej/moodlist/pkg/config"
	"github.com/toozej/moodlist/pkg/man"
	"github.com/toozej/moodlist/pkg/version"
)

// conf holds the application configuration loaded from environment variables.
// It is populated before any subcommand runs.
var (
	conf config.Config
	// debug controls the logging level for the application.
	// When true, debug-level logging is enabled through logrus.
	debug bool
)

// rootCmd defines the base command for the moodlist CLI application.
var rootCmd = &cobra.Command{
	Use:   "moodlist",
	Short: "Build Spotify playlists from genres, artists, decades and moods",
	Long: `moodlist assembles playlists from the Spotify catalog. Pick up to five genres,
artists and tracks, optionally a decade, a popularity range and energy, valence,
danceability and acousticness ranges, and moodlist gathers, deduplicates and
filters matching tracks.`,
	Args:              cobra.ExactArgs(0),
	PersistentPreRunE: rootCmdPreRun,
	Run:               rootCmdRun,
	SilenceUsage:      true,
}

// rootCmdRun logs a short usage hint
func rootCmdRun(cmd *cobra.Command, args []string) {
	log.Info("Use 'moodlist login' to connect your Spotify account")
	log.Info("Use 'moodlist generate --genre rock --decade 1990s' to build a playlist")
}

// rootCmdPreRun loads configuration and configures logging before any command runs.
// When debug mode is enabled, logrus is set to DebugLevel.
func rootCmdPreRun(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("error getting current working directory: %w", err)
	}

	conf, err = config.Load(cwd)
	if err != nil {
		return err
	}

	if debug {
		log.SetLevel(log.DebugLevel)
	}
	return nil
}

// Execute starts the command-line interface execution.
// If command execution fails, it prints the error message and exits with status 1.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}
}

func init() {
	// create rootCmd-level flags
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug-level logging")

	// add sub-commands
	rootCmd.AddCommand(
		newLoginCmd(),
		newLogoutCmd(),
		newStatusCmd(),
		newServeCmd(),
		newGenerateCmd(),
		newGenresCmd(),
		newSearchCmd(),
		newFavoritesCmd(),
		newWhoamiCmd(),
		man.NewManCmd(),
		version.Command(),
	)
}
