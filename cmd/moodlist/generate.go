package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/toozej/moodlist/internal/debounce"
	"github.com/toozej/moodlist/internal/playlist"
	"github.com/toozej/moodlist/internal/search"
	"github.com/toozej/moodlist/internal/types"
	"github.com/toozej/moodlist/pkg/config"
)

const (
	watchInterval = time.Second
	watchDebounce = 500 * time.Millisecond
)

// generateOptions holds the generate flags
type generateOptions struct {
	genres       []string
	decade       string
	popularity   string
	artists      []string
	tracks       []string
	energy       string
	valence      string
	danceability string
	acousticness string
	criteriaFile string
	more         int
	asJSON       bool
	watch        bool
}

// criteriaResolver turns user references into catalog records
type criteriaResolver interface {
	ResolveArtist(ctx context.Context, query string) (*search.ArtistMatch, error)
	ResolveTrack(ctx context.Context, query string) (*search.TrackMatch, error)
	GetTrack(ctx context.Context, trackID string) (*types.Track, error)
}

// catalogResolver resolves ids through the catalog and free text through the matcher
type catalogResolver struct {
	*search.Matcher
	tracks interface {
		GetTrack(ctx context.Context, trackID string) (*types.Track, error)
	}
}

func (r catalogResolver) GetTrack(ctx context.Context, trackID string) (*types.Track, error) {
	return r.tracks.GetTrack(ctx, trackID)
}

func (s *services) resolver() criteriaResolver {
	return catalogResolver{Matcher: s.matcher, tracks: s.catalog}
}

func newGenerateCmd() *cobra.Command {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a playlist from genres, artists, tracks and moods",
		Long: `Generate a playlist of up to 20 tracks. Sources are up to five genres, artists
and tracks. Artists and tracks accept Spotify ids, URIs, links or free text,
which is matched against the catalog. Ranges are written min-max on a 0-100 scale.

Use --more to extend the playlist towards 40 tracks, and --criteria with --watch
to regenerate whenever the criteria file changes.`,
		Example: `  moodlist generate --genre rock --genre indie --decade 1990s
  moodlist generate --artist "Radiohead" --energy 60-100 --more 1
  moodlist generate --criteria mood.toml --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringSliceVarP(&opts.genres, "genre", "g", nil, "Genre to draw from (repeatable)")
	f.StringVar(&opts.decade, "decade", "", "Restrict genre searches to a decade, e.g. 1990s")
	f.StringVar(&opts.popularity, "popularity", "", "Popularity range, e.g. 40-80")
	f.StringSliceVarP(&opts.artists, "artist", "a", nil, "Artist id, URI, link or name (repeatable)")
	f.StringSliceVarP(&opts.tracks, "track", "t", nil, "Track id, URI, link or 'artist - title' (repeatable)")
	f.StringVar(&opts.energy, "energy", "", "Energy range, e.g. 60-100")
	f.StringVar(&opts.valence, "valence", "", "Valence range, e.g. 0-40")
	f.StringVar(&opts.danceability, "danceability", "", "Danceability range")
	f.StringVar(&opts.acousticness, "acousticness", "", "Acousticness range")
	f.StringVarP(&opts.criteriaFile, "criteria", "c", "", "TOML criteria file; flags add to it")
	f.IntVar(&opts.more, "more", 0, "Extend the playlist this many times after generating")
	f.BoolVar(&opts.asJSON, "json", false, "Print tracks as JSON")
	f.BoolVarP(&opts.watch, "watch", "w", false, "Regenerate when the criteria file changes")

	return cmd
}

func runGenerate(cmd *cobra.Command, opts *generateOptions) error {
	if opts.watch && opts.criteriaFile == "" {
		return errors.New("--watch requires --criteria")
	}
	if opts.more < 0 {
		return fmt.Errorf("--more must not be negative, got %d", opts.more)
	}

	svc, err := initializeServices(conf)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	assembler := svc.newAssembler(conf)
	genres := search.NewGenreCatalog()

	run := func() error {
		criteria, err := buildCriteria(ctx, opts, genres, svc.resolver(), svc.logger)
		if err != nil {
			return err
		}
		return generateAndPrint(ctx, cmd, svc, assembler, criteria, opts)
	}

	if !opts.watch {
		return run()
	}
	return watchCriteria(ctx, opts.criteriaFile, run, svc.logger)
}

// generateAndPrint generates, extends opts.more times and prints each result
func generateAndPrint(ctx context.Context, cmd *cobra.Command, svc *services, assembler *playlist.Assembler, criteria types.Criteria, opts *generateOptions) error {
	logger := svc.logger.WithFields(log.Fields{
		"component": "cli",
		"operation": "generate",
	})

	tracks, err := assembler.Generate(ctx, criteria)
	if err != nil {
		return explain(err)
	}
	logger.WithField("track_count", len(tracks)).Info("🎶 Playlist generated")

	for i := range opts.more {
		before := len(tracks)
		tracks, err = assembler.Extend(ctx, criteria)
		if err != nil {
			return explain(err)
		}
		logger.WithFields(log.Fields{
			"round":       i + 1,
			"added":       len(tracks) - before,
			"track_count": len(tracks),
		}).Info("➕ Playlist extended")
	}

	favs, err := svc.favorites.IDs(ctx)
	if err != nil {
		logger.WithError(err).Warn("Could not load favorites")
	}
	return printTracks(cmd.OutOrStdout(), tracks, favs, opts.asJSON)
}

// buildCriteria merges the criteria file and flags into validated criteria
func buildCriteria(ctx context.Context, opts *generateOptions, genres *search.GenreCatalog, r criteriaResolver, logger *log.Logger) (types.Criteria, error) {
	c := types.NewCriteria()

	if opts.criteriaFile != "" {
		cf, err := config.LoadCriteria(opts.criteriaFile)
		if err != nil {
			return c, err
		}
		if err := cf.Apply(&c); err != nil {
			return c, fmt.Errorf("criteria file %s: %w", opts.criteriaFile, err)
		}
		for _, id := range cf.TrackIDs() {
			track, err := r.GetTrack(ctx, id)
			if err != nil {
				return c, explain(fmt.Errorf("failed to look up track %s: %w", id, err))
			}
			if err := c.AddTrack(*track); err != nil {
				return c, err
			}
		}
	}

	for _, g := range opts.genres {
		genre, err := genres.Resolve(g)
		if err != nil {
			return c, err
		}
		if err := c.AddGenre(genre); err != nil {
			return c, err
		}
	}

	if opts.decade != "" {
		d, err := types.ParseDecade(opts.decade)
		if err != nil {
			return c, err
		}
		c.Decade = &d
	}

	ranges := []struct {
		name  string
		value string
		dst   *types.Range
	}{
		{"popularity", opts.popularity, &c.Popularity},
		{"energy", opts.energy, &c.Mood.Energy},
		{"valence", opts.valence, &c.Mood.Valence},
		{"danceability", opts.danceability, &c.Mood.Danceability},
		{"acousticness", opts.acousticness, &c.Mood.Acousticness},
	}
	for _, rng := range ranges {
		if rng.value == "" {
			continue
		}
		parsed, err := types.ParseRange(rng.value)
		if err != nil {
			return c, fmt.Errorf("--%s: %w", rng.name, err)
		}
		*rng.dst = parsed
	}

	for _, ref := range opts.artists {
		artist, err := resolveArtist(ctx, r, ref, logger)
		if err != nil {
			return c, err
		}
		if err := c.AddArtist(artist); err != nil {
			return c, err
		}
	}

	for _, ref := range opts.tracks {
		track, err := resolveTrack(ctx, r, ref, logger)
		if err != nil {
			return c, err
		}
		if err := c.AddTrack(track); err != nil {
			return c, err
		}
	}

	return c, c.Validate()
}

func resolveArtist(ctx context.Context, r criteriaResolver, ref string, logger *log.Logger) (types.Artist, error) {
	if id, ok := spotifyID("artist", ref); ok {
		return types.Artist{ID: id}, nil
	}

	match, err := r.ResolveArtist(ctx, ref)
	if err != nil {
		return types.Artist{}, explain(err)
	}
	if match.IsLowConfidence() {
		logger.WithFields(log.Fields{
			"query":      ref,
			"artist":     match.Artist.Name,
			"confidence": match.Confidence,
		}).Warn("Low confidence artist match")
	}
	return match.Artist, nil
}

func resolveTrack(ctx context.Context, r criteriaResolver, ref string, logger *log.Logger) (types.Track, error) {
	if id, ok := spotifyID("track", ref); ok {
		track, err := r.GetTrack(ctx, id)
		if err != nil {
			return types.Track{}, explain(fmt.Errorf("failed to look up track %s: %w", id, err))
		}
		return *track, nil
	}

	match, err := r.ResolveTrack(ctx, ref)
	if err != nil {
		return types.Track{}, explain(err)
	}
	if match.IsLowConfidence() {
		logger.WithFields(log.Fields{
			"query":      ref,
			"track":      match.Track.String(),
			"confidence": match.Confidence,
		}).Warn("Low confidence track match")
	}
	return match.Track, nil
}

// watchCriteria runs fn now and again after each change to path until ctx ends
func watchCriteria(ctx context.Context, path string, fn func() error, logger *log.Logger) error {
	entry := logger.WithFields(log.Fields{
		"component":     "watcher",
		"criteria_file": path,
	})

	if err := fn(); err != nil && !errors.Is(err, playlist.ErrSuperseded) {
		entry.WithError(err).Error("Failed to generate playlist")
	}

	d := debounce.New(watchDebounce, func() {
		entry.Info("🔄 Criteria changed, regenerating")
		if err := fn(); err != nil && !errors.Is(err, playlist.ErrSuperseded) {
			entry.WithError(err).Error("Failed to regenerate playlist")
		}
	})
	// waits for a regeneration in progress, so the caller may close the store
	defer d.Stop()

	last, err := modTime(path)
	if err != nil {
		return err
	}

	entry.Info("Watching criteria file (Press Ctrl+C to stop)")
	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			mt, err := modTime(path)
			if err != nil {
				entry.WithError(err).Warn("Cannot stat criteria file")
				continue
			}
			if mt.After(last) {
				last = mt
				d.Trigger()
			}
		}
	}
}

func modTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}
