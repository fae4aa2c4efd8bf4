// Package playlist assembles track lists from the selected criteria.
//
// An Assembler gathers candidates from manually picked tracks, the top tracks
// of selected artists and one randomized search per selected genre, then
// deduplicates them and applies the popularity and mood filters.
package playlist

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/toozej/moodlist/internal/duplicate"
	"github.com/toozej/moodlist/internal/types"
)

// Assembly limits
const (
	GenerateCap     = 20
	ExtendCap       = 40
	SearchPageSize  = 15
	MaxRandomOffset = 120
	DefaultMarket   = "ES"
)

// ErrSuperseded is returned by a Generate or Extend call that a later call
// overtook. Its result is discarded.
var ErrSuperseded = errors.New("superseded by a newer request")

// State is the assembler's lifecycle state
type State int

const (
	Idle State = iota
	Loading
	Ready
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MoodFilter narrows tracks to the requested mood ranges
type MoodFilter interface {
	Apply(ctx context.Context, tracks []types.Track, ranges types.MoodRanges) []types.Track
}

// Option configures an Assembler
type Option func(*Assembler)

// WithMarket sets the market used for artist top tracks
func WithMarket(market string) Option {
	return func(a *Assembler) {
		if market != "" {
			a.market = market
		}
	}
}

// WithOffsetFunc replaces the random search offset source. fn is called
// with MaxRandomOffset and must return a value in [0, n).
func WithOffsetFunc(fn func(n int) int) Option {
	return func(a *Assembler) {
		a.offset = fn
	}
}

// WithLimiter paces outgoing source requests
func WithLimiter(limiter *rate.Limiter) Option {
	return func(a *Assembler) {
		a.limiter = limiter
	}
}

// Assembler builds and holds one session's playlist
type Assembler struct {
	source  types.TrackSource
	mood    MoodFilter
	dedup   *duplicate.Detector
	logger  *log.Logger
	market  string
	offset  func(n int) int
	limiter *rate.Limiter

	mu         sync.Mutex
	generation uint64
	state      State
	tracks     []types.Track
	err        error
}

// NewAssembler creates a new playlist assembler
func NewAssembler(source types.TrackSource, mood MoodFilter, logger *log.Logger, opts ...Option) *Assembler {
	a := &Assembler{
		source: source,
		mood:   mood,
		dedup:  duplicate.NewDetector(logger),
		logger: logger,
		market: DefaultMarket,
		offset: rand.IntN,
		state:  Idle,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// State returns the current lifecycle state
func (a *Assembler) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Tracks returns a copy of the current result
func (a *Assembler) Tracks() []types.Track {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]types.Track(nil), a.tracks...)
}

// Err returns the error of the last failed operation, if the assembler is in
// the Error state
func (a *Assembler) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}

// Remove drops a track from the current result
func (a *Assembler) Remove(trackID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, t := range a.tracks {
		if t.ID == trackID {
			a.tracks = append(a.tracks[:i:i], a.tracks[i+1:]...)
			return true
		}
	}
	return false
}

// begin starts a new operation and returns its generation with the size of
// the current result
func (a *Assembler) begin() (uint64, int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.generation++
	a.state = Loading
	a.err = nil
	return a.generation, len(a.tracks)
}

// commit stores the outcome of generation gen if no newer call started.
// build receives the result as it is at commit time, so removals made while
// the operation ran are kept. commit returns a copy of the stored result.
func (a *Assembler) commit(gen uint64, build func(current []types.Track) []types.Track, err error) ([]types.Track, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.generation {
		return nil, ErrSuperseded
	}
	a.tracks = build(append([]types.Track(nil), a.tracks...))
	a.err = err
	if err != nil {
		a.state = Error
	} else {
		a.state = Ready
	}
	out := make([]types.Track, len(a.tracks))
	copy(out, a.tracks)
	return out, err
}

// replaceWith discards the current result in favor of tracks
func replaceWith(tracks []types.Track) func([]types.Track) []types.Track {
	return func([]types.Track) []types.Track { return tracks }
}

// keepCurrent leaves the current result as it is
func keepCurrent(current []types.Track) []types.Track {
	return current
}

// Generate replaces the result with a fresh list of at most GenerateCap tracks.
// On failure the result is cleared.
func (a *Assembler) Generate(ctx context.Context, criteria types.Criteria) ([]types.Track, error) {
	gen, _ := a.begin()
	logger := a.logger.WithFields(log.Fields{
		"component":  "playlist_assembler",
		"operation":  "generate",
		"generation": gen,
	})

	if criteria.IsEmpty() {
		logger.Debug("Nothing selected, clearing playlist")
		return a.commit(gen, replaceWith([]types.Track{}), nil)
	}

	logger.WithFields(log.Fields{
		"genres":  len(criteria.Genres),
		"artists": len(criteria.Artists),
		"tracks":  len(criteria.Tracks),
	}).Info("Generating playlist")

	fetched, err := a.gather(ctx, criteria)
	if err != nil {
		logger.WithError(err).Error("Could not generate playlist")
		if _, cerr := a.commit(gen, replaceWith([]types.Track{}), err); errors.Is(cerr, ErrSuperseded) {
			return nil, cerr
		}
		return nil, fmt.Errorf("generate playlist: %w", err)
	}

	pool := make([]types.Track, 0, len(criteria.Tracks)+len(fetched))
	pool = append(pool, criteria.Tracks...)
	pool = append(pool, fetched...)

	result := a.filter(ctx, a.dedup.Unique("generate", pool), criteria)
	if len(result) > GenerateCap {
		result = result[:GenerateCap]
	}

	committed, err := a.commit(gen, replaceWith(result), nil)
	if err != nil {
		logger.Debug("Discarding superseded result")
		return nil, err
	}

	logger.WithField("track_count", len(committed)).Info("🎶 Playlist generated")
	return committed, nil
}

// Extend appends newly found tracks from the artist and genre sources to the
// current result, up to ExtendCap tracks in total. On failure the current
// result is kept.
func (a *Assembler) Extend(ctx context.Context, criteria types.Criteria) ([]types.Track, error) {
	gen, existing := a.begin()
	logger := a.logger.WithFields(log.Fields{
		"component":      "playlist_assembler",
		"operation":      "extend",
		"generation":     gen,
		"existing_count": existing,
	})

	if !criteria.HasSources() {
		logger.Debug("No artist or genre sources selected, nothing to add")
		return a.commit(gen, keepCurrent, nil)
	}

	fetched, err := a.gather(ctx, criteria)
	if err != nil {
		logger.WithError(err).Error("Could not add more tracks")
		kept, cerr := a.commit(gen, keepCurrent, err)
		if errors.Is(cerr, ErrSuperseded) {
			return nil, cerr
		}
		return kept, fmt.Errorf("extend playlist: %w", err)
	}

	batch := a.filter(ctx, fetched, criteria)
	merged, err := a.commit(gen, func(current []types.Track) []types.Track {
		return a.dedup.Merge("extend", current, batch, ExtendCap)
	}, nil)
	if err != nil {
		logger.Debug("Discarding superseded result")
		return nil, err
	}

	logger.WithField("track_count", len(merged)).Info("➕ Playlist extended")
	return merged, nil
}

// filter applies the popularity and then the mood filter
func (a *Assembler) filter(ctx context.Context, tracks []types.Track, criteria types.Criteria) []types.Track {
	return a.mood.Apply(ctx, FilterByPopularity(tracks, criteria.Popularity), criteria.Mood)
}

// FilterByPopularity keeps tracks whose popularity lies within r, in order
func FilterByPopularity(tracks []types.Track, r types.Range) []types.Track {
	kept := make([]types.Track, 0, len(tracks))
	for _, t := range tracks {
		if r.Contains(t.Popularity) {
			kept = append(kept, t)
		}
	}
	return kept
}

// GenreQuery builds the search query for one genre, with an optional decade
func GenreQuery(genre string, decade *types.Decade) string {
	if decade == nil {
		return "genre:" + genre
	}
	return fmt.Sprintf("genre:%s year:%s", genre, decade)
}

// sourceFetch is one artist or genre request
type sourceFetch struct {
	kind  string
	key   string
	fetch func(ctx context.Context) ([]types.Track, error)
}

// sources lists the requests for criteria: artists in selection order, then
// genres. Offsets are drawn here so they follow that order.
func (a *Assembler) sources(criteria types.Criteria) []sourceFetch {
	fetches := make([]sourceFetch, 0, len(criteria.Artists)+len(criteria.Genres))
	for _, artist := range criteria.Artists {
		id := artist.ID
		fetches = append(fetches, sourceFetch{
			kind: "artist",
			key:  id,
			fetch: func(ctx context.Context) ([]types.Track, error) {
				return a.source.GetArtistTopTracks(ctx, id, a.market)
			},
		})
	}
	for _, genre := range criteria.Genres {
		query := GenreQuery(genre, criteria.Decade)
		offset := a.offset(MaxRandomOffset)
		fetches = append(fetches, sourceFetch{
			kind: "genre",
			key:  query,
			fetch: func(ctx context.Context) ([]types.Track, error) {
				return a.source.SearchTracksByQuery(ctx, query, SearchPageSize, offset)
			},
		})
	}
	return fetches
}

// gather runs every source request concurrently. Results are concatenated in
// source order. The first failure cancels the remaining requests.
func (a *Assembler) gather(ctx context.Context, criteria types.Criteria) ([]types.Track, error) {
	fetches := a.sources(criteria)
	if len(fetches) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	slots := make([][]types.Track, len(fetches))

	for i, f := range fetches {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracks, err := a.run(ctx, f)
			if err != nil {
				once.Do(func() {
					firstErr = err
					cancel()
				})
				return
			}
			slots[i] = tracks
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	var all []types.Track
	for _, tracks := range slots {
		all = append(all, tracks...)
	}
	return all, nil
}

func (a *Assembler) run(ctx context.Context, f sourceFetch) ([]types.Track, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%s %q: %w", f.kind, f.key, err)
		}
	}
	tracks, err := f.fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", f.kind, f.key, err)
	}
	a.logger.WithFields(log.Fields{
		"component":   "playlist_assembler",
		"source":      f.kind,
		"key":         f.key,
		"track_count": len(tracks),
	}).Debug("Fetched source tracks")
	return tracks, nil
}
