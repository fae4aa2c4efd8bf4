// Package mood narrows a track list to the tracks whose audio features fall
// inside the requested mood ranges. Filtering is best-effort: a failed
// feature lookup returns the input unfiltered.
package mood

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/toozej/moodlist/internal/types"
)

// BatchLimit is the most ids a single audio-feature lookup accepts
const BatchLimit = 100

// bounds is a mood range on the provider's 0-1 scale
type bounds struct {
	min, max float64
}

func scaled(r types.Range) bounds {
	return bounds{min: float64(r.Min) / 100, max: float64(r.Max) / 100}
}

func (b bounds) contains(v float64) bool {
	return v >= b.min && v <= b.max
}

// Filter applies mood ranges using a bulk audio-feature lookup
type Filter struct {
	features types.FeatureSource
	logger   *log.Logger
}

// NewFilter creates a new mood filter
func NewFilter(features types.FeatureSource, logger *log.Logger) *Filter {
	return &Filter{
		features: features,
		logger:   logger,
	}
}

// Apply returns the tracks whose features lie within every range, inclusive.
// With default ranges the input is returned without a lookup. Only the first
// BatchLimit tracks are considered; tracks past that or without a feature
// record are dropped.
func (f *Filter) Apply(ctx context.Context, tracks []types.Track, ranges types.MoodRanges) []types.Track {
	if ranges.IsDefault() || len(tracks) == 0 {
		return tracks
	}

	candidates := tracks
	if len(candidates) > BatchLimit {
		candidates = candidates[:BatchLimit]
	}
	ids := make([]string, 0, len(candidates))
	for _, t := range candidates {
		ids = append(ids, t.ID)
	}

	features, err := f.features.GetAudioFeatures(ctx, ids)
	if err != nil {
		f.logger.WithError(err).WithFields(log.Fields{
			"component":   "mood_filter",
			"operation":   "apply",
			"track_count": len(tracks),
		}).Warn("Audio feature lookup failed, skipping mood filter")
		return tracks
	}

	energy := scaled(ranges.Energy)
	valence := scaled(ranges.Valence)
	danceability := scaled(ranges.Danceability)
	acousticness := scaled(ranges.Acousticness)

	kept := make([]types.Track, 0, len(candidates))
	for _, t := range candidates {
		feature, ok := features[t.ID]
		if !ok {
			continue
		}
		if energy.contains(feature.Energy) &&
			valence.contains(feature.Valence) &&
			danceability.contains(feature.Danceability) &&
			acousticness.contains(feature.Acousticness) {
			kept = append(kept, t)
		}
	}

	f.logger.WithFields(log.Fields{
		"component":    "mood_filter",
		"operation":    "apply",
		"input_count":  len(tracks),
		"looked_up":    len(ids),
		"feature_hits": len(features),
		"kept_count":   len(kept),
	}).Debug("Mood filter applied")

	return kept
}
