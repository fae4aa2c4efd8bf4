// Package duplicate removes repeated tracks from candidate pools and merges
// new batches into an existing list without repeating ids.
package duplicate

import (
	log "github.com/sirupsen/logrus"

	"github.com/toozej/moodlist/internal/types"
)

// Unique returns tracks with each id kept once, at its first occurrence.
// Tracks without an id are dropped.
func Unique(tracks []types.Track) []types.Track {
	seen := make(map[string]struct{}, len(tracks))
	unique := make([]types.Track, 0, len(tracks))
	for _, t := range tracks {
		if t.ID == "" {
			continue
		}
		if _, dup := seen[t.ID]; dup {
			continue
		}
		seen[t.ID] = struct{}{}
		unique = append(unique, t)
	}
	return unique
}

// Merge appends the tracks of batch whose ids are not already in existing,
// capping the combined list at limit. existing is never reordered or trimmed
// below its own length.
func Merge(existing, batch []types.Track, limit int) []types.Track {
	merged := make([]types.Track, len(existing), max(len(existing), limit))
	copy(merged, existing)

	seen := make(map[string]struct{}, len(existing)+len(batch))
	for _, t := range existing {
		seen[t.ID] = struct{}{}
	}

	for _, t := range batch {
		if len(merged) >= limit {
			break
		}
		if t.ID == "" {
			continue
		}
		if _, dup := seen[t.ID]; dup {
			continue
		}
		seen[t.ID] = struct{}{}
		merged = append(merged, t)
	}
	return merged
}

// Detector logs what deduplication removed
type Detector struct {
	logger *log.Logger
}

// NewDetector creates a deduplication helper that reports through logger
func NewDetector(logger *log.Logger) *Detector {
	return &Detector{logger: logger}
}

// Unique is Unique with a debug log of the removed count
func (d *Detector) Unique(operation string, tracks []types.Track) []types.Track {
	unique := Unique(tracks)
	if removed := len(tracks) - len(unique); removed > 0 {
		d.logger.WithFields(log.Fields{
			"component":       "duplicate_detector",
			"operation":       operation,
			"pool_size":       len(tracks),
			"duplicate_count": removed,
		}).Debug("Duplicate tracks removed")
	}
	return unique
}

// Merge is Merge with a debug log of what was appended
func (d *Detector) Merge(operation string, existing, batch []types.Track, limit int) []types.Track {
	merged := Merge(existing, batch, limit)
	d.logger.WithFields(log.Fields{
		"component":      "duplicate_detector",
		"operation":      operation,
		"existing_count": len(existing),
		"batch_count":    len(batch),
		"appended_count": len(merged) - len(existing),
		"limit":          limit,
	}).Debug("Merged new tracks into existing list")
	return merged
}
