// Package favorites keeps the user's favorited tracks as a JSON list under a
// single key of the key-value store.
package favorites

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/toozej/moodlist/internal/types"
)

// Key is the store key holding the favorites list
const Key = "favorite_tracks"

// Service manages favorite tracks
type Service struct {
	store  types.CredentialStore
	logger *log.Logger
	mu     sync.Mutex
}

// NewService creates a new favorites service
func NewService(store types.CredentialStore, logger *log.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
	}
}

// List returns the favorites in the order they were added. A missing or
// unreadable entry reads as an empty list.
func (s *Service) List(ctx context.Context) ([]types.Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// IDs returns the set of favorited track ids
func (s *Service) IDs(ctx context.Context) (map[string]bool, error) {
	tracks, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]bool, len(tracks))
	for _, t := range tracks {
		ids[t.ID] = true
	}
	return ids, nil
}

// Contains reports whether a track id is favorited
func (s *Service) Contains(ctx context.Context, trackID string) (bool, error) {
	ids, err := s.IDs(ctx)
	if err != nil {
		return false, err
	}
	return ids[trackID], nil
}

// Add appends a track unless it is already a favorite.
// It reports whether the list changed.
func (s *Service) Add(ctx context.Context, track types.Track) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tracks, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	if indexOf(tracks, track.ID) >= 0 {
		return false, nil
	}
	return true, s.save(ctx, "add", append(tracks, track))
}

// Remove drops a track by id. It reports whether the list changed.
func (s *Service) Remove(ctx context.Context, trackID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tracks, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	i := indexOf(tracks, trackID)
	if i < 0 {
		return false, nil
	}
	return true, s.save(ctx, "remove", append(tracks[:i], tracks[i+1:]...))
}

// Toggle removes track if it is a favorite and adds it otherwise.
// It returns whether the track is a favorite afterwards.
func (s *Service) Toggle(ctx context.Context, track types.Track) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tracks, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	if i := indexOf(tracks, track.ID); i >= 0 {
		return false, s.save(ctx, "toggle", append(tracks[:i], tracks[i+1:]...))
	}
	return true, s.save(ctx, "toggle", append(tracks, track))
}

func (s *Service) load(ctx context.Context) ([]types.Track, error) {
	raw, ok, err := s.store.Get(ctx, Key)
	if err != nil {
		return nil, fmt.Errorf("failed to read favorites: %w", err)
	}
	if !ok || raw == "" {
		return []types.Track{}, nil
	}

	var tracks []types.Track
	if err := json.Unmarshal([]byte(raw), &tracks); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"component": "favorites",
			"operation": "load",
		}).Warn("Stored favorites are not valid JSON, starting empty")
		return []types.Track{}, nil
	}
	return tracks, nil
}

func (s *Service) save(ctx context.Context, operation string, tracks []types.Track) error {
	data, err := json.Marshal(tracks)
	if err != nil {
		return fmt.Errorf("failed to encode favorites: %w", err)
	}
	if err := s.store.Set(ctx, Key, string(data)); err != nil {
		return fmt.Errorf("failed to save favorites: %w", err)
	}

	s.logger.WithFields(log.Fields{
		"component": "favorites",
		"operation": operation,
		"count":     len(tracks),
	}).Debug("Favorites saved")
	return nil
}

func indexOf(tracks []types.Track, id string) int {
	for i, t := range tracks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
