package mood

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toozej/moodlist/internal/types"
)

// MockFeatureSource is a mock implementation of the FeatureSource interface
type MockFeatureSource struct {
	getAudioFeaturesFunc func(ctx context.Context, ids []string) (map[string]types.AudioFeature, error)

	calls   int
	lastIDs []string
}

func (m *MockFeatureSource) GetAudioFeatures(ctx context.Context, ids []string) (map[string]types.AudioFeature, error) {
	m.calls++
	m.lastIDs = ids
	if m.getAudioFeaturesFunc != nil {
		return m.getAudioFeaturesFunc(ctx, ids)
	}
	return map[string]types.AudioFeature{}, nil
}

func featuresFrom(fs ...types.AudioFeature) *MockFeatureSource {
	return &MockFeatureSource{
		getAudioFeaturesFunc: func(context.Context, []string) (map[string]types.AudioFeature, error) {
			out := make(map[string]types.AudioFeature, len(fs))
			for _, f := range fs {
				out[f.ID] = f
			}
			return out, nil
		},
	}
}

func newTestFilter(src *MockFeatureSource) *Filter {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewFilter(src, logger)
}

func trackList(ids ...string) []types.Track {
	out := make([]types.Track, len(ids))
	for i, id := range ids {
		out[i] = types.Track{ID: id, Name: "song " + id}
	}
	return out
}

func trackIDs(tracks []types.Track) []string {
	out := make([]string, len(tracks))
	for i, t := range tracks {
		out[i] = t.ID
	}
	return out
}

func TestApply_DefaultRangesSkipLookup(t *testing.T) {
	src := &MockFeatureSource{}
	filter := newTestFilter(src)
	input := trackList("a", "b", "c")

	got := filter.Apply(context.Background(), input, types.DefaultMoodRanges())

	assert.Equal(t, input, got)
	assert.Zero(t, src.calls)
}

func TestApply_EmptyInput(t *testing.T) {
	src := &MockFeatureSource{}
	ranges := types.DefaultMoodRanges()
	ranges.Energy = types.Range{Min: 50, Max: 100}

	got := newTestFilter(src).Apply(context.Background(), nil, ranges)

	assert.Empty(t, got)
	assert.Zero(t, src.calls)
}

func TestApply_KeepsTracksInsideEveryRange(t *testing.T) {
	src := featuresFrom(
		types.AudioFeature{ID: "calm", Energy: 0.2, Valence: 0.5, Danceability: 0.3, Acousticness: 0.9},
		types.AudioFeature{ID: "loud", Energy: 0.9, Valence: 0.6, Danceability: 0.8, Acousticness: 0.05},
		types.AudioFeature{ID: "edge", Energy: 0.6, Valence: 0.4, Danceability: 0.6, Acousticness: 0.3},
		types.AudioFeature{ID: "sad", Energy: 0.8, Valence: 0.1, Danceability: 0.7, Acousticness: 0.1},
	)
	ranges := types.DefaultMoodRanges()
	ranges.Energy = types.Range{Min: 60, Max: 100}
	ranges.Valence = types.Range{Min: 40, Max: 100}

	got := newTestFilter(src).Apply(context.Background(), trackList("calm", "loud", "edge", "sad"), ranges)

	assert.Equal(t, []string{"loud", "edge"}, trackIDs(got))
	assert.Equal(t, []string{"calm", "loud", "edge", "sad"}, src.lastIDs)
}

func TestApply_DropsTracksWithoutFeatures(t *testing.T) {
	src := featuresFrom(types.AudioFeature{ID: "a", Energy: 0.5})
	ranges := types.DefaultMoodRanges()
	ranges.Energy = types.Range{Min: 0, Max: 50}

	got := newTestFilter(src).Apply(context.Background(), trackList("a", "b"), ranges)

	assert.Equal(t, []string{"a"}, trackIDs(got))
}

func TestApply_LookupFailureReturnsInput(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "forbidden", err: errors.New("403 forbidden")},
		{name: "network", err: context.DeadlineExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &MockFeatureSource{
				getAudioFeaturesFunc: func(context.Context, []string) (map[string]types.AudioFeature, error) {
					return nil, tt.err
				},
			}
			ranges := types.DefaultMoodRanges()
			ranges.Danceability = types.Range{Min: 90, Max: 100}
			input := trackList("a", "b")

			got := newTestFilter(src).Apply(context.Background(), input, ranges)

			assert.Equal(t, input, got)
			assert.Equal(t, 1, src.calls)
		})
	}
}

func TestApply_OnlyFirstBatchConsidered(t *testing.T) {
	ids := make([]string, BatchLimit+20)
	all := make([]types.AudioFeature, len(ids))
	for i := range ids {
		ids[i] = fmt.Sprintf("t%03d", i)
		all[i] = types.AudioFeature{ID: ids[i], Energy: 1}
	}
	src := featuresFrom(all...)
	ranges := types.DefaultMoodRanges()
	ranges.Energy = types.Range{Min: 100, Max: 100}

	got := newTestFilter(src).Apply(context.Background(), trackList(ids...), ranges)

	require.Len(t, src.lastIDs, BatchLimit)
	assert.Equal(t, ids[:BatchLimit], src.lastIDs)
	assert.Len(t, got, BatchLimit)
}

func TestApply_BoundsAreInclusive(t *testing.T) {
	src := featuresFrom(
		types.AudioFeature{ID: "low", Acousticness: 0.25},
		types.AudioFeature{ID: "high", Acousticness: 0.75},
		types.AudioFeature{ID: "out", Acousticness: 0.76},
	)
	ranges := types.DefaultMoodRanges()
	ranges.Acousticness = types.Range{Min: 25, Max: 75}

	got := newTestFilter(src).Apply(context.Background(), trackList("low", "high", "out"), ranges)

	assert.Equal(t, []string{"low", "high"}, trackIDs(got))
}
