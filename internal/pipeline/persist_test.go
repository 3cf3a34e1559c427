package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"episodic/internal/podcast"
)

type memoryStore struct {
	podcasts []podcast.Podcast
	series   []podcast.Series
	episodes map[string][]podcast.Podcast
}

func (m *memoryStore) SavePodcast(_ context.Context, p podcast.Podcast) error {
	m.podcasts = append(m.podcasts, p)
	return nil
}

func (m *memoryStore) SaveSeries(_ context.Context, s podcast.Series, episodes []podcast.Podcast) error {
	if m.episodes == nil {
		m.episodes = make(map[string][]podcast.Podcast)
	}
	m.series = append(m.series, s)
	m.episodes[s.ID] = episodes
	return nil
}

func TestPersistSingle(t *testing.T) {
	store := &memoryStore{}
	result := Result{Podcast: &podcast.Podcast{ID: "p1", Title: "Jazz", DurationSeconds: 170}}

	require.NoError(t, result.Persist(context.Background(), store))
	require.Len(t, store.podcasts, 1)
	assert.Empty(t, store.series)
	assert.Equal(t, "Jazz", result.Title())
	assert.Equal(t, 170, result.DurationSeconds())
	assert.Len(t, result.Artifacts(), 1)
}

func TestPersistSeries(t *testing.T) {
	store := &memoryStore{}
	result := Result{
		Series:   &podcast.Series{ID: "s1", Title: "Jazz Ages", EpisodeCount: 2, TotalDurationSeconds: 300},
		Episodes: []podcast.Podcast{{ID: "s1-ep1", SeriesID: "s1"}, {ID: "s1-ep2", SeriesID: "s1"}},
	}

	require.NoError(t, result.Persist(context.Background(), store))
	assert.Empty(t, store.podcasts)
	require.Len(t, store.series, 1)
	assert.Len(t, store.episodes["s1"], 2)
	assert.Equal(t, "Jazz Ages", result.Title())
	assert.Equal(t, 300, result.DurationSeconds())
	assert.Equal(t, "s1-ep2", result.Artifacts()[1].ID)
}

func TestPersistRejectsEmpty(t *testing.T) {
	assert.Error(t, Result{}.Persist(context.Background(), &memoryStore{}))
	assert.Error(t, Result{Podcast: &podcast.Podcast{}}.Persist(context.Background(), nil))
}
