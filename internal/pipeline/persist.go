package pipeline

import (
	"context"
	"errors"

	"episodic/internal/podcast"
)

// Persister stores finished artifacts.
type Persister interface {
	SavePodcast(ctx context.Context, p podcast.Podcast) error
	SaveSeries(ctx context.Context, series podcast.Series, episodes []podcast.Podcast) error
}

// Persist hands the result to store. A series is saved together with its
// episodes.
func (r Result) Persist(ctx context.Context, store Persister) error {
	if store == nil {
		return errors.New("persist: no store configured")
	}
	switch {
	case r.Series != nil:
		return store.SaveSeries(ctx, *r.Series, r.Episodes)
	case r.Podcast != nil:
		return store.SavePodcast(ctx, *r.Podcast)
	default:
		return errors.New("persist: empty result")
	}
}

// Title returns the series title or the podcast title.
func (r Result) Title() string {
	switch {
	case r.Series != nil:
		return r.Series.Title
	case r.Podcast != nil:
		return r.Podcast.Title
	default:
		return ""
	}
}

// DurationSeconds returns the total narrated runtime.
func (r Result) DurationSeconds() int {
	switch {
	case r.Series != nil:
		return r.Series.TotalDurationSeconds
	case r.Podcast != nil:
		return r.Podcast.DurationSeconds
	default:
		return 0
	}
}

// Artifacts returns every produced podcast in playback order.
func (r Result) Artifacts() []podcast.Podcast {
	if r.Series != nil {
		out := make([]podcast.Podcast, len(r.Episodes))
		copy(out, r.Episodes)
		return out
	}
	if r.Podcast != nil {
		return []podcast.Podcast{*r.Podcast}
	}
	return nil
}
