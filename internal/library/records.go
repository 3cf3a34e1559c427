package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"episodic/internal/podcast"
)

const podcastColumns = "id, topic, title, script, audio_ref, duration_seconds, created_at, sources_json, voice, style, depth, tone, series_id, episode_number"

const seriesColumns = "id, topic, title, description, episode_count, total_duration_seconds, cover_color, created_at"

const upsertPodcastSQL = `INSERT INTO podcasts (` + podcastColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    topic = excluded.topic,
    title = excluded.title,
    script = excluded.script,
    audio_ref = excluded.audio_ref,
    duration_seconds = excluded.duration_seconds,
    created_at = excluded.created_at,
    sources_json = excluded.sources_json,
    voice = excluded.voice,
    style = excluded.style,
    depth = excluded.depth,
    tone = excluded.tone,
    series_id = excluded.series_id,
    episode_number = excluded.episode_number`

const upsertSeriesSQL = `INSERT INTO series (` + seriesColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    topic = excluded.topic,
    title = excluded.title,
    description = excluded.description,
    episode_count = excluded.episode_count,
    total_duration_seconds = excluded.total_duration_seconds,
    cover_color = excluded.cover_color,
    created_at = excluded.created_at`

// SavePodcast stores a standalone podcast. Episodes of a series go through
// SaveSeries.
func (s *Store) SavePodcast(ctx context.Context, p podcast.Podcast) error {
	if strings.TrimSpace(p.ID) == "" {
		return errors.New("podcast id is required")
	}
	if p.SeriesID != "" {
		return fmt.Errorf("podcast %s belongs to series %s; save the series instead", p.ID, p.SeriesID)
	}
	args, err := podcastArgs(p)
	if err != nil {
		return err
	}
	return s.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, upsertPodcastSQL, args...); err != nil {
			return fmt.Errorf("save podcast: %w", err)
		}
		return nil
	})
}

// SaveSeries stores a series and all of its episodes atomically. Every episode
// must reference the series and the episode count must match.
func (s *Store) SaveSeries(ctx context.Context, series podcast.Series, episodes []podcast.Podcast) error {
	if strings.TrimSpace(series.ID) == "" {
		return errors.New("series id is required")
	}
	if len(episodes) == 0 {
		return fmt.Errorf("series %s has no episodes", series.ID)
	}
	if series.EpisodeCount != len(episodes) {
		return fmt.Errorf("series %s declares %d episodes, got %d", series.ID, series.EpisodeCount, len(episodes))
	}
	episodeArgs := make([][]any, 0, len(episodes))
	for _, ep := range episodes {
		if ep.SeriesID != series.ID {
			return fmt.Errorf("episode %s references series %q, want %q", ep.ID, ep.SeriesID, series.ID)
		}
		args, err := podcastArgs(ep)
		if err != nil {
			return err
		}
		episodeArgs = append(episodeArgs, args)
	}

	return s.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, upsertSeriesSQL,
			series.ID,
			series.Topic,
			series.Title,
			nullableString(series.Description),
			series.EpisodeCount,
			series.TotalDurationSeconds,
			nullableString(series.CoverColor),
			formatTime(series.CreatedAt),
		); err != nil {
			return fmt.Errorf("save series: %w", err)
		}
		// A re-saved series replaces its episode set.
		if _, err := tx.ExecContext(ctx, "DELETE FROM podcasts WHERE series_id = ?", series.ID); err != nil {
			return fmt.Errorf("clear series episodes: %w", err)
		}
		for i, args := range episodeArgs {
			if _, err := tx.ExecContext(ctx, upsertPodcastSQL, args...); err != nil {
				return fmt.Errorf("save episode %d: %w", i+1, err)
			}
		}
		return nil
	})
}

// GetPodcast returns the podcast with id, or nil when it does not exist.
func (s *Store) GetPodcast(ctx context.Context, id string) (*podcast.Podcast, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+podcastColumns+` FROM podcasts WHERE id = ?`, id)
	p, err := scanPodcast(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get podcast: %w", err)
	}
	return p, nil
}

// GetSeries returns the series with id and its episodes ordered by episode
// number. The series is nil when it does not exist.
func (s *Store) GetSeries(ctx context.Context, id string) (*podcast.Series, []podcast.Podcast, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+seriesColumns+` FROM series WHERE id = ?`, id)
	series, err := scanSeries(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get series: %w", err)
	}
	episodes, err := s.queryPodcasts(ctx,
		`SELECT `+podcastColumns+` FROM podcasts WHERE series_id = ? ORDER BY episode_number`, id)
	if err != nil {
		return nil, nil, fmt.Errorf("list series episodes: %w", err)
	}
	return series, episodes, nil
}

// ListPodcasts returns standalone podcasts, newest first.
func (s *Store) ListPodcasts(ctx context.Context) ([]podcast.Podcast, error) {
	items, err := s.queryPodcasts(ensureContext(ctx),
		`SELECT `+podcastColumns+` FROM podcasts WHERE series_id IS NULL ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list podcasts: %w", err)
	}
	return items, nil
}

// ListSeries returns every series, newest first.
func (s *Store) ListSeries(ctx context.Context) ([]podcast.Series, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+seriesColumns+` FROM series ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}
	defer rows.Close()

	var out []podcast.Series
	for rows.Next() {
		series, err := scanSeries(rows)
		if err != nil {
			return nil, fmt.Errorf("scan series: %w", err)
		}
		out = append(out, *series)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate series: %w", err)
	}
	return out, nil
}

// Remove deletes a podcast or a series (with its episodes) by id and reports
// whether anything was deleted.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	var removed int64
	err := s.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		removed = 0
		if _, err := tx.ExecContext(ctx, "DELETE FROM podcasts WHERE series_id = ?", id); err != nil {
			return fmt.Errorf("remove series episodes: %w", err)
		}
		for _, query := range []string{
			"DELETE FROM podcasts WHERE id = ? AND series_id IS NULL",
			"DELETE FROM series WHERE id = ?",
		} {
			res, err := tx.ExecContext(ctx, query, id)
			if err != nil {
				return fmt.Errorf("remove %s: %w", id, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("remove rows affected: %w", err)
			}
			removed += n
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return removed > 0, nil
}

func (s *Store) queryPodcasts(ctx context.Context, query string, args ...any) ([]podcast.Podcast, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []podcast.Podcast
	for rows.Next() {
		p, err := scanPodcast(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func podcastArgs(p podcast.Podcast) ([]any, error) {
	var sources any
	if len(p.Sources) > 0 {
		encoded, err := json.Marshal(p.Sources)
		if err != nil {
			return nil, fmt.Errorf("encode sources: %w", err)
		}
		sources = string(encoded)
	}
	var episode any
	if p.SeriesID != "" {
		episode = p.EpisodeNumber
	}
	return []any{
		p.ID,
		p.Topic,
		p.Title,
		p.Script,
		nullableString(p.AudioRef),
		p.DurationSeconds,
		formatTime(p.CreatedAt),
		sources,
		nullableString(p.Voice),
		nullableString(p.Style),
		nullableString(string(p.Depth)),
		nullableString(string(p.Tone)),
		nullableString(p.SeriesID),
		episode,
	}, nil
}

func scanPodcast(scanner interface{ Scan(dest ...any) error }) (*podcast.Podcast, error) {
	var (
		p          podcast.Podcast
		audioRef   sql.NullString
		createdRaw string
		sources    sql.NullString
		voice      sql.NullString
		style      sql.NullString
		depth      sql.NullString
		tone       sql.NullString
		seriesID   sql.NullString
		episode    sql.NullInt64
	)
	if err := scanner.Scan(
		&p.ID,
		&p.Topic,
		&p.Title,
		&p.Script,
		&audioRef,
		&p.DurationSeconds,
		&createdRaw,
		&sources,
		&voice,
		&style,
		&depth,
		&tone,
		&seriesID,
		&episode,
	); err != nil {
		return nil, err
	}
	p.AudioRef = audioRef.String
	p.Voice = voice.String
	p.Style = style.String
	p.Depth = podcast.Depth(depth.String)
	p.Tone = podcast.Tone(tone.String)
	p.SeriesID = seriesID.String
	p.EpisodeNumber = int(episode.Int64)
	if sources.Valid && sources.String != "" {
		if err := json.Unmarshal([]byte(sources.String), &p.Sources); err != nil {
			return nil, fmt.Errorf("decode sources for %s: %w", p.ID, err)
		}
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		p.CreatedAt = created
	}
	return &p, nil
}

func scanSeries(scanner interface{ Scan(dest ...any) error }) (*podcast.Series, error) {
	var (
		series      podcast.Series
		description sql.NullString
		cover       sql.NullString
		createdRaw  string
	)
	if err := scanner.Scan(
		&series.ID,
		&series.Topic,
		&series.Title,
		&description,
		&series.EpisodeCount,
		&series.TotalDurationSeconds,
		&cover,
		&createdRaw,
	); err != nil {
		return nil, err
	}
	series.Description = description.String
	series.CoverColor = cover.String
	if created, err := parseTimeString(createdRaw); err == nil {
		series.CreatedAt = created
	}
	return &series, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		value = time.Now()
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
