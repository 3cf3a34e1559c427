package pipeline

import (
	"context"
	"fmt"

	"episodic/internal/logging"
	"episodic/internal/podcast"
	"episodic/internal/services"
	"episodic/internal/stages"
	"episodic/internal/textutil"
)

// Series progress layout: planning, then equal windows per episode.
const (
	seriesPlanning   = 0.05
	seriesWindowBase = 0.10
	seriesWindowSpan = 0.85
	// duplicateResearchThreshold flags consecutive episodes whose research
	// notes are nearly identical.
	duplicateResearchThreshold = 0.9
)

// episodeWindow returns the progress base and width for episode i of n.
func episodeWindow(i, n int) (base, width float64) {
	width = seriesWindowSpan / float64(n)
	base = seriesWindowBase + float64(i-1)/float64(n)*seriesWindowSpan
	return base, width
}

func (r *run) outline(ctx context.Context) (podcast.SeriesOutline, error) {
	params := r.params
	switch {
	case params.ApprovedOutline != nil:
		r.emit(podcast.StagePlanning, seriesPlanning, "Using the approved outline", 0, 0)
		return stages.NormalizeOutline(*params.ApprovedOutline, params.Topic)
	case len(params.Plan) > 0:
		r.emit(podcast.StagePlanning, seriesPlanning, "Using the approved plan", 0, 0)
		return stages.NormalizeOutline(podcast.SeriesOutline{Episodes: params.Plan}, params.Topic)
	}
	if r.p.planner == nil {
		return podcast.SeriesOutline{}, services.Wrap(services.ErrConfiguration, stages.StagePlanning, "plan", "planner not configured", nil)
	}
	if err := r.checkpoint(ctx); err != nil {
		return podcast.SeriesOutline{}, err
	}
	r.emit(podcast.StagePlanning, seriesPlanning, "Planning the series", 0, 0)
	var outline podcast.SeriesOutline
	err := r.call(ctx, stages.StagePlanning, 0, func(ctx context.Context) error {
		var err error
		outline, err = r.p.planner.Plan(ctx, params.Topic)
		return err
	})
	if err != nil {
		return podcast.SeriesOutline{}, err
	}
	return stages.NormalizeOutline(outline, params.Topic)
}

func (r *run) series(ctx context.Context) (Result, error) {
	params := r.params
	outline, err := r.outline(ctx)
	if err != nil {
		return Result{}, err
	}
	n := outline.Len()
	seriesID := r.id
	r.logger.Info("series outline ready",
		logging.String(logging.FieldEventType, "series_outline"),
		logging.String("series_title", outline.Title),
		logging.Int(logging.FieldEpisodeCount, n),
		logging.Bool("pre_approved", params.ApprovedOutline != nil || len(params.Plan) > 0),
	)

	episodes := make([]podcast.Podcast, 0, n)
	total := 0
	var previous *textutil.Fingerprint
	for i, entry := range outline.Episodes {
		number := i + 1
		base, width := episodeWindow(number, n)
		epCtx := services.WithGenerationID(ctx, episodeID(seriesID, number))

		var research stages.Research
		if err := r.checkpoint(ctx); err != nil {
			return Result{}, err
		}
		r.emit(podcast.StageSearching, base, fmt.Sprintf("Researching episode %d of %d: %s", number, n, entry.Title), number, n)
		err := r.call(epCtx, stages.StageResearch, number, func(ctx context.Context) error {
			var err error
			research, err = r.p.researcher.Research(ctx, params.Topic+" - "+entry.Focus)
			return err
		})
		if err != nil {
			return Result{}, err
		}
		current := textutil.NewFingerprint(research.Notes)
		if sim := previous.Similarity(current); sim >= duplicateResearchThreshold {
			logging.WarnWithContext(r.logger, "episode research overlaps previous episode",
				"research_overlap",
				logging.Int(logging.FieldEpisodeNumber, number),
				logging.Float64("similarity", sim),
				logging.String(logging.FieldImpact, "episodes may repeat material"),
				logging.String(logging.FieldErrorHint, "regenerate the plan with more distinct episode focuses"),
			)
		}
		previous = current

		var script string
		if err := r.checkpoint(ctx); err != nil {
			return Result{}, err
		}
		r.emit(podcast.StageGenerating, base+width/3, fmt.Sprintf("Writing episode %d of %d", number, n), number, n)
		err = r.call(epCtx, stages.StageScript, number, func(ctx context.Context) error {
			var err error
			script, err = r.p.scripter.Script(ctx, stages.ScriptRequest{
				Topic:        params.Topic,
				Notes:        research.Notes,
				Depth:        params.Depth,
				Tone:         params.Tone,
				Episode:      &entry,
				SeriesTitle:  outline.Title,
				EpisodeCount: n,
			})
			return err
		})
		if err != nil {
			return Result{}, err
		}

		var narration stages.Narration
		if err := r.checkpoint(ctx); err != nil {
			return Result{}, err
		}
		r.emit(podcast.StageCreatingAudio, base+2*width/3, fmt.Sprintf("Creating audio for episode %d of %d", number, n), number, n)
		id := episodeID(seriesID, number)
		err = r.call(epCtx, stages.StageNarration, number, func(ctx context.Context) error {
			var err error
			narration, err = r.p.narrator.Narrate(ctx, script, params.Voice, id)
			return err
		})
		if err != nil {
			return Result{}, err
		}

		total += narration.DurationSeconds
		episodes = append(episodes, podcast.Podcast{
			ID:              id,
			Topic:           params.Topic,
			Title:           entry.Title,
			Script:          script,
			AudioRef:        narration.AudioRef,
			DurationSeconds: narration.DurationSeconds,
			CreatedAt:       r.p.now(),
			Sources:         append([]string(nil), research.Sources...),
			Voice:           params.Voice,
			Style:           params.Style,
			Depth:           params.Depth,
			Tone:            params.Tone,
			SeriesID:        seriesID,
			EpisodeNumber:   number,
		})
	}

	series := podcast.Series{
		ID:                   seriesID,
		Topic:                params.Topic,
		Title:                outline.Title,
		Description:          outline.Description,
		EpisodeCount:         n,
		TotalDurationSeconds: total,
		CoverColor:           r.coverColor(),
		CreatedAt:            r.p.now(),
	}
	r.emit(podcast.StageDone, 1, "Your series is ready", n, n)
	return Result{Series: &series, Episodes: episodes}, nil
}
