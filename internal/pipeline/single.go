package pipeline

import (
	"context"

	"episodic/internal/podcast"
	"episodic/internal/stages"
	"episodic/internal/textutil"
)

// Single-episode progress fractions.
const (
	singleSearching     = 0.10
	singleAnalyzing     = 0.30
	singleGenerating    = 0.45
	singleCreatingAudio = 0.70
)

func (r *run) single(ctx context.Context) (Result, error) {
	params := r.params
	var research stages.Research
	if err := r.checkpoint(ctx); err != nil {
		return Result{}, err
	}
	r.emit(podcast.StageSearching, singleSearching, "Researching "+params.Topic, 0, 0)
	err := r.call(ctx, stages.StageResearch, 0, func(ctx context.Context) error {
		var err error
		research, err = r.p.researcher.Research(ctx, params.Topic)
		return err
	})
	if err != nil {
		return Result{}, err
	}

	r.emit(podcast.StageAnalyzing, singleAnalyzing, "Analyzing research", 0, 0)
	if err := r.settle(ctx); err != nil {
		return Result{}, err
	}

	var script string
	if err := r.checkpoint(ctx); err != nil {
		return Result{}, err
	}
	r.emit(podcast.StageGenerating, singleGenerating, "Writing the script", 0, 0)
	err = r.call(ctx, stages.StageScript, 0, func(ctx context.Context) error {
		var err error
		script, err = r.p.scripter.Script(ctx, stages.ScriptRequest{
			Topic: params.Topic,
			Notes: research.Notes,
			Depth: params.Depth,
			Tone:  params.Tone,
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
	r.emit(podcast.StageCreatingAudio, singleCreatingAudio, "Creating audio", 0, 0)
	err = r.call(ctx, stages.StageNarration, 0, func(ctx context.Context) error {
		var err error
		narration, err = r.p.narrator.Narrate(ctx, script, params.Voice, r.id)
		return err
	})
	if err != nil {
		return Result{}, err
	}

	episode := podcast.Podcast{
		ID:              r.id,
		Topic:           params.Topic,
		Title:           textutil.TitleCase(params.Topic),
		Script:          script,
		AudioRef:        narration.AudioRef,
		DurationSeconds: narration.DurationSeconds,
		CreatedAt:       r.p.now(),
		Sources:         append([]string(nil), research.Sources...),
		Voice:           params.Voice,
		Style:           params.Style,
		Depth:           params.Depth,
		Tone:            params.Tone,
	}
	r.emit(podcast.StageDone, 1, "Your podcast is ready", 0, 0)
	return Result{Podcast: &episode}, nil
}
