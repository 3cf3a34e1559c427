package stages

import (
	"context"
	"errors"

	"episodic/internal/podcast"
	"episodic/internal/services"
)

// Stage names used in wrapped errors and logs.
const (
	StageResearch  = "research"
	StageScript    = "script"
	StageNarration = "narration"
	StagePlanning  = "planning"
)

// Research is the output of a research call.
type Research struct {
	Notes   string
	Sources []string
}

// ScriptRequest carries everything the script writer needs for one unit.
type ScriptRequest struct {
	Topic   string
	Notes   string
	Depth   podcast.Depth
	Tone    podcast.Tone
	Episode *podcast.EpisodePlanEntry
	// SeriesTitle and EpisodeCount are set for series episodes.
	SeriesTitle  string
	EpisodeCount int
}

// SentenceTiming is the estimated playback window of one sentence.
type SentenceTiming struct {
	Index        int     `json:"index"`
	Text         string  `json:"text"`
	StartSeconds float64 `json:"start_seconds"`
	EndSeconds   float64 `json:"end_seconds"`
}

// Narration is the output of a narration call.
type Narration struct {
	AudioRef        string
	DurationSeconds int
	Timings         []SentenceTiming
}

// Researcher gathers notes and citations for a query.
type Researcher interface {
	Research(ctx context.Context, query string) (Research, error)
}

// Scripter turns research notes into narration text.
type Scripter interface {
	Script(ctx context.Context, req ScriptRequest) (string, error)
}

// Narrator renders a script to an addressable audio resource.
type Narrator interface {
	Narrate(ctx context.Context, script, voice, generationID string) (Narration, error)
}

// Planner produces series outlines.
type Planner interface {
	Plan(ctx context.Context, topic string) (podcast.SeriesOutline, error)
	Replan(ctx context.Context, topic, feedback string) (podcast.SeriesOutline, error)
}

// Synthesizer converts text to encoded audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// wrapStage tags err with stage while keeping the class assigned by the
// backend client. Cancellation passes through untouched.
func wrapStage(stage, operation, message string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, services.ErrCancelled) {
		return err
	}
	marker := services.ErrExternalTool
	var svcErr *services.Error
	if errors.As(err, &svcErr) && svcErr.Marker != nil {
		marker = svcErr.Marker
	} else if errors.Is(err, context.DeadlineExceeded) {
		marker = services.ErrTimeout
	}
	return services.Wrap(marker, stage, operation, message, err)
}
