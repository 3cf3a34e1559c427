package stages

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"episodic/internal/logging"
	"episodic/internal/podcast"
	"episodic/internal/services"
	"episodic/internal/services/llm"
	"episodic/internal/textutil"
)

// Outline bounds.
const (
	MinEpisodes       = 3
	MaxEpisodes       = 5
	KeyPointsPerEntry = 3
)

// LLMPlanner outlines series with a text-generation backend.
type LLMPlanner struct {
	llm    llm.Completer
	logger *slog.Logger
}

// NewLLMPlanner constructs a planner backed by completer.
func NewLLMPlanner(completer llm.Completer, logger *slog.Logger) *LLMPlanner {
	return &LLMPlanner{llm: completer, logger: logging.NewComponentLogger(logger, "planner")}
}

type outlinePayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Episodes    []struct {
		Title     string   `json:"title"`
		Focus     string   `json:"focus"`
		KeyPoints []string `json:"key_points"`
	} `json:"episodes"`
}

// Plan outlines a new series for topic.
func (p *LLMPlanner) Plan(ctx context.Context, topic string) (podcast.SeriesOutline, error) {
	return p.request(ctx, topic, "Topic: "+strings.TrimSpace(topic), "plan")
}

// Replan outlines topic again, taking the listener's feedback into account.
func (p *LLMPlanner) Replan(ctx context.Context, topic, feedback string) (podcast.SeriesOutline, error) {
	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		return p.Plan(ctx, topic)
	}
	brief := fmt.Sprintf("Topic: %s\nThe listener reviewed an earlier outline and asked for these changes: %s", strings.TrimSpace(topic), feedback)
	return p.request(ctx, topic, brief, "replan")
}

func (p *LLMPlanner) request(ctx context.Context, topic, brief, operation string) (podcast.SeriesOutline, error) {
	if strings.TrimSpace(topic) == "" {
		return podcast.SeriesOutline{}, services.Wrap(services.ErrValidation, StagePlanning, operation, "topic required", nil)
	}
	logger := logging.WithContext(ctx, p.logger)
	content, err := p.llm.Complete(ctx, llm.Request{
		System:   PlannerPrompt,
		Messages: []llm.Message{{Role: llm.RoleUser, Content: brief}},
		JSON:     true,
	})
	if err != nil {
		return podcast.SeriesOutline{}, wrapStage(StagePlanning, operation, "planning request failed", err)
	}
	var payload outlinePayload
	if err := llm.DecodeLLMJSON(content, &payload); err != nil {
		return podcast.SeriesOutline{}, services.Wrap(services.ErrValidation, StagePlanning, operation, "outline not parseable", err)
	}
	outline := podcast.SeriesOutline{Title: payload.Title, Description: payload.Description}
	for _, ep := range payload.Episodes {
		outline.Episodes = append(outline.Episodes, podcast.EpisodePlanEntry{
			Title:     ep.Title,
			Focus:     ep.Focus,
			KeyPoints: ep.KeyPoints,
		})
	}
	outline, err = NormalizeOutline(outline, topic)
	if err != nil {
		return podcast.SeriesOutline{}, err
	}
	logger.Info("series outline ready",
		logging.String(logging.FieldEventType, "plan_complete"),
		logging.String("operation", operation),
		logging.String("series_title", outline.Title),
		logging.Int(logging.FieldEpisodeCount, outline.Len()),
	)
	return outline, nil
}

// NormalizeOutline validates and tidies an outline. Fewer than MinEpisodes
// episodes or an episode with fewer than KeyPointsPerEntry key points is a
// validation error; extra episodes and key points are dropped. Episodes are
// renumbered 1..N.
func NormalizeOutline(outline podcast.SeriesOutline, topic string) (podcast.SeriesOutline, error) {
	out := outline.Clone()
	out.Title = strings.TrimSpace(out.Title)
	if out.Title == "" {
		out.Title = textutil.TitleCase(topic)
	}
	out.Description = strings.TrimSpace(out.Description)
	if len(out.Episodes) < MinEpisodes {
		return podcast.SeriesOutline{}, services.Wrap(services.ErrValidation, StagePlanning, "validate outline",
			fmt.Sprintf("outline has %d episodes, need at least %d", len(out.Episodes), MinEpisodes), nil)
	}
	if len(out.Episodes) > MaxEpisodes {
		out.Episodes = out.Episodes[:MaxEpisodes]
	}
	for i := range out.Episodes {
		ep := &out.Episodes[i]
		ep.Title = strings.TrimSpace(ep.Title)
		if ep.Title == "" {
			ep.Title = fmt.Sprintf("Part %d", i+1)
		}
		ep.Focus = strings.TrimSpace(ep.Focus)
		if ep.Focus == "" {
			ep.Focus = ep.Title
		}
		points := make([]string, 0, KeyPointsPerEntry)
		for _, point := range ep.KeyPoints {
			if point = strings.TrimSpace(point); point != "" {
				points = append(points, point)
			}
			if len(points) == KeyPointsPerEntry {
				break
			}
		}
		if len(points) < KeyPointsPerEntry {
			return podcast.SeriesOutline{}, services.Wrap(services.ErrValidation, StagePlanning, "validate outline",
				fmt.Sprintf("episode %d has %d key points, need %d", i+1, len(points), KeyPointsPerEntry), nil)
		}
		ep.KeyPoints = points
	}
	podcast.Renumber(out.Episodes)
	return out, nil
}
