package stages

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"episodic/internal/logging"
	"episodic/internal/services"
	"episodic/internal/services/llm"
)

const (
	minSources = 3
	maxSources = 5
)

// LLMResearcher gathers notes with a text-generation backend.
type LLMResearcher struct {
	llm    llm.Completer
	logger *slog.Logger
}

// NewLLMResearcher constructs a researcher backed by completer.
func NewLLMResearcher(completer llm.Completer, logger *slog.Logger) *LLMResearcher {
	return &LLMResearcher{llm: completer, logger: logging.NewComponentLogger(logger, "research")}
}

type researchPayload struct {
	Notes   string   `json:"notes"`
	Sources []string `json:"sources"`
}

// Research returns notes and 3-5 citations for query. Replies that are not
// the requested JSON shape are kept as raw notes with placeholder citations.
func (r *LLMResearcher) Research(ctx context.Context, query string) (Research, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Research{}, services.Wrap(services.ErrValidation, StageResearch, "research", "query required", nil)
	}
	logger := logging.WithContext(ctx, r.logger)
	content, err := r.llm.Complete(ctx, llm.Request{
		System:   ResearchPrompt,
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "Subject: " + query}},
		JSON:     true,
	})
	if err != nil {
		return Research{}, wrapStage(StageResearch, "complete", "research request failed", err)
	}

	var payload researchPayload
	if err := llm.DecodeLLMJSON(content, &payload); err != nil || strings.TrimSpace(payload.Notes) == "" {
		logging.WarnWithContext(logger, "research reply not structured; using raw notes",
			"research_fallback",
			logging.String("query", query),
			logging.String(logging.FieldImpact, "placeholder citations used"),
			logging.String(logging.FieldErrorHint, "check the configured model supports JSON replies"),
		)
		notes := PlainText(content)
		if payload.Notes != "" {
			notes = PlainText(payload.Notes)
		}
		return Research{Notes: notes, Sources: NormalizeSources(payload.Sources, query)}, nil
	}
	research := Research{
		Notes:   PlainText(payload.Notes),
		Sources: NormalizeSources(payload.Sources, query),
	}
	logger.Debug("research complete",
		logging.String(logging.FieldEventType, "research_complete"),
		logging.Int("source_count", len(research.Sources)),
		logging.Int("note_words", len(strings.Fields(research.Notes))),
	)
	return research, nil
}

// NormalizeSources trims and de-duplicates sources, keeps at most five, and
// pads with generic citations so at least three are always returned.
func NormalizeSources(sources []string, query string) []string {
	seen := make(map[string]struct{}, len(sources))
	out := make([]string, 0, maxSources)
	for _, source := range sources {
		source = strings.TrimSpace(source)
		if source == "" {
			continue
		}
		key := strings.ToLower(source)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, source)
		if len(out) == maxSources {
			return out
		}
	}
	for _, placeholder := range PlaceholderSources(query) {
		if len(out) >= minSources {
			break
		}
		if _, ok := seen[strings.ToLower(placeholder)]; ok {
			continue
		}
		out = append(out, placeholder)
	}
	return out
}

// PlaceholderSources returns the generic citations used when a backend gives
// no usable source list.
func PlaceholderSources(query string) []string {
	subject := strings.TrimSpace(query)
	if subject == "" {
		subject = "the topic"
	}
	return []string{
		fmt.Sprintf("Encyclopedia overview: %s", subject),
		fmt.Sprintf("Academic survey literature on %s", subject),
		fmt.Sprintf("Recent reporting on %s", subject),
	}
}
