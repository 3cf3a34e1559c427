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

// Script length bounds in words.
const (
	MinScriptWords = 300
	MaxScriptWords = 450
)

// LLMScripter writes narration with a text-generation backend.
type LLMScripter struct {
	llm    llm.Completer
	logger *slog.Logger
}

// NewLLMScripter constructs a script writer backed by completer.
func NewLLMScripter(completer llm.Completer, logger *slog.Logger) *LLMScripter {
	return &LLMScripter{llm: completer, logger: logging.NewComponentLogger(logger, "script")}
}

// Script writes, sanitizes, and caps the narration for req.
func (s *LLMScripter) Script(ctx context.Context, req ScriptRequest) (string, error) {
	if strings.TrimSpace(req.Topic) == "" {
		return "", services.Wrap(services.ErrValidation, StageScript, "script", "topic required", nil)
	}
	logger := logging.WithContext(ctx, s.logger)
	content, err := s.llm.Complete(ctx, llm.Request{
		System:   ScriptPrompt,
		Messages: []llm.Message{{Role: llm.RoleUser, Content: BuildScriptBrief(req)}},
	})
	if err != nil {
		return "", wrapStage(StageScript, "complete", "script request failed", err)
	}
	script := CapWords(SanitizeScript(content), MaxScriptWords)
	if script == "" {
		return "", services.Wrap(services.ErrValidation, StageScript, "sanitize", "script empty after cleanup", nil)
	}
	words := textutil.CountWords(script)
	if words < MinScriptWords {
		logging.WarnWithContext(logger, "script shorter than target",
			"script_short",
			logging.Int("word_count", words),
			logging.Int("target_min", MinScriptWords),
			logging.String(logging.FieldImpact, "episode will run short"),
		)
	}
	logger.Debug("script complete",
		logging.String(logging.FieldEventType, "script_complete"),
		logging.Int("word_count", words),
	)
	return script, nil
}

// BuildScriptBrief renders the user prompt for a script request.
func BuildScriptBrief(req ScriptRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\n", strings.TrimSpace(req.Topic))
	if req.Episode != nil {
		if req.SeriesTitle != "" {
			fmt.Fprintf(&b, "Series: %s\n", req.SeriesTitle)
		}
		if req.EpisodeCount > 0 {
			fmt.Fprintf(&b, "Episode %d of %d: %s\n", req.Episode.Sequence, req.EpisodeCount, req.Episode.Title)
		} else {
			fmt.Fprintf(&b, "Episode: %s\n", req.Episode.Title)
		}
		if req.Episode.Focus != "" {
			fmt.Fprintf(&b, "Focus: %s\n", req.Episode.Focus)
		}
		if len(req.Episode.KeyPoints) > 0 {
			b.WriteString("Key points:\n")
			for _, point := range req.Episode.KeyPoints {
				fmt.Fprintf(&b, "- %s\n", point)
			}
		}
	}
	fmt.Fprintf(&b, "Depth: %s\n", depthGuidance(req.Depth))
	fmt.Fprintf(&b, "Tone: %s\n", toneGuidance(req.Tone))
	if notes := strings.TrimSpace(req.Notes); notes != "" {
		b.WriteString("\nResearch notes:\n")
		b.WriteString(notes)
		b.WriteString("\n")
	}
	return b.String()
}

func depthGuidance(depth podcast.Depth) string {
	switch depth {
	case podcast.DepthQuick:
		return "a quick overview for a newcomer"
	case podcast.DepthDeep:
		return "a detailed deep dive with specifics"
	default:
		return "a standard explainer"
	}
}

func toneGuidance(tone podcast.Tone) string {
	switch tone {
	case podcast.ToneEducational:
		return "educational and clear, like a good teacher"
	case podcast.ToneStorytelling:
		return "narrative storytelling with vivid moments"
	default:
		return "warm and conversational"
	}
}

// CapWords truncates text to at most limit words, cutting at the last
// sentence boundary that fits. Paragraph breaks are kept. A first sentence
// longer than limit is cut mid-sentence and closed with a period.
func CapWords(text string, limit int) string {
	text = strings.TrimSpace(text)
	if limit <= 0 || textutil.CountWords(text) <= limit {
		return text
	}
	var paragraphs []string
	count := 0
	for _, para := range paragraphBreak.Split(text, -1) {
		var kept []string
		full := false
		for _, sentence := range textutil.SplitSentences(para) {
			n := textutil.CountWords(sentence)
			if count+n > limit {
				full = true
				break
			}
			kept = append(kept, sentence)
			count += n
		}
		if len(kept) > 0 {
			paragraphs = append(paragraphs, strings.Join(kept, " "))
		}
		if full {
			break
		}
	}
	if len(paragraphs) == 0 {
		words := strings.Fields(text)[:limit]
		return strings.TrimRight(strings.Join(words, " "), ",;:") + "."
	}
	return strings.Join(paragraphs, "\n\n")
}
