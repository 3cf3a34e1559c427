package dialogue

import (
	"strings"

	"episodic/internal/podcast"
)

// Inference holds the preferences detected in one user reply. Empty fields
// mean nothing was detected.
type Inference struct {
	Format      podcast.Format
	Depth       podcast.Depth
	Tone        podcast.Tone
	Specificity podcast.Specificity
}

// Classifier infers preferences from free-text replies.
type Classifier interface {
	Classify(text string) Inference
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(string) Inference

// Classify calls f.
func (f ClassifierFunc) Classify(text string) Inference { return f(text) }

// Field defaults applied when no reply mentioned a preference.
const (
	DefaultFormat      = podcast.FormatSingle
	DefaultDepth       = podcast.DepthStandard
	DefaultTone        = podcast.ToneConversational
	DefaultSpecificity = podcast.SpecificityBroad
)

type rule[T any] struct {
	keywords []string
	value    T
}

var (
	formatRules = []rule[podcast.Format]{
		{[]string{"single", "one episode"}, podcast.FormatSingle},
		{[]string{"series", "multi", "multiple", "parts"}, podcast.FormatSeries},
	}
	depthRules = []rule[podcast.Depth]{
		{[]string{"quick", "brief", "short"}, podcast.DepthQuick},
		{[]string{"deep", "detailed", "in-depth", "thorough"}, podcast.DepthDeep},
		{[]string{"standard"}, podcast.DepthStandard},
	}
	toneRules = []rule[podcast.Tone]{
		{[]string{"conversational", "casual"}, podcast.ToneConversational},
		{[]string{"educational", "teach", "learn"}, podcast.ToneEducational},
		{[]string{"story"}, podcast.ToneStorytelling},
	}
	specificityRules = []rule[podcast.Specificity]{
		{[]string{"specific", "focus", "particular"}, podcast.SpecificitySpecific},
		{[]string{"broad", "overview", "general"}, podcast.SpecificityBroad},
	}
)

// KeywordClassifier matches lower-cased replies against fixed ordered keyword
// lists. The first matching rule wins for each field.
type KeywordClassifier struct{}

// Classify implements Classifier.
func (KeywordClassifier) Classify(text string) Inference {
	lowered := strings.ToLower(text)
	return Inference{
		Format:      firstMatch(lowered, formatRules),
		Depth:       firstMatch(lowered, depthRules),
		Tone:        firstMatch(lowered, toneRules),
		Specificity: firstMatch(lowered, specificityRules),
	}
}

func firstMatch[T any](text string, rules []rule[T]) T {
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(text, kw) {
				return r.value
			}
		}
	}
	var zero T
	return zero
}

// merge copies detected fields onto ctx.
func (in Inference) merge(ctx *Context) {
	if in.Format != "" {
		ctx.Format = in.Format
	}
	if in.Depth != "" {
		ctx.Depth = in.Depth
	}
	if in.Tone != "" {
		ctx.Tone = in.Tone
	}
	if in.Specificity != "" {
		ctx.Specificity = in.Specificity
	}
}
