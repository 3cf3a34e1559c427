package dialogue

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"episodic/internal/podcast"
)

func TestKeywordClassifier(t *testing.T) {
	tests := []struct {
		reply string
		want  Inference
	}{
		{"Single episode", Inference{Format: podcast.FormatSingle}},
		{"Multi-part series", Inference{Format: podcast.FormatSeries}},
		{"just one episode please", Inference{Format: podcast.FormatSingle}},
		{"a quick overview", Inference{Depth: podcast.DepthQuick, Specificity: podcast.SpecificityBroad}},
		{"Go in-depth, I want to learn", Inference{Depth: podcast.DepthDeep, Tone: podcast.ToneEducational}},
		{"tell it as a story", Inference{Tone: podcast.ToneStorytelling}},
		{"casual and detailed", Inference{Depth: podcast.DepthDeep, Tone: podcast.ToneConversational}},
		{"a particular angle", Inference{Specificity: podcast.SpecificitySpecific}},
		{"¯\\_(ツ)_/¯", Inference{}},
		{"", Inference{}},
	}
	for _, tt := range tests {
		t.Run(tt.reply, func(t *testing.T) {
			assert.Equal(t, tt.want, KeywordClassifier{}.Classify(tt.reply))
		})
	}
}

func TestClassifierFirstMatchWins(t *testing.T) {
	got := KeywordClassifier{}.Classify("a single series")
	assert.Equal(t, podcast.FormatSingle, got.Format)
	got = KeywordClassifier{}.Classify("short but thorough")
	assert.Equal(t, podcast.DepthQuick, got.Depth)
}

func TestInferenceMergeKeepsExistingFields(t *testing.T) {
	ctx := Context{Depth: podcast.DepthDeep, Tone: podcast.ToneEducational}
	Inference{Format: podcast.FormatSeries}.merge(&ctx)
	assert.Equal(t, podcast.DepthDeep, ctx.Depth)
	assert.Equal(t, podcast.ToneEducational, ctx.Tone)
	assert.Equal(t, podcast.FormatSeries, ctx.Format)
}

func TestCustomClassifierIsUsed(t *testing.T) {
	classifier := ClassifierFunc(func(string) Inference { return Inference{Tone: podcast.ToneStorytelling} })
	conv := newTestEngine(scripted(Reply{Content: "ok"}), nil, WithClassifier(classifier)).NewConversation()
	_, err := conv.Start(t.Context(), "Jazz")
	assert.NoError(t, err)
	_, err = conv.Reply(t.Context(), "whatever")
	assert.NoError(t, err)
	assert.Equal(t, podcast.ToneStorytelling, conv.State().Context.Tone)
}
