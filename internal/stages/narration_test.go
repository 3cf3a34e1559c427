package stages

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"episodic/internal/services"
)

func TestEstimateDuration(t *testing.T) {
	assert.Equal(t, 0, EstimateDuration("   "))
	assert.Equal(t, 60, EstimateDuration(strings.Repeat("word ", 150)))
	assert.Equal(t, 61, EstimateDuration(strings.Repeat("word ", 151)))
	assert.Equal(t, 1, EstimateDuration("hello"))
}

func TestSentenceTimingsProportionalToWords(t *testing.T) {
	timings := SentenceTimings("One two. Three four five six.", 6)
	require.Len(t, timings, 2)
	assert.Equal(t, "One two.", timings[0].Text)
	assert.InDelta(t, 0, timings[0].StartSeconds, 1e-9)
	assert.InDelta(t, 2, timings[0].EndSeconds, 1e-9)
	assert.InDelta(t, 2, timings[1].StartSeconds, 1e-9)
	assert.InDelta(t, 6, timings[1].EndSeconds, 1e-9)

	assert.Nil(t, SentenceTimings("", 10))
	assert.Nil(t, SentenceTimings("Words here.", 0))
}

func TestSpeechNarratorWritesAudio(t *testing.T) {
	dir := t.TempDir()
	synth := &fakeSynth{audio: []byte("ID3audio")}
	n := NewSpeechNarrator(synth, dir, ".opus", nil)

	script := "Quantum bits are strange. They are also useful."
	got, err := n.Narrate(context.Background(), script, "nova", "series-1-ep2")
	require.NoError(t, err)

	want := filepath.Join(dir, "series-1-ep2.opus")
	assert.Equal(t, want, got.AudioRef)
	assert.Equal(t, EstimateDuration(script), got.DurationSeconds)
	assert.Len(t, got.Timings, 2)
	assert.Equal(t, "nova", synth.voice)
	data, err := os.ReadFile(want)
	require.NoError(t, err)
	assert.Equal(t, "ID3audio", string(data))
}

func TestSpeechNarratorMissingSynthIsConfigurationError(t *testing.T) {
	n := NewSpeechNarrator(nil, t.TempDir(), "mp3", nil)
	_, err := n.Narrate(context.Background(), "text", "alloy", "gen")
	require.ErrorIs(t, err, services.ErrConfiguration)
	assert.Equal(t, services.KindConfiguration, services.Classify(err))
}

func TestSpeechNarratorSurfacesBackendClasses(t *testing.T) {
	cases := map[string]struct {
		err  error
		kind services.Kind
	}{
		"not configured": {services.Wrap(services.ErrConfiguration, "narration", "synthesize", "speech api key missing", nil), services.KindConfiguration},
		"request failed": {services.Wrap(services.ErrExternalTool, "narration", "synthesize", "request failed", nil), services.KindBackend},
		"timeout":        {context.DeadlineExceeded, services.KindTimeout},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			n := NewSpeechNarrator(&fakeSynth{err: tc.err}, dir, "mp3", nil)
			_, err := n.Narrate(context.Background(), "text", "alloy", "gen")
			require.Error(t, err)
			assert.Equal(t, tc.kind, services.Classify(err))
			assert.Equal(t, StageNarration, services.Details(err).Stage)
			entries, readErr := os.ReadDir(dir)
			require.NoError(t, readErr)
			assert.Empty(t, entries)
		})
	}
}
