package stages

import (
	"context"
	"log/slog"
	"math"
	"path/filepath"
	"strings"

	"episodic/internal/fileutil"
	"episodic/internal/logging"
	"episodic/internal/services"
	"episodic/internal/textutil"
)

// WordsPerMinute is the assumed speaking rate used for duration estimates.
const WordsPerMinute = 150

// SpeechNarrator synthesizes narration and stores it under an audio directory.
type SpeechNarrator struct {
	synth    Synthesizer
	audioDir string
	format   string
	logger   *slog.Logger
}

// NewSpeechNarrator constructs a narrator writing <audioDir>/<generationID>.<format>.
func NewSpeechNarrator(synth Synthesizer, audioDir, format string, logger *slog.Logger) *SpeechNarrator {
	format = strings.TrimPrefix(strings.TrimSpace(format), ".")
	if format == "" {
		format = "mp3"
	}
	return &SpeechNarrator{
		synth:    synth,
		audioDir: strings.TrimSpace(audioDir),
		format:   format,
		logger:   logging.NewComponentLogger(logger, "narration"),
	}
}

// Narrate renders script with voice. The returned audio ref is the file path.
func (n *SpeechNarrator) Narrate(ctx context.Context, script, voice, generationID string) (Narration, error) {
	if n.synth == nil || n.audioDir == "" {
		return Narration{}, services.Wrap(services.ErrConfiguration, StageNarration, "narrate", "speech synthesis not configured", nil)
	}
	generationID = strings.TrimSpace(generationID)
	if generationID == "" {
		return Narration{}, services.Wrap(services.ErrValidation, StageNarration, "narrate", "generation id required", nil)
	}
	logger := logging.WithContext(ctx, n.logger)
	audio, err := n.synth.Synthesize(ctx, script, voice)
	if err != nil {
		return Narration{}, wrapStage(StageNarration, "synthesize", "speech synthesis failed", err)
	}
	path := filepath.Join(n.audioDir, textutil.Slug(generationID)+"."+n.format)
	if err := fileutil.WriteFileAtomic(path, audio, 0o644); err != nil {
		return Narration{}, services.Wrap(services.ErrExternalTool, StageNarration, "store audio", "write audio file", err)
	}
	duration := EstimateDuration(script)
	logger.Info("narration stored",
		logging.String(logging.FieldEventType, "narration_complete"),
		logging.String("audio_path", path),
		logging.Int("audio_bytes", len(audio)),
		logging.Int("duration_seconds", duration),
	)
	return Narration{
		AudioRef:        path,
		DurationSeconds: duration,
		Timings:         SentenceTimings(script, duration),
	}, nil
}

// EstimateDuration returns the spoken length of text in whole seconds at
// WordsPerMinute, rounded up. Empty text has zero duration.
func EstimateDuration(text string) int {
	words := textutil.CountWords(text)
	if words == 0 {
		return 0
	}
	return int(math.Ceil(float64(words) * 60 / WordsPerMinute))
}

// SentenceTimings splits durationSeconds across the sentences of text in
// proportion to their word counts.
func SentenceTimings(text string, durationSeconds int) []SentenceTiming {
	sentences := textutil.SplitSentences(text)
	total := 0
	for _, s := range sentences {
		total += textutil.CountWords(s)
	}
	if total == 0 || durationSeconds <= 0 {
		return nil
	}
	perWord := float64(durationSeconds) / float64(total)
	timings := make([]SentenceTiming, 0, len(sentences))
	var start float64
	words := 0
	for i, s := range sentences {
		words += textutil.CountWords(s)
		end := float64(words) * perWord
		if i == len(sentences)-1 {
			end = float64(durationSeconds)
		}
		timings = append(timings, SentenceTiming{Index: i, Text: s, StartSeconds: start, EndSeconds: end})
		start = end
	}
	return timings
}
