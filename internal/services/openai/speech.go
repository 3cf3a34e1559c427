package openai

import (
	"bytes"
	"context"
	"io"
	"strings"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"episodic/internal/services"
)

const (
	speechStage = "narration"
	// maxSpeechInput is the provider's per-request input limit in characters.
	maxSpeechInput = 4096
)

// SpeechConfig captures the settings for SpeechClient.
type SpeechConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Format         string
	TimeoutSeconds int
	MaxRetries     int
}

// SpeechClient synthesizes narration with the audio speech API.
type SpeechClient struct {
	cfg    SpeechConfig
	client openaisdk.Client
}

// NewSpeechClient constructs a speech client. A missing key is reported on first use.
func NewSpeechClient(cfg SpeechConfig, opts ...option.RequestOption) *SpeechClient {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = string(openaisdk.SpeechModelTTS1)
	}
	if strings.TrimSpace(cfg.Format) == "" {
		cfg.Format = string(openaisdk.AudioSpeechNewParamsResponseFormatMP3)
	}
	return &SpeechClient{cfg: cfg, client: openaisdk.NewClient(requestOptions(cfg.APIKey, cfg.BaseURL, cfg.TimeoutSeconds, cfg.MaxRetries, opts)...)}
}

// Format returns the audio container produced by Synthesize.
func (c *SpeechClient) Format() string {
	return c.cfg.Format
}

// Synthesize renders text with voice and returns the encoded audio. Inputs
// longer than the provider limit are split on sentence boundaries and the
// resulting segments concatenated.
func (c *SpeechClient) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	if c.cfg.APIKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, speechStage, "synthesize", "speech api key missing", nil)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, services.Wrap(services.ErrValidation, speechStage, "synthesize", "narration text empty", nil)
	}
	var audio bytes.Buffer
	for _, chunk := range splitInput(text, maxSpeechInput) {
		resp, err := c.client.Audio.Speech.New(ctx, openaisdk.AudioSpeechNewParams{
			Input:          chunk,
			Model:          openaisdk.SpeechModel(c.cfg.Model),
			Voice:          openaisdk.AudioSpeechNewParamsVoice(voice),
			ResponseFormat: openaisdk.AudioSpeechNewParamsResponseFormat(c.cfg.Format),
		})
		if err != nil {
			return nil, classifyError(speechStage, "synthesize", err)
		}
		_, err = io.Copy(&audio, resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, classifyError(speechStage, "read audio", err)
		}
	}
	if audio.Len() == 0 {
		return nil, services.Wrap(services.ErrExternalTool, speechStage, "synthesize", "empty audio response", nil)
	}
	return audio.Bytes(), nil
}

// splitInput breaks text into pieces no longer than limit bytes, preferring
// sentence ends and falling back to word boundaries.
func splitInput(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}
	var chunks []string
	for len(text) > limit {
		cut := strings.LastIndexAny(text[:limit], ".!?")
		if cut <= 0 {
			cut = strings.LastIndex(text[:limit], " ")
		}
		if cut <= 0 {
			cut = limit - 1
		}
		chunks = append(chunks, strings.TrimSpace(text[:cut+1]))
		text = strings.TrimSpace(text[cut+1:])
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}
