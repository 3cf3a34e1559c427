package config

import (
	"errors"
	"fmt"
	"strings"
)

const maxDialogueTurns = 10

var narrationVoices = map[string]struct{}{
	"alloy": {}, "ash": {}, "ballad": {}, "coral": {}, "echo": {},
	"fable": {}, "nova": {}, "onyx": {}, "sage": {}, "shimmer": {}, "verse": {},
}

// Validate ensures the configuration is usable. Missing service credentials are
// not reported here; they surface as configuration errors from the stage that
// needs them so offline runs and partial setups still load.
func (c *Config) Validate() error {
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateNarration(); err != nil {
		return err
	}
	if err := c.validateDialogue(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := ensurePositiveMap(map[string]int{
		"llm.timeout_seconds":           c.LLM.TimeoutSeconds,
		"narration.timeout_seconds":     c.Narration.TimeoutSeconds,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	}); err != nil {
		return err
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	return nil
}

func (c *Config) validateLLM() error {
	switch c.LLM.Provider {
	case ProviderOpenRouter, ProviderOpenAI:
	default:
		return fmt.Errorf("llm.provider must be %q or %q, got %q", ProviderOpenRouter, ProviderOpenAI, c.LLM.Provider)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return errors.New("llm.temperature must be between 0 and 2")
	}
	return nil
}

func (c *Config) validateNarration() error {
	if !IsKnownVoice(c.Narration.Voice) {
		return fmt.Errorf("narration.voice %q is not a supported voice", c.Narration.Voice)
	}
	switch c.Narration.Format {
	case "mp3", "opus", "aac", "flac", "wav":
	default:
		return fmt.Errorf("narration.format %q is not supported", c.Narration.Format)
	}
	return nil
}

func (c *Config) validateDialogue() error {
	if c.Dialogue.MaxTurns < 1 || c.Dialogue.MaxTurns > maxDialogueTurns {
		return fmt.Errorf("dialogue.max_turns must be between 1 and %d", maxDialogueTurns)
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.SettleDelayMillis < 0 {
		return errors.New("pipeline.settle_delay_ms must be >= 0")
	}
	if c.Pipeline.OfflineDelayMillis < 0 {
		return errors.New("pipeline.offline_delay_ms must be >= 0")
	}
	return nil
}

// IsKnownVoice reports whether voice is one of the supported narration voices.
func IsKnownVoice(voice string) bool {
	_, ok := narrationVoices[strings.ToLower(strings.TrimSpace(voice))]
	return ok
}

// Voices lists the supported narration voices in alphabetical order.
func Voices() []string {
	return []string{"alloy", "ash", "ballad", "coral", "echo", "fable", "nova", "onyx", "sage", "shimmer", "verse"}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
