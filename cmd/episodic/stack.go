package main

import (
	"log/slog"

	"episodic/internal/config"
	"episodic/internal/dialogue"
	"episodic/internal/offline"
	"episodic/internal/pipeline"
	"episodic/internal/services/llm"
	"episodic/internal/services/openai"
	"episodic/internal/stages"
)

// stack is the assembled set of domain components used by commands.
type stack struct {
	engine   *dialogue.Engine
	pipeline *pipeline.Pipeline
	synth    stages.Synthesizer
	format   string

	// completer is nil in offline mode.
	completer llm.Completer
}

func buildStack(cfg *config.Config, logger *slog.Logger, offlineMode bool) *stack {
	if offlineMode {
		return buildOfflineStack(cfg, logger)
	}

	completer := newCompleter(cfg)
	speech := openai.NewSpeechClient(openai.SpeechConfig{
		APIKey:         cfg.Narration.APIKey,
		BaseURL:        cfg.Narration.BaseURL,
		Model:          cfg.Narration.Model,
		Format:         cfg.Narration.Format,
		TimeoutSeconds: cfg.Narration.TimeoutSeconds,
	})
	narrator := stages.NewSpeechNarrator(speech, cfg.Paths.AudioDir, speech.Format(), logger)
	pipe := pipeline.New(
		stages.NewLLMResearcher(completer, logger),
		stages.NewLLMScripter(completer, logger),
		narrator,
		stages.NewLLMPlanner(completer, logger),
		pipeline.WithLogger(logger),
		pipeline.WithSettleDelay(cfg.SettleDelay()),
	)
	engine := dialogue.NewEngine(
		dialogue.NewLLMBackend(completer, logger),
		pipe,
		dialogue.WithMaxTurns(cfg.Dialogue.MaxTurns),
		dialogue.WithLogger(logger),
	)
	return &stack{engine: engine, pipeline: pipe, synth: speech, format: speech.Format(), completer: completer}
}

func buildOfflineStack(cfg *config.Config, logger *slog.Logger) *stack {
	delay := cfg.OfflineDelay()
	synth := offline.NewSynthesizer(delay)
	narrator := stages.NewSpeechNarrator(synth, cfg.Paths.AudioDir, offline.AudioFormat, logger)
	pipe := pipeline.New(
		offline.NewResearcher(delay),
		offline.NewScripter(delay),
		narrator,
		offline.NewPlanner(delay),
		pipeline.WithLogger(logger),
		pipeline.WithSettleDelay(cfg.SettleDelay()),
	)
	engine := dialogue.NewEngine(
		offline.NewDialogueBackend(delay),
		pipe,
		dialogue.WithMaxTurns(cfg.Dialogue.MaxTurns),
		dialogue.WithLogger(logger),
	)
	return &stack{engine: engine, pipeline: pipe, synth: synth, format: offline.AudioFormat}
}

// newCompleter selects the text backend. OpenRouter goes through the raw
// HTTP client; OpenAI goes through the SDK.
func newCompleter(cfg *config.Config) llm.Completer {
	if cfg.LLM.Provider == config.ProviderOpenAI {
		return openai.NewChatClient(openai.ChatConfig{
			APIKey:         cfg.LLM.APIKey,
			BaseURL:        cfg.LLM.BaseURL,
			Model:          cfg.LLM.Model,
			Temperature:    cfg.LLM.Temperature,
			TimeoutSeconds: cfg.LLM.TimeoutSeconds,
		})
	}
	return llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		Referer:        cfg.LLM.Referer,
		Title:          cfg.LLM.Title,
		Temperature:    cfg.LLM.Temperature,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	})
}
