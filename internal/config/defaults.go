package config

const (
	defaultConfigPath           = "~/.config/episodic/config.toml"
	defaultDataDir              = "~/.local/share/episodic"
	defaultAudioDir             = "~/.local/share/episodic/audio"
	defaultLogDir               = "~/.local/share/episodic/logs"
	defaultLLMProvider          = ProviderOpenRouter
	defaultOpenRouterBaseURL    = "https://openrouter.ai/api/v1/chat/completions"
	defaultOpenAIBaseURL        = "https://api.openai.com/v1"
	defaultLLMModel             = "google/gemini-3-flash-preview"
	defaultOpenAIModel          = "gpt-4o-mini"
	defaultLLMReferer           = "https://github.com/episodic/episodic"
	defaultLLMTitle             = "Episodic"
	defaultLLMTemperature       = 0.7
	defaultLLMTimeoutSeconds    = 60
	defaultNarrationModel       = "tts-1"
	defaultNarrationVoice       = "alloy"
	defaultNarrationFormat      = "mp3"
	defaultNarrationTimeout     = 120
	defaultMaxTurns             = 3
	defaultOfflineDelayMillis   = 300
	defaultNotifyRequestTimeout = 10
	defaultAPIBind              = "127.0.0.1:7488"
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Supported text-generation providers.
const (
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:  defaultDataDir,
			AudioDir: defaultAudioDir,
			LogDir:   defaultLogDir,
		},
		LLM: LLM{
			Provider:       defaultLLMProvider,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			Temperature:    defaultLLMTemperature,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Narration: Narration{
			Model:          defaultNarrationModel,
			Voice:          defaultNarrationVoice,
			Format:         defaultNarrationFormat,
			TimeoutSeconds: defaultNarrationTimeout,
		},
		Dialogue: Dialogue{
			MaxTurns: defaultMaxTurns,
		},
		Pipeline: Pipeline{
			OfflineDelayMillis: defaultOfflineDelayMillis,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Completed:      true,
			Errors:         true,
		},
		API: API{
			Bind: defaultAPIBind,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
