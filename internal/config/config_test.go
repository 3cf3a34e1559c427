package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"episodic/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"OPENROUTER_API_KEY", "OPENAI_API_KEY", "EPISODIC_NTFY_TOPIC", "EPISODIC_API_TOKEN"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	clearEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "episodic")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.AudioDir != filepath.Join(wantData, "audio") {
		t.Fatalf("unexpected audio dir: %q", cfg.Paths.AudioDir)
	}
	if cfg.LibraryPath() != filepath.Join(wantData, "library.db") {
		t.Fatalf("unexpected library path: %q", cfg.LibraryPath())
	}
	if cfg.Dialogue.MaxTurns != 3 {
		t.Fatalf("expected default max turns 3, got %d", cfg.Dialogue.MaxTurns)
	}
	if cfg.LLM.Provider != config.ProviderOpenRouter {
		t.Fatalf("unexpected provider %q", cfg.LLM.Provider)
	}
	if cfg.LLM.APIKey != "" {
		t.Fatalf("expected empty llm key, got %q", cfg.LLM.APIKey)
	}
	if cfg.Narration.Voice != "alloy" {
		t.Fatalf("unexpected voice %q", cfg.Narration.Voice)
	}
	if cfg.API.Bind != "127.0.0.1:7488" {
		t.Fatalf("unexpected api bind: %q", cfg.API.Bind)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.AudioDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	clearEnv(t)
	tempDir := t.TempDir()
	t.Setenv("HOME", tempDir)
	configPath := filepath.Join(tempDir, "episodic.toml")

	type payload struct {
		LLM struct {
			Provider string `toml:"provider"`
			APIKey   string `toml:"api_key"`
		} `toml:"llm"`
		Dialogue struct {
			MaxTurns int `toml:"max_turns"`
		} `toml:"dialogue"`
		Paths struct {
			DataDir string `toml:"data_dir"`
		} `toml:"paths"`
	}
	custom := payload{}
	custom.LLM.Provider = "OpenAI"
	custom.LLM.APIKey = "sk-test"
	custom.Dialogue.MaxTurns = 5
	custom.Paths.DataDir = "~/podcasts"

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("unexpected resolution: %q exists=%v", resolved, exists)
	}
	if cfg.LLM.Provider != config.ProviderOpenAI {
		t.Fatalf("expected provider to be lowercased, got %q", cfg.LLM.Provider)
	}
	if cfg.LLM.Model != "gpt-4o-mini" {
		t.Fatalf("expected openai default model, got %q", cfg.LLM.Model)
	}
	if cfg.Dialogue.MaxTurns != 5 {
		t.Fatalf("expected max turns 5, got %d", cfg.Dialogue.MaxTurns)
	}
	if cfg.Paths.DataDir != filepath.Join(tempDir, "podcasts") {
		t.Fatalf("unexpected data dir %q", cfg.Paths.DataDir)
	}
	if cfg.Paths.AudioDir != filepath.Join(tempDir, "podcasts", "audio") {
		t.Fatalf("audio dir should follow data dir, got %q", cfg.Paths.AudioDir)
	}
}

func TestLoadEnvFallbacks(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	t.Setenv("OPENROUTER_API_KEY", "or-key")
	t.Setenv("OPENAI_API_KEY", "oa-key")
	t.Setenv("EPISODIC_NTFY_TOPIC", " https://ntfy.sh/test ")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LLM.APIKey != "or-key" {
		t.Fatalf("expected openrouter key, got %q", cfg.LLM.APIKey)
	}
	if cfg.Narration.APIKey != "oa-key" {
		t.Fatalf("expected openai key for narration, got %q", cfg.Narration.APIKey)
	}
	if cfg.Notifications.NtfyTopic != "https://ntfy.sh/test" {
		t.Fatalf("unexpected ntfy topic %q", cfg.Notifications.NtfyTopic)
	}
}

func TestLoadDotEnvFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	workdir := t.TempDir()
	t.Chdir(workdir)
	if err := os.WriteFile(filepath.Join(workdir, ".env"), []byte("OPENAI_API_KEY=from-dotenv\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("OPENAI_API_KEY") })

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Narration.APIKey != "from-dotenv" {
		t.Fatalf("expected key from .env, got %q", cfg.Narration.APIKey)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"max turns", func(c *config.Config) { c.Dialogue.MaxTurns = 42 }, "dialogue.max_turns"},
		{"provider", func(c *config.Config) { c.LLM.Provider = "carrier-pigeon" }, "llm.provider"},
		{"voice", func(c *config.Config) { c.Narration.Voice = "robot" }, "narration.voice"},
		{"settle", func(c *config.Config) { c.Pipeline.SettleDelayMillis = -1 }, "pipeline.settle_delay_ms"},
		{"timeout", func(c *config.Config) { c.LLM.TimeoutSeconds = 0 }, "llm.timeout_seconds"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in %v", tc.want, err)
			}
		})
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	path := filepath.Join(dir, "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
}

func TestEncodeMasksSecrets(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.APIKey = "sk-abcdefgh1234"
	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if strings.Contains(string(data), "abcdefgh") {
		t.Fatalf("expected secret masked, got %s", data)
	}
	if !strings.Contains(string(data), "****1234") {
		t.Fatalf("expected masked suffix, got %s", data)
	}
}
