package preflight

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"episodic/internal/config"
	"episodic/internal/services/llm"
	"episodic/internal/testsupport"
)

type stubCompleter struct {
	calls int
	err   error
}

func (s *stubCompleter) Complete(context.Context, llm.Request) (string, error) {
	s.calls++
	return "OK", s.err
}

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckTextBackend_MissingKey(t *testing.T) {
	stub := &stubCompleter{}
	result := CheckTextBackend(context.Background(), config.LLM{Provider: "openrouter"}, stub)
	if result.Passed {
		t.Fatal("expected failure without api key")
	}
	if stub.calls != 0 {
		t.Fatal("backend must not be called without a key")
	}
}

func TestCheckTextBackend_CompleterPing(t *testing.T) {
	cfg := config.LLM{Provider: "openai", APIKey: "k", Model: "gpt-4o-mini"}
	stub := &stubCompleter{}
	if result := CheckTextBackend(context.Background(), cfg, stub); !result.Passed {
		t.Fatalf("expected pass, got %s", result.Detail)
	}
	if stub.calls != 1 {
		t.Fatalf("expected one ping, got %d", stub.calls)
	}

	stub.err = errors.New("boom")
	if result := CheckTextBackend(context.Background(), cfg, stub); result.Passed || result.Detail != "boom" {
		t.Fatalf("expected failure with detail, got %+v", result)
	}
}

func TestCheckTextBackend_UsesHealthCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"ok\":true}"}}]}`))
	}))
	defer srv.Close()

	cfg := config.LLM{Provider: "openrouter", APIKey: "k", BaseURL: srv.URL, Model: "demo"}
	client := llm.NewClient(llm.Config{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL, Model: cfg.Model}, llm.WithRetryMaxAttempts(1))
	if result := CheckTextBackend(context.Background(), cfg, client); !result.Passed {
		t.Fatalf("expected pass, got %s", result.Detail)
	}
}

func TestCheckNotifications(t *testing.T) {
	if r := CheckNotifications(config.Notifications{}); !r.Skipped {
		t.Fatalf("expected skipped without topic, got %+v", r)
	}
	if r := CheckNotifications(config.Notifications{NtfyTopic: "my-topic"}); r.Passed {
		t.Fatal("expected failure for non-URL topic")
	}
	if r := CheckNotifications(config.Notifications{NtfyTopic: "https://ntfy.sh/x"}); !r.Passed {
		t.Fatalf("expected pass, got %+v", r)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil, Options{}); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_OfflineSkipsRemoteChecks(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDirectories())

	results := RunAll(context.Background(), cfg, Options{Offline: true})
	if len(results) != 6 {
		t.Fatalf("expected 6 results, got %d", len(results))
	}
	if Failed(results) {
		t.Fatalf("offline run should not fail: %+v", results)
	}
}

func TestRunAll_OnlineReportsMissingKeys(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDirectories(), testsupport.WithOnlineKeys(""))

	results := RunAll(context.Background(), cfg, Options{})
	if !Failed(results) {
		t.Fatalf("expected missing keys to fail: %+v", results)
	}
}
