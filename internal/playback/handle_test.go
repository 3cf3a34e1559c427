package playback_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"episodic/internal/playback"
	"episodic/internal/services"
)

type stubSynth struct {
	texts []string
	err   error
}

func (s *stubSynth) Synthesize(_ context.Context, text, voice string) ([]byte, error) {
	s.texts = append(s.texts, voice+":"+text)
	if s.err != nil {
		return nil, s.err
	}
	return []byte("audio-" + voice), nil
}

func TestAcquireWritesSampleAndReleaseRemovesIt(t *testing.T) {
	dir := t.TempDir()
	synth := &stubSynth{}

	handle, err := playback.Acquire(context.Background(), synth, playback.Request{Dir: dir, Format: ".wav", Voice: "nova"})
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	path, err := handle.Path()
	if err != nil {
		t.Fatalf("Path failed: %v", err)
	}
	if filepath.Dir(path) != dir || !strings.HasSuffix(path, ".wav") || !strings.Contains(path, "preview-nova-") {
		t.Fatalf("unexpected preview path %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "audio-nova" {
		t.Fatalf("unexpected preview contents %q err=%v", data, err)
	}
	if len(synth.texts) != 1 || !strings.Contains(synth.texts[0], "Hi, this is Nova.") {
		t.Fatalf("expected sample text, got %v", synth.texts)
	}

	if err := handle.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if err := handle.Release(); err != nil {
		t.Fatalf("second Release failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected preview removed, stat err=%v", err)
	}
	if _, err := handle.Path(); !errors.Is(err, playback.ErrReleased) {
		t.Fatalf("expected ErrReleased, got %v", err)
	}
}

func TestHandlesAreIndependent(t *testing.T) {
	dir := t.TempDir()
	synth := &stubSynth{}
	first, err := playback.Acquire(context.Background(), synth, playback.Request{Dir: dir, Voice: "alloy"})
	if err != nil {
		t.Fatalf("Acquire first failed: %v", err)
	}
	second, err := playback.Acquire(context.Background(), synth, playback.Request{Dir: dir, Voice: "alloy", Text: "Custom line."})
	if err != nil {
		t.Fatalf("Acquire second failed: %v", err)
	}
	if first.ID() == second.ID() {
		t.Fatal("expected distinct handle ids")
	}
	if err := first.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	path, err := second.Path()
	if err != nil {
		t.Fatalf("second handle should survive release of the first: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("second preview missing: %v", err)
	}
	if synth.texts[1] != "alloy:Custom line." {
		t.Fatalf("expected custom text, got %q", synth.texts[1])
	}
	_ = second.Release()
}

func TestKeepDetachesFile(t *testing.T) {
	dir := t.TempDir()
	handle, err := playback.Acquire(context.Background(), &stubSynth{}, playback.Request{Dir: dir, Voice: "echo"})
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	dst := filepath.Join(dir, "kept", "echo.mp3")
	kept, err := handle.Keep(dst)
	if err != nil {
		t.Fatalf("Keep failed: %v", err)
	}
	if kept != dst {
		t.Fatalf("expected %q, got %q", dst, kept)
	}
	if err := handle.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if _, err := os.Stat(dst); err != nil {
		t.Fatalf("kept file should remain after release: %v", err)
	}
}

func TestAcquireErrors(t *testing.T) {
	ctx := context.Background()
	if _, err := playback.Acquire(ctx, nil, playback.Request{Dir: t.TempDir(), Voice: "alloy"}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if _, err := playback.Acquire(ctx, &stubSynth{}, playback.Request{Voice: "alloy"}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for missing dir, got %v", err)
	}
	if _, err := playback.Acquire(ctx, &stubSynth{}, playback.Request{Dir: t.TempDir()}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	boom := services.Wrap(services.ErrExternalTool, "narration", "synthesize", "backend down", nil)
	if _, err := playback.Acquire(ctx, &stubSynth{err: boom}, playback.Request{Dir: t.TempDir(), Voice: "alloy"}); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestNilHandleIsSafe(t *testing.T) {
	var h *playback.Handle
	if err := h.Release(); err != nil {
		t.Fatalf("nil Release returned %v", err)
	}
	if !h.Released() {
		t.Fatal("nil handle should report released")
	}
}
