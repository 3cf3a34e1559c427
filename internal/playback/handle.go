package playback

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"episodic/internal/fileutil"
	"episodic/internal/services"
	"episodic/internal/textutil"
)

// ErrReleased reports use of a handle after Release.
var ErrReleased = errors.New("playback handle released")

// Synthesizer renders text as encoded audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// Request describes the audio to render for a handle.
type Request struct {
	Dir    string
	Format string
	Voice  string
	Text   string
}

// Handle owns one rendered audio file until Release is called.
type Handle struct {
	id    string
	voice string
	path  string

	mu       sync.Mutex
	released bool
}

// SampleText is the sentence read aloud when previewing voice.
func SampleText(voice string) string {
	name := textutil.TitleCase(strings.TrimSpace(voice))
	if name == "" {
		name = "Your narrator"
	}
	return fmt.Sprintf("Hi, this is %s. This is how your podcast will sound.", name)
}

// Acquire synthesizes req.Text (or the voice sample when empty) and writes it
// into req.Dir. The caller owns the returned handle and must Release it.
func Acquire(ctx context.Context, synth Synthesizer, req Request) (*Handle, error) {
	if synth == nil {
		return nil, services.Wrap(services.ErrConfiguration, "playback", "acquire", "speech synthesizer not configured", nil)
	}
	if strings.TrimSpace(req.Dir) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "playback", "acquire", "preview directory not configured", nil)
	}
	voice := strings.TrimSpace(req.Voice)
	if voice == "" {
		return nil, services.Wrap(services.ErrValidation, "playback", "acquire", "voice is required", nil)
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		text = SampleText(voice)
	}
	format := strings.TrimPrefix(strings.TrimSpace(req.Format), ".")
	if format == "" {
		format = "mp3"
	}

	audio, err := synth.Synthesize(ctx, text, voice)
	if err != nil {
		return nil, err
	}
	id := uuid.NewString()
	path := filepath.Join(req.Dir, fmt.Sprintf("preview-%s-%s.%s", textutil.Slug(voice), id, format))
	if err := fileutil.WriteFileAtomic(path, audio, 0o644); err != nil {
		return nil, fmt.Errorf("write preview: %w", err)
	}
	return &Handle{id: id, voice: voice, path: path}, nil
}

// ID identifies the handle.
func (h *Handle) ID() string {
	if h == nil {
		return ""
	}
	return h.id
}

// Voice returns the voice the audio was rendered with.
func (h *Handle) Voice() string {
	if h == nil {
		return ""
	}
	return h.voice
}

// Path returns the audio file location while the handle is held.
func (h *Handle) Path() (string, error) {
	if h == nil {
		return "", ErrReleased
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return "", ErrReleased
	}
	return h.path, nil
}

// Released reports whether Release has been called.
func (h *Handle) Released() bool {
	if h == nil {
		return true
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}

// Release removes the audio file. It is safe to call more than once.
func (h *Handle) Release() error {
	if h == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return nil
	}
	h.released = true
	if err := os.Remove(h.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove preview: %w", err)
	}
	return nil
}

// Keep detaches the audio file from the handle so Release leaves it on disk,
// returning its final location.
func (h *Handle) Keep(dst string) (string, error) {
	if h == nil {
		return "", ErrReleased
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return "", ErrReleased
	}
	if strings.TrimSpace(dst) == "" || dst == h.path {
		h.released = true
		return h.path, nil
	}
	if err := fileutil.CopyFileVerified(h.path, dst); err != nil {
		return "", err
	}
	h.released = true
	_ = os.Remove(h.path)
	return dst, nil
}
