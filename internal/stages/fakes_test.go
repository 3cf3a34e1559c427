package stages

import (
	"context"
	"sync"

	"episodic/internal/services/llm"
)

type fakeCompleter struct {
	mu       sync.Mutex
	replies  []string
	err      error
	requests []llm.Request
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "", nil
	}
	reply := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return reply, nil
}

func (f *fakeCompleter) lastUserContent() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return ""
	}
	msgs := f.requests[len(f.requests)-1].Messages
	return msgs[len(msgs)-1].Content
}

type fakeSynth struct {
	audio []byte
	err   error
	calls int
	voice string
}

func (f *fakeSynth) Synthesize(_ context.Context, _ string, voice string) ([]byte, error) {
	f.calls++
	f.voice = voice
	if f.err != nil {
		return nil, f.err
	}
	return f.audio, nil
}
