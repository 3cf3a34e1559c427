package pipeline

import "sync"

// CancelToken signals a running generation to stop before its next stage.
// The zero value is ready to use; a nil token is never cancelled.
type CancelToken struct {
	once sync.Once
	mu   sync.Mutex
	done chan struct{}
}

// NewCancelToken returns a fresh token.
func NewCancelToken() *CancelToken {
	return &CancelToken{}
}

func (t *CancelToken) channel() chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done == nil {
		t.done = make(chan struct{})
	}
	return t.done
}

// Cancel requests cancellation. Calling it more than once is harmless.
func (t *CancelToken) Cancel() {
	if t == nil {
		return
	}
	ch := t.channel()
	t.once.Do(func() { close(ch) })
}

// Done is closed once Cancel has been called.
func (t *CancelToken) Done() <-chan struct{} {
	if t == nil {
		return nil
	}
	return t.channel()
}

// Cancelled reports whether Cancel has been called.
func (t *CancelToken) Cancelled() bool {
	if t == nil {
		return false
	}
	select {
	case <-t.channel():
		return true
	default:
		return false
	}
}
