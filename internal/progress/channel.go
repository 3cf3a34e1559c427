package progress

import (
	"log/slog"
	"sync"

	"episodic/internal/logging"
	"episodic/internal/podcast"
)

// maxInterim caps non-terminal fractions so only the done event reaches 1.0.
const maxInterim = 0.99

// Listener receives progress events in emission order.
type Listener interface {
	OnProgress(podcast.Progress)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(podcast.Progress)

// OnProgress calls f.
func (f ListenerFunc) OnProgress(p podcast.Progress) { f(p) }

// Channel fans progress events out to subscribers for one generation attempt.
// Emission is synchronous: Emit returns after every listener has seen the
// event. Fractions never decrease and exactly one terminal event is delivered.
type Channel struct {
	mu        sync.Mutex
	listeners map[int]Listener
	order     []int
	nextID    int

	emitMu   sync.Mutex
	last     float64
	finished bool
	events   int

	logger  *slog.Logger
	sampler *logging.ProgressSampler
}

// New constructs a channel. A nil logger disables progress logging.
func New(logger *slog.Logger) *Channel {
	return &Channel{
		listeners: make(map[int]Listener),
		logger:    logging.NewComponentLogger(logger, "progress"),
		sampler:   logging.NewProgressSampler(10),
	}
}

// Subscribe registers l and returns a function that removes it. The returned
// function is safe to call more than once and from within a listener.
func (c *Channel) Subscribe(l Listener) func() {
	if l == nil {
		return func() {}
	}
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = l
	c.order = append(c.order, id)
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { c.unsubscribe(id) })
	}
}

func (c *Channel) unsubscribe(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.listeners, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Emit normalizes p and delivers it. Events after the terminal event are
// dropped. It reports whether the event was delivered.
func (c *Channel) Emit(p podcast.Progress) bool {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	if c.finished {
		return false
	}
	switch {
	case p.Stage == podcast.StageDone:
		p.Fraction = 1
	case p.Fraction > maxInterim:
		p.Fraction = maxInterim
	}
	if p.Fraction < c.last {
		p.Fraction = c.last
	}
	c.last = p.Fraction
	c.events++
	if p.Stage.Terminal() {
		c.finished = true
	}

	if c.sampler.ShouldLog(p.Fraction, string(p.Stage), p.EpisodeNumber) {
		c.logger.Debug("generation progress",
			logging.String(logging.FieldStage, string(p.Stage)),
			logging.Float64("fraction", p.Fraction),
			logging.String("message", p.Message),
			logging.Int(logging.FieldEpisodeNumber, p.EpisodeNumber),
			logging.Int(logging.FieldEpisodeCount, p.TotalEpisodes),
		)
	}

	for _, l := range c.snapshot() {
		l.OnProgress(p)
	}
	return true
}

// Finished reports whether a terminal event has been delivered.
func (c *Channel) Finished() bool {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()
	return c.finished
}

// Last returns the most recent delivered fraction.
func (c *Channel) Last() float64 {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()
	return c.last
}

func (c *Channel) snapshot() []Listener {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Listener, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.listeners[id])
	}
	return out
}

// Recorder is a Listener that keeps every event, for tests and replay.
type Recorder struct {
	mu     sync.Mutex
	events []podcast.Progress
}

// OnProgress records p.
func (r *Recorder) OnProgress(p podcast.Progress) {
	r.mu.Lock()
	r.events = append(r.events, p)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []podcast.Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]podcast.Progress(nil), r.events...)
}
