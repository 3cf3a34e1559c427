package dialogue

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"episodic/internal/logging"
	"episodic/internal/podcast"
)

// DefaultMaxTurns bounds the clarification dialogue when no limit is configured.
const DefaultMaxTurns = 3

// Replanner regenerates a series outline from listener feedback.
type Replanner interface {
	RegeneratePlan(ctx context.Context, topic, feedback string) (podcast.SeriesOutline, error)
}

// Engine creates conversations sharing one backend and policy.
type Engine struct {
	backend    Backend
	replanner  Replanner
	classifier Classifier
	maxTurns   int
	now        func() time.Time
	newID      func() string
	logger     *slog.Logger
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClassifier replaces the keyword classifier.
func WithClassifier(c Classifier) Option {
	return func(e *Engine) {
		if c != nil {
			e.classifier = c
		}
	}
}

// WithMaxTurns sets the clarification turn limit. Values below 1 are ignored.
func WithMaxTurns(n int) Option {
	return func(e *Engine) {
		if n >= 1 {
			e.maxTurns = n
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logging.NewComponentLogger(logger, "dialogue")
	}
}

// WithClock overrides the message timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithIDGenerator overrides how conversation and message ids are minted.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) {
		if newID != nil {
			e.newID = newID
		}
	}
}

// NewEngine constructs an engine. replanner may be nil when plans are never
// modified.
func NewEngine(backend Backend, replanner Replanner, opts ...Option) *Engine {
	e := &Engine{
		backend:    backend,
		replanner:  replanner,
		classifier: KeywordClassifier{},
		maxTurns:   DefaultMaxTurns,
		now:        time.Now,
		newID:      uuid.NewString,
		logger:     logging.NewComponentLogger(nil, "dialogue"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaxTurns reports the clarification turn limit.
func (e *Engine) MaxTurns() int {
	return e.maxTurns
}

// NewConversation starts an empty conversation in PhaseClarifying.
func (e *Engine) NewConversation() *Conversation {
	return &Conversation{
		id:     e.newID(),
		engine: e,
		phase:  PhaseClarifying,
	}
}
