package api

import (
	"sync"
	"time"

	"episodic/internal/pipeline"
	"episodic/internal/podcast"
	"episodic/internal/services"
)

// GenerationState is the lifecycle of one generation attempt.
type GenerationState string

const (
	GenerationRunning   GenerationState = "running"
	GenerationCompleted GenerationState = "completed"
	GenerationFailed    GenerationState = "failed"
	GenerationCancelled GenerationState = "cancelled"
)

// GenerationStatus is the JSON view of a generation attempt.
type GenerationStatus struct {
	ID             string                   `json:"id"`
	ConversationID string                   `json:"conversation_id"`
	State          GenerationState          `json:"state"`
	Params         podcast.GenerationParams `json:"params"`
	Events         []podcast.Progress       `json:"events"`
	Latest         *podcast.Progress        `json:"latest,omitempty"`
	StartedAt      time.Time                `json:"started_at"`
	FinishedAt     *time.Time               `json:"finished_at,omitempty"`
	Podcast        *podcast.Podcast         `json:"podcast,omitempty"`
	Series         *podcast.Series          `json:"series,omitempty"`
	Episodes       []podcast.Podcast        `json:"episodes,omitempty"`
	Error          *ErrorResponse           `json:"error,omitempty"`
}

// generation records the progress of one attempt and wakes stream readers on
// every change.
type generation struct {
	id             string
	conversationID string
	params         podcast.GenerationParams
	token          *pipeline.CancelToken
	startedAt      time.Time

	mu         sync.Mutex
	events     []podcast.Progress
	changed    chan struct{}
	done       bool
	finishedAt time.Time
	result     pipeline.Result
	err        error
}

func newGeneration(id, conversationID string, params podcast.GenerationParams, now time.Time) *generation {
	return &generation{
		id:             id,
		conversationID: conversationID,
		params:         params.Clone(),
		token:          pipeline.NewCancelToken(),
		startedAt:      now,
		changed:        make(chan struct{}),
	}
}

// OnProgress implements progress.Listener.
func (g *generation) OnProgress(p podcast.Progress) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.events = append(g.events, p)
	g.notifyLocked()
}

func (g *generation) finish(result pipeline.Result, err error, now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.done = true
	g.finishedAt = now
	g.result = result
	g.err = err
	g.notifyLocked()
}

func (g *generation) notifyLocked() {
	close(g.changed)
	g.changed = make(chan struct{})
}

// since returns events from index from onward, whether the attempt has
// finished, and a channel closed on the next change.
func (g *generation) since(from int) ([]podcast.Progress, bool, <-chan struct{}) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []podcast.Progress
	if from < len(g.events) {
		out = append(out, g.events[from:]...)
	}
	return out, g.done, g.changed
}

func (g *generation) running() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.done
}

func (g *generation) status() GenerationStatus {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := GenerationStatus{
		ID:             g.id,
		ConversationID: g.conversationID,
		State:          GenerationRunning,
		Params:         g.params.Clone(),
		Events:         append([]podcast.Progress(nil), g.events...),
		StartedAt:      g.startedAt,
	}
	if n := len(g.events); n > 0 {
		latest := g.events[n-1]
		out.Latest = &latest
	}
	if !g.done {
		return out
	}
	finished := g.finishedAt
	out.FinishedAt = &finished
	switch {
	case g.err == nil:
		out.State = GenerationCompleted
		out.Podcast = g.result.Podcast
		out.Series = g.result.Series
		out.Episodes = g.result.Episodes
	case services.Classify(g.err) == services.KindCancelled:
		out.State = GenerationCancelled
	default:
		out.State = GenerationFailed
		details := services.Details(g.err)
		out.Error = &ErrorResponse{
			Error:   g.err.Error(),
			Kind:    string(details.Kind),
			Stage:   details.Stage,
			Message: services.UserMessage(g.err),
		}
	}
	return out
}
