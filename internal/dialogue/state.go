package dialogue

import "episodic/internal/podcast"

// Phase is a state of the clarification dialogue.
type Phase string

const (
	PhaseClarifying Phase = "clarifying"
	// PhasePlanning is reported while a plan regeneration is in flight.
	PhasePlanning Phase = "planning"
	PhaseApproval Phase = "approval"
	PhaseReady    Phase = "ready"
)

// Context is the clarification state accumulated over the dialogue.
type Context struct {
	OriginalTopic string                 `json:"original_topic"`
	RefinedTopic  string                 `json:"refined_topic"`
	Specificity   podcast.Specificity    `json:"specificity,omitempty"`
	Depth         podcast.Depth          `json:"depth,omitempty"`
	Format        podcast.Format         `json:"format,omitempty"`
	Tone          podcast.Tone           `json:"tone,omitempty"`
	Voice         string                 `json:"voice,omitempty"`
	Plan          *podcast.SeriesOutline `json:"plan,omitempty"`
	QuestionCount int                    `json:"question_count"`
}

// Clone returns a deep copy.
func (c Context) Clone() Context {
	out := c
	if c.Plan != nil {
		plan := c.Plan.Clone()
		out.Plan = &plan
	}
	return out
}

// State is a snapshot of a conversation.
type State struct {
	ID               string                `json:"id"`
	Phase            Phase                 `json:"phase"`
	Messages         []podcast.ChatMessage `json:"messages"`
	Context          Context               `json:"context"`
	AwaitingResponse bool                  `json:"awaiting_response"`
}

// LastMessage returns the most recent transcript entry.
func (s State) LastMessage() (podcast.ChatMessage, bool) {
	if len(s.Messages) == 0 {
		return podcast.ChatMessage{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

func cloneMessages(messages []podcast.ChatMessage) []podcast.ChatMessage {
	out := make([]podcast.ChatMessage, len(messages))
	for i, m := range messages {
		out[i] = m.Clone()
	}
	return out
}
