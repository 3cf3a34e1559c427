package offline

import (
	"context"
	"fmt"
	"time"

	"episodic/internal/dialogue"
	"episodic/internal/podcast"
)

// DialogueBackend answers clarification turns from a fixed table. The turn
// index is the number of user messages after the opening topic.
type DialogueBackend struct {
	Delay      time.Duration
	Planner    *Planner
	Classifier dialogue.Classifier
}

// NewDialogueBackend constructs a table-driven backend.
func NewDialogueBackend(delay time.Duration) *DialogueBackend {
	return &DialogueBackend{
		Delay:      delay,
		Planner:    NewPlanner(0),
		Classifier: dialogue.KeywordClassifier{},
	}
}

// Complete implements dialogue.Backend.
func (b *DialogueBackend) Complete(ctx context.Context, transcript []podcast.ChatMessage, _ string) (dialogue.Reply, error) {
	if err := wait(ctx, b.Delay); err != nil {
		return dialogue.Reply{}, err
	}
	var users []string
	for _, msg := range transcript {
		if msg.Role == podcast.RoleUser {
			users = append(users, msg.Text)
		}
	}
	if len(users) == 0 {
		return dialogue.Reply{}, fmt.Errorf("offline dialogue: transcript has no topic")
	}
	topic := users[0]
	turn := len(users) - 1
	switch turn {
	case 0:
		return dialogue.Reply{
			Content:      fmt.Sprintf("%s is a great pick. Would you like a single episode or a multi-part series?", topic),
			QuickReplies: []string{"Single episode", "Multi-part series"},
		}, nil
	case 1:
		if b.Classifier.Classify(users[1]).Format == podcast.FormatSeries {
			outline, err := b.Planner.Plan(ctx, topic)
			if err != nil {
				return dialogue.Reply{}, err
			}
			return dialogue.Reply{
				Content:      fmt.Sprintf("Here's a %d-part plan for %s. Approve it, ask for changes, or switch to a single episode.", outline.Len(), topic),
				QuickReplies: []string{"Approve", "Modify", "Single episode instead"},
				Plan:         &outline,
				IsSeries:     true,
			}, nil
		}
		return dialogue.Reply{
			Content:      "How deep should we go, and what tone do you like?",
			QuickReplies: []string{"Quick and casual", "Standard", "Deep and educational"},
		}, nil
	default:
		return dialogue.Reply{
			Content: "Perfect, I have everything I need. Ready when you are.",
			IsReady: true,
		}, nil
	}
}
