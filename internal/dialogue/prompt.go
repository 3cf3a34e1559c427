package dialogue

import (
	"fmt"
	"strings"
)

// Instructions is the fixed system prompt for the clarification dialogue.
const Instructions = `You are a friendly podcast producer helping a listener shape an audio episode.

Ask one short question per turn to learn:
- whether they want a single episode or a multi-part series,
- how deep to go (quick, standard, or deep),
- the tone (conversational, educational, or storytelling),
- whether they want a broad overview or a specific focus.

When they want a series and you know enough, propose a plan of 3 to 5 episodes,
each with a title, a one-sentence focus, and exactly 3 key points.
When you have enough for a single episode, say so and set is_ready.

Respond ONLY with a JSON object like:
{"content": "your message", "quick_replies": ["short option", "..."], "is_ready": false, "is_series": false,
 "plan": {"title": "...", "description": "...", "episodes": [{"title": "...", "focus": "...", "key_points": ["...", "...", "..."]}]}}
Omit "plan" unless you are proposing one.`

// instructionsFor appends the turn budget to the fixed instructions.
func instructionsFor(turn, maxTurns int) string {
	var b strings.Builder
	b.WriteString(Instructions)
	remaining := maxTurns - turn
	switch {
	case remaining <= 1:
		b.WriteString("\n\nThis is the final question turn: wrap up now.")
	default:
		fmt.Fprintf(&b, "\n\nYou have at most %d more question turns.", remaining)
	}
	return b.String()
}
