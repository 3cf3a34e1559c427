package dialogue

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"episodic/internal/logging"
	"episodic/internal/podcast"
	"episodic/internal/services"
	"episodic/internal/services/llm"
	"episodic/internal/stages"
)

// Fallback quick replies offered when a backend reply cannot be parsed.
const (
	QuickReplyContinue    = "Continue"
	QuickReplyStartOver   = "Start over"
	QuickReplyProposePlan = "Propose a plan again"
)

// Reply is a validated backend answer for one turn.
type Reply struct {
	Content      string
	QuickReplies []string
	Plan         *podcast.SeriesOutline
	IsReady      bool
	IsSeries     bool
}

// Backend produces the assistant side of the dialogue.
type Backend interface {
	Complete(ctx context.Context, transcript []podcast.ChatMessage, instructions string) (Reply, error)
}

// ParseResult is the outcome of parsing a raw backend reply: either a
// ParsedReply or a FallbackReply.
type ParseResult interface {
	Reply() Reply
	isParseResult()
}

// ParsedReply wraps a reply that matched the expected shape.
type ParsedReply struct {
	Value Reply
}

// Reply returns the parsed value.
func (p ParsedReply) Reply() Reply { return p.Value }

func (ParsedReply) isParseResult() {}

// FallbackReply stands in for a reply that did not match the expected shape.
type FallbackReply struct {
	Raw string
	Err error
	// Content holds the reply's own message when only its embedded plan was
	// rejected.
	Content string
}

// PlanRejected reports whether the reply was usable apart from its plan.
func (f FallbackReply) PlanRejected() bool {
	return f.Content != ""
}

const planRetryNote = "The episode plan didn't come out complete, so I can propose it again."

// fallbackContent is shown when the raw reply has no usable prose.
const fallbackContent = "Sorry, I lost my train of thought. Shall we keep going?"

// Reply returns a safe default built from whatever prose the raw reply had.
func (f FallbackReply) Reply() Reply {
	if f.PlanRejected() {
		return Reply{
			Content:      f.Content + "\n\n" + planRetryNote,
			QuickReplies: []string{QuickReplyProposePlan, QuickReplyStartOver},
			IsSeries:     true,
		}
	}
	content := stages.PlainText(f.Raw)
	if strings.HasPrefix(strings.TrimSpace(f.Raw), "{") || content == "" {
		content = fallbackContent
	}
	return Reply{
		Content:      content,
		QuickReplies: []string{QuickReplyContinue, QuickReplyStartOver},
	}
}

func (FallbackReply) isParseResult() {}

type replyPayload struct {
	Content      string   `json:"content"`
	QuickReplies []string `json:"quick_replies"`
	IsReady      bool     `json:"is_ready"`
	IsSeries     bool     `json:"is_series"`
	Plan         *struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Episodes    []struct {
			Title     string   `json:"title"`
			Focus     string   `json:"focus"`
			KeyPoints []string `json:"key_points"`
		} `json:"episodes"`
	} `json:"plan"`
}

// ParseReply validates a raw backend reply. Non-JSON content, a missing
// message, or an embedded plan that fails outline validation yield a
// FallbackReply; a broken plan is never reduced to an empty one, and the
// reply's message is kept so the user can ask for the plan again.
func ParseReply(raw, topic string) ParseResult {
	var payload replyPayload
	if err := llm.DecodeLLMJSON(raw, &payload); err != nil {
		return FallbackReply{Raw: raw, Err: err}
	}
	content := strings.TrimSpace(payload.Content)
	if content == "" {
		return FallbackReply{Raw: raw, Err: errors.New("reply content missing")}
	}
	reply := Reply{
		Content:  content,
		IsReady:  payload.IsReady,
		IsSeries: payload.IsSeries,
	}
	for _, qr := range payload.QuickReplies {
		if qr = strings.TrimSpace(qr); qr != "" {
			reply.QuickReplies = append(reply.QuickReplies, qr)
		}
	}
	if payload.Plan != nil && len(payload.Plan.Episodes) > 0 {
		outline := podcast.SeriesOutline{Title: payload.Plan.Title, Description: payload.Plan.Description}
		for _, ep := range payload.Plan.Episodes {
			outline.Episodes = append(outline.Episodes, podcast.EpisodePlanEntry{Title: ep.Title, Focus: ep.Focus, KeyPoints: ep.KeyPoints})
		}
		normalized, err := stages.NormalizeOutline(outline, topic)
		if err != nil {
			return FallbackReply{Raw: raw, Err: err, Content: content}
		}
		reply.Plan = &normalized
		reply.IsSeries = true
	}
	return ParsedReply{Value: reply}
}

// LLMBackend drives the dialogue with a text-generation backend.
type LLMBackend struct {
	llm    llm.Completer
	logger *slog.Logger
}

// NewLLMBackend constructs a dialogue backend using completer.
func NewLLMBackend(completer llm.Completer, logger *slog.Logger) *LLMBackend {
	return &LLMBackend{llm: completer, logger: logging.NewComponentLogger(logger, "dialogue-backend")}
}

// Complete sends the transcript and returns a validated reply. Transport
// failures are returned as errors; malformed replies become a fallback.
func (b *LLMBackend) Complete(ctx context.Context, transcript []podcast.ChatMessage, instructions string) (Reply, error) {
	req := llm.Request{System: instructions, JSON: true}
	topic := ""
	for _, msg := range transcript {
		switch msg.Role {
		case podcast.RoleUser:
			if topic == "" {
				topic = msg.Text
			}
			req.Messages = append(req.Messages, llm.Message{Role: llm.RoleUser, Content: msg.Text})
		case podcast.RoleAssistant:
			req.Messages = append(req.Messages, llm.Message{Role: llm.RoleAssistant, Content: msg.Text})
		}
	}
	raw, err := b.llm.Complete(ctx, req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return Reply{}, err
		}
		marker := services.ErrExternalTool
		var svcErr *services.Error
		if errors.As(err, &svcErr) {
			marker = svcErr.Marker
		}
		return Reply{}, services.Wrap(marker, "dialogue", "complete", "dialogue request failed", err)
	}
	result := ParseReply(raw, topic)
	if fb, ok := result.(FallbackReply); ok && fb.PlanRejected() {
		logging.WarnWithContext(logging.WithContext(ctx, b.logger), "series plan in dialogue reply rejected",
			"dialogue_plan_rejected",
			logging.Error(fb.Err),
			logging.String(logging.FieldImpact, "no plan shown this turn; the turn still counts toward the limit"),
			logging.String(logging.FieldErrorHint, "pick \""+QuickReplyProposePlan+"\" to request a complete plan"),
		)
	} else if ok {
		logging.WarnWithContext(logging.WithContext(ctx, b.logger), "dialogue reply not parseable; using fallback",
			"dialogue_fallback",
			logging.Error(fb.Err),
			logging.String(logging.FieldImpact, "default quick replies offered"),
			logging.String(logging.FieldErrorHint, "check the configured model supports JSON replies"),
		)
	}
	return result.Reply(), nil
}
