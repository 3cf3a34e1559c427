package dialogue

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"episodic/internal/logging"
	"episodic/internal/podcast"
	"episodic/internal/services"
)

// Conversation is one clarification dialogue. It is safe for concurrent use;
// overlapping turns are rejected with ErrTurnInProgress.
type Conversation struct {
	id     string
	engine *Engine

	mu       sync.Mutex
	phase    Phase
	messages []podcast.ChatMessage
	context  Context
	awaiting bool
	started  bool
	series   bool
}

type checkpoint struct {
	phase    Phase
	messages int
	context  Context
}

// ID returns the conversation identifier.
func (c *Conversation) ID() string {
	return c.id
}

// State returns a deep-copied snapshot.
func (c *Conversation) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		ID:               c.id,
		Phase:            c.phase,
		Messages:         cloneMessages(c.messages),
		Context:          c.context.Clone(),
		AwaitingResponse: c.awaiting,
	}
}

// SetVoice records the narration voice.
func (c *Conversation) SetVoice(voice string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.context.Voice = strings.TrimSpace(voice)
}

// Start records topic as the opening user message and asks the backend for
// the first question. The opening exchange is not a clarification turn.
func (c *Conversation) Start(ctx context.Context, topic string) (podcast.ChatMessage, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return podcast.ChatMessage{}, ErrEmptyInput
	}
	c.mu.Lock()
	if err := c.beginLocked(); err != nil {
		c.mu.Unlock()
		return podcast.ChatMessage{}, err
	}
	if c.started {
		c.mu.Unlock()
		return podcast.ChatMessage{}, fmt.Errorf("%w: conversation already started", ErrInvalidPhase)
	}
	cp := c.checkpointLocked()
	c.context.OriginalTopic = topic
	c.context.RefinedTopic = topic
	transcript := c.appendUserLocked(topic)
	c.mu.Unlock()

	reply, err := c.callBackend(ctx, transcript, 0)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.awaiting = false
	if err != nil {
		c.restoreLocked(cp)
		return podcast.ChatMessage{}, err
	}
	c.started = true
	msg := c.appendAssistantLocked(reply)
	c.transitionLocked(reply)
	return msg.Clone(), nil
}

// Reply submits one clarification turn.
func (c *Conversation) Reply(ctx context.Context, text string) (podcast.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return podcast.ChatMessage{}, ErrEmptyInput
	}
	c.mu.Lock()
	if err := c.beginLocked(); err != nil {
		c.mu.Unlock()
		return podcast.ChatMessage{}, err
	}
	if !c.started || c.phase != PhaseClarifying {
		phase := c.phase
		c.mu.Unlock()
		return podcast.ChatMessage{}, fmt.Errorf("%w: reply in phase %s", ErrInvalidPhase, phase)
	}
	cp := c.checkpointLocked()
	turn := c.context.QuestionCount
	transcript := c.appendUserLocked(text)
	c.mu.Unlock()

	inference := c.engine.classifier.Classify(text)
	reply, err := c.callBackend(ctx, transcript, turn)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.awaiting = false
	if err != nil {
		c.restoreLocked(cp)
		return podcast.ChatMessage{}, err
	}
	inference.merge(&c.context)
	if inference.Specificity == podcast.SpecificitySpecific {
		c.context.RefinedTopic = c.context.OriginalTopic + " - " + text
	}
	c.context.QuestionCount++
	msg := c.appendAssistantLocked(reply)
	c.transitionLocked(reply)
	if c.phase == PhaseClarifying && c.context.QuestionCount >= c.engine.maxTurns {
		c.phase = PhaseReady
		c.series = false
		c.engine.logger.Info("clarification turn limit reached",
			logging.String(logging.FieldEventType, "dialogue_forced_ready"),
			logging.String(logging.FieldConversationID, c.id),
			logging.Int("question_count", c.context.QuestionCount),
		)
	}
	return msg.Clone(), nil
}

// Approve accepts the current plan and returns series generation parameters.
func (c *Conversation) Approve() (podcast.GenerationParams, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.awaiting {
		return podcast.GenerationParams{}, ErrTurnInProgress
	}
	if c.phase != PhaseApproval || c.context.Plan == nil {
		return podcast.GenerationParams{}, fmt.Errorf("%w: approve in phase %s", ErrInvalidPhase, c.phase)
	}
	c.phase = PhaseReady
	c.series = true
	c.context.Format = podcast.FormatSeries
	return c.paramsLocked(), nil
}

// SwitchToSingle discards the plan and returns single-episode parameters.
func (c *Conversation) SwitchToSingle() (podcast.GenerationParams, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.awaiting {
		return podcast.GenerationParams{}, ErrTurnInProgress
	}
	if c.phase != PhaseApproval {
		return podcast.GenerationParams{}, fmt.Errorf("%w: switch to single in phase %s", ErrInvalidPhase, c.phase)
	}
	c.phase = PhaseReady
	c.series = false
	c.context.Plan = nil
	c.context.Format = podcast.FormatSingle
	return c.paramsLocked(), nil
}

// Modify regenerates the plan from feedback and swaps it in whole. On
// failure the previous plan and transcript are kept.
func (c *Conversation) Modify(ctx context.Context, feedback string) (podcast.SeriesOutline, error) {
	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		return podcast.SeriesOutline{}, ErrEmptyInput
	}
	c.mu.Lock()
	if err := c.beginLocked(); err != nil {
		c.mu.Unlock()
		return podcast.SeriesOutline{}, err
	}
	if c.phase != PhaseApproval {
		phase := c.phase
		c.mu.Unlock()
		return podcast.SeriesOutline{}, fmt.Errorf("%w: modify in phase %s", ErrInvalidPhase, phase)
	}
	if c.engine.replanner == nil {
		c.mu.Unlock()
		return podcast.SeriesOutline{}, fmt.Errorf("%w: %w", ErrBackend,
			services.Wrap(services.ErrConfiguration, "planning", "replan", "plan regeneration not configured", nil))
	}
	cp := c.checkpointLocked()
	topic := c.topicLocked()
	c.appendUserLocked(feedback)
	c.phase = PhasePlanning
	c.mu.Unlock()

	outline, err := c.engine.replanner.RegeneratePlan(services.WithConversationID(ctx, c.id), topic, feedback)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.awaiting = false
	if err != nil {
		c.restoreLocked(cp)
		logging.WarnWithContext(c.engine.logger, "plan regeneration failed; keeping previous plan",
			"plan_regenerate_failed",
			logging.String(logging.FieldConversationID, c.id),
			logging.Error(err),
			logging.String(logging.FieldImpact, "previous plan kept"),
		)
		return podcast.SeriesOutline{}, fmt.Errorf("%w: %w", ErrBackend, err)
	}
	plan := outline.Clone()
	c.context.Plan = &plan
	c.phase = PhaseApproval
	c.appendAssistantLocked(Reply{
		Content:      "Here's the updated plan. Approve it, ask for more changes, or switch to a single episode.",
		QuickReplies: approvalQuickReplies,
		Plan:         &plan,
		IsSeries:     true,
	})
	return plan.Clone(), nil
}

// GenerationParams derives the pipeline input. It is only available once the
// conversation is ready.
func (c *Conversation) GenerationParams() (podcast.GenerationParams, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseReady {
		return podcast.GenerationParams{}, fmt.Errorf("%w: params in phase %s", ErrInvalidPhase, c.phase)
	}
	return c.paramsLocked(), nil
}

var approvalQuickReplies = []string{"Approve", "Modify", "Single episode instead"}

func (c *Conversation) beginLocked() error {
	if c.awaiting {
		return ErrTurnInProgress
	}
	return nil
}

func (c *Conversation) checkpointLocked() checkpoint {
	return checkpoint{phase: c.phase, messages: len(c.messages), context: c.context.Clone()}
}

func (c *Conversation) restoreLocked(cp checkpoint) {
	c.phase = cp.phase
	c.messages = c.messages[:cp.messages]
	c.context = cp.context
}

// appendUserLocked records text, marks the conversation busy, and returns a
// transcript copy for the backend.
func (c *Conversation) appendUserLocked(text string) []podcast.ChatMessage {
	c.messages = append(c.messages, podcast.ChatMessage{
		ID:        c.engine.newID(),
		Role:      podcast.RoleUser,
		Text:      text,
		Timestamp: c.engine.now(),
	})
	c.awaiting = true
	return cloneMessages(c.messages)
}

func (c *Conversation) appendAssistantLocked(reply Reply) podcast.ChatMessage {
	msg := podcast.ChatMessage{
		ID:           c.engine.newID(),
		Role:         podcast.RoleAssistant,
		Text:         reply.Content,
		Timestamp:    c.engine.now(),
		QuickReplies: append([]string(nil), reply.QuickReplies...),
	}
	if reply.Plan != nil {
		plan := reply.Plan.Clone()
		msg.Plan = &plan
	}
	c.messages = append(c.messages, msg)
	return msg
}

func (c *Conversation) transitionLocked(reply Reply) {
	if reply.IsSeries {
		c.context.Format = podcast.FormatSeries
	}
	switch {
	case reply.Plan != nil:
		plan := reply.Plan.Clone()
		c.context.Plan = &plan
		c.context.Format = podcast.FormatSeries
		c.phase = PhaseApproval
	case reply.IsReady:
		c.phase = PhaseReady
		c.series = false
	}
}

func (c *Conversation) callBackend(ctx context.Context, transcript []podcast.ChatMessage, turn int) (Reply, error) {
	ctx = services.WithConversationID(ctx, c.id)
	reply, err := c.engine.backend.Complete(ctx, transcript, instructionsFor(turn, c.engine.maxTurns))
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, c.engine.logger), "dialogue turn failed",
			"dialogue_turn_failed",
			logging.Int("turn", turn),
			logging.Error(err),
			logging.String(logging.FieldImpact, "turn not applied; user may resend"),
		)
		return Reply{}, fmt.Errorf("%w: %w", ErrBackend, err)
	}
	return reply, nil
}

func (c *Conversation) topicLocked() string {
	if c.context.RefinedTopic != "" {
		return c.context.RefinedTopic
	}
	return c.context.OriginalTopic
}

func (c *Conversation) paramsLocked() podcast.GenerationParams {
	params := podcast.GenerationParams{
		Topic:    c.topicLocked(),
		IsSeries: c.series,
		Depth:    c.context.Depth,
		Tone:     c.context.Tone,
		Voice:    c.context.Voice,
	}
	if params.Depth == "" {
		params.Depth = DefaultDepth
	}
	if params.Tone == "" {
		params.Tone = DefaultTone
	}
	if c.series && c.context.Plan != nil {
		params.Plan = podcast.ClonePlan(c.context.Plan.Episodes)
		outline := c.context.Plan.Clone()
		params.ApprovedOutline = &outline
	}
	return params.Normalized()
}
