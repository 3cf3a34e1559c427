package dialogue

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"episodic/internal/podcast"
	"episodic/internal/services"
	"episodic/internal/services/llm"
)

const validPlanReply = `{"content":"Here's a plan.","quick_replies":["Approve"],"is_series":true,
"plan":{"title":"Jazz Through Time","description":"d","episodes":[
{"title":"Origins","focus":"New Orleans","key_points":["a","b","c"]},
{"title":"Swing","focus":"Big bands","key_points":["a","b","c"]},
{"title":"Bebop","focus":"Combos","key_points":["a","b","c"]}]}}`

func TestParseReplyVariants(t *testing.T) {
	t.Run("plain", func(t *testing.T) {
		result := ParseReply(`{"content":"Single or series?","quick_replies":["Single"," ","Series"]}`, "Jazz")
		parsed, ok := result.(ParsedReply)
		require.True(t, ok)
		assert.Equal(t, "Single or series?", parsed.Value.Content)
		assert.Equal(t, []string{"Single", "Series"}, parsed.Value.QuickReplies)
		assert.Nil(t, parsed.Value.Plan)
	})
	t.Run("plan", func(t *testing.T) {
		reply := ParseReply(validPlanReply, "Jazz").Reply()
		require.NotNil(t, reply.Plan)
		assert.Equal(t, 3, reply.Plan.Len())
		assert.Equal(t, 3, reply.Plan.Episodes[2].Sequence)
		assert.True(t, reply.IsSeries)
	})
	t.Run("prose", func(t *testing.T) {
		result := ParseReply("Sure! Would you like a **series**?", "Jazz")
		fb, ok := result.(FallbackReply)
		require.True(t, ok)
		assert.Error(t, fb.Err)
		reply := result.Reply()
		assert.Equal(t, "Sure! Would you like a series?", reply.Content)
		assert.Equal(t, []string{QuickReplyContinue, QuickReplyStartOver}, reply.QuickReplies)
	})
	t.Run("broken plan", func(t *testing.T) {
		result := ParseReply(`{"content":"Plan!","plan":{"episodes":[{"title":"Only one","key_points":["a"]}]}}`, "Jazz")
		fb, ok := result.(FallbackReply)
		require.True(t, ok)
		assert.True(t, fb.PlanRejected())
		reply := result.Reply()
		assert.Nil(t, reply.Plan)
		assert.True(t, reply.IsSeries)
		assert.Contains(t, reply.Content, "Plan!")
		assert.Contains(t, reply.Content, planRetryNote)
		assert.Equal(t, []string{QuickReplyProposePlan, QuickReplyStartOver}, reply.QuickReplies)
	})
	t.Run("missing content", func(t *testing.T) {
		_, ok := ParseReply(`{"is_ready":true}`, "Jazz").(FallbackReply)
		assert.True(t, ok)
	})
}

type recordingCompleter struct {
	reply string
	err   error
	req   llm.Request
}

func (r *recordingCompleter) Complete(_ context.Context, req llm.Request) (string, error) {
	r.req = req
	return r.reply, r.err
}

func TestLLMBackendBuildsRequest(t *testing.T) {
	completer := &recordingCompleter{reply: `{"content":"Great.","is_ready":true}`}
	backend := NewLLMBackend(completer, nil)
	transcript := []podcast.ChatMessage{
		{Role: podcast.RoleUser, Text: "Quantum computing"},
		{Role: podcast.RoleAssistant, Text: "Single or series?"},
		{Role: podcast.RoleSystem, Text: "internal note"},
		{Role: podcast.RoleUser, Text: "Single"},
	}
	reply, err := backend.Complete(context.Background(), transcript, "be brief")
	require.NoError(t, err)
	assert.True(t, reply.IsReady)
	assert.Equal(t, "be brief", completer.req.System)
	assert.True(t, completer.req.JSON)
	require.Len(t, completer.req.Messages, 3)
	assert.Equal(t, llm.RoleAssistant, completer.req.Messages[1].Role)
}

func TestLLMBackendMalformedReplyIsNotAnError(t *testing.T) {
	backend := NewLLMBackend(&recordingCompleter{reply: "{not json"}, nil)
	reply, err := backend.Complete(context.Background(), nil, "x")
	require.NoError(t, err)
	assert.Equal(t, []string{QuickReplyContinue, QuickReplyStartOver}, reply.QuickReplies)
	assert.Equal(t, fallbackContent, reply.Content)
}

func TestLLMBackendLogsRejectedPlan(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	raw := `{"content":"Here's a plan.","plan":{"episodes":[{"title":"Only one","key_points":["a","b","c"]}]}}`
	backend := NewLLMBackend(&recordingCompleter{reply: raw}, logger)

	reply, err := backend.Complete(context.Background(), nil, "x")
	require.NoError(t, err)
	assert.Nil(t, reply.Plan)
	assert.Contains(t, reply.QuickReplies, QuickReplyProposePlan)
	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "event_type=dialogue_plan_rejected")
	assert.Contains(t, out, "impact=")
}

func TestLLMBackendTransportErrorKeepsClass(t *testing.T) {
	backend := NewLLMBackend(&recordingCompleter{err: services.Wrap(services.ErrConfiguration, "llm", "complete", "api key missing", nil)}, nil)
	_, err := backend.Complete(context.Background(), nil, "x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, services.ErrConfiguration))
	assert.Equal(t, "dialogue", services.Details(err).Stage)
}
