package offline

import (
	"context"
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"episodic/internal/dialogue"
	"episodic/internal/podcast"
	"episodic/internal/stages"
	"episodic/internal/textutil"
)

func TestDialogueTableSingleEpisode(t *testing.T) {
	engine := dialogue.NewEngine(NewDialogueBackend(0), nil)
	conv := engine.NewConversation()
	ctx := context.Background()

	opening, err := conv.Start(ctx, "Quantum computing")
	require.NoError(t, err)
	assert.Equal(t, []string{"Single episode", "Multi-part series"}, opening.QuickReplies)

	_, err = conv.Reply(ctx, "Single episode")
	require.NoError(t, err)
	assert.Equal(t, dialogue.PhaseClarifying, conv.State().Phase)

	_, err = conv.Reply(ctx, "Standard")
	require.NoError(t, err)
	params, err := conv.GenerationParams()
	require.NoError(t, err)
	assert.False(t, params.IsSeries)
	assert.Equal(t, podcast.DepthStandard, params.Depth)
	assert.Equal(t, podcast.ToneConversational, params.Tone)
}

func TestDialogueTableSeriesReachesApproval(t *testing.T) {
	planner := NewPlanner(0)
	engine := dialogue.NewEngine(NewDialogueBackend(0), replanAdapter{planner})
	conv := engine.NewConversation()
	ctx := context.Background()

	_, err := conv.Start(ctx, "History of Jazz")
	require.NoError(t, err)
	_, err = conv.Reply(ctx, "Multi-part series")
	require.NoError(t, err)

	state := conv.State()
	require.Equal(t, dialogue.PhaseApproval, state.Phase)
	plan := state.Context.Plan
	require.NotNil(t, plan)
	assert.GreaterOrEqual(t, plan.Len(), 3)
	assert.LessOrEqual(t, plan.Len(), 5)
	for _, ep := range plan.Episodes {
		assert.Len(t, ep.KeyPoints, 3)
	}

	updated, err := conv.Modify(ctx, "make it shorter")
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Len())

	params, err := conv.Approve()
	require.NoError(t, err)
	assert.True(t, params.IsSeries)
	assert.Equal(t, 3, params.ApprovedOutline.Len())
}

type replanAdapter struct{ p *Planner }

func (a replanAdapter) RegeneratePlan(ctx context.Context, topic, feedback string) (podcast.SeriesOutline, error) {
	return a.p.Replan(ctx, topic, feedback)
}

func TestScriptWithinWordTarget(t *testing.T) {
	s := NewScripter(0)
	for _, req := range []stages.ScriptRequest{
		{Topic: "Jazz"},
		{Topic: "Quantum computing"},
		{Topic: "The very long and winding history of Mediterranean maritime trade routes"},
		{Topic: "History of Jazz", Episode: &podcast.EpisodePlanEntry{Sequence: 2, Title: "Swing Era", Focus: "Big bands and dance halls."}},
	} {
		script, err := s.Script(context.Background(), req)
		require.NoError(t, err)
		words := textutil.CountWords(script)
		assert.GreaterOrEqual(t, words, stages.MinScriptWords, req.Topic)
		assert.LessOrEqual(t, words, stages.MaxScriptWords, req.Topic)
		assert.Equal(t, script, stages.SanitizeScript(script))
	}
}

func TestResearchAlwaysHasSources(t *testing.T) {
	got, err := NewResearcher(0).Research(context.Background(), "History of Jazz - Swing")
	require.NoError(t, err)
	assert.Len(t, got.Sources, 3)
	assert.Contains(t, got.Notes, "History of Jazz - Swing")
}

func TestDelayHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewResearcher(time.Hour).Research(ctx, "Jazz")
	require.ErrorIs(t, err, context.Canceled)
}

func TestSilentWAVHeader(t *testing.T) {
	audio, err := NewSynthesizer(0).Synthesize(context.Background(), "One two three four five.", "alloy")
	require.NoError(t, err)
	require.Greater(t, len(audio), 44)
	assert.Equal(t, "RIFF", string(audio[:4]))
	assert.Equal(t, "WAVE", string(audio[8:12]))
	dataLen := binary.LittleEndian.Uint32(audio[40:44])
	assert.Equal(t, uint32(2*sampleRate), dataLen)
	assert.Len(t, audio, 44+int(dataLen))
}
