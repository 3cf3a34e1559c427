package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"episodic/internal/dialogue"
	"episodic/internal/library"
	"episodic/internal/notifications"
	"episodic/internal/offline"
	"episodic/internal/pipeline"
	"episodic/internal/podcast"
	"episodic/internal/progress"
	"episodic/internal/services"
	"episodic/internal/stages"
	"episodic/internal/testsupport"
)

type offlineStack struct {
	server  *Server
	store   *library.Store
	audio   string
	notices *recordingNotifier
}

func newOfflineStack(t *testing.T, token string) *offlineStack {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLibrary(t, cfg)

	audio := cfg.Paths.AudioDir
	planner := offline.NewPlanner(0)
	narrator := stages.NewSpeechNarrator(offline.NewSynthesizer(0), audio, offline.AudioFormat, nil)
	pipe := pipeline.New(offline.NewResearcher(0), offline.NewScripter(0), narrator, planner)
	engine := dialogue.NewEngine(offline.NewDialogueBackend(0), pipe)

	notices := &recordingNotifier{}
	srv := New(Dependencies{Engine: engine, Generator: pipe, Library: store, Notifier: notices, Token: token})
	t.Cleanup(srv.Close)
	return &offlineStack{server: srv, store: store, audio: audio, notices: notices}
}

type recordingNotifier struct {
	mu        sync.Mutex
	completed []notifications.Outcome
	failed    []error
	cancelled []string
}

func (r *recordingNotifier) NotifyGenerationCompleted(_ context.Context, o notifications.Outcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = append(r.completed, o)
	return nil
}

func (r *recordingNotifier) NotifyGenerationFailed(_ context.Context, _ string, err error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, err)
	return nil
}

func (r *recordingNotifier) NotifyGenerationCancelled(_ context.Context, topic string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelled = append(r.cancelled, topic)
	return nil
}

func (r *recordingNotifier) TestNotification(context.Context) error { return nil }

func (r *recordingNotifier) counts() (int, int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.completed), len(r.failed), len(r.cancelled)
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func createConversation(t *testing.T, h http.Handler, topic string) string {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/conversations", CreateConversationRequest{Topic: topic, Voice: "nova"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decode[TurnResponse](t, rec)
	require.NotNil(t, resp.Message)
	assert.Equal(t, []string{"Single episode", "Multi-part series"}, resp.Message.QuickReplies)
	return resp.State.ID
}

func waitForGeneration(t *testing.T, h http.Handler, id string) GenerationStatus {
	t.Helper()
	var status GenerationStatus
	require.Eventually(t, func() bool {
		rec := do(t, h, http.MethodGet, "/api/conversations/"+id+"/generation", nil)
		if rec.Code != http.StatusOK {
			return false
		}
		status = decode[GenerationStatus](t, rec)
		return status.State != GenerationRunning
	}, 5*time.Second, 10*time.Millisecond)
	return status
}

func TestSingleEpisodeFlowPersistsAndNotifies(t *testing.T) {
	stack := newOfflineStack(t, "")
	h := stack.server.Handler()

	id := createConversation(t, h, "History of jazz")
	rec := do(t, h, http.MethodPost, "/api/conversations/"+id+"/replies", ReplyRequest{Text: "Single episode"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, dialogue.PhaseClarifying, decode[TurnResponse](t, rec).State.Phase)

	rec = do(t, h, http.MethodPost, "/api/conversations/"+id+"/replies", ReplyRequest{Text: "Quick and casual"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, dialogue.PhaseReady, decode[TurnResponse](t, rec).State.Phase)

	rec = do(t, h, http.MethodGet, "/api/conversations/"+id+"/params", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	params := decode[podcast.GenerationParams](t, rec)
	assert.False(t, params.IsSeries)
	assert.Equal(t, podcast.DepthQuick, params.Depth)
	assert.Equal(t, "nova", params.Voice)

	rec = do(t, h, http.MethodPost, "/api/conversations/"+id+"/generation", nil)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	status := waitForGeneration(t, h, id)
	require.Equal(t, GenerationCompleted, status.State)
	require.NotNil(t, status.Podcast)
	require.NotEmpty(t, status.Events)
	last := status.Events[len(status.Events)-1]
	assert.Equal(t, podcast.StageDone, last.Stage)
	assert.Equal(t, 1.0, last.Fraction)
	assert.True(t, strings.HasPrefix(status.Podcast.AudioRef, stack.audio))

	rec = do(t, h, http.MethodGet, "/api/library/podcasts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items := decode[[]podcast.Podcast](t, rec)
	require.Len(t, items, 1)
	assert.Equal(t, status.Podcast.ID, items[0].ID)

	rec = do(t, h, http.MethodGet, "/api/library/podcasts/"+status.Podcast.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	completed, failed, cancelled := stack.notices.counts()
	assert.Equal(t, []int{1, 0, 0}, []int{completed, failed, cancelled})
}

func TestSeriesFlowWithModifyAndApprove(t *testing.T) {
	stack := newOfflineStack(t, "")
	h := stack.server.Handler()

	id := createConversation(t, h, "Space exploration")
	rec := do(t, h, http.MethodPost, "/api/conversations/"+id+"/replies", ReplyRequest{Text: "Multi-part series"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	turn := decode[TurnResponse](t, rec)
	require.Equal(t, dialogue.PhaseApproval, turn.State.Phase)
	require.NotNil(t, turn.State.Context.Plan)
	assert.Equal(t, 4, turn.State.Context.Plan.Len())

	rec = do(t, h, http.MethodPost, "/api/conversations/"+id+"/modify", ModifyRequest{Feedback: "make it shorter"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	turn = decode[TurnResponse](t, rec)
	require.NotNil(t, turn.Plan)
	assert.Equal(t, 3, turn.Plan.Len())
	assert.Equal(t, dialogue.PhaseApproval, turn.State.Phase)

	rec = do(t, h, http.MethodPost, "/api/conversations/"+id+"/approve", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	turn = decode[TurnResponse](t, rec)
	require.NotNil(t, turn.Params)
	assert.True(t, turn.Params.IsSeries)

	rec = do(t, h, http.MethodPost, "/api/conversations/"+id+"/generation", nil)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	status := waitForGeneration(t, h, id)
	require.Equal(t, GenerationCompleted, status.State, status.Error)
	require.NotNil(t, status.Series)
	assert.Len(t, status.Episodes, 3)
	for _, ev := range status.Events {
		assert.NotEqual(t, podcast.StagePlanning, ev.Stage, "approved outline must skip the planner")
	}

	rec = do(t, h, http.MethodGet, "/api/library/series/"+status.Series.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	series := decode[SeriesResponse](t, rec)
	assert.Equal(t, 3, series.Series.EpisodeCount)
	assert.Len(t, series.Episodes, 3)
}

func TestDialogueErrorsMapToStatusCodes(t *testing.T) {
	stack := newOfflineStack(t, "")
	h := stack.server.Handler()

	rec := do(t, h, http.MethodGet, "/api/conversations/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/conversations", CreateConversationRequest{Topic: "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	id := createConversation(t, h, "Volcanoes")
	rec = do(t, h, http.MethodPost, "/api/conversations/"+id+"/approve", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/conversations/"+id+"/params", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/conversations/"+id+"/replies", ReplyRequest{Text: " "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/conversations/"+id+"/generation", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBearerTokenRequired(t *testing.T) {
	stack := newOfflineStack(t, "secret")
	h := stack.server.Handler()

	rec := do(t, h, http.MethodGet, "/api/library/series", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/library/series", nil)
	req.Header.Set("Authorization", "Bearer secret")
	ok := httptest.NewRecorder()
	h.ServeHTTP(ok, req)
	assert.Equal(t, http.StatusOK, ok.Code)
	assert.JSONEq(t, "[]", ok.Body.String())

	rec = do(t, h, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

// gatedGenerator blocks until release is closed, emitting one interim event.
type gatedGenerator struct {
	release chan struct{}
	calls   int
	mu      sync.Mutex
	fail    error
}

func (g *gatedGenerator) Generate(ctx context.Context, params podcast.GenerationParams, token *pipeline.CancelToken, listeners ...progress.Listener) (pipeline.Result, error) {
	g.mu.Lock()
	g.calls++
	fail := g.fail
	g.mu.Unlock()

	ch := progress.New(nil)
	for _, l := range listeners {
		defer ch.Subscribe(l)()
	}
	ch.Emit(podcast.Progress{Stage: podcast.StageSearching, Message: "Researching", Fraction: 0.1})
	select {
	case <-g.release:
	case <-token.Done():
		ch.Emit(podcast.Progress{Stage: podcast.StageCancelled, Message: "Cancelled", Fraction: 0.1})
		return pipeline.Result{}, services.ErrCancelled
	case <-ctx.Done():
		return pipeline.Result{}, ctx.Err()
	}
	if fail != nil {
		ch.Emit(podcast.Progress{Stage: podcast.StageFailed, Message: services.UserMessage(fail), Fraction: 0.1})
		return pipeline.Result{}, fail
	}
	ch.Emit(podcast.Progress{Stage: podcast.StageDone, Message: "Your podcast is ready", Fraction: 1})
	return pipeline.Result{Podcast: &podcast.Podcast{ID: "p-" + params.Topic, Title: params.Topic}}, nil
}

func newGatedServer(t *testing.T, gen *gatedGenerator) (*Server, *recordingNotifier) {
	t.Helper()
	engine := dialogue.NewEngine(offline.NewDialogueBackend(0), nil, dialogue.WithMaxTurns(1))
	notices := &recordingNotifier{}
	srv := New(Dependencies{Engine: engine, Generator: gen, Notifier: notices})
	t.Cleanup(srv.Close)
	return srv, notices
}

func readyConversation(t *testing.T, h http.Handler) string {
	t.Helper()
	id := createConversation(t, h, "Tides")
	rec := do(t, h, http.MethodPost, "/api/conversations/"+id+"/replies", ReplyRequest{Text: "Single episode"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, dialogue.PhaseReady, decode[TurnResponse](t, rec).State.Phase)
	return id
}

func TestOneGenerationInFlightPerConversation(t *testing.T) {
	gen := &gatedGenerator{release: make(chan struct{})}
	srv, _ := newGatedServer(t, gen)
	h := srv.Handler()
	id := readyConversation(t, h)

	rec := do(t, h, http.MethodPost, "/api/conversations/"+id+"/generation", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	rec = do(t, h, http.MethodPost, "/api/conversations/"+id+"/generation", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	close(gen.release)
	status := waitForGeneration(t, h, id)
	assert.Equal(t, GenerationCompleted, status.State)

	// The slot is free again once the attempt finishes.
	require.Eventually(t, func() bool {
		return do(t, h, http.MethodPost, "/api/conversations/"+id+"/generation", nil).Code == http.StatusAccepted
	}, 2*time.Second, 10*time.Millisecond)
	waitForGeneration(t, h, id)
	gen.mu.Lock()
	defer gen.mu.Unlock()
	assert.Equal(t, 2, gen.calls)
}

func TestCancelGeneration(t *testing.T) {
	gen := &gatedGenerator{release: make(chan struct{})}
	srv, notices := newGatedServer(t, gen)
	h := srv.Handler()
	id := readyConversation(t, h)

	require.Equal(t, http.StatusAccepted, do(t, h, http.MethodPost, "/api/conversations/"+id+"/generation", nil).Code)
	rec := do(t, h, http.MethodPost, "/api/conversations/"+id+"/generation/cancel", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)

	status := waitForGeneration(t, h, id)
	assert.Equal(t, GenerationCancelled, status.State)
	assert.Nil(t, status.Error)
	require.NotNil(t, status.Latest)
	assert.Equal(t, podcast.StageCancelled, status.Latest.Stage)
	_, _, cancelled := notices.counts()
	assert.Equal(t, 1, cancelled)
}

func TestFailedGenerationReportsClassAndAllowsRetry(t *testing.T) {
	gen := &gatedGenerator{release: make(chan struct{}), fail: services.Wrap(services.ErrTimeout, "narration", "synthesize", "speech timed out", nil)}
	close(gen.release)
	srv, notices := newGatedServer(t, gen)
	h := srv.Handler()
	id := readyConversation(t, h)

	require.Equal(t, http.StatusAccepted, do(t, h, http.MethodPost, "/api/conversations/"+id+"/generation", nil).Code)
	status := waitForGeneration(t, h, id)
	require.Equal(t, GenerationFailed, status.State)
	require.NotNil(t, status.Error)
	assert.Equal(t, string(services.KindTimeout), status.Error.Kind)
	assert.Equal(t, "narration", status.Error.Stage)
	_, failed, _ := notices.counts()
	assert.Equal(t, 1, failed)

	gen.mu.Lock()
	gen.fail = nil
	gen.mu.Unlock()
	require.Eventually(t, func() bool {
		return do(t, h, http.MethodPost, "/api/conversations/"+id+"/generation", nil).Code == http.StatusAccepted
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, GenerationCompleted, waitForGeneration(t, h, id).State)
}

func TestGenerationEventStream(t *testing.T) {
	gen := &gatedGenerator{release: make(chan struct{})}
	srv, _ := newGatedServer(t, gen)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	id := readyConversation(t, srv.Handler())

	require.Equal(t, http.StatusAccepted, do(t, srv.Handler(), http.MethodPost, "/api/conversations/"+id+"/generation", nil).Code)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/conversations/" + id + "/generation/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var first StreamMessage
	require.NoError(t, conn.ReadJSON(&first))
	require.Equal(t, "progress", first.Type)
	assert.Equal(t, podcast.StageSearching, first.Progress.Stage)

	close(gen.release)

	var frames []StreamMessage
	for {
		var msg StreamMessage
		if err := conn.ReadJSON(&msg); err != nil {
			var closeErr *websocket.CloseError
			require.True(t, errors.As(err, &closeErr), "unexpected read error %v", err)
			assert.Equal(t, websocket.CloseNormalClosure, closeErr.Code)
			break
		}
		frames = append(frames, msg)
	}
	require.Len(t, frames, 2)
	assert.Equal(t, podcast.StageDone, frames[0].Progress.Stage)
	assert.Equal(t, "status", frames[1].Type)
	assert.Equal(t, GenerationCompleted, frames[1].Status.State)
}
