package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"episodic/internal/dialogue"
	"episodic/internal/podcast"
	"episodic/internal/services"
)

// CreateConversationRequest starts a conversation.
type CreateConversationRequest struct {
	Topic string `json:"topic"`
	Voice string `json:"voice,omitempty"`
}

// ReplyRequest carries a clarification answer.
type ReplyRequest struct {
	Text string `json:"text"`
}

// ModifyRequest carries plan feedback.
type ModifyRequest struct {
	Feedback string `json:"feedback"`
}

// TurnResponse is returned by every dialogue action.
type TurnResponse struct {
	Message *podcast.ChatMessage      `json:"message,omitempty"`
	Plan    *podcast.SeriesOutline    `json:"plan,omitempty"`
	Params  *podcast.GenerationParams `json:"params,omitempty"`
	State   dialogue.State            `json:"state"`
}

// StartGenerationRequest optionally overrides the derived parameters.
type StartGenerationRequest struct {
	Voice string `json:"voice,omitempty"`
}

// SeriesResponse is a persisted series with its episodes.
type SeriesResponse struct {
	Series   podcast.Series    `json:"series"`
	Episodes []podcast.Podcast `json:"episodes"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "max_turns": s.maxTurns()})
}

func (s *Server) maxTurns() int {
	if s.deps.Engine == nil {
		return 0
	}
	return s.deps.Engine.MaxTurns()
}

func (s *Server) handleCreateConversation(c *gin.Context) {
	if s.deps.Engine == nil {
		writeError(c, services.Wrap(services.ErrConfiguration, "dialogue", "start", "dialogue engine not configured", nil))
		return
	}
	var req CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Topic) == "" {
		badRequest(c, "topic is required")
		return
	}

	conv := s.deps.Engine.NewConversation()
	conv.SetVoice(req.Voice)
	sess := s.register(conv)
	ctx := services.WithConversationID(c.Request.Context(), conv.ID())
	msg, err := sess.conv.Start(ctx, req.Topic)
	if err != nil {
		// The conversation stays registered so the client can retry the opening turn.
		c.Header("Location", "/api/conversations/"+conv.ID())
		writeError(c, err)
		return
	}
	c.Header("Location", "/api/conversations/"+conv.ID())
	c.JSON(http.StatusCreated, TurnResponse{Message: &msg, State: conv.State()})
}

func (s *Server) handleGetConversation(c *gin.Context) {
	sess, err := s.lookup(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.conv.State())
}

func (s *Server) handleReply(c *gin.Context) {
	sess, err := s.lookup(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	var req ReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	ctx := services.WithConversationID(c.Request.Context(), sess.conv.ID())
	var msg podcast.ChatMessage
	if len(sess.conv.State().Messages) == 0 {
		// Retry of a failed opening turn.
		msg, err = sess.conv.Start(ctx, req.Text)
	} else {
		msg, err = sess.conv.Reply(ctx, req.Text)
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, TurnResponse{Message: &msg, State: sess.conv.State()})
}

func (s *Server) handleApprove(c *gin.Context) {
	sess, err := s.lookup(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	params, err := sess.conv.Approve()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, TurnResponse{Params: &params, State: sess.conv.State()})
}

func (s *Server) handleModify(c *gin.Context) {
	sess, err := s.lookup(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	var req ModifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	ctx := services.WithConversationID(c.Request.Context(), sess.conv.ID())
	plan, err := sess.conv.Modify(ctx, req.Feedback)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, TurnResponse{Plan: &plan, State: sess.conv.State()})
}

func (s *Server) handleSwitchToSingle(c *gin.Context) {
	sess, err := s.lookup(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	params, err := sess.conv.SwitchToSingle()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, TurnResponse{Params: &params, State: sess.conv.State()})
}

func (s *Server) handleParams(c *gin.Context) {
	sess, err := s.lookup(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	params, err := sess.conv.GenerationParams()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, params)
}

func (s *Server) handleStartGeneration(c *gin.Context) {
	sess, err := s.lookup(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	var req StartGenerationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
	}
	params, err := sess.conv.GenerationParams()
	if err != nil {
		writeError(c, err)
		return
	}
	if voice := strings.TrimSpace(req.Voice); voice != "" {
		params.Voice = voice
	}
	g, err := s.startGeneration(sess, params)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, g.status())
}

func (s *Server) handleGetGeneration(c *gin.Context) {
	g, ok := s.currentGeneration(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, g.status())
}

func (s *Server) handleCancelGeneration(c *gin.Context) {
	g, ok := s.currentGeneration(c)
	if !ok {
		return
	}
	g.token.Cancel()
	c.JSON(http.StatusAccepted, g.status())
}

func (s *Server) currentGeneration(c *gin.Context) (*generation, bool) {
	sess, err := s.lookup(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	g := sess.latest()
	if g == nil {
		writeError(c, errNoGeneration)
		return nil, false
	}
	return g, true
}

func (s *Server) handleListPodcasts(c *gin.Context) {
	if !s.requireLibrary(c) {
		return
	}
	items, err := s.deps.Library.ListPodcasts(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if items == nil {
		items = []podcast.Podcast{}
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) handleGetPodcast(c *gin.Context) {
	if !s.requireLibrary(c) {
		return
	}
	item, err := s.deps.Library.GetPodcast(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if item == nil {
		writeError(c, services.Wrap(services.ErrNotFound, "library", "get podcast", c.Param("id"), nil))
		return
	}
	c.JSON(http.StatusOK, item)
}

func (s *Server) handleListSeries(c *gin.Context) {
	if !s.requireLibrary(c) {
		return
	}
	items, err := s.deps.Library.ListSeries(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if items == nil {
		items = []podcast.Series{}
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) handleGetSeries(c *gin.Context) {
	if !s.requireLibrary(c) {
		return
	}
	series, episodes, err := s.deps.Library.GetSeries(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if series == nil {
		writeError(c, services.Wrap(services.ErrNotFound, "library", "get series", c.Param("id"), nil))
		return
	}
	c.JSON(http.StatusOK, SeriesResponse{Series: *series, Episodes: episodes})
}

func (s *Server) requireLibrary(c *gin.Context) bool {
	if s.deps.Library == nil {
		writeError(c, services.Wrap(services.ErrConfiguration, "library", "open", "library not configured", nil))
		return false
	}
	return true
}
